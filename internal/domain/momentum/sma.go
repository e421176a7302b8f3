package momentum

// smaAt computes the trailing simple moving average of closes ending at
// position end (inclusive). Returns false when fewer than window values
// precede the position; the first window-1 positions of any series carry no
// defined SMA.
func smaAt(closes []float64, window, end int) (float64, bool) {
	if window <= 0 || end < window-1 || end >= len(closes) {
		return 0, false
	}
	sum := 0.0
	for i := end - window + 1; i <= end; i++ {
		sum += closes[i]
	}
	return sum / float64(window), true
}

// distance returns the signed percent distance of value from reference.
func distance(value, reference float64) float64 {
	return (value - reference) / reference * 100
}
