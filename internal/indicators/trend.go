package indicators

const (
	trendWindow = 20

	volumeRecentWindow = 10
	volumeBaseWindow   = 20
)

// TrendStrength returns the share (in percent) of the last 20 closes that sit
// above the mean of those same 20 closes. Returns 50 with fewer than 20 closes.
func TrendStrength(closes []float64) float64 {
	if len(closes) < trendWindow {
		return 50
	}
	window := closes[len(closes)-trendWindow:]
	avg := mean(window)
	above := 0
	for _, c := range window {
		if c > avg {
			above++
		}
	}
	return float64(above) / float64(trendWindow) * 100
}

// VolumeIncreasePct compares the mean of the last 10 volumes with the mean of
// the up to 20 volumes immediately before them. Returns 0 when there is no
// earlier window or its mean is zero.
func VolumeIncreasePct(volumes []float64) float64 {
	n := len(volumes)
	if n <= volumeRecentWindow {
		return 0
	}
	recent := volumes[n-volumeRecentWindow:]
	from := n - volumeRecentWindow - volumeBaseWindow
	if from < 0 {
		from = 0
	}
	older := volumes[from : n-volumeRecentWindow]

	olderMean := mean(older)
	if olderMean == 0 {
		return 0
	}
	return (mean(recent) - olderMean) / olderMean * 100
}
