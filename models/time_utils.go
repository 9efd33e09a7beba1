package models

// PointsForHistory returns how many price points cover the given number of
// days at the given interval, with a small buffer for gaps.
func PointsForHistory(interval string, days int) int {
	pointsPerDay := 0

	switch interval {
	case "1min":
		pointsPerDay = 24 * 60
	case "5min":
		pointsPerDay = 24 * 12
	case "15min":
		pointsPerDay = 24 * 4
	case "30min":
		pointsPerDay = 24 * 2
	case "1h":
		pointsPerDay = 24
	case "4h":
		pointsPerDay = 6
	case "1day":
		pointsPerDay = 1
	case "1week":
		// weekly points, convert days to weeks
		pointsPerDay = 1
		days = days / 7
		if days < 1 {
			days = 1
		}
	default:
		pointsPerDay = 24
	}

	if days < 1 {
		days = 1
	}

	return int(float64(pointsPerDay) * float64(days) * 1.1)
}
