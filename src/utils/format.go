package utils

import "fmt"

var sportEmoji = map[string]string{
	"Ride":              "🚲",
	"EBikeRide":         "🚲",
	"EMountainBikeRide": "🚲",
	"GravelRide":        "🚲",
	"MountainBikeRide":  "🚲",
	"Run":               "🏃",
	"TrailRun":          "🏃",
	"Walk":              "🥾",
	"Hike":              "🥾",
	"Swim":              "🏊",
}

// FormatDistance takes meters. Anything from 2 km up is shown in km.
func FormatDistance(meters float64) string {
	if meters >= 2000 {
		return fmt.Sprintf("%.1f km", meters/1000)
	}
	return fmt.Sprintf("%.0f m", meters)
}

func FormatDuration(secs int64) string {
	hours := secs / 3600
	mins := (secs % 3600) / 60
	if hours == 0 {
		return fmt.Sprintf("%dm %ds", mins, secs%60)
	}
	return fmt.Sprintf("%dh %dm", hours, mins)
}

// SportLabel is an emoji for the common sport types, the type name otherwise.
func SportLabel(sportType string) string {
	if e, ok := sportEmoji[sportType]; ok {
		return e
	}
	return sportType
}
