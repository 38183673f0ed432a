package fileio

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/rs/zerolog/log"
	"github.com/tkrajina/gpxgo/gpx"

	"github.com/hexymap/hexy/src/project_types"
)

// GPX <type> values seen in exports from Strava, Garmin and Komoot.
var gpxSportTypes = map[string]string{
	"1":        "Ride",
	"cycling":  "Ride",
	"biking":   "Ride",
	"ride":     "Ride",
	"9":        "Run",
	"running":  "Run",
	"run":      "Run",
	"10":       "Walk",
	"walking":  "Walk",
	"walk":     "Walk",
	"hiking":   "Hike",
	"hike":     "Hike",
	"swimming": "Swim",
	"swim":     "Swim",
	"kayaking": "Kayaking",
	"rowing":   "Rowing",
}

func sportType(raw string) string {
	if t, ok := gpxSportTypes[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return t
	}
	if raw == "" {
		return "Workout"
	}
	return raw
}

// ReadGPXFile turns every track and route in a GPX file into an activity.
// Ids are assigned in file order starting at 1.
func ReadGPXFile(filePath string) ([]project_types.Activity, error) {
	g, err := gpx.ParseFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}
	fallback := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))

	activities := []project_types.Activity{}
	next := func() int64 { return int64(len(activities) + 1) }

	for i := range g.Tracks {
		trk := &g.Tracks[i]
		points := []gpx.GPXPoint{}
		for _, seg := range trk.Segments {
			points = append(points, seg.Points...)
		}
		if len(points) == 0 {
			log.Warn().Str("file", filePath).Str("track", trk.Name).Msg("skipping empty track")
			continue
		}
		a := fromPoints(next(), nameOr(trk.Name, fallback), trk.Type, points)
		a.MovingTime = int64(math.Round(trk.MovingData().MovingTime))
		activities = append(activities, a)
	}
	for _, rte := range g.Routes {
		if len(rte.Points) == 0 {
			continue
		}
		activities = append(activities, fromPoints(next(), nameOr(rte.Name, fallback), rte.Type, rte.Points))
	}
	return activities, nil
}

func nameOr(name, fallback string) string {
	if strings.TrimSpace(name) == "" {
		return fallback
	}
	return name
}

func fromPoints(id int64, name, kind string, points []gpx.GPXPoint) project_types.Activity {
	track := make(orb.LineString, 0, len(points))
	for _, p := range points {
		track = append(track, orb.Point{p.Longitude, p.Latitude})
	}
	sport := sportType(kind)
	a := project_types.Activity{
		ID:        id,
		Name:      name,
		Distance:  math.Round(geo.Length(track)*10) / 10,
		Type:      sport,
		SportType: sport,
		Track:     track,
	}

	first, last := points[0].Timestamp, points[len(points)-1].Timestamp
	if !first.IsZero() {
		a.StartDate = first.UTC()
	}
	if !first.IsZero() && last.After(first) {
		elapsed := last.Sub(first)
		a.ElapsedTime = int64(elapsed / time.Second)
		a.MovingTime = a.ElapsedTime
		a.AverageSpeed = a.Distance / elapsed.Seconds()
	}
	return a
}
