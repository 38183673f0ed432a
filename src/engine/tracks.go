package engine

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
	"github.com/twpayne/go-polyline"

	"github.com/hexymap/hexy/src/project_types"
	"github.com/hexymap/hexy/src/strava"
)

// DecodeTrack prefers the full polyline and falls back to the summary one.
// An empty polyline is not an error; it yields a nil track.
func DecodeTrack(m strava.Map) (orb.LineString, error) {
	encoded := m.Polyline
	if encoded == "" {
		encoded = m.SummaryPolyline
	}
	if encoded == "" {
		return nil, nil
	}

	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%d trailing bytes after polyline", len(rest))
	}

	track := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		// polylines are lat,lng; orb points are lng,lat
		track = append(track, orb.Point{c[1], c[0]})
	}
	return track, nil
}

func FromResponse(obj strava.ActivityResponse) project_types.Activity {
	track, err := DecodeTrack(obj.Map)
	if err != nil {
		log.Warn().Err(err).Int64("activity", obj.ID).Msg("dropping undecodable polyline")
		track = nil
	}
	return project_types.Activity{
		ID:           obj.ID,
		Name:         obj.Name,
		Distance:     obj.Distance,
		MovingTime:   obj.MovingTime,
		ElapsedTime:  obj.ElapsedTime,
		StartDate:    obj.StartDate,
		KudosCount:   obj.KudosCount,
		AverageSpeed: obj.AverageSpeed,
		Type:         obj.Type,
		SportType:    obj.SportType,
		Track:        track,
	}
}

func DecodeAll(responses []strava.ActivityResponse) []project_types.Activity {
	acts := make([]project_types.Activity, 0, len(responses))
	for _, r := range responses {
		acts = append(acts, FromResponse(r))
	}
	return acts
}
