package engine

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/uber/h3-go/v4"

	"github.com/hexymap/hexy/src/project_types"
	"github.com/hexymap/hexy/src/utils"
)

// activityProperties is what the browser sees on an activity feature, after
// snake_casing.
type activityProperties struct {
	ID              int64
	Name            string
	Distance        float64
	MovingTime      int64
	ElapsedTime     int64
	StartDate       string
	KudosCount      int
	AverageSpeed    float64
	Type            string
	SportType       string
	DistanceLabel   string
	MovingTimeLabel string
	SportLabel      string
}

func Properties(a project_types.Activity) (geojson.Properties, error) {
	props, err := utils.DecodeSnakeCase(activityProperties{
		ID:              a.ID,
		Name:            a.Name,
		Distance:        a.Distance,
		MovingTime:      a.MovingTime,
		ElapsedTime:     a.ElapsedTime,
		StartDate:       a.StartDate.UTC().Format(time.RFC3339),
		KudosCount:      a.KudosCount,
		AverageSpeed:    a.AverageSpeed,
		Type:            a.Type,
		SportType:       a.SportType,
		DistanceLabel:   utils.FormatDistance(a.Distance),
		MovingTimeLabel: utils.FormatDuration(a.MovingTime),
		SportLabel:      utils.SportLabel(a.SportType),
	})
	if err != nil {
		return nil, err
	}
	return geojson.Properties(props), nil
}

// ActivitiesGeoJSON has one LineString per activity with a track. The
// feature id is the activity id so the browser can set feature state on it.
func ActivitiesGeoJSON(activities []project_types.Activity) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	for _, a := range activities {
		if !hasTrack(a) {
			continue
		}
		props, err := Properties(a)
		if err != nil {
			return nil, err
		}
		f := geojson.NewFeature(a.Track)
		f.ID = a.ID
		f.Properties = props
		fc.Append(f)
	}
	return fc, nil
}

func cellPolygon(c h3.Cell) orb.Polygon {
	boundary := c.Boundary()
	ring := make(orb.Ring, 0, len(boundary)+1)
	for _, ll := range boundary {
		ring = append(ring, orb.Point{ll.Lng, ll.Lat})
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	return orb.Polygon{ring}
}

func HexesGeoJSON(cells []h3.Cell) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, c := range cells {
		f := geojson.NewFeature(cellPolygon(c))
		f.ID = i
		f.Properties = geojson.Properties{"index": c.String()}
		fc.Append(f)
	}
	return fc
}
