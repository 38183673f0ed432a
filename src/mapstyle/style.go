package mapstyle

import (
	"github.com/hexymap/hexy/src/config"
)

const (
	HexSource      = "hex"
	ActivitySource = "activities"

	SelectedColor = "#000000"
	OtherColor    = "#595959"

	hexFill    = "hsla(0, 50%, 50%, 0.3)"
	hexOutline = "rgba(0,0,0,0)"

	osTileHost  = "https://api.os.uk"
	osTileSRS   = "3857"
	activityURL = "https://www.strava.com/activities/"
)

// Expr is a MapLibre style expression; it marshals to a JSON array.
type Expr = []interface{}

type Layer struct {
	ID     string                 `json:"id"`
	Type   string                 `json:"type"`
	Source string                 `json:"source"`
	Layout map[string]interface{} `json:"layout,omitempty"`
	Paint  map[string]interface{} `json:"paint"`
	Filter Expr                   `json:"filter,omitempty"`
}

type View struct {
	Style     string        `json:"style"`
	Center    [2]float64    `json:"center"`
	Zoom      float64       `json:"zoom"`
	MinZoom   float64       `json:"minZoom"`
	MaxZoom   float64       `json:"maxZoom"`
	MaxBounds [2][2]float64 `json:"maxBounds"`
	Hash      bool          `json:"hash"`
}

// TransformRule adds Params to every non-style request whose URL starts with
// Prefix, leaving params the URL already has alone.
type TransformRule struct {
	Prefix string            `json:"prefix"`
	Params map[string]string `json:"params"`
}

// Focus is where the map jumps once data arrives, if the viewer is still
// zoomed out past BelowZoom.
type Focus struct {
	Zoom      float64 `json:"zoom"`
	BelowZoom float64 `json:"belowZoom"`
}

// MapConfig is everything the browser needs before it can draw; served as
// /map-config.
type MapConfig struct {
	View        View            `json:"view"`
	Transform   []TransformRule `json:"transform"`
	Layers      []Layer         `json:"layers"`
	Groups      []Group         `json:"groups"`
	Hidden      []string        `json:"hidden"`
	Focus       Focus           `json:"focus"`
	ActivityURL string          `json:"activityUrl"`
}

func Build(cfg config.MapConfig, groups []Group) MapConfig {
	// OS tiles always need srs; the key is added only when one is set
	params := map[string]string{"srs": osTileSRS}
	if cfg.OSKey != "" {
		params["key"] = cfg.OSKey
	}
	transform := []TransformRule{{Prefix: osTileHost, Params: params}}
	hidden := cfg.HiddenGroups
	if hidden == nil {
		hidden = []string{}
	}
	return MapConfig{
		View: View{
			Style:     cfg.Style,
			Center:    cfg.Center,
			Zoom:      cfg.Zoom,
			MinZoom:   cfg.MinZoom,
			MaxZoom:   cfg.MaxZoom,
			MaxBounds: cfg.MaxBounds,
			Hash:      true,
		},
		Transform:   transform,
		Layers:      []Layer{HexLayer(), ActivityLayer(groups, hidden)},
		Groups:      groups,
		Hidden:      hidden,
		Focus:       Focus{Zoom: 10.5, BelowZoom: 9},
		ActivityURL: activityURL,
	}
}

func HexLayer() Layer {
	return Layer{
		ID:     HexSource,
		Type:   "fill",
		Source: HexSource,
		Paint: map[string]interface{}{
			"fill-color":         hexFill,
			"fill-outline-color": hexOutline,
		},
	}
}

func ActivityLayer(groups []Group, hidden []string) Layer {
	return Layer{
		ID:     ActivitySource,
		Type:   "line",
		Source: ActivitySource,
		Layout: map[string]interface{}{
			"line-join": "round",
			"line-cap":  "round",
		},
		Paint: map[string]interface{}{
			"line-color":   LineColor(groups),
			"line-opacity": Expr{"interpolate", Expr{"linear"}, Expr{"zoom"}, 7, 0.6, 15, 0.5},
			"line-width": Expr{"interpolate", Expr{"linear"}, Expr{"zoom"},
				7, whenSelected(4, 2),
				15, whenSelected(12, 6),
			},
		},
		Filter: FilterExpression(groups, hidden),
	}
}

func selected() Expr {
	return Expr{"boolean", Expr{"feature-state", "selected"}, false}
}

func whenSelected(yes, no interface{}) Expr {
	return Expr{"case", selected(), yes, no}
}

func sportIs(t string) Expr {
	return Expr{"==", Expr{"get", "sport_type"}, t}
}

func matchesAny(types []string) Expr {
	if len(types) == 1 {
		return sportIs(types[0])
	}
	anyOf := Expr{"any"}
	for _, t := range types {
		anyOf = append(anyOf, sportIs(t))
	}
	return anyOf
}

// LineColor: black when selected, the group color otherwise, grey for
// everything no colored group claims.
func LineColor(groups []Group) Expr {
	expr := Expr{"case", selected(), SelectedColor}
	for _, g := range groups {
		if g.Color == "" || len(g.Types) == 0 {
			continue
		}
		expr = append(expr, matchesAny(g.Types), g.Color)
	}
	return append(expr, OtherColor)
}

// FilterExpression hides every sport type of the hidden groups. Nil means no
// filter.
func FilterExpression(groups []Group, hidden []string) Expr {
	off := map[string]bool{}
	for _, id := range hidden {
		off[id] = true
	}
	filter := Expr{"all"}
	for _, g := range groups {
		if !off[g.ID] {
			continue
		}
		for _, t := range g.Types {
			filter = append(filter, Expr{"!=", Expr{"get", "sport_type"}, t})
		}
	}
	if len(filter) == 1 {
		return nil
	}
	return filter
}
