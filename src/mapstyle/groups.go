package mapstyle

import "github.com/iancoleman/strcase"

// Group is a set of sport types that share a line color and a filter button.
type Group struct {
	ID     string   `json:"id"`
	Label  string   `json:"label"`
	Emoji  string   `json:"emoji"`
	Color  string   `json:"color,omitempty"`
	Types  []string `json:"types"`
	Button string   `json:"button"`
}

func newGroup(id, label, emoji, color string, types ...string) Group {
	return Group{
		ID:     id,
		Label:  label,
		Emoji:  emoji,
		Color:  color,
		Types:  types,
		Button: "btn" + strcase.ToCamel(id),
	}
}

// DefaultGroups in legend order. Water sports have no color of their own and
// draw in OtherColor.
func DefaultGroups() []Group {
	return []Group{
		newGroup("ride", "Ride", "🚲", "#984ea3", "EBikeRide", "EMountainBikeRide", "GravelRide", "MountainBikeRide", "Ride"),
		newGroup("run", "Run", "🏃", "#ff7f00", "Run", "TrailRun"),
		newGroup("walk", "Walk", "🥾", "#4daf4a", "Walk", "Hike"),
		newGroup("swim", "Swim", "🏊", "#377eb8", "Swim"),
		newGroup("water", "Water", "🛶", "", "Canoeing", "Kayaking", "Kitesurf", "Rowing", "Sail", "Surfing"),
	}
}
