package mapstyle

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexymap/hexy/src/config"
)

func TestDefaultGroupButtons(t *testing.T) {
	buttons := []string{}
	for _, g := range DefaultGroups() {
		buttons = append(buttons, g.Button)
	}
	assert.Equal(t, []string{"btnRide", "btnRun", "btnWalk", "btnSwim", "btnWater"}, buttons)
}

// round-trip through JSON so expressions compare the way the browser sees them
func asJSON(t *testing.T, v interface{}) interface{} {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	var out interface{}
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestLineColor(t *testing.T) {
	want := `["case",
		["boolean", ["feature-state", "selected"], false], "#000000",
		["any",
			["==", ["get", "sport_type"], "EBikeRide"],
			["==", ["get", "sport_type"], "EMountainBikeRide"],
			["==", ["get", "sport_type"], "GravelRide"],
			["==", ["get", "sport_type"], "MountainBikeRide"],
			["==", ["get", "sport_type"], "Ride"]], "#984ea3",
		["any",
			["==", ["get", "sport_type"], "Run"],
			["==", ["get", "sport_type"], "TrailRun"]], "#ff7f00",
		["any",
			["==", ["get", "sport_type"], "Walk"],
			["==", ["get", "sport_type"], "Hike"]], "#4daf4a",
		["==", ["get", "sport_type"], "Swim"], "#377eb8",
		"#595959"]`
	var expected interface{}
	require.NoError(t, json.Unmarshal([]byte(want), &expected))

	if diff := cmp.Diff(expected, asJSON(t, LineColor(DefaultGroups()))); diff != "" {
		t.Errorf("line-color mismatch (-want +got):\n%s", diff)
	}
}

func TestActivityLayerWidthAndOpacity(t *testing.T) {
	layer := asJSON(t, ActivityLayer(DefaultGroups(), nil)).(map[string]interface{})
	paint := layer["paint"].(map[string]interface{})

	var width, opacity interface{}
	require.NoError(t, json.Unmarshal([]byte(`["interpolate", ["linear"], ["zoom"],
		7, ["case", ["boolean", ["feature-state", "selected"], false], 4, 2],
		15, ["case", ["boolean", ["feature-state", "selected"], false], 12, 6]]`), &width))
	require.NoError(t, json.Unmarshal([]byte(`["interpolate", ["linear"], ["zoom"], 7, 0.6, 15, 0.5]`), &opacity))

	if diff := cmp.Diff(width, paint["line-width"]); diff != "" {
		t.Errorf("line-width mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(opacity, paint["line-opacity"]); diff != "" {
		t.Errorf("line-opacity mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, map[string]interface{}{"line-join": "round", "line-cap": "round"}, layer["layout"])
	_, hasFilter := layer["filter"]
	assert.False(t, hasFilter)
}

func TestFilterExpression(t *testing.T) {
	groups := DefaultGroups()

	assert.Nil(t, FilterExpression(groups, nil))
	assert.Nil(t, FilterExpression(groups, []string{"unknown"}))

	got := FilterExpression(groups, []string{"run", "swim"})
	want := Expr{"all",
		Expr{"!=", Expr{"get", "sport_type"}, "Run"},
		Expr{"!=", Expr{"get", "sport_type"}, "TrailRun"},
		Expr{"!=", Expr{"get", "sport_type"}, "Swim"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}
}

func TestHexLayer(t *testing.T) {
	layer := HexLayer()
	assert.Equal(t, "hex", layer.ID)
	assert.Equal(t, "fill", layer.Type)
	assert.Equal(t, "hsla(0, 50%, 50%, 0.3)", layer.Paint["fill-color"])
	assert.Equal(t, "rgba(0,0,0,0)", layer.Paint["fill-outline-color"])
}

func TestBuild(t *testing.T) {
	cfg := config.Default().Map
	cfg.OSKey = "secret-key"
	cfg.HiddenGroups = []string{"water"}

	mc := Build(cfg, DefaultGroups())
	assert.Equal(t, [2]float64{-4.2, 52.4}, mc.View.Center)
	assert.True(t, mc.View.Hash)
	assert.Equal(t, 10.5, mc.Focus.Zoom)
	assert.Equal(t, 9.0, mc.Focus.BelowZoom)

	require.Len(t, mc.Transform, 1)
	assert.Equal(t, "https://api.os.uk", mc.Transform[0].Prefix)
	assert.Equal(t, map[string]string{"key": "secret-key", "srs": "3857"}, mc.Transform[0].Params)

	require.Len(t, mc.Layers, 2)
	assert.Equal(t, "hex", mc.Layers[0].ID)
	assert.Equal(t, "activities", mc.Layers[1].ID)
	assert.Len(t, mc.Layers[1].Filter, 7, "all + six water sports")
	assert.Equal(t, []string{"water"}, mc.Hidden)
}

func TestBuild_NoKeyStillSetsSRS(t *testing.T) {
	mc := Build(config.Default().Map, DefaultGroups())
	require.Len(t, mc.Transform, 1)
	assert.Equal(t, osTileHost, mc.Transform[0].Prefix)
	assert.Equal(t, map[string]string{"srs": "3857"}, mc.Transform[0].Params)
	assert.Equal(t, []string{}, mc.Hidden)

	body, err := json.Marshal(mc)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"params":{"srs":"3857"}`)
	assert.Contains(t, string(body), `"maxBounds":[[-10.7,49.5],[1.9,61.3]]`)
}
