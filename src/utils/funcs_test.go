package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSnakeCase(t *testing.T) {
	in := struct {
		ID           int64
		MovingTime   int64
		SportType    string
		KudosCount   int
		AverageSpeed float64
	}{ID: 1, MovingTime: 60, SportType: "Ride", KudosCount: 2, AverageSpeed: 3.5}

	out, err := DecodeSnakeCase(in)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"id":            int64(1),
		"moving_time":   int64(60),
		"sport_type":    "Ride",
		"kudos_count":   2,
		"average_speed": 3.5,
	}, out)
}

func TestWriteAsJsonFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	require.NoError(t, WriteAsJsonFile(map[string]int{"a": 1}, path))
	assert.True(t, FileExists(path))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(body))

	assert.False(t, FileExists(filepath.Dir(path)))
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "0 m", FormatDistance(0))
	assert.Equal(t, "1999 m", FormatDistance(1999))
	assert.Equal(t, "2.0 km", FormatDistance(2000))
	assert.Equal(t, "42.2 km", FormatDistance(42195))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0m 0s", FormatDuration(0))
	assert.Equal(t, "5m 7s", FormatDuration(307))
	assert.Equal(t, "1h 0m", FormatDuration(3600))
	assert.Equal(t, "2h 15m", FormatDuration(2*3600+15*60+59))
}

func TestSportLabel(t *testing.T) {
	assert.Equal(t, "🚲", SportLabel("GravelRide"))
	assert.Equal(t, "🏃", SportLabel("TrailRun"))
	assert.Equal(t, "🥾", SportLabel("Hike"))
	assert.Equal(t, "🏊", SportLabel("Swim"))
	assert.Equal(t, "Kayaking", SportLabel("Kayaking"))
}
