package logging

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	app := fiber.New()
	app.Use(RequestLogger(logger))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/denied", func(c *fiber.Ctx) error { return fiber.ErrUnauthorized })
	app.Get("/boom", func(c *fiber.Ctx) error { return fiber.ErrServiceUnavailable })

	cases := []struct {
		path   string
		status int
		level  string
		err    string
	}{
		{"/ok", 200, "info", ""},
		{"/denied", 401, "warn", "Unauthorized"},
		{"/boom", 503, "error", "Service Unavailable"},
	}
	for _, tc := range cases {
		buf.Reset()
		resp, err := app.Test(httptest.NewRequest("GET", tc.path, nil))
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode, tc.path)

		lines := decodeLines(t, &buf)
		require.Len(t, lines, 1)
		assert.Equal(t, tc.level, lines[0]["level"])
		assert.Equal(t, "http_request", lines[0]["message"])
		assert.Equal(t, tc.path, lines[0]["path"])
		assert.EqualValues(t, tc.status, lines[0]["status"])
		if tc.err == "" {
			assert.NotContains(t, lines[0], "error")
		} else {
			assert.Equal(t, tc.err, lines[0]["error"])
		}
	}
}

func TestNewFallsBackToInfo(t *testing.T) {
	logger := New("nonsense", false)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())

	logger = New("debug", false)
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
}
