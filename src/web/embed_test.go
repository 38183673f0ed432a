package web

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetsEmbedded(t *testing.T) {
	for _, name := range []string{"main.js", "utils.js", "style.css"} {
		f, err := Static().Open(name)
		require.NoError(t, err, name)
		body, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.NotEmpty(t, body, name)
		f.Close()
	}
	for _, name := range []string{"index.html", "home.html", "privacy.html", "partials/head.html"} {
		f, err := Templates().Open(name)
		require.NoError(t, err, name)
		f.Close()
	}
}
