package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static templates
var assets embed.FS

func sub(dir string) fs.FS {
	f, err := fs.Sub(assets, dir)
	if err != nil {
		// only fails for an invalid path, which would be a build mistake
		panic(err)
	}
	return f
}

// Static serves the JS and CSS under /static.
func Static() http.FileSystem {
	return http.FS(sub("static"))
}

// Templates holds the html pages, named by their path without extension.
func Templates() http.FileSystem {
	return http.FS(sub("templates"))
}
