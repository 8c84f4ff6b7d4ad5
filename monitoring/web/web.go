// Package web holds the page served by the memsim monitor.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// devEnv makes the monitor serve the page from the source tree instead of the
// embedded copy.
const devEnv = "MEMSIM_MONITOR_DEV"

//go:embed dist/*
var staticAssets embed.FS

// GetAssets returns the monitor page and the files it loads.
func GetAssets() http.FileSystem {
	if dir, ok := sourceDir(); ok {
		fmt.Fprintf(os.Stderr, "Serving monitor page from %s\n", dir)
		return http.Dir(dir)
	}

	dist, err := fs.Sub(staticAssets, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(dist)
}

// sourceDir returns the dist directory next to this file if devEnv is set to
// a true value.
func sourceDir() (string, bool) {
	dev, err := strconv.ParseBool(os.Getenv(devEnv))
	if err != nil || !dev {
		return "", false
	}

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		panic("cannot locate the monitor page sources")
	}

	return filepath.Join(filepath.Dir(file), "dist"), true
}
