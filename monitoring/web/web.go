// Package web holds the page that the monitor serves.
package web

import (
	"embed"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

//go:embed dist/*
var staticAssets embed.FS

// DevModeEnv is the environment variable that makes the monitor serve the
// page from the source tree, so that it can be edited without a rebuild.
const DevModeEnv = "DMSIM_MONITOR_DEV"

// GetAssets returns the static assets.
func GetAssets() http.FileSystem {
	if isDevelopmentMode() {
		_, file, _, ok := runtime.Caller(0)
		if !ok {
			panic("error getting path")
		}

		dir := filepath.Join(filepath.Dir(file), "dist")
		log.Printf("monitor serves assets from %s", dir)

		return http.Dir(dir)
	}

	subFS, err := fs.Sub(staticAssets, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(subFS)
}

func isDevelopmentMode() bool {
	v, ok := os.LookupEnv(DevModeEnv)
	if !ok {
		return false
	}

	return strings.EqualFold(v, "true") || v == "1"
}
