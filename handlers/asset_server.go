package handlers

import (
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/openelects/candidatesbackend/media"
)

// AssetServer serves stored photos and thumbnails below one storage
// subdirectory, e.g. GET /api/photos/ab/abcd0123....jpg. Stored names are
// content-addressed, so the bytes behind a path never change and responses
// can be cached hard.
func AssetServer(store media.Store, subDir string) http.HandlerFunc {
	routePrefix := "/api/" + subDir + "/"
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, routePrefix)
		if name == "" || name == r.URL.Path {
			http.NotFound(w, r)
			return
		}

		fullPath, err := store.AbsolutePath(path.Join(subDir, name))
		if err != nil {
			http.Error(w, "Invalid asset path", http.StatusBadRequest)
			return
		}

		info, err := os.Stat(fullPath)
		if os.IsNotExist(err) || (err == nil && info.IsDir()) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		http.ServeFile(w, r, fullPath)
	}
}
