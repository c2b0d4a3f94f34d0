package main

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"sync"

	"github.com/julienschmidt/httprouter"
	"github.com/nfnt/resize"

	"github.com/life4today/life4today/game"
)

const thumbnailWidth = 320

// thumbnailCache keeps generated thumbnails keyed by stored filename.
// Entries are small JPEGs; the backing photo file is the source of truth
// and a reaped photo simply stops being requested.
type thumbnailCache struct {
	mu    sync.RWMutex
	cache map[string][]byte
	files game.FileStore
}

func newThumbnailCache(files game.FileStore) *thumbnailCache {
	return &thumbnailCache{
		cache: make(map[string][]byte),
		files: files,
	}
}

func (t *thumbnailCache) get(filename string) ([]byte, error) {
	t.mu.RLock()
	cached, ok := t.cache[filename]
	t.mu.RUnlock()

	if ok {
		return cached, nil
	}

	data, err := t.files.Open(filename)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	thumb := resize.Resize(thumbnailWidth, 0, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.cache[filename] = buf.Bytes()
	t.mu.Unlock()

	return buf.Bytes(), nil
}

func serveThumbnail(cfg *Config, repo game.Repository, thumbs *thumbnailCache) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		photos, err := repo.Photos(p.ByName("gameid"), p.ByName("playerid"))
		if err != nil {
			respondStoreError(cfg, w, err)

			return
		}

		var filename string
		for _, photo := range photos {
			if photo.ID == p.ByName("photoid") {
				filename = photo.Filename
				break
			}
		}
		if filename == "" {
			respondFailure(cfg, w, http.StatusNotFound, "Photo not found")

			return
		}

		thumb, err := thumbs.get(filename)
		if err != nil {
			respondFailure(cfg, w, http.StatusInternalServerError, "Thumbnail generation failed")

			return
		}

		securityHeaders(cfg, w)
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Cache-Control", "public, max-age=3600")

		_, _ = w.Write(thumb)
	}
}
