package main

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/life4today/life4today/game"
	"github.com/life4today/life4today/topic"
)

// registerGameRoutes sets up the REST surface:
//   - POST   /games                                    → create
//   - GET    /games/:gameid                            → info
//   - GET    /games/:gameid/qr                         → join QR code
//   - POST   /games/:gameid/players                    → join/update player
//   - POST   /games/:gameid/players/:playerid/photos   → upload
//   - GET    /games/:gameid/players/:playerid/photos   → list
//   - DELETE /games/:gameid/players/:playerid/photos/:photoid
//   - GET    /games/:gameid/players/:playerid/photos/:photoid/thumbnail
//   - POST   /games/:gameid/players/:playerid/share    → share text
//   - GET    /uploads/:filename                        → photo bytes
func registerGameRoutes(cfg *Config, mux *httprouter.Router, repo game.Repository, files game.FileStore) {
	thumbs := newThumbnailCache(files)

	mux.POST(cfg.prefix+"/games", createGame(cfg, repo))
	mux.GET(cfg.prefix+"/games/:gameid", getGame(cfg, repo))
	mux.GET(cfg.prefix+"/games/:gameid/qr", serveJoinQR(cfg, repo))
	mux.POST(cfg.prefix+"/games/:gameid/players", joinGame(cfg, repo))
	mux.POST(cfg.prefix+"/games/:gameid/players/:playerid/photos", uploadPhoto(cfg, repo))
	mux.GET(cfg.prefix+"/games/:gameid/players/:playerid/photos", listPhotos(cfg, repo))
	mux.DELETE(cfg.prefix+"/games/:gameid/players/:playerid/photos/:photoid", deletePhoto(cfg, repo))
	mux.GET(cfg.prefix+"/games/:gameid/players/:playerid/photos/:photoid/thumbnail", serveThumbnail(cfg, repo, thumbs))
	mux.POST(cfg.prefix+"/games/:gameid/players/:playerid/share", sharePhotoStatus(cfg, repo))
	mux.GET(cfg.prefix+"/uploads/:filename", serveUpload(cfg, files))
}

func createGame(cfg *Config, repo game.Repository) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		g, err := repo.Create()
		if err != nil {
			respondStoreError(cfg, w, err)

			return
		}

		logf(cfg, "GAMES: Created game %s for %s", g.ID, realIP(r))

		respondJSON(cfg, w, http.StatusOK, map[string]any{
			"success": true,
			"gameId":  g.ID,
			"topics":  topic.All(),
		})
	}
}

// playerSummary carries the completion fields derived from the photo list;
// they are never stored independently.
type playerSummary struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	PhotoCount      int           `json:"photoCount"`
	CompletedTopics []topic.Topic `json:"completedTopics"`
	LastActive      time.Time     `json:"lastActive"`
}

func getGame(cfg *Config, repo game.Repository) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		g, err := repo.Get(p.ByName("gameid"))
		if err != nil {
			respondStoreError(cfg, w, err)

			return
		}

		players := make([]playerSummary, 0, len(g.Players))
		for i := range g.Players {
			players = append(players, playerSummary{
				ID:              g.Players[i].ID,
				Name:            g.Players[i].Name,
				PhotoCount:      g.Players[i].PhotoCount(),
				CompletedTopics: g.Players[i].CompletedTopics(),
				LastActive:      g.Players[i].LastActive,
			})
		}

		respondJSON(cfg, w, http.StatusOK, map[string]any{
			"success": true,
			"game": map[string]any{
				"id":      g.ID,
				"players": players,
				"topics":  topic.All(),
			},
		})
	}
}

func joinGame(cfg *Config, repo game.Repository) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		var body struct {
			PlayerName string `json:"playerName"`
			PlayerID   string `json:"playerId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondFailure(cfg, w, http.StatusBadRequest, "Invalid request body")

			return
		}

		player, err := repo.UpsertPlayer(p.ByName("gameid"), body.PlayerID, body.PlayerName)
		if err != nil {
			respondStoreError(cfg, w, err)

			return
		}

		logf(cfg, "GAMES: Player %q joined %s", player.Name, p.ByName("gameid"))

		respondJSON(cfg, w, http.StatusOK, map[string]any{
			"success": true,
			"player": map[string]any{
				"id":     player.ID,
				"name":   player.Name,
				"photos": player.Photos,
			},
		})
	}
}

func uploadPhoto(cfg *Config, repo game.Repository) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		r.Body = http.MaxBytesReader(w, r.Body, cfg.maxUploadSize)

		file, header, err := r.FormFile("photo")
		if err != nil {
			respondFailure(cfg, w, http.StatusBadRequest, "No photo uploaded")

			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			respondFailure(cfg, w, http.StatusBadRequest, "Failed to read photo")

			return
		}

		if !strings.HasPrefix(http.DetectContentType(data), "image/") {
			respondFailure(cfg, w, http.StatusBadRequest, "Only image files are allowed")

			return
		}

		photo, err := repo.AddPhoto(
			p.ByName("gameid"),
			p.ByName("playerid"),
			r.FormValue("topic"),
			header.Filename,
			data,
		)
		if err != nil {
			respondStoreError(cfg, w, err)

			return
		}

		logf(cfg, "GAMES: Photo (%s) for %q uploaded to %s by %s in %s",
			humanReadableSize(int64(len(data))),
			photo.Topic,
			p.ByName("gameid"),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)

		respondJSON(cfg, w, http.StatusOK, map[string]any{
			"success": true,
			"photo":   photo,
		})
	}
}

func listPhotos(cfg *Config, repo game.Repository) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		photos, err := repo.Photos(p.ByName("gameid"), p.ByName("playerid"))
		if err != nil {
			respondStoreError(cfg, w, err)

			return
		}

		respondJSON(cfg, w, http.StatusOK, map[string]any{
			"success": true,
			"photos":  photos,
		})
	}
}

func deletePhoto(cfg *Config, repo game.Repository) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		err := repo.DeletePhoto(p.ByName("gameid"), p.ByName("playerid"), p.ByName("photoid"))
		if err != nil {
			respondStoreError(cfg, w, err)

			return
		}

		respondJSON(cfg, w, http.StatusOK, map[string]any{
			"success": true,
		})
	}
}

func serveUpload(cfg *Config, files game.FileStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		// Filenames are server-generated; Base guards against traversal
		// anyway.
		data, err := files.Open(filepath.Base(p.ByName("filename")))
		if err != nil {
			respondFailure(cfg, w, http.StatusNotFound, "Photo not found")

			return
		}

		securityHeaders(cfg, w)
		w.Header().Set("Content-Type", http.DetectContentType(data))
		w.Header().Set("Cache-Control", "public, max-age=3600")

		_, _ = w.Write(data)
	}
}
