package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/life4today/life4today/game"
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

// respondJSON writes payload as a JSON body with the given status.
func respondJSON(cfg *Config, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(payload)
}

// respondFailure writes the {success:false, message} envelope.
func respondFailure(cfg *Config, w http.ResponseWriter, status int, message string) {
	respondJSON(cfg, w, status, map[string]any{
		"success": false,
		"message": message,
	})
}

// respondStoreError maps the store's error taxonomy onto HTTP statuses:
// missing entities are 404s, bad input is a 400, anything else a 500.
func respondStoreError(cfg *Config, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrGameNotFound):
		respondFailure(cfg, w, http.StatusNotFound, "Game not found")
	case errors.Is(err, game.ErrPlayerNotFound):
		respondFailure(cfg, w, http.StatusNotFound, "Player not found")
	case errors.Is(err, game.ErrPhotoNotFound):
		respondFailure(cfg, w, http.StatusNotFound, "Photo not found")
	case errors.Is(err, game.ErrInvalidTopic):
		respondFailure(cfg, w, http.StatusBadRequest, "Invalid topic")
	case errors.Is(err, game.ErrNoFile):
		respondFailure(cfg, w, http.StatusBadRequest, "No photo uploaded")
	default:
		respondFailure(cfg, w, http.StatusInternalServerError, "Internal server error")
	}
}
