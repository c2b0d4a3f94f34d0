package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/life4today/life4today/game"
	"github.com/life4today/life4today/topic"
)

// buildShareText renders the copy players paste into their group chats.
// shareType "completed" celebrates a finished challenge; anything else is
// the reminder variant listing what is still missing.
func buildShareText(shareType, gameID, playerName, joinURL string, completed, missing []topic.Topic) string {
	if shareType == "completed" {
		return fmt.Sprintf(`🎯 Life4Today Challenge Complete!
Game ID: %s
Player: %s
✅ Completed all %d/%d topics!

Join the fun: %s?game=%s`,
			gameID, playerName, len(completed), len(topic.All()), joinURL, gameID)
	}

	lines := make([]string, 0, len(missing))
	for _, t := range missing {
		lines = append(lines, fmt.Sprintf("❌ %s", t))
	}

	return fmt.Sprintf(`📸 Life4Today Reminder!
Game ID: %s
Player: %s

Still need photos for:
%s

Completed: %d/%d
Join the game: %s?game=%s`,
		gameID, playerName, strings.Join(lines, "\n"),
		len(completed), len(topic.All()), joinURL, gameID)
}

func missingTopics(completed []topic.Topic) []topic.Topic {
	done := make(map[topic.Topic]bool, len(completed))
	for _, t := range completed {
		done[t] = true
	}

	missing := make([]topic.Topic, 0, len(topic.All()))
	for _, t := range topic.All() {
		if !done[t] {
			missing = append(missing, t)
		}
	}

	return missing
}

func joinURL(cfg *Config, r *http.Request) string {
	if origin := r.Header.Get("Origin"); origin != "" {
		return origin
	}

	return cfg.scheme() + "://" + r.Host + cfg.prefix
}

func sharePhotoStatus(cfg *Config, repo game.Repository) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		var body struct {
			Type string `json:"type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondFailure(cfg, w, http.StatusBadRequest, "Invalid request body")

			return
		}

		g, err := repo.Get(p.ByName("gameid"))
		if err != nil {
			respondStoreError(cfg, w, err)

			return
		}

		player, ok := g.Player(p.ByName("playerid"))
		if !ok {
			respondStoreError(cfg, w, game.ErrPlayerNotFound)

			return
		}

		completed := player.CompletedTopics()
		missing := missingTopics(completed)

		text := buildShareText(body.Type, g.ID, player.Name, joinURL(cfg, r), completed, missing)

		respondJSON(cfg, w, http.StatusOK, map[string]any{
			"success":        true,
			"shareText":      text,
			"completedCount": len(completed),
			"missingCount":   len(missing),
		})
	}
}
