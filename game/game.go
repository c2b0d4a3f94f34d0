// Package game is the server-side authoritative registry of games, players,
// and photos. Completion state lives here and nowhere else: a player's
// completed topics are always derived from their photo list.
package game

import (
	"errors"
	"time"

	"github.com/life4today/life4today/topic"
)

var (
	ErrGameNotFound   = errors.New("game not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrPhotoNotFound  = errors.New("photo not found")
	ErrInvalidTopic   = errors.New("invalid topic")
	ErrNoFile         = errors.New("no photo uploaded")
)

// Photo is one uploaded image satisfying one topic for one player.
type Photo struct {
	ID         string      `json:"id"`
	Filename   string      `json:"filename"`
	URL        string      `json:"url"`
	Topic      topic.Topic `json:"topic"`
	UploadedAt time.Time   `json:"uploadedAt"`
}

// Player holds at most one photo per topic; uploads for an already-covered
// topic overwrite the previous photo.
type Player struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Photos     []Photo   `json:"photos"`
	LastActive time.Time `json:"lastActive"`
}

// CompletedTopics derives the topics this player has photographed, in
// upload order.
func (p *Player) CompletedTopics() []topic.Topic {
	out := make([]topic.Topic, 0, len(p.Photos))
	for _, photo := range p.Photos {
		out = append(out, photo.Topic)
	}

	return out
}

// PhotoCount derives how many topics this player has covered.
func (p *Player) PhotoCount() int {
	return len(p.Photos)
}

func (p *Player) clone() *Player {
	out := *p
	out.Photos = make([]Photo, len(p.Photos))
	copy(out.Photos, p.Photos)

	return &out
}

// Game is the unit of garbage collection: once LastActivity is older than
// the reaper's TTL, the game and every photo file it owns are removed.
type Game struct {
	ID           string    `json:"id"`
	Players      []Player  `json:"players"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}

// Player finds a player in this snapshot by id.
func (g *Game) Player(id string) (*Player, bool) {
	for i := range g.Players {
		if g.Players[i].ID == id {
			return &g.Players[i], true
		}
	}

	return nil, false
}

func (g *Game) clone() *Game {
	out := *g
	out.Players = make([]Player, len(g.Players))
	for i := range g.Players {
		out.Players[i] = *g.Players[i].clone()
	}

	return &out
}
