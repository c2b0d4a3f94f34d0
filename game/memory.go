package game

import (
	"crypto/rand"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/life4today/life4today/topic"
)

// gameIDLength matches the short join codes players type or scan.
const gameIDLength = 6

const gameIDLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// MemoryRepository is the in-process Repository. The outer mutex guards the
// map shape; each game carries its own mutex so mutations and the reaper
// are serialized per game.
type MemoryRepository struct {
	mu    sync.RWMutex
	games map[string]*gameEntry
	files FileStore

	// Logf, when set, receives file-release failures and reaper activity.
	Logf func(format string, args ...any)
}

type gameEntry struct {
	mu   sync.Mutex
	game *Game
}

// NewMemoryRepository returns an empty registry whose photo bytes live in
// files.
func NewMemoryRepository(files FileStore) *MemoryRepository {
	return &MemoryRepository{
		games: make(map[string]*gameEntry),
		files: files,
	}
}

func (r *MemoryRepository) logf(format string, args ...any) {
	if r.Logf != nil {
		r.Logf(format, args...)
	}
}

// newGameID generates a crypto-random short uppercase ID and ensures it
// doesn't collide with an existing game.
func (r *MemoryRepository) newGameID() string {
	for {
		buf := make([]byte, gameIDLength)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}

		out := make([]byte, gameIDLength)
		for i := range out {
			out[i] = gameIDLetters[int(buf[i])%len(gameIDLetters)]
		}
		id := string(out)

		r.mu.RLock()
		_, exists := r.games[id]
		r.mu.RUnlock()

		if !exists {
			return id
		}
	}
}

func (r *MemoryRepository) lookup(gameID string) (*gameEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.games[gameID]

	return e, ok
}

func (r *MemoryRepository) Create() (*Game, error) {
	id := r.newGameID()
	now := time.Now()

	g := &Game{
		ID:           id,
		Players:      []Player{},
		CreatedAt:    now,
		LastActivity: now,
	}

	r.mu.Lock()
	r.games[id] = &gameEntry{game: g}
	r.mu.Unlock()

	return g.clone(), nil
}

func (r *MemoryRepository) Get(gameID string) (*Game, error) {
	e, ok := r.lookup(gameID)
	if !ok {
		return nil, ErrGameNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.game.clone(), nil
}

func (r *MemoryRepository) UpsertPlayer(gameID, playerID, name string) (*Player, error) {
	e, ok := r.lookup(gameID)
	if !ok {
		return nil, ErrGameNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	e.game.LastActivity = now

	for i := range e.game.Players {
		if e.game.Players[i].ID == playerID {
			e.game.Players[i].Name = name
			e.game.Players[i].LastActive = now

			return e.game.Players[i].clone(), nil
		}
	}

	if playerID == "" {
		playerID = uuid.NewString()
	}

	e.game.Players = append(e.game.Players, Player{
		ID:         playerID,
		Name:       name,
		Photos:     []Photo{},
		LastActive: now,
	})

	return e.game.Players[len(e.game.Players)-1].clone(), nil
}

func (r *MemoryRepository) AddPhoto(gameID, playerID, topicName, originalName string, data []byte) (*Photo, error) {
	t := topic.Topic(topicName)
	if !topic.Valid(t) {
		return nil, ErrInvalidTopic
	}
	if len(data) == 0 {
		return nil, ErrNoFile
	}

	e, ok := r.lookup(gameID)
	if !ok {
		return nil, ErrGameNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var player *Player
	for i := range e.game.Players {
		if e.game.Players[i].ID == playerID {
			player = &e.game.Players[i]
			break
		}
	}
	if player == nil {
		return nil, ErrPlayerNotFound
	}

	filename := storedFilename(originalName)
	if err := r.files.Save(filename, data); err != nil {
		return nil, fmt.Errorf("store photo: %w", err)
	}

	// Overwrite, not append: release any prior photo for this topic.
	for i := range player.Photos {
		if player.Photos[i].Topic != t {
			continue
		}

		if err := r.files.Remove(player.Photos[i].Filename); err != nil {
			r.logf("GAMES: Failed to release %s: %v", player.Photos[i].Filename, err)
		}
		player.Photos = append(player.Photos[:i], player.Photos[i+1:]...)

		break
	}

	now := time.Now()

	photo := Photo{
		ID:         uuid.NewString(),
		Filename:   filename,
		URL:        "/uploads/" + filename,
		Topic:      t,
		UploadedAt: now,
	}

	player.Photos = append(player.Photos, photo)
	player.LastActive = now
	e.game.LastActivity = now

	return &photo, nil
}

func (r *MemoryRepository) DeletePhoto(gameID, playerID, photoID string) error {
	e, ok := r.lookup(gameID)
	if !ok {
		return ErrGameNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var player *Player
	for i := range e.game.Players {
		if e.game.Players[i].ID == playerID {
			player = &e.game.Players[i]
			break
		}
	}
	if player == nil {
		return ErrPlayerNotFound
	}

	for i := range player.Photos {
		if player.Photos[i].ID != photoID {
			continue
		}

		if err := r.files.Remove(player.Photos[i].Filename); err != nil {
			r.logf("GAMES: Failed to release %s: %v", player.Photos[i].Filename, err)
		}
		player.Photos = append(player.Photos[:i], player.Photos[i+1:]...)

		now := time.Now()
		player.LastActive = now
		e.game.LastActivity = now

		return nil
	}

	return ErrPhotoNotFound
}

func (r *MemoryRepository) Photos(gameID, playerID string) ([]Photo, error) {
	e, ok := r.lookup(gameID)
	if !ok {
		return nil, ErrGameNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.game.Players {
		if e.game.Players[i].ID == playerID {
			out := make([]Photo, len(e.game.Players[i].Photos))
			copy(out, e.game.Players[i].Photos)

			return out, nil
		}
	}

	return nil, ErrPlayerNotFound
}

// ReapExpired holds the registry lock for the whole sweep; any mutation
// already holding a game's mutex finishes first and bumps LastActivity, so
// an active game is never reaped out from under an in-flight request.
func (r *MemoryRepository) ReapExpired(ttl time.Duration) []string {
	cutoff := time.Now().Add(-ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	var reaped []string

	for id, e := range r.games {
		e.mu.Lock()

		if e.game.LastActivity.Before(cutoff) {
			for _, p := range e.game.Players {
				for _, photo := range p.Photos {
					if err := r.files.Remove(photo.Filename); err != nil {
						r.logf("GAMES: Failed to release %s: %v", photo.Filename, err)
					}
				}
			}

			delete(r.games, id)
			reaped = append(reaped, id)
		}

		e.mu.Unlock()
	}

	return reaped
}

func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.games)
}

// storedFilename builds a unique on-disk name, keeping only the upload's
// extension.
func storedFilename(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))

	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), ext)
}
