package game

import "time"

// Repository is the authoritative game registry. Implementations must
// serialize mutations per game, including against the reaper, so that two
// concurrent uploads for the same (player, topic) pair can never leave an
// orphaned file or a duplicate photo.
type Repository interface {
	// Create registers an empty game under a fresh short ID.
	Create() (*Game, error)

	// Get returns a snapshot of the game, or ErrGameNotFound.
	Get(gameID string) (*Game, error)

	// UpsertPlayer joins playerID to the game, or updates name and
	// LastActive in place when the player already exists. An empty
	// playerID means a fresh one is generated. Bumps the game's
	// LastActivity either way.
	UpsertPlayer(gameID, playerID, name string) (*Player, error)

	// AddPhoto stores data as the player's photo for topicName, releasing
	// any previous photo for that topic first. This is an overwrite, never
	// an append. Rejects topics outside the catalog and empty payloads.
	// originalName only contributes its extension to the stored filename.
	AddPhoto(gameID, playerID, topicName, originalName string, data []byte) (*Photo, error)

	// DeletePhoto removes the photo and releases its backing file.
	DeletePhoto(gameID, playerID, photoID string) error

	// Photos lists the player's photos.
	Photos(gameID, playerID string) ([]Photo, error)

	// ReapExpired removes every game whose LastActivity is older than ttl,
	// releasing all owned photo files, and returns the removed IDs.
	// Failures to release a file are logged and do not abort the sweep.
	ReapExpired(ttl time.Duration) []string

	// Len reports how many games are registered.
	Len() int
}
