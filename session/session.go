// Package session owns the client-side session record: which game and
// player this device belongs to, which topics were dealt, and how long the
// session has left before it expires.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/life4today/life4today/topic"
)

const (
	// Duration is the base lifetime of a session. Each renewal extends the
	// window by one more Duration, always measured from CreatedAt.
	Duration = 12 * time.Hour

	// MaxRenewals caps how many times a session can be extended.
	MaxRenewals = 2

	storageKey = "life4today_session"
)

var (
	// ErrNoSession means no session record exists locally.
	ErrNoSession = errors.New("no active session")

	// ErrExpired means a session record existed but its window had lapsed.
	// The record is purged before this is returned.
	ErrExpired = errors.New("session expired")
)

// Session is the client-owned record. Topics and LockedTopics are the
// client's authority; completion state is not stored here, it is always
// re-derived from the server's photo list.
type Session struct {
	GameID       string        `json:"gameId"`
	PlayerID     string        `json:"playerId"`
	PlayerName   string        `json:"playerName"`
	Topics       []topic.Topic `json:"topics"`
	LockedTopics []topic.Topic `json:"lockedTopics"`
	CreatedAt    time.Time     `json:"createdAt"`
	LastActive   time.Time     `json:"lastActive"`

	// Renewals was added after the first release; older records lack the
	// field and decode to 0.
	Renewals int `json:"renewals"`
}

// Patch carries a partial session update. Nil fields are left unchanged.
type Patch struct {
	GameID       *string
	PlayerID     *string
	PlayerName   *string
	Topics       []topic.Topic
	LockedTopics []topic.Topic
}

// Info is a derived read-only snapshot for display.
type Info struct {
	Active        bool
	TimeRemaining time.Duration
	CanRenew      bool
	RenewalsLeft  int
}

// Store persists a single session through a KeyValueStore. The clock is
// injectable for tests.
type Store struct {
	kv  KeyValueStore
	now func() time.Time
}

// NewStore returns a session store over kv.
func NewStore(kv KeyValueStore) *Store {
	return &Store{kv: kv, now: time.Now}
}

// Save serializes and persists s, stamping LastActive with the save time.
func (st *Store) Save(s *Session) error {
	s.LastActive = st.now()

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	return st.kv.Set(storageKey, data)
}

// Load returns the persisted session, purging the record first when it is
// missing, malformed, or expired.
func (st *Store) Load() (*Session, error) {
	data, err := st.kv.Get(storageKey)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		_ = st.Clear()

		return nil, fmt.Errorf("%w: corrupt record: %v", ErrNoSession, err)
	}

	if st.IsExpired(&s) {
		_ = st.Clear()

		return nil, ErrExpired
	}

	return &s, nil
}

// Update merges p into the current session and re-saves it with a refreshed
// LastActive. No-op when no session exists.
func (st *Store) Update(p Patch) error {
	s, err := st.Load()
	if err != nil {
		return nil
	}

	if p.GameID != nil {
		s.GameID = *p.GameID
	}
	if p.PlayerID != nil {
		s.PlayerID = *p.PlayerID
	}
	if p.PlayerName != nil {
		s.PlayerName = *p.PlayerName
	}
	if p.Topics != nil {
		s.Topics = p.Topics
	}
	if p.LockedTopics != nil {
		s.LockedTopics = p.LockedTopics
	}

	return st.Save(s)
}

// Clear removes the persisted record unconditionally.
func (st *Store) Clear() error {
	return st.kv.Remove(storageKey)
}

// IsExpired reports whether s has outlived its renewal-extended window.
func (st *Store) IsExpired(s *Session) bool {
	window := Duration * time.Duration(s.Renewals+1)

	return st.now().Sub(s.CreatedAt) > window
}

// CanRenew reports whether s has renewals left.
func CanRenew(s *Session) bool {
	return s.Renewals < MaxRenewals
}

// Renew extends the current session by one more Duration. Returns false
// when no session exists or its renewals are exhausted. The extension is a
// recomputation from CreatedAt, not a flat add from now.
func (st *Store) Renew() (bool, error) {
	s, err := st.Load()
	if err != nil {
		return false, nil
	}

	if !CanRenew(s) {
		return false, nil
	}

	s.Renewals++

	if err := st.Save(s); err != nil {
		return false, err
	}

	return true, nil
}

// SessionInfo derives the display snapshot for the current session. An
// absent or expired session yields the zero Info.
func (st *Store) SessionInfo() Info {
	s, err := st.Load()
	if err != nil {
		return Info{}
	}

	expiry := s.CreatedAt.Add(Duration * time.Duration(s.Renewals+1))
	remaining := expiry.Sub(st.now())
	if remaining < 0 {
		remaining = 0
	}

	return Info{
		Active:        remaining > 0,
		TimeRemaining: remaining,
		CanRenew:      CanRenew(s),
		RenewalsLeft:  MaxRenewals - s.Renewals,
	}
}

// FormatTimeRemaining renders d as "3h 27m", or "27m" under an hour.
func FormatTimeRemaining(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}

	return fmt.Sprintf("%dm", minutes)
}
