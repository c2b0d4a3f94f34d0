package client

import (
	"context"
	"fmt"
	"time"

	"github.com/life4today/life4today/game"
	"github.com/life4today/life4today/session"
	"github.com/life4today/life4today/topic"
)

// State is the merged local view: completion fields come strictly from the
// server's photo list, topics and manual locks from the cached session.
type State struct {
	GameID     string
	PlayerID   string
	PlayerName string

	Topics     []topic.Topic // client-authoritative assignment
	Locked     []topic.Topic // completed plus manually locked
	Completed  []topic.Topic // server-authoritative
	Photos     []game.Photo
	PhotoCount int
}

// Reconciler merges server-authoritative completion state into the locally
// cached session. The merge rule is the same everywhere: the server wins
// for anything derivable from photos, the client wins for topic assignment
// and lock choices.
type Reconciler struct {
	api      *API
	sessions *session.Store
	assigner *topic.Assigner
}

// NewReconciler wires an API client, the local session store, and a topic
// assigner together.
func NewReconciler(api *API, sessions *session.Store, assigner *topic.Assigner) *Reconciler {
	return &Reconciler{
		api:      api,
		sessions: sessions,
		assigner: assigner,
	}
}

// MergeServerState rebuilds the derived view from the session plus the
// fetched photo list. Every topic with a photo is locked, on top of the
// session's manual locks.
func MergeServerState(s *session.Session, photos []game.Photo) State {
	completed := make([]topic.Topic, 0, len(photos))
	for _, p := range photos {
		completed = append(completed, p.Topic)
	}

	topics := make([]topic.Topic, len(s.Topics))
	copy(topics, s.Topics)

	return State{
		GameID:     s.GameID,
		PlayerID:   s.PlayerID,
		PlayerName: s.PlayerName,
		Topics:     topics,
		Locked:     topic.MergeLocks(completed, s.LockedTopics),
		Completed:  completed,
		Photos:     photos,
		PhotoCount: len(photos),
	}
}

// Start creates or joins a game and seeds the local session. An empty
// gameID creates a fresh game.
func (r *Reconciler) Start(ctx context.Context, gameID, playerName string) (*State, error) {
	if gameID == "" {
		created, _, err := r.api.CreateGame(ctx)
		if err != nil {
			return nil, err
		}
		gameID = created
	}

	player, err := r.api.JoinGame(ctx, gameID, playerName, "")
	if err != nil {
		return nil, err
	}

	s := &session.Session{
		GameID:       gameID,
		PlayerID:     player.ID,
		PlayerName:   player.Name,
		Topics:       r.assigner.Initialize(nil),
		LockedTopics: []topic.Topic{},
		CreatedAt:    time.Now(),
	}
	if err := r.sessions.Save(s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	st := MergeServerState(s, player.Photos)

	return &st, nil
}

// Restore rebuilds the playing state from the cached session plus the
// server's authoritative photo list. The expiry check is local and happens
// before any network call. Any lookup failure clears the session rather
// than continuing on stale assumptions.
func (r *Reconciler) Restore(ctx context.Context) (*State, error) {
	s, err := r.sessions.Load()
	if err != nil {
		return nil, err
	}

	info, err := r.api.GetGame(ctx, s.GameID)
	if err != nil {
		_ = r.sessions.Clear()

		return nil, fmt.Errorf("restore game: %w", err)
	}

	if _, ok := findPlayer(info, s.PlayerID); !ok {
		_ = r.sessions.Clear()

		return nil, fmt.Errorf("restore: %w", game.ErrPlayerNotFound)
	}

	photos, err := r.api.PlayerPhotos(ctx, s.GameID, s.PlayerID)
	if err != nil {
		_ = r.sessions.Clear()

		return nil, fmt.Errorf("restore photos: %w", err)
	}

	// A session written by an older build may carry a short or invalid
	// topic set; re-deal only in that case.
	s.Topics = r.assigner.Initialize(s.Topics)

	st := MergeServerState(s, photos)

	if err := r.sessions.Update(session.Patch{
		Topics:       st.Topics,
		LockedTopics: st.Locked,
	}); err != nil {
		return nil, err
	}

	return &st, nil
}

// Sync re-fetches membership and photos, overwriting the completion-derived
// fields while leaving topic and manual lock choices alone. A failure
// leaves both the session and any caller-held state untouched.
func (r *Reconciler) Sync(ctx context.Context) (*State, error) {
	s, err := r.sessions.Load()
	if err != nil {
		return nil, err
	}

	info, err := r.api.GetGame(ctx, s.GameID)
	if err != nil {
		return nil, fmt.Errorf("sync game: %w", err)
	}
	if _, ok := findPlayer(info, s.PlayerID); !ok {
		return nil, fmt.Errorf("sync: %w", game.ErrPlayerNotFound)
	}

	photos, err := r.api.PlayerPhotos(ctx, s.GameID, s.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("sync photos: %w", err)
	}

	st := MergeServerState(s, photos)

	if err := r.sessions.Update(session.Patch{LockedTopics: st.Locked}); err != nil {
		return nil, err
	}

	return &st, nil
}

// Upload sends a photo for t, then syncs so the new completion is merged
// and auto-locked locally.
func (r *Reconciler) Upload(ctx context.Context, t topic.Topic, filename string, data []byte) (*State, error) {
	s, err := r.sessions.Load()
	if err != nil {
		return nil, err
	}

	if _, err := r.api.UploadPhoto(ctx, s.GameID, s.PlayerID, t, filename, data); err != nil {
		return nil, err
	}

	return r.Sync(ctx)
}

// ShuffleOne replaces a single unwanted topic locally and persists the new
// assignment.
func (r *Reconciler) ShuffleOne(target topic.Topic) ([]topic.Topic, error) {
	s, err := r.sessions.Load()
	if err != nil {
		return nil, err
	}

	topics := r.assigner.ShuffleOne(s.Topics, s.LockedTopics, target)

	if err := r.sessions.Update(session.Patch{Topics: topics}); err != nil {
		return nil, err
	}

	return topics, nil
}

// ShuffleAll redraws every unlocked topic locally and persists the new
// assignment.
func (r *Reconciler) ShuffleAll() ([]topic.Topic, error) {
	s, err := r.sessions.Load()
	if err != nil {
		return nil, err
	}

	topics := r.assigner.ShuffleUnlocked(s.Topics, s.LockedTopics)

	if err := r.sessions.Update(session.Patch{Topics: topics}); err != nil {
		return nil, err
	}

	return topics, nil
}

// ToggleLock flips a manual lock. Completed topics stay locked as long as
// their photo exists.
func (r *Reconciler) ToggleLock(t topic.Topic, completed []topic.Topic) ([]topic.Topic, error) {
	s, err := r.sessions.Load()
	if err != nil {
		return nil, err
	}

	locked := topic.ToggleLock(s.LockedTopics, t, completed)

	if err := r.sessions.Update(session.Patch{LockedTopics: locked}); err != nil {
		return nil, err
	}

	return locked, nil
}

func findPlayer(info *GameInfo, playerID string) (*PlayerSummary, bool) {
	for i := range info.Players {
		if info.Players[i].ID == playerID {
			return &info.Players[i], true
		}
	}

	return nil, false
}
