package game

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/life4today/life4today/topic"
)

func newTestRepo(t *testing.T) (*MemoryRepository, *DirStore) {
	t.Helper()

	files := NewDirStore(afero.NewMemMapFs(), "uploads")

	return NewMemoryRepository(files), files
}

func mustCreate(t *testing.T, r *MemoryRepository) *Game {
	t.Helper()

	g, err := r.Create()
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	return g
}

func mustJoin(t *testing.T, r *MemoryRepository, gameID, playerID, name string) *Player {
	t.Helper()

	p, err := r.UpsertPlayer(gameID, playerID, name)
	if err != nil {
		t.Fatalf("join game: %v", err)
	}

	return p
}

func TestCreateGeneratesShortUppercaseIDs(t *testing.T) {
	r, _ := newTestRepo(t)

	seen := make(map[string]bool)

	for i := 0; i < 50; i++ {
		g := mustCreate(t, r)

		if len(g.ID) != gameIDLength {
			t.Fatalf("expected %d-char ID, got %q", gameIDLength, g.ID)
		}
		for _, c := range g.ID {
			if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
				t.Fatalf("unexpected character %q in game ID %q", c, g.ID)
			}
		}
		if seen[g.ID] {
			t.Fatalf("duplicate game ID %q", g.ID)
		}
		seen[g.ID] = true
	}

	if r.Len() != 50 {
		t.Fatalf("expected 50 games registered, got %d", r.Len())
	}
}

func TestGetUnknownGame(t *testing.T) {
	r, _ := newTestRepo(t)

	if _, err := r.Get("NOSUCH"); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
}

func TestUpsertPlayerIsIdempotentOnRejoin(t *testing.T) {
	r, _ := newTestRepo(t)
	g := mustCreate(t, r)

	first := mustJoin(t, r, g.ID, "player-1", "Alice")
	second := mustJoin(t, r, g.ID, "player-1", "Alicia")

	if first.ID != second.ID {
		t.Fatalf("rejoin changed player identity: %q vs %q", first.ID, second.ID)
	}
	if second.Name != "Alicia" {
		t.Fatalf("rejoin did not update name: %q", second.Name)
	}

	fetched, err := r.Get(g.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(fetched.Players) != 1 {
		t.Fatalf("rejoin duplicated the player: %d players", len(fetched.Players))
	}
}

func TestUpsertPlayerGeneratesIDWhenBlank(t *testing.T) {
	r, _ := newTestRepo(t)
	g := mustCreate(t, r)

	p := mustJoin(t, r, g.ID, "", "Alice")
	if p.ID == "" {
		t.Fatal("expected a generated player ID")
	}
}

func TestUpsertPlayerBumpsGameActivity(t *testing.T) {
	r, _ := newTestRepo(t)
	g := mustCreate(t, r)

	// Age the game, then verify a join refreshes it.
	r.games[g.ID].game.LastActivity = time.Now().Add(-2 * time.Hour)

	mustJoin(t, r, g.ID, "player-1", "Alice")

	fetched, err := r.Get(g.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if time.Since(fetched.LastActivity) > time.Minute {
		t.Fatalf("join did not bump LastActivity: %v", fetched.LastActivity)
	}
}

func TestAddPhotoOverwritesPerTopic(t *testing.T) {
	r, files := newTestRepo(t)
	g := mustCreate(t, r)
	mustJoin(t, r, g.ID, "player-1", "Alice")

	first, err := r.AddPhoto(g.ID, "player-1", string(topic.Food), "brunch.jpg", []byte("first"))
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}

	second, err := r.AddPhoto(g.ID, "player-1", string(topic.Food), "dinner.jpg", []byte("second"))
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}

	photos, err := r.Photos(g.ID, "player-1")
	if err != nil {
		t.Fatalf("photos: %v", err)
	}
	if len(photos) != 1 {
		t.Fatalf("expected exactly one photo for the topic, got %d", len(photos))
	}
	if photos[0].ID != second.ID {
		t.Fatal("overwrite kept the old photo record")
	}

	if _, err := files.Open(first.Filename); err == nil {
		t.Fatal("old backing file was not released")
	}
	if data, err := files.Open(second.Filename); err != nil || string(data) != "second" {
		t.Fatalf("new backing file missing or wrong: %v", err)
	}
}

func TestAddPhotoDifferentTopicsAccumulate(t *testing.T) {
	r, _ := newTestRepo(t)
	g := mustCreate(t, r)
	mustJoin(t, r, g.ID, "player-1", "Alice")

	for _, tp := range []topic.Topic{topic.Food, topic.Views, topic.Drinks} {
		if _, err := r.AddPhoto(g.ID, "player-1", string(tp), "p.jpg", []byte("x")); err != nil {
			t.Fatalf("upload for %q: %v", tp, err)
		}
	}

	photos, err := r.Photos(g.ID, "player-1")
	if err != nil {
		t.Fatalf("photos: %v", err)
	}
	if len(photos) != 3 {
		t.Fatalf("expected 3 photos, got %d", len(photos))
	}

	fetched, err := r.Get(g.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	player, ok := fetched.Player("player-1")
	if !ok {
		t.Fatal("player missing from snapshot")
	}
	if player.PhotoCount() != 3 {
		t.Fatalf("derived photo count wrong: %d", player.PhotoCount())
	}
	completed := player.CompletedTopics()
	if len(completed) != 3 || completed[0] != topic.Food {
		t.Fatalf("derived completed topics wrong: %v", completed)
	}
}

func TestAddPhotoRejectsBadInput(t *testing.T) {
	r, _ := newTestRepo(t)
	g := mustCreate(t, r)
	mustJoin(t, r, g.ID, "player-1", "Alice")

	tests := []struct {
		name     string
		gameID   string
		playerID string
		topic    string
		data     []byte
		want     error
	}{
		{name: "unknown topic", gameID: g.ID, playerID: "player-1", topic: "sunsets", data: []byte("x"), want: ErrInvalidTopic},
		{name: "empty payload", gameID: g.ID, playerID: "player-1", topic: string(topic.Food), want: ErrNoFile},
		{name: "unknown game", gameID: "NOSUCH", playerID: "player-1", topic: string(topic.Food), data: []byte("x"), want: ErrGameNotFound},
		{name: "unknown player", gameID: g.ID, playerID: "ghost", topic: string(topic.Food), data: []byte("x"), want: ErrPlayerNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.AddPhoto(tt.gameID, tt.playerID, tt.topic, "p.jpg", tt.data)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestDeletePhotoReleasesFile(t *testing.T) {
	r, files := newTestRepo(t)
	g := mustCreate(t, r)
	mustJoin(t, r, g.ID, "player-1", "Alice")

	photo, err := r.AddPhoto(g.ID, "player-1", string(topic.Food), "p.jpg", []byte("x"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if err := r.DeletePhoto(g.ID, "player-1", photo.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := files.Open(photo.Filename); err == nil {
		t.Fatal("backing file was not released")
	}

	photos, err := r.Photos(g.ID, "player-1")
	if err != nil {
		t.Fatalf("photos: %v", err)
	}
	if len(photos) != 0 {
		t.Fatalf("expected no photos, got %d", len(photos))
	}

	if err := r.DeletePhoto(g.ID, "player-1", photo.ID); !errors.Is(err, ErrPhotoNotFound) {
		t.Fatalf("expected ErrPhotoNotFound on double delete, got %v", err)
	}
}

func TestReapExpiredRemovesOnlyInactiveGames(t *testing.T) {
	r, files := newTestRepo(t)

	stale := mustCreate(t, r)
	mustJoin(t, r, stale.ID, "player-1", "Alice")
	photo, err := r.AddPhoto(stale.ID, "player-1", string(topic.Food), "p.jpg", []byte("x"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	fresh := mustCreate(t, r)

	r.games[stale.ID].game.LastActivity = time.Now().Add(-25 * time.Hour)
	r.games[fresh.ID].game.LastActivity = time.Now().Add(-1 * time.Hour)

	reaped := r.ReapExpired(24 * time.Hour)
	if len(reaped) != 1 || reaped[0] != stale.ID {
		t.Fatalf("expected only %q reaped, got %v", stale.ID, reaped)
	}

	if _, err := r.Get(stale.ID); !errors.Is(err, ErrGameNotFound) {
		t.Fatal("stale game still registered")
	}
	if _, err := r.Get(fresh.ID); err != nil {
		t.Fatalf("fresh game was reaped: %v", err)
	}
	if _, err := files.Open(photo.Filename); err == nil {
		t.Fatal("reaped game's photo file was not released")
	}
}

func TestReapExpiredSurvivesFileReleaseFailure(t *testing.T) {
	files := NewDirStore(afero.NewReadOnlyFs(afero.NewMemMapFs()), "uploads")
	r := NewMemoryRepository(files)

	var logged int
	r.Logf = func(format string, args ...any) { logged++ }

	g := mustCreate(t, r)
	mustJoin(t, r, g.ID, "player-1", "Alice")

	// Inject a photo record whose file can never be removed.
	r.games[g.ID].game.Players[0].Photos = []Photo{{
		ID:       "photo-1",
		Filename: "ghost.jpg",
		Topic:    topic.Food,
	}}
	r.games[g.ID].game.LastActivity = time.Now().Add(-25 * time.Hour)

	reaped := r.ReapExpired(24 * time.Hour)
	if len(reaped) != 1 {
		t.Fatalf("sweep aborted on file release failure: %v", reaped)
	}
	if r.Len() != 0 {
		t.Fatal("game not removed despite release failure")
	}
	if logged == 0 {
		t.Fatal("release failure was not logged")
	}
}
