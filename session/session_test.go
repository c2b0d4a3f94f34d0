package session

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/life4today/life4today/topic"
)

func newTestStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()

	now := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)

	st := NewStore(NewFileStore(afero.NewMemMapFs(), "state"))
	st.now = func() time.Time { return now }

	return st, &now
}

func testSession(createdAt time.Time) *Session {
	return &Session{
		GameID:       "ABC123",
		PlayerID:     "player-1",
		PlayerName:   "Alice",
		Topics:       []topic.Topic{topic.Food, topic.Views, topic.Drinks, topic.Workstation},
		LockedTopics: []topic.Topic{topic.Views},
		CreatedAt:    createdAt,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st, now := newTestStore(t)

	s := testSession(*now)
	if err := st.Save(s); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := st.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.GameID != s.GameID || loaded.PlayerID != s.PlayerID || loaded.PlayerName != s.PlayerName {
		t.Fatalf("identity fields changed: %+v", loaded)
	}
	if len(loaded.Topics) != 4 || loaded.Topics[0] != topic.Food {
		t.Fatalf("topics changed: %v", loaded.Topics)
	}
	if len(loaded.LockedTopics) != 1 || loaded.LockedTopics[0] != topic.Views {
		t.Fatalf("locked topics changed: %v", loaded.LockedTopics)
	}
	if !loaded.LastActive.Equal(*now) {
		t.Fatalf("expected lastActive stamped to save time, got %v", loaded.LastActive)
	}
}

func TestLoadMissingReturnsErrNoSession(t *testing.T) {
	st, _ := newTestStore(t)

	if _, err := st.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestLoadMalformedPurgesRecord(t *testing.T) {
	kv := NewFileStore(afero.NewMemMapFs(), "state")
	if err := kv.Set(storageKey, []byte("{not json")); err != nil {
		t.Fatalf("seed kv: %v", err)
	}

	st := NewStore(kv)

	if _, err := st.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}

	if _, err := kv.Get(storageKey); !errors.Is(err, ErrNotFound) {
		t.Fatal("malformed record was not purged")
	}
}

func TestLoadExpiredPurgesRecord(t *testing.T) {
	st, now := newTestStore(t)

	s := testSession(now.Add(-Duration - time.Minute))
	if err := st.Save(s); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := st.Load(); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}

	if _, err := st.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatal("expired record was not purged")
	}
}

func TestLoadBackfillsMissingRenewalsField(t *testing.T) {
	st, now := newTestStore(t)

	// Records from before the renewals field existed.
	legacy := map[string]any{
		"gameId":       "ABC123",
		"playerId":     "player-1",
		"playerName":   "Alice",
		"topics":       []string{"food", "views", "drinks", "workstation"},
		"lockedTopics": []string{},
		"createdAt":    now.Add(-time.Hour),
		"lastActive":   now.Add(-time.Hour),
	}

	data, err := json.Marshal(legacy)
	if err != nil {
		t.Fatalf("marshal legacy record: %v", err)
	}
	if err := st.kv.Set(storageKey, data); err != nil {
		t.Fatalf("seed kv: %v", err)
	}

	s, err := st.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Renewals != 0 {
		t.Fatalf("expected renewals backfilled to 0, got %d", s.Renewals)
	}
	if !CanRenew(s) {
		t.Fatal("legacy session should be renewable")
	}
}

func TestIsExpiredBoundaries(t *testing.T) {
	st, now := newTestStore(t)

	tests := []struct {
		name     string
		age      time.Duration
		renewals int
		want     bool
	}{
		{name: "just inside window", age: Duration - time.Millisecond, want: false},
		{name: "just outside window", age: Duration + time.Millisecond, want: true},
		{name: "exactly at window", age: Duration, want: false},
		{name: "renewed extends window", age: Duration + time.Hour, renewals: 1, want: false},
		{name: "renewed window lapses", age: 2*Duration + time.Millisecond, renewals: 1, want: true},
		{name: "fully renewed", age: 3*Duration - time.Minute, renewals: 2, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSession(now.Add(-tt.age))
			s.Renewals = tt.renewals

			if got := st.IsExpired(s); got != tt.want {
				t.Fatalf("IsExpired(age=%s, renewals=%d) = %v, want %v", tt.age, tt.renewals, got, tt.want)
			}
		})
	}
}

func TestUpdateWithoutSessionIsANoOp(t *testing.T) {
	st, _ := newTestStore(t)

	name := "Bob"
	if err := st.Update(Patch{PlayerName: &name}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if _, err := st.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatal("update without a session created one")
	}
}

func TestUpdateMergesFields(t *testing.T) {
	st, now := newTestStore(t)

	if err := st.Save(testSession(*now)); err != nil {
		t.Fatalf("save: %v", err)
	}

	locked := []topic.Topic{topic.Food, topic.Views}
	if err := st.Update(Patch{LockedTopics: locked}); err != nil {
		t.Fatalf("update: %v", err)
	}

	s, err := st.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(s.LockedTopics) != 2 {
		t.Fatalf("locked topics not merged: %v", s.LockedTopics)
	}
	if s.PlayerName != "Alice" {
		t.Fatalf("untouched field changed: %q", s.PlayerName)
	}
	if len(s.Topics) != 4 {
		t.Fatalf("untouched topics changed: %v", s.Topics)
	}
}

func TestRenewIncrementsUntilExhausted(t *testing.T) {
	st, now := newTestStore(t)

	if err := st.Save(testSession(*now)); err != nil {
		t.Fatalf("save: %v", err)
	}

	for i := 0; i < MaxRenewals; i++ {
		ok, err := st.Renew()
		if err != nil {
			t.Fatalf("renew %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("renew %d unexpectedly refused", i)
		}
	}

	ok, err := st.Renew()
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	if ok {
		t.Fatal("renew succeeded past MaxRenewals")
	}

	s, err := st.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Renewals != MaxRenewals {
		t.Fatalf("expected %d renewals, got %d", MaxRenewals, s.Renewals)
	}
}

func TestRenewWithoutSessionReturnsFalse(t *testing.T) {
	st, _ := newTestStore(t)

	ok, err := st.Renew()
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	if ok {
		t.Fatal("renew succeeded with no session")
	}
}

func TestSessionInfo(t *testing.T) {
	st, now := newTestStore(t)

	s := testSession(now.Add(-2 * time.Hour))
	if err := st.Save(s); err != nil {
		t.Fatalf("save: %v", err)
	}

	info := st.SessionInfo()
	if !info.Active {
		t.Fatal("expected an active session")
	}
	if info.TimeRemaining != Duration-2*time.Hour {
		t.Fatalf("expected %s remaining, got %s", Duration-2*time.Hour, info.TimeRemaining)
	}
	if !info.CanRenew {
		t.Fatal("expected renewals available")
	}
	if info.RenewalsLeft != MaxRenewals {
		t.Fatalf("expected %d renewals left, got %d", MaxRenewals, info.RenewalsLeft)
	}
}

func TestSessionInfoWithoutSession(t *testing.T) {
	st, _ := newTestStore(t)

	info := st.SessionInfo()
	if info.Active || info.TimeRemaining != 0 || info.CanRenew || info.RenewalsLeft != 0 {
		t.Fatalf("expected zero info, got %+v", info)
	}
}

func TestFormatTimeRemaining(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{d: 3*time.Hour + 27*time.Minute, want: "3h 27m"},
		{d: time.Hour, want: "1h 0m"},
		{d: 59 * time.Minute, want: "59m"},
		{d: 90 * time.Second, want: "1m"},
		{d: 0, want: "0m"},
	}

	for _, tt := range tests {
		if got := FormatTimeRemaining(tt.d); got != tt.want {
			t.Fatalf("FormatTimeRemaining(%s) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
