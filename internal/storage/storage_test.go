package storage

import (
	"context"
	"testing"
	"time"

	"modguard/internal/automod"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)

	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestAutomodConfigRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	got, err := store.GetAutomodConfig(ctx, "g1")
	if err != nil {
		t.Fatalf("get defaults: %v", err)
	}
	if !got.Enabled || got.SpamDetection.MaxMessages != 5 {
		t.Fatalf("unknown guild should get defaults, got %+v", got.SpamDetection)
	}

	got.SpamDetection.MaxMessages = 8
	got.BlacklistedWords.Words = []string{"contraband"}
	if err := store.UpdateAutomodConfig(ctx, "g1", got); err != nil {
		t.Fatalf("update config: %v", err)
	}

	reloaded, err := store.GetAutomodConfig(ctx, "g1")
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if reloaded.SpamDetection.MaxMessages != 8 {
		t.Fatalf("maxMessages = %d, want 8", reloaded.SpamDetection.MaxMessages)
	}
	if len(reloaded.BlacklistedWords.Words) != 1 {
		t.Fatalf("words = %v, want one entry", reloaded.BlacklistedWords.Words)
	}
	// Untouched sections keep their defaults through the round trip.
	if reloaded.Caps.MaxRatio != 0.7 {
		t.Fatalf("caps ratio = %v, want default 0.7", reloaded.Caps.MaxRatio)
	}
}

func TestViolationsSinceWindow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	old := automod.ViolationRecord{
		GuildID: "g1", UserID: "u1", ChannelID: "c1", MessageID: "m1",
		Type: "spam_frequency", ActionTaken: "delete_warn", Severity: 3,
		CreatedAt: now.Add(-48 * time.Hour),
	}
	recent := automod.ViolationRecord{
		GuildID: "g1", UserID: "u1", ChannelID: "c1", MessageID: "m2",
		Type: "excessive_caps", ActionTaken: "delete_warn", Severity: 1,
		CreatedAt: now.Add(-time.Hour),
	}
	other := automod.ViolationRecord{
		GuildID: "g1", UserID: "u2", ChannelID: "c1", MessageID: "m3",
		Type: "excessive_caps", ActionTaken: "delete_warn", Severity: 1,
		CreatedAt: now,
	}

	for _, rec := range []automod.ViolationRecord{old, recent, other} {
		if _, err := store.LogViolation(ctx, rec); err != nil {
			t.Fatalf("log violation: %v", err)
		}
	}

	got, err := store.ViolationsSince(ctx, "g1", "u1", now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("violations since: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1 inside the window", len(got))
	}
	if got[0].Type != "excessive_caps" {
		t.Fatalf("type = %s, want excessive_caps", got[0].Type)
	}
}

func TestViolationsSinceOrderedOldestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	for i, offset := range []time.Duration{-time.Minute, -3 * time.Hour, -time.Second} {
		rec := automod.ViolationRecord{
			GuildID: "g1", UserID: "u1", ChannelID: "c1",
			MessageID: string(rune('a' + i)), Type: "spam_duplicate",
			ActionTaken: "delete_warn", Severity: 2, CreatedAt: now.Add(offset),
		}
		if _, err := store.LogViolation(ctx, rec); err != nil {
			t.Fatalf("log violation: %v", err)
		}
	}

	got, err := store.ViolationsSince(ctx, "g1", "u1", now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("violations since: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.Before(got[i-1].CreatedAt) {
			t.Fatalf("records out of order at %d", i)
		}
	}
}

func TestModerationActionLogged(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.LogModerationAction(ctx, automod.ModerationAction{
		GuildID: "g1", UserID: "u1", ModeratorID: "bot-1",
		Action: "timeout", Reason: "spam", Duration: 5 * time.Minute,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("log action: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a row id")
	}
}

func TestTrackMessageAndPrune(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.TrackMessage(ctx, "g1", "u1", "c1", "hello there"); err != nil {
		t.Fatalf("track message: %v", err)
	}

	var hash string
	row := store.db.QueryRow(`SELECT content_hash FROM message_events LIMIT 1`)
	if err := row.Scan(&hash); err != nil {
		t.Fatalf("scan event: %v", err)
	}
	if hash == "hello there" || len(hash) != 64 {
		t.Fatalf("content stored unhashed or malformed: %q", hash)
	}

	if err := store.PruneMessageEvents(ctx, 0); err != nil {
		t.Fatalf("prune: %v", err)
	}
}

func TestViolationCountsByType(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	types := []string{"spam_frequency", "spam_frequency", "excessive_caps"}
	for i, vtype := range types {
		rec := automod.ViolationRecord{
			GuildID: "g1", UserID: "u1", ChannelID: "c1",
			MessageID: string(rune('a' + i)), Type: vtype,
			ActionTaken: "delete_warn", Severity: 1, CreatedAt: now,
		}
		if _, err := store.LogViolation(ctx, rec); err != nil {
			t.Fatalf("log violation: %v", err)
		}
	}

	counts, err := store.ViolationCountsByType(ctx, "g1", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts["spam_frequency"] != 2 || counts["excessive_caps"] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}
