package analytics

import (
	"context"
	"testing"
	"time"

	"modguard/internal/automod"
	"modguard/internal/storage"
)

func seedStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestUserStats(t *testing.T) {
	store := seedStore(t)
	svc := New(store)
	ctx := context.Background()
	now := time.Now()

	records := []automod.ViolationRecord{
		{GuildID: "g1", UserID: "u1", ChannelID: "c1", MessageID: "m1", Type: "spam_frequency", ActionTaken: "delete_warn", Severity: 3, CreatedAt: now.Add(-3 * time.Hour)},
		{GuildID: "g1", UserID: "u1", ChannelID: "c1", MessageID: "m2", Type: "spam_frequency", ActionTaken: "delete_warn", Severity: 3, CreatedAt: now.Add(-2 * time.Hour)},
		{GuildID: "g1", UserID: "u1", ChannelID: "c2", MessageID: "m3", Type: "phishing_link", ActionTaken: "delete_warn", Severity: 4, CreatedAt: now.Add(-time.Hour)},
	}
	for _, rec := range records {
		if _, err := store.LogViolation(ctx, rec); err != nil {
			t.Fatalf("log violation: %v", err)
		}
	}

	stats, err := svc.UserStats(ctx, "g1", "u1", now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("user stats: %v", err)
	}
	if stats.TotalViolations != 3 || stats.TotalSeverity != 10 {
		t.Fatalf("got %d violations severity %d, want 3 and 10", stats.TotalViolations, stats.TotalSeverity)
	}
	if stats.ByType["spam_frequency"] != 2 {
		t.Fatalf("byType = %v", stats.ByType)
	}
	if len(stats.Recent) != 3 {
		t.Fatalf("recent = %d, want 3", len(stats.Recent))
	}
	if stats.Recent[len(stats.Recent)-1].Type != "phishing_link" {
		t.Fatalf("newest recent = %s, want phishing_link", stats.Recent[len(stats.Recent)-1].Type)
	}
}

func TestGuildReport(t *testing.T) {
	store := seedStore(t)
	svc := New(store)
	ctx := context.Background()
	now := time.Now()

	for i, vtype := range []string{"mass_emoji", "mass_emoji", "zalgo_text"} {
		rec := automod.ViolationRecord{
			GuildID: "g1", UserID: "u1", ChannelID: "c1",
			MessageID: string(rune('a' + i)), Type: vtype,
			ActionTaken: "delete_warn", Severity: 1, CreatedAt: now,
		}
		if _, err := store.LogViolation(ctx, rec); err != nil {
			t.Fatalf("log violation: %v", err)
		}
	}

	report, err := svc.GuildReport(ctx, "g1", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.Total != 3 || report.ByType["mass_emoji"] != 2 {
		t.Fatalf("report = %+v", report)
	}
}
