package analytics

import (
	"context"
	"time"

	"modguard/internal/storage"
)

type Service struct {
	store *storage.Store
}

func New(store *storage.Store) *Service {
	return &Service{store: store}
}

// GuildReport summarizes automod activity for a guild over a window.
type GuildReport struct {
	Total  int
	ByType map[string]int
}

func (s *Service) GuildReport(ctx context.Context, guildID string, since time.Time) (GuildReport, error) {
	counts, err := s.store.ViolationCountsByType(ctx, guildID, since)
	if err != nil {
		return GuildReport{}, err
	}

	report := GuildReport{ByType: counts}
	for _, count := range counts {
		report.Total += count
	}
	return report, nil
}

// UserStats summarizes one user's recent violations, including the
// severity total the punishment tiers act on.
type UserStats struct {
	TotalViolations int
	TotalSeverity   int
	ByType          map[string]int
	Recent          []RecentViolation
}

type RecentViolation struct {
	Type      string
	Severity  int
	Action    string
	CreatedAt time.Time
}

func (s *Service) UserStats(ctx context.Context, guildID, userID string, since time.Time) (UserStats, error) {
	records, err := s.store.ViolationsSince(ctx, guildID, userID, since)
	if err != nil {
		return UserStats{}, err
	}

	stats := UserStats{ByType: make(map[string]int)}
	for _, rec := range records {
		stats.TotalViolations++
		stats.TotalSeverity += rec.Severity
		stats.ByType[rec.Type]++
	}

	// Records arrive oldest first; keep the five newest.
	start := len(records) - 5
	if start < 0 {
		start = 0
	}
	for _, rec := range records[start:] {
		stats.Recent = append(stats.Recent, RecentViolation{
			Type:      rec.Type,
			Severity:  rec.Severity,
			Action:    rec.ActionTaken,
			CreatedAt: rec.CreatedAt,
		})
	}
	return stats, nil
}
