package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"modguard/internal/automod"
)

func (s *Store) LogViolation(ctx context.Context, rec automod.ViolationRecord) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO violations (guild_id, user_id, channel_id, message_id, type, content, action_taken, severity, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.GuildID, rec.UserID, rec.ChannelID, rec.MessageID, rec.Type, rec.Content, rec.ActionTaken, rec.Severity, rec.CreatedAt.Unix())
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// ViolationsSince returns a user's violations in the guild at or after the
// cutoff, oldest first.
func (s *Store) ViolationsSince(ctx context.Context, guildID, userID string, since time.Time) ([]automod.ViolationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guild_id, user_id, channel_id, message_id, type, content, action_taken, severity, created_at
		FROM violations
		WHERE guild_id = ? AND user_id = ? AND created_at >= ?
		ORDER BY created_at ASC, id ASC
	`, guildID, userID, since.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []automod.ViolationRecord
	for rows.Next() {
		var rec automod.ViolationRecord
		var created int64
		if err := rows.Scan(&rec.ID, &rec.GuildID, &rec.UserID, &rec.ChannelID, &rec.MessageID,
			&rec.Type, &rec.Content, &rec.ActionTaken, &rec.Severity, &created); err != nil {
			return nil, err
		}
		rec.CreatedAt = time.Unix(created, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) LogModerationAction(ctx context.Context, rec automod.ModerationAction) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO moderation_actions (guild_id, user_id, moderator_id, action, reason, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.GuildID, rec.UserID, rec.ModeratorID, rec.Action, rec.Reason, rec.Duration.Milliseconds(), rec.CreatedAt.Unix())
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// TrackMessage records a durable message event. Only a content hash is
// stored so moderation analytics never retain raw message text.
func (s *Store) TrackMessage(ctx context.Context, guildID, userID, channelID, content string) error {
	sum := sha256.Sum256([]byte(content))
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO message_events (guild_id, user_id, channel_id, content_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, guildID, userID, channelID, hex.EncodeToString(sum[:]), time.Now().Unix())
	return err
}

func (s *Store) PruneMessageEvents(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	_, err := s.db.ExecContext(ctx, `DELETE FROM message_events WHERE created_at < ?`, cutoff.Unix())
	return err
}

func (s *Store) CleanupViolations(ctx context.Context, retentionDays int) error {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	_, err := s.db.ExecContext(ctx, `DELETE FROM violations WHERE created_at < ?`, cutoff.Unix())
	return err
}

// ViolationCountsByType aggregates a guild's violations since the cutoff.
func (s *Store) ViolationCountsByType(ctx context.Context, guildID string, since time.Time) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT type, COUNT(*)
		FROM violations
		WHERE guild_id = ? AND created_at >= ?
		GROUP BY type
	`, guildID, since.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var vtype string
		var count int
		if err := rows.Scan(&vtype, &count); err != nil {
			return nil, err
		}
		counts[vtype] = count
	}
	return counts, rows.Err()
}
