package automod

import (
	"context"
	"time"
)

// Message is the platform-neutral view of an inbound chat message.
// The bot layer builds one per event; the engine and detectors never
// touch discordgo types directly.
type Message struct {
	ID           string
	GuildID      string
	ChannelID    string
	AuthorID     string
	Content      string
	Attachments  []string
	UserMentions []string
	RoleMentions []string
	// GuildVanityCode is the guild's own invite code, when it has one.
	GuildVanityCode string
	Bot             bool
}

// Violation is a single rule-match finding produced by one detector for
// one message.
type Violation struct {
	Type     string
	Severity int
	Reason   string
	Action   string
	Details  *SpamScore
}

// ViolationRecord is the persisted form of a Violation.
type ViolationRecord struct {
	ID          int64
	GuildID     string
	UserID      string
	ChannelID   string
	MessageID   string
	Type        string
	Content     string
	ActionTaken string
	Severity    int
	CreatedAt   time.Time
}

// ModerationAction records a punishment applied by the engine, distinct
// from the violation that caused it.
type ModerationAction struct {
	ID          int64
	GuildID     string
	UserID      string
	ModeratorID string
	Action      string
	Reason      string
	Duration    time.Duration
	CreatedAt   time.Time
}

// ConfigStore supplies per-guild automod configuration, stored overrides
// merged onto defaults.
type ConfigStore interface {
	GetAutomodConfig(ctx context.Context, guildID string) (*GuildConfig, error)
	UpdateAutomodConfig(ctx context.Context, guildID string, cfg *GuildConfig) error
}

// ViolationStore persists violations, moderation actions and durable
// message events.
type ViolationStore interface {
	LogViolation(ctx context.Context, rec ViolationRecord) (int64, error)
	ViolationsSince(ctx context.Context, guildID, userID string, since time.Time) ([]ViolationRecord, error)
	LogModerationAction(ctx context.Context, rec ModerationAction) (int64, error)
	TrackMessage(ctx context.Context, guildID, userID, channelID, content string) error
}

// Actions is the platform adapter the engine mutates the chat platform
// through. Every call may fail; the engine downgrades failures per its
// error taxonomy and never retries.
type Actions interface {
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	Timeout(ctx context.Context, guildID, userID string, d time.Duration, reason string) error
	Kick(ctx context.Context, guildID, userID, reason string) error
	Ban(ctx context.Context, guildID, userID, reason string) error
	// Warn notifies the user in the triggering channel, falling back to a
	// direct message when the channel send fails.
	Warn(ctx context.Context, channelID, userID, reason string) error
	MemberRoles(guildID, userID string) []string
	// HasModBypass reports whether the member holds a moderation-level
	// permission (manage messages or higher) that exempts them.
	HasModBypass(guildID, userID string) bool
	BotUserID() string
}
