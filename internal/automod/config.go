package automod

import (
	"encoding/json"
	"time"
)

// GuildConfig is the per-guild automod configuration. It is stored as a
// JSON document and unmarshaled onto a copy of DefaultGuildConfig, so a
// rule key absent from storage keeps its default instead of disappearing.
type GuildConfig struct {
	Enabled bool `json:"enabled"`

	SpamDetection        SpamDetectionConfig `json:"spamDetection"`
	BlacklistedWords     WordFilterConfig    `json:"blacklistedWords"`
	InviteLinks          InviteLinkConfig    `json:"inviteLinks"`
	LinkFilter           LinkFilterConfig    `json:"linkFilter"`
	Mentions             MentionConfig       `json:"mentions"`
	Caps                 CapsConfig          `json:"caps"`
	RepeatedChars        RepeatedCharsConfig `json:"repeatedChars"`
	ZalgoText            ZalgoConfig         `json:"zalgoText"`
	Phishing             PhishingConfig      `json:"phishing"`
	MassEmoji            MassEmojiConfig     `json:"massEmoji"`
	NewlineSpam          NewlineSpamConfig   `json:"newlineSpam"`
	UnicodeAbuse         UnicodeAbuseConfig  `json:"unicodeAbuse"`
	SuspiciousAttachment AttachmentConfig    `json:"suspiciousAttachment"`
	Slowmode             SlowmodeConfig      `json:"slowmode"`

	Punishments PunishmentConfig `json:"punishments"`

	ExemptRoles    []string `json:"exemptRoles"`
	ExemptChannels []string `json:"exemptChannels"`
	ExemptUsers    []string `json:"exemptUsers"`
}

type SpamDetectionConfig struct {
	Enabled            bool    `json:"enabled"`
	MaxMessages        int     `json:"maxMessages"`
	TimeWindowMs       int64   `json:"timeWindow"`
	DuplicateThreshold float64 `json:"duplicateThreshold"`
	MaxDuplicates      int     `json:"maxDuplicates"`
}

func (c SpamDetectionConfig) Window() time.Duration {
	return time.Duration(c.TimeWindowMs) * time.Millisecond
}

type WordFilterConfig struct {
	Enabled bool     `json:"enabled"`
	Words   []string `json:"words"`
	Action  string   `json:"action"`
}

type InviteLinkConfig struct {
	Enabled            bool     `json:"enabled"`
	AllowOwnServer     bool     `json:"allowOwnServer"`
	WhitelistedInvites []string `json:"whitelistedInvites"`
	Action             string   `json:"action"`
}

type LinkFilterConfig struct {
	Enabled   bool     `json:"enabled"`
	Whitelist []string `json:"whitelist"`
	Blacklist []string `json:"blacklist"`
	Action    string   `json:"action"`
}

type MentionConfig struct {
	Enabled  bool   `json:"enabled"`
	MaxUsers int    `json:"maxUsers"`
	MaxRoles int    `json:"maxRoles"`
	Action   string `json:"action"`
}

type CapsConfig struct {
	Enabled   bool    `json:"enabled"`
	MaxRatio  float64 `json:"maxRatio"`
	MinLength int     `json:"minLength"`
	Action    string  `json:"action"`
}

type RepeatedCharsConfig struct {
	Enabled     bool   `json:"enabled"`
	MaxRepeated int    `json:"maxRepeated"`
	Action      string `json:"action"`
}

type ZalgoConfig struct {
	Enabled   bool    `json:"enabled"`
	Threshold float64 `json:"threshold"`
	Action    string  `json:"action"`
}

type PhishingConfig struct {
	Enabled bool   `json:"enabled"`
	Action  string `json:"action"`
}

type MassEmojiConfig struct {
	Enabled   bool   `json:"enabled"`
	MaxEmojis int    `json:"maxEmojis"`
	Action    string `json:"action"`
}

type NewlineSpamConfig struct {
	Enabled     bool   `json:"enabled"`
	MaxNewlines int    `json:"maxNewlines"`
	Action      string `json:"action"`
}

type UnicodeAbuseConfig struct {
	Enabled   bool    `json:"enabled"`
	Threshold float64 `json:"threshold"`
	Action    string  `json:"action"`
}

type AttachmentConfig struct {
	Enabled           bool     `json:"enabled"`
	BlockedExtensions []string `json:"blockedExtensions"`
	Action            string   `json:"action"`
}

type SlowmodeConfig struct {
	Enabled         bool     `json:"enabled"`
	Triggers        []string `json:"triggers"`
	DurationSeconds int      `json:"duration"`
}

type PunishmentConfig struct {
	Progressive bool   `json:"progressive"`
	Levels      []Tier `json:"severityLevels"`
}

// Tier maps a cumulative-severity threshold to a punishment. The slice
// in PunishmentConfig carries no ordering guarantee; Resolve handles that.
type Tier struct {
	Threshold  int    `json:"threshold"`
	Action     string `json:"action"`
	DurationMs int64  `json:"duration"`
}

func (t Tier) Duration() time.Duration {
	return time.Duration(t.DurationMs) * time.Millisecond
}

// DefaultGuildConfig returns the documented default configuration a guild
// starts from on first access.
func DefaultGuildConfig() *GuildConfig {
	return &GuildConfig{
		Enabled: true,
		SpamDetection: SpamDetectionConfig{
			Enabled:            true,
			MaxMessages:        5,
			TimeWindowMs:       10_000,
			DuplicateThreshold: 0.85,
			MaxDuplicates:      3,
		},
		BlacklistedWords: WordFilterConfig{Enabled: true, Words: []string{}, Action: "delete_warn"},
		InviteLinks: InviteLinkConfig{
			Enabled:            true,
			AllowOwnServer:     true,
			WhitelistedInvites: []string{},
			Action:             "delete_warn",
		},
		LinkFilter: LinkFilterConfig{Enabled: false, Whitelist: []string{}, Blacklist: []string{}, Action: "delete_warn"},
		Mentions:   MentionConfig{Enabled: true, MaxUsers: 5, MaxRoles: 3, Action: "delete_warn"},
		Caps:       CapsConfig{Enabled: true, MaxRatio: 0.7, MinLength: 10, Action: "delete_warn"},
		RepeatedChars: RepeatedCharsConfig{
			Enabled:     true,
			MaxRepeated: 10,
			Action:      "delete_warn",
		},
		ZalgoText: ZalgoConfig{Enabled: true, Threshold: 0.5, Action: "delete_warn"},
		Phishing:  PhishingConfig{Enabled: true, Action: "delete_warn"},
		MassEmoji: MassEmojiConfig{Enabled: true, MaxEmojis: 10, Action: "delete_warn"},
		NewlineSpam: NewlineSpamConfig{
			Enabled:     true,
			MaxNewlines: 15,
			Action:      "delete_warn",
		},
		UnicodeAbuse: UnicodeAbuseConfig{Enabled: true, Threshold: 0.3, Action: "delete_warn"},
		SuspiciousAttachment: AttachmentConfig{
			Enabled:           true,
			BlockedExtensions: []string{".exe", ".bat", ".com", ".cmd", ".pif", ".scr", ".vbs", ".js"},
			Action:            "delete_warn",
		},
		Slowmode: SlowmodeConfig{
			Enabled:         false,
			Triggers:        []string{"spam_frequency", "advanced_spam"},
			DurationSeconds: 30,
		},
		Punishments: PunishmentConfig{
			Progressive: true,
			Levels: []Tier{
				{Threshold: 1, Action: "warn"},
				{Threshold: 5, Action: "timeout", DurationMs: int64(5 * time.Minute / time.Millisecond)},
				{Threshold: 10, Action: "timeout", DurationMs: int64(30 * time.Minute / time.Millisecond)},
				{Threshold: 15, Action: "timeout", DurationMs: int64(time.Hour / time.Millisecond)},
				{Threshold: 25, Action: "kick"},
				{Threshold: 35, Action: "ban"},
			},
		},
		ExemptRoles:    []string{},
		ExemptChannels: []string{},
		ExemptUsers:    []string{},
	}
}

// MergeConfig unmarshals a stored JSON document onto a fresh copy of the
// defaults. Rule keys missing from the document keep their default values.
func MergeConfig(data []byte) (*GuildConfig, error) {
	cfg := DefaultGuildConfig()
	if len(data) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
