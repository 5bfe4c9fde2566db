package automod

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// severityWindow is the trailing horizon over which persisted violation
// severities accumulate toward punishment tiers.
const severityWindow = 24 * time.Hour

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// AuditSink receives one entry per violation and moderation action.
type AuditSink interface {
	Log(ctx context.Context, level, guildID, userID, event, details string)
}

// SlowmodeController applies a temporary channel slowmode. Implemented by
// the slowmode engine; nil disables the feature.
type SlowmodeController interface {
	Apply(ctx context.Context, channelID string, seconds int) bool
}

// Engine is the violation aggregator: it runs the detector set over each
// inbound message and walks every resulting violation through delete,
// persist, severity accumulation, punishment and notification.
//
// ProcessMessage never fails outward. It is safe to invoke concurrently,
// including for messages from the same user.
type Engine struct {
	configs    ConfigStore
	violations ViolationStore
	actions    Actions
	tracker    *Tracker
	detectors  []Detector
	logger     *zap.Logger
	audit      AuditSink
	slowmode   SlowmodeController
	clock      Clock
}

func NewEngine(configs ConfigStore, violations ViolationStore, actions Actions, tracker *Tracker, logger *zap.Logger) *Engine {
	return &Engine{
		configs:    configs,
		violations: violations,
		actions:    actions,
		tracker:    tracker,
		detectors:  DefaultDetectors(),
		logger:     logger,
		clock:      realClock{},
	}
}

func (e *Engine) WithClock(clock Clock) {
	e.clock = clock
}

func (e *Engine) SetAudit(sink AuditSink) {
	e.audit = sink
}

func (e *Engine) SetSlowmode(controller SlowmodeController) {
	e.slowmode = controller
}

// ProcessMessage runs the full moderation pass for one message.
func (e *Engine) ProcessMessage(ctx context.Context, msg *Message) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("automod panic recovered", zap.Any("panic", r))
		}
	}()

	if msg == nil || msg.Bot || msg.GuildID == "" {
		return
	}

	cfg := e.guildConfig(ctx, msg.GuildID)
	if !cfg.Enabled {
		return
	}
	if e.isExempt(msg, cfg) {
		return
	}

	now := e.clock.Now()
	window := cfg.SpamDetection.Window()
	e.tracker.Record(msg.GuildID, msg.AuthorID, msg.ChannelID, msg.Content, window, now)
	if err := e.violations.TrackMessage(ctx, msg.GuildID, msg.AuthorID, msg.ChannelID, msg.Content); err != nil {
		e.logger.Warn("message tracking failed", zap.String("guild_id", msg.GuildID), zap.Error(err))
	}

	recent := e.tracker.RecentFor(msg.GuildID, msg.AuthorID, window, now)
	for _, violation := range e.runDetectors(msg, cfg, recent) {
		e.handleViolation(ctx, msg, violation, cfg)
	}
}

// guildConfig falls back to defaults on storage failure so a database
// outage degrades moderation rather than disabling it.
func (e *Engine) guildConfig(ctx context.Context, guildID string) *GuildConfig {
	cfg, err := e.configs.GetAutomodConfig(ctx, guildID)
	if err != nil {
		e.logger.Warn("guild config fallback", zap.String("guild_id", guildID), zap.Error(err))
		return DefaultGuildConfig()
	}
	return cfg
}

// isExempt checks, in order: exempt user IDs, exempt channel IDs, exempt
// roles, then moderation bypass permission. Any match short-circuits.
func (e *Engine) isExempt(msg *Message, cfg *GuildConfig) bool {
	for _, id := range cfg.ExemptUsers {
		if id == msg.AuthorID {
			return true
		}
	}
	for _, id := range cfg.ExemptChannels {
		if id == msg.ChannelID {
			return true
		}
	}
	if len(cfg.ExemptRoles) > 0 {
		exempt := make(map[string]struct{}, len(cfg.ExemptRoles))
		for _, id := range cfg.ExemptRoles {
			exempt[id] = struct{}{}
		}
		for _, roleID := range e.actions.MemberRoles(msg.GuildID, msg.AuthorID) {
			if _, ok := exempt[roleID]; ok {
				return true
			}
		}
	}
	return e.actions.HasModBypass(msg.GuildID, msg.AuthorID)
}

// runDetectors evaluates every detector; a panicking detector is logged
// and skipped without aborting the rest.
func (e *Engine) runDetectors(msg *Message, cfg *GuildConfig, recent []MessageRecord) []*Violation {
	var found []*Violation
	for _, detector := range e.detectors {
		violation := e.runDetector(detector, msg, cfg, recent)
		if violation != nil {
			found = append(found, violation)
		}
	}
	return found
}

func (e *Engine) runDetector(detector Detector, msg *Message, cfg *GuildConfig, recent []MessageRecord) (violation *Violation) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("detector panic recovered", zap.String("detector", detector.Name()), zap.Any("panic", r))
			violation = nil
		}
	}()
	return detector.Detect(msg, cfg, recent)
}

func (e *Engine) handleViolation(ctx context.Context, msg *Message, violation *Violation, cfg *GuildConfig) {
	now := e.clock.Now()

	if wantsDelete(violation.Action) {
		if err := e.actions.DeleteMessage(ctx, msg.ChannelID, msg.ID); err != nil {
			e.logger.Warn("message delete failed", zap.String("message_id", msg.ID), zap.Error(err))
		}
	}

	record := ViolationRecord{
		GuildID:     msg.GuildID,
		UserID:      msg.AuthorID,
		ChannelID:   msg.ChannelID,
		MessageID:   msg.ID,
		Type:        violation.Type,
		Content:     msg.Content,
		ActionTaken: violation.Action,
		Severity:    violation.Severity,
		CreatedAt:   now,
	}
	if _, err := e.violations.LogViolation(ctx, record); err != nil {
		e.logger.Error("violation persist failed", zap.String("type", violation.Type), zap.Error(err))
	}

	// On history failure the total degrades to just this violation.
	total := violation.Severity
	history, err := e.violations.ViolationsSince(ctx, msg.GuildID, msg.AuthorID, now.Add(-severityWindow))
	if err != nil {
		e.logger.Error("violation history query failed", zap.String("guild_id", msg.GuildID), zap.Error(err))
	} else {
		for _, past := range history {
			if past.MessageID == msg.ID && past.Type == violation.Type {
				continue
			}
			total += past.Severity
		}
	}

	e.auditLog(ctx, "WARN", msg.GuildID, msg.AuthorID, "automod_violation",
		fmt.Sprintf("type=%s severity=%d total=%d", violation.Type, violation.Severity, total))

	var decision *Decision
	if cfg.Punishments.Progressive {
		decision = Resolve(total, cfg.Punishments.Levels)
	}

	if decision == nil {
		e.warn(ctx, msg, violation.Reason)
	} else {
		e.applyPunishment(ctx, msg, decision, violation.Reason, total)
	}

	e.maybeSlowmode(ctx, msg, violation, cfg)
}

func (e *Engine) applyPunishment(ctx context.Context, msg *Message, decision *Decision, reason string, total int) {
	var err error
	switch decision.Action {
	case "warn":
		e.warn(ctx, msg, reason)
	case "timeout":
		err = e.actions.Timeout(ctx, msg.GuildID, msg.AuthorID, decision.Duration, "automod: "+reason)
		if err == nil {
			e.warn(ctx, msg, fmt.Sprintf("you have been timed out for %s: %s", formatDuration(decision.Duration), reason))
		}
	case "kick":
		// Notify before removal; afterwards there is no shared channel.
		e.warn(ctx, msg, "you are being removed from the server: "+reason)
		err = e.actions.Kick(ctx, msg.GuildID, msg.AuthorID, "automod: "+reason)
	case "ban":
		e.warn(ctx, msg, "you are being banned from the server: "+reason)
		err = e.actions.Ban(ctx, msg.GuildID, msg.AuthorID, "automod: "+reason)
	default:
		e.logger.Warn("unknown punishment action", zap.String("action", decision.Action))
		e.warn(ctx, msg, reason)
		return
	}

	if err != nil {
		e.logger.Warn("punishment failed",
			zap.String("action", decision.Action),
			zap.String("user_id", msg.AuthorID),
			zap.Error(err))
		e.auditLog(ctx, "WARN", msg.GuildID, msg.AuthorID, "action_failed", decision.Action+" failed")
		e.warn(ctx, msg, reason)
		return
	}

	action := ModerationAction{
		GuildID:     msg.GuildID,
		UserID:      msg.AuthorID,
		ModeratorID: e.actions.BotUserID(),
		Action:      decision.Action,
		Reason:      reason,
		Duration:    decision.Duration,
		CreatedAt:   e.clock.Now(),
	}
	if _, err := e.violations.LogModerationAction(ctx, action); err != nil {
		e.logger.Error("moderation action persist failed", zap.Error(err))
	}
	e.auditLog(ctx, punishmentLevel(decision.Action), msg.GuildID, msg.AuthorID, "automod_punishment",
		fmt.Sprintf("action=%s total=%d threshold=%d", decision.Action, total, decision.Threshold))
}

func (e *Engine) warn(ctx context.Context, msg *Message, reason string) {
	if err := e.actions.Warn(ctx, msg.ChannelID, msg.AuthorID, reason); err != nil {
		e.logger.Warn("warning notification failed", zap.String("user_id", msg.AuthorID), zap.Error(err))
	}
}

func (e *Engine) maybeSlowmode(ctx context.Context, msg *Message, violation *Violation, cfg *GuildConfig) {
	if e.slowmode == nil || !cfg.Slowmode.Enabled {
		return
	}
	for _, trigger := range cfg.Slowmode.Triggers {
		if trigger == violation.Type {
			if e.slowmode.Apply(ctx, msg.ChannelID, cfg.Slowmode.DurationSeconds) {
				e.auditLog(ctx, "INFO", msg.GuildID, msg.AuthorID, "automod_slowmode",
					fmt.Sprintf("channel=%s seconds=%d", msg.ChannelID, cfg.Slowmode.DurationSeconds))
			}
			return
		}
	}
}

func (e *Engine) auditLog(ctx context.Context, level, guildID, userID, event, details string) {
	if e.audit == nil {
		return
	}
	e.audit.Log(ctx, level, guildID, userID, event, details)
}

func punishmentLevel(action string) string {
	switch action {
	case "ban", "kick":
		return "CRIT"
	case "timeout":
		return "WARN"
	default:
		return "INFO"
	}
}

func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	hours := minutes / 60
	days := hours / 24
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours%24)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes%60)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
