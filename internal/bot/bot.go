package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"modguard/internal/analytics"
	"modguard/internal/audit"
	"modguard/internal/automod"
	"modguard/internal/config"
	"modguard/internal/slowmode"
	"modguard/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// maxTimeout is the longest communication timeout the API accepts.
const maxTimeout = 28 * 24 * time.Hour

type Bot struct {
	cfg       config.Config
	logger    *zap.Logger
	store     *storage.Store
	audit     *audit.Logger
	analytics *analytics.Service
	engine    *automod.Engine
	slowmode  *slowmode.Engine
	session   *discordgo.Session
}

func New(cfg config.Config, logger *zap.Logger, store *storage.Store, auditLogger *audit.Logger, analyticsService *analytics.Service) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent

	b := &Bot{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		audit:     auditLogger,
		analytics: analyticsService,
		session:   session,
	}

	// Floor only: a guild whose spam window exceeds it keeps its records
	// for the full window.
	retention := time.Duration(cfg.TrackerRetentionSeconds) * time.Second
	if retention <= 0 {
		retention = time.Minute
	}
	b.engine = automod.NewEngine(store, store, b, automod.NewTracker(retention), logger)
	b.engine.SetAudit(auditLogger)

	b.slowmode = slowmode.New(slowmode.Config{HoldMinutes: cfg.Slowmode.HoldMinutes}, b, logger)
	b.engine.SetSlowmode(b.slowmode)

	if b.audit != nil && cfg.Notifications.ModLogChannel != "" {
		b.audit.SetNotifier(func(ctx context.Context, entry storage.AuditLog) {
			b.notifyModLog(ctx, entry)
		})
	}

	return b, nil
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return err
	}

	return b.registerCommands()
}

func (b *Bot) Close(ctx context.Context) {
	_ = ctx
	if b.session != nil {
		_ = b.session.Close()
	}
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("discord ready",
		zap.String("user", session.State.User.Username),
		zap.Int("guilds", len(event.Guilds)))
}

func (b *Bot) onMessageCreate(session *discordgo.Session, msg *discordgo.MessageCreate) {
	if msg.Author == nil || msg.GuildID == "" {
		return
	}

	attachments := make([]string, 0, len(msg.Attachments))
	for _, att := range msg.Attachments {
		if att != nil {
			attachments = append(attachments, att.Filename)
		}
	}
	mentions := make([]string, 0, len(msg.Mentions))
	for _, user := range msg.Mentions {
		if user != nil {
			mentions = append(mentions, user.ID)
		}
	}

	vanity := ""
	if guild, err := session.State.Guild(msg.GuildID); err == nil && guild != nil {
		vanity = guild.VanityURLCode
	}

	event := &automod.Message{
		ID:              msg.ID,
		GuildID:         msg.GuildID,
		ChannelID:       msg.ChannelID,
		AuthorID:        msg.Author.ID,
		Content:         msg.Content,
		Attachments:     attachments,
		UserMentions:    mentions,
		RoleMentions:    msg.MentionRoles,
		GuildVanityCode: vanity,
		Bot:             msg.Author.Bot,
	}

	// Gateway dispatch must not block on detector work or storage.
	go b.engine.ProcessMessage(context.Background(), event)
}

// --- automod.Actions ---

func (b *Bot) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	_ = ctx
	return b.session.ChannelMessageDelete(channelID, messageID)
}

func (b *Bot) Timeout(ctx context.Context, guildID, userID string, d time.Duration, reason string) error {
	_ = ctx
	_ = reason
	if d > maxTimeout {
		d = maxTimeout
	}
	until := time.Now().Add(d)
	return b.session.GuildMemberTimeout(guildID, userID, &until)
}

func (b *Bot) Kick(ctx context.Context, guildID, userID, reason string) error {
	_ = ctx
	return b.session.GuildMemberDeleteWithReason(guildID, userID, reason)
}

func (b *Bot) Ban(ctx context.Context, guildID, userID, reason string) error {
	_ = ctx
	return b.session.GuildBanCreateWithReason(guildID, userID, reason, 1)
}

// Warn notifies in the triggering channel, falling back to a DM when the
// channel send fails or channel warnings are disabled.
func (b *Bot) Warn(ctx context.Context, channelID, userID, reason string) error {
	_ = ctx
	content := fmt.Sprintf("<@%s> %s", userID, reason)

	if b.cfg.Notifications.ChannelWarnEnabled {
		if _, err := b.session.ChannelMessageSend(channelID, content); err == nil {
			return nil
		}
	}
	if !b.cfg.Notifications.DMWarnEnabled {
		return errors.New("no warning path available")
	}

	dm, err := b.session.UserChannelCreate(userID)
	if err != nil {
		return err
	}
	_, err = b.session.ChannelMessageSend(dm.ID, b.dmWarning(channelID, reason))
	return err
}

// dmWarning names the originating server, since a direct message carries
// no guild context of its own.
func (b *Bot) dmWarning(channelID, reason string) string {
	if channel, err := b.session.State.Channel(channelID); err == nil && channel != nil {
		if guild, err := b.session.State.Guild(channel.GuildID); err == nil && guild.Name != "" {
			return fmt.Sprintf("Automod warning from %s: %s", guild.Name, reason)
		}
	}
	return "Automod warning: " + reason
}

func (b *Bot) MemberRoles(guildID, userID string) []string {
	member := b.memberForUser(guildID, userID)
	if member == nil {
		return nil
	}
	return member.Roles
}

// HasModBypass reports whether the member is the guild owner or holds
// manage-messages or administrator through any role.
func (b *Bot) HasModBypass(guildID, userID string) bool {
	guild, err := b.session.State.Guild(guildID)
	if err != nil || guild == nil {
		guild, _ = b.session.Guild(guildID)
	}
	if guild == nil {
		return false
	}
	if guild.OwnerID == userID {
		return true
	}

	member := b.memberForUser(guildID, userID)
	if member == nil {
		return false
	}

	perms := int64(0)
	roleMap := make(map[string]*discordgo.Role, len(guild.Roles))
	for _, role := range guild.Roles {
		roleMap[role.ID] = role
		if role.ID == guild.ID {
			perms |= role.Permissions
		}
	}
	for _, roleID := range member.Roles {
		if role := roleMap[roleID]; role != nil {
			perms |= role.Permissions
		}
	}
	return perms&(discordgo.PermissionAdministrator|discordgo.PermissionManageMessages) != 0
}

func (b *Bot) BotUserID() string {
	if b.session.State != nil && b.session.State.User != nil {
		return b.session.State.User.ID
	}
	return ""
}

// --- slowmode.Setter ---

func (b *Bot) ChannelSlowmode(channelID string) (int, error) {
	channel, err := b.session.State.Channel(channelID)
	if err != nil || channel == nil {
		channel, err = b.session.Channel(channelID)
		if err != nil {
			return 0, err
		}
	}
	return channel.RateLimitPerUser, nil
}

func (b *Bot) SetChannelSlowmode(channelID string, seconds int) error {
	_, err := b.session.ChannelEditComplex(channelID, &discordgo.ChannelEdit{RateLimitPerUser: &seconds})
	return err
}

func (b *Bot) memberForUser(guildID, userID string) *discordgo.Member {
	member, err := b.session.State.Member(guildID, userID)
	if err == nil && member != nil {
		return member
	}
	member, _ = b.session.GuildMember(guildID, userID)
	return member
}

func (b *Bot) notifyModLog(ctx context.Context, entry storage.AuditLog) {
	_ = ctx
	channelID := b.cfg.Notifications.ModLogChannel
	if channelID == "" {
		return
	}

	color := b.cfg.Notifications.EmbedColors.Action
	if entry.Level == audit.LevelCrit {
		color = b.cfg.Notifications.EmbedColors.Error
	} else if entry.Level == audit.LevelWarn {
		color = b.cfg.Notifications.EmbedColors.Warning
	}

	userValue := "system"
	if entry.UserID != "" {
		userValue = "<@" + entry.UserID + ">"
	}

	embed := &discordgo.MessageEmbed{
		Title:     "Automod",
		Color:     color,
		Timestamp: entry.CreatedAt.Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Event", Value: entry.Event, Inline: true},
			{Name: "Level", Value: entry.Level, Inline: true},
			{Name: "User", Value: userValue, Inline: true},
			{Name: "Details", Value: entry.Details, Inline: false},
		},
	}
	if _, err := b.session.ChannelMessageSendEmbed(channelID, embed); err != nil {
		b.logger.Warn("mod log send failed", zap.String("channel_id", channelID), zap.Error(err))
	}
}
