package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"modguard/internal/audit"
	"modguard/internal/automod"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if interaction.GuildID == "" {
		b.respond(session, interaction, "This command only works in a server.", true)
		return
	}

	ctx := context.Background()
	data := interaction.ApplicationCommandData()
	switch data.Name {
	case "automod":
		b.handleAutomodCommand(ctx, session, interaction, data.Options)
	case "blacklist":
		b.handleBlacklistCommand(ctx, session, interaction, data.Options)
	case "exempt":
		b.handleExemptCommand(ctx, session, interaction, data.Options)
	case "violations":
		b.handleViolationsCommand(ctx, session, interaction, data.Options)
	}
}

func (b *Bot) handleAutomodCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		b.respond(session, interaction, "Missing subcommand.", true)
		return
	}

	cfg, err := b.store.GetAutomodConfig(ctx, interaction.GuildID)
	if err != nil {
		b.respond(session, interaction, "Failed to load the configuration.", true)
		return
	}

	switch options[0].Name {
	case "status":
		b.respondEmbed(session, interaction, b.statusEmbed(cfg), true)
	case "enable", "disable":
		enabled := options[0].Name == "enable"
		cfg.Enabled = enabled
		if err := b.store.UpdateAutomodConfig(ctx, interaction.GuildID, cfg); err != nil {
			b.logger.Warn("config update failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
			b.respond(session, interaction, "Failed to save the configuration.", true)
			return
		}
		b.audit.Log(ctx, audit.LevelInfo, interaction.GuildID, b.invokerID(interaction), "automod_toggle", fmt.Sprintf("enabled=%t", enabled))
		b.respond(session, interaction, fmt.Sprintf("Automod is now %s.", onOff(enabled)), true)
	default:
		b.respond(session, interaction, "Unknown subcommand.", true)
	}
}

func (b *Bot) handleBlacklistCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		b.respond(session, interaction, "Missing subcommand.", true)
		return
	}

	cfg, err := b.store.GetAutomodConfig(ctx, interaction.GuildID)
	if err != nil {
		b.respond(session, interaction, "Failed to load the configuration.", true)
		return
	}

	sub := options[0]
	switch sub.Name {
	case "add":
		word := strings.ToLower(strings.TrimSpace(sub.Options[0].StringValue()))
		if word == "" {
			b.respond(session, interaction, "The word cannot be empty.", true)
			return
		}
		for _, existing := range cfg.BlacklistedWords.Words {
			if existing == word {
				b.respond(session, interaction, "That word is already blacklisted.", true)
				return
			}
		}
		cfg.BlacklistedWords.Words = append(cfg.BlacklistedWords.Words, word)
		if err := b.store.UpdateAutomodConfig(ctx, interaction.GuildID, cfg); err != nil {
			b.respond(session, interaction, "Failed to save the configuration.", true)
			return
		}
		b.audit.Log(ctx, audit.LevelInfo, interaction.GuildID, b.invokerID(interaction), "blacklist_add", word)
		b.respond(session, interaction, "Word added to the blacklist.", true)
	case "remove":
		word := strings.ToLower(strings.TrimSpace(sub.Options[0].StringValue()))
		kept := cfg.BlacklistedWords.Words[:0]
		removed := false
		for _, existing := range cfg.BlacklistedWords.Words {
			if existing == word {
				removed = true
				continue
			}
			kept = append(kept, existing)
		}
		if !removed {
			b.respond(session, interaction, "That word is not blacklisted.", true)
			return
		}
		cfg.BlacklistedWords.Words = kept
		if err := b.store.UpdateAutomodConfig(ctx, interaction.GuildID, cfg); err != nil {
			b.respond(session, interaction, "Failed to save the configuration.", true)
			return
		}
		b.audit.Log(ctx, audit.LevelInfo, interaction.GuildID, b.invokerID(interaction), "blacklist_remove", word)
		b.respond(session, interaction, "Word removed from the blacklist.", true)
	case "list":
		if len(cfg.BlacklistedWords.Words) == 0 {
			b.respond(session, interaction, "The blacklist is empty.", true)
			return
		}
		words := append([]string(nil), cfg.BlacklistedWords.Words...)
		sort.Strings(words)
		b.respond(session, interaction, "Blacklisted words: "+strings.Join(words, ", "), true)
	default:
		b.respond(session, interaction, "Unknown subcommand.", true)
	}
}

func (b *Bot) handleExemptCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		b.respond(session, interaction, "Missing subcommand.", true)
		return
	}

	cfg, err := b.store.GetAutomodConfig(ctx, interaction.GuildID)
	if err != nil {
		b.respond(session, interaction, "Failed to load the configuration.", true)
		return
	}

	sub := options[0]
	var list *[]string
	var id, label string

	switch sub.Name {
	case "user":
		user := sub.Options[0].UserValue(session)
		if user == nil {
			b.respond(session, interaction, "Could not resolve the user.", true)
			return
		}
		list, id, label = &cfg.ExemptUsers, user.ID, "<@"+user.ID+">"
	case "channel":
		channel := sub.Options[0].ChannelValue(session)
		if channel == nil {
			b.respond(session, interaction, "Could not resolve the channel.", true)
			return
		}
		list, id, label = &cfg.ExemptChannels, channel.ID, "<#"+channel.ID+">"
	case "role":
		role := sub.Options[0].RoleValue(session, interaction.GuildID)
		if role == nil {
			b.respond(session, interaction, "Could not resolve the role.", true)
			return
		}
		list, id, label = &cfg.ExemptRoles, role.ID, "<@&"+role.ID+">"
	case "list":
		b.respondEmbed(session, interaction, exemptEmbed(cfg), true)
		return
	default:
		b.respond(session, interaction, "Unknown subcommand.", true)
		return
	}

	added := toggleID(list, id)
	if err := b.store.UpdateAutomodConfig(ctx, interaction.GuildID, cfg); err != nil {
		b.respond(session, interaction, "Failed to save the configuration.", true)
		return
	}
	b.audit.Log(ctx, audit.LevelInfo, interaction.GuildID, b.invokerID(interaction), "exempt_toggle",
		fmt.Sprintf("kind=%s id=%s added=%t", sub.Name, id, added))
	if added {
		b.respond(session, interaction, label+" is now exempt from automod.", true)
	} else {
		b.respond(session, interaction, label+" is no longer exempt.", true)
	}
}

func (b *Bot) handleViolationsCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		b.respond(session, interaction, "Missing subcommand.", true)
		return
	}

	since := time.Now().Add(-24 * time.Hour)
	sub := options[0]
	switch sub.Name {
	case "user":
		user := sub.Options[0].UserValue(session)
		if user == nil {
			b.respond(session, interaction, "Could not resolve the user.", true)
			return
		}
		stats, err := b.analytics.UserStats(ctx, interaction.GuildID, user.ID, since)
		if err != nil {
			b.respond(session, interaction, "Failed to load violation history.", true)
			return
		}
		b.respondEmbed(session, interaction, userStatsEmbed(user.ID, stats.TotalViolations, stats.TotalSeverity, stats.ByType, b.cfg.Notifications.EmbedColors.Action), true)
	case "report":
		report, err := b.analytics.GuildReport(ctx, interaction.GuildID, since)
		if err != nil {
			b.respond(session, interaction, "Failed to build the report.", true)
			return
		}
		b.respondEmbed(session, interaction, reportEmbed(report.Total, report.ByType, b.cfg.Notifications.EmbedColors.Action), true)
	default:
		b.respond(session, interaction, "Unknown subcommand.", true)
	}
}

func (b *Bot) statusEmbed(cfg *automod.GuildConfig) *discordgo.MessageEmbed {
	rules := []struct {
		name    string
		enabled bool
	}{
		{"spam detection", cfg.SpamDetection.Enabled},
		{"blacklisted words", cfg.BlacklistedWords.Enabled},
		{"invite links", cfg.InviteLinks.Enabled},
		{"link filter", cfg.LinkFilter.Enabled},
		{"mentions", cfg.Mentions.Enabled},
		{"caps", cfg.Caps.Enabled},
		{"repeated chars", cfg.RepeatedChars.Enabled},
		{"zalgo text", cfg.ZalgoText.Enabled},
		{"phishing", cfg.Phishing.Enabled},
		{"mass emoji", cfg.MassEmoji.Enabled},
		{"newline spam", cfg.NewlineSpam.Enabled},
		{"unicode abuse", cfg.UnicodeAbuse.Enabled},
		{"attachments", cfg.SuspiciousAttachment.Enabled},
	}

	var lines []string
	for _, rule := range rules {
		lines = append(lines, fmt.Sprintf("%s: %s", rule.name, onOff(rule.enabled)))
	}

	return &discordgo.MessageEmbed{
		Title:     "Automod status",
		Color:     b.cfg.Notifications.EmbedColors.Action,
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Enabled", Value: onOff(cfg.Enabled), Inline: true},
			{Name: "Progressive punishments", Value: onOff(cfg.Punishments.Progressive), Inline: true},
			{Name: "Rules", Value: strings.Join(lines, "\n"), Inline: false},
		},
	}
}

func exemptEmbed(cfg *automod.GuildConfig) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:     "Automod exemptions",
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Users", Value: mentionList(cfg.ExemptUsers, "<@%s>"), Inline: false},
			{Name: "Channels", Value: mentionList(cfg.ExemptChannels, "<#%s>"), Inline: false},
			{Name: "Roles", Value: mentionList(cfg.ExemptRoles, "<@&%s>"), Inline: false},
		},
	}
}

func userStatsEmbed(userID string, total, severity int, byType map[string]int, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:     "Violations (24h)",
		Color:     color,
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User", Value: "<@" + userID + ">", Inline: true},
			{Name: "Total", Value: fmt.Sprintf("%d", total), Inline: true},
			{Name: "Severity", Value: fmt.Sprintf("%d", severity), Inline: true},
			{Name: "By type", Value: typeLines(byType), Inline: false},
		},
	}
}

func reportEmbed(total int, byType map[string]int, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:     "Violation report (24h)",
		Color:     color,
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Total", Value: fmt.Sprintf("%d", total), Inline: true},
			{Name: "By type", Value: typeLines(byType), Inline: false},
		},
	}
}

func typeLines(byType map[string]int) string {
	if len(byType) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(byType))
	for key := range byType {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("%s: %d", key, byType[key]))
	}
	return strings.Join(lines, "\n")
}

func mentionList(ids []string, format string) string {
	if len(ids) == 0 {
		return "none"
	}
	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, fmt.Sprintf(format, id))
	}
	return strings.Join(lines, "\n")
}

// toggleID adds the id when absent and removes it when present. Returns
// true when the id was added.
func toggleID(list *[]string, id string) bool {
	for i, existing := range *list {
		if existing == id {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return false
		}
	}
	*list = append(*list, id)
	return true
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

func (b *Bot) invokerID(interaction *discordgo.InteractionCreate) string {
	if interaction.Member != nil && interaction.Member.User != nil {
		return interaction.Member.User.ID
	}
	return ""
}

func (b *Bot) respond(session *discordgo.Session, interaction *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
}

func (b *Bot) respondEmbed(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	if embed == nil {
		b.respond(session, interaction, "No response available.", ephemeral)
		return
	}
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags,
		},
	})
}
