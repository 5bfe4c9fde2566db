package automod

import (
	"fmt"
	"strings"
	"unicode"
)

type blacklistDetector struct{}

func (blacklistDetector) Name() string { return "blacklisted_words" }

func (blacklistDetector) Detect(msg *Message, cfg *GuildConfig, _ []MessageRecord) *Violation {
	wf := cfg.BlacklistedWords
	if !wf.Enabled || len(wf.Words) == 0 {
		return nil
	}

	content := strings.ToLower(msg.Content)
	var found []string
	for _, word := range wf.Words {
		if word == "" {
			continue
		}
		if strings.Contains(content, strings.ToLower(word)) {
			found = append(found, word)
		}
	}
	if len(found) == 0 {
		return nil
	}

	return &Violation{
		Type:     "blacklisted_words",
		Severity: 2,
		Reason:   "contains blacklisted words: " + strings.Join(found, ", "),
		Action:   wf.Action,
	}
}

type mentionDetector struct{}

func (mentionDetector) Name() string { return "mentions" }

// Detect counts user and role mentions independently. When both limits
// are exceeded the role violation wins the single return slot, being the
// higher severity of the two.
func (mentionDetector) Detect(msg *Message, cfg *GuildConfig, _ []MessageRecord) *Violation {
	mc := cfg.Mentions
	if !mc.Enabled {
		return nil
	}

	if len(msg.RoleMentions) > mc.MaxRoles {
		return &Violation{
			Type:     "excessive_role_mentions",
			Severity: 3,
			Reason:   fmt.Sprintf("too many role mentions: %d/%d", len(msg.RoleMentions), mc.MaxRoles),
			Action:   mc.Action,
		}
	}
	if len(msg.UserMentions) > mc.MaxUsers {
		return &Violation{
			Type:     "excessive_mentions",
			Severity: 2,
			Reason:   fmt.Sprintf("too many user mentions: %d/%d", len(msg.UserMentions), mc.MaxUsers),
			Action:   mc.Action,
		}
	}
	return nil
}

type capsDetector struct{}

func (capsDetector) Name() string { return "caps" }

func (capsDetector) Detect(msg *Message, cfg *GuildConfig, _ []MessageRecord) *Violation {
	cc := cfg.Caps
	if !cc.Enabled {
		return nil
	}

	runes := []rune(msg.Content)
	if len(runes) < cc.MinLength {
		return nil
	}

	uppers := 0
	for _, r := range runes {
		if unicode.IsUpper(r) {
			uppers++
		}
	}
	ratio := float64(uppers) / float64(len(runes))
	if ratio <= cc.MaxRatio {
		return nil
	}

	return &Violation{
		Type:     "excessive_caps",
		Severity: 1,
		Reason:   fmt.Sprintf("excessive capitalization: %d%%", int(ratio*100)),
		Action:   cc.Action,
	}
}

type repeatedCharsDetector struct{}

func (repeatedCharsDetector) Name() string { return "repeated_chars" }

func (repeatedCharsDetector) Detect(msg *Message, cfg *GuildConfig, _ []MessageRecord) *Violation {
	rc := cfg.RepeatedChars
	if !rc.Enabled {
		return nil
	}

	longest := 0
	runLength := 0
	var prev rune
	for i, r := range msg.Content {
		if i > 0 && r == prev {
			runLength++
		} else {
			runLength = 1
		}
		if runLength > longest {
			longest = runLength
		}
		prev = r
	}

	// Runs shorter than 10 never flag, whatever the configured threshold.
	if longest < 10 || longest < rc.MaxRepeated {
		return nil
	}

	return &Violation{
		Type:     "repeated_chars",
		Severity: 1,
		Reason:   fmt.Sprintf("excessive repeated characters: %d in a row", longest),
		Action:   rc.Action,
	}
}

type newlineDetector struct{}

func (newlineDetector) Name() string { return "newline_spam" }

func (newlineDetector) Detect(msg *Message, cfg *GuildConfig, _ []MessageRecord) *Violation {
	nc := cfg.NewlineSpam
	if !nc.Enabled {
		return nil
	}

	count := strings.Count(msg.Content, "\n")
	if count <= nc.MaxNewlines {
		return nil
	}

	severity := count / 10
	if severity > 3 {
		severity = 3
	}
	if severity < 1 {
		severity = 1
	}

	return &Violation{
		Type:     "newline_spam",
		Severity: severity,
		Reason:   fmt.Sprintf("excessive newlines: %d/%d", count, nc.MaxNewlines),
		Action:   nc.Action,
	}
}
