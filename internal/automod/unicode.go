package automod

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var customEmojiRegex = regexp.MustCompile(`<a?:[a-zA-Z0-9_]+:[0-9]+>`)

type zalgoDetector struct{}

func (zalgoDetector) Name() string { return "zalgo" }

func (zalgoDetector) Detect(msg *Message, cfg *GuildConfig, _ []MessageRecord) *Violation {
	zc := cfg.ZalgoText
	if !zc.Enabled {
		return nil
	}

	runes := []rune(msg.Content)
	if len(runes) == 0 {
		return nil
	}

	combining := 0
	for _, r := range runes {
		if unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Me, r) {
			combining++
		}
	}
	if combining == 0 {
		return nil
	}

	ratio := float64(combining) / float64(len(runes))
	if ratio <= zc.Threshold {
		return nil
	}

	return &Violation{
		Type:     "zalgo_text",
		Severity: 2,
		Reason:   fmt.Sprintf("zalgo/corrupted text detected (%d%% combining chars)", int(ratio*100)),
		Action:   zc.Action,
	}
}

type massEmojiDetector struct{}

func (massEmojiDetector) Name() string { return "mass_emoji" }

func (massEmojiDetector) Detect(msg *Message, cfg *GuildConfig, _ []MessageRecord) *Violation {
	mc := cfg.MassEmoji
	if !mc.Enabled {
		return nil
	}

	total := countEmojis(msg.Content)
	if total <= mc.MaxEmojis {
		return nil
	}

	severity := total / 5
	if severity > 3 {
		severity = 3
	}
	if severity < 1 {
		severity = 1
	}

	return &Violation{
		Type:     "mass_emoji",
		Severity: severity,
		Reason:   fmt.Sprintf("excessive emoji usage: %d/%d", total, mc.MaxEmojis),
		Action:   mc.Action,
	}
}

// countEmojis counts Unicode emoji plus Discord custom-emoji tokens.
func countEmojis(content string) int {
	count := 0
	for _, r := range content {
		if isEmojiRune(r) {
			count++
		}
	}
	return count + len(customEmojiRegex.FindAllString(content, -1))
}

func isEmojiRune(r rune) bool {
	switch {
	case r >= 0x1F600 && r <= 0x1F64F, // emoticons
		r >= 0x1F300 && r <= 0x1F5FF, // symbols and pictographs
		r >= 0x1F680 && r <= 0x1F6FF, // transport
		r >= 0x1F1E0 && r <= 0x1F1FF, // regional indicators
		r >= 0x2600 && r <= 0x26FF, // misc symbols
		r >= 0x2700 && r <= 0x27BF: // dingbats
		return true
	}
	return false
}

type unicodeAbuseDetector struct{}

func (unicodeAbuseDetector) Name() string { return "unicode_abuse" }

// Detect weights invisible characters x1, bidirectional overrides x2, and
// adds extra weight when at least 30% of the message is Cyrillic lookalike
// characters (homograph risk).
func (unicodeAbuseDetector) Detect(msg *Message, cfg *GuildConfig, _ []MessageRecord) *Violation {
	uc := cfg.UnicodeAbuse
	if !uc.Enabled {
		return nil
	}

	runes := []rune(msg.Content)
	if len(runes) == 0 {
		return nil
	}

	invisible := 0
	bidi := 0
	homographs := 0
	for _, r := range runes {
		switch {
		case isInvisibleRune(r):
			invisible++
		case r >= 0x202A && r <= 0x202E:
			bidi++
		case r >= 0x0400 && r <= 0x04FF:
			homographs++
		}
	}

	suspicious := invisible + bidi*2
	var reasons []string
	if invisible > 0 {
		reasons = append(reasons, fmt.Sprintf("%d invisible chars", invisible))
	}
	if bidi > 0 {
		reasons = append(reasons, fmt.Sprintf("%d directional override chars", bidi))
	}
	if float64(homographs) > float64(len(runes))*0.3 {
		suspicious += homographs / 2
		reasons = append(reasons, "potential homograph attack")
	}

	if suspicious == 0 {
		return nil
	}
	ratio := float64(suspicious) / float64(len(runes))
	if ratio <= uc.Threshold {
		return nil
	}

	severity := int(ratio * 10)
	if severity > 4 {
		severity = 4
	}
	if severity < 1 {
		severity = 1
	}

	return &Violation{
		Type:     "unicode_abuse",
		Severity: severity,
		Reason:   "unicode abuse detected: " + strings.Join(reasons, ", "),
		Action:   uc.Action,
	}
}

func isInvisibleRune(r rune) bool {
	switch {
	case r >= 0x200B && r <= 0x200D, // zero-width space/joiners
		r == 0xFEFF, // BOM
		r == 0x00AD, // soft hyphen
		r == 0x061C, // arabic letter mark
		r == 0x180E, // mongolian vowel separator
		r >= 0x2060 && r <= 0x2069: // word joiner, invisible operators
		return true
	}
	return false
}
