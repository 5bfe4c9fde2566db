package automod

import "strings"

// Detector is one rule evaluator. Detect is pure given its inputs: the
// message, the guild config and a snapshot of the user's recent history
// (which already includes the current message). A nil result means the
// rule did not fire or is disabled.
type Detector interface {
	Name() string
	Detect(msg *Message, cfg *GuildConfig, recent []MessageRecord) *Violation
}

// DefaultDetectors returns the full detector set in evaluation order.
// Spam runs first so its violations take the priority slot; everything
// after is independent.
func DefaultDetectors() []Detector {
	return []Detector{
		spamDetector{},
		blacklistDetector{},
		inviteDetector{},
		linkFilterDetector{},
		mentionDetector{},
		capsDetector{},
		repeatedCharsDetector{},
		zalgoDetector{},
		phishingDetector{},
		massEmojiDetector{},
		newlineDetector{},
		unicodeAbuseDetector{},
		attachmentDetector{},
	}
}

func wantsDelete(action string) bool {
	return strings.Contains(action, "delete")
}
