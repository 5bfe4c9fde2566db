package automod

import (
	"fmt"
	"math"
	"strings"

	"modguard/internal/utils"
)

// clusterThreshold groups recent messages whose pairwise similarity
// reaches it; the engine's duplicate rule uses the per-guild threshold
// instead.
const clusterThreshold = 0.8

var spamTriggerWords = []string{"free", "money", "winner", "click here", "urgent", "limited time"}

// SpamScore is the breakdown of the composite spam score. Each signal is
// bounded; Total is their sum.
type SpamScore struct {
	Total        int
	Reasons      []string
	Frequency    int
	MaxGroup     int
	Patterns     int
	CrossChannel int
	RapidSpam    int
	Temporal     int
}

type spamDetector struct{}

func (spamDetector) Name() string { return "spam" }

// Detect emits at most one spam violation per message: the composite
// score first, then raw frequency, then duplicate content.
func (spamDetector) Detect(msg *Message, cfg *GuildConfig, recent []MessageRecord) *Violation {
	sc := cfg.SpamDetection
	if !sc.Enabled {
		return nil
	}

	score := calculateSpamScore(msg, recent, sc)
	if score.Total >= 10 {
		severity := score.Total / 2
		if severity > 5 {
			severity = 5
		}
		return &Violation{
			Type:     "advanced_spam",
			Severity: severity,
			Reason:   fmt.Sprintf("advanced spam detected (score %d): %s", score.Total, strings.Join(score.Reasons, ", ")),
			Action:   "delete_warn",
			Details:  score,
		}
	}

	if len(recent) >= sc.MaxMessages {
		return &Violation{
			Type:     "spam_frequency",
			Severity: 3,
			Reason:   fmt.Sprintf("sent %d messages in %s", len(recent), sc.Window()),
			Action:   "delete_warn",
		}
	}

	lower := strings.ToLower(msg.Content)
	duplicates := 0
	for _, rec := range recent {
		if utils.Similarity(lower, strings.ToLower(rec.Content)) >= sc.DuplicateThreshold {
			duplicates++
		}
	}
	if duplicates >= sc.MaxDuplicates {
		return &Violation{
			Type:     "spam_duplicate",
			Severity: 2,
			Reason:   fmt.Sprintf("repeated similar message %d times", duplicates),
			Action:   "delete_warn",
		}
	}

	return nil
}

// calculateSpamScore sums six independent signals over the user's recent
// history (which includes the current message).
func calculateSpamScore(msg *Message, recent []MessageRecord, cfg SpamDetectionConfig) *SpamScore {
	score := &SpamScore{Frequency: len(recent)}

	if float64(len(recent)) > float64(cfg.MaxMessages)*0.7 {
		pts := len(recent) - cfg.MaxMessages
		if pts > 5 {
			pts = 5
		}
		if pts > 0 {
			score.Total += pts
			score.Reasons = append(score.Reasons, fmt.Sprintf("high frequency (%d msgs)", len(recent)))
		}
	}

	score.MaxGroup = largestSimilarityGroup(recent)
	if score.MaxGroup >= 3 {
		pts := score.MaxGroup - 2
		if pts > 4 {
			pts = 4
		}
		score.Total += pts
		score.Reasons = append(score.Reasons, fmt.Sprintf("repeated content (%d similar)", score.MaxGroup))
	}

	score.Patterns = analyzeMessagePatterns(msg.Content)
	if score.Patterns > 0 {
		score.Total += score.Patterns
		score.Reasons = append(score.Reasons, "suspicious patterns")
	}

	score.CrossChannel = crossChannelScore(msg, recent)
	if score.CrossChannel > 0 {
		score.Total += score.CrossChannel
		score.Reasons = append(score.Reasons, "cross-channel spam")
	}

	score.RapidSpam = rapidSpamScore(msg, recent)
	if score.RapidSpam > 0 {
		score.Total += score.RapidSpam
		score.Reasons = append(score.Reasons, "rapid spam elements")
	}

	score.Temporal = temporalScore(recent)
	if score.Temporal > 0 {
		score.Total += score.Temporal
		score.Reasons = append(score.Reasons, "bot-like timing")
	}

	return score
}

// largestSimilarityGroup single-link clusters the recent contents and
// returns the size of the biggest cluster.
func largestSimilarityGroup(recent []MessageRecord) int {
	var groups [][]string
	for _, rec := range recent {
		lower := strings.ToLower(rec.Content)
		placed := false
		for i, group := range groups {
			for _, member := range group {
				if utils.Similarity(lower, member) >= clusterThreshold {
					groups[i] = append(groups[i], lower)
					placed = true
					break
				}
			}
			if placed {
				break
			}
		}
		if !placed {
			groups = append(groups, []string{lower})
		}
	}

	largest := 0
	for _, group := range groups {
		if len(group) > largest {
			largest = len(group)
		}
	}
	return largest
}

func analyzeMessagePatterns(content string) int {
	score := 0

	runs := 0
	runLength := 1
	var prev rune
	for i, r := range content {
		if i > 0 && r == prev {
			runLength++
			if runLength == 5 {
				runs++
			}
		} else {
			runLength = 1
		}
		prev = r
	}
	if runs > 0 {
		if runs > 3 {
			runs = 3
		}
		score += runs
	}

	letters := 0
	uppers := 0
	for _, r := range content {
		if r >= 'a' && r <= 'z' {
			letters++
		}
		if r >= 'A' && r <= 'Z' {
			letters++
			uppers++
		}
	}
	if len([]rune(content)) > 20 && letters > 0 && uppers == letters {
		score += 2
	}

	punctRuns := 0
	punctLength := 0
	for _, r := range content {
		if r == '!' || r == '?' || r == '.' || r == ',' {
			punctLength++
			if punctLength == 3 {
				punctRuns++
			}
		} else {
			punctLength = 0
		}
	}
	if punctRuns > 0 {
		if punctRuns > 2 {
			punctRuns = 2
		}
		score += punctRuns
	}

	lower := strings.ToLower(content)
	for _, word := range spamTriggerWords {
		if strings.Contains(lower, word) {
			score++
		}
	}

	return score
}

func crossChannelScore(msg *Message, recent []MessageRecord) int {
	channels := make(map[string]struct{}, len(recent)+1)
	for _, rec := range recent {
		channels[rec.ChannelID] = struct{}{}
	}
	channels[msg.ChannelID] = struct{}{}

	if len(channels) >= 3 {
		pts := len(channels) - 2
		if pts > 4 {
			pts = 4
		}
		return pts
	}
	return 0
}

func rapidSpamScore(msg *Message, recent []MessageRecord) int {
	score := 0

	if emojis := countEmojis(msg.Content); emojis > 5 {
		pts := emojis / 3
		if pts > 3 {
			pts = 3
		}
		score += pts
	}

	mentions := len(msg.UserMentions) + len(msg.RoleMentions)
	if mentions > 3 {
		pts := mentions - 3
		if pts > 3 {
			pts = 3
		}
		score += pts
	}

	if len([]rune(msg.Content)) < 5 && len(recent) > 3 {
		score += 2
	}

	return score
}

// temporalScore flags suspiciously regular posting intervals. Under 500ms
// of deviation at a sub-2s mean suggests a script, not a keyboard.
func temporalScore(recent []MessageRecord) int {
	if len(recent) < 3 {
		return 0
	}

	intervals := make([]float64, 0, len(recent)-1)
	for i := 1; i < len(recent); i++ {
		intervals = append(intervals, float64(recent[i].Timestamp.Sub(recent[i-1].Timestamp).Milliseconds()))
	}

	mean := 0.0
	for _, v := range intervals {
		mean += v
	}
	mean /= float64(len(intervals))

	variance := 0.0
	for _, v := range intervals {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(intervals))

	if math.Sqrt(variance) < 500 && mean < 2000 {
		return 3
	}
	return 0
}
