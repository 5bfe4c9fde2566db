package automod

import (
	"strings"
	"testing"
)

func TestBlacklistDetector(t *testing.T) {
	cfg := DefaultGuildConfig()
	cfg.BlacklistedWords.Words = []string{"Contraband"}
	d := blacklistDetector{}

	v := d.Detect(&Message{Content: "selling CONTRABAND cheap"}, cfg, nil)
	if v == nil || v.Type != "blacklisted_words" {
		t.Fatalf("got %+v, want blacklisted_words", v)
	}
	if v.Severity != 2 {
		t.Fatalf("severity = %d, want 2", v.Severity)
	}

	if v := d.Detect(&Message{Content: "perfectly fine message"}, cfg, nil); v != nil {
		t.Fatalf("clean message flagged: %+v", v)
	}
}

func TestBlacklistDetectorEmptyList(t *testing.T) {
	cfg := DefaultGuildConfig()
	d := blacklistDetector{}
	if v := d.Detect(&Message{Content: "anything"}, cfg, nil); v != nil {
		t.Fatalf("empty word list flagged: %+v", v)
	}
}

func TestMentionDetectorRoleOutranksUser(t *testing.T) {
	cfg := DefaultGuildConfig()
	d := mentionDetector{}

	msg := &Message{
		UserMentions: []string{"1", "2", "3", "4", "5", "6"},
		RoleMentions: []string{"r1", "r2", "r3", "r4"},
	}
	v := d.Detect(msg, cfg, nil)
	if v == nil || v.Type != "excessive_role_mentions" {
		t.Fatalf("got %+v, want excessive_role_mentions", v)
	}
	if v.Severity != 3 {
		t.Fatalf("severity = %d, want 3", v.Severity)
	}
}

func TestMentionDetectorUserLimit(t *testing.T) {
	cfg := DefaultGuildConfig()
	d := mentionDetector{}

	exact := &Message{UserMentions: []string{"1", "2", "3", "4", "5"}}
	if v := d.Detect(exact, cfg, nil); v != nil {
		t.Fatalf("exactly at limit flagged: %+v", v)
	}

	over := &Message{UserMentions: []string{"1", "2", "3", "4", "5", "6"}}
	v := d.Detect(over, cfg, nil)
	if v == nil || v.Type != "excessive_mentions" || v.Severity != 2 {
		t.Fatalf("got %+v, want excessive_mentions severity 2", v)
	}
}

func TestCapsDetector(t *testing.T) {
	cfg := DefaultGuildConfig()
	d := capsDetector{}

	if v := d.Detect(&Message{Content: "OK FINE"}, cfg, nil); v != nil {
		t.Fatalf("short message flagged: %+v", v)
	}

	v := d.Detect(&Message{Content: "STOPSHOUTINGATME"}, cfg, nil)
	if v == nil || v.Type != "excessive_caps" {
		t.Fatalf("got %+v, want excessive_caps", v)
	}

	if v := d.Detect(&Message{Content: "This Is A Normal Sentence Here"}, cfg, nil); v != nil {
		t.Fatalf("mixed case flagged: %+v", v)
	}
}

func TestCapsDetectorExactRatioNotFlagged(t *testing.T) {
	cfg := DefaultGuildConfig()
	cfg.Caps.MaxRatio = 0.5
	d := capsDetector{}

	// 5 of 10 runes upper: ratio equals the limit, strict comparison.
	if v := d.Detect(&Message{Content: "AAAAAbbbbb"}, cfg, nil); v != nil {
		t.Fatalf("ratio == limit flagged: %+v", v)
	}
}

func TestRepeatedCharsDetector(t *testing.T) {
	cfg := DefaultGuildConfig()
	d := repeatedCharsDetector{}

	v := d.Detect(&Message{Content: "nooooooooooo way"}, cfg, nil)
	if v == nil || v.Type != "repeated_chars" {
		t.Fatalf("got %+v, want repeated_chars for an 11-rune run", v)
	}

	if v := d.Detect(&Message{Content: "noooooooo way"}, cfg, nil); v != nil {
		t.Fatalf("9-rune run flagged: %+v", v)
	}
}

func TestRepeatedCharsFloorAtTen(t *testing.T) {
	cfg := DefaultGuildConfig()
	cfg.RepeatedChars.MaxRepeated = 3
	d := repeatedCharsDetector{}

	// Configured limit below the hard floor still requires a 10-rune run.
	if v := d.Detect(&Message{Content: "hmmmm"}, cfg, nil); v != nil {
		t.Fatalf("run below floor flagged: %+v", v)
	}
	if v := d.Detect(&Message{Content: strings.Repeat("m", 10)}, cfg, nil); v == nil {
		t.Fatal("10-rune run should flag with limit 3")
	}
}

func TestNewlineDetectorSeverityScales(t *testing.T) {
	cfg := DefaultGuildConfig()
	d := newlineDetector{}

	if v := d.Detect(&Message{Content: strings.Repeat("line\n", 15)}, cfg, nil); v != nil {
		t.Fatalf("exactly at limit flagged: %+v", v)
	}

	v := d.Detect(&Message{Content: strings.Repeat("line\n", 16)}, cfg, nil)
	if v == nil || v.Type != "newline_spam" || v.Severity != 1 {
		t.Fatalf("got %+v, want newline_spam severity 1", v)
	}

	v = d.Detect(&Message{Content: strings.Repeat("\n", 40)}, cfg, nil)
	if v == nil || v.Severity != 3 {
		t.Fatalf("got %+v, want severity capped at 3", v)
	}
}
