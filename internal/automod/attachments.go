package automod

import (
	"regexp"
	"strings"
)

var (
	extensionRegex = regexp.MustCompile(`\.[a-z0-9]+`)
	disguiseRegex  = regexp.MustCompile(`\.(txt|jpg|jpeg|png|gif|pdf|doc)\.(exe|scr|bat|cmd|com)$`)
)

type attachmentDetector struct{}

func (attachmentDetector) Name() string { return "suspicious_attachment" }

// Detect flags filenames ending in a blocked extension, hiding a blocked
// extension behind a double extension, or matching a disguise pattern
// like report.txt.exe. Severity is fixed at 4: malware risk.
func (attachmentDetector) Detect(msg *Message, cfg *GuildConfig, _ []MessageRecord) *Violation {
	ac := cfg.SuspiciousAttachment
	if !ac.Enabled || len(msg.Attachments) == 0 {
		return nil
	}

	blocked := make(map[string]struct{}, len(ac.BlockedExtensions))
	for _, ext := range ac.BlockedExtensions {
		blocked[strings.ToLower(ext)] = struct{}{}
	}

	var flagged []string
	for _, name := range msg.Attachments {
		if isSuspiciousFilename(strings.ToLower(name), blocked) {
			flagged = append(flagged, name)
		}
	}
	if len(flagged) == 0 {
		return nil
	}

	return &Violation{
		Type:     "suspicious_attachment",
		Severity: 4,
		Reason:   "suspicious attachments: " + strings.Join(flagged, ", "),
		Action:   ac.Action,
	}
}

func isSuspiciousFilename(name string, blocked map[string]struct{}) bool {
	for ext := range blocked {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}

	if disguiseRegex.MatchString(name) {
		return true
	}

	extensions := extensionRegex.FindAllString(name, -1)
	if len(extensions) > 1 {
		if _, ok := blocked[extensions[len(extensions)-1]]; ok {
			return true
		}
	}
	return false
}
