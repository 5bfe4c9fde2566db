package automod

import (
	"strings"

	"modguard/internal/utils"
)

// Static known-bad domain list; matched by substring containment so
// lookalike subdomains ("login.discordnitro.info") are caught too.
var phishingDomains = []string{
	"discordnitro.info",
	"discordgift.info",
	"discord-nitro.com",
	"discordsteam.com",
}

type inviteDetector struct{}

func (inviteDetector) Name() string { return "invite_links" }

func (inviteDetector) Detect(msg *Message, cfg *GuildConfig, _ []MessageRecord) *Violation {
	ic := cfg.InviteLinks
	if !ic.Enabled {
		return nil
	}

	codes := utils.ExtractInviteCodes(msg.Content)
	if len(codes) == 0 {
		return nil
	}

	whitelisted := make(map[string]struct{}, len(ic.WhitelistedInvites))
	for _, code := range ic.WhitelistedInvites {
		whitelisted[strings.ToLower(code)] = struct{}{}
	}

	var flagged []string
	for _, code := range codes {
		if _, ok := whitelisted[strings.ToLower(code)]; ok {
			continue
		}
		if ic.AllowOwnServer && msg.GuildVanityCode != "" && strings.EqualFold(code, msg.GuildVanityCode) {
			continue
		}
		flagged = append(flagged, code)
	}
	if len(flagged) == 0 {
		return nil
	}

	return &Violation{
		Type:     "invite_links",
		Severity: 1,
		Reason:   "contains invite links: " + strings.Join(flagged, ", "),
		Action:   ic.Action,
	}
}

type linkFilterDetector struct{}

func (linkFilterDetector) Name() string { return "link_filter" }

// Detect checks each URL's domain against the blacklist and, when a
// non-empty whitelist is configured, against it. Malformed URLs are
// skipped, not flagged.
func (linkFilterDetector) Detect(msg *Message, cfg *GuildConfig, _ []MessageRecord) *Violation {
	lf := cfg.LinkFilter
	if !lf.Enabled {
		return nil
	}

	urls := utils.ExtractURLs(msg.Content)
	if len(urls) == 0 {
		return nil
	}

	blacklist := toSet(lf.Blacklist)
	whitelist := toSet(lf.Whitelist)

	for _, raw := range urls {
		_, domain, err := utils.NormalizeURL(raw)
		if err != nil || domain == "" {
			continue
		}

		allowed, blocked := utils.DomainMatch(domain, whitelist, blacklist)
		if blocked {
			return &Violation{
				Type:     "blacklisted_link",
				Severity: 2,
				Reason:   "contains blacklisted domain: " + domain,
				Action:   lf.Action,
			}
		}
		if len(whitelist) > 0 && !allowed {
			return &Violation{
				Type:     "non_whitelisted_link",
				Severity: 1,
				Reason:   "contains non-whitelisted domain: " + domain,
				Action:   lf.Action,
			}
		}
	}
	return nil
}

type phishingDetector struct{}

func (phishingDetector) Name() string { return "phishing" }

func (phishingDetector) Detect(msg *Message, cfg *GuildConfig, _ []MessageRecord) *Violation {
	pc := cfg.Phishing
	if !pc.Enabled {
		return nil
	}

	for _, raw := range utils.ExtractURLs(msg.Content) {
		_, domain, err := utils.NormalizeURL(raw)
		if err != nil || domain == "" {
			continue
		}
		for _, bad := range phishingDomains {
			if strings.Contains(domain, bad) {
				return &Violation{
					Type:     "phishing_link",
					Severity: 4,
					Reason:   "suspected phishing domain: " + domain,
					Action:   pc.Action,
				}
			}
		}
	}
	return nil
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = struct{}{}
	}
	return set
}
