package automod

import "time"

// Decision is a resolved punishment for an accumulated severity total.
type Decision struct {
	Action    string
	Duration  time.Duration
	Threshold int
}

// Resolve selects the tier with the greatest threshold not exceeding
// total. The tier slice carries no ordering guarantee; selection is by
// maximum threshold, never by position. Returns nil when no tier
// qualifies.
func Resolve(total int, tiers []Tier) *Decision {
	var best *Tier
	for i := range tiers {
		tier := &tiers[i]
		if tier.Threshold > total {
			continue
		}
		if best == nil || tier.Threshold > best.Threshold {
			best = tier
		}
	}
	if best == nil {
		return nil
	}
	return &Decision{
		Action:    best.Action,
		Duration:  best.Duration(),
		Threshold: best.Threshold,
	}
}
