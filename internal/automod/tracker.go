package automod

import (
	"sync"
	"time"
)

// MessageRecord is one entry in a user's in-memory message history.
type MessageRecord struct {
	Content   string
	Timestamp time.Time
	ChannelID string
}

// Tracker keeps a bounded sliding-window message history per guild and
// user. The per-key list is the unit of synchronization: concurrent
// messages from different users never contend, and rapid-fire delivery
// for the same user serializes on that user's lock only.
type Tracker struct {
	mu    sync.Mutex
	floor time.Duration
	users map[string]*userHistory
}

type userHistory struct {
	mu      sync.Mutex
	records []MessageRecord
}

// NewTracker creates a tracker whose records live for at least floor.
// Callers pass their detector window per call; a window wider than the
// floor extends how long records are kept, so a guild raising its spam
// window never loses history to a narrower process default.
func NewTracker(floor time.Duration) *Tracker {
	return &Tracker{
		floor: floor,
		users: make(map[string]*userHistory),
	}
}

// Record appends a message to the user's history and prunes entries that
// fall outside both the window and the floor. Cost is bounded by the
// window size, not by all-time message count.
func (t *Tracker) Record(guildID, userID, channelID, content string, window time.Duration, now time.Time) {
	history := t.history(guildID, userID)
	history.mu.Lock()
	defer history.mu.Unlock()

	history.records = append(history.records, MessageRecord{
		Content:   content,
		Timestamp: now,
		ChannelID: channelID,
	})
	history.records = prune(history.records, now.Add(-t.horizon(window)))
}

// RecentFor returns the user's records newer than now-window, oldest first.
// The returned slice is a copy and safe to hold across further updates.
func (t *Tracker) RecentFor(guildID, userID string, window time.Duration, now time.Time) []MessageRecord {
	history := t.history(guildID, userID)
	history.mu.Lock()
	defer history.mu.Unlock()

	history.records = prune(history.records, now.Add(-t.horizon(window)))

	cutoff := now.Add(-window)
	idx := 0
	for _, rec := range history.records {
		if rec.Timestamp.After(cutoff) {
			break
		}
		idx++
	}
	recent := make([]MessageRecord, len(history.records)-idx)
	copy(recent, history.records[idx:])
	return recent
}

func (t *Tracker) horizon(window time.Duration) time.Duration {
	if window > t.floor {
		return window
	}
	return t.floor
}

func (t *Tracker) history(guildID, userID string) *userHistory {
	key := guildID + ":" + userID
	t.mu.Lock()
	defer t.mu.Unlock()
	history := t.users[key]
	if history == nil {
		history = &userHistory{}
		t.users[key] = history
	}
	return history
}

func prune(records []MessageRecord, cutoff time.Time) []MessageRecord {
	idx := 0
	for _, rec := range records {
		if rec.Timestamp.After(cutoff) {
			break
		}
		idx++
	}
	return records[idx:]
}
