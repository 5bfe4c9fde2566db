package slowmode

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

type realClock struct{}

type realTimer struct{ t *time.Timer }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return realTimer{t: time.AfterFunc(d, f)}
}

func (t realTimer) Stop() bool { return t.t.Stop() }

// Setter reads and writes a channel's rate limit. Implemented by the bot
// adapter over the chat API.
type Setter interface {
	ChannelSlowmode(channelID string) (int, error)
	SetChannelSlowmode(channelID string, seconds int) error
}

type Config struct {
	// HoldMinutes is how long a triggered slowmode stays on a channel
	// before the previous rate limit is restored.
	HoldMinutes int
}

type state struct {
	previous int
	timer    Timer
}

// Engine applies a temporary per-channel slowmode and restores the prior
// rate limit once the hold elapses. Re-triggering an active channel is a
// no-op so overlapping violations don't stack holds.
type Engine struct {
	mu     sync.Mutex
	cfg    Config
	setter Setter
	clock  Clock
	logger *zap.Logger
	active map[string]*state
}

func New(cfg Config, setter Setter, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		setter: setter,
		clock:  realClock{},
		logger: logger,
		active: make(map[string]*state),
	}
}

func (e *Engine) WithClock(clock Clock) {
	e.clock = clock
}

// Apply sets the channel's rate limit to seconds and schedules the
// restore. Returns false when the channel already holds a triggered
// slowmode or the channel update fails.
func (e *Engine) Apply(ctx context.Context, channelID string, seconds int) bool {
	if seconds <= 0 {
		return false
	}

	e.mu.Lock()
	if _, ok := e.active[channelID]; ok {
		e.mu.Unlock()
		return false
	}
	// Reserve the slot before touching the API so concurrent triggers on
	// the same channel cannot double-apply.
	entry := &state{}
	e.active[channelID] = entry
	e.mu.Unlock()

	previous, err := e.setter.ChannelSlowmode(channelID)
	if err != nil {
		e.logger.Warn("slowmode read failed", zap.String("channel_id", channelID), zap.Error(err))
		previous = 0
	}
	if err := e.setter.SetChannelSlowmode(channelID, seconds); err != nil {
		e.logger.Warn("slowmode apply failed", zap.String("channel_id", channelID), zap.Error(err))
		e.mu.Lock()
		delete(e.active, channelID)
		e.mu.Unlock()
		return false
	}

	hold := time.Duration(e.cfg.HoldMinutes) * time.Minute
	if hold <= 0 {
		hold = 5 * time.Minute
	}

	e.mu.Lock()
	entry.previous = previous
	entry.timer = e.clock.AfterFunc(hold, func() { e.restore(channelID) })
	e.mu.Unlock()

	e.logger.Info("slowmode applied",
		zap.String("channel_id", channelID),
		zap.Int("seconds", seconds),
		zap.Duration("hold", hold))
	return true
}

// Active reports whether a triggered slowmode currently holds the channel.
func (e *Engine) Active(channelID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.active[channelID]
	return ok
}

// Release restores the channel immediately, cancelling the pending timer.
func (e *Engine) Release(channelID string) {
	e.mu.Lock()
	entry, ok := e.active[channelID]
	e.mu.Unlock()
	if !ok {
		return
	}
	if entry.timer != nil {
		entry.timer.Stop()
	}
	e.restore(channelID)
}

func (e *Engine) restore(channelID string) {
	e.mu.Lock()
	entry, ok := e.active[channelID]
	if ok {
		delete(e.active, channelID)
	}
	e.mu.Unlock()
	if !ok {
		return
	}

	if err := e.setter.SetChannelSlowmode(channelID, entry.previous); err != nil {
		e.logger.Warn("slowmode restore failed", zap.String("channel_id", channelID), zap.Error(err))
		return
	}
	e.logger.Info("slowmode restored", zap.String("channel_id", channelID), zap.Int("seconds", entry.previous))
}
