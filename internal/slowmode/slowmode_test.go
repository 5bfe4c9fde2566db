package slowmode

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeTimer struct {
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.stopped = true
	return true
}

type fakeClock struct {
	now    time.Time
	timers []*fakeTimer
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) AfterFunc(_ time.Duration, f func()) Timer {
	timer := &fakeTimer{f: f}
	c.timers = append(c.timers, timer)
	return timer
}

func (c *fakeClock) fire() {
	for _, timer := range c.timers {
		if !timer.stopped {
			timer.f()
		}
	}
	c.timers = nil
}

type fakeSetter struct {
	limits  map[string]int
	readErr error
	setErr  error
}

func (s *fakeSetter) ChannelSlowmode(channelID string) (int, error) {
	if s.readErr != nil {
		return 0, s.readErr
	}
	return s.limits[channelID], nil
}

func (s *fakeSetter) SetChannelSlowmode(channelID string, seconds int) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.limits[channelID] = seconds
	return nil
}

func newTestEngine() (*Engine, *fakeSetter, *fakeClock) {
	setter := &fakeSetter{limits: map[string]int{"c1": 2}}
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	engine := New(Config{HoldMinutes: 5}, setter, zap.NewNop())
	engine.WithClock(clock)
	return engine, setter, clock
}

func TestApplyAndRestore(t *testing.T) {
	engine, setter, clock := newTestEngine()

	if !engine.Apply(context.Background(), "c1", 30) {
		t.Fatal("apply should succeed")
	}
	if setter.limits["c1"] != 30 {
		t.Fatalf("limit = %d, want 30", setter.limits["c1"])
	}
	if !engine.Active("c1") {
		t.Fatal("channel should be active")
	}

	clock.fire()

	if setter.limits["c1"] != 2 {
		t.Fatalf("restored limit = %d, want previous 2", setter.limits["c1"])
	}
	if engine.Active("c1") {
		t.Fatal("channel should be released after restore")
	}
}

func TestApplyDoesNotStack(t *testing.T) {
	engine, setter, _ := newTestEngine()

	if !engine.Apply(context.Background(), "c1", 30) {
		t.Fatal("first apply should succeed")
	}
	if engine.Apply(context.Background(), "c1", 60) {
		t.Fatal("second apply on an active channel should be refused")
	}
	if setter.limits["c1"] != 30 {
		t.Fatalf("limit = %d, want unchanged 30", setter.limits["c1"])
	}
}

func TestApplyFailureReleasesSlot(t *testing.T) {
	engine, setter, _ := newTestEngine()
	setter.setErr = errors.New("missing permission")

	if engine.Apply(context.Background(), "c1", 30) {
		t.Fatal("apply should report failure")
	}
	if engine.Active("c1") {
		t.Fatal("failed apply must not leave the channel active")
	}

	setter.setErr = nil
	if !engine.Apply(context.Background(), "c1", 30) {
		t.Fatal("channel should be retriable after a failed apply")
	}
}

func TestReleaseCancelsTimer(t *testing.T) {
	engine, setter, clock := newTestEngine()

	engine.Apply(context.Background(), "c1", 30)
	engine.Release("c1")

	if setter.limits["c1"] != 2 {
		t.Fatalf("limit = %d, want restored 2", setter.limits["c1"])
	}
	if len(clock.timers) != 1 || !clock.timers[0].stopped {
		t.Fatal("pending timer should be stopped")
	}

	// A late fire after release must not re-restore.
	setter.limits["c1"] = 7
	clock.fire()
	if setter.limits["c1"] != 7 {
		t.Fatalf("limit = %d, late restore ran", setter.limits["c1"])
	}
}
