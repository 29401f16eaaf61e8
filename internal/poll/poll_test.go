package poll

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	d time.Duration
	f func()

	mu      sync.Mutex
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func (t *fakeTimer) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) after(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// live returns the timers that were armed and not stopped.
func (c *fakeClock) live() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*fakeTimer
	for _, t := range c.timers {
		if !t.isStopped() {
			out = append(out, t)
		}
	}
	return out
}

// fire runs the most recent live timer as if it expired.
func (c *fakeClock) fire(t *testing.T) {
	t.Helper()
	live := c.live()
	require.NotEmpty(t, live, "no armed timer")
	timer := live[len(live)-1]
	timer.Stop()
	timer.f()
}

func newTestScheduler(fn func(context.Context) error, opts ...Option) (*Scheduler, *fakeClock) {
	clock := &fakeClock{}
	opts = append([]Option{WithTimerFunc(clock.after)}, opts...)
	return New(fn, opts...), clock
}

func TestStartArmsOneFullPeriod(t *testing.T) {
	calls := 0
	s, clock := newTestScheduler(func(context.Context) error { calls++; return nil })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx)
	require.Equal(t, 0, calls)
	live := clock.live()
	require.Len(t, live, 1)
	require.Equal(t, 10*time.Second, live[0].d)

	clock.fire(t)
	require.Equal(t, 1, calls)
	require.Len(t, clock.live(), 1, "next tick re-armed after the cycle")
}

func TestSetIntervalCancelsAndRearms(t *testing.T) {
	calls := 0
	s, clock := newTestScheduler(func(context.Context) error { calls++; return nil })
	s.Start(context.Background())
	first := clock.live()[0]

	s.SetInterval(3)

	require.True(t, first.isStopped())
	live := clock.live()
	require.Len(t, live, 1)
	require.Equal(t, 3*time.Second, live[0].d)
	require.Equal(t, 0, calls, "SetInterval never fires immediately")
	require.Equal(t, 3*time.Second, s.Interval())

	// The cancelled timer's callback is stale even if it races in.
	first.f()
	require.Equal(t, 0, calls)
}

func TestSetIntervalNonPositiveDisables(t *testing.T) {
	calls := 0
	s, clock := newTestScheduler(func(context.Context) error { calls++; return nil })
	s.Start(context.Background())

	s.SetInterval(0)
	require.Empty(t, clock.live())
	require.Zero(t, s.Interval())

	s.SetInterval(-4)
	require.Empty(t, clock.live())

	s.SetInterval(2)
	require.Len(t, clock.live(), 1)
	clock.fire(t)
	require.Equal(t, 1, calls)
}

func TestStartDisabledNeverArms(t *testing.T) {
	s, clock := newTestScheduler(func(context.Context) error { return nil }, WithIntervalSeconds(0))
	s.Start(context.Background())
	require.Empty(t, clock.live())
}

func TestErrorsGoToHookAndDoNotStop(t *testing.T) {
	boom := errors.New("fetch failed")
	var got []error
	s, clock := newTestScheduler(
		func(context.Context) error { return boom },
		OnError(func(err error) { got = append(got, err) }),
	)
	s.Start(context.Background())

	clock.fire(t)
	clock.fire(t)

	require.Equal(t, []error{boom, boom}, got)
	require.Len(t, clock.live(), 1)
}

func TestStopCancelsPendingTick(t *testing.T) {
	calls := 0
	s, clock := newTestScheduler(func(context.Context) error { calls++; return nil })
	s.Start(context.Background())
	armed := clock.live()[0]

	s.Stop()
	require.True(t, armed.isStopped())
	armed.f()
	require.Equal(t, 0, calls)

	s.SetInterval(5)
	require.Empty(t, clock.live(), "stopped scheduler stays stopped")
}

func TestStopDuringCycleDoesNotRearm(t *testing.T) {
	var s *Scheduler
	var clock *fakeClock
	s, clock = newTestScheduler(func(context.Context) error {
		s.Stop()
		return nil
	})
	s.Start(context.Background())
	clock.fire(t)
	require.Empty(t, clock.live())
}

func TestContextCancelStops(t *testing.T) {
	s, clock := newTestScheduler(func(context.Context) error { return nil })
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	armed := clock.live()[0]

	cancel()
	require.Eventually(t, armed.isStopped, time.Second, time.Millisecond)
}

func TestCyclesNeverOverlap(t *testing.T) {
	var mu sync.Mutex
	running, maxRunning := 0, 0
	s, clock := newTestScheduler(func(context.Context) error {
		mu.Lock()
		running++
		if running > maxRunning {
			maxRunning = running
		}
		mu.Unlock()
		time.Sleep(2 * time.Millisecond)
		mu.Lock()
		running--
		mu.Unlock()
		return nil
	})
	s.Start(context.Background())
	armed := clock.live()[0]

	// Deliver the same expiry several times at once.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			armed.f()
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.LessOrEqual(t, maxRunning, 1)
}
