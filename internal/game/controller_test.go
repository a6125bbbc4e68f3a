package game_test

import (
	"context"
	"fmt"
	"github.com/myrjola/heartcollector/internal/clock"
	"github.com/myrjola/heartcollector/internal/errors"
	"github.com/myrjola/heartcollector/internal/game"
	"github.com/myrjola/heartcollector/internal/random"
	"github.com/myrjola/heartcollector/internal/testhelpers"
	"github.com/stretchr/testify/require"
	"io"
	"slices"
	"sync"
	"testing"
	"time"
)

// recordingPresenter records every effect the controller triggers.
type recordingPresenter struct {
	mu       sync.Mutex
	effects  []string
	rendered map[string]game.Item
	removed  []string
	elapsed  []string
	cueErr   error
}

func newRecordingPresenter() *recordingPresenter {
	return &recordingPresenter{rendered: map[string]game.Item{}}
}

func (p *recordingPresenter) record(effect string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.effects = append(p.effects, effect)
}

func (p *recordingPresenter) Reset()   { p.record("reset") }
func (p *recordingPresenter) Started() { p.record("started") }

func (p *recordingPresenter) RenderItem(item game.Item) string {
	handle := fmt.Sprintf("heart-%d", item.Index)
	p.mu.Lock()
	p.rendered[handle] = item
	p.mu.Unlock()
	p.record("render " + handle)
	return handle
}

func (p *recordingPresenter) FadeItem(handle string) { p.record("fade " + handle) }

func (p *recordingPresenter) RemoveItem(handle string) {
	p.mu.Lock()
	p.removed = append(p.removed, handle)
	p.mu.Unlock()
	p.record("remove " + handle)
}

func (p *recordingPresenter) PlayCue() error {
	p.record("cue")
	return p.cueErr
}

func (p *recordingPresenter) ShowProgress(collected, total int) {
	p.record(fmt.Sprintf("progress %d/%d", collected, total))
}

func (p *recordingPresenter) ShowElapsed(elapsed string) {
	p.mu.Lock()
	p.elapsed = append(p.elapsed, elapsed)
	p.mu.Unlock()
}

func (p *recordingPresenter) ShowCompletion(collected int, elapsed string) {
	p.record(fmt.Sprintf("completion %d %s", collected, elapsed))
}

func (p *recordingPresenter) PlayCelebration() { p.record("celebration") }
func (p *recordingPresenter) OfferPlayAgain()  { p.record("play again") }

func (p *recordingPresenter) count(effect string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.effects {
		if e == effect {
			n++
		}
	}
	return n
}

func (p *recordingPresenter) lastElapsed() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.elapsed) == 0 {
		return ""
	}
	return p.elapsed[len(p.elapsed)-1]
}

type testGame struct {
	ctrl      *game.Controller
	fake      *clock.Fake
	presenter *recordingPresenter
	results   *[]game.Result
}

var epoch = time.Date(2024, 2, 14, 12, 0, 0, 0, time.UTC)

func newTestGame(t *testing.T, cfg game.Config) testGame {
	t.Helper()
	fake := clock.NewFake(epoch)
	presenter := newRecordingPresenter()
	var (
		results []game.Result
		mu      sync.Mutex
	)
	ctrl := game.NewController(cfg, presenter,
		game.WithClock(fake),
		game.WithScheduler(fake),
		game.WithRand(random.NewSequence(0.5, 0.25)),
		game.WithLogger(testhelpers.NewLogger(io.Discard)),
		game.WithCompletionHook(func(r game.Result) {
			mu.Lock()
			defer mu.Unlock()
			results = append(results, r)
		}),
	)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ctrl.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return testGame{ctrl: ctrl, fake: fake, presenter: presenter, results: &results}
}

func (g testGame) snapshot(t *testing.T) game.Snapshot {
	t.Helper()
	s, err := g.ctrl.Snapshot(context.Background())
	require.NoError(t, err)
	requireConsistent(t, s)
	return s
}

// requireConsistent checks that the collected counter always matches the collected items.
func requireConsistent(t *testing.T, s game.Snapshot) {
	t.Helper()
	collected := 0
	for _, item := range s.Items {
		if item.Collected {
			collected++
		}
	}
	require.Equal(t, collected, s.Collected, "collected counter out of sync with items")
	require.LessOrEqual(t, s.Collected, s.Total)
}

// startAndReveal starts a session and advances the clock until every item is revealed.
func (g testGame) startAndReveal(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, g.ctrl.Start(ctx))
	cfg := g.ctrl.Config()
	g.fake.Advance(time.Duration(cfg.TotalItems-1) * cfg.RevealInterval)
	require.Len(t, g.snapshot(t).Items, cfg.TotalItems)
}

func TestController_initialState(t *testing.T) {
	g := newTestGame(t, game.DefaultConfig())
	s := g.snapshot(t)
	require.Equal(t, game.PhaseIdle, s.Phase)
	require.False(t, s.Active())
	require.Zero(t, s.Collected)
	require.Equal(t, 10, s.Total)
	require.Empty(t, s.Items)
	require.Equal(t, "00:00", s.Elapsed)
	require.Nil(t, s.Result)
}

func TestController_Start(t *testing.T) {
	g := newTestGame(t, game.DefaultConfig())
	ctx := context.Background()
	require.NoError(t, g.ctrl.Start(ctx))

	s := g.snapshot(t)
	require.True(t, s.Active())
	require.Equal(t, epoch, s.StartedAt)
	require.Empty(t, s.Items, "reveal is staggered, not instantaneous")

	g.fake.Advance(0)
	require.Len(t, g.snapshot(t).Items, 1)

	g.fake.Advance(99 * time.Millisecond)
	require.Len(t, g.snapshot(t).Items, 1)
	g.fake.Advance(time.Millisecond)
	require.Len(t, g.snapshot(t).Items, 2)

	g.fake.Advance(800 * time.Millisecond)
	s = g.snapshot(t)
	require.Len(t, s.Items, 10)
	for i, item := range s.Items {
		require.Equal(t, i, item.Index, "items reveal in index order")
		require.False(t, item.Collected)
		require.Equal(t, fmt.Sprintf("heart-%d", i), item.Handle)
	}

	g.fake.Advance(time.Hour)
	require.Len(t, g.snapshot(t).Items, 10, "no more than total items are revealed")
}

func TestController_revealPositionsStayInsideBoard(t *testing.T) {
	cfg := game.DefaultConfig()
	fake := clock.NewFake(epoch)
	presenter := newRecordingPresenter()
	ctrl := game.NewController(cfg, presenter,
		game.WithClock(fake), game.WithScheduler(fake), game.WithRand(random.NewSequence(0, 0.999999)))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctrl.Run(ctx)

	require.NoError(t, ctrl.Start(ctx))
	fake.Advance(time.Second)
	s, err := ctrl.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, s.Items, cfg.TotalItems)
	for _, item := range s.Items {
		require.GreaterOrEqual(t, item.Position.X, 0.0)
		require.GreaterOrEqual(t, item.Position.Y, 0.0)
		require.Less(t, item.Position.X, cfg.Board.Width-2*cfg.Board.Margin)
		require.Less(t, item.Position.Y, cfg.Board.Height-2*cfg.Board.Margin)
	}
}

func TestController_StartWhileActiveIsNoop(t *testing.T) {
	g := newTestGame(t, game.DefaultConfig())
	ctx := context.Background()
	g.startAndReveal(t)
	require.NoError(t, g.ctrl.Collect(ctx, 0))
	g.fake.Advance(5 * time.Second)

	require.NoError(t, g.ctrl.Start(ctx))
	s := g.snapshot(t)
	require.Equal(t, 1, s.Collected)
	require.Equal(t, epoch, s.StartedAt)
	require.Equal(t, 1, g.presenter.count("started"))
}

func TestController_collectAllInOrder(t *testing.T) {
	g := newTestGame(t, game.DefaultConfig())
	ctx := context.Background()
	g.startAndReveal(t)

	for i := range 10 {
		require.NoError(t, g.ctrl.Collect(ctx, i))
		s := g.snapshot(t)
		require.Equal(t, i+1, s.Collected)
		if i < 9 {
			require.True(t, s.Active(), "session ends only after the last collect")
		}
	}

	s := g.snapshot(t)
	require.Equal(t, game.PhaseCompleted, s.Phase)
	require.False(t, s.Active())
	require.Equal(t, 100, s.Percent)
	require.NotNil(t, s.Result)
	require.Equal(t, 10, s.Result.Collected)
	require.Equal(t, 1, g.presenter.count("celebration"))
	require.Equal(t, 1, g.presenter.count("completion 10 00:00"))
	require.Len(t, *g.results, 1)
}

func TestController_collectTwice(t *testing.T) {
	g := newTestGame(t, game.DefaultConfig())
	ctx := context.Background()
	g.startAndReveal(t)

	require.NoError(t, g.ctrl.Collect(ctx, 3))
	require.NoError(t, g.ctrl.Collect(ctx, 3))

	s := g.snapshot(t)
	require.Equal(t, 1, s.Collected)
	require.True(t, s.Items[3].Collected)
	require.Equal(t, 1, g.presenter.count("fade heart-3"))
	require.Equal(t, 1, g.presenter.count("cue"))
}

func TestController_collectBeforeStart(t *testing.T) {
	g := newTestGame(t, game.DefaultConfig())
	require.NoError(t, g.ctrl.Collect(context.Background(), 5))

	s := g.snapshot(t)
	require.Zero(t, s.Collected)
	require.Equal(t, game.PhaseIdle, s.Phase)
	require.Zero(t, g.presenter.count("cue"))
}

func TestController_collectGuards(t *testing.T) {
	tests := []struct {
		name     string
		revealed time.Duration
		index    int
	}{
		{name: "index equal to total", revealed: time.Second, index: 10},
		{name: "index above total", revealed: time.Second, index: 42},
		{name: "negative index", revealed: time.Second, index: -1},
		{name: "not yet revealed", revealed: 200 * time.Millisecond, index: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGame(t, game.DefaultConfig())
			ctx := context.Background()
			require.NoError(t, g.ctrl.Start(ctx))
			g.fake.Advance(tt.revealed)

			require.NoError(t, g.ctrl.Collect(ctx, tt.index))
			require.Zero(t, g.snapshot(t).Collected)
		})
	}
}

func TestController_collectAfterCompletionIsNoop(t *testing.T) {
	cfg := game.DefaultConfig()
	cfg.TotalItems = 2
	g := newTestGame(t, cfg)
	ctx := context.Background()
	g.startAndReveal(t)
	require.NoError(t, g.ctrl.Collect(ctx, 0))
	require.NoError(t, g.ctrl.Collect(ctx, 1))
	require.NoError(t, g.ctrl.Collect(ctx, 1))
	require.NoError(t, g.ctrl.Collect(ctx, 0))

	require.Equal(t, 2, g.snapshot(t).Collected)
	require.Equal(t, 1, g.presenter.count("celebration"), "end effects fire exactly once")
	require.Len(t, *g.results, 1)
}

func TestController_fadeThenRemove(t *testing.T) {
	g := newTestGame(t, game.DefaultConfig())
	ctx := context.Background()
	g.startAndReveal(t)

	require.NoError(t, g.ctrl.Collect(ctx, 4))
	require.Equal(t, 1, g.presenter.count("fade heart-4"))
	require.Zero(t, g.presenter.count("remove heart-4"))

	g.fake.Advance(299 * time.Millisecond)
	require.Zero(t, g.presenter.count("remove heart-4"))
	g.fake.Advance(time.Millisecond)
	require.Equal(t, 1, g.presenter.count("remove heart-4"))
}

func TestController_cueFailureIsSwallowed(t *testing.T) {
	g := newTestGame(t, game.DefaultConfig())
	g.presenter.cueErr = errors.New("audio not supported")
	ctx := context.Background()
	g.startAndReveal(t)

	require.NoError(t, g.ctrl.Collect(ctx, 0))
	s := g.snapshot(t)
	require.Equal(t, 1, s.Collected)
	require.True(t, s.Active())
}

func TestController_tick(t *testing.T) {
	g := newTestGame(t, game.DefaultConfig())
	ctx := context.Background()
	require.NoError(t, g.ctrl.Start(ctx))
	require.Equal(t, "00:00", g.presenter.lastElapsed())

	g.fake.Advance(time.Second)
	require.Equal(t, "00:01", g.presenter.lastElapsed())

	g.fake.Advance(64 * time.Second)
	require.Equal(t, "01:05", g.presenter.lastElapsed())
	require.Equal(t, "01:05", g.snapshot(t).Elapsed)

	g.fake.Advance(500 * time.Millisecond)
	require.Equal(t, "01:05", g.snapshot(t).Elapsed, "elapsed time is floored")
}

func TestController_endFreezesElapsedAndStopsTick(t *testing.T) {
	cfg := game.DefaultConfig()
	cfg.TotalItems = 1
	g := newTestGame(t, cfg)
	ctx := context.Background()
	require.NoError(t, g.ctrl.Start(ctx))
	g.fake.Advance(65*time.Second + 700*time.Millisecond)
	require.NoError(t, g.ctrl.Collect(ctx, 0))

	s := g.snapshot(t)
	require.Equal(t, game.PhaseCompleted, s.Phase)
	require.Equal(t, "01:05", s.Elapsed)
	require.Equal(t, 1, g.presenter.count("completion 1 01:05"))
	require.Equal(t, 65*time.Second+700*time.Millisecond, s.Result.Elapsed)
	require.Equal(t, epoch.Add(s.Result.Elapsed), s.Result.FinishedAt)

	ticksBefore := len(g.presenter.elapsed)
	g.fake.Advance(10 * time.Second)
	require.Len(t, g.presenter.elapsed, ticksBefore, "tick stops once the session ends")
	require.Equal(t, "01:05", g.snapshot(t).Elapsed)
}

func TestController_PlayAgain(t *testing.T) {
	cfg := game.DefaultConfig()
	cfg.TotalItems = 1
	g := newTestGame(t, cfg)
	ctx := context.Background()
	g.startAndReveal(t)
	require.NoError(t, g.ctrl.Collect(ctx, 0))

	// The affordance is not offered yet.
	require.NoError(t, g.ctrl.PlayAgain(ctx))
	require.Equal(t, game.PhaseCompleted, g.snapshot(t).Phase)

	g.fake.Advance(2 * time.Second)
	require.Equal(t, 1, g.presenter.count("play again"))
	require.True(t, g.snapshot(t).PlayAgainOffered)

	require.NoError(t, g.ctrl.PlayAgain(ctx))
	s := g.snapshot(t)
	require.True(t, s.Active())
	require.Zero(t, s.Collected)
	require.Empty(t, s.Items)
	require.Equal(t, epoch.Add(2*time.Second), s.StartedAt)
	require.Equal(t, 1, g.presenter.count("reset"))
	require.Equal(t, 2, g.presenter.count("started"))

	g.fake.Advance(0)
	require.Len(t, g.snapshot(t).Items, 1, "reveal begins anew")
}

func TestController_PlayAgainWhileActiveIsNoop(t *testing.T) {
	g := newTestGame(t, game.DefaultConfig())
	ctx := context.Background()
	g.startAndReveal(t)
	require.NoError(t, g.ctrl.Collect(ctx, 2))

	require.NoError(t, g.ctrl.PlayAgain(ctx))
	require.Equal(t, 1, g.snapshot(t).Collected)
	require.Zero(t, g.presenter.count("reset"))
}

func TestController_ResetThenStart(t *testing.T) {
	g := newTestGame(t, game.DefaultConfig())
	ctx := context.Background()
	require.NoError(t, g.ctrl.Start(ctx))
	g.fake.Advance(350 * time.Millisecond)
	require.NoError(t, g.ctrl.Collect(ctx, 1))

	require.NoError(t, g.ctrl.Reset(ctx))
	s := g.snapshot(t)
	require.Equal(t, game.PhaseIdle, s.Phase)
	require.Zero(t, s.Collected)
	require.Empty(t, s.Items)
	require.Zero(t, g.fake.Pending(), "reset cancels every pending timer")

	g.fake.Advance(time.Minute)
	require.Empty(t, g.snapshot(t).Items, "cancelled reveals never fire")

	require.NoError(t, g.ctrl.Start(ctx))
	s = g.snapshot(t)
	require.True(t, s.Active())
	require.Zero(t, s.Collected)
	g.fake.Advance(time.Second)
	require.Len(t, g.snapshot(t).Items, 10)
}

func TestController_staleCallbacksAreIgnored(t *testing.T) {
	// A scheduler that never cancels simulates callbacks already in flight when the session changes.
	fake := clock.NewFake(epoch)
	presenter := newRecordingPresenter()
	ctrl := game.NewController(game.DefaultConfig(), presenter,
		game.WithClock(fake), game.WithScheduler(unstoppable{fake}))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctrl.Run(ctx)

	require.NoError(t, ctrl.Start(ctx))
	fake.Advance(250 * time.Millisecond)
	require.NoError(t, ctrl.Reset(ctx))
	fake.Advance(time.Minute)

	s, err := ctrl.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, game.PhaseIdle, s.Phase)
	require.Empty(t, s.Items)
	require.False(t, slices.Contains(presenter.elapsed[1:], "00:59"), "stale ticks do not update the display")
}

type unstoppable struct {
	*clock.Fake
}

type noStop struct{}

func (noStop) Stop() bool { return false }

func (u unstoppable) AfterFunc(d time.Duration, f func()) clock.Timer {
	u.Fake.AfterFunc(d, f)
	return noStop{}
}

func (u unstoppable) Every(d time.Duration, f func()) clock.Timer {
	u.Fake.Every(d, f)
	return noStop{}
}

func TestController_Stop(t *testing.T) {
	ctrl := game.NewController(game.DefaultConfig(), game.NopPresenter{})
	done := make(chan struct{})
	go func() {
		ctrl.Run(context.Background())
		close(done)
	}()
	require.NoError(t, ctrl.Start(context.Background()))
	ctrl.Stop()
	<-done

	require.ErrorIs(t, ctrl.Collect(context.Background(), 0), game.ErrStopped)
	_, err := ctrl.Snapshot(context.Background())
	require.ErrorIs(t, err, game.ErrStopped)
}

func TestController_realTimers(t *testing.T) {
	cfg := game.DefaultConfig()
	cfg.RevealInterval = time.Millisecond
	ctrl := game.NewController(cfg, game.NopPresenter{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctrl.Run(ctx)

	require.NoError(t, ctrl.Start(ctx))
	require.Eventually(t, func() bool {
		s, err := ctrl.Snapshot(ctx)
		return err == nil && len(s.Items) == cfg.TotalItems
	}, 2*time.Second, 5*time.Millisecond)

	for i := range cfg.TotalItems {
		require.NoError(t, ctrl.Collect(ctx, i))
	}
	s, err := ctrl.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, game.PhaseCompleted, s.Phase)
	requireConsistent(t, s)
}

func TestController_Observe(t *testing.T) {
	g := newTestGame(t, game.DefaultConfig())
	ctx := context.Background()
	require.NoError(t, g.ctrl.Start(ctx))
	g.fake.Advance(150 * time.Millisecond)

	var observed game.Snapshot
	require.NoError(t, g.ctrl.Observe(ctx, func(s game.Snapshot) {
		observed = s
		g.presenter.record("observed")
	}))
	require.Len(t, observed.Items, 2)

	g.fake.Advance(50 * time.Millisecond)
	g.presenter.mu.Lock()
	defer g.presenter.mu.Unlock()
	observedAt := slices.Index(g.presenter.effects, "observed")
	renderedAt := slices.Index(g.presenter.effects, "render heart-2")
	require.Less(t, observedAt, renderedAt, "effects after the snapshot are presented after the observer")
	require.Equal(t, 1, slices.Index(g.presenter.effects[observedAt:], "render heart-2"))
}
