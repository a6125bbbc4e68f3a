// Package game implements the heart collection game session controller.
//
// A Controller owns a single session and runs every mutation on its own event loop goroutine: callers, timer
// callbacks and presentation layers submit operations to the loop and wait for them to finish. Invalid
// operations such as collecting an unknown item, collecting twice or starting while a session is in play are
// silently ignored.
package game

import (
	"context"
	"fmt"
	"github.com/myrjola/heartcollector/internal/clock"
	"github.com/myrjola/heartcollector/internal/errors"
	"github.com/myrjola/heartcollector/internal/random"
	"io"
	"log/slog"
	"sync"
	"time"
)

// ErrStopped is returned when an operation is submitted to a controller whose loop has stopped.
var ErrStopped = errors.NewSentinel("game controller stopped")

type command struct {
	ctx   context.Context
	fn    func(ctx context.Context)
	reply chan struct{}
}

type Controller struct {
	cfg        Config
	presenter  Presenter
	clock      clock.Clock
	scheduler  clock.Scheduler
	rand       random.Float64Source
	logger     *slog.Logger
	onComplete func(Result)

	commands chan command
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	runOnce  sync.Once

	// Fields below are owned by the loop goroutine.
	session     session
	timers      map[uint64]clock.Timer
	nextTimerID uint64
	tickTimerID uint64
	loopCtx     context.Context
}

type Option func(*Controller)

func WithClock(c clock.Clock) Option {
	return func(ctrl *Controller) { ctrl.clock = c }
}

func WithScheduler(s clock.Scheduler) Option {
	return func(ctrl *Controller) { ctrl.scheduler = s }
}

// WithRand sets the source of item positions.
func WithRand(r random.Float64Source) Option {
	return func(ctrl *Controller) { ctrl.rand = r }
}

func WithLogger(logger *slog.Logger) Option {
	return func(ctrl *Controller) { ctrl.logger = logger }
}

// WithCompletionHook registers f to be called on the loop goroutine once per completed session.
func WithCompletionHook(f func(Result)) Option {
	return func(ctrl *Controller) { ctrl.onComplete = f }
}

// NewController creates a controller in the idle state. Call Run to start its event loop.
func NewController(cfg Config, presenter Presenter, opts ...Option) *Controller {
	c := &Controller{
		cfg:        cfg,
		presenter:  presenter,
		clock:      clock.Real{},
		scheduler:  clock.Real{},
		rand:       random.Global,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		onComplete: nil,
		commands:   make(chan command),
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
		timers:     map[uint64]clock.Timer{},
		loopCtx:    context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run processes operations until ctx is cancelled or Stop is called. Pending timers are cancelled on return.
// Run must be called at most once.
func (c *Controller) Run(ctx context.Context) {
	started := false
	c.runOnce.Do(func() { started = true })
	if !started {
		return
	}
	c.loopCtx = ctx
	defer close(c.done)
	defer c.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case cmd := <-c.commands:
			c.execute(cmd)
		}
	}
}

// Stop terminates the event loop.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

func (c *Controller) execute(cmd command) {
	defer close(cmd.reply)
	defer func() {
		if r := recover(); r != nil {
			err := errors.New("game operation panicked", slog.String("panic", fmt.Sprint(r)))
			c.logger.LogAttrs(cmd.ctx, slog.LevelError, "recovered from panic", errors.SlogError(err))
		}
	}()
	cmd.fn(cmd.ctx)
}

// do runs fn on the loop goroutine and waits for it to finish.
func (c *Controller) do(ctx context.Context, fn func(ctx context.Context)) error {
	cmd := command{ctx: ctx, fn: fn, reply: make(chan struct{})}
	select {
	case c.commands <- cmd:
	case <-c.stopCh:
		return ErrStopped
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "submit game operation")
	}
	<-cmd.reply
	return nil
}

// Start begins a new session unless one is already in play.
func (c *Controller) Start(ctx context.Context) error {
	return c.do(ctx, c.start)
}

// Collect marks the item at index as collected. Unknown or already collected items and inactive sessions are
// ignored.
func (c *Controller) Collect(ctx context.Context, index int) error {
	return c.do(ctx, func(ctx context.Context) { c.collect(ctx, index) })
}

// Reset returns the controller to the idle state and cancels all pending timers.
func (c *Controller) Reset(ctx context.Context) error {
	return c.do(ctx, c.reset)
}

// PlayAgain resets and starts a new session once the play again affordance has been offered for a completed
// session. It is ignored otherwise.
func (c *Controller) PlayAgain(ctx context.Context) error {
	return c.do(ctx, func(ctx context.Context) {
		if c.session.phase != PhaseCompleted || !c.session.playAgainOffered {
			c.logger.LogAttrs(ctx, slog.LevelDebug, "ignored play again", slog.String("phase", c.session.phase.String()))
			return
		}
		c.reset(ctx)
		c.start(ctx)
	})
}

// Snapshot returns a copy of the current session.
func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	var snapshot Snapshot
	err := c.Observe(ctx, func(s Snapshot) {
		snapshot = s
	})
	return snapshot, err
}

// Observe calls fn with a snapshot on the event loop. No presenter effect happens between taking the snapshot and
// fn returning, so a display that starts listening to effects inside fn neither misses nor repeats any.
func (c *Controller) Observe(ctx context.Context, fn func(Snapshot)) error {
	return c.do(ctx, func(_ context.Context) {
		fn(c.snapshot())
	})
}

// Config returns the configuration the controller was created with.
func (c *Controller) Config() Config {
	return c.cfg
}

func (c *Controller) snapshot() Snapshot {
	s := c.session
	items := make([]Item, len(s.items))
	copy(items, s.items)
	snapshot := Snapshot{
		Phase:            s.phase,
		Collected:        s.collected,
		Total:            c.cfg.TotalItems,
		Items:            items,
		StartedAt:        s.startedAt,
		Elapsed:          FormatElapsed(0),
		Percent:          Percent(s.collected, c.cfg.TotalItems),
		PlayAgainOffered: s.playAgainOffered,
		Result:           nil,
	}
	switch s.phase {
	case PhaseActive:
		snapshot.Elapsed = FormatElapsed(c.clock.Since(s.startedAt))
	case PhaseCompleted:
		result := c.result()
		snapshot.Elapsed = FormatElapsed(s.elapsed)
		snapshot.Result = &result
	case PhaseIdle:
	}
	return snapshot
}

func (c *Controller) result() Result {
	return Result{
		Collected:  c.session.collected,
		Total:      c.cfg.TotalItems,
		Elapsed:    c.session.elapsed,
		StartedAt:  c.session.startedAt,
		FinishedAt: c.session.startedAt.Add(c.session.elapsed),
	}
}

func (c *Controller) start(ctx context.Context) {
	if c.session.phase == PhaseActive {
		c.logger.LogAttrs(ctx, slog.LevelDebug, "ignored start of active session")
		return
	}
	c.stopTimers()
	c.session = session{
		phase:            PhaseActive,
		collected:        0,
		startedAt:        c.clock.Now(),
		items:            make([]Item, 0, c.cfg.TotalItems),
		elapsed:          0,
		playAgainOffered: false,
		generation:       c.session.generation + 1,
	}

	c.presenter.Started()
	c.presenter.ShowProgress(0, c.cfg.TotalItems)
	c.presenter.ShowElapsed(FormatElapsed(0))

	c.after(0, func(ctx context.Context) { c.reveal(ctx, 0) })
	c.tickTimerID = c.every(c.cfg.TickInterval, c.tick)

	c.logger.LogAttrs(ctx, slog.LevelInfo, "started session", slog.Int("total", c.cfg.TotalItems))
}

// reveal shows the item at index and schedules the next one so that items always appear in index order.
func (c *Controller) reveal(ctx context.Context, index int) {
	if c.session.phase != PhaseActive || index != len(c.session.items) || index >= c.cfg.TotalItems {
		return
	}
	board := c.cfg.Board
	item := Item{
		Index:     index,
		Collected: false,
		Position: Position{
			X: c.rand.Float64() * (board.Width - 2*board.Margin),
			Y: c.rand.Float64() * (board.Height - 2*board.Margin),
		},
		Handle: "",
	}
	item.Handle = c.presenter.RenderItem(item)
	c.session.items = append(c.session.items, item)
	c.logger.LogAttrs(ctx, slog.LevelDebug, "revealed item", slog.Int("index", index))

	if next := index + 1; next < c.cfg.TotalItems {
		c.after(c.cfg.RevealInterval, func(ctx context.Context) { c.reveal(ctx, next) })
	}
}

func (c *Controller) collect(ctx context.Context, index int) {
	s := &c.session
	if s.phase != PhaseActive || index < 0 || index >= len(s.items) || s.items[index].Collected {
		c.logger.LogAttrs(ctx, slog.LevelDebug, "ignored collect",
			slog.Int("index", index), slog.String("phase", s.phase.String()))
		return
	}

	s.items[index].Collected = true
	s.collected++
	handle := s.items[index].Handle

	c.presenter.FadeItem(handle)
	c.after(c.cfg.FadeDuration, func(_ context.Context) { c.presenter.RemoveItem(handle) })
	if err := c.presenter.PlayCue(); err != nil {
		c.logger.LogAttrs(ctx, slog.LevelDebug, "could not play cue", errors.SlogError(err))
	}
	c.presenter.ShowProgress(s.collected, c.cfg.TotalItems)
	c.logger.LogAttrs(ctx, slog.LevelDebug, "collected item",
		slog.Int("index", index), slog.Int("collected", s.collected))

	if s.collected >= c.cfg.TotalItems {
		c.end(ctx)
	}
}

func (c *Controller) end(ctx context.Context) {
	if c.session.phase != PhaseActive {
		return
	}
	c.session.phase = PhaseCompleted
	c.stopTimer(c.tickTimerID)
	c.session.elapsed = c.clock.Since(c.session.startedAt)
	elapsed := FormatElapsed(c.session.elapsed)

	c.presenter.ShowCompletion(c.session.collected, elapsed)
	c.presenter.PlayCelebration()
	if c.onComplete != nil {
		c.onComplete(c.result())
	}
	c.after(c.cfg.PlayAgainDelay, func(_ context.Context) {
		c.session.playAgainOffered = true
		c.presenter.OfferPlayAgain()
	})

	c.logger.LogAttrs(ctx, slog.LevelInfo, "completed session",
		slog.Int("collected", c.session.collected), slog.String("elapsed", elapsed))
}

func (c *Controller) reset(ctx context.Context) {
	c.stopTimers()
	c.session = session{
		phase:            PhaseIdle,
		collected:        0,
		startedAt:        time.Time{},
		items:            nil,
		elapsed:          0,
		playAgainOffered: false,
		generation:       c.session.generation + 1,
	}
	c.presenter.Reset()
	c.presenter.ShowProgress(0, c.cfg.TotalItems)
	c.presenter.ShowElapsed(FormatElapsed(0))
	c.logger.LogAttrs(ctx, slog.LevelInfo, "reset session")
}

func (c *Controller) tick(_ context.Context) {
	if c.session.phase != PhaseActive {
		return
	}
	c.presenter.ShowElapsed(FormatElapsed(c.clock.Since(c.session.startedAt)))
}

// after schedules fn on the loop after d. fn is skipped if the session changed in the meantime.
func (c *Controller) after(d time.Duration, fn func(ctx context.Context)) uint64 {
	return c.schedule(d, false, fn)
}

// every schedules fn on the loop every d until the session changes or the timer is stopped.
func (c *Controller) every(d time.Duration, fn func(ctx context.Context)) uint64 {
	return c.schedule(d, true, fn)
}

func (c *Controller) schedule(d time.Duration, repeat bool, fn func(ctx context.Context)) uint64 {
	c.nextTimerID++
	id := c.nextTimerID
	generation := c.session.generation
	ctx := c.loopCtx
	callback := func() {
		_ = c.do(ctx, func(ctx context.Context) {
			if !repeat {
				delete(c.timers, id)
			}
			if generation != c.session.generation {
				return
			}
			fn(ctx)
		})
	}
	if repeat {
		c.timers[id] = c.scheduler.Every(d, callback)
	} else {
		c.timers[id] = c.scheduler.AfterFunc(d, callback)
	}
	return id
}

func (c *Controller) stopTimer(id uint64) {
	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
}

func (c *Controller) stopTimers() {
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
}
