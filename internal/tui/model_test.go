package tui

import (
	"context"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/myrjola/heartcollector/internal/clock"
	"github.com/myrjola/heartcollector/internal/config"
	"github.com/myrjola/heartcollector/internal/game"
	"github.com/myrjola/heartcollector/internal/random"
	"github.com/myrjola/heartcollector/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"sync"
	"testing"
	"time"
)

type fakeController struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeController) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return nil
}

func (f *fakeController) Start(context.Context) error     { return f.record("start") }
func (f *fakeController) Reset(context.Context) error     { return f.record("reset") }
func (f *fakeController) PlayAgain(context.Context) error { return f.record("play again") }
func (f *fakeController) Collect(_ context.Context, index int) error {
	return f.record("collect " + string(rune('0'+index)))
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func keyPress(key string) tea.KeyMsg {
	if key == " " {
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func TestModel_keys(t *testing.T) {
	tests := []struct {
		key  string
		want []string
	}{
		{key: "s", want: []string{"start"}},
		{key: "r", want: []string{"reset"}},
		{key: "p", want: []string{"play again"}},
		{key: "7", want: []string{"collect 7"}},
		{key: "x", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			ctrl := &fakeController{}
			m := New(ctrl, make(chan tea.Msg), config.Default(), random.NewSequence(0.5))
			_, cmd := update(t, m, keyPress(tt.key))
			if tt.want == nil {
				require.Nil(t, cmd)
				return
			}
			require.NotNil(t, cmd)
			require.Nil(t, cmd())
			require.Equal(t, tt.want, ctrl.calls)
		})
	}
}

func TestModel_quit(t *testing.T) {
	m := New(&fakeController{}, make(chan tea.Msg), config.Default(), random.NewSequence(0.5))
	_, cmd := update(t, m, keyPress("q"))
	require.NotNil(t, cmd)
	require.Equal(t, tea.QuitMsg{}, cmd())
}

func TestModel_collectInput(t *testing.T) {
	ctrl := &fakeController{}
	m := New(ctrl, make(chan tea.Msg), config.Default(), random.NewSequence(0.5))

	// Nothing to collect on an empty board.
	_, cmd := update(t, m, keyPress(" "))
	require.Nil(t, cmd)

	m, _ = update(t, m, startedMsg{})
	m, _ = update(t, m, itemRenderedMsg{item: game.Item{Index: 0, Position: game.Position{X: 0, Y: 0}}, handle: "item-0"})
	m, _ = update(t, m, itemRenderedMsg{item: game.Item{Index: 1, Position: game.Position{X: 300, Y: 200}}, handle: "item-1"})
	m, _ = update(t, m, itemFadedMsg{handle: "item-0"})

	// Space collects the first item that is not fading.
	_, cmd = update(t, m, keyPress(" "))
	require.NotNil(t, cmd)
	cmd()

	// Clicks land on the grid cell of the item below the three header lines and the border.
	_, cmd = update(t, m, tea.MouseMsg{X: 1, Y: 4, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	require.Nil(t, cmd, "item 0 is fading")
	m, _ = update(t, m, itemRemovedMsg{handle: "item-0"})
	col := 300 * gridCols / 520
	row := 200 * gridRows / 320
	_, cmd = update(t, m, tea.MouseMsg{X: 1 + col*cellWidth, Y: 4 + row, Action: tea.MouseActionPress,
		Button: tea.MouseButtonLeft})
	require.NotNil(t, cmd)
	cmd()
	_, cmd = update(t, m, tea.MouseMsg{X: 1 + col*cellWidth, Y: 4 + row, Action: tea.MouseActionRelease,
		Button: tea.MouseButtonLeft})
	require.Nil(t, cmd)

	require.Equal(t, []string{"collect 1", "collect 1"}, ctrl.calls)
}

func TestModel_view(t *testing.T) {
	cfg := config.Default()
	m := New(&fakeController{}, make(chan tea.Msg), cfg, random.NewSequence(0.5))
	view := m.View()
	assert.Contains(t, view, "0 / 10")
	assert.Contains(t, view, "00:00")
	assert.Contains(t, view, "Press s to start collecting hearts!")

	m, _ = update(t, m, startedMsg{})
	m, _ = update(t, m, itemRenderedMsg{item: game.Item{Index: 4, Position: game.Position{X: 10, Y: 10}}, handle: "item-4"})
	m, _ = update(t, m, progressMsg{collected: 3, total: 10})
	m, _ = update(t, m, elapsedMsg{elapsed: "00:07"})
	view = m.View()
	assert.Contains(t, view, cfg.Theme.ItemGlyph+"4")
	assert.Contains(t, view, "3 / 10")
	assert.Contains(t, view, "30%")
	assert.Contains(t, view, "00:07")
	assert.NotContains(t, view, "Press s to start")

	m, _ = update(t, m, completionMsg{collected: 10, elapsed: "00:42"})
	m, _ = update(t, m, celebrationMsg{})
	view = m.View()
	assert.Contains(t, view, "You collected every heart!")
	assert.Contains(t, view, "Hearts collected: 10")
	assert.Contains(t, view, "Time taken: 00:42")
	assert.Contains(t, view, cfg.Theme.SpecialMessage)
	assert.NotContains(t, view, "Press p to play again")
	require.Len(t, m.confetti, cfg.Theme.CelebrationPieces)

	m, _ = update(t, m, playAgainOfferedMsg{})
	assert.Contains(t, m.View(), "Press p to play again")

	m, _ = update(t, m, resetMsg{})
	view = m.View()
	assert.Contains(t, view, "0 / 10")
	assert.Contains(t, view, "00:00")
	assert.Contains(t, view, cfg.Theme.Placeholder)
	assert.NotContains(t, view, "You collected every heart!")
}

func TestModel_transientEffects(t *testing.T) {
	m := New(&fakeController{}, make(chan tea.Msg), config.Default(), random.NewSequence(0.5))

	m, _ = update(t, m, cueMsg{})
	m, _ = update(t, m, cueMsg{})
	require.True(t, m.flash)
	m, _ = update(t, m, flashDoneMsg{cue: 1})
	require.True(t, m.flash, "an earlier flash must not end a later one")
	m, _ = update(t, m, flashDoneMsg{cue: 2})
	require.False(t, m.flash)

	m, _ = update(t, m, celebrationMsg{})
	m, _ = update(t, m, celebrationDoneMsg{celebration: 1})
	require.Empty(t, m.confetti)
}

// drain applies every queued effect to m.
func drain(t *testing.T, m Model, effects <-chan tea.Msg) Model {
	t.Helper()
	for {
		select {
		case msg := <-effects:
			m, _ = update(t, m, msg)
		default:
			return m
		}
	}
}

func TestModel_withController(t *testing.T) {
	cfg := config.Default()
	cfg.TotalItems = 3
	fake := clock.NewFake(time.Date(2024, 2, 14, 12, 0, 0, 0, time.UTC))
	presenter := NewPresenter(64)
	ctrl := game.NewController(cfg.Config, presenter,
		game.WithClock(fake),
		game.WithScheduler(fake),
		game.WithRand(random.NewSequence(0.1, 0.9)),
		game.WithLogger(testhelpers.NewLogger(io.Discard)),
	)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go ctrl.Run(ctx)
	t.Cleanup(presenter.Close)

	m := New(ctrl, presenter.Effects(), cfg, random.NewSequence(0.5))
	_, cmd := update(t, m, keyPress("s"))
	require.Nil(t, cmd())
	fake.Advance(time.Second)
	m = drain(t, m, presenter.Effects())
	require.Len(t, m.items, 3)
	require.Equal(t, game.PhaseActive, m.phase)
	require.Equal(t, "00:01", m.elapsed)

	for i := range 3 {
		_, cmd = update(t, m, keyPress(string(rune('0'+i))))
		require.Nil(t, cmd())
	}
	fake.Advance(2 * time.Second)
	m = drain(t, m, presenter.Effects())

	require.Equal(t, game.PhaseCompleted, m.phase)
	require.Empty(t, m.items, "collected items are removed after fading")
	require.NotNil(t, m.completion)
	require.Equal(t, "00:01", m.completion.elapsed)
	require.True(t, m.playAgain)
	require.Equal(t, 3, m.cues)
}
