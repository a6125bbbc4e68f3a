// Package tui is the terminal front end of the game.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/myrjola/heartcollector/internal/errors"
	"github.com/myrjola/heartcollector/internal/game"
	"strconv"
	"sync"
)

var ErrClosed = errors.NewSentinel("presenter closed")

type resetMsg struct{}

type startedMsg struct{}

type itemRenderedMsg struct {
	item   game.Item
	handle string
}

type itemFadedMsg struct{ handle string }

type itemRemovedMsg struct{ handle string }

type cueMsg struct{}

type progressMsg struct{ collected, total int }

type elapsedMsg struct{ elapsed string }

type completionMsg struct {
	collected int
	elapsed   string
}

type celebrationMsg struct{}

type playAgainOfferedMsg struct{}

// Presenter forwards the effects of the controller to the [Model] as Bubble Tea messages.
type Presenter struct {
	effects   chan tea.Msg
	done      chan struct{}
	closeOnce sync.Once
}

// NewPresenter creates a Presenter that can queue buffer effects before the controller waits for the model.
func NewPresenter(buffer int) *Presenter {
	return &Presenter{
		effects:   make(chan tea.Msg, buffer),
		done:      make(chan struct{}),
		closeOnce: sync.Once{},
	}
}

// Effects is read by the model.
func (p *Presenter) Effects() <-chan tea.Msg {
	return p.effects
}

// Close drops every later effect so that the controller never waits for a model that has quit.
func (p *Presenter) Close() {
	p.closeOnce.Do(func() { close(p.done) })
}

func (p *Presenter) send(msg tea.Msg) bool {
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.effects <- msg:
		return true
	case <-p.done:
		return false
	}
}

func (p *Presenter) Reset()   { p.send(resetMsg{}) }
func (p *Presenter) Started() { p.send(startedMsg{}) }

func (p *Presenter) RenderItem(item game.Item) string {
	handle := "item-" + strconv.Itoa(item.Index)
	p.send(itemRenderedMsg{item: item, handle: handle})
	return handle
}

func (p *Presenter) FadeItem(handle string)   { p.send(itemFadedMsg{handle: handle}) }
func (p *Presenter) RemoveItem(handle string) { p.send(itemRemovedMsg{handle: handle}) }

func (p *Presenter) PlayCue() error {
	if !p.send(cueMsg{}) {
		return ErrClosed
	}
	return nil
}

func (p *Presenter) ShowProgress(collected, total int) {
	p.send(progressMsg{collected: collected, total: total})
}

func (p *Presenter) ShowElapsed(elapsed string) { p.send(elapsedMsg{elapsed: elapsed}) }

func (p *Presenter) ShowCompletion(collected int, elapsed string) {
	p.send(completionMsg{collected: collected, elapsed: elapsed})
}

func (p *Presenter) PlayCelebration() { p.send(celebrationMsg{}) }
func (p *Presenter) OfferPlayAgain()  { p.send(playAgainOfferedMsg{}) }
