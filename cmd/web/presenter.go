package main

import (
	"github.com/myrjola/heartcollector/internal/config"
	"github.com/myrjola/heartcollector/internal/game"
	"github.com/myrjola/heartcollector/internal/random"
)

// webPresenter turns the effects of one game into htmx out-of-band fragments and publishes them to the browsers
// following the game. Its methods run on the controller loop so the fields need no locking.
type webPresenter struct {
	publish   func(fragment string)
	fragments *fragmentRenderer
	cfg       config.Config
	rand      random.Float64Source
	items     map[string]itemView
	cues      int
}

func newWebPresenter(
	publish func(fragment string),
	fragments *fragmentRenderer,
	cfg config.Config,
	rand random.Float64Source,
) *webPresenter {
	return &webPresenter{
		publish:   publish,
		fragments: fragments,
		cfg:       cfg,
		rand:      rand,
		items:     make(map[string]itemView),
		cues:      0,
	}
}

func (p *webPresenter) emit(name string, data any) {
	if fragment := p.fragments.render(name, data); fragment != "" {
		p.publish(fragment)
	}
}

// view returns an out-of-band board view of phase without items.
func (p *webPresenter) view(phase game.Phase) boardView {
	return newBoardView(game.Snapshot{
		Phase:            phase,
		Collected:        0,
		Total:            p.cfg.TotalItems,
		Items:            nil,
		Elapsed:          game.FormatElapsed(0),
		Percent:          0,
		PlayAgainOffered: false,
		Result:           nil,
	}, p.cfg, "").WithOOB()
}

func (p *webPresenter) Reset() {
	clear(p.items)
	view := p.view(game.PhaseIdle)
	p.emit("sync-fragment", view)
}

func (p *webPresenter) Started() {
	clear(p.items)
	p.emit("screen-fragment", p.view(game.PhaseActive))
}

func (p *webPresenter) RenderItem(item game.Item) string {
	handle := itemHandle(item.Index)
	view := newItemView(item, handle, p.cfg.Theme.ItemGlyph)
	p.items[handle] = view
	p.emit("item-fragment", view)
	return handle
}

func (p *webPresenter) FadeItem(handle string) {
	view, ok := p.items[handle]
	if !ok {
		return
	}
	p.emit("fade-fragment", view)
}

func (p *webPresenter) RemoveItem(handle string) {
	if _, ok := p.items[handle]; !ok {
		return
	}
	delete(p.items, handle)
	p.emit("remove-fragment", handle)
}

// PlayCue bumps the cue element. The browser plays the sound when it sees the swap.
func (p *webPresenter) PlayCue() error {
	p.cues++
	view := p.view(game.PhaseActive)
	view.Cue = p.cues
	p.emit("cue", view)
	return nil
}

func (p *webPresenter) ShowProgress(collected, total int) {
	view := p.view(game.PhaseActive)
	view.Collected = collected
	view.Total = total
	view.Percent = game.Percent(collected, total)
	p.emit("progress-fragment", view)
}

func (p *webPresenter) ShowElapsed(elapsed string) {
	view := p.view(game.PhaseActive)
	view.Elapsed = elapsed
	p.emit("timer", view)
}

func (p *webPresenter) ShowCompletion(collected int, elapsed string) {
	view := p.view(game.PhaseCompleted)
	view.Collected = collected
	view.Elapsed = elapsed
	p.emit("completion-fragment", view)
}

func (p *webPresenter) PlayCelebration() {
	view := p.view(game.PhaseCompleted)
	view.Confetti = newConfetti(p.cfg.Theme, p.rand)
	p.emit("effects", view)
}

func (p *webPresenter) OfferPlayAgain() {
	view := p.view(game.PhaseCompleted)
	view.PlayAgainOffered = true
	p.emit("controls", view)
}
