package game

// Presenter displays the game. The controller calls it from its event loop, so implementations must not call
// back into the controller and should return quickly.
type Presenter interface {
	// Reset clears the board and shows the idle screen.
	Reset()
	// Started clears the board and hides any completion screen for a new session.
	Started()
	// RenderItem displays a revealed item and returns a handle used to refer to it later.
	RenderItem(item Item) string
	// FadeItem starts the collected animation of the item.
	FadeItem(handle string)
	// RemoveItem removes the item from the board.
	RemoveItem(handle string)
	// PlayCue gives audible feedback for a collection. Errors are ignored.
	PlayCue() error
	ShowProgress(collected, total int)
	ShowElapsed(elapsed string)
	// ShowCompletion displays the end of round summary.
	ShowCompletion(collected int, elapsed string)
	// PlayCelebration runs the one-shot celebration animation.
	PlayCelebration()
	// OfferPlayAgain enables the play again affordance.
	OfferPlayAgain()
}

// NopPresenter ignores every effect. Embed it to implement only the effects of interest.
type NopPresenter struct{}

func (NopPresenter) Reset()                     {}
func (NopPresenter) Started()                   {}
func (NopPresenter) RenderItem(Item) string     { return "" }
func (NopPresenter) FadeItem(string)            {}
func (NopPresenter) RemoveItem(string)          {}
func (NopPresenter) PlayCue() error             { return nil }
func (NopPresenter) ShowProgress(int, int)      {}
func (NopPresenter) ShowElapsed(string)         {}
func (NopPresenter) ShowCompletion(int, string) {}
func (NopPresenter) PlayCelebration()           {}
func (NopPresenter) OfferPlayAgain()            {}
