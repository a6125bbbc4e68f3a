package main

import (
	"fmt"
	"github.com/myrjola/heartcollector/internal/config"
	"github.com/myrjola/heartcollector/internal/game"
	"github.com/myrjola/heartcollector/internal/random"
	"strconv"
	"time"
)

// revealStagger is the delay between the pop-in animations of consecutive items.
const revealStagger = 0.2

type itemView struct {
	Handle string
	Index  int
	X      string
	Y      string
	Delay  string
	Glyph  string
}

func newItemView(item game.Item, handle string, glyph string) itemView {
	return itemView{
		Handle: handle,
		Index:  item.Index,
		X:      strconv.FormatFloat(item.Position.X, 'f', 1, 64),
		Y:      strconv.FormatFloat(item.Position.Y, 'f', 1, 64),
		Delay:  strconv.FormatFloat(float64(item.Index)*revealStagger, 'f', 1, 64),
		Glyph:  glyph,
	}
}

type confettiView struct {
	Left     string
	Color    string
	Duration string
	Glyph    string
}

// newConfetti scatters the celebration glyphs of theme across the screen.
func newConfetti(theme config.Theme, rand random.Float64Source) []confettiView {
	const (
		minFall   = 2.0
		fallRange = 2.0
	)
	confetti := make([]confettiView, theme.CelebrationPieces)
	for i := range confetti {
		view := confettiView{
			Left:     strconv.FormatFloat(rand.Float64()*100, 'f', 1, 64), //nolint:mnd // percent
			Duration: strconv.FormatFloat(minFall+rand.Float64()*fallRange, 'f', 2, 64),
			Glyph:    pick(theme.CelebrationGlyphs, rand),
			Color:    pick(theme.CelebrationColors, rand),
		}
		confetti[i] = view
	}
	return confetti
}

func pick(values []string, rand random.Float64Source) string {
	if len(values) == 0 {
		return ""
	}
	return values[int(rand.Float64()*float64(len(values)))%len(values)]
}

// boardView is the data of the game partials. OOB marks the partials for an htmx out-of-band swap.
type boardView struct {
	OOB              bool
	Phase            string
	Collected        int
	Total            int
	Percent          int
	Elapsed          string
	Items            []itemView
	PlayAgainOffered bool
	Placeholder      string
	Message          string
	Width            string
	Height           string
	Confetti         []confettiView
	Cue              int
}

func (v boardView) WithoutOOB() boardView {
	v.OOB = false
	return v
}

func (v boardView) WithOOB() boardView {
	v.OOB = true
	return v
}

// newBoardView builds the whole screen from a snapshot. message replaces the configured special message when set.
func newBoardView(s game.Snapshot, cfg config.Config, message string) boardView {
	if message == "" {
		message = cfg.Theme.SpecialMessage
	}
	view := boardView{
		OOB:              false,
		Phase:            s.Phase.String(),
		Collected:        s.Collected,
		Total:            s.Total,
		Percent:          s.Percent,
		Elapsed:          s.Elapsed,
		Items:            make([]itemView, 0, len(s.Items)),
		PlayAgainOffered: s.PlayAgainOffered,
		Placeholder:      cfg.Theme.Placeholder,
		Message:          message,
		Width:            strconv.FormatFloat(cfg.Board.Width, 'f', 0, 64),
		Height:           strconv.FormatFloat(cfg.Board.Height, 'f', 0, 64),
		Confetti:         nil,
		Cue:              0,
	}
	for _, item := range s.Items {
		if item.Collected {
			continue
		}
		view.Items = append(view.Items, newItemView(item, item.Handle, cfg.Theme.ItemGlyph))
	}
	return view
}

// itemHandle names the DOM element of the item with index.
func itemHandle(index int) string {
	return fmt.Sprintf("heart-%d", index)
}

type roundView struct {
	Rank          int
	Elapsed       string
	Collected     int
	Total         int
	FinishedAt    string
	FinishedAtISO string
}

func newRoundView(rank int, collected, total int, elapsed time.Duration, finishedAt time.Time) roundView {
	return roundView{
		Rank:          rank,
		Elapsed:       game.FormatElapsed(elapsed),
		Collected:     collected,
		Total:         total,
		FinishedAt:    finishedAt.UTC().Format("2 Jan 2006 15:04"),
		FinishedAtISO: finishedAt.UTC().Format(time.RFC3339),
	}
}
