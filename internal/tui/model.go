package tui

import (
	"context"
	"fmt"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/myrjola/heartcollector/internal/config"
	"github.com/myrjola/heartcollector/internal/game"
	"github.com/myrjola/heartcollector/internal/random"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Controller is the part of [game.Controller] the model drives.
type Controller interface {
	Start(ctx context.Context) error
	Collect(ctx context.Context, index int) error
	Reset(ctx context.Context) error
	PlayAgain(ctx context.Context) error
}

const (
	gridCols            = 24
	gridRows            = 10
	cellWidth           = 4
	progressWidth       = 30
	flashDuration       = 150 * time.Millisecond
	celebrationDuration = 3 * time.Second
	actionTimeout       = time.Second
)

type errMsg struct{ err error }

type flashDoneMsg struct{ cue int }

type celebrationDoneMsg struct{ celebration int }

// cell is an item placed on the terminal grid.
type cell struct {
	index  int
	col    int
	row    int
	fading bool
}

// Model is the Bubble Tea model of one game. It only changes in response to the effects of the controller and
// forwards player input to the controller.
type Model struct {
	ctrl    Controller
	effects <-chan tea.Msg
	cfg     config.Config
	rand    random.Float64Source

	phase        game.Phase
	items        map[string]cell
	collected    int
	total        int
	elapsed      string
	completion   *completionMsg
	playAgain    bool
	confetti     []string
	celebrations int
	cues         int
	flash        bool
	wasReset     bool
	err          error
}

func New(ctrl Controller, effects <-chan tea.Msg, cfg config.Config, rand random.Float64Source) Model {
	return Model{
		ctrl:         ctrl,
		effects:      effects,
		cfg:          cfg,
		rand:         rand,
		phase:        game.PhaseIdle,
		items:        make(map[string]cell),
		collected:    0,
		total:        cfg.TotalItems,
		elapsed:      game.FormatElapsed(0),
		completion:   nil,
		playAgain:    false,
		confetti:     nil,
		celebrations: 0,
		cues:         0,
		flash:        false,
		wasReset:     false,
		err:          nil,
	}
}

func (m Model) Init() tea.Cmd {
	return m.nextEffect()
}

// nextEffect waits for the next effect of the controller. Every handled effect must ask for the next one.
func (m Model) nextEffect() tea.Cmd {
	effects := m.effects
	return func() tea.Msg {
		return <-effects
	}
}

// call runs fn against the controller outside the update loop.
func (m Model) call(fn func(ctx context.Context, ctrl Controller) error) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		if err := fn(ctx, ctrl); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case errMsg:
		m.err = msg.err
		return m, nil
	case flashDoneMsg:
		if msg.cue == m.cues {
			m.flash = false
		}
		return m, nil
	case celebrationDoneMsg:
		if msg.celebration == m.celebrations {
			m.confetti = nil
		}
		return m, nil

	case resetMsg:
		m.phase = game.PhaseIdle
		m.clearBoard()
		m.elapsed = game.FormatElapsed(0)
		m.wasReset = true
	case startedMsg:
		m.phase = game.PhaseActive
		m.clearBoard()
		m.err = nil
	case itemRenderedMsg:
		m.items[msg.handle] = m.place(msg.item)
	case itemFadedMsg:
		if c, ok := m.items[msg.handle]; ok {
			c.fading = true
			m.items[msg.handle] = c
		}
	case itemRemovedMsg:
		delete(m.items, msg.handle)
	case cueMsg:
		m.cues++
		m.flash = true
		cue := m.cues
		return m, tea.Batch(m.nextEffect(), tea.Tick(flashDuration, func(time.Time) tea.Msg {
			return flashDoneMsg{cue: cue}
		}))
	case progressMsg:
		m.collected = msg.collected
		m.total = msg.total
	case elapsedMsg:
		m.elapsed = msg.elapsed
	case completionMsg:
		m.phase = game.PhaseCompleted
		m.completion = &msg
	case celebrationMsg:
		m.celebrations++
		m.confetti = m.newConfetti()
		celebration := m.celebrations
		return m, tea.Batch(m.nextEffect(), tea.Tick(celebrationDuration, func(time.Time) tea.Msg {
			return celebrationDoneMsg{celebration: celebration}
		}))
	case playAgainOfferedMsg:
		m.playAgain = true
	default:
		return m, nil
	}
	return m, m.nextEffect()
}

func (m *Model) clearBoard() {
	m.items = make(map[string]cell)
	m.collected = 0
	m.completion = nil
	m.playAgain = false
	m.confetti = nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "s":
		return m, m.call(func(ctx context.Context, ctrl Controller) error { return ctrl.Start(ctx) })
	case "r":
		return m, m.call(func(ctx context.Context, ctrl Controller) error { return ctrl.Reset(ctx) })
	case "p":
		return m, m.call(func(ctx context.Context, ctrl Controller) error { return ctrl.PlayAgain(ctx) })
	case " ":
		if index, ok := m.firstCollectable(); ok {
			return m, m.collect(index)
		}
	case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
		index, _ := strconv.Atoi(key)
		return m, m.collect(index)
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	// The board content starts after the header and the top border.
	col := (msg.X - 1) / cellWidth
	row := msg.Y - lipgloss.Height(m.header()) - 1
	if index, ok := m.itemAt(col, row); ok {
		return m, m.collect(index)
	}
	return m, nil
}

func (m Model) collect(index int) tea.Cmd {
	return m.call(func(ctx context.Context, ctrl Controller) error { return ctrl.Collect(ctx, index) })
}

// place maps the pixel position of item onto the grid.
func (m Model) place(item game.Item) cell {
	board := m.cfg.Board
	scale := func(v, size float64, cells int) int {
		span := size - 2*board.Margin
		return min(max(int(v/span*float64(cells)), 0), cells-1)
	}
	return cell{
		index:  item.Index,
		col:    scale(item.Position.X, board.Width, gridCols),
		row:    scale(item.Position.Y, board.Height, gridRows),
		fading: false,
	}
}

// visible returns the cells in index order. Later items cover earlier ones in the same place.
func (m Model) visible() []cell {
	cells := make([]cell, 0, len(m.items))
	for _, c := range m.items {
		cells = append(cells, c)
	}
	slices.SortFunc(cells, func(a, b cell) int { return a.index - b.index })
	return cells
}

func (m Model) itemAt(col, row int) (int, bool) {
	index, found := 0, false
	for _, c := range m.visible() {
		if c.col == col && c.row == row && !c.fading {
			index, found = c.index, true
		}
	}
	return index, found
}

func (m Model) firstCollectable() (int, bool) {
	for _, c := range m.visible() {
		if !c.fading {
			return c.index, true
		}
	}
	return 0, false
}

func (m Model) newConfetti() []string {
	theme := m.cfg.Theme
	pieces := make([]string, theme.CelebrationPieces)
	for i := range pieces {
		glyph := theme.CelebrationGlyphs[int(m.rand.Float64()*float64(len(theme.CelebrationGlyphs)))%
			len(theme.CelebrationGlyphs)]
		style := lipgloss.NewStyle()
		if n := len(theme.CelebrationColors); n > 0 {
			style = style.Foreground(lipgloss.Color(theme.CelebrationColors[int(m.rand.Float64()*float64(n))%n]))
		}
		pieces[i] = style.Render(glyph)
	}
	return pieces
}

func (m Model) header() string {
	counter := Value.Render(fmt.Sprintf("%d / %d", m.collected, m.total))
	if m.flash {
		counter = Flash.Render(fmt.Sprintf("%d / %d", m.collected, m.total))
	}
	stats := strings.Join([]string{
		Label.Render("Hearts ") + counter,
		Label.Render("Level ") + Value.Render("1"),
		Label.Render("Time ") + Value.Render(m.elapsed),
	}, "   ")
	return lipgloss.JoinVertical(lipgloss.Left,
		Title.Render(m.cfg.Theme.ItemGlyph+" Heart Collector"),
		stats,
		m.progress(),
	)
}

func (m Model) progress() string {
	percent := game.Percent(m.collected, m.total)
	filled := progressWidth * percent / 100 //nolint:mnd // percent
	return Filled.Render(strings.Repeat("█", filled)) +
		Empty.Render(strings.Repeat("░", progressWidth-filled)) +
		Label.Render(fmt.Sprintf(" %d%%", percent))
}

func (m Model) board() string {
	width := gridCols * cellWidth
	if m.phase == game.PhaseIdle && len(m.items) == 0 {
		placeholder := lipgloss.Place(width, gridRows, lipgloss.Center, lipgloss.Center,
			Help.Render(m.idleHint()))
		return Board.Render(placeholder)
	}

	grid := make([][]string, gridRows)
	for row := range grid {
		grid[row] = make([]string, gridCols)
		for col := range grid[row] {
			grid[row][col] = strings.Repeat(" ", cellWidth)
		}
	}
	for _, c := range m.visible() {
		label := m.cfg.Theme.ItemGlyph + strconv.Itoa(c.index)
		style := Item
		if c.fading {
			style = Faded
		}
		grid[c.row][c.col] = style.Width(cellWidth).MaxWidth(cellWidth).Render(label)
	}
	lines := make([]string, gridRows)
	for row := range grid {
		lines[row] = strings.Join(grid[row], "")
	}
	return Board.Render(strings.Join(lines, "\n"))
}

func (m Model) idleHint() string {
	if m.wasReset {
		return m.cfg.Theme.Placeholder
	}
	return "Press s to start collecting hearts!"
}

func (m Model) completionPanel() string {
	if m.completion == nil {
		return ""
	}
	lines := []string{
		Title.Render("You collected every heart!"),
		Label.Render("Hearts collected: ") + Value.Render(strconv.Itoa(m.completion.collected)),
		Label.Render("Time taken: ") + Value.Render(m.completion.elapsed),
		m.cfg.Theme.SpecialMessage,
	}
	if m.playAgain {
		lines = append(lines, Help.Render("Press p to play again"))
	}
	return Completion.Width(gridCols * cellWidth).Render(strings.Join(lines, "\n"))
}

func (m Model) View() string {
	sections := []string{m.header(), m.board()}
	if panel := m.completionPanel(); panel != "" {
		sections = append(sections, panel)
	}
	if len(m.confetti) > 0 {
		sections = append(sections, lipgloss.NewStyle().Width(gridCols*cellWidth).Render(strings.Join(m.confetti, " ")))
	}
	if m.err != nil {
		sections = append(sections, Error.Render(m.err.Error()))
	}
	sections = append(sections, Help.Render("s start • r reset • p play again • 0-9, space or click collect • q quit"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
