// Package tui is the terminal rehearsal for simulations: the learner
// types their lines and the controller replies and scores the
// conversation as it would over voice.
package tui

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/kalike-app/kalike/internal/simulation"
)

// Options configures a rehearsal run.
type Options struct {
	// ScenarioID skips the picker when set.
	ScenarioID  string
	AgeVerified bool
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *Router
	width  int
	height int
}

func newAppModel(ctrl *simulation.Controller, opts Options) AppModel {
	var first Screen = NewPicker(ctrl, opts.AgeVerified)
	if opts.ScenarioID != "" {
		first = NewRehearsal(ctrl, opts.ScenarioID)
	}
	return AppModel{router: NewRouter(first)}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case PopScreenMsg:
		// A rehearsal started directly has nothing to go back to.
		if m.router.Depth() == 1 {
			return m, tea.Quit
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	if isTooSmall(m.width, m.height) {
		v.SetContent(renderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	turns := 0
	if r, ok := active.(*RehearsalScreen); ok {
		turns = r.Turns()
	}
	header := renderHeader(active.Title(), turns, m.width)

	hints := []KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	if p, ok := active.(KeyHintProvider); ok {
		hints = append(p.KeyHints(), hints...)
	}
	footer := renderFooter(hints, m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)
	v.SetContent(renderFrame(header, content, footer, m.width, m.height))
	return v
}

// Run starts the rehearsal program and blocks until the user quits.
func Run(ctrl *simulation.Controller, opts Options) error {
	if opts.ScenarioID != "" {
		sc, ok := ctrl.Catalog().Get(opts.ScenarioID)
		if !ok {
			return fmt.Errorf("%w: %q", simulation.ErrUnknownScenario, opts.ScenarioID)
		}
		if sc.AgeRestricted && !opts.AgeVerified {
			return fmt.Errorf("scenario %q is age restricted, pass --age-verified", sc.ID)
		}
	}
	p := tea.NewProgram(newAppModel(ctrl, opts))
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
