package tui

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/kalike-app/kalike/internal/simulation"
)

// PickerScreen lists the scenarios. Age-restricted ones are disabled
// unless the user confirmed their age on the command line.
type PickerScreen struct {
	menu Menu
}

var _ Screen = (*PickerScreen)(nil)

func NewPicker(ctrl *simulation.Controller, ageVerified bool) *PickerScreen {
	scenarios := ctrl.Catalog().All()
	items := make([]MenuItem, 0, len(scenarios)+1)
	for _, sc := range scenarios {
		label := sc.Title
		if sc.AgeRestricted {
			label += " (18+)"
		}
		items = append(items, MenuItem{
			Label:    label,
			Detail:   sc.Description,
			Disabled: sc.AgeRestricted && !ageVerified,
			Action:   func() tea.Cmd { return push(NewRehearsal(ctrl, sc.ID)) },
		})
	}
	items = append(items, MenuItem{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }})
	return &PickerScreen{menu: NewMenu(items)}
}

func (p *PickerScreen) Init() tea.Cmd { return nil }

func (p *PickerScreen) Title() string { return "Choose a conversation" }

func (p *PickerScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "q" {
		return p, tea.Quit
	}
	var cmd tea.Cmd
	p.menu, cmd = p.menu.Update(msg)
	return p, cmd
}

func (p *PickerScreen) View(width, height int) string {
	body := titleStyle.Render("Pick a scenario to rehearse") + "\n\n" + p.menu.View()
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, cardStyle.Render(body))
}

func (p *PickerScreen) KeyHints() []KeyHint {
	return []KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Start"},
		{Key: "q", Description: "Quit"},
	}
}
