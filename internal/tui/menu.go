package tui

import (
	"strings"

	tea "charm.land/bubbletea/v2"
)

type MenuItem struct {
	Label    string
	Detail   string
	Action   func() tea.Cmd
	Disabled bool
}

// Menu is a vertical list navigated with the arrow keys. Disabled items
// are skipped.
type Menu struct {
	Items    []MenuItem
	Selected int
}

func NewMenu(items []MenuItem) Menu {
	selected := 0
	for i, item := range items {
		if !item.Disabled {
			selected = i
			break
		}
	}
	return Menu{Items: items, Selected: selected}
}

func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch kmsg.String() {
	case "up", "k":
		for i := m.Selected - 1; i >= 0; i-- {
			if !m.Items[i].Disabled {
				m.Selected = i
				break
			}
		}
	case "down", "j":
		for i := m.Selected + 1; i < len(m.Items); i++ {
			if !m.Items[i].Disabled {
				m.Selected = i
				break
			}
		}
	case "enter":
		if m.Selected >= 0 && m.Selected < len(m.Items) {
			item := m.Items[m.Selected]
			if item.Action != nil && !item.Disabled {
				return m, item.Action()
			}
		}
	}
	return m, nil
}

func (m Menu) View() string {
	var b strings.Builder
	for i, item := range m.Items {
		switch {
		case item.Disabled:
			b.WriteString(disabledStyle.Render("    " + item.Label))
		case i == m.Selected:
			b.WriteString(selectedStyle.Render("  ▸ " + item.Label))
		default:
			b.WriteString(bodyStyle.Render("    " + item.Label))
		}
		b.WriteString("\n")
		if item.Detail != "" && i == m.Selected {
			b.WriteString(hintStyle.Render("      "+item.Detail) + "\n")
		}
	}
	return b.String()
}
