package tui

import (
	tea "charm.land/bubbletea/v2"
)

// Screen is one page of the rehearsal UI.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)
	// View renders the screen content, excluding header and footer.
	View(width, height int) string
	Title() string
}

// KeyHintProvider lets a screen replace the default footer hints.
type KeyHintProvider interface {
	KeyHints() []KeyHint
}

type PushScreenMsg struct {
	Screen Screen
}

type PopScreenMsg struct{}

// ReplaceScreenMsg swaps the active screen without changing depth.
type ReplaceScreenMsg struct {
	Screen Screen
}

// Router keeps a stack of screens and forwards messages to the top one.
type Router struct {
	stack []Screen
}

func NewRouter(initial Screen) *Router {
	return &Router{stack: []Screen{initial}}
}

// Push adds s on top and runs its Init.
func (r *Router) Push(s Screen) tea.Cmd {
	r.stack = append(r.stack, s)
	return s.Init()
}

// Pop removes the top screen. The bottom screen is never popped.
func (r *Router) Pop() tea.Cmd {
	if len(r.stack) <= 1 {
		return nil
	}
	r.stack = r.stack[:len(r.stack)-1]
	return nil
}

func (r *Router) Replace(s Screen) tea.Cmd {
	r.stack[len(r.stack)-1] = s
	return s.Init()
}

func (r *Router) Active() Screen {
	if len(r.stack) == 0 {
		return nil
	}
	return r.stack[len(r.stack)-1]
}

func (r *Router) Depth() int {
	return len(r.stack)
}

func (r *Router) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case PushScreenMsg:
		return r.Push(msg.Screen)
	case PopScreenMsg:
		return r.Pop()
	case ReplaceScreenMsg:
		return r.Replace(msg.Screen)
	}

	active := r.Active()
	if active == nil {
		return nil
	}
	updated, cmd := active.Update(msg)
	r.stack[len(r.stack)-1] = updated
	return cmd
}

func (r *Router) View(width, height int) string {
	active := r.Active()
	if active == nil {
		return ""
	}
	return active.View(width, height)
}

func push(s Screen) tea.Cmd {
	return func() tea.Msg { return PushScreenMsg{Screen: s} }
}

func pop() tea.Msg { return PopScreenMsg{} }
