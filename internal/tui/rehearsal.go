package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/kalike-app/kalike/internal/simulation"
)

type startedMsg struct {
	sess  simulation.Session
	reply simulation.Reply
}

type turnMsg struct {
	sess   simulation.Session
	result simulation.TurnResult
}

type endedMsg struct {
	sess simulation.Session
}

type failedMsg struct {
	err error
}

// RehearsalScreen runs one typed conversation through the controller.
// Typed lines travel as the audio payload, so the controller must use a
// pass-through transcriber.
type RehearsalScreen struct {
	ctrl       *simulation.Controller
	scenarioID string
	ctx        context.Context

	sess    simulation.Session
	started bool
	busy    bool
	notice  string
	err     error
	input   textinput.Model
}

var _ Screen = (*RehearsalScreen)(nil)
var _ KeyHintProvider = (*RehearsalScreen)(nil)

func NewRehearsal(ctrl *simulation.Controller, scenarioID string) *RehearsalScreen {
	ti := textinput.New()
	ti.Placeholder = "Type what you would say..."
	ti.CharLimit = 280
	return &RehearsalScreen{
		ctrl:       ctrl,
		scenarioID: scenarioID,
		ctx:        context.Background(),
		input:      ti,
	}
}

func (r *RehearsalScreen) Init() tea.Cmd {
	return tea.Batch(r.input.Focus(), r.start())
}

func (r *RehearsalScreen) Title() string {
	if sc, ok := r.ctrl.Catalog().Get(r.scenarioID); ok {
		return sc.Title
	}
	return "Rehearsal"
}

// Turns counts the learner's lines so far.
func (r *RehearsalScreen) Turns() int {
	return r.sess.History.Count(simulation.RoleUser)
}

func (r *RehearsalScreen) ended() bool {
	return r.sess.Phase == simulation.PhaseEnded
}

func (r *RehearsalScreen) KeyHints() []KeyHint {
	if r.ended() || r.err != nil {
		return []KeyHint{{Key: "any key", Description: "Back"}}
	}
	return []KeyHint{
		{Key: "Enter", Description: "Say it"},
		{Key: "Esc", Description: "End and score"},
	}
}

func (r *RehearsalScreen) start() tea.Cmd {
	ctrl, ctx, id := r.ctrl, r.ctx, r.scenarioID
	return func() tea.Msg {
		sess, reply, err := ctrl.Start(ctx, id, "")
		if err != nil {
			return failedMsg{err: err}
		}
		return startedMsg{sess: sess, reply: reply}
	}
}

func (r *RehearsalScreen) say(text string) tea.Cmd {
	ctrl, ctx, sess := r.ctrl, r.ctx, r.sess.Clone()
	return func() tea.Msg {
		next, res, err := ctrl.ProcessTurn(ctx, sess, simulation.Audio{Data: []byte(text), MIMEType: "text/plain"})
		if err != nil {
			return failedMsg{err: err}
		}
		return turnMsg{sess: next, result: res}
	}
}

func (r *RehearsalScreen) end() tea.Cmd {
	ctrl, sess := r.ctrl, r.sess.Clone()
	return func() tea.Msg {
		next, err := ctrl.End(sess)
		if err != nil {
			return failedMsg{err: err}
		}
		return endedMsg{sess: next}
	}
}

func (r *RehearsalScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg:
		r.sess, r.started = msg.sess, true
		return r, nil

	case turnMsg:
		r.busy = false
		r.notice = ""
		r.sess = msg.sess
		return r, nil

	case endedMsg:
		r.busy = false
		r.sess = msg.sess
		return r, nil

	case failedMsg:
		r.busy = false
		if errors.Is(msg.err, simulation.ErrUnintelligibleInput) {
			r.notice = "Say something first."
			return r, nil
		}
		r.err = msg.err
		return r, nil

	case tea.KeyMsg:
		return r.handleKey(msg)
	}

	var cmd tea.Cmd
	r.input, cmd = r.input.Update(msg)
	return r, cmd
}

func (r *RehearsalScreen) handleKey(msg tea.KeyMsg) (Screen, tea.Cmd) {
	if r.err != nil || r.ended() {
		return r, pop
	}
	if !r.started || r.busy {
		return r, nil
	}

	switch msg.String() {
	case "esc":
		r.busy = true
		return r, r.end()
	case "enter":
		text := strings.TrimSpace(r.input.Value())
		if text == "" {
			return r, nil
		}
		r.input.Reset()
		r.busy = true
		return r, r.say(text)
	}

	var cmd tea.Cmd
	r.input, cmd = r.input.Update(msg)
	return r, cmd
}

func (r *RehearsalScreen) View(width, height int) string {
	if r.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Something went wrong: %v", r.err))
	}
	if !r.started {
		return hintStyle.Render("\n  Starting conversation...")
	}

	var bottom string
	switch {
	case r.ended():
		bottom = r.renderOutcome(width)
	case r.busy:
		bottom = hintStyle.Render("  ...")
	default:
		bottom = "  " + r.input.View()
		if r.notice != "" {
			bottom += "\n  " + errorStyle.Render(r.notice)
		}
	}

	room := max(height-lipgloss.Height(bottom)-1, 1)
	return r.renderTranscript(width, room) + "\n" + bottom
}

// renderTranscript shows the latest lines that fit in height.
func (r *RehearsalScreen) renderTranscript(width, height int) string {
	wrap := lipgloss.NewStyle().Width(max(width-4, 20))
	var lines []string
	for _, t := range r.sess.History {
		var who string
		switch t.Role {
		case simulation.RoleAgent:
			who = agentStyle.Render("Them")
		case simulation.RoleUser:
			who = userStyle.Render("You ")
		default:
			continue
		}
		block := wrap.Render(who + "  " + bodyStyle.Render(t.Text))
		lines = append(lines, strings.Split(block, "\n")...)
	}
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	for i := range lines {
		lines[i] = "  " + lines[i]
	}
	return strings.Join(lines, "\n")
}

func (r *RehearsalScreen) renderOutcome(width int) string {
	out := r.sess.Outcome
	if out == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(scoreStyle.Render(fmt.Sprintf("Score: %d/100", out.Score)))
	keys := make([]string, 0, len(out.Feedback))
	for k := range out.Feedback {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		b.WriteString("\n" + bodyStyle.Render("• "+out.Feedback[k]))
	}
	return cardStyle.Width(max(width-4, 20)).Render(b.String())
}
