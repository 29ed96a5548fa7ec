package tui

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalike-app/kalike/internal/catalog"
	"github.com/kalike-app/kalike/internal/simulation"
	"github.com/kalike-app/kalike/internal/speech"
)

type stubScreen struct {
	title   string
	initRan bool
}

func (s *stubScreen) Init() tea.Cmd {
	s.initRan = true
	return nil
}
func (s *stubScreen) Update(tea.Msg) (Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string             { return s.title }
func (s *stubScreen) Title() string                    { return s.title }

func TestRouterPushPop(t *testing.T) {
	r := NewRouter(&stubScreen{title: "first"})

	s2 := &stubScreen{title: "second"}
	r.Update(PushScreenMsg{Screen: s2})
	assert.Equal(t, 2, r.Depth())
	assert.Equal(t, "second", r.Active().Title())
	assert.True(t, s2.initRan)

	r.Update(PopScreenMsg{})
	assert.Equal(t, "first", r.Active().Title())

	r.Pop()
	assert.Equal(t, 1, r.Depth(), "bottom screen stays")
}

func TestRouterReplacePreservesDepth(t *testing.T) {
	r := NewRouter(&stubScreen{title: "first"})
	r.Push(&stubScreen{title: "second"})

	s3 := &stubScreen{title: "third"}
	r.Update(ReplaceScreenMsg{Screen: s3})
	assert.Equal(t, 2, r.Depth())
	assert.Equal(t, "third", r.Active().Title())
	assert.True(t, s3.initRan)
}

type echoReplies struct{ replies []string }

func (e *echoReplies) GenerateReply(context.Context, simulation.History) (string, error) {
	if len(e.replies) == 0 {
		return "ಹೌದಾ? [Houda?]", nil
	}
	r := e.replies[0]
	e.replies = e.replies[1:]
	return r, nil
}

func newController(t *testing.T, replies ...string) *simulation.Controller {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	ctrl, err := simulation.NewController(cat.Scenarios, simulation.Collaborators{
		Transcriber: speech.PassThrough{},
		Replies:     &echoReplies{replies: replies},
	}, nil)
	require.NoError(t, err)
	return ctrl
}

// run executes cmd and feeds its message back, following batches one
// level deep.
func run(t *testing.T, s Screen, cmd tea.Cmd) Screen {
	t.Helper()
	if cmd == nil {
		return s
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			s = run(t, s, c)
		}
		return s
	}
	switch msg.(type) {
	case startedMsg, turnMsg, endedMsg, failedMsg:
		s, _ = s.Update(msg)
	}
	return s
}

func key(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func TestRehearsalConversation(t *testing.T) {
	ctrl := newController(t, "ನೂರು ರೂಪಾಯಿ. [Nooru rupayi.]", "ಸರಿ, ಹೋಗೋಣ! [Sari, hogona!]")
	r := NewRehearsal(ctrl, "auto_driver_sim")
	s := run(t, r, r.start())
	require.True(t, r.started)
	assert.Contains(t, r.View(80, 20), "ನಮಸ್ಕಾರ")
	assert.NotContains(t, r.View(80, 20), "Manjunath", "persona stays hidden")

	r.input.SetValue("MG Road ದಯವಿಟ್ಟು")
	s, cmd := s.Update(key(tea.KeyEnter))
	assert.True(t, r.busy)
	s = run(t, s, cmd)
	assert.False(t, r.busy)
	assert.Equal(t, 1, r.Turns())
	assert.Empty(t, r.input.Value())

	r.input.SetValue("ಎಂಭತ್ತು?")
	s, cmd = s.Update(key(tea.KeyEnter))
	run(t, s, cmd)
	require.True(t, r.ended())
	view := r.View(80, 30)
	assert.Contains(t, view, "Score: 90/100")
	assert.Contains(t, view, "Excellent use of polite language!")

	// any key leaves an ended rehearsal
	_, cmd = s.Update(key('x'))
	require.NotNil(t, cmd)
	assert.IsType(t, PopScreenMsg{}, cmd())
}

func TestRehearsalEmptyLineIsIgnored(t *testing.T) {
	r := NewRehearsal(newController(t), "crush_conversation_sim")
	s := run(t, r, r.start())

	_, cmd := s.Update(key(tea.KeyEnter))
	assert.Nil(t, cmd)
	assert.False(t, r.busy)
}

func TestRehearsalEscScoresEarly(t *testing.T) {
	r := NewRehearsal(newController(t), "crush_conversation_sim")
	s := run(t, r, r.start())

	s, cmd := s.Update(key(tea.KeyEscape))
	run(t, s, cmd)
	require.True(t, r.ended())
	assert.Equal(t, simulation.BaseScore, r.sess.Outcome.Score)
	assert.Contains(t, r.View(80, 20), "Score: 70/100")
}

func TestRehearsalUnknownScenario(t *testing.T) {
	r := NewRehearsal(newController(t), "moon_landing")
	run(t, r, r.start())
	require.Error(t, r.err)
	assert.Contains(t, r.View(80, 20), "Something went wrong")
}

func TestPickerDisablesRestrictedScenarios(t *testing.T) {
	ctrl := newController(t)

	p := NewPicker(ctrl, false)
	require.Len(t, p.menu.Items, 5)
	assert.True(t, p.menu.Items[3].Disabled)
	assert.True(t, strings.HasSuffix(p.menu.Items[3].Label, "(18+)"))

	// moving down from the last enabled scenario lands on Quit
	p.menu.Selected = 2
	p.menu, _ = p.menu.Update(key(tea.KeyDown))
	assert.Equal(t, 4, p.menu.Selected)

	p = NewPicker(ctrl, true)
	assert.False(t, p.menu.Items[3].Disabled)

	_, cmd := p.Update(key(tea.KeyEnter))
	require.NotNil(t, cmd)
	msg, ok := cmd().(PushScreenMsg)
	require.True(t, ok)
	assert.Equal(t, "Auto Driver Negotiation", msg.Screen.Title())
}

func TestRunRejectsRestrictedWithoutAge(t *testing.T) {
	err := Run(newController(t), Options{ScenarioID: "road_rage_sim"})
	assert.ErrorContains(t, err, "age restricted")

	err = Run(newController(t), Options{ScenarioID: "moon_landing"})
	assert.ErrorIs(t, err, simulation.ErrUnknownScenario)
}
