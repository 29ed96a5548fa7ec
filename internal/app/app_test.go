package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalike-app/kalike/internal/httpapi"
	"github.com/kalike-app/kalike/internal/sessions"
	"github.com/kalike-app/kalike/internal/simulation"
)

func offlineEnv(t *testing.T) {
	t.Setenv("KALIKE_LLM_PROVIDER", "mock")
	t.Setenv("KALIKE_STT_PROVIDER", "passthrough")
	t.Setenv("KALIKE_OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("KALIKE_REDIS_ADDR", "")
	t.Setenv("KALIKE_LIVEKIT_API_KEY", "")
	t.Setenv("LIVEKIT_API_KEY", "")
	t.Setenv("KALIKE_CORS_ORIGINS", "http://localhost:3000, https://kalike.app")
}

func TestNewWiresOfflineServer(t *testing.T) {
	offlineEnv(t)
	a, err := New(context.Background(), Options{
		DBPath:  filepath.Join(t.TempDir(), "kalike.db"),
		Version: "test",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	assert.IsType(t, &sessions.MemoryStore{}, a.Sessions)
	assert.False(t, a.Rooms.Enabled())

	deps := a.Deps()
	assert.Nil(t, deps.Synthesizer, "no OpenAI key disables synthesis")
	assert.Equal(t, []string{"http://localhost:3000", "https://kalike.app"}, deps.Origins)

	router := httpapi.NewRouter(deps)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tracks", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// An empty mock provider makes the controller use its stock lines.
	sess, reply, err := a.Controller.Start(context.Background(), "auto_driver_sim", "")
	require.NoError(t, err)
	assert.NotEmpty(t, reply.Text)
	assert.Equal(t, simulation.PhaseAwaitingUserTurn, sess.Phase)
}

func TestNewRejectsUnknownSTTProvider(t *testing.T) {
	offlineEnv(t)
	t.Setenv("KALIKE_STT_PROVIDER", "carrier-pigeon")
	_, err := New(context.Background(), Options{DBPath: filepath.Join(t.TempDir(), "kalike.db")}, nil)
	assert.ErrorContains(t, err, "speech-to-text")
}

func TestNewRehearsalUsesTypedLines(t *testing.T) {
	offlineEnv(t)
	ctrl, closeFn, err := NewRehearsal(context.Background(), Options{
		DBPath: filepath.Join(t.TempDir(), "kalike.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { closeFn() })

	sess, _, err := ctrl.Start(context.Background(), "salary_negotiation_sim", "")
	require.NoError(t, err)
	next, res, err := ctrl.ProcessTurn(context.Background(), sess, simulation.Audio{Data: []byte("ನಮಸ್ಕಾರ ಸರ್")})
	require.NoError(t, err)
	assert.Equal(t, "ನಮಸ್ಕಾರ ಸರ್", res.UserText)
	assert.Equal(t, 1, next.History.Count(simulation.RoleUser))
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList(" a,, b ,"))
}
