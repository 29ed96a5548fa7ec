package simulation

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalike-app/kalike/internal/llm"
)

func TestLLMRepliesMapsHistory(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`"ಸರಿ ಸಾರ್ [Sari saar]"`)})
	r := NewLLMReplies(mock)

	h := History{
		{Role: RoleSystem, Text: "persona"},
		{Role: RoleAgent, Text: "opening"},
		{Role: RoleUser, Text: "hello"},
	}
	got, err := r.GenerateReply(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, "ಸರಿ ಸಾರ್ [Sari saar]", got)

	require.Equal(t, 1, mock.CallCount())
	req := mock.Calls[0]
	assert.Equal(t, "persona", req.System)
	assert.Equal(t, 150, req.MaxTokens)
	assert.InDelta(t, 0.7, req.Temperature, 1e-9)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, llm.RoleAssistant, req.Messages[0].Role)
	assert.Equal(t, llm.RoleUser, req.Messages[1].Role)
}

func TestLLMRepliesRequiresPersona(t *testing.T) {
	r := NewLLMReplies(llm.NewMockProvider())
	_, err := r.GenerateReply(context.Background(), History{{Role: RoleUser, Text: "hi"}})
	assert.Error(t, err)
}

func TestCatalogValidation(t *testing.T) {
	_, err := NewCatalog([]Scenario{autoScenario, autoScenario})
	assert.Error(t, err, "duplicate ids")

	noOpening := autoScenario
	noOpening.ID = "x"
	noOpening.Opening = ""
	_, err = NewCatalog([]Scenario{noOpening})
	assert.Error(t, err)

	c, err := NewCatalog([]Scenario{autoScenario, roadRageScenario})
	require.NoError(t, err)
	assert.Len(t, c.All(), 2)
	_, ok := c.Get("road_rage_sim")
	assert.True(t, ok)
}
