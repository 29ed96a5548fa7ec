package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalike-app/kalike/internal/llm"
	"github.com/kalike-app/kalike/internal/store"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("KALIKE_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seedEvents(t *testing.T, dbPath string) {
	t.Helper()
	s, err := store.Open(dbPath)
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.EventRepo().AppendLLMRequest(ctx, store.LLMRequestEventData{
		Provider: "openai", Model: "gpt-4o-mini", Purpose: llm.PurposeSimulationReply,
		InputTokens: 120, OutputTokens: 40, LatencyMs: 350, Success: true,
		RequestBody: "[system]\nauto driver", ResponseBody: "ಸರಿ ಸಾರ್",
	}))
	require.NoError(t, s.EventRepo().AppendLLMRequest(ctx, store.LLMRequestEventData{
		Provider: "openai", Model: "mystery-model", Purpose: llm.PurposePronunciation,
		LatencyMs: 90, ErrorMessage: "boom",
	}))
}

func TestLLMCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "kalike.db")

	out, err := runCLI(t, "llm", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No LLM events found.")

	seedEvents(t, db)

	out, err = runCLI(t, "llm", "list", "--db", db, "--purpose", llm.PurposeSimulationReply)
	require.NoError(t, err)
	assert.Contains(t, out, "gpt-4o-mini")
	assert.NotContains(t, out, "mystery-model")

	out, err = runCLI(t, "llm", "stats", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "TOTAL (partial)")
	assert.NotContains(t, out, "%!", "every column formats cleanly")
	assert.Regexp(t, `simulation-reply\s+1\s+0\s+120\s+40\s+350\s`, out)
	assert.Contains(t, out, "Pricing unavailable for: mystery-model")

	_, err = runCLI(t, "llm", "view", "999", "--db", db)
	assert.ErrorContains(t, err, "event 999 not found")
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "$0.0042", formatCost(0.0042))
	assert.Equal(t, "$1.50", formatCost(1.5))
	assert.Equal(t, "ಸರಿ", truncate("ಸರಿ ಸಾರ್", 3))
	assert.Equal(t, "short", truncate("short", 10))
}
