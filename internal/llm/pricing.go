package llm

// ModelCost holds USD prices per million tokens.
type ModelCost struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost returns the USD cost of a request with the given token counts.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*c.InputPerMTok/1_000_000 +
		float64(outputTokens)*c.OutputPerMTok/1_000_000
}

// LookupCost returns the pricing for a model ID, or nil if unknown.
func LookupCost(modelID string) *ModelCost {
	if c, ok := modelCosts[modelID]; ok {
		return &c
	}
	return nil
}

// Chat models kalike can be pointed at. Prices as of 2026-09.
var modelCosts = map[string]ModelCost{
	"claude-haiku-4-5":           {1, 5},
	"claude-haiku-4-5-20251001":  {1, 5},
	"claude-sonnet-4-20250514":   {3, 15},
	"claude-sonnet-4-5":          {3, 15},
	"claude-sonnet-4-5-20250929": {3, 15},

	"gpt-4-turbo":         {10, 30},
	"gpt-4-turbo-preview": {10, 30},
	"gpt-4.1":             {2, 8},
	"gpt-4.1-mini":        {0.4, 1.6},
	"gpt-4o":              {2.5, 10},
	"gpt-4o-mini":         {0.15, 0.6},
	"gpt-5-mini":          {0.25, 2},
	"gpt-5-nano":          {0.05, 0.4},

	"gemini-2.0-flash":      {0.1, 0.4},
	"gemini-2.5-flash":      {0.3, 2.5},
	"gemini-2.5-flash-lite": {0.1, 0.4},
	"gemini-2.5-pro":        {1.25, 10},

	"google/gemini-2.0-flash-exp": {0, 0},
}
