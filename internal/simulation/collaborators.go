package simulation

import "context"

// Transcriber turns recorded audio into text. An empty result means the
// audio could not be understood.
type Transcriber interface {
	Transcribe(ctx context.Context, audio Audio, languageHint string) (string, error)
}

// ReplyGenerator produces the agent's next line from the full history.
// The first turn of the history is always the persona.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, h History) (string, error)
}

// Synthesizer renders text as speech and returns a playable reference
// such as a data URL.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (string, error)
}

// ContentFilter may rewrite a reply before it reaches the user.
type ContentFilter interface {
	Filter(text string, s Scenario) string
}
