package simulation

import "errors"

var (
	// ErrUnintelligibleInput means transcription failed or came back
	// empty. The session is returned unchanged.
	ErrUnintelligibleInput = errors.New("could not understand audio, please try again")

	ErrUnknownScenario = errors.New("unknown scenario")
	ErrSessionEnded    = errors.New("simulation has ended")
	ErrTurnInProgress  = errors.New("a turn is already being processed")
)
