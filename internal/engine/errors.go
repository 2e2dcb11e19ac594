package engine

import (
	"errors"

	"github.com/curioworks/curio/internal/perception"
	"github.com/curioworks/curio/internal/planner"
	"github.com/curioworks/curio/internal/sandbox"
)

// fault classifies an iteration error by which boundary it crossed.
type fault int

const (
	faultUnknown   fault = iota
	faultPerception      // model output never parsed into a perception result
	faultPlanning        // model never produced a valid plan
	faultViolation       // plan breached the execution contract; replan
)

func classify(err error) fault {
	var pe *perception.ParseError
	var ge *planner.GenerationError
	var v *sandbox.Violation
	switch {
	case errors.As(err, &pe):
		return faultPerception
	case errors.As(err, &ge):
		return faultPlanning
	case errors.As(err, &v):
		return faultViolation
	default:
		return faultUnknown
	}
}

// userMessage renders an iteration error as a plain-language answer. The
// raw error stays in the logs; the user gets a sentence, never the error
// text itself, which may carry URLs or addresses from the transport layer.
func userMessage(err error) string {
	switch classify(err) {
	case faultPerception:
		return "I couldn't make sense of that request. Could you rephrase it?"
	case faultPlanning:
		return "I couldn't work out a way to answer that with the tools I have."
	case faultViolation:
		return "I ran into an internal problem while working on that and had to stop."
	default:
		return "Something went wrong while handling that. Please try again."
	}
}
