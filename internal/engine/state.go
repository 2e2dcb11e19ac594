// Package engine drives the query-handling loop: sanitize, perceive,
// recall, plan, execute, remember. Each component sits behind a small
// interface so the loop can be exercised end to end with fakes.
package engine

import (
	"github.com/curioworks/curio/internal/heuristics"
	"github.com/curioworks/curio/internal/perception"
	"github.com/curioworks/curio/internal/planner"
	"github.com/curioworks/curio/internal/sandbox"
)

// Phase is the loop's current stage.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSanitizing Phase = "sanitizing"
	PhasePerceiving Phase = "perceiving"
	PhaseRecalling  Phase = "recalling"
	PhasePlanning   Phase = "planning"
	PhaseExecuting  Phase = "executing"
	PhaseFinalizing Phase = "finalizing"
)

// Iteration records one pass through perceive-plan-execute. Err is set when
// the pass ended in a fault instead of an outcome.
type Iteration struct {
	Perception *perception.Result
	Plan       *planner.Plan
	Outcome    *sandbox.Outcome
	Err        string
}

// State is the per-query working context. It is rebuilt for every query;
// nothing in it survives across HandleQuery calls except through memory.
type State struct {
	Query      string               // raw user input
	Sanitized  string               // gate output
	Findings   []heuristics.Finding // gate findings, all severities
	Phase      Phase                // current stage
	Step       int                  // iterations consumed (increments at loop top)
	StepBudget int                  // maximum iterations for this query
	History    []Iteration          // one record per iteration
	Vars       map[string]string    // bindings carried between iterations
	ToolsUsed  []string             // accumulated across all outcomes, in call order
	Notes      string               // carry-forward text for the next perception pass
}

// StepsLeft reports how many iterations remain, including the current one.
func (s *State) StepsLeft() int {
	left := s.StepBudget - s.Step + 1
	if left < 0 {
		return 0
	}
	return left
}

// Reply is what HandleQuery hands back to the caller.
type Reply struct {
	Answer    string               // final text shown to the user
	Refused   bool                 // query was blocked before any model call
	Complete  bool                 // a plan terminated with a final answer
	Steps     int                  // iterations consumed
	ToolsUsed []string             // tools invoked across all iterations
	Findings  []heuristics.Finding // sanitizer findings
	Warnings  []string             // answer-quality warnings from result checks
}
