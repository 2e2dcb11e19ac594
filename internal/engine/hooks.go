package engine

import (
	"context"

	"github.com/curioworks/curio/internal/heuristics"
	"github.com/curioworks/curio/internal/memory"
	"github.com/curioworks/curio/internal/perception"
	"github.com/curioworks/curio/internal/planner"
	"github.com/curioworks/curio/internal/sandbox"
)

// Hook observes the loop. Implement the calls you care about by embedding
// NopHook.
type Hook interface {
	OnPhase(ctx context.Context, st *State, phase Phase)
	OnSanitized(ctx context.Context, st *State, findings []heuristics.Finding)
	OnPerception(ctx context.Context, st *State, res *perception.Result, err error)
	OnRecall(ctx context.Context, st *State, entries []memory.Entry)
	OnPlan(ctx context.Context, st *State, plan *planner.Plan, err error)
	OnOutcome(ctx context.Context, st *State, out *sandbox.Outcome, err error)
	OnAnswer(ctx context.Context, st *State, answer string)
	OnMemoryWrite(ctx context.Context, st *State, entry memory.Entry, err error)
}

// NopHook implements Hook with no-ops.
type NopHook struct{}

func (NopHook) OnPhase(context.Context, *State, Phase)                           {}
func (NopHook) OnSanitized(context.Context, *State, []heuristics.Finding)        {}
func (NopHook) OnPerception(context.Context, *State, *perception.Result, error)  {}
func (NopHook) OnRecall(context.Context, *State, []memory.Entry)                 {}
func (NopHook) OnPlan(context.Context, *State, *planner.Plan, error)             {}
func (NopHook) OnOutcome(context.Context, *State, *sandbox.Outcome, error)       {}
func (NopHook) OnAnswer(context.Context, *State, string)                         {}
func (NopHook) OnMemoryWrite(context.Context, *State, memory.Entry, error)       {}

// Hooks fans out to every registered hook in order.
type Hooks []Hook

func (hs Hooks) OnPhase(ctx context.Context, st *State, p Phase) {
	for _, h := range hs {
		h.OnPhase(ctx, st, p)
	}
}
func (hs Hooks) OnSanitized(ctx context.Context, st *State, f []heuristics.Finding) {
	for _, h := range hs {
		h.OnSanitized(ctx, st, f)
	}
}
func (hs Hooks) OnPerception(ctx context.Context, st *State, r *perception.Result, err error) {
	for _, h := range hs {
		h.OnPerception(ctx, st, r, err)
	}
}
func (hs Hooks) OnRecall(ctx context.Context, st *State, e []memory.Entry) {
	for _, h := range hs {
		h.OnRecall(ctx, st, e)
	}
}
func (hs Hooks) OnPlan(ctx context.Context, st *State, p *planner.Plan, err error) {
	for _, h := range hs {
		h.OnPlan(ctx, st, p, err)
	}
}
func (hs Hooks) OnOutcome(ctx context.Context, st *State, o *sandbox.Outcome, err error) {
	for _, h := range hs {
		h.OnOutcome(ctx, st, o, err)
	}
}
func (hs Hooks) OnAnswer(ctx context.Context, st *State, a string) {
	for _, h := range hs {
		h.OnAnswer(ctx, st, a)
	}
}
func (hs Hooks) OnMemoryWrite(ctx context.Context, st *State, e memory.Entry, err error) {
	for _, h := range hs {
		h.OnMemoryWrite(ctx, st, e, err)
	}
}
