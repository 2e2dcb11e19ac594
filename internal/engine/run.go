package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/curioworks/curio/internal/heuristics"
	"github.com/curioworks/curio/internal/memory"
	"github.com/curioworks/curio/internal/perception"
	"github.com/curioworks/curio/internal/planner"
	"github.com/curioworks/curio/internal/sandbox"
	"github.com/curioworks/curio/internal/tools"
)

// DefaultStepBudget bounds how many perceive-plan-execute iterations one
// query may consume. Faulted iterations count too.
const DefaultStepBudget = 3

// DefaultRecallLimit caps how many past entries are surfaced to the planner.
const DefaultRecallLimit = 3

// Perceiver extracts intent and entities from a sanitized query.
type Perceiver interface {
	Extract(ctx context.Context, sanitized, notes string) (*perception.Result, error)
}

// PlanMaker turns perception output into a bounded plan.
type PlanMaker interface {
	Plan(ctx context.Context, perc *perception.Result, recalled []memory.Entry, reg tools.Registry, carried map[string]string, stepsLeft int) (*planner.Plan, error)
}

// PlanRunner executes a plan and reports its outcome.
type PlanRunner interface {
	Execute(ctx context.Context, plan *planner.Plan, carried map[string]string) (*sandbox.Outcome, error)
}

// Memorizer is the conversation index as the loop sees it: recall before
// planning, append after answering.
type Memorizer interface {
	Search(queryText string, limit int) []memory.Entry
	Add(ctx context.Context, entry memory.Entry) error
}

// Orchestrator owns one query-handling loop over a fixed set of components.
type Orchestrator struct {
	gate        *heuristics.Gate
	perceiver   Perceiver
	planMaker   PlanMaker
	runner      PlanRunner
	mem         Memorizer
	registry    tools.Registry
	hooks       Hooks
	log         zerolog.Logger
	stepBudget  int
	recallLimit int
}

// Options tune the orchestrator. Zero values take the defaults.
type Options struct {
	StepBudget  int
	RecallLimit int
	Hooks       []Hook
}

// New wires an orchestrator. All components are required except hooks.
func New(
	gate *heuristics.Gate,
	perceiver Perceiver,
	planMaker PlanMaker,
	runner PlanRunner,
	mem Memorizer,
	registry tools.Registry,
	log zerolog.Logger,
	opts Options,
) *Orchestrator {
	budget := opts.StepBudget
	if budget <= 0 {
		budget = DefaultStepBudget
	}
	recall := opts.RecallLimit
	if recall <= 0 {
		recall = DefaultRecallLimit
	}
	return &Orchestrator{
		gate:        gate,
		perceiver:   perceiver,
		planMaker:   planMaker,
		runner:      runner,
		mem:         mem,
		registry:    registry,
		hooks:       Hooks(opts.Hooks),
		log:         log,
		stepBudget:  budget,
		recallLimit: recall,
	}
}

// HandleQuery runs one query through the full loop and returns a Reply.
// The error return is reserved for context cancellation; every domain
// failure is folded into the Reply as a plain-language answer.
func (o *Orchestrator) HandleQuery(ctx context.Context, query string) (*Reply, error) {
	st := &State{
		Query:      query,
		Phase:      PhaseIdle,
		StepBudget: o.stepBudget,
		Vars:       make(map[string]string),
	}

	o.setPhase(ctx, st, PhaseSanitizing)
	st.Sanitized, st.Findings = o.gate.Apply(query)
	o.hooks.OnSanitized(ctx, st, st.Findings)

	if heuristics.HasBlocking(st.Findings) {
		return o.finalize(ctx, st, o.refusalText(st.Findings), false, true)
	}
	st.Notes = findingNotes(st.Findings)

	for st.Step = 1; st.Step <= st.StepBudget; st.Step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		answer, done, fatal, err := o.iterate(ctx, st)
		if err != nil {
			return nil, err
		}
		if done {
			return o.finalize(ctx, st, answer, true, false)
		}
		if fatal {
			return o.finalize(ctx, st, answer, false, false)
		}
	}
	st.Step = st.StepBudget

	return o.finalize(ctx, st, o.bestEffortText(st), false, false)
}

// iterate runs one perceive-recall-plan-execute pass. It reports either a
// final answer (done), a fatal fault rendered as an answer, or neither,
// meaning the loop should continue. The error return is context
// cancellation only.
func (o *Orchestrator) iterate(ctx context.Context, st *State) (answer string, done, fatal bool, err error) {
	it := Iteration{}
	defer func() { st.History = append(st.History, it) }()

	o.setPhase(ctx, st, PhasePerceiving)
	perc, perr := o.perceiver.Extract(ctx, st.Sanitized, st.Notes)
	o.hooks.OnPerception(ctx, st, perc, perr)
	if perr != nil {
		if e := ctx.Err(); e != nil {
			return "", false, false, e
		}
		it.Err = perr.Error()
		o.log.Warn().Err(perr).Msg("perception failed, ending cycle")
		return userMessage(perr), false, true, nil
	}
	it.Perception = perc

	o.setPhase(ctx, st, PhaseRecalling)
	recalled := o.mem.Search(st.Sanitized, o.recallLimit)
	o.hooks.OnRecall(ctx, st, recalled)

	o.setPhase(ctx, st, PhasePlanning)
	plan, perr2 := o.planMaker.Plan(ctx, perc, recalled, o.registry, st.Vars, st.StepsLeft())
	o.hooks.OnPlan(ctx, st, plan, perr2)
	if perr2 != nil {
		if e := ctx.Err(); e != nil {
			return "", false, false, e
		}
		it.Err = perr2.Error()
		o.log.Warn().Err(perr2).Msg("planning failed, ending cycle")
		return userMessage(perr2), false, true, nil
	}
	it.Plan = plan

	o.setPhase(ctx, st, PhaseExecuting)
	out, xerr := o.runner.Execute(ctx, plan, st.Vars)
	o.hooks.OnOutcome(ctx, st, out, xerr)
	if xerr != nil {
		if e := ctx.Err(); e != nil {
			return "", false, false, e
		}
		it.Err = xerr.Error()
		if classify(xerr) == faultViolation {
			// A rejected plan is discarded and the next iteration replans
			// from scratch, still against the same budget.
			o.log.Warn().Err(xerr).Msg("plan rejected in execution, replanning")
			st.Notes = fmt.Sprintf("the previous plan was rejected (%v); produce a corrected plan", xerr)
			return "", false, false, nil
		}
		return userMessage(xerr), false, true, nil
	}
	it.Outcome = out

	for k, v := range out.Vars {
		st.Vars[k] = v
	}
	st.ToolsUsed = append(st.ToolsUsed, out.ToolsUsed...)

	if out.Final {
		return out.Answer, true, false, nil
	}
	st.Notes = carryNotes(out)
	return "", false, false, nil
}

// finalize runs the answer checks, writes the memory entry, and assembles
// the Reply. A failed memory write is logged and reported through hooks
// but never withholds the answer.
func (o *Orchestrator) finalize(ctx context.Context, st *State, answer string, complete, refused bool) (*Reply, error) {
	o.setPhase(ctx, st, PhaseFinalizing)

	var warnings []string
	if complete {
		if suspect, reasons := heuristics.CheckHallucination(st.Query, answer); suspect {
			warnings = reasons
			o.log.Warn().Strs("reasons", reasons).Msg("answer failed hallucination check")
		}
	}
	o.hooks.OnAnswer(ctx, st, answer)

	entry := memory.NewEntry(st.Query, st.Sanitized, answer, st.ToolsUsed)
	if err := o.mem.Add(ctx, entry); err != nil {
		o.log.Error().Err(err).Msg("could not persist conversation entry")
		o.hooks.OnMemoryWrite(ctx, st, entry, err)
	} else {
		o.hooks.OnMemoryWrite(ctx, st, entry, nil)
	}

	st.Phase = PhaseIdle
	return &Reply{
		Answer:    answer,
		Refused:   refused,
		Complete:  complete,
		Steps:     st.Step,
		ToolsUsed: st.ToolsUsed,
		Findings:  st.Findings,
		Warnings:  warnings,
	}, nil
}

func (o *Orchestrator) setPhase(ctx context.Context, st *State, p Phase) {
	st.Phase = p
	o.hooks.OnPhase(ctx, st, p)
}

// refusalText explains a blocked query using the blocking findings' own
// messages.
func (o *Orchestrator) refusalText(findings []heuristics.Finding) string {
	var reasons []string
	for _, f := range findings {
		if f.Blocking() {
			reasons = append(reasons, f.Message)
		}
	}
	return "I can't help with that request: " + strings.Join(reasons, "; ") + "."
}

// bestEffortText reports what was gathered when the step budget ran out
// without a final answer.
func (o *Orchestrator) bestEffortText(st *State) string {
	var sb strings.Builder
	sb.WriteString("I couldn't finish answering within my step limit.")
	for i := len(st.History) - 1; i >= 0; i-- {
		out := st.History[i].Outcome
		if out != nil && out.Partial != "" {
			sb.WriteString(" Here is how far I got: ")
			sb.WriteString(out.Partial)
			break
		}
	}
	return sb.String()
}

// findingNotes summarizes non-blocking sanitizer findings for the
// perception prompt, so the model knows what was altered.
func findingNotes(findings []heuristics.Finding) string {
	var notes []string
	for _, f := range findings {
		if f.Severity == heuristics.SeverityWarning {
			notes = append(notes, f.Message)
		}
	}
	if len(notes) == 0 {
		return ""
	}
	return "input sanitizer notes: " + strings.Join(notes, "; ")
}

// carryNotes builds the next iteration's context from a non-final outcome.
func carryNotes(out *sandbox.Outcome) string {
	var parts []string
	if out.Partial != "" {
		parts = append(parts, out.Partial)
	}
	for _, f := range out.ToolFailures {
		parts = append(parts, fmt.Sprintf("earlier attempt: tool %s failed (%s)", f.Tool, f.Err))
	}
	return strings.Join(parts, "; ")
}
