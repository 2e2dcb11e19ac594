// Package sandbox runs generated plans under a restricted capability
// surface. A plan is interpreted as data: the only thing it can reach is
// the single tool-call capability it was constructed with, plus read-only
// variables explicitly passed in. There is no filesystem, network, or
// process access to take away, because the interpreter never offers any.
package sandbox

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/curioworks/curio/internal/heuristics"
	"github.com/curioworks/curio/internal/planner"
	"github.com/curioworks/curio/internal/tools"
)

// ToolCaller is the one capability a plan may use. tools.Registry
// satisfies it.
type ToolCaller interface {
	Call(ctx context.Context, name string, args map[string]any) (tools.Result, error)
}

// Violation is a fatal breach of the execution contract: a reference to an
// undeclared variable, an undeclared tool, or a plan exceeding its bounds.
// The plan is discarded and replanning restarts from perception; it is
// never retried as-is.
type Violation struct {
	Reason string
}

func (e *Violation) Error() string {
	return fmt.Sprintf("sandbox violation: %s", e.Reason)
}

// ToolFailure records one failed tool invocation. Tool failures are
// ordinary results, not violations; the planner sees them next iteration.
type ToolFailure struct {
	Tool string `json:"tool"`
	Err  string `json:"error"`
}

// Outcome is the result of running one plan.
type Outcome struct {
	Success      bool              // plan ran to its terminal without tool failure
	Final        bool              // terminal kind was "final"
	Answer       string            // final answer text, when Final
	Partial      string            // carry-forward note, when not Final
	ToolsUsed    []string          // tools actually invoked, in order
	ToolFailures []ToolFailure     // failures encountered (non-fatal)
	Vars         map[string]string // new bindings to carry into the next iteration
}

// Executor interprets plans.
type Executor struct {
	caller ToolCaller
	cfg    Config
	log    zerolog.Logger
}

// New builds an executor over the given tool capability.
func New(caller ToolCaller, cfg Config, log zerolog.Logger) *Executor {
	return &Executor{caller: caller, cfg: cfg, log: log}
}

// Execute runs the plan's steps in order. carried is a read-only snapshot
// of variables from earlier iterations; step results extend a local copy,
// never the caller's map. The returned error is non-nil only for a
// *Violation or context cancellation; every tool-level failure is carried
// inside the Outcome.
func (e *Executor) Execute(ctx context.Context, plan *planner.Plan, carried map[string]string) (*Outcome, error) {
	if len(plan.Steps) > planner.MaxPlanSteps {
		return nil, &Violation{Reason: fmt.Sprintf("plan declares %d steps, maximum is %d", len(plan.Steps), planner.MaxPlanSteps)}
	}

	locals := make(map[string]string, len(carried))
	for k, v := range carried {
		locals[k] = v
	}
	outcome := &Outcome{Vars: make(map[string]string)}

	for i, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		args, err := e.substituteArgs(step.Args, locals)
		if err != nil {
			return nil, err
		}

		callCtx, cancel := context.WithTimeout(ctx, e.cfg.callTimeout())
		res, callErr := e.caller.Call(callCtx, step.Tool, args)
		cancel()

		outcome.ToolsUsed = append(outcome.ToolsUsed, step.Tool)

		if callErr != nil {
			e.log.Debug().Err(callErr).Str("tool", step.Tool).Int("step", i+1).Msg("tool call failed")
			outcome.ToolFailures = append(outcome.ToolFailures, ToolFailure{Tool: step.Tool, Err: callErr.Error()})
			outcome.Partial = fmt.Sprintf("tool %s failed: %v", step.Tool, callErr)
			return outcome, nil
		}

		text := e.truncate(res.Text())
		ok, fixed, msgs := heuristics.ValidateToolOutput(step.Tool, text)
		if !ok {
			outcome.ToolFailures = append(outcome.ToolFailures, ToolFailure{Tool: step.Tool, Err: strings.Join(msgs, "; ")})
			outcome.Partial = fmt.Sprintf("tool %s returned a malformed payload", step.Tool)
			return outcome, nil
		}
		text = fixed
		if res.IsError {
			outcome.ToolFailures = append(outcome.ToolFailures, ToolFailure{Tool: step.Tool, Err: text})
			outcome.Partial = fmt.Sprintf("tool %s reported an error: %s", step.Tool, text)
			return outcome, nil
		}

		if step.SaveAs != "" {
			locals[step.SaveAs] = text
			outcome.Vars[step.SaveAs] = text
		}
	}

	terminal, err := e.substituteText(plan.Terminal.Text, locals)
	if err != nil {
		return nil, err
	}

	outcome.Success = true
	switch plan.Terminal.Kind {
	case planner.TerminalFinal:
		outcome.Final = true
		outcome.Answer = terminal
	case planner.TerminalContinue:
		outcome.Partial = terminal
	default:
		return nil, &Violation{Reason: fmt.Sprintf("unknown terminal kind %q", plan.Terminal.Kind)}
	}
	return outcome, nil
}

// substituteArgs resolves $var references in string arguments against the
// locals. Referencing a variable that was never bound is a violation, not
// a silent empty string.
func (e *Executor) substituteArgs(args map[string]any, locals map[string]string) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for k, v := range args {
		s, ok := v.(string)
		if !ok {
			out[k] = v
			continue
		}
		resolved, err := e.substituteText(s, locals)
		if err != nil {
			return nil, err
		}
		out[k] = resolved
	}
	return out, nil
}

func (e *Executor) substituteText(text string, locals map[string]string) (string, error) {
	var missing string
	resolved := planner.VarRefRe.ReplaceAllStringFunc(text, func(ref string) string {
		name := strings.TrimPrefix(ref, "$")
		val, ok := locals[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return ref
		}
		return val
	})
	if missing != "" {
		return "", &Violation{Reason: fmt.Sprintf("reference to undeclared variable $%s", missing)}
	}
	return resolved, nil
}

// truncate caps a tool payload at the configured byte limit, backing up to
// a rune boundary so the carried text stays valid UTF-8.
func (e *Executor) truncate(s string) string {
	max := e.cfg.maxOutput()
	if int64(len(s)) <= max {
		return s
	}
	cut := int(max)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n[output truncated]"
}
