package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curioworks/curio/internal/logging"
	"github.com/curioworks/curio/internal/planner"
	"github.com/curioworks/curio/internal/tools"
)

// fakeCaller records calls and replies from a script keyed by tool name.
type fakeCaller struct {
	results map[string]tools.Result
	errs    map[string]error
	calls   []map[string]any
}

func (f *fakeCaller) Call(ctx context.Context, name string, args map[string]any) (tools.Result, error) {
	f.calls = append(f.calls, args)
	if err, ok := f.errs[name]; ok {
		return tools.Result{}, err
	}
	if res, ok := f.results[name]; ok {
		return res, nil
	}
	return tools.TextResult("ok"), nil
}

func newExecutor(caller ToolCaller) *Executor {
	return New(caller, Config{}, logging.Nop())
}

func TestExecuteChainsVariables(t *testing.T) {
	caller := &fakeCaller{results: map[string]tools.Result{
		"math_eval": tools.TextResult("4"),
		"time_now":  tools.TextResult("2026-08-27T10:00:00Z"),
	}}
	plan := &planner.Plan{
		Name: "sum_then_report",
		Steps: []planner.Step{
			{Tool: "math_eval", Args: map[string]any{"expression": "2+2"}, SaveAs: "sum"},
			{Tool: "time_now", Args: map[string]any{"note": "computed $sum"}, SaveAs: "when"},
		},
		Terminal: planner.Terminal{Kind: planner.TerminalFinal, Text: "The result is $sum (at $when)"},
	}

	out, err := newExecutor(caller).Execute(context.Background(), plan, nil)
	require.NoError(t, err)
	require.True(t, out.Success)
	require.True(t, out.Final)
	assert.Equal(t, "The result is 4 (at 2026-08-27T10:00:00Z)", out.Answer)
	assert.Equal(t, []string{"math_eval", "time_now"}, out.ToolsUsed)
	assert.Equal(t, map[string]string{"sum": "4", "when": "2026-08-27T10:00:00Z"}, out.Vars)

	// The second call must see the first step's binding substituted in.
	require.Len(t, caller.calls, 2)
	assert.Equal(t, "computed 4", caller.calls[1]["note"])
}

func TestExecuteCarriedVarsAreReadable(t *testing.T) {
	caller := &fakeCaller{}
	plan := &planner.Plan{
		Name:     "report",
		Terminal: planner.Terminal{Kind: planner.TerminalFinal, Text: "Previously: $earlier"},
	}

	out, err := newExecutor(caller).Execute(context.Background(), plan, map[string]string{"earlier": "42"})
	require.NoError(t, err)
	assert.Equal(t, "Previously: 42", out.Answer)
	// Carried variables are inputs, not new bindings.
	assert.Empty(t, out.Vars)
}

func TestExecuteToolFailureIsNonFatal(t *testing.T) {
	caller := &fakeCaller{errs: map[string]error{
		"doc_search": errors.New("index unavailable"),
	}}
	plan := &planner.Plan{
		Name: "lookup",
		Steps: []planner.Step{
			{Tool: "doc_search", Args: map[string]any{"query": "release notes"}},
			{Tool: "math_eval", Args: map[string]any{"expression": "1"}},
		},
		Terminal: planner.Terminal{Kind: planner.TerminalFinal, Text: "done"},
	}

	out, err := newExecutor(caller).Execute(context.Background(), plan, nil)
	require.NoError(t, err, "tool failure must not surface as an execution error")
	assert.False(t, out.Success)
	assert.False(t, out.Final)
	require.Len(t, out.ToolFailures, 1)
	assert.Equal(t, "doc_search", out.ToolFailures[0].Tool)
	// Execution halts at the failed step.
	assert.Equal(t, []string{"doc_search"}, out.ToolsUsed)
}

func TestExecuteErrorResultIsNonFatal(t *testing.T) {
	caller := &fakeCaller{results: map[string]tools.Result{
		"math_eval": tools.ErrorResult("division by zero"),
	}}
	plan := &planner.Plan{
		Name:     "divide",
		Steps:    []planner.Step{{Tool: "math_eval", Args: map[string]any{"expression": "1/0"}}},
		Terminal: planner.Terminal{Kind: planner.TerminalFinal, Text: "done"},
	}

	out, err := newExecutor(caller).Execute(context.Background(), plan, nil)
	require.NoError(t, err)
	assert.False(t, out.Success)
	require.Len(t, out.ToolFailures, 1)
	assert.Contains(t, out.ToolFailures[0].Err, "division by zero")
}

func TestExecuteUndeclaredVariableIsViolation(t *testing.T) {
	plan := &planner.Plan{
		Name:     "bad_ref",
		Steps:    []planner.Step{{Tool: "math_eval", Args: map[string]any{"expression": "$never_bound + 1"}}},
		Terminal: planner.Terminal{Kind: planner.TerminalFinal, Text: "done"},
	}

	caller := &fakeCaller{}
	_, err := newExecutor(caller).Execute(context.Background(), plan, nil)
	var v *Violation
	require.ErrorAs(t, err, &v)
	assert.Contains(t, v.Reason, "never_bound")
	assert.Empty(t, caller.calls, "no tool may run after a violation")
}

func TestExecuteUndeclaredVariableInTerminal(t *testing.T) {
	plan := &planner.Plan{
		Name:     "bad_terminal",
		Terminal: planner.Terminal{Kind: planner.TerminalFinal, Text: "answer: $ghost"},
	}

	_, err := newExecutor(&fakeCaller{}).Execute(context.Background(), plan, nil)
	var v *Violation
	require.ErrorAs(t, err, &v)
}

func TestExecuteStepCountViolation(t *testing.T) {
	steps := make([]planner.Step, planner.MaxPlanSteps+1)
	for i := range steps {
		steps[i] = planner.Step{Tool: "math_eval", Args: map[string]any{"expression": "1"}}
	}
	plan := &planner.Plan{
		Name:     "too_long",
		Steps:    steps,
		Terminal: planner.Terminal{Kind: planner.TerminalFinal, Text: "done"},
	}

	_, err := newExecutor(&fakeCaller{}).Execute(context.Background(), plan, nil)
	var v *Violation
	require.ErrorAs(t, err, &v)
}

func TestExecuteTruncatesOutput(t *testing.T) {
	long := strings.Repeat("x", 100)
	caller := &fakeCaller{results: map[string]tools.Result{
		"doc_search": tools.TextResult(long),
	}}
	exec := New(caller, Config{MaxOutput: 10}, logging.Nop())
	plan := &planner.Plan{
		Name:     "search",
		Steps:    []planner.Step{{Tool: "doc_search", Args: map[string]any{"query": "q"}, SaveAs: "hits"}},
		Terminal: planner.Terminal{Kind: planner.TerminalContinue, Text: "still going"},
	}

	out, err := exec.Execute(context.Background(), plan, nil)
	require.NoError(t, err)
	assert.Equal(t, "xxxxxxxxxx\n[output truncated]", out.Vars["hits"])
}

func TestExecuteTruncatesOnRuneBoundary(t *testing.T) {
	// 4-byte runes with a limit that lands mid-rune; the cut must back up so
	// the carried variable stays valid UTF-8.
	long := strings.Repeat("🦉", 10)
	caller := &fakeCaller{results: map[string]tools.Result{
		"doc_search": tools.TextResult(long),
	}}
	exec := New(caller, Config{MaxOutput: 10}, logging.Nop())
	plan := &planner.Plan{
		Name:     "search",
		Steps:    []planner.Step{{Tool: "doc_search", Args: map[string]any{"query": "q"}, SaveAs: "hits"}},
		Terminal: planner.Terminal{Kind: planner.TerminalContinue, Text: "still going"},
	}

	out, err := exec.Execute(context.Background(), plan, nil)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(out.Vars["hits"]))
	assert.Equal(t, strings.Repeat("🦉", 2)+"\n[output truncated]", out.Vars["hits"])
}

func TestExecuteRejectsMalformedJSONPayload(t *testing.T) {
	caller := &fakeCaller{results: map[string]tools.Result{
		"fetch_json": tools.TextResult("{not json"),
	}}
	plan := &planner.Plan{
		Name:     "fetch",
		Steps:    []planner.Step{{Tool: "fetch_json", Args: map[string]any{"url": "example"}, SaveAs: "doc"}},
		Terminal: planner.Terminal{Kind: planner.TerminalFinal, Text: "$doc"},
	}

	out, err := newExecutor(caller).Execute(context.Background(), plan, nil)
	require.NoError(t, err)
	assert.False(t, out.Success)
	require.Len(t, out.ToolFailures, 1)
	assert.Contains(t, out.ToolFailures[0].Err, "invalid JSON")
}

func TestExecuteContinueTerminal(t *testing.T) {
	plan := &planner.Plan{
		Name:     "partial",
		Terminal: planner.Terminal{Kind: planner.TerminalContinue, Text: "need the exchange rate next"},
	}

	out, err := newExecutor(&fakeCaller{}).Execute(context.Background(), plan, nil)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.False(t, out.Final)
	assert.Equal(t, "need the exchange rate next", out.Partial)
}

func TestExecuteRespectsCallTimeout(t *testing.T) {
	slow := callerFunc(func(ctx context.Context, name string, args map[string]any) (tools.Result, error) {
		select {
		case <-ctx.Done():
			return tools.Result{}, fmt.Errorf("tool %s: %w", name, ctx.Err())
		case <-time.After(2 * time.Second):
			return tools.TextResult("too late"), nil
		}
	})
	exec := New(slow, Config{CallTimeout: 10 * time.Millisecond}, logging.Nop())
	plan := &planner.Plan{
		Name:     "slow",
		Steps:    []planner.Step{{Tool: "doc_search", Args: map[string]any{"query": "q"}}},
		Terminal: planner.Terminal{Kind: planner.TerminalFinal, Text: "done"},
	}

	out, err := exec.Execute(context.Background(), plan, nil)
	require.NoError(t, err)
	assert.False(t, out.Success)
	require.Len(t, out.ToolFailures, 1)
	assert.Contains(t, out.ToolFailures[0].Err, "deadline exceeded")
}

func TestExecuteCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	plan := &planner.Plan{
		Name:     "cancelled",
		Steps:    []planner.Step{{Tool: "math_eval", Args: map[string]any{"expression": "1"}}},
		Terminal: planner.Terminal{Kind: planner.TerminalFinal, Text: "done"},
	}

	_, err := newExecutor(&fakeCaller{}).Execute(ctx, plan, nil)
	require.ErrorIs(t, err, context.Canceled)
}

type callerFunc func(ctx context.Context, name string, args map[string]any) (tools.Result, error)

func (f callerFunc) Call(ctx context.Context, name string, args map[string]any) (tools.Result, error) {
	return f(ctx, name, args)
}
