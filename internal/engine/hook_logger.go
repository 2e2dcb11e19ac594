package engine

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/curioworks/curio/internal/heuristics"
	"github.com/curioworks/curio/internal/memory"
	"github.com/curioworks/curio/internal/perception"
	"github.com/curioworks/curio/internal/planner"
	"github.com/curioworks/curio/internal/sandbox"
)

// LogHook traces the loop through a zerolog logger.
type LogHook struct {
	NopHook
	Log zerolog.Logger
}

func (h LogHook) OnPhase(ctx context.Context, st *State, p Phase) {
	h.Log.Debug().Str("phase", string(p)).Int("step", st.Step).Msg("phase")
}

func (h LogHook) OnSanitized(ctx context.Context, st *State, findings []heuristics.Finding) {
	ev := h.Log.Debug().Int("findings", len(findings))
	if heuristics.HasBlocking(findings) {
		ev = h.Log.Warn().Int("findings", len(findings)).Bool("blocking", true)
	}
	ev.Msg("query sanitized")
}

func (h LogHook) OnPerception(ctx context.Context, st *State, r *perception.Result, err error) {
	if err != nil {
		h.Log.Warn().Err(err).Msg("perception failed")
		return
	}
	h.Log.Debug().Str("intent", r.Intent).Strs("servers", r.Servers).Msg("perception")
}

func (h LogHook) OnRecall(ctx context.Context, st *State, entries []memory.Entry) {
	h.Log.Debug().Int("recalled", len(entries)).Msg("memory recall")
}

func (h LogHook) OnPlan(ctx context.Context, st *State, p *planner.Plan, err error) {
	if err != nil {
		h.Log.Warn().Err(err).Msg("planning failed")
		return
	}
	h.Log.Debug().Str("plan", p.Name).Int("steps", len(p.Steps)).Strs("tools", p.Tools()).Msg("plan generated")
}

func (h LogHook) OnOutcome(ctx context.Context, st *State, o *sandbox.Outcome, err error) {
	if err != nil {
		h.Log.Warn().Err(err).Msg("execution faulted")
		return
	}
	ev := h.Log.Debug().Bool("success", o.Success).Bool("final", o.Final)
	if len(o.ToolFailures) > 0 {
		ev = ev.Int("tool_failures", len(o.ToolFailures))
	}
	ev.Msg("plan executed")
}

func (h LogHook) OnAnswer(ctx context.Context, st *State, answer string) {
	h.Log.Info().Int("steps", st.Step).Int("chars", len(answer)).Msg("answer ready")
}

func (h LogHook) OnMemoryWrite(ctx context.Context, st *State, e memory.Entry, err error) {
	if err != nil {
		h.Log.Error().Err(err).Msg("memory write failed")
		return
	}
	h.Log.Debug().Str("entry", e.ID).Msg("memory entry written")
}
