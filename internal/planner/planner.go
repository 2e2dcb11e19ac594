package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/curioworks/curio/internal/memory"
	"github.com/curioworks/curio/internal/perception"
	"github.com/curioworks/curio/internal/prompts"
	"github.com/curioworks/curio/internal/providers"
	"github.com/curioworks/curio/internal/tools"
)

// Generator is the model capability the planner needs.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Planner generates plans from perception output and available tools.
type Planner struct {
	model Generator
	log   zerolog.Logger

	// Timeout bounds each model call. Zero means providers.GenerateTimeout().
	Timeout time.Duration
}

// New builds a planner over the given model backend.
func New(model Generator, log zerolog.Logger) *Planner {
	return &Planner{model: model, log: log}
}

func (pl *Planner) generate(ctx context.Context, prompt string) (string, error) {
	timeout := pl.Timeout
	if timeout <= 0 {
		timeout = providers.GenerateTimeout()
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return pl.model.Generate(callCtx, prompt)
}

// Plan selects the tool subset matching the perception's server choice,
// prompts the model, and validates the result. A malformed plan gets
// exactly one retry with an amended instruction naming the defect; a second
// failure surfaces as *GenerationError.
func (pl *Planner) Plan(
	ctx context.Context,
	perc *perception.Result,
	recalled []memory.Entry,
	reg tools.Registry,
	carried map[string]string,
	stepsLeft int,
) (*Plan, error) {
	selected := reg.FilterByServers(perc.Servers)
	catalog := renderCatalog(selected)
	recalledText := renderRecalled(recalled)

	prompt := prompts.Plan(perc.Intent, perc.Entities, catalog, recalledText, carried, stepsLeft, "")
	raw, err := pl.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("plan call failed: %w", err)
	}
	plan, parseErr := parsePlan(raw, selected)
	if parseErr == nil {
		return plan, nil
	}

	pl.log.Debug().Err(parseErr).Msg("plan malformed, retrying once with amendment")
	amended := prompts.Plan(perc.Intent, perc.Entities, catalog, recalledText, carried, stepsLeft, parseErr.Error())
	raw2, err := pl.generate(ctx, amended)
	if err != nil {
		return nil, fmt.Errorf("plan retry call failed: %w", err)
	}
	plan, parseErr = parsePlan(raw2, selected)
	if parseErr != nil {
		return nil, &GenerationError{Raw: raw2, Reason: parseErr.Error()}
	}
	return plan, nil
}

// renderCatalog lists each tool with its description and argument schema
// for the plan prompt.
func renderCatalog(reg tools.Registry) string {
	var sb strings.Builder
	for _, name := range reg.Names() {
		t := reg[name]
		fmt.Fprintf(&sb, "- %s: %s\n  args schema: %s\n", t.Name, t.Description, compactWhitespace(t.SchemaJSON))
	}
	return sb.String()
}

func renderRecalled(entries []memory.Entry) string {
	if len(entries) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "- Q: %s", e.Sanitized)
		if e.Answer != "" {
			fmt.Fprintf(&sb, " | A: %s", e.Answer)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func compactWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
