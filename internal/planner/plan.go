// Package planner turns a perception result into a bounded, executable
// plan: an ordered list of declared tool calls plus exactly one terminal
// statement. Plans are data, generated fresh every iteration and never
// reused.
package planner

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/curioworks/curio/internal/perception"
	"github.com/curioworks/curio/internal/tools"
)

// TerminalKind says how a plan ends.
type TerminalKind string

const (
	// TerminalFinal means the terminal text is the final answer.
	TerminalFinal TerminalKind = "final"
	// TerminalContinue means another iteration is required; the terminal
	// text describes what is still missing.
	TerminalContinue TerminalKind = "continue"
)

// Step is one declared tool call. SaveAs, when set, binds the call's text
// result to a variable that later steps and the terminal text may reference
// as $name.
type Step struct {
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args"`
	SaveAs string         `json:"save_as,omitempty"`
}

// Terminal is the plan's single exit statement.
type Terminal struct {
	Kind TerminalKind `json:"kind"`
	Text string       `json:"text"`
}

// Plan is a named procedure over declared tools.
type Plan struct {
	Name     string   `json:"name"`
	Steps    []Step   `json:"steps"`
	Terminal Terminal `json:"terminal"`
}

// Tools returns the tool names the plan calls, in call order.
func (p *Plan) Tools() []string {
	names := make([]string, 0, len(p.Steps))
	for _, s := range p.Steps {
		names = append(names, s.Tool)
	}
	return names
}

// GenerationError indicates the model produced a malformed or invalid plan
// after the bounded retry.
type GenerationError struct {
	Raw    string
	Reason string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("plan generation failed: %s", e.Reason)
}

// MaxPlanSteps bounds how many tool calls one plan may declare.
const MaxPlanSteps = 5

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// VarRefRe matches $variable references inside string arguments and
// terminal text.
var VarRefRe = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)

// parsePlan decodes and structurally validates model output against the
// tool registry. The returned error text is fed back to the model on the
// amended retry, so it states exactly what to fix.
func parsePlan(raw string, reg tools.Registry) (*Plan, error) {
	jsonText, err := perception.ExtractJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("output is not a JSON object: %v", err)
	}

	var p Plan
	if err := json.Unmarshal([]byte(jsonText), &p); err != nil {
		return nil, fmt.Errorf("plan does not decode: %v", err)
	}

	if p.Terminal.Kind != TerminalFinal && p.Terminal.Kind != TerminalContinue {
		return nil, fmt.Errorf("terminal.kind must be %q or %q", TerminalFinal, TerminalContinue)
	}
	if len(p.Steps) > MaxPlanSteps {
		return nil, fmt.Errorf("plan declares %d steps, maximum is %d", len(p.Steps), MaxPlanSteps)
	}

	declared := make(map[string]bool)
	for i, s := range p.Steps {
		t, ok := reg[s.Tool]
		if !ok {
			return nil, fmt.Errorf("step %d references unknown tool %q (available: %v)", i+1, s.Tool, reg.Names())
		}
		if s.SaveAs != "" {
			if !identRe.MatchString(s.SaveAs) {
				return nil, fmt.Errorf("step %d save_as %q is not a valid identifier", i+1, s.SaveAs)
			}
			if declared[s.SaveAs] {
				return nil, fmt.Errorf("step %d redeclares variable %q", i+1, s.SaveAs)
			}
			declared[s.SaveAs] = true
		}

		deferred := false
		for key, v := range s.Args {
			switch val := v.(type) {
			case string:
				if VarRefRe.MatchString(val) {
					// Placeholder args are validated after substitution,
					// at execution time.
					deferred = true
				}
			case float64, bool, nil:
			default:
				return nil, fmt.Errorf("step %d argument %q is not a flat value", i+1, key)
			}
		}
		if !deferred {
			if err := t.ValidateArgs(s.Args); err != nil {
				return nil, fmt.Errorf("step %d: %v", i+1, err)
			}
		}
	}
	return &p, nil
}
