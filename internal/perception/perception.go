// Package perception turns sanitized query text into a structured reading
// of what the user wants: intent, entities, and which tool servers look
// relevant.
package perception

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"

	"github.com/curioworks/curio/internal/prompts"
	"github.com/curioworks/curio/internal/providers"
)

// Result is one iteration's reading of the query. It is never mutated after
// creation; a later iteration produces a new one.
type Result struct {
	Intent   string   `json:"intent"`
	Entities []string `json:"entities"`
	ToolHint string   `json:"tool_hint"`
	Servers  []string `json:"servers"`
	Tags     []string `json:"tags"`
}

// ParseError indicates the model's perception output could not be parsed
// or failed schema validation, after the bounded retry.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("perception output unparseable: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// resultSchema validates the shape of the model's JSON before it is trusted.
const resultSchema = `{
	"type": "object",
	"properties": {
		"intent":    {"type": "string", "minLength": 1},
		"entities":  {"type": "array", "items": {"type": "string"}},
		"tool_hint": {"type": "string"},
		"servers":   {"type": "array", "items": {"type": "string"}},
		"tags":      {"type": "array", "items": {"type": "string"}}
	},
	"required": ["intent"]
}`

// Generator is the model capability perception needs.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Extractor runs perception against a model backend.
type Extractor struct {
	model   Generator
	servers []string // known tool server ids, advertised in the prompt
	log     zerolog.Logger

	// Timeout bounds each model call. Zero means providers.GenerateTimeout().
	Timeout time.Duration
}

// NewExtractor builds an extractor advertising the given tool servers.
func NewExtractor(model Generator, servers []string, log zerolog.Logger) *Extractor {
	return &Extractor{model: model, servers: servers, log: log}
}

func (e *Extractor) generate(ctx context.Context, prompt string) (string, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = providers.GenerateTimeout()
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return e.model.Generate(callCtx, prompt)
}

// Extract asks the model for a structured reading of the sanitized query.
// Malformed output gets exactly one retry with an amended instruction; a
// second failure surfaces as *ParseError. Each model call runs under a
// bounded timeout; a stalled backend surfaces as an ordinary call error.
func (e *Extractor) Extract(ctx context.Context, sanitized, notes string) (*Result, error) {
	prompt := prompts.Perception(sanitized, notes, e.servers)

	raw, err := e.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("perception call failed: %w", err)
	}
	res, parseErr := parseResult(raw)
	if parseErr == nil {
		return res, nil
	}

	e.log.Debug().Err(parseErr).Msg("perception output malformed, retrying once")
	raw2, err := e.generate(ctx, prompt+prompts.PerceptionRetryNote)
	if err != nil {
		return nil, fmt.Errorf("perception retry call failed: %w", err)
	}
	res, parseErr = parseResult(raw2)
	if parseErr != nil {
		return nil, &ParseError{Raw: raw2, Err: parseErr}
	}
	return res, nil
}

func parseResult(raw string) (*Result, error) {
	jsonText, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}

	validation, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(resultSchema),
		gojsonschema.NewStringLoader(jsonText),
	)
	if err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}
	if !validation.Valid() {
		var msgs []string
		for _, e := range validation.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("invalid perception object: %s", strings.Join(msgs, "; "))
	}

	var res Result
	if err := json.Unmarshal([]byte(jsonText), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ExtractJSON pulls the first top-level JSON object out of model output,
// tolerating code fences and surrounding prose.
func ExtractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	if start < 0 {
		return "", fmt.Errorf("no JSON object found")
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object")
}
