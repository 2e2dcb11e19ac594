// Package tools defines the tool surface the agent can reach: the Tool
// declaration, the call result shape, and the registry that is the loop's
// only capability for invoking anything external.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Func executes a tool call with already-validated arguments.
type Func func(ctx context.Context, args map[string]any) (Result, error)

// Tool declares one callable tool: its name, what it does, the JSON schema
// its arguments must satisfy, and the server it belongs to.
type Tool struct {
	Name        string
	Description string
	Server      string // tool server id, e.g. "math", "docsearch"
	SchemaJSON  string
	Fn          Func
	Retryable   bool // safe to retry (idempotent)
}

// ValidateArgs validates args against the tool's JSON schema.
func (t Tool) ValidateArgs(args map[string]any) error {
	schemaLoader := gojsonschema.NewStringLoader(t.SchemaJSON)
	documentLoader := gojsonschema.NewGoLoader(args)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return &ValidationError{ToolName: t.Name, Errors: msgs}
	}
	return nil
}

// ValidationError indicates tool arguments failed schema validation.
type ValidationError struct {
	ToolName string
	Errors   []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("tool %s validation failed: %s", e.ToolName, strings.Join(e.Errors, "; "))
}

// CallError is a tool-level failure (timeout, remote error, bad input at
// runtime). It is non-fatal for the loop: the planner sees it and decides
// what to try next iteration.
type CallError struct {
	ToolName string
	Err      error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.ToolName, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }
