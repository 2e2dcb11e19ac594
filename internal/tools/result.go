package tools

import (
	"encoding/json"
	"strings"
)

// Segment is one piece of a tool result: plain text or a structured payload.
type Segment struct {
	Text string         `json:"text,omitempty"`
	Data map[string]any `json:"data,omitempty"`
}

// Result is the shape every tool call returns. The core never looks past
// IsError and the payload text.
type Result struct {
	Content []Segment `json:"content"`
	IsError bool      `json:"is_error"`
}

// TextResult wraps plain text as a successful result.
func TextResult(text string) Result {
	return Result{Content: []Segment{{Text: text}}}
}

// ErrorResult wraps an error message as a failed result.
func ErrorResult(msg string) Result {
	return Result{Content: []Segment{{Text: msg}}, IsError: true}
}

// Text flattens the result content into a single string. Structured
// segments are rendered as compact JSON.
func (r Result) Text() string {
	var parts []string
	for _, seg := range r.Content {
		if seg.Text != "" {
			parts = append(parts, seg.Text)
			continue
		}
		if seg.Data != nil {
			if b, err := json.Marshal(seg.Data); err == nil {
				parts = append(parts, string(b))
			}
		}
	}
	return strings.Join(parts, "\n")
}
