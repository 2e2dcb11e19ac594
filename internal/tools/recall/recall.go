// Package recall exposes the conversation index as a tool, letting a plan
// look up what was asked and answered before.
package recall

import (
	"context"
	"fmt"
	"strings"

	"github.com/curioworks/curio/internal/memory"
	"github.com/curioworks/curio/internal/tools"
)

// NewRecallTool returns the "memory_recall" tool over the shared index.
func NewRecallTool(idx *memory.Index) tools.Tool {
	return tools.Tool{
		Name:        "memory_recall",
		Description: "Search past conversations by keyword. Returns previous questions and their answers.",
		Server:      "recall",
		Retryable:   true,
		SchemaJSON: `{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "Keywords to look up"},
				"limit": {"type": "integer", "minimum": 1, "maximum": 10, "description": "Maximum results (default 3)"}
			},
			"required": ["query"]
		}`,
		Fn: func(ctx context.Context, args map[string]any) (tools.Result, error) {
			query, _ := args["query"].(string)
			limit := 3
			if v, ok := args["limit"].(float64); ok && v >= 1 {
				limit = int(v)
			}

			entries := idx.Search(query, limit)
			if len(entries) == 0 {
				return tools.TextResult("no matching past conversations"), nil
			}

			var sb strings.Builder
			for i, e := range entries {
				if i > 0 {
					sb.WriteString("\n---\n")
				}
				fmt.Fprintf(&sb, "[%s] Q: %s", e.Timestamp.Format("2006-01-02"), e.Sanitized)
				if e.Answer != "" {
					fmt.Fprintf(&sb, "\nA: %s", e.Answer)
				}
			}
			return tools.TextResult(sb.String()), nil
		},
	}
}
