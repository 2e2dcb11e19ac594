package docsearch

import (
	"context"
	"fmt"
	"strings"

	"github.com/curioworks/curio/internal/tools"
)

// NewSearchTool returns the "doc_search" tool backed by the given index.
func NewSearchTool(idx *Index) tools.Tool {
	return tools.Tool{
		Name:        "doc_search",
		Description: "Full-text search over the local document collection. Returns the best matching passages.",
		Server:      "docsearch",
		Retryable:   true,
		SchemaJSON: `{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "Search terms"},
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

			hits, err := idx.Search(query, limit)
			if err != nil {
				return tools.Result{}, err
			}
			if len(hits) == 0 {
				return tools.TextResult("no matching documents"), nil
			}

			var sb strings.Builder
			for i, h := range hits {
				if i > 0 {
					sb.WriteString("\n---\n")
				}
				fmt.Fprintf(&sb, "%s (%s)\n%s", h.Title, h.Path, h.Snippet)
			}
			return tools.TextResult(sb.String()), nil
		},
	}
}
