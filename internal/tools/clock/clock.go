// Package clock provides the date/time tool server.
package clock

import (
	"context"
	"fmt"
	"time"

	"github.com/curioworks/curio/internal/tools"
)

// Now is swappable for tests.
var Now = time.Now

// NewNowTool returns the "time_now" tool: current date and time, optionally
// in a named IANA timezone.
func NewNowTool() tools.Tool {
	return tools.Tool{
		Name:        "time_now",
		Description: "Current date and time. Optional IANA timezone, e.g. \"Europe/Paris\".",
		Server:      "clock",
		Retryable:   true,
		SchemaJSON: `{
			"type": "object",
			"properties": {
				"timezone": {"type": "string", "description": "IANA timezone name (default UTC)"}
			}
		}`,
		Fn: func(ctx context.Context, args map[string]any) (tools.Result, error) {
			loc := time.UTC
			if tz, _ := args["timezone"].(string); tz != "" {
				parsed, err := time.LoadLocation(tz)
				if err != nil {
					return tools.Result{}, fmt.Errorf("unknown timezone %q", tz)
				}
				loc = parsed
			}
			return tools.TextResult(Now().In(loc).Format("Monday, 2006-01-02 15:04:05 MST")), nil
		},
	}
}

// NewDateDiffTool returns the "date_diff" tool: whole days between two
// ISO dates (to minus from, negative when from is later).
func NewDateDiffTool() tools.Tool {
	return tools.Tool{
		Name:        "date_diff",
		Description: "Number of days between two ISO dates (yyyy-mm-dd).",
		Server:      "clock",
		Retryable:   true,
		SchemaJSON: `{
			"type": "object",
			"properties": {
				"from": {"type": "string", "description": "Start date, yyyy-mm-dd"},
				"to":   {"type": "string", "description": "End date, yyyy-mm-dd"}
			},
			"required": ["from", "to"]
		}`,
		Fn: func(ctx context.Context, args map[string]any) (tools.Result, error) {
			from, _ := args["from"].(string)
			to, _ := args["to"].(string)
			start, err := time.Parse("2006-01-02", from)
			if err != nil {
				return tools.Result{}, fmt.Errorf("invalid from date %q", from)
			}
			end, err := time.Parse("2006-01-02", to)
			if err != nil {
				return tools.Result{}, fmt.Errorf("invalid to date %q", to)
			}
			days := int(end.Sub(start).Hours() / 24)
			return tools.TextResult(fmt.Sprintf("%d", days)), nil
		},
	}
}
