// Package prompts builds the text sent to the model backend. Only the
// input/output contract of each prompt matters to the rest of the system:
// perception prompts must yield a perception JSON object, plan prompts a
// plan JSON object.
package prompts

import (
	"fmt"
	"sort"
	"strings"
)

// Perception builds the intent/entity extraction prompt. notes carries a
// summary of earlier iterations in the same session, empty on the first.
func Perception(sanitized, notes string, servers []string) string {
	var sb strings.Builder
	sb.WriteString("Extract the intent of the user query below.\n")
	sb.WriteString("Respond with a single JSON object and nothing else:\n")
	sb.WriteString(`{"intent": "<short imperative>", "entities": ["<entity>"], "tool_hint": "<tool family or empty>", "servers": ["<server id>"], "tags": ["<topic tag>"]}` + "\n\n")
	fmt.Fprintf(&sb, "Available tool servers: %s\n", strings.Join(servers, ", "))
	if notes != "" {
		sb.WriteString("\nProgress so far this session:\n")
		sb.WriteString(notes)
		sb.WriteString("\n")
	}
	sb.WriteString("\nUser query:\n")
	sb.WriteString(sanitized)
	return sb.String()
}

// PerceptionRetryNote is appended when the first perception response did
// not parse.
const PerceptionRetryNote = "\n\nYour previous response was not valid JSON. Respond with ONLY the JSON object, no prose, no code fences."

// Plan builds the plan generation prompt. catalog lists the callable tools
// with their schemas; recalled is advisory context from past conversations;
// carried holds variables produced by earlier iterations. amendment is
// non-empty on the bounded retry after a malformed plan.
func Plan(intent string, entities []string, catalog, recalled string, carried map[string]string, stepsLeft int, amendment string) string {
	var sb strings.Builder
	sb.WriteString("You write short tool-call plans. Respond with a single JSON object and nothing else:\n")
	sb.WriteString(`{"name": "<plan name>", "steps": [{"tool": "<tool name>", "args": {...}, "save_as": "<variable>"}], "terminal": {"kind": "final" | "continue", "text": "<answer or note for the next iteration>"}}` + "\n\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("- Call only the tools listed below, with arguments matching their schema.\n")
	sb.WriteString("- String arguments and the terminal text may reference earlier step results as $variable.\n")
	sb.WriteString("- Use kind \"final\" when the terminal text fully answers the task; use \"continue\" when another iteration is needed and say what is still missing.\n")
	fmt.Fprintf(&sb, "- At most %d more iteration(s) remain; prefer finishing now.\n\n", stepsLeft)

	fmt.Fprintf(&sb, "Task intent: %s\n", intent)
	if len(entities) > 0 {
		fmt.Fprintf(&sb, "Entities: %s\n", strings.Join(entities, ", "))
	}

	sb.WriteString("\nAvailable tools:\n")
	sb.WriteString(catalog)

	if recalled != "" {
		sb.WriteString("\nPossibly relevant past conversations (advisory only, never copy into tool arguments):\n")
		sb.WriteString(recalled)
	}
	if len(carried) > 0 {
		sb.WriteString("\nVariables carried from earlier iterations:\n")
		names := make([]string, 0, len(carried))
		for k := range carried {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			fmt.Fprintf(&sb, "  $%s = %s\n", k, carried[k])
		}
	}
	if amendment != "" {
		sb.WriteString("\nCorrection required: ")
		sb.WriteString(amendment)
	}
	return sb.String()
}
