package heuristics

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ValidateToolOutput checks a tool payload against the format its name
// implies. Tools whose name contains "json" must return well-formed JSON;
// the payload is re-marshaled in compact form when valid. Everything else
// passes through unchanged.
func ValidateToolOutput(toolName, output string) (ok bool, fixed string, messages []string) {
	if strings.Contains(strings.ToLower(toolName), "json") {
		var parsed any
		if err := json.Unmarshal([]byte(output), &parsed); err != nil {
			return false, "", []string{fmt.Sprintf("invalid JSON output from %s", toolName)}
		}
		compact, err := json.Marshal(parsed)
		if err != nil {
			return false, "", []string{fmt.Sprintf("unserializable output from %s", toolName)}
		}
		return true, string(compact), nil
	}
	return true, output, nil
}

var (
	wordRe   = regexp.MustCompile(`\b[A-Za-z]+\b`)
	entityRe = regexp.MustCompile(`\b(?:the|an|a)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`)
)

// CheckHallucination flags capitalized entities in the answer that share no
// terms with the query. It is a cheap lexical proxy, good for a warning and
// nothing more; the engine never blocks an answer on it.
func CheckHallucination(query, answer string) (suspect bool, reasons []string) {
	queryTerms := make(map[string]bool)
	for _, w := range wordRe.FindAllString(strings.ToLower(query), -1) {
		queryTerms[w] = true
	}

	for _, m := range entityRe.FindAllStringSubmatch(answer, -1) {
		entity := m[1]
		overlap := false
		for _, w := range wordRe.FindAllString(strings.ToLower(entity), -1) {
			if queryTerms[w] {
				overlap = true
				break
			}
		}
		if !overlap {
			reasons = append(reasons, fmt.Sprintf("answer mentions %q which was not in the query", entity))
		}
	}
	return len(reasons) > 0, reasons
}
