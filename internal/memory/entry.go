// Package memory is the agent's long-term conversation store: an append-only
// log of past interactions plus an in-memory keyword index over it. The log
// is the source of truth; the index is a cache rebuilt from it on load.
package memory

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry is one recorded interaction. Entries are append-only: once written
// they are never mutated or deleted.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Query     string    `json:"query"`
	Sanitized string    `json:"sanitized"`
	Answer    string    `json:"answer,omitempty"` // empty when the cycle failed before an answer
	ToolsUsed []string  `json:"tools_used,omitempty"`
	Keywords  []string  `json:"keywords"`
}

// NewEntry builds an entry with a fresh ID, the current timestamp, and the
// keyword set derived from query + answer.
func NewEntry(query, sanitized, answer string, toolsUsed []string) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Query:     query,
		Sanitized: sanitized,
		Answer:    answer,
		ToolsUsed: toolsUsed,
		Keywords:  Tokenize(sanitized + " " + answer),
	}
}

var tokenRe = regexp.MustCompile(`[a-z0-9]+`)

// stopWords are dropped during tokenization. The list is deliberately short;
// keyword overlap is a cheap relevance proxy, not a ranking model.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "how": true, "i": true,
	"in": true, "is": true, "it": true, "me": true, "my": true, "of": true,
	"on": true, "or": true, "that": true, "the": true, "this": true,
	"to": true, "was": true, "what": true, "when": true, "where": true,
	"which": true, "who": true, "will": true, "with": true, "you": true,
}

// Tokenize lowercases the text, splits it into alphanumeric runs, drops stop
// words and single characters, and returns the sorted, de-duplicated result.
// Add and Search must use the same tokenization or lookups silently miss.
func Tokenize(text string) []string {
	seen := make(map[string]bool)
	for _, tok := range tokenRe.FindAllString(strings.ToLower(text), -1) {
		if len(tok) < 2 || stopWords[tok] {
			continue
		}
		seen[tok] = true
	}
	out := make([]string, 0, len(seen))
	for tok := range seen {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}
