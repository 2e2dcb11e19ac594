// Package heuristics validates and rewrites user queries before any model
// or tool interaction. The gate is deterministic and pure: the same input
// always yields the same sanitized text and the same findings, in the same
// order. It never calls external services and never returns an error.
package heuristics

import "fmt"

// Severity classifies a finding.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityBlocking Severity = "blocking"
)

// Finding records a single rule hit: what matched and what (if anything)
// replaced it. Blocking findings flag the query as unsafe to execute; they
// do not necessarily rewrite the text.
type Finding struct {
	Rule        string   `json:"rule"`
	Severity    Severity `json:"severity"`
	Fragment    string   `json:"fragment,omitempty"`
	Replacement string   `json:"replacement,omitempty"`
	Message     string   `json:"message"`
}

func (f Finding) String() string {
	return fmt.Sprintf("[%s] %s: %s", f.Severity, f.Rule, f.Message)
}

// Blocking reports whether the finding gates the whole cycle.
func (f Finding) Blocking() bool { return f.Severity == SeverityBlocking }

// DefaultMaxQueryLength caps sanitized queries to keep prompts bounded.
const DefaultMaxQueryLength = 500

// rule is one entry in the gate's fixed battery. Rules are independent in
// effect but run in a fixed order so findings are reproducible.
type rule struct {
	name  string
	apply func(g *Gate, query string) (string, []Finding)
}

// Gate runs the ordered battery of text rules.
type Gate struct {
	MaxLength int // maximum sanitized length in characters (0 = DefaultMaxQueryLength)

	rules []rule
}

// NewGate returns a gate with the full rule battery in its canonical order.
func NewGate() *Gate {
	g := &Gate{MaxLength: DefaultMaxQueryLength}
	g.rules = []rule{
		{"typo_correction", (*Gate).fixTypos},
		{"banned_content", (*Gate).filterBannedWords},
		{"date_normalization", (*Gate).normalizeDates},
		{"email_correction", (*Gate).fixEmailDomains},
		{"unsafe_command", (*Gate).detectUnsafeCommands},
		{"url_filter", (*Gate).filterSuspiciousURLs},
		{"numeric_normalization", (*Gate).normalizeNumbers},
		{"pii_redaction", (*Gate).redactPII},
		{"whitespace_cleanup", (*Gate).cleanWhitespace},
		{"length_cap", (*Gate).capLength},
	}
	return g
}

// maxApplyPasses bounds the fixed-point iteration in Apply. Truncation can
// expose at most one new rewrite per rule at the cut point, so the battery
// settles within a couple of extra passes.
const maxApplyPasses = 3

// Apply runs every rule in order and returns the sanitized text plus all
// findings. Apply is idempotent: feeding the sanitized output back through
// the gate produces the same text. An unrecognized character or encoding
// oddity degrades to "no fix applied", never a failure.
func (g *Gate) Apply(query string) (string, []Finding) {
	sanitized, findings := g.applyOnce(query)
	// Truncation can turn a non-matching fragment into a matching one (a cut
	// address may now end in a known typo domain), so rerun the battery until
	// the text stops changing.
	for i := 0; i < maxApplyPasses; i++ {
		next, more := g.applyOnce(sanitized)
		if next == sanitized {
			break
		}
		sanitized = next
		findings = append(findings, more...)
	}
	return sanitized, findings
}

// applyOnce is a single ordered pass over the rule battery.
func (g *Gate) applyOnce(query string) (string, []Finding) {
	sanitized := query
	var findings []Finding
	for _, r := range g.rules {
		var fs []Finding
		sanitized, fs = r.apply(g, sanitized)
		findings = append(findings, fs...)
	}
	return sanitized, findings
}

// HasBlocking reports whether any finding in the slice is blocking.
func HasBlocking(findings []Finding) bool {
	for _, f := range findings {
		if f.Blocking() {
			return true
		}
	}
	return false
}
