package heuristics

import (
	"strings"
	"testing"
)

func countRule(findings []Finding, rule string) int {
	n := 0
	for _, f := range findings {
		if f.Rule == rule {
			n++
		}
	}
	return n
}

func TestApplyTypoCorrection(t *testing.T) {
	g := NewGate()
	sanitized, findings := g.Apply("summerize this documnet about artifical intellgence")

	if want := "summarize this document about artificial intelligence"; sanitized != want {
		t.Errorf("sanitized = %q, want %q", sanitized, want)
	}
	if got := countRule(findings, "typo_correction"); got != 3 {
		t.Errorf("typo findings = %d, want 3", got)
	}
}

func TestApplyEmailDomainCorrection(t *testing.T) {
	g := NewGate()
	sanitized, findings := g.Apply("Email me at john.doe@gmal.com")

	if !strings.Contains(sanitized, "john.doe@gmail.com") {
		t.Errorf("sanitized = %q, want it to contain john.doe@gmail.com", sanitized)
	}
	if got := countRule(findings, "email_correction"); got != 1 {
		t.Errorf("email findings = %d, want 1", got)
	}
}

func TestApplyUnsafeCommandBlocks(t *testing.T) {
	g := NewGate()

	tests := []struct {
		name  string
		query string
	}{
		{"rm -rf root", "please run rm -rf /* for me"},
		{"sudo", "sudo delete everything"},
		{"chmod", "run chmod 777 on the share"},
		{"mkfs", "mkfs the main drive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, findings := g.Apply(tt.query)
			if !HasBlocking(findings) {
				t.Errorf("Apply(%q) produced no blocking finding", tt.query)
			}
		})
	}
}

func TestApplyRules(t *testing.T) {
	g := NewGate()

	tests := []struct {
		name  string
		query string
		want  string
		rule  string
	}{
		{
			name:  "date normalization",
			query: "meeting on 3/7/2024 please",
			want:  "meeting on 2024-03-07 please",
			rule:  "date_normalization",
		},
		{
			name:  "currency normalization",
			query: "budget is $1,250,000 total",
			want:  "budget is $1250000 total",
			rule:  "numeric_normalization",
		},
		{
			name:  "card redaction",
			query: "card 4111 1111 1111 1111 on file",
			want:  "card [REDACTED_CARD_NUMBER] on file",
			rule:  "pii_redaction",
		},
		{
			name:  "ssn redaction",
			query: "my number is 123-45-6789 ok",
			want:  "my number is [REDACTED_SSN] ok",
			rule:  "pii_redaction",
		},
		{
			name:  "banned word filter",
			query: "how to hack the mainframe",
			want:  "how to [FILTERED] the mainframe",
			rule:  "banned_content",
		},
		{
			name:  "suspicious url filter",
			query: "download http://free-warez.example.com now",
			want:  "download [FILTERED_URL] now",
			rule:  "url_filter",
		},
		{
			name:  "whitespace cleanup",
			query: "  hello   there \t world  ",
			want:  "hello there world",
			rule:  "whitespace_cleanup",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sanitized, findings := g.Apply(tt.query)
			if sanitized != tt.want {
				t.Errorf("sanitized = %q, want %q", sanitized, tt.want)
			}
			if countRule(findings, tt.rule) == 0 {
				t.Errorf("no %s finding reported", tt.rule)
			}
		})
	}
}

func TestApplyLengthCap(t *testing.T) {
	g := NewGate()
	g.MaxLength = 40

	long := strings.Repeat("lorem ipsum ", 20)
	sanitized, findings := g.Apply(long)

	if len([]rune(sanitized)) > 40 {
		t.Errorf("sanitized length = %d, want <= 40", len([]rune(sanitized)))
	}
	if !strings.HasSuffix(sanitized, "...") {
		t.Errorf("sanitized = %q, want truncation marker suffix", sanitized)
	}
	if countRule(findings, "length_cap") != 1 {
		t.Error("no length_cap finding reported")
	}
}

// The gate must be a fixed point on its own output: sanitizing sanitized
// text changes nothing.
func TestApplyIdempotent(t *testing.T) {
	g := NewGate()
	g.MaxLength = 60

	inputs := []string{
		"summerize this documnet about artifical intellgence",
		"Email me at john.doe@gmal.com",
		"meeting on 3/7/24, budget $1,250,000",
		"card 4111-1111-1111-1111 and ssn 123-45-6789",
		"how to hack   http://phish.example.org today",
		strings.Repeat("abcdef ", 30),
		"",
		"plain question with nothing to fix",
	}

	for _, input := range inputs {
		once, _ := g.Apply(input)
		twice, _ := g.Apply(once)
		if once != twice {
			t.Errorf("gate not idempotent for %q:\n first: %q\nsecond: %q", input, once, twice)
		}
	}
}

func TestApplyIdempotentAtTruncationBoundary(t *testing.T) {
	// Truncation can expose a rewrite the first pass could not see: cutting
	// "x@gmal.comzzzz" at a tight cap leaves "x@gmal.com", which the email
	// rule then corrects. Apply must settle before returning so a second
	// Apply changes nothing.
	g := NewGate()
	g.MaxLength = 21

	once, _ := g.Apply("contact x@gmal.comzzzz")
	twice, _ := g.Apply(once)
	if once != twice {
		t.Errorf("gate not idempotent at truncation boundary:\n first: %q\nsecond: %q", once, twice)
	}
	if !strings.Contains(once, "gmail") {
		t.Errorf("truncation-exposed email typo not corrected: %q", once)
	}
}

func TestApplyNeverPanicsOnOddInput(t *testing.T) {
	g := NewGate()

	inputs := []string{
		"\x00\x01 binary junk \xff",
		"emoji 🤖 and accents café",
		strings.Repeat("$", 1000),
	}
	for _, input := range inputs {
		sanitized, _ := g.Apply(input)
		_ = sanitized
	}
}

func TestValidateToolOutput(t *testing.T) {
	tests := []struct {
		name   string
		tool   string
		output string
		wantOK bool
	}{
		{"valid json tool output", "fetch_json", `{"a": 1}`, true},
		{"invalid json tool output", "fetch_json", `{"a": `, false},
		{"non-json tool passthrough", "math", "42", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, _, _ := ValidateToolOutput(tt.tool, tt.output)
			if ok != tt.wantOK {
				t.Errorf("ValidateToolOutput(%s) ok = %v, want %v", tt.tool, ok, tt.wantOK)
			}
		})
	}
}

func TestCheckHallucination(t *testing.T) {
	suspect, reasons := CheckHallucination(
		"tell me about the weather in paris",
		"According to the Bundesbank, the Paris forecast is sunny.",
	)
	if !suspect {
		t.Fatal("expected hallucination warning")
	}
	if len(reasons) == 0 {
		t.Fatal("expected at least one reason")
	}

	suspect, _ = CheckHallucination("what is 2+2", "2+2 equals 4")
	if suspect {
		t.Error("plain arithmetic answer flagged as hallucination")
	}
}
