package heuristics

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// typoFix is an ordered typo→correction pair. A slice (not a map) keeps
// finding order stable across runs.
type typoFix struct {
	typo, correction string
	re               *regexp.Regexp
}

func compileTypo(typo, correction string) typoFix {
	return typoFix{
		typo:       typo,
		correction: correction,
		re:         regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(typo) + `\b`),
	}
}

var commonTypos = []typoFix{
	compileTypo("clendar", "calendar"),
	compileTypo("calander", "calendar"),
	compileTypo("schedual", "schedule"),
	compileTypo("scedule", "schedule"),
	compileTypo("emaill", "email"),
	compileTypo("emial", "email"),
	compileTypo("docuemnt", "document"),
	compileTypo("documnet", "document"),
	compileTypo("serach", "search"),
	compileTypo("summery", "summary"),
	compileTypo("summerize", "summarize"),
	compileTypo("artifical intellgence", "artificial intelligence"),
}

func (g *Gate) fixTypos(query string) (string, []Finding) {
	var findings []Finding
	corrected := query
	for _, tf := range commonTypos {
		if !tf.re.MatchString(corrected) {
			continue
		}
		corrected = tf.re.ReplaceAllString(corrected, tf.correction)
		findings = append(findings, Finding{
			Rule:        "typo_correction",
			Severity:    SeverityInfo,
			Fragment:    tf.typo,
			Replacement: tf.correction,
			Message:     fmt.Sprintf("corrected typo %q to %q", tf.typo, tf.correction),
		})
	}
	return corrected, findings
}

var bannedWords = []struct {
	word string
	re   *regexp.Regexp
}{
	{"hack", regexp.MustCompile(`(?i)\bhack\b`)},
	{"exploit", regexp.MustCompile(`(?i)\bexploit\b`)},
	{"vulnerability", regexp.MustCompile(`(?i)\bvulnerability\b`)},
	{"illegal", regexp.MustCompile(`(?i)\billegal\b`)},
	{"password", regexp.MustCompile(`(?i)\bpassword\b`)},
	{"credit card", regexp.MustCompile(`(?i)\bcredit card\b`)},
	{"ssn", regexp.MustCompile(`(?i)\bssn\b`)},
	{"social security", regexp.MustCompile(`(?i)\bsocial security\b`)},
	{"porn", regexp.MustCompile(`(?i)\bporn\b`)},
	{"xxx", regexp.MustCompile(`(?i)\bxxx\b`)},
}

func (g *Gate) filterBannedWords(query string) (string, []Finding) {
	var findings []Finding
	clean := query
	for _, bw := range bannedWords {
		if !bw.re.MatchString(clean) {
			continue
		}
		clean = bw.re.ReplaceAllString(clean, "[FILTERED]")
		findings = append(findings, Finding{
			Rule:        "banned_content",
			Severity:    SeverityWarning,
			Fragment:    bw.word,
			Replacement: "[FILTERED]",
			Message:     fmt.Sprintf("filtered banned term %q", bw.word),
		})
	}
	return clean, findings
}

// dateRe matches mm/dd/yy and mm/dd/yyyy. The 4-digit alternative comes
// first so full years are not split.
var dateRe = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4}|\d{2})`)

func (g *Gate) normalizeDates(query string) (string, []Finding) {
	var findings []Finding
	normalized := dateRe.ReplaceAllStringFunc(query, func(match string) string {
		parts := dateRe.FindStringSubmatch(match)
		month, day, year := parts[1], parts[2], parts[3]
		if len(month) == 1 {
			month = "0" + month
		}
		if len(day) == 1 {
			day = "0" + day
		}
		if len(year) == 2 {
			century := fmt.Sprintf("%d", time.Now().Year())[:2]
			year = century + year
		}
		iso := fmt.Sprintf("%s-%s-%s", year, month, day)
		findings = append(findings, Finding{
			Rule:        "date_normalization",
			Severity:    SeverityInfo,
			Fragment:    match,
			Replacement: iso,
			Message:     fmt.Sprintf("normalized date %q to %q", match, iso),
		})
		return iso
	})
	return normalized, findings
}

var emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// emailDomainFixes maps common mistyped mail domains to their real ones.
var emailDomainFixes = []struct{ typo, correct string }{
	{"gmal.com", "gmail.com"},
	{"gamil.com", "gmail.com"},
	{"gmial.com", "gmail.com"},
	{"hotmial.com", "hotmail.com"},
	{"yaho.com", "yahoo.com"},
	{"outlok.com", "outlook.com"},
}

func (g *Gate) fixEmailDomains(query string) (string, []Finding) {
	var findings []Finding
	validated := query
	for _, email := range emailRe.FindAllString(query, -1) {
		at := strings.LastIndex(email, "@")
		domain := email[at+1:]
		for _, df := range emailDomainFixes {
			if domain != df.typo {
				continue
			}
			corrected := email[:at+1] + df.correct
			validated = strings.ReplaceAll(validated, email, corrected)
			findings = append(findings, Finding{
				Rule:        "email_correction",
				Severity:    SeverityInfo,
				Fragment:    email,
				Replacement: corrected,
				Message:     fmt.Sprintf("corrected email domain %q to %q", email, corrected),
			})
		}
	}
	return validated, findings
}

// unsafeCommandRes flag shell fragments that could destroy data or escalate
// privileges. Detection never rewrites the text; a blocking finding stops
// the cycle before any tool call.
var unsafeCommandRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\brm\s+-rf\b`),
	regexp.MustCompile(`(?i)\bsudo\b`),
	regexp.MustCompile(`(?i)\bchmod\s+777\b`),
	regexp.MustCompile(`(?i)\bdd\b.*\bif=/dev\b`),
	regexp.MustCompile(`(?i)\bmkfs\b`),
	regexp.MustCompile(`(?i)\bformat\b.*\bdisk\b`),
}

func (g *Gate) detectUnsafeCommands(query string) (string, []Finding) {
	var findings []Finding
	for _, re := range unsafeCommandRes {
		if m := re.FindString(query); m != "" {
			findings = append(findings, Finding{
				Rule:     "unsafe_command",
				Severity: SeverityBlocking,
				Fragment: m,
				Message:  fmt.Sprintf("potentially destructive command detected: %q", m),
			})
		}
	}
	return query, findings
}

var urlRe = regexp.MustCompile(`https?://(?:[-\w.]|(?:%[\da-fA-F]{2}))+`)

var suspiciousURLTerms = []string{"malware", "phish", "hack", "crack", "warez", "porn", "xxx"}

func (g *Gate) filterSuspiciousURLs(query string) (string, []Finding) {
	var findings []Finding
	clean := query
	for _, url := range urlRe.FindAllString(query, -1) {
		lower := strings.ToLower(url)
		for _, term := range suspiciousURLTerms {
			if strings.Contains(lower, term) {
				clean = strings.ReplaceAll(clean, url, "[FILTERED_URL]")
				findings = append(findings, Finding{
					Rule:        "url_filter",
					Severity:    SeverityWarning,
					Fragment:    url,
					Replacement: "[FILTERED_URL]",
					Message:     fmt.Sprintf("removed suspicious URL containing %q", term),
				})
				break
			}
		}
	}
	return clean, findings
}

// currencyRe matches currency amounts with thousands separators, e.g. "$1,250,000".
var currencyRe = regexp.MustCompile(`[$€£¥]\d{1,3}(?:,\d{3})+(?:\.\d+)?`)

func (g *Gate) normalizeNumbers(query string) (string, []Finding) {
	var findings []Finding
	normalized := currencyRe.ReplaceAllStringFunc(query, func(match string) string {
		plain := strings.ReplaceAll(match, ",", "")
		findings = append(findings, Finding{
			Rule:        "numeric_normalization",
			Severity:    SeverityInfo,
			Fragment:    match,
			Replacement: plain,
			Message:     fmt.Sprintf("normalized currency value %q to %q", match, plain),
		})
		return plain
	})
	return normalized, findings
}

var (
	creditCardRe = regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`)
	ssnRe        = regexp.MustCompile(`\b\d{3}[-\s]?\d{2}[-\s]?\d{4}\b`)
)

func (g *Gate) redactPII(query string) (string, []Finding) {
	var findings []Finding
	redacted := query
	if creditCardRe.MatchString(redacted) {
		redacted = creditCardRe.ReplaceAllString(redacted, "[REDACTED_CARD_NUMBER]")
		findings = append(findings, Finding{
			Rule:        "pii_redaction",
			Severity:    SeverityWarning,
			Replacement: "[REDACTED_CARD_NUMBER]",
			Message:     "redacted potential card number",
		})
	}
	if ssnRe.MatchString(redacted) {
		redacted = ssnRe.ReplaceAllString(redacted, "[REDACTED_SSN]")
		findings = append(findings, Finding{
			Rule:        "pii_redaction",
			Severity:    SeverityWarning,
			Replacement: "[REDACTED_SSN]",
			Message:     "redacted potential social security number",
		})
	}
	return redacted, findings
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func (g *Gate) cleanWhitespace(query string) (string, []Finding) {
	cleaned := strings.TrimSpace(whitespaceRe.ReplaceAllString(query, " "))
	if cleaned == query {
		return query, nil
	}
	return cleaned, []Finding{{
		Rule:     "whitespace_cleanup",
		Severity: SeverityInfo,
		Message:  "collapsed excessive whitespace",
	}}
}

const truncationMarker = "..."

// capLength truncates over-long queries. The truncated result (including the
// marker) never exceeds MaxLength, so a second pass through the gate leaves
// it untouched.
func (g *Gate) capLength(query string) (string, []Finding) {
	max := g.MaxLength
	if max <= 0 {
		max = DefaultMaxQueryLength
	}
	runes := []rune(query)
	if len(runes) <= max || max <= len(truncationMarker) {
		return query, nil
	}
	cut := strings.TrimRightFunc(string(runes[:max-len(truncationMarker)]), unicode.IsSpace)
	truncated := cut + truncationMarker
	return truncated, []Finding{{
		Rule:     "length_cap",
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("truncated query from %d to %d characters", len(runes), len([]rune(truncated))),
	}}
}
