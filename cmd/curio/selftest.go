package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/curioworks/curio/internal/heuristics"
	"github.com/curioworks/curio/internal/logging"
	"github.com/curioworks/curio/internal/memory"
)

// runSelfTest exercises the offline components (sanitizer and memory index)
// against known fixtures. It needs no model backend, so it works before any
// API key is configured.
func runSelfTest(w io.Writer) error {
	fmt.Fprintln(w, "Running built-in checks...")

	var failures int
	check := func(name string, ok bool, detail string) {
		if ok {
			fmt.Fprintf(w, "  ✅ %s\n", name)
			return
		}
		failures++
		fmt.Fprintf(w, "  ❌ %s: %s\n", name, detail)
	}

	gate := heuristics.NewGate()

	sanitized, findings := gate.Apply("serach the docuemnt about my schedual")
	check("sanitizer fixes typos",
		strings.Contains(sanitized, "search") && strings.Contains(sanitized, "document") && strings.Contains(sanitized, "schedule"),
		fmt.Sprintf("got %q", sanitized))
	check("sanitizer reports findings", len(findings) > 0, "no findings returned")

	_, unsafe := gate.Apply("now run rm -rf / on the server")
	check("sanitizer blocks unsafe commands", heuristics.HasBlocking(unsafe), "dangerous command not flagged")

	resanitized, _ := gate.Apply(sanitized)
	check("sanitizer is idempotent", resanitized == sanitized,
		fmt.Sprintf("second pass changed %q to %q", sanitized, resanitized))

	ctx := context.Background()
	idx := memory.NewIndex(nil, logging.Nop())
	entries := []memory.Entry{
		memory.NewEntry("how do I bake sourdough bread?", "how do I bake sourdough bread?", "Use a starter and a dutch oven.", nil),
		memory.NewEntry("what is the capital of France?", "what is the capital of France?", "Paris.", nil),
	}
	for _, e := range entries {
		if err := idx.Add(ctx, e); err != nil {
			return fmt.Errorf("index add: %w", err)
		}
	}
	hits := idx.Search("sourdough bread recipe", 5)
	check("memory recall finds related entries",
		len(hits) > 0 && strings.Contains(hits[0].Query, "sourdough"),
		fmt.Sprintf("got %d hits", len(hits)))
	misses := idx.Search("quantum chromodynamics", 5)
	check("memory recall stays quiet on unrelated queries", len(misses) == 0,
		fmt.Sprintf("got %d hits", len(misses)))

	if failures > 0 {
		return fmt.Errorf("%d check(s) failed", failures)
	}
	fmt.Fprintln(w, "All checks passed.")
	return nil
}
