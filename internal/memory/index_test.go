package memory

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/curioworks/curio/internal/logging"
)

func testEntry(query, answer string) Entry {
	e := NewEntry(query, query, answer, []string{"math"})
	return e
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "lowercase and dedupe",
			text: "Paris PARIS paris weather",
			want: []string{"paris", "weather"},
		},
		{
			name: "stop words dropped",
			text: "what is the weather in Paris",
			want: []string{"paris", "weather"},
		},
		{
			name: "punctuation split",
			text: "summarize: report-2024, please!",
			want: []string{"2024", "please", "report", "summarize"},
		},
		{
			name: "empty",
			text: "the a an of",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestAddThenSearch(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex(nil, logging.Nop())

	entry := testEntry("what is the weather in Paris", "Sunny, 24 degrees")
	if err := idx.Add(ctx, entry); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// Any keyword present in the entry must find it.
	for _, kw := range []string{"weather", "paris", "sunny"} {
		got := idx.Search(kw, 5)
		if len(got) != 1 || got[0].ID != entry.ID {
			t.Errorf("Search(%q) = %v, want the added entry", kw, got)
		}
	}

	// A keyword never added returns an empty sequence.
	if got := idx.Search("blockchain", 5); len(got) != 0 {
		t.Errorf("Search(unknown keyword) = %v, want empty", got)
	}
}

func TestSearchRankingAndTiebreak(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex(nil, logging.Nop())

	older := testEntry("weather in Paris today", "rainy")
	newer := testEntry("weather forecast", "cloudy")
	best := testEntry("weather in Paris forecast tomorrow", "sunny")
	for _, e := range []Entry{older, newer, best} {
		if err := idx.Add(ctx, e); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	got := idx.Search("weather forecast Paris", 3)
	if len(got) != 3 {
		t.Fatalf("Search returned %d entries, want 3", len(got))
	}
	// Highest overlap first.
	if got[0].ID != best.ID {
		t.Errorf("top result = %q, want the three-keyword entry", got[0].Query)
	}
	// older and newer both score 2 on "weather"+one more? older matches
	// weather+paris, newer matches weather+forecast: tie broken by recency.
	if got[1].ID != newer.ID {
		t.Errorf("tie not broken toward most recent: got %q", got[1].Query)
	}
}

func TestSearchLimit(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex(nil, logging.Nop())
	for i := 0; i < 10; i++ {
		if err := idx.Add(ctx, testEntry("weather report", "fine")); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if got := idx.Search("weather", 3); len(got) != 3 {
		t.Errorf("Search limit ignored: got %d entries, want 3", len(got))
	}
}

func TestConcurrentSearchDuringAdd(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex(nil, logging.Nop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = idx.Add(ctx, testEntry("weather update", "ok"))
		}
	}()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-done:
			if idx.Len() != 200 {
				t.Errorf("Len = %d, want 200", idx.Len())
			}
			return
		case <-deadline:
			t.Fatal("writer did not finish")
		default:
			_ = idx.Search("weather", 5)
		}
	}
}
