package tools

import (
	"context"
	"errors"
	"testing"
)

func testRegistry() Registry {
	echo := Tool{
		Name:   "echo",
		Server: "util",
		SchemaJSON: `{
			"type": "object",
			"properties": {"text": {"type": "string"}},
			"required": ["text"]
		}`,
		Fn: func(ctx context.Context, args map[string]any) (Result, error) {
			return TextResult(args["text"].(string)), nil
		},
	}
	boom := Tool{
		Name:       "boom",
		Server:     "util",
		SchemaJSON: `{"type": "object"}`,
		Fn: func(ctx context.Context, args map[string]any) (Result, error) {
			return Result{}, errors.New("always fails")
		},
	}
	other := Tool{
		Name:       "lookup",
		Server:     "search",
		SchemaJSON: `{"type": "object"}`,
		Fn: func(ctx context.Context, args map[string]any) (Result, error) {
			return TextResult("hit"), nil
		},
	}
	return Registry{"echo": echo, "boom": boom, "lookup": other}
}

func TestCallSuccess(t *testing.T) {
	reg := testRegistry()
	res, err := reg.Call(context.Background(), "echo", map[string]any{"text": "hello"})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if res.Text() != "hello" {
		t.Errorf("result = %q", res.Text())
	}
}

func TestCallFailuresAreCallErrors(t *testing.T) {
	reg := testRegistry()
	tests := []struct {
		name string
		tool string
		args map[string]any
	}{
		{"unknown tool", "no_such_tool", map[string]any{}},
		{"schema violation", "echo", map[string]any{}},
		{"tool error", "boom", map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Call(context.Background(), tt.tool, tt.args)
			var ce *CallError
			if !errors.As(err, &ce) {
				t.Fatalf("err = %v, want *CallError", err)
			}
		})
	}
}

func TestFilterByServers(t *testing.T) {
	reg := testRegistry()

	filtered := reg.FilterByServers([]string{"search"})
	if len(filtered) != 1 {
		t.Fatalf("filtered size = %d, want 1", len(filtered))
	}
	if _, ok := filtered["lookup"]; !ok {
		t.Error("lookup missing from filtered registry")
	}

	// Empty and unknown selections both fall back to the full registry.
	if got := reg.FilterByServers(nil); len(got) != len(reg) {
		t.Errorf("empty selection: %d tools, want %d", len(got), len(reg))
	}
	if got := reg.FilterByServers([]string{"nonexistent"}); len(got) != len(reg) {
		t.Errorf("unknown selection: %d tools, want %d", len(got), len(reg))
	}
}

func TestNamesAndServersSorted(t *testing.T) {
	reg := testRegistry()
	names := reg.Names()
	want := []string{"boom", "echo", "lookup"}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
	servers := reg.Servers()
	if len(servers) != 2 || servers[0] != "search" || servers[1] != "util" {
		t.Errorf("servers = %v", servers)
	}
}
