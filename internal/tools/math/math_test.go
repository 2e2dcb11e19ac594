package math

import (
	"context"
	"testing"
)

func TestEval(t *testing.T) {
	tests := []struct {
		expr    string
		want    float64
		wantErr bool
	}{
		{"2 + 3", 5, false},
		{"2 + 3 * 4", 14, false},
		{"(2 + 3) * 4", 20, false},
		{"10 / 4", 2.5, false},
		{"10 % 3", 1, false},
		{"2 ^ 10", 1024, false},
		{"2 ^ 3 ^ 2", 512, false},
		{"-5 + 3", -2, false},
		{"--5", 5, false},
		{"1.5 * 2", 3, false},
		{"1 / 0", 0, true},
		{"2 +", 0, true},
		{"(2 + 3", 0, true},
		{"hello", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Eval(tt.expr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Eval(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Eval(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEvalToolCall(t *testing.T) {
	tool := NewEvalTool()

	if err := tool.ValidateArgs(map[string]any{"expression": "2+2"}); err != nil {
		t.Fatalf("ValidateArgs: %v", err)
	}
	if err := tool.ValidateArgs(map[string]any{}); err == nil {
		t.Fatal("ValidateArgs accepted missing expression")
	}

	res, err := tool.Fn(context.Background(), map[string]any{"expression": "6 * 7"})
	if err != nil {
		t.Fatalf("Fn: %v", err)
	}
	if got := res.Text(); got != "42" {
		t.Errorf("result = %q, want %q", got, "42")
	}
}
