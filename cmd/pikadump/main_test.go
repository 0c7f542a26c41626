package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestDumpStages(t *testing.T) {
	var buf bytes.Buffer
	if err := dump(&buf, testSource); err != nil {
		t.Fatalf("dump: %v", err)
	}
	out := buf.String()

	order := []string{"Source:", "Tokens (", "AST", "Functions:", "Generated Assembly", "Listing (", "Scratch Memory"}
	last := -1
	for _, want := range order {
		i := strings.Index(out, want)
		if i < 0 {
			t.Fatalf("output missing %q", want)
		}
		if i < last {
			t.Errorf("%q out of order", want)
		}
		last = i
	}
	if !strings.Contains(out, "; print sq(x), _n_") {
		t.Error("assembly is not annotated")
	}
}

func TestDumpStopsAtFailingStage(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
		not  string
	}{
		{"Lex", "exec { @ }", "lex error", "Tokens ("},
		{"Parse", "exec { print 1 }", "parse error", "AST"},
		{"Semantic", "exec { print y; }", "semantic error", "Generated Assembly"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := dump(&buf, tt.src)
			if err == nil || !strings.HasPrefix(err.Error(), tt.want) {
				t.Fatalf("expected %s, got %v", tt.want, err)
			}
			if strings.Contains(buf.String(), tt.not) {
				t.Errorf("output should stop before %q:\n%s", tt.not, buf.String())
			}
		})
	}
}
