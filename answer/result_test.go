package answer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult_Display(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{"ok", Result{OK: true, Text: "answer"}, "answer"},
		{"rate limited", failed(ErrorKindRateLimited, errors.New("throttled")), RateLimitedMessage},
		{"generation", failed(ErrorKindGeneration, errors.New("boom")), "An unexpected error occurred: boom"},
		{"no cause", Result{ErrorKind: ErrorKindGeneration}, "An unexpected error occurred."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.Display())
		})
	}
}

func TestResult_Diagram(t *testing.T) {
	text := "Here is the flow:\n\n```mermaid\ngraph TD\n  A[Intake] --> B[Review]\n```\n\nLet me know."
	diagram, ok := Result{OK: true, Text: text}.Diagram()
	assert.True(t, ok)
	assert.Equal(t, "graph TD\n  A[Intake] --> B[Review]", diagram)

	_, ok = Result{OK: true, Text: "no diagram here"}.Diagram()
	assert.False(t, ok)

	_, ok = failed(ErrorKindGeneration, errors.New("x")).Diagram()
	assert.False(t, ok)
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "none", ErrorKindNone.String())
	assert.Equal(t, "rate_limited", ErrorKindRateLimited.String())
	assert.Equal(t, "unknown", ErrorKind(42).String())
}
