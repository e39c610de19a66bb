package answer

import (
	"regexp"
	"strings"
)

// ErrorKind classifies why an answer could not be produced.
type ErrorKind int

const (
	ErrorKindNone ErrorKind = iota
	ErrorKindRetrieval
	ErrorKindRateLimited
	ErrorKindGeneration
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindNone:
		return "none"
	case ErrorKindRetrieval:
		return "retrieval"
	case ErrorKindRateLimited:
		return "rate_limited"
	case ErrorKindGeneration:
		return "generation"
	default:
		return "unknown"
	}
}

// RateLimitedMessage is the text shown when generation was throttled.
const RateLimitedMessage = "The language model is currently rate-limited. Please wait a few seconds and try again."

// Result is the outcome of answering one question.
type Result struct {
	OK        bool
	Text      string
	ErrorKind ErrorKind
	// Err is the underlying failure when OK is false.
	Err error
}

// Display renders the result as plain text. Failures become a message
// suitable for showing in place of an answer.
func (r Result) Display() string {
	if r.OK {
		return r.Text
	}
	if r.ErrorKind == ErrorKindRateLimited {
		return RateLimitedMessage
	}
	if r.Err == nil {
		return "An unexpected error occurred."
	}
	return "An unexpected error occurred: " + r.Err.Error()
}

var mermaidBlock = regexp.MustCompile("(?s)```mermaid[ \t]*\r?\n(.*?)```")

// Diagram returns the body of the first fenced mermaid block in the answer.
func (r Result) Diagram() (string, bool) {
	if !r.OK {
		return "", false
	}
	m := mermaidBlock.FindStringSubmatch(r.Text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func failed(kind ErrorKind, err error) Result {
	return Result{ErrorKind: kind, Err: err}
}
