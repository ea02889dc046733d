package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gsarma/texcompile/internal/metrics"
)

// Kind classifies why a compilation did not produce an artifact.
type Kind string

const (
	KindInvalidInput Kind = "invalid_input"
	KindToolNotFound Kind = "tool_not_found"
	KindIO           Kind = "io_error"
	KindCompilation  Kind = "compilation_error"
)

// Reason refines KindCompilation.
type Reason string

const (
	ReasonExitStatus Reason = "exit_status"
	ReasonNoArtifact Reason = "no_artifact"
	ReasonTimeout    Reason = "timeout"
	ReasonCanceled   Reason = "canceled"
)

// MsgArtifactNotProduced is reported when the engine exits zero but leaves no output file.
const MsgArtifactNotProduced = "artifact not produced"

// Error is the failure type returned by the pipeline.
type Error struct {
	Kind    Kind
	Reason  Reason
	Message string
	// Stdout and Stderr hold the engine's captured output for KindCompilation.
	Stdout string
	Stderr string
	Cause  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Detail is the client-facing description: the message followed by the
// engine output when there is any.
func (e *Error) Detail() string {
	if e.Kind != KindCompilation || (e.Stdout == "" && e.Stderr == "") {
		return e.Message
	}
	return fmt.Sprintf("%s\nSTDOUT:\n%s\nSTDERR:\n%s", e.Message, e.Stdout, e.Stderr)
}

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func invalidInput(msg string) *Error {
	return &Error{Kind: KindInvalidInput, Message: msg}
}

func compilationError(reason Reason, msg string, stdout, stderr []byte) *Error {
	return &Error{
		Kind:    KindCompilation,
		Reason:  reason,
		Message: msg,
		Stdout:  string(stdout),
		Stderr:  string(stderr),
	}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, k Kind) bool { return KindOf(err) == k }

// ReasonOf returns the Reason of the first *Error in err's chain.
func ReasonOf(err error) Reason {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Reason
	}
	return ""
}

// Outcome is the metrics/log label for a Compile result.
func Outcome(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	switch r := ReasonOf(err); r {
	case ReasonTimeout, ReasonCanceled:
		return string(r)
	}
	if k := KindOf(err); k != "" {
		return string(k)
	}
	return "internal_error"
}
