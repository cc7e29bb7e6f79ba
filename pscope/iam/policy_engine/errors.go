package policy_engine

import "fmt"

// EvaluationErrorKind classifies evaluation-time failures. Any of them
// aborts the whole evaluation; the engine never converts one into a
// default decision.
type EvaluationErrorKind int

const (
	// EvalErrUnsupported marks a condition form the engine recognizes but
	// does not yet evaluate (IfExists, ForAllValues:/ForAnyValues:).
	EvalErrUnsupported EvaluationErrorKind = iota
	// EvalErrMissingContextValue is reserved for future simulated-context
	// support; nothing produces it yet.
	EvalErrMissingContextValue
)

func (k EvaluationErrorKind) String() string {
	switch k {
	case EvalErrUnsupported:
		return "Unsupported"
	case EvalErrMissingContextValue:
		return "MissingContextValue"
	default:
		return fmt.Sprintf("EvaluationErrorKind(%d)", int(k))
	}
}

// EvaluationError reports why an evaluation could not produce a decision.
type EvaluationError struct {
	Kind     EvaluationErrorKind
	Operator string
	Sid      string // locating detail, filled by the engine
}

func (e *EvaluationError) Error() string {
	s := "evaluation failed: " + e.Kind.String()
	if e.Operator != "" {
		s += " (operator " + e.Operator + ")"
	}
	if e.Sid != "" {
		s += " in " + e.Sid
	}
	return s
}
