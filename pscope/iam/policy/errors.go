package policy

import "fmt"

// ParseErrorKind classifies document parse failures. All of them are
// terminal for the document: evaluation never proceeds past a parse error.
type ParseErrorKind int

const (
	// ErrKindSchemaViolation covers type mismatches and unrecognized
	// literals (e.g. Effect that is not exactly "Allow" or "Deny").
	ErrKindSchemaViolation ParseErrorKind = iota
	// ErrKindInvalidFieldCombination flags mutually exclusive fields
	// appearing together (Action with NotAction, etc).
	ErrKindInvalidFieldCombination
	// ErrKindMissingRequiredField flags a field group with no member
	// present (neither Action nor NotAction, neither Resource nor
	// NotResource).
	ErrKindMissingRequiredField
	// ErrKindUnsupportedOperator flags a condition operator outside the
	// enumerated grammar.
	ErrKindUnsupportedOperator
)

func (k ParseErrorKind) String() string {
	switch k {
	case ErrKindSchemaViolation:
		return "SchemaViolation"
	case ErrKindInvalidFieldCombination:
		return "InvalidFieldCombination"
	case ErrKindMissingRequiredField:
		return "MissingRequiredField"
	case ErrKindUnsupportedOperator:
		return "UnsupportedOperator"
	default:
		return fmt.Sprintf("ParseErrorKind(%d)", int(k))
	}
}

// ParseError carries enough detail to point at the offending document
// fragment: the statement (Sid if set, otherwise its index), the field or
// operator involved, and a message.
type ParseError struct {
	Kind      ParseErrorKind
	Statement string // Sid, or "statement N" when no Sid is set; "" for document-level errors
	Field     string
	Operator  string
	Message   string
}

func (e *ParseError) Error() string {
	s := e.Kind.String()
	if e.Statement != "" {
		s += " in " + e.Statement
	}
	if e.Field != "" {
		s += " (" + e.Field + ")"
	}
	if e.Operator != "" {
		s += " (operator " + e.Operator + ")"
	}
	if e.Message != "" {
		s += ": " + e.Message
	}
	return s
}

func statementLabel(index int, sid string) string {
	if sid != "" {
		return fmt.Sprintf("statement %q", sid)
	}
	return fmt.Sprintf("statement %d", index)
}
