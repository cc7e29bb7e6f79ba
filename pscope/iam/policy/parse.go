package policy

import (
	"encoding/json"
	"fmt"
)

// ParsePolicy decodes and validates a policy JSON document. The returned
// document is fully validated; evaluation can rely on its invariants.
func ParsePolicy(policyJSON []byte) (*PolicyDocument, error) {
	var doc PolicyDocument
	if err := json.Unmarshal(policyJSON, &doc); err != nil {
		return nil, &ParseError{
			Kind:    ErrKindSchemaViolation,
			Message: fmt.Sprintf("malformed policy JSON: %v", err),
		}
	}

	if err := Validate(&doc); err != nil {
		return nil, err
	}

	return &doc, nil
}

// FromTree builds a validated document from an already-decoded generic
// tree, for callers that own their own JSON handling.
func FromTree(tree json.RawMessage) (*PolicyDocument, error) {
	return ParsePolicy([]byte(tree))
}

// Validate checks the grammar invariants of a decoded document. It is
// called by ParsePolicy; exported for documents assembled programmatically.
func Validate(doc *PolicyDocument) error {
	if doc.Version != PolicyVersion2012_10_17 && doc.Version != PolicyVersion2008_10_17 {
		return &ParseError{
			Kind:    ErrKindSchemaViolation,
			Field:   "Version",
			Message: fmt.Sprintf("unrecognized policy version %q", doc.Version),
		}
	}

	for i := range doc.Statement {
		if err := validateStatement(i, &doc.Statement[i]); err != nil {
			return err
		}
	}

	return nil
}

func validateStatement(index int, stmt *Statement) error {
	label := statementLabel(index, stmt.Sid)

	if stmt.Effect != EffectAllow && stmt.Effect != EffectDeny {
		return &ParseError{
			Kind:      ErrKindSchemaViolation,
			Statement: label,
			Field:     "Effect",
			Message:   fmt.Sprintf("must be %q or %q, got %q", EffectAllow, EffectDeny, stmt.Effect),
		}
	}

	if err := validatePatternGroup(label, "Action", stmt.Action, "NotAction", stmt.NotAction); err != nil {
		return err
	}
	if err := validatePatternGroup(label, "Resource", stmt.Resource, "NotResource", stmt.NotResource); err != nil {
		return err
	}

	if stmt.Principal != nil && stmt.NotPrincipal != nil {
		return &ParseError{
			Kind:      ErrKindInvalidFieldCombination,
			Statement: label,
			Field:     "Principal",
			Message:   "Principal and NotPrincipal are mutually exclusive",
		}
	}
	for _, spec := range []struct {
		name string
		val  *PrincipalSpec
	}{{"Principal", stmt.Principal}, {"NotPrincipal", stmt.NotPrincipal}} {
		if spec.val != nil && spec.val.IsEmpty() {
			return &ParseError{
				Kind:      ErrKindSchemaViolation,
				Statement: label,
				Field:     spec.name,
				Message:   "principal block constrains nothing",
			}
		}
	}

	return validateConditions(label, stmt.Condition)
}

// validatePatternGroup enforces "exactly one of the pair, non-empty" for
// Action/NotAction and Resource/NotResource.
func validatePatternGroup(label, name string, val StringOrStringSlice, notName string, notVal StringOrStringSlice) error {
	if val.IsPresent() && notVal.IsPresent() {
		return &ParseError{
			Kind:      ErrKindInvalidFieldCombination,
			Statement: label,
			Field:     name,
			Message:   fmt.Sprintf("%s and %s are mutually exclusive", name, notName),
		}
	}
	if !val.IsPresent() && !notVal.IsPresent() {
		return &ParseError{
			Kind:      ErrKindMissingRequiredField,
			Statement: label,
			Field:     name,
			Message:   fmt.Sprintf("one of %s or %s is required", name, notName),
		}
	}
	present, presentName := val, name
	if notVal.IsPresent() {
		present, presentName = notVal, notName
	}
	if len(present.Strings()) == 0 {
		return &ParseError{
			Kind:      ErrKindSchemaViolation,
			Statement: label,
			Field:     presentName,
			Message:   "pattern set must be non-empty",
		}
	}
	return nil
}

func validateConditions(label string, block ConditionBlock) error {
	for opKey, entries := range block {
		op, err := ParseConditionOperator(opKey)
		if err != nil {
			return &ParseError{
				Kind:      ErrKindUnsupportedOperator,
				Statement: label,
				Operator:  opKey,
				Message:   err.Error(),
			}
		}

		if len(entries) == 0 {
			return &ParseError{
				Kind:      ErrKindSchemaViolation,
				Statement: label,
				Operator:  opKey,
				Message:   "condition entry has no context keys",
			}
		}

		for key, values := range entries {
			if len(values.Strings()) == 0 {
				return &ParseError{
					Kind:      ErrKindSchemaViolation,
					Statement: label,
					Operator:  opKey,
					Field:     key,
					Message:   "expected value list must be non-empty",
				}
			}
			if op.Base == OpNull {
				if err := validateNullEntry(label, opKey, key, values.Strings()); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Null takes exactly one expected value per key, "true" or "false".
func validateNullEntry(label, opKey, key string, values []string) error {
	if len(values) != 1 {
		return &ParseError{
			Kind:      ErrKindSchemaViolation,
			Statement: label,
			Operator:  opKey,
			Field:     key,
			Message:   "Null takes exactly one expected value",
		}
	}
	if values[0] != "true" && values[0] != "false" {
		return &ParseError{
			Kind:      ErrKindSchemaViolation,
			Statement: label,
			Operator:  opKey,
			Field:     key,
			Message:   fmt.Sprintf("Null expected value must be %q or %q, got %q", "true", "false", values[0]),
		}
	}
	return nil
}
