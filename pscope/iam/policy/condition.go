package policy

import (
	"fmt"
	"strings"
)

// ConditionBlock maps an operator key (e.g. "StringEquals",
// "ForAllValues:StringLike", "NumericEqualsIfExists") to a map from
// context key name to expected values.
type ConditionBlock map[string]map[string]StringOrStringSlice

// Quantifier is the optional set-operator prefix on a condition key.
type Quantifier int

const (
	QuantifierNone Quantifier = iota
	QuantifierForAllValues
	QuantifierForAnyValues
)

const (
	forAllValuesPrefix = "ForAllValues:"
	forAnyValuesPrefix = "ForAnyValues:"
	ifExistsSuffix     = "IfExists"
)

func (q Quantifier) String() string {
	switch q {
	case QuantifierForAllValues:
		return forAllValuesPrefix
	case QuantifierForAnyValues:
		return forAnyValuesPrefix
	default:
		return ""
	}
}

// BaseOperator enumerates every condition operator the grammar accepts.
// Adding an operator here without extending the evaluator switch is caught
// at compile time by the engine's exhaustive dispatch.
type BaseOperator int

const (
	OpStringEquals BaseOperator = iota
	OpStringNotEquals
	OpStringEqualsIgnoreCase
	OpStringNotEqualsIgnoreCase
	OpStringLike
	OpStringNotLike
	OpNumericEquals
	OpNumericNotEquals
	OpNumericLessThan
	OpNumericLessThanEquals
	OpNumericGreaterThan
	OpNumericGreaterThanEquals
	OpDateEquals
	OpDateNotEquals
	OpDateLessThan
	OpDateLessThanEquals
	OpDateGreaterThan
	OpDateGreaterThanEquals
	OpBool
	OpBinaryEquals
	OpIpAddress
	OpNotIpAddress
	OpArnEquals
	OpArnLike
	OpArnNotEquals
	OpArnNotLike
	OpNull
)

var baseOperatorNames = map[string]BaseOperator{
	"StringEquals":              OpStringEquals,
	"StringNotEquals":           OpStringNotEquals,
	"StringEqualsIgnoreCase":    OpStringEqualsIgnoreCase,
	"StringNotEqualsIgnoreCase": OpStringNotEqualsIgnoreCase,
	"StringLike":                OpStringLike,
	"StringNotLike":             OpStringNotLike,
	"NumericEquals":             OpNumericEquals,
	"NumericNotEquals":          OpNumericNotEquals,
	"NumericLessThan":           OpNumericLessThan,
	"NumericLessThanEquals":     OpNumericLessThanEquals,
	"NumericGreaterThan":        OpNumericGreaterThan,
	"NumericGreaterThanEquals":  OpNumericGreaterThanEquals,
	"DateEquals":                OpDateEquals,
	"DateNotEquals":             OpDateNotEquals,
	"DateLessThan":              OpDateLessThan,
	"DateLessThanEquals":        OpDateLessThanEquals,
	"DateGreaterThan":           OpDateGreaterThan,
	"DateGreaterThanEquals":     OpDateGreaterThanEquals,
	"Bool":                      OpBool,
	"BinaryEquals":              OpBinaryEquals,
	"IpAddress":                 OpIpAddress,
	"NotIpAddress":              OpNotIpAddress,
	"ArnEquals":                 OpArnEquals,
	"ArnLike":                   OpArnLike,
	"ArnNotEquals":              OpArnNotEquals,
	"ArnNotLike":                OpArnNotLike,
	"Null":                      OpNull,
}

var baseOperatorStrings = func() map[BaseOperator]string {
	m := make(map[BaseOperator]string, len(baseOperatorNames))
	for name, op := range baseOperatorNames {
		m[op] = name
	}
	return m
}()

func (op BaseOperator) String() string {
	if name, ok := baseOperatorStrings[op]; ok {
		return name
	}
	return fmt.Sprintf("BaseOperator(%d)", int(op))
}

// ConditionOperator is a decomposed condition operator key:
// [ForAllValues:|ForAnyValues:] BaseOperator [IfExists].
type ConditionOperator struct {
	Quantifier Quantifier
	Base       BaseOperator
	IfExists   bool
}

func (op ConditionOperator) String() string {
	s := op.Quantifier.String() + op.Base.String()
	if op.IfExists {
		s += ifExistsSuffix
	}
	return s
}

// ParseConditionOperator decomposes an operator key. Unknown base
// operators are an error: a condition the grammar does not know must stop
// parsing, never degrade into a no-op.
func ParseConditionOperator(key string) (ConditionOperator, error) {
	op := ConditionOperator{}
	rest := key

	if strings.HasPrefix(rest, forAllValuesPrefix) {
		op.Quantifier = QuantifierForAllValues
		rest = rest[len(forAllValuesPrefix):]
	} else if strings.HasPrefix(rest, forAnyValuesPrefix) {
		op.Quantifier = QuantifierForAnyValues
		rest = rest[len(forAnyValuesPrefix):]
	}

	if trimmed, found := strings.CutSuffix(rest, ifExistsSuffix); found {
		op.IfExists = true
		rest = trimmed
	}

	base, ok := baseOperatorNames[rest]
	if !ok {
		return ConditionOperator{}, fmt.Errorf("unrecognized condition operator %q", key)
	}
	op.Base = base

	if base == OpNull && (op.IfExists || op.Quantifier != QuantifierNone) {
		return ConditionOperator{}, fmt.Errorf("Null does not combine with IfExists or set quantifiers: %q", key)
	}

	return op, nil
}
