package policy_engine

import (
	"encoding/base64"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/policyscope/policyscope/pscope/iam/policy"
)

// EvaluateConditions evaluates a statement's condition block against the
// request context: a conjunction across every operator key and every
// context key. IfExists-suffixed and ForAllValues:/ForAnyValues:-prefixed
// forms are recognized by the grammar but not yet evaluated; they surface
// an EvaluationError instead of guessing either way.
func EvaluateConditions(block policy.ConditionBlock, contextKeys map[string][]string) (bool, error) {
	for opKey, entries := range block {
		op, err := policy.ParseConditionOperator(opKey)
		if err != nil {
			// Validation rejects unknown operators before evaluation;
			// hitting this means the document bypassed ParsePolicy.
			return false, &EvaluationError{Kind: EvalErrUnsupported, Operator: opKey}
		}

		if op.IfExists || op.Quantifier != policy.QuantifierNone {
			return false, &EvaluationError{Kind: EvalErrUnsupported, Operator: op.String()}
		}

		for key, expected := range entries {
			values, present := contextKeys[key]
			present = present && len(values) > 0

			if op.Base == policy.OpNull {
				wantAbsent := expected.Strings()[0] == "true"
				if present == wantAbsent {
					glog.V(2).Infof("condition %s on %q failed: present=%v", opKey, key, present)
					return false, nil
				}
				continue
			}

			if !present {
				glog.V(2).Infof("condition %s on %q failed: key absent", opKey, key)
				return false, nil
			}

			if !evaluateBase(op.Base, values, expected.Strings()) {
				glog.V(2).Infof("condition %s on %q failed for values %v", opKey, key, values)
				return false, nil
			}
		}
	}
	return true, nil
}

// evaluateBase dispatches on the operator enum. Positive operators accept
// when some context value matches some expected value; the Not-family
// accepts only when no pair matches. A value that fails its type's parse
// (bad number, date without offset, bad base64, bad IP) is a non-match for
// that pair, never an error.
func evaluateBase(op policy.BaseOperator, values, expected []string) bool {
	switch op {
	case policy.OpStringEquals:
		return anyPair(values, expected, stringsEq)
	case policy.OpStringNotEquals:
		return !anyPair(values, expected, stringsEq)
	case policy.OpStringEqualsIgnoreCase:
		return anyPair(values, expected, stringsEqFold)
	case policy.OpStringNotEqualsIgnoreCase:
		return !anyPair(values, expected, stringsEqFold)
	case policy.OpStringLike:
		return anyPair(values, expected, stringLike)
	case policy.OpStringNotLike:
		return !anyPair(values, expected, stringLike)

	case policy.OpNumericEquals:
		return anyPair(values, expected, numericCmp(func(c int) bool { return c == 0 }))
	case policy.OpNumericNotEquals:
		return !anyPair(values, expected, numericCmp(func(c int) bool { return c == 0 }))
	case policy.OpNumericLessThan:
		return anyPair(values, expected, numericCmp(func(c int) bool { return c < 0 }))
	case policy.OpNumericLessThanEquals:
		return anyPair(values, expected, numericCmp(func(c int) bool { return c <= 0 }))
	case policy.OpNumericGreaterThan:
		return anyPair(values, expected, numericCmp(func(c int) bool { return c > 0 }))
	case policy.OpNumericGreaterThanEquals:
		return anyPair(values, expected, numericCmp(func(c int) bool { return c >= 0 }))

	case policy.OpDateEquals:
		return anyPair(values, expected, dateCmp(func(c int) bool { return c == 0 }))
	case policy.OpDateNotEquals:
		return !anyPair(values, expected, dateCmp(func(c int) bool { return c == 0 }))
	case policy.OpDateLessThan:
		return anyPair(values, expected, dateCmp(func(c int) bool { return c < 0 }))
	case policy.OpDateLessThanEquals:
		return anyPair(values, expected, dateCmp(func(c int) bool { return c <= 0 }))
	case policy.OpDateGreaterThan:
		return anyPair(values, expected, dateCmp(func(c int) bool { return c > 0 }))
	case policy.OpDateGreaterThanEquals:
		return anyPair(values, expected, dateCmp(func(c int) bool { return c >= 0 }))

	case policy.OpBool:
		return anyPair(values, expected, boolsEq)
	case policy.OpBinaryEquals:
		return anyPair(values, expected, binaryEq)

	case policy.OpIpAddress:
		return anyPair(values, expected, ipMatches)
	case policy.OpNotIpAddress:
		return !anyPair(values, expected, ipMatches)

	case policy.OpArnEquals:
		return anyPair(values, expected, arnEquals)
	case policy.OpArnNotEquals:
		return !anyPair(values, expected, arnEquals)
	case policy.OpArnLike:
		return anyPair(values, expected, arnLike)
	case policy.OpArnNotLike:
		return !anyPair(values, expected, arnLike)

	case policy.OpNull:
		// Handled before dispatch; Null tests presence, not values.
		return false
	}
	return false
}

func anyPair(values, expected []string, match func(value, expected string) bool) bool {
	for _, value := range values {
		for _, target := range expected {
			if match(value, target) {
				return true
			}
		}
	}
	return false
}

func stringsEq(value, expected string) bool {
	return value == expected
}

func stringsEqFold(value, expected string) bool {
	return strings.EqualFold(value, expected)
}

func stringLike(value, expected string) bool {
	return MatchesWildcard(expected, value)
}

// numericCmp builds a pair matcher from a predicate over the three-way
// comparison of value against expected.
func numericCmp(accept func(cmp int) bool) func(value, expected string) bool {
	return func(value, expected string) bool {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return false
		}
		e, err := strconv.ParseFloat(expected, 64)
		if err != nil {
			return false
		}
		switch {
		case v < e:
			return accept(-1)
		case v > e:
			return accept(1)
		default:
			return accept(0)
		}
	}
}

// dateCmp parses both sides as RFC 3339; an offset is mandatory, so
// "2020-04-01T00:00:02" without a timezone is a non-match.
func dateCmp(accept func(cmp int) bool) func(value, expected string) bool {
	return func(value, expected string) bool {
		v, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return false
		}
		e, err := time.Parse(time.RFC3339, expected)
		if err != nil {
			return false
		}
		switch {
		case v.Before(e):
			return accept(-1)
		case v.After(e):
			return accept(1)
		default:
			return accept(0)
		}
	}
}

func boolsEq(value, expected string) bool {
	v, ok := parseBoolLiteral(value)
	if !ok {
		return false
	}
	e, ok := parseBoolLiteral(expected)
	if !ok {
		return false
	}
	return v == e
}

func parseBoolLiteral(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}

// binaryEq compares base64 payloads byte-wise. Padding may be omitted, so
// "dGVzdA", "dGVzdA=", and "dGVzdA==" all decode to the same bytes.
func binaryEq(value, expected string) bool {
	v, err := decodeBase64Lenient(value)
	if err != nil {
		return false
	}
	e, err := decodeBase64Lenient(expected)
	if err != nil {
		return false
	}
	return string(v) == string(e)
}

func decodeBase64Lenient(s string) ([]byte, error) {
	return base64.RawStdEncoding.Strict().DecodeString(strings.TrimRight(s, "="))
}

// ipMatches accepts the expected side as either a CIDR block or a single
// address. The context value must be a plain address: a CIDR on the value
// side is a non-match.
func ipMatches(value, expected string) bool {
	valueIP := net.ParseIP(value)
	if valueIP == nil {
		return false
	}

	if strings.Contains(expected, "/") {
		_, network, err := net.ParseCIDR(expected)
		if err != nil {
			return false
		}
		return network.Contains(valueIP)
	}

	expectedIP := net.ParseIP(expected)
	if expectedIP == nil {
		return false
	}
	return expectedIP.Equal(valueIP)
}
