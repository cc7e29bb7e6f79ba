package policy_engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyscope/policyscope/pscope/iam/policy"
)

func conditionBlock(t *testing.T, operator, key string, expected ...string) policy.ConditionBlock {
	t.Helper()
	return policy.ConditionBlock{
		operator: {key: policy.NewStringOrStringSlice(expected...)},
	}
}

func evalCondition(t *testing.T, block policy.ConditionBlock, ctx map[string][]string) bool {
	t.Helper()
	ok, err := EvaluateConditions(block, ctx)
	require.NoError(t, err)
	return ok
}

func TestStringOperators(t *testing.T) {
	ctx := map[string][]string{"test:Property": {"test"}}

	assert.True(t, evalCondition(t, conditionBlock(t, "StringEquals", "test:Property", "test"), ctx))
	assert.False(t, evalCondition(t, conditionBlock(t, "StringEquals", "test:Property", "TEST"), ctx))
	assert.False(t, evalCondition(t, conditionBlock(t, "StringNotEquals", "test:Property", "test"), ctx))
	assert.True(t, evalCondition(t, conditionBlock(t, "StringNotEquals", "test:Property", "other"), ctx))

	assert.True(t, evalCondition(t, conditionBlock(t, "StringEqualsIgnoreCase", "test:Property", "TEST"), ctx))
	assert.False(t, evalCondition(t, conditionBlock(t, "StringNotEqualsIgnoreCase", "test:Property", "TEST"), ctx))

	// Equality treats glob characters literally; only Like expands them
	starCtx := map[string][]string{"test:Property": {"test*"}}
	assert.True(t, evalCondition(t, conditionBlock(t, "StringEquals", "test:Property", "test*"), starCtx))
	assert.False(t, evalCondition(t, conditionBlock(t, "StringEquals", "test:Property", "testa"), starCtx))

	assert.True(t, evalCondition(t, conditionBlock(t, "StringLike", "test:Property", "t?st"), ctx))
	assert.True(t, evalCondition(t, conditionBlock(t, "StringLike", "test:Property", "t*st"), ctx))
	assert.False(t, evalCondition(t, conditionBlock(t, "StringLike", "test:Property", "t?t"), ctx))
	assert.False(t, evalCondition(t, conditionBlock(t, "StringNotLike", "test:Property", "te*"), ctx))
}

func TestNumericOperators(t *testing.T) {
	// context value, expected value, less-than, equal
	cases := []struct {
		value, expected  string
		lessThan, equals bool
	}{
		{"1", "2", true, false},
		{"2", "2", false, true},
		{"3", "2", false, false},
		{"1.0", "2", true, false},
		{"2.0", "2", false, true},
		{"1", "2.0", true, false},
		{"2", "2.0", false, true},
		{"3.0", "2.0", false, false},
	}
	for _, tc := range cases {
		ctx := map[string][]string{"n": {tc.value}}
		assert.Equal(t, tc.equals, evalCondition(t, conditionBlock(t, "NumericEquals", "n", tc.expected), ctx), "NumericEquals %s %s", tc.value, tc.expected)
		assert.Equal(t, !tc.equals, evalCondition(t, conditionBlock(t, "NumericNotEquals", "n", tc.expected), ctx))
		assert.Equal(t, tc.lessThan, evalCondition(t, conditionBlock(t, "NumericLessThan", "n", tc.expected), ctx))
		assert.Equal(t, tc.lessThan || tc.equals, evalCondition(t, conditionBlock(t, "NumericLessThanEquals", "n", tc.expected), ctx))
		assert.Equal(t, !(tc.lessThan || tc.equals), evalCondition(t, conditionBlock(t, "NumericGreaterThan", "n", tc.expected), ctx))
		assert.Equal(t, !tc.lessThan, evalCondition(t, conditionBlock(t, "NumericGreaterThanEquals", "n", tc.expected), ctx))
	}

	// A non-numeric value is a non-match, not an error
	badCtx := map[string][]string{"n": {"1.1.1"}}
	assert.False(t, evalCondition(t, conditionBlock(t, "NumericEquals", "n", "1"), badCtx))
	assert.False(t, evalCondition(t, conditionBlock(t, "NumericLessThan", "n", "1"), badCtx))
	// ...on either side
	assert.False(t, evalCondition(t, conditionBlock(t, "NumericEquals", "n", "1.1.1"), map[string][]string{"n": {"1"}}))
}

func TestDateOperators(t *testing.T) {
	cases := []struct {
		value, expected  string
		lessThan, equals bool
	}{
		{"2020-04-01T00:00:01Z", "2020-04-01T00:00:02Z", true, false},
		{"2020-04-01T00:00:02Z", "2020-04-01T00:00:02Z", false, true},
		{"2020-04-01T00:00:03Z", "2020-04-01T00:00:02Z", false, false},
		{"2020-04-01T00:00:02+01:00", "2020-04-01T00:00:02Z", true, false},
		{"2020-04-01T00:00:02+00:00", "2020-04-01T00:00:02Z", false, true},
		{"2020-04-01T00:00:02-01:00", "2020-04-01T00:00:02Z", false, false},
	}
	for _, tc := range cases {
		ctx := map[string][]string{"d": {tc.value}}
		assert.Equal(t, tc.equals, evalCondition(t, conditionBlock(t, "DateEquals", "d", tc.expected), ctx), "DateEquals %s %s", tc.value, tc.expected)
		assert.Equal(t, !tc.equals, evalCondition(t, conditionBlock(t, "DateNotEquals", "d", tc.expected), ctx))
		assert.Equal(t, tc.lessThan, evalCondition(t, conditionBlock(t, "DateLessThan", "d", tc.expected), ctx))
		assert.Equal(t, tc.lessThan || tc.equals, evalCondition(t, conditionBlock(t, "DateLessThanEquals", "d", tc.expected), ctx))
		assert.Equal(t, !(tc.lessThan || tc.equals), evalCondition(t, conditionBlock(t, "DateGreaterThan", "d", tc.expected), ctx))
		assert.Equal(t, !tc.lessThan, evalCondition(t, conditionBlock(t, "DateGreaterThanEquals", "d", tc.expected), ctx))
	}

	// A timestamp without an offset is a non-match
	noTZ := map[string][]string{"d": {"2020-04-01T00:00:02"}}
	assert.False(t, evalCondition(t, conditionBlock(t, "DateEquals", "d", "2020-04-01T00:00:02Z"), noTZ))
}

func TestBoolOperator(t *testing.T) {
	cases := []struct {
		value, expected string
		want            bool
	}{
		{"true", "true", true},
		{"true", "false", false},
		{"false", "true", false},
		{"false", "false", true},
		{"TRUE", "true", true},
		{"tree", "true", false},
		{"true", "tree", false},
	}
	for _, tc := range cases {
		ctx := map[string][]string{"b": {tc.value}}
		assert.Equal(t, tc.want, evalCondition(t, conditionBlock(t, "Bool", "b", tc.expected), ctx), "Bool %s %s", tc.value, tc.expected)
	}
}

func TestBinaryEqualsOperator(t *testing.T) {
	cases := []struct {
		value, expected string
		want            bool
	}{
		// Padding may be omitted
		{"dGVzdA==", "dGVzdA==", true},
		{"dGVzdA==", "dGVzdA=", true},
		{"dGVzdA==", "dGVzdA", true},
		{"dGVzdA", "dGVzdA==", true},
		{"dGVzdA", "dGVzdA", true},
		{"dGVzdA==", "dGVzdC4=", false},
		{"dGVzdC4=", "dGVzdA==", false},
		// Undecodable input is a non-match
		{"!!!", "dGVzdA==", false},
		{"dGVzdA==", "!!!", false},
	}
	for _, tc := range cases {
		ctx := map[string][]string{"bin": {tc.value}}
		assert.Equal(t, tc.want, evalCondition(t, conditionBlock(t, "BinaryEquals", "bin", tc.expected), ctx), "BinaryEquals %s %s", tc.value, tc.expected)
	}
}

func TestIpAddressOperators(t *testing.T) {
	cases := []struct {
		value, expected string
		contains        bool
	}{
		{"203.0.113.64", "203.0.113.0/24", true},
		{"203.0.112.1", "203.0.113.0/24", false},
		{"203.0.114.1", "203.0.113.0/24", false},
		{"2001:DB8:1234:5678::1", "2001:DB8:1234:5678::/64", true},
		{"2001:DB8:1234:5678:FFFF:FFFF:FFFF:1", "2001:DB8:1234:5678::/64", true},
		{"2001:DB8:1234:5677::1", "2001:DB8:1234:5678::/64", false},
		// Single-address expected value
		{"203.0.113.64", "203.0.113.64", true},
		{"203.0.113.64", "203.0.113.65", false},
	}
	for _, tc := range cases {
		ctx := map[string][]string{"aws:SourceIp": {tc.value}}
		assert.Equal(t, tc.contains, evalCondition(t, conditionBlock(t, "IpAddress", "aws:SourceIp", tc.expected), ctx), "IpAddress %s %s", tc.value, tc.expected)
		assert.Equal(t, !tc.contains, evalCondition(t, conditionBlock(t, "NotIpAddress", "aws:SourceIp", tc.expected), ctx))
	}

	// Unparseable values are non-matches: positive stays false, negated
	// form stays true
	badCases := [][2]string{
		{"256.0.113.64", "203.0.113.0/24"},
		{"203.0.113.64", "203.0.113.0/33"},
		{"203.0.113.64/31", "203.0.113.0/24"},
		{"2001:DB8::1234:5678::1", "2001:DB8:1234:5678::/64"},
	}
	for _, tc := range badCases {
		ctx := map[string][]string{"aws:SourceIp": {tc[0]}}
		assert.False(t, evalCondition(t, conditionBlock(t, "IpAddress", "aws:SourceIp", tc[1]), ctx), "IpAddress %s %s", tc[0], tc[1])
		assert.True(t, evalCondition(t, conditionBlock(t, "NotIpAddress", "aws:SourceIp", tc[1]), ctx))
	}
}

func TestArnOperators(t *testing.T) {
	cases := []struct {
		value, expected string
		equals, like    bool
	}{
		{"arn:aws:iam::123456789012:user/Alice", "arn:aws:iam::123456789012:user/Alice", true, true},
		{"arn:aws:iam::123456789012:user/Alice", "arn:aws:iam::123456789012:user/Bob", false, false},
		{"arn:aws:iam::123456789012:user/Alice", "arn:aws:iam::123456789012:user/*", false, true},
		{"arn:aws:iam::123456789012:user/Alice", "arn:aws:iam::*:user/Bob", false, false},
		{"arn:aws:iam::123456789012:user/Alice", "arn:aws:iam::*:user/Alice", false, true},
	}
	for _, tc := range cases {
		ctx := map[string][]string{"aws:SourceArn": {tc.value}}
		assert.Equal(t, tc.equals, evalCondition(t, conditionBlock(t, "ArnEquals", "aws:SourceArn", tc.expected), ctx), "ArnEquals %s %s", tc.value, tc.expected)
		assert.Equal(t, !tc.equals, evalCondition(t, conditionBlock(t, "ArnNotEquals", "aws:SourceArn", tc.expected), ctx))
		assert.Equal(t, tc.like, evalCondition(t, conditionBlock(t, "ArnLike", "aws:SourceArn", tc.expected), ctx), "ArnLike %s %s", tc.value, tc.expected)
		assert.Equal(t, !tc.like, evalCondition(t, conditionBlock(t, "ArnNotLike", "aws:SourceArn", tc.expected), ctx))
	}

	// A wildcard inside one component does not leak across ':'
	ctx := map[string][]string{"aws:SourceArn": {"arn:aws:iam::123456789012:user/Alice"}}
	assert.False(t, evalCondition(t, conditionBlock(t, "ArnLike", "aws:SourceArn", "arn:aws:s3*user/Alice"), ctx))

	// Non-ARN values never match
	nonARN := map[string][]string{"aws:SourceArn": {"not-an-arn"}}
	assert.False(t, evalCondition(t, conditionBlock(t, "ArnEquals", "aws:SourceArn", "not-an-arn"), nonARN))
	assert.False(t, evalCondition(t, conditionBlock(t, "ArnLike", "aws:SourceArn", "*"), nonARN))
}

func TestNullOperator(t *testing.T) {
	present := map[string][]string{"aws:TokenIssueTime": {"2020-04-01T00:00:00Z"}}
	absent := map[string][]string{}

	assert.True(t, evalCondition(t, conditionBlock(t, "Null", "aws:TokenIssueTime", "true"), absent))
	assert.False(t, evalCondition(t, conditionBlock(t, "Null", "aws:TokenIssueTime", "true"), present))
	assert.True(t, evalCondition(t, conditionBlock(t, "Null", "aws:TokenIssueTime", "false"), present))
	assert.False(t, evalCondition(t, conditionBlock(t, "Null", "aws:TokenIssueTime", "false"), absent))
}

func TestKeyAbsence(t *testing.T) {
	empty := map[string][]string{}

	// A plain operator on a missing key fails the block, the Not-family
	// included
	assert.False(t, evalCondition(t, conditionBlock(t, "StringEquals", "missing", "x"), empty))
	assert.False(t, evalCondition(t, conditionBlock(t, "StringNotEquals", "missing", "x"), empty))
	assert.False(t, evalCondition(t, conditionBlock(t, "NumericLessThan", "missing", "1"), empty))

	// A key mapped to zero values counts as absent
	zeroValues := map[string][]string{"k": {}}
	assert.False(t, evalCondition(t, conditionBlock(t, "StringEquals", "k", "x"), zeroValues))
	assert.True(t, evalCondition(t, conditionBlock(t, "Null", "k", "true"), zeroValues))
}

func TestValueMultiplicity(t *testing.T) {
	multi := map[string][]string{"aws:CalledVia": {"athena.amazonaws.com", "kms.amazonaws.com"}}

	// Positive operators: some context value matches some expected value
	assert.True(t, evalCondition(t, conditionBlock(t, "StringEquals", "aws:CalledVia", "kms.amazonaws.com", "sqs.amazonaws.com"), multi))
	assert.False(t, evalCondition(t, conditionBlock(t, "StringEquals", "aws:CalledVia", "sqs.amazonaws.com"), multi))

	// Not-family: every context value must differ from every expected value
	assert.False(t, evalCondition(t, conditionBlock(t, "StringNotEquals", "aws:CalledVia", "kms.amazonaws.com"), multi))
	assert.True(t, evalCondition(t, conditionBlock(t, "StringNotEquals", "aws:CalledVia", "sqs.amazonaws.com"), multi))
}

func TestConditionBlockConjunction(t *testing.T) {
	block := policy.ConditionBlock{
		"StringEquals": {
			"aws:PrincipalOrgID": policy.NewStringOrStringSlice("o-1234"),
		},
		"Bool": {
			"aws:SecureTransport": policy.NewStringOrStringSlice("true"),
		},
	}

	assert.True(t, evalCondition(t, block, map[string][]string{
		"aws:PrincipalOrgID":  {"o-1234"},
		"aws:SecureTransport": {"true"},
	}))
	assert.False(t, evalCondition(t, block, map[string][]string{
		"aws:PrincipalOrgID":  {"o-1234"},
		"aws:SecureTransport": {"false"},
	}))
	assert.False(t, evalCondition(t, block, map[string][]string{
		"aws:SecureTransport": {"true"},
	}))
}

func TestUnsupportedConditionFormsError(t *testing.T) {
	ctx := map[string][]string{"aws:TagKeys": {"env"}}

	for _, operator := range []string{
		"ForAllValues:StringNotEquals",
		"ForAnyValues:StringEquals",
		"StringEqualsIfExists",
	} {
		t.Run(operator, func(t *testing.T) {
			block := conditionBlock(t, operator, "aws:TagKeys", "env")
			ok, err := EvaluateConditions(block, ctx)
			assert.False(t, ok)
			require.Error(t, err)
			var evalErr *EvaluationError
			require.ErrorAs(t, err, &evalErr)
			assert.Equal(t, EvalErrUnsupported, evalErr.Kind)
			assert.Equal(t, operator, evalErr.Operator)
		})
	}
}

func TestEmptyConditionBlock(t *testing.T) {
	assert.True(t, evalCondition(t, nil, nil))
	assert.True(t, evalCondition(t, policy.ConditionBlock{}, map[string][]string{}))
}
