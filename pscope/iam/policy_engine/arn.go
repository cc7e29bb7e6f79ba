package policy_engine

import (
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go/aws/arn"
)

var accountIDRegex = regexp.MustCompile(`^\d{12}$`)

// IsAccountID reports whether s looks like a bare AWS account id.
func IsAccountID(s string) bool {
	return accountIDRegex.MatchString(s)
}

// IsARN reports whether s parses as an ARN.
func IsARN(s string) bool {
	return arn.IsARN(s)
}

// arnEquals compares two ARNs for equality. Both sides must be valid
// ARNs; anything else is a non-match.
func arnEquals(candidate, expected string) bool {
	if !arn.IsARN(candidate) || !arn.IsARN(expected) {
		return false
	}
	return candidate == expected
}

// arnLike matches a candidate ARN against an ARN pattern, wildcarding
// each colon-delimited component separately: a '*' inside one component
// does not leak into the next. The bare pattern "*" matches any ARN.
func arnLike(candidate, pattern string) bool {
	parsed, err := arn.Parse(candidate)
	if err != nil {
		return false
	}
	if pattern == "*" {
		return true
	}

	// arn:partition:service:region:account-id:resource
	parts := strings.SplitN(pattern, ":", 6)
	if len(parts) != 6 || parts[0] != "arn" {
		return false
	}

	segments := []struct{ pattern, value string }{
		{parts[1], parsed.Partition},
		{parts[2], parsed.Service},
		{parts[3], parsed.Region},
		{parts[4], parsed.AccountID},
		{parts[5], parsed.Resource},
	}
	for _, seg := range segments {
		if !MatchesWildcard(seg.pattern, seg.value) {
			return false
		}
	}
	return true
}
