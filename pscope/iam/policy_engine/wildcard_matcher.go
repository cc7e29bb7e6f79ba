package policy_engine

import (
	"regexp"
	"strings"
	"sync"

	"github.com/golang/glog"
)

// IAM pattern matching: '*' matches any sequence including the empty one,
// '?' matches exactly one character. Matching is anchored to the whole
// string and has no segment semantics ('*' crosses '/' and ':').

// WildcardMatcher holds a pattern in its cheapest matchable form: plain
// string manipulation for '*'-only patterns, a compiled regex when the
// pattern contains '?'.
type WildcardMatcher struct {
	useRegex bool
	regex    *regexp.Regexp
	pattern  string
}

// NewWildcardMatcher compiles a matcher for the given pattern.
func NewWildcardMatcher(pattern string) (*WildcardMatcher, error) {
	matcher := &WildcardMatcher{pattern: pattern}

	if strings.Contains(pattern, "?") {
		regex, err := compileWildcardPattern(pattern)
		if err != nil {
			return nil, err
		}
		matcher.useRegex = true
		matcher.regex = regex
	}

	return matcher, nil
}

// Match checks whether str matches the pattern. Case-sensitive.
func (m *WildcardMatcher) Match(str string) bool {
	if m.useRegex {
		return m.regex.MatchString(str)
	}
	return matchWildcardString(m.pattern, str)
}

var matcherCache sync.Map // pattern string -> *WildcardMatcher

// getCachedWildcardMatcher reuses compiled matchers across statements;
// a document commonly repeats the same handful of patterns.
func getCachedWildcardMatcher(pattern string) (*WildcardMatcher, error) {
	if cached, ok := matcherCache.Load(pattern); ok {
		return cached.(*WildcardMatcher), nil
	}
	matcher, err := NewWildcardMatcher(pattern)
	if err != nil {
		return nil, err
	}
	matcherCache.Store(pattern, matcher)
	return matcher, nil
}

// MatchesWildcard reports whether str matches pattern. Case-sensitive.
func MatchesWildcard(pattern, str string) bool {
	if pattern == "*" {
		return true
	}
	if pattern == str {
		return true
	}

	matcher, err := getCachedWildcardMatcher(pattern)
	if err != nil {
		glog.Errorf("cannot compile wildcard pattern %q: %v", pattern, err)
		return false
	}
	return matcher.Match(str)
}

// MatchAction matches an action pattern against a candidate action.
// Action and service names are case-insensitive, so both sides are folded
// before matching.
func MatchAction(pattern, action string) bool {
	return MatchesWildcard(strings.ToLower(pattern), strings.ToLower(action))
}

// MatchResource matches a resource pattern against a candidate ARN.
// ARNs are case-sensitive; "*" matches any resource including non-ARN
// forms.
func MatchResource(pattern, resource string) bool {
	return MatchesWildcard(pattern, resource)
}

// matchWildcardString handles '*'-only patterns without a regex.
func matchWildcardString(pattern, str string) bool {
	if pattern == "*" {
		return true
	}
	if pattern == str {
		return true
	}

	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == str
	}

	if !strings.HasPrefix(str, parts[0]) {
		return false
	}
	last := parts[len(parts)-1]
	if !strings.HasSuffix(str, last) {
		return false
	}

	searchStr := str[len(parts[0]):]
	if len(searchStr) < len(last) {
		// Prefix and suffix overlap in str, so they cannot both match.
		return false
	}
	searchStr = searchStr[:len(searchStr)-len(last)]

	for i := 1; i < len(parts)-1; i++ {
		if parts[i] == "" {
			continue
		}
		index := strings.Index(searchStr, parts[i])
		if index == -1 {
			return false
		}
		searchStr = searchStr[index+len(parts[i]):]
	}

	return true
}

// compileWildcardPattern converts a wildcard pattern to an anchored regex.
func compileWildcardPattern(pattern string) (*regexp.Regexp, error) {
	escaped := regexp.QuoteMeta(pattern)
	escaped = strings.ReplaceAll(escaped, `\*`, `.*`)
	escaped = strings.ReplaceAll(escaped, `\?`, `.`)
	return regexp.Compile("^" + escaped + "$")
}
