package policy_engine

import (
	"github.com/policyscope/policyscope/pscope/iam/policy"
)

// RequestPrincipalKind names the principal variant a request carries,
// mirroring the principal-type keys of the policy grammar.
type RequestPrincipalKind int

const (
	PrincipalKindAWS RequestPrincipalKind = iota
	PrincipalKindCanonicalUser
	PrincipalKindFederated
	PrincipalKindService
)

func (k RequestPrincipalKind) String() string {
	switch k {
	case PrincipalKindAWS:
		return "AWS"
	case PrincipalKindCanonicalUser:
		return "CanonicalUser"
	case PrincipalKindFederated:
		return "Federated"
	case PrincipalKindService:
		return "Service"
	default:
		return "Unknown"
	}
}

// RequestPrincipal is the caller-supplied principal descriptor. For the
// AWS kind the value is an ARN or a bare account id; for the others it is
// the canonical user id, federated provider, or service name.
type RequestPrincipal struct {
	Kind  RequestPrincipalKind
	Value string
}

// MatchPrincipal checks a principal block against a request principal.
// Each variant list is a match-any set, and only the list of the
// candidate's own kind is consulted; the wildcard block matches everyone.
func MatchPrincipal(spec *policy.PrincipalSpec, p *RequestPrincipal) bool {
	if spec.All {
		return true
	}

	var patterns []string
	switch p.Kind {
	case PrincipalKindAWS:
		patterns = spec.AWS.Strings()
	case PrincipalKindCanonicalUser:
		patterns = spec.CanonicalUser.Strings()
	case PrincipalKindFederated:
		patterns = spec.Federated.Strings()
	case PrincipalKindService:
		patterns = spec.Service.Strings()
	}

	for _, pattern := range patterns {
		if pattern == "*" {
			return true
		}
		if MatchesWildcard(pattern, p.Value) {
			return true
		}
	}
	return false
}
