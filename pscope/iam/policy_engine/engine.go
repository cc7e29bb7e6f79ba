package policy_engine

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/policyscope/policyscope/pscope/iam/policy"
)

// Decision is the combined outcome of evaluating one request against one
// policy document.
type Decision int

const (
	DecisionImplicitDeny Decision = iota
	DecisionAllow
	DecisionExplicitDeny
)

func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "Allow"
	case DecisionExplicitDeny:
		return "ExplicitDeny"
	case DecisionImplicitDeny:
		return "ImplicitDeny"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// RequestContext is the simulated request: the candidate action, resource
// ARN, optional principal, and the multi-valued context key map. The
// engine treats it as read-only and never retains it past one call.
type RequestContext struct {
	Action      string
	Resource    string
	Principal   *RequestPrincipal
	ContextKeys map[string][]string
}

// EvaluationOutcome is the final decision plus, when a single statement
// decided it, that statement's Sid for diagnostics.
type EvaluationOutcome struct {
	Decision Decision `json:"decision"`
	Sid      string   `json:"sid,omitempty"`
}

// Evaluate combines per-statement outcomes into a decision:
// any applicable Deny wins, else any applicable Allow, else implicit deny.
// The scan visits every statement before concluding, so permuting the
// statement list can never change the outcome. A condition form the
// engine cannot evaluate aborts the whole call; no partial decisions.
func Evaluate(doc *policy.PolicyDocument, req *RequestContext) (*EvaluationOutcome, error) {
	var allowSid, denySid string
	var hasAllow, hasDeny bool

	for i := range doc.Statement {
		stmt := &doc.Statement[i]

		applies, err := statementApplies(stmt, req)
		if err != nil {
			return nil, err
		}
		if !applies {
			continue
		}

		glog.V(1).Infof("statement %d (%s) applies with effect %s", i, stmt.Sid, stmt.Effect)
		switch stmt.Effect {
		case policy.EffectDeny:
			if !hasDeny {
				hasDeny = true
				denySid = stmt.Sid
			}
		case policy.EffectAllow:
			if !hasAllow {
				hasAllow = true
				allowSid = stmt.Sid
			}
		}
	}

	if hasDeny {
		return &EvaluationOutcome{Decision: DecisionExplicitDeny, Sid: denySid}, nil
	}
	if hasAllow {
		return &EvaluationOutcome{Decision: DecisionAllow, Sid: allowSid}, nil
	}
	return &EvaluationOutcome{Decision: DecisionImplicitDeny}, nil
}

// statementApplies runs the per-statement state machine: action polarity,
// resource polarity, principal polarity, then conditions. Failing any
// step leaves the statement non-applicable.
func statementApplies(stmt *policy.Statement, req *RequestContext) (bool, error) {
	if !matchesActionGroup(stmt, req.Action) {
		return false, nil
	}
	if !matchesResourceGroup(stmt, req.Resource) {
		return false, nil
	}
	if !matchesPrincipalGroup(stmt, req.Principal) {
		return false, nil
	}

	ok, err := EvaluateConditions(stmt.Condition, req.ContextKeys)
	if err != nil {
		if evalErr, isEval := err.(*EvaluationError); isEval && evalErr.Sid == "" {
			evalErr.Sid = stmt.Sid
		}
		return false, err
	}
	return ok, nil
}

func matchesActionGroup(stmt *policy.Statement, action string) bool {
	if stmt.NotAction.IsPresent() {
		// Whole-set negation: the statement applies only when the action
		// matches none of the NotAction patterns.
		return !anyActionMatch(stmt.NotAction.Strings(), action)
	}
	return anyActionMatch(stmt.Action.Strings(), action)
}

func matchesResourceGroup(stmt *policy.Statement, resource string) bool {
	if stmt.NotResource.IsPresent() {
		return !anyResourceMatch(stmt.NotResource.Strings(), resource)
	}
	return anyResourceMatch(stmt.Resource.Strings(), resource)
}

// matchesPrincipalGroup is the single decision point for the
// identity-policy simplification: a request without a principal skips
// Principal and NotPrincipal constraints entirely. This leniency may
// become an error once resource- and identity-policy evaluation are
// separated; keep the branch here.
func matchesPrincipalGroup(stmt *policy.Statement, p *RequestPrincipal) bool {
	if stmt.Principal == nil && stmt.NotPrincipal == nil {
		return true
	}
	if p == nil {
		glog.V(1).Infof("no request principal: ignoring principal constraints (sid %q)", stmt.Sid)
		return true
	}
	if stmt.NotPrincipal != nil {
		return !MatchPrincipal(stmt.NotPrincipal, p)
	}
	return MatchPrincipal(stmt.Principal, p)
}

func anyActionMatch(patterns []string, action string) bool {
	for _, pattern := range patterns {
		if MatchAction(pattern, action) {
			return true
		}
	}
	return false
}

func anyResourceMatch(patterns []string, resource string) bool {
	for _, pattern := range patterns {
		if MatchResource(pattern, resource) {
			return true
		}
	}
	return false
}
