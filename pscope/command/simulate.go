package command

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/golang/glog"

	"github.com/policyscope/policyscope/pscope/iam/policy_engine"
	"github.com/policyscope/policyscope/pscope/util"
)

var cmdSimulate = &Command{
	UsageLine: "simulate -policy=./policy.json -action=s3:GetObject -resource=arn:aws:s3:::mybucket/key",
	Short:     "evaluate a simulated request against a policy document",
	Long: `Simulate evaluates one request against a policy document and prints
  Allow, ExplicitDeny, or ImplicitDeny, following IAM combination
  semantics: an applicable Deny statement beats any Allow, and a request
  no statement covers is implicitly denied.

  -action and -resource must be given together. At most one of the
  -principal-* flags may be set; with none set the policy is treated as an
  identity policy and Principal constraints are ignored.

  -context points at a JSON file supplying simulated request context keys:
  {"global": {"aws:SecureTransport": "true"},
   "resources": {"arn:aws:s3:::mybucket/key": {"aws:ResourceAccount": "111122223333"}}}

  Defaults for output format and context keys can live in pscope.toml
  (simulate.output, simulate.context).

  Exits 0 on Allow, 1 on parse or evaluation failure, 2 on wrong
  arguments, 3 on a deny.
  `,
}

var (
	simulatePolicyFile   = cmdSimulate.Flag.String("policy", "", "path to the policy JSON document")
	simulateAction       = cmdSimulate.Flag.String("action", "", "candidate action, e.g. s3:GetObject")
	simulateResource     = cmdSimulate.Flag.String("resource", "", "candidate resource ARN")
	simulateContextFile  = cmdSimulate.Flag.String("context", "", "optional JSON file with simulated request context keys")
	simulateOutput       = cmdSimulate.Flag.String("output", "", "output format: text or json (default text, or simulate.output from pscope.toml)")
	principalAWS         = cmdSimulate.Flag.String("principal-aws", "", "request principal: AWS ARN or 12-digit account id")
	principalCanonical   = cmdSimulate.Flag.String("principal-canonical-user", "", "request principal: canonical user id")
	principalFederated   = cmdSimulate.Flag.String("principal-federated", "", "request principal: federated identity provider")
	principalServiceName = cmdSimulate.Flag.String("principal-service", "", "request principal: service name")
)

func init() {
	cmdSimulate.Run = runSimulate // break init cycle
	cmdSimulate.IsDebug = cmdSimulate.Flag.Bool("debug", false, "trace statement and condition evaluation, same as -v=2")
}

func runSimulate(cmd *Command, args []string) bool {
	if *simulatePolicyFile == "" {
		fmt.Fprintln(os.Stderr, "the -policy flag is required")
		return false
	}
	if (*simulateAction == "") != (*simulateResource == "") {
		fmt.Fprintln(os.Stderr, "-action and -resource must be given together")
		return false
	}

	doc, err := loadPolicyDocument(*simulatePolicyFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid policy: %v\n", err)
		os.Exit(1)
	}

	if *simulateAction == "" {
		// Policy only: validation is the whole job.
		fmt.Printf("ok: %d statement(s), version %s\n", len(doc.Statement), doc.Version)
		return true
	}

	principal, ok := requestPrincipalFromFlags()
	if !ok {
		return false
	}

	util.LoadConfiguration("pscope", false)
	conf := util.GetViper()

	// viper folds keys to lower case, so the context defaults come from a
	// case-preserving read of the same file.
	defaults := util.GetStringMapStringPreservingCase("simulate.context")
	var simCtx *simulationContext
	if *simulateContextFile != "" {
		simCtx, err = loadSimulationContext(*simulateContextFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}

	req := &policy_engine.RequestContext{
		Action:      *simulateAction,
		Resource:    *simulateResource,
		Principal:   principal,
		ContextKeys: contextKeysForRequest(defaults, simCtx, *simulateResource),
	}

	outcome, err := policy_engine.Evaluate(doc, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	printOutcome(outcome, outputFormat(conf))

	if outcome.Decision != policy_engine.DecisionAllow {
		os.Exit(3)
	}
	return true
}

// requestPrincipalFromFlags builds the request principal from the four
// mutually exclusive -principal-* flags.
func requestPrincipalFromFlags() (*policy_engine.RequestPrincipal, bool) {
	var principal *policy_engine.RequestPrincipal
	count := 0

	for _, candidate := range []struct {
		kind  policy_engine.RequestPrincipalKind
		value string
	}{
		{policy_engine.PrincipalKindAWS, *principalAWS},
		{policy_engine.PrincipalKindCanonicalUser, *principalCanonical},
		{policy_engine.PrincipalKindFederated, *principalFederated},
		{policy_engine.PrincipalKindService, *principalServiceName},
	} {
		if candidate.value == "" {
			continue
		}
		count++
		principal = &policy_engine.RequestPrincipal{Kind: candidate.kind, Value: candidate.value}
	}

	if count > 1 {
		fmt.Fprintln(os.Stderr, "at most one -principal-* flag may be set")
		return nil, false
	}
	if principal != nil && principal.Kind == policy_engine.PrincipalKindAWS {
		if !policy_engine.IsARN(principal.Value) && !policy_engine.IsAccountID(principal.Value) {
			fmt.Fprintf(os.Stderr, "-principal-aws must be an ARN or a 12-digit account id, got %q\n", principal.Value)
			return nil, false
		}
	}
	if principal == nil {
		glog.V(1).Info("no principal flag set, evaluating as identity policy")
	}
	return principal, true
}

func outputFormat(conf util.Configuration) string {
	if *simulateOutput != "" {
		return *simulateOutput
	}
	conf.SetDefault("simulate.output", "text")
	return conf.GetString("simulate.output")
}

func printOutcome(outcome *policy_engine.EvaluationOutcome, format string) {
	switch format {
	case "json":
		encoded, err := json.Marshal(outcome)
		if err != nil {
			glog.Fatalf("encoding outcome: %v", err)
		}
		fmt.Println(string(encoded))
	default:
		if outcome.Sid != "" {
			fmt.Printf("%s (statement %q)\n", outcome.Decision, outcome.Sid)
		} else {
			fmt.Println(outcome.Decision)
		}
	}
}
