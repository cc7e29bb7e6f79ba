package policy

import (
	"encoding/json"
	"fmt"
)

// PrincipalSpec models the Principal / NotPrincipal element: either the
// wildcard "*" or an object keyed by principal type. A spec may carry
// several types at once; each list is an independent match-any set.
type PrincipalSpec struct {
	All           bool
	AWS           StringOrStringSlice
	CanonicalUser StringOrStringSlice
	Federated     StringOrStringSlice
	Service       StringOrStringSlice
}

func (p *PrincipalSpec) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if str != "*" {
			return fmt.Errorf("principal string form must be %q, got %q", "*", str)
		}
		p.All = true
		return nil
	}

	// Decode into a map first so unknown principal types are rejected
	// instead of silently dropped.
	var entries map[string]StringOrStringSlice
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("principal must be %q or an object keyed by principal type", "*")
	}

	for kind, values := range entries {
		switch kind {
		case "AWS":
			p.AWS = values
		case "CanonicalUser":
			p.CanonicalUser = values
		case "Federated":
			p.Federated = values
		case "Service":
			p.Service = values
		default:
			return fmt.Errorf("unknown principal type %q", kind)
		}
	}
	return nil
}

func (p PrincipalSpec) MarshalJSON() ([]byte, error) {
	if p.All {
		return json.Marshal("*")
	}
	entries := make(map[string]StringOrStringSlice)
	if p.AWS.IsPresent() {
		entries["AWS"] = p.AWS
	}
	if p.CanonicalUser.IsPresent() {
		entries["CanonicalUser"] = p.CanonicalUser
	}
	if p.Federated.IsPresent() {
		entries["Federated"] = p.Federated
	}
	if p.Service.IsPresent() {
		entries["Service"] = p.Service
	}
	return json.Marshal(entries)
}

// IsEmpty reports whether the spec constrains nothing at all, which is a
// schema violation when the element is present.
func (p *PrincipalSpec) IsEmpty() bool {
	return !p.All &&
		len(p.AWS.Strings()) == 0 &&
		len(p.CanonicalUser.Strings()) == 0 &&
		len(p.Federated.Strings()) == 0 &&
		len(p.Service.Strings()) == 0
}
