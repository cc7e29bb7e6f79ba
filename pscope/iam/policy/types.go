package policy

import (
	"encoding/json"
	"fmt"
)

// Policy version tags accepted by the parser. 2008-10-17 is the legacy
// policy language version; policies using it cannot contain policy
// variables, which this tool treats as literal text anyway.
const (
	PolicyVersion2012_10_17 = "2012-10-17"
	PolicyVersion2008_10_17 = "2008-10-17"
)

// Effect is a statement's asserted outcome. The JSON literals are
// case-sensitive: "allow" is a schema violation, not an Allow.
type Effect string

const (
	EffectAllow Effect = "Allow"
	EffectDeny  Effect = "Deny"
)

// PolicyDocument is an immutable, validated IAM policy document.
// Construct it through ParsePolicy or FromTree; do not mutate afterwards.
type PolicyDocument struct {
	Version   string        `json:"Version"`
	Id        string        `json:"Id,omitempty"`
	Statement StatementList `json:"Statement"`
}

// Statement is a single policy rule. Exactly one of Action/NotAction and
// exactly one of Resource/NotResource must be present; at most one of
// Principal/NotPrincipal. Validate enforces this.
type Statement struct {
	Sid          string              `json:"Sid,omitempty"`
	Effect       Effect              `json:"Effect"`
	Principal    *PrincipalSpec      `json:"Principal,omitempty"`
	NotPrincipal *PrincipalSpec      `json:"NotPrincipal,omitempty"`
	Action       StringOrStringSlice `json:"Action,omitempty"`
	NotAction    StringOrStringSlice `json:"NotAction,omitempty"`
	Resource     StringOrStringSlice `json:"Resource,omitempty"`
	NotResource  StringOrStringSlice `json:"NotResource,omitempty"`
	Condition    ConditionBlock      `json:"Condition,omitempty"`
}

// StatementList accepts both the single-object and the array form of the
// Statement element.
type StatementList []Statement

func (l *StatementList) UnmarshalJSON(data []byte) error {
	var single Statement
	if err := json.Unmarshal(data, &single); err == nil {
		*l = StatementList{single}
		return nil
	}

	var many []Statement
	if err := json.Unmarshal(data, &many); err == nil {
		*l = StatementList(many)
		return nil
	}

	return fmt.Errorf("Statement must be an object or an array of objects")
}

func (l StatementList) MarshalJSON() ([]byte, error) {
	if len(l) == 1 {
		return json.Marshal(l[0])
	}
	return json.Marshal([]Statement(l))
}

// StringOrStringSlice represents a JSON value that can be either a string
// or []string. It records whether the field appeared at all, so validation
// can tell a missing field from an empty array.
type StringOrStringSlice struct {
	values  []string
	present bool
}

func (s *StringOrStringSlice) UnmarshalJSON(data []byte) error {
	s.present = true

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		s.values = []string{str}
		return nil
	}

	var strs []string
	if err := json.Unmarshal(data, &strs); err == nil {
		s.values = strs
		return nil
	}

	return fmt.Errorf("value must be string or []string")
}

func (s StringOrStringSlice) MarshalJSON() ([]byte, error) {
	if len(s.values) == 1 {
		return json.Marshal(s.values[0])
	}
	return json.Marshal(s.values)
}

// Strings returns the underlying values. Nil when the field was absent.
func (s StringOrStringSlice) Strings() []string {
	return s.values
}

// IsPresent reports whether the field appeared in the source JSON,
// including as an empty array.
func (s StringOrStringSlice) IsPresent() bool {
	return s.present
}

// NewStringOrStringSlice builds a present value, mainly for tests and for
// callers assembling documents programmatically.
func NewStringOrStringSlice(values ...string) StringOrStringSlice {
	return StringOrStringSlice{values: values, present: true}
}
