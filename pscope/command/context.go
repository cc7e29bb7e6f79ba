package command

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/policyscope/policyscope/pscope/iam/policy"
)

// simulationContext is the shape of a -context file: a global key/value
// map plus optional per-resource maps keyed by ARN. Values may be a
// string or an array of strings, like condition values in policies.
type simulationContext struct {
	Global    map[string]policy.StringOrStringSlice            `json:"global"`
	Resources map[string]map[string]policy.StringOrStringSlice `json:"resources"`
}

func loadSimulationContext(path string) (*simulationContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var ctx simulationContext
	if err := json.Unmarshal(data, &ctx); err != nil {
		return nil, fmt.Errorf("malformed context file %s: %w", path, err)
	}
	return &ctx, nil
}

// contextKeysForRequest builds the request context key map for one
// resource: config defaults first, then the context file's flattened keys
// on top. Key case is kept intact everywhere; condition keys match
// case-sensitively.
func contextKeysForRequest(defaults map[string]string, simCtx *simulationContext, resourceARN string) map[string][]string {
	merged := make(map[string][]string)
	for key, value := range defaults {
		merged[key] = []string{value}
	}
	if simCtx != nil {
		for key, values := range simCtx.forResource(resourceARN) {
			merged[key] = values
		}
	}
	return merged
}

// forResource flattens the context for one resource: global keys first,
// then resource-specific keys on top.
func (c *simulationContext) forResource(resourceARN string) map[string][]string {
	merged := make(map[string][]string)
	for key, values := range c.Global {
		merged[key] = values.Strings()
	}
	if resourceCtx, ok := c.Resources[resourceARN]; ok {
		for key, values := range resourceCtx {
			merged[key] = values.Strings()
		}
	}
	return merged
}
