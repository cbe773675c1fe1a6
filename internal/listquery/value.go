package listquery

import (
	"encoding/json"
	"fmt"
)

// FilterValue decodes either a JSON string or a list of strings; lists are
// comma-joined so a multi-valued filter travels as one parameter.
type FilterValue string

func (v *FilterValue) UnmarshalJSON(data []byte) error {
	var single *string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != nil {
			*v = FilterValue(*single)
		} else {
			*v = ""
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("filter value must be a string or a list of strings")
	}
	*v = FilterValue(JoinValues(many))
	return nil
}

func PatchFrom(values map[string]FilterValue) Patch {
	patch := make(Patch, len(values))
	for name, value := range values {
		patch[name] = string(value)
	}
	return patch
}
