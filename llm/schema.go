package llm

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

type classification struct {
	Label string `json:"label" jsonschema:"required,description=The single label that best describes the conversation"`
}

// labelSchema は、label に symbols のどれか1つだけを許す strict モード用の JSON Schema を返します。
func labelSchema(symbols []string) (map[string]any, error) {
	r := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	s := r.Reflect(&classification{})
	if label, ok := s.Properties.Get("label"); ok {
		label.Enum = make([]any, len(symbols))
		for i, sym := range symbols {
			label.Enum[i] = sym
		}
	}

	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("llm.labelSchema: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("llm.labelSchema: %w", err)
	}
	return m, nil
}
