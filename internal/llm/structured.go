package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

// ParseError reports model output that could not be turned into the requested type.
// Callers treat it as the signal to take their deterministic fallback.
type ParseError struct {
	Message string
	Raw     string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// SchemaFor reflects a JSON schema for T. Fields without omitempty are required.
func SchemaFor[T any]() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	var zero T
	schema := reflector.Reflect(zero)
	// gojsonschema predates draft 2020-12; drop the $schema marker so it
	// validates with its default draft.
	schema.Version = ""
	return json.Marshal(schema)
}

// ParseStructured cleans a model response, validates it against the schema
// reflected from T, and decodes it.
func ParseStructured[T any](raw string) (T, error) {
	var out T

	cleaned := CleanJSONBlock(raw)
	if cleaned == "" {
		return out, &ParseError{Message: "empty response", Raw: raw}
	}

	schema, err := SchemaFor[T]()
	if err != nil {
		return out, &ParseError{Message: "failed to build schema", Raw: raw, Cause: err}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewStringLoader(cleaned),
	)
	if err != nil {
		// Malformed JSON surfaces here, before any schema check
		return out, &ParseError{Message: "invalid JSON", Raw: raw, Cause: err}
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return out, &ParseError{
			Message: "response does not match schema",
			Raw:     raw,
			Cause:   fmt.Errorf("%s", strings.Join(msgs, "; ")),
		}
	}

	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return out, &ParseError{Message: "failed to decode response", Raw: raw, Cause: err}
	}
	return out, nil
}
