// Package validation checks incoming API payloads against JSON schemas
// before they reach the dispatcher.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// AskRequestSchema is the contract for POST /v1/ask payloads.
const AskRequestSchema = `{
	"type": "object",
	"properties": {
		"sessionId": {"type": "string", "maxLength": 128},
		"utterance": {"type": "string", "minLength": 1, "maxLength": 2000}
	},
	"required": ["utterance"],
	"additionalProperties": false
}`

// ValidateJSON validates a raw JSON document against a schema string and
// returns a single aggregated error describing every violation.
func ValidateJSON(schema string, document []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("payload validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}
