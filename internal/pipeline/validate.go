package pipeline

import (
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/sells-group/prospector/internal/fault"
	"github.com/sells-group/prospector/internal/model"
)

const listSchema = `{"type": "array"}`

// companiesSchema is the declared output shape of the extraction service.
const companiesSchema = `{
  "type": "object",
  "properties": {
    "companies": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["companies"]
}`

var (
	listValidator      = mustSchema(listSchema)
	companiesValidator = mustSchema(companiesSchema)
)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(err)
	}
	return schema
}

// ParseList checks that text is JSON whose top-level value is an array and
// returns its elements in order. Any other shape is a MalformedResponse.
func ParseList(text string) ([]json.RawMessage, error) {
	if err := checkSchema(listValidator, text); err != nil {
		return nil, err
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, fault.Wrap(fault.MalformedResponse, err, "response is not valid JSON")
	}
	return items, nil
}

// parseCompanies validates an extraction result against companiesSchema.
func parseCompanies(data []byte) (*model.CompanyCandidates, error) {
	if err := checkSchema(companiesValidator, string(data)); err != nil {
		return nil, err
	}
	var out model.CompanyCandidates
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fault.Wrap(fault.MalformedResponse, err, "extraction result is not valid JSON")
	}
	return &out, nil
}

func checkSchema(schema *gojsonschema.Schema, text string) error {
	if !json.Valid([]byte(text)) {
		return fault.New(fault.MalformedResponse, "response is not valid JSON")
	}
	result, err := schema.Validate(gojsonschema.NewStringLoader(text))
	if err != nil {
		return fault.Wrap(fault.MalformedResponse, err, "response could not be checked")
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fault.New(fault.MalformedResponse, "response has unexpected shape: %s", strings.Join(msgs, "; "))
}

// parseCachedList is ParseList for debug replays: unusable content yields
// nil instead of a failure.
func parseCachedList(content string) []json.RawMessage {
	items, err := ParseList(UnwrapFence(content))
	if err != nil {
		return nil
	}
	return items
}
