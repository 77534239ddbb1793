package analysis

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/domain"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

// ConversationMessage is the detail returned for a missing or malformed conversation.
const ConversationMessage = "Missing or invalid 'conversation' array."

var (
	conversationSchema = mustSchema("schemas/analyze_request.json")
	callLogSchema      = mustSchema("schemas/analyze_call_request.json")
)

func mustSchema(name string) *gojsonschema.Schema {
	data, err := schemaFiles.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("analysis: read %s: %v", name, err))
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		panic(fmt.Sprintf("analysis: compile %s: %v", name, err))
	}
	return s
}

// ValidationError lists every schema violation of a request body.
type ValidationError struct {
	Detail     string
	Violations []string
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return e.Detail
	}
	return e.Detail + " " + strings.Join(e.Violations, "; ")
}

// Unwrap classifies validation failures as invalid requests.
func (e *ValidationError) Unwrap() error {
	return domain.ErrInvalidRequest(e.Detail)
}

// DecodeConversation validates and decodes a POST /api/analyze body.
func DecodeConversation(body []byte) (*ConversationRequest, error) {
	var req ConversationRequest
	if err := decode(conversationSchema, body, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// DecodeCallLog validates and decodes a POST /api/analyze-call body.
func DecodeCallLog(body []byte) (*CallLogRequest, error) {
	var req CallLogRequest
	if err := decode(callLogSchema, body, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func decode(schema *gojsonschema.Schema, body []byte, out any) error {
	if !json.Valid(body) {
		return &ValidationError{Detail: "Request body must be valid JSON."}
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &ValidationError{Detail: "Request body must be valid JSON.", Violations: []string{err.Error()}}
	}
	if !result.Valid() {
		verr := &ValidationError{Detail: "Invalid request body."}
		for _, desc := range result.Errors() {
			verr.Violations = append(verr.Violations, desc.String())
			if isConversationError(desc) {
				verr.Detail = ConversationMessage
			}
		}
		return verr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &ValidationError{Detail: "Invalid request body.", Violations: []string{err.Error()}}
	}
	return nil
}

func isConversationError(desc gojsonschema.ResultError) bool {
	if strings.HasPrefix(desc.Field(), "conversation") {
		return true
	}
	if desc.Type() == "required" {
		if prop, ok := desc.Details()["property"].(string); ok && prop == "conversation" {
			return true
		}
	}
	return false
}
