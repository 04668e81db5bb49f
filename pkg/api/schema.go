package api

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// The backend has drifted its response shapes across revisions (payloads nested
// under "session", renamed answer keys). The client pins one canonical contract
// and rejects anything else up front instead of sniffing variants.

// startSchema is the JSON Schema for the start-session response.
var startSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["session_id", "question", "progress"],
  "properties": {
    "session_id": {
      "type": "string",
      "minLength": 1
    },
    "question": {"$ref": "#/definitions/question"},
    "progress": {"$ref": "#/definitions/progress"},
    "session": false
  },
  "definitions": ` + contractDefinitions + `
}`

// answerSchema is the JSON Schema for the submit-answer response.
var answerSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["completed"],
  "properties": {
    "completed": {"type": "boolean"},
    "question": {"$ref": "#/definitions/question"},
    "progress": {"$ref": "#/definitions/progress"},
    "summary": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    },
    "message": {"type": "string"},
    "session": false
  },
  "if": {"properties": {"completed": {"const": false}}},
  "then": {"required": ["question", "progress"]},
  "definitions": ` + contractDefinitions + `
}`

// contractDefinitions holds the shared question/progress definitions. The
// input_type enum comes from InputTypes so the contract and the type
// constants cannot drift apart.
var contractDefinitions = `{
    "question": {
      "type": "object",
      "required": ["id", "text", "input_type"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "text": {"type": "string", "minLength": 1},
        "input_type": {
          "type": "string",
          "enum": [` + quotedInputTypes() + `]
        },
        "options": {"type": "array", "items": {"type": "string"}},
        "fields": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["name", "label"],
            "properties": {
              "name": {"type": "string", "minLength": 1},
              "label": {"type": "string"},
              "min": {"type": "integer"},
              "max": {"type": "integer"}
            }
          }
        },
        "required": {"type": "boolean"}
      }
    },
    "progress": {
      "type": "object",
      "required": ["current", "total"],
      "properties": {
        "current": {"type": "integer", "minimum": 0},
        "total": {"type": "integer", "minimum": 0},
        "percentage": {"type": "integer", "minimum": 0, "maximum": 100}
      }
    }
  }`

func quotedInputTypes() string {
	quoted := make([]string, len(InputTypes))
	for i, t := range InputTypes {
		quoted[i] = strconv.Quote(t)
	}
	return strings.Join(quoted, ", ")
}

var (
	startLoader  = gojsonschema.NewStringLoader(startSchema)
	answerLoader = gojsonschema.NewStringLoader(answerSchema)
)

// checkContract validates a raw response body against one of the pinned schemas.
func checkContract(schema gojsonschema.JSONLoader, body []byte) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrContract, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrContract, strings.Join(details, "; "))
	}
	return nil
}
