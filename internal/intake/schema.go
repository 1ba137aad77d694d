package intake

import (
	"encoding/json"
	"fmt"
	"strings"

	"protv/pkg/types"

	"github.com/xeipuuv/gojsonschema"
)

const recordSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": [
		"submission_id", "application_id", "full_name", "nationality", "date_of_birth",
		"email", "contact_info", "has_qatar_residence", "work_experience", "files",
		"submission_date", "status"
	],
	"properties": {
		"submission_id": {"type": "string", "minLength": 1},
		"application_id": {"type": "string", "pattern": "^PROTV-[0-9]{8}-[0-9A-F]{8}$"},
		"full_name": {"type": "string"},
		"nationality": {"type": "string"},
		"date_of_birth": {"type": "string"},
		"email": {"type": "string", "format": "email"},
		"contact_info": {
			"type": "object",
			"required": ["country_code", "phone_number"],
			"properties": {
				"country_code": {"type": "string"},
				"phone_number": {"type": "string"}
			}
		},
		"has_qatar_residence": {"type": "string"},
		"qatar_residence_info": {"type": ["object", "null"]},
		"passport_info": {"type": ["object", "null"]},
		"work_experience": {
			"type": "object",
			"required": ["worked_with_protv", "last_project_name", "preferred_work_types", "position"],
			"properties": {
				"preferred_work_types": {"type": "array", "items": {"type": "string"}}
			}
		},
		"files": {
			"type": "object",
			"propertyNames": {"enum": ["personal_photo", "id_copy", "passport_copy", "cv", "portfolio"]}
		},
		"submission_date": {"type": "string", "format": "date-time"},
		"status": {"type": "string", "minLength": 1}
	}
}`

func compileRecordSchema() (*gojsonschema.Schema, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(recordSchema))
	if err != nil {
		return nil, fmt.Errorf("compile application record schema: %w", err)
	}

	return schema, nil
}

func validateRecord(schema *gojsonschema.Schema, app *types.Application) error {
	doc, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("%w: marshal record: %v", ErrInvalidRecord, err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidRecord, strings.Join(problems, "; "))
}
