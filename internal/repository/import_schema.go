package repository

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// importSchema only checks the outer shape: an array whose items are objects.
// Field-level content is normalized after decoding.
const importSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "array",
	"items": {"type": "object"}
}`

var importPayloadSchema = jsonschema.MustCompileString("taskmaster-import.json", importSchema)

// checkImportShape parses payload and validates it against importSchema.
func checkImportShape(payload string) error {
	var doc interface{}
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if err := importPayloadSchema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidFormat, schemaMessage(err))
	}
	return nil
}

func schemaMessage(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	var msgs []string
	collectSchemaMessages(ve, &msgs)
	return strings.Join(msgs, "; ")
}

func collectSchemaMessages(err *jsonschema.ValidationError, msgs *[]string) {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*msgs = append(*msgs, fmt.Sprintf("%s: %s", loc, err.Message))
		return
	}
	for _, cause := range err.Causes {
		collectSchemaMessages(cause, msgs)
	}
}
