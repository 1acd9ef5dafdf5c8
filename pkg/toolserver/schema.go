package toolserver

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// MustSchemaFor builds a JSON Schema for T, panicking on failure. Schemas are
// derived once from Go struct tags at tool-registration time, so a
// reflection failure here is a programming error, not a runtime condition.
func MustSchemaFor[T any]() *jsonschema.Schema {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		var zero T
		panic(fmt.Sprintf("building schema for %T: %v", zero, err))
	}
	return schema
}
