package parse

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const classificationSchemaJSON = `{
  "type": "object",
  "required": ["doc_type", "fields"],
  "properties": {
    "fields": {"type": "array"}
  }
}`

const reviewItemSchemaJSON = `{
  "type": "object",
  "required": ["status"]
}`

var (
	classificationSchema = mustCompileSchema("classification.json", classificationSchemaJSON)
	reviewItemSchema     = mustCompileSchema("review_item.json", reviewItemSchemaJSON)
)

func mustCompileSchema(name, doc string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(doc)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return schema
}
