package save

import (
	"bytes"
	"encoding/json"
	"slices"
	"sync"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/samber/oops"
)

// SchemaID is the $id of the save document schema.
const SchemaID = "https://questline.dev/schemas/inventory.schema.json"

// GenerateSchema returns the JSON Schema of Document.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{DoNotReference: true}
	schema := r.Reflect(&Document{})
	schema.Required = slices.DeleteFunc(schema.Required, optionalField)
	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "Questline Inventory Save"
	schema.Description = "Occupied inventory slots and equipped items"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code(CodeEncode).Wrapf(err, "marshal schema")
	}
	return data, nil
}

// optionalField reports whether a document may leave the property out.
// A missing equipped id loads as nothing equipped.
func optionalField(name string) bool {
	return name == "equippedWeaponId" || name == "equippedArmorId"
}

var compiledSchema = sync.OnceValues(func() (*jschema.Schema, error) {
	raw, err := GenerateSchema()
	if err != nil {
		return nil, err
	}
	doc, err := jschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, oops.Code(CodeEncode).Wrapf(err, "parse schema")
	}
	c := jschema.NewCompiler()
	if err := c.AddResource("inventory.schema.json", doc); err != nil {
		return nil, oops.Code(CodeEncode).Wrapf(err, "add schema resource")
	}
	sch, err := c.Compile("inventory.schema.json")
	if err != nil {
		return nil, oops.Code(CodeEncode).Wrapf(err, "compile schema")
	}
	return sch, nil
})

// Validate checks that data is a JSON save document.
func Validate(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return oops.Code(CodeInvalid).Errorf("save data is empty")
	}
	inst, err := jschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return oops.Code(CodeInvalid).Wrapf(err, "invalid JSON")
	}
	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := sch.Validate(inst); err != nil {
		return oops.Code(CodeInvalid).Wrapf(err, "schema validation failed")
	}
	return nil
}
