package agentrunner

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// SchemaProvider supplies an input schema for a tool, for inclusion in
// the check request's tool_input.schema. Schema extraction is
// best-effort: a provider that cannot produce a schema returns nil and
// the check request simply omits it.
type SchemaProvider interface {
	ToolSchema(tool Tool) map[string]any
}

// DeclaredSchemaProvider passes through a tool's declared JSON schema.
// The schema is compiled first so a malformed declaration is dropped
// instead of being forwarded to the policy service.
type DeclaredSchemaProvider struct{}

func (DeclaredSchemaProvider) ToolSchema(tool Tool) map[string]any {
	schema := tool.InputSchema()
	if schema == nil {
		return nil
	}
	if !compiles(schema) {
		return nil
	}
	return schema
}

func compiles(schema map[string]any) bool {
	// Round-trip through JSON so the compiler sees plain decoded values.
	raw, err := json.Marshal(schema)
	if err != nil {
		return false
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", doc); err != nil {
		return false
	}
	_, err = c.Compile("schema.json")
	return err == nil
}

// ReflectSchemaProvider derives a schema from a registered arguments
// struct, the Go counterpart of introspecting a native function's
// signature. Register the prototype for tools that wrap native Go
// functions; tools without one yield no schema.
type ReflectSchemaProvider struct {
	prototypes map[string]reflect.Type
}

// NewReflectSchemaProvider creates an empty provider.
func NewReflectSchemaProvider() *ReflectSchemaProvider {
	return &ReflectSchemaProvider{prototypes: map[string]reflect.Type{}}
}

// Register associates a tool name with its arguments struct. prototype
// must be a struct or pointer-to-struct value; anything else is ignored.
func (p *ReflectSchemaProvider) Register(toolName string, prototype any) {
	t := reflect.TypeOf(prototype)
	if t == nil {
		return
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return
	}
	p.prototypes[toolName] = t
}

func (p *ReflectSchemaProvider) ToolSchema(tool Tool) map[string]any {
	t, ok := p.prototypes[tool.Name()]
	if !ok {
		return nil
	}

	schema := map[string]any{}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := fieldName(field)
		typeName, ok := fieldTypeName(field.Type)
		if !ok {
			// No usable type for this parameter; skip it.
			continue
		}
		info := map[string]any{
			"type":     typeName,
			"required": !isOptionalField(field),
		}
		if def, ok := fieldDefault(field); ok {
			info["default"] = def
		}
		schema[name] = info
	}
	if len(schema) == 0 {
		return nil
	}
	return schema
}

// fieldName prefers the json tag name over the Go field name.
func fieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return field.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return field.Name
	}
	return name
}

// isOptionalField treats pointer fields and json ",omitempty" fields as
// optional parameters.
func isOptionalField(field reflect.StructField) bool {
	if field.Type.Kind() == reflect.Pointer {
		return true
	}
	tag := field.Tag.Get("json")
	_, opts, _ := strings.Cut(tag, ",")
	for _, opt := range strings.Split(opts, ",") {
		if opt == "omitempty" {
			return true
		}
	}
	return false
}

// fieldTypeName maps a Go type to a schema type name.
func fieldTypeName(t reflect.Type) (string, bool) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string", true
	case reflect.Bool:
		return "boolean", true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer", true
	case reflect.Float32, reflect.Float64:
		return "number", true
	case reflect.Slice, reflect.Array:
		return "array", true
	case reflect.Map, reflect.Struct:
		return "object", true
	default:
		return "", false
	}
}

// fieldDefault reads a primitive default from the `default` struct tag.
func fieldDefault(field reflect.StructField) (any, bool) {
	raw, ok := field.Tag.Lookup("default")
	if !ok {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		// Unquoted string defaults are allowed in the tag.
		return raw, true
	}
	switch v.(type) {
	case string, float64, bool, nil:
		return v, true
	default:
		return nil, false
	}
}
