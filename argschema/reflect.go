package argschema

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// ErrUnsupportedSchema is returned when a JSON Schema uses a construct that
// has no equivalent node type.
var ErrUnsupportedSchema = errors.New("unsupported schema")

// Reflect derives an object schema from the exported fields of a Go struct
// type. Fields tagged with omitempty are optional; all others are required.
func Reflect(t reflect.Type) (*Object, error) {
	r := jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true, Anonymous: true}
	s := r.ReflectFromType(t)
	node, err := FromJSONSchema(s)
	if err != nil {
		return nil, fmt.Errorf("reflect %s: %w", t, err)
	}
	obj, ok := node.(*Object)
	if !ok {
		return nil, fmt.Errorf("reflect %s: %w: root must be an object, got %s", t, ErrUnsupportedSchema, node.TypeName())
	}
	return obj, nil
}

// Parse decodes a JSON Schema document into a schema tree, preserving
// property order.
func Parse(data []byte) (Schema, error) {
	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return FromJSONSchema(&s)
}

// FromJSONSchema converts a reflected or decoded JSON Schema into a schema
// tree.
func FromJSONSchema(s *jsonschema.Schema) (Schema, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil schema", ErrUnsupportedSchema)
	}
	switch s.Type {
	case "string":
		return &Primitive{Kind: KindString, Description: s.Description}, nil
	case "integer":
		return &Primitive{Kind: KindInteger, Description: s.Description}, nil
	case "number":
		return &Primitive{Kind: KindNumber, Description: s.Description}, nil
	case "boolean":
		return &Primitive{Kind: KindBoolean, Description: s.Description}, nil
	case "array":
		arr := &Array{Description: s.Description}
		if s.Items != nil {
			items, err := FromJSONSchema(s.Items)
			if err != nil {
				return nil, fmt.Errorf("items: %w", err)
			}
			arr.Items = items
		}
		return arr, nil
	case "object":
		obj := &Object{Description: s.Description, Required: []string{}}
		if s.Properties != nil {
			for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
				child, err := FromJSONSchema(pair.Value)
				if err != nil {
					return nil, fmt.Errorf("property %q: %w", pair.Key, err)
				}
				obj.Properties = append(obj.Properties, Property{Name: pair.Key, Schema: child})
			}
		}
		obj.Required = append(obj.Required, s.Required...)
		return obj, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrUnsupportedSchema)
	default:
		return nil, fmt.Errorf("%w: type %q", ErrUnsupportedSchema, s.Type)
	}
}
