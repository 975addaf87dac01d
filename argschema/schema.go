// Package argschema builds and validates the recursive input schemas used for
// tool arguments.
//
// A schema is one of Primitive, Array or Object. Object is always the root of
// a tool's input schema. Validation never stops at the first violation: every
// problem in a payload is reported together, each tagged with the path of the
// offending value.
package argschema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind identifies a primitive schema.
type Kind int

const (
	KindString Kind = iota + 1
	KindInteger
	KindNumber
	KindBoolean
)

// String returns the JSON Schema type name for the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Schema is a node in a schema tree. The concrete types are *Primitive,
// *Array and *Object.
type Schema interface {
	// TypeName is the JSON Schema "type" keyword for the node.
	TypeName() string
	json.Marshaler
	sealed()
}

// Primitive is a leaf schema.
type Primitive struct {
	Kind        Kind
	Description string
}

// Array requires every element of a list to satisfy Items.
type Array struct {
	Items       Schema
	Description string
}

// Property is a named member of an Object schema.
type Property struct {
	Name   string
	Schema Schema
}

// Object describes a keyed map. Properties keep their declaration order.
type Object struct {
	Properties  []Property
	Required    []string
	Description string
}

func (*Primitive) sealed() {}
func (*Array) sealed()     {}
func (*Object) sealed()    {}

func (p *Primitive) TypeName() string { return p.Kind.String() }
func (*Array) TypeName() string       { return "array" }
func (*Object) TypeName() string      { return "object" }

// Property returns the schema of the named property.
func (o *Object) Property(name string) (Schema, bool) {
	for _, p := range o.Properties {
		if p.Name == name {
			return p.Schema, true
		}
	}
	return nil, false
}

// IsRequired reports whether name is listed as required.
func (o *Object) IsRequired(name string) bool {
	for _, r := range o.Required {
		if r == name {
			return true
		}
	}
	return false
}

// MarshalJSON implements json.Marshaler.
func (p *Primitive) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	writeString(&buf, p.TypeName())
	if p.Description != "" {
		buf.WriteString(`,"description":`)
		writeString(&buf, p.Description)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler.
func (a *Array) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"type":"array"`)
	if a.Description != "" {
		buf.WriteString(`,"description":`)
		writeString(&buf, a.Description)
	}
	if a.Items != nil {
		items, err := a.Items.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.WriteString(`,"items":`)
		buf.Write(items)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler. Properties are written in
// declaration order and "required" is always present.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"type":"object"`)
	if o.Description != "" {
		buf.WriteString(`,"description":`)
		writeString(&buf, o.Description)
	}
	buf.WriteString(`,"properties":{`)
	for i, p := range o.Properties {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(&buf, p.Name)
		buf.WriteByte(':')
		b, err := p.Schema.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("marshal property %q: %w", p.Name, err)
		}
		buf.Write(b)
	}
	buf.WriteString(`},"required":`)
	required := o.Required
	if required == nil {
		required = []string{}
	}
	b, err := json.Marshal(required)
	if err != nil {
		return nil, err
	}
	buf.Write(b)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}
