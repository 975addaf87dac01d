package argschema

import (
	"errors"
	"fmt"
)

// Type is the declared type of an argument.
type Type int

const (
	TypeUnset Type = iota
	TypeString
	TypeInteger
	TypeNumber
	TypeBoolean
	TypeArray
	TypeObject
)

// ErrInvalidDeclaration is wrapped by every error returned from Build.
var ErrInvalidDeclaration = errors.New("invalid argument declaration")

// Arg declares one tool argument.
//
// Scalars set Type. Arrays set Type to TypeArray and either Items (for a list
// of primitives) or Args (for a list of objects). Nested objects set Args and
// leave Type unset or TypeObject.
type Arg struct {
	Name        string
	Type        Type
	Required    bool
	Description string
	Items       Type
	Args        []Arg
}

// Build walks a declarative argument list into an object schema.
func Build(args []Arg) (*Object, error) {
	obj := &Object{Properties: make([]Property, 0, len(args)), Required: []string{}}
	seen := make(map[string]struct{}, len(args))
	for _, arg := range args {
		if arg.Name == "" {
			return nil, fmt.Errorf("%w: argument name cannot be empty", ErrInvalidDeclaration)
		}
		if _, dup := seen[arg.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate argument %q", ErrInvalidDeclaration, arg.Name)
		}
		seen[arg.Name] = struct{}{}

		s, err := buildArg(arg)
		if err != nil {
			return nil, err
		}
		obj.Properties = append(obj.Properties, Property{Name: arg.Name, Schema: s})
		if arg.Required {
			obj.Required = append(obj.Required, arg.Name)
		}
	}
	return obj, nil
}

func buildArg(arg Arg) (Schema, error) {
	switch {
	case arg.Type == TypeArray:
		var items Schema
		switch {
		case len(arg.Args) > 0:
			sub, err := Build(arg.Args)
			if err != nil {
				return nil, err
			}
			items = sub
		case arg.Items != TypeUnset:
			p, err := primitive(arg.Items)
			if err != nil {
				return nil, fmt.Errorf("%w: items of %q: %v", ErrInvalidDeclaration, arg.Name, err)
			}
			items = p
		default:
			return nil, fmt.Errorf("%w: must provide items or nested arguments for array argument %q", ErrInvalidDeclaration, arg.Name)
		}
		return &Array{Items: items, Description: arg.Description}, nil

	case len(arg.Args) > 0:
		if arg.Type != TypeUnset && arg.Type != TypeObject {
			return nil, fmt.Errorf("%w: type not allowed with nested arguments for %q", ErrInvalidDeclaration, arg.Name)
		}
		sub, err := Build(arg.Args)
		if err != nil {
			return nil, err
		}
		sub.Description = arg.Description
		return sub, nil

	case arg.Type == TypeObject:
		return &Object{Required: []string{}, Description: arg.Description}, nil

	case arg.Type == TypeUnset:
		return nil, fmt.Errorf("%w: type required for argument %q", ErrInvalidDeclaration, arg.Name)
	}

	p, err := primitive(arg.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: argument %q: %v", ErrInvalidDeclaration, arg.Name, err)
	}
	p.Description = arg.Description
	return p, nil
}

func primitive(t Type) (*Primitive, error) {
	switch t {
	case TypeString:
		return &Primitive{Kind: KindString}, nil
	case TypeInteger:
		return &Primitive{Kind: KindInteger}, nil
	case TypeNumber:
		return &Primitive{Kind: KindNumber}, nil
	case TypeBoolean:
		return &Primitive{Kind: KindBoolean}, nil
	default:
		return nil, fmt.Errorf("unsupported type %d", int(t))
	}
}
