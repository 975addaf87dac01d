package mcpservice

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
)

// Arguments are the validated arguments of a tool call. The accessors
// convert loosely, so a JSON number can be read with Int and a numeric
// string with Float. Missing keys read as the zero value.
type Arguments map[string]any

// Has reports whether key was supplied.
func (a Arguments) Has(key string) bool {
	_, ok := a[key]
	return ok
}

func (a Arguments) String(key string) string { return cast.ToString(a[key]) }

func (a Arguments) Int(key string) int { return cast.ToInt(a[key]) }

func (a Arguments) Int64(key string) int64 { return cast.ToInt64(a[key]) }

func (a Arguments) Float(key string) float64 { return cast.ToFloat64(a[key]) }

func (a Arguments) Bool(key string) bool { return cast.ToBool(a[key]) }

// Object returns a nested object argument.
func (a Arguments) Object(key string) Arguments {
	return Arguments(cast.ToStringMap(a[key]))
}

// Slice returns a list argument.
func (a Arguments) Slice(key string) []any { return cast.ToSlice(a[key]) }

// Strings returns a list argument converted element-wise to strings.
func (a Arguments) Strings(key string) []string { return cast.ToStringSlice(a[key]) }

// Decode copies the arguments into the struct pointed to by out, matching
// keys against json tags.
func (a Arguments) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(a)); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	return nil
}
