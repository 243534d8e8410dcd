// Package decode copies loose JSON-shaped maps into tagged structs.
package decode

import (
	"fmt"
	"math"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// Loose decodes input into out, a pointer to a struct with mapstructure tags.
// Strings are coerced to numbers and booleans where the target asks for
// them. Fractional numbers are rejected for integer fields instead of being
// truncated.
func Loose(input, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		DecodeHook:       integralHook,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func integralHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.Float32 && from.Kind() != reflect.Float64 {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return data, nil
	}
	if f := reflect.ValueOf(data).Float(); f != math.Trunc(f) {
		return nil, fmt.Errorf("%v is not a whole number", data)
	}
	return data, nil
}
