package tasks

import (
	"context"
	"fmt"

	"github.com/aretw0/gamemaster/internal/decode"
)

// Decode copies loose task arguments into out, a pointer to a struct tagged
// with mapstructure keys. Strings are coerced to numbers and booleans where
// the target field asks for them; fractional numbers are rejected for
// integer fields.
func Decode(args map[string]any, out any) error {
	if err := decode.Loose(args, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	return nil
}

// Typed adapts a function over a decoded argument struct into a Func.
func Typed[A any, R any](fn func(ctx context.Context, args A) (R, error)) Func {
	return func(ctx context.Context, raw map[string]any) (any, error) {
		var args A
		if err := Decode(raw, &args); err != nil {
			return nil, err
		}
		return fn(ctx, args)
	}
}
