package dice

import (
	"errors"
	"fmt"
)

// ErrInvalidExpression is matched by every *ParseError.
var ErrInvalidExpression = errors.New("invalid dice expression")

// ErrInvalidAdvantage indicates an advantage mode other than normal, advantage or disadvantage.
var ErrInvalidAdvantage = errors.New("advantage must be normal, advantage or disadvantage")

// ParseError reports a malformed dice expression.
type ParseError struct {
	Expression string
	Reason     string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid dice expression %q: %s", e.Expression, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrInvalidExpression
}
