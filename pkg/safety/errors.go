package safety

import "errors"

var (
	ErrInvalidRules  = errors.New("invalid safety rules")
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)
