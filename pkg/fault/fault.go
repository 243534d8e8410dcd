// Package fault converts unexpected failures inside engine operations into
// error values so a worker never aborts on an engine bug.
package fault

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// ErrInternal is the sentinel every *Error matches with errors.Is.
var ErrInternal = errors.New("internal engine fault")

// Error is an InternalEngineFault: a panic or invariant violation captured at
// an operation boundary.
type Error struct {
	Op          string `json:"op"`
	Description string `json:"description"`
	Stack       []byte `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: internal engine fault: %s", e.Op, e.Description)
}

func (e *Error) Is(target error) bool {
	return target == ErrInternal
}

// New builds a fault for op from a recovered value.
func New(op string, recovered any) *Error {
	desc := fmt.Sprint(recovered)
	if err, ok := recovered.(error); ok {
		desc = err.Error()
	}
	return &Error{Op: op, Description: desc, Stack: debug.Stack()}
}

// Recover must be deferred directly by a function with a named error result.
// A panic is replaced by a *Error and the function returns normally.
//
//	func (r *Roller) Roll(...) (out Outcome, err error) {
//		defer fault.Recover("dice.roll", &err)
//		...
//	}
func Recover(op string, errp *error) {
	if r := recover(); r != nil {
		*errp = New(op, r)
	}
}

// Kind classifies an error returned by an engine operation.
type Kind string

const (
	KindNone   Kind = "ok"
	KindDomain Kind = "domain_error"
	KindFault  Kind = "fault"
)

// KindOf reports whether err is nil, an expected domain error, or a fault.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInternal):
		return KindFault
	default:
		return KindDomain
	}
}
