package fault_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/gamemaster/pkg/fault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func explode() (err error) {
	defer fault.Recover("test.explode", &err)
	var m map[string]int
	m["boom"] = 1
	return nil
}

func TestRecover_ConvertsPanic(t *testing.T) {
	err := explode()
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrInternal)

	var fe *fault.Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "test.explode", fe.Op)
	assert.Contains(t, fe.Description, "nil map")
	assert.NotEmpty(t, fe.Stack)
}

func TestRecover_NoPanicKeepsResult(t *testing.T) {
	sentinel := errors.New("domain")
	run := func() (err error) {
		defer fault.Recover("test.ok", &err)
		return sentinel
	}
	assert.Same(t, sentinel, run())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, fault.KindNone, fault.KindOf(nil))
	assert.Equal(t, fault.KindDomain, fault.KindOf(errors.New("bad dice")))
	assert.Equal(t, fault.KindFault, fault.KindOf(fault.New("op", "boom")))
	assert.Equal(t, fault.KindFault, fault.KindOf(fmt.Errorf("wrapped: %w", fault.New("op", "boom"))))
}
