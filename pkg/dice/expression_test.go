package dice_test

import (
	"errors"
	"testing"

	"github.com/aretw0/gamemaster/pkg/dice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		pool  map[int]int
		keep  *dice.Keep
	}{
		{"single die", "1d20", map[int]int{20: 1}, nil},
		{"keep highest", "2d20kh1", map[int]int{20: 2}, &dice.Keep{Mode: dice.KeepHighest, Count: 1}},
		{"keep lowest upper case", "3D8KL2", map[int]int{8: 3}, &dice.Keep{Mode: dice.KeepLowest, Count: 2}},
		{"mixed pool with spaces", " 1d8 + 2d6 ", map[int]int{8: 1, 6: 2}, nil},
		{"same size accumulates", "2d6+1d6", map[int]int{6: 3}, nil},
		{"flat modifier ignored", "1d20+5", map[int]int{20: 1}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := dice.Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.pool, expr.Pool)
			assert.Equal(t, tt.keep, expr.Keep)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	inputs := []string{"", "abc", "d20", "1d0", "0d6", "1d20kh0", "1001d6", "600d6+401d4"}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := dice.Parse(input)
			require.Error(t, err)
			assert.ErrorIs(t, err, dice.ErrInvalidExpression)

			var perr *dice.ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, input, perr.Expression)
			assert.NotEmpty(t, perr.Reason)
		})
	}
}

func TestExpression_String(t *testing.T) {
	assert.Equal(t, "1d20+2d6kh2", dice.MustParse("2d6 + 1d20 kh2").String())
	assert.Equal(t, "3d8kl1", dice.MustParse("3d8kl1").String())

	roundTrip, err := dice.Parse(dice.MustParse("1d8+2d6+1d4").String())
	require.NoError(t, err)
	assert.Equal(t, map[int]int{8: 1, 6: 2, 4: 1}, roundTrip.Pool)
}

func TestExpression_Validate(t *testing.T) {
	assert.NoError(t, dice.Expression{Pool: map[int]int{6: 2}}.Validate())
	assert.ErrorIs(t, dice.Expression{}.Validate(), dice.ErrInvalidExpression)
	assert.ErrorIs(t, dice.Expression{Pool: map[int]int{6: -1, 4: 2}}.Validate(), dice.ErrInvalidExpression)
	assert.ErrorIs(t, dice.Expression{
		Pool: map[int]int{6: 2},
		Keep: &dice.Keep{Mode: "middle", Count: 1},
	}.Validate(), dice.ErrInvalidExpression)
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { dice.MustParse("no dice here") })
}
