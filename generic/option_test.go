package generic

import (
	"errors"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestOption(t *testing.T) {
	assert := assert_.New(t)

	some := Some(42)
	assert.True(some.IsSome())
	assert.False(some.IsNone())
	assert.Equal(42, some.Unwrap())
	assert.Equal(42, some.UnwrapOr(7))
	v, ok := some.Get()
	assert.True(ok)
	assert.Equal(42, v)

	none := None[int]()
	assert.True(none.IsNone())
	assert.Equal(7, none.UnwrapOr(7))
	_, ok = none.Get()
	assert.False(ok)
	assert.Panics(func() { none.Unwrap() })
}

func TestResult(t *testing.T) {
	assert := assert_.New(t)
	exampleError := errors.New("example error")

	ok := Ok("value")
	assert.True(ok.IsOk())
	v, err := ok.Parts()
	assert.Equal("value", v)
	assert.Nil(err)

	bad := Err[string](exampleError)
	assert.True(bad.IsErr())
	_, err = bad.Parts()
	assert.ErrorIs(err, exampleError)
	assert.Panics(func() { bad.Unwrap() })
	assert.Panics(func() { Unwrap_(exampleError) })
	assert.NotPanics(func() { Unwrap_(nil) })
}
