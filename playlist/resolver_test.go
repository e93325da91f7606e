package playlist

import (
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestResolve_Range(t *testing.T) {
	assert := assert_.New(t)
	w, err := Resolve(10, Range(3, 7))
	assert.NoError(err)
	assert.Equal(5, w.ExpectedItems)
	assert.Equal([]string{"--playlist-start=3", "--playlist-end=7"}, w.Args)
	assert.True(w.TrustItemProgress)

	// Reversed bounds are normalised
	w, err = Resolve(10, Range(7, 3))
	assert.NoError(err)
	assert.Equal(5, w.ExpectedItems)
	assert.Equal([]string{"--playlist-start=3", "--playlist-end=7"}, w.Args)
	assert.Equal(3, w.Selection.Start)
	assert.Equal(7, w.Selection.End)

	_, err = Resolve(10, Range(3, 11))
	assert.ErrorIs(err, ErrIndexOutOfRange)
	_, err = Resolve(10, Range(0, 4))
	assert.ErrorIs(err, ErrIndexOutOfRange)

	// Unknown total only checks the lower bound
	w, err = Resolve(0, Range(2, 40))
	assert.NoError(err)
	assert.Equal(39, w.ExpectedItems)
}

func TestResolve_Single(t *testing.T) {
	assert := assert_.New(t)
	w, err := Resolve(10, Single(4))
	assert.NoError(err)
	assert.Equal(1, w.ExpectedItems)
	assert.Equal([]string{"--playlist-items=4"}, w.Args)
	assert.False(w.TrustItemProgress)

	_, err = Resolve(3, Single(4))
	assert.ErrorIs(err, ErrIndexOutOfRange)
}

func TestResolve_AllAndNone(t *testing.T) {
	assert := assert_.New(t)
	w, err := Resolve(10, All())
	assert.NoError(err)
	assert.Empty(w.Args)
	assert.Equal(10, w.ExpectedItems)
	assert.True(w.TrustItemProgress)

	w, err = Resolve(0, All())
	assert.NoError(err)
	assert.Equal(1, w.ExpectedItems)

	w, err = Resolve(0, Selection{})
	assert.NoError(err)
	assert.Empty(w.Args)
	assert.Equal(1, w.ExpectedItems)
	assert.False(w.TrustItemProgress)

	_, err = Resolve(10, Selection{Mode: "sideways"})
	assert.ErrorIs(err, ErrUnknownMode)
}

func TestParseMode(t *testing.T) {
	assert := assert_.New(t)
	for _, s := range []string{"all", "range", "single"} {
		m, err := ParseMode(s)
		assert.NoError(err)
		assert.Equal(Mode(s), m)
		assert.True(m.IsPlaylist())
	}
	m, err := ParseMode("none")
	assert.NoError(err)
	assert.False(m.IsPlaylist())
	_, err = ParseMode("bogus")
	assert.ErrorIs(err, ErrUnknownMode)
}
