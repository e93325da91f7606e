package generic

import (
	"fmt"
	"sort"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	assert := assert_.New(t)

	s := NewSet[string]()
	assert.Equal(0, s.Count())
	assert.False(s.Contains(".part"))
	assert.True(s.Add(".part"))
	assert.False(s.Add(".part"))
	assert.True(s.Add(".ytdl"))
	assert.Equal(2, s.Count())
	assert.True(s.Contains(".part", ".ytdl"))
	assert.False(s.Contains(".part", ".mp4"))
	// No items is trivially contained
	assert.True(s.Contains())

	assert.True(s.Remove(".part"))
	assert.False(s.Remove(".part"))
	assert.Equal([]string{".ytdl"}, s.ToSlice())

	s.Clear()
	assert.Equal(0, s.Count())
	assert.Empty(s.ToSlice())

	items := NewSet(3, 1, 2, 1).ToSlice()
	sort.Ints(items)
	assert.Equal([]int{1, 2, 3}, items)
}

type named struct {
	name string
}

func (n *named) String() string {
	return n.name
}

func TestPolymorphicSet(t *testing.T) {
	assert := assert_.New(t)
	a, b := &named{"a"}, &named{"a"}

	s := NewPolymorphicSet[fmt.Stringer](a)
	assert.True(s.Contains(a))
	// Same value, different pointer
	assert.False(s.Contains(b))
	assert.True(s.Add(b))
	assert.Equal(2, s.Count())
	assert.True(s.Remove(a))
	assert.Equal([]fmt.Stringer{b}, s.ToSlice())
}
