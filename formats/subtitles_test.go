package formats

import (
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestMergeSubtitles_EmptyTracks(t *testing.T) {
	assert := assert_.New(t)

	subs := mergeSubtitles(
		map[string][]rawSubtitle{"en": {}, "fr": {{Ext: "vtt"}}},
		map[string][]rawSubtitle{"en": {{Ext: "vtt"}}, "de": nil},
	)
	if assert.Len(subs, 2) {
		assert.Equal("fr", subs[0].Code)
		assert.False(subs[0].Auto)
		// An empty manual entry doesn't hide the automatic captions
		assert.Equal("en", subs[1].Code)
		assert.True(subs[1].Auto)
		assert.Equal([]string{"vtt"}, subs[1].Exts)
	}
}
