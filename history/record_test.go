package history

import (
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestRecord_JSON(t *testing.T) {
	assert := assert_.New(t)

	data := []byte(`[
		{"title": "Never Gonna Give You Up", "url": "https://youtu.be/x", "filepath": "/tmp/a.mp4", "type": "YouTube",
		 "format": "[video+audio]", "datetime": "2024-05-01T10:00:00Z", "elapsed": 12.5, "thumbnail": ""},
		{"playlist": true, "entries": [{"title": "Item", "filepath": "/tmp/b.mp4"}]}
	]`)
	records, err := Decode(data)
	if !assert.NoError(err) || !assert.Len(records, 2) {
		return
	}
	assert.False(records[0].IsPlaylist())
	assert.Equal("Never Gonna Give You Up", records[0].Single.Title)
	assert.Equal(12.5, records[0].Single.Elapsed)
	assert.True(records[1].IsPlaylist())
	assert.Equal([]Entry{{Title: "Item", FilePath: "/tmp/b.mp4"}}, records[1].All())

	encoded, err := Encode(records)
	assert.NoError(err)
	assert.Contains(string(encoded), `"playlist": true`)
	assert.Contains(string(encoded), `"filepath": "/tmp/a.mp4"`)
	// Record's own field names never reach the file
	assert.NotContains(string(encoded), `"Single":`)
	assert.NotContains(string(encoded), `"Entries":`)
}

func TestDecode(t *testing.T) {
	assert := assert_.New(t)

	records, err := Decode([]byte("  \n"))
	assert.NoError(err)
	assert.Empty(records)

	_, err = Decode([]byte(`{"title": "not an array"}`))
	assert.ErrorIs(err, ErrCorrupted)
}
