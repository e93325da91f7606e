package progress

import (
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestItemBoundary(t *testing.T) {
	assert := assert_.New(t)
	item, ok := ItemBoundary("[download] Downloading item 3 of 12")
	assert.True(ok)
	assert.Equal(Item{Current: 3, Total: 12}, item)

	item, ok = ItemBoundary("[download] Downloading video 1 of 2")
	assert.True(ok)
	assert.Equal(Item{Current: 1, Total: 2}, item)

	_, ok = ItemBoundary("[download] Downloading playlist: Foo")
	assert.False(ok)
}

func TestDestination(t *testing.T) {
	assert := assert_.New(t)
	path, ok := Destination("[download] Destination: /tmp/out/My Video.f137.mp4")
	assert.True(ok)
	assert.Equal("/tmp/out/My Video.f137.mp4", path)

	_, ok = Destination("[download] Destination:   ")
	assert.False(ok)
	_, ok = Destination("[download]  5.0% of 1MiB")
	assert.False(ok)
}

func TestMergeTarget(t *testing.T) {
	assert := assert_.New(t)
	path, ok := MergeTarget(`[Merger] Merging formats into "/tmp/out/My Video.mp4"`)
	assert.True(ok)
	assert.Equal("/tmp/out/My Video.mp4", path)

	_, ok = MergeTarget("[Merger] something else")
	assert.False(ok)
}

func TestSavedPath(t *testing.T) {
	assert := assert_.New(t)
	path, ok := SavedPath("Saved: /music/Artist - Song.mp3")
	assert.True(ok)
	assert.Equal("/music/Artist - Song.mp3", path)

	path, ok = SavedPath(`  Downloaded: "/music/Artist - Song.mp3"  `)
	assert.True(ok)
	assert.Equal("/music/Artist - Song.mp3", path)

	_, ok = SavedPath(`Downloaded "Song": https://music.youtube.com/watch?v=x`)
	assert.False(ok)
}

func TestIsAntiBotChallenge(t *testing.T) {
	assert := assert_.New(t)
	assert.True(IsAntiBotChallenge("ERROR: [youtube] abc: Sign in to confirm you are not a robot"))
	assert.True(IsAntiBotChallenge("ERROR: solve the CAPTCHA to continue"))
	assert.False(IsAntiBotChallenge("ERROR: Video unavailable"))
}

func TestAlreadyDownloaded(t *testing.T) {
	assert := assert_.New(t)
	path, ok := AlreadyDownloaded("[download] /tmp/out/My Video.mp4 has already been downloaded")
	assert.True(ok)
	assert.Equal("/tmp/out/My Video.mp4", path)
	_, ok = AlreadyDownloaded("[download] Destination: /tmp/out/My Video.mp4")
	assert.False(ok)
}
