package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, mtime time.Time) {
	require := require_.New(t)
	require.NoError(os.WriteFile(path, []byte("x"), 0644))
	require.NoError(os.Chtimes(path, mtime, mtime))
}

func TestNewestFile(t *testing.T) {
	assert := assert_.New(t)
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)

	_, err := NewestFile(dir)
	assert.ErrorIs(err, ErrNoFiles)

	writeFile(t, filepath.Join(dir, "old.mp4"), base)
	writeFile(t, filepath.Join(dir, "new.mp3"), base.Add(10*time.Minute))
	// Partial and side files are ignored even when they are newer
	writeFile(t, filepath.Join(dir, "newer.mp4.part"), base.Add(20*time.Minute))
	writeFile(t, filepath.Join(dir, "newer.en.vtt"), base.Add(30*time.Minute))
	assert.NoError(os.Mkdir(filepath.Join(dir, "subdir"), 0755))

	newest, err := NewestFile(dir)
	assert.NoError(err)
	assert.Equal(filepath.Join(dir, "new.mp3"), newest)

	newest, err = NewestFile(dir, ".mp4")
	assert.NoError(err)
	assert.Equal(filepath.Join(dir, "old.mp4"), newest)

	_, err = NewestFile(dir, ".flac")
	assert.ErrorIs(err, ErrNoFiles)
}

func TestFileExists(t *testing.T) {
	assert := assert_.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.mp4")
	assert.False(FileExists(path))
	assert.False(FileExists(""))
	assert.False(FileExists(dir))
	writeFile(t, path, time.Now())
	assert.True(FileExists(path))
}

func TestHumanSize(t *testing.T) {
	assert := assert_.New(t)
	assert.Equal("0.0 B", HumanSize(0))
	assert.Equal("512.0 B", HumanSize(512))
	assert.Equal("1.5 KB", HumanSize(1536))
	assert.Equal("12.3 MB", HumanSize(12.3*1024*1024))
	assert.Equal("2.0 TB", HumanSize(2*1024*1024*1024*1024))
	assert.Equal("1.0 PB", HumanSize(1024*1024*1024*1024*1024))
}

func TestTitleFromPath(t *testing.T) {
	assert := assert_.New(t)
	assert.Equal("My Video", TitleFromPath("/tmp/My Video.mp4"))
	assert.Equal("archive.tar", TitleFromPath("archive.tar.gz"))
}

func TestURLHelpers(t *testing.T) {
	assert := assert_.New(t)
	assert.True(IsSpotifyURL("https://open.spotify.com/track/abc"))
	assert.False(IsSpotifyURL("https://www.youtube.com/watch?v=abc"))
	assert.True(IsPlaylistURL("https://www.youtube.com/watch?v=abc&list=PL123"))
	assert.True(IsPlaylistURL("https://open.spotify.com/playlist/xyz"))
	assert.False(IsPlaylistURL("https://youtu.be/abc"))
	assert.True(IsHTTPURL("https://example.com/a"))
	assert.False(IsHTTPURL("ftp://example.com/a"))
	assert.False(IsHTTPURL("not a url"))
}

func TestWatchURL(t *testing.T) {
	assert := assert_.New(t)
	u, err := WatchURL("dQw4w9WgXcQ")
	assert.NoError(err)
	assert.Equal("https://www.youtube.com/watch?v=dQw4w9WgXcQ", u)

	u, err = WatchURL("https://youtu.be/dQw4w9WgXcQ")
	assert.NoError(err)
	assert.Equal("https://www.youtube.com/watch?v=dQw4w9WgXcQ", u)

	_, err = WatchURL("")
	assert.ErrorIs(err, ErrNoVideoID)
}
