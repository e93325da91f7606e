package history

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) string {
	path := filepath.Join(dir, name)
	require_.NoError(t, os.WriteFile(path, []byte("data"), 0644))
	return path
}

func TestJSONStore_Append(t *testing.T) {
	assert := assert_.New(t)
	dir := t.TempDir()
	store := NewJSONStore(filepath.Join(dir, "history", "download_history.json"))

	records, err := store.Load()
	assert.NoError(err)
	assert.Empty(records)

	first := Entry{Title: "First", FilePath: touch(t, dir, "first.mp4"), Type: "YouTube", Format: "[video+audio]"}
	ok, err := store.Append(SingleRecord(first))
	assert.NoError(err)
	assert.True(ok)

	second := Entry{Title: "Second", FilePath: touch(t, dir, "second.mp3"), Type: "Spotify", Format: "[audio only]"}
	ok, err = store.Append(SingleRecord(second))
	assert.NoError(err)
	assert.True(ok)

	records, err = store.Load()
	assert.NoError(err)
	if assert.Len(records, 2) {
		assert.Equal(second, *records[0].Single)
		assert.Equal(first, *records[1].Single)
	}
}

func TestJSONStore_Append_PhantomFile(t *testing.T) {
	assert := assert_.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "download_history.json")
	store := NewJSONStore(path)

	ok, err := store.Append(SingleRecord(Entry{Title: "Ghost", FilePath: filepath.Join(dir, "ghost.mp4")}))
	assert.NoError(err)
	assert.False(ok)
	_, err = os.Stat(path)
	assert.True(os.IsNotExist(err), "history file should not have been written")

	ok, err = store.Append(PlaylistRecord([]Entry{{Title: "Ghost", FilePath: filepath.Join(dir, "ghost.mp4")}}))
	assert.NoError(err)
	assert.False(ok)
}

func TestJSONStore_Append_PlaylistKeepsExisting(t *testing.T) {
	assert := assert_.New(t)
	dir := t.TempDir()
	store := NewJSONStore(filepath.Join(dir, "download_history.json"))

	present := Entry{Title: "Present", FilePath: touch(t, dir, "present.mp4")}
	ok, err := store.Append(PlaylistRecord([]Entry{present, {Title: "Ghost", FilePath: filepath.Join(dir, "ghost.mp4")}}))
	assert.NoError(err)
	assert.True(ok)

	records, err := store.Load()
	assert.NoError(err)
	if assert.Len(records, 1) {
		assert.True(records[0].IsPlaylist())
		assert.Equal([]Entry{present}, records[0].Entries)
	}
}

func TestJSONStore_Cap(t *testing.T) {
	assert := assert_.New(t)
	dir := t.TempDir()
	store := NewJSONStore(filepath.Join(dir, "download_history.json"))
	path := touch(t, dir, "video.mp4")

	for i := 0; i <= MaxEntries; i++ {
		_, err := store.Append(SingleRecord(Entry{Title: fmt.Sprintf("Video %d", i), FilePath: path}))
		if !assert.NoError(err) {
			return
		}
	}
	records, err := store.Load()
	assert.NoError(err)
	if assert.Len(records, MaxEntries) {
		assert.Equal(fmt.Sprintf("Video %d", MaxEntries), records[0].Single.Title)
		assert.Equal("Video 1", records[MaxEntries-1].Single.Title)
	}
}

func TestJSONStore_Corrupted(t *testing.T) {
	assert := assert_.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "download_history.json")
	require_.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	store := NewJSONStore(path)

	records, err := store.Load()
	assert.NoError(err)
	assert.Empty(records)

	ok, err := store.Append(SingleRecord(Entry{Title: "After", FilePath: touch(t, dir, "after.mp4")}))
	assert.NoError(err)
	assert.True(ok)
	records, err = store.Load()
	assert.NoError(err)
	assert.Len(records, 1)
}

func TestJSONStore_TruncateClear(t *testing.T) {
	assert := assert_.New(t)
	dir := t.TempDir()
	store := NewJSONStore(filepath.Join(dir, "download_history.json"))
	path := touch(t, dir, "video.mp4")
	for i := 0; i < 5; i++ {
		_, err := store.Append(SingleRecord(Entry{Title: fmt.Sprintf("Video %d", i), FilePath: path}))
		assert.NoError(err)
	}

	assert.NoError(store.Truncate(2))
	records, err := store.Load()
	assert.NoError(err)
	if assert.Len(records, 2) {
		assert.Equal("Video 4", records[0].Single.Title)
	}

	assert.NoError(store.Clear())
	records, err = store.Load()
	assert.NoError(err)
	assert.Empty(records)
	data, err := os.ReadFile(store.Path())
	assert.NoError(err)
	assert.Equal("[]", string(data))
}
