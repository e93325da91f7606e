package session

import (
	"os"
	"path/filepath"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"

	"github.com/alanbriolat/media-fetcher"
	"github.com/alanbriolat/media-fetcher/history"
	"github.com/alanbriolat/media-fetcher/playlist"
	"github.com/alanbriolat/media-fetcher/providers/spotdl"
	"github.com/alanbriolat/media-fetcher/providers/ytdlp"
)

func TestCandidates_MergeSupersedes(t *testing.T) {
	assert := assert_.New(t)
	c := newCandidates()

	c.add(media_fetcher.Announcement{Path: "/out/Video.f137.mp4"})
	c.add(media_fetcher.Announcement{Path: "/out/Video.f140.m4a"})
	assert.Equal("/out/Video.f140.m4a", c.final())

	c.add(media_fetcher.Announcement{Path: "/out/Video.mp4", Final: true})
	assert.Equal("/out/Video.mp4", c.final())
	assert.Equal([]string{"/out/Video.mp4"}, c.paths())
	assert.Equal([]string{"/out/Video.f137.mp4", "/out/Video.f140.m4a", "/out/Video.mp4"}, c.all())

	// Repeated announcements are not duplicated
	c.add(media_fetcher.Announcement{Path: "/out/Video.mp4"})
	c.add(media_fetcher.Announcement{})
	assert.Len(c.all(), 3)
}

func TestCandidates_BoundaryKeepsPreviousItems(t *testing.T) {
	assert := assert_.New(t)
	c := newCandidates()

	c.add(media_fetcher.Announcement{Path: "/out/First.mp4"})
	c.boundary()
	c.add(media_fetcher.Announcement{Path: "/out/Second.f137.mp4"})
	c.add(media_fetcher.Announcement{Path: "/out/Second.mp4", Final: true})
	assert.Equal([]string{"/out/First.mp4", "/out/Second.mp4"}, c.paths())
}

func TestCandidates_FinalSkipsPartials(t *testing.T) {
	assert := assert_.New(t)
	c := newCandidates()

	assert.Equal("", c.final())
	c.add(media_fetcher.Announcement{Path: "/out/Video.mp4"})
	c.add(media_fetcher.Announcement{Path: "/out/Video.mp4.part"})
	assert.Equal("/out/Video.mp4", c.final())
}

func TestCandidates_Remove(t *testing.T) {
	assert := assert_.New(t)
	dir := t.TempDir()
	for _, name := range []string{"a.mp4", "a.mp4.part", "b.mp4.ytdl", "keep.mp4"} {
		require_.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	c := newCandidates()
	c.add(media_fetcher.Announcement{Path: filepath.Join(dir, "a.mp4")})
	c.add(media_fetcher.Announcement{Path: filepath.Join(dir, "b.mp4")})

	removed, err := c.remove()
	assert.NoError(err)
	assert.ElementsMatch([]string{
		filepath.Join(dir, "a.mp4"),
		filepath.Join(dir, "a.mp4.part"),
		filepath.Join(dir, "b.mp4.ytdl"),
	}, removed)
	assert.FileExists(filepath.Join(dir, "keep.mp4"))
}

func TestReconcile(t *testing.T) {
	assert := assert_.New(t)
	dir := t.TempDir()
	write := func(name string) string {
		path := filepath.Join(dir, name)
		require_.NoError(t, os.WriteFile(path, nil, 0644))
		return path
	}
	req := &media_fetcher.DownloadRequest{URL: videoURL, Folder: dir}

	// Announced final file wins
	final := write("Video.mp4")
	c := newCandidates()
	c.add(media_fetcher.Announcement{Path: final, Final: true})
	found, err := reconcile(req, ytdlp.Tool{}, c)
	assert.NoError(err)
	assert.Equal([]string{final}, found)

	// Playlist mode keeps every existing artifact, and drops vanished ones
	first := write("First.mp4")
	c = newCandidates()
	c.add(media_fetcher.Announcement{Path: first})
	c.boundary()
	c.add(media_fetcher.Announcement{Path: filepath.Join(dir, "Gone.mp4")})
	playlistReq := *req
	playlistReq.Playlist = playlist.All()
	found, err = reconcile(&playlistReq, ytdlp.Tool{}, c)
	assert.NoError(err)
	assert.Equal([]string{first}, found)

	// Empty folder with nothing announced
	empty := &media_fetcher.DownloadRequest{URL: videoURL, Folder: t.TempDir()}
	_, err = reconcile(empty, spotdl.Tool{}, newCandidates())
	assert.Error(err)
}

func TestCompletionMessage(t *testing.T) {
	assert := assert_.New(t)

	assert.Equal("Download complete", completionMessage(&Result{}))
	single := history.SingleRecord(history.Entry{Title: "a"})
	assert.Equal("Download complete", completionMessage(&Result{Record: &single}))
	list := history.PlaylistRecord([]history.Entry{{Title: "a"}, {Title: "b"}})
	assert.Equal("Downloaded 2 files", completionMessage(&Result{Record: &list}))
}
