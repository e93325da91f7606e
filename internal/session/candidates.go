package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"

	"github.com/alanbriolat/media-fetcher"
	"github.com/alanbriolat/media-fetcher/util"
)

type candidate struct {
	path       string
	final      bool
	superseded bool
}

// candidates tracks the files announced by the downloader, in order of first announcement. A final announcement
// (e.g. the target of a merge) supersedes the intermediate files announced since the previous one.
type candidates struct {
	list  []*candidate
	index map[string]*candidate
	// Start of the announcements that a final announcement would supersede.
	pending int
}

func newCandidates() *candidates {
	return &candidates{index: make(map[string]*candidate)}
}

func (c *candidates) add(a media_fetcher.Announcement) {
	if a.Path == "" {
		return
	}
	cand, ok := c.index[a.Path]
	if !ok {
		cand = &candidate{path: a.Path}
		c.index[a.Path] = cand
		c.list = append(c.list, cand)
	}
	if a.Final {
		cand.final = true
		cand.superseded = false
		for _, other := range c.list[c.pending:] {
			if other != cand && !other.final {
				other.superseded = true
			}
		}
		c.pending = len(c.list)
	}
}

// boundary marks the start of a new playlist item, whose files are independent of the previous item's.
func (c *candidates) boundary() {
	c.pending = len(c.list)
}

// paths returns every candidate that has not been superseded.
func (c *candidates) paths() []string {
	var paths []string
	for _, cand := range c.list {
		if !cand.superseded {
			paths = append(paths, cand.path)
		}
	}
	return paths
}

// all returns every candidate, including superseded ones.
func (c *candidates) all() []string {
	paths := make([]string, len(c.list))
	for i, cand := range c.list {
		paths[i] = cand.path
	}
	return paths
}

// final returns the authoritative output: the latest final announcement, or failing that the latest announced file
// that is not an intermediate artifact.
func (c *candidates) final() string {
	for i := len(c.list) - 1; i >= 0; i-- {
		if c.list[i].final {
			return c.list[i].path
		}
	}
	for i := len(c.list) - 1; i >= 0; i-- {
		if !c.list[i].superseded && util.IsArtifact(c.list[i].path) {
			return c.list[i].path
		}
	}
	return ""
}

// Suffixes the downloader adds to a file while it is still being written.
var partialSuffixes = []string{"", ".part", ".ytdl"}

// remove deletes every candidate that exists, along with its partial download, returning all the errors encountered.
func (c *candidates) remove() (removed []string, err error) {
	var result *multierror.Error
	for _, candidate := range c.all() {
		for _, suffix := range partialSuffixes {
			path := candidate + suffix
			if err := os.Remove(path); err == nil {
				removed = append(removed, path)
			} else if !errors.Is(err, os.ErrNotExist) {
				result = multierror.Append(result, err)
			}
		}
	}
	return removed, result.ErrorOrNil()
}

// reconcile works out which files a successful run produced.
func reconcile(req *media_fetcher.DownloadRequest, tool media_fetcher.Tool, files *candidates) ([]string, error) {
	var found []string
	if req.Playlist.Mode.IsPlaylist() {
		for _, path := range files.paths() {
			if util.IsArtifact(path) && util.FileExists(path) {
				found = append(found, path)
			}
		}
	} else if final := files.final(); final != "" && util.FileExists(final) {
		found = append(found, final)
	}

	if len(found) == 0 {
		// Best effort: whatever changed most recently in the target folder, which may belong to another download
		newest, err := util.NewestFile(req.Folder, tool.FallbackExtensions()...)
		if err != nil {
			return nil, fmt.Errorf("nothing announced, and no file in %s: %v", req.Folder, err)
		}
		found = append(found, newest)
	}

	for i, path := range found {
		if abs, err := filepath.Abs(path); err == nil {
			found[i] = abs
		}
	}
	return found, nil
}

func completionMessage(r *Result) string {
	if r.Record != nil && r.Record.IsPlaylist() {
		return fmt.Sprintf("Downloaded %d files", len(r.Record.Entries))
	}
	return "Download complete"
}
