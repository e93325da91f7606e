// Package spotdl drives spotdl, which downloads music-streaming tracks by matching their metadata.
package spotdl

import (
	"fmt"
	"path/filepath"

	"github.com/alanbriolat/media-fetcher"
	"github.com/alanbriolat/media-fetcher/playlist"
	"github.com/alanbriolat/media-fetcher/progress"
	"github.com/alanbriolat/media-fetcher/util"
)

const (
	Name           = "spotdl"
	OutputTemplate = "{artist} - {title}.{ext}"
)

var audioExtensions = []string{".mp3", ".m4a", ".ogg", ".flac", ".opus"}

type Tool struct{}

var _ media_fetcher.Tool = Tool{}

func (Tool) Name() string {
	return Name
}

func (Tool) DefaultBinary() string {
	return "spotdl"
}

func (Tool) SupportsCookies() bool {
	return false
}

func (Tool) FallbackExtensions() []string {
	return audioExtensions
}

func (Tool) Args(req *media_fetcher.DownloadRequest, _ playlist.Window, _ string) []string {
	args := []string{"download", req.URL, "--output", filepath.Join(req.Folder, OutputTemplate)}
	if req.Proxy != "" {
		args = append(args, "--proxy", req.Proxy)
	}
	return args
}

func (Tool) Announce(line string, folder string) (media_fetcher.Announcement, bool) {
	path, ok := progress.SavedPath(line)
	if !ok {
		return media_fetcher.Announcement{}, false
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(folder, path)
	}
	return media_fetcher.Announcement{Path: path, Final: true}, true
}

func Match(s string) (media_fetcher.Tool, error) {
	if !util.IsSpotifyURL(s) {
		return nil, fmt.Errorf("not a Spotify URL")
	}
	return Tool{}, nil
}

func New() media_fetcher.Provider {
	return media_fetcher.Provider{Name: Name, Match: Match}
}

func init() {
	media_fetcher.DefaultProviderRegistry.MustAdd(New())
}
