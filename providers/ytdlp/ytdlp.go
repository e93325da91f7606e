// Package ytdlp drives yt-dlp, the general-purpose video downloader. It matches any http(s) URL.
package ytdlp

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/alanbriolat/media-fetcher"
	"github.com/alanbriolat/media-fetcher/playlist"
	"github.com/alanbriolat/media-fetcher/progress"
	"github.com/alanbriolat/media-fetcher/util"
)

const (
	Name = "yt-dlp"
	// OutputTemplate names each file after its title.
	OutputTemplate = "%(title)s.%(ext)s"
	// MergeContainer is the container that separate video and audio streams are merged into.
	MergeContainer = "mp4"
)

type Tool struct{}

var _ media_fetcher.Tool = Tool{}

func (Tool) Name() string {
	return Name
}

func (Tool) DefaultBinary() string {
	return "yt-dlp"
}

func (Tool) SupportsCookies() bool {
	return true
}

func (Tool) FallbackExtensions() []string {
	return nil
}

// FormatSpec expands the chosen format into a full format selector: video-only formats need an audio stream merged
// in, and requested dubs become extra audio streams.
func FormatSpec(format string, kind media_fetcher.StreamKind, dubs []string) string {
	if format == "" {
		format = "best"
	}
	base := format
	if kind == media_fetcher.StreamVideoOnly {
		base = format + "+bestaudio[ext=m4a]/bestaudio"
	}
	if !kind.HasVideo() || len(dubs) == 0 {
		return base
	}
	selector := format
	if kind == media_fetcher.StreamVideoOnly {
		selector += "+bestaudio[ext=m4a]"
	}
	for _, lang := range dubs {
		selector += fmt.Sprintf("+bestaudio[language=%s]", lang)
	}
	return selector + "/" + base
}

// CanEmbedSubtitles reports whether subtitles can be embedded into the container implied by a format id.
func CanEmbedSubtitles(format string) bool {
	return strings.Contains(format, "mp4") || strings.Contains(format, "mkv")
}

func (Tool) Args(req *media_fetcher.DownloadRequest, window playlist.Window, cookieFile string) []string {
	args := []string{
		"-f", FormatSpec(req.Format, req.Kind, req.DubLangs),
		"-o", filepath.Join(req.Folder, OutputTemplate),
		"--newline",
	}
	if req.Proxy != "" {
		args = append(args, "--proxy", req.Proxy)
	}
	isVideo := req.Kind.HasVideo()
	if isVideo && req.Thumbnail != "" {
		args = append(args, "--embed-thumbnail")
	}
	if len(req.SubtitleLangs) > 0 {
		args = append(args, "--write-subs", "--sub-langs", strings.Join(req.SubtitleLangs, ","))
		if req.EmbedSubtitles {
			if CanEmbedSubtitles(req.Format) {
				args = append(args, "--embed-subs")
			} else {
				zap.S().Named(Name).Warnf("format %q does not support embedded subtitles, writing them separately", req.Format)
			}
		}
	}
	if isVideo && len(req.DubLangs) > 0 {
		args = append(args, "--audio-multistreams")
	}
	if isVideo {
		args = append(args, "--merge-output-format", MergeContainer, "--add-metadata")
	}
	args = append(args, window.Args...)
	if req.Trim.IsSet() {
		args = append(args, "--download-sections", fmt.Sprintf("*%s-%s", req.Trim.Start, req.Trim.End), "--force-keyframes-at-cuts")
	}
	if cookieFile != "" {
		args = append(args, "--cookies", cookieFile)
	}
	return append(args, "--", req.URL)
}

func (Tool) Announce(line string, folder string) (media_fetcher.Announcement, bool) {
	if path, ok := progress.MergeTarget(line); ok {
		return media_fetcher.Announcement{Path: inFolder(folder, path), Final: true}, true
	}
	if path, ok := progress.AlreadyDownloaded(line); ok {
		return media_fetcher.Announcement{Path: inFolder(folder, path), Final: true}, true
	}
	if path, ok := progress.Destination(line); ok {
		return media_fetcher.Announcement{Path: inFolder(folder, path)}, true
	}
	return media_fetcher.Announcement{}, false
}

// inFolder re-roots an announced path in the target folder, since the tool may report it relative to its own working
// directory.
func inFolder(folder string, path string) string {
	return filepath.Join(folder, filepath.Base(path))
}

func Match(s string) (media_fetcher.Tool, error) {
	if !util.IsHTTPURL(s) {
		return nil, fmt.Errorf("not an http(s) URL: %q", s)
	}
	return Tool{}, nil
}

func New() media_fetcher.Provider {
	return media_fetcher.Provider{Name: Name, Match: Match}.WithPriority(media_fetcher.PriorityLowest)
}

func init() {
	media_fetcher.DefaultProviderRegistry.MustAdd(New())
}
