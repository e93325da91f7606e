package media_fetcher

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/alanbriolat/media-fetcher/generic"
	"github.com/alanbriolat/media-fetcher/playlist"
	"github.com/alanbriolat/media-fetcher/util"
)

var (
	ErrInvalidRequest = errors.New("invalid download request")
	ErrInvalidProxy   = errors.New("invalid proxy")
)

var proxySchemes = generic.NewSet("http", "https", "socks5")

// ValidateProxy checks proxy has the form scheme://[user[:password]@]host:port, with an http, https or socks5 scheme.
// An empty proxy means none and is valid.
func ValidateProxy(proxy string) error {
	if proxy == "" {
		return nil
	}
	u, err := url.Parse(proxy)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProxy, err)
	}
	if !proxySchemes.Contains(strings.ToLower(u.Scheme)) {
		return fmt.Errorf("%w: unsupported scheme %q in %s", ErrInvalidProxy, u.Scheme, proxy)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("%w: missing host in %s", ErrInvalidProxy, proxy)
	}
	if (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("%w: unexpected path in %s", ErrInvalidProxy, proxy)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: port must be 1-65535 in %s", ErrInvalidProxy, proxy)
	}
	return nil
}

// StreamKind classifies a format by which of video and audio it carries. The string values are the labels stored in
// the download history.
type StreamKind string

const (
	StreamUnknown    StreamKind = "[unknown]"
	StreamVideoAudio StreamKind = "[video+audio]"
	StreamVideoOnly  StreamKind = "[video only]"
	StreamAudioOnly  StreamKind = "[audio only]"
)

var videoKinds = generic.NewSet(StreamVideoAudio, StreamVideoOnly)

// HasVideo returns true for kinds that include a video stream, which get merged into an mp4 container.
func (k StreamKind) HasVideo() bool {
	return videoKinds.Contains(k)
}

// ClassifyStream derives the StreamKind from codec fields, where "none" (or empty) means absent.
func ClassifyStream(vcodec, acodec string) StreamKind {
	hasVideo := vcodec != "" && vcodec != "none"
	hasAudio := acodec != "" && acodec != "none"
	switch {
	case hasVideo && hasAudio:
		return StreamVideoAudio
	case hasVideo:
		return StreamVideoOnly
	case hasAudio:
		return StreamAudioOnly
	default:
		return StreamUnknown
	}
}

// ParseStreamKind accepts either the bracketed label or a short name ("av", "video", "audio").
func ParseStreamKind(s string) (StreamKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(StreamVideoAudio), "av", "video+audio":
		return StreamVideoAudio, nil
	case string(StreamVideoOnly), "video", "video-only":
		return StreamVideoOnly, nil
	case string(StreamAudioOnly), "audio", "audio-only":
		return StreamAudioOnly, nil
	case string(StreamUnknown), "unknown", "":
		return StreamUnknown, nil
	default:
		return StreamUnknown, fmt.Errorf("unknown stream kind %q", s)
	}
}

// SourceType labels where a download came from.
type SourceType string

const (
	SourceYouTube SourceType = "YouTube"
	SourceSpotify SourceType = "Spotify"
)

func DetectSourceType(url string) SourceType {
	if util.IsSpotifyURL(url) {
		return SourceSpotify
	}
	return SourceYouTube
}

// Trim selects a section of the media by timestamps as understood by the downloader, e.g. "1:30" or "00:01:30".
type Trim struct {
	Start string
	End   string
}

func (t *Trim) IsSet() bool {
	return t != nil && (t.Start != "" || t.End != "")
}

// DownloadRequest is everything needed to perform one download. It is not modified once a download starts.
type DownloadRequest struct {
	URL    string
	Folder string
	// Format specifier, e.g. a format id from the format list, or "best".
	Format         string
	Kind           StreamKind
	SubtitleLangs  []string
	EmbedSubtitles bool
	// Additional audio-track (dub) languages to include.
	DubLangs []string
	Playlist playlist.Selection
	// Number of items in the playlist, if known (0 otherwise).
	PlaylistTotal int
	Trim          *Trim
	Proxy         string

	// Display metadata carried into the history.
	Title     string
	Thumbnail string

	// Browser to take cookies from if an anti-bot challenge is hit, without asking.
	CookieBrowser string
	// Name of the provider to use instead of the first one matching URL.
	Provider string
}

func (r *DownloadRequest) SourceType() SourceType {
	return DetectSourceType(r.URL)
}

// Validate checks the request is complete enough to start.
func (r *DownloadRequest) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("%w: missing URL", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Folder) == "" {
		return fmt.Errorf("%w: missing target folder", ErrInvalidRequest)
	}
	if r.Trim.IsSet() && (r.Trim.Start == "" || r.Trim.End == "") {
		return fmt.Errorf("%w: trim needs both start and end", ErrInvalidRequest)
	}
	if _, err := playlist.Resolve(r.PlaylistTotal, r.Playlist); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := ValidateProxy(r.Proxy); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}
