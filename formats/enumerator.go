// Package formats queries the video downloader for the metadata of a URL: its title, the selectable stream formats,
// subtitle languages, dubbed audio languages, and playlist entries.
package formats

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/alanbriolat/media-fetcher"
	"github.com/alanbriolat/media-fetcher/internal/process"
	"github.com/alanbriolat/media-fetcher/util"
)

const (
	DefaultBinary = "yt-dlp"
	UnknownTitle  = "Unknown Title"
	SpotifyTitle  = "Spotify Track"
)

var (
	ErrMetadataFetchFailed = errors.New("metadata fetch failed")
	ErrNoFormatsAvailable  = errors.New("no downloadable formats found")
)

// FetchError is returned when the metadata query could not be run or its output could not be understood.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching metadata for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// SpotifyFormat is the only format offered for music URLs, which are downloaded at the best available quality.
var SpotifyFormat = Format{
	ID:    "best",
	Label: "Best Quality [audio]",
	Kind:  media_fetcher.StreamAudioOnly,
}

type Enumerator struct {
	Runner process.Runner
	// Video downloader executable; DefaultBinary if empty.
	Binary string
	Proxy  string
}

func (e *Enumerator) binary() string {
	if e.Binary == "" {
		return DefaultBinary
	}
	return e.Binary
}

func (e *Enumerator) runner() process.Runner {
	if e.Runner == nil {
		return process.ExecRunner{}
	}
	return e.Runner
}

func (e *Enumerator) query(ctx context.Context, url string, flat bool) (*rawInfo, error) {
	args := []string{"--no-warnings", "-J"}
	if flat {
		args = append(args, "--flat-playlist")
	}
	if e.Proxy != "" {
		args = append(args, "--proxy", e.Proxy)
	}
	args = append(args, "--", url)
	stdout, stderr, code, err := e.runner().Output(ctx, e.binary(), args...)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	if code != 0 {
		output := strings.TrimSpace(string(stderr))
		if output == "" {
			output = strings.TrimSpace(string(stdout))
		}
		return nil, fmt.Errorf("%w: exit code %d: %s", ErrMetadataFetchFailed, code, output)
	}
	var info rawInfo
	if err := json.NewDecoder(bytes.NewReader(stdout)).Decode(&info); err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	return &info, nil
}

// Fetch gets the metadata for url. For a playlist, the formats and subtitles are those of its first entry.
func (e *Enumerator) Fetch(ctx context.Context, url string) (*Info, error) {
	log := zap.S().Named("formats").With("url", url)

	if util.IsSpotifyURL(url) {
		return &Info{
			URL:     url,
			Title:   SpotifyTitle,
			Formats: []Format{SpotifyFormat},
		}, nil
	}

	raw, err := e.query(ctx, url, true)
	if err != nil {
		return nil, err
	}
	result := &Info{URL: url}
	if len(raw.Entries) > 1 {
		result.IsPlaylist = true
		for _, entry := range raw.Entries {
			result.Entries = append(result.Entries, Entry{ID: entry.ID, Title: entry.Title, URL: entry.URL})
		}
		first, err := firstEntryURL(raw.Entries[0])
		if err != nil {
			return nil, &FetchError{URL: url, Err: err}
		}
		log.Debugf("playlist with %d entries, querying formats of %s", len(raw.Entries), first)
		if raw, err = e.query(ctx, first, false); err != nil {
			return nil, err
		}
	}

	result.Title = raw.Title
	if result.Title == "" {
		result.Title = UnknownTitle
	}
	result.Thumbnail = raw.Thumbnail
	result.Channel = raw.Channel
	result.Duration = raw.DurationString
	for _, f := range raw.Formats {
		result.Formats = append(result.Formats, newFormat(f))
	}
	if len(result.Formats) == 0 {
		return nil, ErrNoFormatsAvailable
	}
	result.Subtitles = mergeSubtitles(raw.Subtitles, raw.AutomaticCaptions)
	result.Dubs = collectDubs(raw.Formats)
	log.Debugf("found %d formats, %d subtitle languages, %d dubs",
		len(result.Formats), len(result.Subtitles), len(result.Dubs))
	return result, nil
}

func firstEntryURL(entry rawEntry) (string, error) {
	for _, candidate := range []string{entry.URL, entry.ID} {
		if u, err := util.WatchURL(candidate); err == nil {
			return u, nil
		}
	}
	// Not a YouTube playlist, so use whatever the listing gave
	if util.IsHTTPURL(entry.URL) {
		return entry.URL, nil
	}
	return "", fmt.Errorf("%w: playlist entry %q", util.ErrNoVideoID, entry.ID)
}

func newFormat(f rawFormat) Format {
	format := Format{
		ID:         f.FormatID,
		Kind:       media_fetcher.ClassifyStream(deref(f.VCodec), deref(f.ACodec)),
		Ext:        f.Ext,
		Resolution: f.Resolution,
		FPS:        deref(f.FPS),
		Size:       deref(f.FileSize),
		Language:   deref(f.Language),
	}
	if format.Resolution == "" && deref(f.Height) > 0 {
		format.Resolution = fmt.Sprintf("%dp", *f.Height)
	}
	if format.Size == 0 {
		format.Size = deref(f.FileSizeApprox)
	}
	size := "?"
	if format.Size > 0 {
		size = util.HumanSize(format.Size)
	}
	format.Label = fmt.Sprintf("%s %s | %s | %s | %sfps | %s",
		format.ID, format.Kind, format.Ext, format.Resolution, formatFPS(format.FPS), size)
	return format
}
