package formats

import (
	"strconv"

	"github.com/alanbriolat/media-fetcher"
)

// rawInfo is the subset of the video downloader's JSON metadata ("-J") that is used.
type rawInfo struct {
	Title             string                   `json:"title"`
	Thumbnail         string                   `json:"thumbnail"`
	Channel           string                   `json:"channel"`
	DurationString    string                   `json:"duration_string"`
	Formats           []rawFormat              `json:"formats"`
	Subtitles         map[string][]rawSubtitle `json:"subtitles"`
	AutomaticCaptions map[string][]rawSubtitle `json:"automatic_captions"`
	Entries           []rawEntry               `json:"entries"`
}

type rawFormat struct {
	FormatID       string   `json:"format_id"`
	Ext            string   `json:"ext"`
	VCodec         *string  `json:"vcodec"`
	ACodec         *string  `json:"acodec"`
	Resolution     string   `json:"resolution"`
	Height         *int     `json:"height"`
	FPS            *float64 `json:"fps"`
	FileSize       *float64 `json:"filesize"`
	FileSizeApprox *float64 `json:"filesize_approx"`
	Language       *string  `json:"language"`
}

type rawSubtitle struct {
	Ext string `json:"ext"`
}

type rawEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// Format is one selectable stream variant.
type Format struct {
	ID         string
	Label      string
	Kind       media_fetcher.StreamKind
	Ext        string
	Resolution string
	FPS        float64
	// Size in bytes, exact or approximate; 0 if unknown.
	Size     float64
	Language string
}

// Subtitle is one subtitle language, either manually authored or auto-generated.
type Subtitle struct {
	Code  string
	Name  string
	Auto  bool
	Exts  []string
	Label string
}

// Dub is an alternate-language audio track.
type Dub struct {
	Code string
	Name string
}

// Entry is one item of a playlist, from the flat listing.
type Entry struct {
	ID    string
	Title string
	URL   string
}

// Info is the normalised result of a metadata query.
type Info struct {
	URL        string
	Title      string
	Thumbnail  string
	Channel    string
	Duration   string
	Formats    []Format
	Subtitles  []Subtitle
	Dubs       []Dub
	IsPlaylist bool
	Entries    []Entry
}

// FindFormat returns the format with the given id, if present.
func (i *Info) FindFormat(id string) (Format, bool) {
	for _, f := range i.Formats {
		if f.ID == id {
			return f, true
		}
	}
	return Format{}, false
}

func formatFPS(fps float64) string {
	if fps == 0 {
		return ""
	}
	return strconv.FormatFloat(fps, 'f', -1, 64)
}
