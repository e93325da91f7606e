// Package playlist translates a playlist selection into the video downloader's playlist-window flags.
package playlist

import (
	"errors"
	"fmt"
)

var (
	ErrIndexOutOfRange = errors.New("playlist index out of range")
	ErrUnknownMode     = errors.New("unknown playlist mode")
)

type Mode string

const (
	// ModeNone means the URL is not treated as a playlist.
	ModeNone   Mode = ""
	ModeAll    Mode = "all"
	ModeRange  Mode = "range"
	ModeSingle Mode = "single"
)

// IsPlaylist returns true for every mode that downloads from a playlist, including a single index of one.
func (m Mode) IsPlaylist() bool {
	return m == ModeAll || m == ModeRange || m == ModeSingle
}

// Selection is the user's choice of which playlist items to fetch. Start and End are used by ModeRange, Index by
// ModeSingle; all indices are 1-based.
type Selection struct {
	Mode  Mode
	Start int
	End   int
	Index int
}

func All() Selection {
	return Selection{Mode: ModeAll}
}

func Range(start, end int) Selection {
	return Selection{Mode: ModeRange, Start: start, End: end}
}

func Single(index int) Selection {
	return Selection{Mode: ModeSingle, Index: index}
}

// Window is a resolved Selection.
type Window struct {
	Selection Selection
	// Flags for the video downloader.
	Args []string
	// How many items the download is expected to produce, for progress accounting.
	ExpectedItems int
	// Whether "downloading item N of M" lines from the downloader should drive item progress. This is false for a
	// single index, where the downloader's own numbering does not match the user's selection.
	TrustItemProgress bool
}

// Resolve validates sel against a playlist of total items (0 if unknown) and produces the corresponding Window.
func Resolve(total int, sel Selection) (Window, error) {
	w := Window{Selection: sel}
	switch sel.Mode {
	case ModeNone:
		w.ExpectedItems = 1
	case ModeAll:
		w.ExpectedItems = total
		if w.ExpectedItems < 1 {
			w.ExpectedItems = 1
		}
		w.TrustItemProgress = true
	case ModeRange:
		start, end := sel.Start, sel.End
		if start > end {
			start, end = end, start
		}
		if err := checkIndex(total, start); err != nil {
			return Window{}, err
		}
		if err := checkIndex(total, end); err != nil {
			return Window{}, err
		}
		w.Selection.Start, w.Selection.End = start, end
		w.Args = []string{fmt.Sprintf("--playlist-start=%d", start), fmt.Sprintf("--playlist-end=%d", end)}
		w.ExpectedItems = end - start + 1
		w.TrustItemProgress = true
	case ModeSingle:
		if err := checkIndex(total, sel.Index); err != nil {
			return Window{}, err
		}
		w.Args = []string{fmt.Sprintf("--playlist-items=%d", sel.Index)}
		w.ExpectedItems = 1
	default:
		return Window{}, fmt.Errorf("%w: %q", ErrUnknownMode, sel.Mode)
	}
	return w, nil
}

func checkIndex(total int, index int) error {
	if index < 1 || (total > 0 && index > total) {
		return fmt.Errorf("%w: %d (playlist has %d items)", ErrIndexOutOfRange, index, total)
	}
	return nil
}

// ParseMode accepts the textual mode names, with "" and "none" meaning ModeNone.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAll, ModeRange, ModeSingle:
		return Mode(s), nil
	case ModeNone, "none":
		return ModeNone, nil
	default:
		return ModeNone, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}
