// Package history persists a bounded, newest-first list of completed downloads.
package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alanbriolat/media-fetcher/util"
)

// MaxEntries is the number of records kept; older records are evicted.
const MaxEntries = 1000

var (
	ErrCorrupted = errors.New("history corrupted")
)

// Entry describes one downloaded file.
type Entry struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	FilePath string `json:"filepath"`
	// Source type, e.g. "YouTube".
	Type string `json:"type"`
	// Stream kind label, e.g. "[video+audio]".
	Format    string  `json:"format"`
	DateTime  string  `json:"datetime"`
	Elapsed   float64 `json:"elapsed"`
	Thumbnail string  `json:"thumbnail"`
}

// Timestamp formats t the way Entry.DateTime is stored.
func Timestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}

// Record is one element of the history: either a single Entry, or a playlist run containing one Entry per item.
type Record struct {
	Single  *Entry
	Entries []Entry
}

func SingleRecord(e Entry) Record {
	return Record{Single: &e}
}

func PlaylistRecord(entries []Entry) Record {
	return Record{Entries: entries}
}

func (r Record) IsPlaylist() bool {
	return r.Single == nil
}

// All returns every Entry in the record.
func (r Record) All() []Entry {
	if r.IsPlaylist() {
		return r.Entries
	}
	return []Entry{*r.Single}
}

// Existing returns the record limited to entries whose file exists, and false if nothing remains.
func (r Record) Existing() (Record, bool) {
	if !r.IsPlaylist() {
		return r, util.FileExists(r.Single.FilePath)
	}
	var kept []Entry
	for _, e := range r.Entries {
		if util.FileExists(e.FilePath) {
			kept = append(kept, e)
		}
	}
	return PlaylistRecord(kept), len(kept) > 0
}

type playlistWrapper struct {
	Playlist bool    `json:"playlist"`
	Entries  []Entry `json:"entries"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	if r.IsPlaylist() {
		entries := r.Entries
		if entries == nil {
			entries = []Entry{}
		}
		return json.Marshal(playlistWrapper{Playlist: true, Entries: entries})
	}
	return json.Marshal(r.Single)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var probe struct {
		Playlist bool `json:"playlist"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Playlist {
		var w playlistWrapper
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		*r = PlaylistRecord(w.Entries)
		return nil
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return err
	}
	*r = SingleRecord(e)
	return nil
}

// Decode parses a serialised history. Empty input is an empty history.
func Decode(data []byte) ([]Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	return records, nil
}

// Encode serialises a history as a pretty-printed JSON array.
func Encode(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	return json.MarshalIndent(records, "", "  ")
}

// Store is a persistent history.
type Store interface {
	// Load returns all records, newest first.
	Load() ([]Record, error)
	// Append adds a record at the front, keeping only entries whose file exists. Returns false, without writing, if no
	// entry remains.
	Append(Record) (bool, error)
	// Truncate drops all but the newest n records.
	Truncate(n int) error
	Clear() error
	Close() error
}

func prepend(records []Record, r Record) []Record {
	records = append([]Record{r}, records...)
	if len(records) > MaxEntries {
		records = records[:MaxEntries]
	}
	return records
}
