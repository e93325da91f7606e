package session

import (
	"github.com/alanbriolat/media-fetcher/formats"
	"github.com/alanbriolat/media-fetcher/history"
	"github.com/alanbriolat/media-fetcher/progress"
)

type Event interface {
	// The Download this event relates to (nil if not a Download-specific event).
	Download() *Download
}

type downloadEvent struct {
	download *Download
}

func (e downloadEvent) Download() *Download {
	return e.download
}

type DownloadAdded struct {
	downloadEvent
}
type DownloadStarted struct {
	downloadEvent
}
type DownloadUpdated struct {
	downloadEvent
	OldState DownloadState
	NewState DownloadState
}
type DownloadProgress struct {
	downloadEvent
	Sample progress.Sample
	// Zero if there is no playlist item context.
	Item progress.Item
}
type DownloadRetrying struct {
	downloadEvent
	Browser string
}
type DownloadCompleted struct {
	downloadEvent
	Path  string
	Entry history.Entry
}
type DownloadCompletedPlaylist struct {
	downloadEvent
	Entries []history.Entry
}
type DownloadFailed struct {
	downloadEvent
	Err error
}
type DownloadCancelled struct {
	downloadEvent
}

// FormatsFetched is published when FetchFormats finishes, successfully or not.
type FormatsFetched struct {
	URL  string
	Info *formats.Info
	Err  error
}

func (FormatsFetched) Download() *Download {
	return nil
}
