package session

import (
	"github.com/alanbriolat/media-fetcher/generic"
	"github.com/alanbriolat/media-fetcher/history"
	"github.com/alanbriolat/media-fetcher/internal/lpc"
	"github.com/alanbriolat/media-fetcher/internal/pubsub"
)

// Result is the terminal outcome of a download.
type Result struct {
	// One of DownloadStatusComplete, DownloadStatusCancelled or DownloadStatusFailed.
	Status DownloadStatus
	// Set when complete.
	Record *history.Record
	// Set when failed, usually a *DownloadError.
	Err error
}

// Paths returns the files of a completed download.
func (r *Result) Paths() []string {
	if r == nil || r.Record == nil {
		return nil
	}
	var paths []string
	for _, e := range r.Record.All() {
		paths = append(paths, e.FilePath)
	}
	return paths
}

// State returns a snapshot of the download's state, or ErrDownloadClosed once it has been closed.
func (d *Download) State() (DownloadState, error) {
	return lpc.Call(d.stateCommand, d.ctx.Done(), generic.NewVoid(), ErrDownloadClosed)
}

// Start begins the download, if it has not already started.
func (d *Download) Start() {
	select {
	case d.startCommand <- struct{}{}:
	case <-d.ctx.Done():
	}
}

// Cancel asks a running download to stop, deleting whatever it has produced. It does not wait.
func (d *Download) Cancel() {
	select {
	case d.cancelCommand <- struct{}{}:
	case <-d.ctx.Done():
	}
}

// Done is closed once the download has reached a terminal status.
func (d *Download) Done() <-chan struct{} {
	return d.finished.Wait()
}

// Result waits for the terminal outcome.
func (d *Download) Result() *Result {
	<-d.finished.Wait()
	return d.result
}

// Subscribe receives only the events of this download.
func (d *Download) Subscribe() (pubsub.ReceiverCloser[Event], error) {
	return d.session.SubscribeDownload(d.id)
}

// Close cancels the download if it is running, and waits for it to clean up.
func (d *Download) Close() {
	d.ctxCancel()
	<-d.done
}
