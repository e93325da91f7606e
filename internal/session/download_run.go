package session

import (
	"time"

	"github.com/alanbriolat/media-fetcher/internal/process"
)

func (d *Download) run() {
	defer close(d.done)
	started := false

	for {
		select {
		case <-d.ctx.Done():
			d.cancel()
			if started {
				d.log.Debug("waiting for worker to exit")
				<-d.workerDone
			}
			return
		case cmd := <-d.stateCommand:
			_ = cmd.Respond(d.state)
		case <-d.startCommand:
			if !started && !d.state.Status.IsFinished() {
				started = true
				d.start()
			}
		case <-d.cancelCommand:
			d.cancel()
		case f := <-d.calls:
			f()
		}
	}
}

func (d *Download) start() {
	d.updateState(func(ds *DownloadState) {
		ds.Status = DownloadStatusRunning
		ds.StartedAt = time.Now()
		ds.Message = "Starting..."
	})
	d.publish(DownloadStarted{downloadEvent{d}})
	go func() {
		defer close(d.workerDone)
		d.finish(d.work())
	}()
}

func (d *Download) cancel() {
	if d.state.Status.IsFinished() || !d.cancelRequested.Set() {
		return
	}
	d.log.Info("cancelling")
	d.workCancel()
	if d.state.Status == DownloadStatusNew {
		// Never started, so there is nothing to clean up
		d.complete(&Result{Status: DownloadStatusCancelled})
		return
	}
	if d.proc != nil {
		if err := d.proc.Terminate(); err != nil {
			d.log.Warnf("failed to terminate downloader: %v", err)
		}
	}
}

// attach records the process of the current attempt, so that Cancel can terminate it.
func (d *Download) attach(p process.Process) {
	ok := d.do(func() {
		d.proc = p
		if p != nil && d.cancelRequested.IsSet() {
			_ = p.Terminate()
		}
	})
	if !ok && p != nil {
		_ = p.Terminate()
	}
}

// finish is called by the worker with the outcome.
func (d *Download) finish(r *Result) {
	if !d.do(func() { d.complete(r) }) {
		// Command loop has gone (session closing), so record the outcome without publishing it
		d.result = r
		d.finished.Set()
	}
}

func (d *Download) complete(r *Result) {
	d.updateState(func(ds *DownloadState) {
		ds.Status = r.Status
		ds.FinishedAt = time.Now()
		switch r.Status {
		case DownloadStatusComplete:
			ds.Progress = 100
			ds.Message = completionMessage(r)
		case DownloadStatusCancelled:
			ds.Message = "Cancelled"
		case DownloadStatusFailed:
			ds.Message = "Failed"
			if r.Err != nil {
				ds.Error = r.Err.Error()
			}
		}
	})
	d.result = r
	d.finished.Set()
	switch r.Status {
	case DownloadStatusComplete:
		if r.Record.IsPlaylist() {
			d.publish(DownloadCompletedPlaylist{downloadEvent{d}, r.Record.Entries})
		} else {
			d.publish(DownloadCompleted{downloadEvent{d}, r.Record.Single.FilePath, *r.Record.Single})
		}
	case DownloadStatusCancelled:
		d.publish(DownloadCancelled{downloadEvent{d}})
	case DownloadStatusFailed:
		d.publish(DownloadFailed{downloadEvent{d}, r.Err})
	}
}

// do runs f on the command loop, which owns the state. Returns false if the loop has stopped.
func (d *Download) do(f func()) bool {
	select {
	case d.calls <- f:
		return true
	case <-d.ctx.Done():
		return false
	}
}

func (d *Download) updateState(f func(ds *DownloadState)) {
	old := d.state
	f(&d.state)
	if d.state != old {
		d.publish(DownloadUpdated{downloadEvent{d}, old, d.state})
	}
}

func (d *Download) publish(e Event) {
	d.session.events.Send(e)
}
