package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alanbriolat/media-fetcher"
	"github.com/alanbriolat/media-fetcher/generic"
	"github.com/alanbriolat/media-fetcher/internal/lpc"
	"github.com/alanbriolat/media-fetcher/internal/process"
	"github.com/alanbriolat/media-fetcher/internal/sync_"
	"github.com/alanbriolat/media-fetcher/progress"
)

var (
	ErrDownloadClosed = errors.New("download closed")
)

type DownloadID string

func NewDownloadID() DownloadID {
	return DownloadID(generic.Unwrap(uuid.NewRandom()).String())
}

type DownloadStatus string

const (
	DownloadStatusUndefined DownloadStatus = ""
	DownloadStatusNew       DownloadStatus = "new"
	DownloadStatusRunning   DownloadStatus = "running"
	DownloadStatusRetrying  DownloadStatus = "retrying"
	DownloadStatusComplete  DownloadStatus = "complete"
	DownloadStatusCancelled DownloadStatus = "cancelled"
	DownloadStatusFailed    DownloadStatus = "failed"
)

var runningStatuses = generic.NewSet(
	DownloadStatusRunning,
	DownloadStatusRetrying,
)

var finishedStatuses = generic.NewSet(
	DownloadStatusComplete,
	DownloadStatusCancelled,
	DownloadStatusFailed,
)

// IsRunning returns true if the status is one where a child process may be updating the download.
func (s DownloadStatus) IsRunning() bool {
	return runningStatuses.Contains(s)
}

// IsFinished returns true for terminal statuses, which never change again.
func (s DownloadStatus) IsFinished() bool {
	return finishedStatuses.Contains(s)
}

type DownloadState struct {
	ID       DownloadID
	URL      string
	Folder   string
	Provider string
	Status   DownloadStatus
	AddedAt  time.Time

	StartedAt  time.Time
	FinishedAt time.Time
	// Percentage of the current item, 0-100.
	Progress int
	Message  string
	// Current playlist item, if the downloader reported one.
	Item progress.Item
	// Browser whose cookies were used for a retry, if any.
	CookieBrowser string
	Error         string
}

type Download struct {
	id      DownloadID
	request media_fetcher.DownloadRequest
	tool    media_fetcher.Tool
	state   DownloadState
	log     *zap.SugaredLogger

	session   *Session
	ctx       context.Context
	ctxCancel context.CancelFunc
	// Cancelled by Cancel, to interrupt anything the worker is waiting on.
	workCtx    context.Context
	workCancel context.CancelFunc

	// Process of the current attempt; only touched by the command loop.
	proc process.Process

	cancelRequested sync_.Event
	finished        sync_.Event
	result          *Result

	done          chan struct{}
	workerDone    chan struct{}
	startCommand  chan struct{}
	cancelCommand chan struct{}
	stateCommand  chan *lpc.Command[generic.Void, DownloadState]
	calls         chan func()
}

func newDownload(session *Session, req media_fetcher.DownloadRequest, match *media_fetcher.Match) *Download {
	ctx, cancel := context.WithCancel(session.ctx)
	workCtx, workCancel := context.WithCancel(ctx)
	id := NewDownloadID()
	d := &Download{
		id:      id,
		request: req,
		tool:    match.Tool,
		state: DownloadState{
			ID:       id,
			URL:      req.URL,
			Folder:   req.Folder,
			Provider: match.ProviderName,
			Status:   DownloadStatusNew,
			AddedAt:  time.Now(),
		},
		log: zap.S().Named("download").With("download_id", id),

		session:    session,
		ctx:        ctx,
		ctxCancel:  cancel,
		workCtx:    workCtx,
		workCancel: workCancel,

		done:          make(chan struct{}),
		workerDone:    make(chan struct{}),
		startCommand:  make(chan struct{}),
		cancelCommand: make(chan struct{}),
		stateCommand:  make(chan *lpc.Command[generic.Void, DownloadState]),
		calls:         make(chan func()),
	}
	go d.run()
	return d
}

func (d *Download) ID() DownloadID {
	return d.id
}

// Request returns a copy of the request the download was created from.
func (d *Download) Request() media_fetcher.DownloadRequest {
	return d.request
}

// Logger is the download's own logger, carrying its download_id.
func (d *Download) Logger() *zap.SugaredLogger {
	return d.log
}

func (d *Download) String() string {
	return fmt.Sprintf("Download{ID:\"%s\", URL:\"%s\"}", d.id, d.request.URL)
}
