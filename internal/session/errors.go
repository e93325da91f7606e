package session

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrToolInvocationFailed  = errors.New("downloader exited with an error")
	ErrAntiBotChallenge      = errors.New("site requires bot verification, retry with browser cookies")
	ErrAntiBotRecoveryFailed = errors.New("download failed even with browser cookies")
	ErrNoOutputFileFound     = errors.New("downloader reported success but no output file was found")
	ErrStartFailed           = errors.New("could not start downloader")
	ErrCookieExportFailed    = errors.New("could not export browser cookies")

	ErrSessionClosed = errors.New("session closed")
)

// DownloadError is the terminal error of a failed download. Kind is one of the Err* sentinels above.
type DownloadError struct {
	Kind    error
	Message string
	// Output of the downloader, one line per element, starting with the command line.
	Transcript []string
}

func (e *DownloadError) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *DownloadError) Unwrap() error {
	return e.Kind
}

// TranscriptText joins the transcript lines.
func (e *DownloadError) TranscriptText() string {
	return strings.Join(e.Transcript, "\n")
}

func newDownloadError(kind error, message string, transcript []string) *DownloadError {
	return &DownloadError{Kind: kind, Message: message, Transcript: transcript}
}
