package session

import (
	"fmt"
	"time"

	"github.com/alessio/shellescape"
	"golang.org/x/time/rate"

	"github.com/alanbriolat/media-fetcher"
	"github.com/alanbriolat/media-fetcher/history"
	"github.com/alanbriolat/media-fetcher/internal/cookies"
	"github.com/alanbriolat/media-fetcher/internal/scratch"
	"github.com/alanbriolat/media-fetcher/notify"
	"github.com/alanbriolat/media-fetcher/playlist"
	"github.com/alanbriolat/media-fetcher/progress"
	"github.com/alanbriolat/media-fetcher/util"
)

// attemptState is the state of the retry state machine. A normal attempt that is challenged as a bot moves to a
// single cookie-assisted retry; nothing moves on from there.
type attemptState int

const (
	normalAttempt attemptState = iota
	cookieAssistedRetry
)

func (s attemptState) String() string {
	switch s {
	case normalAttempt:
		return "normal"
	case cookieAssistedRetry:
		return "cookie-assisted"
	default:
		return fmt.Sprintf("attemptState(%d)", int(s))
	}
}

type attemptOutcome struct {
	exitCode   int
	cancelled  bool
	antiBot    bool
	transcript []string
}

func failed(kind error, message string, transcript []string) *Result {
	return &Result{Status: DownloadStatusFailed, Err: newDownloadError(kind, message, transcript)}
}

// work performs the whole download on the worker goroutine, returning the outcome.
func (d *Download) work() *Result {
	cfg := &d.session.config
	req := &d.request
	window, err := playlist.Resolve(req.PlaylistTotal, req.Playlist)
	if err != nil {
		return failed(ErrStartFailed, err.Error(), nil)
	}
	binary := cfg.Tools.Binary(d.tool.Name(), d.tool.DefaultBinary())
	files := newCandidates()
	startedAt := time.Now()

	var jarDir *scratch.Dir
	defer func() {
		if jarDir != nil {
			jarDir.Close()
		}
	}()

	state := normalAttempt
	cookieFile := ""
	var last *attemptOutcome
	for {
		last, err = d.attempt(state, binary, d.tool.Args(req, window, cookieFile), window, files)
		if err != nil {
			return failed(ErrStartFailed, err.Error(), nil)
		}
		if last.cancelled || d.cancelRequested.IsSet() {
			return d.cancelled(files)
		}
		if last.exitCode == 0 {
			break
		}
		message := fmt.Sprintf("exit code %d", last.exitCode)
		switch {
		case state == normalAttempt && last.antiBot && d.tool.SupportsCookies():
			d.log.Warn("downloader was challenged as a bot")
			browser, err := d.chooseBrowser()
			if d.cancelRequested.IsSet() {
				return d.cancelled(files)
			} else if err != nil {
				return failed(ErrAntiBotChallenge, err.Error(), last.transcript)
			} else if browser == "" {
				return failed(ErrAntiBotChallenge, message, last.transcript)
			}
			if jarDir, err = d.newScratchDir(); err != nil {
				return failed(ErrCookieExportFailed, err.Error(), last.transcript)
			}
			exporter := &cookies.Exporter{
				Runner: cfg.Runner,
				Binary: cfg.Tools.Binary("yt-dlp", cookies.DefaultBinary),
				Proxy:  req.Proxy,
			}
			cookieFile, err = exporter.Export(d.workCtx, browser, jarDir, req.URL)
			if d.cancelRequested.IsSet() {
				return d.cancelled(files)
			} else if err != nil {
				return failed(ErrCookieExportFailed, err.Error(), last.transcript)
			}
			state = cookieAssistedRetry
			d.do(func() {
				d.updateState(func(ds *DownloadState) {
					ds.Status = DownloadStatusRetrying
					ds.CookieBrowser = browser
					ds.Progress = 0
					ds.Message = fmt.Sprintf("Using cookies from %s...", browser)
				})
				d.publish(DownloadRetrying{downloadEvent{d}, browser})
			})
		case state == cookieAssistedRetry:
			return failed(ErrAntiBotRecoveryFailed, message, last.transcript)
		default:
			return failed(ErrToolInvocationFailed, message, last.transcript)
		}
	}

	if d.cancelRequested.IsSet() {
		return d.cancelled(files)
	}
	paths, err := reconcile(req, d.tool, files)
	if err != nil {
		return failed(ErrNoOutputFileFound, err.Error(), last.transcript)
	}
	// Elapsed time covers the whole run, even for each item of a playlist
	record := d.record(paths, time.Since(startedAt))
	if cfg.History != nil {
		if ok, err := cfg.History.Append(record); err != nil {
			d.log.Errorf("failed to save history: %v", err)
		} else if !ok {
			d.log.Warn("output files disappeared before history was saved")
		}
	}
	_ = notify.BestEffort(cfg.Notifier).Notify(d.workCtx, notify.FromRecord(record))
	d.log.Infof("complete: %v", paths)
	return &Result{Status: DownloadStatusComplete, Record: &record}
}

// attempt runs the downloader once, following its output until it exits or the download is cancelled.
func (d *Download) attempt(state attemptState, binary string, args []string, window playlist.Window, files *candidates) (*attemptOutcome, error) {
	log := d.log.With("attempt", state.String())
	out := &attemptOutcome{
		transcript: []string{"$ " + shellescape.QuoteCommand(append([]string{binary}, args...))},
	}
	if d.cancelRequested.IsSet() {
		out.cancelled = true
		return out, nil
	}

	log.Debugf("starting %s", binary)
	p, err := d.session.config.Runner.Start(d.workCtx, binary, args...)
	if err != nil {
		if d.cancelRequested.IsSet() {
			out.cancelled = true
			return out, nil
		}
		return nil, err
	}
	d.attach(p)
	defer d.attach(nil)

	limit := rate.Inf
	if interval := d.session.config.ProgressUpdateInterval; interval > 0 {
		limit = rate.Every(interval)
	}
	limiter := rate.NewLimiter(limit, 1)
	var item *progress.Item

	for line := range p.Lines() {
		out.transcript = append(out.transcript, line)
		if d.cancelRequested.IsSet() {
			out.cancelled = true
			_ = p.Terminate()
			break
		}

		itemStarted := false
		if it, ok := progress.ItemBoundary(line); ok {
			files.boundary()
			if window.TrustItemProgress {
				item = &it
				itemStarted = true
			}
		}
		sample := progress.Parse(line, item)
		if pct, ok := sample.Percent.Get(); itemStarted || (ok && (pct >= 100 || limiter.Allow())) {
			d.reportProgress(sample, item)
		}
		if a, ok := d.tool.Announce(line, d.request.Folder); ok {
			log.Debugf("announced: %s (final: %v)", a.Path, a.Final)
			files.add(a)
		}
		if progress.IsAntiBotChallenge(line) {
			out.antiBot = true
		}
	}
	// Keep reading until the output ends, so the process can never block writing it
	for range p.Lines() {
	}

	code, err := p.Wait()
	if err != nil {
		log.Warnf("failed waiting for downloader: %v", err)
		if code == 0 {
			code = -1
		}
	}
	log.Debugf("downloader exited with code %d", code)
	out.exitCode = code
	if d.cancelRequested.IsSet() {
		out.cancelled = true
	}
	return out, nil
}

func (d *Download) reportProgress(sample progress.Sample, item *progress.Item) {
	var it progress.Item
	if item != nil {
		it = *item
	}
	d.do(func() {
		d.updateState(func(ds *DownloadState) {
			ds.Progress = sample.Percent.UnwrapOr(0)
			ds.Message = sample.Message
			ds.Item = it
		})
		d.publish(DownloadProgress{downloadEvent{d}, sample, it})
	})
}

func (d *Download) cancelled(files *candidates) *Result {
	removed, err := files.remove()
	if len(removed) > 0 {
		d.log.Infof("removed %d files: %v", len(removed), removed)
	}
	if err != nil {
		d.log.Warnf("failed to remove some files: %v", err)
	}
	return &Result{Status: DownloadStatusCancelled}
}

// chooseBrowser picks whose cookies to retry with: the request's choice, else whatever the session's chooser says.
// An empty name means nobody chose.
func (d *Download) chooseBrowser() (string, error) {
	if d.request.CookieBrowser != "" {
		return d.request.CookieBrowser, nil
	}
	if d.session.config.ChooseBrowser == nil {
		return "", nil
	}
	return d.session.config.ChooseBrowser(d.workCtx, d.request.URL)
}

func (d *Download) newScratchDir() (*scratch.Dir, error) {
	opts := []scratch.Option{scratch.WithPattern("media-fetcher-cookies-*")}
	if dir := d.session.config.ScratchDir; dir != "" {
		opts = append(opts, scratch.WithBaseDir(dir))
	}
	return scratch.New(opts...)
}

func (d *Download) record(paths []string, elapsed time.Duration) history.Record {
	req := &d.request
	kind := req.Kind
	if kind == "" {
		kind = media_fetcher.StreamUnknown
		if req.SourceType() == media_fetcher.SourceSpotify {
			kind = media_fetcher.StreamAudioOnly
		}
	}
	now := history.Timestamp(time.Now())
	entries := make([]history.Entry, 0, len(paths))
	for _, path := range paths {
		title := util.TitleFromPath(path)
		if len(paths) == 1 && req.Title != "" && !req.Playlist.Mode.IsPlaylist() {
			title = req.Title
		}
		entries = append(entries, history.Entry{
			Title:     title,
			URL:       req.URL,
			FilePath:  path,
			Type:      string(req.SourceType()),
			Format:    string(kind),
			DateTime:  now,
			Elapsed:   elapsed.Seconds(),
			Thumbnail: req.Thumbnail,
		})
	}
	if len(entries) == 1 {
		return history.SingleRecord(entries[0])
	}
	return history.PlaylistRecord(entries)
}
