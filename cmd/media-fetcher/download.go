package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/r3labs/diff/v3"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"github.com/alanbriolat/media-fetcher"
	"github.com/alanbriolat/media-fetcher/async"
	"github.com/alanbriolat/media-fetcher/formats"
	"github.com/alanbriolat/media-fetcher/internal/cookies"
	"github.com/alanbriolat/media-fetcher/internal/session"
	"github.com/alanbriolat/media-fetcher/notify"
	"github.com/alanbriolat/media-fetcher/playlist"
	"github.com/alanbriolat/media-fetcher/util"
)

var ErrInterrupted = errors.New("interrupted")

func downloadCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "download",
		Usage:     "download a video, playlist or Spotify track",
		ArgsUsage: "URL",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "format `ID` from the formats command (default: best)"},
			&cli.StringFlag{Name: "kind", Usage: "stream kind of the format: av, video or audio (default: looked up)"},
			&cli.StringSliceFlag{Name: "subs", Usage: "subtitle `LANG`s to download"},
			&cli.BoolFlag{Name: "embed-subs", Usage: "embed subtitles into the video, if its container allows"},
			&cli.StringSliceFlag{Name: "dubs", Usage: "additional audio `LANG`s to include"},
			&cli.StringFlag{Name: "playlist", Usage: "playlist `MODE`: all, range or single"},
			&cli.IntFlag{Name: "start", Usage: "first playlist item of a range (1-based)"},
			&cli.IntFlag{Name: "end", Usage: "last playlist item of a range"},
			&cli.IntFlag{Name: "index", Usage: "playlist item for single mode"},
			&cli.StringFlag{Name: "trim-start", Usage: "only download from `TIME`, e.g. 1:30"},
			&cli.StringFlag{Name: "trim-end", Usage: "only download until `TIME`"},
			&cli.StringFlag{Name: "proxy", Usage: "use proxy `URL` (default: from config)"},
			&cli.StringFlag{Name: "target", Usage: "save downloads to `DIR` (default: from config)"},
			&cli.StringFlag{Name: "browser", Usage: "use cookies from `BROWSER` if the site asks for verification"},
			&cli.StringFlag{Name: "title", Usage: "title to record in the history (default: looked up)"},
			&cli.StringFlag{Name: "tool", Usage: "download with `TOOL` (yt-dlp or spotdl) instead of choosing by URL"},
		},
		Action: func(c *cli.Context) error {
			source, err := sourceArg(c)
			if err != nil {
				return err
			}
			req, err := e.buildRequest(c, source)
			if err != nil {
				return err
			}
			return e.download(req)
		},
	}
}

func (e *env) buildRequest(c *cli.Context, source string) (media_fetcher.DownloadRequest, error) {
	req := media_fetcher.DownloadRequest{
		URL:            source,
		Folder:         e.config.DownloadFolder,
		Format:         c.String("format"),
		SubtitleLangs:  c.StringSlice("subs"),
		EmbedSubtitles: c.Bool("embed-subs"),
		DubLangs:       c.StringSlice("dubs"),
		Proxy:          e.config.Proxy,
		Title:          c.String("title"),
		CookieBrowser:  e.config.CookieBrowser,
		Provider:       c.String("tool"),
	}
	if c.IsSet("target") {
		req.Folder = c.String("target")
	}
	if c.IsSet("proxy") {
		req.Proxy = c.String("proxy")
	}
	if c.IsSet("browser") {
		req.CookieBrowser = c.String("browser")
	}
	if req.CookieBrowser != "" {
		if _, err := cookies.NormalizeBrowser(req.CookieBrowser); err != nil {
			return req, err
		}
	}
	if c.IsSet("kind") {
		kind, err := media_fetcher.ParseStreamKind(c.String("kind"))
		if err != nil {
			return req, err
		}
		req.Kind = kind
	}
	mode, err := playlist.ParseMode(c.String("playlist"))
	if err != nil {
		return req, err
	}
	req.Playlist = playlist.Selection{Mode: mode, Start: c.Int("start"), End: c.Int("end"), Index: c.Int("index")}
	if c.IsSet("trim-start") || c.IsSet("trim-end") {
		req.Trim = &media_fetcher.Trim{Start: c.String("trim-start"), End: c.String("trim-end")}
	}
	if req.Title == "" || (req.Kind == "" && req.Format != "") || mode.IsPlaylist() || util.IsPlaylistURL(req.URL) {
		e.describe(&req)
	}
	return req, nil
}

// describe fills in what the metadata query knows and the user didn't say. Failure only loses the extra detail.
func (e *env) describe(req *media_fetcher.DownloadRequest) {
	log := e.logger()
	enumerator := &formats.Enumerator{
		Binary: e.config.Binary("yt-dlp", formats.DefaultBinary),
		Proxy:  req.Proxy,
	}
	info, err := enumerator.Fetch(e.ctx, req.URL)
	if err != nil {
		log.Warnf("could not look up %s: %v", req.URL, err)
		return
	}
	if req.Title == "" {
		req.Title = info.Title
	}
	if req.Thumbnail == "" {
		req.Thumbnail = info.Thumbnail
	}
	if f, ok := info.FindFormat(req.Format); ok && req.Kind == "" {
		req.Kind = f.Kind
	}
	if info.IsPlaylist {
		req.PlaylistTotal = len(info.Entries)
	}
}

func (e *env) newSession() (*session.Session, error) {
	store, err := e.openHistory()
	if err != nil {
		return nil, err
	}
	notifier, err := notify.FromConfig(e.config.Notifications)
	if err != nil {
		store.Close()
		return nil, err
	}
	cfg := session.DefaultConfig
	cfg.Tools = e.config.Tools
	cfg.History = store
	cfg.Notifier = notifier
	cfg.ChooseBrowser = e.chooseBrowser
	cfg.ProgressUpdateInterval = e.config.ProgressInterval.Duration()
	cfg.Proxy = e.config.Proxy
	return session.New(cfg, e.ctx)
}

func (e *env) listFormats(source string) error {
	ses, err := e.newSession()
	if err != nil {
		return err
	}
	defer ses.Close()

	info, err := (<-ses.FetchFormats(e.ctx, source)).Parts()
	if err != nil {
		return err
	}
	fmt.Println(info.Title)
	if info.Channel != "" || info.Duration != "" {
		fmt.Printf("%s  %s\n", info.Channel, info.Duration)
	}
	if info.IsPlaylist {
		fmt.Printf("\nPlaylist (%d items):\n", len(info.Entries))
		for i, entry := range info.Entries {
			fmt.Printf("  %3d  %s\n", i+1, entry.Title)
		}
		fmt.Println("\nFormats of the first item:")
	} else {
		fmt.Println("\nFormats:")
	}
	for _, f := range info.Formats {
		fmt.Printf("  %-8s %s\n", f.ID, f.Label)
	}
	if len(info.Subtitles) > 0 {
		fmt.Println("\nSubtitles:")
		for _, s := range info.Subtitles {
			fmt.Printf("  %-8s %s\n", s.Code, s.Label)
		}
	}
	if len(info.Dubs) > 0 {
		fmt.Println("\nDubs:")
		for _, d := range info.Dubs {
			fmt.Printf("  %-8s %s\n", d.Code, d.Name)
		}
	}
	return nil
}

func (e *env) download(req media_fetcher.DownloadRequest) error {
	log := e.logger()
	log.Infof("Downloading from %s into %s", req.URL, req.Folder)

	ses, err := e.newSession()
	if err != nil {
		return err
	}
	defer ses.Close()

	dl, err := ses.AddDownload(req)
	if err != nil {
		return err
	}
	events, err := dl.Subscribe()
	if err != nil {
		return err
	}
	bar := progressbar.Default(100, "starting")
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for event := range events.Receive() {
			switch ev := event.(type) {
			case session.DownloadProgress:
				bar.Describe(ev.Sample.Message)
				if pct, ok := ev.Sample.Percent.Get(); ok {
					_ = bar.Set(pct)
				}
			case session.DownloadRetrying:
				log.Warnf("site asked for verification, retrying with cookies from %s", ev.Browser)
				bar.Reset()
			case session.DownloadUpdated:
				if e.debug {
					logStateChanges(ev)
				}
			}
		}
	}()

	dl.Start()
	select {
	case <-dl.Done():
	case <-e.ctx.Done():
		log.Info("Cancelling download...")
		dl.Cancel()
		<-dl.Done()
	}
	result := dl.Result()
	_ = bar.Finish()
	// Closing the session ends the subscription
	ses.Close()
	wg.Wait()
	fmt.Fprintln(os.Stderr)

	switch result.Status {
	case session.DownloadStatusComplete:
		log.Info("Download complete")
		for _, path := range result.Paths() {
			fmt.Println(path)
		}
		return nil
	case session.DownloadStatusCancelled:
		return ErrInterrupted
	default:
		var derr *session.DownloadError
		if errors.As(result.Err, &derr) && len(derr.Transcript) > 0 {
			fmt.Fprintln(os.Stderr, derr.TranscriptText())
		}
		return result.Err
	}
}

func logStateChanges(e session.DownloadUpdated) {
	logger := e.Download().Logger()
	changes, err := diff.Diff(e.OldState, e.NewState)
	if err != nil {
		logger.Errorf("failed to diff old and new download state: %v", err)
		return
	}
	for _, change := range changes {
		logger.Debugf("%v: %#v -> %#v", change.Path, change.From, change.To)
	}
}

// chooseBrowser asks on the terminal whose cookies to retry with.
func (e *env) chooseBrowser(ctx context.Context, url string) (string, error) {
	fmt.Fprintf(os.Stderr, "\n%s asked to verify you are not a bot.\n", url)
	fmt.Fprintf(os.Stderr, "Retry with cookies from which browser? [%s] (empty to give up): ",
		strings.Join(cookies.PreferredBrowsers, ", "))
	answer := async.Run(func() string {
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		return strings.TrimSpace(line)
	})
	select {
	case browser := <-answer:
		if browser == "" {
			return "", nil
		}
		return cookies.NormalizeBrowser(browser)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
