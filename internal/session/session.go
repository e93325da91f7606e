package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alanbriolat/media-fetcher"
	"github.com/alanbriolat/media-fetcher/async"
	"github.com/alanbriolat/media-fetcher/formats"
	"github.com/alanbriolat/media-fetcher/generic"
	"github.com/alanbriolat/media-fetcher/history"
	"github.com/alanbriolat/media-fetcher/internal/process"
	"github.com/alanbriolat/media-fetcher/internal/pubsub"
	"github.com/alanbriolat/media-fetcher/internal/sync_"
	"github.com/alanbriolat/media-fetcher/notify"
)

// BrowserChooser is asked which browser's cookies to retry with after the downloader is challenged as a bot. An empty
// name means no retry.
type BrowserChooser func(ctx context.Context, url string) (string, error)

type Config struct {
	ProviderRegistry *media_fetcher.ProviderRegistry
	Runner           process.Runner
	Tools            media_fetcher.ToolsConfig
	// Optional; completed downloads are not recorded if nil.
	History  history.Store
	Notifier notify.Notifier
	// Optional; without it, a bot challenge fails unless the request names a browser.
	ChooseBrowser BrowserChooser
	// Minimum interval between progress events, except for item starts and completion. Zero means no limit.
	ProgressUpdateInterval time.Duration
	// Where cookie jars are written (default: the system temporary directory).
	ScratchDir string
	// Proxy used for format queries.
	Proxy string
}

var DefaultConfig = Config{
	ProviderRegistry:       &media_fetcher.DefaultProviderRegistry,
	Runner:                 process.ExecRunner{},
	Notifier:               notify.Nop{},
	ProgressUpdateInterval: 500 * time.Millisecond,
}

type downloadsByID = map[DownloadID]*Download

type Session struct {
	config    Config
	ctx       context.Context
	ctxCancel context.CancelFunc
	log       *zap.SugaredLogger

	downloads *sync_.RWMutexed[downloadsByID]
	events    pubsub.Publisher[Event]
}

func New(config Config, ctx context.Context) (*Session, error) {
	if config.ProviderRegistry == nil {
		config.ProviderRegistry = DefaultConfig.ProviderRegistry
	}
	if config.Runner == nil {
		config.Runner = DefaultConfig.Runner
	}
	if config.Notifier == nil {
		config.Notifier = DefaultConfig.Notifier
	}
	if config.ProgressUpdateInterval < 0 {
		return nil, fmt.Errorf("negative progress update interval: %v", config.ProgressUpdateInterval)
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		config:    config,
		ctx:       ctx,
		ctxCancel: cancel,
		log:       zap.S().Named("session"),

		downloads: sync_.NewRWMutexed(make(downloadsByID)),
		events:    pubsub.NewPublisher[Event](),
	}
	return s, nil
}

func (s *Session) Subscribe() (pubsub.ReceiverCloser[Event], error) {
	return s.events.Subscribe()
}

// SubscribeDownload receives only the events of one download.
func (s *Session) SubscribeDownload(id DownloadID) (pubsub.ReceiverCloser[Event], error) {
	ch := pubsub.NewChannel[Event](pubsub.DefaultSubscriberBufSize)
	filtered := pubsub.NewFilteredSender[Event](ch, func(e Event) bool {
		d := e.Download()
		return d != nil && d.id == id
	})
	if err := s.events.AddSubscriber(filtered); err != nil {
		return nil, err
	}
	return ch, nil
}

// AddDownload validates req and matches it to a provider, creating a Download that is ready to Start.
func (s *Session) AddDownload(req media_fetcher.DownloadRequest) (*Download, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var match *media_fetcher.Match
	var err error
	if req.Provider != "" {
		match, err = s.config.ProviderRegistry.MatchWith(req.Provider, req.URL)
	} else {
		match, err = s.config.ProviderRegistry.Match(req.URL)
	}
	if err != nil {
		return nil, err
	}
	req.SubtitleLangs = append([]string(nil), req.SubtitleLangs...)
	req.DubLangs = append([]string(nil), req.DubLangs...)
	if req.Trim != nil {
		trim := *req.Trim
		req.Trim = &trim
	}

	d := newDownload(s, req, match)
	err = s.downloads.Locked(func(downloads *downloadsByID) error {
		if *downloads == nil {
			return ErrSessionClosed
		}
		(*downloads)[d.id] = d
		return nil
	})
	if err != nil {
		d.Close()
		return nil, err
	}
	d.log.Debugf("download added: %v (provider %s)", d, match.ProviderName)
	s.events.Send(DownloadAdded{downloadEvent{d}})
	return d, nil
}

func (s *Session) ListDownloads() []*Download {
	var list []*Download
	_ = s.downloads.RLocked(func(downloads *downloadsByID) error {
		list = make([]*Download, 0, len(*downloads))
		for _, d := range *downloads {
			list = append(list, d)
		}
		return nil
	})
	return list
}

func (s *Session) GetDownload(id DownloadID) (d *Download) {
	_ = s.downloads.RLocked(func(downloads *downloadsByID) error {
		d = (*downloads)[id]
		return nil
	})
	return d
}

// FetchFormats queries the formats of url in the background. The result is also published as a FormatsFetched event.
func (s *Session) FetchFormats(ctx context.Context, url string) <-chan generic.Result[*formats.Info] {
	e := &formats.Enumerator{
		Runner: s.config.Runner,
		Binary: s.config.Tools.Binary("yt-dlp", formats.DefaultBinary),
		Proxy:  s.config.Proxy,
	}
	return async.RunResult(func() (*formats.Info, error) {
		info, err := e.Fetch(ctx, url)
		if err != nil {
			s.log.Warnf("failed to fetch formats for %s: %v", url, err)
		}
		s.events.Send(FormatsFetched{URL: url, Info: info, Err: err})
		return info, err
	})
}

// Close cancels every download, waits for them to clean up, and closes all subscriptions.
func (s *Session) Close() {
	s.ctxCancel()
	downloads := s.downloads.Swap(nil)
	var wg sync.WaitGroup
	wg.Add(len(downloads))
	for _, d := range downloads {
		go func(d *Download) {
			d.Close()
			wg.Done()
		}(d)
	}
	wg.Wait()
	s.events.Close()
}
