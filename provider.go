package media_fetcher

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/alanbriolat/media-fetcher/generic"
	"github.com/alanbriolat/media-fetcher/playlist"
)

var (
	ErrDuplicateProvider = errors.New("duplicate provider name")
	ErrInvalidProvider   = errors.New("invalid provider")
	ErrNoMatch           = errors.New("no provider matched the input")
	ErrUnknownProvider   = errors.New("unknown provider")
)

var (
	PriorityHighest int16 = math.MinInt16
	PriorityDefault int16 = 0
	PriorityLowest  int16 = math.MaxInt16
)

// An Announcement is a file path recognised in a line of tool output. Final announcements name the finished artifact
// and supersede any earlier ones.
type Announcement struct {
	Path  string
	Final bool
}

// A Tool wraps one external downloader: how to invoke it for a DownloadRequest, and how to read its output.
type Tool interface {
	// Name of the tool, also the key for its binary path in the configuration.
	Name() string
	// DefaultBinary is the executable looked up on PATH if no path is configured.
	DefaultBinary() string
	// Args builds the argument list for req. cookieFile is empty except on a cookie-assisted retry.
	Args(req *DownloadRequest, window playlist.Window, cookieFile string) []string
	// Announce recognises an output line naming a produced file.
	Announce(line string, folder string) (Announcement, bool)
	// FallbackExtensions restricts which files the newest-file fallback may pick; nil means any finished file.
	FallbackExtensions() []string
	// SupportsCookies reports whether an anti-bot challenge can be retried with browser cookies.
	SupportsCookies() bool
}

type MatchFunc = func(string) (Tool, error)

// A Provider matches any URL it knows how to handle, giving the Tool that should download it.
type Provider struct {
	Name  string
	Match MatchFunc
	// Priority of the matcher, lower (including negative) means matching earlier.
	Priority int16
}

func (p Provider) WithPriority(priority int16) Provider {
	p.Priority = priority
	return p
}

// A Match is the result of a Provider successfully matching a URL.
type Match struct {
	ProviderName string
	Tool         Tool
}

// A ProviderRegistry is a collection of Provider instances which can be used to try to match URLs.
type ProviderRegistry struct {
	providers   []*Provider
	providerMap map[string]*Provider
}

// Add registers a Provider with the ProviderRegistry. Provider.Name and Provider.Match must be set, and
// Provider.Name must be unique within the ProviderRegistry.
func (r *ProviderRegistry) Add(p Provider) error {
	if r.providerMap == nil {
		r.providerMap = make(map[string]*Provider)
	}
	if p.Name == "" || p.Match == nil {
		return ErrInvalidProvider
	}
	if _, ok := r.providerMap[p.Name]; ok {
		return ErrDuplicateProvider
	}
	r.providerMap[p.Name] = &p
	r.providers = append(r.providers, r.providerMap[p.Name])
	r.sortByPriority()
	return nil
}

// List returns the names of registered providers in priority order.
func (r *ProviderRegistry) List() []string {
	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		names = append(names, p.Name)
	}
	return names
}

// Match a URL against each Provider in priority order. If none match, the error aggregates every provider's reason.
func (r *ProviderRegistry) Match(s string) (*Match, error) {
	var result error
	for _, p := range r.providers {
		if tool, err := p.Match(s); tool != nil && err == nil {
			return &Match{ProviderName: p.Name, Tool: tool}, nil
		} else if err != nil {
			result = multierror.Append(result, multierror.Prefix(err, fmt.Sprintf("[%v]", p.Name)))
		}
	}
	if result == nil {
		return nil, ErrNoMatch
	}
	return nil, fmt.Errorf("%w: %v", ErrNoMatch, result)
}

// MatchWith will attempt to match a URL against a specific provider.
func (r *ProviderRegistry) MatchWith(name string, s string) (*Match, error) {
	if p, ok := r.providerMap[name]; ok {
		if tool, err := p.Match(s); tool != nil && err == nil {
			return &Match{ProviderName: p.Name, Tool: tool}, nil
		} else {
			return nil, ErrNoMatch
		}
	} else {
		return nil, ErrUnknownProvider
	}
}

// MustAdd wraps Add but panics if there is an error.
func (r *ProviderRegistry) MustAdd(p Provider) {
	generic.Unwrap_(r.Add(p))
}

func (r *ProviderRegistry) sortByPriority() {
	sort.SliceStable(r.providers, func(i, j int) bool {
		return r.providers[i].Priority < r.providers[j].Priority
	})
}

var DefaultProviderRegistry ProviderRegistry
