package media_fetcher

import (
	"errors"
	"strings"
	"testing"

	assert_ "github.com/stretchr/testify/assert"

	"github.com/alanbriolat/media-fetcher/playlist"
)

type stubTool struct {
	name string
}

func (s stubTool) Name() string          { return s.name }
func (s stubTool) DefaultBinary() string { return s.name }
func (s stubTool) Args(*DownloadRequest, playlist.Window, string) []string {
	return nil
}
func (s stubTool) Announce(string, string) (Announcement, bool) { return Announcement{}, false }
func (s stubTool) FallbackExtensions() []string                 { return nil }
func (s stubTool) SupportsCookies() bool                        { return false }

func prefixMatcher(prefix string, name string) MatchFunc {
	return func(s string) (Tool, error) {
		if strings.HasPrefix(s, prefix) {
			return stubTool{name: name}, nil
		}
		return nil, errors.New("wrong prefix")
	}
}

func TestProviderRegistry(t *testing.T) {
	assert := assert_.New(t)
	var r ProviderRegistry

	assert.ErrorIs(r.Add(Provider{Name: "broken"}), ErrInvalidProvider)
	assert.NoError(r.Add(Provider{Name: "generic", Match: prefixMatcher("http", "generic"), Priority: PriorityLowest}))
	assert.NoError(r.Add(Provider{Name: "special", Match: prefixMatcher("https://special", "special")}))
	assert.ErrorIs(r.Add(Provider{Name: "special", Match: prefixMatcher("x", "x")}), ErrDuplicateProvider)
	assert.Equal([]string{"special", "generic"}, r.List())

	m, err := r.Match("https://special/thing")
	assert.NoError(err)
	assert.Equal("special", m.ProviderName)
	assert.Equal("special", m.Tool.Name())

	m, err = r.Match("https://other/thing")
	assert.NoError(err)
	assert.Equal("generic", m.ProviderName)

	_, err = r.Match("ftp://nothing")
	assert.ErrorIs(err, ErrNoMatch)
	assert.Contains(err.Error(), "[special]")
	assert.Contains(err.Error(), "[generic]")

	_, err = r.MatchWith("special", "https://other/thing")
	assert.ErrorIs(err, ErrNoMatch)
	_, err = r.MatchWith("missing", "https://other/thing")
	assert.ErrorIs(err, ErrUnknownProvider)
	m, err = r.MatchWith("generic", "https://special/thing")
	assert.NoError(err)
	assert.Equal("generic", m.ProviderName)
}

func TestProviderRegistry_MustAdd(t *testing.T) {
	assert := assert_.New(t)
	var r ProviderRegistry
	r.MustAdd(Provider{Name: "first", Match: prefixMatcher("a", "a")}.WithPriority(PriorityHighest))
	assert.Equal([]string{"first"}, r.List())
	assert.Panics(func() {
		r.MustAdd(Provider{Name: "first", Match: prefixMatcher("a", "a")})
	})
}
