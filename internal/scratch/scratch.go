// Package scratch manages short-lived working directories, such as the one holding an exported cookie jar for the
// duration of a retry.
package scratch

import (
	"os"

	"go.uber.org/zap"
)

type config struct {
	baseDir string
	pattern string
}

type Option func(*config)

// WithBaseDir sets the directory the scratch directory is created in (default: os.TempDir()).
func WithBaseDir(dir string) Option {
	return func(c *config) {
		c.baseDir = dir
	}
}

// WithPattern sets the os.MkdirTemp pattern for the directory name.
func WithPattern(pattern string) Option {
	return func(c *config) {
		c.pattern = pattern
	}
}

type Dir struct {
	path string
}

// New creates a scratch directory; the caller must Close it.
func New(opts ...Option) (*Dir, error) {
	c := config{
		baseDir: os.TempDir(),
		pattern: "media-fetcher-*",
	}
	for _, opt := range opts {
		opt(&c)
	}
	if err := os.MkdirAll(c.baseDir, 0755); err != nil {
		return nil, err
	}
	path, err := os.MkdirTemp(c.baseDir, c.pattern)
	if err != nil {
		return nil, err
	}
	return &Dir{path: path}, nil
}

func (d *Dir) Path() string {
	return d.path
}

// Close removes the directory and everything in it.
func (d *Dir) Close() {
	if err := os.RemoveAll(d.path); err != nil {
		zap.S().Named("scratch").Warnf("failed to clean up %s: %v", d.path, err)
	}
}
