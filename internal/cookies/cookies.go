// Package cookies exports a browser's cookies to a Netscape cookie jar file that the video downloader can be given on
// a retry, after it has been challenged as a suspected bot.
package cookies

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/alanbriolat/media-fetcher/generic"
	"github.com/alanbriolat/media-fetcher/internal/process"
	"github.com/alanbriolat/media-fetcher/internal/scratch"
)

const (
	DefaultBinary = "yt-dlp"
	jarName       = "cookies.txt"
)

var (
	ErrUnsupportedBrowser = errors.New("unsupported browser")
	ErrExportFailed       = errors.New("cookie export failed")
)

var supportedBrowsers = generic.NewSet("chrome", "edge", "firefox", "brave", "chromium", "opera", "safari", "vivaldi")

// Browsers offered to the user first, in order.
var PreferredBrowsers = []string{"chrome", "edge", "firefox", "brave"}

// SupportedBrowsers lists every browser that cookies can be read from, sorted.
func SupportedBrowsers() []string {
	list := supportedBrowsers.ToSlice()
	sort.Strings(list)
	return list
}

// NormalizeBrowser maps a browser name such as "Chrome" to the form the downloader expects.
func NormalizeBrowser(name string) (string, error) {
	browser := strings.ToLower(strings.TrimSpace(name))
	if !supportedBrowsers.Contains(browser) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedBrowser, name)
	}
	return browser, nil
}

type Exporter struct {
	Runner process.Runner
	// Video downloader executable; DefaultBinary if empty.
	Binary string
	Proxy  string
}

// Export reads the cookies of browser and writes them to a jar in dir, returning its path. The downloader is asked to
// visit url without downloading, which is enough for it to dump the jar; the export counts as successful whenever a
// non-empty jar results, whatever the exit code.
func (e *Exporter) Export(ctx context.Context, browser string, dir *scratch.Dir, url string) (string, error) {
	browser, err := NormalizeBrowser(browser)
	if err != nil {
		return "", err
	}
	log := zap.S().Named("cookies").With("browser", browser)
	runner := e.Runner
	if runner == nil {
		runner = process.ExecRunner{}
	}
	binary := e.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	jar := filepath.Join(dir.Path(), jarName)
	args := []string{"--cookies-from-browser", browser, "--cookies", jar, "--skip-download", "--no-warnings"}
	if e.Proxy != "" {
		args = append(args, "--proxy", e.Proxy)
	}
	args = append(args, "--", url)

	stdout, stderr, code, err := runner.Output(ctx, binary, args...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	ok, err := hasCookies(jar)
	if err != nil || !ok {
		output := strings.TrimSpace(string(stderr))
		if output == "" {
			output = strings.TrimSpace(string(stdout))
		}
		return "", fmt.Errorf("%w: no cookies read from %s (exit code %d): %s", ErrExportFailed, browser, code, output)
	}
	if code != 0 {
		log.Debugf("exporter exited with code %d, but produced a cookie jar", code)
	}
	log.Infof("exported cookies to %s", jar)
	return jar, nil
}

// hasCookies reports whether a Netscape cookie jar contains at least one cookie line.
func hasCookies(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "#HttpOnly_") {
			continue
		}
		return true, nil
	}
	return false, scanner.Err()
}
