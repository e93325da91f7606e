package util

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/kkdai/youtube/v2"
)

var (
	ErrNoVideoID = errors.New("cannot extract video ID")
)

// IsSpotifyURL reports whether the URL should be handed to the music downloader rather than the video downloader.
func IsSpotifyURL(s string) bool {
	return strings.Contains(s, "spotify.com")
}

// IsPlaylistURL is a cheap guess at whether a URL names a playlist, without asking any external tool.
func IsPlaylistURL(s string) bool {
	return strings.Contains(s, "playlist") || strings.Contains(s, "list=")
}

// IsHTTPURL reports whether s parses as an absolute http(s) URL.
func IsHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// WatchURL builds the canonical single-video URL for a YouTube video ID or any URL that contains one.
func WatchURL(idOrURL string) (string, error) {
	if idOrURL == "" {
		return "", ErrNoVideoID
	}
	id, err := youtube.ExtractVideoID(idOrURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoVideoID, err)
	}
	return "https://www.youtube.com/watch?v=" + id, nil
}
