// Package providers registers every built-in downloader with media_fetcher.DefaultProviderRegistry; import it for its
// side effects.
package providers

import (
	_ "github.com/alanbriolat/media-fetcher/providers/spotdl"
	_ "github.com/alanbriolat/media-fetcher/providers/ytdlp"
)
