// Package progress recovers structured state from the human-readable output of the external downloaders.
//
// Everything here is a pure function of a single output line, so the orchestration code never has to match strings
// itself.
package progress

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/alanbriolat/media-fetcher/generic"
)

const DefaultMessage = "Downloading..."

var (
	percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)
	speedPattern   = regexp.MustCompile(`at ([\d.]+[KMG]?i?B/s)`)
	etaPattern     = regexp.MustCompile(`ETA (\d{2}:\d{2}(?::\d{2})?)`)
)

// Item identifies which item of a multi-item (playlist) download a line belongs to.
type Item struct {
	Current int
	Total   int
}

func (i *Item) valid() bool {
	return i != nil && i.Current > 0 && i.Total > 0
}

func (i Item) String() string {
	return fmt.Sprintf("Item %d/%d", i.Current, i.Total)
}

// Sample is what could be recovered from one line of output. Percent is None when the line carried no percentage,
// which means "no progress update" and not 0%.
type Sample struct {
	Percent generic.Option[int]
	Speed   string
	ETA     string
	Message string
}

// Parse extracts percent, speed and ETA from a line of downloader output and composes a status message. item may be
// nil when no playlist item context has been established.
func Parse(line string, item *Item) Sample {
	var sample Sample
	if m := percentPattern.FindStringSubmatch(line); m != nil {
		if pct, err := strconv.ParseFloat(m[1], 64); err == nil {
			sample.Percent = generic.Some(clampPercent(pct))
		}
	}
	if m := speedPattern.FindStringSubmatch(line); m != nil {
		sample.Speed = m[1]
	}
	if m := etaPattern.FindStringSubmatch(line); m != nil {
		sample.ETA = m[1]
	}
	sample.Message = compose(sample, item)
	return sample
}

func clampPercent(pct float64) int {
	return int(math.Floor(math.Max(0, math.Min(100, pct))))
}

func compose(sample Sample, item *Item) string {
	parts := make([]string, 0, 4)
	if item.valid() {
		parts = append(parts, item.String())
	} else {
		parts = append(parts, DefaultMessage)
	}
	if pct, ok := sample.Percent.Get(); ok {
		parts = append(parts, fmt.Sprintf("%d%%", pct))
	}
	if sample.Speed != "" {
		parts = append(parts, sample.Speed)
	}
	if sample.ETA != "" {
		parts = append(parts, "ETA "+sample.ETA)
	}
	return strings.Join(parts, " | ")
}
