package progress

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	itemBoundaryPattern = regexp.MustCompile(`\[download\] Downloading (?:video|item) (\d+) of (\d+)`)
	mergeTargetPattern  = regexp.MustCompile(`\[Merger\] Merging formats into "(.+)"`)
	savedPattern        = regexp.MustCompile(`(?:Saved|Downloaded):\s*(.+)$`)
	antiBotSignatures   = []string{"confirm you are not a robot", "captcha"}
)

// ItemBoundary matches the line announcing the start of playlist item N of M.
func ItemBoundary(line string) (Item, bool) {
	m := itemBoundaryPattern.FindStringSubmatch(line)
	if m == nil {
		return Item{}, false
	}
	current, err := strconv.Atoi(m[1])
	if err != nil {
		return Item{}, false
	}
	total, err := strconv.Atoi(m[2])
	if err != nil {
		return Item{}, false
	}
	return Item{Current: current, Total: total}, true
}

// Destination matches an explicit output-file announcement, returning the announced path as written by the tool.
func Destination(line string) (string, bool) {
	idx := strings.LastIndex(line, "Destination:")
	if idx < 0 {
		return "", false
	}
	path := strings.TrimSpace(line[idx+len("Destination:"):])
	return path, path != ""
}

// MergeTarget matches the post-processing announcement naming the final muxed file.
func MergeTarget(line string) (string, bool) {
	m := mergeTargetPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// SavedPath matches the music downloader's announcement of a finished file.
func SavedPath(line string) (string, bool) {
	m := savedPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", false
	}
	path := strings.Trim(strings.TrimSpace(m[1]), `"`)
	return path, path != ""
}

// IsAntiBotChallenge reports whether a line shows that the site demanded bot verification.
func IsAntiBotChallenge(line string) bool {
	lower := strings.ToLower(line)
	for _, sig := range antiBotSignatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}

var alreadyDownloadedPattern = regexp.MustCompile(`\[download\] (.+) has already been downloaded`)

// AlreadyDownloaded matches the notice that an output file existed before the run, which still counts as the result.
func AlreadyDownloaded(line string) (string, bool) {
	m := alreadyDownloadedPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}
