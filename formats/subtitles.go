package formats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alanbriolat/media-fetcher"
	"github.com/alanbriolat/media-fetcher/generic"
)

func subtitleExts(tracks []rawSubtitle) []string {
	exts := generic.NewSet[string]()
	for _, t := range tracks {
		if t.Ext == "" {
			exts.Add("unknown")
		} else {
			exts.Add(t.Ext)
		}
	}
	list := exts.ToSlice()
	sort.Strings(list)
	return list
}

func newSubtitle(code string, auto bool, tracks []rawSubtitle) Subtitle {
	s := Subtitle{
		Code: code,
		Name: LanguageName(code),
		Auto: auto,
		Exts: subtitleExts(tracks),
	}
	origin := "manual"
	if auto {
		origin = "auto-generated"
	}
	s.Label = fmt.Sprintf("%s (%s)", s.Name, origin)
	if len(s.Exts) > 0 {
		s.Label += fmt.Sprintf(" [%s]", strings.Join(s.Exts, ", "))
	}
	return s
}

// mergeSubtitles combines manual subtitles and automatic captions, preferring the manual track for a language that
// has both. A language listed without any tracks is not offered.
func mergeSubtitles(manual, auto map[string][]rawSubtitle) []Subtitle {
	seen := generic.NewSet[string]()
	var subs []Subtitle
	for code, tracks := range manual {
		if len(tracks) == 0 {
			continue
		}
		seen.Add(code)
		subs = append(subs, newSubtitle(code, false, tracks))
	}
	for code, tracks := range auto {
		if len(tracks) == 0 || seen.Contains(code) {
			continue
		}
		seen.Add(code)
		subs = append(subs, newSubtitle(code, true, tracks))
	}
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].Auto != subs[j].Auto {
			return !subs[i].Auto
		}
		if subs[i].Name != subs[j].Name {
			return subs[i].Name < subs[j].Name
		}
		return subs[i].Code < subs[j].Code
	})
	return subs
}

// collectDubs lists the distinct languages of audio-only formats.
func collectDubs(formats []rawFormat) []Dub {
	seen := generic.NewSet[string]()
	var dubs []Dub
	for _, f := range formats {
		lang := deref(f.Language)
		if lang == "" || lang == "none" || seen.Contains(lang) {
			continue
		}
		if media_fetcher.ClassifyStream(deref(f.VCodec), deref(f.ACodec)) != media_fetcher.StreamAudioOnly {
			continue
		}
		seen.Add(lang)
		dubs = append(dubs, Dub{Code: lang, Name: LanguageName(lang)})
	}
	sort.Slice(dubs, func(i, j int) bool {
		if dubs[i].Name != dubs[j].Name {
			return dubs[i].Name < dubs[j].Name
		}
		return dubs[i].Code < dubs[j].Code
	})
	return dubs
}
