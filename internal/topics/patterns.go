package topics

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rewired-gh/outlierscope/internal/models"
)

// Length bucket bounds in characters, measured after URL removal.
const (
	ShortMaxLen  = 100
	MediumMaxLen = 200
)

const threadGlyph = "\U0001F9F5"

// threadMarker is the "/1" numbering of a thread's first post.
const threadMarker = "/1"

var listPattern = regexp.MustCompile(`(?m)^\s*(?:\d+[.)]|[-•*])\s`)

// Patterns computes structural attributes over a set of (usually outlier)
// items. Percentages are relative to max(1, len(items)).
func Patterns(items []models.ContentItem) models.ContentPatterns {
	var media, url, thread, quote, question, list, short, medium, long int

	for i := range items {
		item := &items[i]
		text := item.Text
		clean := strings.TrimSpace(StripURLs(text))

		if len(item.MediaURLs) > 0 {
			media++
		}
		if urlPattern.MatchString(text) {
			url++
		}
		if IsThread(text) {
			thread++
		}
		if item.IsQuote {
			quote++
		}
		if strings.Contains(text, "?") {
			question++
		}
		if listPattern.MatchString(text) {
			list++
		}

		switch n := utf8.RuneCountInString(clean); {
		case n < ShortMaxLen:
			short++
		case n < MediumMaxLen:
			medium++
		default:
			long++
		}
	}

	denom := len(items)
	if denom < 1 {
		denom = 1
	}
	stat := func(count int) models.PatternStat {
		return models.PatternStat{Count: count, Pct: math.Round(1000*float64(count)/float64(denom)) / 10}
	}

	return models.ContentPatterns{
		Total:    len(items),
		HasMedia: stat(media),
		HasURL:   stat(url),
		Thread:   stat(thread),
		Quote:    stat(quote),
		Question: stat(question),
		List:     stat(list),
		Short:    stat(short),
		Medium:   stat(medium),
		Long:     stat(long),
	}
}

// IsThread reports whether text carries a thread marker: the thread glyph, the
// word "thread" in any case, or a "/1" marker outside of URLs.
func IsThread(text string) bool {
	if strings.Contains(text, threadGlyph) {
		return true
	}
	if strings.Contains(strings.ToLower(text), "thread") {
		return true
	}
	return strings.Contains(StripURLs(text), threadMarker)
}
