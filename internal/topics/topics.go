// Package topics mines frequency tables (hashtags, keywords, sounds, mentions)
// and structural content patterns from normalized content items.
//
// Counting is order-independent: the same items in any order produce the same
// (term, count) pairs. Ranking is by descending count; equal counts keep the
// order in which terms were first seen.
package topics

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/rewired-gh/outlierscope/internal/models"
)

// Default result sizes.
const (
	DefaultTopHashtags = 20
	DefaultTopKeywords = 30
	DefaultTopSounds   = 10
	DefaultTopMentions = 20
)

var (
	urlPattern     = regexp.MustCompile(`[A-Za-z][A-Za-z0-9+.-]*://\S+`)
	hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
	mentionPattern = regexp.MustCompile(`@([\p{L}\p{N}_]+)`)
	tokenPattern   = regexp.MustCompile(`[@#][\p{L}\p{N}_]+`)
	keywordPattern = regexp.MustCompile(`[A-Za-z]{4,}`)
)

// Options selects the platform extras and result sizes. Zero sizes use the
// package defaults.
type Options struct {
	Sounds      bool
	Mentions    bool
	TopHashtags int
	TopKeywords int
	TopSounds   int
	TopMentions int
}

func (o Options) withDefaults() Options {
	if o.TopHashtags <= 0 {
		o.TopHashtags = DefaultTopHashtags
	}
	if o.TopKeywords <= 0 {
		o.TopKeywords = DefaultTopKeywords
	}
	if o.TopSounds <= 0 {
		o.TopSounds = DefaultTopSounds
	}
	if o.TopMentions <= 0 {
		o.TopMentions = DefaultTopMentions
	}
	return o
}

// Extract counts topics over items.
func Extract(items []models.ContentItem, opts Options) models.TopicSummary {
	opts = opts.withDefaults()
	fold := cases.Fold()

	hashtags := newCounter()
	keywords := newCounter()
	sounds := newCounter()
	mentions := newCounter()

	for i := range items {
		item := &items[i]

		for _, tc := range Hashtags(item) {
			hashtags.add(tc.Term, tc.Count)
		}
		for _, w := range Keywords(item.Text) {
			keywords.add(w, 1)
		}
		if opts.Sounds {
			sounds.add(strings.TrimSpace(item.Sound), 1)
		}
		if opts.Mentions {
			for _, m := range mentionPattern.FindAllStringSubmatch(item.Text, -1) {
				mentions.add(fold.String(m[1]), 1)
			}
		}
	}

	summary := models.TopicSummary{
		Hashtags: hashtags.top(opts.TopHashtags),
		Keywords: keywords.top(opts.TopKeywords),
	}
	if opts.Sounds {
		summary.Sounds = sounds.top(opts.TopSounds)
	}
	if opts.Mentions {
		summary.Mentions = mentions.top(opts.TopMentions)
	}
	return summary
}

// Hashtags returns the hashtag counts of one item, in first-seen order. The
// explicit hashtag list and the tags scanned from the text are merged as a
// multiset union: each tag counts as often as it occurs in whichever source
// holds it more often.
func Hashtags(item *models.ContentItem) []models.TermCount {
	fold := cases.Fold()

	explicit := newCounter()
	for _, tag := range item.Hashtags {
		explicit.add(fold.String(strings.TrimPrefix(strings.TrimSpace(tag), "#")), 1)
	}
	scanned := newCounter()
	for _, m := range hashtagPattern.FindAllStringSubmatch(item.Text, -1) {
		scanned.add(fold.String(m[1]), 1)
	}

	union := newCounter()
	for _, src := range [2]*counter{explicit, scanned} {
		for _, tc := range src.terms {
			if _, seen := union.index[tc.Term]; seen {
				continue
			}
			n := explicit.count(tc.Term)
			if s := scanned.count(tc.Term); s > n {
				n = s
			}
			union.add(tc.Term, n)
		}
	}
	return union.terms
}

// Keywords returns the non-stop-word keywords of text, lower-cased, in order of
// appearance. URLs, mentions and hashtags are removed first.
func Keywords(text string) []string {
	clean := urlPattern.ReplaceAllString(text, " ")
	clean = tokenPattern.ReplaceAllString(clean, " ")

	var out []string
	for _, w := range keywordPattern.FindAllString(clean, -1) {
		w = strings.ToLower(w)
		if IsStopWord(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// StripURLs removes every URL from text.
func StripURLs(text string) string {
	return urlPattern.ReplaceAllString(text, "")
}
