package normalize

import (
	"strings"

	"github.com/rewired-gh/outlierscope/internal/models"
)

// FieldMap lists the ordered candidate source fields of every canonical field.
type FieldMap struct {
	ID              []string                        `yaml:"id"`
	URL             []string                        `yaml:"url"`
	Text            []string                        `yaml:"text"`
	CreatedAt       []string                        `yaml:"created_at"`
	AuthorUsername  []string                        `yaml:"author_username"`
	AuthorFollowers []string                        `yaml:"author_followers"`
	AuthorVerified  []string                        `yaml:"author_verified"`
	Metrics         map[models.Interaction][]string `yaml:"metrics"`
	Hashtags        []string                        `yaml:"hashtags"`
	MediaURLs       []string                        `yaml:"media_urls"`
	VideoURL        []string                        `yaml:"video_url"`
	Sound           []string                        `yaml:"sound"`
	Quote           []string                        `yaml:"quote"`
}

// VideoRule decides whether a record is a playable video. A record is a video
// when its video URL resolved, when any flag field is true, or when a type field
// equals one of TypeValues (case-insensitive).
type VideoRule struct {
	Flags      []string `yaml:"flags"`
	TypeFields []string `yaml:"type_fields"`
	TypeValues []string `yaml:"type_values"`
}

// Keys tried on array-of-object hashtag and media lists.
var (
	hashtagObjectKeys = []string{"name", "text", "tag", "title"}
	mediaObjectKeys   = []string{"media_url_https", "url", "displayUrl", "display_url", "src"}
)

// Canonical is the field map of the tool's own output shape. It is appended to
// every platform map so written outliers normalize back to the same items.
var Canonical = FieldMap{
	ID:              []string{"id"},
	URL:             []string{"url"},
	Text:            []string{"text"},
	CreatedAt:       []string{"created_at"},
	AuthorUsername:  []string{"author.username"},
	AuthorFollowers: []string{"author.followers"},
	AuthorVerified:  []string{"author.verified"},
	Metrics: map[models.Interaction][]string{
		models.Likes:     {"metrics.likes"},
		models.Comments:  {"metrics.comments"},
		models.Shares:    {"metrics.shares"},
		models.Saves:     {"metrics.saves"},
		models.Views:     {"metrics.views"},
		models.Bookmarks: {"metrics.bookmarks"},
		models.Quotes:    {"metrics.quotes"},
		models.Replies:   {"metrics.replies"},
	},
	Hashtags:  []string{"hashtags"},
	MediaURLs: []string{"media_urls"},
	VideoURL:  []string{"video_url"},
	Sound:     []string{"sound"},
	Quote:     []string{"is_quote"},
}

// CanonicalVideoRule reads the is_video flag written by the tool itself.
var CanonicalVideoRule = VideoRule{Flags: []string{"is_video"}}

// WithFallback returns a copy of m with fb's candidates appended after m's own.
// Duplicate names are kept once, at their first position.
func (m FieldMap) WithFallback(fb FieldMap) FieldMap {
	out := FieldMap{
		ID:              merge(m.ID, fb.ID),
		URL:             merge(m.URL, fb.URL),
		Text:            merge(m.Text, fb.Text),
		CreatedAt:       merge(m.CreatedAt, fb.CreatedAt),
		AuthorUsername:  merge(m.AuthorUsername, fb.AuthorUsername),
		AuthorFollowers: merge(m.AuthorFollowers, fb.AuthorFollowers),
		AuthorVerified:  merge(m.AuthorVerified, fb.AuthorVerified),
		Hashtags:        merge(m.Hashtags, fb.Hashtags),
		MediaURLs:       merge(m.MediaURLs, fb.MediaURLs),
		VideoURL:        merge(m.VideoURL, fb.VideoURL),
		Sound:           merge(m.Sound, fb.Sound),
		Quote:           merge(m.Quote, fb.Quote),
		Metrics:         make(map[models.Interaction][]string),
	}
	for _, kind := range models.Interactions {
		if c := merge(m.Metrics[kind], fb.Metrics[kind]); len(c) > 0 {
			out.Metrics[kind] = c
		}
	}
	return out
}

// WithFallback returns a copy of r extended by fb's flags and type markers.
func (r VideoRule) WithFallback(fb VideoRule) VideoRule {
	return VideoRule{
		Flags:      merge(r.Flags, fb.Flags),
		TypeFields: merge(r.TypeFields, fb.TypeFields),
		TypeValues: merge(r.TypeValues, fb.TypeValues),
	}
}

func merge(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Item normalizes one platform-native record.
func Item(record map[string]interface{}, m FieldMap, rule VideoRule) models.ContentItem {
	item := models.ContentItem{
		ID:        String(record, m.ID, Unknown),
		URL:       String(record, m.URL, ""),
		Text:      String(record, m.Text, ""),
		CreatedAt: String(record, m.CreatedAt, ""),
		Author: models.Author{
			Username:  String(record, m.AuthorUsername, Unknown),
			Followers: Count(record, m.AuthorFollowers),
			Verified:  Bool(record, m.AuthorVerified),
		},
		Metrics:   make(map[models.Interaction]int64),
		Hashtags:  StringList(record, m.Hashtags, hashtagObjectKeys...),
		MediaURLs: StringList(record, m.MediaURLs, mediaObjectKeys...),
		VideoURL:  String(record, m.VideoURL, ""),
		Sound:     strings.TrimSpace(String(record, m.Sound, "")),
		IsQuote:   Bool(record, m.Quote),
	}

	for _, kind := range models.Interactions {
		candidates, ok := m.Metrics[kind]
		if !ok {
			continue
		}
		item.Metrics[kind] = Count(record, candidates)
	}

	item.IsVideo = IsVideo(record, item.VideoURL, rule)
	return item
}

// IsVideo applies rule to a record whose video URL has already been resolved.
func IsVideo(record map[string]interface{}, videoURL string, rule VideoRule) bool {
	if videoURL != "" {
		return true
	}
	if Bool(record, rule.Flags) {
		return true
	}
	if len(rule.TypeFields) == 0 || len(rule.TypeValues) == 0 {
		return false
	}
	// Every type field is checked, not just the first that resolves: Instagram
	// marks reels through either type or productType.
	for _, field := range rule.TypeFields {
		t := String(record, []string{field}, "")
		if t == "" {
			continue
		}
		for _, want := range rule.TypeValues {
			if strings.EqualFold(t, want) {
				return true
			}
		}
	}
	return false
}
