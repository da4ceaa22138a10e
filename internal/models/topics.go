package models

// TermCount is one ranked entry of a frequency table.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// TopicSummary aggregates the most frequent hashtags, keywords and
// platform-specific extras of a set of items.
type TopicSummary struct {
	Hashtags []TermCount `json:"hashtags"`
	Keywords []TermCount `json:"keywords"`
	Sounds   []TermCount `json:"sounds,omitempty"`   // Short-video platforms
	Mentions []TermCount `json:"mentions,omitempty"` // Microblogging platforms
}

// PatternStat is a structural attribute count with its share of the set.
type PatternStat struct {
	Count int     `json:"count"`
	Pct   float64 `json:"pct"`
}

// ContentPatterns summarizes structural attributes of an outlier set.
// Short, Medium and Long are mutually exclusive length buckets.
type ContentPatterns struct {
	Total    int         `json:"total"`
	HasMedia PatternStat `json:"has_media"`
	HasURL   PatternStat `json:"has_url"`
	Thread   PatternStat `json:"thread"`
	Quote    PatternStat `json:"quote"`
	Question PatternStat `json:"question"`
	List     PatternStat `json:"list"`
	Short    PatternStat `json:"short"`
	Medium   PatternStat `json:"medium"`
	Long     PatternStat `json:"long"`
}
