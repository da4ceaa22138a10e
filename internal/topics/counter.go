package topics

import (
	"sort"

	"github.com/rewired-gh/outlierscope/internal/models"
)

// counter is a frequency table that remembers first-seen order.
type counter struct {
	index map[string]int
	terms []models.TermCount
}

func newCounter() *counter {
	return &counter{index: make(map[string]int)}
}

func (c *counter) add(term string, n int) {
	if term == "" || n <= 0 {
		return
	}
	if i, ok := c.index[term]; ok {
		c.terms[i].Count += n
		return
	}
	c.index[term] = len(c.terms)
	c.terms = append(c.terms, models.TermCount{Term: term, Count: n})
}

func (c *counter) count(term string) int {
	if i, ok := c.index[term]; ok {
		return c.terms[i].Count
	}
	return 0
}

// top returns at most n entries by descending count, ties in first-seen order.
// The result is never nil.
func (c *counter) top(n int) []models.TermCount {
	ranked := make([]models.TermCount, len(c.terms))
	copy(ranked, c.terms)
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Count > ranked[b].Count
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
