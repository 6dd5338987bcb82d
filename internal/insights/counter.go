package insights

import "sort"

type counted struct {
	key   string
	count int
	quote string // first non-empty example
}

// counter is an insertion-ordered key -> count map. It lives for one
// aggregation call.
type counter struct {
	index   map[string]int
	entries []counted
}

func newCounter() *counter {
	return &counter{index: make(map[string]int)}
}

func (c *counter) add(key, quote string) {
	i, ok := c.index[key]
	if !ok {
		i = len(c.entries)
		c.index[key] = i
		c.entries = append(c.entries, counted{key: key})
	}
	c.entries[i].count++
	if c.entries[i].quote == "" && quote != "" {
		c.entries[i].quote = quote
	}
}

// top returns at most n entries by descending count; equal counts keep
// first-seen order.
func (c *counter) top(n int) []counted {
	ranked := make([]counted, len(c.entries))
	copy(ranked, c.entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].count > ranked[j].count
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
