// Package catalog holds the reference unit-rate schedule used to price
// abstract items. The catalog is read-only at runtime except for wholesale
// reloads.
package catalog

import (
	"sort"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/estimate-cli/internal/match"
	"github.com/sells-group/estimate-cli/internal/model"
)

// Item is one rate schedule entry. Codes are unique and hierarchical
// ("2.1.1"); Rate is currency per Unit.
type Item struct {
	Code        string  `json:"code" yaml:"code"`
	Description string  `json:"description" yaml:"description"`
	Category    string  `json:"category" yaml:"category"`
	Unit        string  `json:"unit" yaml:"unit"`
	Rate        float64 `json:"rate" yaml:"rate"`
}

// Suggestion is one ranked search result.
type Suggestion struct {
	Item  Item    `json:"item"`
	Score float64 `json:"score"`
}

// Catalog is a swappable code → item table with similarity search. Reload
// replaces the whole table atomically; lookups running concurrently never
// see partial state.
type Catalog struct {
	mu     sync.RWMutex
	items  []Item
	byCode map[string]Item
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{byCode: map[string]Item{}}
}

// Reload replaces the entire catalog. Duplicate codes reject the whole
// batch, leaving the previous contents in place.
func (c *Catalog) Reload(items []Item) error {
	byCode := make(map[string]Item, len(items))
	for _, it := range items {
		if it.Code == "" {
			return eris.Wrap(model.ErrValidation, "catalog: item with empty code")
		}
		if _, ok := byCode[it.Code]; ok {
			return eris.Wrapf(model.ErrDuplicateName, "catalog: code %q", it.Code)
		}
		byCode[it.Code] = it
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append([]Item(nil), items...)
	c.byCode = byCode
	return nil
}

// Lookup returns the item for a code.
func (c *Catalog) Lookup(code string) (Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, ok := c.byCode[code]
	if !ok {
		return Item{}, eris.Wrapf(model.ErrNotFound, "catalog: code %q", code)
	}
	return it, nil
}

// Search ranks catalog items by similarity to query, descending, ties broken
// by catalog insertion order. Zero-score items are omitted. A non-positive
// limit returns all scored candidates.
func (c *Catalog) Search(query string, limit int) []Suggestion {
	c.mu.RLock()
	items := c.items
	c.mu.RUnlock()

	suggestions := make([]Suggestion, 0, len(items))
	for _, it := range items {
		if s := match.Score(query, it.Description); s > 0 {
			suggestions = append(suggestions, Suggestion{Item: it, Score: s})
		}
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})
	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

// Items returns a copy of the catalog contents in insertion order.
func (c *Catalog) Items() []Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Item(nil), c.items...)
}

// Len returns the number of items loaded.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
