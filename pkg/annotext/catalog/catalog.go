// Package catalog holds the deduplicated entity set that drives pattern
// compilation.
package catalog

import (
	"fmt"
	"strings"

	"github.com/annotext/annotext/pkg/annotext/internalerr"
)

// Entity is a name to search for plus the label to attribute to it.
// Identity is the (name, label) pair: the same name under two labels is two
// entities.
type Entity struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Catalog is a deduplicated set of entities in first-seen order. When built
// case-insensitive, names are lowercased before dedup, so entries differing
// only by case collapse into the first one seen.
type Catalog struct {
	entities      []Entity
	seen          map[Entity]struct{}
	caseSensitive bool
}

// Normalize builds a catalog from raw entity records. Entity names must be
// non-empty; label text is preserved verbatim.
func Normalize(raw []Entity, caseSensitive bool) (*Catalog, error) {
	c := &Catalog{
		seen:          make(map[Entity]struct{}, len(raw)),
		caseSensitive: caseSensitive,
	}
	for _, e := range raw {
		if err := c.Add(e); err != nil && err != internalerr.ErrDuplicate {
			return nil, err
		}
	}
	return c, nil
}

// Add inserts a single entity. Returns internalerr.ErrDuplicate when the
// (name, label) pair is already present, which callers may treat as a
// warning rather than a failure.
func (c *Catalog) Add(e Entity) error {
	if e.Name == "" {
		return fmt.Errorf("entity with label %q has empty name: %w", e.Label, internalerr.ErrInvalidInput)
	}
	if !c.caseSensitive {
		e.Name = strings.ToLower(e.Name)
	}
	if _, ok := c.seen[e]; ok {
		return internalerr.ErrDuplicate
	}
	c.seen[e] = struct{}{}
	c.entities = append(c.entities, e)
	return nil
}

// Exclude removes every entity whose name appears in the exclusion set,
// regardless of label. Returns the number of entities removed. Exclusion
// names are folded the same way entity names were.
func (c *Catalog) Exclude(names []string) int {
	if len(names) == 0 {
		return 0
	}
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		if !c.caseSensitive {
			n = strings.ToLower(n)
		}
		drop[n] = struct{}{}
	}
	kept := c.entities[:0]
	removed := 0
	for _, e := range c.entities {
		if _, ok := drop[e.Name]; ok {
			delete(c.seen, e)
			removed++
			continue
		}
		kept = append(kept, e)
	}
	c.entities = kept
	return removed
}

// Entities returns the catalog contents in first-seen order.
func (c *Catalog) Entities() []Entity {
	out := make([]Entity, len(c.entities))
	copy(out, c.entities)
	return out
}

// Len returns the number of distinct entities.
func (c *Catalog) Len() int {
	return len(c.entities)
}

// CaseSensitive reports how names were folded at ingestion.
func (c *Catalog) CaseSensitive() bool {
	return c.caseSensitive
}
