package item

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ID identifies one static item definition. Zero is never a valid item.
type ID int

// Definition is the static catalog record for a single item. Noted and
// placeholder variants carry LinkedID pointing at their canonical base form.
type Definition struct {
	ID            ID     `json:"id"`
	Name          string `json:"name"`
	Tradeable     bool   `json:"tradeable"`
	Members       bool   `json:"members"`
	NotedID       ID     `json:"notedId,omitempty"`
	PlaceholderID ID     `json:"placeholderId,omitempty"`
	LinkedID      ID     `json:"linkedId,omitempty"`
}

// decodeCacheSize bounds how many decoded definitions are kept in memory.
// Full game dumps carry tens of thousands of records; most are touched
// rarely outside eligibility rebuilds.
const decodeCacheSize = 4096

// Catalog answers synchronous lookups against the static item dump. Records
// are kept raw and decoded on demand through a bounded LRU cache so a full
// dump does not stay resident twice.
type Catalog struct {
	raw   map[ID]json.RawMessage
	links map[ID]ID
	order []ID
	cache *lru.Cache[ID, Definition]
}

//go:embed data/items.json
var bundledItems []byte

// NewCatalog builds a catalog from already-decoded definitions. Used by the
// bundled dataset and by tests.
func NewCatalog(defs []Definition) (*Catalog, error) {
	raws := make([]json.RawMessage, 0, len(defs))
	for _, d := range defs {
		data, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("encoding item %d: %w", d.ID, err)
		}
		raws = append(raws, data)
	}
	return newCatalog(raws)
}

// LoadCatalog reads an item dump from disk. An empty path loads the bundled
// dataset.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return ParseCatalog(bundledItems)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading item catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a JSON array of item definitions.
func ParseCatalog(data []byte) (*Catalog, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("parsing item catalog: %w", err)
	}
	return newCatalog(raws)
}

func newCatalog(raws []json.RawMessage) (*Catalog, error) {
	cache, err := lru.New[ID, Definition](decodeCacheSize)
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		raw:   make(map[ID]json.RawMessage, len(raws)),
		links: make(map[ID]ID),
		order: make([]ID, 0, len(raws)),
		cache: cache,
	}

	// Only the id/link pair is decoded up front; full records decode lazily.
	var head struct {
		ID       ID `json:"id"`
		LinkedID ID `json:"linkedId"`
	}
	for _, raw := range raws {
		if err := json.Unmarshal(raw, &head); err != nil {
			return nil, fmt.Errorf("parsing item record: %w", err)
		}
		if head.ID <= 0 {
			return nil, fmt.Errorf("item record with invalid id %d", head.ID)
		}
		if _, dup := c.raw[head.ID]; dup {
			return nil, fmt.Errorf("duplicate item id %d in catalog", head.ID)
		}
		c.raw[head.ID] = raw
		c.order = append(c.order, head.ID)
		if head.LinkedID > 0 {
			c.links[head.ID] = head.LinkedID
		}
		head.ID, head.LinkedID = 0, 0
	}
	return c, nil
}

// Lookup returns the definition for id, decoding it if it is not cached.
func (c *Catalog) Lookup(id ID) (Definition, bool) {
	if def, ok := c.cache.Get(id); ok {
		return def, true
	}
	raw, ok := c.raw[id]
	if !ok {
		return Definition{}, false
	}
	var def Definition
	if err := json.Unmarshal(raw, &def); err != nil {
		return Definition{}, false
	}
	c.cache.Add(id, def)
	return def, true
}

// Canonical maps a noted or placeholder variant to its base form. Unknown
// ids map to themselves.
func (c *Catalog) Canonical(id ID) ID {
	if base, ok := c.links[id]; ok {
		return base
	}
	return id
}

// Tradeable reports whether the item can be traded between players. Unknown
// items are not tradeable.
func (c *Catalog) Tradeable(id ID) bool {
	def, ok := c.Lookup(id)
	return ok && def.Tradeable
}

// DisplayName returns a human-readable name for notifications and the UI,
// falling back to the numeric id for uncataloged items.
func (c *Catalog) DisplayName(id ID) string {
	if def, ok := c.Lookup(id); ok && def.Name != "" {
		return def.Name
	}
	return "item " + strconv.Itoa(int(id))
}

// IDs returns every catalog id in load order. Variants linked to a base form
// are excluded; the eligibility index only ever tracks canonical ids.
func (c *Catalog) IDs() []ID {
	ids := make([]ID, 0, len(c.order))
	for _, id := range c.order {
		if _, linked := c.links[id]; linked {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Size returns the number of records in the catalog, variants included.
func (c *Catalog) Size() int {
	return len(c.raw)
}
