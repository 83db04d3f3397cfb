package eligibility

import (
	"math/rand"
	"sync"

	"github.com/mlgudi/chance-man-sub000/internal/item"
)

// Options mirror the profile config toggles that shape the eligible set.
type Options struct {
	FreeToPlayOnly   bool
	IncludeFlatpacks bool
	IncludeItemSets  bool
	StrictPoison     bool
}

// Index maintains the live set of item ids eligible to be rolled: tradeable
// base items minus blocked categories, config-disabled categories and poison
// variants whose prerequisites are not met. The set is rebuilt wholesale on
// every trigger, never patched incrementally.
type Index struct {
	catalog    *item.Catalog
	classifier *item.Classifier

	mu   sync.RWMutex
	ids  map[item.ID]struct{}
	list []item.ID
}

func New(catalog *item.Catalog, classifier *item.Classifier) *Index {
	return &Index{
		catalog:    catalog,
		classifier: classifier,
		ids:        make(map[item.ID]struct{}),
	}
}

// Rebuild recomputes the eligible set from scratch. unlocked supplies the
// current ledger state for poison-variant prerequisites.
func (i *Index) Rebuild(opts Options, unlocked func(item.ID) bool) {
	ids := make(map[item.ID]struct{})
	list := make([]item.ID, 0, i.catalog.Size())

	for _, id := range i.catalog.IDs() {
		def, ok := i.catalog.Lookup(id)
		if !ok || !def.Tradeable {
			continue
		}
		if i.classifier.Blocked(id) {
			continue
		}
		if opts.FreeToPlayOnly && def.Members {
			continue
		}
		if !opts.IncludeFlatpacks && i.classifier.IsFlatpack(id) {
			continue
		}
		if !opts.IncludeItemSets && i.classifier.IsItemSet(id) {
			continue
		}
		if _, poisoned := i.classifier.PoisonVariant(id); poisoned {
			if !i.classifier.EffectivelyUnlocked(id, opts.StrictPoison, unlocked) {
				continue
			}
		}
		ids[id] = struct{}{}
		list = append(list, id)
	}

	i.mu.Lock()
	i.ids = ids
	i.list = list
	i.mu.Unlock()
}

// Contains reports whether the item is currently tracked as eligible.
func (i *Index) Contains(id item.ID) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.ids[id]
	return ok
}

// Size returns the number of eligible items.
func (i *Index) Size() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.list)
}

// Draw picks one id uniformly at random from the eligible set minus the
// excluded ids. Returns false when no candidate remains.
func (i *Index) Draw(rng *rand.Rand, exclude func(item.ID) bool) (item.ID, bool) {
	i.mu.RLock()
	candidates := make([]item.ID, 0, len(i.list))
	for _, id := range i.list {
		if exclude != nil && exclude(id) {
			continue
		}
		candidates = append(candidates, id)
	}
	i.mu.RUnlock()

	if len(candidates) == 0 {
		return 0, false
	}
	return candidates[rng.Intn(len(candidates))], true
}

// IDs returns a snapshot of the eligible set.
func (i *Index) IDs() []item.ID {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]item.ID, len(i.list))
	copy(out, i.list)
	return out
}
