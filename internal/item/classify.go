package item

// PoisonVariant links a poisoned weapon variant to its base weapon and the
// tier-matching poison reagent that must be unlocked under strict mode.
type PoisonVariant struct {
	Base    ID
	Reagent ID
}

// Classifier answers static category membership questions. All sets are
// built once at startup and never mutated afterwards, so reads need no
// locking.
type Classifier struct {
	blocked   map[ID]struct{}
	flatpacks map[ID]struct{}
	itemSets  map[ID]struct{}
	poison    map[ID]PoisonVariant
}

// NewClassifier builds a classifier over the default category tables.
func NewClassifier() *Classifier {
	return NewClassifierWith(blockedItems, flatpackItems, itemSetItems, poisonVariants)
}

// NewClassifierWith builds a classifier over explicit category tables.
func NewClassifierWith(blocked, flatpacks, itemSets []ID, poison map[ID]PoisonVariant) *Classifier {
	c := &Classifier{
		blocked:   make(map[ID]struct{}, len(blocked)),
		flatpacks: make(map[ID]struct{}, len(flatpacks)),
		itemSets:  make(map[ID]struct{}, len(itemSets)),
		poison:    make(map[ID]PoisonVariant, len(poison)),
	}
	for _, id := range blocked {
		c.blocked[id] = struct{}{}
	}
	for _, id := range flatpacks {
		c.flatpacks[id] = struct{}{}
	}
	for _, id := range itemSets {
		c.itemSets[id] = struct{}{}
	}
	for id, v := range poison {
		c.poison[id] = v
	}
	return c
}

// Blocked reports whether the item can never be rolled or tracked.
func (c *Classifier) Blocked(id ID) bool {
	_, ok := c.blocked[id]
	return ok
}

// IsFlatpack reports whether the item is a flatpacked furniture item.
func (c *Classifier) IsFlatpack(id ID) bool {
	_, ok := c.flatpacks[id]
	return ok
}

// IsItemSet reports whether the item is an armour-set container.
func (c *Classifier) IsItemSet(id ID) bool {
	_, ok := c.itemSets[id]
	return ok
}

// PoisonVariant returns the base/reagent pair for a poisoned weapon variant.
func (c *Classifier) PoisonVariant(id ID) (PoisonVariant, bool) {
	v, ok := c.poison[id]
	return v, ok
}

// EffectivelyUnlocked reports whether the item counts as unlocked for use
// and tool checks. A poisoned variant inherits its base weapon's unlock
// state; under strict mode the tier-matching reagent must be unlocked too.
func (c *Classifier) EffectivelyUnlocked(id ID, strict bool, unlocked func(ID) bool) bool {
	v, ok := c.poison[id]
	if !ok {
		return unlocked(id)
	}
	if !unlocked(v.Base) {
		return false
	}
	if strict {
		return unlocked(v.Reagent)
	}
	return true
}
