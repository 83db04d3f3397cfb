package gate

import (
	"log/slog"
	"strings"

	"github.com/mlgudi/chance-man-sub000/internal/eligibility"
	"github.com/mlgudi/chance-man-sub000/internal/item"
	"github.com/mlgudi/chance-man-sub000/internal/ledger"
)

// Decision is the gate's verdict on a candidate action.
type Decision int

const (
	Allow Decision = iota
	// Suppress drops the action entirely.
	Suppress
	// Relabel dims the menu option and suppresses the click.
	Relabel
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Suppress:
		return "suppress"
	case Relabel:
		return "relabel"
	default:
		return "unknown"
	}
}

// Kind is the category of an attempted in-game action.
type Kind int

const (
	KindExamine Kind = iota
	KindDrop
	KindTake
	KindClean
	KindToolVerb
	KindCast
	KindUse
	KindTradeConfirm
)

// SpellCost maps each required rune type to the quantity a cast consumes.
type SpellCost map[RuneType]int

// Stack is one inventory or equipment slot.
type Stack struct {
	ID       item.ID
	Quantity int
}

// Holdings supplies the player's current inventory and equipment. Item ids
// are already canonical.
type Holdings interface {
	Inventory() []Stack
	Equipment() []Stack
}

// Action is one candidate action to evaluate. Item is the canonical subject
// id; Verb is set for tool-skill actions and Spell for casts.
type Action struct {
	Kind  Kind
	Item  item.ID
	Verb  string
	Spell SpellCost
}

// Evaluator decides whether each attempted action is permitted given the
// current unlock state and the exception rules. It reads ledger and index
// state only; it never mutates them.
type Evaluator struct {
	catalog    *item.Catalog
	classifier *item.Classifier
	index      *eligibility.Index
	ledger     *ledger.Manager
	rules      *Rules
	strict     func() bool
	logger     *slog.Logger
}

// NewEvaluator wires a gate over the given state. strict reports the current
// strict-poison-requirement config flag.
func NewEvaluator(catalog *item.Catalog, classifier *item.Classifier, index *eligibility.Index, ldg *ledger.Manager, rules *Rules, strict func() bool, logger *slog.Logger) *Evaluator {
	if rules == nil {
		rules = DefaultRules()
	}
	if strict == nil {
		strict = func() bool { return false }
	}
	return &Evaluator{
		catalog:    catalog,
		classifier: classifier,
		index:      index,
		ledger:     ldg,
		rules:      rules,
		strict:     strict,
		logger:     logger,
	}
}

// Evaluate applies the decision rules in priority order; first match wins.
func (e *Evaluator) Evaluate(a Action, h Holdings) Decision {
	switch a.Kind {
	case KindExamine, KindDrop:
		return Allow

	case KindClean:
		if !e.index.Contains(a.Item) || e.unlocked(a.Item) {
			return Allow
		}
		return Suppress

	case KindToolVerb:
		return e.evaluateToolVerb(a.Verb, h)

	case KindCast:
		return e.evaluateCast(a.Spell, h)

	case KindTake:
		if _, known := e.catalog.Lookup(a.Item); !known {
			return Suppress
		}
		if e.trackedLocked(a.Item) {
			return Suppress
		}
		return Allow

	case KindUse, KindTradeConfirm:
		if _, known := e.catalog.Lookup(a.Item); !known {
			return Suppress
		}
		if e.rules.exempt(a.Item) {
			return Allow
		}
		if e.trackedLocked(a.Item) {
			return Relabel
		}
		return Allow

	default:
		return Allow
	}
}

// trackedLocked reports whether the item is subject to the randomizer and
// not yet (effectively) unlocked. Poison variants track through their base
// weapon.
func (e *Evaluator) trackedLocked(id item.ID) bool {
	subject := id
	if v, poisoned := e.classifier.PoisonVariant(id); poisoned {
		subject = v.Base
	}
	if !e.index.Contains(subject) {
		return false
	}
	return !e.unlocked(id)
}

func (e *Evaluator) unlocked(id item.ID) bool {
	return e.classifier.EffectivelyUnlocked(id, e.strict(), e.ledger.IsUnlocked)
}

// evaluateToolVerb allows a tool-skill action only when an unlocked item
// matching one of the verb's qualifying keywords is held.
func (e *Evaluator) evaluateToolVerb(verb string, h Holdings) Decision {
	keywords, ok := e.rules.ToolKeywords[strings.ToLower(verb)]
	if !ok {
		e.logger.Debug("Unknown tool verb, suppressing", "verb", verb)
		return Suppress
	}

	for _, stack := range e.held(h) {
		if !e.unlocked(stack.ID) {
			continue
		}
		name := strings.ToLower(e.catalog.DisplayName(stack.ID))
		for _, kw := range keywords {
			if strings.Contains(name, kw) {
				return Allow
			}
		}
	}
	return Suppress
}

// evaluateCast resolves the spell's rune-cost map. Each required rune type
// must be covered by a sufficient unlocked rune quantity or by an unlocked
// staff that provides the type unconditionally.
func (e *Evaluator) evaluateCast(cost SpellCost, h Holdings) Decision {
	if len(cost) == 0 {
		return Allow
	}

	held := e.held(h)
	for rt, required := range cost {
		if e.staffCovers(rt, held) {
			continue
		}
		if e.unlockedRuneQuantity(rt, held) < required {
			return Suppress
		}
	}
	return Allow
}

func (e *Evaluator) staffCovers(rt RuneType, held []Stack) bool {
	for _, stack := range held {
		if e.rules.staffProvides(stack.ID, rt) && e.unlocked(stack.ID) {
			return true
		}
	}
	return false
}

func (e *Evaluator) unlockedRuneQuantity(rt RuneType, held []Stack) int {
	total := 0
	for _, runeID := range e.rules.RuneItems[rt] {
		if !e.unlocked(runeID) {
			continue
		}
		for _, stack := range held {
			if stack.ID == runeID {
				total += stack.Quantity
			}
		}
	}
	return total
}

func (e *Evaluator) held(h Holdings) []Stack {
	if h == nil {
		return nil
	}
	inv := h.Inventory()
	eq := h.Equipment()
	out := make([]Stack, 0, len(inv)+len(eq))
	out = append(out, inv...)
	out = append(out, eq...)
	return out
}
