package gate_test

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlgudi/chance-man-sub000/internal/eligibility"
	"github.com/mlgudi/chance-man-sub000/internal/gate"
	"github.com/mlgudi/chance-man-sub000/internal/item"
	"github.com/mlgudi/chance-man-sub000/internal/ledger"
)

const (
	idPickaxe   = item.ID(1265)
	idAxe       = item.ID(1351)
	idAirRune   = item.ID(556)
	idFireRune  = item.ID(554)
	idAirStaff  = item.ID(1381)
	idGrimyHerb = item.ID(199)
	idSword     = item.ID(1277)
	idCoins     = item.ID(995)
	idDagger    = item.ID(1203)
	idDaggerP   = item.ID(1219)
	idPoison    = item.ID(187)
)

type holdings struct {
	inv []gate.Stack
	eq  []gate.Stack
}

func (h holdings) Inventory() []gate.Stack { return h.inv }
func (h holdings) Equipment() []gate.Stack { return h.eq }

type gateFixture struct {
	ledger    *ledger.Manager
	evaluator *gate.Evaluator
	strict    bool
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()

	catalog, err := item.NewCatalog([]item.Definition{
		{ID: idPickaxe, Name: "Bronze pickaxe", Tradeable: true},
		{ID: idAxe, Name: "Bronze axe", Tradeable: true},
		{ID: idAirRune, Name: "Air rune", Tradeable: true},
		{ID: idFireRune, Name: "Fire rune", Tradeable: true},
		{ID: idAirStaff, Name: "Staff of air", Tradeable: true},
		{ID: idGrimyHerb, Name: "Grimy guam leaf", Tradeable: true},
		{ID: idSword, Name: "Bronze sword", Tradeable: true},
		{ID: idCoins, Name: "Coins", Tradeable: true},
		{ID: idDagger, Name: "Iron dagger", Tradeable: true},
		{ID: idDaggerP, Name: "Iron dagger(p)", Tradeable: true},
		{ID: idPoison, Name: "Weapon poison", Tradeable: true},
	})
	require.NoError(t, err)

	classifier := item.NewClassifierWith(
		[]item.ID{idCoins},
		nil,
		nil,
		map[item.ID]item.PoisonVariant{idDaggerP: {Base: idDagger, Reagent: idPoison}},
	)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ldg := ledger.NewManager("test", filepath.Join(t.TempDir(), "test"), logger)
	require.NoError(t, ldg.Load())
	t.Cleanup(ldg.Close)

	index := eligibility.New(catalog, classifier)
	index.Rebuild(eligibility.Options{}, ldg.IsUnlocked)

	f := &gateFixture{ledger: ldg}
	f.evaluator = gate.NewEvaluator(catalog, classifier, index, ldg, gate.DefaultRules(),
		func() bool { return f.strict }, logger)
	return f
}

func TestInspectionAlwaysAllowed(t *testing.T) {
	f := newGateFixture(t)

	assert.Equal(t, gate.Allow, f.evaluator.Evaluate(gate.Action{Kind: gate.KindExamine, Item: idSword}, holdings{}))
	assert.Equal(t, gate.Allow, f.evaluator.Evaluate(gate.Action{Kind: gate.KindDrop, Item: idSword}, holdings{}))
	// Even for items the catalog has never heard of.
	assert.Equal(t, gate.Allow, f.evaluator.Evaluate(gate.Action{Kind: gate.KindExamine, Item: 99999}, holdings{}))
}

func TestCleanRequiresUnlockedHerb(t *testing.T) {
	f := newGateFixture(t)

	assert.Equal(t, gate.Suppress, f.evaluator.Evaluate(gate.Action{Kind: gate.KindClean, Item: idGrimyHerb}, holdings{}))

	f.ledger.Unlock(idGrimyHerb)
	assert.Equal(t, gate.Allow, f.evaluator.Evaluate(gate.Action{Kind: gate.KindClean, Item: idGrimyHerb}, holdings{}))
}

func TestTakeFailsClosed(t *testing.T) {
	f := newGateFixture(t)

	// Unknown item: suppress rather than guess.
	assert.Equal(t, gate.Suppress, f.evaluator.Evaluate(gate.Action{Kind: gate.KindTake, Item: 99999}, holdings{}))

	assert.Equal(t, gate.Suppress, f.evaluator.Evaluate(gate.Action{Kind: gate.KindTake, Item: idSword}, holdings{}))

	f.ledger.Unlock(idSword)
	assert.Equal(t, gate.Allow, f.evaluator.Evaluate(gate.Action{Kind: gate.KindTake, Item: idSword}, holdings{}))
}

func TestUseRelabelsLockedAndExemptsCurrency(t *testing.T) {
	f := newGateFixture(t)

	assert.Equal(t, gate.Relabel, f.evaluator.Evaluate(gate.Action{Kind: gate.KindUse, Item: idSword}, holdings{}))
	assert.Equal(t, gate.Relabel, f.evaluator.Evaluate(gate.Action{Kind: gate.KindTradeConfirm, Item: idSword}, holdings{}))

	// Exempt items are usable regardless of unlock state.
	assert.Equal(t, gate.Allow, f.evaluator.Evaluate(gate.Action{Kind: gate.KindUse, Item: idCoins}, holdings{}))

	// Unknown items still fail closed.
	assert.Equal(t, gate.Suppress, f.evaluator.Evaluate(gate.Action{Kind: gate.KindUse, Item: 99999}, holdings{}))

	f.ledger.Unlock(idSword)
	assert.Equal(t, gate.Allow, f.evaluator.Evaluate(gate.Action{Kind: gate.KindUse, Item: idSword}, holdings{}))
}

func TestToolVerbMatchesUnlockedHeldTool(t *testing.T) {
	f := newGateFixture(t)
	held := holdings{inv: []gate.Stack{{ID: idPickaxe, Quantity: 1}}}

	// Held but locked.
	assert.Equal(t, gate.Suppress, f.evaluator.Evaluate(gate.Action{Kind: gate.KindToolVerb, Verb: "mine"}, held))

	f.ledger.Unlock(idPickaxe)
	assert.Equal(t, gate.Allow, f.evaluator.Evaluate(gate.Action{Kind: gate.KindToolVerb, Verb: "mine"}, held))

	// A pickaxe never qualifies as a woodcutting axe.
	assert.Equal(t, gate.Suppress, f.evaluator.Evaluate(gate.Action{Kind: gate.KindToolVerb, Verb: "chop"}, held))

	f.ledger.Unlock(idAxe)
	equipped := holdings{eq: []gate.Stack{{ID: idAxe, Quantity: 1}}}
	assert.Equal(t, gate.Allow, f.evaluator.Evaluate(gate.Action{Kind: gate.KindToolVerb, Verb: "chop"}, equipped))

	// Unknown verbs fail closed.
	assert.Equal(t, gate.Suppress, f.evaluator.Evaluate(gate.Action{Kind: gate.KindToolVerb, Verb: "juggle"}, held))
}

func TestCastRequiresUnlockedRunesOrStaff(t *testing.T) {
	f := newGateFixture(t)
	cost := gate.SpellCost{gate.RuneAir: 3, gate.RuneFire: 2}
	held := holdings{inv: []gate.Stack{
		{ID: idAirRune, Quantity: 10},
		{ID: idFireRune, Quantity: 10},
	}}

	// Runes held but locked.
	assert.Equal(t, gate.Suppress, f.evaluator.Evaluate(gate.Action{Kind: gate.KindCast, Spell: cost}, held))

	f.ledger.Unlock(idAirRune)
	assert.Equal(t, gate.Suppress, f.evaluator.Evaluate(gate.Action{Kind: gate.KindCast, Spell: cost}, held))

	f.ledger.Unlock(idFireRune)
	assert.Equal(t, gate.Allow, f.evaluator.Evaluate(gate.Action{Kind: gate.KindCast, Spell: cost}, held))

	// Insufficient quantity of an unlocked rune.
	short := holdings{inv: []gate.Stack{
		{ID: idAirRune, Quantity: 2},
		{ID: idFireRune, Quantity: 10},
	}}
	assert.Equal(t, gate.Suppress, f.evaluator.Evaluate(gate.Action{Kind: gate.KindCast, Spell: cost}, short))

	// An unlocked elemental staff substitutes for its rune type.
	f.ledger.Unlock(idAirStaff)
	staffed := holdings{
		inv: []gate.Stack{{ID: idFireRune, Quantity: 10}},
		eq:  []gate.Stack{{ID: idAirStaff, Quantity: 1}},
	}
	assert.Equal(t, gate.Allow, f.evaluator.Evaluate(gate.Action{Kind: gate.KindCast, Spell: cost}, staffed))

	// No cost means nothing to check.
	assert.Equal(t, gate.Allow, f.evaluator.Evaluate(gate.Action{Kind: gate.KindCast}, holdings{}))
}

func TestPoisonVariantTracksThroughBase(t *testing.T) {
	f := newGateFixture(t)

	assert.Equal(t, gate.Relabel, f.evaluator.Evaluate(gate.Action{Kind: gate.KindUse, Item: idDaggerP}, holdings{}))

	// Unlocking the base weapon frees the variant outside strict mode.
	f.ledger.Unlock(idDagger)
	assert.Equal(t, gate.Allow, f.evaluator.Evaluate(gate.Action{Kind: gate.KindUse, Item: idDaggerP}, holdings{}))

	// Strict mode additionally demands the reagent.
	f.strict = true
	assert.Equal(t, gate.Relabel, f.evaluator.Evaluate(gate.Action{Kind: gate.KindUse, Item: idDaggerP}, holdings{}))

	f.ledger.Unlock(idPoison)
	assert.Equal(t, gate.Allow, f.evaluator.Evaluate(gate.Action{Kind: gate.KindUse, Item: idDaggerP}, holdings{}))
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "allow", gate.Allow.String())
	assert.Equal(t, "suppress", gate.Suppress.String())
	assert.Equal(t, "relabel", gate.Relabel.String())
}
