package roll_test

import (
	"io"
	"log/slog"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlgudi/chance-man-sub000/internal/eligibility"
	"github.com/mlgudi/chance-man-sub000/internal/item"
	"github.com/mlgudi/chance-man-sub000/internal/ledger"
	"github.com/mlgudi/chance-man-sub000/internal/roll"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	ledger    *ledger.Manager
	index     *eligibility.Index
	scheduler *roll.Scheduler
	outcomes  chan roll.Outcome
}

func newFixture(t *testing.T, ids ...item.ID) *fixture {
	t.Helper()

	defs := make([]item.Definition, 0, len(ids))
	for _, id := range ids {
		defs = append(defs, item.Definition{ID: id, Name: "item", Tradeable: true})
	}
	catalog, err := item.NewCatalog(defs)
	require.NoError(t, err)
	classifier := item.NewClassifierWith(nil, nil, nil, nil)

	ldg := ledger.NewManager("test", filepath.Join(t.TempDir(), "test"), discardLogger())
	require.NoError(t, ldg.Load())
	t.Cleanup(ldg.Close)

	index := eligibility.New(catalog, classifier)
	index.Rebuild(eligibility.Options{}, ldg.IsUnlocked)

	f := &fixture{
		ledger:   ldg,
		index:    index,
		outcomes: make(chan roll.Outcome, 16),
	}
	f.scheduler = roll.NewScheduler(ldg, index, nil, discardLogger(), roll.Options{
		SpinDuration:      5 * time.Millisecond,
		HighlightDuration: 3 * time.Millisecond,
		Rand:              rand.New(rand.NewSource(1)),
	})
	f.scheduler.SetNotifier(func(o roll.Outcome) { f.outcomes <- o })
	t.Cleanup(f.scheduler.Stop)
	return f
}

// waitOutcome pumps Process on a fast cadence until the next commit lands.
func (f *fixture) waitOutcome(t *testing.T) roll.Outcome {
	t.Helper()
	timeout := time.After(2 * time.Second)
	tick := time.NewTicker(time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case o := <-f.outcomes:
			return o
		case <-tick.C:
			f.scheduler.Process()
		case <-timeout:
			t.Fatal("timed out waiting for roll outcome")
			return roll.Outcome{}
		}
	}
}

func TestRollCommitsExactlyOneUnlock(t *testing.T) {
	f := newFixture(t, 1, 2, 3, 4, 5)

	f.scheduler.Enqueue(1)
	o := f.waitOutcome(t)

	assert.Equal(t, item.ID(1), o.Trigger)
	assert.False(t, o.Manual)
	assert.True(t, f.index.Contains(o.Item))
	assert.True(t, f.ledger.IsUnlocked(o.Item))

	unlocked, _ := f.ledger.Counts()
	assert.Equal(t, 1, unlocked)
}

func TestRequestsProcessInFIFOOrder(t *testing.T) {
	f := newFixture(t, 1, 2, 3, 4, 5, 6, 7, 8)

	f.scheduler.Enqueue(1)
	f.scheduler.Enqueue(2)
	f.scheduler.Enqueue(3)
	assert.Equal(t, 3, f.scheduler.QueueLen())

	assert.Equal(t, item.ID(1), f.waitOutcome(t).Trigger)
	assert.Equal(t, item.ID(2), f.waitOutcome(t).Trigger)
	assert.Equal(t, item.ID(3), f.waitOutcome(t).Trigger)
	assert.Equal(t, 0, f.scheduler.QueueLen())
}

func TestOnlyOneRollRunsAtATime(t *testing.T) {
	f := newFixture(t, 1, 2, 3, 4, 5)

	f.scheduler.Enqueue(1)
	f.scheduler.Enqueue(2)

	f.scheduler.Process()
	assert.Equal(t, roll.PhaseSpinning, f.scheduler.Phase())

	// A second Process while animating must not start the next request.
	f.scheduler.Process()
	assert.Equal(t, 1, f.scheduler.QueueLen())

	f.waitOutcome(t)
	f.waitOutcome(t)
}

func TestManualRollHasNoTrigger(t *testing.T) {
	f := newFixture(t, 1, 2, 3)

	f.scheduler.EnqueueManual()
	o := f.waitOutcome(t)

	assert.True(t, o.Manual)
	assert.Zero(t, o.Trigger)
	assert.True(t, f.ledger.IsUnlocked(o.Item))
}

func TestExhaustedPoolFallsBackToLastShown(t *testing.T) {
	f := newFixture(t, 1)

	f.scheduler.Enqueue(1)
	first := f.waitOutcome(t)
	assert.Equal(t, item.ID(1), first.Item)

	// Everything eligible is unlocked now; the next roll re-lands on the
	// last displayed item instead of stalling.
	f.scheduler.EnqueueManual()
	second := f.waitOutcome(t)
	assert.Equal(t, item.ID(1), second.Item)

	unlocked, _ := f.ledger.Counts()
	assert.Equal(t, 1, unlocked)
}

func TestHeadlessSinkReportsSampledItem(t *testing.T) {
	sink := &roll.HeadlessSink{}
	sink.Start(time.Millisecond, func() item.ID { return 7 })
	assert.Equal(t, item.ID(7), sink.FinalItem())
}
