package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mlgudi/chance-man-sub000/internal/config"
	"github.com/mlgudi/chance-man-sub000/internal/eligibility"
	"github.com/mlgudi/chance-man-sub000/internal/event"
	"github.com/mlgudi/chance-man-sub000/internal/gate"
	"github.com/mlgudi/chance-man-sub000/internal/item"
	"github.com/mlgudi/chance-man-sub000/internal/ledger"
	"github.com/mlgudi/chance-man-sub000/internal/roll"
)

// DefaultTickInterval matches the game's simulation cadence.
const DefaultTickInterval = 600 * time.Millisecond

// Status is a snapshot of the active session for the UI and remote sinks.
type Status struct {
	Profile   string         `json:"profile"`
	Unlocked  int            `json:"unlocked"`
	Rolled    int            `json:"rolled"`
	Eligible  int            `json:"eligible"`
	QueueLen  int            `json:"queueLen"`
	Animating bool           `json:"animating"`
	History   []HistoryEntry `json:"history"`
}

// Tracker owns the per-profile randomizer state: one ledger, one eligibility
// index, one roll scheduler and one gate per active profile. World events
// arrive as method calls; outcomes are published on the event bus.
type Tracker struct {
	logger     *slog.Logger
	catalog    *item.Catalog
	classifier *item.Classifier
	rules      *gate.Rules
	listener   *event.Listener
	sink       roll.AnimationSink
	rollOpts   roll.Options

	mu        sync.RWMutex
	profile   string
	ledger    *ledger.Manager
	index     *eligibility.Index
	scheduler *roll.Scheduler
	evaluator *gate.Evaluator

	holdMu    sync.RWMutex
	inventory []gate.Stack
	equipment []gate.Stack
}

// NewTracker wires a tracker with no active profile.
func NewTracker(catalog *item.Catalog, classifier *item.Classifier, rules *gate.Rules, listener *event.Listener, sink roll.AnimationSink, logger *slog.Logger, rollOpts roll.Options) *Tracker {
	return &Tracker{
		logger:     logger,
		catalog:    catalog,
		classifier: classifier,
		rules:      rules,
		listener:   listener,
		sink:       sink,
		rollOpts:   rollOpts,
	}
}

// Run drives the scheduler on the simulation cadence until the context is
// canceled.
func (t *Tracker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.tickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.Deactivate()
			return nil
		case <-ticker.C:
			t.mu.RLock()
			scheduler := t.scheduler
			t.mu.RUnlock()
			if scheduler != nil {
				scheduler.Process()
			}
		}
	}
}

func (t *Tracker) tickInterval() time.Duration {
	t.mu.RLock()
	profile := t.profile
	t.mu.RUnlock()
	if profile != "" {
		if ms := config.GetProfile(profile).TickIntervalMs; ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return DefaultTickInterval
}

// ActivateProfile loads durable state for the profile and swaps the session
// over to it. Any previously active profile is deactivated first.
func (t *Tracker) ActivateProfile(name string) error {
	if name == "" {
		return fmt.Errorf("profile name must not be empty")
	}
	t.Deactivate()

	cfg := config.GetProfile(name)

	ldg := ledger.NewManager(name, config.ProfileDir(name), t.logger)
	if err := ldg.Load(); err != nil {
		ldg.Close()
		return fmt.Errorf("loading ledger for %s: %w", name, err)
	}

	index := eligibility.New(t.catalog, t.classifier)
	index.Rebuild(cfg.Eligibility(), ldg.IsUnlocked)

	scheduler := roll.NewScheduler(ldg, index, t.sink, t.logger, t.rollOpts)
	scheduler.SetNotifier(t.onOutcome)

	strict := func() bool {
		return config.GetProfile(name).StrictPoisonRequirement
	}
	evaluator := gate.NewEvaluator(t.catalog, t.classifier, index, ldg, t.rules, strict, t.logger)

	t.mu.Lock()
	t.profile = name
	t.ledger = ldg
	t.index = index
	t.scheduler = scheduler
	t.evaluator = evaluator
	t.mu.Unlock()

	t.logger.Info("Profile activated", "profile", name, "eligible", index.Size())
	t.listener.Emit(event.ProfileActivated(event.Text("profile activated: "+name), name))
	return nil
}

// Deactivate drops the active session. Ledger state stays on disk; an
// in-flight roll is abandoned without commit.
func (t *Tracker) Deactivate() {
	t.mu.Lock()
	profile := t.profile
	ldg, scheduler := t.ledger, t.scheduler
	t.profile = ""
	t.ledger, t.index, t.scheduler, t.evaluator = nil, nil, nil, nil
	t.mu.Unlock()

	if scheduler != nil {
		scheduler.Stop()
	}
	if ldg != nil {
		ldg.Close()
	}
	if profile != "" {
		t.logger.Info("Profile deactivated", "profile", profile)
		t.listener.Emit(event.ProfileDeactivated(event.Text("profile deactivated: "+profile), profile))
	}
}

// Acquired handles an item newly entering the player's possession. The first
// acquisition of a tracked, not-yet-rolled item marks it rolled and enqueues
// a roll.
func (t *Tracker) Acquired(raw item.ID) {
	id := t.catalog.Canonical(raw)

	t.mu.RLock()
	ldg, index, scheduler := t.ledger, t.index, t.scheduler
	t.mu.RUnlock()
	if ldg == nil {
		return
	}

	t.listener.Emit(event.ItemAcquired(
		event.Text("acquired "+t.catalog.DisplayName(id)), id))

	if !index.Contains(id) || ldg.IsRolled(id) {
		return
	}
	if ldg.MarkRolled(id) {
		scheduler.Enqueue(id)
		t.logger.Info("Roll queued", "item", id, "name", t.catalog.DisplayName(id))
	}
}

// GroundItemSeen handles a player-owned ground spawn. It only feeds the
// overlay; acquisition is what triggers rolls.
func (t *Tracker) GroundItemSeen(raw item.ID) {
	id := t.catalog.Canonical(raw)
	t.listener.Emit(event.GroundItemSeen(
		event.Text("ground item "+t.catalog.DisplayName(id)), id))
}

// ManualRoll enqueues a free roll with no triggering item.
func (t *Tracker) ManualRoll() error {
	t.mu.RLock()
	scheduler := t.scheduler
	t.mu.RUnlock()
	if scheduler == nil {
		return fmt.Errorf("no active profile")
	}
	scheduler.EnqueueManual()
	return nil
}

// Evaluate gates one candidate action against the current session. With no
// active profile every action is allowed.
func (t *Tracker) Evaluate(a gate.Action) gate.Decision {
	t.mu.RLock()
	evaluator := t.evaluator
	t.mu.RUnlock()
	if evaluator == nil {
		return gate.Allow
	}
	return evaluator.Evaluate(a, t)
}

// UpdateHoldings replaces the last known inventory and equipment snapshot.
func (t *Tracker) UpdateHoldings(inventory, equipment []gate.Stack) {
	t.holdMu.Lock()
	t.inventory = inventory
	t.equipment = equipment
	t.holdMu.Unlock()
}

// Inventory implements gate.Holdings.
func (t *Tracker) Inventory() []gate.Stack {
	t.holdMu.RLock()
	defer t.holdMu.RUnlock()
	return t.inventory
}

// Equipment implements gate.Holdings.
func (t *Tracker) Equipment() []gate.Stack {
	t.holdMu.RLock()
	defer t.holdMu.RUnlock()
	return t.equipment
}

// ReloadConfig rebuilds the eligibility index after a config change.
func (t *Tracker) ReloadConfig() {
	t.rebuildIndex()
	t.listener.Emit(event.ConfigReloaded(event.Text("configuration reloaded")))
}

// Reset wipes the active profile's ledger after snapshotting it aside.
func (t *Tracker) Reset() error {
	t.mu.RLock()
	ldg := t.ledger
	t.mu.RUnlock()
	if ldg == nil {
		return fmt.Errorf("no active profile")
	}
	if err := ldg.Reset(); err != nil {
		return err
	}
	t.rebuildIndex()
	return nil
}

// Status snapshots the active session.
func (t *Tracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.ledger == nil {
		return Status{}
	}
	unlocked, rolled := t.ledger.Counts()
	return Status{
		Profile:   t.profile,
		Unlocked:  unlocked,
		Rolled:    rolled,
		Eligible:  t.index.Size(),
		QueueLen:  t.scheduler.QueueLen(),
		Animating: t.scheduler.Phase() != roll.PhaseIdle,
		History:   loadHistory(config.ProfileDir(t.profile)).Entries,
	}
}

// onOutcome records history, refreshes eligibility (an unlock can satisfy a
// poison-variant prerequisite) and publishes the unlock notification.
func (t *Tracker) onOutcome(o roll.Outcome) {
	t.mu.RLock()
	profile := t.profile
	t.mu.RUnlock()
	if profile == "" {
		return
	}

	entry := HistoryEntry{
		Trigger:      o.Trigger,
		Unlocked:     o.Item,
		UnlockedName: t.catalog.DisplayName(o.Item),
		Manual:       o.Manual,
		At:           o.At,
	}
	if o.Trigger != 0 {
		entry.TriggerName = t.catalog.DisplayName(o.Trigger)
	}
	appendHistory(config.ProfileDir(profile), entry, t.logger)

	t.rebuildIndex()

	var msg string
	if o.Manual {
		msg = fmt.Sprintf("Unlocked %s by rolling manually", t.catalog.DisplayName(o.Item))
	} else {
		msg = fmt.Sprintf("Unlocked %s by rolling %s",
			t.catalog.DisplayName(o.Item), t.catalog.DisplayName(o.Trigger))
	}
	t.listener.Emit(event.RollCompleted(event.Text(msg), o.Trigger, o.Item, o.Manual))
}

func (t *Tracker) rebuildIndex() {
	t.mu.RLock()
	profile, index, ldg := t.profile, t.index, t.ledger
	t.mu.RUnlock()
	if index == nil {
		return
	}
	index.Rebuild(config.GetProfile(profile).Eligibility(), ldg.IsUnlocked)
}
