package roll

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/mlgudi/chance-man-sub000/internal/eligibility"
	"github.com/mlgudi/chance-man-sub000/internal/item"
	"github.com/mlgudi/chance-man-sub000/internal/ledger"
)

// Reference phase durations for the roll animation.
const (
	DefaultSpinDuration      = 4000 * time.Millisecond
	DefaultHighlightDuration = 1500 * time.Millisecond
)

// Phase is the scheduler's animation state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSpinning
	PhaseHighlight
	PhaseCommitted
)

// Request is a single queued roll. Trigger is zero for manual rolls.
type Request struct {
	Trigger  item.ID
	Manual   bool
	QueuedAt time.Time
}

// Outcome is the committed result of one processed request.
type Outcome struct {
	Trigger item.ID
	Manual  bool
	Item    item.ID
	At      time.Time
}

// Options tune a Scheduler. Zero values pick the reference durations and a
// time-seeded RNG.
type Options struct {
	SpinDuration      time.Duration
	HighlightDuration time.Duration
	Rand              *rand.Rand
}

// Scheduler serializes roll requests: strictly FIFO, one animation at a
// time, exactly one unlock committed per processed request. The animation
// wait and randomness draws run on a dedicated worker so the caller's tick
// cadence never blocks.
type Scheduler struct {
	logger *slog.Logger
	ledger *ledger.Manager
	index  *eligibility.Index
	sink   AnimationSink
	notify func(Outcome)

	spin      time.Duration
	highlight time.Duration

	rngMu sync.Mutex
	rng   *rand.Rand

	mu        sync.Mutex
	queue     []Request
	phase     Phase
	lastShown item.ID

	work     chan Request
	stopc    chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewScheduler creates a scheduler and starts its worker.
func NewScheduler(ldg *ledger.Manager, index *eligibility.Index, sink AnimationSink, logger *slog.Logger, opts Options) *Scheduler {
	if opts.SpinDuration <= 0 {
		opts.SpinDuration = DefaultSpinDuration
	}
	if opts.HighlightDuration <= 0 {
		opts.HighlightDuration = DefaultHighlightDuration
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if sink == nil {
		sink = &HeadlessSink{}
	}

	s := &Scheduler{
		logger:    logger,
		ledger:    ldg,
		index:     index,
		sink:      sink,
		notify:    func(Outcome) {},
		spin:      opts.SpinDuration,
		highlight: opts.HighlightDuration,
		rng:       opts.Rand,
		work:      make(chan Request, 1),
		stopc:     make(chan struct{}),
		done:      make(chan struct{}),
	}
	go s.worker()
	return s
}

// SetNotifier installs the callback invoked after each commit.
func (s *Scheduler) SetNotifier(fn func(Outcome)) {
	if fn != nil {
		s.notify = fn
	}
}

// Enqueue appends a triggered roll request. The caller must not enqueue an
// id already marked rolled.
func (s *Scheduler) Enqueue(id item.ID) {
	s.push(Request{Trigger: id, QueuedAt: time.Now()})
}

// EnqueueManual appends a free roll with no triggering item.
func (s *Scheduler) EnqueueManual() {
	s.push(Request{Manual: true, QueuedAt: time.Now()})
}

func (s *Scheduler) push(req Request) {
	s.mu.Lock()
	s.queue = append(s.queue, req)
	s.mu.Unlock()
}

// QueueLen returns the number of pending requests.
func (s *Scheduler) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Phase returns the current animation phase.
func (s *Scheduler) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Process is called on the host's tick cadence. When idle and the queue is
// non-empty it dequeues exactly one request and hands it to the worker.
func (s *Scheduler) Process() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseIdle || len(s.queue) == 0 {
		return
	}
	req := s.queue[0]
	s.queue = s.queue[1:]
	s.phase = PhaseSpinning
	s.work <- req
}

// Stop terminates the worker. An in-flight roll is abandoned without commit;
// ledger write atomicity keeps durable state consistent.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopc)
		<-s.done
	})
}

func (s *Scheduler) worker() {
	defer close(s.done)
	for {
		select {
		case <-s.stopc:
			return
		case req := <-s.work:
			s.run(req)
		}
	}
}

func (s *Scheduler) run(req Request) {
	defer s.setPhase(PhaseIdle)

	s.sink.Start(s.spin, s.supplyNext)
	if !s.wait(s.spin) {
		return
	}

	outcome := s.sink.FinalItem()
	if outcome == 0 {
		outcome = s.lastDisplayed()
	}

	s.setPhase(PhaseHighlight)
	if !s.wait(s.highlight) {
		return
	}

	s.setPhase(PhaseCommitted)
	if outcome == 0 {
		// Nothing was ever displayed: empty eligibility with no prior
		// roll. Defined degenerate case, nothing to commit.
		s.logger.Warn("Roll completed with no displayable item, skipping commit",
			"trigger", req.Trigger, "manual", req.Manual)
		return
	}

	s.ledger.Unlock(outcome)
	s.logger.Info("Roll committed",
		"trigger", req.Trigger, "manual", req.Manual, "unlocked", outcome)
	s.notify(Outcome{Trigger: req.Trigger, Manual: req.Manual, Item: outcome, At: time.Now()})
}

// supplyNext draws the item for one icon substitution: uniform over
// eligible minus unlocked, falling back to the most recently displayed item
// when that set is empty.
func (s *Scheduler) supplyNext() item.ID {
	s.rngMu.Lock()
	id, ok := s.index.Draw(s.rng, s.ledger.IsUnlocked)
	s.rngMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok {
		return s.lastShown
	}
	s.lastShown = id
	return id
}

func (s *Scheduler) lastDisplayed() item.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastShown
}

func (s *Scheduler) setPhase(p Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}

func (s *Scheduler) wait(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-s.stopc:
		return false
	}
}
