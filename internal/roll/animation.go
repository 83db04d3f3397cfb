package roll

import (
	"sync"
	"time"

	"github.com/mlgudi/chance-man-sub000/internal/item"
)

// AnimationSink receives the roll animation. The scheduler supplies the item
// supplier at spin start and reads back the item left at the visual center
// when the spin phase ends. The core never renders anything itself.
type AnimationSink interface {
	// Start begins a spin of the given duration. next draws the item for
	// each icon substitution; the sink decides the substitution cadence.
	Start(duration time.Duration, next func() item.ID)
	// FinalItem returns the item displayed at the center index. Called at
	// the spin/highlight phase boundary.
	FinalItem() item.ID
}

// HeadlessSink is the default sink when no UI is attached: it samples the
// supplier once at spin start and reports that item as final.
type HeadlessSink struct {
	mu   sync.Mutex
	last item.ID
}

func (h *HeadlessSink) Start(_ time.Duration, next func() item.ID) {
	id := next()
	h.mu.Lock()
	h.last = id
	h.mu.Unlock()
}

func (h *HeadlessSink) FinalItem() item.ID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}
