package event_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlgudi/chance-man-sub000/internal/event"
)

func TestListenerFansOutToAllHandlers(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	listener := event.NewListener(logger)

	var mu sync.Mutex
	var got []string
	record := func(tag string) event.Handler {
		return func(_ context.Context, e event.Event) error {
			mu.Lock()
			got = append(got, tag+":"+e.Message())
			mu.Unlock()
			return nil
		}
	}
	listener.Register(record("a"))
	listener.Register(record("b"))
	// A failing handler must not stop delivery to others.
	listener.Register(func(context.Context, event.Event) error {
		return errors.New("boom")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = listener.Listen(ctx)
	}()

	listener.Emit(event.RollCompleted(event.Text("unlocked"), 1511, 453, false))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 2*time.Second, time.Millisecond)

	mu.Lock()
	assert.ElementsMatch(t, []string{"a:unlocked", "b:unlocked"}, got)
	mu.Unlock()

	cancel()
	<-done
}

func TestEventCarriesIdentityAndPayload(t *testing.T) {
	e := event.RollCompleted(event.Text("unlocked Coal by rolling Logs"), 1511, 453, false)

	assert.NotEmpty(t, e.ID())
	assert.WithinDuration(t, time.Now(), e.OccurredAt(), time.Minute)
	assert.Equal(t, "unlocked Coal by rolling Logs", e.Message())
	assert.EqualValues(t, 1511, e.Trigger)
	assert.EqualValues(t, 453, e.Unlocked)
	assert.False(t, e.Manual)

	manual := event.RollCompleted(event.Text("manual"), 0, 453, true)
	assert.True(t, manual.Manual)
	assert.NotEqual(t, e.ID(), manual.ID())
}
