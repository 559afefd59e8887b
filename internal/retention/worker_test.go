package retention

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
)

type recordingPurger struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
	calls   chan struct{}
}

func newRecordingPurger() *recordingPurger {
	return &recordingPurger{calls: make(chan struct{}, 16)}
}

func (p *recordingPurger) PurgeOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	p.mu.Lock()
	p.cutoffs = append(p.cutoffs, cutoff)
	p.mu.Unlock()
	p.calls <- struct{}{}
	if p.err != nil {
		return 0, p.err
	}
	return 3, nil
}

func (p *recordingPurger) wait(t *testing.T) {
	t.Helper()
	select {
	case <-p.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("purge was not called")
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorker_PurgesImmediatelyWithCutoff(t *testing.T) {
	p := newRecordingPurger()
	w := NewWorker(p, 30*24*time.Hour, time.Hour, discard())
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	p.wait(t)
	cancel()
	<-done

	p.mu.Lock()
	defer p.mu.Unlock()
	require.Len(t, p.cutoffs, 1)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), p.cutoffs[0])
}

func TestWorker_RunsEveryInterval(t *testing.T) {
	p := newRecordingPurger()
	p.err = errors.New("database down")
	w := NewWorker(p, time.Hour, 10*time.Millisecond, discard())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	for i := 0; i < 3; i++ {
		p.wait(t)
	}
}
