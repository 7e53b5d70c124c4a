package stream

import (
	"sync"

	"coinpulse/internal/domain"
)

// Buffer coalesces inbound ticks between flushes. Within a flush window
// the last tick recorded for an asset wins; intermediate ticks are not
// queued. This bounds downstream recomputation to the flush rate rather
// than the feed's tick rate.
type Buffer struct {
	mu      sync.Mutex
	pending map[string]domain.Tick
}

func NewBuffer() *Buffer {
	return &Buffer{pending: make(map[string]domain.Tick)}
}

// Record stores the tick for an asset, replacing any pending one.
func (b *Buffer) Record(assetID string, tick domain.Tick) {
	b.mu.Lock()
	b.pending[assetID] = tick
	b.mu.Unlock()
}

// Flush atomically drains and returns the pending ticks. Returns nil when
// nothing was recorded since the last flush.
func (b *Buffer) Flush() map[string]domain.Tick {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.pending) == 0 {
		return nil
	}
	drained := b.pending
	b.pending = make(map[string]domain.Tick)
	return drained
}

// Len reports the number of assets with a pending tick.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
