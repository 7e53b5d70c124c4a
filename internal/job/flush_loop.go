package job

import (
	"context"
	"log"
	"time"

	"coinpulse/internal/domain"
)

// TickSource is the buffer side of the flush cycle.
type TickSource interface {
	Flush() map[string]domain.Tick
}

// FlushTarget is the store side of the flush cycle.
type FlushTarget interface {
	ApplyFlush(batch map[string]domain.Tick)
}

// FlushLoop drains buffered ticks into the snapshot store on a fixed
// interval, bounding downstream recomputation to wall-clock time instead
// of tick volume. Staleness up to one interval is the accepted trade.
type FlushLoop struct {
	source   TickSource
	target   FlushTarget
	interval time.Duration
}

func NewFlushLoop(source TickSource, target FlushTarget, interval time.Duration) *FlushLoop {
	if interval <= 0 {
		interval = 1750 * time.Millisecond
	}
	return &FlushLoop{source: source, target: target, interval: interval}
}

// Start runs the flush cycle. Blocks until ctx is cancelled; a final
// drain on shutdown is pointless since the store dies with the process.
func (f *FlushLoop) Start(ctx context.Context) {
	log.Printf("Flush loop starting (interval %v)", f.interval)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Flush loop stopped")
			return
		case <-ticker.C:
			if batch := f.source.Flush(); len(batch) > 0 {
				f.target.ApplyFlush(batch)
			}
		}
	}
}
