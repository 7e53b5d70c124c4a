package job

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// BaselinePoller periodically refreshes baseline market data so the
// snapshot store always has something to overlay live ticks onto.
type BaselinePoller struct {
	tracer       trace.Tracer
	refresher    BaselineRefresher
	pollInterval time.Duration
}

type BaselineRefresher interface {
	RefreshBaseline(ctx context.Context) error
}

func NewBaselinePoller(tracer trace.Tracer, refresher BaselineRefresher, pollIntervalSecs int) *BaselinePoller {
	return &BaselinePoller{
		tracer:       tracer,
		refresher:    refresher,
		pollInterval: time.Duration(pollIntervalSecs) * time.Second,
	}
}

// Start runs the refresh loop. Blocks until ctx is cancelled.
func (p *BaselinePoller) Start(ctx context.Context) {
	log.Println("Baseline poller starting...")

	// Run immediately on start so consumers never wait a full interval
	// for first data
	if err := p.refresher.RefreshBaseline(ctx); err != nil {
		log.Printf("baseline initial refresh error: %v", err)
	}

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Baseline poller stopped")
			return
		case <-ticker.C:
			if err := p.refresher.RefreshBaseline(ctx); err != nil {
				log.Printf("baseline refresh error: %v", err)
			}
		}
	}
}
