package presence

import (
	"context"
	"log"
	"time"

	"bodygoal/internal/observability"
	"bodygoal/internal/realtime"
)

// Reconciler flips abandoned online records to offline. The update predicate
// is self-stabilizing (a flipped row no longer matches), so the sweep is
// idempotent and safe to run concurrently from many instances without
// coordination.
type Reconciler struct {
	store     Store
	events    realtime.Publisher
	interval  time.Duration
	threshold time.Duration
	now       func() time.Time
}

// NewReconciler builds a sweep with the default interval and threshold.
func NewReconciler(store Store, events realtime.Publisher) *Reconciler {
	return &Reconciler{
		store:     store,
		events:    events,
		interval:  SweepInterval,
		threshold: CleanupThreshold,
		now:       time.Now,
	}
}

// Sweep performs one pass and returns how many records it flipped.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	now := r.now()
	flipped, err := r.store.SweepStale(ctx, now.Add(-r.threshold), now)
	if err != nil {
		return 0, err
	}

	observability.AddPresenceSweepFlips(len(flipped))
	if r.events != nil {
		for _, rec := range flipped {
			if ev, err := realtime.Update(realtime.TablePresence, nil, rec); err == nil {
				r.events.PublishChange(ctx, ev)
			}
		}
	}
	return len(flipped), nil
}

// Run sweeps on the interval until ctx is done. Errors are logged and
// dropped; the next pass retries from scratch.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				log.Printf("presence sweep failed: %v", err)
			}
		}
	}
}
