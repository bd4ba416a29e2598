package eventstore

import (
	"context"
	"fmt"
)

// Projection updates one read model from the event stream. Implementations
// must be safe to call from ProjectEvent repeatedly in stream order;
// nothing here guarantees exactly-once delivery.
type Projection interface {
	Name() string
	HandleEvent(ctx context.Context, event Event) error
}

// ProjectionManager fans an appended event out to every registered
// projection, synchronously, so a caller that waits on Append/ProjectEvent
// can rely on every read model being current before it returns (spec.md
// Sec.8: the read model must never lag the event it was built from).
// Projections are kept in a map keyed by name, so the order in which they
// are called is not defined.
type ProjectionManager struct {
	projections map[string]Projection
}

// NewProjectionManager returns an empty manager.
func NewProjectionManager() *ProjectionManager {
	return &ProjectionManager{
		projections: make(map[string]Projection),
	}
}

// RegisterProjection adds p, keyed by its own Name(). Registering a second
// projection under the same name replaces the first.
func (pm *ProjectionManager) RegisterProjection(p Projection) {
	pm.projections[p.Name()] = p
}

// ProjectEvent dispatches event to every registered projection, stopping at
// the first error.
func (pm *ProjectionManager) ProjectEvent(ctx context.Context, event Event) error {
	for name, p := range pm.projections {
		if err := p.HandleEvent(ctx, event); err != nil {
			return fmt.Errorf("projection %s failed to handle event %s: %w", name, event.ID, err)
		}
	}
	return nil
}
