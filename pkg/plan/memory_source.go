package plan

import (
	"context"
	"maps"
	"sync"
)

type inMemSource struct {
	mu    sync.RWMutex
	plans []Plan
}

// NewInMemSource returns an in-memory Source with a deep copy of the given
// plans. Panics if no plans are provided so the catalog always has at
// least one valid entry.
func NewInMemSource(plans ...Plan) Source {
	if len(plans) < 1 {
		panic("at least one plan is required")
	}
	return &inMemSource{plans: clonePlans(plans)}
}

// Load returns a copy of all plans so callers cannot mutate the source.
func (s *inMemSource) Load(ctx context.Context) ([]Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePlans(s.plans), nil
}

func clonePlans(plans []Plan) []Plan {
	out := make([]Plan, len(plans))
	for i, p := range plans {
		p.Limits = maps.Clone(p.Limits)
		out[i] = p
	}
	return out
}
