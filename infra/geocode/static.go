// Package geocode provides a table-backed geocoder for tests, demos and
// deployments that pre-resolve their service area. Production deployments
// plug a real geocoding client into the same interface.
package geocode

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/fieldserve/dispatch/core/model"
)

// Static resolves addresses from a fixed table. Lookup is case-insensitive.
type Static struct {
	mu     sync.RWMutex
	points map[string]model.Point
}

// NewStatic creates a Static geocoder from the given table.
func NewStatic(points map[string]model.Point) *Static {
	table := make(map[string]model.Point, len(points))
	for k, v := range points {
		table[normalize(k)] = v
	}
	return &Static{points: table}
}

// Put adds or replaces an address.
func (s *Static) Put(address string, p model.Point) {
	s.mu.Lock()
	s.points[normalize(address)] = p
	s.mu.Unlock()
}

// GeocodeAddress implements geo.Geocoder.
func (s *Static) GeocodeAddress(_ context.Context, address string) (model.Point, error) {
	s.mu.RLock()
	p, ok := s.points[normalize(address)]
	s.mu.RUnlock()
	if !ok {
		return model.Point{}, fmt.Errorf("address %q not found", address)
	}
	return p, nil
}

func normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
