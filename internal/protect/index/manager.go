// Package index holds the per-world region table. It owns the locking
// discipline that keeps queries off a half-mutated region graph; the
// geometry that decides which regions contain a point is supplied by the
// host.
package index

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"voxelward.ai/internal/protect"
	"voxelward.ai/internal/protect/region"
)

// SpatialQuery is the host-supplied containment test. Implementations
// hold the region geometry this module deliberately does not model.
type SpatialQuery interface {
	AppliesAt(r *region.Region, x, y, z int) bool
}

// SpatialQueryFunc adapts a function to SpatialQuery.
type SpatialQueryFunc func(r *region.Region, x, y, z int) bool

func (f SpatialQueryFunc) AppliesAt(r *region.Region, x, y, z int) bool {
	return f(r, x, y, z)
}

// MutationFunc receives one table mutation for the audit trail
// (store.MutationLog is the usual sink).
type MutationFunc func(regionName, action, detail string)

// Manager is one world's region table. Reads (queries) take the read
// lock; every mutation of the table or of a contained region must go
// through Mutate so queries never observe a half-applied change.
type Manager struct {
	mu      sync.RWMutex
	regions map[string]*region.Region
	global  *region.Region
	spatial SpatialQuery
	record  MutationFunc
}

func NewManager(spatial SpatialQuery) *Manager {
	return &Manager{
		regions: map[string]*region.Region{},
		spatial: spatial,
	}
}

// SetMutationFunc installs the audit hook. Set it before the manager is
// shared between goroutines.
func (m *Manager) SetMutationFunc(fn MutationFunc) {
	m.record = fn
}

func (m *Manager) recordMutation(regionName, action, detail string) {
	if m.record != nil {
		m.record(regionName, action, detail)
	}
}

func (m *Manager) Add(r *region.Region) error {
	if r == nil {
		return fmt.Errorf("nil region")
	}
	name := strings.ToLower(strings.TrimSpace(r.Name()))
	if name == "" {
		return fmt.Errorf("empty region name")
	}
	if name == region.GlobalName || r.IsGlobal() {
		return fmt.Errorf("global region must be set via SetGlobal")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.regions[name]; ok {
		return fmt.Errorf("region %q already exists", name)
	}
	m.regions[name] = r
	m.recordMutation(name, "add", fmt.Sprintf("priority=%d", r.Priority()))
	return nil
}

// Remove deletes a region, detaching any children that inherit from it.
func (m *Manager) Remove(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))

	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.regions[name]
	if !ok {
		return false
	}
	delete(m.regions, name)
	for _, other := range m.regions {
		if other.Parent() == r {
			_ = other.SetParent(nil)
			m.recordMutation(other.Name(), "detach-parent", "parent "+name+" removed")
		}
	}
	m.recordMutation(name, "remove", "")
	return true
}

func (m *Manager) Get(name string) (*region.Region, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.regions[strings.ToLower(strings.TrimSpace(name))]
	return r, ok
}

func (m *Manager) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.regions)
}

func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.regions))
	for name := range m.regions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// All returns every region sorted by descending priority, name as tie
// break.
func (m *Manager) All() []*region.Region {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortRegions(m.regions, nil)
}

func (m *Manager) SetGlobal(r *region.Region) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.global = r
}

func (m *Manager) Global() *region.Region {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.global
}

// Mutate runs fn under the write lock. Region edits (flags, parents,
// domains) go through here so concurrent queries observe a stable graph.
func (m *Manager) Mutate(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
}

// ApplicableAt returns the evaluation-ready set of regions containing
// the given point: spatially filtered, deduplicated by name, sorted by
// descending priority. The global region never enters the set; it rides
// along as the calculator's fallback.
//
// The returned set evaluates against the live region graph, so it must
// not outlive the next Mutate. Callers racing with writers use Query.
func (m *Manager) ApplicableAt(x, y, z int) *protect.RegionSet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.applicableLocked(x, y, z)
}

// Query evaluates fn against the applicable set at the given point while
// holding the read lock, so the whole evaluation sees one consistent
// graph even with concurrent Mutate callers. fn must not call back into
// the manager.
func (m *Manager) Query(x, y, z int, fn func(*protect.RegionSet)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn(m.applicableLocked(x, y, z))
}

func (m *Manager) applicableLocked(x, y, z int) *protect.RegionSet {
	filter := func(r *region.Region) bool {
		return m.spatial == nil || m.spatial.AppliesAt(r, x, y, z)
	}
	return protect.NewRegionSet(sortRegions(m.regions, filter), m.global)
}

func sortRegions(regions map[string]*region.Region, filter func(*region.Region) bool) []*region.Region {
	out := make([]*region.Region, 0, len(regions))
	for _, r := range regions {
		if filter == nil || filter(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority() != out[j].Priority() {
			return out[i].Priority() > out[j].Priority()
		}
		return out[i].Name() < out[j].Name()
	})
	return out
}
