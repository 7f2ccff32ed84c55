package region

import (
	"errors"
	"strings"

	"voxelward.ai/internal/protect/domain"
	"voxelward.ai/internal/protect/flag"
)

// ErrCircularInheritance is returned by SetParent when the requested edge
// would make the parent chain cyclic. The region is left unchanged.
var ErrCircularInheritance = errors.New("circular inheritance detected")

// GlobalName is the reserved id of a world's global (wilderness fallback)
// region.
const GlobalName = "__global__"

// Region is one access-control node: a priority, an optional parent,
// a sparse flag map and owner/member domains. Geometry lives in the
// spatial index, not here; the engine only sees regions already known to
// contain the query point.
//
// Regions are not safe for mutation concurrent with evaluation; the host
// guards the graph (see index.Manager).
type Region struct {
	name     string
	global   bool
	priority int
	parent   *Region
	flags    map[string]any
	owners   *domain.Domain
	members  *domain.Domain
}

func New(name string) *Region {
	return &Region{
		name:    strings.ToLower(strings.TrimSpace(name)),
		flags:   map[string]any{},
		owners:  domain.NewDomain(),
		members: domain.NewDomain(),
	}
}

// NewGlobal creates the per-world wilderness fallback region. It has no
// parent and never enters an applicable set.
func NewGlobal() *Region {
	g := New(GlobalName)
	g.global = true
	return g
}

func (r *Region) Name() string   { return r.name }
func (r *Region) IsGlobal() bool { return r.global }

func (r *Region) Priority() int     { return r.priority }
func (r *Region) SetPriority(p int) { r.priority = p }

func (r *Region) Parent() *Region { return r.parent }

// SetParent links r under parent, rejecting self-parenting and cycles.
// A nil parent detaches. The check walks the candidate's ancestor chain
// before committing, so a failed call leaves r untouched.
func (r *Region) SetParent(parent *Region) error {
	if parent == nil {
		r.parent = nil
		return nil
	}
	if parent == r {
		return ErrCircularInheritance
	}
	for p := parent; p != nil; p = p.parent {
		if p == r {
			return ErrCircularInheritance
		}
	}
	r.parent = parent
	return nil
}

// Flag returns the region's own value for f, already narrowed to f's
// value type. A stored value of the wrong type reads as absent.
func (r *Region) Flag(f flag.Flag) (any, bool) {
	raw, ok := r.flags[f.Name()]
	if !ok {
		return nil, false
	}
	return f.Cast(raw)
}

// SetFlag stores a value for f; a nil value clears it.
func (r *Region) SetFlag(f flag.Flag, v any) {
	if v == nil {
		delete(r.flags, f.Name())
		return
	}
	r.flags[f.Name()] = v
}

// FlagNames returns the names of flags set directly on this region.
func (r *Region) FlagNames() []string {
	out := make([]string, 0, len(r.flags))
	for name := range r.flags {
		out = append(out, name)
	}
	return out
}

func (r *Region) Owners() *domain.Domain  { return r.owners }
func (r *Region) Members() *domain.Domain { return r.members }

func (r *Region) IsOwner(actor domain.Actor) bool {
	return r.owners.Contains(actor)
}

// IsMember reports plain membership; owners count as members.
func (r *Region) IsMember(actor domain.Actor) bool {
	return r.owners.Contains(actor) || r.members.Contains(actor)
}

func (r *Region) HasMembersOrOwners() bool {
	return r.owners.Size() > 0 || r.members.Size() > 0
}
