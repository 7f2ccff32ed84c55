package domain

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Actor is a player (or player-like principal) being evaluated against
// region membership. Group names are compared case-insensitively.
type Actor interface {
	Name() string
	UniqueID() uuid.UUID
	Groups() []string
}

// Domain is one membership list of a region: individual players (by name
// and/or UUID) plus permission groups.
type Domain struct {
	names  map[string]struct{}
	ids    map[uuid.UUID]struct{}
	groups map[string]struct{}
}

func NewDomain() *Domain {
	return &Domain{
		names:  map[string]struct{}{},
		ids:    map[uuid.UUID]struct{}{},
		groups: map[string]struct{}{},
	}
}

func (d *Domain) AddPlayer(name string) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return
	}
	d.names[name] = struct{}{}
}

func (d *Domain) AddPlayerID(id uuid.UUID) {
	if id == uuid.Nil {
		return
	}
	d.ids[id] = struct{}{}
}

func (d *Domain) AddGroup(group string) {
	group = strings.ToLower(strings.TrimSpace(group))
	if group == "" {
		return
	}
	d.groups[group] = struct{}{}
}

func (d *Domain) RemovePlayer(name string) {
	delete(d.names, strings.ToLower(strings.TrimSpace(name)))
}

func (d *Domain) RemovePlayerID(id uuid.UUID) {
	delete(d.ids, id)
}

func (d *Domain) RemoveGroup(group string) {
	delete(d.groups, strings.ToLower(strings.TrimSpace(group)))
}

// Contains reports whether the actor is in the domain directly or through
// one of their groups.
func (d *Domain) Contains(actor Actor) bool {
	if actor == nil {
		return false
	}
	if _, ok := d.ids[actor.UniqueID()]; ok {
		return true
	}
	if _, ok := d.names[strings.ToLower(actor.Name())]; ok {
		return true
	}
	for _, g := range actor.Groups() {
		if _, ok := d.groups[strings.ToLower(g)]; ok {
			return true
		}
	}
	return false
}

func (d *Domain) Size() int {
	return len(d.names) + len(d.ids) + len(d.groups)
}

// Players returns the player names, sorted.
func (d *Domain) Players() []string {
	out := make([]string, 0, len(d.names))
	for n := range d.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// PlayerIDs returns the player UUIDs, sorted by string form.
func (d *Domain) PlayerIDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(d.ids))
	for id := range d.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Groups returns the group names, sorted.
func (d *Domain) Groups() []string {
	out := make([]string, 0, len(d.groups))
	for g := range d.groups {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}
