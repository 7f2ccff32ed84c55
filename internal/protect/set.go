package protect

import (
	"voxelward.ai/internal/protect/domain"
	"voxelward.ai/internal/protect/flag"
	"voxelward.ai/internal/protect/region"
)

// RegionSet is the caller-facing view of the regions applicable at one
// point: the event layer asks it questions, it delegates to the
// calculator. The slice must already be sorted by descending priority
// (index.Manager.Applicable returns it that way).
type RegionSet struct {
	regions []*region.Region
	calc    *FlagValueCalculator
}

func NewRegionSet(applicable []*region.Region, global *region.Region) *RegionSet {
	return &RegionSet{
		regions: applicable,
		calc:    NewFlagValueCalculator(applicable, global),
	}
}

func (s *RegionSet) Size() int { return len(s.regions) }

// Regions returns the applicable regions in evaluation order.
func (s *RegionSet) Regions() []*region.Region {
	out := make([]*region.Region, len(s.regions))
	copy(out, s.regions)
	return out
}

// TestBuild reports whether the actor may place, break or modify blocks
// here. Extra context flags (chest access, use) ride along with the
// build flag.
func (s *RegionSet) TestBuild(actor domain.Actor, extra ...*flag.StateFlag) bool {
	flags := append([]*flag.StateFlag{flag.Build}, extra...)
	return s.calc.TestPermission(actor, flags...) == flag.Allow
}

// TestPermission is the raw tri-state build decision.
func (s *RegionSet) TestPermission(actor domain.Actor, flags ...*flag.StateFlag) flag.State {
	return s.calc.TestPermission(actor, flags...)
}

// TestState reports whether the combined value of the given non-build
// state flags resolves to Allow (with global/default fallback).
func (s *RegionSet) TestState(actor domain.Actor, flags ...*flag.StateFlag) bool {
	return s.QueryState(actor, flags...) == flag.Allow
}

// QueryState resolves the combined value of the given state flags with
// global/default fallback. actor may be nil for system queries.
func (s *RegionSet) QueryState(actor domain.Actor, flags ...*flag.StateFlag) flag.State {
	return s.calc.GetStateWithFallback(actor, flags...)
}

// QueryValue resolves one winning value for a flag with global/default
// fallback.
func (s *RegionSet) QueryValue(actor domain.Actor, f flag.Flag) (any, bool) {
	return s.calc.GetSingleValueWithFallback(actor, f)
}

// QueryAllValues returns every surviving candidate value for a flag,
// child-most per inheritance branch, no fallback.
func (s *RegionSet) QueryAllValues(actor domain.Actor, f flag.Flag) []any {
	return s.calc.GetValues(actor, f)
}

// Membership exposes the raw membership verdict.
func (s *RegionSet) Membership(actor domain.Actor) MembershipResult {
	return s.calc.GetMembership(actor)
}

// IsMemberOfAll reports whether the actor is a member of every region in
// the set, ignoring priorities, inheritance and passthrough.
func (s *RegionSet) IsMemberOfAll(actor domain.Actor) bool {
	for _, r := range s.regions {
		if !r.IsMember(actor) {
			return false
		}
	}
	return true
}

// IsOwnerOfAll reports whether the actor is an owner of every region in
// the set.
func (s *RegionSet) IsOwnerOfAll(actor domain.Actor) bool {
	for _, r := range s.regions {
		if !r.IsOwner(actor) {
			return false
		}
	}
	return true
}
