// Package protect resolves effective flag values and build permission for
// a point covered by zero or more overlapping, prioritized, inheriting
// regions. The spatial index decides which regions apply; this package
// only decides what they mean.
package protect

import (
	"math"

	"voxelward.ai/internal/protect/domain"
	"voxelward.ai/internal/protect/flag"
	"voxelward.ai/internal/protect/region"
)

// MembershipResult describes the outcome of FlagValueCalculator.GetMembership.
type MembershipResult int

const (
	// NoRegions: nothing counted; every applicable region (if any) was
	// passthrough.
	NoRegions MembershipResult = iota
	// MembershipFail: at least one counted region does not have the actor
	// as a member.
	MembershipFail
	// MembershipSuccess: the actor satisfies membership of every counted
	// region, directly or through a child.
	MembershipSuccess
)

func (m MembershipResult) String() string {
	switch m {
	case MembershipFail:
		return "fail"
	case MembershipSuccess:
		return "success"
	default:
		return "no_regions"
	}
}

// FlagValueCalculator computes effective flag values over one applicable
// set plus an optional global region. It holds borrowed read-only
// references for the duration of one query and keeps no state between
// queries; the caller guarantees the region graph is not mutated
// mid-query.
type FlagValueCalculator struct {
	applicable []*region.Region // sorted by descending priority
	global     *region.Region   // optional wilderness fallback
}

// NewFlagValueCalculator creates a calculator over an applicable set
// already sorted by non-increasing priority (equal priorities in any
// order) and an optional global region (nil for none).
func NewFlagValueCalculator(applicable []*region.Region, global *region.Region) *FlagValueCalculator {
	return &FlagValueCalculator{applicable: applicable, global: global}
}

// GetMembership reports whether the actor satisfies membership of every
// region that counts at this point. A region does not count when its
// effective passthrough flag is Allow. The actor must be non-nil.
//
// Overlapping parent/child regions are visited in priority order, not
// hierarchy order, so membership of a child must retroactively clear its
// ancestors no matter which is seen first. Two sets make the verdict
// order-independent: a counted region the actor is not in goes to
// needsClear; once the actor is found in a region, every ancestor is
// either removed from needsClear (parent seen first) or parked in
// hasCleared so it is skipped when it turns up later (child seen first).
// The verdict is Success iff needsClear ends empty.
func (c *FlagValueCalculator) GetMembership(actor domain.Actor) MembershipResult {
	minimumPriority := math.MinInt
	found := false

	needsClear := map[*region.Region]struct{}{}
	hasCleared := map[*region.Region]struct{}{}

	for _, reg := range c.applicable {
		// Lower priorities are irrelevant once any region has counted.
		if reg.Priority() < minimumPriority {
			break
		}

		if s, ok := c.GetEffectiveState(reg, flag.Passthrough, actor); ok && s == flag.Allow {
			continue
		}

		minimumPriority = reg.Priority()
		found = true

		if _, cleared := hasCleared[reg]; !cleared {
			if !reg.IsMember(actor) {
				needsClear[reg] = struct{}{}
			} else {
				clearParents(needsClear, hasCleared, reg)
			}
		}
	}

	if !found {
		return NoRegions
	}
	if len(needsClear) == 0 {
		return MembershipSuccess
	}
	return MembershipFail
}

// clearParents marks every ancestor of reg as satisfied: already-seen
// ancestors leave needsClear, not-yet-seen ones are parked in hasCleared.
func clearParents(needsClear, hasCleared map[*region.Region]struct{}, reg *region.Region) {
	for parent := reg.Parent(); parent != nil; parent = parent.Parent() {
		if _, ok := needsClear[parent]; ok {
			delete(needsClear, parent)
		} else {
			hasCleared[parent] = struct{}{}
		}
	}
}

// TestPermission decides whether the actor may build or interact here,
// considering the given state flags (typically flag.Build plus a
// context flag such as flag.ChestAccess). Membership of the governing
// regions grants access unless a flag explicitly denies; an explicit
// Allow can grant access even to a non-member; Deny overrides everything.
//
// With no counted regions, legacy wilderness semantics apply: a global
// region with any owners or members acts as a region covering the whole
// world: members get the usual membership grant, everyone else gets
// exactly the global region's own values for the flags (no inheritance,
// no group filter, no defaults). Without such a global region the result
// is the plain flag resolution with global/default fallback.
func (c *FlagValueCalculator) TestPermission(actor domain.Actor, flags ...*flag.StateFlag) flag.State {
	switch c.GetMembership(actor) {
	case MembershipSuccess:
		return flag.Combine(c.GetState(actor, flags...), flag.Allow)
	case MembershipFail:
		return c.GetState(actor, flags...)
	default: // NoRegions
		if c.global != nil && c.global.HasMembersOrOwners() {
			if c.global.IsMember(actor) {
				return flag.Combine(c.GetState(actor, flags...), flag.Allow)
			}
			// Intentionally reads the global region's own flag map:
			// no parent walk, no group filter, no default fallback.
			value := flag.Unset
			for _, f := range flags {
				if v, ok := c.global.Flag(f); ok {
					value = flag.Combine(value, v.(flag.State))
				}
				if value == flag.Deny {
					break
				}
			}
			return value
		}
		return c.GetStateWithFallback(actor, flags...)
	}
}

// GetState folds the effective values of the given state flags (Deny
// beats Allow beats Unset), never consulting the global region or flag
// defaults. It does not process build permission; use TestPermission for
// that. A nil actor restricts group-scoped values to actor-less
// selectors.
func (c *FlagValueCalculator) GetState(actor domain.Actor, flags ...*flag.StateFlag) flag.State {
	value := flag.Unset
	for _, f := range flags {
		value = flag.Combine(value, c.singleState(actor, f, false))
		if value == flag.Deny {
			break
		}
	}
	return value
}

// GetStateWithFallback is GetState, except that a flag with no regional
// value falls back to the global region's value and then the flag's
// default.
func (c *FlagValueCalculator) GetStateWithFallback(actor domain.Actor, flags ...*flag.StateFlag) flag.State {
	value := flag.Unset
	for _, f := range flags {
		value = flag.Combine(value, c.singleState(actor, f, true))
		if value == flag.Deny {
			break
		}
	}
	return value
}

func (c *FlagValueCalculator) singleState(actor domain.Actor, f *flag.StateFlag, fallback bool) flag.State {
	var v any
	var ok bool
	if fallback {
		v, ok = c.GetSingleValueWithFallback(actor, f)
	} else {
		v, ok = c.GetSingleValue(actor, f)
	}
	if !ok {
		return flag.Unset
	}
	if s, cast := v.(flag.State); cast {
		return s
	}
	return flag.Unset
}

// GetSingleValueWithFallback resolves one winning value for a flag,
// consulting (in order) the regions, then the global region's own value,
// then the flag's default. ok is false when all three are silent.
func (c *FlagValueCalculator) GetSingleValueWithFallback(actor domain.Actor, f flag.Flag) (any, bool) {
	if v, ok := c.GetSingleValue(actor, f); ok {
		return v, ok
	}
	if c.global != nil {
		if v, ok := c.global.Flag(f); ok {
			return v, true
		}
	}
	return f.Default()
}

// GetSingleValue resolves one winning value for a flag from the regions
// alone. Which of several surviving candidates wins is the flag type's
// policy; only state flags combine, other types pick one.
func (c *FlagValueCalculator) GetSingleValue(actor domain.Actor, f flag.Flag) (any, bool) {
	return f.Choose(c.GetValues(actor, f))
}

// GetValues collects the effective values of a flag from every region
// that counts, leaving only the child-most value per inheritance branch.
//
// The same order-independence problem as GetMembership applies: if both
// a child and its parent carry a value, only the child's may survive,
// whichever is visited first. consideredValues maps region to collected
// value; when a region's value is taken, each ancestor either has its
// already-collected value evicted (parent seen first) or is parked in
// ignoredRegions so its value is never collected (child seen first).
// Collection order follows the applicable set, so the surviving slice is
// deterministic for a given input order.
func (c *FlagValueCalculator) GetValues(actor domain.Actor, f flag.Flag) []any {
	minimumPriority := math.MinInt

	consideredValues := map[*region.Region]any{}
	ignoredRegions := map[*region.Region]struct{}{}
	var order []*region.Region

	for _, reg := range c.applicable {
		if reg.Priority() < minimumPriority {
			break
		}

		value, ok := c.GetEffectiveFlag(reg, f, actor)
		if !ok {
			continue
		}
		if _, ignored := ignoredRegions[reg]; ignored {
			continue
		}

		minimumPriority = reg.Priority()

		ignoreParentValues(consideredValues, ignoredRegions, reg)
		if _, seen := consideredValues[reg]; !seen {
			order = append(order, reg)
		}
		consideredValues[reg] = value

		// Deny absorbs; nothing below can change the outcome.
		if s, isState := value.(flag.State); isState && s == flag.Deny {
			break
		}
	}

	out := make([]any, 0, len(consideredValues))
	for _, reg := range order {
		if v, ok := consideredValues[reg]; ok {
			out = append(out, v)
		}
	}
	return out
}

// ignoreParentValues evicts every ancestor of reg from the collected
// values, parking not-yet-seen ancestors in ignoredRegions.
func ignoreParentValues(considered map[*region.Region]any, ignored map[*region.Region]struct{}, reg *region.Region) {
	for parent := reg.Parent(); parent != nil; parent = parent.Parent() {
		if _, ok := considered[parent]; ok {
			delete(considered, parent)
		} else {
			ignored[parent] = struct{}{}
		}
	}
}

// GetEffectiveFlag walks the parent chain from reg looking for a value
// for f. A node's value only counts if the flag's group selector (the
// node's own, or the selector flag's default) matches the actor against
// the membership of the *starting* region, since inheritance is about
// where a value lives, not who it targets. ok is false when the chain is
// exhausted.
func (c *FlagValueCalculator) GetEffectiveFlag(reg *region.Region, f flag.Flag, actor domain.Actor) (any, bool) {
	for current := reg; current != nil; current = current.Parent() {
		value, present := current.Flag(f)

		use := true
		if gf := f.RegionGroupFlag(); gf != nil {
			group := gf.DefaultGroup()
			if raw, ok := current.Flag(gf); ok {
				group = raw.(flag.RegionGroup)
			}
			if !group.Matches(reg, actor) {
				use = false
			}
		}

		if use && present {
			return value, true
		}
	}
	return nil, false
}

// GetEffectiveState is GetEffectiveFlag narrowed to a state flag.
func (c *FlagValueCalculator) GetEffectiveState(reg *region.Region, f *flag.StateFlag, actor domain.Actor) (flag.State, bool) {
	v, ok := c.GetEffectiveFlag(reg, f, actor)
	if !ok {
		return flag.Unset, false
	}
	return v.(flag.State), true
}
