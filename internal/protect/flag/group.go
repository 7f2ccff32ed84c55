package flag

import (
	"fmt"
	"strings"

	"voxelward.ai/internal/protect/domain"
)

// RegionGroup selects which actors a flag's value applies to.
type RegionGroup int

const (
	GroupAll RegionGroup = iota
	GroupMembers
	GroupOwners
	GroupNonMembers
	GroupNonOwners
	// GroupNone applies only to actor-less (system) evaluations.
	GroupNone
)

func (g RegionGroup) String() string {
	switch g {
	case GroupAll:
		return "all"
	case GroupMembers:
		return "members"
	case GroupOwners:
		return "owners"
	case GroupNonMembers:
		return "non_members"
	case GroupNonOwners:
		return "non_owners"
	case GroupNone:
		return "none"
	default:
		return fmt.Sprintf("region_group(%d)", int(g))
	}
}

// ParseRegionGroup accepts the serialized selector names, case-insensitive,
// with "-" treated as "_".
func ParseRegionGroup(raw string) (RegionGroup, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_") {
	case "all":
		return GroupAll, nil
	case "members":
		return GroupMembers, nil
	case "owners":
		return GroupOwners, nil
	case "non_members", "nonmembers":
		return GroupNonMembers, nil
	case "non_owners", "nonowners":
		return GroupNonOwners, nil
	case "none":
		return GroupNone, nil
	}
	return GroupAll, fmt.Errorf("unknown region group %q", raw)
}

// Membership is the subset of a region the group matcher needs. Owners
// count as members.
type Membership interface {
	IsOwner(actor domain.Actor) bool
	IsMember(actor domain.Actor) bool
}

// Matches reports whether the selector applies for the given actor against
// the given region membership. A nil actor means a system evaluation:
// member/owner scoped selectors fail closed, only GroupAll and GroupNone
// can match.
func (g RegionGroup) Matches(m Membership, actor domain.Actor) bool {
	switch g {
	case GroupAll:
		return true
	case GroupNone:
		return actor == nil
	case GroupOwners:
		return actor != nil && m.IsOwner(actor)
	case GroupMembers:
		return actor != nil && m.IsMember(actor)
	case GroupNonOwners:
		return actor != nil && !m.IsOwner(actor)
	case GroupNonMembers:
		return actor != nil && !m.IsMember(actor)
	default:
		return false
	}
}
