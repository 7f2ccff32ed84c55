package protect

import (
	"testing"

	"github.com/google/uuid"

	"voxelward.ai/internal/protect/domain"
	"voxelward.ai/internal/protect/flag"
	"voxelward.ai/internal/protect/region"
)

func actor(name string, groups ...string) domain.Actor {
	return &domain.Player{
		PlayerName: name,
		ID:         uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)),
		GroupNames: groups,
	}
}

func TestGetMembership_NoRegions(t *testing.T) {
	calc := NewFlagValueCalculator(nil, nil)
	if got := calc.GetMembership(actor("alice")); got != NoRegions {
		t.Fatalf("membership=%v want no_regions", got)
	}
}

func TestGetMembership_OrderIndependence(t *testing.T) {
	// Parent and child share priority 1; the actor is a member of only
	// the child. Membership must be Success whichever is visited first.
	build := func(childFirst bool) []*region.Region {
		parent := region.New("parent")
		parent.SetPriority(1)
		child := region.New("child")
		child.SetPriority(1)
		if err := child.SetParent(parent); err != nil {
			t.Fatalf("set parent: %v", err)
		}
		child.Members().AddPlayer("alice")
		if childFirst {
			return []*region.Region{child, parent}
		}
		return []*region.Region{parent, child}
	}

	for _, childFirst := range []bool{true, false} {
		calc := NewFlagValueCalculator(build(childFirst), nil)
		if got := calc.GetMembership(actor("alice")); got != MembershipSuccess {
			t.Fatalf("childFirst=%v membership=%v want success", childFirst, got)
		}
	}
}

func TestGetMembership_FailWhenNotMemberOfAll(t *testing.T) {
	a := region.New("a")
	b := region.New("b")
	a.Members().AddPlayer("alice")

	calc := NewFlagValueCalculator([]*region.Region{a, b}, nil)
	if got := calc.GetMembership(actor("alice")); got != MembershipFail {
		t.Fatalf("membership=%v want fail", got)
	}
}

func TestGetMembership_PriorityCutoff(t *testing.T) {
	// Membership of the priority-5 region decides; the priority-1 region
	// the actor is not in must not be consulted.
	high := region.New("high")
	high.SetPriority(5)
	high.Members().AddPlayer("alice")
	low := region.New("low")
	low.SetPriority(1)

	calc := NewFlagValueCalculator([]*region.Region{high, low}, nil)
	if got := calc.GetMembership(actor("alice")); got != MembershipSuccess {
		t.Fatalf("membership=%v want success", got)
	}
}

func TestGetMembership_PassthroughTransparent(t *testing.T) {
	pass := region.New("road")
	pass.SetFlag(flag.Passthrough, flag.Allow)

	calc := NewFlagValueCalculator([]*region.Region{pass}, nil)
	if got := calc.GetMembership(actor("alice")); got != NoRegions {
		t.Fatalf("membership=%v want no_regions", got)
	}

	// A passthrough region must never flip a verdict to Fail.
	town := region.New("town")
	town.Members().AddPlayer("alice")
	calc = NewFlagValueCalculator([]*region.Region{town, pass}, nil)
	if got := calc.GetMembership(actor("alice")); got != MembershipSuccess {
		t.Fatalf("membership=%v want success", got)
	}
}

func TestGetMembership_GroupMembership(t *testing.T) {
	r := region.New("guildhall")
	r.Members().AddGroup("builders")

	calc := NewFlagValueCalculator([]*region.Region{r}, nil)
	if got := calc.GetMembership(actor("alice", "builders")); got != MembershipSuccess {
		t.Fatalf("membership=%v want success", got)
	}
	if got := calc.GetMembership(actor("bob")); got != MembershipFail {
		t.Fatalf("membership=%v want fail", got)
	}
}

func TestGetValues_PriorityCutoff(t *testing.T) {
	high := region.New("high")
	high.SetPriority(5)
	high.SetFlag(flag.PVP, flag.Deny)
	low := region.New("low")
	low.SetPriority(1)
	low.SetFlag(flag.PVP, flag.Allow)

	calc := NewFlagValueCalculator([]*region.Region{high, low}, nil)
	values := calc.GetValues(nil, flag.PVP)
	if len(values) != 1 || values[0] != flag.Deny {
		t.Fatalf("values=%v want [deny]", values)
	}
}

func TestGetValues_ChildWins(t *testing.T) {
	parent := region.New("parent")
	parent.SetFlag(flag.Greeting, "welcome to parent")
	child := region.New("child")
	child.SetFlag(flag.Greeting, "welcome to child")
	if err := child.SetParent(parent); err != nil {
		t.Fatalf("set parent: %v", err)
	}

	for _, order := range [][]*region.Region{
		{child, parent},
		{parent, child},
	} {
		calc := NewFlagValueCalculator(order, nil)
		values := calc.GetValues(nil, flag.Greeting)
		if len(values) != 1 || values[0] != "welcome to child" {
			t.Fatalf("order=%v values=%v want [welcome to child]", order, values)
		}
	}
}

func TestGetValues_InheritedValueCounts(t *testing.T) {
	parent := region.New("parent")
	parent.SetFlag(flag.PVP, flag.Deny)
	child := region.New("child")
	if err := child.SetParent(parent); err != nil {
		t.Fatalf("set parent: %v", err)
	}

	// Only the child is applicable; the parent's value reaches it
	// through the effective-flag walk.
	calc := NewFlagValueCalculator([]*region.Region{child}, nil)
	values := calc.GetValues(nil, flag.PVP)
	if len(values) != 1 || values[0] != flag.Deny {
		t.Fatalf("values=%v want [deny]", values)
	}
}

func TestGetValues_EqualPrioritySiblings(t *testing.T) {
	a := region.New("a")
	a.SetFlag(flag.Greeting, "from a")
	b := region.New("b")
	b.SetFlag(flag.Greeting, "from b")

	calc := NewFlagValueCalculator([]*region.Region{a, b}, nil)
	values := calc.GetValues(nil, flag.Greeting)
	if len(values) != 2 {
		t.Fatalf("values=%v want two candidates", values)
	}
	// Choose is arbitrary for strings but must follow collection order.
	if v, ok := flag.Greeting.Choose(values); !ok || v != "from a" {
		t.Fatalf("chose %v want 'from a'", v)
	}
}

func TestGetEffectiveFlag_GroupGateContinuesUpward(t *testing.T) {
	// The child's value is scoped to members; a non-member's query must
	// keep walking to the parent instead of stopping silent.
	parent := region.New("parent")
	parent.SetFlag(flag.PVP, flag.Deny)
	child := region.New("child")
	child.SetFlag(flag.PVP, flag.Allow)
	child.SetFlag(flag.PVP.RegionGroupFlag(), flag.GroupMembers)
	if err := child.SetParent(parent); err != nil {
		t.Fatalf("set parent: %v", err)
	}
	child.Members().AddPlayer("alice")

	calc := NewFlagValueCalculator([]*region.Region{child}, nil)

	if v, ok := calc.GetEffectiveState(child, flag.PVP, actor("alice")); !ok || v != flag.Allow {
		t.Fatalf("member got %v/%v want allow", v, ok)
	}
	if v, ok := calc.GetEffectiveState(child, flag.PVP, actor("bob")); !ok || v != flag.Deny {
		t.Fatalf("non-member got %v/%v want deny from parent", v, ok)
	}
}

func TestGetEffectiveFlag_GroupUsesStartingRegion(t *testing.T) {
	// The value lives on the parent, scoped to members. Membership is
	// evaluated against the starting (child) region, so a child member
	// sees the parent's value even without parent membership.
	parent := region.New("parent")
	parent.SetFlag(flag.PVP, flag.Allow)
	parent.SetFlag(flag.PVP.RegionGroupFlag(), flag.GroupMembers)
	child := region.New("child")
	if err := child.SetParent(parent); err != nil {
		t.Fatalf("set parent: %v", err)
	}
	child.Members().AddPlayer("alice")

	calc := NewFlagValueCalculator([]*region.Region{child}, nil)
	if v, ok := calc.GetEffectiveState(child, flag.PVP, actor("alice")); !ok || v != flag.Allow {
		t.Fatalf("got %v/%v want allow", v, ok)
	}
}

func TestGetEffectiveFlag_NoActorFailsClosed(t *testing.T) {
	r := region.New("spawn")
	r.SetFlag(flag.PVP, flag.Deny)
	r.SetFlag(flag.PVP.RegionGroupFlag(), flag.GroupMembers)

	calc := NewFlagValueCalculator([]*region.Region{r}, nil)
	if _, ok := calc.GetEffectiveFlag(r, flag.PVP, nil); ok {
		t.Fatalf("member-scoped flag should be invisible without an actor")
	}
}

func TestGetSingleValueWithFallback_Order(t *testing.T) {
	global := region.NewGlobal()
	global.SetFlag(flag.PVP, flag.Deny)

	// Regional value wins over global.
	r := region.New("arena")
	r.SetFlag(flag.PVP, flag.Allow)
	calc := NewFlagValueCalculator([]*region.Region{r}, global)
	if v, ok := calc.GetSingleValueWithFallback(nil, flag.PVP); !ok || v != flag.Allow {
		t.Fatalf("got %v/%v want allow", v, ok)
	}

	// No regional value: global wins over the default.
	calc = NewFlagValueCalculator(nil, global)
	if v, ok := calc.GetSingleValueWithFallback(nil, flag.PVP); !ok || v != flag.Deny {
		t.Fatalf("got %v/%v want deny", v, ok)
	}

	// No global value either: the default applies.
	calc = NewFlagValueCalculator(nil, region.NewGlobal())
	if v, ok := calc.GetSingleValueWithFallback(nil, flag.Entry); !ok || v != flag.Allow {
		t.Fatalf("got %v/%v want allow default", v, ok)
	}
}

func TestTestPermission_MemberGetsAllow(t *testing.T) {
	town := region.New("town")
	town.Members().AddPlayer("alice")

	calc := NewFlagValueCalculator([]*region.Region{town}, nil)
	if got := calc.TestPermission(actor("alice"), flag.Build); got != flag.Allow {
		t.Fatalf("permission=%v want allow", got)
	}
}

func TestTestPermission_NonMemberUnset(t *testing.T) {
	// One counted region, actor not a member, build unset: membership
	// fails and no fallback applies.
	town := region.New("town")
	town.Members().AddPlayer("alice")

	calc := NewFlagValueCalculator([]*region.Region{town}, nil)
	if got := calc.GetMembership(actor("bob")); got != MembershipFail {
		t.Fatalf("membership=%v want fail", got)
	}
	if got := calc.TestPermission(actor("bob"), flag.Build); got != flag.Unset {
		t.Fatalf("permission=%v want unset", got)
	}
}

func TestTestPermission_ExplicitAllowBeatsNonMembership(t *testing.T) {
	town := region.New("town")
	town.Members().AddPlayer("alice")
	town.SetFlag(flag.Build, flag.Allow)

	calc := NewFlagValueCalculator([]*region.Region{town}, nil)
	if got := calc.TestPermission(actor("bob"), flag.Build); got != flag.Allow {
		t.Fatalf("permission=%v want allow", got)
	}
}

func TestTestPermission_DenyOverridesMembership(t *testing.T) {
	town := region.New("town")
	town.Members().AddPlayer("alice")
	town.SetFlag(flag.ChestAccess, flag.Deny)

	calc := NewFlagValueCalculator([]*region.Region{town}, nil)
	if got := calc.TestPermission(actor("alice"), flag.Build, flag.ChestAccess); got != flag.Deny {
		t.Fatalf("permission=%v want deny", got)
	}
}

func TestTestPermission_WildernessDefaultAllow(t *testing.T) {
	allowByDefault := flag.NewStateFlag("test-build", flag.Allow)

	calc := NewFlagValueCalculator(nil, nil)
	if got := calc.TestPermission(actor("alice"), allowByDefault); got != flag.Allow {
		t.Fatalf("permission=%v want allow", got)
	}
}

func TestTestPermission_GlobalWithMembers(t *testing.T) {
	global := region.NewGlobal()
	global.Owners().AddPlayer("alice")

	calc := NewFlagValueCalculator(nil, global)

	// Members of the global region get the membership grant.
	if got := calc.TestPermission(actor("alice"), flag.Build); got != flag.Allow {
		t.Fatalf("alice=%v want allow", got)
	}

	// Non-members get exactly the global region's own values: no flag
	// set means Unset, even for a flag whose default is Allow.
	allowByDefault := flag.NewStateFlag("test-build", flag.Allow)
	if got := calc.TestPermission(actor("bob"), allowByDefault); got != flag.Unset {
		t.Fatalf("bob=%v want unset", got)
	}

	global.SetFlag(flag.Build, flag.Deny)
	if got := calc.TestPermission(actor("bob"), flag.Build); got != flag.Deny {
		t.Fatalf("bob=%v want deny", got)
	}
}

func TestTestPermission_GlobalIgnoredWhenRegionsCount(t *testing.T) {
	global := region.NewGlobal()
	global.SetFlag(flag.Build, flag.Allow)
	global.Owners().AddPlayer("bob")

	town := region.New("town")
	town.Members().AddPlayer("alice")

	calc := NewFlagValueCalculator([]*region.Region{town}, global)
	if got := calc.TestPermission(actor("bob"), flag.Build); got != flag.Unset {
		t.Fatalf("permission=%v want unset (global must not apply)", got)
	}
}

func TestTestPermission_GlobalWithoutMembersFallsThrough(t *testing.T) {
	global := region.NewGlobal()
	global.SetFlag(flag.Build, flag.Deny)

	calc := NewFlagValueCalculator(nil, global)
	if got := calc.TestPermission(actor("alice"), flag.Build); got != flag.Deny {
		t.Fatalf("permission=%v want deny via fallback", got)
	}
}
