package protect

import (
	"testing"

	"voxelward.ai/internal/protect/flag"
	"voxelward.ai/internal/protect/region"
)

func TestRegionSet_ChestExample(t *testing.T) {
	// The canonical chest interaction: permission if the actor is a
	// member, build allows, or chest-access allows; a deny on
	// either flag overrides all of it.
	town := region.New("town")
	town.Members().AddPlayer("alice")

	set := NewRegionSet([]*region.Region{town}, nil)
	if !set.TestBuild(actor("alice"), flag.ChestAccess) {
		t.Fatalf("member should open chests")
	}
	if set.TestBuild(actor("bob"), flag.ChestAccess) {
		t.Fatalf("stranger should not")
	}

	town.SetFlag(flag.ChestAccess, flag.Allow)
	if !set.TestBuild(actor("bob"), flag.ChestAccess) {
		t.Fatalf("chest-access allow should grant strangers")
	}

	town.SetFlag(flag.ChestAccess, flag.Deny)
	if set.TestBuild(actor("alice"), flag.ChestAccess) {
		t.Fatalf("deny overrides membership")
	}
}

func TestRegionSet_QueryState(t *testing.T) {
	arena := region.New("arena")
	arena.SetFlag(flag.PVP, flag.Allow)

	set := NewRegionSet([]*region.Region{arena}, nil)
	if !set.TestState(nil, flag.PVP) {
		t.Fatalf("pvp should resolve allow")
	}
	if got := set.QueryState(nil, flag.PVP); got != flag.Allow {
		t.Fatalf("state=%v want allow", got)
	}
}

func TestRegionSet_QueryValueFallback(t *testing.T) {
	global := region.NewGlobal()
	global.SetFlag(flag.Greeting, "welcome to the server")

	set := NewRegionSet(nil, global)
	v, ok := set.QueryValue(nil, flag.Greeting)
	if !ok || v != "welcome to the server" {
		t.Fatalf("got %v/%v want global greeting", v, ok)
	}
}

func TestRegionSet_MemberOwnerOfAll(t *testing.T) {
	a := region.New("a")
	a.Owners().AddPlayer("alice")
	b := region.New("b")
	b.Members().AddPlayer("alice")

	set := NewRegionSet([]*region.Region{a, b}, nil)
	if !set.IsMemberOfAll(actor("alice")) {
		t.Fatalf("alice is a member of both")
	}
	if set.IsOwnerOfAll(actor("alice")) {
		t.Fatalf("alice owns only one")
	}
	if set.Size() != 2 {
		t.Fatalf("size=%d want 2", set.Size())
	}
}
