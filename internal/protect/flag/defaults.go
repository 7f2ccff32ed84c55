package flag

// Built-in flags. Build intentionally has no default: its fallback
// behavior lives in the calculator's permission logic, not here.
var (
	Build       = NewStateFlag("build", Unset)
	Passthrough = NewStateFlag("passthrough", Unset)
	ChestAccess = NewStateFlag("chest-access", Unset)
	Use         = NewStateFlag("use", Unset)
	PVP         = NewStateFlag("pvp", Unset)
	Entry       = NewStateFlagWithGroup("entry", Allow, GroupNonMembers)
	Exit        = NewStateFlagWithGroup("exit", Allow, GroupNonMembers)
	Greeting    = NewStringFlag("greeting")
	Farewell    = NewStringFlag("farewell")
	HealAmount  = NewIntFlag("heal-amount")
	Price       = NewDoubleFlag("price")
)

// DefaultRegistry returns a registry holding the built-in flags plus
// their group companions, keyed for persistence lookups.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, f := range []Flag{
		Build, Passthrough, ChestAccess, Use, PVP, Entry, Exit,
		Greeting, Farewell, HealAmount, Price,
	} {
		if err := r.Register(f); err != nil {
			panic(err)
		}
		if gf := f.RegionGroupFlag(); gf != nil {
			if err := r.Register(gf); err != nil {
				panic(err)
			}
		}
	}
	return r
}
