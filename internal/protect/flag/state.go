package flag

// State is the three-valued permission domain. The zero value is Unset,
// which is a first-class lattice element, not an error.
type State int

const (
	Unset State = iota
	Allow
	Deny
)

func (s State) String() string {
	switch s {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "unset"
	}
}

// Combine folds two states: Deny absorbs everything, Allow absorbs Unset.
// Commutative and associative, so fold order does not matter.
func Combine(a, b State) State {
	if a == Deny || b == Deny {
		return Deny
	}
	if a == Allow || b == Allow {
		return Allow
	}
	return Unset
}

// CombineAll folds a slice of states, short-circuiting on Deny.
func CombineAll(states []State) State {
	out := Unset
	for _, s := range states {
		out = Combine(out, s)
		if out == Deny {
			break
		}
	}
	return out
}
