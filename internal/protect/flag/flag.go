package flag

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMalformedFlagValue wraps parse failures from Unmarshal. The
// persistence layer recovers from it per flag (skip and log); it never
// reaches the calculator.
var ErrMalformedFlagValue = errors.New("malformed flag value")

// Flag is an immutable descriptor for one typed region attribute. Values
// travel type-erased through region flag maps; each method narrows or
// produces values of the flag's concrete type.
type Flag interface {
	Name() string

	// RegionGroupFlag returns the companion selector flag restricting
	// which actors this flag's value applies to, or nil.
	RegionGroupFlag() *RegionGroupFlag

	// Default returns the flag's default value; ok is false when the
	// flag has no default.
	Default() (any, bool)

	// Cast narrows an erased value to the flag's value type. ok=false
	// means the value is to be treated as absent, never as an error.
	Cast(raw any) (any, bool)

	// Choose picks one winning value from candidates; ok=false when
	// candidates is empty. Only state flags have a meaningful strategy;
	// other types return the first candidate (arbitrary but stable for
	// a given applicable-set order).
	Choose(values []any) (any, bool)

	// Unmarshal parses a stored raw value into the flag's value type.
	Unmarshal(raw any) (any, error)

	// Marshal converts a typed value back to its stored form.
	Marshal(v any) any
}

// Registry maps flag names to descriptors. Lookup is case-insensitive
// with "-" and "_" interchangeable.
type Registry struct {
	flags map[string]Flag
}

func NewRegistry() *Registry {
	return &Registry{flags: map[string]Flag{}}
}

func canonical(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}

func (r *Registry) Register(f Flag) error {
	key := canonical(f.Name())
	if key == "" {
		return fmt.Errorf("empty flag name")
	}
	if _, ok := r.flags[key]; ok {
		return fmt.Errorf("flag %q already registered", f.Name())
	}
	r.flags[key] = f
	return nil
}

func (r *Registry) Get(name string) (Flag, bool) {
	f, ok := r.flags[canonical(name)]
	return f, ok
}

// All returns the registered flags sorted by name.
func (r *Registry) All() []Flag {
	out := make([]Flag, 0, len(r.flags))
	for _, f := range r.flags {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
