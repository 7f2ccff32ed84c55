package flag

import (
	"fmt"
	"strconv"
	"strings"
)

// StateFlag is the tri-state permission flag type. A stored value is
// always Allow or Deny; Unset is expressed by absence.
type StateFlag struct {
	name  string
	def   State
	group *RegionGroupFlag
}

// NewStateFlag creates a state flag. def may be Unset for no default.
func NewStateFlag(name string, def State) *StateFlag {
	return NewStateFlagWithGroup(name, def, GroupAll)
}

// NewStateFlagWithGroup creates a state flag whose group companion
// defaults to a selector other than GroupAll (entry/exit style flags).
func NewStateFlagWithGroup(name string, def State, groupDef RegionGroup) *StateFlag {
	return &StateFlag{
		name:  name,
		def:   def,
		group: NewRegionGroupFlag(name+"-group", groupDef),
	}
}

func (f *StateFlag) Name() string                      { return f.name }
func (f *StateFlag) RegionGroupFlag() *RegionGroupFlag { return f.group }

func (f *StateFlag) Default() (any, bool) {
	if f.def == Unset {
		return nil, false
	}
	return f.def, true
}

func (f *StateFlag) Cast(raw any) (any, bool) {
	s, ok := raw.(State)
	if !ok || s == Unset {
		return nil, false
	}
	return s, true
}

// Choose folds candidates with Combine; Deny wins over Allow.
func (f *StateFlag) Choose(values []any) (any, bool) {
	out := Unset
	for _, v := range values {
		s, ok := v.(State)
		if !ok {
			continue
		}
		out = Combine(out, s)
		if out == Deny {
			break
		}
	}
	if out == Unset {
		return nil, false
	}
	return out, true
}

func (f *StateFlag) Unmarshal(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s: want allow/deny, got %T", ErrMalformedFlagValue, f.name, raw)
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "allow":
		return Allow, nil
	case "deny":
		return Deny, nil
	}
	return nil, fmt.Errorf("%w: %s: want allow/deny, got %q", ErrMalformedFlagValue, f.name, s)
}

func (f *StateFlag) Marshal(v any) any {
	if s, ok := v.(State); ok {
		return s.String()
	}
	return nil
}

// BoolFlag holds a plain boolean (not a permission; no lattice).
type BoolFlag struct {
	name  string
	group *RegionGroupFlag
}

func NewBoolFlag(name string) *BoolFlag {
	return &BoolFlag{name: name, group: NewRegionGroupFlag(name+"-group", GroupAll)}
}

func (f *BoolFlag) Name() string                      { return f.name }
func (f *BoolFlag) RegionGroupFlag() *RegionGroupFlag { return f.group }
func (f *BoolFlag) Default() (any, bool)              { return nil, false }

func (f *BoolFlag) Cast(raw any) (any, bool) {
	b, ok := raw.(bool)
	if !ok {
		return nil, false
	}
	return b, true
}

func (f *BoolFlag) Choose(values []any) (any, bool) { return firstValue(values) }

func (f *BoolFlag) Unmarshal(raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %q", ErrMalformedFlagValue, f.name, v)
		}
		return b, nil
	}
	return nil, fmt.Errorf("%w: %s: want bool, got %T", ErrMalformedFlagValue, f.name, raw)
}

func (f *BoolFlag) Marshal(v any) any { return v }

// IntFlag holds an int64.
type IntFlag struct {
	name  string
	group *RegionGroupFlag
}

func NewIntFlag(name string) *IntFlag {
	return &IntFlag{name: name, group: NewRegionGroupFlag(name+"-group", GroupAll)}
}

func (f *IntFlag) Name() string                      { return f.name }
func (f *IntFlag) RegionGroupFlag() *RegionGroupFlag { return f.group }
func (f *IntFlag) Default() (any, bool)              { return nil, false }

func (f *IntFlag) Cast(raw any) (any, bool) {
	n, ok := raw.(int64)
	if !ok {
		return nil, false
	}
	return n, true
}

func (f *IntFlag) Choose(values []any) (any, bool) { return firstValue(values) }

func (f *IntFlag) Unmarshal(raw any) (any, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		if v != float64(int64(v)) {
			return nil, fmt.Errorf("%w: %s: %v is not an integer", ErrMalformedFlagValue, f.name, v)
		}
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %q", ErrMalformedFlagValue, f.name, v)
		}
		return n, nil
	}
	return nil, fmt.Errorf("%w: %s: want integer, got %T", ErrMalformedFlagValue, f.name, raw)
}

func (f *IntFlag) Marshal(v any) any { return v }

// DoubleFlag holds a float64.
type DoubleFlag struct {
	name  string
	group *RegionGroupFlag
}

func NewDoubleFlag(name string) *DoubleFlag {
	return &DoubleFlag{name: name, group: NewRegionGroupFlag(name+"-group", GroupAll)}
}

func (f *DoubleFlag) Name() string                      { return f.name }
func (f *DoubleFlag) RegionGroupFlag() *RegionGroupFlag { return f.group }
func (f *DoubleFlag) Default() (any, bool)              { return nil, false }

func (f *DoubleFlag) Cast(raw any) (any, bool) {
	x, ok := raw.(float64)
	if !ok {
		return nil, false
	}
	return x, true
}

func (f *DoubleFlag) Choose(values []any) (any, bool) { return firstValue(values) }

func (f *DoubleFlag) Unmarshal(raw any) (any, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case string:
		x, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %q", ErrMalformedFlagValue, f.name, v)
		}
		return x, nil
	}
	return nil, fmt.Errorf("%w: %s: want number, got %T", ErrMalformedFlagValue, f.name, raw)
}

func (f *DoubleFlag) Marshal(v any) any { return v }

// StringFlag holds free text (greetings, farewells).
type StringFlag struct {
	name  string
	group *RegionGroupFlag
}

func NewStringFlag(name string) *StringFlag {
	return &StringFlag{name: name, group: NewRegionGroupFlag(name+"-group", GroupAll)}
}

func (f *StringFlag) Name() string                      { return f.name }
func (f *StringFlag) RegionGroupFlag() *RegionGroupFlag { return f.group }
func (f *StringFlag) Default() (any, bool)              { return nil, false }

func (f *StringFlag) Cast(raw any) (any, bool) {
	s, ok := raw.(string)
	if !ok {
		return nil, false
	}
	return s, true
}

func (f *StringFlag) Choose(values []any) (any, bool) { return firstValue(values) }

func (f *StringFlag) Unmarshal(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s: want string, got %T", ErrMalformedFlagValue, f.name, raw)
	}
	return s, nil
}

func (f *StringFlag) Marshal(v any) any { return v }

// RegionGroupFlag is the companion selector flag type. It has no group
// flag of its own.
type RegionGroupFlag struct {
	name string
	def  RegionGroup
}

func NewRegionGroupFlag(name string, def RegionGroup) *RegionGroupFlag {
	return &RegionGroupFlag{name: name, def: def}
}

func (f *RegionGroupFlag) Name() string                      { return f.name }
func (f *RegionGroupFlag) RegionGroupFlag() *RegionGroupFlag { return nil }
func (f *RegionGroupFlag) Default() (any, bool)              { return f.def, true }

// DefaultGroup is the typed accessor used by the effective-flag walk.
func (f *RegionGroupFlag) DefaultGroup() RegionGroup { return f.def }

func (f *RegionGroupFlag) Cast(raw any) (any, bool) {
	g, ok := raw.(RegionGroup)
	if !ok {
		return nil, false
	}
	return g, true
}

func (f *RegionGroupFlag) Choose(values []any) (any, bool) { return firstValue(values) }

func (f *RegionGroupFlag) Unmarshal(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s: want group name, got %T", ErrMalformedFlagValue, f.name, raw)
	}
	g, err := ParseRegionGroup(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedFlagValue, f.name, err)
	}
	return g, nil
}

func (f *RegionGroupFlag) Marshal(v any) any {
	if g, ok := v.(RegionGroup); ok {
		return g.String()
	}
	return nil
}

func firstValue(values []any) (any, bool) {
	if len(values) == 0 {
		return nil, false
	}
	return values[0], true
}
