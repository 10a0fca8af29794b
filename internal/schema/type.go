package schema

import (
	"reflect"
	"sort"

	"golang.org/x/text/cases"
)

// Kind is the value domain of a record member.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindDecimal
	KindString
	KindChar
	KindTime
	KindUUID
	KindEnum
)

var kindNames = map[Kind]string{
	KindInvalid: "invalid",
	KindBool:    "bool",
	KindInt:     "int",
	KindUint:    "uint",
	KindFloat:   "float",
	KindDecimal: "decimal",
	KindString:  "string",
	KindChar:    "char",
	KindTime:    "time",
	KindUUID:    "uuid",
	KindEnum:    "enum",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "invalid"
}

// Enum is implemented by integer-backed types whose values have names.
// The map is keyed by member name; names are matched case-insensitively
// when converting literals.
type Enum interface {
	Members() map[string]int64
}

// Type describes the declared type of a record member.
type Type struct {
	// Kind is the value domain.
	Kind Kind

	// Bits is the size of Int, Uint and Float kinds (8, 16, 32 or 64).
	Bits int

	// Nullable is true for pointer members, which can hold nil.
	Nullable bool

	// Name is the Go type name, used in error messages.
	Name string

	members map[string]int64
	folded  map[string]int64
	names   map[int64]string
}

func (t Type) String() string {
	if t.Name != "" {
		return t.Name
	}
	if t.Nullable {
		return "*" + t.Kind.String()
	}
	return t.Kind.String()
}

// Members returns the enum member names in value order. It is empty for
// non-enum types.
func (t Type) Members() []string {
	names := make([]string, 0, len(t.members))
	for name := range t.members {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		vi, vj := t.members[names[i]], t.members[names[j]]
		if vi != vj {
			return vi < vj
		}
		return names[i] < names[j]
	})
	return names
}

// EnumName returns the member name for v, or "" when v is not a declared
// member.
func (t Type) EnumName(v int64) string {
	return t.names[v]
}

func (t Type) lookupMember(name string) (int64, bool) {
	v, ok := t.folded[cases.Fold().String(name)]
	return v, ok
}

// IsOrderable reports whether t supports ordering comparisons
// (Greater, GreaterOrEqual, Less, LessOrEqual). The nullable wrapper is
// ignored.
func IsOrderable(t Type) bool {
	switch t.Kind {
	case KindInt, KindUint, KindFloat, KindDecimal, KindChar, KindTime:
		return true
	default:
		return false
	}
}

// IsNullable reports whether t can represent a missing value.
func IsNullable(t Type) bool {
	return t.Nullable
}

// NewEnumType builds an enum Type from its members. Used for types that
// are not discovered through reflection.
func NewEnumType(name string, members map[string]int64, nullable bool) Type {
	t := Type{Kind: KindEnum, Bits: 64, Nullable: nullable, Name: name}
	t.setMembers(members)
	return t
}

func (t *Type) setMembers(members map[string]int64) {
	t.members = make(map[string]int64, len(members))
	t.folded = make(map[string]int64, len(members))
	t.names = make(map[int64]string, len(members))
	fold := cases.Fold()
	for name, v := range members {
		t.members[name] = v
		t.folded[fold.String(name)] = v
		if existing, ok := t.names[v]; !ok || name < existing {
			t.names[v] = name
		}
	}
}

var enumType = reflect.TypeOf((*Enum)(nil)).Elem()

// enumMembers returns the members of rt if it (or its pointer) implements
// Enum.
func enumMembers(rt reflect.Type) (map[string]int64, bool) {
	switch {
	case rt.Implements(enumType):
		return reflect.Zero(rt).Interface().(Enum).Members(), true
	case reflect.PointerTo(rt).Implements(enumType):
		return reflect.New(rt).Interface().(Enum).Members(), true
	default:
		return nil, false
	}
}
