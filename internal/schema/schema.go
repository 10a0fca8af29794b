package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roach88/dynfilter/internal/fault"
)

var (
	timeType    = reflect.TypeOf(time.Time{})
	uuidType    = reflect.TypeOf(uuid.UUID{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
)

// Schema is the filterable description of a Go struct type: its members
// by name, each with a typed accessor and capability flags.
//
// A Schema is built once per struct type and is immutable afterwards, so
// it can be shared by concurrent predicate builds.
type Schema struct {
	// Name is the Go struct name, used as the declaring type in errors.
	Name string

	// Table is the default table name (snake_case plural of Name).
	Table string

	rtype    reflect.Type
	fields   []*Field
	byName   map[string]*Field
	byColumn map[string]*Field
}

// Field is one filterable member of a record type.
type Field struct {
	// Name is the member name used by conditions, orderings and
	// projections. Lookup is case-sensitive.
	Name string

	// Column is the storage column name.
	Column string

	// Type is the declared member type.
	Type Type

	// Owner is the declaring record type name.
	Owner string

	index []int
}

// cache holds built schemas keyed by reflect.Type.
// Read-through: concurrent first builds of the same type may race, the
// first stored value wins.
var cache sync.Map

// Of returns the schema of v's struct type. v may be a struct value, a
// pointer to one, or a reflect.Type.
//
// Every exported member must have a filterable type. Members of any other
// type (slices, maps, embedded structs) fail the whole schema unless they
// are tagged `filter:"-"`.
func Of(v any) (*Schema, error) {
	var rt reflect.Type
	switch x := v.(type) {
	case reflect.Type:
		rt = x
	case nil:
		return nil, fmt.Errorf("schema of nil value")
	default:
		rt = reflect.TypeOf(v)
	}
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema: %s is not a struct type", rt)
	}

	if s, ok := cache.Load(rt); ok {
		return s.(*Schema), nil
	}
	s, err := build(rt)
	if err != nil {
		return nil, err
	}
	actual, _ := cache.LoadOrStore(rt, s)
	return actual.(*Schema), nil
}

// For returns the schema of T.
func For[T any]() (*Schema, error) {
	return Of(reflect.TypeOf((*T)(nil)).Elem())
}

// MustFor is like For but panics on error. Intended for package-level
// variables of known record types.
func MustFor[T any]() *Schema {
	s, err := For[T]()
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns the members in declaration order.
func (s *Schema) Fields() []*Field {
	out := make([]*Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field resolves a member by name.
func (s *Schema) Field(name string) (*Field, error) {
	if f, ok := s.byName[name]; ok {
		return f, nil
	}
	return nil, fault.FieldNotFound(s.Name, name)
}

// Column resolves a member by storage column name.
func (s *Schema) Column(column string) (*Field, bool) {
	f, ok := s.byColumn[column]
	return f, ok
}

// GoType returns the described struct type.
func (s *Schema) GoType() reflect.Type {
	return s.rtype
}

// Value returns the canonical value of f on record (a struct or pointer
// to struct of the schema's type), or nil for a nil pointer member.
//
// Canonical values: bool, int64, uint64, float64, decimal.Decimal,
// string, rune (char), time.Time in UTC, uuid.UUID, int64 (enum).
func (f *Field) Value(record any) any {
	rv := reflect.ValueOf(record)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	fv := rv.FieldByIndex(f.index)
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return nil
		}
		fv = fv.Elem()
	}
	return canonical(fv, f.Type)
}

func canonical(v reflect.Value, t Type) any {
	switch t.Kind {
	case KindBool:
		return v.Bool()
	case KindInt:
		return v.Int()
	case KindUint:
		return v.Uint()
	case KindFloat:
		return v.Float()
	case KindDecimal:
		return v.Interface().(decimal.Decimal)
	case KindString:
		return v.String()
	case KindChar:
		return rune(v.Int())
	case KindTime:
		return v.Interface().(time.Time).UTC()
	case KindUUID:
		return v.Interface().(uuid.UUID)
	case KindEnum:
		if v.CanInt() {
			return v.Int()
		}
		return int64(v.Uint())
	default:
		return v.Interface()
	}
}

// Set stores the canonical value v into f on record, which must be a
// non-nil pointer to a struct of the schema's type. A nil v clears a
// nullable member.
func (f *Field) Set(record any, v any) error {
	rv := reflect.ValueOf(record)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("set %s: record must be a non-nil pointer", f.Name)
	}
	fv := rv.Elem().FieldByIndex(f.index)

	if v == nil {
		if !f.Type.Nullable {
			return fmt.Errorf("set %s: %w", f.Name, ErrNotNullable)
		}
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}

	target := fv
	if f.Type.Nullable {
		target = reflect.New(fv.Type().Elem()).Elem()
	}
	if err := assign(target, v, f.Type); err != nil {
		return fmt.Errorf("set %s: %w", f.Name, err)
	}
	if f.Type.Nullable {
		ptr := reflect.New(target.Type())
		ptr.Elem().Set(target)
		fv.Set(ptr)
	}
	return nil
}

func assign(target reflect.Value, v any, t Type) error {
	mismatch := func() error {
		return fmt.Errorf("cannot assign %T to %s", v, t)
	}
	switch t.Kind {
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return mismatch()
		}
		target.SetBool(b)
	case KindInt, KindChar:
		switch n := v.(type) {
		case int64:
			target.SetInt(n)
		case rune:
			target.SetInt(int64(n))
		default:
			return mismatch()
		}
	case KindEnum:
		n, ok := v.(int64)
		if !ok {
			return mismatch()
		}
		if target.CanInt() {
			target.SetInt(n)
		} else {
			target.SetUint(uint64(n))
		}
	case KindUint:
		n, ok := v.(uint64)
		if !ok {
			return mismatch()
		}
		target.SetUint(n)
	case KindFloat:
		n, ok := v.(float64)
		if !ok {
			return mismatch()
		}
		target.SetFloat(n)
	case KindString:
		s, ok := v.(string)
		if !ok {
			return mismatch()
		}
		target.SetString(s)
	case KindDecimal, KindTime, KindUUID:
		rv := reflect.ValueOf(v)
		if rv.Type() != target.Type() {
			return mismatch()
		}
		target.Set(rv)
	default:
		return mismatch()
	}
	return nil
}

// Display renders a canonical value for output: enum values become their
// member names, everything else is returned unchanged.
func (f *Field) Display(v any) any {
	if f.Type.Kind != KindEnum {
		return v
	}
	if n, ok := v.(int64); ok {
		if name := f.Type.EnumName(n); name != "" {
			return name
		}
	}
	return v
}

func build(rt reflect.Type) (*Schema, error) {
	s := &Schema{
		Name:     rt.Name(),
		Table:    snakeCase(rt.Name()) + "s",
		rtype:    rt,
		byName:   make(map[string]*Field),
		byColumn: make(map[string]*Field),
	}

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, opts := parseTag(sf.Tag.Get("filter"))
		if name == "-" {
			continue
		}
		if name == "" {
			name = sf.Name
		}

		typ, err := describe(sf.Type, opts)
		if err != nil {
			return nil, fmt.Errorf("schema %s.%s: %w (tag it `filter:\"-\"` to exclude it)", s.Name, sf.Name, err)
		}

		column := sf.Tag.Get("db")
		if column == "" || column == "-" {
			column = snakeCase(sf.Name)
		}

		f := &Field{
			Name:   name,
			Column: column,
			Type:   typ,
			Owner:  s.Name,
			index:  sf.Index,
		}
		if _, dup := s.byName[name]; dup {
			return nil, fmt.Errorf("schema %s: duplicate field name %q", s.Name, name)
		}
		if _, dup := s.byColumn[column]; dup {
			return nil, fmt.Errorf("schema %s: duplicate column %q", s.Name, column)
		}
		s.fields = append(s.fields, f)
		s.byName[name] = f
		s.byColumn[column] = f
	}

	if len(s.fields) == 0 {
		return nil, fmt.Errorf("schema %s: no filterable fields", s.Name)
	}
	return s, nil
}

// describe maps a Go member type to a Type.
func describe(rt reflect.Type, opts []string) (Type, error) {
	t := Type{Name: rt.String()}
	if rt.Kind() == reflect.Pointer {
		t.Nullable = true
		rt = rt.Elem()
	}
	if rt.Kind() == reflect.Pointer {
		return Type{}, fmt.Errorf("unsupported type %s", t.Name)
	}

	switch {
	case rt == timeType:
		t.Kind = KindTime
		return t, nil
	case rt == uuidType:
		t.Kind = KindUUID
		return t, nil
	case rt == decimalType:
		t.Kind = KindDecimal
		return t, nil
	}

	if members, ok := enumMembers(rt); ok {
		switch rt.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			t.Kind = KindEnum
			t.Bits = rt.Bits()
			t.setMembers(members)
			return t, nil
		default:
			return Type{}, fmt.Errorf("enum %s must be integer-backed", rt)
		}
	}

	switch rt.Kind() {
	case reflect.Bool:
		t.Kind = KindBool
	case reflect.Int32:
		t.Kind = KindInt
		t.Bits = 32
		if hasOpt(opts, "char") {
			t.Kind = KindChar
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int64:
		t.Kind = KindInt
		t.Bits = rt.Bits()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		t.Kind = KindUint
		t.Bits = rt.Bits()
	case reflect.Float32, reflect.Float64:
		t.Kind = KindFloat
		t.Bits = rt.Bits()
	case reflect.String:
		t.Kind = KindString
	default:
		return Type{}, fmt.Errorf("unsupported type %s", t.Name)
	}
	return t, nil
}

func parseTag(tag string) (string, []string) {
	if tag == "" {
		return "", nil
	}
	parts := strings.Split(tag, ",")
	return strings.TrimSpace(parts[0]), parts[1:]
}

func hasOpt(opts []string, want string) bool {
	for _, o := range opts {
		if strings.TrimSpace(o) == want {
			return true
		}
	}
	return false
}

// snakeCase converts a Go identifier to snake_case ("ExpireDate" ->
// "expire_date", "ID" -> "id", "HTTPCode" -> "http_code").
func snakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
