package schema

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dynfilter/internal/fault"
)

type color int

func (color) Members() map[string]int64 {
	return map[string]int64{"Red": 1, "Green": 2, "Blue": 3}
}

type widget struct {
	ID       uuid.UUID
	Name     string
	Note     *string
	Count    int32
	Small    *int8
	Size     uint16
	Ratio    float32
	Price    decimal.Decimal
	Grade    int32 `filter:",char"`
	Made     time.Time
	Expires  *time.Time
	Active   bool
	Shade    color
	MaybeHue *color
	Label    string `filter:"Title" db:"label_text"`
	Skipped  string `filter:"-"`
	internal int
}

func TestOf_DescribesFields(t *testing.T) {
	s, err := For[widget]()
	require.NoError(t, err)

	assert.Equal(t, "widget", s.Name)
	assert.Equal(t, "widgets", s.Table)

	tests := []struct {
		field    string
		kind     Kind
		bits     int
		nullable bool
		column   string
	}{
		{"ID", KindUUID, 0, false, "id"},
		{"Name", KindString, 0, false, "name"},
		{"Note", KindString, 0, true, "note"},
		{"Count", KindInt, 32, false, "count"},
		{"Small", KindInt, 8, true, "small"},
		{"Size", KindUint, 16, false, "size"},
		{"Ratio", KindFloat, 32, false, "ratio"},
		{"Price", KindDecimal, 0, false, "price"},
		{"Grade", KindChar, 32, false, "grade"},
		{"Made", KindTime, 0, false, "made"},
		{"Expires", KindTime, 0, true, "expires"},
		{"Active", KindBool, 0, false, "active"},
		{"Shade", KindEnum, 64, false, "shade"},
		{"MaybeHue", KindEnum, 64, true, "maybe_hue"},
		{"Title", KindString, 0, false, "label_text"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			f, err := s.Field(tt.field)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, f.Type.Kind)
			assert.Equal(t, tt.bits, f.Type.Bits)
			assert.Equal(t, tt.nullable, IsNullable(f.Type))
			assert.Equal(t, tt.column, f.Column)
			assert.Equal(t, "widget", f.Owner)
		})
	}

	assert.Len(t, s.Fields(), len(tests))
}

func TestField_NotFound(t *testing.T) {
	s := MustFor[widget]()

	for _, name := range []string{"Missing", "name", "Skipped", "internal", "Label"} {
		_, err := s.Field(name)
		require.Error(t, err, name)
		assert.True(t, fault.IsFieldNotFound(err), name)
	}
}

func TestOf_CachesSchema(t *testing.T) {
	a, err := Of(widget{})
	require.NoError(t, err)
	b, err := Of(&widget{})
	require.NoError(t, err)
	c, err := Of(reflect.TypeOf(widget{}))
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Same(t, a, c)
}

func TestOf_ConcurrentFirstUse(t *testing.T) {
	type fresh struct{ A int }

	var wg sync.WaitGroup
	results := make([]*Schema, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := For[fresh]()
			if err == nil {
				results[i] = s
			}
		}(i)
	}
	wg.Wait()

	for _, s := range results {
		assert.Same(t, results[0], s)
	}
}

func TestOf_Errors(t *testing.T) {
	_, err := Of(nil)
	assert.Error(t, err)

	_, err = Of(42)
	assert.ErrorContains(t, err, "not a struct")

	type withMap struct{ M map[string]int }
	_, err = For[withMap]()
	assert.ErrorContains(t, err, "unsupported type")
	assert.ErrorContains(t, err, `filter:"-"`)

	type withTags struct {
		Name string
		Tags []string
	}
	_, err = For[withTags]()
	assert.ErrorContains(t, err, "withTags.Tags")

	type excluded struct {
		Name string
		Tags []string       `filter:"-"`
		Meta map[string]int `filter:"-"`
	}
	s, err := For[excluded]()
	require.NoError(t, err)
	assert.Len(t, s.Fields(), 1)
	_, err = s.Field("Tags")
	assert.Error(t, err)

	type empty struct{ hidden int }
	_, err = For[empty]()
	assert.ErrorContains(t, err, "no filterable fields")

	type dup struct {
		A string `filter:"X"`
		B string `filter:"X"`
	}
	_, err = For[dup]()
	assert.ErrorContains(t, err, "duplicate field name")
}

func TestCapabilities(t *testing.T) {
	s := MustFor[widget]()

	orderable := map[string]bool{
		"ID": false, "Name": false, "Note": false, "Count": true, "Small": true,
		"Size": true, "Ratio": true, "Price": true, "Grade": true, "Made": true,
		"Expires": true, "Active": false, "Shade": false, "MaybeHue": false,
	}
	for name, want := range orderable {
		f, err := s.Field(name)
		require.NoError(t, err)
		assert.Equal(t, want, IsOrderable(f.Type), name)
	}
}

func TestField_Value(t *testing.T) {
	s := MustFor[widget]()
	note := "hello"
	small := int8(-3)
	hue := color(2)
	made := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	id := uuid.MustParse("6f9619ff-8b86-d011-b42d-00c04fc964ff")

	w := widget{
		ID: id, Name: "w", Note: &note, Count: 7, Small: &small, Size: 9,
		Ratio: 0.5, Price: decimal.RequireFromString("1.25"), Grade: 'A',
		Made: made, Active: true, Shade: 3, MaybeHue: &hue,
	}

	want := map[string]any{
		"ID":       id,
		"Name":     "w",
		"Note":     "hello",
		"Count":    int64(7),
		"Small":    int64(-3),
		"Size":     uint64(9),
		"Ratio":    float64(0.5),
		"Price":    decimal.RequireFromString("1.25"),
		"Grade":    'A',
		"Made":     made.UTC(),
		"Expires":  nil,
		"Active":   true,
		"Shade":    int64(3),
		"MaybeHue": int64(2),
	}
	for name, v := range want {
		f, err := s.Field(name)
		require.NoError(t, err)
		assert.Equal(t, v, f.Value(&w), name)
		assert.Equal(t, v, f.Value(w), name)
	}

	shade, _ := s.Field("Shade")
	assert.Equal(t, "Blue", shade.Display(int64(3)))
	assert.Equal(t, int64(99), shade.Display(int64(99)))
	assert.Equal(t, []string{"Red", "Green", "Blue"}, shade.Type.Members())
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"ExpireDate": "expire_date",
		"ID":         "id",
		"IsInStock":  "is_in_stock",
		"HTTPCode":   "http_code",
		"Value2X":    "value2_x",
		"name":       "name",
	}
	for in, want := range tests {
		assert.Equal(t, want, snakeCase(in), in)
	}
}

func TestField_SetRoundTrip(t *testing.T) {
	s := MustFor[widget]()
	note := "fragile"
	small := int8(-4)
	hue := color(3)
	expires := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	src := widget{
		ID:       uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		Name:     "gear",
		Note:     &note,
		Count:    -7,
		Small:    &small,
		Size:     65535,
		Ratio:    0.5,
		Price:    decimal.RequireFromString("9.99"),
		Grade:    'B',
		Made:     time.Date(2020, 5, 6, 7, 8, 9, 10, time.UTC),
		Expires:  &expires,
		Active:   true,
		Shade:    2,
		MaybeHue: &hue,
		Label:    "L",
	}

	var dst widget
	for _, f := range s.Fields() {
		require.NoError(t, f.Set(&dst, f.Value(src)), f.Name)
	}
	assert.Equal(t, src, dst)

	for _, f := range s.Fields() {
		if f.Type.Nullable {
			require.NoError(t, f.Set(&dst, nil))
		}
	}
	assert.Nil(t, dst.Note)
	assert.Nil(t, dst.MaybeHue)
}

func TestField_SetErrors(t *testing.T) {
	s := MustFor[widget]()
	name, err := s.Field("Name")
	require.NoError(t, err)

	var w widget
	assert.Error(t, name.Set(w, "x"), "non-pointer record")
	assert.ErrorIs(t, name.Set(&w, nil), ErrNotNullable)
	assert.Error(t, name.Set(&w, int64(1)))
}
