package schema

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roach88/dynfilter/internal/fault"
)

// ErrNotNullable is returned when a null literal targets a type that
// cannot hold a missing value.
var ErrNotNullable = errors.New("type is not nullable")

// timeLayouts are tried in order. Layouts without a zone are parsed in
// the local zone, then every result is normalized to UTC.
var timeLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{"2006-01-02 15:04:05Z07:00", true},
	{"2006-01-02 15:04:05.999999999Z07:00", true},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006-01-02 15:04:05.999999999", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02", false},
	{"01/02/2006 15:04:05", false},
	{"01/02/2006", false},
	{time.RFC1123Z, true},
	{time.RFC1123, true},
}

// Convert parses text into the canonical value for t, using invariant
// (culture-independent) rules. A nil text yields a nil value for
// nullable types.
func Convert(text *string, t Type) (any, error) {
	if text == nil {
		if t.Nullable {
			return nil, nil
		}
		return nil, ErrNotNullable
	}
	s := *text

	switch t.Kind {
	case KindString:
		return s, nil
	case KindBool:
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("%q is not a valid boolean", s)
	case KindInt:
		return parseInt(s, t.Bits)
	case KindUint:
		return parseUint(s, t.Bits)
	case KindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), bitsOr64(t.Bits))
		if err != nil {
			return nil, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%q is not a finite number", s)
		}
		return f, nil
	case KindDecimal:
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		return d, nil
	case KindChar:
		return parseChar(s)
	case KindTime:
		return parseTime(s)
	case KindUUID:
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		return id, nil
	case KindEnum:
		return parseEnum(s, t)
	default:
		return nil, fmt.Errorf("unsupported kind %s", t.Kind)
	}
}

// ConvertMany converts each text element-wise.
func ConvertMany(texts []*string, t Type) ([]any, error) {
	out := make([]any, 0, len(texts))
	for i, text := range texts {
		v, err := Convert(text, t)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Convert parses text for this member, reporting failures as a
// conversion fault that names the member, its declaring type and a safe
// alias of the value.
func (f *Field) Convert(text *string) (any, error) {
	v, err := Convert(text, f.Type)
	if err != nil {
		return nil, fault.Conversion(f.Owner, f.Name, Alias(text), err)
	}
	return v, nil
}

// ConvertMany converts a set of literals for this member. A failure on
// any element is reported against the whole array.
func (f *Field) ConvertMany(texts []*string) ([]any, error) {
	vs, err := ConvertMany(texts, f.Type)
	if err != nil {
		return nil, fault.Conversion(f.Owner, f.Name, "some array values", err)
	}
	return vs, nil
}

// Alias renders a literal for error messages: "null", "empty string" or
// "value 'x'".
func Alias(text *string) string {
	switch {
	case text == nil:
		return "null"
	case *text == "":
		return "empty string"
	default:
		return fmt.Sprintf("value '%s'", *text)
	}
}

func bitsOr64(bits int) int {
	if bits == 0 {
		return 64
	}
	return bits
}

// splitHex reports whether s carries a 0x prefix and returns the digits.
func splitHex(s string) (string, bool) {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:], true
	}
	return s, false
}

func parseInt(s string, bits int) (any, error) {
	s = strings.TrimSpace(s)
	if digits, hex := splitHex(s); hex {
		// Hex literals are two's complement of the member width.
		u, err := strconv.ParseUint(digits, 16, bitsOr64(bits))
		if err != nil {
			return nil, err
		}
		shift := 64 - bitsOr64(bits)
		return int64(u<<shift) >> shift, nil
	}
	n, err := strconv.ParseInt(s, 10, bitsOr64(bits))
	if err != nil {
		return nil, err
	}
	return n, nil
}

func parseUint(s string, bits int) (any, error) {
	s = strings.TrimSpace(s)
	base := 10
	if digits, hex := splitHex(s); hex {
		s, base = digits, 16
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(s, "+"), base, bitsOr64(bits))
	if err != nil {
		return nil, err
	}
	return n, nil
}

func parseChar(s string) (any, error) {
	if s == "" {
		return rune(0), nil
	}
	if utf8.RuneCountInString(s) > 1 {
		s = strings.TrimSpace(s)
	}
	if utf8.RuneCountInString(s) != 1 {
		return nil, fmt.Errorf("%q is not a single character", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

func parseTime(s string) (any, error) {
	s = strings.TrimSpace(s)
	for _, l := range timeLayouts {
		var (
			t   time.Time
			err error
		)
		if l.zoned {
			t, err = time.Parse(l.layout, s)
		} else {
			t, err = time.ParseInLocation(l.layout, s, time.Local)
		}
		if err == nil {
			return t.UTC(), nil
		}
	}
	return nil, fmt.Errorf("%q is not a recognized date/time", s)
}

func parseEnum(s string, t Type) (any, error) {
	s = strings.TrimSpace(s)
	if v, ok := t.lookupMember(s); ok {
		return v, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	return nil, fmt.Errorf("%q is not a member of %s", s, t.Name)
}
