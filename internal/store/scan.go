package store

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roach88/dynfilter/internal/querysql"
	"github.com/roach88/dynfilter/internal/schema"
)

// valueScanner converts one column to the canonical value of a member.
type valueScanner struct {
	field *schema.Field
	value any
}

func (s *valueScanner) Scan(src any) error {
	if src == nil {
		s.value = nil
		return nil
	}
	v, err := canonicalize(src, s.field.Type)
	if err != nil {
		return fmt.Errorf("scan %s: %w", s.field.Column, err)
	}
	s.value = v
	return nil
}

func newScanners(fields []*schema.Field) ([]*valueScanner, []any) {
	scanners := make([]*valueScanner, len(fields))
	dest := make([]any, len(fields))
	for i, f := range fields {
		scanners[i] = &valueScanner{field: f}
		dest[i] = scanners[i]
	}
	return scanners, dest
}

func canonicalize(src any, t schema.Type) (any, error) {
	if b, ok := src.([]byte); ok {
		src = string(b)
	}
	mismatch := fmt.Errorf("cannot convert %T to %s", src, t.Kind)

	switch t.Kind {
	case schema.KindBool:
		switch x := src.(type) {
		case bool:
			return x, nil
		case int64:
			return x != 0, nil
		case string:
			return strconv.ParseBool(x)
		}

	case schema.KindInt, schema.KindEnum, schema.KindChar:
		var n int64
		switch x := src.(type) {
		case int64:
			n = x
		case float64:
			n = int64(x)
		case string:
			parsed, err := strconv.ParseInt(x, 10, 64)
			if err != nil {
				return nil, err
			}
			n = parsed
		default:
			return nil, mismatch
		}
		if t.Kind == schema.KindChar {
			return rune(n), nil
		}
		return n, nil

	case schema.KindUint:
		switch x := src.(type) {
		case int64:
			if x < 0 {
				return nil, fmt.Errorf("negative value %d for unsigned column", x)
			}
			return uint64(x), nil
		case string:
			return strconv.ParseUint(x, 10, 64)
		}

	case schema.KindFloat:
		switch x := src.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		case int64:
			return float64(x), nil
		case string:
			return strconv.ParseFloat(x, 64)
		}

	case schema.KindDecimal:
		var d decimal.Decimal
		if err := d.Scan(src); err != nil {
			return nil, err
		}
		return d, nil

	case schema.KindString:
		if x, ok := src.(string); ok {
			return x, nil
		}

	case schema.KindTime:
		switch x := src.(type) {
		case time.Time:
			return x.UTC(), nil
		case string:
			if ts, err := time.Parse(querysql.TimeLayout, x); err == nil {
				return ts.UTC(), nil
			}
			ts, err := time.Parse(time.RFC3339Nano, x)
			if err != nil {
				return nil, err
			}
			return ts.UTC(), nil
		}

	case schema.KindUUID:
		if raw, ok := src.([16]byte); ok {
			return uuid.UUID(raw), nil
		}
		var id uuid.UUID
		if err := id.Scan(src); err != nil {
			return nil, err
		}
		return id, nil
	}
	return nil, mismatch
}
