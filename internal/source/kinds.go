package source

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"trialinv/pkg/records"
)

// KindOf maps a DatabaseTypeName (any engine) to a logical column kind. An
// empty type name yields "" so the caller can infer the kind from values.
func KindOf(dbType string) string {
	t := strings.ToUpper(strings.TrimSpace(dbType))
	if t == "" {
		return ""
	}
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}
	t = strings.TrimPrefix(t, "UNSIGNED ")
	t = strings.TrimSpace(strings.TrimSuffix(t, " UNSIGNED"))

	switch t {
	case "INT", "INTEGER", "BIGINT", "SMALLINT", "TINYINT", "MEDIUMINT",
		"INT2", "INT4", "INT8", "SERIAL", "BIGSERIAL":
		return records.KindInt
	case "FLOAT", "REAL", "DOUBLE", "DOUBLE PRECISION", "FLOAT4", "FLOAT8",
		"DECIMAL", "NUMERIC", "MONEY", "SMALLMONEY":
		return records.KindFloat
	case "BIT", "BOOL", "BOOLEAN":
		return records.KindBool
	case "DATE":
		return records.KindDate
	case "DATETIME", "DATETIME2", "SMALLDATETIME", "DATETIMEOFFSET",
		"TIMESTAMP", "TIMESTAMPTZ":
		return records.KindTimestamp
	}
	return records.KindString
}

// KindOfValue maps a Go value to a logical kind.
func KindOfValue(v any) string {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return records.KindInt
	case float32, float64:
		return records.KindFloat
	case bool:
		return records.KindBool
	case time.Time:
		return records.KindTimestamp
	}
	return records.KindString
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// Normalize converts a driver value into the canonical Go type for kind:
// int64, float64, bool, time.Time or string. nil stays nil. ok is false when
// v cannot represent a value of kind.
func Normalize(kind string, v any) (out any, ok bool) {
	if v == nil {
		return nil, true
	}
	if b, isBytes := v.([]byte); isBytes {
		v = string(b)
	}

	switch kind {
	case records.KindInt:
		switch n := v.(type) {
		case int64:
			return n, true
		case int:
			return int64(n), true
		case int32:
			return int64(n), true
		case int16:
			return int64(n), true
		case int8:
			return int64(n), true
		case uint8:
			return int64(n), true
		case uint16:
			return int64(n), true
		case uint32:
			return int64(n), true
		case uint64:
			if n > math.MaxInt64 {
				return nil, false
			}
			return int64(n), true
		case float64:
			if n == math.Trunc(n) {
				return int64(n), true
			}
		case bool:
			if n {
				return int64(1), true
			}
			return int64(0), true
		case string:
			if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
				return i, true
			}
		}
		return nil, false

	case records.KindFloat:
		switch n := v.(type) {
		case float64:
			return n, true
		case float32:
			return float64(n), true
		case int64:
			return float64(n), true
		case int:
			return float64(n), true
		case int32:
			return float64(n), true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
				return f, true
			}
		}
		return nil, false

	case records.KindBool:
		switch b := v.(type) {
		case bool:
			return b, true
		case int64:
			return b != 0, true
		case string:
			if p, err := strconv.ParseBool(strings.TrimSpace(b)); err == nil {
				return p, true
			}
		}
		return nil, false

	case records.KindDate, records.KindTimestamp:
		var t time.Time
		switch x := v.(type) {
		case time.Time:
			t = x
		case string:
			parsed, err := parseTime(x)
			if err != nil {
				return nil, false
			}
			t = parsed
		default:
			return nil, false
		}
		if kind == records.KindDate {
			y, m, d := t.Date()
			t = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		}
		return t, true

	default:
		switch s := v.(type) {
		case string:
			return s, true
		case time.Time:
			return s.Format(time.RFC3339Nano), true
		case fmt.Stringer:
			return s.String(), true
		}
		return fmt.Sprint(v), true
	}
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var err error
	for _, layout := range timeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
