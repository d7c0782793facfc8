package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ToInt converts provider values to int. Unparseable input yields 0.
func ToInt(val any) int {
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case uint:
		return int(v)
	case uint64:
		return int(v)
	case uint32:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	case string:
		s := strings.TrimSpace(v)
		if i, err := strconv.Atoi(s); err == nil {
			return i
		}
		// "1999.0" and similar
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f)
		}
		return 0
	case []byte:
		return ToInt(string(v))
	case nil:
		return 0
	default:
		return ToInt(fmt.Sprintf("%v", v))
	}
}

// ToFloat converts provider values to float64. ok is false when val holds no
// number, which lets callers tell "0" apart from "N/A".
func ToFloat(val any) (f float64, ok bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	case []byte:
		return ToFloat(string(v))
	default:
		return 0, false
	}
}

// FirstNonEmpty returns the first value that is not blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
