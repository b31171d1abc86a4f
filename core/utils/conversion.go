package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ToInt converts loosely typed values (JSON numbers, spreadsheet cells) to int.
// Unparseable input yields 0.
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
		return parseIntLoose(v)
	case []byte:
		return parseIntLoose(string(v))
	case nil:
		return 0
	default:
		return parseIntLoose(fmt.Sprintf("%v", v))
	}
}

func parseIntLoose(s string) int {
	i, _ := ParseWholeNumber(s)
	return i
}

// ParseWholeNumber parses s strictly as a whole number. It accepts "3" as well as
// spreadsheet renderings such as "3.0", and reports false for anything else.
func ParseWholeNumber(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false
	}
	return int(f), true
}

// ToString converts various types to string.
func ToString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// CleanString trims val and maps the textual placeholders spreadsheets leave in
// empty cells ("nan", "none", "null") to the empty string.
func CleanString(val any) string {
	s := strings.TrimSpace(ToString(val))
	switch strings.ToLower(s) {
	case "nan", "none", "null":
		return ""
	}
	return s
}

// DigitsOnly drops every non-digit rune from s.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// OptionalInt64 parses s as an integer reference. Blank or malformed input yields nil.
func OptionalInt64(s string) *int64 {
	s = CleanString(s)
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) {
		i := int64(f)
		return &i
	}
	return nil
}

// OptionalString returns nil for blank input.
func OptionalString(s string) *string {
	s = CleanString(s)
	if s == "" {
		return nil
	}
	return &s
}
