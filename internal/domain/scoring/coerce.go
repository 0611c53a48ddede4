package scoring

import (
	"math"
	"strings"
)

// CoerceInt reads the leading integer of a form value.
//
// Leading whitespace and a single sign are accepted, then decimal digits up to
// the first non-digit. Anything without leading digits yields 0, so "12abc"
// is 12, "3.7" is 3, "-2" is -2 and "abc" or "" is 0. Values beyond the int32
// range saturate.
func CoerceInt(s string) int {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	if s == "" {
		return 0
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	var n int64
	digits := 0
	for _, c := range []byte(s) {
		if c < '0' || c > '9' {
			break
		}
		digits++
		n = min(n*10+int64(c-'0'), math.MaxInt32)
	}
	if digits == 0 {
		return 0
	}
	if neg {
		return int(-n)
	}
	return int(n)
}
