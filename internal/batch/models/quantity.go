package models

import (
	"bytes"
	"math"
	"strconv"
	"strings"
)

// Quantity is a batch amount. Input is parsed by taking the leading integer
// of the string; input without one yields NaN. NaN is kept rather than
// rejected and encodes as JSON null.
type Quantity float64

// NaNQuantity is the value stored for non-numeric input.
var NaNQuantity = Quantity(math.NaN())

// ParseQuantity reads the integer prefix of s after leading whitespace: an
// optional sign, then decimal digits, or hex digits after 0x. "12kg" is 12,
// "abc" is NaN.
func ParseQuantity(s string) Quantity {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	base := 10.0
	digits := "0123456789"
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		digits = "0123456789abcdef"
		s = s[2:]
	}

	var value float64
	n := 0
	for _, r := range strings.ToLower(s) {
		d := strings.IndexRune(digits, r)
		if d < 0 {
			break
		}
		value = value*base + float64(d)
		n++
	}
	if n == 0 {
		return NaNQuantity
	}
	if neg {
		value = -value
	}
	return Quantity(value)
}

func (q Quantity) IsNaN() bool {
	return math.IsNaN(float64(q))
}

func (q Quantity) String() string {
	if q.IsNaN() {
		return "NaN"
	}
	return strconv.FormatFloat(float64(q), 'f', -1, 64)
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	if q.IsNaN() || math.IsInf(float64(q), 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(q), 'f', -1, 64)), nil
}

func (q *Quantity) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*q = NaNQuantity
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*q = Quantity(v)
	return nil
}
