package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToInt(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want int
	}{
		{"Int", 3, 3},
		{"Float", float64(4), 4},
		{"String", " 7 ", 7},
		{"SpreadsheetFloat", "2.0", 2},
		{"Fraction", "2.5", 0},
		{"Bytes", []byte("12"), 12},
		{"Nil", nil, 0},
		{"Garbage", "abc", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToInt(tt.val))
		})
	}
}

func TestParseWholeNumber(t *testing.T) {
	for in, want := range map[string]int{"3": 3, " 12 ": 12, "3.0": 3, "-2": -2} {
		got, ok := ParseWholeNumber(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "abc", "2.5", "1e300", "NaN", "3 pairs"} {
		_, ok := ParseWholeNumber(in)
		assert.False(t, ok, in)
	}
}

func TestToString(t *testing.T) {
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "5600012345678", ToString(float64(5600012345678)))
	assert.Equal(t, "1.5", ToString(1.5))
	assert.Equal(t, "abc", ToString([]byte("abc")))
	assert.Equal(t, "42", ToString(42))
}

func TestCleanString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"  Nike ", "Nike"},
		{"nan", ""},
		{"NaN", ""},
		{"None", ""},
		{"null", ""},
		{nil, ""},
		{"Nanook", "Nanook"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanString(tt.in), "input %v", tt.in)
	}
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "560001234", DigitsOnly("560-001 234"))
	assert.Equal(t, "", DigitsOnly("abc"))
	assert.Equal(t, "23", DigitsOnly("١ 2-3"))
}

func TestOptionalValues(t *testing.T) {
	assert.Nil(t, OptionalInt64(""))
	assert.Nil(t, OptionalInt64("nan"))
	assert.Nil(t, OptionalInt64("x12"))
	if v := OptionalInt64("1520.0"); assert.NotNil(t, v) {
		assert.Equal(t, int64(1520), *v)
	}

	assert.Nil(t, OptionalString(" none "))
	if v := OptionalString(" KI-001 "); assert.NotNil(t, v) {
		assert.Equal(t, "KI-001", *v)
	}
}
