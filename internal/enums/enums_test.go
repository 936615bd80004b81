package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testVariant uint8

const (
	testZero testVariant = 0
	testBest testVariant = 42
)

func newTestSet(t *testing.T) *Set[testVariant] {
	t.Helper()
	return NewSet(
		Entry[testVariant]{Code: 0, Ident: "Zero", Variant: testZero},
		Entry[testVariant]{Code: 42, Ident: "BestValueEver", Variant: testBest},
	)
}

func TestSet_NumericRoundTrip(t *testing.T) {
	s := newTestSet(t)

	v, ok := s.FromCode(0)
	require.True(t, ok)
	assert.Equal(t, testZero, v)

	v, ok = s.FromCode(42)
	require.True(t, ok)
	assert.Equal(t, testBest, v)

	assert.Equal(t, uint8(0), s.Code(testZero))
	assert.Equal(t, uint8(42), s.Code(testBest))

	// Codes outside the declared set return absence, not an error.
	_, ok = s.FromCode(1)
	assert.False(t, ok)
	_, ok = s.FromCode(99)
	assert.False(t, ok)
}

func TestSet_StringRoundTrip(t *testing.T) {
	s := newTestSet(t)

	assert.Equal(t, "zero", s.Name(testZero))
	assert.Equal(t, "best_value_ever", s.Name(testBest))

	v, ok := s.FromName("zero")
	require.True(t, ok)
	assert.Equal(t, testZero, v)

	v, ok = s.FromName("best_value_ever")
	require.True(t, ok)
	assert.Equal(t, testBest, v)

	_, ok = s.FromName("nope")
	assert.False(t, ok)

	// Exact match only - no case folding.
	_, ok = s.FromName("Zero")
	assert.False(t, ok)
}

func TestSet_DuplicateCodePanics(t *testing.T) {
	assert.Panics(t, func() {
		NewSet(
			Entry[testVariant]{Code: 1, Ident: "A", Variant: testZero},
			Entry[testVariant]{Code: 1, Ident: "B", Variant: testBest},
		)
	})
}

func TestSet_DuplicateNamePanics(t *testing.T) {
	assert.Panics(t, func() {
		NewSet(
			Entry[testVariant]{Code: 1, Ident: "Same", Variant: testZero},
			Entry[testVariant]{Code: 2, Ident: "Same", Variant: testBest},
		)
	})
}

func TestSnakeCase(t *testing.T) {
	cases := map[string]string{
		"Zero":          "zero",
		"BestValueEver": "best_value_ever",
		"DCE":           "dce",
		"Big":           "big",
		"Lshift":        "lshift",
		"HTTPUri":       "http_uri",
	}
	for ident, want := range cases {
		assert.Equal(t, want, SnakeCase(ident), "ident %q", ident)
	}
}

func TestEndians_Tokens(t *testing.T) {
	v, ok := Endians.FromName("big")
	require.True(t, ok)
	assert.Equal(t, BigEndian, v)

	v, ok = Endians.FromName("little")
	require.True(t, ok)
	assert.Equal(t, LittleEndian, v)

	v, ok = Endians.FromName("dce")
	require.True(t, ok)
	assert.Equal(t, EndianDCE, v)

	_, ok = Endians.FromName("middle")
	assert.False(t, ok)
}

func TestEndians_WireCodes(t *testing.T) {
	assert.Equal(t, uint8(1), Endians.Code(BigEndian))
	assert.Equal(t, uint8(2), Endians.Code(LittleEndian))
	assert.Equal(t, uint8(3), Endians.Code(EndianDCE))
}

func TestBases_WireCodes(t *testing.T) {
	// The numeric code doubles as the actual base.
	assert.Equal(t, uint8(8), Bases.Code(BaseOct))
	assert.Equal(t, uint8(10), Bases.Code(BaseDec))
	assert.Equal(t, uint8(16), Bases.Code(BaseHex))

	v, ok := Bases.FromName("hex")
	require.True(t, ok)
	assert.Equal(t, BaseHex, v)
	_, ok = Bases.FromName("bin")
	assert.False(t, ok)
}

// Every declared variant in every package-level set must round-trip
// through both mappings.
func TestDeclaredSets_Exhaustive(t *testing.T) {
	for _, v := range Endians.Variants() {
		got, ok := Endians.FromCode(Endians.Code(v))
		require.True(t, ok)
		assert.Equal(t, v, got)
		got, ok = Endians.FromName(Endians.Name(v))
		require.True(t, ok)
		assert.Equal(t, v, got)
	}
	for _, v := range Bases.Variants() {
		got, ok := Bases.FromCode(Bases.Code(v))
		require.True(t, ok)
		assert.Equal(t, v, got)
		got, ok = Bases.FromName(Bases.Name(v))
		require.True(t, ok)
		assert.Equal(t, v, got)
	}
	for _, v := range Operators.Variants() {
		got, ok := Operators.FromCode(Operators.Code(v))
		require.True(t, ok)
		assert.Equal(t, v, got)
		got, ok = Operators.FromName(Operators.Name(v))
		require.True(t, ok)
		assert.Equal(t, v, got)
	}
}

func TestOperatorFromToken(t *testing.T) {
	cases := map[string]MathOperator{
		"+":      OperAdd,
		"-":      OperSub,
		"*":      OperMult,
		"/":      OperDiv,
		"<<":     OperLshift,
		">>":     OperRshift,
		"add":    OperAdd,
		"rshift": OperRshift,
	}
	for tok, want := range cases {
		op, ok := OperatorFromToken(tok)
		require.True(t, ok, "token %q", tok)
		assert.Equal(t, want, op, "token %q", tok)
	}

	_, ok := OperatorFromToken("%")
	assert.False(t, ok)
}
