package bytekw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraitsec/krait/internal/ir"
)

func setupOn(t *testing.T, sig *ir.Signature, raw string) *ExtractCondition {
	t.Helper()
	require.NoError(t, SetupExtract(sig, raw))
	cond, ok := sig.Conditions[len(sig.Conditions)-1].(*ExtractCondition)
	require.True(t, ok)
	return cond
}

func TestSetupExtract_Positional(t *testing.T) {
	sig := ir.NewSignature(1, "t", 1)
	cond := setupOn(t, sig, "2, 0, two_bytes")

	assert.Equal(t, 2, cond.Desc.Nbytes)
	assert.Equal(t, 0, cond.Desc.Offset)
	assert.Equal(t, "two_bytes", cond.VarName)

	_, bound := sig.Symbols.Resolve("two_bytes")
	assert.True(t, bound, "byte_extract must bind its name")
}

func TestSetupExtract_Options(t *testing.T) {
	sig := ir.NewSignature(1, "t", 1)
	cond := setupOn(t, sig, "4, -2, var, relative, little, multiplier 4")

	assert.True(t, cond.Desc.Relative)
	assert.Equal(t, -2, cond.Desc.Offset)
	assert.Equal(t, uint64(4), cond.Multiplier)
}

func TestSetupExtract_StringWithBase(t *testing.T) {
	sig := ir.NewSignature(1, "t", 1)
	cond := setupOn(t, sig, "4, 0, var, string, hex")

	assert.True(t, cond.Desc.StringMode)
	assert.Equal(t, uint8(16), uint8(cond.Desc.Base))
}

func TestSetupExtract_ParseErrors(t *testing.T) {
	cases := map[string]string{
		"too few args":          "2, 0",
		"length out of range":   "9, 0, var",
		"zero length":           "0, 0, var",
		"bad length":            "x, 0, var",
		"bad offset":            "2, y, var",
		"offset out of range":   "2, 70000, var",
		"bad name":              "2, 0, 9lives",
		"unknown option":        "2, 0, var, banana",
		"double endian":         "2, 0, var, big, little",
		"string with endian":    "2, 0, var, big, string, dec",
		"dce with string":       "2, 0, var, dce, string, hex",
		"bad multiplier":        "2, 0, var, multiplier x",
		"zero multiplier":       "2, 0, var, multiplier 0",
		"bad align":             "2, 0, var, align 3",
		"string width over cap": "24, 0, var, string, oct",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			sig := ir.NewSignature(1, "t", 1)
			assert.Error(t, SetupExtract(sig, raw), "args %q", raw)
		})
	}
}

func TestSetupExtract_DuplicateNameRejected(t *testing.T) {
	sig := ir.NewSignature(1, "t", 1)
	require.NoError(t, SetupExtract(sig, "2, 0, var"))
	assert.ErrorContains(t, SetupExtract(sig, "2, 2, var"), "already bound")
}

func TestExtractCondition_EvalBindsAndAdvances(t *testing.T) {
	sig := ir.NewSignature(1, "t", 1)
	cond := setupOn(t, sig, "2, 0, var")
	sig.Freeze()

	st := stateWith([]byte{0x01, 0x02, 0xff})
	require.Equal(t, ir.OutcomeMatch, cond.Eval(st))

	v, ok := st.Var(0)
	require.True(t, ok)
	assert.Equal(t, uint64(258), v)
	assert.Equal(t, 2, st.Cursor, "cursor advances past the extracted bytes")
}

func TestExtractCondition_EvalShortBufferNoMatch(t *testing.T) {
	sig := ir.NewSignature(1, "t", 1)
	cond := setupOn(t, sig, "4, 0, var")

	st := stateWith([]byte{0x01})
	assert.Equal(t, ir.OutcomeNoMatch, cond.Eval(st))

	_, ok := st.Var(0)
	assert.False(t, ok, "failed extraction must not bind")
}

func TestExtractCondition_MultiplierOverflowNoMatch(t *testing.T) {
	sig := ir.NewSignature(1, "t", 1)
	cond := setupOn(t, sig, "8, 0, var, multiplier 3")

	st := stateWith([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})
	assert.Equal(t, ir.OutcomeNoMatch, cond.Eval(st))
}

func TestExtractCondition_Align(t *testing.T) {
	sig := ir.NewSignature(1, "t", 1)
	cond := setupOn(t, sig, "1, 0, var, align 4")

	st := stateWith([]byte{0x05})
	require.Equal(t, ir.OutcomeMatch, cond.Eval(st))

	v, ok := st.Var(0)
	require.True(t, ok)
	assert.Equal(t, uint64(8), v, "5 aligned up to the next 4-byte boundary")
}
