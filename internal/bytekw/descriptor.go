// Package bytekw implements the numeric extraction and arithmetic
// keyword family: byte_extract pulls an integer out of the inspected
// buffer and binds it to a rule-local name, byte_math combines an
// extraction with a second operand and binds the result.
//
// Argument grammars are parsed at rule-compile time into validated
// extraction descriptors. Evaluation-time failures - insufficient
// bytes, numeric overflow, a runtime-resolved zero divisor - resolve to
// "does not match" for the current evaluation only.
package bytekw

import (
	"fmt"
	"math/bits"
	"strconv"

	"github.com/kraitsec/krait/internal/enums"
	"github.com/kraitsec/krait/internal/ir"
)

const (
	// MaxBytesBinary is the widest binary extraction that fits uint64.
	MaxBytesBinary = 8

	// MaxBytesString is the protocol-historical ceiling for digit-string
	// extraction (the longest octal rendering of a uint64).
	MaxBytesString = 23

	// MaxCursorDelta bounds the offset argument in either direction.
	MaxCursorDelta = 65535
)

// Descriptor is the validated representation of how to pull an integer
// out of a buffer: width, byte order or numeric base, and the offset
// from the detection cursor. Built at rule-compile time, attached
// immutably to the compiled rule.
type Descriptor struct {
	// Nbytes is the number of bytes to read.
	Nbytes int

	// Offset is the signed delta from the extraction origin: the
	// detection cursor when Relative is set, the buffer start
	// otherwise.
	Offset   int
	Relative bool

	// Endian selects the byte order for binary extraction. EndianDCE
	// defers the actual order to the evaluation state.
	Endian enums.ByteEndian

	// StringMode interprets the bytes as ASCII digits in Base instead
	// of raw binary. Mutually exclusive with EndianDCE.
	StringMode bool
	Base       enums.ByteBase
}

// Validate checks the descriptor invariants shared by the keyword
// family. Parsers call this after applying all options.
func (d Descriptor) Validate() error {
	if d.StringMode {
		if d.Nbytes < 1 || d.Nbytes > MaxBytesString {
			return fmt.Errorf("length %d out of range 1..%d for string extraction", d.Nbytes, MaxBytesString)
		}
	} else if d.Nbytes < 1 || d.Nbytes > MaxBytesBinary {
		return fmt.Errorf("length %d out of range 1..%d", d.Nbytes, MaxBytesBinary)
	}
	if d.Offset < -MaxCursorDelta || d.Offset > MaxCursorDelta {
		return fmt.Errorf("offset %d outside cursor-delta range +-%d", d.Offset, MaxCursorDelta)
	}
	if d.Endian == enums.EndianDCE && d.StringMode {
		return fmt.Errorf("base %s and dce endianness are incompatible", enums.Bases.Name(d.Base))
	}
	return nil
}

// Extract reads the descriptor's integer from the active buffer.
// Returns the value and the position one past the last byte read, so
// callers can advance the detection cursor.
//
// A false result covers every evaluation-time failure: the buffer has
// too few bytes remaining, a digit string does not parse in the
// selected base, or the value would not fit 64 bits. Over-wide values
// are rejected, never truncated.
func (d Descriptor) Extract(st *ir.EvalState) (uint64, int, bool) {
	buf := st.ActiveBuffer()

	origin := 0
	if d.Relative {
		origin = st.Cursor
	}
	pos := origin + d.Offset
	if pos < 0 || pos+d.Nbytes > len(buf) {
		return 0, 0, false
	}
	raw := buf[pos : pos+d.Nbytes]
	end := pos + d.Nbytes

	if d.StringMode {
		v, err := strconv.ParseUint(string(raw), int(enums.Bases.Code(d.Base)), 64)
		if err != nil {
			return 0, 0, false
		}
		return v, end, true
	}

	little := d.Endian == enums.LittleEndian ||
		(d.Endian == enums.EndianDCE && st.DCELittleEndian)

	var v uint64
	if little {
		for i := len(raw) - 1; i >= 0; i-- {
			v = v<<8 | uint64(raw[i])
		}
	} else {
		for _, b := range raw {
			v = v<<8 | uint64(b)
		}
	}
	return v, end, true
}

// mulCheck multiplies with overflow detection.
func mulCheck(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}

// alignUp rounds v up to the next multiple of align, rejecting
// overflow.
func alignUp(v, align uint64) (uint64, bool) {
	rem := v % align
	if rem == 0 {
		return v, true
	}
	out, carry := bits.Add64(v, align-rem, 0)
	return out, carry == 0
}
