package bytekw

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/kraitsec/krait/internal/enums"
	"github.com/kraitsec/krait/internal/ir"
)

// MathCondition is the compiled form of one byte_math keyword: extract
// a value, combine it with the right-hand operand, and bind the result.
//
// The right-hand operand is either a literal fixed at compile time or a
// symbol slot bound by an earlier keyword in the same rule.
type MathCondition struct {
	Desc    Descriptor
	Oper    enums.MathOperator
	Bitmask uint64

	RValue   uint64
	RSymbol  string
	rslot    int
	symbolic bool

	ResultName string
	slot       int

	maskShift uint
}

// Keyword implements ir.Condition.
func (c *MathCondition) Keyword() string { return "byte_math" }

// Eval extracts, applies the operator, and binds the result. Numeric
// overflow, a shift count of 64 or more, and a runtime-resolved zero
// divisor all resolve to no-match for this evaluation; they never abort
// other keywords or sibling rules.
func (c *MathCondition) Eval(st *ir.EvalState) ir.Outcome {
	v, end, ok := c.Desc.Extract(st)
	if !ok {
		return ir.OutcomeNoMatch
	}
	if c.Bitmask != 0 {
		v = (v & c.Bitmask) >> c.maskShift
	}

	rv := c.RValue
	if c.symbolic {
		if rv, ok = st.Var(c.rslot); !ok {
			return ir.OutcomeNoMatch
		}
	}

	res, ok := apply(c.Oper, v, rv)
	if !ok {
		return ir.OutcomeNoMatch
	}
	st.SetVar(c.slot, res)
	st.Cursor = end
	return ir.OutcomeMatch
}

// apply computes v <oper> rv over uint64 with strict failure on any
// result that leaves the domain.
func apply(op enums.MathOperator, v, rv uint64) (uint64, bool) {
	switch op {
	case enums.OperAdd:
		sum, carry := bits.Add64(v, rv, 0)
		return sum, carry == 0
	case enums.OperSub:
		diff, borrow := bits.Sub64(v, rv, 0)
		return diff, borrow == 0
	case enums.OperMult:
		return mulCheck(v, rv)
	case enums.OperDiv:
		if rv == 0 {
			return 0, false
		}
		return v / rv, true
	case enums.OperLshift:
		if rv >= 64 {
			return 0, false
		}
		out := v << rv
		// A shift that drops set bits is an overflow, not a truncation.
		if out>>rv != v {
			return 0, false
		}
		return out, true
	case enums.OperRshift:
		if rv >= 64 {
			return 0, false
		}
		return v >> rv, true
	default:
		return 0, false
	}
}

// SetupMath parses byte_math argument text:
//
//	bytes <n>, offset <n>, oper <+|-|*|/|<<|>>>,
//	rvalue <literal|name>, result <name>
//	    [, relative] [, endian <big|little>] [, dce]
//	    [, string <hex|dec|oct>] [, bitmask <value>]
//
// and attaches the compiled condition, binding <result> in the rule's
// symbol table. A symbolic rvalue must name a symbol bound by an
// earlier keyword; forward references are rejected here, at parse time.
func SetupMath(sig *ir.Signature, raw string) error {
	cond := &MathCondition{
		Desc: Descriptor{Endian: enums.BigEndian, Base: enums.BaseDec},
	}

	var sawBytes, sawOffset, sawOper, sawRvalue, sawResult bool
	var rvalueTok string

	for _, tok := range splitArgs(raw) {
		opt, val, hasVal := strings.Cut(tok, " ")
		val = strings.TrimSpace(val)

		switch opt {
		case "relative":
			cond.Desc.Relative = true
		case "dce":
			cond.Desc.Endian = enums.EndianDCE
		case "bytes":
			n, err := parseInt(val, "length")
			if err != nil {
				return err
			}
			cond.Desc.Nbytes = n
			sawBytes = true
		case "offset":
			o, err := parseInt(val, "offset")
			if err != nil {
				return err
			}
			cond.Desc.Offset = o
			sawOffset = true
		case "oper":
			op, ok := enums.OperatorFromToken(val)
			if !ok {
				return fmt.Errorf("unrecognized operator %q", val)
			}
			cond.Oper = op
			sawOper = true
		case "rvalue":
			if !hasVal || val == "" {
				return fmt.Errorf("rvalue requires a value")
			}
			rvalueTok = val
			sawRvalue = true
		case "result":
			if !validIdent(val) {
				return fmt.Errorf("invalid result name %q", val)
			}
			cond.ResultName = val
			sawResult = true
		case "endian":
			e, ok := enums.Endians.FromName(val)
			if !ok || e == enums.EndianDCE {
				return fmt.Errorf("endian must be big or little, got %q", val)
			}
			cond.Desc.Endian = e
		case "string":
			b, ok := enums.Bases.FromName(val)
			if !ok {
				return fmt.Errorf("string base must be one of hex, dec, oct: %q", val)
			}
			cond.Desc.StringMode = true
			cond.Desc.Base = b
		case "bitmask":
			m, err := parseBitmask(val)
			if err != nil {
				return err
			}
			cond.Bitmask = m
			cond.maskShift = uint(bits.TrailingZeros64(m))
		default:
			return fmt.Errorf("unrecognized byte_math option %q", tok)
		}
	}

	if !sawBytes || !sawOffset || !sawOper || !sawRvalue || !sawResult {
		return fmt.Errorf("byte_math requires bytes, offset, oper, rvalue and result")
	}
	if cond.Desc.StringMode && cond.Desc.Endian == enums.EndianDCE {
		return fmt.Errorf("base %s and dce endianness are incompatible", enums.Bases.Name(cond.Desc.Base))
	}
	if err := cond.Desc.Validate(); err != nil {
		return err
	}

	if err := resolveRvalue(cond, sig, rvalueTok); err != nil {
		return err
	}

	slot, err := sig.Symbols.Bind(cond.ResultName)
	if err != nil {
		return err
	}
	cond.slot = slot
	sig.AppendCondition(cond)
	return nil
}

// resolveRvalue classifies the right-hand operand. A token starting
// with a digit is a literal, validated against the operator's domain
// right here; anything else must name an already-bound symbol.
func resolveRvalue(cond *MathCondition, sig *ir.Signature, tok string) error {
	if tok[0] >= '0' && tok[0] <= '9' {
		v, err := strconv.ParseUint(tok, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid rvalue literal %q", tok)
		}
		if cond.Oper == enums.OperDiv && v == 0 {
			return fmt.Errorf("rvalue 0 is not a valid divisor")
		}
		if (cond.Oper == enums.OperLshift || cond.Oper == enums.OperRshift) && v >= 64 {
			return fmt.Errorf("shift count %d out of range 0..63", v)
		}
		cond.RValue = v
		return nil
	}

	if !validIdent(tok) {
		return fmt.Errorf("invalid rvalue %q", tok)
	}
	slot, ok := sig.Symbols.Resolve(tok)
	if !ok {
		return fmt.Errorf("rvalue %q does not name a value bound by an earlier keyword", tok)
	}
	cond.RSymbol = tok
	cond.rslot = slot
	cond.symbolic = true
	return nil
}

func parseBitmask(tok string) (uint64, error) {
	s := tok
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	m, err := strconv.ParseUint(s, base, 64)
	if err != nil || m == 0 {
		return 0, fmt.Errorf("invalid bitmask %q", tok)
	}
	return m, nil
}
