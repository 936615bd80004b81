package bytekw

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kraitsec/krait/internal/enums"
	"github.com/kraitsec/krait/internal/ir"
)

// ExtractCondition is the compiled form of one byte_extract keyword:
// read Desc's integer, optionally scale and align it, and bind it to
// the rule-local symbol slot.
type ExtractCondition struct {
	Desc       Descriptor
	Multiplier uint64
	Align      uint64
	VarName    string
	slot       int
}

// Keyword implements ir.Condition.
func (c *ExtractCondition) Keyword() string { return "byte_extract" }

// Eval reads the value and binds it. Extraction always "matches" when
// the read succeeds; every runtime failure is a no-match for this
// evaluation.
func (c *ExtractCondition) Eval(st *ir.EvalState) ir.Outcome {
	v, end, ok := c.Desc.Extract(st)
	if !ok {
		return ir.OutcomeNoMatch
	}
	if c.Multiplier > 1 {
		if v, ok = mulCheck(v, c.Multiplier); !ok {
			return ir.OutcomeNoMatch
		}
	}
	if c.Align > 1 {
		if v, ok = alignUp(v, c.Align); !ok {
			return ir.OutcomeNoMatch
		}
	}
	st.SetVar(c.slot, v)
	st.Cursor = end
	return ir.OutcomeMatch
}

// SetupExtract parses byte_extract argument text:
//
//	<bytes>, <offset>, <name>
//	    [, relative] [, multiplier <n>] [, big|little|dce]
//	    [, string, <hex|dec|oct>] [, align <2|4>]
//
// and attaches the compiled condition, binding <name> in the rule's
// symbol table.
func SetupExtract(sig *ir.Signature, raw string) error {
	args := splitArgs(raw)
	if len(args) < 3 {
		return fmt.Errorf("byte_extract needs at least bytes, offset and name: %q", raw)
	}

	cond := &ExtractCondition{
		Desc: Descriptor{Endian: enums.BigEndian, Base: enums.BaseDec},
	}

	var err error
	if cond.Desc.Nbytes, err = parseInt(args[0], "length"); err != nil {
		return err
	}
	if cond.Desc.Offset, err = parseInt(args[1], "offset"); err != nil {
		return err
	}
	cond.VarName = args[2]
	if !validIdent(cond.VarName) {
		return fmt.Errorf("invalid extraction name %q", cond.VarName)
	}

	var sawEndian, sawBase bool
	rest := args[3:]
	for i := 0; i < len(rest); i++ {
		opt, val, hasVal := strings.Cut(rest[i], " ")
		val = strings.TrimSpace(val)

		switch opt {
		case "relative":
			cond.Desc.Relative = true
		case "big", "little", "dce":
			if sawEndian {
				return fmt.Errorf("endianness specified twice")
			}
			sawEndian = true
			cond.Desc.Endian, _ = enums.Endians.FromName(opt)
		case "string":
			cond.Desc.StringMode = true
			// Base travels as the next comma token.
			if i+1 < len(rest) {
				if b, ok := enums.Bases.FromName(rest[i+1]); ok {
					cond.Desc.Base = b
					sawBase = true
					i++
				}
			}
		case "multiplier":
			if !hasVal {
				return fmt.Errorf("multiplier requires a value")
			}
			m, err := strconv.ParseUint(val, 10, 16)
			if err != nil || m == 0 {
				return fmt.Errorf("invalid multiplier %q", val)
			}
			cond.Multiplier = m
		case "align":
			if !hasVal {
				return fmt.Errorf("align requires a value")
			}
			a, err := strconv.ParseUint(val, 10, 8)
			if err != nil || (a != 2 && a != 4) {
				return fmt.Errorf("align must be 2 or 4, got %q", val)
			}
			cond.Align = a
		default:
			return fmt.Errorf("unrecognized byte_extract option %q", rest[i])
		}
	}

	if sawBase && !cond.Desc.StringMode {
		return fmt.Errorf("base is only valid with string extraction")
	}
	if cond.Desc.StringMode && sawEndian {
		return fmt.Errorf("string extraction and endianness are incompatible")
	}
	if sawBase && cond.Desc.Endian == enums.EndianDCE {
		return fmt.Errorf("base and dce endianness are incompatible")
	}
	if err := cond.Desc.Validate(); err != nil {
		return err
	}

	slot, err := sig.Symbols.Bind(cond.VarName)
	if err != nil {
		return err
	}
	cond.slot = slot
	sig.AppendCondition(cond)
	return nil
}

// splitArgs splits keyword argument text on commas and trims each
// token. Inner spaces within a token (e.g. "multiplier 4") survive.
func splitArgs(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func parseInt(tok, what string) (int, error) {
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, tok)
	}
	return v, nil
}

// validIdent accepts symbol names: a letter or underscore followed by
// letters, digits, underscores or dots.
func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && (r == '.' || (r >= '0' && r <= '9')):
		default:
			return false
		}
	}
	return true
}
