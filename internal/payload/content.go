// Package payload implements the content-matching side of the keyword
// table: the content keyword, which searches the active inspection
// buffer for a byte pattern, and the sticky-buffer keywords that
// designate which buffer later content-matching keywords inspect.
package payload

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/kraitsec/krait/internal/ir"
	"github.com/kraitsec/krait/internal/keyword"
)

// ContentCondition is the compiled form of one content keyword.
// A match advances the detection cursor to the end of the matched
// bytes, so relative extraction offsets compose with content matches.
type ContentCondition struct {
	pattern []byte
	raw     string
}

// Keyword implements ir.Condition.
func (c *ContentCondition) Keyword() string { return "content" }

// Eval searches the active buffer from the detection cursor.
func (c *ContentCondition) Eval(st *ir.EvalState) ir.Outcome {
	buf := st.ActiveBuffer()
	if st.Cursor > len(buf) || len(c.pattern) == 0 {
		return ir.OutcomeNoMatch
	}
	idx := bytes.Index(buf[st.Cursor:], c.pattern)
	if idx < 0 {
		return ir.OutcomeNoMatch
	}
	st.Cursor += idx + len(c.pattern)
	return ir.OutcomeMatch
}

// Pattern returns the compiled pattern bytes.
func (c *ContentCondition) Pattern() []byte { return c.pattern }

// SetupContent parses content argument text: a mandatory quoted string
// whose body may mix literal text with |xx xx| hex pipes, e.g.
// "GET |0d 0a|". Escapes \", \\ and \| are recognized.
func SetupContent(sig *ir.Signature, raw string) error {
	body, err := unquote(raw)
	if err != nil {
		return err
	}
	pattern, err := compilePattern(body)
	if err != nil {
		return err
	}
	if len(pattern) == 0 {
		return fmt.Errorf("content pattern must not be empty")
	}

	cond := &ContentCondition{pattern: pattern, raw: raw}
	sig.AppendCondition(cond)
	sig.AddLiteral(string(pattern))
	return nil
}

func unquote(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("content argument must be a quoted string: %q", raw)
	}
	return s[1 : len(s)-1], nil
}

// compilePattern expands hex pipes and escapes into raw bytes.
func compilePattern(body string) ([]byte, error) {
	var out []byte
	inHex := false
	var hexRun strings.Builder

	for i := 0; i < len(body); i++ {
		ch := body[i]
		switch {
		case inHex && ch == '|':
			b, err := hex.DecodeString(strings.ReplaceAll(hexRun.String(), " ", ""))
			if err != nil {
				return nil, fmt.Errorf("invalid hex pipe %q: %w", hexRun.String(), err)
			}
			out = append(out, b...)
			hexRun.Reset()
			inHex = false
		case inHex:
			hexRun.WriteByte(ch)
		case ch == '|':
			inHex = true
		case ch == '\\':
			if i+1 >= len(body) {
				return nil, fmt.Errorf("dangling escape in content pattern")
			}
			i++
			switch body[i] {
			case '"', '\\', '|':
				out = append(out, body[i])
			default:
				return nil, fmt.Errorf("unsupported escape \\%c", body[i])
			}
		default:
			out = append(out, ch)
		}
	}
	if inHex {
		return nil, fmt.Errorf("unterminated hex pipe in content pattern")
	}
	return out, nil
}

// matchContent is the registration's match callback; the engine invokes
// it instead of calling the condition directly.
func matchContent(st *ir.EvalState, c ir.Condition) ir.Outcome {
	return c.(*ContentCondition).Eval(st)
}

// freeContent releases the compiled pattern when a ruleset is
// discarded.
func freeContent(c ir.Condition) {
	c.(*ContentCondition).pattern = nil
}

// Register adds the content keyword and the sticky buffers to the
// registry. Called once during engine initialization.
func Register(r *keyword.Registry) error {
	if _, err := r.Register(keyword.Registration{
		Name:  "content",
		Desc:  "match a byte pattern in the active inspection buffer",
		URL:   "https://docs.kraitsec.io/rules/content",
		Setup: SetupContent,
		Match: matchContent,
		Free:  freeContent,
		Flags: keyword.FlagQuotesMandatory,
	}); err != nil {
		return fmt.Errorf("register content: %w", err)
	}
	return registerStickyBuffers(r)
}
