package payload

import (
	"fmt"

	"github.com/kraitsec/krait/internal/ir"
	"github.com/kraitsec/krait/internal/keyword"
)

// stickyBuffers are the named inspection buffers this build registers.
// The bytes themselves are supplied by the caller on each packet;
// protocol decoding stays outside this core.
var stickyBuffers = []struct {
	name string
	desc string
}{
	{"http.uri", "designate the normalized request URI for inspection"},
	{"http.host", "designate the request host for inspection"},
}

// BufferCondition designates a named buffer for subsequent conditions
// rather than producing a match of its own. Evaluation fails only when
// the packet carries no such buffer.
type BufferCondition struct {
	keywordName string
	buffer      string
}

// Keyword implements ir.Condition.
func (c *BufferCondition) Keyword() string { return c.keywordName }

// Eval switches the active buffer and resets the cursor.
func (c *BufferCondition) Eval(st *ir.EvalState) ir.Outcome {
	if !st.SetActive(c.buffer) {
		return ir.OutcomeNoMatch
	}
	return ir.OutcomeMatch
}

// Buffer returns the designated buffer name.
func (c *BufferCondition) Buffer() string { return c.buffer }

func registerStickyBuffers(r *keyword.Registry) error {
	for _, sb := range stickyBuffers {
		name := sb.name
		setup := func(sig *ir.Signature, _ string) error {
			sig.AppendCondition(&BufferCondition{keywordName: name, buffer: name})
			return nil
		}
		if _, err := keyword.RegisterStickyBuffer(r, name, sb.desc, "https://docs.kraitsec.io/rules/"+name, setup); err != nil {
			return fmt.Errorf("register sticky buffer %s: %w", name, err)
		}
	}
	return nil
}
