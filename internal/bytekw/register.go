package bytekw

import (
	"fmt"

	"github.com/kraitsec/krait/internal/keyword"
)

const docBase = "https://docs.kraitsec.io/rules/"

// Register adds the byte keyword family to the registry. Called once
// during engine initialization; a failure here aborts start-up.
func Register(r *keyword.Registry) error {
	if _, err := r.Register(keyword.Registration{
		Name:  "byte_extract",
		Desc:  "extract an integer from the inspected buffer and bind it to a name",
		URL:   docBase + "byte-extract",
		Setup: SetupExtract,
	}); err != nil {
		return fmt.Errorf("register byte_extract: %w", err)
	}
	if _, err := r.Register(keyword.Registration{
		Name:  "byte_math",
		Desc:  "extract an integer, combine it with an operand and bind the result",
		URL:   docBase + "byte-math",
		Setup: SetupMath,
	}); err != nil {
		return fmt.Errorf("register byte_math: %w", err)
	}
	return nil
}
