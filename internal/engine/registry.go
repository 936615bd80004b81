package engine

import (
	"github.com/kraitsec/krait/internal/bytekw"
	"github.com/kraitsec/krait/internal/keyword"
	"github.com/kraitsec/krait/internal/payload"
)

// DefaultRegistry builds a registry with every built-in keyword
// registered and returns it frozen. Registration failures are
// programming errors and abort startup.
func DefaultRegistry() *keyword.Registry {
	r := keyword.NewRegistry()
	if err := bytekw.Register(r); err != nil {
		panic(err)
	}
	if err := payload.Register(r); err != nil {
		panic(err)
	}
	r.Freeze()
	return r
}
