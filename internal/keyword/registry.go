// Package keyword implements the registration bridge between keyword
// implementations and the owning engine.
//
// Each keyword registers once, during engine initialization, producing a
// uniform registration record. The registry is append-only during the
// init phase and frozen before any rule is compiled or any traffic is
// inspected; after freeze no mutation API is exposed.
//
// OWNERSHIP:
//
// The descriptive strings of a registration (name, description, url) are
// transferred to the engine at registration time. The engine owns the
// transferred copies and is solely responsible for invoking the release
// path - ReleaseNames - exactly once per registration, at shutdown. The
// registry tracks transfer state per registration; releasing twice, or
// registering after freeze, is a programming-contract violation and
// panics rather than returning a recoverable error.
package keyword

import (
	"fmt"

	"github.com/kraitsec/krait/internal/ir"
)

// ID is the opaque identifier returned by registration, used when later
// attaching a keyword to a rule's match-condition list.
type ID uint16

// Flags is the combinable signature-option bit field.
type Flags uint16

// Wire-stable flag bits. Bit positions match the engine's signature
// match table and are never renumbered.
const (
	// FlagNoOption marks a keyword that takes no argument text.
	// Mutually exclusive with FlagOptionalOption.
	FlagNoOption Flags = 1 << 0

	// FlagOptionalOption marks a keyword whose argument text may be
	// omitted.
	FlagOptionalOption Flags = 1 << 4

	// FlagQuotesMandatory marks a keyword whose argument must be a
	// quoted string.
	FlagQuotesMandatory Flags = 1 << 6

	// FlagStickyBuffer marks a keyword that designates the active
	// inspection buffer for later content-matching keywords rather than
	// producing a match condition itself.
	FlagStickyBuffer Flags = 1 << 9
)

// Has reports whether all bits of mask are set.
func (f Flags) Has(mask Flags) bool {
	return f&mask == mask
}

// SetupFn parses a keyword's argument text at rule-compile time and
// attaches the resulting condition to the signature. A returned error
// rejects the single offending rule.
type SetupFn func(sig *ir.Signature, rawArgs string) error

// MatchFn is the optional evaluation callback. When set, the engine
// invokes it instead of the condition's own Eval method.
type MatchFn func(st *ir.EvalState, c ir.Condition) ir.Outcome

// FreeFn is the optional per-condition release callback, invoked once
// for each of the keyword's conditions when a ruleset is discarded.
type FreeFn func(c ir.Condition)

// Registration is one keyword's uniform registration record.
type Registration struct {
	// Name is the keyword name as written in rules. Unique.
	Name string

	// Desc is a one-line description for the keyword table listing.
	Desc string

	// URL points at the keyword's documentation.
	URL string

	// Setup parses argument text and attaches conditions. Required.
	Setup SetupFn

	// Match is the optional evaluation callback.
	Match MatchFn

	// Free is the optional per-condition release callback.
	Free FreeFn

	// Flags is the signature-option bit field.
	Flags Flags
}

// TransferredNames holds the engine-owned copies of a registration's
// descriptive strings, plus the transfer state that makes double-release
// detectable.
type TransferredNames struct {
	Name     string
	Desc     string
	URL      string
	released bool
}

// Registry is the process-wide keyword table. Populated strictly during
// an init phase, frozen before evaluation begins, and read-only
// thereafter.
type Registry struct {
	entries []*entry
	byName  map[string]ID
	frozen  bool
}

type entry struct {
	reg   Registration
	names *TransferredNames
}

// NewRegistry creates an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]ID)}
}

// Register adds a keyword to the table and transfers its descriptive
// strings to the engine, returning the opaque keyword ID.
//
// Errors here are fatal to engine start-up: a name collision, a missing
// setup callback, or NoOption combined with OptionalOption leaves the
// keyword table inconsistent and the process must not continue.
// Registering after Freeze panics.
func (r *Registry) Register(reg Registration) (ID, error) {
	if r.frozen {
		panic(fmt.Sprintf("keyword: register %q after freeze", reg.Name))
	}
	if reg.Name == "" {
		return 0, fmt.Errorf("keyword registration with empty name")
	}
	if reg.Setup == nil {
		return 0, fmt.Errorf("keyword %q: setup callback is required", reg.Name)
	}
	if reg.Flags.Has(FlagNoOption) && reg.Flags.Has(FlagOptionalOption) {
		return 0, fmt.Errorf("keyword %q: NoOption and OptionalOption are mutually exclusive", reg.Name)
	}
	if _, dup := r.byName[reg.Name]; dup {
		return 0, fmt.Errorf("keyword %q: name already registered", reg.Name)
	}

	id := ID(len(r.entries))
	r.entries = append(r.entries, &entry{
		reg: reg,
		names: &TransferredNames{
			Name: reg.Name,
			Desc: reg.Desc,
			URL:  reg.URL,
		},
	})
	r.byName[reg.Name] = id
	return id, nil
}

// Freeze marks the registry read-only. Called once, after all keyword
// modules have registered and before rule compilation starts.
func (r *Registry) Freeze() {
	r.frozen = true
}

// Frozen reports whether the registry has been frozen.
func (r *Registry) Frozen() bool {
	return r.frozen
}

// Len returns the number of registered keywords.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Lookup returns the registration for a keyword name.
func (r *Registry) Lookup(name string) (Registration, ID, bool) {
	id, ok := r.byName[name]
	if !ok {
		return Registration{}, 0, false
	}
	return r.entries[id].reg, id, true
}

// Get returns the registration for a keyword ID.
func (r *Registry) Get(id ID) (Registration, bool) {
	if int(id) >= len(r.entries) {
		return Registration{}, false
	}
	return r.entries[id].reg, true
}

// Names returns the engine-owned descriptive strings of a registration.
// Panics if the strings have already been released.
func (r *Registry) Names(id ID) *TransferredNames {
	n := r.entries[id].names
	if n.released {
		panic(fmt.Sprintf("keyword: use of released names for id %d", id))
	}
	return n
}

// ReleaseNames releases the three descriptive strings of one
// registration record, each exactly once. This is the sole release
// entry point; it has no caller other than the engine's shutdown path.
//
// Releasing the same registration twice is a programming-contract
// violation and panics.
func (r *Registry) ReleaseNames(id ID) {
	if int(id) >= len(r.entries) {
		panic(fmt.Sprintf("keyword: release of unknown id %d", id))
	}
	n := r.entries[id].names
	if n.released {
		panic(fmt.Sprintf("keyword: double release of names for %q", n.Name))
	}
	n.Name, n.Desc, n.URL = "", "", ""
	n.released = true
}

// Shutdown invokes the release path exactly once for every registration
// that has not yet been released. The engine calls this once, at
// process shutdown.
func (r *Registry) Shutdown() {
	for id := range r.entries {
		if !r.entries[id].names.released {
			r.ReleaseNames(ID(id))
		}
	}
}

// Unreleased returns the names of registrations whose strings have not
// been released. Test harnesses use this to flag leaks after shutdown.
func (r *Registry) Unreleased() []string {
	var out []string
	for _, e := range r.entries {
		if !e.names.released {
			out = append(out, e.reg.Name)
		}
	}
	return out
}
