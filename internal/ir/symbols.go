package ir

import "fmt"

// SymbolTable is the rule-local table of names bound by extraction
// keywords. It is assembled during rule compilation in declared keyword
// order and frozen with the signature.
//
// Resolution is order-checked by construction: Resolve only sees names
// bound by keywords whose setup ran earlier in the rule. A reference to
// a name bound later in the rule therefore fails at parse time, never at
// evaluation time.
type SymbolTable struct {
	names []string
	index map[string]int
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{index: make(map[string]int)}
}

// Bind registers a new name and returns its slot. Returns an error if
// the name is already bound within the same rule.
func (t *SymbolTable) Bind(name string) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("symbol name must not be empty")
	}
	if _, dup := t.index[name]; dup {
		return 0, fmt.Errorf("symbol %q already bound in this rule", name)
	}
	slot := len(t.names)
	t.names = append(t.names, name)
	t.index[name] = slot
	return slot, nil
}

// Resolve returns the slot of an already-bound name.
func (t *SymbolTable) Resolve(name string) (int, bool) {
	slot, ok := t.index[name]
	return slot, ok
}

// Len returns the number of bound symbols.
func (t *SymbolTable) Len() int {
	return len(t.names)
}

// Name returns the name bound at the given slot.
func (t *SymbolTable) Name(slot int) string {
	return t.names[slot]
}
