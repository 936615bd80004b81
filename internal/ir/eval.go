package ir

// DefaultBuffer is the buffer inspected when no sticky-buffer keyword
// has designated another one.
const DefaultBuffer = "payload"

// EvalState is the per-evaluation scratch state for one signature
// against one packet or transaction. It is created fresh for every
// evaluation, lives on one worker goroutine, and is never shared, so no
// synchronization is required.
type EvalState struct {
	buffers map[string][]byte
	active  string

	// Cursor is the detection cursor within the active buffer. Relative
	// offsets are deltas from here; matching keywords advance it.
	Cursor int

	// DCELittleEndian is the byte order resolved by the (external)
	// DCERPC decoder for dce-endian extractions. Little-endian unless
	// the decoder says otherwise.
	DCELittleEndian bool

	vars []uint64
	set  []bool
}

// NewEvalState creates evaluation state over the packet's named buffers
// with room for the signature's bound symbols. The active buffer starts
// as DefaultBuffer with the cursor at zero.
func NewEvalState(buffers map[string][]byte, symbols int) *EvalState {
	return &EvalState{
		buffers:         buffers,
		active:          DefaultBuffer,
		DCELittleEndian: true,
		vars:            make([]uint64, symbols),
		set:             make([]bool, symbols),
	}
}

// ActiveBuffer returns the bytes of the currently designated buffer.
// Returns nil if the packet did not supply it.
func (st *EvalState) ActiveBuffer() []byte {
	return st.buffers[st.active]
}

// ActiveName returns the name of the currently designated buffer.
func (st *EvalState) ActiveName() string {
	return st.active
}

// SetActive designates the named buffer for subsequent conditions and
// resets the cursor. Returns false if the packet carries no such
// buffer.
func (st *EvalState) SetActive(name string) bool {
	if _, ok := st.buffers[name]; !ok {
		return false
	}
	st.active = name
	st.Cursor = 0
	return true
}

// SetVar stores an extracted value in the given symbol slot.
func (st *EvalState) SetVar(slot int, v uint64) {
	st.vars[slot] = v
	st.set[slot] = true
}

// Var returns the value bound at the given slot, and whether a value
// has been bound during this evaluation.
func (st *EvalState) Var(slot int) (uint64, bool) {
	if slot < 0 || slot >= len(st.set) || !st.set[slot] {
		return 0, false
	}
	return st.vars[slot], true
}

// Bindings snapshots all values bound during this evaluation, keyed by
// symbol name. Used for match-event reporting.
func (st *EvalState) Bindings(symbols *SymbolTable) map[string]uint64 {
	out := make(map[string]uint64)
	for slot := 0; slot < symbols.Len(); slot++ {
		if st.set[slot] {
			out[symbols.Name(slot)] = st.vars[slot]
		}
	}
	return out
}
