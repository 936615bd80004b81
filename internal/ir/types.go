package ir

import "fmt"

// Outcome is the result of evaluating one condition against a packet.
//
// Runtime failures (short buffer, overflow, divide-by-zero with a
// runtime-resolved divisor) are absorbed into OutcomeNoMatch: they end
// evaluation of the current signature but never abort other signatures.
type Outcome int

const (
	// OutcomeNoMatch means the condition did not match, or a runtime
	// failure was absorbed.
	OutcomeNoMatch Outcome = iota

	// OutcomeMatch means the condition matched and evaluation continues
	// with the next condition.
	OutcomeMatch
)

// Condition is one compiled keyword match condition attached to a
// signature. Conditions are created at rule-compile time by a keyword's
// setup callback and are immutable and shared read-only across worker
// threads for the lifetime of the ruleset.
type Condition interface {
	// Keyword returns the registered keyword name, used for diagnostics
	// and for resolving the registration's optional match callback.
	Keyword() string

	// Eval evaluates the condition against per-evaluation state.
	Eval(st *EvalState) Outcome
}

// Signature is one compiled rule: an ordered list of keyword match
// conditions plus the rule-local symbol table. Built during rule
// compilation, frozen before evaluation begins.
type Signature struct {
	SID uint32
	Msg string
	Rev int

	// Conditions in declared keyword order. Evaluation short-circuits
	// on the first OutcomeNoMatch.
	Conditions []Condition

	// Symbols is the rule-local symbol table for values bound by
	// extraction keywords and consumed by later keywords.
	Symbols *SymbolTable

	// Literals are content patterns contributed by conditions, used by
	// the engine's prefilter. Signatures without literals are always
	// evaluated.
	Literals []string

	// Fingerprint is the content-addressed identity of the rule
	// definition this signature was compiled from.
	Fingerprint string

	frozen bool
}

// NewSignature creates an unfrozen signature ready for setup callbacks.
func NewSignature(sid uint32, msg string, rev int) *Signature {
	return &Signature{
		SID:     sid,
		Msg:     msg,
		Rev:     rev,
		Symbols: NewSymbolTable(),
	}
}

// AppendCondition attaches a condition to the signature's match list.
// Panics if the signature is already frozen: setup callbacks only run
// during compilation, strictly before evaluation.
func (s *Signature) AppendCondition(c Condition) {
	if s.frozen {
		panic(fmt.Sprintf("ir: append to frozen signature %d", s.SID))
	}
	s.Conditions = append(s.Conditions, c)
}

// AddLiteral records a prefilter literal for this signature.
// Panics if the signature is already frozen.
func (s *Signature) AddLiteral(lit string) {
	if s.frozen {
		panic(fmt.Sprintf("ir: add literal to frozen signature %d", s.SID))
	}
	s.Literals = append(s.Literals, lit)
}

// Freeze marks the signature immutable. Called once by the compiler
// after all setup callbacks have run.
func (s *Signature) Freeze() {
	s.frozen = true
}

// Frozen reports whether the signature has been frozen.
func (s *Signature) Frozen() bool {
	return s.frozen
}
