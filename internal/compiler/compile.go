package compiler

import (
	"fmt"
	"strings"

	"github.com/kraitsec/krait/internal/ir"
	"github.com/kraitsec/krait/internal/keyword"
)

// Compiler compiles rule definitions against a frozen keyword registry.
type Compiler struct {
	reg *keyword.Registry
}

// New creates a compiler. The registry must already be frozen:
// compilation happens strictly after the registration phase.
func New(reg *keyword.Registry) *Compiler {
	if !reg.Frozen() {
		panic("compiler: registry must be frozen before rule compilation")
	}
	return &Compiler{reg: reg}
}

// Ruleset is the immutable compiled form of a rule file. Once built it
// is shared read-only across all worker threads; reload is modeled as
// atomic replacement of the whole structure, never in-place mutation.
type Ruleset struct {
	Signatures []*ir.Signature

	// Fingerprint is the content-addressed identity of the compiled
	// ruleset, stable across processes for the same definitions.
	Fingerprint string

	reg    *keyword.Registry
	closed bool
}

// Compile builds signatures from definitions. A failing rule is
// rejected with diagnostics and the rest of the ruleset continues to
// load; the returned Ruleset holds only the rules that compiled.
func (c *Compiler) Compile(defs []RuleDef) (*Ruleset, []ValidationError) {
	var errs []ValidationError
	seen := make(map[uint32]bool, len(defs))

	rs := &Ruleset{reg: c.reg}
	var sigHashes []any

	for _, def := range defs {
		if seen[def.SID] {
			errs = append(errs, ValidationError{
				Code: ErrDuplicateSID, SID: def.SID,
				Message: "sid already used in this ruleset",
			})
			continue
		}
		seen[def.SID] = true

		sig, ruleErrs := c.compileRule(def)
		if len(ruleErrs) > 0 {
			errs = append(errs, ruleErrs...)
			continue
		}
		rs.Signatures = append(rs.Signatures, sig)
		sigHashes = append(sigHashes, sig.Fingerprint)
	}

	if fp, err := ir.ContentHash(ir.DomainRuleset, sigHashes); err == nil {
		rs.Fingerprint = fp
	}
	return rs, errs
}

// compileRule drives the setup callbacks for one rule in declared
// keyword order, so symbol bindings become visible exactly to the
// keywords that follow them.
func (c *Compiler) compileRule(def RuleDef) (*ir.Signature, []ValidationError) {
	if def.SID == 0 || strings.TrimSpace(def.Msg) == "" {
		return nil, []ValidationError{{
			Code: ErrBadHeader, SID: def.SID,
			Message: "rule requires a nonzero sid and a msg",
		}}
	}
	if len(def.Keywords) == 0 {
		return nil, []ValidationError{{
			Code: ErrNoKeywords, SID: def.SID,
			Message: "rule declares no keywords",
		}}
	}

	rev := def.Rev
	if rev == 0 {
		rev = 1
	}
	sig := ir.NewSignature(def.SID, def.Msg, rev)

	for _, use := range def.Keywords {
		if err := c.applyKeyword(sig, use); err != nil {
			// One bad keyword rejects the whole rule.
			return nil, []ValidationError{*err}
		}
	}

	fp, err := ir.ContentHash(ir.DomainSignature, map[string]any{
		"sid":      def.SID,
		"msg":      def.Msg,
		"rev":      int64(rev),
		"keywords": keywordList(def.Keywords),
	})
	if err != nil {
		return nil, []ValidationError{{
			Code: ErrBadHeader, SID: def.SID,
			Message: fmt.Sprintf("fingerprint: %v", err),
		}}
	}
	sig.Fingerprint = fp
	sig.Freeze()
	return sig, nil
}

func (c *Compiler) applyKeyword(sig *ir.Signature, use KeywordUse) *ValidationError {
	reg, _, ok := c.reg.Lookup(use.Keyword)
	if !ok {
		return &ValidationError{
			Code: ErrUnknownKeyword, SID: sig.SID, Keyword: use.Keyword,
			Message: "unknown keyword",
		}
	}

	args := strings.TrimSpace(use.Args)
	switch {
	case reg.Flags.Has(keyword.FlagNoOption) && args != "":
		return &ValidationError{
			Code: ErrUnexpectedArgs, SID: sig.SID, Keyword: use.Keyword,
			Message: fmt.Sprintf("keyword takes no argument text, got %q", args),
		}
	case !reg.Flags.Has(keyword.FlagNoOption) && !reg.Flags.Has(keyword.FlagOptionalOption) && args == "":
		return &ValidationError{
			Code: ErrMissingArgs, SID: sig.SID, Keyword: use.Keyword,
			Message: "keyword requires argument text",
		}
	case reg.Flags.Has(keyword.FlagQuotesMandatory) && !isQuoted(args):
		return &ValidationError{
			Code: ErrQuotesMandatory, SID: sig.SID, Keyword: use.Keyword,
			Message: fmt.Sprintf("argument must be a quoted string, got %q", args),
		}
	}

	if err := reg.Setup(sig, args); err != nil {
		return &ValidationError{
			Code: ErrBadArgs, SID: sig.SID, Keyword: use.Keyword,
			Message: err.Error(),
		}
	}
	return nil
}

func isQuoted(s string) bool {
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
}

func keywordList(uses []KeywordUse) []any {
	out := make([]any, len(uses))
	for i, u := range uses {
		out[i] = map[string]any{"keyword": u.Keyword, "args": u.Args}
	}
	return out
}

// Close invokes each keyword's optional free callback for its
// conditions. Called once when the ruleset is discarded; a second call
// is a no-op.
func (rs *Ruleset) Close() {
	if rs.closed {
		return
	}
	rs.closed = true
	for _, sig := range rs.Signatures {
		for _, cond := range sig.Conditions {
			if reg, _, ok := rs.reg.Lookup(cond.Keyword()); ok && reg.Free != nil {
				reg.Free(cond)
			}
		}
	}
}
