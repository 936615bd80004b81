package engine

import (
	ac "github.com/petar-dambovaliev/aho-corasick"

	"github.com/kraitsec/krait/internal/ir"
)

// prefilter narrows the candidate signature set using an Aho-Corasick
// automaton over the literal patterns the signatures contributed at
// compile time.
//
// A signature that contributed at least one literal is a candidate only
// when one of its literals occurs somewhere in the packet's buffers. A
// signature with no literals cannot be prefiltered and is always a
// candidate.
type prefilter struct {
	automaton *ac.AhoCorasick

	// patternSigs maps automaton pattern index to the signatures that
	// contributed that literal.
	patternSigs map[int][]int

	// always holds indices of signatures with no literal patterns.
	always []int

	total int
}

func newPrefilter(sigs []*ir.Signature) *prefilter {
	p := &prefilter{
		patternSigs: make(map[int][]int),
		total:       len(sigs),
	}

	var patterns []string
	for i, sig := range sigs {
		if len(sig.Literals) == 0 {
			p.always = append(p.always, i)
			continue
		}
		for _, lit := range sig.Literals {
			p.patternSigs[len(patterns)] = append(p.patternSigs[len(patterns)], i)
			patterns = append(patterns, lit)
		}
	}

	if len(patterns) > 0 {
		// StandardMatch is required for overlapping iteration. Leftmost
		// match kinds report only the longest pattern at each position,
		// which would hide a literal shadowed by a longer one sharing its
		// start (e.g. "GET /" behind "GET /admin") and drop its signature
		// from the candidate set.
		builder := ac.NewAhoCorasickBuilder(ac.Opts{
			MatchKind: ac.StandardMatch,
		})
		automaton := builder.Build(patterns)
		p.automaton = &automaton
	}
	return p
}

// candidates returns the indices of signatures that must be evaluated
// against a packet carrying the given buffers, in ascending order.
func (p *prefilter) candidates(buffers map[string][]byte) []int {
	if p.automaton == nil {
		return p.always
	}

	seen := make(map[int]bool, len(p.always))
	for _, i := range p.always {
		seen[i] = true
	}
	for _, buf := range buffers {
		if len(seen) == p.total {
			break
		}
		iter := p.automaton.IterOverlapping(string(buf))
		for m := iter.Next(); m != nil; m = iter.Next() {
			for _, i := range p.patternSigs[m.Pattern()] {
				seen[i] = true
			}
		}
	}

	out := make([]int, 0, len(seen))
	for i := 0; i < p.total; i++ {
		if seen[i] {
			out = append(out, i)
		}
	}
	return out
}
