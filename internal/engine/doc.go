// Package engine evaluates compiled signatures against packets.
//
// Evaluation is per-signature: every signature gets fresh evaluation
// state, its conditions run in declared order, and the first no-match
// condition ends the signature. A literal prefilter narrows the
// candidate set before any condition runs; signatures that contribute
// no literal patterns are always candidates.
package engine
