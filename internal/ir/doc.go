// Package ir holds the compiled signature representation shared by the
// keyword parsers, the rule compiler, and the inspection engine.
//
// This package contains types and pure helpers only. All other internal
// packages import ir; ir imports nothing internal. This keeps the IR the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Compiled signatures are immutable once frozen; evaluation never
//     mutates them.
//   - Per-evaluation state (EvalState) is private to one evaluation of
//     one signature against one packet and is never shared.
//   - Extracted values are uint64; floats never appear in the IR.
package ir
