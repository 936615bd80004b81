package engine

import (
	"log/slog"

	"github.com/kraitsec/krait/internal/compiler"
	"github.com/kraitsec/krait/internal/ir"
	"github.com/kraitsec/krait/internal/keyword"
	"github.com/kraitsec/krait/internal/observability"
)

// Packet is one unit of traffic handed to the engine: decoded,
// named inspection buffers keyed by buffer name. The "payload" buffer
// is the default inspection target; protocol decoders contribute
// further buffers such as "http.uri".
type Packet struct {
	ID      string
	Buffers map[string][]byte
}

// MatchEvent records one signature matching one packet, including the
// values bound by extraction keywords during that evaluation.
type MatchEvent struct {
	EvalID   string            `json:"eval_id"`
	PacketID string            `json:"packet_id"`
	SID      uint32            `json:"sid"`
	Msg      string            `json:"msg"`
	Vars     map[string]uint64 `json:"vars"`
}

// Engine evaluates a compiled ruleset against packets.
//
// An Engine is immutable after New and safe for concurrent Inspect
// calls: all per-evaluation state lives in a fresh EvalState.
type Engine struct {
	reg     *keyword.Registry
	rules   *compiler.Ruleset
	pre     *prefilter
	idGen   EvalIDGenerator
	metrics *observability.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithEvalIDGenerator overrides the match-event ID generator.
// Tests use this for deterministic output.
func WithEvalIDGenerator(g EvalIDGenerator) Option {
	return func(e *Engine) { e.idGen = g }
}

// WithMetrics attaches prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an engine over a frozen registry and a compiled ruleset.
func New(reg *keyword.Registry, rules *compiler.Ruleset, opts ...Option) *Engine {
	e := &Engine{
		reg:   reg,
		rules: rules,
		idGen: UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.pre = newPrefilter(rules.Signatures)
	e.metrics.ObserveRuleset(len(rules.Signatures))
	return e
}

// Inspect evaluates every candidate signature against the packet and
// returns the resulting match events in signature order.
//
// A signature whose evaluation fails at runtime (short buffer,
// arithmetic overflow, divide by zero) simply does not match; it never
// affects the evaluation of other signatures.
func (e *Engine) Inspect(pkt Packet) []MatchEvent {
	e.metrics.ObservePacket()

	var events []MatchEvent
	for _, idx := range e.pre.candidates(pkt.Buffers) {
		sig := e.rules.Signatures[idx]
		ev, ok := e.evalSignature(pkt, sig)
		if !ok {
			continue
		}
		e.metrics.ObserveMatch(sig.SID)
		slog.Info("signature matched",
			"sid", sig.SID,
			"msg", sig.Msg,
			"packet", pkt.ID,
			"eval_id", ev.EvalID)
		events = append(events, ev)
	}
	return events
}

func (e *Engine) evalSignature(pkt Packet, sig *ir.Signature) (MatchEvent, bool) {
	st := ir.NewEvalState(pkt.Buffers, sig.Symbols.Len())

	for _, cond := range sig.Conditions {
		if e.evalCondition(st, cond) != ir.OutcomeMatch {
			e.metrics.ObserveNoMatch(cond.Keyword())
			slog.Debug("signature stopped",
				"sid", sig.SID,
				"keyword", cond.Keyword(),
				"packet", pkt.ID)
			return MatchEvent{}, false
		}
	}

	return MatchEvent{
		EvalID:   e.idGen.Generate(),
		PacketID: pkt.ID,
		SID:      sig.SID,
		Msg:      sig.Msg,
		Vars:     st.Bindings(sig.Symbols),
	}, true
}

// evalCondition dispatches through the registry's Match callback when
// the keyword registered one, falling back to the condition's own Eval.
func (e *Engine) evalCondition(st *ir.EvalState, cond ir.Condition) ir.Outcome {
	if reg, _, ok := e.reg.Lookup(cond.Keyword()); ok && reg.Match != nil {
		return reg.Match(st, cond)
	}
	return cond.Eval(st)
}
