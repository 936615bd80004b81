package harness

import (
	"context"
	"fmt"

	"github.com/kraitsec/krait/internal/compiler"
	"github.com/kraitsec/krait/internal/engine"
	"github.com/kraitsec/krait/internal/store"
	"github.com/kraitsec/krait/internal/testutil"
)

// Result collects everything a scenario run produced.
type Result struct {
	// Events are the match events in inspection order.
	Events []engine.MatchEvent

	// CompileErrors are rule-compilation rejections. A scenario with
	// compile errors still runs the rules that compiled.
	CompileErrors []compiler.ValidationError

	// Failures are assertion-failure messages.
	Failures []string
}

// Passed reports whether the scenario compiled cleanly and every
// assertion held.
func (r *Result) Passed() bool {
	return len(r.CompileErrors) == 0 && len(r.Failures) == 0
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory store for isolation.
// The eval-ID generator is sequential, so the same scenario always
// produces byte-identical events.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	reg := engine.DefaultRegistry()
	defer reg.Shutdown()

	ruleset, compileErrs := compiler.New(reg).Compile(scenario.Rules)
	defer ruleset.Close()

	eng := engine.New(reg, ruleset,
		engine.WithEvalIDGenerator(testutil.NewSequenceIDGenerator("eval")))

	result := &Result{CompileErrors: compileErrs}

	ctx := context.Background()
	for _, def := range scenario.Packets {
		pkt, err := def.Decode()
		if err != nil {
			return nil, err
		}
		for _, ev := range eng.Inspect(pkt) {
			if err := st.WriteEvent(ctx, ev); err != nil {
				return nil, fmt.Errorf("failed to persist event: %w", err)
			}
			result.Events = append(result.Events, ev)
		}
	}

	result.Failures = EvaluateAssertions(result, scenario.Assertions)
	return result, nil
}
