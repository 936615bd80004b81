package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/kraitsec/krait/internal/engine"
	"github.com/kraitsec/krait/internal/ir"
)

// snapshotJSON serializes a scenario's match events as canonical JSON
// for golden comparison. Canonical serialization keeps goldens stable
// across Go versions and map iteration orders.
func snapshotJSON(name string, events []engine.MatchEvent) ([]byte, error) {
	list := make([]any, len(events))
	for i, ev := range events {
		vars := ev.Vars
		if vars == nil {
			vars = map[string]uint64{}
		}
		list[i] = map[string]any{
			"eval_id":   ev.EvalID,
			"packet_id": ev.PacketID,
			"sid":       ev.SID,
			"msg":       ev.Msg,
			"vars":      vars,
		}
	}
	return ir.MarshalCanonical(map[string]any{
		"scenario_name": name,
		"events":        list,
	})
}

// RunWithGolden executes a scenario and compares its match events
// against a golden file in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario itself fails to run; golden mismatch
// fails the test via goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	snapshot, err := snapshotJSON(scenario.Name, result.Events)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snapshot)

	return result, nil
}
