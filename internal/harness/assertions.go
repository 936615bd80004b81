package harness

import (
	"fmt"
	"strings"
)

// Assertion validates the match events a scenario produced.
type Assertion struct {
	// Type specifies the assertion type:
	// - "match": the rule matched the packet (optionally with vars)
	// - "no_match": the rule did not match the packet
	// - "match_count": the rule matched exactly N times across all packets
	Type string `yaml:"type"`

	// Packet is the packet ID (used by match, no_match).
	Packet string `yaml:"packet,omitempty"`

	// SID is the rule identifier the assertion is about.
	SID uint32 `yaml:"sid"`

	// Vars are expected bound values (used by match).
	// Subset match - only specified names are validated.
	Vars map[string]uint64 `yaml:"vars,omitempty"`

	// Count is the expected number of matches (used by match_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertMatch      = "match"
	AssertNoMatch    = "no_match"
	AssertMatchCount = "match_count"
)

// EvaluateAssertions checks every assertion against the result and
// returns the failure messages. Empty means all assertions held.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertion %d (%s): %v", i+1, a.Type, err))
		}
	}
	return failures
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertMatch:
		return assertMatch(result, a)
	case AssertNoMatch:
		return assertNoMatch(result, a)
	case AssertMatchCount:
		return assertMatchCount(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertMatch checks that the rule matched the packet, and that every
// asserted var was bound to the expected value.
func assertMatch(result *Result, a Assertion) error {
	for _, ev := range result.Events {
		if ev.PacketID != a.Packet || ev.SID != a.SID {
			continue
		}
		var mismatches []string
		for name, want := range a.Vars {
			got, ok := ev.Vars[name]
			if !ok {
				mismatches = append(mismatches, fmt.Sprintf("%s unbound", name))
			} else if got != want {
				mismatches = append(mismatches, fmt.Sprintf("%s = %d, want %d", name, got, want))
			}
		}
		if len(mismatches) > 0 {
			return fmt.Errorf("rule %d matched packet %s but vars differ: %s",
				a.SID, a.Packet, strings.Join(mismatches, "; "))
		}
		return nil
	}
	return fmt.Errorf("rule %d did not match packet %s", a.SID, a.Packet)
}

func assertNoMatch(result *Result, a Assertion) error {
	for _, ev := range result.Events {
		if ev.PacketID == a.Packet && ev.SID == a.SID {
			return fmt.Errorf("rule %d matched packet %s", a.SID, a.Packet)
		}
	}
	return nil
}

func assertMatchCount(result *Result, a Assertion) error {
	count := 0
	for _, ev := range result.Events {
		if ev.SID == a.SID {
			count++
		}
	}
	if count != a.Count {
		return fmt.Errorf("rule %d matched %d times, want %d", a.SID, count, a.Count)
	}
	return nil
}
