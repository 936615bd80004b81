package harness

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kraitsec/krait/internal/compiler"
	"github.com/kraitsec/krait/internal/engine"
)

// Scenario defines a rule-conformance scenario: a ruleset, packets to
// inspect, and assertions about the resulting matches.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden
	// file when the scenario runs under RunWithGolden.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Rules are the rule definitions compiled for this scenario.
	Rules []compiler.RuleDef `yaml:"rules"`

	// Packets are inspected in order against the compiled ruleset.
	Packets []PacketDef `yaml:"packets"`

	// Assertions validate the collected match events.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// PacketDef describes one packet's inspection buffers in mixed
// notation: plain text with |xx xx| hex runs.
type PacketDef struct {
	ID      string            `yaml:"id"`
	Buffers map[string]string `yaml:"buffers"`
}

// Decode converts the textual buffer notation into an engine packet.
func (p PacketDef) Decode() (engine.Packet, error) {
	buffers := make(map[string][]byte, len(p.Buffers))
	for name, data := range p.Buffers {
		b, err := DecodeBuffer(data)
		if err != nil {
			return engine.Packet{}, fmt.Errorf("packet %s buffer %s: %w", p.ID, name, err)
		}
		buffers[name] = b
	}
	return engine.Packet{ID: p.ID, Buffers: buffers}, nil
}

// DecodeBuffer parses mixed buffer notation: literal text with
// |xx xx| hex runs, the same notation rule content patterns use.
func DecodeBuffer(s string) ([]byte, error) {
	var out []byte
	for {
		open := strings.IndexByte(s, '|')
		if open < 0 {
			return append(out, s...), nil
		}
		end := strings.IndexByte(s[open+1:], '|')
		if end < 0 {
			return nil, fmt.Errorf("unterminated hex run in %q", s)
		}
		out = append(out, s[:open]...)
		raw := strings.ReplaceAll(s[open+1:open+1+end], " ", "")
		b, err := hex.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("bad hex run %q: %w", raw, err)
		}
		out = append(out, b...)
		s = s[open+end+2:]
	}
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Rules) == 0 {
		return fmt.Errorf("at least one rule is required")
	}
	if len(s.Packets) == 0 {
		return fmt.Errorf("at least one packet is required")
	}
	seen := make(map[string]bool)
	for _, p := range s.Packets {
		if p.ID == "" {
			return fmt.Errorf("every packet needs an id")
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate packet id %q", p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}
