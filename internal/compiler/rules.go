package compiler

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RuleDef is one rule as authored in a rule file: a header plus the
// keyword list in declared order. Declaration order is significant;
// extraction keywords may only reference values bound by earlier
// keywords.
type RuleDef struct {
	SID      uint32       `yaml:"sid" json:"sid"`
	Msg      string       `yaml:"msg" json:"msg"`
	Rev      int          `yaml:"rev,omitempty" json:"rev,omitempty"`
	Keywords []KeywordUse `yaml:"keywords" json:"keywords"`
}

// KeywordUse is one keyword invocation within a rule. Args is the raw
// option string handed to the keyword's setup function; keywords that
// take no options leave it empty.
type KeywordUse struct {
	Keyword string `yaml:"keyword" json:"keyword"`
	Args    string `yaml:"args,omitempty" json:"args,omitempty"`
}

type ruleFile struct {
	Rules []RuleDef `yaml:"rules"`
}

// LoadRules reads rule definitions from a YAML rule file.
func LoadRules(path string) ([]RuleDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	defs, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// ParseRules parses rule definitions from YAML bytes. Unknown fields
// are rejected so typos surface at load time rather than as silently
// ignored options.
func ParseRules(data []byte) ([]RuleDef, error) {
	var file ruleFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("no rules defined")
	}
	return file.Rules, nil
}
