package alerting

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadRulesFromFile reads a rules file. See LoadRules.
func LoadRulesFromFile(path string) ([]*Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rules file: %w", err)
	}
	defer f.Close()

	return LoadRules(f)
}

// LoadRules decodes a `rules:` document. Unknown keys are rejected, and
// every invalid or duplicate rule is reported in one joined error so a
// broken file can be fixed in a single pass. An empty document yields no
// rules.
func LoadRules(r io.Reader) ([]*Rule, error) {
	var doc RulesConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse rules YAML: %w", err)
	}

	var errs []error
	names := make(map[string]int, len(doc.Rules))
	for i, rule := range doc.Rules {
		if rule == nil {
			errs = append(errs, fmt.Errorf("invalid rule at index %d: empty entry", i))
			continue
		}
		if err := rule.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("invalid rule at index %d: %w", i, err))
			continue
		}
		if first, ok := names[rule.Name]; ok {
			errs = append(errs, fmt.Errorf("duplicate rule name %q at index %d (first at %d)", rule.Name, i, first))
			continue
		}
		names[rule.Name] = i
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return doc.Rules, nil
}
