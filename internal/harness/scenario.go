package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance scenario: a scheme, a scan sequence,
// and assertions over the resulting session.
type Scenario struct {
	// Name uniquely identifies this scenario. It doubles as the golden
	// file name when the trace is pinned.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Scheme is the path to the scheme file, relative to the scenario
	// file location.
	Scheme string `yaml:"scheme"`

	// Scans is the ordered list of item IDs to scan, with optional
	// per-scan expectations.
	Scans []ScanStep `yaml:"scans"`

	// Assertions validate the finished session.
	// Supported types: final_total, rule_fired, pending_count, unknown_count.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// SessionToken fixes the session token for deterministic golden
	// comparison. Defaults to "test-session" when empty.
	SessionToken string `yaml:"session_token,omitempty"`
}

// ScanStep is one scan in the flow.
type ScanStep struct {
	// Item is the ID presented to the checkout.
	Item string `yaml:"item"`

	// Expect validates the state right after this scan. Nil means the
	// scan is only expected to be accepted.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a single scan.
type ExpectClause struct {
	// Total is the expected running total after the scan.
	Total *float64 `yaml:"total,omitempty"`

	// Fired names the rule this scan must trigger.
	Fired string `yaml:"fired,omitempty"`

	// Unknown marks the scan as an expected unknown-item rejection.
	Unknown bool `yaml:"unknown,omitempty"`
}

// Assertion validates the finished session.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Value is the expected final total (final_total).
	Value float64 `yaml:"value,omitempty"`

	// Rule is the rule name (rule_fired).
	Rule string `yaml:"rule,omitempty"`

	// Count is an expected occurrence count. For rule_fired a zero count
	// means "at least once"; for pending_count and unknown_count it is
	// the exact expected number.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalTotal   = "final_total"
	AssertRuleFired    = "rule_fired"
	AssertPendingCount = "pending_count"
	AssertUnknownCount = "unknown_count"
)

// LoadScenario reads and parses a scenario YAML file. The scheme path is
// resolved relative to the scenario file's directory.
//
// Returns an error if the file is missing, malformed, contains unknown
// fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	if scenario.Scheme != "" && !filepath.IsAbs(scenario.Scheme) {
		scenario.Scheme = filepath.Join(filepath.Dir(path), scenario.Scheme)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}

	return &scenario, nil
}

// LoadScenarioDir loads every *.yaml scenario under dir, sorted by name.
func LoadScenarioDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenarios found in %s", dir)
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Scheme == "" {
		return fmt.Errorf("scheme is required")
	}
	if len(s.Scans) == 0 {
		return fmt.Errorf("scans list is required and must be non-empty")
	}
	for i, step := range s.Scans {
		if step.Item == "" {
			return fmt.Errorf("scan %d: item is required", i+1)
		}
	}
	for i, a := range s.Assertions {
		switch a.Type {
		case AssertFinalTotal:
		case AssertRuleFired:
			if a.Rule == "" {
				return fmt.Errorf("assertion %d: rule_fired requires rule", i+1)
			}
		case AssertPendingCount, AssertUnknownCount:
			if a.Count < 0 {
				return fmt.Errorf("assertion %d: count must not be negative", i+1)
			}
		default:
			return fmt.Errorf("assertion %d: unknown type %q", i+1, a.Type)
		}
	}
	return nil
}
