package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mulcheck/internal/dut"
	"github.com/roach88/mulcheck/internal/scoreboard"
	"github.com/roach88/mulcheck/internal/txn"
)

// Scenario is one directed test: a fixed transaction list run against a
// component configuration, plus what the run must produce.
type Scenario struct {
	// Name uniquely identifies this scenario. It doubles as the run ID and
	// the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Seed is recorded in the report. Scripted stimulus does not draw from
	// it.
	Seed uint64 `yaml:"seed,omitempty"`

	DUT DUTSpec `yaml:"dut,omitempty"`

	// ResponseTimeout overrides the handshake timeout, in cycles.
	ResponseTimeout int `yaml:"response_timeout,omitempty"`

	Transactions []Step `yaml:"transactions"`

	Expect Expect `yaml:"expect"`

	// Path is the file the scenario was loaded from, if any.
	Path string `yaml:"-"`
}

// DUTSpec configures the behavioural component model.
type DUTSpec struct {
	Fault   string `yaml:"fault,omitempty"`
	Latency int    `yaml:"latency,omitempty"`
}

// Step is one scripted transaction.
type Step struct {
	A       int16  `yaml:"a"`
	B       int16  `yaml:"b"`
	ParityA string `yaml:"parity_a,omitempty"`
	ParityB string `yaml:"parity_b,omitempty"`
	Op      string `yaml:"op,omitempty"`
}

// Declared parity settings for a Step.
const (
	ParityCorrect = "correct"
	ParityWrong   = "wrong"
)

// Expect lists what the run must produce. Unset fields are not checked.
type Expect struct {
	// Verdict is PASSED or FAILED.
	Verdict string `yaml:"verdict,omitempty"`

	// Mismatches is the exact number of recorded failures.
	Mismatches *int `yaml:"mismatches,omitempty"`

	// Checked is the exact number of responses compared.
	Checked *int64 `yaml:"checked,omitempty"`

	// Timeouts is the exact number of handshake timeouts.
	Timeouts *int64 `yaml:"timeouts,omitempty"`

	// Covered lists coverage classes that must have been hit.
	Covered []string `yaml:"covered,omitempty"`

	// NotCovered lists coverage classes that must not have been hit.
	NotCovered []string `yaml:"not_covered,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sc.Path = path
	return sc, nil
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Transactions) == 0 {
		return fmt.Errorf("transactions list is required and must be non-empty")
	}

	if s.DUT.Fault != "" {
		if _, err := dut.ParseFault(s.DUT.Fault); err != nil {
			return fmt.Errorf("dut.fault: %w", err)
		}
	}
	if s.DUT.Latency < 0 {
		return fmt.Errorf("dut.latency must be positive, got %d", s.DUT.Latency)
	}
	if s.ResponseTimeout < 0 {
		return fmt.Errorf("response_timeout must be positive, got %d", s.ResponseTimeout)
	}

	for i, step := range s.Transactions {
		if _, err := step.Transaction(); err != nil {
			return fmt.Errorf("transactions[%d]: %w", i, err)
		}
	}

	switch s.Expect.Verdict {
	case "", scoreboard.Passed, scoreboard.Failed:
	default:
		return fmt.Errorf("expect.verdict: must be %s or %s, got %q", scoreboard.Passed, scoreboard.Failed, s.Expect.Verdict)
	}
	return nil
}

// Transaction converts the step into a transaction with the declared
// parities it asks for.
func (s Step) Transaction() (txn.Transaction, error) {
	t := txn.NewMultiply(s.A, s.B)

	var err error
	if t.ParityA, err = declaredParity(s.A, s.ParityA); err != nil {
		return txn.Transaction{}, fmt.Errorf("parity_a: %w", err)
	}
	if t.ParityB, err = declaredParity(s.B, s.ParityB); err != nil {
		return txn.Transaction{}, fmt.Errorf("parity_b: %w", err)
	}
	if s.Op != "" {
		if t.Op, err = txn.ParseOperation(s.Op); err != nil {
			return txn.Transaction{}, fmt.Errorf("op: %w", err)
		}
	}
	return t, nil
}

func declaredParity(v int16, setting string) (bool, error) {
	switch strings.ToLower(setting) {
	case "", ParityCorrect:
		return txn.OperandParity(v), nil
	case ParityWrong:
		return !txn.OperandParity(v), nil
	default:
		return false, fmt.Errorf("must be %q or %q, got %q", ParityCorrect, ParityWrong, setting)
	}
}

// Script returns the scenario's transactions in order.
func (s *Scenario) Script() ([]txn.Transaction, error) {
	out := make([]txn.Transaction, 0, len(s.Transactions))
	for i, step := range s.Transactions {
		t, err := step.Transaction()
		if err != nil {
			return nil, fmt.Errorf("transactions[%d]: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}
