package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mant/internal/config"
	"github.com/roach88/mant/internal/runner"
)

// Scenario defines one scripted session and what it must produce.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Variant selects the preset the config overlay is applied to.
	Variant config.Variant `yaml:"variant"`

	// Config is layered over the preset the same way a config file is.
	// output.root is always replaced by a scratch folder.
	Config map[string]any `yaml:"config,omitempty"`

	// Seed fixes trial order and jitter.
	Seed uint64 `yaml:"seed"`

	Subject string `yaml:"subject"`
	Run     string `yaml:"run,omitempty"`

	// Pool is an inline condition file. It replaces both the experimental
	// and the training pool. Empty means the config's own pools.
	Pool string `yaml:"pool,omitempty"`

	// Answers scripts the subject. Without it a simulated subject with the
	// default profile responds.
	Answers *Answers `yaml:"answers,omitempty"`

	// Assertions validate the finished session.
	Assertions []Assertion `yaml:"assertions"`
}

// Answers is the script of a runner.Scripted responder.
type Answers struct {
	Trials   []runner.Answer   `yaml:"trials,omitempty"`
	Training []runner.Answer   `yaml:"training,omitempty"`
	Prompts  map[string]string `yaml:"prompts,omitempty"`
}

// Assertion validates one aspect of a session.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trial_count": number of saved experimental trials
	// - "training_count": number of training trials run
	// - "block_count": number of completed blocks
	// - "outcome_counts": correct, incorrect and missed trials
	// - "aborted": whether the session was aborted
	// - "file_count": number of files written
	// - "triggers": exact sequence of trigger codes sent
	// - "responses": exact sequence of recorded response keys
	Type string `yaml:"type"`

	// Count is the expected number (trial_count, training_count,
	// block_count, file_count).
	Count int `yaml:"count,omitempty"`

	// Correct, Incorrect and Misses are used by outcome_counts.
	Correct   int `yaml:"correct,omitempty"`
	Incorrect int `yaml:"incorrect,omitempty"`
	Misses    int `yaml:"misses,omitempty"`

	// Value is used by aborted.
	Value bool `yaml:"value,omitempty"`

	// Codes is used by triggers.
	Codes []int `yaml:"codes,omitempty"`

	// Keys is used by responses. Misses are recorded as "miss".
	Keys []string `yaml:"keys,omitempty"`
}

// Assertion type constants.
const (
	AssertTrialCount    = "trial_count"
	AssertTrainingCount = "training_count"
	AssertBlockCount    = "block_count"
	AssertOutcomeCounts = "outcome_counts"
	AssertAborted       = "aborted"
	AssertFileCount     = "file_count"
	AssertTriggers      = "triggers"
	AssertResponses     = "responses"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" vs "assertions:".
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

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Subject == "" {
		return fmt.Errorf("subject is required")
	}
	if s.Variant != "" {
		if _, err := config.Preset(s.Variant); err != nil {
			return err
		}
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion %d: %w", i, err)
		}
	}
	if s.Pool != "" {
		if _, err := runner.ReadPool(strings.NewReader(s.Pool)); err != nil {
			return fmt.Errorf("pool: %w", err)
		}
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertTrialCount, AssertTrainingCount, AssertBlockCount, AssertFileCount:
		if a.Count < 0 {
			return fmt.Errorf("%s: count must be non-negative", a.Type)
		}
	case AssertOutcomeCounts:
		if a.Correct < 0 || a.Incorrect < 0 || a.Misses < 0 {
			return fmt.Errorf("%s: counts must be non-negative", a.Type)
		}
	case AssertTriggers:
		for _, c := range a.Codes {
			if c < 1 || c > 255 {
				return fmt.Errorf("%s: code %d out of range 1-255", a.Type, c)
			}
		}
	case AssertAborted, AssertResponses:
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// config builds the session config: the variant preset with the overlay
// applied.
func (s *Scenario) config() (*config.Config, error) {
	data, err := yaml.Marshal(s.Config)
	if err != nil {
		return nil, fmt.Errorf("encode config overlay: %w", err)
	}
	if len(s.Config) == 0 {
		data = nil
	}
	return config.Parse(data, s.Variant)
}
