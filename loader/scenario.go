package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario describes one migration run declaratively, so experiments
// can be checked in and replayed instead of encoded in shell flags.
//
//	trace: traces/kernel-build.txt
//	scheme: post
//	optimize: true
//	channel:
//	  speed: 10   # MB/s
//	  delay: 10
type Scenario struct {
	Trace    string `yaml:"trace"`
	Scheme   string `yaml:"scheme"`
	Optimize bool   `yaml:"optimize"`
	Channel  struct {
		Speed float64 `yaml:"speed"`
		Delay float64 `yaml:"delay"`
	} `yaml:"channel"`
}

// LoadScenario reads and validates a scenario YAML file. The scheme
// token is checked by the caller against the engine (so the loader does
// not depend on it); here we only require the fields that have no
// defaults.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario '%s': %w", path, err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario '%s': %w", path, err)
	}
	if sc.Trace == "" {
		return nil, fmt.Errorf("scenario '%s': missing trace path", path)
	}
	if sc.Scheme == "" {
		sc.Scheme = "pre"
	}
	return &sc, nil
}
