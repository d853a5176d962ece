package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rmab-sim/rmab-sim/rb"
)

// InstanceConfig describes one restless-bandit instance in a YAML file:
// the arm dynamics, the activation budget, and the population size.
type InstanceConfig struct {
	Name           string        `yaml:"name"`
	SspaSize       int           `yaml:"sspa_size"`
	TransTensor    [][][]float64 `yaml:"trans_tensor"`
	RewardTensor   [][]float64   `yaml:"reward_tensor"`
	ActFrac        float64       `yaml:"act_frac"`
	NumArms        int           `yaml:"num_arms"`
	InitStateFracs []float64     `yaml:"init_state_fracs"` // optional; nil = all arms in state 0
}

// LoadInstanceConfig parses an instance YAML file with strict field
// checking, so typos in keys cause errors instead of silent zero values.
func LoadInstanceConfig(path string) (*InstanceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read instance file: %w", err)
	}
	var cfg InstanceConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse instance file %s: %w", path, err)
	}
	return &cfg, nil
}

// Model validates the tensors and builds the arm dynamics model. Dimension
// and row-stochasticity problems surface here, before anything runs.
func (c *InstanceConfig) Model() (*rb.Model, error) {
	return rb.NewModel(c.SspaSize, c.TransTensor, c.RewardTensor)
}

// Validate checks the non-tensor fields of the instance.
func (c *InstanceConfig) Validate() error {
	if c.NumArms <= 0 {
		return fmt.Errorf("num_arms must be positive, got %d", c.NumArms)
	}
	if c.ActFrac <= 0 || c.ActFrac >= 1 {
		return fmt.Errorf("act_frac must be in (0,1), got %v", c.ActFrac)
	}
	if c.InitStateFracs != nil && len(c.InitStateFracs) != c.SspaSize {
		return fmt.Errorf("init_state_fracs has %d entries for %d states", len(c.InitStateFracs), c.SspaSize)
	}
	return nil
}

// InitStates returns the initial arm states implied by the config: spread
// according to init_state_fracs when given, otherwise nil (all arms start
// in state 0).
func (c *InstanceConfig) InitStates() ([]int, error) {
	if c.InitStateFracs == nil {
		return nil, nil
	}
	return rb.StatesFromStateFracs(c.SspaSize, c.NumArms, c.InitStateFracs)
}
