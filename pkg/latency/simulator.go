package latency

import (
	"fmt"
	"math/rand"
)

// Simulator produces a reproducible sequence of integer delays in the
// inclusive range [min, max]. The sequence depends only on the seed and the
// call order, never on wall-clock time, which is the engine's core
// reproducibility guarantee.
type Simulator struct {
	rng *rand.Rand
	min int64
	max int64
}

func NewSimulator(seed, min, max int64) (*Simulator, error) {
	if min < 0 || max < min {
		return nil, fmt.Errorf("invalid delay bounds [%d, %d]", min, max)
	}
	return &Simulator{
		rng: rand.New(rand.NewSource(seed)),
		min: min,
		max: max,
	}, nil
}

// Next draws the next delay from the seeded sequence.
func (s *Simulator) Next() int64 {
	return s.min + s.rng.Int63n(s.max-s.min+1)
}

// Config seeds one scenario's latency model. Two independent generators are
// used so the API and market-execution delay streams do not interleave.
type Config struct {
	ApiSeed  int64 `yaml:"api_seed" json:"api_seed"`
	ExecSeed int64 `yaml:"exec_seed" json:"exec_seed"`
	ApiMin   int64 `yaml:"api_min" json:"api_min"`
	ApiMax   int64 `yaml:"api_max" json:"api_max"`
	ExecMin  int64 `yaml:"exec_min" json:"exec_min"`
	ExecMax  int64 `yaml:"exec_max" json:"exec_max"`
}

// Model bundles the API-latency and execution-latency generators for one
// scenario instance.
type Model struct {
	api  *Simulator
	exec *Simulator
}

func NewModel(cfg Config) (*Model, error) {
	api, err := NewSimulator(cfg.ApiSeed, cfg.ApiMin, cfg.ApiMax)
	if err != nil {
		return nil, fmt.Errorf("api latency: %w", err)
	}
	exec, err := NewSimulator(cfg.ExecSeed, cfg.ExecMin, cfg.ExecMax)
	if err != nil {
		return nil, fmt.Errorf("execution latency: %w", err)
	}
	return &Model{api: api, exec: exec}, nil
}

// Draw returns the two delay components for one accepted order. The total
// in ticks is apiDelay + execDelay.
func (m *Model) Draw() (apiDelay, execDelay int64) {
	return m.api.Next(), m.exec.Next()
}
