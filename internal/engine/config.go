package engine

import "stochastic-montecarlo/internal/topology"

// Config bundles every constructor and run parameter the engine needs
// into one JSON-tagged block: a flat struct, one field per tunable,
// so a caller can persist or diff a full experiment configuration.
// The engine's own methods still take these as plain arguments —
// Config exists for the demo command and any future driver, not as a
// hidden dependency of the engine itself.
type Config struct {
	Seed int64 `json:"seed"`

	NumPeers        int     `json:"num_peers"`
	FullMesh        bool    `json:"full_mesh"`
	MinConnections  int     `json:"min_connections"`
	MaxConnections  int     `json:"max_connections"`
	DelayMinMS      int64   `json:"delay_min_ms"`
	DelayMaxMS      int64   `json:"delay_max_ms"`
	DelayMultiplier float64 `json:"delay_multiplier"`

	NumValidators int `json:"num_validators"`

	KnownRows int64 `json:"known_rows"`
	KnownCols int64 `json:"known_cols"`

	TxSizeMinKB int `json:"tx_size_min_kb"`
	TxSizeMaxKB int `json:"tx_size_max_kb"`

	TotalSimMS       int64   `json:"total_sim_ms"`
	InjectionCount   int     `json:"injection_count"`
	StepMS           int64   `json:"step_ms"`
	ThresholdPct     float64 `json:"threshold_pct"`
	BlocktimeMS      int64   `json:"blocktime_ms"`
	BandwidthKBPerMS float64 `json:"bandwidth_kb_per_ms"`
	MaxTxPerBlock    int     `json:"max_tx_per_block"`
	MaxBlockKB       int     `json:"max_block_kb"`
}

// TopologyConfig extracts the topology.BuildConfig portion of Config.
func (c Config) TopologyConfig() topology.BuildConfig {
	return topology.BuildConfig{
		NumPeers:        c.NumPeers,
		FullMesh:        c.FullMesh,
		MinConnections:  c.MinConnections,
		MaxConnections:  c.MaxConnections,
		DelayMinMS:      c.DelayMinMS,
		DelayMaxMS:      c.DelayMaxMS,
		DelayMultiplier: c.DelayMultiplier,
	}
}

// RunParams extracts the run_experiment portion of Config.
func (c Config) RunParams() RunParams {
	return RunParams{
		TotalSimMS:       c.TotalSimMS,
		InjectionCount:   c.InjectionCount,
		StepMS:           c.StepMS,
		ThresholdPct:     c.ThresholdPct,
		BlocktimeMS:      c.BlocktimeMS,
		BandwidthKBPerMS: c.BandwidthKBPerMS,
		MaxTxPerBlock:    c.MaxTxPerBlock,
		MaxBlockKB:       c.MaxBlockKB,
	}
}

// Build wires a fresh Engine from Config, running every setup step
// build_topology, select_validators, set_known_shape and
// set_tx_size_range require before run_experiment can start.
func Build(c Config) (*Engine, error) {
	e := New(c.Seed)
	if err := e.BuildTopology(c.TopologyConfig()); err != nil {
		return nil, err
	}
	if err := e.SelectValidators(c.NumValidators); err != nil {
		return nil, err
	}
	if err := e.SetKnownShape(c.KnownRows, c.KnownCols); err != nil {
		return nil, err
	}
	if err := e.SetTxSizeRange(c.TxSizeMinKB, c.TxSizeMaxKB); err != nil {
		return nil, err
	}
	return e, nil
}

// DefaultConfig returns a reasonable starting configuration, scaled
// down from typical production sizing so a demo run finishes quickly.
func DefaultConfig() Config {
	return Config{
		Seed:            1,
		NumPeers:        30,
		FullMesh:        false,
		MinConnections:  3,
		MaxConnections:  12,
		DelayMinMS:      10,
		DelayMaxMS:      300,
		DelayMultiplier: 1,
		NumValidators:   7,
		KnownRows:       10000,
		KnownCols:       20,
		TxSizeMinKB:     1,
		TxSizeMaxKB:     5,
		TotalSimMS:      60000,
		InjectionCount:  50,
		StepMS:          1000,
		ThresholdPct:    95,
		BlocktimeMS:     3000,
		BandwidthKBPerMS: 1000,
		MaxTxPerBlock:    5000,
		MaxBlockKB:       100000,
	}
}
