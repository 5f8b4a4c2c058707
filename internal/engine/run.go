package engine

import "fmt"

// RunParams bundles the parameters run_experiment accepts.
type RunParams struct {
	TotalSimMS       int64
	InjectionCount   int
	StepMS           int64
	ThresholdPct     float64
	BlocktimeMS      int64
	BandwidthKBPerMS float64
	MaxTxPerBlock    int
	MaxBlockKB       int
}

// ExperimentResult is the engine's only output.
type ExperimentResult struct {
	TotalSimulatedTimeMS int64
	TotalPublishedGlobal int64
	TPS                  float64
	PublishedMB          float64
	MBPerSec             float64
	ForcedPublishCount   int64
	FinalPendingCount    int64
}

func (r RunParams) validate() error {
	if r.TotalSimMS <= 0 {
		return fmt.Errorf("total_sim_ms must be positive")
	}
	if r.StepMS <= 0 {
		return fmt.Errorf("step_ms must be positive")
	}
	if r.BlocktimeMS <= 0 {
		return fmt.Errorf("blocktime_ms must be positive")
	}
	if r.InjectionCount < 0 {
		return fmt.Errorf("injection_count must not be negative")
	}
	if r.MaxTxPerBlock <= 0 {
		return fmt.Errorf("max_tx must be positive")
	}
	if r.MaxBlockKB <= 0 {
		return fmt.Errorf("max_block_kb must be positive")
	}
	return nil
}

// RunExperiment runs the outer clocked loop to completion and returns
// the resulting metrics. It always starts from Clean(), so repeated
// calls with the same seed and parameters are reproducible.
func (e *Engine) RunExperiment(p RunParams) (ExperimentResult, error) {
	if err := p.validate(); err != nil {
		return ExperimentResult{}, fmt.Errorf("engine: run_experiment: %w", err)
	}
	if err := e.Clean(); err != nil {
		return ExperimentResult{}, fmt.Errorf("engine: run_experiment: %w", err)
	}

	var simulatedTimeMS, officialSimTimeMS, blockCycleTimeMS int64

	for simulatedTimeMS < p.TotalSimMS {
		bound := p.BlocktimeMS + e.consensus.PublishAttemptCounter()
		for blockCycleTimeMS < bound && simulatedTimeMS < p.TotalSimMS {
			step := p.StepMS
			if remaining := bound - blockCycleTimeMS; remaining < step {
				step = remaining
			}

			if err := e.inject(p.InjectionCount); err != nil {
				return ExperimentResult{}, fmt.Errorf("engine: run_experiment: inject: %w", err)
			}
			stepResult := e.broadcast.Step(step, p.BandwidthKBPerMS)
			if e.observer != nil {
				e.observer.OnBroadcastStep(stepResult)
			}

			blockCycleTimeMS += step
			simulatedTimeMS += step
			officialSimTimeMS += step
			bound = p.BlocktimeMS + e.consensus.PublishAttemptCounter()

			if e.observer != nil {
				e.observer.OnProgress(Snapshot{
					SimulatedTimeMS:    simulatedTimeMS,
					OfficialSimTimeMS:  officialSimTimeMS,
					TotalPublished:     e.totalPublished,
					TotalPublishedKB:   e.totalPublishedKB,
					PendingCount:       e.PendingCount(),
					ForcedPublishCount: e.forcedPublishCount,
				})
			}
		}

		if !e.consensus.HasProposal() {
			if err := e.consensus.PrepareRequest(e.rng, p.MaxTxPerBlock, p.MaxBlockKB); err != nil {
				return ExperimentResult{}, fmt.Errorf("engine: run_experiment: prepare_request: %w", err)
			}
			if e.observer != nil {
				e.observer.OnProposed(e.consensus.Proposed())
			}
		}

		result, penaltyMS := e.consensus.PublishAttempt(p.ThresholdPct, p.BlocktimeMS, p.StepMS)
		if e.observer != nil {
			e.observer.OnPublishAttempt(result)
		}

		if result.Published > 0 {
			e.totalPublished += int64(result.Published)
			e.totalPublishedKB += int64(result.PublishedSizeKB)
			if result.Forced {
				e.forcedPublishCount++
				simulatedTimeMS += penaltyMS
			}
			blockCycleTimeMS = 0
		}
	}

	totalSeconds := float64(simulatedTimeMS) / 1000.0
	var tps, mbPerSec float64
	publishedMB := float64(e.totalPublishedKB) / 1024.0
	if totalSeconds > 0 {
		tps = float64(e.totalPublished) / totalSeconds
		mbPerSec = publishedMB / totalSeconds
	}

	return ExperimentResult{
		TotalSimulatedTimeMS: simulatedTimeMS,
		TotalPublishedGlobal: e.totalPublished,
		TPS:                  tps,
		PublishedMB:          publishedMB,
		MBPerSec:             mbPerSec,
		ForcedPublishCount:   e.forcedPublishCount,
		FinalPendingCount:    e.PendingCount(),
	}, nil
}
