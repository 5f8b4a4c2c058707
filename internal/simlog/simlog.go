// Package simlog is the ambient logging layer: a thin wrapper around
// *log.Logger with one method per event. It implements engine.Observer
// so a caller who wants console narration of injection, broadcast and
// publication events can opt into it without the engine itself ever
// printing anything.
package simlog

import (
	"log"

	"stochastic-montecarlo/internal/consensus"
	"stochastic-montecarlo/internal/engine"
	"stochastic-montecarlo/internal/gossip"
)

// Logger narrates simulation progress to a plain *log.Logger.
type Logger struct {
	logger *log.Logger
}

// New wraps l. A nil l falls back to log.Default().
func New(l *log.Logger) *Logger {
	if l == nil {
		l = log.Default()
	}
	return &Logger{logger: l}
}

var _ engine.Observer = (*Logger)(nil)

// OnInjected logs how many transactions were injected this step.
func (l *Logger) OnInjected(count int) {
	l.logger.Printf("injected %d transactions", count)
}

// OnBroadcastStep logs delivery/deferral counts for one broadcast step.
func (l *Logger) OnBroadcastStep(result gossip.StepResult) {
	l.logger.Printf(
		"broadcast step: delivered=%d redundant=%d bandwidth_deferred=%d",
		result.Delivered, result.RedundantDropped, result.BandwidthDeferred,
	)
}

// OnProposed logs a freshly assembled candidate block.
func (l *Logger) OnProposed(block consensus.ProposedBlock) {
	l.logger.Printf(
		"prepared request from validator %d with %d transactions (block size %d KB)",
		block.Proposer, len(block.TxIDs), block.SizeKB,
	)
}

// OnPublishAttempt logs per-validator coverage followed by the
// publish/retry/force decision.
func (l *Logger) OnPublishAttempt(result consensus.PublishAttemptResult) {
	for peer, pct := range result.ValidatorCoverage {
		l.logger.Printf("validator %d has %.2f%% of proposed transactions", peer, pct)
	}
	switch {
	case result.Published > 0 && result.Forced:
		l.logger.Printf(
			"forced publish triggered: published %d transactions (%d KB)",
			result.Published, result.PublishedSizeKB,
		)
	case result.Published > 0:
		l.logger.Printf(
			"published %d transactions (%d KB), cleared from pending set",
			result.Published, result.PublishedSizeKB,
		)
	default:
		l.logger.Printf(
			"publishing not allowed: %d validators meet threshold, %d required",
			result.MeetingValidators, result.RequiredValidators,
		)
	}
}

// OnProgress logs a running summary after every inner-loop step.
func (l *Logger) OnProgress(snap engine.Snapshot) {
	simSec := float64(snap.SimulatedTimeMS) / 1000.0
	publishedMB := float64(snap.TotalPublishedKB) / 1024.0
	var mbPerSec float64
	if simSec > 0 {
		mbPerSec = publishedMB / simSec
	}
	l.logger.Printf(
		"progress: %.2f sec simulated, published %d txs, pending %d txs, published %.2f MB, %.2f MB/sec, forced publishes %d",
		simSec, snap.TotalPublished, snap.PendingCount, publishedMB, mbPerSec, snap.ForcedPublishCount,
	)
}
