package engine

import (
	"stochastic-montecarlo/internal/consensus"
	"stochastic-montecarlo/internal/gossip"
)

// Snapshot is the running progress summary reported after every
// inner-loop step: simulated time, publication totals and pending
// count, handed to an Observer instead of printed directly.
type Snapshot struct {
	SimulatedTimeMS    int64
	OfficialSimTimeMS  int64
	TotalPublished     int64
	TotalPublishedKB   int64
	PendingCount       int64
	ForcedPublishCount int64
}

// Observer receives progress events from a running experiment. The
// engine itself stays silent: SetObserver is opt-in, and
// every call site nil-checks before invoking it.
type Observer interface {
	OnInjected(count int)
	OnBroadcastStep(result gossip.StepResult)
	OnProposed(block consensus.ProposedBlock)
	OnPublishAttempt(result consensus.PublishAttemptResult)
	OnProgress(snap Snapshot)
}
