package engine

import (
	"stochastic-montecarlo/internal/consensus"
	"stochastic-montecarlo/internal/gossip"
)

// multiObserver fans out every event to a list of observers, so a
// caller can combine e.g. console narration and metrics collection
// without either needing to know about the other.
type multiObserver struct {
	observers []Observer
}

// Observers combines zero or more observers into one. A nil entry is
// skipped.
func Observers(observers ...Observer) Observer {
	nonNil := make([]Observer, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			nonNil = append(nonNil, o)
		}
	}
	if len(nonNil) == 0 {
		return nil
	}
	return &multiObserver{observers: nonNil}
}

func (m *multiObserver) OnInjected(count int) {
	for _, o := range m.observers {
		o.OnInjected(count)
	}
}

func (m *multiObserver) OnBroadcastStep(result gossip.StepResult) {
	for _, o := range m.observers {
		o.OnBroadcastStep(result)
	}
}

func (m *multiObserver) OnProposed(block consensus.ProposedBlock) {
	for _, o := range m.observers {
		o.OnProposed(block)
	}
}

func (m *multiObserver) OnPublishAttempt(result consensus.PublishAttemptResult) {
	for _, o := range m.observers {
		o.OnPublishAttempt(result)
	}
}

func (m *multiObserver) OnProgress(snap Snapshot) {
	for _, o := range m.observers {
		o.OnProgress(snap)
	}
}
