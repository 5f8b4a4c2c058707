// Package consensus implements the proposal and publication state
// machine: candidate-block assembly under count/size caps, quorum
// evaluation against validator knowledge, and the forced-publish
// escape hatch.
package consensus

import (
	"fmt"
	"math/rand"

	"stochastic-montecarlo/internal/gossip"
	"stochastic-montecarlo/internal/knowledge"
	"stochastic-montecarlo/internal/registry"
	"stochastic-montecarlo/internal/roles"
	"stochastic-montecarlo/internal/topology"
)

// ProposedBlock is the candidate transaction list currently under
// quorum evaluation.
type ProposedBlock struct {
	Proposer topology.PeerID
	TxIDs    []knowledge.TxID
	SizeKB   int
}

// Machine holds the outer publication loop's ACCUMULATING/PROPOSED
// state and the counters that drive forced publish.
type Machine struct {
	know     *knowledge.Store
	roles    *roles.Roles
	pending  *gossip.Set
	registry *registry.Registry

	proposed               *ProposedBlock
	publishAttemptCounter int64
}

// New returns a Machine wired to the engine's shared state.
func New(know *knowledge.Store, r *roles.Roles, pending *gossip.Set, reg *registry.Registry) *Machine {
	return &Machine{know: know, roles: r, pending: pending, registry: reg}
}

// HasProposal reports whether a non-empty ProposedBlock currently
// exists. An empty candidate pool (the chosen proposer knew nothing
// unpublished) is treated the same as no proposal at all, so the
// orchestrator keeps calling PrepareRequest with freshly chosen
// proposers instead of getting stuck on a block with nothing to
// publish.
func (m *Machine) HasProposal() bool { return m.proposed != nil && len(m.proposed.TxIDs) > 0 }

// Proposed returns a copy of the current ProposedBlock, or the zero
// value if none exists.
func (m *Machine) Proposed() ProposedBlock {
	if m.proposed == nil {
		return ProposedBlock{}
	}
	return *m.proposed
}

// PublishAttemptCounter returns the accumulated time (ms) spent
// failing to reach quorum since the last successful or forced publish.
func (m *Machine) PublishAttemptCounter() int64 { return m.publishAttemptCounter }

// Reset clears proposal and counter state, per the orchestrator's
// clean() step.
func (m *Machine) Reset() {
	m.proposed = nil
	m.publishAttemptCounter = 0
}

// PrepareRequest picks one validator uniformly at random, collects
// every unpublished transaction it knows, shuffles the candidates with
// the simulation's PRNG, and greedily fills a block under the count
// and size caps.
func (m *Machine) PrepareRequest(rng *rand.Rand, maxTx int, maxBlockKB int) error {
	validators := m.roles.Validators()
	if len(validators) == 0 {
		return fmt.Errorf("consensus: no validators selected, cannot prepare a request")
	}
	proposer := validators[rng.Intn(len(validators))]

	candidates := make([]knowledge.TxID, 0)
	for _, id := range m.registry.Unpublished() {
		if m.know.Knows(proposer, id) && !m.know.PublishedGlobally(id) {
			candidates = append(candidates, id)
		}
	}

	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	selected := make([]knowledge.TxID, 0, len(candidates))
	sizeKB := 0
	for _, id := range candidates {
		if len(selected) >= maxTx {
			break
		}
		txSize := m.registry.SizeKB(id)
		if sizeKB+txSize > maxBlockKB {
			break
		}
		selected = append(selected, id)
		sizeKB += txSize
	}

	m.proposed = &ProposedBlock{Proposer: proposer, TxIDs: selected, SizeKB: sizeKB}
	return nil
}

// PublishAttemptResult reports the outcome of one PublishAttempt call.
type PublishAttemptResult struct {
	Published          int
	PublishedSizeKB    int
	Forced             bool
	MeetingValidators  int
	RequiredValidators int
	// ValidatorCoverage is the percentage of the proposed block each
	// validator currently knows.
	ValidatorCoverage map[topology.PeerID]float64
}

// PublishAttempt evaluates the quorum condition and either publishes
// the ProposedBlock, leaves it intact for a later retry, or forces a
// publish once publishAttemptCounter reaches blocktimeMS.
// additionalSimulatedMS reports the extra simulated time a forced
// publish adds (2*blocktimeMS) so the caller can advance its clocks;
// it is 0 for every other outcome.
func (m *Machine) PublishAttempt(
	thresholdPct float64,
	blocktimeMS int64,
	stepMS int64,
) (PublishAttemptResult, int64) {
	if m.proposed == nil || len(m.proposed.TxIDs) == 0 {
		return PublishAttemptResult{}, 0
	}

	coverage := make(map[topology.PeerID]float64)
	meeting := 0
	total := len(m.proposed.TxIDs)
	for _, v := range m.roles.Validators() {
		known := 0
		for _, id := range m.proposed.TxIDs {
			if m.know.Knows(v, id) {
				known++
			}
		}
		pct := 100 * float64(known) / float64(total)
		coverage[v] = pct
		if pct >= thresholdPct {
			meeting++
		}
	}

	required := m.roles.Quorum()
	if meeting >= required {
		result := m.publish(false)
		result.MeetingValidators = meeting
		result.RequiredValidators = required
		result.ValidatorCoverage = coverage
		return result, 0
	}

	m.publishAttemptCounter += stepMS
	if m.publishAttemptCounter >= blocktimeMS {
		result := m.publish(true)
		result.MeetingValidators = meeting
		result.RequiredValidators = required
		result.ValidatorCoverage = coverage
		return result, 2 * blocktimeMS
	}

	return PublishAttemptResult{
		MeetingValidators:  meeting,
		RequiredValidators: required,
		ValidatorCoverage:  coverage,
	}, 0
}

// publish performs the shared state transition of a normal or forced
// publish: mark every tx globally published, drop it from the
// Pending-Gossip Set and the registry, and reset the attempt counter.
func (m *Machine) publish(forced bool) PublishAttemptResult {
	block := m.proposed
	for _, id := range block.TxIDs {
		m.know.MarkPublished(id)
		m.registry.Remove(id)
	}
	m.pending.RemoveIDs(block.TxIDs)

	m.publishAttemptCounter = 0
	m.proposed = nil

	return PublishAttemptResult{
		Published:       len(block.TxIDs),
		PublishedSizeKB: block.SizeKB,
		Forced:          forced,
	}
}
