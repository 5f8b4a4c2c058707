// Package gossip implements the epidemic propagation model: the
// Pending-Gossip Set and the broadcast step that advances every
// outstanding delivery attempt, enforces per-sender bandwidth, and
// spawns fan-out attempts to newly-informed peers.
package gossip

import (
	"fmt"
	"math/rand"

	"stochastic-montecarlo/internal/knowledge"
	"stochastic-montecarlo/internal/topology"
)

// PeerID aliases topology.PeerID so callers don't need to import both
// packages for every signature that touches a peer.
type PeerID = topology.PeerID

// Engine couples the Pending-Gossip Set to the topology and knowledge
// store it propagates over.
type Engine struct {
	topo *topology.Topology
	know *knowledge.Store
	set  *Set
}

// New returns a broadcast Engine over the given topology and
// knowledge store.
func New(topo *topology.Topology, know *knowledge.Store) *Engine {
	return &Engine{topo: topo, know: know, set: NewSet()}
}

// Pending exposes the underlying Pending-Gossip Set.
func (e *Engine) Pending() *Set { return e.set }

// InjectedTx is one transaction injected by a single Inject call.
type InjectedTx struct {
	ID     knowledge.TxID
	SizeKB int
}

// Inject creates count new transactions, each seeded at a uniformly
// random peer drawn from seeds. allocID must return a fresh,
// monotonically increasing id for each call.
func (e *Engine) Inject(
	rng *rand.Rand,
	seeds []PeerID,
	count int,
	sizeMinKB, sizeMaxKB int,
	allocID func() knowledge.TxID,
) ([]InjectedTx, error) {
	if count <= 0 {
		return nil, nil
	}
	if len(seeds) == 0 {
		return nil, fmt.Errorf("gossip: no seed peers available to inject into")
	}
	if sizeMaxKB < sizeMinKB {
		return nil, fmt.Errorf("gossip: tx size range invalid: min=%d max=%d", sizeMinKB, sizeMaxKB)
	}

	span := sizeMaxKB - sizeMinKB + 1
	injected := make([]InjectedTx, 0, count)

	for i := 0; i < count; i++ {
		id := allocID()
		sizeKB := sizeMinKB + rng.Intn(span)
		seed := seeds[rng.Intn(len(seeds))]

		e.know.Mark(seed, id)

		neighbours := e.topo.Neighbours(seed)
		attempts := make([]DeliveryAttempt, 0, len(neighbours))
		for _, n := range neighbours {
			attempts = append(attempts, DeliveryAttempt{Sender: seed, Receiver: n.Peer})
		}

		e.set.Add(&PendingTx{ID: id, SizeKB: sizeKB, Attempts: attempts})
		injected = append(injected, InjectedTx{ID: id, SizeKB: sizeKB})
	}

	return injected, nil
}

// StepResult summarises one Step call for observers and tests.
type StepResult struct {
	Delivered           int
	RedundantDropped    int
	BandwidthDeferred   int
	TransmittedKB       map[PeerID]float64
}

// Step advances every outstanding delivery attempt by dtMS and
// delivers those whose timer has met the edge latency, subject to a
// per-sender bandwidth cap of bandwidthKBPerMS*dtMS over the step.
// Attempts spawned by a delivery inside this call are not eligible
// for delivery during the same call.
func (e *Engine) Step(dtMS int64, bandwidthKBPerMS float64) StepResult {
	capKB := bandwidthKBPerMS * float64(dtMS)
	transmitted := make(map[PeerID]float64)
	result := StepResult{TransmittedKB: transmitted}

	items := e.set.Items()
	next := make([]*PendingTx, 0, len(items))

	for _, pt := range items {
		original := pt.Attempts
		kept := make([]DeliveryAttempt, 0, len(original))
		for _, at := range original {
			at.ElapsedMS += dtMS

			if e.know.Knows(at.Receiver, pt.ID) {
				result.RedundantDropped++
				continue
			}

			latency, adjacent := e.topo.Latency(at.Sender, at.Receiver)
			if !adjacent {
				continue
			}
			if at.ElapsedMS < latency {
				kept = append(kept, at)
				continue
			}

			size := float64(pt.SizeKB)
			if transmitted[at.Sender]+size > capKB {
				result.BandwidthDeferred++
				kept = append(kept, at)
				continue
			}

			transmitted[at.Sender] += size
			e.know.Mark(at.Receiver, pt.ID)
			result.Delivered++

			for _, n := range e.topo.Neighbours(at.Receiver) {
				if n.Peer == at.Sender {
					continue
				}
				if e.know.Knows(n.Peer, pt.ID) {
					continue
				}
				kept = append(kept, DeliveryAttempt{Sender: at.Receiver, Receiver: n.Peer})
			}
		}
		pt.Attempts = kept
		if len(pt.Attempts) > 0 {
			next = append(next, pt)
		}
	}

	e.set.replaceAll(next)
	return result
}
