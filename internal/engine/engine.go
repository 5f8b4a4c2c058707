// Package engine implements the Experiment Orchestrator: the outer
// clocked loop that interleaves injection, broadcast and publication
// until the simulated wall-clock budget is exhausted, and returns the
// aggregate ExperimentResult.
package engine

import (
	"fmt"
	"math/rand"

	"stochastic-montecarlo/internal/consensus"
	"stochastic-montecarlo/internal/gossip"
	"stochastic-montecarlo/internal/knowledge"
	"stochastic-montecarlo/internal/registry"
	"stochastic-montecarlo/internal/roles"
	"stochastic-montecarlo/internal/topology"
)

// Engine is the simulation instance. Multiple Engines are independent
// and isolable: each owns its own PRNG, knowledge store and
// counters.
type Engine struct {
	seed int64
	rng  *rand.Rand

	topo  *topology.Topology
	roles *roles.Roles

	knownRows, knownCols int64
	txSizeMinKB, txSizeMaxKB int
	shapeSet, sizeRangeSet    bool

	know      *knowledge.Store
	broadcast *gossip.Engine
	registry  *registry.Registry
	consensus *consensus.Machine

	nextTxID int64

	totalInjected      int64
	totalPublished     int64
	totalPublishedKB   int64
	forcedPublishCount int64

	observer Observer
}

// New returns an Engine seeded deterministically. The same seed,
// topology-build parameters and run parameters always produce the
// same ExperimentResult.
func New(seed int64) *Engine {
	return &Engine{seed: seed, rng: rand.New(rand.NewSource(seed))}
}

// SetObserver installs an optional progress observer. The engine
// remains "otherwise silent" when none is set — every
// observer call below is a no-op against a nil Engine.observer.
func (e *Engine) SetObserver(o Observer) { e.observer = o }

// BuildTopology constructs the peer overlay.
func (e *Engine) BuildTopology(cfg topology.BuildConfig) error {
	topo, err := topology.Build(e.rng, cfg)
	if err != nil {
		return fmt.Errorf("engine: build_topology: %w", err)
	}
	e.topo = topo
	return nil
}

// SelectValidators marks k peers as validators and computes the
// quorum M over them; every other peer becomes a seed.
func (e *Engine) SelectValidators(k int) error {
	if e.topo == nil {
		return fmt.Errorf("engine: select_validators: build_topology must run first")
	}
	r, err := roles.Select(e.rng, e.topo.Peers(), k)
	if err != nil {
		return fmt.Errorf("engine: select_validators: %w", err)
	}
	e.roles = r
	return nil
}

// SetKnownShape fixes the knowledge bitmap dimensions. It must be
// called before the first injection.
func (e *Engine) SetKnownShape(rows, cols int64) error {
	store, err := knowledge.NewStore(rows, cols)
	if err != nil {
		return fmt.Errorf("engine: set_known_shape: %w", err)
	}
	e.know = store
	e.knownRows, e.knownCols = rows, cols
	e.shapeSet = true
	if e.topo != nil {
		for _, p := range e.topo.Peers() {
			e.know.EnsurePeer(p)
		}
	}
	return nil
}

// SetTxSizeRange fixes the [min, max] KB range transaction sizes are
// drawn from on injection.
func (e *Engine) SetTxSizeRange(minKB, maxKB int) error {
	if maxKB < minKB || minKB < 0 {
		return fmt.Errorf("engine: set_tx_size_range: invalid range [%d, %d]", minKB, maxKB)
	}
	e.txSizeMinKB, e.txSizeMaxKB = minKB, maxKB
	e.sizeRangeSet = true
	return nil
}

// PendingCount returns total_injected - total_published.
func (e *Engine) PendingCount() int64 { return e.totalInjected - e.totalPublished }

// Clean resets all mutable simulation state: counters, knowledge
// bitmaps, the global-published bitmap, the Pending-Gossip Set and
// next_tx_id — everything except the topology and role assignment,
// which are immutable inputs once built. It also reseeds the PRNG with
// the construction seed, so every run on the same Engine draws the
// same random sequence.
func (e *Engine) Clean() error {
	if e.topo == nil {
		return fmt.Errorf("engine: clean: no topology built")
	}
	if e.roles == nil {
		return fmt.Errorf("engine: clean: no validators selected")
	}
	if !e.shapeSet {
		return fmt.Errorf("engine: clean: set_known_shape must be called before the first injection")
	}
	if !e.sizeRangeSet {
		return fmt.Errorf("engine: clean: set_tx_size_range must be called before the first injection")
	}

	e.rng.Seed(e.seed)
	e.know.ClearAll()
	e.broadcast = gossip.New(e.topo, e.know)
	e.registry = registry.New()
	e.consensus = consensus.New(e.know, e.roles, e.broadcast.Pending(), e.registry)

	e.nextTxID = 0
	e.totalInjected = 0
	e.totalPublished = 0
	e.totalPublishedKB = 0
	e.forcedPublishCount = 0

	return nil
}

func (e *Engine) allocTxID() knowledge.TxID {
	id := knowledge.TxID(e.nextTxID)
	e.nextTxID++
	return id
}

func (e *Engine) inject(count int) error {
	injected, err := e.broadcast.Inject(
		e.rng, e.roles.Seeds(), count, e.txSizeMinKB, e.txSizeMaxKB, e.allocTxID,
	)
	if err != nil {
		return err
	}
	for _, tx := range injected {
		e.registry.Add(tx.ID, tx.SizeKB)
	}
	e.totalInjected += int64(len(injected))
	if e.observer != nil {
		e.observer.OnInjected(len(injected))
	}
	return nil
}
