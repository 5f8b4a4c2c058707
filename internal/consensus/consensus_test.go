package consensus

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"stochastic-montecarlo/internal/gossip"
	"stochastic-montecarlo/internal/knowledge"
	"stochastic-montecarlo/internal/registry"
	"stochastic-montecarlo/internal/roles"
	"stochastic-montecarlo/internal/topology"
)

func setup(t *testing.T, numPeers, numValidators int) (*knowledge.Store, *roles.Roles, *gossip.Set, *registry.Registry) {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	topo, err := topology.Build(rng, topology.BuildConfig{
		NumPeers: numPeers, FullMesh: true,
		MinConnections: 1, MaxConnections: numPeers - 1,
		DelayMinMS: 10, DelayMaxMS: 10, DelayMultiplier: 1,
	})
	require.NoError(t, err)

	store, err := knowledge.NewStore(10000, 4)
	require.NoError(t, err)
	for _, p := range topo.Peers() {
		store.EnsurePeer(p)
	}

	r, err := roles.Select(rng, topo.Peers(), numValidators)
	require.NoError(t, err)

	return store, r, gossip.NewSet(), registry.New()
}

func TestPrepareRequestHonoursSizeCap(t *testing.T) {
	store, r, pending, reg := setup(t, 5, 4)
	m := New(store, r, pending, reg)

	// Every validator knows every tx, so whichever one PrepareRequest
	// picks as proposer sees the full candidate pool.
	for id := knowledge.TxID(0); id < 1000; id++ {
		reg.Add(id, 5)
		for _, v := range r.Validators() {
			store.Mark(v, id)
		}
	}

	rng := rand.New(rand.NewSource(1))
	require.NoError(t, m.PrepareRequest(rng, 1000, 20))

	block := m.Proposed()
	require.LessOrEqual(t, len(block.TxIDs), 4)
	require.LessOrEqual(t, block.SizeKB, 20)
}

func TestPrepareRequestExcludesPublished(t *testing.T) {
	store, r, pending, reg := setup(t, 5, 4)
	m := New(store, r, pending, reg)

	reg.Add(0, 1)
	reg.Add(1, 1)
	for _, v := range r.Validators() {
		store.Mark(v, 0)
		store.Mark(v, 1)
	}
	store.MarkPublished(0)

	rng := rand.New(rand.NewSource(1))
	require.NoError(t, m.PrepareRequest(rng, 10, 100))

	block := m.Proposed()
	require.NotContains(t, block.TxIDs, knowledge.TxID(0))
	require.Contains(t, block.TxIDs, knowledge.TxID(1))
}

func TestPublishAttemptMeetsQuorum(t *testing.T) {
	store, r, pending, reg := setup(t, 5, 4) // V=4 -> M=3
	m := New(store, r, pending, reg)

	reg.Add(0, 1)
	pending.Add(&gossip.PendingTx{ID: 0, SizeKB: 1})

	validators := r.Validators()
	for i, v := range validators {
		if i < 3 { // 3 of 4 validators know it, meets M=3
			store.Mark(v, 0)
		}
	}

	// Set the proposal directly rather than through PrepareRequest's
	// random proposer choice, so the validator-coverage fixture above
	// stays deterministic regardless of which validator would have
	// been picked.
	m.proposed = &ProposedBlock{Proposer: validators[0], TxIDs: []knowledge.TxID{0}, SizeKB: 1}

	result, penalty := m.PublishAttempt(100, 3000, 1000)
	require.Equal(t, 1, result.Published)
	require.False(t, result.Forced)
	require.Equal(t, int64(0), penalty)
	require.True(t, store.PublishedGlobally(0))
	require.Equal(t, 0, pending.Len())
	require.Equal(t, 0, reg.Len())
}

func TestPublishAttemptForcesAfterBlocktime(t *testing.T) {
	store, r, pending, reg := setup(t, 5, 4)
	m := New(store, r, pending, reg)

	reg.Add(0, 1)
	validators := r.Validators()
	// Only one validator knows it; with threshold 100% and M=3, quorum
	// never met.
	store.Mark(validators[0], 0)
	m.proposed = &ProposedBlock{Proposer: validators[0], TxIDs: []knowledge.TxID{0}, SizeKB: 1}

	result, penalty := m.PublishAttempt(100, 3000, 1000)
	require.Equal(t, 0, result.Published)
	require.Equal(t, int64(0), penalty)
	require.Equal(t, 1, result.MeetingValidators)

	result, penalty = m.PublishAttempt(100, 3000, 1000)
	require.Equal(t, 0, result.Published)
	require.Equal(t, int64(0), penalty)

	result, penalty = m.PublishAttempt(100, 3000, 1000)
	require.Equal(t, 1, result.Published)
	require.True(t, result.Forced)
	require.Equal(t, int64(6000), penalty)
}

func TestPublishAttemptWithNoProposalIsNoop(t *testing.T) {
	store, r, pending, reg := setup(t, 5, 4)
	m := New(store, r, pending, reg)

	result, penalty := m.PublishAttempt(100, 3000, 1000)
	require.Equal(t, 0, result.Published)
	require.Equal(t, int64(0), penalty)
}
