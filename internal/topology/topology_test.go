package topology

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildFullMeshIsComplete(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	topo, err := Build(rng, BuildConfig{
		NumPeers: 5, FullMesh: true,
		MinConnections: 1, MaxConnections: 4,
		DelayMinMS: 10, DelayMaxMS: 300, DelayMultiplier: 1,
	})
	require.NoError(t, err)

	for _, p := range topo.Peers() {
		require.Equal(t, 4, topo.Degree(p), "full mesh peer %d should be adjacent to all others", p)
	}
}

func TestLatencyIsSymmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	topo, err := Build(rng, BuildConfig{
		NumPeers: 10, FullMesh: false,
		MinConnections: 2, MaxConnections: 5,
		DelayMinMS: 10, DelayMaxMS: 300, DelayMultiplier: 1,
	})
	require.NoError(t, err)

	for _, a := range topo.Peers() {
		for _, n := range topo.Neighbours(a) {
			latAB, ok := topo.Latency(a, n.Peer)
			require.True(t, ok)
			latBA, ok := topo.Latency(n.Peer, a)
			require.True(t, ok)
			require.Equal(t, latAB, latBA)
			require.True(t, topo.Adjacent(n.Peer, a))
		}
	}
}

func TestPartialMeshRespectsMaxConnections(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	topo, err := Build(rng, BuildConfig{
		NumPeers: 30, FullMesh: false,
		MinConnections: 3, MaxConnections: 12,
		DelayMinMS: 10, DelayMaxMS: 300, DelayMultiplier: 1,
	})
	require.NoError(t, err)

	for _, p := range topo.Peers() {
		require.LessOrEqual(t, topo.Degree(p), 12)
	}
}

func TestDelayClampedAndMultiplied(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	topo, err := Build(rng, BuildConfig{
		NumPeers: 6, FullMesh: true,
		MinConnections: 1, MaxConnections: 5,
		DelayMinMS: 20, DelayMaxMS: 40, DelayMultiplier: 2,
	})
	require.NoError(t, err)

	for _, a := range topo.Peers() {
		for _, n := range topo.Neighbours(a) {
			require.GreaterOrEqual(t, n.LatencyMS, int64(40))
			require.LessOrEqual(t, n.LatencyMS, int64(80))
		}
	}
}

func TestBuildRejectsBadConfig(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	_, err := Build(rng, BuildConfig{NumPeers: 0})
	require.Error(t, err)

	_, err = Build(rng, BuildConfig{NumPeers: 3, MinConnections: 5, MaxConnections: 1})
	require.Error(t, err)
}
