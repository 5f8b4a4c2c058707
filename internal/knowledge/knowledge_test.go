package knowledge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"stochastic-montecarlo/internal/topology"
)

func TestKnowsMarkRoundTrip(t *testing.T) {
	s, err := NewStore(10, 4)
	require.NoError(t, err)

	p := topology.PeerID(1)
	require.False(t, s.Knows(p, 3))
	s.Mark(p, 3)
	require.True(t, s.Knows(p, 3))
	require.False(t, s.Knows(p, 4))
}

func TestPublishedGlobally(t *testing.T) {
	s, err := NewStore(10, 4)
	require.NoError(t, err)

	require.False(t, s.PublishedGlobally(5))
	s.MarkPublished(5)
	require.True(t, s.PublishedGlobally(5))
}

func TestClearAllResetsEverything(t *testing.T) {
	s, err := NewStore(10, 4)
	require.NoError(t, err)

	p := topology.PeerID(1)
	s.Mark(p, 3)
	s.MarkPublished(3)
	s.ClearAll()

	require.False(t, s.Knows(p, 3))
	require.False(t, s.PublishedGlobally(3))
}

func TestOutOfRangeAborts(t *testing.T) {
	s, err := NewStore(2, 4) // capacity 8
	require.NoError(t, err)

	require.Panics(t, func() {
		s.Mark(topology.PeerID(1), 8)
	})
}

func TestIndependentPeers(t *testing.T) {
	s, err := NewStore(10, 4)
	require.NoError(t, err)

	a, b := topology.PeerID(1), topology.PeerID(2)
	s.Mark(a, 1)
	require.True(t, s.Knows(a, 1))
	require.False(t, s.Knows(b, 1))
}
