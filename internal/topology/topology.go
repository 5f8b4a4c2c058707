// Package topology builds and queries the peer-to-peer overlay the
// simulation gossips over: an undirected, weighted graph where peers
// are integer identifiers and edges carry a delivery latency in
// milliseconds.
package topology

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// PeerID identifies a peer in the overlay. Peers are numbered 1..N.
type PeerID int

// Neighbour is one endpoint of an edge as seen from the other endpoint.
type Neighbour struct {
	Peer      PeerID
	LatencyMS int64
}

// BuildConfig parameters control graph generation
type BuildConfig struct {
	NumPeers        int
	FullMesh        bool
	MinConnections  int
	MaxConnections  int
	DelayMinMS      int64
	DelayMaxMS      int64
	DelayMultiplier float64
}

// maxPartialAttempts bounds the rejection loop used to grow a peer's
// degree in partial-mesh mode. The build proceeds with whatever graph
// it has once the cap is hit.
const maxPartialAttempts = 1000

// Topology is immutable once Build returns.
type Topology struct {
	peers     []PeerID
	adjacency map[PeerID]map[PeerID]int64
}

// randUint64Source adapts a single math/rand.Rand, the engine's one
// seedable PRNG, so gonum's distuv distributions can draw from it
// deterministically instead of reseeding from wall-clock time.
type randUint64Source struct {
	r *rand.Rand
}

func (s randUint64Source) Uint64() uint64 { return s.r.Uint64() }

// Seed satisfies golang.org/x/exp/rand.Source; reseeding is not
// supported since this source always draws from the shared rng.
func (s randUint64Source) Seed(uint64) {}

// Build constructs a Topology. rng is the simulation's single seeded
// PRNG; every random draw made here comes from it (directly, or via a
// deterministic sub-source derived from it for the normal
// distribution), never from time.Now or a freshly seeded generator.
func Build(rng *rand.Rand, cfg BuildConfig) (*Topology, error) {
	if cfg.NumPeers <= 0 {
		return nil, fmt.Errorf("topology: num_peers must be positive, got %d", cfg.NumPeers)
	}
	if cfg.MaxConnections < cfg.MinConnections {
		return nil, fmt.Errorf("topology: max_connections (%d) < min_connections (%d)",
			cfg.MaxConnections, cfg.MinConnections)
	}

	t := &Topology{
		peers:     make([]PeerID, cfg.NumPeers),
		adjacency: make(map[PeerID]map[PeerID]int64, cfg.NumPeers),
	}
	for i := 0; i < cfg.NumPeers; i++ {
		p := PeerID(i + 1)
		t.peers[i] = p
		t.adjacency[p] = make(map[PeerID]int64)
	}

	normal := distuv.Normal{
		Mu:    100,
		Sigma: 50,
		Src:   randUint64Source{r: rng},
	}
	drawLatency := func() int64 {
		raw := int64(normal.Rand())
		if raw < cfg.DelayMinMS {
			raw = cfg.DelayMinMS
		}
		if raw > cfg.DelayMaxMS {
			raw = cfg.DelayMaxMS
		}
		return int64(float64(raw) * cfg.DelayMultiplier)
	}

	if cfg.FullMesh {
		for i := 0; i < cfg.NumPeers; i++ {
			for j := i + 1; j < cfg.NumPeers; j++ {
				t.addEdge(t.peers[i], t.peers[j], drawLatency(), cfg.MaxConnections)
			}
		}
		return t, nil
	}

	for i := 0; i < cfg.NumPeers; i++ {
		p := t.peers[i]
		target := cfg.MinConnections
		if cfg.MaxConnections > cfg.MinConnections {
			target += rng.Intn(cfg.MaxConnections - cfg.MinConnections + 1)
		}
		if target > cfg.MaxConnections {
			target = cfg.MaxConnections
		}

		connected := make(map[PeerID]bool)
		for attempts := 0; len(connected) < target &&
			len(t.adjacency[p]) < cfg.MaxConnections &&
			attempts < maxPartialAttempts; attempts++ {
			candidate := t.peers[rng.Intn(cfg.NumPeers)]
			if candidate == p || connected[candidate] {
				continue
			}
			if _, exists := t.adjacency[p][candidate]; exists {
				continue
			}
			if len(t.adjacency[candidate]) >= cfg.MaxConnections {
				continue
			}
			if t.addEdge(p, candidate, drawLatency(), cfg.MaxConnections) {
				connected[candidate] = true
			}
		}
	}

	return t, nil
}

// addEdge inserts a symmetric edge if both endpoints are still under
// max_connections and the edge doesn't already exist.
func (t *Topology) addEdge(a, b PeerID, latencyMS int64, maxConnections int) bool {
	if _, exists := t.adjacency[a][b]; exists {
		return false
	}
	if len(t.adjacency[a]) >= maxConnections || len(t.adjacency[b]) >= maxConnections {
		return false
	}
	if latencyMS < 1 {
		latencyMS = 1
	}
	t.adjacency[a][b] = latencyMS
	t.adjacency[b][a] = latencyMS
	return true
}

// Peers returns every peer in the topology, in ascending id order.
func (t *Topology) Peers() []PeerID {
	out := make([]PeerID, len(t.peers))
	copy(out, t.peers)
	return out
}

// NumPeers returns the peer count.
func (t *Topology) NumPeers() int { return len(t.peers) }

// Neighbours returns p's neighbours and the latency to each, in
// ascending peer id order.
func (t *Topology) Neighbours(p PeerID) []Neighbour {
	edges := t.adjacency[p]
	out := make([]Neighbour, 0, len(edges))
	for n, lat := range edges {
		out = append(out, Neighbour{Peer: n, LatencyMS: lat})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Peer < out[j].Peer })
	return out
}

// Degree reports how many edges p currently has.
func (t *Topology) Degree(p PeerID) int { return len(t.adjacency[p]) }

// Latency returns the edge latency between a and b and whether an edge
// exists. Latency is symmetric by construction.
func (t *Topology) Latency(a, b PeerID) (int64, bool) {
	lat, ok := t.adjacency[a][b]
	return lat, ok
}

// Adjacent reports whether a and b share an edge.
func (t *Topology) Adjacent(a, b PeerID) bool {
	_, ok := t.adjacency[a][b]
	return ok
}
