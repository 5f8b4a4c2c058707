// Package roles partitions peers into validators and seeds and
// computes the BFT quorum size.
package roles

import (
	"fmt"
	"math/rand"

	"stochastic-montecarlo/internal/topology"
)

// Roles holds the validator/seed partition and the derived quorum.
type Roles struct {
	isValidator map[topology.PeerID]bool
	validators  []topology.PeerID
	seeds       []topology.PeerID
	quorum      int
}

// Select marks k distinct peers, chosen uniformly at random from
// peers, as validators; every other peer becomes a seed. rng is the
// simulation's single seeded PRNG.
func Select(rng *rand.Rand, peers []topology.PeerID, k int) (*Roles, error) {
	if k <= 0 || k > len(peers) {
		return nil, fmt.Errorf("roles: validator count %d out of range for %d peers", k, len(peers))
	}

	shuffled := make([]topology.PeerID, len(peers))
	copy(shuffled, peers)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	r := &Roles{
		isValidator: make(map[topology.PeerID]bool, len(peers)),
		validators:  make([]topology.PeerID, 0, k),
		seeds:       make([]topology.PeerID, 0, len(peers)-k),
	}
	for i, p := range shuffled {
		if i < k {
			r.isValidator[p] = true
		}
	}
	for _, p := range peers {
		if r.isValidator[p] {
			r.validators = append(r.validators, p)
		} else {
			r.seeds = append(r.seeds, p)
		}
	}

	r.quorum = quorumFor(len(r.validators))
	return r, nil
}

// quorumFor computes M = max(1, 2*floor((V-1)/3)+1).
func quorumFor(v int) int {
	m := 2*((v-1)/3) + 1
	if m < 1 {
		m = 1
	}
	return m
}

// Quorum returns M, the BFT safe majority over the validator set.
func (r *Roles) Quorum() int { return r.quorum }

// IsValidator reports whether p is a validator.
func (r *Roles) IsValidator(p topology.PeerID) bool { return r.isValidator[p] }

// Validators returns the validator set.
func (r *Roles) Validators() []topology.PeerID {
	out := make([]topology.PeerID, len(r.validators))
	copy(out, r.validators)
	return out
}

// Seeds returns the seed set — the only valid injection targets.
func (r *Roles) Seeds() []topology.PeerID {
	out := make([]topology.PeerID, len(r.seeds))
	copy(out, r.seeds)
	return out
}

// NumValidators returns V, the validator count.
func (r *Roles) NumValidators() int { return len(r.validators) }
