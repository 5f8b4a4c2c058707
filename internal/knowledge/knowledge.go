// Package knowledge implements the per-(peer, transaction) knowledge
// bitmap and the global-published bitmap. Both are packed, one bit
// per entry, to keep memory use proportional to peer count times
// transaction count rather than a byte or word per entry.
package knowledge

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"stochastic-montecarlo/internal/topology"
)

// TxID is a transaction identifier, assigned monotonically starting
// at 0.
type TxID int64

// Store holds one bitset per peer plus the shared global-published
// bitset. Its shape is fixed at construction: rows*cols must exceed
// the highest transaction id the engine will ever inject, since an
// out-of-range id aborts the process rather than silently growing.
type Store struct {
	rows, cols int64
	capacity   int64

	perPeer   map[topology.PeerID]*bitset.BitSet
	published *bitset.BitSet
}

// NewStore allocates a Store shaped rows x cols. The (row, col)
// decomposition of a transaction id is kept for bounds validation and
// diagnostics, but both bitmaps are stored as flat, packed bitsets of
// rows*cols bits, since row*cols+col is exactly id.
func NewStore(rows, cols int64) (*Store, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("knowledge: rows and cols must be positive, got rows=%d cols=%d", rows, cols)
	}
	capacity := rows * cols
	return &Store{
		rows:      rows,
		cols:      cols,
		capacity:  capacity,
		perPeer:   make(map[topology.PeerID]*bitset.BitSet),
		published: bitset.New(uint(capacity)),
	}, nil
}

// mustIndex computes (row, col) for id and aborts the process if id
// falls outside the configured shape — next_tx_id exceeding rows*cols
// is a configuration error the engine cannot recover from.
func (s *Store) mustIndex(id TxID) uint {
	row := int64(id) / s.cols
	col := int64(id) % s.cols
	if row < 0 || row >= s.rows || col < 0 || col >= s.cols || int64(id) >= s.capacity {
		panic(fmt.Sprintf(
			"knowledge: tx id %d out of bounds for shape %dx%d (capacity %d) — next_tx_id exceeded rows*cols",
			id, s.rows, s.cols, s.capacity))
	}
	return uint(id)
}

// EnsurePeer allocates a peer's bitset lazily. Build-time allocation
// per topology peer keeps Knows/Mark allocation-free in the hot path.
func (s *Store) EnsurePeer(p topology.PeerID) {
	if _, ok := s.perPeer[p]; !ok {
		s.perPeer[p] = bitset.New(uint(s.capacity))
	}
}

// Knows reports whether peer p has received transaction id.
func (s *Store) Knows(p topology.PeerID, id TxID) bool {
	bs, ok := s.perPeer[p]
	if !ok {
		return false
	}
	return bs.Test(s.mustIndex(id))
}

// Mark records that peer p has received transaction id. Bits only
// transition 0->1; there is no unset operation outside ClearAll.
func (s *Store) Mark(p topology.PeerID, id TxID) {
	s.EnsurePeer(p)
	s.perPeer[p].Set(s.mustIndex(id))
}

// PublishedGlobally reports whether id's global-published bit is set.
func (s *Store) PublishedGlobally(id TxID) bool {
	return s.published.Test(s.mustIndex(id))
}

// MarkPublished sets id's global-published bit.
func (s *Store) MarkPublished(id TxID) {
	s.published.Set(s.mustIndex(id))
}

// ClearAll resets every knowledge bit and the global-published bitmap
// to zero, per the orchestrator's clean() step.
func (s *Store) ClearAll() {
	for p := range s.perPeer {
		s.perPeer[p].ClearAll()
	}
	s.published.ClearAll()
}

// Shape returns the configured (rows, cols).
func (s *Store) Shape() (rows, cols int64) { return s.rows, s.cols }

// Capacity returns rows*cols, the highest tx id (exclusive) the store
// can address.
func (s *Store) Capacity() int64 { return s.capacity }
