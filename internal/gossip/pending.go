package gossip

import "stochastic-montecarlo/internal/knowledge"

// DeliveryAttempt is one scheduled one-hop transmission, with its own
// elapsed-time counter.
type DeliveryAttempt struct {
	Sender, Receiver PeerID
	ElapsedMS        int64
}

// PendingTx is a transaction still propagating: its id, size, and
// every outstanding delivery attempt.
type PendingTx struct {
	ID      knowledge.TxID
	SizeKB  int
	Attempts []DeliveryAttempt
}

// Set is the Pending-Gossip Set: the dynamic list of PendingTx
// entries still propagating.
type Set struct {
	items []*PendingTx
	index map[knowledge.TxID]int
}

// NewSet returns an empty Pending-Gossip Set.
func NewSet() *Set {
	return &Set{index: make(map[knowledge.TxID]int)}
}

// Add appends a newly injected PendingTx.
func (s *Set) Add(pt *PendingTx) {
	s.index[pt.ID] = len(s.items)
	s.items = append(s.items, pt)
}

// Len returns the number of transactions still propagating.
func (s *Set) Len() int { return len(s.items) }

// Items exposes the set's current order for read-only iteration.
func (s *Set) Items() []*PendingTx {
	out := make([]*PendingTx, len(s.items))
	copy(out, s.items)
	return out
}

// replaceAll swaps in a freshly rebuilt item list after a broadcast
// step has drained or kept each PendingTx, and rebuilds the id index.
func (s *Set) replaceAll(items []*PendingTx) {
	s.items = items
	s.index = make(map[knowledge.TxID]int, len(items))
	for i, pt := range items {
		s.index[pt.ID] = i
	}
}

// RemoveIDs drops every PendingTx whose id is in ids — used on
// publish, when a transaction stops propagating regardless of
// whether its attempts had drained.
func (s *Set) RemoveIDs(ids []knowledge.TxID) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[knowledge.TxID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := make([]*PendingTx, 0, len(s.items))
	for _, pt := range s.items {
		if !drop[pt.ID] {
			kept = append(kept, pt)
		}
	}
	s.replaceAll(kept)
}

// Clear empties the set, per the orchestrator's clean() step.
func (s *Set) Clear() {
	s.items = s.items[:0]
	s.index = make(map[knowledge.TxID]int)
}
