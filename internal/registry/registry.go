// Package registry tracks transaction metadata (size) and the set of
// transaction ids injected but not yet published. It is kept separate
// from the gossip Pending-Gossip Set: a transaction can stop
// propagating (its delivery attempts drained) long before it is
// published, and prepare_request must still consider it a candidate
// until the global-published bit is set.
package registry

import "stochastic-montecarlo/internal/knowledge"

// Registry maps tx id -> size in KB for every unpublished transaction.
type Registry struct {
	sizeKB      map[knowledge.TxID]int
	unpublished []knowledge.TxID
	position    map[knowledge.TxID]int // index into unpublished, for O(1) removal
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		sizeKB:      make(map[knowledge.TxID]int),
		unpublished: make([]knowledge.TxID, 0),
		position:    make(map[knowledge.TxID]int),
	}
}

// Add records a newly injected transaction.
func (r *Registry) Add(id knowledge.TxID, sizeKB int) {
	r.sizeKB[id] = sizeKB
	r.position[id] = len(r.unpublished)
	r.unpublished = append(r.unpublished, id)
}

// SizeKB returns a transaction's size, or 0 if unknown.
func (r *Registry) SizeKB(id knowledge.TxID) int { return r.sizeKB[id] }

// Unpublished returns every transaction id injected but not yet
// published. The order is injection order until the first Remove;
// Remove moves the last id into the removed slot, so after a removal
// the order is no longer injection order.
func (r *Registry) Unpublished() []knowledge.TxID {
	out := make([]knowledge.TxID, len(r.unpublished))
	copy(out, r.unpublished)
	return out
}

// Remove drops id from the unpublished set and its size entry, called
// once a transaction is published (normally or by force).
func (r *Registry) Remove(id knowledge.TxID) {
	pos, ok := r.position[id]
	if !ok {
		return
	}
	last := len(r.unpublished) - 1
	moved := r.unpublished[last]
	r.unpublished[pos] = moved
	r.unpublished = r.unpublished[:last]
	r.position[moved] = pos
	delete(r.position, id)
	delete(r.sizeKB, id)
}

// Len returns the number of unpublished transactions currently tracked.
func (r *Registry) Len() int { return len(r.unpublished) }

// Clear resets the registry to empty, per the orchestrator's clean().
func (r *Registry) Clear() {
	r.sizeKB = make(map[knowledge.TxID]int)
	r.unpublished = r.unpublished[:0]
	r.position = make(map[knowledge.TxID]int)
}
