// Package policybinding is the control plane's dynamic binding of the
// active path-selection policy for the data plane, published via a
// seqlock. Go has first-class function values, so unlike the C function-
// pointer + void* state pair this wraps, ChooseFn already carries its
// closed-over state; the seqlock still exists because a bare pointer swap
// would let a reader observe a torn (fn, generation) pair mid-update.
package policybinding

import (
	"sync/atomic"

	"github.com/aftahi334/alpha-smart-router/internal/routing/pop"
	"github.com/aftahi334/alpha-smart-router/internal/routing/seqslot"
)

// CandidateRef references one candidate path and its metrics slot.
type CandidateRef struct {
	ID   pop.PathId
	Slot *seqslot.Slot
}

// ChooseFn selects a path from a candidate set for a packet.
type ChooseFn func(cands []CandidateRef, pkt pop.PacketContext) pop.PathId

// Binding is a cache-line-scale seqlock guarding one (fn, generation) pair.
// A generation counter, not the raw closure pointer, is what readers
// validate against — Go closures aren't comparable, so a Compare-and-swap
// on the fn itself isn't available; the seqlock is what makes this safe
// instead.
type Binding struct {
	seq atomic.Uint32
	fn  atomic.Pointer[ChooseFn]
}

// Publish installs fn as the active policy. Single control-plane writer
// expected; concurrent Publish calls on the same Binding race.
func Publish(b *Binding, fn ChooseFn) {
	start := b.seq.Load()
	b.seq.Store(start | 1)
	b.fn.Store(&fn)
	b.seq.Store((start | 1) + 1)
}

// Clear removes the active policy, making the binding unreachable to
// readers until the next Publish.
func Clear(b *Binding) {
	start := b.seq.Load()
	b.seq.Store(start | 1)
	b.fn.Store(nil)
	b.seq.Store((start | 1) + 1)
}

// Snapshot returns the currently published ChooseFn, retrying up to 4
// times against writer churn. ok is false if no policy is bound or every
// retry raced a writer.
func Snapshot(b *Binding) (fn ChooseFn, ok bool) {
	for i := 0; i < 4; i++ {
		s1 := b.seq.Load()
		if s1&1 != 0 {
			continue
		}
		f := b.fn.Load()
		s2 := b.seq.Load()
		if s1 == s2 && s2%2 == 0 {
			if f == nil {
				return nil, false
			}
			return *f, true
		}
	}
	return nil, false
}

// SelectPath resolves the current binding and chooses a path. Returns 0 if
// no policy is currently bound.
func SelectPath(b *Binding, cands []CandidateRef, pkt pop.PacketContext) pop.PathId {
	fn, ok := Snapshot(b)
	if !ok {
		return 0
	}
	return fn(cands, pkt)
}
