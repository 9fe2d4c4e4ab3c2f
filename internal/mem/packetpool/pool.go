// Package packetpool is a fixed-size pool of Packet descriptors backed by a
// lock-free SPSC free list. Capacity is fixed at construction; steady-state
// Acquire/Release are allocation-free.
//
// Thread roles (recommended): one ingress-side goroutine Acquires handles
// for incoming packets, one egress-side goroutine Releases handles once a
// packet has been sent or dropped.
package packetpool

import "github.com/aftahi334/alpha-smart-router/internal/mem/handlering"

// Pool manages capacity Packet descriptors and recycles handles through a
// handlering free list.
type Pool struct {
	capacity int
	storage  []Packet
	free     *handlering.Ring
}

// New builds a pool with capacityPow2 descriptors. capacityPow2 must be a
// power of two; the backing free-list ring is sized at 2x capacityPow2 so
// all capacityPow2 handles fit at once under the ring's one-slot-reserved
// discipline (usable occupancy is size-1, and capacityPow2 itself is a
// power of two, so the next viable ring size above it is 2x).
func New(capacityPow2 int) (*Pool, error) {
	free, err := handlering.New(capacityPow2 * 2)
	if err != nil {
		return nil, err
	}
	p := &Pool{
		capacity: capacityPow2,
		storage:  make([]Packet, capacityPow2),
		free:     free,
	}
	for i := 0; i < capacityPow2; i++ {
		if !p.free.Push(uint32(i)) {
			panic("packetpool: seeding failed, ring undersized")
		}
	}
	return p, nil
}

// Acquire pops a free handle. ok is false if the pool is exhausted.
func (p *Pool) Acquire() (Handle, bool) {
	h, ok := p.free.Pop()
	return Handle(h), ok
}

// Release returns a handle to the free list. ok is false only if the free
// list is unexpectedly full, which indicates a double-release bug upstream.
func (p *Pool) Release(h Handle) bool {
	return p.free.Push(uint32(h))
}

// Capacity reports the number of descriptors in the pool.
func (p *Pool) Capacity() int { return p.capacity }
