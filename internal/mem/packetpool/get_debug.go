//go:build debug

package packetpool

// Get returns the descriptor addressed by h. Debug builds range-check h
// against the pool's capacity and panic on an out-of-range handle; release
// builds skip the check entirely on this hot path.
func (p *Pool) Get(h Handle) *Packet {
	if int(h) >= len(p.storage) {
		panic("packetpool: handle out of range")
	}
	return &p.storage[h]
}
