// Package control provides lightweight global signaling for coordinating
// activity state and graceful shutdown across pinned data-plane workers.
//
// Threading model:
//   - Packet processing signals activity via SignalActivity().
//   - Pinned workers poll flags via Flags() to decide hot-spin vs cold-spin.
//   - PollCooldown clears the hot flag automatically once traffic quiesces.
//   - Shutdown() sets the stop flag; every worker observes it and exits.
package control

import "time"

var (
	hot  uint32 // 1 = recent packet-ring activity, 0 = idle
	stop uint32 // 1 = shutdown requested, 0 = running

	lastHot    int64
	cooldownNs = int64(1 * time.Second)
)

// SignalActivity marks the system as active and records the time, for
// automatic cooldown management. Called by the data-plane handler for each
// packet it processes.
//
//go:nosplit
func SignalActivity() {
	hot = 1
	lastHot = time.Now().UnixNano()
}

// PollCooldown clears the hot flag once cooldownNs has elapsed with no
// activity. cmd/router calls it once per control-plane tick.
//
//go:nosplit
func PollCooldown() {
	if hot == 1 && time.Now().UnixNano()-lastHot > cooldownNs {
		hot = 0
	}
}

// Shutdown requests graceful termination; pinned workers observe stop and
// exit their loops.
//
//go:nosplit
func Shutdown() {
	stop = 1
}

// Flags returns direct pointers to the stop and hot flags, for
// zero-allocation polling from pinned worker loops.
//
//go:nosplit
func Flags() (*uint32, *uint32) {
	return &stop, &hot
}
