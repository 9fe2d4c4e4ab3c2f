// pinned_consumer.go
//
// Low-latency SPSC consumer loop used by data-plane workers.
//
//   - Runs on a dedicated OS thread, bound by the caller-supplied bind func.
//   - Stays in hot-spin (tight loop, no cpuRelax) while new work has
//     arrived within hotTimeout, or the producer keeps the hot flag set.
//   - After the grace window and once hot == 0 it drops to the cold-spin
//     path: cpuRelax every iteration.
//   - Exits only when *stop == 1 and closes done exactly once.
//
// All cross-goroutine variables are accessed atomically; no other
// synchronisation primitive appears in the hot path.

package spscring

import (
	"runtime"
	"sync/atomic"
	"time"
	"unsafe"
)

const (
	spinBudget = 256
	hotTimeout = 15 * time.Second
)

// PinnedConsumer drains r until *stop is set. bind is called once from the
// consumer's OS thread before the loop starts (typically CPU affinity + RT
// priority); a nil bind skips pinning entirely.
func PinnedConsumer(
	r *Ring,
	stop, hot *uint32,
	bind func(),
	fn func(unsafe.Pointer),
	done chan<- struct{},
) {
	go func() {
		runtime.LockOSThread()
		if bind != nil {
			bind()
		}
		defer func() {
			runtime.UnlockOSThread()
			close(done)
		}()

		last := time.Now()
		miss := 0

		for {
			if p := r.Pop(); p != nil {
				fn(p)
				last, miss = time.Now(), 0
				continue
			}

			if atomic.LoadUint32(stop) != 0 {
				return
			}

			hotSpin := atomic.LoadUint32(hot) != 0 || time.Since(last) <= hotTimeout
			if hotSpin {
				continue
			}

			if miss++; miss >= spinBudget {
				miss = 0
			}
			cpuRelax()
		}
	}()
}
