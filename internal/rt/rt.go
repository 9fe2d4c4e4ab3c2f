// Package rt applies CPU affinity and real-time scheduling to the calling
// OS thread. It is the concrete, in-repo implementation of the "RT helper
// interface (consumed)" the routing core relies on but never imports
// directly — bootstrap code calls BindAndPrioritize from inside a pinned
// worker goroutine, after runtime.LockOSThread.
package rt

// SchedPolicy is a real-time scheduling policy.
type SchedPolicy uint8

const (
	// Fifo is fixed-priority, run-to-block.
	Fifo SchedPolicy = iota
	// RoundRobin is fixed-priority, time-sliced among equal priorities.
	RoundRobin
)

// Config is the RT configuration applied to the current thread.
type Config struct {
	// CPU is the logical CPU to pin to; -1 skips pinning.
	CPU int
	// Policy is the desired RT scheduling policy.
	Policy SchedPolicy
	// Priority is the RT priority (Linux: typically 1..99). Callers must
	// set this explicitly; there is no default, to avoid a magic number
	// masking a misconfigured deployment.
	Priority int
}

// BindAndPrioritize applies cfg to the calling OS thread. It returns false
// if any part of the request could not be satisfied (unsupported platform,
// out-of-range CPU, insufficient privileges for RT scheduling); callers
// should treat a false return as non-fatal and log it, not abort.
func BindAndPrioritize(cfg Config) bool {
	ok := true
	if cfg.CPU >= 0 {
		ok = setAffinity(cfg.CPU) && ok
	}
	ok = setSchedPolicy(cfg.Policy, cfg.Priority) && ok
	return ok
}
