//go:build !linux

package rt

// setAffinity and setSchedPolicy are Linux-only; other platforms report
// unsupported instead of pinning/prioritizing.
func setAffinity(cpu int) bool { return false }

func setSchedPolicy(policy SchedPolicy, priority int) bool { return false }
