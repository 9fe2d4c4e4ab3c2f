//go:build !amd64 || noasm

package spscring

// cpuRelax is a no-op on targets without a PAUSE-equivalent stub.
func cpuRelax() {}
