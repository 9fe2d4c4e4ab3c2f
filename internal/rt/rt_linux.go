//go:build linux

package rt

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// setAffinity pins the calling thread to cpu via sched_setaffinity(2).
func setAffinity(cpu int) bool {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	return unix.SchedSetaffinity(0, &set) == nil
}

// schedParam mirrors struct sched_param from <sched.h> for the
// sched_setscheduler(2) syscall. x/sys/unix doesn't wrap this syscall
// directly, so it's invoked via unix.Syscall with unix's syscall-number
// constant, the same approach x/sys/unix itself uses internally for
// syscalls it hasn't given a typed wrapper.
type schedParam struct {
	Priority int32
}

// setSchedPolicy applies SCHED_FIFO or SCHED_RR via sched_setscheduler(2).
func setSchedPolicy(policy SchedPolicy, priority int) bool {
	var linuxPolicy uintptr
	switch policy {
	case Fifo:
		linuxPolicy = unix.SCHED_FIFO
	case RoundRobin:
		linuxPolicy = unix.SCHED_RR
	default:
		return false
	}
	param := schedParam{Priority: int32(priority)}
	_, _, errno := unix.Syscall(unix.SYS_SCHED_SETSCHEDULER, 0, linuxPolicy, uintptr(unsafe.Pointer(&param)))
	return errno == 0
}
