//go:build amd64 && !noasm

// relax_amd64.go declares the assembly PAUSE stub used by busy-wait loops
// so they back off politely without leaving userspace.

package spscring

//go:noescape
func cpuRelax()
