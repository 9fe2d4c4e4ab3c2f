//go:build debug

package packetpool

import "testing"

func TestGetPanicsOnOutOfRangeHandleInDebugBuild(t *testing.T) {
	p := mustNew(t, 4)
	defer func() {
		if recover() == nil {
			t.Fatal("Get with an out-of-range handle should panic in a debug build")
		}
	}()
	p.Get(Handle(4))
}
