//go:build !unix

package taskloop

import (
	"runtime"
	"time"
)

// YieldProcess implements Yielder on non-unix platforms (notably
// Windows, where golang.org/x/sys/unix is unavailable).
func (OSYielder) YieldProcess() {
	runtime.Gosched()
}

// YieldFor implements Yielder with time.Sleep on non-unix platforms.
func (OSYielder) YieldFor(d time.Duration) {
	if d <= 0 {
		runtime.Gosched()
		return
	}
	time.Sleep(d)
}
