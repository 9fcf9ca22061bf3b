//go:build unix

package taskloop

import (
	"runtime"
	"time"

	"golang.org/x/sys/unix"
)

// YieldProcess implements Yielder by voluntarily releasing the
// goroutine's processor.
func (OSYielder) YieldProcess() {
	runtime.Gosched()
}

// YieldFor implements Yielder with a direct unix.Nanosleep call rather
// than time.Sleep, keeping the pause off the Go runtime's timer heap.
func (OSYielder) YieldFor(d time.Duration) {
	if d <= 0 {
		runtime.Gosched()
		return
	}
	ts := unix.NsecToTimespec(d.Nanoseconds())
	rem := &unix.Timespec{}
	for {
		err := unix.Nanosleep(&ts, rem)
		if err == nil {
			return
		}
		if err == unix.EINTR {
			ts = *rem
			continue
		}
		return
	}
}
