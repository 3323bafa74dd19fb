// Copyright 2016 by Thorsten von Eicken, see LICENSE file

//go:build linux

package thread

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// Realtime locks the calling goroutine to its own kernel thread and elevates that
// thread's priority to realtime using the round-robin scheduling policy. Priorities range
// from 1 to 99, something in the lower middle of the range such as 10 leaves room for
// kernel threads. Setting a realtime policy usually requires root or CAP_SYS_NICE.
//
// The goroutine stays locked to the thread even if raising the priority fails.
func Realtime(prio int) error {
	if prio < 1 || prio > 99 {
		return fmt.Errorf("thread: invalid priority %d", prio)
	}
	// First pin goroutine to its own kernel thread.
	runtime.LockOSThread()
	attr := unix.SchedAttr{
		Size:     unix.SizeofSchedAttr,
		Policy:   unix.SCHED_RR,
		Priority: uint32(prio),
	}
	if err := unix.SchedSetAttr(unix.Gettid(), &attr, 0); err != nil {
		return fmt.Errorf("thread: cannot set realtime priority: %s", err)
	}
	return nil
}
