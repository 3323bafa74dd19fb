// Copyright 2016 by Thorsten von Eicken, see LICENSE file

//go:build !linux

package thread

import (
	"errors"
	"runtime"
)

// Realtime locks the calling goroutine to its own kernel thread. Realtime scheduling is
// only supported on Linux, elsewhere an error is returned.
func Realtime(prio int) error {
	runtime.LockOSThread()
	return errors.New("thread: realtime priority not supported on " + runtime.GOOS)
}
