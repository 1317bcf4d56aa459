// SPDX-License-Identifier: Apache-2.0

// Package crashguard runs a registered cleanup function when the process
// dies abnormally: on panic, or on SIGINT/SIGTERM. The cleanup slot is held
// in an atomic pointer so panic and signal paths never take a lock, and the
// registered function runs at most once.
package crashguard

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/charmbracelet/log"
)

var cleanup atomic.Pointer[func()]

// Register installs fn as the crash cleanup. Passing nil clears the slot.
// Only one cleanup is held at a time; the latest registration wins.
func Register(fn func()) {
	if fn == nil {
		cleanup.Store(nil)
		return
	}
	cleanup.Store(&fn)
}

// Fire runs the registered cleanup, at most once across all callers.
func Fire() {
	if fn := cleanup.Swap(nil); fn != nil {
		(*fn)()
	}
}

// HandlePanic is meant to be deferred at the top of main. It runs the
// cleanup and re-panics so the runtime still prints the stack trace.
func HandlePanic() {
	if r := recover(); r != nil {
		Fire()
		panic(r)
	}
}

// WatchSignals starts a goroutine that fires the cleanup and exits with a
// non-zero status on SIGINT or SIGTERM.
func WatchSignals() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-ch
		log.Warnf("caught %s, cleaning up", sig)
		Fire()
		os.Exit(130)
	}()
}
