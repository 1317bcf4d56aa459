// SPDX-License-Identifier: Apache-2.0

package crashguard

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestFire_AtMostOnce(t *testing.T) {
	var calls atomic.Int32
	Register(func() { calls.Add(1) })
	t.Cleanup(func() { Register(nil) })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Fire()
		}()
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("cleanup ran %d times, want 1", got)
	}
}

func TestFire_NothingRegistered(t *testing.T) {
	Register(nil)
	Fire() // must not panic
}

func TestRegister_LatestWins(t *testing.T) {
	var first, second atomic.Int32
	Register(func() { first.Add(1) })
	Register(func() { second.Add(1) })
	t.Cleanup(func() { Register(nil) })

	Fire()
	if first.Load() != 0 {
		t.Error("replaced cleanup still ran")
	}
	if second.Load() != 1 {
		t.Error("latest cleanup did not run")
	}
}

func TestHandlePanic_RunsCleanupAndRepanics(t *testing.T) {
	var calls atomic.Int32
	Register(func() { calls.Add(1) })
	t.Cleanup(func() { Register(nil) })

	recovered := func() (r any) {
		defer func() { r = recover() }()
		defer HandlePanic()
		panic("boom")
	}()

	if recovered != "boom" {
		t.Errorf("re-panic value = %v, want boom", recovered)
	}
	if calls.Load() != 1 {
		t.Errorf("cleanup ran %d times, want 1", calls.Load())
	}
}

func TestHandlePanic_NoPanic(t *testing.T) {
	var calls atomic.Int32
	Register(func() { calls.Add(1) })
	t.Cleanup(func() { Register(nil) })

	func() {
		defer HandlePanic()
	}()

	if calls.Load() != 0 {
		t.Error("cleanup ran without a panic")
	}
}
