// Copyright 2024 Ahmad Sameh(asmsh)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package folly

import (
	"runtime"
	"sync/atomic"
)

type deferredState int32

const (
	deferredEmpty deferredState = iota
	deferredHasFunction
	deferredHasExecutor
	deferredHasBaton
	deferredDetached
)

// deferredSnapshot is the immutable payload a deferredExecutor CASes into
// place: every transition swaps in a brand new snapshot rather than
// mutating fields in place, so a goroutine that loads one always sees a
// state and its associated fn/real/baton as a consistent unit, with no
// lock protecting the pair.
type deferredSnapshot struct {
	state deferredState
	fn    func()
	real  Executor
	baton *Baton
}

// deferredExecutor is the placeholder executor a SemiFuture's core carries
// before it's handed off to a real Executor via Via, or consumed directly
// by a blocking Wait/Get. It lets deferValue-style continuations
// (registered with Then while still a SemiFuture) queue up a function to
// run, without yet knowing which goroutine, or which Baton, will run it.
//
// The five states and their transitions are CAS-driven, not mutex-guarded:
// every method loads the current snapshot, computes the next one, and
// CAS-swaps it in, retrying on a lost race. A function handed to a real
// Executor or posted to a Baton always runs after the CAS that commits to
// doing so has already succeeded, never from inside the retry loop.
type deferredExecutor struct {
	snap atomic.Pointer[deferredSnapshot]
}

// newDeferredExecutor returns a fresh placeholder in deferredEmpty, with a
// finalizer that detaches it if it is ever garbage collected while still
// unattached (no Via, no blocking Wait/Get) — the SemiFuture chain sharing
// this placeholder became unreachable before anything claimed it, so there
// is nothing left to run its pending function, if any, and nothing to
// wait on it either.
func newDeferredExecutor() *deferredExecutor {
	d := &deferredExecutor{}
	d.snap.Store(&deferredSnapshot{state: deferredEmpty})
	runtime.SetFinalizer(d, func(d *deferredExecutor) { d.detach() })
	return d
}

// Add implements Executor, so a deferredExecutor can stand in for a real
// one anywhere core.dispatch expects to call executor.Add: priority is
// meaningless for a placeholder that holds at most one pending function.
func (d *deferredExecutor) Add(fn func(), _ int8) {
	d.setFunction(fn)
}

// setFunction records fn to run once the deferred executor transitions out
// of deferredEmpty. It panics if a function is already pending in a state
// that cannot absorb another one; the state machine only supports a single
// outstanding continuation at a time, matching the single-callback
// discipline of core.
func (d *deferredExecutor) setFunction(fn func()) {
	for {
		cur := d.snap.Load()
		switch cur.state {
		case deferredEmpty:
			next := &deferredSnapshot{state: deferredHasFunction, fn: fn}
			if d.snap.CompareAndSwap(cur, next) {
				return
			}
		case deferredHasExecutor:
			// real never changes once set, so no CAS is needed to read it;
			// the hand-off itself runs outside any CAS loop.
			cur.real.Add(fn, 0)
			return
		case deferredHasBaton:
			next := &deferredSnapshot{state: deferredHasFunction, fn: fn}
			if d.snap.CompareAndSwap(cur, next) {
				cur.baton.Post()
				return
			}
		case deferredDetached:
			return
		default:
			panic("folly: deferredExecutor already has a pending function")
		}
	}
}

// attachExecutor transitions to deferredHasExecutor, running the pending
// function immediately on that executor if one was already set.
func (d *deferredExecutor) attachExecutor(e Executor) {
	for {
		cur := d.snap.Load()
		switch cur.state {
		case deferredEmpty:
			next := &deferredSnapshot{state: deferredHasExecutor, real: e}
			if d.snap.CompareAndSwap(cur, next) {
				debug(evDeferredAttachExecutor)
				return
			}
		case deferredHasFunction:
			next := &deferredSnapshot{state: deferredHasExecutor, real: e}
			if d.snap.CompareAndSwap(cur, next) {
				debug(evDeferredAttachExecutor)
				e.Add(cur.fn, 0)
				return
			}
		default:
			panic("folly: deferredExecutor already has an executor or baton attached")
		}
	}
}

// attachBaton transitions to deferredHasBaton; used by the blocking bridge
// (wait.go) so a Wait call can park on a Baton instead of spinning up a
// real Executor just to run one function synchronously on the waiting
// goroutine. If a function is already pending, the state stays
// deferredHasFunction and b is posted at once, leaving the function for
// the waiter's runIfPending.
func (d *deferredExecutor) attachBaton(b *Baton) {
	for {
		cur := d.snap.Load()
		switch cur.state {
		case deferredEmpty:
			next := &deferredSnapshot{state: deferredHasBaton, baton: b}
			if d.snap.CompareAndSwap(cur, next) {
				debug(evDeferredAttachBaton)
				return
			}
		case deferredHasFunction:
			debug(evDeferredAttachBaton)
			b.Post()
			return
		default:
			panic("folly: deferredExecutor already has an executor or baton attached")
		}
	}
}

// cancelBaton reverts a deferredHasBaton state back to deferredEmpty,
// CAS-gated on b still being the attached baton. It's used by a timed Wait
// that gives up before the baton is ever posted, so the placeholder is
// left fresh rather than permanently wedged on an abandoned baton. It
// returns false if the state has already moved past deferredHasBaton
// (the core dispatched and posted b concurrently with the timeout), in
// which case the result is in fact ready and the caller should treat the
// timeout as lost.
func (d *deferredExecutor) cancelBaton(b *Baton) bool {
	for {
		cur := d.snap.Load()
		if cur.state != deferredHasBaton || cur.baton != b {
			return false
		}
		next := &deferredSnapshot{state: deferredEmpty}
		if d.snap.CompareAndSwap(cur, next) {
			return true
		}
	}
}

// runIfPending runs, and clears, the pending function set by setFunction,
// if one is present, then repeats: a chained Defer leaves more than one
// core dispatching through this same placeholder, and running the first
// one can synchronously set a second (e.g. the transform's own result
// landing and re-entering setFunction before this call returns). Looping
// here, rather than in the caller, drains the whole chain on the one
// goroutine that woke up from the Baton. Used by the Wait/Get bridge.
func (d *deferredExecutor) runIfPending() {
	for {
		cur := d.snap.Load()
		if cur.state != deferredHasFunction {
			return
		}
		next := &deferredSnapshot{state: deferredEmpty}
		if !d.snap.CompareAndSwap(cur, next) {
			continue
		}
		cur.fn()
	}
}

// detach transitions to deferredDetached, dropping any pending function and
// making any further setFunction call a no-op. It's called from the
// finalizer newDeferredExecutor installs, when a SemiFuture chain sharing
// this placeholder is garbage collected without ever being claimed by a
// real Executor or a blocking waiter.
func (d *deferredExecutor) detach() {
	for {
		cur := d.snap.Load()
		next := &deferredSnapshot{state: deferredDetached}
		if d.snap.CompareAndSwap(cur, next) {
			debug(evDeferredDetach)
			return
		}
	}
}
