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

// Package corestate implements the packed, atomically-updated state word
// that backs a Core: whether a result has been stored, whether a callback
// has been registered, and the one-shot bits (promise satisfied, future
// retrieved) that must transition exactly once.
//
// The representation and the swap-based spinlock used to update it mirror
// the PromStatus bitfield pattern, generalized from a chain-mode/fate/state
// triple down to the two booleans (hasResult, hasCallback) a Core actually
// needs, plus the one-shot guard bits this module's Promise/Future API
// requires that the original pattern didn't.
package corestate

import (
	"runtime"
	"sync/atomic"
)

// Word is the packed state of a Core. The zero Word is the initial state:
// no result, no callback, not yet dispatched, promise not yet satisfied,
// future not yet retrieved.
type Word uint32

const (
	bitHasResult      Word = 1 << 0
	bitHasCallback    Word = 1 << 1
	bitDispatched     Word = 1 << 2 // the callback has been (or is being) handed to an executor
	bitPromiseDone    Word = 1 << 3 // SetValue/SetException/SetTry has been called once
	bitFutureRetrieved Word = 1 << 4 // GetSemiFuture has been called once

	// lockSentinel is a value no valid Word ever holds on its own (the top
	// bit is never set by any real transition), used as the "locked" marker
	// for the swap-based spinlock below.
	lockSentinel Word = 1 << 31
)

// State is an atomically-updated Word.
type State struct {
	w uint32
}

// Load returns the current state without acquiring the lock.
func (s *State) Load() Word {
	return Word(atomic.LoadUint32(&s.w))
}

// acquire spins until it observes, and atomically replaces with the lock
// sentinel, a non-locked value; it returns that observed value.
//
// This is the same swap-then-CAS-release spinlock shape used to serialize
// updates to a packed status word when a plain CAS retry loop would need
// to recompute its desired value from a racily-read current value: swap
// in the sentinel unconditionally (only one goroutine can ever observe a
// non-sentinel value per critical section), compute the next word from
// what was swapped out, then CAS the sentinel back to the real value.
func acquire(s *State) Word {
	for {
		old := Word(atomic.SwapUint32(&s.w, uint32(lockSentinel)))
		if old != lockSentinel {
			return old
		}
		// someone else holds the lock; yield and retry
		runtime.Gosched()
	}
}

func release(s *State, next Word) {
	if !atomic.CompareAndSwapUint32(&s.w, uint32(lockSentinel), uint32(next)) {
		panic("corestate: state word changed while lock was held")
	}
}

// SetHasResult marks the result as stored. It returns the previous word
// and whether a callback was already registered (i.e. whether the caller
// of SetHasResult is the one responsible for dispatching).
func (s *State) SetHasResult() (prev Word, shouldDispatch bool) {
	prev = acquire(s)
	next := prev | bitHasResult
	shouldDispatch = prev&bitHasCallback != 0 && prev&bitDispatched == 0
	if shouldDispatch {
		next |= bitDispatched
	}
	release(s, next)
	return prev, shouldDispatch
}

// SetHasCallback marks a callback as registered. It returns the previous
// word and whether the caller is responsible for dispatching (i.e. the
// result was already stored and nobody else has dispatched yet).
func (s *State) SetHasCallback() (prev Word, shouldDispatch bool) {
	prev = acquire(s)
	next := prev | bitHasCallback
	shouldDispatch = prev&bitHasResult != 0 && prev&bitDispatched == 0
	if shouldDispatch {
		next |= bitDispatched
	}
	release(s, next)
	return prev, shouldDispatch
}

// MarkPromiseDone sets the one-shot "promise satisfied" bit. ok is false
// if it was already set, in which case the caller must treat this as a
// double-fulfillment error rather than perform the transition.
func (s *State) MarkPromiseDone() (ok bool) {
	prev := acquire(s)
	if prev&bitPromiseDone != 0 {
		release(s, prev)
		return false
	}
	release(s, prev|bitPromiseDone)
	return true
}

// MarkFutureRetrieved sets the one-shot "future retrieved" bit. ok is
// false if it was already set.
func (s *State) MarkFutureRetrieved() (ok bool) {
	prev := acquire(s)
	if prev&bitFutureRetrieved != 0 {
		release(s, prev)
		return false
	}
	release(s, prev|bitFutureRetrieved)
	return true
}

func (w Word) HasResult() bool       { return w&bitHasResult != 0 }
func (w Word) HasCallback() bool     { return w&bitHasCallback != 0 }
func (w Word) Dispatched() bool      { return w&bitDispatched != 0 }
func (w Word) PromiseDone() bool     { return w&bitPromiseDone != 0 }
func (w Word) FutureRetrieved() bool { return w&bitFutureRetrieved != 0 }
