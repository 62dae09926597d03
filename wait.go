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

import "time"

// Wait blocks the calling goroutine until f's result is available, then
// returns it. It does not require f to have a bound executor to be
// useful: for an InlineExecutor-bound, or executor-less, Future the
// pending continuation runs inline on whichever goroutine delivers the
// result, which is the goroutine calling Wait if the result has already
// landed.
func (f Future[T]) Wait() Try[T] {
	if !f.valid {
		return NewTryWithError[T](ErrFutureInvalid)
	}
	b := NewBaton()
	var result Try[T]
	f.c.setCallback(f.executor, f.priority, func(t Try[T]) {
		result = t
		b.Post()
	})
	b.Wait()
	return result
}

// Get blocks until f's result is available and returns it split into a
// value and an error, the conventional Go shape.
func (f Future[T]) Get() (T, error) {
	t := f.Wait()
	return t.Val(), t.Err()
}

// WaitTimeout blocks until f's result is available or d elapses,
// whichever comes first. It returns the result and true if it became
// ready in time; otherwise it returns nil and false, and the result, if
// it arrives later, is simply discarded by this call — the chain itself
// keeps running per the no-implicit-cancellation rule.
func (f Future[T]) WaitTimeout(d time.Duration) (Try[T], bool) {
	if !f.valid {
		return NewTryWithError[T](ErrFutureInvalid), true
	}
	b := NewBaton()
	var result Try[T]
	f.c.setCallback(f.executor, f.priority, func(t Try[T]) {
		result = t
		b.Post()
	})
	if !b.TryWaitFor(d) {
		return nil, false
	}
	return result, true
}

// GetTimeout behaves like WaitTimeout, returning the result split into a
// value and error; ErrTimeout is returned if d elapses first.
func (f Future[T]) GetTimeout(d time.Duration) (T, error) {
	t, ready := f.WaitTimeout(d)
	if !ready {
		var zero T
		return zero, ErrTimeout
	}
	return t.Val(), t.Err()
}

// Wait blocks the calling goroutine until this SemiFuture's result is
// available. If Defer/DeferValue/DeferError was used, the deferred chain
// is run synchronously on this goroutine, via the DeferredExecutor's
// HAS_BATON state, exactly as if a real Executor had been attached.
func (sf SemiFuture[T]) Wait() Try[T] {
	if !sf.valid {
		return NewTryWithError[T](ErrFutureInvalid)
	}
	b := NewBaton()
	var result Try[T]
	executor := Executor(InlineExecutor{})
	if sf.deferred != nil {
		executor = sf.deferred
	}
	// A WaitTimeout that gave up has already registered this core's one
	// callback; waiting again drives the deferred chain and then reads the
	// result straight off the core.
	w := sf.c.state.Load()
	resumed := sf.deferred != nil && w.HasCallback() && !w.HasResult()
	if !resumed {
		sf.c.setCallback(executor, 0, func(t Try[T]) {
			result = t
			b.Post()
		})
	}
	if sf.deferred != nil {
		sf.deferred.attachBaton(b)
	}
	b.Wait()
	if sf.deferred != nil {
		sf.deferred.runIfPending()
	}
	if resumed {
		result, _ = sf.Poll()
	}
	return result
}

// Get blocks until this SemiFuture's result is available and returns it
// split into a value and an error.
func (sf SemiFuture[T]) Get() (T, error) {
	t := sf.Wait()
	return t.Val(), t.Err()
}

// WaitTimeout blocks until this SemiFuture's result is available or d
// elapses, whichever comes first. If a deferred chain is attached and the
// wait times out first, the DeferredExecutor's HAS_BATON state is reverted
// back to EMPTY so a later Wait or Get attaches cleanly rather than
// finding a baton nobody is listening to anymore; if that revert loses a
// race against a concurrently-arriving result, the result is waited for
// and returned as ready after all. The timed-out call's callback stays
// registered on the core, so a Future obtained afterwards through Via runs
// the chain but cannot have a continuation attached.
func (sf SemiFuture[T]) WaitTimeout(d time.Duration) (Try[T], bool) {
	if !sf.valid {
		return NewTryWithError[T](ErrFutureInvalid), true
	}
	b := NewBaton()
	var result Try[T]
	executor := Executor(InlineExecutor{})
	if sf.deferred != nil {
		executor = sf.deferred
	}
	sf.c.setCallback(executor, 0, func(t Try[T]) {
		result = t
		b.Post()
	})
	if sf.deferred != nil {
		sf.deferred.attachBaton(b)
	}
	if b.TryWaitFor(d) {
		if sf.deferred != nil {
			sf.deferred.runIfPending()
		}
		return result, true
	}
	if sf.deferred == nil || sf.deferred.cancelBaton(b) {
		return nil, false
	}
	b.Wait()
	sf.deferred.runIfPending()
	return result, true
}

// GetTimeout behaves like WaitTimeout, returning the result split into a
// value and error; ErrTimeout is returned if d elapses first.
func (sf SemiFuture[T]) GetTimeout(d time.Duration) (T, error) {
	t, ready := sf.WaitTimeout(d)
	if !ready {
		var zero T
		return zero, ErrTimeout
	}
	return t.Val(), t.Err()
}

// WaitVia blocks until f's result is available, driving e's own queue on
// the calling goroutine while waiting. Use this instead of Wait when the
// calling goroutine is also the one responsible for running e's queued
// work (e.g. an event-loop-bound Future being waited on from off the
// loop's own goroutine would otherwise deadlock).
func (f Future[T]) WaitVia(e DrivableExecutor) Try[T] {
	if !f.valid {
		return NewTryWithError[T](ErrFutureInvalid)
	}
	done := make(chan struct{})
	var result Try[T]
	f.c.setCallback(f.executor, f.priority, func(t Try[T]) {
		result = t
		close(done)
	})
	e.Drive(done)
	return result
}

// GetVia behaves like WaitVia, returning the result split into a value
// and an error.
func (f Future[T]) GetVia(e DrivableExecutor) (T, error) {
	t := f.WaitVia(e)
	return t.Val(), t.Err()
}

// WaitVia attaches e as this SemiFuture's executor and blocks until the
// result is available, driving e on the calling goroutine while waiting.
func (sf SemiFuture[T]) WaitVia(e DrivableExecutor) Try[T] {
	return sf.Via(e).WaitVia(e)
}

// GetVia behaves like WaitVia, returning the result split into a value
// and an error.
func (sf SemiFuture[T]) GetVia(e DrivableExecutor) (T, error) {
	t := sf.WaitVia(e)
	return t.Val(), t.Err()
}
