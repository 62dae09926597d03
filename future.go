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

// Package folly implements an asynchronous-computation core: Future,
// Promise, and the shared Core that mediates between them, plus a
// combinator layer built on top (Then/Map/Filter/Within/collectors/
// reductions) and a blocking bridge for synchronous callers.
//
// A Core with no bound Executor dispatches its continuation inline, on
// whichever goroutine causes the second of {result, callback} to arrive.
// This is deliberate, not an oversight: it matches the behavior of a Core
// with no executor in the library this one is modeled on, and callers who
// want to force asynchronous dispatch can always pass InlineExecutor (to
// force synchronous dispatch explicitly, as documentation) or a real
// Executor to Via.
package folly

import (
	"errors"
	"time"
)

// SemiFuture is a consumer handle with no bound executor. Continuations
// attached via Defer/DeferValue/DeferError accumulate behind a
// DeferredExecutor placeholder until Via supplies a real one, or a
// blocking Wait/Get call supplies a Baton.
type SemiFuture[T any] struct {
	c        *core[T]
	valid    bool
	deferred *deferredExecutor
}

// Valid reports whether this SemiFuture refers to live state. It is false
// for the zero value and for the SemiFuture a second GetSemiFuture call
// returns; consuming a SemiFuture with Via, Wait or Get does not change
// what Valid reports.
func (sf SemiFuture[T]) Valid() bool { return sf.valid }

// IsReady reports whether the result has already landed.
func (sf SemiFuture[T]) IsReady() bool {
	return sf.valid && sf.c.state.Load().HasResult()
}

// HasValue reports whether the result has landed and is a success,
// without consuming it.
func (sf SemiFuture[T]) HasValue() bool {
	t, ready := sf.Poll()
	return ready && !t.HasError()
}

// HasException reports whether the result has landed and is an error,
// without consuming it.
func (sf SemiFuture[T]) HasException() bool {
	t, ready := sf.Poll()
	return ready && t.HasError()
}

// Poll returns the result and true if it has already landed, without
// blocking and without consuming this SemiFuture: unlike Wait/Get/Via,
// calling Poll leaves the handle free to still be consumed afterward. It
// reads the Core's state word and result directly rather than going
// through setCallback, since a Core only ever accepts one callback
// registration; the result write is safely visible here because it
// happens-before the atomic store Poll observes in c.state.Load().
func (sf SemiFuture[T]) Poll() (Try[T], bool) {
	if !sf.valid || !sf.c.state.Load().HasResult() {
		return nil, false
	}
	return sf.c.result, true
}

// Value returns the result's value, panicking with ErrFutureInvalid if
// the result has not landed yet. Callers unsure whether it has should
// check IsReady, or use Poll directly.
func (sf SemiFuture[T]) Value() T {
	t, ready := sf.Poll()
	if !ready {
		panic(ErrFutureInvalid)
	}
	return t.Val()
}

// Via attaches a real Executor, returning a Future bound to it. Any
// continuations previously registered with Defer/DeferValue/DeferError on
// this SemiFuture's chain are flushed onto e once they have something to
// run. A nil e fails the returned Future with ErrNoExecutor.
func (sf SemiFuture[T]) Via(e Executor, priority ...int8) Future[T] {
	if e == nil {
		return MakeFutureError[T](ErrNoExecutor)
	}
	if !sf.valid {
		p := int8(0)
		if len(priority) > 0 {
			p = priority[0]
		}
		return Future[T]{executor: e, priority: p}
	}
	if sf.deferred != nil {
		sf.deferred.attachExecutor(e)
	}
	p := int8(0)
	if len(priority) > 0 {
		p = priority[0]
	}
	return Future[T]{c: sf.c, valid: true, executor: e, priority: p}
}

// Defer attaches fn to run, on whatever rendezvous eventually arrives
// (real executor via Via, or a blocking waiter), receiving and returning
// a Try so it can transform a value into an error or vice versa. The
// returned SemiFuture shares this one's DeferredExecutor placeholder.
func (sf SemiFuture[T]) Defer(fn func(Try[T]) Try[T]) SemiFuture[T] {
	if !sf.valid {
		return sf
	}
	if sf.deferred == nil {
		sf.deferred = newDeferredExecutor()
	}
	nc := newCore[T]()
	sf.c.setCallback(sf.deferred, 0, func(t Try[T]) {
		nc.setResult(runRecoveringTry(t, fn))
	})
	return SemiFuture[T]{c: nc, valid: true, deferred: sf.deferred}
}

// DeferValue attaches a value-only transform, materializing the
// DeferredExecutor placeholder on first call. An error result skips fn
// and passes the error through unchanged, exactly like thenValue.
func (sf SemiFuture[T]) DeferValue(fn func(T) T) SemiFuture[T] {
	return sf.Defer(func(t Try[T]) Try[T] {
		if t.HasError() {
			return t
		}
		return runRecovering(func() (T, error) { return fn(t.Val()), nil })
	})
}

// DeferError attaches an error-recovery transform; fn is only called when
// the SemiFuture resolved to an error, exactly like thenError/onError.
func (sf SemiFuture[T]) DeferError(fn func(error) T) SemiFuture[T] {
	return sf.Defer(func(t Try[T]) Try[T] {
		if !t.HasError() {
			return t
		}
		return runRecovering(func() (T, error) { return fn(t.Err()), nil })
	})
}

// Future is a consumer handle bound to a real Executor (possibly
// InlineExecutor). Every continuation attached to a Future runs on that
// Executor, with the given priority, unless Via is called again first.
type Future[T any] struct {
	c        *core[T]
	valid    bool
	executor Executor
	priority int8
}

// Valid reports whether this Future still refers to live state.
func (f Future[T]) Valid() bool { return f.valid }

// IsReady reports whether the result has already landed.
func (f Future[T]) IsReady() bool {
	return f.valid && f.c.state.Load().HasResult()
}

// HasValue reports whether the result has landed and is a success,
// without consuming it.
func (f Future[T]) HasValue() bool {
	t, ready := f.Poll()
	return ready && !t.HasError()
}

// HasException reports whether the result has landed and is an error,
// without consuming it.
func (f Future[T]) HasException() bool {
	t, ready := f.Poll()
	return ready && t.HasError()
}

// Poll returns the result and true if it has already landed, without
// blocking and without consuming this Future. See SemiFuture.Poll for why
// this reads the Core's state and result directly instead of going
// through setCallback.
func (f Future[T]) Poll() (Try[T], bool) {
	if !f.valid || !f.c.state.Load().HasResult() {
		return nil, false
	}
	return f.c.result, true
}

// Value returns the result's value, panicking with ErrFutureInvalid if
// the result has not landed yet. Callers unsure whether it has should
// check IsReady, or use Poll directly.
func (f Future[T]) Value() T {
	t, ready := f.Poll()
	if !ready {
		panic(ErrFutureInvalid)
	}
	return t.Val()
}

// Via rebinds this Future to a different Executor for any continuation
// attached after this call. A nil e fails the returned Future with
// ErrNoExecutor.
func (f Future[T]) Via(e Executor, priority ...int8) Future[T] {
	if e == nil {
		return MakeFutureError[T](ErrNoExecutor)
	}
	p := int8(0)
	if len(priority) > 0 {
		p = priority[0]
	}
	f.executor = e
	f.priority = p
	return f
}

// Cancel requests the producer stop, via the interrupt channel installed
// with Promise.SetInterruptHandler. An installed handler is called at
// once, whether or not the result has already landed; if none is
// installed yet, the request is remembered and delivered when one is
// (see requestInterrupt). Only the first request reaches the handler.
func (f Future[T]) Cancel(cause error) {
	if !f.valid || f.c == nil {
		return
	}
	if cause == nil {
		cause = ErrBrokenPromise
	}
	f.c.requestInterrupt(cause)
}

// Ensure attaches fn to run regardless of success or error, without
// altering the result.
func (f Future[T]) Ensure(fn func()) Future[T] {
	return thenTry(f, func(t Try[T]) Try[T] {
		fn()
		return t
	})
}

// OnError attaches fn to recover from an error result by producing a new
// value; a successful result passes through fn untouched.
func (f Future[T]) OnError(fn func(error) (T, error)) Future[T] {
	return thenTry(f, func(t Try[T]) Try[T] {
		if !t.HasError() {
			return t
		}
		return runRecovering(func() (T, error) { return fn(t.Err()) })
	})
}

// Filter rejects the value with ErrPredicateDoesNotObtain if pred returns
// false; an already-errored Future passes through untouched.
func (f Future[T]) Filter(pred func(T) bool) Future[T] {
	return thenTry(f, func(t Try[T]) Try[T] {
		if t.HasError() || pred(t.Val()) {
			return t
		}
		return NewTryWithError[T](ErrPredicateDoesNotObtain)
	})
}

// Within fails the Future with err (ErrTimeout if err is nil) if it has
// not completed within d, as observed by tk. The original completion,
// if it still arrives afterward, is discarded. A nil tk fails the
// returned Future with ErrNoTimekeeper.
func (f Future[T]) Within(d time.Duration, err error, tk Timekeeper) Future[T] {
	if tk == nil {
		return MakeFutureError[T](ErrNoTimekeeper).Via(f.executor, f.priority)
	}
	if err == nil {
		err = ErrTimeout
	}
	p := NewPromise[T]()
	out := mustSemiFuture(p).Via(f.executor, f.priority)

	done := make(chan struct{})
	thenTry(f, func(t Try[T]) Try[T] {
		close(done)
		_ = p.SetTry(t)
		return t
	})
	go func() {
		select {
		case <-done:
		case <-tk.After(d):
			if p.SetException(err) == nil {
				f.Cancel(err)
			}
		}
	}()
	return out
}

// OnTimeout behaves like Within, except fn is called (on f's executor)
// to produce the value used instead of failing outright.
func (f Future[T]) OnTimeout(d time.Duration, fn func() (T, error), tk Timekeeper) Future[T] {
	return f.Within(d, ErrTimeout, tk).OnError(func(err error) (T, error) {
		if err == ErrTimeout {
			return fn()
		}
		return *new(T), err
	})
}

// Delayed returns a Future that resolves to this Future's result, but no
// earlier than d after this Future itself resolves. A nil tk fails the
// returned Future with ErrNoTimekeeper.
func (f Future[T]) Delayed(d time.Duration, tk Timekeeper) Future[T] {
	if tk == nil {
		return MakeFutureError[T](ErrNoTimekeeper).Via(f.executor, f.priority)
	}
	return thenTry(f, func(t Try[T]) Try[T] {
		<-tk.After(d)
		return t
	})
}

// thenTry is the shared plumbing for same-type continuations: it creates
// a fresh core, chains its interrupt handler back to f's so a Cancel on
// the returned Future still reaches f's producer, registers a callback on
// f's core that runs fn and feeds the result into the new core, and
// returns a Future wrapping it, bound to the same executor as f.
func thenTry[T any](f Future[T], fn func(Try[T]) Try[T]) Future[T] {
	if !f.valid {
		return f
	}
	nc := newCore[T]()
	propagateInterrupt(f.c, nc)
	f.c.setCallback(f.executor, f.priority, func(t Try[T]) {
		nc.setResult(fn(t))
	})
	return Future[T]{c: nc, valid: true, executor: f.executor, priority: f.priority}
}

// propagateInterrupt chains dst's interrupt handler back to src: a
// Cancel/raise on whatever Future ends up wrapping dst forwards the
// request upstream to src, exactly as the then-plumbing rule requires for
// every continuation derived from an existing Future.
func propagateInterrupt[S, D any](src *core[S], dst *core[D]) {
	dst.setInterruptHandler(func(err error) { src.requestInterrupt(err) })
}

// Then attaches a value-producing continuation, changing the result type
// from T to R. Since Go methods cannot introduce new type parameters,
// type-changing combinators are free functions, not Future[T] methods.
func Then[T, R any](f Future[T], fn func(T) (R, error)) Future[R] {
	return ThenTry(f, func(t Try[T]) Try[R] {
		if t.HasError() {
			return NewTryWithError[R](t.Err())
		}
		return runRecovering(func() (R, error) { return fn(t.Val()) })
	})
}

// Map is Then restricted to callbacks that cannot themselves fail; it is
// a thin, separately named wrapper because most call sites reach for
// "map", not "then", when the transform is total.
func Map[T, R any](f Future[T], fn func(T) R) Future[R] {
	return Then(f, func(v T) (R, error) { return fn(v), nil })
}

// ThenTry attaches a Try-to-Try continuation, changing the result type.
func ThenTry[T, R any](f Future[T], fn func(Try[T]) Try[R]) Future[R] {
	if !f.valid {
		return Future[R]{executor: f.executor, priority: f.priority}
	}
	nc := newCore[R]()
	propagateInterrupt(f.c, nc)
	f.c.setCallback(f.executor, f.priority, func(t Try[T]) {
		nc.setResult(fn(t))
	})
	return Future[R]{c: nc, valid: true, executor: f.executor, priority: f.priority}
}

// ThenError recovers an error result by type: fn runs only when the
// underlying error (or one it wraps) matches E per errors.As; any other
// error, and a successful result, pass through untouched. This is the
// type-selective counterpart to the blanket Future.OnError, matching
// thenError<E>/onError<E> as a single operation under one name.
func ThenError[T any, E error](f Future[T], fn func(E) (T, error)) Future[T] {
	return thenTry(f, func(t Try[T]) Try[T] {
		if !t.HasError() {
			return t
		}
		var target E
		if !errors.As(t.Err(), &target) {
			return t
		}
		return runRecovering(func() (T, error) { return fn(target) })
	})
}

// ThenCompose attaches fn, which itself returns a Future[R], flattening
// the nested Future into the one ThenCompose returns rather than nesting
// Future[Future[R]]. An upstream error short-circuits fn and forwards
// straight through.
func ThenCompose[T, R any](f Future[T], fn func(T) Future[R]) Future[R] {
	return ThenComposeTry(f, func(t Try[T]) Future[R] {
		if t.HasError() {
			return MakeFutureError[R](t.Err())
		}
		return fn(t.Val())
	})
}

// ThenComposeTry is ThenCompose's Try-aware counterpart, giving fn the
// upstream Try directly so it can decide how to handle an error itself
// instead of having it short-circuited.
func ThenComposeTry[T, R any](f Future[T], fn func(Try[T]) Future[R]) Future[R] {
	if !f.valid {
		return Future[R]{executor: f.executor, priority: f.priority}
	}
	nc := newCore[R]()
	propagateInterrupt(f.c, nc)
	executor, priority := f.executor, f.priority
	f.c.setCallback(executor, priority, func(t Try[T]) {
		g := runRecoveringFuture(executor, priority, func() Future[R] { return fn(t) })
		bindNested(g, nc)
	})
	return Future[R]{c: nc, valid: true, executor: executor, priority: priority}
}

// ThenComposeSemi is ThenCompose's SemiFuture-returning counterpart: since
// a SemiFuture carries no executor of its own, fn's result is bound to
// f's executor (or InlineExecutor if f somehow has none) before its
// callback is installed, preserving the "never run deferred work inline
// without opt-in" rule for the returned-Future branch of the then
// plumbing.
func ThenComposeSemi[T, R any](f Future[T], fn func(T) SemiFuture[R]) Future[R] {
	return ThenComposeSemiTry(f, func(t Try[T]) SemiFuture[R] {
		if t.HasError() {
			return MakeSemiFutureError[R](t.Err())
		}
		return fn(t.Val())
	})
}

// ThenComposeSemiTry is ThenComposeSemi's Try-aware counterpart.
func ThenComposeSemiTry[T, R any](f Future[T], fn func(Try[T]) SemiFuture[R]) Future[R] {
	if !f.valid {
		return Future[R]{executor: f.executor, priority: f.priority}
	}
	nc := newCore[R]()
	propagateInterrupt(f.c, nc)
	executor, priority := f.executor, f.priority
	if executor == nil {
		executor = InlineExecutor{}
	}
	f.c.setCallback(f.executor, f.priority, func(t Try[T]) {
		sg := runRecoveringSemiFuture(func() SemiFuture[R] { return fn(t) })
		bindNested(sg.Via(executor, priority), nc)
	})
	return Future[R]{c: nc, valid: true, executor: f.executor, priority: f.priority}
}

// bindNested attaches a callback to g (already bound to an executor) that
// forwards its result into dst, flattening a nested Future a then-style
// continuation returned instead of leaving it doubly-wrapped.
func bindNested[R any](g Future[R], dst *core[R]) {
	if !g.valid {
		dst.setResult(NewTryWithError[R](ErrFutureInvalid))
		return
	}
	g.c.setCallback(g.executor, g.priority, func(t Try[R]) {
		dst.setResult(t)
	})
}

// runRecoveringFuture calls fn, converting a panic into a Future already
// failed with a *UserError, bound the same way MakeFutureError/Via would
// bind one, rather than letting the panic escape into the dispatching
// goroutine.
func runRecoveringFuture[R any](executor Executor, priority int8, fn func() Future[R]) (result Future[R]) {
	defer func() {
		if r := recover(); r != nil {
			result = MakeFutureError[R](newUserPanic(r)).Via(executor, priority)
		}
	}()
	return fn()
}

// runRecoveringSemiFuture is runRecoveringFuture's SemiFuture-returning
// counterpart, used by ThenComposeSemiTry.
func runRecoveringSemiFuture[R any](fn func() SemiFuture[R]) (result SemiFuture[R]) {
	defer func() {
		if r := recover(); r != nil {
			result = MakeSemiFutureError[R](newUserPanic(r))
		}
	}()
	return fn()
}

// runRecovering calls fn, converting a panic into an error-carrying Try
// wrapping a *UserError rather than letting it escape the dispatching
// goroutine (which would otherwise crash an Executor's worker). A
// runtime.Goexit inside fn is not intercepted.
func runRecovering[T any](fn func() (T, error)) (result Try[T]) {
	defer func() {
		if r := recover(); r != nil {
			result = NewTryWithError[T](newUserPanic(r))
		}
	}()
	v, err := fn()
	if err != nil {
		return NewTryWithError[T](newUserError(err))
	}
	return NewTry(v)
}

func runRecoveringTry[T any](in Try[T], fn func(Try[T]) Try[T]) (result Try[T]) {
	defer func() {
		if r := recover(); r != nil {
			result = NewTryWithError[T](newUserPanic(r))
		}
	}()
	return fn(in)
}

// MakeFuture returns a Future already resolved to v, bound to
// InlineExecutor (any continuation attached to it runs immediately).
func MakeFuture[T any](v T) Future[T] {
	nc := newCore[T]()
	nc.setResult(NewTry(v))
	return Future[T]{c: nc, valid: true, executor: InlineExecutor{}}
}

// MakeFutureError returns a Future already resolved to err.
func MakeFutureError[T any](err error) Future[T] {
	nc := newCore[T]()
	nc.setResult(NewTryWithError[T](err))
	return Future[T]{c: nc, valid: true, executor: InlineExecutor{}}
}

// MakeFutureWith runs fn immediately and returns a Future resolved to its
// result, recovering a panic into a *UserError exactly like Then.
func MakeFutureWith[T any](fn func() (T, error)) Future[T] {
	nc := newCore[T]()
	nc.setResult(runRecovering(fn))
	return Future[T]{c: nc, valid: true, executor: InlineExecutor{}}
}

// MakeSemiFuture returns a SemiFuture already resolved to v, with no
// bound executor.
func MakeSemiFuture[T any](v T) SemiFuture[T] {
	nc := newCore[T]()
	nc.setResult(NewTry(v))
	return SemiFuture[T]{c: nc, valid: true}
}

// MakeSemiFutureError returns a SemiFuture already resolved to err, with
// no bound executor.
func MakeSemiFutureError[T any](err error) SemiFuture[T] {
	nc := newCore[T]()
	nc.setResult(NewTryWithError[T](err))
	return SemiFuture[T]{c: nc, valid: true}
}
