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
	"sync"
	"sync/atomic"

	"github.com/mbeach/folly/internal/corestate"
)

// core is the shared state a Promise and its Future(s) communicate
// through. Exactly one of the promise side and the future side stores the
// result; exactly one registers the callback; whichever transition
// happens second is responsible for dispatching the callback to the
// executor, per corestate's one-shot dispatch bit.
//
// A core has no public surface; Promise and Future are thin handles over
// a *core that enforce the single-producer/single-consumer discipline
// spec'd for them (GetSemiFuture may only be called once, SetValue may
// only be called once).
type core[T any] struct {
	state corestate.State

	result Try[T]

	callback func(Try[T])
	executor Executor
	priority int8

	interruptMu      sync.Mutex
	interruptHandler func(error)
	pendingInterrupt error
	interruptHandled bool

	// refcount counts the producer handle only: it starts at 1 and is
	// decremented by release, from the Promise's finalizer. SemiFuture and
	// Future handles do not touch it. It reaches zero exactly once, at
	// which point, if no result was ever stored, the core is "abandoned":
	// any callback registered later observes ErrBrokenPromise.
	refcount int32
}

func newCore[T any]() *core[T] {
	return &core[T]{refcount: 1}
}

// release is called exactly once, via a runtime.SetFinalizer registered on
// the owning Promise, when that Promise becomes unreachable. If no result
// was ever stored, the core is abandoned: a broken-promise Try is
// synthesized and delivered exactly as setResult would deliver a real one.
func (c *core[T]) release() {
	if atomic.AddInt32(&c.refcount, -1) != 0 {
		return
	}
	w := c.state.Load()
	if !w.HasResult() {
		debug(evBrokenPromise)
		c.setResult(NewTryWithError[T](ErrBrokenPromise))
	}
}

// setResult stores the result exactly once. It is a programming error to
// call this twice on the same core; callers (Promise.SetValue et al.)
// must have already checked corestate.MarkPromiseDone.
func (c *core[T]) setResult(t Try[T]) {
	c.result = t
	debug(evSetResult)
	_, shouldDispatch := c.state.SetHasResult()
	if shouldDispatch {
		c.dispatch()
	}
}

// setCallback registers cb exactly once. If the result has already
// landed, the caller of setCallback is responsible for dispatching, which
// this does directly rather than leaving it to setResult's side, since
// setResult has (by definition) already run by the time we get here.
func (c *core[T]) setCallback(executor Executor, priority int8, cb func(Try[T])) {
	if c.state.Load().HasCallback() {
		panic("folly: a Future/SemiFuture may only be consumed (Then/OnError/Via/Wait/...) once")
	}
	c.callback = cb
	c.executor = executor
	c.priority = priority
	debug(evSetCallback)
	_, shouldDispatch := c.state.SetHasCallback()
	if shouldDispatch {
		c.dispatch()
	}
}

// dispatch hands the stored result to the registered callback, via the
// registered executor if one was set, or inline on the calling goroutine
// otherwise. This inline fallback is deliberate: see the design note on
// executor-less dispatch in future.go's package doc.
func (c *core[T]) dispatch() {
	result, cb := c.result, c.callback
	if c.executor == nil {
		debug(evInlineDispatch)
		cb(result)
		return
	}
	debug(evDispatch)
	executor, priority := c.executor, c.priority
	executor.Add(func() { cb(result) }, priority)
}

// requestInterrupt is called from the consumer side (Future.Cancel, or an
// internal timeout) to ask the producer to stop. If a handler is already
// installed, it fires immediately; otherwise the request is remembered so
// a handler installed later fires retroactively, matching Folly's Core.
func (c *core[T]) requestInterrupt(err error) {
	c.interruptMu.Lock()
	defer c.interruptMu.Unlock()
	if c.interruptHandled {
		return
	}
	debug(evInterruptRequested)
	if c.interruptHandler != nil {
		c.interruptHandled = true
		h := c.interruptHandler
		c.interruptMu.Unlock()
		h(err)
		c.interruptMu.Lock() // reacquire so the deferred Unlock above is balanced
		return
	}
	c.pendingInterrupt = err
}

// setInterruptHandler is called from the producer side (Promise). It
// fires immediately if a request already arrived.
func (c *core[T]) setInterruptHandler(h func(error)) {
	c.interruptMu.Lock()
	debug(evInterruptHandlerInstalled)
	if c.pendingInterrupt != nil && !c.interruptHandled {
		err := c.pendingInterrupt
		c.interruptHandled = true
		c.interruptMu.Unlock()
		debug(evInterruptHandlerFired)
		h(err)
		return
	}
	c.interruptHandler = h
	c.interruptMu.Unlock()
}
