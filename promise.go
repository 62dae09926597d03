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

import "runtime"

// Promise is the producer side of a Core. It is not safe for concurrent
// use by multiple goroutines on the same Promise value, mirroring Folly:
// callers are expected to hand a Promise to exactly one producer.
type Promise[T any] struct {
	c *core[T]
}

// NewPromise returns a new, unfulfilled Promise. Its Core is released,
// reporting ErrBrokenPromise to whoever holds the Future, if the Promise
// is garbage collected before being satisfied.
func NewPromise[T any]() *Promise[T] {
	p := &Promise[T]{c: newCore[T]()}
	runtime.SetFinalizer(p, func(p *Promise[T]) { p.c.release() })
	return p
}

// GetSemiFuture returns the SemiFuture paired with this Promise. It may
// only be called once; a second call returns ErrFutureAlreadyRetrieved and
// an invalid SemiFuture.
func (p *Promise[T]) GetSemiFuture() (SemiFuture[T], error) {
	if !p.c.state.MarkFutureRetrieved() {
		debug(evFutureAlreadyRetrieved)
		return SemiFuture[T]{}, ErrFutureAlreadyRetrieved
	}
	return SemiFuture[T]{c: p.c, valid: true}, nil
}

// Valid reports whether this Promise still has state (false after a
// Promise has been used to construct it via a zero value rather than
// NewPromise).
func (p *Promise[T]) Valid() bool {
	return p.c != nil
}

// IsFulfilled reports whether SetValue/SetException/SetTry has already
// been called on this Promise.
func (p *Promise[T]) IsFulfilled() bool {
	if p.c == nil {
		return false
	}
	return p.c.state.Load().HasResult()
}

// SetValue fulfills the Promise with v.
func (p *Promise[T]) SetValue(v T) error {
	return p.SetTry(NewTry(v))
}

// SetException fulfills the Promise with err. It panics if err is nil;
// use SetValue for the success case.
func (p *Promise[T]) SetException(err error) error {
	return p.SetTry(NewTryWithError[T](err))
}

// SetTry fulfills the Promise with t. It returns ErrPromiseAlreadySatisfied
// if the Promise was already fulfilled, and ErrNoState if this Promise is
// a zero value.
func (p *Promise[T]) SetTry(t Try[T]) error {
	if p.c == nil {
		return ErrNoState
	}
	if !p.c.state.MarkPromiseDone() {
		debug(evPromiseAlreadySatisfied)
		return ErrPromiseAlreadySatisfied
	}
	p.c.setResult(t)
	return nil
}

// mustSemiFuture retrieves p's SemiFuture, panicking if it was already
// retrieved. Every internal combinator constructs p itself, immediately
// beforehand, so the only way this panics is a bug in this package, not a
// caller mistake. Named after asmsh/promise's MustGetRes, the panicking
// counterpart to its comma-ok accessor.
func mustSemiFuture[T any](p *Promise[T]) SemiFuture[T] {
	sf, err := p.GetSemiFuture()
	if err != nil {
		panic(err)
	}
	return sf
}

// SetInterruptHandler installs h to be called if the consumer ever
// requests an interrupt (via Future.Cancel, or a Within/OnTimeout
// deadline). If a request already arrived before this call, h fires
// immediately, synchronously, before SetInterruptHandler returns.
func (p *Promise[T]) SetInterruptHandler(h func(error)) {
	if p.c == nil {
		return
	}
	p.c.setInterruptHandler(h)
}
