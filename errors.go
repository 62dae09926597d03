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
	"errors"
	"fmt"
)

var (
	// ErrBrokenPromise is reported to a Future whose Promise was garbage
	// collected before it was fulfilled.
	ErrBrokenPromise = errors.New("folly: broken promise")

	// ErrNoState is returned by SetValue/SetException/SetTry on a
	// zero-value Promise, which has no Core.
	ErrNoState = errors.New("folly: promise/future has no state")

	// ErrFutureInvalid is returned by operations on a zero-value, or
	// already-consumed, Future/SemiFuture.
	ErrFutureInvalid = errors.New("folly: future not valid")

	// ErrPromiseAlreadySatisfied is returned by SetValue/SetException/SetTry
	// when the Promise has already been fulfilled once.
	ErrPromiseAlreadySatisfied = errors.New("folly: promise already satisfied")

	// ErrFutureAlreadyRetrieved is returned by Promise.GetSemiFuture when
	// called more than once on the same Promise.
	ErrFutureAlreadyRetrieved = errors.New("folly: future already retrieved")

	// ErrNoExecutor is returned by Future.Via/SemiFuture.Via when passed a
	// nil Executor.
	ErrNoExecutor = errors.New("folly: no executor provided")

	// ErrNoTimekeeper is returned by Within/OnTimeout/Delayed when called
	// with a nil Timekeeper.
	ErrNoTimekeeper = errors.New("folly: no timekeeper provided")

	// ErrTimeout is the error a Future is completed with when a Within
	// or OnTimeout deadline elapses first.
	ErrTimeout = errors.New("folly: timeout")

	// ErrPredicateDoesNotObtain is the error a Filter rejects with when
	// its predicate returns false.
	ErrPredicateDoesNotObtain = errors.New("folly: predicate does not obtain")
)

// UserError wraps an error value returned, or a panic value raised, from a
// caller-supplied callback (Then/Map/OnError/ThenError/DeferValue/
// MakeFutureWith/...), so the Core state machine only ever has to reason
// about a single completion error while the original cause stays
// reachable through errors.Unwrap. Reduce, UnorderedReduce and WhileDo
// pass errors through without wrapping them.
type UserError struct {
	cause    any
	panicked bool
}

func newUserError(cause error) *UserError {
	return &UserError{cause: cause}
}

func newUserPanic(v any) *UserError {
	return &UserError{cause: v, panicked: true}
}

func (e *UserError) Error() string {
	if e.panicked {
		return fmt.Sprintf("folly: callback panicked: %v", e.cause)
	}
	return fmt.Sprintf("folly: callback error: %v", e.cause)
}

// Panicked reports whether this UserError originated from a recovered
// panic, as opposed to an ordinary returned error.
func (e *UserError) Panicked() bool {
	return e.panicked
}

// PanicValue returns the original value passed to panic, if Panicked is
// true. It returns nil otherwise.
func (e *UserError) PanicValue() any {
	if !e.panicked {
		return nil
	}
	return e.cause
}

func (e *UserError) Unwrap() error {
	if e.panicked {
		return nil
	}
	err, _ := e.cause.(error)
	return err
}
