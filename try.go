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

import "fmt"

// Try holds either a value of type T or the error that prevented one from
// being produced, never both. It is the payload every Core carries once
// resolved.
type Try[T any] interface {
	// Val returns the held value. It returns the zero value of T if this
	// Try holds an error.
	Val() T

	// Err returns the held error, or nil if this Try holds a value.
	Err() error

	// HasError reports whether this Try holds an error rather than a value.
	HasError() bool

	fmt.Stringer
}

// NewTry returns a Try holding val.
func NewTry[T any](val T) Try[T] {
	return valTry[T]{val: val}
}

// NewTryWithError returns a Try holding err. It panics if err is nil; use
// NewTry for the success case.
func NewTryWithError[T any](err error) Try[T] {
	if err == nil {
		panic("folly: NewTryWithError called with a nil error")
	}
	return errTry[T]{err: err}
}

// valTry is the zero-allocation-beyond-T representation of a successful Try.
type valTry[T any] struct{ val T }

func (t valTry[T]) Val() T         { return t.val }
func (t valTry[T]) Err() error     { return nil }
func (t valTry[T]) HasError() bool { return false }
func (t valTry[T]) String() string { return fmt.Sprintf("Try(val=%v)", t.val) }

// errTry is the representation of a failed Try; it never carries a T value.
type errTry[T any] struct{ err error }

func (t errTry[T]) Val() T         { var zero T; return zero }
func (t errTry[T]) Err() error     { return t.err }
func (t errTry[T]) HasError() bool { return true }
func (t errTry[T]) String() string { return fmt.Sprintf("Try(err=%v)", t.err) }
