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
	"sync"
	"testing"
)

func TestCoreResultThenCallback(t *testing.T) {
	c := newCore[int]()
	c.setResult(NewTry(42))

	var got Try[int]
	c.setCallback(nil, 0, func(tr Try[int]) { got = tr })

	if got.Val() != 42 {
		t.Fatalf("got %v, want 42", got.Val())
	}
}

func TestCoreCallbackThenResult(t *testing.T) {
	c := newCore[int]()

	var got Try[int]
	c.setCallback(nil, 0, func(tr Try[int]) { got = tr })
	c.setResult(NewTry(7))

	if got.Val() != 7 {
		t.Fatalf("got %v, want 7", got.Val())
	}
}

func TestCoreDispatchesExactlyOnce(t *testing.T) {
	c := newCore[int]()
	calls := 0
	c.setCallback(nil, 0, func(Try[int]) { calls++ })
	c.setResult(NewTry(1))

	if calls != 1 {
		t.Fatalf("callback ran %d times, want 1", calls)
	}
}

func TestCoreSecondCallbackPanics(t *testing.T) {
	c := newCore[int]()
	c.setCallback(nil, 0, func(Try[int]) {})

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic registering a second callback")
		}
	}()
	c.setCallback(nil, 0, func(Try[int]) {})
}

func TestCoreDispatchViaExecutor(t *testing.T) {
	c := newCore[int]()
	var ranOnExecutor bool
	exec := &recordingExecutor{add: func(fn func(), _ int8) { ranOnExecutor = true; fn() }}

	var got int
	c.setCallback(exec, 0, func(tr Try[int]) { got = tr.Val() })
	c.setResult(NewTry(9))

	if !ranOnExecutor || got != 9 {
		t.Fatalf("ranOnExecutor=%v got=%d", ranOnExecutor, got)
	}
}

func TestCoreBrokenPromiseOnRelease(t *testing.T) {
	c := newCore[int]()
	var got Try[int]
	c.setCallback(nil, 0, func(tr Try[int]) { got = tr })
	c.release()

	if !got.HasError() || !errors.Is(got.Err(), ErrBrokenPromise) {
		t.Fatalf("got %v, want ErrBrokenPromise", got)
	}
}

func TestCoreInterruptHandlerFiresRetroactively(t *testing.T) {
	c := newCore[int]()
	sentinel := errors.New("boom")
	c.requestInterrupt(sentinel)

	var gotMu sync.Mutex
	var got error
	c.setInterruptHandler(func(err error) {
		gotMu.Lock()
		got = err
		gotMu.Unlock()
	})

	gotMu.Lock()
	defer gotMu.Unlock()
	if got != sentinel {
		t.Fatalf("got %v, want %v", got, sentinel)
	}
}

func TestCoreInterruptHandlerFiresImmediately(t *testing.T) {
	c := newCore[int]()
	sentinel := errors.New("boom")

	var got error
	c.setInterruptHandler(func(err error) { got = err })
	c.requestInterrupt(sentinel)

	if got != sentinel {
		t.Fatalf("got %v, want %v", got, sentinel)
	}
}

type recordingExecutor struct {
	add func(fn func(), priority int8)
}

func (e *recordingExecutor) Add(fn func(), priority int8) { e.add(fn, priority) }
