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

	"github.com/mbeach/folly/internal/slotrand"
)

// Window runs fn over every element of input, never running more than
// maxConcurrency invocations at once, and returns a Future of the
// results, in input order, bound to executor. A failure from any fn call
// fails the whole window.
//
// Which of the maxConcurrency in-flight slots a newly available input is
// assigned to is chosen at random, via internal/slotrand, rather than
// always the lowest-numbered idle slot: the assignment is bookkeeping
// only (every slot runs the same executor.Add call either way) and
// spreading it avoids one slot consistently picking up whichever inputs
// happen to finish fastest.
//
// Each dispatched task calls fn and attaches a callback to its Future
// rather than waiting on it, then returns immediately; launch is
// re-entered from that callback once the slot frees up. This keeps the
// executor's own worker free while fn's Future is still pending, so a
// fixed-size executor can't deadlock against itself even if fn chains
// more work back onto the same executor.
func Window[T, R any](executor Executor, input []T, fn func(T) Future[R], maxConcurrency int) Future[[]R] {
	n := len(input)
	p := NewPromise[[]R]()
	if n == 0 {
		_ = p.SetValue(nil)
		return mustSemiFuture(p).Via(executor)
	}
	if maxConcurrency <= 0 || maxConcurrency > n {
		maxConcurrency = n
	}

	results := make([]R, n)
	var mu sync.Mutex
	next := 0
	remaining := n
	failed := false

	var slots slotrand.SlotPicker
	slots.Reset(maxConcurrency)

	var launch func()
	launch = func() {
		mu.Lock()
		if failed || next >= n {
			mu.Unlock()
			return
		}
		idx := next
		next++
		slot, _ := slots.Get()
		mu.Unlock()

		executor.Add(func() {
			debug(evDispatch, "window-slot", slot)
			f := fn(input[idx])
			f.c.setCallback(f.executor, f.priority, func(t Try[R]) {
				mu.Lock()
				slots.Put(slot)
				if failed {
					mu.Unlock()
					return
				}
				if t.HasError() {
					failed = true
					err := t.Err()
					mu.Unlock()
					_ = p.SetException(err)
					return
				}
				results[idx] = t.Val()
				remaining--
				done := remaining == 0
				mu.Unlock()

				if done {
					_ = p.SetValue(results)
					return
				}
				launch()
			})
		}, 0)
	}

	for i := 0; i < maxConcurrency; i++ {
		launch()
	}

	return mustSemiFuture(p).Via(executor)
}
