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

import "sync"

// Reduce folds fs into a single value, strictly in input order: fn is
// never called for fs[i+1] until fs[i] has both completed and been
// folded. A failure, from either a component Future or fn itself, fails
// the whole reduction immediately.
func Reduce[T, R any](fs []Future[T], initial R, fn func(acc R, val T, index int) (R, error)) Future[R] {
	p := NewPromise[R]()
	if len(fs) == 0 {
		_ = p.SetValue(initial)
		return mustSemiFuture(p).Via(InlineExecutor{})
	}

	var step func(index int, acc R)
	step = func(index int, acc R) {
		if index == len(fs) {
			_ = p.SetValue(acc)
			return
		}
		f := fs[index]
		f.c.setCallback(f.executor, f.priority, func(t Try[T]) {
			if t.HasError() {
				_ = p.SetException(t.Err())
				return
			}
			next, err := fn(acc, t.Val(), index)
			if err != nil {
				_ = p.SetException(err)
				return
			}
			step(index+1, next)
		})
	}
	step(0, initial)

	return mustSemiFuture(p).Via(InlineExecutor{})
}

// UnorderedReduce folds fs in whichever order they complete, rather than
// waiting for any particular input first. A shared memo holds a Future[R]
// under a spinlock that covers nothing but a pointer swap: each completer
// locks just long enough to take memo, drop in a fresh Promise of its own
// as the new memo, and bump a counter, then unlocks before doing anything
// else. It chains fn onto the memo it took — outside the lock — so the
// fold step itself (and the user's fn) never runs while any goroutine
// could be blocked on the spinlock. This links every completion into one
// chain ordered by arrival, not by index, and the completer that finds
// itself bumping the counter to numFutures is the one whose link closes
// the chain, so it alone forwards the final value into the result.
func UnorderedReduce[T, R any](fs []Future[T], initial R, fn func(acc R, val T) (R, error)) Future[R] {
	n := len(fs)
	p := NewPromise[R]()
	if n == 0 {
		_ = p.SetValue(initial)
		return mustSemiFuture(p).Via(InlineExecutor{})
	}

	var lk spinlock
	memo := MakeFuture(initial)
	numThens := 0
	var failOnce sync.Once
	fail := func(err error) { failOnce.Do(func() { _ = p.SetException(err) }) }

	for _, f := range fs {
		f.c.setCallback(f.executor, f.priority, func(t Try[T]) {
			if t.HasError() {
				fail(t.Err())
				return
			}
			val := t.Val()

			lk.lock()
			prevMemo := memo
			np := NewPromise[R]()
			memo = mustSemiFuture(np).Via(InlineExecutor{})
			numThens++
			isLast := numThens == n
			lk.unlock()

			prevMemo.c.setCallback(prevMemo.executor, prevMemo.priority, func(acc Try[R]) {
				if acc.HasError() {
					_ = np.SetException(acc.Err())
					fail(acc.Err())
					return
				}
				next, err := fn(acc.Val(), val)
				if err != nil {
					_ = np.SetException(err)
					fail(err)
					return
				}
				_ = np.SetValue(next)
				if isLast {
					_ = p.SetValue(next)
				}
			})
		})
	}

	return mustSemiFuture(p).Via(InlineExecutor{})
}
