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

import "sync/atomic"

// IndexedTry pairs a Try with the position, in the input slice, of the
// Future/SemiFuture it came from. CollectAny and CollectN report results
// this way since they don't wait for every input, so the position can't
// be recovered from the output slice's own index.
type IndexedTry[T any] struct {
	Index int
	Try   Try[T]
}

// CollectAllSemiFuture waits for every fs to complete and returns a
// SemiFuture of their Trys, in input order, never failing itself. Each
// component is attached to directly, without forcing it through
// InlineExecutor first: a bare SemiFuture still completes the aggregate
// by running inline when its own result lands, exactly as a lone
// SemiFuture would. See the design note on the collect/collectAll
// asymmetry for why Collect, below, does the opposite.
func CollectAllSemiFuture[T any](fs []SemiFuture[T]) SemiFuture[[]Try[T]] {
	n := len(fs)
	p := NewPromise[[]Try[T]]()
	if n == 0 {
		_ = p.SetValue(nil)
		return mustSemiFuture(p)
	}
	results := make([]Try[T], n)
	var remaining int32 = int32(n)
	for i, sf := range fs {
		i := i
		sf.c.setCallback(nil, 0, func(t Try[T]) {
			results[i] = t
			if atomic.AddInt32(&remaining, -1) == 0 {
				_ = p.SetValue(results)
			}
		})
	}
	return mustSemiFuture(p)
}

// CollectAll is CollectAllSemiFuture bound to InlineExecutor.
func CollectAll[T any](fs []Future[T]) Future[[]Try[T]] {
	sfs := make([]SemiFuture[T], len(fs))
	for i, f := range fs {
		sfs[i] = futureToSemi(f)
	}
	return CollectAllSemiFuture(sfs).Via(InlineExecutor{})
}

// Collect waits for every fs to complete and returns a Future of their
// values, in input order, but fails the aggregate with the first error
// observed across any input, as soon as it arrives, rather than waiting
// for stragglers. Unlike CollectAllSemiFuture, each component is
// explicitly bound to its own executor (it's already a Future, so it has
// one); this is the half of the asymmetry documented on
// CollectAllSemiFuture.
func Collect[T any](fs []Future[T]) Future[[]T] {
	n := len(fs)
	p := NewPromise[[]T]()
	if n == 0 {
		_ = p.SetValue(nil)
		return mustSemiFuture(p).Via(InlineExecutor{})
	}
	results := make([]T, n)
	var remaining int32 = int32(n)
	var failed int32
	for i, f := range fs {
		i := i
		f.c.setCallback(f.executor, f.priority, func(t Try[T]) {
			if t.HasError() {
				if atomic.CompareAndSwapInt32(&failed, 0, 1) {
					_ = p.SetException(t.Err())
				}
				return
			}
			results[i] = t.Val()
			if atomic.AddInt32(&remaining, -1) == 0 && atomic.LoadInt32(&failed) == 0 {
				_ = p.SetValue(results)
			}
		})
	}
	return mustSemiFuture(p).Via(InlineExecutor{})
}

// CollectAny returns a Future that resolves to the first fs to complete,
// whether it succeeded or failed.
func CollectAny[T any](fs []Future[T]) Future[IndexedTry[T]] {
	p := NewPromise[IndexedTry[T]]()
	if len(fs) == 0 {
		_ = p.SetException(ErrFutureInvalid)
		return mustSemiFuture(p).Via(InlineExecutor{})
	}
	var won int32
	for i, f := range fs {
		i := i
		f.c.setCallback(f.executor, f.priority, func(t Try[T]) {
			if atomic.CompareAndSwapInt32(&won, 0, 1) {
				_ = p.SetValue(IndexedTry[T]{Index: i, Try: t})
			}
		})
	}
	return mustSemiFuture(p).Via(InlineExecutor{})
}

// CollectAnyWithoutException returns a Future that resolves to the first
// fs to complete successfully. If every input fails, the aggregate fails
// with the last error observed.
func CollectAnyWithoutException[T any](fs []Future[T]) Future[IndexedTry[T]] {
	n := len(fs)
	p := NewPromise[IndexedTry[T]]()
	if n == 0 {
		_ = p.SetException(ErrFutureInvalid)
		return mustSemiFuture(p).Via(InlineExecutor{})
	}
	var won int32
	var remaining int32 = int32(n)
	for i, f := range fs {
		i := i
		f.c.setCallback(f.executor, f.priority, func(t Try[T]) {
			if !t.HasError() {
				if atomic.CompareAndSwapInt32(&won, 0, 1) {
					_ = p.SetValue(IndexedTry[T]{Index: i, Try: t})
				}
				return
			}
			if atomic.AddInt32(&remaining, -1) == 0 && atomic.LoadInt32(&won) == 0 {
				_ = p.SetException(t.Err())
			}
		})
	}
	return mustSemiFuture(p).Via(InlineExecutor{})
}

// CollectN returns a Future that resolves, as soon as n of fs have
// completed successfully, to their IndexedTrys in completion order. If
// too many inputs fail for n successes to ever be reachable, the
// aggregate fails with the error of whichever failure made that certain.
func CollectN[T any](fs []Future[T], n int) Future[[]IndexedTry[T]] {
	total := len(fs)
	p := NewPromise[[]IndexedTry[T]]()
	if n <= 0 {
		_ = p.SetValue(nil)
		return mustSemiFuture(p).Via(InlineExecutor{})
	}
	if n > total {
		_ = p.SetException(ErrFutureInvalid)
		return mustSemiFuture(p).Via(InlineExecutor{})
	}

	var mu collectNState[T]
	mu.need = n
	mu.remaining = total
	for i, f := range fs {
		i := i
		f.c.setCallback(f.executor, f.priority, func(t Try[T]) {
			mu.observe(p, IndexedTry[T]{Index: i, Try: t})
		})
	}
	return mustSemiFuture(p).Via(InlineExecutor{})
}

// collectNState guards the small amount of bookkeeping CollectN needs
// with a spinlock: the critical section is short (append to a slice,
// compare two counters) and never runs user code; the aggregate Promise
// is fulfilled only after the lock is released.
type collectNState[T any] struct {
	done      []IndexedTry[T]
	need      int
	remaining int
	failures  int
	settled   bool
	lk        spinlock
}

func (s *collectNState[T]) observe(p *Promise[[]IndexedTry[T]], it IndexedTry[T]) {
	s.lk.lock()
	if s.settled {
		s.lk.unlock()
		return
	}
	s.remaining--
	if it.Try.HasError() {
		s.failures++
		unreachable := s.remaining+len(s.done) < s.need
		if unreachable {
			s.settled = true
		}
		s.lk.unlock()
		if unreachable {
			_ = p.SetException(it.Try.Err())
		}
		return
	}
	s.done = append(s.done, it)
	var out []IndexedTry[T]
	if len(s.done) == s.need {
		s.settled = true
		out = append([]IndexedTry[T](nil), s.done...)
	}
	s.lk.unlock()
	if out != nil {
		_ = p.SetValue(out)
	}
}

// futureToSemi extracts the core from an already-bound Future, so
// CollectAll can reuse CollectAllSemiFuture's plumbing. The executor
// binding on f is intentionally discarded: per the asymmetry, the inner
// worker attaches to the bare core directly (executor == nil means
// inline-on-arrival, not "no executor ever" -- f's own producer side
// still dispatches through whatever executor it was bound to upstream of
// this call, same as any other callback registration would).
func futureToSemi[T any](f Future[T]) SemiFuture[T] {
	return SemiFuture[T]{c: f.c, valid: f.valid}
}
