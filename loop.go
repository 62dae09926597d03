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

// WhileDo repeatedly calls thunk and waits for the Future it returns,
// continuing as long as pred returns true, then resolves to struct{}{}. It
// fails immediately if any iteration's Future fails. Named after, and
// matching the free-function shape of, the original's folly::whileDo:
// this isn't a Future[T] method because it coordinates a sequence of
// Futures, not a single chain.
func WhileDo(pred func() bool, thunk func() Future[struct{}]) Future[struct{}] {
	p := NewPromise[struct{}]()

	var step func()
	step = func() {
		if !pred() {
			_ = p.SetValue(struct{}{})
			return
		}
		f := thunk()
		f.c.setCallback(f.executor, f.priority, func(t Try[struct{}]) {
			if t.HasError() {
				_ = p.SetException(t.Err())
				return
			}
			step()
		})
	}
	step()

	return mustSemiFuture(p).Via(InlineExecutor{})
}

// Times calls thunk exactly n times in sequence, waiting for each
// returned Future before starting the next, then resolves to struct{}{}. It
// fails immediately if any iteration's Future fails.
func Times(n int, thunk func(iteration int) Future[struct{}]) Future[struct{}] {
	i := 0
	return WhileDo(func() bool { return i < n }, func() Future[struct{}] {
		f := thunk(i)
		i++
		return f
	})
}
