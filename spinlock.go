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
	"runtime"
	"sync/atomic"
)

// spinlock is a short-held mutual-exclusion primitive for critical
// sections that never run caller-supplied code: a handful of pointer/
// counter updates. Modeled on the same swap-based spin used by
// internal/corestate, reduced to a bare CAS loop since there's no packed
// state to preserve across the critical section here.
type spinlock struct {
	held int32
}

func (l *spinlock) lock() {
	for !atomic.CompareAndSwapInt32(&l.held, 0, 1) {
		runtime.Gosched()
	}
}

func (l *spinlock) unlock() {
	atomic.StoreInt32(&l.held, 0)
}
