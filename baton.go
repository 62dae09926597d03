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
	"time"
)

// Baton is a one-shot, single-post, multi-wait synchronization signal. It
// is the primitive the blocking bridge (Wait/Get) parks on instead of
// spinning up a goroutine-backed channel read each time, and the same
// primitive a DeferredExecutor posts when a blocking waiter, rather than
// a real Executor, is the first thing to attach to it.
//
// Modeled on the channel-backed, close-exactly-once signal used
// internally for synchronous waiting without extra goroutines: a channel
// closed once by Post, read any number of times by Wait/TryWaitFor.
type Baton struct {
	once sync.Once
	ch   chan struct{}
}

// NewBaton returns a ready-to-use Baton.
func NewBaton() *Baton {
	return &Baton{ch: make(chan struct{})}
}

// Post signals the Baton. It is safe to call more than once; only the
// first call has an effect.
func (b *Baton) Post() {
	b.once.Do(func() { close(b.ch) })
}

// Wait blocks until Post is called.
func (b *Baton) Wait() {
	<-b.ch
}

// TryWaitFor blocks until Post is called, or d elapses, whichever comes
// first. It returns true if Post was observed.
func (b *Baton) TryWaitFor(d time.Duration) bool {
	select {
	case <-b.ch:
		return true
	case <-time.After(d):
		return false
	}
}
