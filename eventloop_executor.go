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
	"context"
	"time"

	"github.com/joeycumines/go-eventloop"
)

// LoopExecutor adapts an *eventloop.Loop to the Executor/DrivableExecutor
// contracts. A single Loop can back both a LoopExecutor and a
// LoopTimekeeper, letting a program run its entire Future/Promise pipeline
// off one goroutine.
type LoopExecutor struct {
	loop *eventloop.Loop
}

// NewLoopExecutor wraps an already-constructed Loop.
func NewLoopExecutor(loop *eventloop.Loop) *LoopExecutor {
	return &LoopExecutor{loop: loop}
}

// Add submits fn to the underlying loop. priority is ignored: go-eventloop
// has no concept of priority queues, only FIFO submission order.
func (e *LoopExecutor) Add(fn func(), _ int8) {
	_ = e.loop.Submit(fn)
}

// Drive runs the loop until stop is closed.
func (e *LoopExecutor) Drive(stop <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-stop
		cancel()
	}()
	_ = e.loop.Run(ctx)
}

// LoopTimekeeper implements Timekeeper on top of the same Loop a
// LoopExecutor drives, via ScheduleTimer.
type LoopTimekeeper struct {
	loop *eventloop.Loop
}

// NewLoopTimekeeper wraps an already-constructed Loop.
func NewLoopTimekeeper(loop *eventloop.Loop) *LoopTimekeeper {
	return &LoopTimekeeper{loop: loop}
}

func (t *LoopTimekeeper) After(d time.Duration) <-chan time.Time {
	c := make(chan time.Time, 1)
	_, _ = t.loop.ScheduleTimer(d, func() {
		c <- time.Now()
	})
	return c
}

func (t *LoopTimekeeper) At(deadline time.Time) <-chan time.Time {
	return t.After(time.Until(deadline))
}
