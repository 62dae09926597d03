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

import "time"

// Executor runs work submitted to it. Priority is a hint; implementations
// that don't distinguish priorities may ignore it.
type Executor interface {
	Add(fn func(), priority int8)
}

// DrivableExecutor is an Executor whose queue must be driven by the caller
// rather than by its own background goroutines.
type DrivableExecutor interface {
	Executor
	// Drive runs queued work on the calling goroutine until stop is
	// closed.
	Drive(stop <-chan struct{})
}

// TimedDrivableExecutor additionally drives timers registered through an
// associated Timekeeper.
type TimedDrivableExecutor interface {
	DrivableExecutor
	Timekeeper
}

// Timekeeper schedules work to run after a delay, or at a deadline.
type Timekeeper interface {
	// After returns a channel that receives once, no earlier than d from
	// now. A zero or negative d fires as soon as possible.
	After(d time.Duration) <-chan time.Time
	// At behaves like After, but relative to an absolute deadline.
	At(deadline time.Time) <-chan time.Time
}

// InlineExecutor runs every submitted function synchronously, on the
// goroutine that calls Add. This is the fallback dispatch behavior a Core
// with no executor attached already exhibits; InlineExecutor exists so
// that behavior can be requested explicitly, e.g. passed to Via.
type InlineExecutor struct{}

// Add runs fn immediately, before returning.
func (InlineExecutor) Add(fn func(), _ int8) { fn() }

// systemTimekeeper implements Timekeeper on top of time.After; it
// needs no state of its own.
type systemTimekeeper struct{}

// SystemTimekeeper is the default, real-clock Timekeeper.
var SystemTimekeeper Timekeeper = systemTimekeeper{}

func (systemTimekeeper) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

func (systemTimekeeper) At(deadline time.Time) <-chan time.Time {
	return time.After(time.Until(deadline))
}
