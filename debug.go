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

type debugEvent int

const (
	_ debugEvent = iota

	evSetResult
	evSetCallback
	evDispatch
	evInlineDispatch

	evBrokenPromise
	evPromiseAlreadySatisfied
	evFutureAlreadyRetrieved

	evInterruptRequested
	evInterruptHandlerInstalled
	evInterruptHandlerFired

	evDeferredAttachExecutor
	evDeferredAttachBaton
	evDeferredDetach
)

// debugHandler, when non-nil and the enable_folly_debug build tag is set,
// is called at every Core state transition. It is nil, and never called,
// in a default build, and has no exported setter; tests built with
// enable_folly_debug assign it directly from within the package.
var debugHandler func(ev debugEvent, args ...any)
