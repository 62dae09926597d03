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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeferredExecutorDetachMakesSetFunctionANoOp(t *testing.T) {
	d := &deferredExecutor{}
	d.snap.Store(&deferredSnapshot{state: deferredEmpty})

	d.detach()

	ran := false
	d.setFunction(func() { ran = true })

	require.False(t, ran, "setFunction ran a function on a detached placeholder")
}

func TestDeferredExecutorDetachFromHasFunctionDropsPendingFunction(t *testing.T) {
	d := &deferredExecutor{}
	d.snap.Store(&deferredSnapshot{state: deferredEmpty})

	ran := false
	d.setFunction(func() { ran = true })
	d.detach()

	require.False(t, ran, "detach must not run the function it drops")

	cur := d.snap.Load()
	require.Equal(t, deferredDetached, cur.state)
	require.Nil(t, cur.fn)
}
