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
	"time"

	"github.com/stretchr/testify/require"
)

func TestFutureWaitTimeoutNotReady(t *testing.T) {
	p := NewPromise[int]()
	f := mustSemiFuture(p).Via(InlineExecutor{})

	_, err := f.GetTimeout(10 * time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)

	_ = p.SetValue(1) // late arrival, must not panic or deadlock
}

func TestFutureWaitTimeoutReady(t *testing.T) {
	f := MakeFuture(7)
	v, err := f.GetTimeout(time.Second)
	require.NoError(t, err)
	require.Equal(t, 7, v)
}

func TestSemiFutureWaitTimeoutRevertsBatonOnTimeout(t *testing.T) {
	p := NewPromise[int]()
	sf := mustSemiFuture(p).DeferValue(func(v int) int { return v * 2 })

	_, ready := sf.WaitTimeout(10 * time.Millisecond)
	require.False(t, ready)

	go func() { _ = p.SetValue(21) }()

	v, err := sf.Get()
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestSemiFutureWaitTimeoutRacingResultStillCompletes(t *testing.T) {
	p := NewPromise[int]()
	sf := mustSemiFuture(p).DeferValue(func(v int) int { return v + 1 })

	go func() {
		time.Sleep(5 * time.Millisecond)
		_ = p.SetValue(1)
	}()

	v, err := sf.GetTimeout(time.Second)
	require.NoError(t, err)
	require.Equal(t, 2, v)
}
