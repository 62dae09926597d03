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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoolExecutorRunsSubmittedWork(t *testing.T) {
	pool := NewPoolExecutor(2, 8)
	defer pool.Stop()

	done := make(chan int, 1)
	pool.Add(func() { done <- 1 }, 0)

	select {
	case v := <-done:
		require.Equal(t, 1, v)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for PoolExecutor to run work")
	}
}

func TestPoolExecutorDrivesFutures(t *testing.T) {
	pool := NewPoolExecutor(2, 8)
	defer pool.Stop()

	p := NewPromise[int]()
	f := mustSemiFuture(p).Via(pool)

	go func() { _ = p.SetValue(11) }()

	v, err := f.Get()
	require.NoError(t, err)
	require.Equal(t, 11, v)
}

func TestFutureWithinTimesOutBeforeResult(t *testing.T) {
	p := NewPromise[int]()
	f := mustSemiFuture(p).Via(InlineExecutor{})

	_, err := f.Within(10*time.Millisecond, nil, SystemTimekeeper).Get()
	require.ErrorIs(t, err, ErrTimeout)

	_ = p.SetValue(1) // late arrival, must not panic or deadlock
}

func TestFutureWithinSucceedsBeforeDeadline(t *testing.T) {
	p := NewPromise[int]()
	f := mustSemiFuture(p).Via(InlineExecutor{})

	go func() {
		time.Sleep(2 * time.Millisecond)
		_ = p.SetValue(5)
	}()

	v, err := f.Within(200*time.Millisecond, nil, SystemTimekeeper).Get()
	require.NoError(t, err)
	require.Equal(t, 5, v)
}

func TestFutureOnTimeoutFallsBackToValue(t *testing.T) {
	p := NewPromise[int]()
	f := mustSemiFuture(p).Via(InlineExecutor{})

	out := f.OnTimeout(10*time.Millisecond, func() (int, error) { return -1, nil }, SystemTimekeeper)
	v, err := out.Get()
	require.NoError(t, err)
	require.Equal(t, -1, v)

	_ = p.SetValue(1)
}

func TestFutureOnTimeoutPropagatesOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	f := MakeFutureError[int](boom)

	_, err := f.OnTimeout(time.Second, func() (int, error) { return -1, nil }, SystemTimekeeper).Get()
	require.ErrorIs(t, err, boom)
}

func TestFutureDelayedWaitsAtLeastDuration(t *testing.T) {
	start := time.Now()
	v, err := MakeFuture(3).Delayed(20*time.Millisecond, SystemTimekeeper).Get()
	require.NoError(t, err)
	require.Equal(t, 3, v)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestSemiFutureViaNilExecutorFailsWithErrNoExecutor(t *testing.T) {
	_, err := MakeSemiFuture(1).Via(nil).Get()
	require.ErrorIs(t, err, ErrNoExecutor)
}

func TestFutureWithinNilTimekeeperFailsWithErrNoTimekeeper(t *testing.T) {
	p := NewPromise[int]()
	f := mustSemiFuture(p).Via(InlineExecutor{})

	_, err := f.Within(time.Second, nil, nil).Get()
	require.ErrorIs(t, err, ErrNoTimekeeper)

	_ = p.SetValue(1)
}

func TestFutureCancelFiresInterruptHandler(t *testing.T) {
	p := NewPromise[int]()
	var got error
	p.SetInterruptHandler(func(err error) { got = err })

	f := mustSemiFuture(p).Via(InlineExecutor{})
	boom := errors.New("stop")
	f.Cancel(boom)

	require.ErrorIs(t, got, boom)
}
