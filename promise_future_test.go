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

	"github.com/stretchr/testify/require"
)

func TestPromiseSetValueThenGet(t *testing.T) {
	p := NewPromise[string]()
	sf := mustSemiFuture(p)

	require.NoError(t, p.SetValue("hello"))

	v, err := sf.Get()
	require.NoError(t, err)
	require.Equal(t, "hello", v)
}

func TestPromiseDoubleSetFails(t *testing.T) {
	p := NewPromise[int]()
	require.NoError(t, p.SetValue(1))
	require.ErrorIs(t, p.SetValue(2), ErrPromiseAlreadySatisfied)
}

func TestPromiseGetSemiFutureTwiceFails(t *testing.T) {
	p := NewPromise[int]()
	_, err := p.GetSemiFuture()
	require.NoError(t, err)

	sf, err := p.GetSemiFuture()
	require.ErrorIs(t, err, ErrFutureAlreadyRetrieved)
	require.False(t, sf.Valid())
}

func TestFutureThenChangesType(t *testing.T) {
	p := NewPromise[int]()
	f := mustSemiFuture(p).Via(InlineExecutor{})

	out := Then(f, func(v int) (string, error) {
		return "got:" + itoa(v), nil
	})

	require.NoError(t, p.SetValue(5))

	v, err := out.Get()
	require.NoError(t, err)
	require.Equal(t, "got:5", v)
}

func TestFutureOnErrorRecovers(t *testing.T) {
	p := NewPromise[int]()
	f := mustSemiFuture(p).Via(InlineExecutor{})

	out := f.OnError(func(err error) (int, error) {
		return -1, nil
	})

	require.NoError(t, p.SetException(errors.New("boom")))

	v, err := out.Get()
	require.NoError(t, err)
	require.Equal(t, -1, v)
}

func TestFutureFilterRejects(t *testing.T) {
	f := MakeFuture(3)
	out := f.Filter(func(v int) bool { return v > 10 })

	_, err := out.Get()
	require.ErrorIs(t, err, ErrPredicateDoesNotObtain)
}

func TestFutureEnsureAlwaysRuns(t *testing.T) {
	ran := false
	f := MakeFuture(1).Ensure(func() { ran = true })
	_, _ = f.Get()
	require.True(t, ran)
}

func TestMakeFutureWithRecoversPanic(t *testing.T) {
	f := MakeFutureWith(func() (int, error) {
		panic("kaboom")
	})
	_, err := f.Get()
	require.Error(t, err)
	var ue *UserError
	require.ErrorAs(t, err, &ue)
	require.True(t, ue.Panicked())
}

func TestSemiFutureDeferValueRunsOnVia(t *testing.T) {
	p := NewPromise[int]()
	sf := mustSemiFuture(p).DeferValue(func(v int) int { return v * 2 })

	require.NoError(t, p.SetValue(21))

	f := sf.Via(InlineExecutor{})
	v, err := f.Get()
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestSemiFutureWaitRunsDeferredOnWaitingGoroutine(t *testing.T) {
	p := NewPromise[int]()
	sf := mustSemiFuture(p).DeferValue(func(v int) int { return v + 1 })

	go func() { _ = p.SetValue(1) }()

	v, err := sf.Get()
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestFuturePollAndValueBeforeAndAfterReady(t *testing.T) {
	p := NewPromise[int]()
	f := mustSemiFuture(p).Via(InlineExecutor{})

	_, ready := f.Poll()
	require.False(t, ready)
	require.False(t, f.HasValue())
	require.False(t, f.HasException())

	require.NoError(t, p.SetValue(9))

	require.True(t, f.IsReady())
	require.True(t, f.HasValue())
	require.False(t, f.HasException())
	require.Equal(t, 9, f.Value())

	t2, ready := f.Poll()
	require.True(t, ready)
	require.Equal(t, 9, t2.Val())

	// Polling does not consume the Future; Get still works afterward.
	v, err := f.Get()
	require.NoError(t, err)
	require.Equal(t, 9, v)
}

func TestFuturePollReportsException(t *testing.T) {
	f := MakeFutureError[int](errors.New("boom"))
	require.True(t, f.HasException())
	require.False(t, f.HasValue())
}

func TestThenComposeFlattensNestedFuture(t *testing.T) {
	f := MakeFuture(3)
	out := ThenCompose(f, func(v int) Future[int] {
		return MakeFuture(v * 10)
	})
	v, err := out.Get()
	require.NoError(t, err)
	require.Equal(t, 30, v)
}

func TestThenComposePropagatesUpstreamError(t *testing.T) {
	boom := errors.New("boom")
	f := MakeFutureError[int](boom)
	out := ThenCompose(f, func(v int) Future[int] {
		t.Fatalf("fn should not run on an errored upstream Future")
		return MakeFuture(v)
	})
	_, err := out.Get()
	require.ErrorIs(t, err, boom)
}

func TestThenComposePropagatesNestedError(t *testing.T) {
	boom := errors.New("boom")
	f := MakeFuture(1)
	out := ThenCompose(f, func(v int) Future[int] {
		return MakeFutureError[int](boom)
	})
	_, err := out.Get()
	require.ErrorIs(t, err, boom)
}

func TestThenComposeSemiFlattensNestedSemiFuture(t *testing.T) {
	f := MakeFuture(4)
	out := ThenComposeSemi(f, func(v int) SemiFuture[int] {
		return MakeSemiFuture(v + 1)
	})
	v, err := out.Get()
	require.NoError(t, err)
	require.Equal(t, 5, v)
}

func TestThenComposeWaitsForStillPendingNestedFuture(t *testing.T) {
	f := MakeFuture(2)
	inner := NewPromise[int]()
	out := ThenCompose(f, func(v int) Future[int] {
		return mustSemiFuture(inner).Via(InlineExecutor{})
	})

	go func() { _ = inner.SetValue(99) }()

	v, err := out.Get()
	require.NoError(t, err)
	require.Equal(t, 99, v)
}

type notFoundError struct{ msg string }

func (e *notFoundError) Error() string { return e.msg }

func TestThenErrorRecoversOnlyMatchingType(t *testing.T) {
	f := MakeFutureError[int](&notFoundError{msg: "missing"})
	out := ThenError(f, func(e *notFoundError) (int, error) {
		return -1, nil
	})
	v, err := out.Get()
	require.NoError(t, err)
	require.Equal(t, -1, v)
}

func TestThenErrorPassesThroughOtherErrorTypes(t *testing.T) {
	boom := errors.New("boom")
	f := MakeFutureError[int](boom)
	out := ThenError(f, func(e *notFoundError) (int, error) {
		t.Fatalf("fn should not run for a non-matching error type")
		return 0, nil
	})
	_, err := out.Get()
	require.ErrorIs(t, err, boom)
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
