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

func TestWhileDoRunsUntilPredicateFalse(t *testing.T) {
	i := 0
	_, err := WhileDo(func() bool { return i < 5 }, func() Future[struct{}] {
		i++
		return MakeFuture(struct{}{})
	}).Get()
	require.NoError(t, err)
	require.Equal(t, 5, i)
}

func TestWhileDoStopsOnFailure(t *testing.T) {
	boom := errors.New("boom")
	i := 0
	_, err := WhileDo(func() bool { return true }, func() Future[struct{}] {
		i++
		if i == 3 {
			return MakeFutureError[struct{}](boom)
		}
		return MakeFuture(struct{}{})
	}).Get()
	require.ErrorIs(t, err, boom)
	require.Equal(t, 3, i)
}

func TestTimesRunsExactlyN(t *testing.T) {
	var seen []int
	_, err := Times(4, func(iteration int) Future[struct{}] {
		seen = append(seen, iteration)
		return MakeFuture(struct{}{})
	}).Get()
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2, 3}, seen)
}
