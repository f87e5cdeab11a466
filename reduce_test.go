// Copyright (c) Umkerius. All rights reserved.
// Licensed under the MIT License.

package parallelism_test

import (
	"testing"

	"github.com/Umkerius/std.parallelism"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestReduceSumMatchesSerial(t *testing.T) {
	chk := require.New(t)
	p := parallelism.NewPool(4)
	defer p.Stop()

	items := make([]int, 991)
	want := 0
	for i := range items {
		items[i] = i + 1
		want += items[i]
	}
	got, err := parallelism.Reduce(p, items, func(a, b int) int { return a + b })
	chk.NoError(err)
	chk.Equal(want, got)
}

func TestReduceSeedIsUsedEvenForEmpty(t *testing.T) {
	chk := require.New(t)
	p := parallelism.NewPool(2)
	defer p.Stop()

	got, err := parallelism.ReduceSeed(p, []int{}, 99, func(a, b int) int { return a + b })
	chk.NoError(err)
	chk.Equal(99, got)
}

func TestReduceEmptyWithoutSeedFails(t *testing.T) {
	chk := require.New(t)
	p := parallelism.NewPool(2)
	defer p.Stop()

	_, err := parallelism.Reduce(p, []int{}, func(a, b int) int { return a + b })
	chk.ErrorIs(err, parallelism.ErrEmptyReduce)
}

func TestReducePreservesOrderForNonCommutativeOp(t *testing.T) {
	chk := require.New(t)
	p := parallelism.NewPool(3)
	defer p.Stop()

	items := []string{"a", "b", "c", "d", "e", "f", "g"}
	concat := func(a, b string) string { return a + b }

	got, err := parallelism.Reduce(p, items, concat, parallelism.WithWorkUnitSize(2))
	chk.NoError(err)
	chk.Equal("abcdefg", got)
}

func TestReduceZeroWorkersIsSerial(t *testing.T) {
	chk := require.New(t)
	p := parallelism.NewPool(0)
	defer p.Stop()

	got, err := parallelism.Reduce(p, []int{1, 2, 3, 4}, func(a, b int) int { return a * b })
	chk.NoError(err)
	chk.Equal(24, got)
}

func TestReduce2ComputesSumAndMaxTogether(t *testing.T) {
	chk := require.New(t)
	p := parallelism.NewPool(3)
	defer p.Stop()

	items := []int{4, 1, 9, 2, 7, 3, 8, 5, 6}
	sum, max, err := parallelism.Reduce2(p, items,
		0, func(a, b int) int { return a + b },
		items[0], func(a, b int) int {
			if b > a {
				return b
			}
			return a
		},
	)
	chk.NoError(err)
	chk.Equal(45, sum)
	chk.Equal(9, max)
}

func TestReduceAssociativityAcrossPoolSizes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 300).Draw(t, "n")
		workers := rapid.IntRange(0, 4).Draw(t, "workers")
		w := rapid.IntRange(1, 50).Draw(t, "w")
		items := make([]int, n)
		want := 0
		for i := range items {
			items[i] = rapid.IntRange(-100, 100).Draw(t, "v")
			want += items[i]
		}

		p := parallelism.NewPool(workers)
		defer p.Stop()

		got, err := parallelism.Reduce(p, items, func(a, b int) int { return a + b }, parallelism.WithWorkUnitSize(w))
		require.NoError(t, err)
		require.Equal(t, want, got)
	})
}
