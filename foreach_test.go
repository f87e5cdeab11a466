// Copyright (c) Umkerius. All rights reserved.
// Licensed under the MIT License.

package parallelism_test

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/Umkerius/std.parallelism"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParallelDoublesEveryElement(t *testing.T) {
	chk := require.New(t)
	p := parallelism.NewPool(4)
	defer p.Stop()

	items := make([]int, 1000)
	for i := range items {
		items[i] = i
	}
	err := parallelism.Parallel(p, items, func(v *int) error {
		*v *= 2
		return nil
	})
	chk.NoError(err)
	for i, v := range items {
		chk.Equal(i*2, v)
	}
}

func TestParallelIndexMatchesIndex(t *testing.T) {
	chk := require.New(t)
	p := parallelism.NewPool(3)
	defer p.Stop()

	items := make([]int, 257)
	err := parallelism.ParallelIndex(p, items, func(i int, v *int) error {
		*v = i
		return nil
	})
	chk.NoError(err)
	for i, v := range items {
		chk.Equal(i, v)
	}
}

func TestParallelZeroWorkersDegradesToSerial(t *testing.T) {
	chk := require.New(t)
	p := parallelism.NewPool(0)
	defer p.Stop()

	items := []int{1, 2, 3, 4, 5}
	sum := 0
	err := parallelism.Parallel(p, items, func(v *int) error {
		sum += *v
		return nil
	})
	chk.NoError(err)
	chk.Equal(15, sum)
}

func TestParallelBreakRaisesForeachBreakAndDrains(t *testing.T) {
	chk := require.New(t)
	p := parallelism.NewPool(2)
	defer p.Stop()

	var touched atomic.Int64
	items := make([]int, 2000)
	err := parallelism.ParallelIndex(p, items, func(i int, v *int) error {
		touched.Add(1)
		if i == 0 {
			return parallelism.ErrForeachBreak
		}
		return nil
	}, parallelism.WithWorkUnitSize(1))
	chk.Error(err)
	chk.True(parallelism.IsForeachBreak(err))
	// in-flight units still complete: some work past index 0 should have run
	chk.Greater(touched.Load(), int64(1))
}

func TestParallelEmptyInputIsNoop(t *testing.T) {
	chk := require.New(t)
	p := parallelism.NewPool(2)
	defer p.Stop()
	called := false
	err := parallelism.Parallel(p, []int{}, func(v *int) error { called = true; return nil })
	chk.NoError(err)
	chk.False(called)
}

func TestParallelSeqVisitsEveryElement(t *testing.T) {
	chk := require.New(t)
	p := parallelism.NewPool(3)
	defer p.Stop()

	const n = 300
	seq := func(yield func(int) bool) {
		for i := 0; i < n; i++ {
			if !yield(i) {
				return
			}
		}
	}

	var sum atomic.Int64
	err := parallelism.ParallelSeq(p, seq, func(v *int) error {
		sum.Add(int64(*v))
		return nil
	}, parallelism.WithWorkUnitSize(7))
	chk.NoError(err)
	chk.EqualValues(n*(n-1)/2, sum.Load())
}

// TestParallelModelAgainstSerial checks, across random pool sizes and slice
// lengths (with the default work-unit size), that every element of a random
// slice is visited by exactly one Parallel body invocation -- the same
// guarantee a plain range loop gives.
func TestParallelModelAgainstSerial(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 500).Draw(t, "n")
		workers := rapid.IntRange(0, 4).Draw(t, "workers")
		items := make([]int, n)
		for i := range items {
			items[i] = rapid.Int().Draw(t, "v")
		}

		p := parallelism.NewPool(workers)
		defer p.Stop()

		visits := make([]int32, n)
		err := parallelism.ParallelIndex(p, items, func(i int, v *int) error {
			atomic.AddInt32(&visits[i], 1)
			return nil
		})
		require.NoError(t, err)
		for _, c := range visits {
			require.EqualValues(t, 1, c)
		}
	})
}

func TestParallelOtherFaultIsNotForeachBreak(t *testing.T) {
	chk := require.New(t)
	p := parallelism.NewPool(2)
	defer p.Stop()

	sentinel := errors.New("custom fault")
	err := parallelism.ParallelIndex(p, make([]int, 10), func(i int, v *int) error {
		if i == 3 {
			return sentinel
		}
		return nil
	}, parallelism.WithWorkUnitSize(1))
	chk.Error(err)
	chk.False(parallelism.IsForeachBreak(err))
	chk.ErrorIs(err, sentinel)
}
