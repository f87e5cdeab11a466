// Copyright (c) Umkerius. All rights reserved.
// Licensed under the MIT License.

package parallelism_test

import (
	"testing"

	"github.com/Umkerius/std.parallelism"
	"github.com/stretchr/testify/require"
)

func TestWorkerLocalStorageAccumulatesPerWorker(t *testing.T) {
	chk := require.New(t)
	p := parallelism.NewPool(4)
	defer p.Stop()

	wls := parallelism.NewWorkerLocalStorage[int](p)
	items := make([]int, 4000)
	for i := range items {
		items[i] = 1
	}
	err := parallelism.Parallel(p, items, func(v *int) error {
		slot := wls.Get()
		*slot += *v
		return nil
	})
	chk.NoError(err)

	total := wls.Reduce(0, func(a, b int) int { return a + b })
	chk.Equal(len(items), total)
}

func TestWorkerLocalStorageToRangeSizeInvariant(t *testing.T) {
	chk := require.New(t)
	p := parallelism.NewPool(3)
	defer p.Stop()

	wls := parallelism.NewWorkerLocalStorage[int](p)
	rng := wls.ToRange()
	chk.Len(rng, p.Size()+1)
}

func TestWorkerLocalStorageFillSeedsEverySlot(t *testing.T) {
	chk := require.New(t)
	p := parallelism.NewPool(2)
	defer p.Stop()

	wls := parallelism.NewWorkerLocalStorage[int](p)
	wls.Fill(7)
	for _, v := range wls.ToRange() {
		chk.Equal(7, v)
	}
}

func TestWorkerIndexIsZeroOutsidePool(t *testing.T) {
	chk := require.New(t)
	p := parallelism.NewPool(2)
	defer p.Stop()
	chk.Equal(0, p.WorkerIndex())
}

func TestWorkerIndexIsWithinPoolRange(t *testing.T) {
	chk := require.New(t)
	p := parallelism.NewPool(4)
	defer p.Stop()

	seen := make(chan int, 4)
	items := make([]int, 4)
	err := parallelism.ParallelIndex(p, items, func(i int, v *int) error {
		seen <- p.WorkerIndex()
		return nil
	}, parallelism.WithWorkUnitSize(1))
	require.NoError(t, err)
	close(seen)
	for idx := range seen {
		require.GreaterOrEqual(t, idx, 0)
		require.LessOrEqual(t, idx, p.Size())
	}
}
