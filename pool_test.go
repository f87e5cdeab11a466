// Copyright (c) Umkerius. All rights reserved.
// Licensed under the MIT License.

package parallelism_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Umkerius/std.parallelism"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSubmitAndSpinForce(t *testing.T) {
	chk := require.New(t)
	p := parallelism.NewPool(2)
	defer p.Stop()

	f, err := parallelism.Submit(p, func() (int, error) { return 42, nil })
	chk.NoError(err)
	v, err := f.SpinForce()
	chk.NoError(err)
	chk.Equal(42, v)
	chk.True(f.Done())
}

func TestYieldForceAndWorkForce(t *testing.T) {
	chk := require.New(t)
	p := parallelism.NewPool(1)
	defer p.Stop()

	f1, err := parallelism.Submit(p, func() (int, error) { return 1, nil })
	chk.NoError(err)
	f2, err := parallelism.Submit(p, func() (int, error) { return 2, nil })
	chk.NoError(err)

	v1, err := f1.YieldForce()
	chk.NoError(err)
	chk.Equal(1, v1)

	v2, err := f2.WorkForce()
	chk.NoError(err)
	chk.Equal(2, v2)
}

func TestCallerStealRunsInline(t *testing.T) {
	chk := require.New(t)
	// A pool with no workers at all: every task must be run by whoever
	// forces it, proving the steal path works without any worker
	// goroutines to race against.
	p := parallelism.NewPool(0)
	defer p.Stop()

	f, err := parallelism.Submit(p, func() (string, error) { return "stolen", nil })
	chk.NoError(err)
	v, err := f.SpinForce()
	chk.NoError(err)
	chk.Equal("stolen", v)
}

func TestWorkForceDrainsNestedDependency(t *testing.T) {
	chk := require.New(t)
	// One worker, but a task that submits and WorkForces a child: with a
	// naive YieldForce this would deadlock since the single worker is busy
	// running the parent. WorkForce must steal/drain instead.
	p := parallelism.NewPool(1)
	defer p.Stop()

	f, err := parallelism.Submit(p, func() (int, error) {
		child, err := parallelism.Submit(p, func() (int, error) { return 10, nil })
		if err != nil {
			return 0, err
		}
		v, err := child.WorkForce()
		return v + 1, err
	})
	chk.NoError(err)
	v, err := f.WorkForce()
	chk.NoError(err)
	chk.Equal(11, v)
}

func TestTaskRunsExactlyOnce(t *testing.T) {
	chk := require.New(t)
	p := parallelism.NewPool(4)
	defer p.Stop()

	var runs atomic.Int64
	const n = 500
	futures := make([]*parallelism.Future[int], n)
	for i := range futures {
		f, err := parallelism.Submit(p, func() (int, error) {
			runs.Add(1)
			return 0, nil
		})
		chk.NoError(err)
		futures[i] = f
	}
	for _, f := range futures {
		_, err := f.WorkForce()
		chk.NoError(err)
	}
	chk.EqualValues(n, runs.Load())
}

func TestPanicIsCapturedAsFault(t *testing.T) {
	chk := require.New(t)
	p := parallelism.NewPool(1)
	defer p.Stop()

	f, err := parallelism.Submit(p, func() (int, error) {
		panic("boom")
	})
	chk.NoError(err)
	_, err = f.WorkForce()
	chk.Error(err)
	chk.Contains(err.Error(), "boom")
}

func TestSubmitAfterFinishFails(t *testing.T) {
	chk := require.New(t)
	p := parallelism.NewPool(1)
	p.Finish()
	_, err := parallelism.Submit(p, func() (int, error) { return 0, nil })
	chk.ErrorIs(err, parallelism.ErrPoolClosed)
}

func TestFinishAndStopAreIdempotent(t *testing.T) {
	p := parallelism.NewPool(2)
	p.Finish()
	p.Finish()
	p.Stop()
	p.Stop()
}

func TestRepeatedForceIsIdempotent(t *testing.T) {
	chk := require.New(t)
	p := parallelism.NewPool(2)
	defer p.Stop()

	f, err := parallelism.Submit(p, func() (int, error) { return 7, nil })
	chk.NoError(err)
	v1, err1 := f.SpinForce()
	v2, err2 := f.YieldForce()
	v3, err3 := f.WorkForce()
	chk.NoError(err1)
	chk.NoError(err2)
	chk.NoError(err3)
	chk.Equal(7, v1)
	chk.Equal(7, v2)
	chk.Equal(7, v3)
}

// TestPoolModelBasedStress submits and forces tasks in arbitrary interleaved
// order and checks, against a plain reference model, that every submitted
// task is eventually forced to exactly the result its closure captured.
func TestPoolModelBasedStress(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := parallelism.NewPool(rapid.IntRange(0, 4).Draw(t, "workers"))
		defer p.Stop()

		var mu sync.Mutex
		pending := map[int]*parallelism.Future[int]{}
		want := map[int]int{}
		nextID := 0

		t.Repeat(map[string]func(*rapid.T){
			"submit": func(t *rapid.T) {
				v := rapid.Int().Draw(t, "value")
				f, err := parallelism.Submit(p, func() (int, error) { return v, nil })
				require.NoError(t, err)
				mu.Lock()
				id := nextID
				nextID++
				pending[id] = f
				want[id] = v
				mu.Unlock()
				_ = id
			},
			"force": func(t *rapid.T) {
				mu.Lock()
				if len(pending) == 0 {
					mu.Unlock()
					t.Skip("nothing pending")
				}
				var id int
				for k := range pending {
					id = k
					break
				}
				f := pending[id]
				expected := want[id]
				delete(pending, id)
				mu.Unlock()
				got, err := f.WorkForce()
				require.NoError(t, err)
				require.Equal(t, expected, got)
				require.True(t, f.Done())
			},
			"": func(t *rapid.T) {},
		})

		mu.Lock()
		remaining := make([]*parallelism.Future[int], 0, len(pending))
		expected := make([]int, 0, len(pending))
		for id, f := range pending {
			remaining = append(remaining, f)
			expected = append(expected, want[id])
		}
		mu.Unlock()
		for i, f := range remaining {
			got, err := f.WorkForce()
			require.NoError(t, err)
			require.Equal(t, expected[i], got)
		}
	})
}

func TestIsForeachBreakClassification(t *testing.T) {
	chk := require.New(t)
	chk.True(parallelism.IsForeachBreak(parallelism.ErrForeachBreak))
	chk.False(parallelism.IsForeachBreak(errors.New("other")))
}
