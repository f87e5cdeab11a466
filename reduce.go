// Copyright (c) Umkerius. All rights reserved.
// Licensed under the MIT License.

package parallelism

// Reduce folds items with the associative (not necessarily commutative)
// operator op, using the first element as the seed. It returns
// ErrEmptyReduce if items is empty; use [ReduceSeed] to supply an explicit
// seed instead.
//
// items is split into ⌈len(items)/W⌉ contiguous work units, each folded
// independently and in parallel, after which the partial results are folded
// again, serially and in source order, so that a non-commutative op still
// produces the same result as a plain left-to-right fold.
func Reduce[T any](p *Pool, items []T, op func(T, T) T, opts ...ParallelOption) (T, error) {
	return reduceSeeded(p, items, nil, op, opts)
}

// ReduceSeed is [Reduce] with an explicit seed, so it never fails on an
// empty items and never treats items[0] specially.
func ReduceSeed[T any](p *Pool, items []T, seed T, op func(T, T) T, opts ...ParallelOption) (T, error) {
	s := seed
	return reduceSeeded(p, items, &s, op, opts)
}

func reduceSeeded[T any](p *Pool, items []T, seed *T, op func(T, T) T, opts []ParallelOption) (T, error) {
	var zero T
	total := len(items)
	if total == 0 {
		if seed == nil {
			return zero, ErrEmptyReduce
		}
		return *seed, nil
	}

	if p.Size() == 0 {
		return foldRange(items, 0, total, seed, op), nil
	}

	cfg := resolveParallelConfig(total, p.Size(), opts)
	w := cfg.workUnitSize
	numUnits := (total + w - 1) / w
	partials := make([]T, numUnits)

	unit := func(start, end int) error {
		partials[start/w] = foldRange(items, start, end, seed, op)
		return nil
	}
	if err := p.runBatched(total, w, unit); err != nil {
		return zero, err
	}

	acc := partials[0]
	for i := 1; i < len(partials); i++ {
		acc = op(acc, partials[i])
	}
	return acc, nil
}

func foldRange[T any](items []T, start, end int, seed *T, op func(T, T) T) T {
	i := start
	var acc T
	if seed != nil {
		acc = *seed
	} else {
		acc = items[start]
		i++
	}
	for ; i < end; i++ {
		acc = op(acc, items[i])
	}
	return acc
}

// pair2 is the tuple-of-accumulators used by [Reduce2] to run two
// independent reductions over the same source in a single pass, rather than
// reading items twice.
type pair2[T any] struct {
	a, b T
}

// Reduce2 folds items with two associative operators in the same pass, each
// seeded independently -- the common "sum and max together" shape that
// would otherwise cost two full traversals. Both operators share items'
// element type, since each partial result is itself folded back in as if it
// were one more element, which only type-checks when accumulator and
// element are the same type.
func Reduce2[T any](
	p *Pool, items []T,
	seedA T, opA func(T, T) T,
	seedB T, opB func(T, T) T,
	opts ...ParallelOption,
) (T, T, error) {
	var zero T
	total := len(items)
	if total == 0 {
		return seedA, seedB, nil
	}

	fold := func(start, end int) pair2[T] {
		a, b := seedA, seedB
		for i := start; i < end; i++ {
			a = opA(a, items[i])
			b = opB(b, items[i])
		}
		return pair2[T]{a, b}
	}

	if p.Size() == 0 {
		r := fold(0, total)
		return r.a, r.b, nil
	}

	cfg := resolveParallelConfig(total, p.Size(), opts)
	w := cfg.workUnitSize
	numUnits := (total + w - 1) / w
	partials := make([]pair2[T], numUnits)

	unit := func(start, end int) error {
		partials[start/w] = fold(start, end)
		return nil
	}
	if err := p.runBatched(total, w, unit); err != nil {
		return zero, zero, err
	}

	// Each partial already folded seedA/seedB in once (it is an independent
	// fold starting from the seed), so combining partials must not re-seed:
	// start from partials[0] itself, the same pattern reduceSeeded uses.
	accA, accB := partials[0].a, partials[0].b
	for _, part := range partials[1:] {
		accA = opA(accA, part.a)
		accB = opB(accB, part.b)
	}
	return accA, accB, nil
}
