// Copyright (c) Umkerius. All rights reserved.
// Licensed under the MIT License.

package parallelism

// Amap eagerly applies fn to every element of input and returns the results
// in a freshly allocated slice of the same length, distributing contiguous
// index ranges across p's workers the same way [Parallel] does. Since every
// write lands at a disjoint index, no synchronization beyond the final
// WorkForce join is needed.
func Amap[T, R any](p *Pool, input []T, fn func(T) R, opts ...ParallelOption) []R {
	out, err := AmapInto(p, input, nil, func(v T) (R, error) { return fn(v), nil }, opts...)
	if err != nil {
		// fn never returns an error, so the only faults AmapInto can raise
		// here are a panic escaping fn or a pool closing mid-operation; both
		// are re-raised here as a panic rather than silently dropped.
		// Callers who need the error should use AmapInto directly.
		panic(err)
	}
	return out
}

// AmapInto is [Amap] for callers that want to supply their own output
// buffer, observe faults raised by fn, or let fn itself fail. If out is nil
// a buffer of length len(input) is allocated; otherwise len(out) must equal
// len(input), or AmapInto returns ErrPrecondition. If p.Size() is 0, fn runs
// serially on the calling goroutine and results are identical to a plain
// loop.
func AmapInto[T, R any](p *Pool, input []T, out []R, fn func(T) (R, error), opts ...ParallelOption) ([]R, error) {
	total := len(input)
	if out == nil {
		out = make([]R, total)
	} else if len(out) != total {
		return nil, preconditionFault("output buffer length %d does not match input length %d", len(out), total)
	}
	if total == 0 {
		return out, nil
	}

	if p.Size() == 0 {
		for i, v := range input {
			r, err := fn(v)
			if err != nil {
				return out, err
			}
			out[i] = r
		}
		return out, nil
	}

	cfg := resolveParallelConfig(total, p.Size(), opts)
	unit := func(start, end int) error {
		for i := start; i < end; i++ {
			r, err := fn(input[i])
			if err != nil {
				return err
			}
			out[i] = r
		}
		return nil
	}
	err := p.runBatched(total, cfg.workUnitSize, unit)
	return out, err
}

// Amap2 is [Amap] for a tuple of two element-wise functions applied to the
// same input in the same pass, mirroring D std.parallelism.amap's support
// for a tuple of functions: fn1 and fn2 both see input[i] within the same
// work unit, so the input is only traversed once per index rather than
// running two independent Amaps back to back.
func Amap2[T, R1, R2 any](p *Pool, input []T, fn1 func(T) R1, fn2 func(T) R2, opts ...ParallelOption) ([]R1, []R2) {
	out1, out2, err := AmapInto2(p, input, nil, nil,
		func(v T) (R1, error) { return fn1(v), nil },
		func(v T) (R2, error) { return fn2(v), nil },
		opts...)
	if err != nil {
		// Neither fn1 nor fn2 can return an error, so the only fault
		// AmapInto2 can raise here is a panic escaping one of them or a pool
		// closing mid-operation; see Amap's own panic for the same reasoning.
		panic(err)
	}
	return out1, out2
}

// AmapInto2 is [AmapInto] for a tuple of two functions; see [Amap2]. out1 and
// out2 are independently nil-or-precondition-checked against len(input) the
// same way out is in AmapInto. fn1 runs before fn2 for each index, and a
// fault from either stops that work unit; a fault from fn1 means fn2 does not
// run for that index.
func AmapInto2[T, R1, R2 any](p *Pool, input []T, out1 []R1, out2 []R2, fn1 func(T) (R1, error), fn2 func(T) (R2, error), opts ...ParallelOption) ([]R1, []R2, error) {
	total := len(input)
	if out1 == nil {
		out1 = make([]R1, total)
	} else if len(out1) != total {
		return nil, nil, preconditionFault("output buffer length %d does not match input length %d", len(out1), total)
	}
	if out2 == nil {
		out2 = make([]R2, total)
	} else if len(out2) != total {
		return nil, nil, preconditionFault("output buffer length %d does not match input length %d", len(out2), total)
	}
	if total == 0 {
		return out1, out2, nil
	}

	if p.Size() == 0 {
		for i, v := range input {
			r1, err := fn1(v)
			if err != nil {
				return out1, out2, err
			}
			r2, err := fn2(v)
			if err != nil {
				return out1, out2, err
			}
			out1[i] = r1
			out2[i] = r2
		}
		return out1, out2, nil
	}

	cfg := resolveParallelConfig(total, p.Size(), opts)
	unit := func(start, end int) error {
		for i := start; i < end; i++ {
			r1, err := fn1(input[i])
			if err != nil {
				return err
			}
			r2, err := fn2(input[i])
			if err != nil {
				return err
			}
			out1[i] = r1
			out2[i] = r2
		}
		return nil
	}
	err := p.runBatched(total, cfg.workUnitSize, unit)
	return out1, out2, err
}
