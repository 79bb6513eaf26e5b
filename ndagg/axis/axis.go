// Copyright 2025 go-ndagg Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package axis validates axis arguments and computes the permutations that
// move the axes a kernel consumes to the trailing positions.
package axis

import (
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// ErrAxis is the sentinel wrapped by every *Error.
var ErrAxis = errors.New("axis: invalid axis")

// Error reports an axis outside [-ndim, ndim) or repeated in a request.
type Error struct {
	Axis     int
	NDim     int
	Repeated bool
}

func (e *Error) Error() string {
	if e.Repeated {
		return fmt.Sprintf("axis: repeated axis %d", e.Axis)
	}
	return fmt.Sprintf("axis: axis %d is out of bounds for array of dimension %d", e.Axis, e.NDim)
}

func (e *Error) Unwrap() error { return ErrAxis }

// Validate wraps a negative axis by adding ndim and checks the result lies
// in [0, ndim).
func Validate(axis, ndim int) (int, error) {
	a := axis
	if a < 0 {
		a += ndim
	}
	if a < 0 || a >= ndim {
		return 0, &Error{Axis: axis, NDim: ndim}
	}
	return a, nil
}

// Normalize validates axes against an ndim-dimensional array and returns
// them wrapped to non-negative values together with the permutation that
// presents them to a kernel: every other axis in ascending order, followed
// by the requested axes in the order given. That order decides which axis
// becomes which core dimension, so it is never sorted.
func Normalize(ndim int, axes ...int) (validated, perm []int, err error) {
	validated = make([]int, len(axes))
	for i, a := range axes {
		v, err := Validate(a, ndim)
		if err != nil {
			return nil, nil, err
		}
		if slices.Contains(validated[:i], v) {
			return nil, nil, &Error{Axis: a, NDim: ndim, Repeated: true}
		}
		validated[i] = v
	}
	perm = append(lo.Without(lo.Range(ndim), validated...), validated...)
	return validated, perm, nil
}

// Swap returns the permutation that exchanges axis a with the last axis.
// a must already be validated.
func Swap(ndim, a int) []int {
	perm := lo.Range(ndim)
	perm[a], perm[ndim-1] = perm[ndim-1], perm[a]
	return perm
}
