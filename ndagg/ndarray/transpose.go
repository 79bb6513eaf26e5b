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

package ndarray

import "fmt"

// Transpose returns a copy of a with its axes reordered: axis i of the
// result is axis perm[i] of a. An identity permutation returns a itself.
func (a *Array) Transpose(perm ...int) (*Array, error) {
	if err := checkPerm(perm, len(a.shape)); err != nil {
		return nil, err
	}
	identity := true
	for i, p := range perm {
		if i != p {
			identity = false
			break
		}
	}
	if identity {
		return a, nil
	}

	shape := make(Shape, len(perm))
	for i, p := range perm {
		shape[i] = a.shape[p]
	}
	out := &Array{dtype: a.dtype, shape: shape}
	switch d := a.data.(type) {
	case []float32:
		out.data = transpose(d, a.shape, perm)
	case []float64:
		out.data = transpose(d, a.shape, perm)
	case []int32:
		out.data = transpose(d, a.shape, perm)
	case []int64:
		out.data = transpose(d, a.shape, perm)
	}
	return out, nil
}

// SwapAxes returns a copy of a with axes i and j exchanged.
func (a *Array) SwapAxes(i, j int) (*Array, error) {
	n := len(a.shape)
	if i < 0 || i >= n || j < 0 || j >= n {
		return nil, fmt.Errorf("ndarray: SwapAxes(%d, %d) on %d-d array", i, j, n)
	}
	perm := make([]int, n)
	for k := range perm {
		perm[k] = k
	}
	perm[i], perm[j] = perm[j], perm[i]
	return a.Transpose(perm...)
}

func checkPerm(perm []int, ndim int) error {
	if len(perm) != ndim {
		return fmt.Errorf("ndarray: permutation %v does not match %d dimensions", perm, ndim)
	}
	seen := make([]bool, ndim)
	for _, p := range perm {
		if p < 0 || p >= ndim || seen[p] {
			return fmt.Errorf("ndarray: invalid permutation %v", perm)
		}
		seen[p] = true
	}
	return nil
}

// transpose walks the destination in row-major order, tracking the source
// offset with an odometer over the permuted strides.
func transpose[T Number](src []T, shape Shape, perm []int) []T {
	dst := make([]T, len(src))
	if len(dst) == 0 {
		return dst
	}
	srcStrides := shape.Strides()
	dims := make([]int, len(perm))
	strides := make([]int, len(perm))
	for i, p := range perm {
		dims[i] = shape[p]
		strides[i] = srcStrides[p]
	}
	idx := make([]int, len(perm))
	off := 0
	for i := range dst {
		dst[i] = src[off]
		for k := len(idx) - 1; k >= 0; k-- {
			idx[k]++
			off += strides[k]
			if idx[k] < dims[k] {
				break
			}
			off -= idx[k] * strides[k]
			idx[k] = 0
		}
	}
	return dst
}
