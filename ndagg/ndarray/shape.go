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

import (
	"fmt"
	"slices"
)

// Shape is the list of dimension sizes of an array, e.g. [2, 3, 4].
// A nil or empty Shape describes a 0-dimensional (scalar) array.
type Shape []int

// NumElements returns the product of the dimensions. A 0-d shape holds one
// element.
func (s Shape) NumElements() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Equal reports whether both shapes have the same dimensions.
func (s Shape) Equal(o Shape) bool {
	return slices.Equal(s, o)
}

// Clone returns an independent copy of s.
func (s Shape) Clone() Shape {
	if s == nil {
		return Shape{}
	}
	return slices.Clone(s)
}

func (s Shape) String() string {
	return fmt.Sprint([]int(s))
}

// Strides returns row-major element strides for s.
// The last axis has stride 1; strides[i] = strides[i+1] * s[i+1].
func (s Shape) Strides() []int {
	strides := make([]int, len(s))
	acc := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= s[i]
	}
	return strides
}

// BroadcastShapes applies NumPy-style broadcasting to any number of shapes:
// shapes are right-aligned, missing leading dimensions count as 1, equal
// dimensions stay, a dimension of 1 stretches to the other, anything else
// is an error.
func BroadcastShapes(shapes ...Shape) (Shape, error) {
	rank := 0
	for _, s := range shapes {
		rank = max(rank, len(s))
	}
	out := make(Shape, rank)
	for i := range out {
		out[i] = 1
	}
	for _, s := range shapes {
		pad := rank - len(s)
		for i, d := range s {
			switch {
			case d == out[pad+i]:
			case out[pad+i] == 1:
				out[pad+i] = d
			case d == 1:
			default:
				return nil, fmt.Errorf("ndarray: shapes %v cannot be broadcast together", shapes)
			}
		}
	}
	return out, nil
}

// BroadcastStrides returns element strides that read an array of shape s as
// if it had shape to. Broadcast (stretched or missing) dimensions get a
// stride of 0. The caller must have checked that s broadcasts to to.
func BroadcastStrides(s, to Shape) []int {
	strides := make([]int, len(to))
	own := s.Strides()
	pad := len(to) - len(s)
	for i := range s {
		if s[i] != 1 || to[pad+i] == 1 {
			strides[pad+i] = own[i]
		}
	}
	return strides
}
