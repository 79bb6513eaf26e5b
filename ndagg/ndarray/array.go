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

// Package ndarray provides the dense N-dimensional arrays that ndagg
// operators consume and produce.
//
// Arrays are always contiguous and row-major. Layout changes such as
// Transpose and SwapAxes materialize a new array rather than returning a
// strided view, which keeps the kernel contract simple: every core block a
// kernel sees is a plain Go slice.
package ndarray

import (
	"fmt"
	"slices"
)

// Array is a dense, row-major N-dimensional array.
type Array struct {
	dtype DType
	shape Shape
	data  any // []float32, []float64, []int32 or []int64
}

// FromSlice wraps data in an Array with the given shape. With no shape the
// result is 1-D. The slice is used as backing storage, not copied.
func FromSlice[T Number](data []T, shape ...int) (*Array, error) {
	if len(shape) == 0 {
		shape = []int{len(data)}
	}
	s := Shape(slices.Clone(shape))
	for _, d := range s {
		if d < 0 {
			return nil, fmt.Errorf("ndarray: negative dimension in shape %v", s)
		}
	}
	if s.NumElements() != len(data) {
		return nil, fmt.Errorf("ndarray: %d elements do not fit shape %v", len(data), s)
	}
	return &Array{dtype: DTypeOf[T](), shape: s, data: data}, nil
}

// MustFromSlice is like FromSlice but panics on error. It is meant for
// literals in tests and examples.
func MustFromSlice[T Number](data []T, shape ...int) *Array {
	a, err := FromSlice(data, shape...)
	if err != nil {
		panic(err)
	}
	return a
}

// Scalar returns a 0-dimensional array holding v.
func Scalar[T Number](v T) *Array {
	return &Array{dtype: DTypeOf[T](), shape: Shape{}, data: []T{v}}
}

// Zeros returns a zero-filled array.
func Zeros(dt DType, shape ...int) *Array {
	s := Shape(slices.Clone(shape))
	if s == nil {
		s = Shape{}
	}
	return &Array{dtype: dt, shape: s, data: makeData(dt, s.NumElements())}
}

// Values returns the backing slice of a when its element type is T.
func Values[T Number](a *Array) ([]T, bool) {
	v, ok := a.data.([]T)
	return v, ok
}

// DType returns the element type.
func (a *Array) DType() DType { return a.dtype }

// Shape returns a copy of the array's shape.
func (a *Array) Shape() Shape { return a.shape.Clone() }

// NDim returns the number of dimensions.
func (a *Array) NDim() int { return len(a.shape) }

// Size returns the number of elements.
func (a *Array) Size() int { return a.shape.NumElements() }

func (a *Array) String() string {
	return fmt.Sprintf("Array(%v, shape=%v, %v)", a.dtype, a.shape, a.data)
}

// Float64s returns a copy of the elements converted to float64.
func (a *Array) Float64s() []float64 {
	switch d := a.data.(type) {
	case []float32:
		return convert[float32, float64](d)
	case []float64:
		return slices.Clone(d)
	case []int32:
		return convert[int32, float64](d)
	case []int64:
		return convert[int64, float64](d)
	}
	return nil
}

// Item returns the single element of a size-1 array as float64.
func (a *Array) Item() (float64, error) {
	if a.Size() != 1 {
		return 0, fmt.Errorf("ndarray: Item on array of size %d", a.Size())
	}
	return a.Float64s()[0], nil
}

// At returns the element at the given index as float64.
func (a *Array) At(idx ...int) (float64, error) {
	if len(idx) != len(a.shape) {
		return 0, fmt.Errorf("ndarray: %d indices for %d-d array", len(idx), len(a.shape))
	}
	off := 0
	for i, s := range a.shape.Strides() {
		if idx[i] < 0 || idx[i] >= a.shape[i] {
			return 0, fmt.Errorf("ndarray: index %v out of range for shape %v", idx, a.shape)
		}
		off += idx[i] * s
	}
	switch d := a.data.(type) {
	case []float32:
		return float64(d[off]), nil
	case []float64:
		return d[off], nil
	case []int32:
		return float64(d[off]), nil
	case []int64:
		return float64(d[off]), nil
	}
	return 0, fmt.Errorf("ndarray: invalid dtype %v", a.dtype)
}

// Reshape returns an array sharing a's data with a new shape of the same
// size.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	s := Shape(slices.Clone(shape))
	if s == nil {
		s = Shape{}
	}
	if s.NumElements() != a.Size() {
		return nil, fmt.Errorf("ndarray: cannot reshape %v into %v", a.shape, s)
	}
	return &Array{dtype: a.dtype, shape: s, data: a.data}, nil
}

// AsType returns a converted copy of a, or a itself when it already has
// dtype dt.
func (a *Array) AsType(dt DType) *Array {
	if a.dtype == dt {
		return a
	}
	out := &Array{dtype: dt, shape: a.shape.Clone()}
	switch d := a.data.(type) {
	case []float32:
		out.data = convertTo(d, dt)
	case []float64:
		out.data = convertTo(d, dt)
	case []int32:
		out.data = convertTo(d, dt)
	case []int64:
		out.data = convertTo(d, dt)
	}
	return out
}

func convertTo[S Number](src []S, dt DType) any {
	switch dt {
	case Float32:
		return convert[S, float32](src)
	case Float64:
		return convert[S, float64](src)
	case Int32:
		return convert[S, int32](src)
	case Int64:
		return convert[S, int64](src)
	}
	panic(fmt.Sprintf("ndarray: AsType to %v", dt))
}

func convert[S, D Number](src []S) []D {
	dst := make([]D, len(src))
	for i, v := range src {
		dst[i] = D(v)
	}
	return dst
}
