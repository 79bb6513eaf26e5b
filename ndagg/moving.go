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

package ndagg

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/ajroetker/go-ndagg/ndagg/axis"
	"github.com/ajroetker/go-ndagg/ndagg/cache"
	"github.com/ajroetker/go-ndagg/ndagg/compile"
	"github.com/ajroetker/go-ndagg/ndagg/ndarray"
	"github.com/ajroetker/go-ndagg/ndagg/signature"
)

// movingKey is the only cache key a moving operator uses: its kernel always
// consumes one core dimension.
const movingKey = 1

// Moving is a moving-window operator along one axis of an array.
type Moving struct {
	op *operator
}

// NewMoving registers the moving-window function declared in src. The
// function takes the input slice, the window size and an output slice of
// the same length, and writes every output element:
//
//	func move_max[T float32 | float64](a []T, window int64, out []T) { ... }
//
// With no signature options, float32(float32,int64) and
// float64(float64,int64) are specialized. Concrete element and window types
// must match every signature.
func NewMoving(src string, opts ...Option) (*Moving, error) {
	op, err := newOperator(src, compile.Moving, opts)
	if err != nil {
		return nil, err
	}
	return &Moving{op: op}, nil
}

// MustMoving is like NewMoving but panics on error.
func MustMoving(src string, opts ...Option) *Moving {
	m, err := NewMoving(src, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// Call applies the operator with a single window size along axis, which
// defaults to -1.
func (m *Moving) Call(arr *ndarray.Array, window int, axes ...int) (*ndarray.Array, error) {
	return m.CallWindow(arr, ndarray.Scalar(int64(window)), axes...)
}

// CallWindow applies the operator with an integer window array that
// broadcasts against arr's dimensions other than axis. Every window must
// lie in [1, n] where n is the length of axis.
//
// axis is exchanged with the last dimension before the kernel runs and the
// result keeps that exchanged layout.
func (m *Moving) CallWindow(arr, window *ndarray.Array, axes ...int) (*ndarray.Array, error) {
	ax := -1
	switch len(axes) {
	case 0:
	case 1:
		ax = axes[0]
	default:
		return nil, fmt.Errorf("ndagg: %s: moving operators take one axis, got %v", m.op.name, axes)
	}
	a, err := axis.Validate(ax, arr.NDim())
	if err != nil {
		return nil, err
	}
	if err := checkWindow(window, arr.Shape()[a]); err != nil {
		return nil, err
	}
	t, err := arr.Transpose(axis.Swap(arr.NDim(), a)...)
	if err != nil {
		return nil, err
	}
	k, err := m.op.kernel(movingKey)
	if err != nil {
		return nil, err
	}
	return k.Call(t, window)
}

func checkWindow(window *ndarray.Array, n int) error {
	var bad []int64
	switch window.DType() {
	case ndarray.Int32:
		ws, _ := ndarray.Values[int32](window)
		bad = invalidWindows(ws, n)
	case ndarray.Int64:
		ws, _ := ndarray.Values[int64](window)
		bad = invalidWindows(ws, n)
	default:
		return &WindowError{Bound: n, DType: window.DType()}
	}
	if len(bad) > 0 {
		return &WindowError{Bound: n, Invalid: bad}
	}
	return nil
}

// invalidWindows returns the distinct windows outside [1, n] in order of
// first appearance.
func invalidWindows[T int32 | int64](ws []T, n int) []int64 {
	return lo.Uniq(lo.FilterMap(ws, func(w T, _ int) (int64, bool) {
		return int64(w), int64(w) < 1 || int64(w) > int64(n)
	}))
}

// Name returns the registered function's name.
func (m *Moving) Name() string { return m.op.name }

// Signatures returns the signatures the operator is specialized for.
func (m *Moving) Signatures() []signature.Signature { return m.op.signatures() }

// Spec returns the kernel specification.
func (m *Moving) Spec() *compile.Spec { return m.op.spec(movingKey) }

// Specializations returns the cache keys built so far: empty until the
// first call, then [1].
func (m *Moving) Specializations() []int { return cache.SortedKeys(&m.op.built) }

func (m *Moving) String() string { return m.op.String() }
