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
	"github.com/ajroetker/go-ndagg/ndagg/axis"
	"github.com/ajroetker/go-ndagg/ndagg/cache"
	"github.com/ajroetker/go-ndagg/ndagg/compile"
	"github.com/ajroetker/go-ndagg/ndagg/ndarray"
	"github.com/ajroetker/go-ndagg/ndagg/signature"
)

// Reduction is an aggregation over one or more axes of an array.
type Reduction struct {
	op *operator
}

// NewReduction registers the reduction declared in src. The function must
// take one slice and end by returning the aggregate:
//
//	func nanmax[T float32 | float64](a []T) T { ...; return m }
//
// With no signature options, float32(float32) and float64(float64) are
// specialized. The first type parameter takes each signature's input type
// and a second one its output type; concrete parameter and result types
// must match every signature. Errors are *SignatureError or
// *TransformError.
func NewReduction(src string, opts ...Option) (*Reduction, error) {
	op, err := newOperator(src, compile.Reduce, opts)
	if err != nil {
		return nil, err
	}
	return &Reduction{op: op}, nil
}

// MustReduction is like NewReduction but panics on error.
func MustReduction(src string, opts ...Option) *Reduction {
	r, err := NewReduction(src, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Call reduces arr over the given axes, which may be negative. Without
// axes, including an empty slice as in Call(arr, []int{}...), every
// dimension is reduced and the result is 0-d. Otherwise the
// result has arr's shape without the reduced axes. arr is never modified.
func (r *Reduction) Call(arr *ndarray.Array, axes ...int) (*ndarray.Array, error) {
	if len(axes) == 0 {
		k, err := r.op.kernel(arr.NDim())
		if err != nil {
			return nil, err
		}
		return k.Call(arr)
	}
	_, perm, err := axis.Normalize(arr.NDim(), axes...)
	if err != nil {
		return nil, err
	}
	t, err := arr.Transpose(perm...)
	if err != nil {
		return nil, err
	}
	k, err := r.op.kernel(len(axes))
	if err != nil {
		return nil, err
	}
	return k.Call(t)
}

// Name returns the registered function's name.
func (r *Reduction) Name() string { return r.op.name }

// Signatures returns the signatures the reduction is specialized for.
func (r *Reduction) Signatures() []signature.Signature { return r.op.signatures() }

// Spec returns the kernel specification used for a core of coreNDim
// dimensions.
func (r *Reduction) Spec(coreNDim int) *compile.Spec { return r.op.spec(coreNDim) }

// Specializations returns the core dimensionalities built so far.
func (r *Reduction) Specializations() []int { return cache.SortedKeys(&r.op.built) }

func (r *Reduction) String() string { return r.op.String() }
