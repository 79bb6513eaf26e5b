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

// Package agg bundles NaN-aware aggregations and moving-window operators
// built with ndagg.
//
// The package-level functions share one lazily created Operators value
// using the default interpreter. Use New to configure a separate set, for
// example with a logger or another compile.Service.
package agg

import (
	_ "embed"
	"sync"

	"github.com/ajroetker/go-ndagg/ndagg"
	"github.com/ajroetker/go-ndagg/ndagg/ndarray"
)

var (
	//go:embed kernels/reduce.go
	reduceSrc string
	//go:embed kernels/moving.go
	movingSrc string
)

// flagSignatures are used by reductions producing counts and 0/1 flags.
var flagSignatures = []string{"int64(float32)", "int64(float64)"}

// Operators is a complete set of bundled operators.
type Operators struct {
	AllNaN  *ndagg.Reduction
	AnyNaN  *ndagg.Reduction
	Count   *ndagg.Reduction
	NanSum  *ndagg.Reduction
	NanMean *ndagg.Reduction
	NanMin  *ndagg.Reduction
	NanMax  *ndagg.Reduction
	NanVar  *ndagg.Reduction
	NanStd  *ndagg.Reduction

	MoveSum     *ndagg.Moving
	MoveMean    *ndagg.Moving
	MoveNanMean *ndagg.Moving
}

// New registers every bundled operator with opts. Signature options are
// overridden per operator.
func New(opts ...ndagg.Option) (*Operators, error) {
	var (
		ops Operators
		err error
	)
	reduce := func(dst **ndagg.Reduction, name string, sigs []string) {
		if err != nil {
			return
		}
		o := append(append([]ndagg.Option{}, opts...), ndagg.WithFunc(name))
		if sigs != nil {
			o = append(o, ndagg.WithSignatures(sigs...))
		}
		*dst, err = ndagg.NewReduction(reduceSrc, o...)
	}
	moving := func(dst **ndagg.Moving, name string) {
		if err != nil {
			return
		}
		o := append(append([]ndagg.Option{}, opts...), ndagg.WithFunc(name),
			ndagg.WithSignatures(ndagg.DefaultMovingSignatures...))
		*dst, err = ndagg.NewMoving(movingSrc, o...)
	}
	floats := ndagg.DefaultReduceSignatures

	reduce(&ops.AllNaN, "allnan", flagSignatures)
	reduce(&ops.AnyNaN, "anynan", flagSignatures)
	reduce(&ops.Count, "count", flagSignatures)
	reduce(&ops.NanSum, "nansum", floats)
	reduce(&ops.NanMean, "nanmean", floats)
	reduce(&ops.NanMin, "nanmin", floats)
	reduce(&ops.NanMax, "nanmax", floats)
	reduce(&ops.NanVar, "nanvar", floats)
	reduce(&ops.NanStd, "nanstd", floats)
	moving(&ops.MoveSum, "move_sum")
	moving(&ops.MoveMean, "move_mean")
	moving(&ops.MoveNanMean, "move_nanmean")
	if err != nil {
		return nil, err
	}
	return &ops, nil
}

var defaults = sync.OnceValue(func() *Operators {
	ops, err := New()
	if err != nil {
		panic(err)
	}
	return ops
})

// Default returns the shared operator set used by the package functions.
func Default() *Operators { return defaults() }

// AllNaN is 1 where every element is NaN, including empty reductions.
func AllNaN(a *ndarray.Array, axes ...int) (*ndarray.Array, error) {
	return defaults().AllNaN.Call(a, axes...)
}

// AnyNaN is 1 where any element is NaN.
func AnyNaN(a *ndarray.Array, axes ...int) (*ndarray.Array, error) {
	return defaults().AnyNaN.Call(a, axes...)
}

// Count counts the non-NaN elements.
func Count(a *ndarray.Array, axes ...int) (*ndarray.Array, error) {
	return defaults().Count.Call(a, axes...)
}

// NanSum sums the non-NaN elements; all-NaN slices sum to 0.
func NanSum(a *ndarray.Array, axes ...int) (*ndarray.Array, error) {
	return defaults().NanSum.Call(a, axes...)
}

// NanMean is NaN where every element is NaN.
func NanMean(a *ndarray.Array, axes ...int) (*ndarray.Array, error) {
	return defaults().NanMean.Call(a, axes...)
}

// NanMin is the smallest non-NaN element, or NaN if there is none.
func NanMin(a *ndarray.Array, axes ...int) (*ndarray.Array, error) {
	return defaults().NanMin.Call(a, axes...)
}

// NanMax is the largest non-NaN element, or NaN if there is none.
func NanMax(a *ndarray.Array, axes ...int) (*ndarray.Array, error) {
	return defaults().NanMax.Call(a, axes...)
}

// NanVar is the population variance of the non-NaN elements.
func NanVar(a *ndarray.Array, axes ...int) (*ndarray.Array, error) {
	return defaults().NanVar.Call(a, axes...)
}

// NanStd is the population standard deviation of the non-NaN elements.
func NanStd(a *ndarray.Array, axes ...int) (*ndarray.Array, error) {
	return defaults().NanStd.Call(a, axes...)
}

// MoveSum sums trailing windows along axis (default -1), allowing partial
// windows at the start.
func MoveSum(a *ndarray.Array, window int, axis ...int) (*ndarray.Array, error) {
	return defaults().MoveSum.Call(a, window, axis...)
}

// MoveMean averages full trailing windows; positions before the first full
// window are NaN.
func MoveMean(a *ndarray.Array, window int, axis ...int) (*ndarray.Array, error) {
	return defaults().MoveMean.Call(a, window, axis...)
}

// MoveNanMean averages the non-NaN elements of each full trailing window.
// Windows with no non-NaN element are NaN.
func MoveNanMean(a *ndarray.Array, window int, axis ...int) (*ndarray.Array, error) {
	return defaults().MoveNanMean.Call(a, window, axis...)
}
