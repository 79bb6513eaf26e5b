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

// Package ndagg turns small scalar Go functions into multi-dimensional
// array aggregations.
//
// A reduction is registered from Go source that consumes a 1-D slice and
// returns a value:
//
//	sum := ndagg.MustReduction(`
//	func sum[T float32 | float64](a []T) T {
//		var s T
//		for _, v := range a {
//			s += v
//		}
//		return s
//	}`)
//	cols, err := sum.Call(arr, 0)   // reduce over axis 0
//	total, err := sum.Call(arr)     // reduce over every axis, 0-d result
//
// A moving-window operator writes one output per input element:
//
//	move := ndagg.MustMoving(src)
//	out, err := move.Call(arr, 3)   // window of 3 along the last axis
//
// Registration parses the signatures and rewrites the function into kernel
// form once per signature, failing early on malformed input. Kernels are
// built lazily by a compile.Service, once per core dimensionality, and kept
// for the operator's lifetime. Operators are safe for concurrent use.
package ndagg
