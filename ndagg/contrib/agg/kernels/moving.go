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

//go:build ignore

// Moving-window kernel sources, embedded by package agg.

package kernels

import "math"

// move_sum sums the trailing window, summing fewer elements before the
// window fills.
func move_sum[T float32 | float64](a []T, window int64, out []T) {
	w := int(window)
	var s T
	for i := 0; i < len(a); i++ {
		s += a[i]
		if i >= w {
			s -= a[i-w]
		}
		out[i] = s
	}
}

func move_mean[T float32 | float64](a []T, window int64, out []T) {
	w := int(window)
	var s T
	for i := 0; i < len(a); i++ {
		s += a[i]
		if i >= w {
			s -= a[i-w]
		}
		if i+1 >= w {
			out[i] = s / T(w)
		} else {
			out[i] = T(math.NaN())
		}
	}
}

// move_nanmean averages the non-NaN values of each full window. Windows
// with no observations are NaN.
func move_nanmean[T float32 | float64](a []T, window int64, out []T) {
	w := int(window)
	var s T
	n := 0
	for i := 0; i < len(a); i++ {
		if v := a[i]; v == v {
			s += v
			n++
		}
		if i >= w {
			if old := a[i-w]; old == old {
				s -= old
				n--
			}
		}
		if i+1 >= w && n > 0 {
			out[i] = s / T(n)
		} else {
			out[i] = T(math.NaN())
		}
	}
}
