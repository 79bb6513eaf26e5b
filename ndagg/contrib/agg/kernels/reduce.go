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

// Reduction kernel sources. This file is embedded and registered by package
// agg; it is not compiled into the module.

package kernels

import "math"

// allnan reports 1 when every element is NaN (and for empty input).
func allnan[T float32 | float64, R int64](a []T) R {
	var r R = 1
	for _, v := range a {
		if v == v {
			r = 0
			break
		}
	}
	return r
}

// anynan reports 1 when some element is NaN.
func anynan[T float32 | float64, R int64](a []T) R {
	var r R
	for _, v := range a {
		if v != v {
			r = 1
			break
		}
	}
	return r
}

func count[T float32 | float64, R int64](a []T) R {
	var n R
	for _, v := range a {
		if v == v {
			n++
		}
	}
	return n
}

func nansum[T float32 | float64](a []T) T {
	var s T
	for _, v := range a {
		if v == v {
			s += v
		}
	}
	return s
}

func nanmean[T float32 | float64](a []T) T {
	var s T
	n := 0
	for _, v := range a {
		if v == v {
			s += v
			n++
		}
	}
	return s / T(n)
}

func nanmin[T float32 | float64](a []T) T {
	m := T(math.Inf(1))
	found := false
	for _, v := range a {
		if v <= m {
			m = v
			found = true
		}
	}
	if !found {
		m = T(math.NaN())
	}
	return m
}

func nanmax[T float32 | float64](a []T) T {
	m := T(math.Inf(-1))
	found := false
	for _, v := range a {
		if v >= m {
			m = v
			found = true
		}
	}
	if !found {
		m = T(math.NaN())
	}
	return m
}

// nanvar is the population variance (ddof 0) of the non-NaN elements.
func nanvar[T float32 | float64](a []T) T {
	var s T
	n := 0
	for _, v := range a {
		if v == v {
			s += v
			n++
		}
	}
	r := T(math.NaN())
	if n > 0 {
		mean := s / T(n)
		var ss T
		for _, v := range a {
			if v == v {
				d := v - mean
				ss += d * d
			}
		}
		r = ss / T(n)
	}
	return r
}

func nanstd[T float32 | float64](a []T) T {
	var s T
	n := 0
	for _, v := range a {
		if v == v {
			s += v
			n++
		}
	}
	r := T(math.NaN())
	if n > 0 {
		mean := s / T(n)
		var ss T
		for _, v := range a {
			if v == v {
				d := v - mean
				ss += d * d
			}
		}
		r = T(math.Sqrt(float64(ss / T(n))))
	}
	return r
}
