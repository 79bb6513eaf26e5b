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

package gufunc

import "github.com/ajroetker/go-ndagg/ndagg/ndarray"

type reduceLoop[In, Out ndarray.Number] struct {
	fn func(a []In, out []Out)
}

// ReduceLoop wraps a reduction kernel body: fn receives one flattened core
// block and writes its result to out[0].
func ReduceLoop[In, Out ndarray.Number](fn func(a []In, out []Out)) Loop {
	return reduceLoop[In, Out]{fn: fn}
}

func (l reduceLoop[In, Out]) Types() []ndarray.DType {
	return []ndarray.DType{ndarray.DTypeOf[In](), ndarray.DTypeOf[Out]()}
}

func (l reduceLoop[In, Out]) run(p *plan) {
	a, _ := ndarray.Values[In](p.args[0])
	out, _ := ndarray.Values[Out](p.out)
	cs := p.coreSize[0]
	for it := 0; it < p.n; it++ {
		off := p.offsets[0][it]
		l.fn(a[off:off+cs:off+cs], out[it*p.outCore:(it+1)*p.outCore])
	}
}

type movingLoop[In, W, Out ndarray.Number] struct {
	fn func(a []In, window []W, out []Out)
}

// MovingLoop wraps a moving-window kernel body: fn receives one 1-D core
// block, the window as a one-element slice, and an output block of the same
// length as the input block.
func MovingLoop[In, W, Out ndarray.Number](fn func(a []In, window []W, out []Out)) Loop {
	return movingLoop[In, W, Out]{fn: fn}
}

func (l movingLoop[In, W, Out]) Types() []ndarray.DType {
	return []ndarray.DType{ndarray.DTypeOf[In](), ndarray.DTypeOf[W](), ndarray.DTypeOf[Out]()}
}

func (l movingLoop[In, W, Out]) run(p *plan) {
	a, _ := ndarray.Values[In](p.args[0])
	w, _ := ndarray.Values[W](p.args[1])
	out, _ := ndarray.Values[Out](p.out)
	cs := p.coreSize[0]
	for it := 0; it < p.n; it++ {
		off := p.offsets[0][it]
		woff := p.offsets[1][it]
		l.fn(a[off:off+cs:off+cs], w[woff:woff+1:woff+1], out[it*p.outCore:(it+1)*p.outCore])
	}
}
