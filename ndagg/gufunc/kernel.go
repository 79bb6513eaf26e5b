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

// Package gufunc runs generalized kernels: functions that consume the
// trailing "core" dimensions of their inputs and write into output slots,
// broadcast over every remaining leading ("loop") dimension.
//
// A Kernel pairs a dimension layout such as "(a,b)->()" with one typed
// inner loop per supported input dtype. Call binds the core dimensions,
// broadcasts the loop dimensions of all inputs together, allocates a fresh
// output and invokes the inner function once per loop position with plain
// Go slices.
package gufunc

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ajroetker/go-ndagg/ndagg/ndarray"
)

// ErrNoLoop is returned when a kernel has no inner loop the dtype of its
// first input matches or safely casts to.
var ErrNoLoop = errors.New("gufunc: no loop matching the input dtype")

// Loop is one typed inner loop of a kernel. Loops are created with
// ReduceLoop and MovingLoop.
type Loop interface {
	// Types lists the input dtypes followed by the output dtype.
	Types() []ndarray.DType
	run(p *plan)
}

// Kernel is a compiled generalized kernel. It is immutable and safe for
// concurrent use.
type Kernel struct {
	name   string
	layout Layout
	loops  []Loop
}

// NewKernel assembles a kernel from a layout string and its typed loops.
// When two loops accept the same first input dtype, the earlier one wins.
func NewKernel(name, layout string, loops ...Loop) (*Kernel, error) {
	l, err := ParseLayout(layout)
	if err != nil {
		return nil, err
	}
	if len(l.Outputs) != 1 {
		return nil, fmt.Errorf("gufunc: kernel %s: layout %q must have exactly one output", name, layout)
	}
	if len(loops) == 0 {
		return nil, fmt.Errorf("gufunc: kernel %s has no loops", name)
	}
	for _, lp := range loops {
		if got, want := len(lp.Types()), len(l.Inputs)+1; got != want {
			return nil, fmt.Errorf("gufunc: kernel %s: loop %v has %d types, layout %q needs %d",
				name, lp.Types(), got, layout, want)
		}
	}
	return &Kernel{name: name, layout: l, loops: loops}, nil
}

// Name returns the kernel's name.
func (k *Kernel) Name() string { return k.name }

// Layout returns the kernel's dimension layout.
func (k *Kernel) Layout() Layout { return k.layout }

// Types returns the type list of every loop, e.g. ["float64(float64)"].
func (k *Kernel) Types() []string {
	out := make([]string, len(k.loops))
	for i, lp := range k.loops {
		ts := lp.Types()
		in := make([]string, len(ts)-1)
		for j, t := range ts[:len(ts)-1] {
			in[j] = t.String()
		}
		out[i] = fmt.Sprintf("%s(%s)", ts[len(ts)-1], strings.Join(in, ","))
	}
	return out
}

func (k *Kernel) String() string {
	return fmt.Sprintf("<gufunc %s %s %v>", k.name, k.layout, k.Types())
}

// Call applies the kernel. The loop is chosen by the first input's dtype:
// an exact match if there is one, otherwise the first loop that input can
// be cast to without loss (see ndarray.CanCast). Every input is then cast to
// the dtypes of the selected loop. The result is always newly allocated.
func (k *Kernel) Call(args ...*ndarray.Array) (*ndarray.Array, error) {
	if len(args) != len(k.layout.Inputs) {
		return nil, fmt.Errorf("gufunc: kernel %s takes %d inputs, got %d", k.name, len(k.layout.Inputs), len(args))
	}
	lp := k.selectLoop(args[0].DType())
	if lp == nil {
		return nil, fmt.Errorf("%w: kernel %s has %v, got %v", ErrNoLoop, k.name, k.Types(), args[0].DType())
	}
	types := lp.Types()
	cast := make([]*ndarray.Array, len(args))
	for i, a := range args {
		cast[i] = a.AsType(types[i])
	}
	p, err := k.plan(cast, types[len(types)-1])
	if err != nil {
		return nil, err
	}
	lp.run(p)
	return p.out, nil
}

func (k *Kernel) selectLoop(dt ndarray.DType) Loop {
	for _, lp := range k.loops {
		if lp.Types()[0] == dt {
			return lp
		}
	}
	for _, lp := range k.loops {
		if ndarray.CanCast(dt, lp.Types()[0]) {
			return lp
		}
	}
	return nil
}

// plan holds everything a loop needs: the broadcast iteration count, the
// core block offset of each input at every iteration and the core block
// sizes.
type plan struct {
	args     []*ndarray.Array
	out      *ndarray.Array
	n        int     // loop iterations
	offsets  [][]int // offsets[input][iter], in elements
	coreSize []int   // per input
	outCore  int
}

func (k *Kernel) plan(args []*ndarray.Array, outType ndarray.DType) (*plan, error) {
	dims := map[string]int{}
	loopShapes := make([]ndarray.Shape, len(args))
	coreSizes := make([]int, len(args))
	for i, a := range args {
		core := k.layout.Inputs[i]
		shape := a.Shape()
		if len(shape) < len(core) {
			return nil, fmt.Errorf("gufunc: kernel %s: input %d has %d dimensions, needs at least %d",
				k.name, i, len(shape), len(core))
		}
		split := len(shape) - len(core)
		loopShapes[i] = shape[:split]
		coreSizes[i] = 1
		for j, label := range core {
			d := shape[split+j]
			if prev, ok := dims[label]; ok && prev != d {
				return nil, fmt.Errorf("gufunc: kernel %s: core dimension %s is %d and %d", k.name, label, prev, d)
			}
			dims[label] = d
			coreSizes[i] *= d
		}
	}

	loopShape, err := ndarray.BroadcastShapes(loopShapes...)
	if err != nil {
		return nil, fmt.Errorf("gufunc: kernel %s: %w", k.name, err)
	}
	outShape := slices.Clone(loopShape)
	outCore := 1
	for _, label := range k.layout.Outputs[0] {
		outShape = append(outShape, dims[label])
		outCore *= dims[label]
	}

	n := loopShape.NumElements()
	offsets := make([][]int, len(args))
	for i := range args {
		offsets[i] = loopOffsets(loopShapes[i], loopShape, coreSizes[i], n)
	}
	return &plan{
		args:     args,
		out:      ndarray.Zeros(outType, outShape...),
		n:        n,
		offsets:  offsets,
		coreSize: coreSizes,
		outCore:  outCore,
	}, nil
}

// loopOffsets returns, for each position of the broadcast loop shape, the
// element offset of the matching core block in an input whose own loop
// shape is s.
func loopOffsets(s, loopShape ndarray.Shape, coreSize, n int) []int {
	offs := make([]int, n)
	if n == 0 {
		return offs
	}
	strides := ndarray.BroadcastStrides(s, loopShape)
	idx := make([]int, len(loopShape))
	off := 0
	for it := range offs {
		offs[it] = off * coreSize
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			off += strides[d]
			if idx[d] < loopShape[d] {
				break
			}
			off -= idx[d] * strides[d]
			idx[d] = 0
		}
	}
	return offs
}
