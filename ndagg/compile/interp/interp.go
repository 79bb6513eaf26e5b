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

// Package interp is a compile.Service that evaluates generated kernel
// source with the yaegi Go interpreter.
//
// Every entry of a spec is emitted into one "package main" file, evaluated
// in a fresh interpreter, and each entry function is resolved by name and
// asserted to its typed Go signature. The typed functions become the inner
// loops of a gufunc.Kernel.
package interp

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"

	"github.com/ajroetker/go-ndagg/ndagg/compile"
	"github.com/ajroetker/go-ndagg/ndagg/gufunc"
	"github.com/ajroetker/go-ndagg/ndagg/ndarray"
)

// Compiler builds kernels by interpretation. It is safe for concurrent use;
// each Compile call uses its own interpreter.
type Compiler struct {
	logger  *zap.Logger
	symbols []interp.Exports
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used to report evaluations.
func WithLogger(l *zap.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// WithSymbols makes additional packages importable by kernel source, on top
// of the standard library.
func WithSymbols(exports interp.Exports) Option {
	return func(c *Compiler) { c.symbols = append(c.symbols, exports) }
}

// New returns a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{logger: zap.NewNop()}
	for _, o := range opts {
		o(c)
	}
	return c
}

var _ compile.Service = (*Compiler)(nil)

// Source returns the Go file evaluated for spec.
func Source(spec *compile.Spec) string {
	imports := lo.Uniq(lo.FlatMap(spec.Entries, func(e compile.Entry, _ int) []string { return e.Imports }))
	slices.Sort(imports)

	var sb strings.Builder
	fmt.Fprintf(&sb, "// %s\npackage main\n", spec)
	if len(imports) > 0 {
		sb.WriteString("\nimport (\n")
		for _, imp := range imports {
			fmt.Fprintf(&sb, "\t%s\n", imp)
		}
		sb.WriteString(")\n")
	}
	for _, e := range spec.Entries {
		fmt.Fprintf(&sb, "\n// %s\n%s\n", e.Declaration, strings.TrimSpace(e.Source))
	}
	return sb.String()
}

// Compile evaluates every entry of spec and assembles them into a kernel.
func (c *Compiler) Compile(spec *compile.Spec) (compile.Kernel, error) {
	if len(spec.Entries) == 0 {
		return nil, fmt.Errorf("interp: %s: no entries to compile", spec.Name)
	}
	start := time.Now()

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("interp: load stdlib: %w", err)
	}
	for _, exports := range c.symbols {
		if err := i.Use(exports); err != nil {
			return nil, fmt.Errorf("interp: load symbols: %w", err)
		}
	}
	src := Source(spec)
	if _, err := i.Eval(src); err != nil {
		return nil, fmt.Errorf("interp: evaluate %s: %w", spec.Name, err)
	}

	loops := make([]gufunc.Loop, 0, len(spec.Entries))
	for _, e := range spec.Entries {
		v, err := i.Eval("main." + e.Name)
		if err != nil {
			return nil, fmt.Errorf("interp: resolve %s: %w", e.Name, err)
		}
		lp, err := bind(spec.Kind, e, v)
		if err != nil {
			return nil, err
		}
		loops = append(loops, lp)
	}
	k, err := gufunc.NewKernel(spec.Name, spec.Layout, loops...)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("evaluated kernel",
		zap.String("op", spec.Name),
		zap.Int("entries", len(spec.Entries)),
		zap.Int("source_bytes", len(src)),
		zap.Duration("elapsed", time.Since(start)))
	return k, nil
}

func bind(kind compile.Kind, e compile.Entry, v reflect.Value) (gufunc.Loop, error) {
	types := make([]ndarray.DType, 0, len(e.Signature.In)+1)
	for _, name := range append(slices.Clone(e.Signature.In), e.Signature.Out) {
		dt, err := ndarray.ParseDType(name)
		if err != nil {
			return nil, fmt.Errorf("interp: entry %s: %w", e.Name, err)
		}
		types = append(types, dt)
	}

	var (
		lp gufunc.Loop
		ok bool
	)
	switch {
	case kind == compile.Reduce && len(types) == 2:
		lp, ok = reduceIn(types[0], types[1], v)
	case kind == compile.Moving && len(types) == 3:
		lp, ok = movingIn(types[0], types[1], types[2], v)
	default:
		return nil, fmt.Errorf("interp: entry %s: %s kernel cannot have signature %s", e.Name, kind, e.Signature)
	}
	if !ok {
		return nil, fmt.Errorf("interp: entry %s has type %s, not the %s loop for %s", e.Name, v.Type(), kind, e.Signature)
	}
	return lp, nil
}

func reduceIn(in, out ndarray.DType, v reflect.Value) (gufunc.Loop, bool) {
	switch in {
	case ndarray.Float32:
		return reduceOut[float32](out, v)
	case ndarray.Float64:
		return reduceOut[float64](out, v)
	case ndarray.Int32:
		return reduceOut[int32](out, v)
	case ndarray.Int64:
		return reduceOut[int64](out, v)
	}
	return nil, false
}

func reduceOut[In ndarray.Number](out ndarray.DType, v reflect.Value) (gufunc.Loop, bool) {
	switch out {
	case ndarray.Float32:
		return reduceFn[In, float32](v)
	case ndarray.Float64:
		return reduceFn[In, float64](v)
	case ndarray.Int32:
		return reduceFn[In, int32](v)
	case ndarray.Int64:
		return reduceFn[In, int64](v)
	}
	return nil, false
}

func reduceFn[In, Out ndarray.Number](v reflect.Value) (gufunc.Loop, bool) {
	fn, ok := v.Interface().(func([]In, []Out))
	if !ok {
		return nil, false
	}
	return gufunc.ReduceLoop(fn), true
}

func movingIn(in, w, out ndarray.DType, v reflect.Value) (gufunc.Loop, bool) {
	switch in {
	case ndarray.Float32:
		return movingWindow[float32](w, out, v)
	case ndarray.Float64:
		return movingWindow[float64](w, out, v)
	case ndarray.Int32:
		return movingWindow[int32](w, out, v)
	case ndarray.Int64:
		return movingWindow[int64](w, out, v)
	}
	return nil, false
}

func movingWindow[In ndarray.Number](w, out ndarray.DType, v reflect.Value) (gufunc.Loop, bool) {
	switch w {
	case ndarray.Int32:
		return movingOut[In, int32](out, v)
	case ndarray.Int64:
		return movingOut[In, int64](out, v)
	case ndarray.Float32:
		return movingOut[In, float32](out, v)
	case ndarray.Float64:
		return movingOut[In, float64](out, v)
	}
	return nil, false
}

func movingOut[In, W ndarray.Number](out ndarray.DType, v reflect.Value) (gufunc.Loop, bool) {
	switch out {
	case ndarray.Float32:
		return movingFn[In, W, float32](v)
	case ndarray.Float64:
		return movingFn[In, W, float64](v)
	case ndarray.Int32:
		return movingFn[In, W, int32](v)
	case ndarray.Int64:
		return movingFn[In, W, int64](v)
	}
	return nil, false
}

func movingFn[In, W, Out ndarray.Number](v reflect.Value) (gufunc.Loop, bool) {
	fn, ok := v.Interface().(func([]In, []W, []Out))
	if !ok {
		return nil, false
	}
	return gufunc.MovingLoop(fn), true
}
