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
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/ajroetker/go-ndagg/ndagg/cache"
	"github.com/ajroetker/go-ndagg/ndagg/compile"
	"github.com/ajroetker/go-ndagg/ndagg/signature"
	"github.com/ajroetker/go-ndagg/ndagg/transform"
)

// operator is the registration state and kernel cache shared by Reduction
// and Moving.
type operator struct {
	name     string
	kind     compile.Kind
	kernels  []*transform.Kernel // one per signature, in registration order
	compiler compile.Service
	logger   *zap.Logger
	built    cache.Cache[int, compile.Kernel] // keyed by core ndim
}

func newOperator(src string, kind compile.Kind, opts []Option) (*operator, error) {
	o := gatherOptions(kind, opts)
	nin := 1
	if kind == compile.Moving {
		nin = 2
	}
	sigs, err := signature.ParseAll(o.signatures, nin)
	if err != nil {
		return nil, err
	}
	sigs = lo.UniqBy(sigs, signature.Signature.String)

	fn, err := transform.Parse(src, o.funcName)
	if err != nil {
		return nil, err
	}
	op := &operator{
		name:     fn.Name,
		kind:     kind,
		compiler: o.compiler,
		logger:   o.logger.With(zap.String("op", fn.Name), zap.Stringer("kind", kind)),
	}
	for _, sig := range sigs {
		var k *transform.Kernel
		if kind == compile.Reduce {
			k, err = transform.Reduce(fn, sig)
		} else {
			k, err = transform.Moving(fn, sig)
		}
		if err != nil {
			return nil, err
		}
		op.kernels = append(op.kernels, k)
	}
	return op, nil
}

func (op *operator) spec(coreNDim int) *compile.Spec {
	layout := signature.MovingLayout(1)
	if op.kind == compile.Reduce {
		layout = signature.ReduceLayout(coreNDim)
	}
	return &compile.Spec{
		Name:     op.name,
		Kind:     op.kind,
		CoreNDim: coreNDim,
		Layout:   layout,
		Entries: lo.Map(op.kernels, func(k *transform.Kernel, _ int) compile.Entry {
			decl := k.Signature.MovingDeclaration()
			if op.kind == compile.Reduce {
				decl = k.Signature.ReduceDeclaration(coreNDim)
			}
			return compile.Entry{
				Signature:   k.Signature,
				Declaration: decl,
				Name:        k.Name,
				Source:      k.Source,
				Imports:     k.Imports,
			}
		}),
	}
}

// kernel returns the kernel for coreNDim, building it on first use.
func (op *operator) kernel(coreNDim int) (compile.Kernel, error) {
	return op.built.GetOrBuild(coreNDim, func() (compile.Kernel, error) {
		start := time.Now()
		k, err := op.compiler.Compile(op.spec(coreNDim))
		if err != nil {
			op.logger.Warn("kernel build failed", zap.Int("core_ndim", coreNDim), zap.Error(err))
			return nil, err
		}
		op.logger.Debug("built kernel", zap.Int("core_ndim", coreNDim), zap.Duration("elapsed", time.Since(start)))
		return k, nil
	})
}

func (op *operator) signatures() []signature.Signature {
	return lo.Map(op.kernels, func(k *transform.Kernel, _ int) signature.Signature { return k.Signature })
}

func (op *operator) String() string {
	return fmt.Sprintf("<ndagg.%s %s %v>", op.kind, op.name, op.signatures())
}
