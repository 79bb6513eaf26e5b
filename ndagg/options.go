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
	"go.uber.org/zap"

	"github.com/ajroetker/go-ndagg/ndagg/compile"
	"github.com/ajroetker/go-ndagg/ndagg/compile/interp"
)

type options struct {
	funcName   string
	signatures []string
	config     *Config
	compiler   compile.Service
	logger     *zap.Logger
}

// Option configures an operator at registration.
type Option func(*options)

// WithFunc selects the function to register when the source declares more
// than one.
func WithFunc(name string) Option {
	return func(o *options) { o.funcName = name }
}

// WithSignatures sets the type signatures to specialize for. Duplicates are
// ignored.
func WithSignatures(sigs ...string) Option {
	return func(o *options) { o.signatures = sigs }
}

// WithConfig supplies default signatures from cfg. Signatures passed with
// WithSignatures take precedence.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.config = &cfg }
}

// WithCompiler sets the service that builds kernels. The default interprets
// the generated kernel source.
func WithCompiler(s compile.Service) Option {
	return func(o *options) { o.compiler = s }
}

// WithLogger sets the logger kernel builds are reported to.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func gatherOptions(kind compile.Kind, opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.signatures == nil {
		switch {
		case o.config != nil && kind == compile.Reduce:
			o.signatures = o.config.Reduce.Signatures
		case o.config != nil && kind == compile.Moving:
			o.signatures = o.config.Moving.Signatures
		case kind == compile.Reduce:
			o.signatures = DefaultReduceSignatures
		default:
			o.signatures = DefaultMovingSignatures
		}
	}
	if o.compiler == nil {
		o.compiler = interp.New(interp.WithLogger(o.logger))
	}
	return o
}
