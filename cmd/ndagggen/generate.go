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

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajroetker/go-ndagg/ndagg"
	"github.com/ajroetker/go-ndagg/ndagg/compile"
	"github.com/ajroetker/go-ndagg/ndagg/compile/interp"
)

type genFlags struct {
	input      string
	funcName   string
	signatures []string
	coreNDim   int
	output     string
	compile    bool
}

func newGenCmd(rf *rootFlags, kind string) *cobra.Command {
	gf := &genFlags{}
	cmd := &cobra.Command{
		Use:   kind,
		Args:  cobra.NoArgs,
		Short: fmt.Sprintf("Print the %s kernel generated from a Go function", kind),
		RunE: func(cmd *cobra.Command, args []string) error {
			return gf.run(rf, kind, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVarP(&gf.input, "input", "i", "", "Go source file declaring the function")
	f.StringVar(&gf.funcName, "func", "", "function to use when the file declares several")
	f.StringSliceVarP(&gf.signatures, "signature", "s", nil, "type signature, e.g. float64(float64); repeatable")
	f.StringVarP(&gf.output, "output", "o", "", "write the kernel file here instead of stdout")
	f.BoolVar(&gf.compile, "compile", false, "build the kernel with the interpreter and report timing")
	if kind == "reduce" {
		f.IntVar(&gf.coreNDim, "core-ndim", 1, "number of reduced (core) dimensions")
	}
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (gf *genFlags) run(rf *rootFlags, kind string, stdout io.Writer) error {
	src, err := os.ReadFile(gf.input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	opts := []ndagg.Option{ndagg.WithConfig(rf.cfg), ndagg.WithLogger(rf.logger), ndagg.WithFunc(gf.funcName)}
	if len(gf.signatures) > 0 {
		opts = append(opts, ndagg.WithSignatures(gf.signatures...))
	}

	var spec *compile.Spec
	switch kind {
	case "reduce":
		if gf.coreNDim < 0 {
			return fmt.Errorf("--core-ndim must be non-negative, got %d", gf.coreNDim)
		}
		r, err := ndagg.NewReduction(string(src), opts...)
		if err != nil {
			return err
		}
		spec = r.Spec(gf.coreNDim)
	case "moving":
		m, err := ndagg.NewMoving(string(src), opts...)
		if err != nil {
			return err
		}
		spec = m.Spec()
	default:
		return fmt.Errorf("unknown operator kind %q", kind)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by ndagggen. DO NOT EDIT.\n\n")
	buf.WriteString(interp.Source(spec))
	if gf.output != "" {
		if err := os.WriteFile(gf.output, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	} else if _, err := stdout.Write(buf.Bytes()); err != nil {
		return err
	}

	if !gf.compile {
		return nil
	}
	start := time.Now()
	if _, err := interp.New(interp.WithLogger(rf.logger)).Compile(spec); err != nil {
		return err
	}
	rf.logger.Info("compiled kernel",
		zap.String("op", spec.Name),
		zap.Stringer("kind", spec.Kind),
		zap.Int("core_ndim", spec.CoreNDim),
		zap.Int("entries", len(spec.Entries)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}
