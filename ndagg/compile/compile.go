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

// Package compile defines the contract between operators and the service
// that turns a kernel specification into something callable.
//
// A Spec carries one Entry per declared signature (the transformed Go
// source of the kernel body plus its low-level declaration) and the
// dimension layout every entry shares. A Service builds a Kernel from it.
// Builds are expensive and deterministic: identical specs produce
// equivalent kernels.
package compile

import (
	"fmt"
	"strings"

	"github.com/ajroetker/go-ndagg/ndagg/ndarray"
	"github.com/ajroetker/go-ndagg/ndagg/signature"
)

// Kind distinguishes reduction kernels from moving-window kernels.
type Kind int

const (
	Reduce Kind = iota
	Moving
)

func (k Kind) String() string {
	switch k {
	case Reduce:
		return "reduce"
	case Moving:
		return "moving"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Entry is the specialization of a kernel for one signature.
type Entry struct {
	Signature   signature.Signature
	Declaration string   // e.g. "void(float64[:,:], float64[:])"
	Name        string   // entry function name inside Source
	Source      string   // gofmt'd function declaration
	Imports     []string // import paths Source needs
}

// Spec is a complete kernel specification for one core dimensionality.
type Spec struct {
	Name     string
	Kind     Kind
	CoreNDim int
	Layout   string // e.g. "(a,b)->()" or "(n),()->(n)"
	Entries  []Entry
}

func (s *Spec) String() string {
	decls := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		decls[i] = e.Declaration
	}
	return fmt.Sprintf("%s %s core=%d %s [%s]", s.Kind, s.Name, s.CoreNDim, s.Layout, strings.Join(decls, "; "))
}

// Kernel is a built, immutable kernel. Call never aliases its inputs in
// the returned array.
type Kernel interface {
	Call(args ...*ndarray.Array) (*ndarray.Array, error)
}

// Service builds kernels from specs.
type Service interface {
	Compile(spec *Spec) (Kernel, error)
}

// ServiceFunc adapts a function to the Service interface.
type ServiceFunc func(spec *Spec) (Kernel, error)

// Compile calls f(spec).
func (f ServiceFunc) Compile(spec *Spec) (Kernel, error) { return f(spec) }
