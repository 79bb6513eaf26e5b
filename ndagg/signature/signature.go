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

// Package signature parses the type signatures operators are registered
// with and renders the low-level kernel declarations and dimension layouts
// derived from them.
//
// A signature names the output element type followed by the input element
// types in parentheses:
//
//	float64(float64)        reduction: one array input
//	float64(float64,int64)  moving window: array input, then window
package signature

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"
)

// ErrInvalidSignature is the sentinel wrapped by every *Error.
var ErrInvalidSignature = errors.New("signature: invalid signature")

// Error reports a malformed signature string.
type Error struct {
	Signature string
	Reason    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("signature: invalid signature %q: %s", e.Signature, e.Reason)
}

func (e *Error) Unwrap() error { return ErrInvalidSignature }

var sigPattern = regexp.MustCompile(`^(\w+)\((\w+(?:, ?\w+)*)\)$`)

// Signature is one parsed (output, inputs) type declaration.
type Signature struct {
	Out string
	In  []string
}

// Parse parses a single signature string.
func Parse(s string) (Signature, error) {
	m := sigPattern.FindStringSubmatch(s)
	if m == nil {
		return Signature{}, &Error{Signature: s, Reason: "want identifier(identifier[,identifier...])"}
	}
	in := lo.Map(strings.Split(m[2], ","), func(t string, _ int) string {
		return strings.TrimSpace(t)
	})
	return Signature{Out: m[1], In: in}, nil
}

// ParseAll parses every entry of list and checks that each declares exactly
// nin inputs. An empty list is an error: an operator needs at least one
// signature to compile.
func ParseAll(list []string, nin int) ([]Signature, error) {
	if len(list) == 0 {
		return nil, &Error{Reason: "no signatures given"}
	}
	sigs := make([]Signature, 0, len(list))
	for _, s := range list {
		sig, err := Parse(s)
		if err != nil {
			return nil, err
		}
		if len(sig.In) != nin {
			return nil, &Error{Signature: s, Reason: fmt.Sprintf("want %d input type(s), got %d", nin, len(sig.In))}
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

func (s Signature) String() string {
	return fmt.Sprintf("%s(%s)", s.Out, strings.Join(s.In, ","))
}

// ReduceDeclaration returns the kernel declaration for a reduction that
// consumes coreNDim dimensions of its input and writes one output slot,
// e.g. "void(float64[:,:], float64[:])". A rank-0 core is still passed as a
// one-element slice.
func (s Signature) ReduceDeclaration(coreNDim int) string {
	return fmt.Sprintf("void(%s%s, %s[:])", s.In[0], rankMarker(max(coreNDim, 1)), s.Out)
}

// MovingDeclaration returns the kernel declaration for a moving-window
// operator: every argument, scalars included, is passed as a 1-D slice,
// e.g. "void(float64[:], int64[:], float64[:])".
func (s Signature) MovingDeclaration() string {
	args := lo.Map(append(append([]string{}, s.In...), s.Out), func(t string, _ int) string {
		return t + "[:]"
	})
	return fmt.Sprintf("void(%s)", strings.Join(args, ", "))
}

func rankMarker(n int) string {
	return "[" + strings.Repeat(":,", n-1) + ":]"
}

// coreLabels name core dimensions in layouts.
const coreLabels = "abcdefgijk"

// ReduceLayout returns the dimension layout of a reduction consuming k core
// dimensions, e.g. "(a,b)->()". Beyond ten dimensions labels continue as
// d10, d11, ...
func ReduceLayout(k int) string {
	labels := lo.Map(lo.Range(k), func(i int, _ int) string {
		if i < len(coreLabels) {
			return coreLabels[i : i+1]
		}
		return fmt.Sprintf("d%d", i)
	})
	return "(" + strings.Join(labels, ",") + ")->()"
}

// MovingLayout returns the dimension layout of a moving-window operator with
// extra scalar arguments, e.g. "(n),()->(n)" for one extra.
func MovingLayout(extra int) string {
	return "(n)" + strings.Repeat(",()", extra) + "->(n)"
}
