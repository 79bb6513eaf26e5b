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

package transform

import (
	"errors"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ajroetker/go-ndagg/ndagg/signature"
)

const nansumSrc = `package kernels

import (
	"math"
	"strings"
)

func nansum[T float32 | float64](a []T) T {
	var s T
	for _, v := range a {
		if !math.IsNaN(float64(v)) {
			s += v
		}
	}
	return s
}
`

const moveSumSrc = `func move_sum(a []float64, window int64, out []float64) {
	w := int(window)
	var s float64
	for i := 0; i < len(a); i++ {
		s += a[i]
		if i >= w {
			s -= a[i-w]
		}
		out[i] = s
	}
}
`

func mustSig(t *testing.T, s string) signature.Signature {
	t.Helper()
	sig, err := signature.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return sig
}

// mustParseSource checks that generated kernel source is valid Go.
func mustParseSource(t *testing.T, src string) {
	t.Helper()
	if _, err := parser.ParseFile(token.NewFileSet(), "", "package p\n"+src, 0); err != nil {
		t.Fatalf("generated source does not parse: %v\n%s", err, src)
	}
}

func TestParse(t *testing.T) {
	fn, err := Parse(nansumSrc, "nansum")
	if err != nil {
		t.Fatal(err)
	}
	if fn.Name != "nansum" || fn.Results != 1 {
		t.Errorf("Parse = %+v", fn)
	}
	if diff := cmp.Diff([]string{"T"}, fn.TypeParams); diff != "" {
		t.Errorf("TypeParams mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a"}, fn.Params); diff != "" {
		t.Errorf("Params mismatch (-want +got):\n%s", diff)
	}

	// Bare declarations and unnamed lookup.
	fn, err = Parse(moveSumSrc, "")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "window", "out"}, fn.Params); diff != "" {
		t.Errorf("Params mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		fn   string
	}{
		{"syntax", "func f(a []float64 float64 {", "f"},
		{"missing", nansumSrc, "nanmean"},
		{"ambiguous", "func f() {}\nfunc g() {}", ""},
		{"too many type params", "func f[A, B, C any](a []A) C { var c C; return c }", "f"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src, tt.fn)
			if !errors.Is(err, ErrTransform) {
				t.Errorf("Parse error = %v, want ErrTransform", err)
			}
		})
	}
}

func TestReduce(t *testing.T) {
	fn, err := Parse(nansumSrc, "nansum")
	if err != nil {
		t.Fatal(err)
	}
	k, err := Reduce(fn, mustSig(t, "float64(float32)"))
	if err != nil {
		t.Fatal(err)
	}
	if k.Name != "NansumFloat32ToFloat64" {
		t.Errorf("Name = %q", k.Name)
	}
	mustParseSource(t, k.Source)
	for _, want := range []string{
		"func NansumFloat32ToFloat64(a []float32, out []float64) {",
		"var s float32",
		"out[0] = float64(s)",
	} {
		if !strings.Contains(k.Source, want) {
			t.Errorf("Source missing %q:\n%s", want, k.Source)
		}
	}
	if strings.Contains(k.Source, "return") {
		t.Errorf("Source still returns:\n%s", k.Source)
	}
	if diff := cmp.Diff([]string{`"math"`}, k.Imports); diff != "" {
		t.Errorf("Imports mismatch (-want +got):\n%s", diff)
	}

	// Specializing twice yields identical text.
	again, err := Reduce(fn, mustSig(t, "float64(float32)"))
	if err != nil {
		t.Fatal(err)
	}
	if again.Source != k.Source {
		t.Errorf("Reduce is not deterministic:\n%s\n---\n%s", k.Source, again.Source)
	}
}

func TestReduceOutputNameCollision(t *testing.T) {
	src := `func total(out []float64) float64 {
	var s float64
	for _, v := range out {
		s += v
	}
	return s
}`
	fn, err := Parse(src, "total")
	if err != nil {
		t.Fatal(err)
	}
	k, err := Reduce(fn, mustSig(t, "float64(float64)"))
	if err != nil {
		t.Fatal(err)
	}
	mustParseSource(t, k.Source)
	if !strings.Contains(k.Source, "out_[0] = float64(s)") {
		t.Errorf("expected renamed output parameter:\n%s", k.Source)
	}
}

func TestReduceTwoTypeParams(t *testing.T) {
	src := `func count[T float32 | float64, R int64](a []T) R {
	var n R
	for _, v := range a {
		if v == v {
			n++
		}
	}
	return n
}`
	fn, err := Parse(src, "count")
	if err != nil {
		t.Fatal(err)
	}
	k, err := Reduce(fn, mustSig(t, "int64(float32)"))
	if err != nil {
		t.Fatal(err)
	}
	mustParseSource(t, k.Source)
	if !strings.Contains(k.Source, "var n int64") {
		t.Errorf("second type parameter not bound to output:\n%s", k.Source)
	}
}

func TestReduceClosureReturnAllowed(t *testing.T) {
	src := `func f(a []float64) float64 {
	g := func(x float64) float64 { return x * 2 }
	return g(a[0])
}`
	fn, err := Parse(src, "f")
	if err != nil {
		t.Fatal(err)
	}
	k, err := Reduce(fn, mustSig(t, "float64(float64)"))
	if err != nil {
		t.Fatal(err)
	}
	mustParseSource(t, k.Source)
}

func TestReduceErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"early return", `func f(a []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	return a[0]
}`},
		{"no tail return", `func f(a []float64) float64 {
	for {
	}
}`},
		{"two params", `func f(a, b []float64) float64 { return a[0] + b[0] }`},
		{"no result", `func f(a []float64) {}`},
		{"input element type", `func f(a []int32) float64 { return float64(a[0]) }`},
		{"input not a slice", `func f(a float64) float64 { return a }`},
		{"input array", `func f(a [4]float64) float64 { return a[0] }`},
		{"result type", `func f(a []float64) int32 { return int32(a[0]) }`},
		{"named result", `func f(a []float64) (s float64) {
	s = a[0]
	return s
}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := Parse(tt.src, "f")
			if err != nil {
				t.Fatal(err)
			}
			_, err = Reduce(fn, mustSig(t, "float64(float64)"))
			var te *Error
			if !errors.As(err, &te) || !errors.Is(err, ErrTransform) {
				t.Errorf("Reduce error = %v, want *Error wrapping ErrTransform", err)
			}
		})
	}
}

func TestMoving(t *testing.T) {
	fn, err := Parse(moveSumSrc, "move_sum")
	if err != nil {
		t.Fatal(err)
	}
	k, err := Moving(fn, mustSig(t, "float64(float64,int64)"))
	if err != nil {
		t.Fatal(err)
	}
	if k.Name != "MoveSumFloat64Int64ToFloat64" {
		t.Errorf("Name = %q", k.Name)
	}
	mustParseSource(t, k.Source)
	for _, want := range []string{
		"func MoveSumFloat64Int64ToFloat64(a []float64, window []int64, out []float64) {",
		"w := int(window[0])",
	} {
		if !strings.Contains(k.Source, want) {
			t.Errorf("Source missing %q:\n%s", want, k.Source)
		}
	}
	if len(k.Imports) != 0 {
		t.Errorf("Imports = %v, want none", k.Imports)
	}
}

func TestMovingGeneric(t *testing.T) {
	src := `func move_mean[T float32 | float64](a []T, window int64, out []T) {
	for i := range out {
		out[i] = T(window)
	}
}`
	fn, err := Parse(src, "move_mean")
	if err != nil {
		t.Fatal(err)
	}
	k, err := Moving(fn, mustSig(t, "float32(float32,int64)"))
	if err != nil {
		t.Fatal(err)
	}
	mustParseSource(t, k.Source)
	if !strings.Contains(k.Source, "out[i] = float32(window[0])") {
		t.Errorf("unexpected source:\n%s", k.Source)
	}
}

func TestMovingErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"reassigned", `func f(a []float64, window int64, out []float64) { window = 3 }`},
		{"incremented", `func f(a []float64, window int64, out []float64) { window++ }`},
		{"address", `func f(a []float64, window int64, out []float64) { p := &window; _ = p }`},
		{"redeclared", `func f(a []float64, window int64, out []float64) { var window int; _ = window }`},
		{"closure", `func f(a []float64, window int64, out []float64) {
	g := func() int64 { return window }
	out[0] = float64(g())
}`},
		{"returns", `func f(a []float64, window int64, out []float64) float64 { return 0 }`},
		{"arity", `func f(a []float64, out []float64) {}`},
		{"input element type", `func f(a []float32, window int64, out []float64) {}`},
		{"window type", `func f(a []float64, window int32, out []float64) {}`},
		{"output element type", `func f(a []float64, window int64, out []int64) {}`},
		{"output not a slice", `func f(a []float64, window int64, out float64) {}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := Parse(tt.src, "f")
			if err != nil {
				t.Fatal(err)
			}
			_, err = Moving(fn, mustSig(t, "float64(float64,int64)"))
			if !errors.Is(err, ErrTransform) {
				t.Errorf("Moving error = %v, want ErrTransform", err)
			}
		})
	}
}

func TestDeclaredTypeMismatchReason(t *testing.T) {
	fn, err := Parse(`func f(a []float64) int32 { return int32(a[0]) }`, "f")
	if err != nil {
		t.Fatal(err)
	}
	_, err = Reduce(fn, mustSig(t, "float64(float64)"))
	if err == nil || err.Error() != "transform: f: result has type int32, want float64" {
		t.Errorf("Reduce error = %v", err)
	}

	fn, err = Parse(`func g(a []float64, w int32, out []float64) { out[0] = a[0] }`, "g")
	if err != nil {
		t.Fatal(err)
	}
	_, err = Moving(fn, mustSig(t, "float64(float64,int64)"))
	if err == nil || err.Error() != "transform: g: window parameter w has type int32, want int64" {
		t.Errorf("Moving error = %v", err)
	}
	if _, err := Moving(fn, mustSig(t, "float64(float64,int32)")); err != nil {
		t.Errorf("Moving with matching window type: %v", err)
	}
}

func TestGenericWindowType(t *testing.T) {
	src := `func move_first[T float32 | float64](a []T, window T, out []T) {
	_ = window
	out[0] = a[0]
}`
	fn, err := Parse(src, "move_first")
	if err != nil {
		t.Fatal(err)
	}
	k, err := Moving(fn, mustSig(t, "float64(float64,int32)"))
	if err != nil {
		t.Fatal(err)
	}
	mustParseSource(t, k.Source)
	if !strings.Contains(k.Source, "window []int32") {
		t.Errorf("window parameter not specialized:\n%s", k.Source)
	}
}

func TestEntryName(t *testing.T) {
	tests := []struct {
		name string
		sig  string
		want string
	}{
		{"nansum", "float64(float64)", "NansumFloat64ToFloat64"},
		{"nanMean", "float32(float32)", "NanMeanFloat32ToFloat32"},
		{"move_nanmean", "float64(float64,int64)", "MoveNanmeanFloat64Int64ToFloat64"},
	}
	for _, tt := range tests {
		if got := EntryName(tt.name, mustSig(t, tt.sig)); got != tt.want {
			t.Errorf("EntryName(%q, %s) = %q, want %q", tt.name, tt.sig, got, tt.want)
		}
	}
}
