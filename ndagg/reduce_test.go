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
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"

	"github.com/ajroetker/go-ndagg/ndagg/compile"
	"github.com/ajroetker/go-ndagg/ndagg/gufunc"
	"github.com/ajroetker/go-ndagg/ndagg/ndarray"
)

const sumSrc = `func sum[T float32 | float64](a []T) T {
	var s T
	for _, v := range a {
		s += v
	}
	return s
}`

const firstSrc = `func first(a []float64) float64 {
	return a[0]
}`

func nativeSum[T ndarray.Number](a []T, out []T) {
	var s T
	for _, v := range a {
		s += v
	}
	out[0] = s
}

func nativeMoveSum(a []float64, window []int64, out []float64) {
	w := int(window[0])
	var s float64
	for i := range a {
		s += a[i]
		if i >= w {
			s -= a[i-w]
		}
		out[i] = s
	}
}

// countingService builds native kernels and records every build.
type countingService struct {
	mu     sync.Mutex
	builds map[int]int
	specs  []*compile.Spec
}

func newCountingService() *countingService {
	return &countingService{builds: map[int]int{}}
}

func (s *countingService) Compile(spec *compile.Spec) (compile.Kernel, error) {
	s.mu.Lock()
	s.builds[spec.CoreNDim]++
	s.specs = append(s.specs, spec)
	s.mu.Unlock()
	if spec.Kind == compile.Moving {
		return gufunc.NewKernel(spec.Name, spec.Layout, gufunc.MovingLoop(nativeMoveSum))
	}
	return gufunc.NewKernel(spec.Name, spec.Layout,
		gufunc.ReduceLoop(nativeSum[float32]), gufunc.ReduceLoop(nativeSum[float64]))
}

func (s *countingService) count(coreNDim int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.builds[coreNDim]
}

var matrix = ndarray.MustFromSlice([]float64{1, 2, 3, 4, 5, 6}, 2, 3)

func TestReductionSum(t *testing.T) {
	sum, err := NewReduction(sumSrc)
	require.NoError(t, err)

	tests := []struct {
		name  string
		axes  []int
		shape ndarray.Shape
		want  []float64
	}{
		{"axis 0", []int{0}, ndarray.Shape{3}, []float64{5, 7, 9}},
		{"axis 1", []int{1}, ndarray.Shape{2}, []float64{6, 15}},
		{"axis -1", []int{-1}, ndarray.Shape{2}, []float64{6, 15}},
		{"axes 0,1", []int{0, 1}, ndarray.Shape{}, []float64{21}},
		{"full", nil, ndarray.Shape{}, []float64{21}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sum.Call(matrix, tt.axes...)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.shape, got.Shape()); diff != "" {
				t.Errorf("shape mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.want, got.Float64s()); diff != "" {
				t.Errorf("values mismatch (-want +got):\n%s", diff)
			}
		})
	}

	// Full reduction of a 2-d array and the (0,1) reduction share one kernel.
	if diff := cmp.Diff([]int{1, 2}, sum.Specializations()); diff != "" {
		t.Errorf("Specializations mismatch (-want +got):\n%s", diff)
	}
}

func TestReductionIntegerInput(t *testing.T) {
	sum := MustReduction(sumSrc)

	got, err := sum.Call(ndarray.MustFromSlice([]int64{1, 2, 3, 4, 5, 6}, 2, 3), 1)
	require.NoError(t, err)
	require.Equal(t, ndarray.Float64, got.DType())
	require.Equal(t, []float64{6, 15}, got.Float64s())

	got, err = sum.Call(ndarray.MustFromSlice([]int32{1, 2, 3}))
	require.NoError(t, err)
	require.Equal(t, ndarray.Float64, got.DType())
	v, err := got.Item()
	require.NoError(t, err)
	require.Equal(t, 6.0, v)
}

func TestReductionEmptyAxes(t *testing.T) {
	sum := MustReduction(sumSrc, WithSignatures("float64(float64)"), WithCompiler(newCountingService()))
	got, err := sum.Call(matrix, []int{}...)
	require.NoError(t, err)
	require.Equal(t, ndarray.Shape{}, got.Shape())
	v, err := got.Item()
	require.NoError(t, err)
	require.Equal(t, 21.0, v)
	require.Equal(t, []int{2}, sum.Specializations())
}

func TestReductionMatchesPerAxisSum(t *testing.T) {
	data := make([]float64, 2*3*4)
	for i := range data {
		data[i] = float64(i*7%11) - 3
	}
	arr := ndarray.MustFromSlice(data, 2, 3, 4)
	sum := MustReduction(sumSrc, WithSignatures("float64(float64)"))

	shape := arr.Shape()
	for ax := 0; ax < arr.NDim(); ax++ {
		for _, a := range []int{ax, ax - arr.NDim()} {
			got, err := sum.Call(arr, a)
			require.NoError(t, err)

			want := map[[2]int]float64{}
			for i := 0; i < shape[0]; i++ {
				for j := 0; j < shape[1]; j++ {
					for k := 0; k < shape[2]; k++ {
						idx := []int{i, j, k}
						v, err := arr.At(idx...)
						require.NoError(t, err)
						rest := append(append([]int{}, idx[:ax]...), idx[ax+1:]...)
						want[[2]int{rest[0], rest[1]}] += v
					}
				}
			}
			gotShape := got.Shape()
			require.Len(t, gotShape, 2)
			for key, w := range want {
				v, err := got.At(key[0], key[1])
				require.NoError(t, err)
				if v != w {
					t.Errorf("axis %d at %v = %v, want %v", a, key, v, w)
				}
			}
		}
	}
}

func TestReductionMultipleAxesOrder(t *testing.T) {
	arr := ndarray.MustFromSlice([]float64{
		0, 1, 2, 3,
		4, 5, 6, 7,
		8, 9, 10, 11,

		12, 13, 14, 15,
		16, 17, 18, 19,
		20, 21, 22, 23,
	}, 2, 3, 4)
	sum := MustReduction(sumSrc)
	got, err := sum.Call(arr, 2, 0)
	require.NoError(t, err)
	require.Equal(t, ndarray.Shape{3}, got.Shape())
	require.Equal(t, []float64{0 + 1 + 2 + 3 + 12 + 13 + 14 + 15, 4 + 5 + 6 + 7 + 16 + 17 + 18 + 19, 8 + 9 + 10 + 11 + 20 + 21 + 22 + 23}, got.Float64s())
}

func TestReductionSingleElement(t *testing.T) {
	first := MustReduction(firstSrc, WithSignatures("float64(float64)"))
	got, err := first.Call(ndarray.MustFromSlice([]float64{42}), 0)
	require.NoError(t, err)
	require.Equal(t, 0, got.NDim())
	v, err := got.Item()
	require.NoError(t, err)
	require.Equal(t, 42.0, v)

	got, err = first.Call(ndarray.MustFromSlice([]float64{42}))
	require.NoError(t, err)
	v, err = got.Item()
	require.NoError(t, err)
	require.Equal(t, 42.0, v)
}

func TestReductionFloat32(t *testing.T) {
	sum := MustReduction(sumSrc)
	got, err := sum.Call(ndarray.MustFromSlice([]float32{1, 2, 3, 4}, 2, 2), 1)
	require.NoError(t, err)
	require.Equal(t, ndarray.Float32, got.DType())
	require.Equal(t, []float64{3, 7}, got.Float64s())
}

func TestReductionAxisErrors(t *testing.T) {
	sum := MustReduction(sumSrc, WithCompiler(newCountingService()))
	for _, axes := range [][]int{{2}, {-3}, {0, 0}, {1, -1}} {
		_, err := sum.Call(matrix, axes...)
		var ae *AxisError
		if !errors.As(err, &ae) || !errors.Is(err, ErrAxis) {
			t.Errorf("Call(axes %v) error = %v, want AxisError", axes, err)
		}
	}
	for _, a := range []int{1, -2} {
		if _, err := sum.Call(matrix, a); err != nil {
			t.Errorf("Call(axis %d) unexpected error: %v", a, err)
		}
	}
}

func TestReductionBuildsOncePerNDim(t *testing.T) {
	svc := newCountingService()
	sum := MustReduction(sumSrc, WithCompiler(svc))

	a := ndarray.MustFromSlice([]float64{1, 2, 3, 4}, 2, 2)
	b := ndarray.MustFromSlice([]float64{5, 6, 7, 8, 9, 10}, 3, 2)
	var g errgroup.Group
	for i := 0; i < 16; i++ {
		arr := a
		if i%2 == 1 {
			arr = b
		}
		g.Go(func() error {
			_, err := sum.Call(arr)
			return err
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, 1, svc.count(2))

	_, err := sum.Call(a, 0)
	require.NoError(t, err)
	_, err = sum.Call(b, -1)
	require.NoError(t, err)
	require.Equal(t, 1, svc.count(1))
	require.Equal(t, []int{1, 2}, sum.Specializations())
}

func TestReductionCompileErrorPropagates(t *testing.T) {
	boom := errors.New("backend unavailable")
	calls := 0
	svc := compile.ServiceFunc(func(*compile.Spec) (compile.Kernel, error) {
		calls++
		return nil, boom
	})
	sum := MustReduction(sumSrc, WithCompiler(svc))
	for i := 0; i < 2; i++ {
		_, err := sum.Call(matrix, 0)
		if err != boom {
			t.Fatalf("Call error = %v, want the service error unchanged", err)
		}
	}
	if calls != 1 {
		t.Errorf("service called %d times, want 1", calls)
	}
}

func TestReductionSpec(t *testing.T) {
	sum := MustReduction(sumSrc)
	spec := sum.Spec(2)
	require.Equal(t, "sum", spec.Name)
	require.Equal(t, compile.Reduce, spec.Kind)
	require.Equal(t, "(a,b)->()", spec.Layout)
	require.Len(t, spec.Entries, 2)
	require.Equal(t, "void(float32[:,:], float32[:])", spec.Entries[0].Declaration)
	require.Equal(t, "SumFloat64ToFloat64", spec.Entries[1].Name)
	require.Empty(t, sum.Specializations(), "Spec must not build anything")
}

func TestRegistrationErrors(t *testing.T) {
	_, err := NewReduction(sumSrc, WithSignatures("float64"))
	var se *SignatureError
	if !errors.As(err, &se) {
		t.Errorf("bad signature error = %v, want SignatureError", err)
	}
	_, err = NewReduction(sumSrc, WithSignatures("float64(float64,int64)"))
	if !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("arity error = %v, want ErrInvalidSignature", err)
	}
	_, err = NewReduction(`func f(a []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	return a[0]
}`)
	var te *TransformError
	if !errors.As(err, &te) {
		t.Errorf("early return error = %v, want TransformError", err)
	}
	require.Panics(t, func() { MustReduction("not go") })
}

func TestReductionDuplicateSignatures(t *testing.T) {
	sum := MustReduction(sumSrc, WithSignatures("float64(float64)", "float64(float64)"))
	require.Len(t, sum.Signatures(), 1)
	got, err := sum.Call(matrix)
	require.NoError(t, err)
	v, err := got.Item()
	require.NoError(t, err)
	require.Equal(t, 21.0, v)
}

func TestReductionLogsBuilds(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	sum := MustReduction(sumSrc, WithCompiler(newCountingService()), WithLogger(zap.New(core)))
	_, err := sum.Call(matrix, 0)
	require.NoError(t, err)
	entries := logs.FilterMessage("built kernel").All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	require.Equal(t, "sum", ctx["op"])
	require.Equal(t, int64(1), ctx["core_ndim"])
}
