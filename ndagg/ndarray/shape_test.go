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

package ndarray

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		name    string
		in      []Shape
		want    Shape
		wantErr bool
	}{
		{"none", nil, Shape{}, false},
		{"scalar and vector", []Shape{{}, {3}}, Shape{3}, false},
		{"stretch ones", []Shape{{2, 1}, {1, 3}}, Shape{2, 3}, false},
		{"left pad", []Shape{{4, 2, 3}, {3}}, Shape{4, 2, 3}, false},
		{"three way", []Shape{{2, 1, 1}, {1, 5, 1}, {7}}, Shape{2, 5, 7}, false},
		{"mismatch", []Shape{{2, 3}, {4}}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BroadcastShapes(tt.in...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("BroadcastShapes(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("BroadcastShapes(%v) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestBroadcastStrides(t *testing.T) {
	tests := []struct {
		s, to Shape
		want  []int
	}{
		{Shape{2, 3}, Shape{2, 3}, []int{3, 1}},
		{Shape{3}, Shape{2, 3}, []int{0, 1}},
		{Shape{2, 1}, Shape{2, 3}, []int{1, 0}},
		{Shape{}, Shape{4}, []int{0}},
	}
	for _, tt := range tests {
		got := BroadcastStrides(tt.s, tt.to)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("BroadcastStrides(%v, %v) mismatch (-want +got):\n%s", tt.s, tt.to, diff)
		}
	}
}

func TestShapeStrides(t *testing.T) {
	if diff := cmp.Diff([]int{12, 4, 1}, Shape{2, 3, 4}.Strides()); diff != "" {
		t.Errorf("Strides mismatch (-want +got):\n%s", diff)
	}
	if got := (Shape{}).NumElements(); got != 1 {
		t.Errorf("0-d NumElements = %d, want 1", got)
	}
	if got := (Shape{3, 0}).NumElements(); got != 0 {
		t.Errorf("NumElements with zero dim = %d, want 0", got)
	}
}
