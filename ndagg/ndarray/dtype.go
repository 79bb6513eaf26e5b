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

import "fmt"

// DType identifies the element type of an Array.
type DType int

const (
	InvalidDType DType = iota
	Float32
	Float64
	Int32
	Int64
)

// Number is the set of Go element types an Array can hold.
type Number interface {
	float32 | float64 | int32 | int64
}

var dtypeNames = map[DType]string{
	Float32: "float32",
	Float64: "float64",
	Int32:   "int32",
	Int64:   "int64",
}

// String returns the Go type name of the dtype ("float64", "int32", ...).
func (dt DType) String() string {
	if name, ok := dtypeNames[dt]; ok {
		return name
	}
	return fmt.Sprintf("DType(%d)", int(dt))
}

// IsFloat reports whether dt is a floating point type.
func (dt DType) IsFloat() bool {
	return dt == Float32 || dt == Float64
}

// IsInteger reports whether dt is an integer type.
func (dt DType) IsInteger() bool {
	return dt == Int32 || dt == Int64
}

// CanCast reports whether every value of dtype from is exactly
// representable in dtype to.
func CanCast(from, to DType) bool {
	switch {
	case from == to:
		return true
	case to == Float64:
		return from.IsFloat() || from.IsInteger()
	case to == Int64:
		return from == Int32
	}
	return false
}

// ParseDType maps a type name as written in a signature to a DType.
func ParseDType(name string) (DType, error) {
	for dt, n := range dtypeNames {
		if n == name {
			return dt, nil
		}
	}
	return InvalidDType, fmt.Errorf("ndarray: unsupported dtype %q", name)
}

// DTypeOf returns the DType for the Go type T.
func DTypeOf[T Number]() DType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int32:
		return Int32
	case int64:
		return Int64
	}
	return InvalidDType
}

// makeData allocates a zeroed backing slice of n elements for dt.
func makeData(dt DType, n int) any {
	switch dt {
	case Float32:
		return make([]float32, n)
	case Float64:
		return make([]float64, n)
	case Int32:
		return make([]int32, n)
	case Int64:
		return make([]int64, n)
	}
	panic(fmt.Sprintf("ndarray: makeData on %v", dt))
}
