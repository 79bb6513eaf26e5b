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
	"fmt"

	"github.com/ajroetker/go-ndagg/ndagg/axis"
	"github.com/ajroetker/go-ndagg/ndagg/ndarray"
	"github.com/ajroetker/go-ndagg/ndagg/signature"
	"github.com/ajroetker/go-ndagg/ndagg/transform"
)

type (
	// SignatureError reports a malformed signature at registration.
	SignatureError = signature.Error
	// TransformError reports a function that cannot become a kernel.
	TransformError = transform.Error
	// AxisError reports an out-of-range or repeated axis.
	AxisError = axis.Error
)

var (
	ErrInvalidSignature = signature.ErrInvalidSignature
	ErrTransform        = transform.ErrTransform
	ErrAxis             = axis.ErrAxis
	// ErrWindow is the sentinel wrapped by every *WindowError.
	ErrWindow = errors.New("ndagg: invalid window")
)

// WindowError reports a moving-window size outside [1, Bound], or a window
// array that is not integer typed.
type WindowError struct {
	Bound   int
	Invalid []int64
	DType   ndarray.DType // set when the window dtype is not an integer type
}

func (e *WindowError) Error() string {
	if e.DType != ndarray.InvalidDType {
		return fmt.Sprintf("ndagg: window must have an integer dtype, got %s", e.DType)
	}
	return fmt.Sprintf("ndagg: invalid window (not between 1 and %d, inclusive): %v", e.Bound, e.Invalid)
}

func (e *WindowError) Unwrap() error { return ErrWindow }
