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

// Package cpuinfo reports the host runtime and the CPU features detected by
// golang.org/x/sys/cpu.
package cpuinfo

import (
	"fmt"
	"io"
	"runtime"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// Feature is one detected CPU capability.
type Feature struct {
	Name string
	Has  bool
	Note string
}

// Report describes the machine kernels run on.
type Report struct {
	GOOS      string
	GOARCH    string
	NumCPU    int
	GoVersion string
	CacheLine int
	Features  []Feature
}

// Collect gathers a Report for the running process.
func Collect() Report {
	r := Report{
		GOOS:      runtime.GOOS,
		GOARCH:    runtime.GOARCH,
		NumCPU:    runtime.NumCPU(),
		GoVersion: runtime.Version(),
		CacheLine: int(unsafe.Sizeof(cpu.CacheLinePad{})),
	}
	switch runtime.GOARCH {
	case "arm64":
		r.Features = arm64Features()
	case "amd64":
		r.Features = amd64Features()
	}
	return r
}

func arm64Features() []Feature {
	return []Feature{
		{"ASIMD", cpu.ARM64.HasASIMD, "NEON baseline"},
		{"FP", cpu.ARM64.HasFP, "floating point"},
		{"FPHP", cpu.ARM64.HasFPHP, "FP16 scalar"},
		{"ASIMDHP", cpu.ARM64.HasASIMDHP, "FP16 NEON"},
		{"SVE", cpu.ARM64.HasSVE, ""},
		{"SVE2", cpu.ARM64.HasSVE2, ""},
		{"ATOMICS", cpu.ARM64.HasATOMICS, "large system extensions"},
	}
}

func amd64Features() []Feature {
	return []Feature{
		{"SSE2", cpu.X86.HasSSE2, ""},
		{"SSE41", cpu.X86.HasSSE41, ""},
		{"SSE42", cpu.X86.HasSSE42, ""},
		{"AVX", cpu.X86.HasAVX, ""},
		{"AVX2", cpu.X86.HasAVX2, ""},
		{"FMA", cpu.X86.HasFMA, ""},
		{"AVX512F", cpu.X86.HasAVX512F, ""},
		{"AVX512BW", cpu.X86.HasAVX512BW, ""},
	}
}

// Write prints r in the same layout as `ndagggen env`.
func (r Report) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "GOOS: %s\nGOARCH: %s\nNumCPU: %d\nGo: %s\nCache line: %d bytes\n",
		r.GOOS, r.GOARCH, r.NumCPU, r.GoVersion, r.CacheLine); err != nil {
		return err
	}
	if len(r.Features) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "\n=== golang.org/x/sys/cpu (%s) ===\n", r.GOARCH); err != nil {
		return err
	}
	for _, f := range r.Features {
		line := fmt.Sprintf("  Has%-10s %v", f.Name+":", f.Has)
		if f.Note != "" {
			line += " (" + f.Note + ")"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
