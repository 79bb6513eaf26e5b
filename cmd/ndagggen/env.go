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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajroetker/go-ndagg/internal/cpuinfo"
)

func newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Args:  cobra.NoArgs,
		Short: "Print the runtime and CPU features kernels run with",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if err := cpuinfo.Collect().Write(w); err != nil {
				return err
			}
			_, err := fmt.Fprintln(w, "\nKernel backend: yaegi interpreter")
			return err
		},
	}
}
