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

// Command ndagggen prints the kernel specializations ndagg derives from a
// Go aggregation function and optionally builds them.
//
//	ndagggen reduce -i nansum.go --func nansum --core-ndim 2
//	ndagggen moving -i move.go --func move_sum --compile
//	ndagggen env
package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajroetker/go-ndagg/ndagg"
)

type rootFlags struct {
	config  string
	verbose bool
	logger  *zap.Logger
	cfg     ndagg.Config
}

func newRootCmd() *cobra.Command {
	rf := &rootFlags{logger: zap.NewNop(), cfg: ndagg.DefaultConfig()}
	root := &cobra.Command{
		Use:           "ndagggen",
		Short:         "Inspect and build ndagg kernel specializations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rf.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = rf.logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&rf.config, "config", "", "YAML config file")
	root.PersistentFlags().BoolVarP(&rf.verbose, "verbose", "v", false, "log kernel builds at debug level")
	root.AddCommand(newGenCmd(rf, "reduce"), newGenCmd(rf, "moving"), newEnvCmd())
	return root
}

// init loads the config and builds the logger. The log encoding defaults to
// console on a terminal and JSON otherwise.
func (rf *rootFlags) init() error {
	if rf.config != "" {
		cfg, err := ndagg.LoadConfig(rf.config)
		if err != nil {
			return err
		}
		rf.cfg = cfg
	} else if lvl := os.Getenv(ndagg.EnvLogLevel); lvl != "" {
		rf.cfg.Log.Level = lvl
	}
	lc := rf.cfg.Log
	if rf.verbose {
		lc.Level = "debug"
	}
	if rf.config == "" || lc.Encoding == "" {
		lc.Encoding = "json"
		if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
			lc.Encoding = "console"
		}
	}
	logger, err := lc.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	rf.logger = logger
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ndagggen:", err)
		os.Exit(1)
	}
}
