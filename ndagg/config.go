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
	"fmt"
	"os"
	"slices"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ajroetker/go-ndagg/ndagg/signature"
)

// EnvLogLevel overrides Config.Log.Level when set.
const EnvLogLevel = "NDAGG_LOG_LEVEL"

var (
	// DefaultReduceSignatures are used when a reduction is registered
	// without signatures.
	DefaultReduceSignatures = []string{"float32(float32)", "float64(float64)"}
	// DefaultMovingSignatures are used when a moving-window operator is
	// registered without signatures.
	DefaultMovingSignatures = []string{"float32(float32,int64)", "float64(float64,int64)"}
)

// Config is the YAML configuration shared by operators and ndagggen.
//
//	reduce:
//	  signatures: ["float64(float64)"]
//	moving:
//	  signatures: ["float64(float64,int64)"]
//	log:
//	  level: debug
//	  encoding: console
type Config struct {
	Reduce OperatorConfig `yaml:"reduce"`
	Moving OperatorConfig `yaml:"moving"`
	Log    LogConfig      `yaml:"log"`
}

// OperatorConfig holds per-kind operator defaults.
type OperatorConfig struct {
	Signatures []string `yaml:"signatures"`
}

// LogConfig selects the zap logger built by LogConfig.Build.
type LogConfig struct {
	Level    string `yaml:"level"`    // debug, info, warn, error; empty means info
	Encoding string `yaml:"encoding"` // json or console; empty means json
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Reduce: OperatorConfig{Signatures: slices.Clone(DefaultReduceSignatures)},
		Moving: OperatorConfig{Signatures: slices.Clone(DefaultMovingSignatures)},
		Log:    LogConfig{Level: "info", Encoding: "json"},
	}
}

// ParseConfig decodes YAML on top of DefaultConfig, applies the environment
// override and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("ndagg: parse config: %w", err)
	}
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		cfg.Log.Level = lvl
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses the YAML file at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("ndagg: read config: %w", err)
	}
	return ParseConfig(data)
}

// Validate checks signatures and logging settings.
func (c Config) Validate() error {
	if _, err := signature.ParseAll(c.Reduce.Signatures, 1); err != nil {
		return fmt.Errorf("ndagg: config reduce.signatures: %w", err)
	}
	if _, err := signature.ParseAll(c.Moving.Signatures, 2); err != nil {
		return fmt.Errorf("ndagg: config moving.signatures: %w", err)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("ndagg: config log.level: %w", err)
	}
	switch c.Log.Encoding {
	case "", "json", "console":
	default:
		return fmt.Errorf("ndagg: config log.encoding: unknown encoding %q", c.Log.Encoding)
	}
	return nil
}

// Build returns a zap logger for c.
func (c LogConfig) Build() (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("ndagg: log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	if c.Encoding == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = lvl
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("ndagg: build logger: %w", err)
	}
	return logger, nil
}
