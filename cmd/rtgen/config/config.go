// Copyright 2022 Michael J. Fromberger. All Rights Reserved.
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

// Package config defines the configuration settings shared by the
// subcommands of the rtgen command-line tool.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/creachadair/atomicfile"
	yaml "gopkg.in/yaml.v3"
)

// Settings represents the stored configuration settings for the rtgen
// tool. Command-line flags override the stored values.
type Settings struct {
	// Context value governing the execution of the tool.
	Context context.Context `json:"-" yaml:"-"`

	// The directory where table files are created and resumed.
	TableDir string `json:"tableDir" yaml:"table-dir"`

	// The number of concurrent chain workers (0 means one per CPU).
	Workers int `json:"workers" yaml:"workers"`

	// The record flush and progress cadence (0 means the default).
	FlushEvery int `json:"flushEvery" yaml:"flush-every"`
}

// Default returns the settings used when no configuration file exists.
func Default() *Settings { return &Settings{TableDir: "."} }

// Load reads and parses the settings at path. If path does not exist,
// Load returns default settings without error.
func Load(path string) (*Settings, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	} else if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

const defaultConfig = `# Configuration for the rtgen tool.

# Directory where table files are created and resumed.
table-dir: .

# Number of concurrent chain workers; 0 means one per CPU.
workers: 0

# Flush and progress cadence in records; 0 means the default (100000).
flush-every: 0
`

// WriteDefault writes a commented default configuration file at path.
// It reports an error if the file already exists.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %q already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return atomicfile.WriteData(path, []byte(defaultConfig), 0600)
}
