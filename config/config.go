//
// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package config loads the sweep configuration from a YAML file, with
// DPCOMPARE_* environment variables overriding file values and defaults
// filling whatever neither sets.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/privacy-lab/dpcompare/checks"
	"github.com/privacy-lab/dpcompare/dataset"
	"github.com/privacy-lab/dpcompare/experiment"
	"github.com/privacy-lab/dpcompare/query"
)

// DefaultPath is where the command-line programs look for a configuration
// file.
const DefaultPath = "config/sweep.yml"

// Dataset locates the input data.
type Dataset struct {
	// Path is a delimited text file, or a SQLite database if it ends in
	// .db, .sqlite or .sqlite3.
	Path      string `yaml:"path" env:"DPCOMPARE_DATASET" env-default:"data/students.csv"`
	Table     string `yaml:"table" env:"DPCOMPARE_TABLE" env-default:"students"`
	Delimiter string `yaml:"delimiter" env:"DPCOMPARE_DELIMITER" env-default:";"`
}

// Sweep holds the experiment parameters.
type Sweep struct {
	Epsilons    []float64 `yaml:"epsilons" env:"DPCOMPARE_EPSILONS" env-default:"0.05,0.1,0.2,0.5,1.0"`
	Repetitions int       `yaml:"repetitions" env:"DPCOMPARE_REPETITIONS" env-default:"10"`
	Sensitivity float64   `yaml:"sensitivity" env:"DPCOMPARE_SENSITIVITY" env-default:"1.0"`
	Mechanisms  []string  `yaml:"mechanisms" env:"DPCOMPARE_MECHANISMS" env-default:"central,local"`
	Parallelism int       `yaml:"parallelism" env:"DPCOMPARE_PARALLELISM" env-default:"1"`
}

// Output says where results, reports and plots go.
type Output struct {
	Dir   string `yaml:"dir" env:"DPCOMPARE_OUTPUT_DIR" env-default:"results"`
	Plots bool   `yaml:"plots" env:"DPCOMPARE_PLOTS"`
}

// Config is the full configuration of a sweep.
type Config struct {
	Dataset Dataset `yaml:"dataset"`
	Sweep   Sweep   `yaml:"sweep"`
	Output  Output  `yaml:"output"`
	// Queries replaces the built-in student queries when non-empty.
	Queries []query.Definition `yaml:"queries"`
	// Only restricts the sweep to the named queries.
	Only []string `yaml:"only" env:"DPCOMPARE_QUERIES"`
}

// Load reads the configuration file at path, then the environment. With an
// empty path only the environment and defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", experiment.ErrInvalidConfig, err)
		}
	} else if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("%w: couldn't read %q: %w", experiment.ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every setting that can be checked without the dataset.
func (c *Config) Validate() error {
	// A zero sensitivity would be replaced by the default in Options.
	if err := checks.CheckSensitivity(c.Sweep.Sensitivity); err != nil {
		return fmt.Errorf("%w: %w", experiment.ErrInvalidConfig, err)
	}
	if err := c.Options(experiment.Central).Validate(); err != nil {
		return err
	}
	if _, err := c.Mechanisms(); err != nil {
		return err
	}
	if _, err := c.Delimiter(); err != nil {
		return err
	}
	if c.Dataset.Path == "" {
		return fmt.Errorf("%w: no dataset path", experiment.ErrInvalidConfig)
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("%w: no output directory", experiment.ErrInvalidConfig)
	}
	if _, err := c.Registry(); err != nil {
		return fmt.Errorf("%w: %w", experiment.ErrInvalidConfig, err)
	}
	return nil
}

// Delimiter returns the single-character field delimiter of the dataset file.
func (c *Config) Delimiter() (rune, error) {
	d := c.Dataset.Delimiter
	if d == "" {
		return dataset.DefaultDelimiter, nil
	}
	if d == `\t` {
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(d)
	if size != len(d) || r == utf8.RuneError {
		return 0, fmt.Errorf("%w: delimiter %q must be a single character", experiment.ErrInvalidConfig, d)
	}
	return r, nil
}

// IsSQLite reports whether the dataset path names a SQLite database.
func (c *Config) IsSQLite() bool {
	switch strings.ToLower(filepath.Ext(c.Dataset.Path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// Mechanisms returns the selected mechanisms.
func (c *Config) Mechanisms() ([]experiment.Mechanism, error) {
	return experiment.ParseMechanisms(c.Sweep.Mechanisms)
}

// Registry returns the configured queries: the built-in student queries
// unless Queries is set, restricted to Only if that is set.
func (c *Config) Registry() (*query.Registry, error) {
	r := query.StudentRegistry()
	if len(c.Queries) > 0 {
		var err error
		if r, err = query.FromDefinitions(c.Queries); err != nil {
			return nil, err
		}
	}
	if len(c.Only) > 0 {
		return r.Select(c.Only...)
	}
	return r, nil
}

// Options returns the runner options for mechanism m.
func (c *Config) Options(m experiment.Mechanism) experiment.Options {
	return experiment.Options{
		Epsilons:    c.Sweep.Epsilons,
		Repetitions: c.Sweep.Repetitions,
		Sensitivity: c.Sweep.Sensitivity,
		Mechanism:   m,
		Parallelism: c.Sweep.Parallelism,
	}
}

// SetEpsilons parses a comma-separated list of epsilons, as given on the
// command line, and replaces the configured ones.
func (c *Config) SetEpsilons(list string) error {
	var eps []float64
	for _, f := range strings.Split(list, ",") {
		v, err := dataset.ParseNumber(f)
		if err != nil {
			return fmt.Errorf("%w: epsilon %q: %w", experiment.ErrInvalidConfig, f, err)
		}
		eps = append(eps, v)
	}
	if err := checks.CheckEpsilons(eps); err != nil {
		return fmt.Errorf("%w: %w", experiment.ErrInvalidConfig, err)
	}
	c.Sweep.Epsilons = eps
	return nil
}
