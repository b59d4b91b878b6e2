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

// dpsweep compares the central (Laplace) and local (randomized response)
// differential privacy mechanisms on the count queries of a dataset. It runs
// every query at every epsilon a number of times per mechanism, writes one
// results file per query and mechanism, and summarizes the error and runtime
// of both mechanisms.
// Usage example:
// go run ./cmd/dpsweep --config=config/sweep.yml --dataset=data/students.csv --output_dir=results
// go run ./cmd/dpsweep --epsilons=0.1,1,10 --repetitions=100 --mechanisms=both --plots
// Summarize an earlier run without running trials:
// go run ./cmd/dpsweep --output_dir=results --report_only
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	log "github.com/golang/glog"

	"github.com/privacy-lab/dpcompare/config"
	"github.com/privacy-lab/dpcompare/dataset"
	"github.com/privacy-lab/dpcompare/experiment"
	"github.com/privacy-lab/dpcompare/report"
	"github.com/privacy-lab/dpcompare/results"
)

var (
	configFile  = flag.String("config", config.DefaultPath, "YAML configuration file. Ignored if it does not exist and was not set explicitly.")
	datasetPath = flag.String("dataset", "", "Delimited data file, or SQLite database ending in .db, .sqlite or .sqlite3.")
	table       = flag.String("table", "", "Table to read when the dataset is a SQLite database.")
	outputDir   = flag.String("output_dir", "", "Directory the results, report and plots are written to.")
	epsilons    = flag.String("epsilons", "", "Comma-separated privacy parameters, e.g. 0.05,0.1,0.2,0.5,1.")
	repetitions = flag.Int("repetitions", 0, "Trials per query and epsilon.")
	sensitivity = flag.Float64("sensitivity", 0, "Sensitivity of the Laplace mechanism.")
	mechanisms  = flag.String("mechanisms", "", "Comma-separated mechanisms: central, local or both.")
	parallelism = flag.Int("parallelism", 0, "Number of queries swept concurrently.")
	queries     = flag.String("queries", "", "Comma-separated names of the queries to run. All queries by default.")
	plots       = flag.Bool("plots", false, "Draw error and runtime charts.")
	reportOnly  = flag.Bool("report_only", false, "Summarize the results found in output_dir without running any trial.")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Exitf("Couldn't load the configuration, err = %v", err)
	}
	log.Infof("dpsweep was run with dataset = %q, output_dir = %q, epsilons = %v, repetitions = %d, mechanisms = %v",
		cfg.Dataset.Path, cfg.Output.Dir, cfg.Sweep.Epsilons, cfg.Sweep.Repetitions, cfg.Sweep.Mechanisms)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Exitf("Couldn't execute the sweep, err = %v", err)
	}
	log.Infof("Successfully finished the sweep")
}

func loadConfig() (*config.Config, error) {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	path := *configFile
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !set["config"] {
		log.Infof("No configuration file at %q, using the environment and defaults", path)
		path = ""
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if set["dataset"] {
		cfg.Dataset.Path = *datasetPath
	}
	if set["table"] {
		cfg.Dataset.Table = *table
	}
	if set["output_dir"] {
		cfg.Output.Dir = *outputDir
	}
	if set["epsilons"] {
		if err := cfg.SetEpsilons(*epsilons); err != nil {
			return nil, err
		}
	}
	if set["repetitions"] {
		cfg.Sweep.Repetitions = *repetitions
	}
	if set["sensitivity"] {
		cfg.Sweep.Sensitivity = *sensitivity
	}
	if set["mechanisms"] {
		cfg.Sweep.Mechanisms = strings.Split(*mechanisms, ",")
	}
	if set["parallelism"] {
		cfg.Sweep.Parallelism = *parallelism
	}
	if set["queries"] {
		cfg.Only = strings.Split(*queries, ",")
	}
	if set["plots"] {
		cfg.Output.Plots = *plots
	}
	return cfg, cfg.Validate()
}

func loadDataset(ctx context.Context, cfg *config.Config) (*dataset.Dataset, error) {
	if cfg.IsSQLite() {
		return dataset.LoadSQLite(ctx, cfg.Dataset.Path, cfg.Dataset.Table)
	}
	delimiter, err := cfg.Delimiter()
	if err != nil {
		return nil, err
	}
	return dataset.ReadCSV(cfg.Dataset.Path, delimiter)
}

// reportRecords returns the number of records for the local theoretical
// values of a report-only run, or 0 if the dataset is gone.
func reportRecords(ctx context.Context, cfg *config.Config) (int64, error) {
	if _, err := os.Stat(cfg.Dataset.Path); errors.Is(err, fs.ErrNotExist) {
		log.Warningf("Dataset %s not found, reporting without local theoretical values", cfg.Dataset.Path)
		return 0, nil
	}
	data, err := loadDataset(ctx, cfg)
	if err != nil {
		return 0, err
	}
	return int64(data.Len()), nil
}

func readTables(cfg *config.Config, ms []experiment.Mechanism) ([]experiment.ResultTable, error) {
	var tables []experiment.ResultTable
	for _, m := range ms {
		ts, err := results.ReadDir(cfg.Output.Dir, m)
		if err != nil {
			return nil, err
		}
		tables = append(tables, ts...)
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no results found in %q", cfg.Output.Dir)
	}
	return tables, nil
}

func sweep(ctx context.Context, cfg *config.Config, data *dataset.Dataset, ms []experiment.Mechanism) ([]experiment.ResultTable, error) {
	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	runner, err := experiment.NewRunner(data, registry)
	if err != nil {
		return nil, err
	}
	var tables []experiment.ResultTable
	for _, m := range ms {
		opts := cfg.Options(m)
		opts.Progress = func(t experiment.ResultTable) {
			log.Infof("Finished %d %v trials of %q", len(t.Rows), m, t.Query)
		}
		ts, err := runner.Run(ctx, opts)
		if err != nil {
			return nil, err
		}
		if err := results.WriteAll(cfg.Output.Dir, ts); err != nil {
			return nil, err
		}
		log.Infof("Wrote %d %v results files under %s", len(ts), m, cfg.Output.Dir)
		tables = append(tables, ts...)
	}
	return tables, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	ms, err := cfg.Mechanisms()
	if err != nil {
		return err
	}
	params := report.Params{Sensitivity: cfg.Sweep.Sensitivity}

	var tables []experiment.ResultTable
	if *reportOnly {
		if tables, err = readTables(cfg, ms); err != nil {
			return err
		}
		if params.Records, err = reportRecords(ctx, cfg); err != nil {
			return err
		}
	} else {
		data, err := loadDataset(ctx, cfg)
		if err != nil {
			return err
		}
		if tables, err = sweep(ctx, cfg, data, ms); err != nil {
			return err
		}
		params.Records = int64(data.Len())
	}
	return writeReport(cfg, tables, params)
}

func writeReport(cfg *config.Config, tables []experiment.ResultTable, params report.Params) error {
	var central, local []experiment.ResultTable
	for _, t := range tables {
		if t.Mechanism == experiment.Central {
			central = append(central, t)
		} else {
			local = append(local, t)
		}
	}
	summaries := report.SummarizeAll(tables, params)
	if err := report.WriteText(os.Stdout, summaries); err != nil {
		return err
	}
	comparisons := report.Compare(report.SummarizeAll(central, params), report.SummarizeAll(local, params))
	if len(comparisons) > 0 {
		if err := report.WriteComparison(os.Stdout, comparisons); err != nil {
			return err
		}
	}

	summaryFile := filepath.Join(cfg.Output.Dir, "summary.csv")
	f, err := os.Create(summaryFile)
	if err != nil {
		return fmt.Errorf("couldn't open the csv file = %q: %w", summaryFile, err)
	}
	if err := report.WriteCSV(f, summaries); err != nil {
		return errors.Join(fmt.Errorf("couldn't write to the csv file = %q: %w", summaryFile, err), f.Close())
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("couldn't close the csv file = %q: %w", summaryFile, err)
	}
	log.Infof("Wrote the summary to %s", summaryFile)

	if cfg.Output.Plots {
		paths, err := report.PlotAll(filepath.Join(cfg.Output.Dir, "plots"), tables)
		if err != nil {
			return err
		}
		log.Infof("Drew %d charts under %s", len(paths), filepath.Join(cfg.Output.Dir, "plots"))
	}
	return nil
}
