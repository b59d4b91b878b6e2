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

// Package experiment runs the privacy sweep: every query of a registry is
// privatized under one mechanism for every epsilon of a sequence, a fixed
// number of times, recording the noisy value, the absolute error and the
// runtime of every single trial.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/privacy-lab/dpcompare/checks"
	"github.com/privacy-lab/dpcompare/dataset"
	"github.com/privacy-lab/dpcompare/query"
	"github.com/privacy-lab/dpcompare/rand"
)

// ErrInvalidConfig is returned when a sweep is misconfigured. No trial is run
// in that case.
var ErrInvalidConfig = errors.New("invalid experiment configuration")

// DefaultSensitivity is the Laplace sensitivity of a count query.
const DefaultSensitivity = 1.0

// Options contains the options necessary to run a sweep.
type Options struct {
	Epsilons    []float64 // Privacy parameters ε, in row order. Required.
	Repetitions int       // Trials per query and ε. Required, at least 1.
	Mechanism   Mechanism // Central or Local. Required.
	// Sensitivity calibrates the Laplace noise of the central mechanism.
	// Defaults to DefaultSensitivity.
	Sensitivity float64
	// Parallelism is the number of queries swept concurrently. Defaults to 1,
	// a fully sequential sweep. Every concurrent worker owns its own random
	// source.
	Parallelism int
	// Progress, if set, is called with every completed table. Calls are
	// serialized.
	Progress func(ResultTable)
}

func (o Options) withDefaults() Options {
	if o.Sensitivity == 0 {
		o.Sensitivity = DefaultSensitivity
	}
	if o.Parallelism == 0 {
		o.Parallelism = 1
	}
	return o
}

// Validate returns an ErrInvalidConfig error describing the first invalid
// option.
func (o Options) Validate() error {
	o = o.withDefaults()
	if err := checks.CheckEpsilons(o.Epsilons); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := checks.CheckRepetitions(o.Repetitions); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := checks.CheckSensitivity(o.Sensitivity); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := checks.CheckParallelism(o.Parallelism); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if o.Mechanism != Central && o.Mechanism != Local {
		return fmt.Errorf("%w: unknown mechanism %v", ErrInvalidConfig, o.Mechanism)
	}
	return nil
}

// Runner sweeps the queries of a registry over a dataset. Both are fixed for
// the lifetime of the Runner.
type Runner struct {
	data     *dataset.Dataset
	registry *query.Registry
}

// NewRunner returns a Runner over d and r.
func NewRunner(d *dataset.Dataset, r *query.Registry) (*Runner, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: no dataset", ErrInvalidConfig)
	}
	if r == nil || r.Len() == 0 {
		return nil, fmt.Errorf("%w: no queries", ErrInvalidConfig)
	}
	return &Runner{data: d, registry: r}, nil
}

// Run executes the sweep and returns one table per query, in registry order.
//
// The options and every query are validated, and every true value is
// computed, before the first trial runs. Any failing trial aborts the whole
// sweep and no tables are returned, since a partial set of trials would bias
// the statistics computed from them.
func (r *Runner) Run(ctx context.Context, opts Options) ([]ResultTable, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	evals, err := r.registry.Evaluate(r.data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	queries := r.registry.Queries()
	if opts.Mechanism == Local {
		for i, e := range evals {
			if !e.HasIndicators() {
				log.Warningf("Query %q has no per-record indicator, its local results are not privatized", queries[i].Name)
			}
		}
	}
	log.Infof("Running %v sweep: queries %v x %d epsilons x %d repetitions over %d records",
		opts.Mechanism, r.registry.Names(), len(opts.Epsilons), opts.Repetitions, r.data.Len())

	var progressLock sync.Mutex
	report := func(t ResultTable) {
		if opts.Progress == nil {
			return
		}
		progressLock.Lock()
		defer progressLock.Unlock()
		opts.Progress(t)
	}

	tables := make([]ResultTable, len(queries))
	if opts.Parallelism == 1 {
		x := NewExecutor(rand.Default(), opts.Sensitivity)
		for i, q := range queries {
			t, err := sweepQuery(ctx, x, q.Name, evals[i], opts)
			if err != nil {
				return nil, err
			}
			tables[i] = t
			report(t)
		}
		return tables, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallelism)
	for i, q := range queries {
		g.Go(func() error {
			x := NewExecutor(rand.NewSource(), opts.Sensitivity)
			t, err := sweepQuery(gctx, x, q.Name, evals[i], opts)
			if err != nil {
				return err
			}
			tables[i] = t
			report(t)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

func sweepQuery(ctx context.Context, x *Executor, name string, eval query.Evaluation, opts Options) (ResultTable, error) {
	rows := make([]Row, 0, len(opts.Epsilons)*opts.Repetitions)
	for _, eps := range opts.Epsilons {
		for rep := 0; rep < opts.Repetitions; rep++ {
			if err := ctx.Err(); err != nil {
				return ResultTable{}, fmt.Errorf("query %q: %w", name, err)
			}
			o, err := x.Run(opts.Mechanism, eval, eps)
			if err != nil {
				return ResultTable{}, fmt.Errorf("query %q, repetition %d: %w", name, rep, err)
			}
			if log.V(2) {
				log.Infof("%s %v eps=%g rep=%d: noisy=%g error=%g runtime=%v", name, opts.Mechanism, eps, rep, o.NoisyValue, o.Error, o.Elapsed)
			}
			rows = append(rows, Row{Epsilon: eps, NoisyValue: o.NoisyValue, Error: o.Error, Runtime: o.Elapsed})
		}
	}
	log.V(1).Infof("Finished %v sweep of %q (true value %g, %d trials)", opts.Mechanism, name, eval.TrueValue, len(rows))
	return ResultTable{Query: name, Mechanism: opts.Mechanism, TrueValue: eval.TrueValue, Rows: rows}, nil
}
