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

// Package report summarizes experiment result tables: per-epsilon error and
// runtime statistics next to the error the mechanism is expected to produce,
// comparisons between the central and local mechanisms, text and CSV
// rendering, and plots.
package report

import (
	"fmt"
	"math"

	log "github.com/golang/glog"
	"gonum.org/v1/gonum/stat"

	"github.com/privacy-lab/dpcompare/experiment"
	"github.com/privacy-lab/dpcompare/noise"
)

// Params describes how the summarized tables were produced.
type Params struct {
	// Records is the number of records in the dataset. Local theoretical
	// values are NaN if it is not positive.
	Records int64
	// Sensitivity of the central mechanism. Defaults to
	// experiment.DefaultSensitivity.
	Sensitivity float64
	// Alpha is the miss probability of Summary.ErrorBound. Defaults to
	// DefaultAlpha.
	Alpha float64
}

// DefaultAlpha gives 95% error bounds.
const DefaultAlpha = 0.05

// Summary aggregates the trials of one query at one epsilon. Runtimes are in
// seconds.
type Summary struct {
	Query     string
	Mechanism experiment.Mechanism
	Epsilon   float64
	Trials    int
	TrueValue float64

	MeanNoisyValue float64
	MeanError      float64
	StdDevError    float64
	MeanRuntime    float64
	StdDevRuntime  float64

	// ExpectedStdDev and ExpectedBias describe the distribution of the noisy
	// value: √2·s/ε and 0 for Laplace noise, √(n·p·(1-p)) and (n-2k)·(1-p)
	// for randomized response.
	ExpectedStdDev float64
	ExpectedBias   float64
	// ErrorBound is the half-width of the 1-α confidence interval around a
	// central noisy value: |error| stays below it with probability 1-α. It is
	// NaN for the local mechanism.
	ErrorBound float64
}

// Summarize returns one summary per epsilon of t, in the table's epsilon
// order.
func Summarize(t experiment.ResultTable, params Params) []Summary {
	if params.Sensitivity == 0 {
		params.Sensitivity = experiment.DefaultSensitivity
	}
	if params.Alpha == 0 {
		params.Alpha = DefaultAlpha
	}
	var summaries []Summary
	for _, eps := range t.Epsilons() {
		rows := t.RowsFor(eps)
		noisy := make([]float64, len(rows))
		errs := make([]float64, len(rows))
		runtimes := make([]float64, len(rows))
		for i, r := range rows {
			noisy[i] = r.NoisyValue
			errs[i] = r.Error
			runtimes[i] = r.RuntimeSeconds()
		}
		s := Summary{
			Query:          t.Query,
			Mechanism:      t.Mechanism,
			Epsilon:        eps,
			Trials:         len(rows),
			TrueValue:      t.TrueValue,
			MeanNoisyValue: stat.Mean(noisy, nil),
		}
		s.MeanError, s.StdDevError = meanStdDev(errs)
		s.MeanRuntime, s.StdDevRuntime = meanStdDev(runtimes)
		s.ExpectedStdDev, s.ExpectedBias = expected(t, eps, params)
		s.ErrorBound = errorBound(t, eps, params)
		summaries = append(summaries, s)
	}
	return summaries
}

// SummarizeAll summarizes every table, keeping the order of tables.
func SummarizeAll(tables []experiment.ResultTable, params Params) []Summary {
	var summaries []Summary
	for _, t := range tables {
		summaries = append(summaries, Summarize(t, params)...)
	}
	return summaries
}

// meanStdDev returns the mean and the sample standard deviation of x. The
// standard deviation of a single value is 0.
func meanStdDev(x []float64) (mean, std float64) {
	if len(x) == 1 {
		return x[0], 0
	}
	return stat.MeanStdDev(x, nil)
}

func expected(t experiment.ResultTable, eps float64, params Params) (std, bias float64) {
	var err error
	switch t.Mechanism {
	case experiment.Central:
		std, err = noise.NewLaplace(nil).StdDev(params.Sensitivity, eps)
	case experiment.Local:
		rr := noise.NewRandomizedResponse(nil)
		k := t.TrueValue
		if params.Records <= 0 || k != math.Trunc(k) {
			return math.NaN(), math.NaN()
		}
		if std, err = rr.StdDev(params.Records, eps); err == nil {
			bias, err = rr.Bias(params.Records, int64(k), eps)
		}
	default:
		err = fmt.Errorf("unknown mechanism %v", t.Mechanism)
	}
	if err != nil {
		log.V(1).Infof("No expected error for %q at epsilon %g: %v", t.Query, eps, err)
		return math.NaN(), math.NaN()
	}
	return std, bias
}

func errorBound(t experiment.ResultTable, eps float64, params Params) float64 {
	if t.Mechanism != experiment.Central {
		return math.NaN()
	}
	ci, err := noise.NewLaplace(nil).ConfidenceInterval(0, params.Sensitivity, eps, params.Alpha)
	if err != nil {
		log.V(1).Infof("No error bound for %q at epsilon %g: %v", t.Query, eps, err)
		return math.NaN()
	}
	return ci.UpperBound
}

// Comparison contrasts the mean error of both mechanisms for one query at one
// epsilon.
type Comparison struct {
	Query        string
	Epsilon      float64
	CentralError float64
	LocalError   float64
}

// Ratio returns LocalError / CentralError, or +Inf if the central error is 0
// and the local error is not.
func (c Comparison) Ratio() float64 {
	if c.CentralError == 0 {
		if c.LocalError == 0 {
			return 1
		}
		return math.Inf(1)
	}
	return c.LocalError / c.CentralError
}

// Compare pairs central and local summaries by query and epsilon. Pairs
// missing either side are skipped. The result follows the order of central.
func Compare(central, local []Summary) []Comparison {
	type key struct {
		query string
		eps   float64
	}
	byKey := make(map[key]Summary, len(local))
	for _, s := range local {
		byKey[key{s.Query, s.Epsilon}] = s
	}
	var cs []Comparison
	for _, c := range central {
		l, ok := byKey[key{c.Query, c.Epsilon}]
		if !ok {
			continue
		}
		cs = append(cs, Comparison{Query: c.Query, Epsilon: c.Epsilon, CentralError: c.MeanError, LocalError: l.MeanError})
	}
	return cs
}
