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

package experiment

import (
	"fmt"
	"math"
	"time"

	"github.com/privacy-lab/dpcompare/noise"
	"github.com/privacy-lab/dpcompare/query"
	"github.com/privacy-lab/dpcompare/rand"
)

// Outcome is the result of a single trial.
type Outcome struct {
	NoisyValue float64
	Error      float64
	Elapsed    time.Duration
}

// Executor runs single trials. It holds no state besides its random source,
// so one Executor must not be shared by workers that need independent
// streams.
type Executor struct {
	laplace     noise.Laplace
	rr          noise.RandomizedResponse
	sensitivity float64
}

// NewExecutor returns an Executor drawing from src, calibrating Laplace noise
// to sensitivity. A nil src draws from the process-wide default source.
func NewExecutor(src *rand.Source, sensitivity float64) *Executor {
	return &Executor{
		laplace:     noise.NewLaplace(src),
		rr:          noise.NewRandomizedResponse(src),
		sensitivity: sensitivity,
	}
}

// Run privatizes eval once with mechanism m at epsilon. Only the mechanism
// call is timed; the true value and indicators are computed beforehand.
//
// Under the local mechanism an evaluation without indicators (a constant
// query) has no privatization path and is reported as is.
func (x *Executor) Run(m Mechanism, eval query.Evaluation, epsilon float64) (Outcome, error) {
	var (
		noisy float64
		err   error
	)
	start := time.Now()
	switch m {
	case Central:
		noisy, err = x.laplace.AddNoise(eval.TrueValue, x.sensitivity, epsilon)
	case Local:
		if !eval.HasIndicators() {
			noisy = eval.TrueValue
			break
		}
		var sum int64
		sum, err = x.rr.NoisySum(eval.Indicators, epsilon)
		noisy = float64(sum)
	default:
		return Outcome{}, fmt.Errorf("%w: unknown mechanism %v", ErrInvalidConfig, m)
	}
	elapsed := time.Since(start)
	if err != nil {
		return Outcome{}, fmt.Errorf("%v trial at epsilon %f: %w", m, epsilon, err)
	}
	return Outcome{
		NoisyValue: noisy,
		Error:      math.Abs(eval.TrueValue - noisy),
		Elapsed:    elapsed,
	}, nil
}
