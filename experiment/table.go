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

import "time"

// Row is the outcome of one trial.
type Row struct {
	Epsilon    float64
	NoisyValue float64
	// Error is |true value - NoisyValue|.
	Error float64
	// Runtime is the wall-clock duration of the mechanism call alone.
	Runtime time.Duration
}

// RuntimeSeconds returns the runtime in seconds.
func (r Row) RuntimeSeconds() float64 {
	return r.Runtime.Seconds()
}

// ResultTable holds every trial of one query under one mechanism. Rows are
// ordered epsilon-outer, repetition-inner. A table is not modified after the
// runner hands it out.
type ResultTable struct {
	Query     string
	Mechanism Mechanism
	TrueValue float64
	Rows      []Row
}

// Epsilons returns the distinct epsilons of the table in first-seen order.
func (t ResultTable) Epsilons() []float64 {
	var eps []float64
	seen := make(map[float64]bool)
	for _, r := range t.Rows {
		if !seen[r.Epsilon] {
			seen[r.Epsilon] = true
			eps = append(eps, r.Epsilon)
		}
	}
	return eps
}

// RowsFor returns the rows recorded at epsilon.
func (t ResultTable) RowsFor(epsilon float64) []Row {
	var rows []Row
	for _, r := range t.Rows {
		if r.Epsilon == epsilon {
			rows = append(rows, r)
		}
	}
	return rows
}
