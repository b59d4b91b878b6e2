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

package noise

import (
	"fmt"
	"math"

	"github.com/privacy-lab/dpcompare/checks"
	"github.com/privacy-lab/dpcompare/rand"
)

// RandomizedResponse is the randomized response mechanism of local
// differential privacy. Every record reports its bit truthfully with
// probability p = e^ε / (e^ε + 1) and the flipped bit otherwise.
//
// The sum of the reported bits is not bias corrected: its expectation is
// k·p + (n-k)·(1-p) for n records of which k are 1, which tends to n/2 as ε
// tends to 0 and to k as ε grows.
type RandomizedResponse struct {
	src *rand.Source
}

// NewRandomizedResponse returns a randomized response mechanism drawing from
// src. A nil src draws from the process-wide default source.
func NewRandomizedResponse(src *rand.Source) RandomizedResponse {
	if src == nil {
		src = rand.Default()
	}
	return RandomizedResponse{src: src}
}

// TruthProbability returns p = e^ε / (e^ε + 1), the probability that a record
// reports its bit truthfully. It fails with ErrMechanism if e^ε overflows.
func TruthProbability(epsilon float64) (float64, error) {
	if err := checks.CheckEpsilonStrict(epsilon); err != nil {
		return 0, invalidParameter(err)
	}
	e := math.Exp(epsilon)
	if math.IsInf(e, 0) {
		return 0, fmt.Errorf("%w: exp(%f) overflows float64", ErrMechanism, epsilon)
	}
	return e / (e + 1), nil
}

// NoisySum applies randomized response independently to every bit and
// returns the sum of the reported bits. The result lies in [0, len(bits)].
func (r RandomizedResponse) NoisySum(bits []uint8, epsilon float64) (int64, error) {
	p, err := TruthProbability(epsilon)
	if err != nil {
		return 0, err
	}
	var sum int64
	for i, b := range bits {
		if b > 1 {
			return 0, invalidParameter(fmt.Errorf("bits[%d] is %d, must be 0 or 1", i, b))
		}
		sum += int64(r.respond(b, p))
	}
	return sum, nil
}

// respond reports bit truthfully with probability p and flipped otherwise.
func (r RandomizedResponse) respond(bit uint8, p float64) uint8 {
	src := r.src
	if src == nil {
		src = rand.Default()
	}
	if src.Bernoulli(p) {
		return bit
	}
	return 1 - bit
}

// Bias returns the expected value of NoisySum minus the true count k for n
// records, i.e. (n - 2k)·(1 - p).
func (RandomizedResponse) Bias(n, k int64, epsilon float64) (float64, error) {
	if n < 0 || k < 0 || k > n {
		return 0, invalidParameter(fmt.Errorf("count %d of %d records is out of range", k, n))
	}
	p, err := TruthProbability(epsilon)
	if err != nil {
		return 0, err
	}
	return float64(n-2*k) * (1 - p), nil
}

// StdDev returns the standard deviation √(n·p·(1-p)) of NoisySum over n
// records, which does not depend on how many of them are 1.
func (RandomizedResponse) StdDev(n int64, epsilon float64) (float64, error) {
	if n < 0 {
		return 0, invalidParameter(fmt.Errorf("record count is %d, must be nonnegative", n))
	}
	p, err := TruthProbability(epsilon)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(float64(n) * p * (1 - p)), nil
}

func (RandomizedResponse) String() string {
	return "Randomized Response"
}
