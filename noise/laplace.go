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
	"math"

	"github.com/privacy-lab/dpcompare/checks"
	"github.com/privacy-lab/dpcompare/rand"
)

// granularityParam determines the resolution of the numerical noise that is
// being generated relative to the Laplace scale sensitivity/ε. Larger values
// result in more fine grained noise, but increase the chance of sampling
// inaccuracies due to overflows.
//
// This parameter should be a power of 2.
var granularityParam = math.Exp2(40)

// maxGranularityFraction caps the grid relative to the sensitivity. A grid
// coarser than the sensitivity would inflate the noise scale from s/ε to
// about (s+g)/ε. The cap only binds for ε < 2⁻³², where it keeps the scale
// within 1% of s/ε and the geometric samples below 2⁵⁸ for ε ≥ 2⁻⁵⁰.
var maxGranularityFraction = math.Exp2(-8)

// Laplace is the Laplace mechanism of central differential privacy: noise
// drawn from Laplace(0, sensitivity/ε) is added once to the true aggregate.
//
// The noise is sampled through a two-sided geometric distribution on a grid
// whose resolution is a power of two below scale/2⁴⁰. This makes the sampler
// robust against leaks due to artifacts of floating point arithmetic while
// being indistinguishable from continuous Laplace noise at the precision of
// the experiments.
type Laplace struct {
	src *rand.Source
}

// NewLaplace returns a Laplace mechanism drawing from src. A nil src draws
// from the process-wide default source.
func NewLaplace(src *rand.Source) Laplace {
	if src == nil {
		src = rand.Default()
	}
	return Laplace{src: src}
}

// AddNoise returns x plus Laplace noise of scale sensitivity/ε. The result is
// an unbiased estimate of x with variance 2·(sensitivity/ε)².
func (l Laplace) AddNoise(x, sensitivity, epsilon float64) (float64, error) {
	if err := checkArgsLaplace(sensitivity, epsilon); err != nil {
		return 0, err
	}
	src := l.src
	if src == nil {
		src = rand.Default()
	}
	return addLaplace(src, x, epsilon, sensitivity), nil
}

// Scale returns the scale parameter λ = sensitivity/ε of the Laplace noise.
func (Laplace) Scale(sensitivity, epsilon float64) (float64, error) {
	if err := checkArgsLaplace(sensitivity, epsilon); err != nil {
		return 0, err
	}
	return sensitivity / epsilon, nil
}

// StdDev returns the standard deviation √2·λ of the noise added by AddNoise.
// The expected absolute error of a single draw equals λ.
func (l Laplace) StdDev(sensitivity, epsilon float64) (float64, error) {
	lambda, err := l.Scale(sensitivity, epsilon)
	if err != nil {
		return 0, err
	}
	return math.Sqrt2 * lambda, nil
}

// ConfidenceInterval computes a confidence interval that contains the raw
// value x from which noisedX was computed with a probability equal to
// 1 - alpha.
func (l Laplace) ConfidenceInterval(noisedX, sensitivity, epsilon, alpha float64) (ConfidenceInterval, error) {
	if err := checks.CheckAlpha(alpha); err != nil {
		return ConfidenceInterval{}, invalidParameter(err)
	}
	lambda, err := l.Scale(sensitivity, epsilon)
	if err != nil {
		return ConfidenceInterval{}, err
	}
	return computeConfidenceIntervalLaplace(noisedX, lambda, alpha), nil
}

func (Laplace) String() string {
	return "Laplace Noise"
}

func checkArgsLaplace(sensitivity, epsilon float64) error {
	if err := checks.CheckSensitivity(sensitivity); err != nil {
		return invalidParameter(err)
	}
	if err := checks.CheckEpsilonVeryStrict(epsilon); err != nil {
		return invalidParameter(err)
	}
	return nil
}

// addLaplace adds Laplace noise scaled to the given epsilon and l1Sensitivity
// to the specified float64.
func addLaplace(src *rand.Source, x, epsilon, l1Sensitivity float64) float64 {
	granularity := laplaceGranularity(x, epsilon, l1Sensitivity)
	sample := twoSidedGeometric(src, granularity*epsilon/(l1Sensitivity+granularity))
	return roundToMultipleOfPowerOfTwo(x, granularity) + float64(sample)*granularity
}

// laplaceGranularity returns the power of 2 the noise of addLaplace is a
// multiple of. It is about scale/2⁴⁰, capped at a fraction of the
// sensitivity, and never finer than 2⁻⁵² relative to x so that rounding x to
// the grid cannot overflow.
func laplaceGranularity(x, epsilon, l1Sensitivity float64) float64 {
	g := ceilPowerOfTwo(math.Min((l1Sensitivity/epsilon)/granularityParam, l1Sensitivity*maxGranularityFraction))
	floor := math.SmallestNonzeroFloat64
	if x != 0 {
		_, exp := math.Frexp(x)
		floor = math.Max(math.Ldexp(1, exp-52), floor)
	}
	if math.IsNaN(g) || g < floor {
		return floor
	}
	return g
}

// computeConfidenceIntervalLaplace computes a confidence interval that contains the raw value x from which
// float64 noisedX is computed with a probability equal to 1 - alpha with the given lambda.
func computeConfidenceIntervalLaplace(noisedX float64, lambda, alpha float64) ConfidenceInterval {
	z := inverseCDFLaplace(lambda, alpha/2)
	// z is the (alpha/2)-quantile, by symmetry -z is the (1 - alpha/2)-quantile.
	return ConfidenceInterval{LowerBound: noisedX + z, UpperBound: noisedX - z}
}

// inverseCDFLaplace computes the quantile z satisfying Pr[Y <= z] = p for a random variable Y
// that is Laplace distributed with the specified lambda where mean is zero.
func inverseCDFLaplace(lambda, p float64) float64 {
	if p < 0.5 {
		return lambda * math.Log(2*p)
	}
	return -lambda * math.Log(2*(1-p))
}

// geometric draws a sample drawn from a geometric distribution with parameter
//
//	p = 1 - e^-λ.
//
// More precisely, it returns the number of Bernoulli trials until the first success
// where the success probability is p = 1 - e^-λ. The returned sample is truncated
// to the max int64 value.
func geometric(src *rand.Source, lambda float64) int64 {
	if src.Uniform() > -1.0*math.Expm1(-1.0*lambda*math.MaxInt64) {
		return math.MaxInt64
	}

	// Binary search for the sample in (left, right]. Each iteration keeps the
	// left or the right subinterval with the probability of the sample being
	// contained in it.
	var left int64 = 0              // exclusive bound
	var right int64 = math.MaxInt64 // inclusive bound

	for left+1 < right {
		// A midpoint that splits the probability mass of the interval roughly
		// in half, which is at most the arithmetic mean of the interval.
		mid := left - int64(math.Floor((math.Log(0.5)+math.Log1p(math.Exp(lambda*float64(left-right))))/lambda))
		if mid <= left {
			mid = left + 1
		} else if mid >= right {
			mid = right - 1
		}

		// q = Pr[X ≤ mid | left < X ≤ right], approximately one half.
		q := math.Expm1(lambda*float64(left-mid)) / math.Expm1(lambda*float64(left-right))
		if src.Uniform() <= q {
			right = mid
		} else {
			left = mid
		}
	}
	return right
}

// twoSidedGeometric draws a sample from a geometric distribution that is
// mirrored at 0. The non-negative part of the distribution's PDF matches
// the PDF of a geometric distribution of parameter p = 1 - e^-λ that is
// shifted to the left by 1 and scaled accordingly.
func twoSidedGeometric(src *rand.Source, lambda float64) int64 {
	var sample int64 = 0
	var sign int64 = -1
	// Keep a sample of 0 only if the sign is positive. Otherwise, the
	// probability of 0 would be twice as high as it should be.
	for sample == 0 && sign == -1 {
		sample = geometric(src, lambda) - 1
		sign = int64(src.Sign())
	}
	return sample * sign
}
