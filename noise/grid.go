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

import "math"

// ceilPowerOfTwo returns the smallest power of 2 larger or equal to x. It
// returns NaN if x is not a finite positive number or if the result does not
// fit into a float64. The result is always an exact power of 2.
func ceilPowerOfTwo(x float64) float64 {
	if x <= 0.0 || math.IsInf(x, 0) || math.IsNaN(x) {
		return math.NaN()
	}
	// x = frac·2^exp with frac in [0.5, 1).
	frac, exp := math.Frexp(x)
	if frac == 0.5 {
		return x
	}
	if exp > 1023 {
		return math.NaN()
	}
	return math.Ldexp(1, exp)
}

// roundToMultipleOfPowerOfTwo returns the multiple of granularity that is
// closest to x. The value of granularity needs to be an exact power of 2,
// otherwise the result might not be exact.
func roundToMultipleOfPowerOfTwo(x, granularity float64) float64 {
	return math.Round(x/granularity) * granularity
}
