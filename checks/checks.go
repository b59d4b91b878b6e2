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

// Package checks contains argument checks for the noise mechanisms and the
// experiment sweep.
package checks

import (
	"fmt"
	"math"

	log "github.com/golang/glog"
)

const (
	epsilonName     = "Epsilon"
	sensitivityName = "Sensitivity"
)

func verifyName(defaultName string, nameSlice []string) (string, error) {
	var name string
	switch len(nameSlice) {
	case 0:
		name = defaultName
	case 1:
		name = nameSlice[0]
	default:
		return "", fmt.Errorf("This should never happen. There should be 0 or 1 'name' parameter, got %d", len(nameSlice))
	}
	return name, nil
}

// CheckEpsilonVeryStrict returns an error if ε is +∞ or less than 2⁻⁵⁰.
func CheckEpsilonVeryStrict(epsilon float64, name ...string) error {
	epsName, err := verifyName(epsilonName, name)
	if err != nil {
		return err
	}
	if epsilon < math.Exp2(-50.0) || math.IsInf(epsilon, 0) || math.IsNaN(epsilon) {
		return fmt.Errorf("%s is %g, must be at least 2^-50 and finite", epsName, epsilon)
	}
	return nil
}

// CheckEpsilonStrict returns an error if ε is nonpositive or +∞.
func CheckEpsilonStrict(epsilon float64, name ...string) error {
	epsName, err := verifyName(epsilonName, name)
	if err != nil {
		return err
	}
	if epsilon <= 0 || math.IsInf(epsilon, 0) || math.IsNaN(epsilon) {
		return fmt.Errorf("%s is %f, must be strictly positive and finite", epsName, epsilon)
	}
	return nil
}

// CheckEpsilons returns an error if the sequence is empty or any ε in it is
// less than 2⁻⁵⁰ or +∞. A sequence that is not ascending is legal but logged.
func CheckEpsilons(epsilons []float64) error {
	if len(epsilons) == 0 {
		return fmt.Errorf("Epsilons is empty, must contain at least one value")
	}
	ascending := true
	for i, eps := range epsilons {
		if err := CheckEpsilonVeryStrict(eps, fmt.Sprintf("Epsilons[%d]", i)); err != nil {
			return err
		}
		if i > 0 && eps < epsilons[i-1] {
			ascending = false
		}
	}
	if !ascending {
		log.Warningf("Epsilons %v are not in ascending order, rows will follow the given order", epsilons)
	}
	return nil
}

// CheckSensitivity returns an error if the sensitivity is nonpositive or +∞.
func CheckSensitivity(sensitivity float64, name ...string) error {
	sensName, err := verifyName(sensitivityName, name)
	if err != nil {
		return err
	}
	if sensitivity <= 0 || math.IsInf(sensitivity, 0) || math.IsNaN(sensitivity) {
		return fmt.Errorf("%s is %f, must be strictly positive and finite", sensName, sensitivity)
	}
	return nil
}

// CheckRepetitions returns an error if repetitions is less than 1.
func CheckRepetitions(repetitions int) error {
	if repetitions < 1 {
		return fmt.Errorf("Repetitions is %d, must be at least 1", repetitions)
	}
	return nil
}

// CheckParallelism returns an error if parallelism is less than 1.
func CheckParallelism(parallelism int) error {
	if parallelism < 1 {
		return fmt.Errorf("Parallelism is %d, must be at least 1", parallelism)
	}
	return nil
}

// CheckAlpha returns an error if the supplied alpha is not between 0 and 1.
func CheckAlpha(alpha float64) error {
	if alpha <= 0 || alpha >= 1 || math.IsNaN(alpha) || math.IsInf(alpha, 0) {
		return fmt.Errorf("Alpha is %f, must be within (0, 1) and finite", alpha)
	}
	return nil
}
