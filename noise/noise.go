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

// Package noise contains the differential privacy mechanisms compared by the
// experiments: the Laplace mechanism, which adds noise once to an aggregate,
// and randomized response, which perturbs every record's bit before the
// aggregate is computed.
package noise

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is returned when a mechanism is called with an
	// out-of-range privacy parameter or input. It indicates a caller bug.
	ErrInvalidParameter = errors.New("invalid mechanism parameter")
	// ErrMechanism is returned when a mechanism cannot produce an output for
	// otherwise valid parameters, e.g. because of numeric overflow.
	ErrMechanism = errors.New("mechanism failure")
)

func invalidParameter(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidParameter, err)
}

// ConfidenceInterval holds lower and upper bounds as float64 for the confidence interval.
type ConfidenceInterval struct {
	LowerBound, UpperBound float64
}
