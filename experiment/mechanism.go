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
	"strings"
)

// Mechanism is an enum type. Its values are the privacy models compared by
// the experiments.
type Mechanism int

// Supported mechanisms.
const (
	// Central adds Laplace noise once to the true aggregate.
	Central Mechanism = iota + 1
	// Local applies randomized response to every record before summing.
	Local
)

// Mechanisms lists every supported mechanism in reporting order.
var Mechanisms = []Mechanism{Central, Local}

// String returns the namespace the mechanism's results are stored under.
func (m Mechanism) String() string {
	switch m {
	case Central:
		return "central"
	case Local:
		return "local"
	}
	return fmt.Sprintf("Mechanism(%d)", int(m))
}

// ParseMechanism converts a mechanism name. The abbreviations cdp and ldp are
// accepted as well.
func ParseMechanism(s string) (Mechanism, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "central", "cdp":
		return Central, nil
	case "local", "ldp":
		return Local, nil
	}
	return 0, fmt.Errorf("%w: unknown mechanism %q, must be one of central, local", ErrInvalidConfig, s)
}

// ParseMechanisms converts a list of mechanism names, dropping duplicates.
// "both" and "all" stand for every mechanism.
func ParseMechanisms(names []string) ([]Mechanism, error) {
	seen := make(map[Mechanism]bool)
	var ms []Mechanism
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "both", "all":
			for _, m := range Mechanisms {
				if !seen[m] {
					seen[m] = true
					ms = append(ms, m)
				}
			}
			continue
		}
		m, err := ParseMechanism(n)
		if err != nil {
			return nil, err
		}
		if !seen[m] {
			seen[m] = true
			ms = append(ms, m)
		}
	}
	if len(ms) == 0 {
		return nil, fmt.Errorf("%w: no mechanism selected", ErrInvalidConfig)
	}
	return ms, nil
}
