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

// Package query defines the count queries the experiments privatize. A query
// is a name plus a Predicate, a closed set of predicate shapes interpreted by
// a single evaluator over a dataset.Dataset.
package query

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/privacy-lab/dpcompare/dataset"
)

// ErrInvalidQuery is returned for malformed queries: unknown comparators,
// missing predicate arguments, unknown columns or non-numeric threshold
// cells. It indicates a configuration bug.
var ErrInvalidQuery = errors.New("invalid query")

func invalidQuery(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, a...))
}

// Kind is an enum type. Its values are the supported predicate shapes.
type Kind int

// Predicate shapes.
const (
	// Unspecified is the zero Kind and never valid.
	Unspecified Kind = iota
	// Equality matches records whose cell equals a category value.
	Equality
	// Threshold matches records whose numeric cell compares true against a value.
	Threshold
	// Constant is a precomputed scalar with no per-record indicator, hence no
	// local privatization path.
	Constant
)

func (k Kind) String() string {
	switch k {
	case Equality:
		return "equality"
	case Threshold:
		return "threshold"
	case Constant:
		return "constant"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind converts the textual name of a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "equality", "eq":
		return Equality, nil
	case "threshold":
		return Threshold, nil
	case "constant":
		return Constant, nil
	}
	return Unspecified, invalidQuery("unknown predicate kind %q", s)
}

// Comparator is the comparison of a Threshold predicate.
type Comparator string

// Supported comparators.
const (
	Greater        Comparator = ">"
	Less           Comparator = "<"
	GreaterOrEqual Comparator = ">="
	LessOrEqual    Comparator = "<="
)

// ParseComparator converts a textual comparator. The Unicode forms ≥ and ≤
// are accepted as well.
func ParseComparator(s string) (Comparator, error) {
	switch strings.TrimSpace(s) {
	case ">":
		return Greater, nil
	case "<":
		return Less, nil
	case ">=", "≥":
		return GreaterOrEqual, nil
	case "<=", "≤":
		return LessOrEqual, nil
	case "":
		return "", invalidQuery("missing comparator")
	}
	return "", invalidQuery("unknown comparator %q", s)
}

func (c Comparator) compare(x, threshold float64) (bool, error) {
	switch c {
	case Greater:
		return x > threshold, nil
	case Less:
		return x < threshold, nil
	case GreaterOrEqual:
		return x >= threshold, nil
	case LessOrEqual:
		return x <= threshold, nil
	}
	return false, invalidQuery("unknown comparator %q", string(c))
}

// Predicate is a tagged variant: Kind selects which of the other fields are
// meaningful.
type Predicate struct {
	Kind Kind
	// Column is the column tested by Equality and Threshold predicates.
	Column string
	// Value is the category matched by an Equality predicate.
	Value string
	// Comparator and Threshold parameterize a Threshold predicate.
	Comparator Comparator
	Threshold  float64
	// Scalar is the value of a Constant predicate.
	Scalar float64
}

// Equals returns a predicate matching records whose column equals value.
func Equals(column, value string) Predicate {
	return Predicate{Kind: Equality, Column: column, Value: value}
}

// Compare returns a predicate matching records for which
// `column comparator threshold` holds.
func Compare(column string, comparator Comparator, threshold float64) Predicate {
	return Predicate{Kind: Threshold, Column: column, Comparator: comparator, Threshold: threshold}
}

// ConstantValue returns a predicate whose true value is v.
func ConstantValue(v float64) Predicate {
	return Predicate{Kind: Constant, Scalar: v}
}

func (p Predicate) String() string {
	switch p.Kind {
	case Equality:
		return fmt.Sprintf("%s = %q", p.Column, p.Value)
	case Threshold:
		return fmt.Sprintf("%s %s %g", p.Column, p.Comparator, p.Threshold)
	case Constant:
		return fmt.Sprintf("constant %g", p.Scalar)
	}
	return p.Kind.String()
}

// Validate checks that the predicate is well formed, independently of any
// dataset.
func (p Predicate) Validate() error {
	switch p.Kind {
	case Equality:
		if p.Column == "" {
			return invalidQuery("equality predicate has no column")
		}
		if p.Value == "" {
			return invalidQuery("equality predicate on %q has no value", p.Column)
		}
	case Threshold:
		if p.Column == "" {
			return invalidQuery("threshold predicate has no column")
		}
		if _, err := ParseComparator(string(p.Comparator)); err != nil {
			return fmt.Errorf("threshold predicate on %q: %w", p.Column, err)
		}
		if math.IsNaN(p.Threshold) || math.IsInf(p.Threshold, 0) {
			return invalidQuery("threshold predicate on %q has threshold %f, must be finite", p.Column, p.Threshold)
		}
	case Constant:
		if math.IsNaN(p.Scalar) || math.IsInf(p.Scalar, 0) {
			return invalidQuery("constant predicate has value %f, must be finite", p.Scalar)
		}
	default:
		return invalidQuery("missing predicate kind")
	}
	return nil
}

// Evaluation is a predicate evaluated over a dataset.
type Evaluation struct {
	// TrueValue is the number of records satisfying the predicate, or the
	// scalar of a Constant predicate.
	TrueValue float64
	// Indicators holds one 0/1 entry per record. It is nil for Constant
	// predicates.
	Indicators []uint8
	// Records is the number of records in the dataset.
	Records int
}

// HasIndicators reports whether the evaluation can be privatized per record.
func (e Evaluation) HasIndicators() bool {
	return e.Indicators != nil
}

// Evaluate computes the true value and per-record indicators of p over d.
// It is deterministic: evaluating twice over the same dataset yields the same
// result.
func (p Predicate) Evaluate(d *dataset.Dataset) (Evaluation, error) {
	if err := p.Validate(); err != nil {
		return Evaluation{}, err
	}
	if p.Kind == Constant {
		return Evaluation{TrueValue: p.Scalar, Records: d.Len()}, nil
	}
	if !d.HasColumn(p.Column) {
		return Evaluation{}, fmt.Errorf("%w: %w %q", ErrInvalidQuery, dataset.ErrUnknownColumn, p.Column)
	}

	indicators := make([]uint8, d.Len())
	var count int64
	switch p.Kind {
	case Equality:
		cells, err := d.Strings(p.Column)
		if err != nil {
			return Evaluation{}, err
		}
		for i, cell := range cells {
			if cellEquals(cell, p.Value) {
				indicators[i] = 1
				count++
			}
		}
	case Threshold:
		values, err := d.Floats(p.Column)
		if err != nil {
			return Evaluation{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
		}
		comparator, _ := ParseComparator(string(p.Comparator))
		for i, v := range values {
			ok, err := comparator.compare(v, p.Threshold)
			if err != nil {
				return Evaluation{}, err
			}
			if ok {
				indicators[i] = 1
				count++
			}
		}
	}
	return Evaluation{TrueValue: float64(count), Indicators: indicators, Records: d.Len()}, nil
}

// cellEquals compares a cell against a category value. Numeric values are
// compared numerically so that "1" matches "1.0".
func cellEquals(cell, value string) bool {
	cell, value = strings.TrimSpace(cell), strings.TrimSpace(value)
	if cell == value {
		return true
	}
	c, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return false
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return false
	}
	return c == v
}
