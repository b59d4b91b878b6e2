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

package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/privacy-lab/dpcompare/dataset"
)

// Query is a named count query.
type Query struct {
	Name      string
	Predicate Predicate
}

// Registry is an ordered set of uniquely named queries. It is immutable once
// constructed.
type Registry struct {
	queries []Query
	index   map[string]int
}

// NewRegistry returns a registry holding queries in the given order. Names
// must be non-empty and unique and every predicate must be well formed.
func NewRegistry(queries ...Query) (*Registry, error) {
	r := &Registry{
		queries: make([]Query, 0, len(queries)),
		index:   make(map[string]int, len(queries)),
	}
	for i, q := range queries {
		name := strings.TrimSpace(q.Name)
		if name == "" {
			return nil, invalidQuery("query %d has no name", i)
		}
		if _, ok := r.index[name]; ok {
			return nil, invalidQuery("query %q is defined more than once", name)
		}
		if err := q.Predicate.Validate(); err != nil {
			return nil, fmt.Errorf("query %q: %w", name, err)
		}
		q.Name = name
		r.index[name] = len(r.queries)
		r.queries = append(r.queries, q)
	}
	return r, nil
}

// Len returns the number of queries.
func (r *Registry) Len() int {
	return len(r.queries)
}

// Queries returns the queries in registry order.
func (r *Registry) Queries() []Query {
	return append([]Query(nil), r.queries...)
}

// Names returns the query names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.queries))
	for i, q := range r.queries {
		names[i] = q.Name
	}
	return names
}

// Lookup returns the query with the given name.
func (r *Registry) Lookup(name string) (Query, bool) {
	i, ok := r.index[name]
	if !ok {
		return Query{}, false
	}
	return r.queries[i], true
}

// Select returns a registry holding only the named queries, in registry
// order. Unknown names are an error.
func (r *Registry) Select(names ...string) (*Registry, error) {
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		q, ok := r.Lookup(strings.TrimSpace(n))
		if !ok {
			return nil, invalidQuery("unknown query %q", n)
		}
		keep[q.Name] = true
	}
	selected := make([]Query, 0, len(keep))
	for _, q := range r.queries {
		if keep[q.Name] {
			selected = append(selected, q)
		}
	}
	return NewRegistry(selected...)
}

// Evaluate evaluates every query over d, in registry order. The first
// malformed query aborts the evaluation.
func (r *Registry) Evaluate(d *dataset.Dataset) ([]Evaluation, error) {
	evals := make([]Evaluation, len(r.queries))
	for i, q := range r.queries {
		e, err := q.Predicate.Evaluate(d)
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", q.Name, err)
		}
		evals[i] = e
	}
	return evals, nil
}

// Definition is the textual form of a query, as found in configuration
// files.
type Definition struct {
	Name       string `yaml:"name"`
	Kind       string `yaml:"kind"`
	Column     string `yaml:"column"`
	Value      string `yaml:"value"`
	Comparator string `yaml:"comparator"`
}

// Query converts the definition into a validated Query.
func (d Definition) Query() (Query, error) {
	kind, err := ParseKind(d.Kind)
	if err != nil {
		return Query{}, fmt.Errorf("query %q: %w", d.Name, err)
	}
	q := Query{Name: d.Name}
	switch kind {
	case Equality:
		q.Predicate = Equals(d.Column, d.Value)
	case Threshold:
		comparator, err := ParseComparator(d.Comparator)
		if err != nil {
			return Query{}, fmt.Errorf("query %q: %w", d.Name, err)
		}
		threshold, err := parseArgument(d.Name, d.Value)
		if err != nil {
			return Query{}, err
		}
		q.Predicate = Compare(d.Column, comparator, threshold)
	case Constant:
		v, err := parseArgument(d.Name, d.Value)
		if err != nil {
			return Query{}, err
		}
		q.Predicate = ConstantValue(v)
	}
	if err := q.Predicate.Validate(); err != nil {
		return Query{}, fmt.Errorf("query %q: %w", d.Name, err)
	}
	return q, nil
}

func parseArgument(name, value string) (float64, error) {
	if strings.TrimSpace(value) == "" {
		return 0, invalidQuery("query %q has no value", name)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, invalidQuery("query %q has value %q, must be a number", name, value)
	}
	return v, nil
}

// FromDefinitions builds a registry from textual definitions.
func FromDefinitions(defs []Definition) (*Registry, error) {
	queries := make([]Query, len(defs))
	for i, d := range defs {
		q, err := d.Query()
		if err != nil {
			return nil, err
		}
		queries[i] = q
	}
	return NewRegistry(queries...)
}
