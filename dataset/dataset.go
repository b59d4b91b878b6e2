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

// Package dataset holds the tabular data the experiments run on. A Dataset
// is loaded once by the caller, from a delimited text file or from a SQLite
// table, and is never modified afterwards.
package dataset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownColumn is returned when a column name is not part of the dataset.
var ErrUnknownColumn = errors.New("unknown column")

// Dataset is an immutable, column-addressable table of text cells. Cells are
// kept as text so that categorical and numeric columns can be compared the
// way the loader found them; Floats parses a column on demand.
//
// A Dataset is safe for concurrent reads.
type Dataset struct {
	columns []string
	index   map[string]int
	cells   [][]string // cells[column][record]
	records int
}

// New returns a Dataset with the given header and records. Every record must
// have exactly one cell per column and column names must be unique and
// non-empty. The input slices are copied.
func New(columns []string, records [][]string) (*Dataset, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("dataset has no columns")
	}
	d := &Dataset{
		columns: make([]string, len(columns)),
		index:   make(map[string]int, len(columns)),
		cells:   make([][]string, len(columns)),
		records: len(records),
	}
	for i, c := range columns {
		name := strings.TrimSpace(c)
		if name == "" {
			return nil, fmt.Errorf("column %d has an empty name", i)
		}
		if _, ok := d.index[name]; ok {
			return nil, fmt.Errorf("column %q appears more than once", name)
		}
		d.columns[i] = name
		d.index[name] = i
		d.cells[i] = make([]string, len(records))
	}
	for r, record := range records {
		if len(record) != len(columns) {
			return nil, fmt.Errorf("record %d has %d cells, want %d", r, len(record), len(columns))
		}
		for c, cell := range record {
			d.cells[c][r] = cell
		}
	}
	return d, nil
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return d.records
}

// Columns returns the column names in file order.
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.columns...)
}

// HasColumn reports whether the dataset has a column with the given name.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Strings returns a copy of the cells of a column.
func (d *Dataset) Strings(column string) ([]string, error) {
	i, ok := d.index[column]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownColumn, column)
	}
	return append([]string(nil), d.cells[i]...), nil
}

// Floats parses every cell of a column as a float64.
func (d *Dataset) Floats(column string) ([]float64, error) {
	i, ok := d.index[column]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownColumn, column)
	}
	values := make([]float64, d.records)
	for r, cell := range d.cells[i] {
		v, err := ParseNumber(cell)
		if err != nil {
			return nil, fmt.Errorf("column %q, record %d: %w", column, r, err)
		}
		values[r] = v
	}
	return values, nil
}

// ParseNumber parses a cell as a float64, ignoring surrounding whitespace.
func ParseNumber(cell string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, fmt.Errorf("couldn't read %q as a number, err = %v", cell, err)
	}
	return v, nil
}
