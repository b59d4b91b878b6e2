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

// Package results persists experiment result tables as CSV files, one file
// per query under a directory named after the mechanism, and reads them back.
package results

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	log "github.com/golang/glog"

	"github.com/privacy-lab/dpcompare/experiment"
)

// Header is the first line of every results file.
var Header = []string{"epsilon", "noisy_values", "errors", "runtimes", "true_value"}

const fileSuffix = "_results.csv"

// Path returns the file a table for query under mechanism m is stored in.
func Path(dir string, m experiment.Mechanism, query string) string {
	return filepath.Join(dir, m.String(), query+fileSuffix)
}

// Write stores t under dir, replacing any previous results of the same query
// and mechanism, and returns the path written to.
func Write(dir string, t experiment.ResultTable) (string, error) {
	outputFile := Path(dir, t.Mechanism, t.Query)
	if err := os.MkdirAll(filepath.Dir(outputFile), 0o755); err != nil {
		return "", fmt.Errorf("couldn't create the results directory for %q: %w", outputFile, err)
	}
	csvFile, err := os.Create(outputFile)
	if err != nil {
		return "", fmt.Errorf("couldn't open the csv file = %q: %w", outputFile, err)
	}
	if err := Encode(csvFile, t); err != nil {
		return "", errors.Join(fmt.Errorf("couldn't write to the csv file = %q: %w", outputFile, err), csvFile.Close())
	}
	if err := csvFile.Close(); err != nil {
		return "", fmt.Errorf("couldn't close the csv file = %q: %w", outputFile, err)
	}
	return outputFile, nil
}

// WriteAll stores every table under dir.
func WriteAll(dir string, tables []experiment.ResultTable) error {
	for _, t := range tables {
		path, err := Write(dir, t)
		if err != nil {
			return err
		}
		log.V(1).Infof("Wrote %d rows of %q to %s", len(t.Rows), t.Query, path)
	}
	return nil
}

// Encode writes t as CSV, header first.
func Encode(w io.Writer, t experiment.ResultTable) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}
	trueValue := formatFloat(t.TrueValue)
	for _, r := range t.Rows {
		record := []string{
			formatFloat(r.Epsilon),
			formatFloat(r.NoisyValue),
			formatFloat(r.Error),
			formatFloat(r.RuntimeSeconds()),
			trueValue,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Decode parses a table written by Encode. The query name and mechanism are
// not part of the file and are left to the caller.
func Decode(r io.Reader) (experiment.ResultTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(Header)
	header, err := reader.Read()
	if err == io.EOF {
		return experiment.ResultTable{}, fmt.Errorf("missing header")
	}
	if err != nil {
		return experiment.ResultTable{}, err
	}
	for i, h := range header {
		if strings.TrimSpace(h) != Header[i] {
			return experiment.ResultTable{}, fmt.Errorf("column %d is %q, want %q", i, h, Header[i])
		}
	}
	var t experiment.ResultTable
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return experiment.ResultTable{}, err
		}
		var values [5]float64
		for i, cell := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return experiment.ResultTable{}, fmt.Errorf("line %d: couldn't read %s = %q as float64: %w", line, Header[i], cell, err)
			}
			values[i] = v
		}
		t.TrueValue = values[4]
		t.Rows = append(t.Rows, experiment.Row{
			Epsilon:    values[0],
			NoisyValue: values[1],
			Error:      values[2],
			Runtime:    time.Duration(math.Round(values[3] * float64(time.Second))),
		})
	}
	return t, nil
}

// Read loads the table for query under mechanism m from dir.
func Read(dir string, m experiment.Mechanism, query string) (experiment.ResultTable, error) {
	inputFile := Path(dir, m, query)
	csvFile, err := os.Open(inputFile)
	if err != nil {
		return experiment.ResultTable{}, fmt.Errorf("couldn't open the csv file = %q: %w", inputFile, err)
	}
	defer csvFile.Close()
	t, err := Decode(csvFile)
	if err != nil {
		return experiment.ResultTable{}, fmt.Errorf("couldn't read the csv file = %q: %w", inputFile, err)
	}
	t.Query = query
	t.Mechanism = m
	return t, nil
}

// ReadDir loads every table stored under mechanism m in dir, sorted by query
// name. A missing mechanism directory yields no tables.
func ReadDir(dir string, m experiment.Mechanism) ([]experiment.ResultTable, error) {
	entries, err := os.ReadDir(filepath.Join(dir, m.String()))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("couldn't list %v results in %q: %w", m, dir, err)
	}
	var queries []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileSuffix) {
			continue
		}
		queries = append(queries, strings.TrimSuffix(e.Name(), fileSuffix))
	}
	sort.Strings(queries)
	tables := make([]experiment.ResultTable, 0, len(queries))
	for _, q := range queries {
		t, err := Read(dir, m, q)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
