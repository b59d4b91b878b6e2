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
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/privacy-lab/dpcompare/dataset"
)

func studentsDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	d, err := dataset.ParseCSV(strings.NewReader(
		"Debtor;Scholarship holder;Age at enrollment;Admission grade;Target\n"+
			"0;1;19;142.5;Graduate\n"+
			"1;0;27;119.6;Dropout\n"+
			"0;0;20;13.0;Enrolled\n"+
			"1.0;1;45;14;Dropout\n"+
			"0;0;18;128.4;Graduate\n"), dataset.DefaultDelimiter)
	if err != nil {
		t.Fatalf("ParseCSV: got err %v", err)
	}
	return d
}

func TestEvaluateStudentQueries(t *testing.T) {
	d := studentsDataset(t)
	want := map[string][]uint8{
		"dropout_count":        {0, 1, 0, 1, 0},
		"graduate_count":       {1, 0, 0, 0, 1},
		"no_debtor_count":      {1, 0, 1, 0, 1},
		"debtors_count":        {0, 1, 0, 1, 0},
		"no_scholarship_count": {0, 1, 1, 0, 1},
		"scholarship_count":    {1, 0, 0, 1, 0},
		"age_above_25":         {0, 1, 0, 1, 0},
		"age_under_20":         {1, 0, 0, 0, 1},
		"high_admission":       {1, 1, 0, 0, 1},
		"low_admission":        {0, 0, 1, 1, 0},
	}
	r := StudentRegistry()
	if r.Len() != len(want) {
		t.Fatalf("StudentRegistry().Len() = %d, want %d", r.Len(), len(want))
	}
	for _, q := range r.Queries() {
		e, err := q.Predicate.Evaluate(d)
		if err != nil {
			t.Fatalf("Evaluate(%s): got err %v", q.Name, err)
		}
		if diff := cmp.Diff(want[q.Name], e.Indicators); diff != "" {
			t.Errorf("Evaluate(%s) indicators mismatch (-want +got):\n%s", q.Name, diff)
		}
		var count float64
		for _, b := range want[q.Name] {
			count += float64(b)
		}
		if e.TrueValue != count {
			t.Errorf("Evaluate(%s).TrueValue = %f, want %f", q.Name, e.TrueValue, count)
		}
		if e.Records != d.Len() {
			t.Errorf("Evaluate(%s).Records = %d, want %d", q.Name, e.Records, d.Len())
		}
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	d := studentsDataset(t)
	r := StudentRegistry()
	first, err := r.Evaluate(d)
	if err != nil {
		t.Fatalf("Evaluate: got err %v", err)
	}
	second, err := r.Evaluate(d)
	if err != nil {
		t.Fatalf("Evaluate: got err %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Evaluate twice mismatch (-first +second):\n%s", diff)
	}
}

func TestThresholdComparators(t *testing.T) {
	d := studentsDataset(t)
	for _, tc := range []struct {
		comparator Comparator
		want       float64
	}{
		{Greater, 2},
		{GreaterOrEqual, 3},
		{Less, 2},
		{LessOrEqual, 3},
		{"≥", 3},
		{"≤", 3},
	} {
		e, err := Compare(ColumnAge, tc.comparator, 20).Evaluate(d)
		if err != nil {
			t.Fatalf("Evaluate(age %s 20): got err %v", tc.comparator, err)
		}
		if e.TrueValue != tc.want {
			t.Errorf("Evaluate(age %s 20).TrueValue = %f, want %f", tc.comparator, e.TrueValue, tc.want)
		}
	}
}

func TestConstantHasNoIndicators(t *testing.T) {
	e, err := ConstantValue(42).Evaluate(studentsDataset(t))
	if err != nil {
		t.Fatalf("Evaluate: got err %v", err)
	}
	if e.TrueValue != 42 || e.HasIndicators() {
		t.Errorf("Evaluate(constant 42) = %+v, want TrueValue 42 and no indicators", e)
	}
}

func TestInvalidPredicates(t *testing.T) {
	d := studentsDataset(t)
	for _, tc := range []struct {
		desc string
		p    Predicate
	}{
		{"missing kind", Predicate{Column: ColumnAge}},
		{"equality without column", Equals("", "Dropout")},
		{"equality without value", Equals(ColumnTarget, "")},
		{"threshold without comparator", Compare(ColumnAge, "", 20)},
		{"threshold with unknown comparator", Compare(ColumnAge, "!=", 20)},
		{"threshold without column", Compare("", Greater, 20)},
		{"unknown column", Equals("Course", "33")},
		{"non-numeric threshold column", Compare(ColumnTarget, Greater, 1)},
	} {
		if _, err := tc.p.Evaluate(d); !errors.Is(err, ErrInvalidQuery) {
			t.Errorf("Evaluate: when %s got err %v, want ErrInvalidQuery", tc.desc, err)
		}
	}
}

func TestUnknownColumnIsClassified(t *testing.T) {
	_, err := Equals("Course", "33").Evaluate(studentsDataset(t))
	if !errors.Is(err, dataset.ErrUnknownColumn) {
		t.Errorf("Evaluate(unknown column): got err %v, want ErrUnknownColumn", err)
	}
}

func TestNewRegistryValidation(t *testing.T) {
	ok := Query{Name: "dropout_count", Predicate: Equals(ColumnTarget, "Dropout")}
	for _, tc := range []struct {
		desc    string
		queries []Query
		wantErr bool
	}{
		{"empty registry", nil, false},
		{"single query", []Query{ok}, false},
		{"duplicate name", []Query{ok, ok}, true},
		{"empty name", []Query{{Name: " ", Predicate: ok.Predicate}}, true},
		{"malformed predicate", []Query{{Name: "bad", Predicate: Compare(ColumnAge, "=>", 1)}}, true},
	} {
		if _, err := NewRegistry(tc.queries...); (err != nil) != tc.wantErr {
			t.Errorf("NewRegistry: when %s got err %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
}

func TestRegistrySelectAndLookup(t *testing.T) {
	r := StudentRegistry()
	sub, err := r.Select("low_admission", "dropout_count")
	if err != nil {
		t.Fatalf("Select: got err %v", err)
	}
	if diff := cmp.Diff([]string{"dropout_count", "low_admission"}, sub.Names()); diff != "" {
		t.Errorf("Select names mismatch (-want +got):\n%s", diff)
	}
	if _, err := r.Select("missing"); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("Select(missing): got err %v, want ErrInvalidQuery", err)
	}
	q, ok := r.Lookup("age_above_25")
	if !ok || q.Predicate != Compare(ColumnAge, Greater, 25) {
		t.Errorf("Lookup(age_above_25) = %+v, %t", q, ok)
	}
	if _, ok := r.Lookup("missing"); ok {
		t.Errorf("Lookup(missing): got ok, want not found")
	}
}

func TestFromDefinitions(t *testing.T) {
	r, err := FromDefinitions([]Definition{
		{Name: "dropout_count", Kind: "equality", Column: ColumnTarget, Value: "Dropout"},
		{Name: "older", Kind: "threshold", Column: ColumnAge, Comparator: "≥", Value: "30"},
		{Name: "cohort_size", Kind: "constant", Value: "4424"},
	})
	if err != nil {
		t.Fatalf("FromDefinitions: got err %v", err)
	}
	want := []Query{
		{Name: "dropout_count", Predicate: Equals(ColumnTarget, "Dropout")},
		{Name: "older", Predicate: Compare(ColumnAge, GreaterOrEqual, 30)},
		{Name: "cohort_size", Predicate: ConstantValue(4424)},
	}
	if diff := cmp.Diff(want, r.Queries()); diff != "" {
		t.Errorf("FromDefinitions mismatch (-want +got):\n%s", diff)
	}
}

func TestDefinitionErrors(t *testing.T) {
	for _, tc := range []struct {
		desc string
		def  Definition
	}{
		{"unknown kind", Definition{Name: "q", Kind: "sum", Column: ColumnAge, Value: "1"}},
		{"unknown comparator", Definition{Name: "q", Kind: "threshold", Column: ColumnAge, Comparator: "<>", Value: "1"}},
		{"missing comparator", Definition{Name: "q", Kind: "threshold", Column: ColumnAge, Value: "1"}},
		{"missing threshold", Definition{Name: "q", Kind: "threshold", Column: ColumnAge, Comparator: ">"}},
		{"non-numeric threshold", Definition{Name: "q", Kind: "threshold", Column: ColumnAge, Comparator: ">", Value: "old"}},
		{"missing equality value", Definition{Name: "q", Kind: "equality", Column: ColumnTarget}},
		{"missing constant", Definition{Name: "q", Kind: "constant"}},
	} {
		if _, err := tc.def.Query(); !errors.Is(err, ErrInvalidQuery) {
			t.Errorf("Query: when %s got err %v, want ErrInvalidQuery", tc.desc, err)
		}
	}
}
