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

// Columns of the students dropout dataset used by the built-in queries.
const (
	ColumnTarget         = "Target"
	ColumnDebtor         = "Debtor"
	ColumnScholarship    = "Scholarship holder"
	ColumnAge            = "Age at enrollment"
	ColumnAdmissionGrade = "Admission grade"
)

// StudentQueries returns the built-in count queries over the students
// dataset, grouped by enrollment outcome, financial factors, age and grades.
func StudentQueries() []Query {
	return []Query{
		{Name: "dropout_count", Predicate: Equals(ColumnTarget, "Dropout")},
		{Name: "graduate_count", Predicate: Equals(ColumnTarget, "Graduate")},

		{Name: "no_debtor_count", Predicate: Equals(ColumnDebtor, "0")},
		{Name: "debtors_count", Predicate: Equals(ColumnDebtor, "1")},
		{Name: "no_scholarship_count", Predicate: Equals(ColumnScholarship, "0")},
		{Name: "scholarship_count", Predicate: Equals(ColumnScholarship, "1")},

		{Name: "age_above_25", Predicate: Compare(ColumnAge, Greater, 25)},
		{Name: "age_under_20", Predicate: Compare(ColumnAge, Less, 20)},

		{Name: "high_admission", Predicate: Compare(ColumnAdmissionGrade, Greater, 14)},
		{Name: "low_admission", Predicate: Compare(ColumnAdmissionGrade, LessOrEqual, 14)},
	}
}

// StudentRegistry returns a registry of StudentQueries.
func StudentRegistry() *Registry {
	r, err := NewRegistry(StudentQueries()...)
	if err != nil {
		panic(err) // The built-in queries are well formed.
	}
	return r
}
