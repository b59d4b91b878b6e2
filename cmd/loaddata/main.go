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

// loaddata imports a delimited data file into a SQLite table, replacing the
// table if it exists, so that dpsweep can read the dataset from the database.
// Usage example:
// go run ./cmd/loaddata --input_file=data/students.csv --db=data/students.db --table=students
package main

import (
	"context"
	"flag"
	"unicode/utf8"

	log "github.com/golang/glog"

	"github.com/privacy-lab/dpcompare/dataset"
)

var (
	inputFile = flag.String("input_file", "", "Input delimited file with a header line.")
	dbPath    = flag.String("db", "", "SQLite database file. Created if it does not exist.")
	table     = flag.String("table", dataset.DefaultTable, "Table to replace with the file contents.")
	delimiter = flag.String("delimiter", string(dataset.DefaultDelimiter), "Field delimiter of the input file.")
)

func main() {
	flag.Parse()

	log.Infof("loaddata was run with arguments: input_file = %q, db = %q, table = %q, delimiter = %q",
		*inputFile, *dbPath, *table, *delimiter)

	if *inputFile == "" {
		log.Exit("No input file was chosen")
	}
	if *dbPath == "" {
		log.Exit("No database was chosen")
	}
	if *table == "" {
		log.Exit("No table was chosen")
	}
	d, size := utf8.DecodeRuneInString(*delimiter)
	if size == 0 || size != len(*delimiter) {
		log.Exitf("Delimiter %q must be a single character", *delimiter)
	}

	data, err := dataset.ImportCSVToSQLite(context.Background(), *inputFile, d, *dbPath, *table)
	if err != nil {
		log.Exitf("Couldn't import %q, err = %v", *inputFile, err)
	}
	log.Infof("Successfully imported %d records with columns %v", data.Len(), data.Columns())
}
