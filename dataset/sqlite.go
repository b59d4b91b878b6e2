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

package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	log "github.com/golang/glog"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultTable is the table the students data is imported into.
const DefaultTable = "students"

// LoadSQLite loads every row of table from the SQLite database at dbPath.
// NULL cells are read as empty strings.
func LoadSQLite(ctx context.Context, dbPath, table string) (*Dataset, error) {
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("couldn't open sqlite database %q: %w", dbPath, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(table))
	if err != nil {
		return nil, fmt.Errorf("couldn't query table %q in %q: %w", table, dbPath, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("couldn't read columns of table %q: %w", table, err)
	}

	records := make([][]string, 0)
	cells := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("couldn't scan row %d of table %q: %w", len(records), table, err)
		}
		record := make([]string, len(columns))
		for i, c := range cells {
			record[i] = c.String
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("couldn't read table %q: %w", table, err)
	}
	log.V(1).Infof("Loaded %d records with %d columns from %s.%s", len(records), len(columns), dbPath, table)
	return New(columns, records)
}

// ImportSQLite replaces table in the SQLite database at dbPath with the
// contents of d. Columns whose cells all parse as integers are stored as
// INTEGER, columns whose cells all parse as numbers as REAL, and the rest as
// TEXT. The import runs in a single transaction.
func ImportSQLite(ctx context.Context, d *Dataset, dbPath, table string) error {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("couldn't open sqlite database %q: %w", dbPath, err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("couldn't start transaction on %q: %w", dbPath, err)
	}
	defer tx.Rollback()

	defs := make([]string, len(d.columns))
	for i, c := range d.columns {
		defs[i] = quoteIdent(c) + " " + affinity(d.cells[i])
	}
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table)); err != nil {
		return fmt.Errorf("couldn't drop table %q: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("couldn't create table %q: %w", table, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(d.columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(table), placeholders))
	if err != nil {
		return fmt.Errorf("couldn't prepare insert into %q: %w", table, err)
	}
	defer stmt.Close()

	args := make([]any, len(d.columns))
	for r := 0; r < d.records; r++ {
		for c := range d.columns {
			args[c] = d.cells[c][r]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("couldn't insert record %d into %q: %w", r, table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("couldn't commit import into %q: %w", table, err)
	}
	log.Infof("Imported %d records into %s.%s", d.records, dbPath, table)
	return nil
}

// affinity returns the SQLite column type that stores every cell losslessly.
func affinity(cells []string) string {
	if len(cells) == 0 {
		return "TEXT"
	}
	integer := true
	for _, c := range cells {
		if _, err := strconv.ParseInt(strings.TrimSpace(c), 10, 64); err == nil {
			continue
		}
		integer = false
		if _, err := ParseNumber(c); err != nil {
			return "TEXT"
		}
	}
	if integer {
		return "INTEGER"
	}
	return "REAL"
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ImportCSVToSQLite reads the delimited file at csvPath and replaces table in
// the SQLite database at dbPath with its contents.
func ImportCSVToSQLite(ctx context.Context, csvPath string, delimiter rune, dbPath, table string) (*Dataset, error) {
	d, err := ReadCSV(csvPath, delimiter)
	if err != nil {
		return nil, err
	}
	if err := ImportSQLite(ctx, d, dbPath, table); err != nil {
		return nil, err
	}
	return d, nil
}
