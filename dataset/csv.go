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
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// DefaultDelimiter separates the fields of the students data file.
const DefaultDelimiter = ';'

// ReadCSV loads a Dataset from a delimited text file whose first line is the
// header.
func ReadCSV(inputFile string, delimiter rune) (*Dataset, error) {
	csvFile, err := os.Open(inputFile)
	if err != nil {
		return nil, fmt.Errorf("couldn't open the csv file = %q, err = %v", inputFile, err)
	}
	defer csvFile.Close()

	d, err := ParseCSV(csvFile, delimiter)
	if err != nil {
		return nil, fmt.Errorf("couldn't read the csv file = %q, err = %w", inputFile, err)
	}
	return d, nil
}

// ParseCSV reads a Dataset from r. The first record is the header and every
// following record must have the same number of fields.
func ParseCSV(r io.Reader, delimiter rune) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("the input has no header")
	}
	if err != nil {
		return nil, err
	}
	header = trimBOM(header)

	records := make([][]string, 0)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return New(header, records)
}

// trimBOM strips a UTF-8 byte order mark written by spreadsheet exports.
func trimBOM(header []string) []string {
	if len(header) > 0 && len(header[0]) >= 3 && header[0][:3] == "\xef\xbb\xbf" {
		header[0] = header[0][3:]
	}
	return header
}
