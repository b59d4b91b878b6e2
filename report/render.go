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

package report

import (
	"fmt"
	"io"
	"strconv"

	prettytable "github.com/jedib0t/go-pretty/v6/table"
)

var summaryHeader = prettytable.Row{
	"query", "mechanism", "epsilon", "trials", "true_value", "mean_noisy_value",
	"mean_error", "stddev_error", "mean_runtime", "stddev_runtime",
	"expected_stddev", "expected_bias", "error_bound",
}

func summaryRow(s Summary, format func(float64) string) prettytable.Row {
	return prettytable.Row{
		s.Query, s.Mechanism.String(), format(s.Epsilon), s.Trials, format(s.TrueValue), format(s.MeanNoisyValue),
		format(s.MeanError), format(s.StdDevError), format(s.MeanRuntime), format(s.StdDevRuntime),
		format(s.ExpectedStdDev), format(s.ExpectedBias), format(s.ErrorBound),
	}
}

func summaryTable(summaries []Summary, format func(float64) string) prettytable.Writer {
	t := prettytable.NewWriter()
	t.AppendHeader(summaryHeader)
	for _, s := range summaries {
		t.AppendRow(summaryRow(s, format))
	}
	return t
}

// WriteText renders summaries as an aligned text table.
func WriteText(w io.Writer, summaries []Summary) error {
	t := summaryTable(summaries, shortFloat)
	t.SetStyle(prettytable.StyleLight)
	_, err := io.WriteString(w, t.Render()+"\n")
	return err
}

// WriteCSV renders summaries as CSV with full float precision.
func WriteCSV(w io.Writer, summaries []Summary) error {
	_, err := io.WriteString(w, summaryTable(summaries, exactFloat).RenderCSV()+"\n")
	return err
}

// WriteComparison renders central-vs-local comparisons as an aligned text
// table.
func WriteComparison(w io.Writer, comparisons []Comparison) error {
	t := prettytable.NewWriter()
	t.SetStyle(prettytable.StyleLight)
	t.AppendHeader(prettytable.Row{"query", "epsilon", "central_mean_error", "local_mean_error", "local/central"})
	for _, c := range comparisons {
		t.AppendRow(prettytable.Row{c.Query, shortFloat(c.Epsilon), shortFloat(c.CentralError), shortFloat(c.LocalError), shortFloat(c.Ratio())})
	}
	_, err := io.WriteString(w, t.Render()+"\n")
	return err
}

func shortFloat(f float64) string {
	return fmt.Sprintf("%.4g", f)
}

func exactFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
