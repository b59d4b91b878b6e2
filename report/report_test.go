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
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/privacy-lab/dpcompare/experiment"
	"github.com/privacy-lab/dpcompare/noise"
)

func table(m experiment.Mechanism, trueValue float64, rows ...experiment.Row) experiment.ResultTable {
	return experiment.ResultTable{Query: "debtors_count", Mechanism: m, TrueValue: trueValue, Rows: rows}
}

func row(eps, noisy, trueValue float64, runtime time.Duration) experiment.Row {
	return experiment.Row{Epsilon: eps, NoisyValue: noisy, Error: math.Abs(trueValue - noisy), Runtime: runtime}
}

func TestSummarizeCentral(t *testing.T) {
	tbl := table(experiment.Central, 10,
		row(0.5, 12, 10, time.Second),
		row(0.5, 6, 10, 3*time.Second),
		row(1, 10.5, 10, 2*time.Second),
	)
	got := Summarize(tbl, Params{Records: 100})
	want := []Summary{
		{
			Query: "debtors_count", Mechanism: experiment.Central, Epsilon: 0.5, Trials: 2, TrueValue: 10,
			MeanNoisyValue: 9, MeanError: 3, StdDevError: math.Sqrt2, MeanRuntime: 2, StdDevRuntime: math.Sqrt2,
			ExpectedStdDev: 2 * math.Sqrt2, ExpectedBias: 0, ErrorBound: 2 * math.Log(20),
		},
		{
			Query: "debtors_count", Mechanism: experiment.Central, Epsilon: 1, Trials: 1, TrueValue: 10,
			MeanNoisyValue: 10.5, MeanError: 0.5, StdDevError: 0, MeanRuntime: 2, StdDevRuntime: 0,
			ExpectedStdDev: math.Sqrt2, ExpectedBias: 0, ErrorBound: math.Log(20),
		},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Summarize mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarizeLocal(t *testing.T) {
	tbl := table(experiment.Local, 30, row(math.Log(3), 40, 30, time.Millisecond))
	got := Summarize(tbl, Params{Records: 100})
	if len(got) != 1 {
		t.Fatalf("got %d summaries, want 1", len(got))
	}
	// p = 0.75 at ε = ln 3.
	wantStd := math.Sqrt(100 * 0.75 * 0.25)
	wantBias := (100 - 60) * 0.25
	if math.Abs(got[0].ExpectedStdDev-wantStd) > 1e-9 || math.Abs(got[0].ExpectedBias-wantBias) > 1e-9 {
		t.Errorf("expected std/bias = %f/%f, want %f/%f", got[0].ExpectedStdDev, got[0].ExpectedBias, wantStd, wantBias)
	}

	if !math.IsNaN(got[0].ErrorBound) {
		t.Errorf("local error bound = %f, want NaN", got[0].ErrorBound)
	}

	unknown := Summarize(tbl, Params{})
	if !math.IsNaN(unknown[0].ExpectedStdDev) || !math.IsNaN(unknown[0].ExpectedBias) {
		t.Errorf("without a record count, expected std/bias = %f/%f, want NaN", unknown[0].ExpectedStdDev, unknown[0].ExpectedBias)
	}
}

func TestErrorBoundCoversCentralErrors(t *testing.T) {
	const trials = 20000
	tbl := table(experiment.Central, 0)
	lap := noise.NewLaplace(nil)
	for i := 0; i < trials; i++ {
		noisy, err := lap.AddNoise(0, 1, 0.5)
		if err != nil {
			t.Fatalf("AddNoise: got err %v", err)
		}
		tbl.Rows = append(tbl.Rows, row(0.5, noisy, 0, time.Microsecond))
	}
	s := Summarize(tbl, Params{Alpha: 0.1})[0]
	within := 0
	for _, r := range tbl.Rows {
		if r.Error <= s.ErrorBound {
			within++
		}
	}
	// The coverage is Binomial(trials, 0.9) distributed.
	tolerance := 4.41717 * math.Sqrt(0.9*0.1/trials)
	if got := float64(within) / trials; math.Abs(got-0.9) > tolerance {
		t.Errorf("%f of the errors are within the 90%% bound %f, want 0.9 ± %f", got, s.ErrorBound, tolerance)
	}
}

func TestCompare(t *testing.T) {
	central := []Summary{
		{Query: "a", Epsilon: 0.1, MeanError: 10},
		{Query: "a", Epsilon: 1, MeanError: 1},
		{Query: "b", Epsilon: 1, MeanError: 0},
	}
	local := []Summary{
		{Query: "a", Epsilon: 1, MeanError: 50},
		{Query: "b", Epsilon: 1, MeanError: 4},
		{Query: "c", Epsilon: 1, MeanError: 4},
	}
	got := Compare(central, local)
	want := []Comparison{
		{Query: "a", Epsilon: 1, CentralError: 1, LocalError: 50},
		{Query: "b", Epsilon: 1, CentralError: 0, LocalError: 4},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Compare mismatch (-want +got):\n%s", diff)
	}
	if r := got[0].Ratio(); r != 50 {
		t.Errorf("Ratio() = %f, want 50", r)
	}
	if r := got[1].Ratio(); !math.IsInf(r, 1) {
		t.Errorf("Ratio() with zero central error = %f, want +Inf", r)
	}
}

func TestWriteTextAndCSV(t *testing.T) {
	summaries := Summarize(table(experiment.Central, 10, row(0.5, 12.25, 10, time.Millisecond)), Params{Records: 100})

	var text bytes.Buffer
	if err := WriteText(&text, summaries); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	for _, want := range []string{"debtors_count", "central", "mean_error", "2.25"} {
		if !strings.Contains(strings.ToLower(text.String()), want) {
			t.Errorf("WriteText output does not contain %q:\n%s", want, text.String())
		}
	}

	var csv bytes.Buffer
	if err := WriteCSV(&csv, summaries); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(csv.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("WriteCSV wrote %d lines, want 2:\n%s", len(lines), csv.String())
	}
	if !strings.Contains(lines[1], "debtors_count,central,0.5,1,10,12.25,2.25") {
		t.Errorf("WriteCSV row = %q", lines[1])
	}

	var cmpText bytes.Buffer
	if err := WriteComparison(&cmpText, []Comparison{{Query: "a", Epsilon: 1, CentralError: 1, LocalError: 50}}); err != nil {
		t.Fatalf("WriteComparison: %v", err)
	}
	if !strings.Contains(cmpText.String(), "50") {
		t.Errorf("WriteComparison output does not contain the ratio:\n%s", cmpText.String())
	}
}

func TestPlotAll(t *testing.T) {
	dir := t.TempDir()
	central := table(experiment.Central, 10,
		row(0.1, 20, 10, time.Millisecond), row(0.1, 4, 10, 2*time.Millisecond),
		row(1, 11, 10, time.Millisecond), row(1, 9.5, 10, time.Millisecond),
	)
	local := central
	local.Mechanism = experiment.Local
	paths, err := PlotAll(dir, []experiment.ResultTable{central, local})
	if err != nil {
		t.Fatalf("PlotAll: %v", err)
	}
	want := []string{
		filepath.Join(dir, "debtors_count_errors.png"),
		filepath.Join(dir, "debtors_count_runtimes.png"),
	}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("PlotAll paths mismatch (-want +got):\n%s", diff)
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			t.Errorf("Stat(%q): %v", p, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("%q is empty", p)
		}
	}
}

func TestPlotQueryRejectsForeignTable(t *testing.T) {
	other := table(experiment.Central, 1, row(1, 1, 1, time.Millisecond))
	other.Query = "other"
	if _, err := PlotQuery(t.TempDir(), "debtors_count", []experiment.ResultTable{other}); err == nil {
		t.Error("PlotQuery with a table of another query: got nil err")
	}
}
