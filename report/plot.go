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
	"os"
	"path/filepath"

	log "github.com/golang/glog"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/privacy-lab/dpcompare/experiment"
)

// metric selects the value of a row drawn on the y axis.
type metric struct {
	name  string
	label string
	value func(experiment.Row) float64
}

var metrics = []metric{
	{name: "errors", label: "Absolute error", value: func(r experiment.Row) float64 { return r.Error }},
	{name: "runtimes", label: "Runtime (s)", value: experiment.Row.RuntimeSeconds},
}

// PlotQuery draws the trials of tables, which must all belong to query, as
// error and runtime scatter charts against epsilon, one series per
// mechanism with a line through the per-epsilon means. Charts are saved as
// PNG files under dir and their paths returned.
func PlotQuery(dir, query string, tables []experiment.ResultTable) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("couldn't create the plot directory %q: %w", dir, err)
	}
	var paths []string
	for _, m := range metrics {
		p := plot.New()
		p.Title.Text = fmt.Sprintf("%s: %s vs epsilon", query, m.label)
		p.X.Label.Text = "Epsilon"
		p.Y.Label.Text = m.label
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{Prec: -1}
		p.Legend.Top = true

		for i, t := range tables {
			if t.Query != query {
				return nil, fmt.Errorf("table %q passed to the plot of %q", t.Query, query)
			}
			points := make(plotter.XYs, len(t.Rows))
			for j, r := range t.Rows {
				points[j].X = r.Epsilon
				points[j].Y = m.value(r)
			}
			scatter, err := plotter.NewScatter(points)
			if err != nil {
				return nil, fmt.Errorf("could not create scatter from points %v: %w", points, err)
			}
			scatter.GlyphStyle.Color = plotutil.Color(i)
			scatter.GlyphStyle.Shape = plotutil.Shape(i)
			scatter.GlyphStyle.Radius = vg.Points(2)

			line, err := plotter.NewLine(meanPoints(t, m))
			if err != nil {
				return nil, fmt.Errorf("could not create line of means for %q: %w", query, err)
			}
			line.LineStyle.Color = plotutil.Color(i)
			line.LineStyle.Width = vg.Points(1)

			p.Add(scatter, line)
			p.Legend.Add(t.Mechanism.String(), scatter, line)
		}

		outputFile := filepath.Join(dir, fmt.Sprintf("%s_%s.png", query, m.name))
		if err := p.Save(8*vg.Inch, 5*vg.Inch, outputFile); err != nil {
			return nil, fmt.Errorf("could not save plot %q: %w", outputFile, err)
		}
		paths = append(paths, outputFile)
	}
	return paths, nil
}

func meanPoints(t experiment.ResultTable, m metric) plotter.XYs {
	eps := t.Epsilons()
	points := make(plotter.XYs, len(eps))
	for i, e := range eps {
		rows := t.RowsFor(e)
		values := make([]float64, len(rows))
		for j, r := range rows {
			values[j] = m.value(r)
		}
		points[i].X = e
		points[i].Y = stat.Mean(values, nil)
	}
	return points
}

// PlotAll draws the charts of every query found in tables, grouping tables
// of different mechanisms by query name. Queries are plotted in first-seen
// order.
func PlotAll(dir string, tables []experiment.ResultTable) ([]string, error) {
	var order []string
	byQuery := make(map[string][]experiment.ResultTable)
	for _, t := range tables {
		if _, ok := byQuery[t.Query]; !ok {
			order = append(order, t.Query)
		}
		byQuery[t.Query] = append(byQuery[t.Query], t)
	}
	var paths []string
	for _, q := range order {
		ps, err := PlotQuery(dir, q, byQuery[q])
		if err != nil {
			return nil, err
		}
		log.V(1).Infof("Plotted %q to %v", q, ps)
		paths = append(paths, ps...)
	}
	return paths, nil
}
