package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/fieldsense-data/habitat.report/internal/config"
)

// writeReport renders the replay results: an HTML page of line charts via
// go-echarts and a quality index histogram PNG via gonum/plot.
func writeReport(profile *config.Profile, run *Run) error {
	if err := writeHTMLReport(profile, run); err != nil {
		return err
	}
	return writeQualityHistogram(run)
}

func writeHTMLReport(profile *config.Profile, run *Run) error {
	ticks := make([]string, len(run.Records))
	for i, rec := range run.Records {
		ticks[i] = strconv.FormatUint(rec.Tick, 10)
	}

	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("%s replay %s", profile.GetName(), run.ID)

	values := charts.NewLine()
	values.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Calibrated values",
			Subtitle: fmt.Sprintf("subsystem=%s ticks=%d", profile.GetName(), len(run.Records)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "tick"}),
	)
	values.SetXAxis(ticks)
	for i := range profile.Parameters {
		name := profile.Parameters[i].Name
		data := make([]opts.LineData, len(run.Records))
		for j, rec := range run.Records {
			data[j] = opts.LineData{Value: rec.Values[name]}
		}
		values.AddSeries(name, data)
	}
	page.AddCharts(values)

	quality := charts.NewLine()
	quality.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Quality index"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "tick"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100}),
	)
	quality.SetXAxis(ticks)
	qdata := make([]opts.LineData, len(run.Records))
	for i, rec := range run.Records {
		qdata[i] = opts.LineData{Value: rec.QualityIndex}
	}
	quality.AddSeries("index", qdata)
	page.AddCharts(quality)

	level := charts.NewLine()
	level.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Alert level"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "tick"}),
	)
	level.SetXAxis(ticks)
	ldata := make([]opts.LineData, len(run.Records))
	for i, rec := range run.Records {
		ldata[i] = opts.LineData{Value: rec.Level}
	}
	level.AddSeries("level", ldata)
	page.AddCharts(level)

	f, err := os.Create(filepath.Join(run.Dir, "report.html"))
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

func writeQualityHistogram(run *Run) error {
	vals := make(plotter.Values, len(run.Records))
	for i, rec := range run.Records {
		vals[i] = rec.QualityIndex
	}

	p := plot.New()
	p.Title.Text = "Quality index distribution"
	p.X.Label.Text = "index"
	p.Y.Label.Text = "ticks"

	hist, err := plotter.NewHist(vals, 20)
	if err != nil {
		return fmt.Errorf("failed to build histogram: %w", err)
	}
	p.Add(hist)

	out := filepath.Join(run.Dir, "quality_hist.png")
	if err := p.Save(8*vg.Inch, 4*vg.Inch, out); err != nil {
		return fmt.Errorf("failed to save histogram: %w", err)
	}
	return nil
}
