package report

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/YuminosukeSato/numerai/pipeline"
	"github.com/YuminosukeSato/numerai/pkg/errors"
	"github.com/YuminosukeSato/numerai/scoring"
)

// Series is one partition of era scores in a chart.
type Series struct {
	Name   string
	Scores scoring.EraScores
}

var seriesColors = []color.Color{
	color.RGBA{R: 20, G: 80, B: 200, A: 255},
	color.RGBA{R: 200, G: 90, B: 20, A: 255},
	color.RGBA{R: 40, G: 140, B: 40, A: 255},
}

// PlotEras draws one bar per era, series after series, and saves the chart
// to path. The format follows the file extension (png, svg, pdf...). NaN
// eras are drawn as zero and counted in the title.
func PlotEras(path, title string, series ...Series) error {
	total := 0
	for _, s := range series {
		total += len(s.Scores)
	}
	if total == 0 {
		return errors.NewValueError("PlotEras", "no era scores to plot")
	}

	p := plot.New()
	p.Y.Label.Text = "correlation"
	p.X.Label.Text = "era"

	labels := make([]string, 0, total)
	undefined := 0
	offset := 0
	for i, s := range series {
		// each series spans the full axis; other series' slots stay zero
		values := make(plotter.Values, total)
		for k, e := range s.Scores {
			v := e.Correlation
			if math.IsNaN(v) {
				undefined++
				v = 0
			}
			values[offset+k] = v
			labels = append(labels, e.Era)
		}
		offset += len(s.Scores)

		bars, err := plotter.NewBarChart(values, vg.Points(8))
		if err != nil {
			return errors.Wrap(err, "report: bar chart")
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = seriesColors[i%len(seriesColors)]
		p.Add(bars)
		p.Legend.Add(s.Name, bars)
	}
	p.Add(plotter.NewGrid())
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.XAlign = draw.XRight
	p.Legend.Top = true

	p.Title.Text = title
	if undefined > 0 {
		p.Title.Text = fmt.Sprintf("%s (%d undefined eras)", title, undefined)
	}

	width := vg.Length(total)*10*vg.Millimeter/4 + 4*vg.Inch
	if err := p.Save(width, 4*vg.Inch, path); err != nil {
		return errors.NewIOError("write", path, err)
	}
	return nil
}

// PlotReport charts the training and validation eras of r.
func PlotReport(path string, r *pipeline.Report) error {
	return PlotEras(path,
		fmt.Sprintf("Per-era correlation, %s", r.Config.Tournament),
		Series{Name: "training", Scores: r.Training.Eras},
		Series{Name: "validation", Scores: r.Validation.Eras},
	)
}
