// Package plot renders visual-validation overlays for fitted plants: the
// observed (day, size) points as a scatter with the fitted logistic curve
// drawn across the observed day range.
package plot

import (
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/rlbaker5/McNair2023/internal/hash"
	"github.com/rlbaker5/McNair2023/logistic"
	"github.com/rlbaker5/McNair2023/series"
)

// curveSamples is the number of points used to draw the fitted curve.
const curveSamples = 100

// palette holds the stroke colors assigned to genotype groups. The group
// label only styles the plot; it never influences fitting.
var palette = []drawing.Color{
	chart.ColorBlue,
	chart.ColorGreen,
	chart.ColorRed,
	{R: 255, G: 165, B: 0, A: 255}, // orange
}

// groupColor deterministically assigns a palette color to a group label.
func groupColor(g series.Group) drawing.Color {
	return palette[hash.PlantID(string(g))%uint64(len(palette))]
}

// Overlay builds the overlay chart for one plant: observation scatter plus
// the fitted curve evaluated over the observed day range.
func Overlay(s *series.IndividualSeries, fit *logistic.Result) chart.Chart {
	days, sizes := s.Points()
	curveX, curveY := fit.Sample(days[0], days[len(days)-1], curveSamples)

	return chart.Chart{
		Title:  fmt.Sprintf("%s (%s)", s.PlantID(), s.Group()),
		Width:  640,
		Height: 480,
		XAxis: chart.XAxis{
			Name:  "days since planting",
			Style: chart.Style{FontSize: 10.0},
		},
		YAxis: chart.YAxis{
			Name:  "plant surface (px)",
			Style: chart.Style{FontSize: 10.0},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "observed",
				XValues: days,
				YValues: sizes,
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    4.0,
					DotColor:    chart.ColorAlternateGray,
				},
			},
			chart.ContinuousSeries{
				Name:    "fitted logistic",
				XValues: curveX,
				YValues: curveY,
				Style: chart.Style{
					StrokeColor: groupColor(s.Group()),
					StrokeWidth: 2.0,
				},
			},
		},
	}
}

// RenderPNG renders the overlay chart for one plant as PNG.
func RenderPNG(w io.Writer, s *series.IndividualSeries, fit *logistic.Result) error {
	graph := Overlay(s, fit)
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render overlay for %s: %w", s.PlantID(), err)
	}

	return nil
}
