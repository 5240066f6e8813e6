package export

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	chartHeight     = 512
	chartMinWidth   = 640
	chartBarWidth   = 40
	chartBarSpacing = 12
)

// Bar is one labelled value of a bar chart.
type Bar struct {
	Label string
	Value float64
}

// BarChart is a backend-neutral description of a bar chart.
type BarChart struct {
	Title         string
	Color         string
	LabelRotation float64
	Bars          []Bar
}

// ChartRenderer draws bar charts as PNG images.
type ChartRenderer struct{}

// NewChartRenderer constructs a chart renderer.
func NewChartRenderer() *ChartRenderer {
	return &ChartRenderer{}
}

// Render draws the chart; the y axis always starts at zero.
func (r *ChartRenderer) Render(spec BarChart) ([]byte, error) {
	if len(spec.Bars) == 0 {
		return nil, fmt.Errorf("chart requires at least one bar")
	}

	color := parseColor(spec.Color)
	bars := make([]chart.Value, len(spec.Bars))
	top := 0.0
	for i, bar := range spec.Bars {
		if math.IsNaN(bar.Value) || math.IsInf(bar.Value, 0) {
			return nil, fmt.Errorf("chart bar %q has a non-finite value", bar.Label)
		}
		bars[i] = chart.Value{
			Label: bar.Label,
			Value: bar.Value,
			Style: chart.Style{FillColor: color, StrokeColor: color},
		}
		if bar.Value > top {
			top = bar.Value
		}
	}
	if top <= 0 {
		top = 1
	}

	width := len(bars)*(chartBarWidth+chartBarSpacing) + 120
	if width < chartMinWidth {
		width = chartMinWidth
	}

	graph := chart.BarChart{
		Title:      spec.Title,
		Width:      width,
		Height:     chartHeight,
		BarWidth:   chartBarWidth,
		BarSpacing: chartBarSpacing,
		Background: chart.Style{Padding: chart.Box{Top: 40, Bottom: 100}},
		XAxis:      chart.Style{TextRotationDegrees: spec.LabelRotation},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1}},
		Bars:       bars,
	}

	buf := &bytes.Buffer{}
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}

func parseColor(hex string) drawing.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if hex == "" {
		hex = "87ceeb"
	}
	return drawing.ColorFromHex(hex)
}
