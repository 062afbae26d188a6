package report

import (
	"fmt"
	"image/color"
	"math"
)

// Series is the numeric input of a chart: one value per circuit, in batch
// order, with the circuit IDs as labels.
type Series struct {
	Labels []string
	Values []float64
}

const (
	chartWidth  = 640
	chartHeight = 360
	marginLeft  = 56
	marginRight = 16
	marginTop   = 28
	marginBot   = 44
)

var (
	axisColor     = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
	gridColor     = color.RGBA{R: 0xec, G: 0xf0, B: 0xf1, A: 0xff}
	barColor      = color.RGBA{R: 0x34, G: 0x98, B: 0xdb, A: 0xff}
	overBarColor  = color.RGBA{R: 0xe7, G: 0x4c, B: 0x3c, A: 0xff}
	limitColor    = color.RGBA{R: 0xe7, G: 0x4c, B: 0x3c, A: 0xff}
	polylineColor = color.RGBA{R: 0x27, G: 0xae, B: 0x60, A: 0xff}
)

// DrawVoltageDropChart draws a per-circuit voltage-drop bar chart with the
// regulatory limit as a horizontal marker line. Bars above the limit are
// drawn in the alert color. Rendering is a pure function of the series and
// limit: same input, pixel-identical output.
func DrawVoltageDropChart(c Canvas, s Series, limitPct float64) error {
	if len(s.Values) == 0 {
		return fmt.Errorf("voltage-drop chart: empty series")
	}
	if len(s.Labels) != len(s.Values) {
		return fmt.Errorf("voltage-drop chart: %d labels for %d values", len(s.Labels), len(s.Values))
	}

	maxVal := limitPct
	for _, v := range s.Values {
		maxVal = math.Max(maxVal, v)
	}
	maxVal *= 1.15 // headroom above the tallest bar or the limit line

	plot := newPlotArea(c, maxVal, "%")
	plot.drawFrame("Voltage drop per circuit")

	n := len(s.Values)
	slot := plot.width() / float64(n)
	barW := slot * 0.6
	for i, v := range s.Values {
		x := plot.x0 + slot*float64(i) + (slot-barW)/2
		col := barColor
		if v > limitPct {
			col = overBarColor
		}
		c.FillRect(x, plot.yFor(v), barW, plot.y1-plot.yFor(v), col)
		if n <= 16 {
			c.Text(x, plot.y1+14, s.Labels[i], axisColor)
		}
	}

	// Limit marker across the full plot width.
	c.SetStroke(limitColor)
	c.MoveTo(plot.x0, plot.yFor(limitPct))
	c.LineTo(plot.x1, plot.yFor(limitPct))
	c.Text(plot.x1-110, plot.yFor(limitPct)-5, fmt.Sprintf("limit %.2f%%", limitPct), limitColor)
	return nil
}

// DrawLossesChart draws the per-circuit Joule losses as a polyline.
func DrawLossesChart(c Canvas, s Series) error {
	if len(s.Values) == 0 {
		return fmt.Errorf("losses chart: empty series")
	}
	if len(s.Labels) != len(s.Values) {
		return fmt.Errorf("losses chart: %d labels for %d values", len(s.Labels), len(s.Values))
	}

	maxVal := 0.0
	for _, v := range s.Values {
		maxVal = math.Max(maxVal, v)
	}
	if maxVal == 0 {
		maxVal = 1
	}
	maxVal *= 1.15

	plot := newPlotArea(c, maxVal, "W")
	plot.drawFrame("Joule losses per circuit")

	n := len(s.Values)
	slot := plot.width() / float64(n)
	c.SetStroke(polylineColor)
	for i, v := range s.Values {
		x := plot.x0 + slot*float64(i) + slot/2
		y := plot.yFor(v)
		if i == 0 {
			c.MoveTo(x, y)
		} else {
			c.LineTo(x, y)
		}
		c.FillRect(x-1.5, y-1.5, 3, 3, polylineColor)
		if n <= 16 {
			c.Text(x-slot*0.3, plot.y1+14, s.Labels[i], axisColor)
		}
	}
	return nil
}

// RenderChart draws onto a fresh image canvas and returns the encoded chart.
func RenderChart(title string, drawFn func(Canvas) error) (Chart, error) {
	canvas := NewImageCanvas(chartWidth, chartHeight)
	if err := drawFn(canvas); err != nil {
		return Chart{}, err
	}
	data, err := canvas.EncodePNG()
	if err != nil {
		return Chart{}, err
	}
	return Chart{Title: title, PNG: data}, nil
}

// plotArea maps data values into the pixel rectangle left inside the chart
// margins.
type plotArea struct {
	canvas Canvas
	x0, y0 float64
	x1, y1 float64
	maxVal float64
	unit   string
}

func newPlotArea(c Canvas, maxVal float64, unit string) *plotArea {
	w, h := c.Size()
	return &plotArea{
		canvas: c,
		x0:     marginLeft,
		y0:     marginTop,
		x1:     float64(w) - marginRight,
		y1:     float64(h) - marginBot,
		maxVal: maxVal,
		unit:   unit,
	}
}

func (p *plotArea) width() float64 { return p.x1 - p.x0 }

// yFor maps a data value to a pixel row; zero sits on the x axis.
func (p *plotArea) yFor(v float64) float64 {
	return p.y1 - (v/p.maxVal)*(p.y1-p.y0)
}

// drawFrame draws the title, axes and four horizontal gridlines with their
// value labels.
func (p *plotArea) drawFrame(title string) {
	c := p.canvas
	c.Text(p.x0, p.y0-10, title, axisColor)

	c.SetStroke(gridColor)
	for i := 1; i <= 4; i++ {
		v := p.maxVal * float64(i) / 4
		c.MoveTo(p.x0, p.yFor(v))
		c.LineTo(p.x1, p.yFor(v))
	}

	c.SetStroke(axisColor)
	c.MoveTo(p.x0, p.y0)
	c.LineTo(p.x0, p.y1)
	c.LineTo(p.x1, p.y1)

	for i := 0; i <= 4; i++ {
		v := p.maxVal * float64(i) / 4
		c.Text(4, p.yFor(v)+4, fmt.Sprintf("%.2f%s", v, p.unit), axisColor)
	}
}
