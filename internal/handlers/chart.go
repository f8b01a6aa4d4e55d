package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"quit-tracker/internal/models"
)

const (
	chartWidth  = 640
	chartHeight = 260
	chartPad    = 22
)

// ChartPoint is one month plotted on the savings chart.
type ChartPoint struct {
	X, Y  float64
	Label string
	Value int64
}

// LineChart is the SVG geometry of the cumulative savings chart.
type LineChart struct {
	Width, Height float64
	BaseY         float64 // y of the x axis
	LabelY        float64 // baseline of the month labels
	Left, Right   float64
	Points        []ChartPoint
	Line          string // polyline points attribute
	Area          string // path d attribute of the filled area
}

// Empty reports whether there is nothing to plot.
func (c LineChart) Empty() bool { return len(c.Points) == 0 }

// BuildLineChart lays out the monthly points from left to right, scaled so
// the largest value touches the top padding. A single point sits on the
// left edge.
func BuildLineChart(points []models.MonthlyPoint, width, height, pad float64) LineChart {
	c := LineChart{
		Width:  width,
		Height: height,
		BaseY:  height - pad,
		LabelY: height - 4,
		Left:   pad,
		Right:  width - pad,
	}
	if len(points) == 0 {
		return c
	}

	innerW := width - 2*pad
	innerH := height - 2*pad
	maxVal := int64(1)
	for _, p := range points {
		if p.CumulativeMoneyMinor > maxVal {
			maxVal = p.CumulativeMoneyMinor
		}
	}
	steps := float64(len(points) - 1)
	if steps == 0 {
		steps = 1
	}

	line := make([]string, 0, len(points))
	for i, p := range points {
		x := pad + float64(i)/steps*innerW
		y := pad + innerH - float64(p.CumulativeMoneyMinor)/float64(maxVal)*innerH
		c.Points = append(c.Points, ChartPoint{X: x, Y: y, Label: p.Label, Value: p.CumulativeMoneyMinor})
		line = append(line, coord(x)+","+coord(y))
	}
	c.Line = strings.Join(line, " ")

	last := c.Points[len(c.Points)-1]
	c.Area = fmt.Sprintf("M%s,%s L%s L%s,%s L%s,%s Z",
		coord(c.Points[0].X), coord(c.BaseY),
		strings.ReplaceAll(c.Line, " ", " L"),
		coord(last.X), coord(c.BaseY),
		coord(c.Points[0].X), coord(c.BaseY))
	return c
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func itoa(n int) string { return strconv.Itoa(n) }
