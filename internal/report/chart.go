package report

import (
	"math"

	"github.com/iliyamo/acrux-trazabilidad/internal/model"
)

// Bar is one rectangle of a Chart in SVG user units.
type Bar struct {
	X, Y, W, H float64
	LabelX     float64
	Label      string
	Value      float64
}

// Chart is a vertical bar chart laid out for an inline SVG.
type Chart struct {
	Width, Height float64
	Baseline      float64
	Bars          []Bar
}

const (
	chartPadTop    = 24
	chartPadBottom = 48
	chartGap       = 0.25
)

// NewChart lays out series as bars scaled to the heaviest entry.
func NewChart(series []model.Serie, width, height int) Chart {
	c := Chart{Width: float64(width), Height: float64(height), Baseline: float64(height - chartPadBottom)}
	if len(series) == 0 {
		return c
	}
	maxKg := 0.0
	for _, s := range series {
		maxKg = math.Max(maxKg, s.TotalKg)
	}
	slot := c.Width / float64(len(series))
	usable := c.Baseline - chartPadTop
	for i, s := range series {
		h := 0.0
		if maxKg > 0 {
			h = usable * s.TotalKg / maxKg
		}
		x := float64(i)*slot + slot*chartGap/2
		w := slot * (1 - chartGap)
		c.Bars = append(c.Bars, Bar{
			X: round1(x), Y: round1(c.Baseline - h), W: round1(w), H: round1(h),
			LabelX: round1(x + w/2), Label: s.Etiqueta, Value: s.TotalKg,
		})
	}
	return c
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
