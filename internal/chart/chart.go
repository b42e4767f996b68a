// Package chart builds the declarative configurations handed to the
// browser charting engine. The engine owns all rendering; a new
// configuration fully replaces the previous chart.
package chart

import (
	"budget/internal/core"
	"budget/internal/ledger"
)

type Type string

const (
	Doughnut Type = "doughnut"
	Pie      Type = "pie"
	Line     Type = "line"
)

// Palette is applied to category slices in order.
var Palette = []string{
	"rgba(255, 99, 132, 0.6)",
	"rgba(54, 162, 235, 0.6)",
	"rgba(255, 206, 86, 0.6)",
	"rgba(75, 192, 192, 0.6)",
	"rgba(153, 102, 255, 0.6)",
}

const (
	lineBorder = "rgba(75, 192, 192, 1)"
	lineFill   = "rgba(75, 192, 192, 0.2)"
)

// Config describes one chart.
type Config struct {
	ID          string    `json:"id"`
	Type        Type      `json:"type"`
	Title       string    `json:"title"`
	Labels      []string  `json:"labels"`
	Series      []float64 `json:"series"`
	SeriesLabel string    `json:"seriesLabel,omitempty"`
	Colors      []string  `json:"colors,omitempty"`
	BorderColor string    `json:"borderColor,omitempty"`
	BorderWidth int       `json:"borderWidth"`
	Tension     float64   `json:"tension,omitempty"`
	Legend      string    `json:"legend"`
	XAxisTitle  string    `json:"xAxisTitle,omitempty"`
	YAxisTitle  string    `json:"yAxisTitle,omitempty"`
	BeginAtZero bool      `json:"beginAtZero,omitempty"`
}

// Legend positions; LegendHidden turns the legend off.
const (
	LegendBottom = "bottom"
	LegendRight  = "right"
	LegendHidden = "hidden"
)

// Build returns the doughnut, pie and line configurations for s.
func Build(s ledger.Snapshot) []Config {
	totals := ledger.CategoryTotals(s)
	return []Config{
		NewDoughnut(totals),
		NewPie(totals),
		NewLine(ledger.ChronologicalSeries(s)),
	}
}

func NewDoughnut(totals []core.CategoryAmount) Config {
	c := categoryConfig(totals)
	c.ID = "expenseChart"
	c.Type = Doughnut
	c.Title = "Expense Distribution by Category (Doughnut)"
	c.Legend = LegendBottom
	return c
}

func NewPie(totals []core.CategoryAmount) Config {
	c := categoryConfig(totals)
	c.ID = "expensePieChart"
	c.Type = Pie
	c.Title = "Expense Distribution by Category (Pie)"
	c.Legend = LegendRight
	return c
}

func NewLine(points []core.Point) Config {
	c := Config{
		ID:          "expenseLineChart",
		Type:        Line,
		Title:       "Trend of Expenses",
		Labels:      make([]string, 0, len(points)),
		Series:      make([]float64, 0, len(points)),
		SeriesLabel: "Expense Value Over Entry",
		Colors:      []string{lineFill},
		BorderColor: lineBorder,
		BorderWidth: 2,
		Tension:     0.1,
		Legend:      LegendHidden,
		XAxisTitle:  "Expense Entry Order",
		YAxisTitle:  "Expense Value",
		BeginAtZero: true,
	}
	for _, p := range points {
		c.Labels = append(c.Labels, p.Label)
		c.Series = append(c.Series, p.Value.InexactFloat64())
	}
	return c
}

func categoryConfig(totals []core.CategoryAmount) Config {
	c := Config{
		Labels:      make([]string, 0, len(totals)),
		Series:      make([]float64, 0, len(totals)),
		Colors:      Palette,
		BorderWidth: 1,
	}
	for _, t := range totals {
		c.Labels = append(c.Labels, string(t.Category))
		c.Series = append(c.Series, t.Amount.InexactFloat64())
	}
	return c
}
