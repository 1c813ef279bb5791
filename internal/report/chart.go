package report

import (
	"errors"
	"fmt"

	"github.com/go-analyze/charts"
)

// ErrNothingToChart is returned when there is no spend to draw.
var ErrNothingToChart = errors.New("no expenses to chart")

// GenerateExpenseChart renders the category breakdown as a PNG pie chart.
func GenerateExpenseChart(totals []CategoryTotal, title string) ([]byte, error) {
	var values []float64
	var names []string
	for _, t := range totals {
		if !t.Total.IsPositive() {
			continue
		}
		names = append(names, t.Category.Label())
		values = append(values, t.Total.InexactFloat64())
	}
	if len(values) == 0 {
		return nil, ErrNothingToChart
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: fmt.Sprintf("Expense Breakdown - %s", title),
		}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf, nil
}
