package chart

// ChartJS renders c as a Chart.js configuration object.
func (c Config) ChartJS() map[string]any {
	dataset := map[string]any{
		"data":        c.Series,
		"borderWidth": c.BorderWidth,
	}
	if c.SeriesLabel != "" {
		dataset["label"] = c.SeriesLabel
	}
	if c.BorderColor != "" {
		dataset["borderColor"] = c.BorderColor
	}
	if c.Tension != 0 {
		dataset["tension"] = c.Tension
	}
	switch {
	case len(c.Colors) == 1:
		dataset["backgroundColor"] = c.Colors[0]
	case len(c.Colors) > 1:
		dataset["backgroundColor"] = c.Colors
	}

	legend := map[string]any{"display": c.Legend != LegendHidden}
	if c.Legend != LegendHidden && c.Legend != "" {
		legend["position"] = c.Legend
	}

	options := map[string]any{
		"responsive":          true,
		"maintainAspectRatio": false,
		"plugins": map[string]any{
			"legend": legend,
			"title":  map[string]any{"display": true, "text": c.Title},
		},
	}
	if c.XAxisTitle != "" || c.YAxisTitle != "" {
		options["scales"] = map[string]any{
			"x": map[string]any{
				"title": map[string]any{"display": c.XAxisTitle != "", "text": c.XAxisTitle},
			},
			"y": map[string]any{
				"beginAtZero": c.BeginAtZero,
				"title":       map[string]any{"display": c.YAxisTitle != "", "text": c.YAxisTitle},
			},
		}
	}

	return map[string]any{
		"type": string(c.Type),
		"data": map[string]any{
			"labels":   c.Labels,
			"datasets": []any{dataset},
		},
		"options": options,
	}
}
