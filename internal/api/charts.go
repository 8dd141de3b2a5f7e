package api

import (
	"bytes"
	"fmt"
	"image/color"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"mission_go/internal/models"
	"mission_go/pkg/utils"
)

// seriesFields retorna os campos presentes nas amostras, na ordem da primeira aparição
func seriesFields(samples []models.Sample) []string {
	seen := map[string]bool{}
	var fields []string
	for _, s := range samples {
		for _, k := range sortedKeys(s.Values) {
			if !seen[k] {
				seen[k] = true
				fields = append(fields, k)
			}
		}
	}
	return fields
}

func sortedKeys(values map[string]float64) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// renderSeriesChart monta uma página HTML com uma linha por campo
func renderSeriesChart(topic string, samples []models.Sample) ([]byte, error) {
	labels := make([]string, len(samples))
	for i, s := range samples {
		labels[i] = utils.FormatClock(s.Timestamp)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Telemetria " + topic, Theme: "dark", Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: topic, Subtitle: fmt.Sprintf("%d amostras", len(samples))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)
	line.SetXAxis(labels)

	for _, field := range seriesFields(samples) {
		data := make([]opts.LineData, len(samples))
		for i, s := range samples {
			// campo ausente vira um buraco na linha
			if v, ok := s.Values[field]; ok {
				data[i] = opts.LineData{Value: v}
			} else {
				data[i] = opts.LineData{Value: "-"}
			}
		}
		line.AddSeries(field, data)
	}

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderSeriesPlot desenha a janela em PNG; o eixo X é em segundos desde a
// primeira amostra
func renderSeriesPlot(topic string, samples []models.Sample) ([]byte, error) {
	p := plot.New()
	p.Title.Text = topic
	p.X.Label.Text = "t (s)"
	p.Y.Label.Text = "valor"
	p.Legend.Top = true

	fields := seriesFields(samples)
	for i, field := range fields {
		pts := make(plotter.XYs, 0, len(samples))
		for _, s := range samples {
			v, ok := s.Values[field]
			if !ok {
				continue
			}
			pts = append(pts, plotter.XY{X: s.Timestamp.Sub(samples[0].Timestamp).Seconds(), Y: v})
		}
		if len(pts) == 0 {
			continue
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("erro ao criar linha %s: %w", field, err)
		}
		line.Width = vg.Points(1)
		line.Color = fieldColor(i, len(fields))
		p.Add(line)
		p.Legend.Add(field, line)
	}

	writer, err := p.WriterTo(10*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fieldColor distribui os campos pelo círculo de matizes
func fieldColor(i, n int) color.Color {
	if n <= 0 {
		n = 1
	}
	return utils.HSLToRGBA(float64(i)*360/float64(n), 70, 50)
}
