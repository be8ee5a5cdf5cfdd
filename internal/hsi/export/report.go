package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/hyperspectral/internal/hsi/l6objects"
)

// ObjectReport renders an HTML page summarising the object table: object
// count and total pixels per dominant decision.
func ObjectReport(w io.Writer, title string, records []l6objects.Record, decisions []string) error {
	counts := make([]int, len(decisions))
	pixels := make([]int, len(decisions))
	for _, r := range records {
		if r.Class < 0 || r.Class >= len(decisions) {
			continue
		}
		counts[r.Class]++
		pixels[r.Class] += r.Size
	}

	objects := make([]opts.BarData, len(decisions))
	sizes := make([]opts.BarData, len(decisions))
	for i := range decisions {
		objects[i] = opts.BarData{Value: counts[i]}
		sizes[i] = opts.BarData{Value: pixels[i]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%d objects", len(records))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(decisions).
		AddSeries("objects", objects,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		).
		AddSeries("pixels", sizes)

	page := components.NewPage()
	page.AddCharts(bar)
	return page.Render(w)
}
