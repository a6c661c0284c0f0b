package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/gridward/zonal/internal/zonal"
)

// WriteReport renders an HTML report for an extraction result: one bar
// chart per layer with a bar per geometry. Missing values and failed
// rows show as gaps. The page is self-contained apart from the echarts
// assets, which load from the default CDN.
func WriteReport(res *zonal.Result, title string, w io.Writer) error {
	ids := make([]string, len(res.Rows))
	for i := range res.Rows {
		ids[i] = res.Rows[i].ID
	}

	page := components.NewPage()
	page.PageTitle = title

	for l := 0; l < res.Layers; l++ {
		data := make([]opts.BarData, len(res.Rows))
		for i := range res.Rows {
			row := &res.Rows[i]
			if row.Err != nil || row.Missing(l) {
				// echarts renders "-" as a gap.
				data[i] = opts.BarData{Value: "-"}
			} else {
				data[i] = opts.BarData{Value: row.Values[l]}
			}
		}

		bar := charts.NewBar()
		bar.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{
				Title:    fmt.Sprintf("%s, layer %d", res.Aggregator, l+1),
				Subtitle: fmt.Sprintf("%d geometries", len(res.Rows)),
			}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithXAxisOpts(opts.XAxis{Name: "geometry"}),
			charts.WithYAxisOpts(opts.YAxis{Name: res.Aggregator}),
		)
		bar.SetXAxis(ids).AddSeries(res.Aggregator, data)
		page.AddCharts(bar)
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}
