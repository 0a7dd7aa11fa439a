package recorder

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	fmitypes "fmusim/types"
)

// Charts 曲线绘制，每个数值变量一张折线图
type Charts struct {
	*Recorder
	Title string // 页面标题
}

// NewCharts 创建曲线页面
func NewCharts(r *Recorder, title string) *Charts {
	return &Charts{Recorder: r, Title: title}
}

// Render 格式化
func (c *Charts) Render(w io.Writer) error {
	page := components.NewPage()
	page.PageTitle = c.Title
	xAxis := make([]string, len(c.rows))
	for i, row := range c.rows {
		xAxis[i] = fmt.Sprintf("%.6g", row.Time)
	}
	for i, v := range c.Variables {
		if !numeric(v.Type) {
			continue
		}
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{
				Theme: types.ThemeWesteros,
			}),
			charts.WithTitleOpts(opts.Title{
				Title:    v.Name,
				Subtitle: v.Description,
			}),
			charts.WithLegendOpts(opts.Legend{
				Type:   "scroll",
				Orient: "vertical",
				Right:  "10",
				Top:    "20",
				Bottom: "20",
			}),
			charts.WithXAxisOpts(opts.XAxis{
				Name:        "time",
				SplitNumber: 20,
			}),
			charts.WithYAxisOpts(opts.YAxis{
				Scale: opts.Bool(true),
			}),
			charts.WithDataZoomOpts(opts.DataZoom{
				Type:       "inside",
				Start:      0,
				End:        100,
				XAxisIndex: []int{0},
			}),
			charts.WithAnimation(false),
		)
		line.SetXAxis(xAxis)
		for k := 0; k < c.sizes[i]; k++ {
			items := make([]opts.LineData, len(c.rows))
			for r, row := range c.rows {
				value, _ := fmitypes.Float64At(row.Values[i], k)
				items[r] = opts.LineData{Value: value}
			}
			name := v.Name
			if c.sizes[i] > 1 {
				name = fmt.Sprintf("%s[%d]", v.Name, k)
			}
			line.AddSeries(name, items)
		}
		page.AddCharts(line)
	}
	return page.Render(w)
}

// Handler 发布到网页面
func (c *Charts) Handler(w http.ResponseWriter, _ *http.Request) {
	if err := c.Render(w); err != nil {
		slog.Error("曲线渲染失败", "error", err)
	}
}

func numeric(t fmitypes.VariableType) bool {
	switch t {
	case fmitypes.TypeString, fmitypes.TypeBinary, fmitypes.TypeClock:
		return false
	}
	return true
}
