package recorder

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Plot 绘制数值变量曲线并保存，图片格式由扩展名决定
// names 为空时绘制全部数值变量
func (r *Recorder) Plot(path, title string, names ...string) error {
	if len(names) == 0 {
		for _, v := range r.Variables {
			if numeric(v.Type) {
				names = append(names, v.Name)
			}
		}
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time"
	p.Add(plotter.NewGrid())
	lines := make([]any, 0, 2*len(names))
	for _, name := range names {
		i := r.Index(name)
		if i < 0 {
			return fmt.Errorf("未记录变量: %s", name)
		}
		for k := 0; k < r.sizes[i]; k++ {
			time, values, err := r.Series(name, k)
			if err != nil {
				return err
			}
			xys := make(plotter.XYs, len(time))
			for j := range time {
				xys[j].X, xys[j].Y = time[j], values[j]
			}
			label := name
			if r.sizes[i] > 1 {
				label = fmt.Sprintf("%s[%d]", name, k)
			}
			lines = append(lines, label, xys)
		}
	}
	if err := plotutil.AddLines(p, lines...); err != nil {
		return fmt.Errorf("绘制曲线失败: %w", err)
	}
	return p.Save(10*vg.Inch, 5*vg.Inch, path)
}
