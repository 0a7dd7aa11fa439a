package recorder

import (
	"fmt"
	"io"

	"fmusim/types"
)

// Source 采样来源，模型句柄实现该接口
type Source interface {
	GetValues(t types.VariableType, vr []types.ValueReference, nValues int) (any, types.Status)
	NumberOfVariableValues(v *types.ModelVariable) (int, types.Status)
}

// Renderer 输出格式
type Renderer interface {
	Render(w io.Writer) error
}

// Row 一行采样
type Row struct {
	Time   float64 // 采样时间
	Values []any   // 变量 -> 值切片
}

// Recorder 记录历史采样
type Recorder struct {
	Variables []*types.ModelVariable // 记录的变量
	sizes     []int                  // 每个变量的元素个数
	rows      []Row                  // 采样行
}

// New 创建记录器，引用维度在 UpdateSizes 前按 1 计
func New(variables []*types.ModelVariable) *Recorder {
	r := &Recorder{Variables: variables, sizes: make([]int, len(variables))}
	for i, v := range variables {
		n := 1
		for _, d := range v.Dimensions {
			if d.Variable == nil {
				n *= int(d.Start)
			}
		}
		r.sizes[i] = n
	}
	return r
}

// UpdateSizes 初始化后读取数组维度
func (r *Recorder) UpdateSizes(src Source) types.Status {
	for i, v := range r.Variables {
		if !v.IsArray() {
			continue
		}
		n, status := src.NumberOfVariableValues(v)
		if status > types.StatusWarning {
			return status
		}
		r.sizes[i] = n
	}
	return types.StatusOK
}

// Sample 追加一行，时钟变量不读取
func (r *Recorder) Sample(src Source, time float64) types.Status {
	row := Row{Time: time, Values: make([]any, len(r.Variables))}
	status := types.StatusOK
	for i, v := range r.Variables {
		if v.Type == types.TypeClock {
			row.Values[i] = types.MakeValues(types.TypeClock, r.sizes[i])
			continue
		}
		values, s := src.GetValues(v.Type, []types.ValueReference{v.ValueReference}, r.sizes[i])
		status = types.MaxStatus(status, s)
		if s > types.StatusWarning {
			return s
		}
		row.Values[i] = values
	}
	r.rows = append(r.rows, row)
	return status
}

// Rows 全部采样行
func (r *Recorder) Rows() []Row { return r.rows }

// Len 行数
func (r *Recorder) Len() int { return len(r.rows) }

// Size 变量元素个数
func (r *Recorder) Size(i int) int { return r.sizes[i] }

// Index 按名称查找变量序号
func (r *Recorder) Index(name string) int {
	for i, v := range r.Variables {
		if v.Name == name {
			return i
		}
	}
	return -1
}

// Series 变量第 element 个元素的数值曲线
func (r *Recorder) Series(name string, element int) (time, values []float64, err error) {
	i := r.Index(name)
	if i < 0 {
		return nil, nil, fmt.Errorf("未记录变量: %s", name)
	}
	if element >= r.sizes[i] {
		return nil, nil, fmt.Errorf("变量 %s 只有 %d 个元素", name, r.sizes[i])
	}
	time = make([]float64, 0, len(r.rows))
	values = make([]float64, 0, len(r.rows))
	for _, row := range r.rows {
		v, ok := types.Float64At(row.Values[i], element)
		if !ok {
			return nil, nil, fmt.Errorf("变量 %s 不是数值类型", name)
		}
		time = append(time, row.Time)
		values = append(values, v)
	}
	return time, values, nil
}

// Render 输出 CSV
func (r *Recorder) Render(w io.Writer) error { return r.WriteCSV(w) }
