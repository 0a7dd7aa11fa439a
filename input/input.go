package input

import (
	"errors"
	"fmt"
	"math"

	"fmusim/types"
)

// 输入轨迹错误
var (
	ErrNotSorted = errors.New("输入时间必须单调不减")
	ErrRowWidth  = errors.New("输入行宽度与变量数量不一致")
)

// Target 输入应用目标，模型句柄实现该接口
type Target interface {
	State() types.InstanceState
	SetValues(t types.VariableType, vr []types.ValueReference, values any) types.Status
}

// Input 静态输入轨迹
// 按时间排列的行，每行对每个变量给出一组类型化值
type Input struct {
	Variables []*types.ModelVariable // 输入变量
	Time      []float64              // 时间列
	Values    [][]any                // 行 -> 变量 -> 值切片
}

// New 创建输入轨迹并校验
func New(variables []*types.ModelVariable, times []float64, values [][]any) (*Input, error) {
	if len(times) != len(values) {
		return nil, fmt.Errorf("时间列长度 %d 与行数 %d 不一致", len(times), len(values))
	}
	for i, row := range values {
		if i > 0 && times[i] < times[i-1] {
			return nil, fmt.Errorf("%w: 第 %d 行 %g < %g", ErrNotSorted, i, times[i], times[i-1])
		}
		if len(row) != len(variables) {
			return nil, fmt.Errorf("%w: 第 %d 行", ErrRowWidth, i)
		}
		for j, v := range variables {
			if err := types.CheckValues(v.Type, row[j]); err != nil {
				return nil, fmt.Errorf("第 %d 行变量 %s: %w", i, v.Name, err)
			}
		}
	}
	return &Input{Variables: variables, Time: times, Values: values}, nil
}

// NextEvent 严格晚于 time 的下一个离散输入变化时间，没有则为 +Inf
// 时间完全相同的相邻两行表示零时长跳变，直接返回该时刻
func (in *Input) NextEvent(time float64) float64 {
	if in == nil {
		return math.Inf(1)
	}
	for i := 0; i+1 < len(in.Time); i++ {
		t0, t1 := in.Time[i], in.Time[i+1]
		if time > t1 || types.IsClose(time, t1) {
			continue
		}
		if t0 == t1 {
			return t0
		}
		for j, v := range in.Variables {
			if v.Variability == types.VariabilityContinuous {
				continue
			}
			a, b := in.Values[i][j], in.Values[i+1][j]
			if types.NumValues(a) != types.NumValues(b) {
				continue
			}
			if !types.ValuesEqual(a, b) {
				return t1
			}
		}
	}
	return math.Inf(1)
}

// Apply 在 time 时刻把输入写入模型
// discrete/continuous 选择变量类别，afterEvent 选择零时长跳变之后的值
func (in *Input) Apply(target Target, time float64, discrete, continuous, afterEvent bool) types.Status {
	if in == nil || len(in.Time) == 0 {
		return types.StatusOK
	}
	status := types.StatusOK
	for j, v := range in.Variables {
		if v.IsTime() {
			continue
		}
		var values any
		if v.Variability == types.VariabilityContinuous {
			if !continuous {
				continue
			}
			values = in.continuousValue(j, time, afterEvent)
		} else {
			if !discrete {
				continue
			}
			values = in.Values[in.discreteRow(time, afterEvent)][j]
			if v.Type == types.TypeClock {
				// 时钟只在激活时设置，且初始化模式中不设置
				if target.State() == types.InitializationMode || !active(values) {
					continue
				}
			}
		}
		s := target.SetValues(v.Type, []types.ValueReference{v.ValueReference}, values)
		status = types.MaxStatus(status, s)
		if s > types.StatusWarning {
			return s
		}
	}
	return status
}

// continuousValue 连续变量线性插值
// 首行之前按前两行外推，末行之后保持
func (in *Input) continuousValue(j int, time float64, afterEvent bool) any {
	n := len(in.Time)
	row := 0
	for row < n-1 {
		next := in.Time[row+1]
		if afterEvent && next > time || !afterEvent && next >= time {
			break
		}
		row++
	}
	if row == n-1 || in.Time[row+1] <= in.Time[row] {
		return in.Values[row][j]
	}
	return types.Interpolate(time, in.Time[row], in.Time[row+1], in.Values[row][j], in.Values[row+1][j])
}

// discreteRow 离散变量保持的行
// 事件前取该时刻的第一行（没有则取之前最后一行），事件后越过该时刻的全部行
func (in *Input) discreteRow(time float64, afterEvent bool) int {
	n := len(in.Time)
	row := 0
	for k := 1; k < n; k++ {
		if in.Time[k] > time || types.IsClose(in.Time[k], time) {
			break
		}
		row = k
	}
	if afterEvent {
		for row+1 < n && (in.Time[row+1] <= time || types.IsClose(in.Time[row+1], time)) {
			row++
		}
	} else if row+1 < n && !types.IsClose(in.Time[row], time) && types.IsClose(in.Time[row+1], time) {
		row++
	}
	return row
}

func active(values any) bool {
	clocks, _ := values.([]bool)
	for _, c := range clocks {
		if c {
			return true
		}
	}
	return false
}
