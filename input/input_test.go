package input

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fmusim/types"
)

// recordTarget 记录设置的值
type recordTarget struct {
	state types.InstanceState
	set   map[types.ValueReference]any
}

func newTarget() *recordTarget {
	return &recordTarget{state: types.EventMode, set: map[types.ValueReference]any{}}
}

func (r *recordTarget) State() types.InstanceState { return r.state }

func (r *recordTarget) SetValues(_ types.VariableType, vr []types.ValueReference, values any) types.Status {
	r.set[vr[0]] = values
	return types.StatusOK
}

var (
	continuousVar = &types.ModelVariable{Name: "u", ValueReference: 1, Type: types.TypeFloat64, Causality: types.CausalityInput, Variability: types.VariabilityContinuous}
	discreteVar   = &types.ModelVariable{Name: "k", ValueReference: 2, Type: types.TypeInt32, Causality: types.CausalityInput, Variability: types.VariabilityDiscrete}
	clockVar      = &types.ModelVariable{Name: "c", ValueReference: 3, Type: types.TypeClock, Causality: types.CausalityInput, Variability: types.VariabilityDiscrete}
)

func TestNextEvent(t *testing.T) {
	in, err := New([]*types.ModelVariable{continuousVar, discreteVar},
		[]float64{0, 1, 2, 3},
		[][]any{
			{[]float64{0}, []int32{1}},
			{[]float64{1}, []int32{1}},
			{[]float64{2}, []int32{2}},
			{[]float64{3}, []int32{2}},
		})
	require.NoError(t, err)
	// 连续变量变化不是事件
	assert.Equal(t, 2.0, in.NextEvent(0))
	assert.Equal(t, 2.0, in.NextEvent(1.5))
	// 在事件时刻严格向后查找
	assert.True(t, math.IsInf(in.NextEvent(2), 1))
	assert.True(t, math.IsInf(in.NextEvent(2-1e-7), 1), "容差范围内视为同一时刻")

	var empty *Input
	assert.True(t, math.IsInf(empty.NextEvent(0), 1))
}

func TestNextEventZeroDuration(t *testing.T) {
	in, err := New([]*types.ModelVariable{continuousVar},
		[]float64{0, 1, 1, 2},
		[][]any{{[]float64{0}}, {[]float64{1}}, {[]float64{5}}, {[]float64{5}}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, in.NextEvent(0.5))
}

func TestContinuousInterpolation(t *testing.T) {
	in, err := New([]*types.ModelVariable{continuousVar},
		[]float64{0, 2},
		[][]any{{[]float64{1}}, {[]float64{3}}})
	require.NoError(t, err)
	target := newTarget()
	require.Equal(t, types.StatusOK, in.Apply(target, 1, false, true, false))
	assert.Equal(t, []float64{2}, target.set[1])
	// 末行之后保持
	in.Apply(target, 5, false, true, false)
	assert.Equal(t, []float64{3}, target.set[1])
	// 首行之前线性外推
	in.Apply(target, -1, false, true, false)
	assert.Equal(t, []float64{0}, target.set[1])
	// 离散开关关闭时不设置连续变量之外的值
	assert.NotContains(t, target.set, types.ValueReference(2))
}

func TestContinuousAfterEvent(t *testing.T) {
	in, err := New([]*types.ModelVariable{continuousVar},
		[]float64{0, 1, 1, 2},
		[][]any{{[]float64{0}}, {[]float64{1}}, {[]float64{5}}, {[]float64{5}}})
	require.NoError(t, err)
	target := newTarget()
	in.Apply(target, 1, false, true, false)
	assert.Equal(t, []float64{1}, target.set[1])
	in.Apply(target, 1, false, true, true)
	assert.Equal(t, []float64{5}, target.set[1])
}

func TestDiscreteHold(t *testing.T) {
	in, err := New([]*types.ModelVariable{discreteVar},
		[]float64{0, 1, 1, 2},
		[][]any{{[]int32{1}}, {[]int32{2}}, {[]int32{3}}, {[]int32{4}}})
	require.NoError(t, err)
	target := newTarget()

	in.Apply(target, 0.5, true, false, false)
	assert.Equal(t, []int32{1}, target.set[2])

	// 时刻上的第一行
	in.Apply(target, 1, true, false, false)
	assert.Equal(t, []int32{2}, target.set[2])

	// 事件后取同一时刻的最后一行
	in.Apply(target, 1, true, false, true)
	assert.Equal(t, []int32{3}, target.set[2])

	// 没有同刻后续行时保持不变
	in.Apply(target, 2, true, false, false)
	assert.Equal(t, []int32{4}, target.set[2])
	in.Apply(target, 2, true, false, true)
	assert.Equal(t, []int32{4}, target.set[2])
}

func TestClockApply(t *testing.T) {
	in, err := New([]*types.ModelVariable{clockVar},
		[]float64{0, 1},
		[][]any{{[]bool{false}}, {[]bool{true}}})
	require.NoError(t, err)
	target := newTarget()
	in.Apply(target, 0, true, true, false)
	assert.Empty(t, target.set, "未激活的时钟不设置")

	target.state = types.InitializationMode
	in.Apply(target, 1, true, true, true)
	assert.Empty(t, target.set, "初始化模式不设置时钟")

	target.state = types.EventMode
	in.Apply(target, 1, true, true, true)
	assert.Equal(t, []bool{true}, target.set[3])
}

func TestNewValidation(t *testing.T) {
	_, err := New([]*types.ModelVariable{discreteVar}, []float64{1, 0}, [][]any{{[]int32{1}}, {[]int32{1}}})
	assert.ErrorIs(t, err, ErrNotSorted)
	_, err = New([]*types.ModelVariable{discreteVar}, []float64{0}, [][]any{{}})
	assert.ErrorIs(t, err, ErrRowWidth)
	_, err = New([]*types.ModelVariable{discreteVar}, []float64{0}, [][]any{{[]float64{1}}})
	assert.Error(t, err)
}

func TestReadCSV(t *testing.T) {
	md := &types.ModelDescription{
		MajorVersion:   types.FMIMajorVersion3,
		ModelVariables: []*types.ModelVariable{continuousVar, discreteVar},
	}
	in, err := ReadCSV(strings.NewReader("time,u,k\n0,1.5,1\n# comment\n1,2.5,3\n"), md)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, in.Time)
	assert.Equal(t, []any{[]float64{2.5}, []int32{3}}, in.Values[1])

	_, err = ReadCSV(strings.NewReader("t,u\n"), md)
	assert.Error(t, err)
	_, err = ReadCSV(strings.NewReader("time,x\n"), md)
	assert.Error(t, err)
}
