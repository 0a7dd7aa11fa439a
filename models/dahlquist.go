package models

import "fmusim/types"

// Dahlquist 变量引用
const (
	dqTime types.ValueReference = iota
	dqX
	dqDerX
	dqK
)

// Dahlquist 测试方程 der(x) = -k * x
var Dahlquist = Register(dahlquist())

func dahlquist() *Definition {
	x := &types.ModelVariable{Name: "x", ValueReference: dqX, Type: types.TypeFloat64, Causality: types.CausalityOutput, Start: "1", Description: "the only state"}
	return &Definition{
		Name:        "Dahlquist",
		Token:       "{221063D2-EF4A-45FE-B954-B5BFEEA9A59B}",
		Description: "This model implements the Dahlquist test equation",
		StepSize:    0.1,
		StopTime:    10,
		Variables: []*types.ModelVariable{
			timeVariable(),
			x,
			{Name: "der(x)", ValueReference: dqDerX, Type: types.TypeFloat64, Causality: types.CausalityLocal, Derivative: x},
			{Name: "k", ValueReference: dqK, Type: types.TypeFloat64, Causality: types.CausalityParameter, Variability: types.VariabilityFixed, Start: "1"},
		},
		States: []types.ValueReference{dqX},
		Calculate: func(m *Model) {
			m.SetFloat64(dqDerX, -m.Float64(dqK)*m.Float64(dqX))
		},
	}
}
