package models

import (
	"math"

	"fmusim/types"
)

// BouncingBall 变量引用
const (
	bbTime types.ValueReference = iota
	bbH
	bbDerH
	bbV
	bbDerV
	bbG
	bbE
	bbVMin
)

const (
	bbMinVelocity  = 0.1   // 停止弹跳的最小速度
	bbEventEpsilon = 1e-10 // 事件指示器滞回
)

// BouncingBall 弹跳小球，两个状态一个事件指示器
var BouncingBall = Register(bouncingBall())

func bouncingBall() *Definition {
	h := &types.ModelVariable{Name: "h", ValueReference: bbH, Type: types.TypeFloat64, Causality: types.CausalityOutput, Start: "1", Description: "Position of the ball"}
	v := &types.ModelVariable{Name: "v", ValueReference: bbV, Type: types.TypeFloat64, Causality: types.CausalityOutput, Start: "0", Description: "Velocity of the ball"}
	return &Definition{
		Name:        "BouncingBall",
		Token:       "{1AE5E10D-9521-4DE3-80B9-D0EAAA7D5AF1}",
		Description: "This model calculates the trajectory, over time, of a ball dropped from a height of 1 m",
		StepSize:    1e-3,
		StopTime:    3,
		Variables: []*types.ModelVariable{
			timeVariable(),
			h,
			{Name: "der(h)", ValueReference: bbDerH, Type: types.TypeFloat64, Causality: types.CausalityLocal, Derivative: h},
			v,
			{Name: "der(v)", ValueReference: bbDerV, Type: types.TypeFloat64, Causality: types.CausalityLocal, Derivative: v},
			{Name: "g", ValueReference: bbG, Type: types.TypeFloat64, Causality: types.CausalityParameter, Variability: types.VariabilityFixed, Start: "-9.81", Description: "Gravity acting on the ball"},
			{Name: "e", ValueReference: bbE, Type: types.TypeFloat64, Causality: types.CausalityParameter, Variability: types.VariabilityTunable, Start: "0.7", Description: "Coefficient of restitution"},
			{Name: "v_min", ValueReference: bbVMin, Type: types.TypeFloat64, Causality: types.CausalityLocal, Variability: types.VariabilityConstant, Start: "0.1", Description: "Velocity below which the ball stops bouncing"},
		},
		States: []types.ValueReference{bbH, bbV},
		NZ:     1,
		Calculate: func(m *Model) {
			m.SetFloat64(bbDerH, m.Float64(bbV))
			m.SetFloat64(bbDerV, m.Float64(bbG))
		},
		EventIndicators: func(m *Model, z []float64) {
			h, v := m.Float64(bbH), m.Float64(bbV)
			if h > -bbEventEpsilon && h <= 0 && v > 0 {
				z[0] = -bbEventEpsilon
			} else {
				z[0] = h
			}
		},
		EventUpdate: func(m *Model) {
			h, v := m.Float64(bbH), m.Float64(bbV)
			if h > 0 || v >= 0 {
				return
			}
			// 略高于地面，避免再次跨零
			m.SetFloat64(bbH, math.SmallestNonzeroFloat64)
			v = -v * m.Float64(bbE)
			if v < bbMinVelocity {
				v = 0
				m.SetFloat64(bbG, 0)
			}
			m.SetFloat64(bbV, v)
			m.valuesChanged = true
			m.logEvent("弹跳 time=%g v=%g", m.time, v)
		},
	}
}
