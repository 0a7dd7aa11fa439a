package models

import "fmusim/types"

// Stair 变量引用
const (
	stTime types.ValueReference = iota
	stCounter
)

// Stair 每秒一个时间事件，计数器加一
var Stair = Register(&Definition{
	Name:        "Stair",
	Token:       "{8c4e810f-3df3-4a00-8276-176fa3c9f008}",
	Description: "This model generates a stair signal using time events",
	StepSize:    0.2,
	StopTime:    10,
	Variables: []*types.ModelVariable{
		timeVariable(),
		{Name: "counter", ValueReference: stCounter, Type: types.TypeInt32, Causality: types.CausalityOutput, Variability: types.VariabilityDiscrete, Start: "1", Description: "counts the seconds"},
	},
	Start: func(m *Model) {
		m.nextEventTimeDefined = true
		m.nextEventTime = 1
	},
	EventUpdate: func(m *Model) {
		if m.nextEventTimeDefined && types.IsClose(m.time, m.nextEventTime) {
			m.SetInt32(stCounter, m.Int32(stCounter)+1)
			m.nextEventTime++
			m.logEvent("counter=%d", m.Int32(stCounter))
		}
		m.nextEventTimeDefined = true
	},
})
