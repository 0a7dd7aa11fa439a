package models

import (
	"fmusim/instance"
	"fmusim/types"
)

// fmi2Binding 2.0 入口表
type fmi2Binding struct{ binding }

func (b *fmi2Binding) MajorVersion() types.MajorVersion { return types.FMIMajorVersion2 }

func (b *fmi2Binding) Instantiate(instanceName string, fmuType types.InterfaceType, guid, _ string, _, loggingOn bool, logger instance.Logger) instance.Component {
	if m := newModel(b.d, instanceName, guid, fmuType, loggingOn, logger); m != nil {
		return m
	}
	return nil
}

// SetupExperiment 记录实验参数，进入初始化模式时生效
func (b *fmi2Binding) SetupExperiment(c instance.Component, _ bool, _, startTime float64, stopTimeDefined bool, stopTime float64) types.Status {
	m := model(c)
	if m == nil {
		return types.StatusError
	}
	if m.state != types.Instantiated {
		m.logError("SetupExperiment: 调用顺序错误")
		return types.StatusError
	}
	m.startTime = startTime
	m.stopTimeDefined, m.stopTime = stopTimeDefined, stopTime
	m.setTime(startTime)
	return types.StatusOK
}

func (b *fmi2Binding) EnterInitializationMode(c instance.Component) types.Status {
	m := model(c)
	if m == nil {
		return types.StatusError
	}
	return m.enterInitializationMode(m.startTime, m.stopTimeDefined, m.stopTime)
}

func (b *fmi2Binding) GetReal(c instance.Component, vr []types.ValueReference, value []float64) types.Status {
	return get(c, vr, value)
}

func (b *fmi2Binding) GetInteger(c instance.Component, vr []types.ValueReference, value []int32) types.Status {
	return get(c, vr, value)
}

func (b *fmi2Binding) SetReal(c instance.Component, vr []types.ValueReference, value []float64) types.Status {
	return set(c, vr, value)
}

func (b *fmi2Binding) SetInteger(c instance.Component, vr []types.ValueReference, value []int32) types.Status {
	return set(c, vr, value)
}

func (b *fmi2Binding) GetFMUstate(c instance.Component) (instance.FMUState, types.Status) {
	m := model(c)
	if m == nil {
		return nil, types.StatusError
	}
	return m.getFMUState()
}

func (b *fmi2Binding) SetFMUstate(c instance.Component, state instance.FMUState) types.Status {
	m := model(c)
	if m == nil {
		return types.StatusError
	}
	return m.setFMUState(state)
}

func (b *fmi2Binding) FreeFMUstate(c instance.Component, _ instance.FMUState) types.Status {
	if model(c) == nil {
		return types.StatusError
	}
	return types.StatusOK
}

func (b *fmi2Binding) SerializeFMUstate(c instance.Component, state instance.FMUState) ([]byte, types.Status) {
	m := model(c)
	if m == nil {
		return nil, types.StatusError
	}
	return m.serializeFMUState(state)
}

func (b *fmi2Binding) DeSerializeFMUstate(c instance.Component, serializedState []byte) (instance.FMUState, types.Status) {
	m := model(c)
	if m == nil {
		return nil, types.StatusError
	}
	return m.deserializeFMUState(serializedState)
}

func (b *fmi2Binding) EnterEventMode(c instance.Component) types.Status {
	return b.enter(c, types.EventMode, types.ContinuousTimeMode, types.EventMode)
}

func (b *fmi2Binding) NewDiscreteStates(c instance.Component) (types.EventInfo, types.Status) {
	m := model(c)
	if m == nil {
		return types.EventInfo{}, types.StatusError
	}
	m.eventUpdate()
	return m.eventInfo(), types.StatusOK
}

func (b *fmi2Binding) EnterContinuousTimeMode(c instance.Component) types.Status {
	return b.enter(c, types.ContinuousTimeMode, types.EventMode)
}

func (b *fmi2Binding) CompletedIntegratorStep(c instance.Component, _ bool) (bool, bool, types.Status) {
	m := model(c)
	if m == nil {
		return false, false, types.StatusError
	}
	return false, m.terminateSimulation, types.StatusOK
}

func (b *fmi2Binding) GetDerivatives(c instance.Component, derivatives []float64) types.Status {
	m := model(c)
	if m == nil {
		return types.StatusError
	}
	return m.getDerivatives(derivatives)
}

// DoStep 模型请求结束时返回 Discard
func (b *fmi2Binding) DoStep(c instance.Component, currentCommunicationPoint, communicationStepSize float64, _ bool) types.Status {
	m := model(c)
	if m == nil {
		return types.StatusError
	}
	result, status := m.doStep(currentCommunicationPoint, communicationStepSize)
	if status == types.StatusOK && result.TerminateSimulation {
		return types.StatusDiscard
	}
	return status
}

func (b *fmi2Binding) GetRealStatus(c instance.Component, kind instance.StatusKind) (float64, types.Status) {
	return realStatus(model(c), kind)
}

func (b *fmi2Binding) GetBooleanStatus(c instance.Component, kind instance.StatusKind) (bool, types.Status) {
	return booleanStatus(model(c), kind)
}

// realStatus 1.0/2.0 状态查询
func realStatus(m *Model, kind instance.StatusKind) (float64, types.Status) {
	if m == nil {
		return 0, types.StatusError
	}
	if kind != instance.LastSuccessfulTime {
		m.logError("不支持的状态查询 %d", kind)
		return 0, types.StatusDiscard
	}
	return m.time, types.StatusOK
}

func booleanStatus(m *Model, kind instance.StatusKind) (bool, types.Status) {
	if m == nil {
		return false, types.StatusError
	}
	if kind != instance.Terminated {
		m.logError("不支持的状态查询 %d", kind)
		return false, types.StatusDiscard
	}
	return m.terminateSimulation, types.StatusOK
}

var _ instance.FMI2 = (*fmi2Binding)(nil)
