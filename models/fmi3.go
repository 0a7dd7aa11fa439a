package models

import (
	"fmusim/instance"
	"fmusim/types"
)

// fmi3Binding 3.0 入口表
type fmi3Binding struct{ binding }

func (b *fmi3Binding) MajorVersion() types.MajorVersion { return types.FMIMajorVersion3 }

func (b *fmi3Binding) InstantiateModelExchange(instanceName, instantiationToken, _ string, _, loggingOn bool, logger instance.Logger) instance.Component {
	if m := newModel(b.d, instanceName, instantiationToken, types.ModelExchange, loggingOn, logger); m != nil {
		return m
	}
	return nil
}

func (b *fmi3Binding) InstantiateCoSimulation(instanceName, instantiationToken, _ string, _, loggingOn, eventModeUsed, earlyReturnAllowed bool, _ []types.ValueReference, logger instance.Logger, intermediateUpdate instance.IntermediateUpdate) instance.Component {
	m := newModel(b.d, instanceName, instantiationToken, types.CoSimulation, loggingOn, logger)
	if m == nil {
		return nil
	}
	m.eventModeUsed = eventModeUsed
	m.earlyReturnAllowed = earlyReturnAllowed
	m.intermediateUpdate = intermediateUpdate
	return m
}

func (b *fmi3Binding) EnterInitializationMode(c instance.Component, _ bool, _, startTime float64, stopTimeDefined bool, stopTime float64) types.Status {
	m := model(c)
	if m == nil {
		return types.StatusError
	}
	return m.enterInitializationMode(startTime, stopTimeDefined, stopTime)
}

func (b *fmi3Binding) EnterEventMode(c instance.Component) types.Status {
	return b.enter(c, types.EventMode, types.ContinuousTimeMode, types.StepMode, types.EventMode)
}

func (b *fmi3Binding) EnterContinuousTimeMode(c instance.Component) types.Status {
	return b.enter(c, types.ContinuousTimeMode, types.EventMode)
}

func (b *fmi3Binding) EnterStepMode(c instance.Component) types.Status {
	return b.enter(c, types.StepMode, types.EventMode)
}

// enter 从允许的状态切换到 next
func (b *fmi3Binding) EnterConfigurationMode(c instance.Component) types.Status {
	m := model(c)
	if m == nil {
		return types.StatusError
	}
	return m.enterConfigurationMode()
}

func (b *fmi3Binding) ExitConfigurationMode(c instance.Component) types.Status {
	m := model(c)
	if m == nil {
		return types.StatusError
	}
	return m.exitConfigurationMode()
}

func (b *fmi3Binding) UpdateDiscreteStates(c instance.Component) (types.EventInfo, types.Status) {
	m := model(c)
	if m == nil {
		return types.EventInfo{}, types.StatusError
	}
	m.eventUpdate()
	return m.eventInfo(), types.StatusOK
}

func (b *fmi3Binding) GetFloat32(c instance.Component, vr []types.ValueReference, values []float32) types.Status {
	return get(c, vr, values)
}

func (b *fmi3Binding) GetFloat64(c instance.Component, vr []types.ValueReference, values []float64) types.Status {
	return get(c, vr, values)
}

func (b *fmi3Binding) GetInt8(c instance.Component, vr []types.ValueReference, values []int8) types.Status {
	return get(c, vr, values)
}

func (b *fmi3Binding) GetUInt8(c instance.Component, vr []types.ValueReference, values []uint8) types.Status {
	return get(c, vr, values)
}

func (b *fmi3Binding) GetInt16(c instance.Component, vr []types.ValueReference, values []int16) types.Status {
	return get(c, vr, values)
}

func (b *fmi3Binding) GetUInt16(c instance.Component, vr []types.ValueReference, values []uint16) types.Status {
	return get(c, vr, values)
}

func (b *fmi3Binding) GetInt32(c instance.Component, vr []types.ValueReference, values []int32) types.Status {
	return get(c, vr, values)
}

func (b *fmi3Binding) GetUInt32(c instance.Component, vr []types.ValueReference, values []uint32) types.Status {
	return get(c, vr, values)
}

func (b *fmi3Binding) GetInt64(c instance.Component, vr []types.ValueReference, values []int64) types.Status {
	return get(c, vr, values)
}

func (b *fmi3Binding) GetUInt64(c instance.Component, vr []types.ValueReference, values []uint64) types.Status {
	return get(c, vr, values)
}

func (b *fmi3Binding) GetBinary(c instance.Component, vr []types.ValueReference, values [][]byte) types.Status {
	return get(c, vr, values)
}

func (b *fmi3Binding) GetClock(c instance.Component, vr []types.ValueReference, values []bool) types.Status {
	return get(c, vr, values)
}

func (b *fmi3Binding) SetFloat32(c instance.Component, vr []types.ValueReference, values []float32) types.Status {
	return set(c, vr, values)
}

func (b *fmi3Binding) SetFloat64(c instance.Component, vr []types.ValueReference, values []float64) types.Status {
	return set(c, vr, values)
}

func (b *fmi3Binding) SetInt8(c instance.Component, vr []types.ValueReference, values []int8) types.Status {
	return set(c, vr, values)
}

func (b *fmi3Binding) SetUInt8(c instance.Component, vr []types.ValueReference, values []uint8) types.Status {
	return set(c, vr, values)
}

func (b *fmi3Binding) SetInt16(c instance.Component, vr []types.ValueReference, values []int16) types.Status {
	return set(c, vr, values)
}

func (b *fmi3Binding) SetUInt16(c instance.Component, vr []types.ValueReference, values []uint16) types.Status {
	return set(c, vr, values)
}

func (b *fmi3Binding) SetInt32(c instance.Component, vr []types.ValueReference, values []int32) types.Status {
	return set(c, vr, values)
}

func (b *fmi3Binding) SetUInt32(c instance.Component, vr []types.ValueReference, values []uint32) types.Status {
	return set(c, vr, values)
}

func (b *fmi3Binding) SetInt64(c instance.Component, vr []types.ValueReference, values []int64) types.Status {
	return set(c, vr, values)
}

func (b *fmi3Binding) SetUInt64(c instance.Component, vr []types.ValueReference, values []uint64) types.Status {
	return set(c, vr, values)
}

func (b *fmi3Binding) SetBinary(c instance.Component, vr []types.ValueReference, values [][]byte) types.Status {
	return set(c, vr, values)
}

func (b *fmi3Binding) SetClock(c instance.Component, vr []types.ValueReference, values []bool) types.Status {
	return set(c, vr, values)
}

func (b *fmi3Binding) GetFMUState(c instance.Component) (instance.FMUState, types.Status) {
	m := model(c)
	if m == nil {
		return nil, types.StatusError
	}
	return m.getFMUState()
}

func (b *fmi3Binding) SetFMUState(c instance.Component, state instance.FMUState) types.Status {
	m := model(c)
	if m == nil {
		return types.StatusError
	}
	return m.setFMUState(state)
}

func (b *fmi3Binding) FreeFMUState(c instance.Component, _ instance.FMUState) types.Status {
	if model(c) == nil {
		return types.StatusError
	}
	return types.StatusOK
}

func (b *fmi3Binding) SerializeFMUState(c instance.Component, state instance.FMUState) ([]byte, types.Status) {
	m := model(c)
	if m == nil {
		return nil, types.StatusError
	}
	return m.serializeFMUState(state)
}

func (b *fmi3Binding) DeserializeFMUState(c instance.Component, serializedState []byte) (instance.FMUState, types.Status) {
	m := model(c)
	if m == nil {
		return nil, types.StatusError
	}
	return m.deserializeFMUState(serializedState)
}

func (b *fmi3Binding) CompletedIntegratorStep(c instance.Component, _ bool) (bool, bool, types.Status) {
	m := model(c)
	if m == nil {
		return false, false, types.StatusError
	}
	return false, m.terminateSimulation, types.StatusOK
}

func (b *fmi3Binding) GetContinuousStateDerivatives(c instance.Component, derivatives []float64) types.Status {
	m := model(c)
	if m == nil {
		return types.StatusError
	}
	return m.getDerivatives(derivatives)
}

func (b *fmi3Binding) GetNumberOfEventIndicators(c instance.Component) (int, types.Status) {
	m := model(c)
	if m == nil {
		return 0, types.StatusError
	}
	return m.def.NZ, types.StatusOK
}

func (b *fmi3Binding) GetNumberOfContinuousStates(c instance.Component) (int, types.Status) {
	m := model(c)
	if m == nil {
		return 0, types.StatusError
	}
	return len(m.def.States), types.StatusOK
}

func (b *fmi3Binding) DoStep(c instance.Component, currentCommunicationPoint, communicationStepSize float64, _ bool) (types.StepResult, types.Status) {
	m := model(c)
	if m == nil {
		return types.StepResult{}, types.StatusError
	}
	return m.doStep(currentCommunicationPoint, communicationStepSize)
}

var _ instance.FMI3 = (*fmi3Binding)(nil)
