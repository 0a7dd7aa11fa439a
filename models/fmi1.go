package models

import (
	"fmusim/instance"
	"fmusim/types"
)

// fmi1Binding 1.0 入口表，模型交换与联合仿真共用
type fmi1Binding struct{ binding }

func (b *fmi1Binding) MajorVersion() types.MajorVersion { return types.FMIMajorVersion1 }

func (b *fmi1Binding) SetDebugLogging(c instance.Component, loggingOn bool) types.Status {
	m := model(c)
	if m == nil {
		return types.StatusError
	}
	m.loggingOn = loggingOn
	return types.StatusOK
}

func (b *fmi1Binding) GetReal(c instance.Component, vr []types.ValueReference, value []float64) types.Status {
	return get(c, vr, value)
}

func (b *fmi1Binding) GetInteger(c instance.Component, vr []types.ValueReference, value []int32) types.Status {
	return get(c, vr, value)
}

func (b *fmi1Binding) SetReal(c instance.Component, vr []types.ValueReference, value []float64) types.Status {
	return set(c, vr, value)
}

func (b *fmi1Binding) SetInteger(c instance.Component, vr []types.ValueReference, value []int32) types.Status {
	return set(c, vr, value)
}

func (b *fmi1Binding) InstantiateModel(instanceName, guid string, loggingOn bool, logger instance.Logger) instance.Component {
	if m := newModel(b.d, instanceName, guid, types.ModelExchange, loggingOn, logger); m != nil {
		return m
	}
	return nil
}

func (b *fmi1Binding) FreeModelInstance(c instance.Component) { b.FreeInstance(c) }

func (b *fmi1Binding) CompletedIntegratorStep(c instance.Component) (bool, types.Status) {
	if model(c) == nil {
		return false, types.StatusError
	}
	return false, types.StatusOK
}

// Initialize 初始化模型交换实例，开始时间取自此前的 SetTime
func (b *fmi1Binding) Initialize(c instance.Component, _ bool, _ float64) (instance.FMI1EventInfo, types.Status) {
	m := model(c)
	if m == nil {
		return instance.FMI1EventInfo{}, types.StatusError
	}
	status := m.enterInitializationMode(m.time, false, 0)
	if status > types.StatusWarning {
		return instance.FMI1EventInfo{}, status
	}
	if status = m.exitInitializationMode(); status > types.StatusWarning {
		return instance.FMI1EventInfo{}, status
	}
	return fmi1EventInfo(m.eventInfo()), types.StatusOK
}

func (b *fmi1Binding) GetDerivatives(c instance.Component, derivatives []float64) types.Status {
	m := model(c)
	if m == nil {
		return types.StatusError
	}
	return m.getDerivatives(derivatives)
}

func (b *fmi1Binding) EventUpdate(c instance.Component, _ bool) (instance.FMI1EventInfo, types.Status) {
	m := model(c)
	if m == nil {
		return instance.FMI1EventInfo{}, types.StatusError
	}
	m.eventUpdate()
	return fmi1EventInfo(m.eventInfo()), types.StatusOK
}

func (b *fmi1Binding) GetNominalContinuousStates(c instance.Component, nominals []float64) types.Status {
	return b.GetNominalsOfContinuousStates(c, nominals)
}

func (b *fmi1Binding) InstantiateSlave(instanceName, guid, _, _ string, _ float64, _, _, loggingOn bool, logger instance.Logger) instance.Component {
	if m := newModel(b.d, instanceName, guid, types.CoSimulation, loggingOn, logger); m != nil {
		return m
	}
	return nil
}

func (b *fmi1Binding) InitializeSlave(c instance.Component, tStart float64, stopTimeDefined bool, tStop float64) types.Status {
	m := model(c)
	if m == nil {
		return types.StatusError
	}
	if status := m.enterInitializationMode(tStart, stopTimeDefined, tStop); status > types.StatusWarning {
		return status
	}
	return m.exitInitializationMode()
}

func (b *fmi1Binding) TerminateSlave(c instance.Component) types.Status { return b.Terminate(c) }

func (b *fmi1Binding) FreeSlaveInstance(c instance.Component) { b.FreeInstance(c) }

// DoStep 模型请求结束时返回 Discard
func (b *fmi1Binding) DoStep(c instance.Component, currentCommunicationPoint, communicationStepSize float64, _ bool) types.Status {
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

func (b *fmi1Binding) GetRealStatus(c instance.Component, kind instance.StatusKind) (float64, types.Status) {
	return realStatus(model(c), kind)
}

func (b *fmi1Binding) GetBooleanStatus(c instance.Component, kind instance.StatusKind) (bool, types.Status) {
	return booleanStatus(model(c), kind)
}

// fmi1EventInfo 事件迭代在模型内部完成
func fmi1EventInfo(info types.EventInfo) instance.FMI1EventInfo {
	return instance.FMI1EventInfo{
		IterationConverged:          true,
		StateValueReferencesChanged: info.NominalsOfContinuousStatesChanged,
		StateValuesChanged:          info.ValuesOfContinuousStatesChanged,
		TerminateSimulation:         info.TerminateSimulation,
		UpcomingTimeEvent:           info.NextEventTimeDefined,
		NextEventTime:               info.NextEventTime,
	}
}

var _ instance.FMI1 = (*fmi1Binding)(nil)
