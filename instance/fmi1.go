package instance

import "fmusim/types"

// fmi1MimeType 联合仿真实例化时的 MIME 类型
const fmi1MimeType = "application/x-fmu-sharedlibrary"

// fmi1Adapter 1.0 适配
// 1.0 没有初始化模式，EnterInitializationMode 只记录实验参数，
// ExitInitializationMode 调用 fmiInitialize/fmiInitializeSlave，
// 其返回的事件信息由下一次 UpdateDiscreteStates 交出
type fmi1Adapter struct {
	tracer
	b FMI1

	interfaceType    types.InterfaceType // 实例接口类型
	toleranceDefined bool                // 容差控制
	tolerance        float64             // 相对容差
	startTime        float64             // 开始时间
	stopTimeDefined  bool                // 停止时间有效
	stopTime         float64             // 停止时间
	pending          *types.EventInfo    // 初始化返回的事件信息
}

func (a *fmi1Adapter) Version() types.MajorVersion { return types.FMIMajorVersion1 }

func (a *fmi1Adapter) InstantiateModelExchange(p InstantiateParams) Component {
	a.interfaceType = types.ModelExchange
	c := a.b.InstantiateModel(p.InstanceName, p.Token, p.LoggingOn, p.Logger)
	a.call(instantiateStatus(c), "fmiInstantiateModel(instanceName=%q, GUID=%q, loggingOn=%t)", p.InstanceName, p.Token, p.LoggingOn)
	return c
}

func (a *fmi1Adapter) InstantiateCoSimulation(p InstantiateParams) Component {
	a.interfaceType = types.CoSimulation
	c := a.b.InstantiateSlave(p.InstanceName, p.Token, p.ResourceLocation, fmi1MimeType, 0, p.Visible, false, p.LoggingOn, p.Logger)
	a.call(instantiateStatus(c), "fmiInstantiateSlave(instanceName=%q, fmuGUID=%q, fmuLocation=%q, mimeType=%q, timeout=0, visible=%t, interactive=false, loggingOn=%t)",
		p.InstanceName, p.Token, p.ResourceLocation, fmi1MimeType, p.Visible, p.LoggingOn)
	return c
}

func (a *fmi1Adapter) FreeInstance(c Component) {
	if a.interfaceType == types.CoSimulation {
		a.b.FreeSlaveInstance(c)
		a.call(types.StatusOK, "fmiFreeSlaveInstance()")
		return
	}
	a.b.FreeModelInstance(c)
	a.call(types.StatusOK, "fmiFreeModelInstance()")
}

func (a *fmi1Adapter) EnterConfigurationMode(Component) types.Status {
	return a.unsupported(types.FMIMajorVersion1, "EnterConfigurationMode")
}

func (a *fmi1Adapter) ExitConfigurationMode(Component) types.Status {
	return a.unsupported(types.FMIMajorVersion1, "ExitConfigurationMode")
}

func (a *fmi1Adapter) EnterInitializationMode(c Component, toleranceDefined bool, tolerance, startTime float64, stopTimeDefined bool, stopTime float64) types.Status {
	a.toleranceDefined, a.tolerance = toleranceDefined, tolerance
	a.startTime = startTime
	a.stopTimeDefined, a.stopTime = stopTimeDefined, stopTime
	if a.interfaceType == types.ModelExchange {
		// 1.0 模型交换在 fmiInitialize 之前设置开始时间
		return a.SetTime(c, startTime)
	}
	return types.StatusOK
}

func (a *fmi1Adapter) ExitInitializationMode(c Component) types.Status {
	if a.interfaceType == types.CoSimulation {
		return a.call(a.b.InitializeSlave(c, a.startTime, a.stopTimeDefined, a.stopTime),
			"fmiInitializeSlave(tStart=%.16g, StopTimeDefined=%t, tStop=%.16g)", a.startTime, a.stopTimeDefined, a.stopTime)
	}
	ev, status := a.b.Initialize(c, a.toleranceDefined, a.tolerance)
	a.traceEventInfo(status, "fmiInitialize", ev)
	info := ev.eventInfo()
	a.pending = &info
	return status
}

// EnterEventMode 1.0 无事件模式
func (a *fmi1Adapter) EnterEventMode(Component) types.Status { return types.StatusOK }

func (a *fmi1Adapter) UpdateDiscreteStates(c Component) (types.EventInfo, types.Status) {
	if a.pending != nil {
		info := *a.pending
		a.pending = nil
		return info, types.StatusOK
	}
	if a.interfaceType == types.CoSimulation {
		return types.EventInfo{}, types.StatusOK
	}
	ev, status := a.b.EventUpdate(c, false)
	a.traceEventInfo(status, "fmiEventUpdate", ev)
	return ev.eventInfo(), status
}

// EnterContinuousTimeMode 1.0 无连续时间模式
func (a *fmi1Adapter) EnterContinuousTimeMode(Component) types.Status { return types.StatusOK }

// EnterStepMode 1.0 无步进模式
func (a *fmi1Adapter) EnterStepMode(Component) types.Status { return types.StatusOK }

func (a *fmi1Adapter) Terminate(c Component) types.Status {
	if a.interfaceType == types.CoSimulation {
		return a.call(a.b.TerminateSlave(c), "fmiTerminateSlave()")
	}
	return a.call(a.b.Terminate(c), "fmiTerminate()")
}

func (a *fmi1Adapter) SetTime(c Component, time float64) types.Status {
	return a.call(a.b.SetTime(c, time), "fmiSetTime(time=%.16g)", time)
}

func (a *fmi1Adapter) GetContinuousStates(c Component, x []float64) types.Status {
	return a.call(a.b.GetContinuousStates(c, x), "fmiGetContinuousStates(states=%v)", x)
}

func (a *fmi1Adapter) SetContinuousStates(c Component, x []float64) types.Status {
	return a.call(a.b.SetContinuousStates(c, x), "fmiSetContinuousStates(x=%v)", x)
}

func (a *fmi1Adapter) GetNominalsOfContinuousStates(c Component, nominals []float64) types.Status {
	return a.call(a.b.GetNominalContinuousStates(c, nominals), "fmiGetNominalContinuousStates(x_nominal=%v)", nominals)
}

func (a *fmi1Adapter) GetContinuousStateDerivatives(c Component, dx []float64) types.Status {
	return a.call(a.b.GetDerivatives(c, dx), "fmiGetDerivatives(derivatives=%v)", dx)
}

func (a *fmi1Adapter) GetEventIndicators(c Component, z []float64) types.Status {
	return a.call(a.b.GetEventIndicators(c, z), "fmiGetEventIndicators(eventIndicators=%v)", z)
}

func (a *fmi1Adapter) NumberOfContinuousStates(_ Component, md *types.ModelDescription) (int, types.Status) {
	return md.NumberOfContinuousStates(), types.StatusOK
}

func (a *fmi1Adapter) NumberOfEventIndicators(_ Component, md *types.ModelDescription) (int, types.Status) {
	return md.NumberOfEventIndicators(), types.StatusOK
}

func (a *fmi1Adapter) CompletedIntegratorStep(c Component, _ bool) (bool, bool, types.Status) {
	callEventUpdate, status := a.b.CompletedIntegratorStep(c)
	a.call(status, "fmiCompletedIntegratorStep(callEventUpdate=%t)", callEventUpdate)
	return callEventUpdate, false, status
}

func (a *fmi1Adapter) DoStep(c Component, currentCommunicationPoint, communicationStepSize float64, _ bool) (types.StepResult, types.Status) {
	status := a.call(a.b.DoStep(c, currentCommunicationPoint, communicationStepSize, true),
		"fmiDoStep(currentCommunicationPoint=%.16g, communicationStepSize=%.16g, newStep=true)", currentCommunicationPoint, communicationStepSize)
	return types.StepResult{LastSuccessfulTime: currentCommunicationPoint + communicationStepSize}, status
}

func (a *fmi1Adapter) DoStepDiscarded(c Component) (bool, float64, types.Status) {
	terminated, status := a.b.GetBooleanStatus(c, Terminated)
	a.call(status, "fmiGetBooleanStatus(s=fmiTerminated, value=%t)", terminated)
	if status > types.StatusWarning {
		return false, 0, status
	}
	lastSuccessfulTime, status := a.b.GetRealStatus(c, LastSuccessfulTime)
	a.call(status, "fmiGetRealStatus(s=fmiLastSuccessfulTime, value=%.16g)", lastSuccessfulTime)
	return terminated, lastSuccessfulTime, status
}

func (a *fmi1Adapter) GetValues(c Component, t types.VariableType, vr []types.ValueReference, nValues int) (any, types.Status) {
	values := types.MakeValues(t, nValues)
	var status types.Status
	switch t {
	case types.TypeReal:
		status = a.call(a.b.GetReal(c, vr, values.([]float64)), "fmiGetReal(vr=%v, value=%v)", vr, values)
	case types.TypeInteger:
		status = a.call(a.b.GetInteger(c, vr, values.([]int32)), "fmiGetInteger(vr=%v, value=%v)", vr, values)
	case types.TypeBoolean:
		status = a.call(a.b.GetBoolean(c, vr, values.([]bool)), "fmiGetBoolean(vr=%v, value=%v)", vr, values)
	case types.TypeString:
		status = a.call(a.b.GetString(c, vr, values.([]string)), "fmiGetString(vr=%v, value=%v)", vr, values)
	default:
		return nil, a.unsupported(types.FMIMajorVersion1, "Get"+t.String())
	}
	return values, status
}

func (a *fmi1Adapter) SetValues(c Component, t types.VariableType, vr []types.ValueReference, values any) types.Status {
	if err := types.CheckValues(t, values); err != nil {
		a.message(types.StatusError, err.Error())
		return types.StatusError
	}
	switch t {
	case types.TypeReal:
		return a.call(a.b.SetReal(c, vr, values.([]float64)), "fmiSetReal(vr=%v, value=%v)", vr, values)
	case types.TypeInteger:
		return a.call(a.b.SetInteger(c, vr, values.([]int32)), "fmiSetInteger(vr=%v, value=%v)", vr, values)
	case types.TypeBoolean:
		return a.call(a.b.SetBoolean(c, vr, values.([]bool)), "fmiSetBoolean(vr=%v, value=%v)", vr, values)
	case types.TypeString:
		return a.call(a.b.SetString(c, vr, values.([]string)), "fmiSetString(vr=%v, value=%v)", vr, values)
	}
	return a.unsupported(types.FMIMajorVersion1, "Set"+t.String())
}

func (a *fmi1Adapter) GetFMUState(Component) (FMUState, types.Status) {
	return nil, a.unsupported(types.FMIMajorVersion1, "GetFMUState")
}

func (a *fmi1Adapter) SetFMUState(Component, FMUState) types.Status {
	return a.unsupported(types.FMIMajorVersion1, "SetFMUState")
}

func (a *fmi1Adapter) FreeFMUState(Component, FMUState) types.Status {
	return a.unsupported(types.FMIMajorVersion1, "FreeFMUState")
}

func (a *fmi1Adapter) SerializeFMUState(Component, FMUState) ([]byte, types.Status) {
	return nil, a.unsupported(types.FMIMajorVersion1, "SerializeFMUState")
}

func (a *fmi1Adapter) DeserializeFMUState(Component, []byte) (FMUState, types.Status) {
	return nil, a.unsupported(types.FMIMajorVersion1, "DeserializeFMUState")
}

func (a *fmi1Adapter) traceEventInfo(status types.Status, name string, ev FMI1EventInfo) {
	a.call(status, "%s(eventInfo={iterationConverged=%t, stateValueReferencesChanged=%t, stateValuesChanged=%t, terminateSimulation=%t, upcomingTimeEvent=%t, nextEventTime=%.16g})",
		name, ev.IterationConverged, ev.StateValueReferencesChanged, ev.StateValuesChanged, ev.TerminateSimulation, ev.UpcomingTimeEvent, ev.NextEventTime)
}

// eventInfo 转换为统一事件信息
func (ev FMI1EventInfo) eventInfo() types.EventInfo {
	return types.EventInfo{
		DiscreteStatesNeedUpdate:          !ev.IterationConverged,
		TerminateSimulation:               ev.TerminateSimulation,
		NominalsOfContinuousStatesChanged: ev.StateValueReferencesChanged,
		ValuesOfContinuousStatesChanged:   ev.StateValuesChanged,
		NextEventTimeDefined:              ev.UpcomingTimeEvent,
		NextEventTime:                     ev.NextEventTime,
	}
}
