package instance

import "fmusim/types"

// fmi2Adapter 2.0 适配
// 初始化模式前调用 SetupExperiment，离散状态迭代对应 NewDiscreteStates
type fmi2Adapter struct {
	tracer
	b FMI2
}

func (a *fmi2Adapter) Version() types.MajorVersion { return types.FMIMajorVersion2 }

func (a *fmi2Adapter) instantiate(p InstantiateParams, fmuType types.InterfaceType) Component {
	c := a.b.Instantiate(p.InstanceName, fmuType, p.Token, p.ResourceLocation, p.Visible, p.LoggingOn, p.Logger)
	a.call(instantiateStatus(c), "fmi2Instantiate(instanceName=%q, fmuType=%v, fmuGUID=%q, fmuResourceLocation=%q, visible=%t, loggingOn=%t)",
		p.InstanceName, fmuType, p.Token, p.ResourceLocation, p.Visible, p.LoggingOn)
	return c
}

func (a *fmi2Adapter) InstantiateModelExchange(p InstantiateParams) Component {
	return a.instantiate(p, types.ModelExchange)
}

func (a *fmi2Adapter) InstantiateCoSimulation(p InstantiateParams) Component {
	return a.instantiate(p, types.CoSimulation)
}

func (a *fmi2Adapter) FreeInstance(c Component) {
	a.b.FreeInstance(c)
	a.call(types.StatusOK, "fmi2FreeInstance()")
}

func (a *fmi2Adapter) EnterConfigurationMode(Component) types.Status {
	return a.unsupported(types.FMIMajorVersion2, "EnterConfigurationMode")
}

func (a *fmi2Adapter) ExitConfigurationMode(Component) types.Status {
	return a.unsupported(types.FMIMajorVersion2, "ExitConfigurationMode")
}

func (a *fmi2Adapter) EnterInitializationMode(c Component, toleranceDefined bool, tolerance, startTime float64, stopTimeDefined bool, stopTime float64) types.Status {
	status := a.call(a.b.SetupExperiment(c, toleranceDefined, tolerance, startTime, stopTimeDefined, stopTime),
		"fmi2SetupExperiment(toleranceDefined=%t, tolerance=%.16g, startTime=%.16g, stopTimeDefined=%t, stopTime=%.16g)",
		toleranceDefined, tolerance, startTime, stopTimeDefined, stopTime)
	if status > types.StatusWarning {
		return status
	}
	return types.MaxStatus(status, a.call(a.b.EnterInitializationMode(c), "fmi2EnterInitializationMode()"))
}

func (a *fmi2Adapter) ExitInitializationMode(c Component) types.Status {
	return a.call(a.b.ExitInitializationMode(c), "fmi2ExitInitializationMode()")
}

func (a *fmi2Adapter) EnterEventMode(c Component) types.Status {
	return a.call(a.b.EnterEventMode(c), "fmi2EnterEventMode()")
}

func (a *fmi2Adapter) UpdateDiscreteStates(c Component) (types.EventInfo, types.Status) {
	ev, status := a.b.NewDiscreteStates(c)
	a.call(status, "fmi2NewDiscreteStates(eventInfo={newDiscreteStatesNeeded=%t, terminateSimulation=%t, nominalsOfContinuousStatesChanged=%t, valuesOfContinuousStatesChanged=%t, nextEventTimeDefined=%t, nextEventTime=%.16g})",
		ev.DiscreteStatesNeedUpdate, ev.TerminateSimulation, ev.NominalsOfContinuousStatesChanged, ev.ValuesOfContinuousStatesChanged, ev.NextEventTimeDefined, ev.NextEventTime)
	return ev, status
}

func (a *fmi2Adapter) EnterContinuousTimeMode(c Component) types.Status {
	return a.call(a.b.EnterContinuousTimeMode(c), "fmi2EnterContinuousTimeMode()")
}

// EnterStepMode 2.0 无步进模式
func (a *fmi2Adapter) EnterStepMode(Component) types.Status { return types.StatusOK }

func (a *fmi2Adapter) Terminate(c Component) types.Status {
	return a.call(a.b.Terminate(c), "fmi2Terminate()")
}

func (a *fmi2Adapter) SetTime(c Component, time float64) types.Status {
	return a.call(a.b.SetTime(c, time), "fmi2SetTime(time=%.16g)", time)
}

func (a *fmi2Adapter) GetContinuousStates(c Component, x []float64) types.Status {
	return a.call(a.b.GetContinuousStates(c, x), "fmi2GetContinuousStates(x=%v)", x)
}

func (a *fmi2Adapter) SetContinuousStates(c Component, x []float64) types.Status {
	return a.call(a.b.SetContinuousStates(c, x), "fmi2SetContinuousStates(x=%v)", x)
}

func (a *fmi2Adapter) GetNominalsOfContinuousStates(c Component, nominals []float64) types.Status {
	return a.call(a.b.GetNominalsOfContinuousStates(c, nominals), "fmi2GetNominalsOfContinuousStates(x_nominal=%v)", nominals)
}

func (a *fmi2Adapter) GetContinuousStateDerivatives(c Component, dx []float64) types.Status {
	return a.call(a.b.GetDerivatives(c, dx), "fmi2GetDerivatives(derivatives=%v)", dx)
}

func (a *fmi2Adapter) GetEventIndicators(c Component, z []float64) types.Status {
	return a.call(a.b.GetEventIndicators(c, z), "fmi2GetEventIndicators(eventIndicators=%v)", z)
}

func (a *fmi2Adapter) NumberOfContinuousStates(_ Component, md *types.ModelDescription) (int, types.Status) {
	return md.NumberOfContinuousStates(), types.StatusOK
}

func (a *fmi2Adapter) NumberOfEventIndicators(_ Component, md *types.ModelDescription) (int, types.Status) {
	return md.NumberOfEventIndicators(), types.StatusOK
}

func (a *fmi2Adapter) CompletedIntegratorStep(c Component, noSetFMUStatePriorToCurrentPoint bool) (bool, bool, types.Status) {
	enterEventMode, terminateSimulation, status := a.b.CompletedIntegratorStep(c, noSetFMUStatePriorToCurrentPoint)
	a.call(status, "fmi2CompletedIntegratorStep(noSetFMUStatePriorToCurrentPoint=%t, enterEventMode=%t, terminateSimulation=%t)",
		noSetFMUStatePriorToCurrentPoint, enterEventMode, terminateSimulation)
	return enterEventMode, terminateSimulation, status
}

func (a *fmi2Adapter) DoStep(c Component, currentCommunicationPoint, communicationStepSize float64, noSetFMUStatePriorToCurrentPoint bool) (types.StepResult, types.Status) {
	status := a.call(a.b.DoStep(c, currentCommunicationPoint, communicationStepSize, noSetFMUStatePriorToCurrentPoint),
		"fmi2DoStep(currentCommunicationPoint=%.16g, communicationStepSize=%.16g, noSetFMUStatePriorToCurrentPoint=%t)",
		currentCommunicationPoint, communicationStepSize, noSetFMUStatePriorToCurrentPoint)
	return types.StepResult{LastSuccessfulTime: currentCommunicationPoint + communicationStepSize}, status
}

func (a *fmi2Adapter) DoStepDiscarded(c Component) (bool, float64, types.Status) {
	terminated, status := a.b.GetBooleanStatus(c, Terminated)
	a.call(status, "fmi2GetBooleanStatus(s=fmi2Terminated, value=%t)", terminated)
	if status > types.StatusWarning {
		return false, 0, status
	}
	lastSuccessfulTime, status := a.b.GetRealStatus(c, LastSuccessfulTime)
	a.call(status, "fmi2GetRealStatus(s=fmi2LastSuccessfulTime, value=%.16g)", lastSuccessfulTime)
	return terminated, lastSuccessfulTime, status
}

func (a *fmi2Adapter) GetValues(c Component, t types.VariableType, vr []types.ValueReference, nValues int) (any, types.Status) {
	values := types.MakeValues(t, nValues)
	var status types.Status
	switch t {
	case types.TypeReal:
		status = a.call(a.b.GetReal(c, vr, values.([]float64)), "fmi2GetReal(vr=%v, value=%v)", vr, values)
	case types.TypeInteger:
		status = a.call(a.b.GetInteger(c, vr, values.([]int32)), "fmi2GetInteger(vr=%v, value=%v)", vr, values)
	case types.TypeBoolean:
		status = a.call(a.b.GetBoolean(c, vr, values.([]bool)), "fmi2GetBoolean(vr=%v, value=%v)", vr, values)
	case types.TypeString:
		status = a.call(a.b.GetString(c, vr, values.([]string)), "fmi2GetString(vr=%v, value=%v)", vr, values)
	default:
		return nil, a.unsupported(types.FMIMajorVersion2, "Get"+t.String())
	}
	return values, status
}

func (a *fmi2Adapter) SetValues(c Component, t types.VariableType, vr []types.ValueReference, values any) types.Status {
	if err := types.CheckValues(t, values); err != nil {
		a.message(types.StatusError, err.Error())
		return types.StatusError
	}
	switch t {
	case types.TypeReal:
		return a.call(a.b.SetReal(c, vr, values.([]float64)), "fmi2SetReal(vr=%v, value=%v)", vr, values)
	case types.TypeInteger:
		return a.call(a.b.SetInteger(c, vr, values.([]int32)), "fmi2SetInteger(vr=%v, value=%v)", vr, values)
	case types.TypeBoolean:
		return a.call(a.b.SetBoolean(c, vr, values.([]bool)), "fmi2SetBoolean(vr=%v, value=%v)", vr, values)
	case types.TypeString:
		return a.call(a.b.SetString(c, vr, values.([]string)), "fmi2SetString(vr=%v, value=%v)", vr, values)
	}
	return a.unsupported(types.FMIMajorVersion2, "Set"+t.String())
}

func (a *fmi2Adapter) GetFMUState(c Component) (FMUState, types.Status) {
	s, status := a.b.GetFMUstate(c)
	a.call(status, "fmi2GetFMUstate()")
	return s, status
}

func (a *fmi2Adapter) SetFMUState(c Component, state FMUState) types.Status {
	return a.call(a.b.SetFMUstate(c, state), "fmi2SetFMUstate()")
}

func (a *fmi2Adapter) FreeFMUState(c Component, state FMUState) types.Status {
	return a.call(a.b.FreeFMUstate(c, state), "fmi2FreeFMUstate()")
}

func (a *fmi2Adapter) SerializeFMUState(c Component, state FMUState) ([]byte, types.Status) {
	data, status := a.b.SerializeFMUstate(c, state)
	a.call(status, "fmi2SerializeFMUstate(size=%d)", len(data))
	return data, status
}

func (a *fmi2Adapter) DeserializeFMUState(c Component, data []byte) (FMUState, types.Status) {
	s, status := a.b.DeSerializeFMUstate(c, data)
	a.call(status, "fmi2DeSerializeFMUstate(size=%d)", len(data))
	return s, status
}
