package instance

import "fmusim/types"

// fmi3Adapter 3.0 适配，直接映射
type fmi3Adapter struct {
	tracer
	b FMI3
}

func (a *fmi3Adapter) Version() types.MajorVersion { return types.FMIMajorVersion3 }

func (a *fmi3Adapter) InstantiateModelExchange(p InstantiateParams) Component {
	c := a.b.InstantiateModelExchange(p.InstanceName, p.Token, p.ResourceLocation, p.Visible, p.LoggingOn, p.Logger)
	a.call(instantiateStatus(c), "fmi3InstantiateModelExchange(instanceName=%q, instantiationToken=%q, resourcePath=%q, visible=%t, loggingOn=%t)",
		p.InstanceName, p.Token, p.ResourceLocation, p.Visible, p.LoggingOn)
	return c
}

func (a *fmi3Adapter) InstantiateCoSimulation(p InstantiateParams) Component {
	c := a.b.InstantiateCoSimulation(p.InstanceName, p.Token, p.ResourceLocation, p.Visible, p.LoggingOn,
		p.EventModeUsed, p.EarlyReturnAllowed, p.RequiredIntermediateVariables, p.Logger, p.IntermediateUpdate)
	a.call(instantiateStatus(c), "fmi3InstantiateCoSimulation(instanceName=%q, instantiationToken=%q, resourcePath=%q, visible=%t, loggingOn=%t, eventModeUsed=%t, earlyReturnAllowed=%t, requiredIntermediateVariables=%v)",
		p.InstanceName, p.Token, p.ResourceLocation, p.Visible, p.LoggingOn, p.EventModeUsed, p.EarlyReturnAllowed, p.RequiredIntermediateVariables)
	return c
}

func (a *fmi3Adapter) FreeInstance(c Component) {
	a.b.FreeInstance(c)
	a.call(types.StatusOK, "fmi3FreeInstance()")
}

func (a *fmi3Adapter) EnterConfigurationMode(c Component) types.Status {
	return a.call(a.b.EnterConfigurationMode(c), "fmi3EnterConfigurationMode()")
}

func (a *fmi3Adapter) ExitConfigurationMode(c Component) types.Status {
	return a.call(a.b.ExitConfigurationMode(c), "fmi3ExitConfigurationMode()")
}

func (a *fmi3Adapter) EnterInitializationMode(c Component, toleranceDefined bool, tolerance, startTime float64, stopTimeDefined bool, stopTime float64) types.Status {
	return a.call(a.b.EnterInitializationMode(c, toleranceDefined, tolerance, startTime, stopTimeDefined, stopTime),
		"fmi3EnterInitializationMode(toleranceDefined=%t, tolerance=%.16g, startTime=%.16g, stopTimeDefined=%t, stopTime=%.16g)",
		toleranceDefined, tolerance, startTime, stopTimeDefined, stopTime)
}

func (a *fmi3Adapter) ExitInitializationMode(c Component) types.Status {
	return a.call(a.b.ExitInitializationMode(c), "fmi3ExitInitializationMode()")
}

func (a *fmi3Adapter) EnterEventMode(c Component) types.Status {
	return a.call(a.b.EnterEventMode(c), "fmi3EnterEventMode()")
}

func (a *fmi3Adapter) UpdateDiscreteStates(c Component) (types.EventInfo, types.Status) {
	ev, status := a.b.UpdateDiscreteStates(c)
	a.call(status, "fmi3UpdateDiscreteStates(discreteStatesNeedUpdate=%t, terminateSimulation=%t, nominalsOfContinuousStatesChanged=%t, valuesOfContinuousStatesChanged=%t, nextEventTimeDefined=%t, nextEventTime=%.16g)",
		ev.DiscreteStatesNeedUpdate, ev.TerminateSimulation, ev.NominalsOfContinuousStatesChanged, ev.ValuesOfContinuousStatesChanged, ev.NextEventTimeDefined, ev.NextEventTime)
	return ev, status
}

func (a *fmi3Adapter) EnterContinuousTimeMode(c Component) types.Status {
	return a.call(a.b.EnterContinuousTimeMode(c), "fmi3EnterContinuousTimeMode()")
}

func (a *fmi3Adapter) EnterStepMode(c Component) types.Status {
	return a.call(a.b.EnterStepMode(c), "fmi3EnterStepMode()")
}

func (a *fmi3Adapter) Terminate(c Component) types.Status {
	return a.call(a.b.Terminate(c), "fmi3Terminate()")
}

func (a *fmi3Adapter) SetTime(c Component, time float64) types.Status {
	return a.call(a.b.SetTime(c, time), "fmi3SetTime(time=%.16g)", time)
}

func (a *fmi3Adapter) GetContinuousStates(c Component, x []float64) types.Status {
	return a.call(a.b.GetContinuousStates(c, x), "fmi3GetContinuousStates(continuousStates=%v)", x)
}

func (a *fmi3Adapter) SetContinuousStates(c Component, x []float64) types.Status {
	return a.call(a.b.SetContinuousStates(c, x), "fmi3SetContinuousStates(continuousStates=%v)", x)
}

func (a *fmi3Adapter) GetNominalsOfContinuousStates(c Component, nominals []float64) types.Status {
	return a.call(a.b.GetNominalsOfContinuousStates(c, nominals), "fmi3GetNominalsOfContinuousStates(nominals=%v)", nominals)
}

func (a *fmi3Adapter) GetContinuousStateDerivatives(c Component, dx []float64) types.Status {
	return a.call(a.b.GetContinuousStateDerivatives(c, dx), "fmi3GetContinuousStateDerivatives(derivatives=%v)", dx)
}

func (a *fmi3Adapter) GetEventIndicators(c Component, z []float64) types.Status {
	return a.call(a.b.GetEventIndicators(c, z), "fmi3GetEventIndicators(eventIndicators=%v)", z)
}

func (a *fmi3Adapter) NumberOfContinuousStates(c Component, _ *types.ModelDescription) (int, types.Status) {
	n, status := a.b.GetNumberOfContinuousStates(c)
	a.call(status, "fmi3GetNumberOfContinuousStates(nContinuousStates=%d)", n)
	return n, status
}

func (a *fmi3Adapter) NumberOfEventIndicators(c Component, _ *types.ModelDescription) (int, types.Status) {
	n, status := a.b.GetNumberOfEventIndicators(c)
	a.call(status, "fmi3GetNumberOfEventIndicators(nEventIndicators=%d)", n)
	return n, status
}

func (a *fmi3Adapter) CompletedIntegratorStep(c Component, noSetFMUStatePriorToCurrentPoint bool) (bool, bool, types.Status) {
	enterEventMode, terminateSimulation, status := a.b.CompletedIntegratorStep(c, noSetFMUStatePriorToCurrentPoint)
	a.call(status, "fmi3CompletedIntegratorStep(noSetFMUStatePriorToCurrentPoint=%t, enterEventMode=%t, terminateSimulation=%t)",
		noSetFMUStatePriorToCurrentPoint, enterEventMode, terminateSimulation)
	return enterEventMode, terminateSimulation, status
}

func (a *fmi3Adapter) DoStep(c Component, currentCommunicationPoint, communicationStepSize float64, noSetFMUStatePriorToCurrentPoint bool) (types.StepResult, types.Status) {
	r, status := a.b.DoStep(c, currentCommunicationPoint, communicationStepSize, noSetFMUStatePriorToCurrentPoint)
	a.call(status, "fmi3DoStep(currentCommunicationPoint=%.16g, communicationStepSize=%.16g, noSetFMUStatePriorToCurrentPoint=%t, eventHandlingNeeded=%t, terminateSimulation=%t, earlyReturn=%t, lastSuccessfulTime=%.16g)",
		currentCommunicationPoint, communicationStepSize, noSetFMUStatePriorToCurrentPoint, r.EventHandlingNeeded, r.TerminateSimulation, r.EarlyReturn, r.LastSuccessfulTime)
	return r, status
}

// DoStepDiscarded 3.0 通过 DoStep 结果报告丢弃
func (a *fmi3Adapter) DoStepDiscarded(Component) (bool, float64, types.Status) {
	return false, 0, a.unsupported(types.FMIMajorVersion3, "DoStepDiscarded")
}

func (a *fmi3Adapter) GetValues(c Component, t types.VariableType, vr []types.ValueReference, nValues int) (any, types.Status) {
	values := types.MakeValues(t, nValues)
	var status types.Status
	switch t {
	case types.TypeFloat32:
		status = a.b.GetFloat32(c, vr, values.([]float32))
	case types.TypeFloat64:
		status = a.b.GetFloat64(c, vr, values.([]float64))
	case types.TypeInt8:
		status = a.b.GetInt8(c, vr, values.([]int8))
	case types.TypeUInt8:
		status = a.b.GetUInt8(c, vr, values.([]uint8))
	case types.TypeInt16:
		status = a.b.GetInt16(c, vr, values.([]int16))
	case types.TypeUInt16:
		status = a.b.GetUInt16(c, vr, values.([]uint16))
	case types.TypeInt32:
		status = a.b.GetInt32(c, vr, values.([]int32))
	case types.TypeUInt32:
		status = a.b.GetUInt32(c, vr, values.([]uint32))
	case types.TypeInt64:
		status = a.b.GetInt64(c, vr, values.([]int64))
	case types.TypeUInt64:
		status = a.b.GetUInt64(c, vr, values.([]uint64))
	case types.TypeBoolean:
		status = a.b.GetBoolean(c, vr, values.([]bool))
	case types.TypeString:
		status = a.b.GetString(c, vr, values.([]string))
	case types.TypeBinary:
		status = a.b.GetBinary(c, vr, values.([][]byte))
	case types.TypeClock:
		status = a.b.GetClock(c, vr, values.([]bool))
	default:
		return nil, a.unsupported(types.FMIMajorVersion3, "Get"+t.String())
	}
	a.call(status, "fmi3Get%s(valueReferences=%v, values=%v)", t, vr, values)
	return values, status
}

func (a *fmi3Adapter) SetValues(c Component, t types.VariableType, vr []types.ValueReference, values any) types.Status {
	if err := types.CheckValues(t, values); err != nil {
		a.message(types.StatusError, err.Error())
		return types.StatusError
	}
	var status types.Status
	switch t {
	case types.TypeFloat32:
		status = a.b.SetFloat32(c, vr, values.([]float32))
	case types.TypeFloat64:
		status = a.b.SetFloat64(c, vr, values.([]float64))
	case types.TypeInt8:
		status = a.b.SetInt8(c, vr, values.([]int8))
	case types.TypeUInt8:
		status = a.b.SetUInt8(c, vr, values.([]uint8))
	case types.TypeInt16:
		status = a.b.SetInt16(c, vr, values.([]int16))
	case types.TypeUInt16:
		status = a.b.SetUInt16(c, vr, values.([]uint16))
	case types.TypeInt32:
		status = a.b.SetInt32(c, vr, values.([]int32))
	case types.TypeUInt32:
		status = a.b.SetUInt32(c, vr, values.([]uint32))
	case types.TypeInt64:
		status = a.b.SetInt64(c, vr, values.([]int64))
	case types.TypeUInt64:
		status = a.b.SetUInt64(c, vr, values.([]uint64))
	case types.TypeBoolean:
		status = a.b.SetBoolean(c, vr, values.([]bool))
	case types.TypeString:
		status = a.b.SetString(c, vr, values.([]string))
	case types.TypeBinary:
		status = a.b.SetBinary(c, vr, values.([][]byte))
	case types.TypeClock:
		status = a.b.SetClock(c, vr, values.([]bool))
	}
	return a.call(status, "fmi3Set%s(valueReferences=%v, values=%v)", t, vr, values)
}

func (a *fmi3Adapter) GetFMUState(c Component) (FMUState, types.Status) {
	s, status := a.b.GetFMUState(c)
	a.call(status, "fmi3GetFMUState()")
	return s, status
}

func (a *fmi3Adapter) SetFMUState(c Component, state FMUState) types.Status {
	return a.call(a.b.SetFMUState(c, state), "fmi3SetFMUState()")
}

func (a *fmi3Adapter) FreeFMUState(c Component, state FMUState) types.Status {
	return a.call(a.b.FreeFMUState(c, state), "fmi3FreeFMUState()")
}

func (a *fmi3Adapter) SerializeFMUState(c Component, state FMUState) ([]byte, types.Status) {
	data, status := a.b.SerializeFMUState(c, state)
	a.call(status, "fmi3SerializeFMUState(size=%d)", len(data))
	return data, status
}

func (a *fmi3Adapter) DeserializeFMUState(c Component, data []byte) (FMUState, types.Status) {
	s, status := a.b.DeserializeFMUState(c, data)
	a.call(status, "fmi3DeserializeFMUState(size=%d)", len(data))
	return s, status
}

// instantiateStatus 实例化结果对应的状态
func instantiateStatus(c Component) types.Status {
	if c == nil {
		return types.StatusError
	}
	return types.StatusOK
}
