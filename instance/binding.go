package instance

import "fmusim/types"

// Component 模型实例的不透明句柄，由实例化调用返回
type Component any

// FMUState 模型内部状态快照的不透明句柄
type FMUState any

// Logger 模型侧日志回调
type Logger func(status types.Status, category, message string)

// IntermediateUpdateInfo 中间更新回调参数
type IntermediateUpdateInfo struct {
	Time                 float64 // 中间更新时间
	ClocksTicked         bool    // 时钟触发
	VariableSetRequested bool    // 允许设置输入
	VariableGetAllowed   bool    // 允许读取输出
	StepFinished         bool    // 单步完成
	CanReturnEarly       bool    // 允许提前返回
}

// IntermediateUpdate 中间更新回调，返回是否请求提前返回及其时间
type IntermediateUpdate func(info IntermediateUpdateInfo) (earlyReturnRequested bool, earlyReturnTime float64)

// StatusKind FMI1/FMI2 状态查询类型
type StatusKind int

// 状态查询定义
const (
	DoStepStatus StatusKind = iota
	PendingStatus
	LastSuccessfulTime
	Terminated
)

// Binding 已加载二进制的入口表
type Binding interface {
	MajorVersion() types.MajorVersion
}

// FMI1EventInfo FMI1 事件信息
type FMI1EventInfo struct {
	IterationConverged          bool
	StateValueReferencesChanged bool
	StateValuesChanged          bool
	TerminateSimulation         bool
	UpcomingTimeEvent           bool
	NextEventTime               float64
}

// FMI1 1.0 入口表，模型交换与联合仿真两组函数
type FMI1 interface {
	Binding

	SetDebugLogging(c Component, loggingOn bool) types.Status
	GetReal(c Component, vr []types.ValueReference, value []float64) types.Status
	GetInteger(c Component, vr []types.ValueReference, value []int32) types.Status
	GetBoolean(c Component, vr []types.ValueReference, value []bool) types.Status
	GetString(c Component, vr []types.ValueReference, value []string) types.Status
	SetReal(c Component, vr []types.ValueReference, value []float64) types.Status
	SetInteger(c Component, vr []types.ValueReference, value []int32) types.Status
	SetBoolean(c Component, vr []types.ValueReference, value []bool) types.Status
	SetString(c Component, vr []types.ValueReference, value []string) types.Status

	// 模型交换
	InstantiateModel(instanceName, guid string, loggingOn bool, logger Logger) Component
	FreeModelInstance(c Component)
	SetTime(c Component, time float64) types.Status
	SetContinuousStates(c Component, x []float64) types.Status
	CompletedIntegratorStep(c Component) (callEventUpdate bool, status types.Status)
	Initialize(c Component, toleranceControlled bool, relativeTolerance float64) (FMI1EventInfo, types.Status)
	GetDerivatives(c Component, derivatives []float64) types.Status
	GetEventIndicators(c Component, eventIndicators []float64) types.Status
	EventUpdate(c Component, intermediateResults bool) (FMI1EventInfo, types.Status)
	GetContinuousStates(c Component, states []float64) types.Status
	GetNominalContinuousStates(c Component, nominals []float64) types.Status
	Terminate(c Component) types.Status

	// 联合仿真
	InstantiateSlave(instanceName, guid, fmuLocation, mimeType string, timeout float64, visible, interactive, loggingOn bool, logger Logger) Component
	InitializeSlave(c Component, tStart float64, stopTimeDefined bool, tStop float64) types.Status
	TerminateSlave(c Component) types.Status
	FreeSlaveInstance(c Component)
	DoStep(c Component, currentCommunicationPoint, communicationStepSize float64, newStep bool) types.Status
	GetRealStatus(c Component, kind StatusKind) (float64, types.Status)
	GetBooleanStatus(c Component, kind StatusKind) (bool, types.Status)
}

// FMI2 2.0 入口表
type FMI2 interface {
	Binding

	Instantiate(instanceName string, fmuType types.InterfaceType, guid, resourceLocation string, visible, loggingOn bool, logger Logger) Component
	FreeInstance(c Component)
	SetupExperiment(c Component, toleranceDefined bool, tolerance, startTime float64, stopTimeDefined bool, stopTime float64) types.Status
	EnterInitializationMode(c Component) types.Status
	ExitInitializationMode(c Component) types.Status
	Terminate(c Component) types.Status

	GetReal(c Component, vr []types.ValueReference, value []float64) types.Status
	GetInteger(c Component, vr []types.ValueReference, value []int32) types.Status
	GetBoolean(c Component, vr []types.ValueReference, value []bool) types.Status
	GetString(c Component, vr []types.ValueReference, value []string) types.Status
	SetReal(c Component, vr []types.ValueReference, value []float64) types.Status
	SetInteger(c Component, vr []types.ValueReference, value []int32) types.Status
	SetBoolean(c Component, vr []types.ValueReference, value []bool) types.Status
	SetString(c Component, vr []types.ValueReference, value []string) types.Status

	GetFMUstate(c Component) (FMUState, types.Status)
	SetFMUstate(c Component, state FMUState) types.Status
	FreeFMUstate(c Component, state FMUState) types.Status
	SerializeFMUstate(c Component, state FMUState) ([]byte, types.Status)
	DeSerializeFMUstate(c Component, serializedState []byte) (FMUState, types.Status)

	// 模型交换
	EnterEventMode(c Component) types.Status
	NewDiscreteStates(c Component) (types.EventInfo, types.Status)
	EnterContinuousTimeMode(c Component) types.Status
	CompletedIntegratorStep(c Component, noSetFMUStatePriorToCurrentPoint bool) (enterEventMode, terminateSimulation bool, status types.Status)
	SetTime(c Component, time float64) types.Status
	SetContinuousStates(c Component, x []float64) types.Status
	GetDerivatives(c Component, derivatives []float64) types.Status
	GetEventIndicators(c Component, eventIndicators []float64) types.Status
	GetContinuousStates(c Component, x []float64) types.Status
	GetNominalsOfContinuousStates(c Component, nominals []float64) types.Status

	// 联合仿真
	DoStep(c Component, currentCommunicationPoint, communicationStepSize float64, noSetFMUStatePriorToCurrentPoint bool) types.Status
	GetRealStatus(c Component, kind StatusKind) (float64, types.Status)
	GetBooleanStatus(c Component, kind StatusKind) (bool, types.Status)
}

// FMI3 3.0 入口表
type FMI3 interface {
	Binding

	InstantiateModelExchange(instanceName, instantiationToken, resourcePath string, visible, loggingOn bool, logger Logger) Component
	InstantiateCoSimulation(instanceName, instantiationToken, resourcePath string, visible, loggingOn, eventModeUsed, earlyReturnAllowed bool, requiredIntermediateVariables []types.ValueReference, logger Logger, intermediateUpdate IntermediateUpdate) Component
	FreeInstance(c Component)

	EnterInitializationMode(c Component, toleranceDefined bool, tolerance, startTime float64, stopTimeDefined bool, stopTime float64) types.Status
	ExitInitializationMode(c Component) types.Status
	EnterEventMode(c Component) types.Status
	Terminate(c Component) types.Status
	EnterConfigurationMode(c Component) types.Status
	ExitConfigurationMode(c Component) types.Status
	UpdateDiscreteStates(c Component) (types.EventInfo, types.Status)

	GetFloat32(c Component, vr []types.ValueReference, values []float32) types.Status
	GetFloat64(c Component, vr []types.ValueReference, values []float64) types.Status
	GetInt8(c Component, vr []types.ValueReference, values []int8) types.Status
	GetUInt8(c Component, vr []types.ValueReference, values []uint8) types.Status
	GetInt16(c Component, vr []types.ValueReference, values []int16) types.Status
	GetUInt16(c Component, vr []types.ValueReference, values []uint16) types.Status
	GetInt32(c Component, vr []types.ValueReference, values []int32) types.Status
	GetUInt32(c Component, vr []types.ValueReference, values []uint32) types.Status
	GetInt64(c Component, vr []types.ValueReference, values []int64) types.Status
	GetUInt64(c Component, vr []types.ValueReference, values []uint64) types.Status
	GetBoolean(c Component, vr []types.ValueReference, values []bool) types.Status
	GetString(c Component, vr []types.ValueReference, values []string) types.Status
	GetBinary(c Component, vr []types.ValueReference, values [][]byte) types.Status
	GetClock(c Component, vr []types.ValueReference, values []bool) types.Status

	SetFloat32(c Component, vr []types.ValueReference, values []float32) types.Status
	SetFloat64(c Component, vr []types.ValueReference, values []float64) types.Status
	SetInt8(c Component, vr []types.ValueReference, values []int8) types.Status
	SetUInt8(c Component, vr []types.ValueReference, values []uint8) types.Status
	SetInt16(c Component, vr []types.ValueReference, values []int16) types.Status
	SetUInt16(c Component, vr []types.ValueReference, values []uint16) types.Status
	SetInt32(c Component, vr []types.ValueReference, values []int32) types.Status
	SetUInt32(c Component, vr []types.ValueReference, values []uint32) types.Status
	SetInt64(c Component, vr []types.ValueReference, values []int64) types.Status
	SetUInt64(c Component, vr []types.ValueReference, values []uint64) types.Status
	SetBoolean(c Component, vr []types.ValueReference, values []bool) types.Status
	SetString(c Component, vr []types.ValueReference, values []string) types.Status
	SetBinary(c Component, vr []types.ValueReference, values [][]byte) types.Status
	SetClock(c Component, vr []types.ValueReference, values []bool) types.Status

	GetFMUState(c Component) (FMUState, types.Status)
	SetFMUState(c Component, state FMUState) types.Status
	FreeFMUState(c Component, state FMUState) types.Status
	SerializeFMUState(c Component, state FMUState) ([]byte, types.Status)
	DeserializeFMUState(c Component, serializedState []byte) (FMUState, types.Status)

	// 模型交换
	EnterContinuousTimeMode(c Component) types.Status
	CompletedIntegratorStep(c Component, noSetFMUStatePriorToCurrentPoint bool) (enterEventMode, terminateSimulation bool, status types.Status)
	SetTime(c Component, time float64) types.Status
	SetContinuousStates(c Component, x []float64) types.Status
	GetContinuousStateDerivatives(c Component, derivatives []float64) types.Status
	GetEventIndicators(c Component, eventIndicators []float64) types.Status
	GetContinuousStates(c Component, x []float64) types.Status
	GetNominalsOfContinuousStates(c Component, nominals []float64) types.Status
	GetNumberOfEventIndicators(c Component) (int, types.Status)
	GetNumberOfContinuousStates(c Component) (int, types.Status)

	// 联合仿真
	EnterStepMode(c Component) types.Status
	DoStep(c Component, currentCommunicationPoint, communicationStepSize float64, noSetFMUStatePriorToCurrentPoint bool) (types.StepResult, types.Status)
}
