package instance

import (
	"fmt"

	"fmusim/types"
)

// InstantiateParams 实例化参数
type InstantiateParams struct {
	InstanceName                  string                 // 实例名称
	Token                         string                 // 实例化令牌或 GUID
	ResourceLocation              string                 // 资源位置，格式随版本不同
	Visible                       bool                   // 可见
	LoggingOn                     bool                   // 开启调试日志
	EventModeUsed                 bool                   // 联合仿真使用事件模式
	EarlyReturnAllowed            bool                   // 允许提前返回
	RequiredIntermediateVariables []types.ValueReference // 中间更新所需变量
	IntermediateUpdate            IntermediateUpdate     // 中间更新回调
	Logger                        Logger                 // 模型日志回调
}

// Adapter 统一的入口能力表，每个主版本一个实现
// 在 Instance.Load 时选定，仿真循环只通过它调用模型
type Adapter interface {
	Version() types.MajorVersion

	InstantiateModelExchange(p InstantiateParams) Component
	InstantiateCoSimulation(p InstantiateParams) Component
	FreeInstance(c Component)

	EnterConfigurationMode(c Component) types.Status
	ExitConfigurationMode(c Component) types.Status
	EnterInitializationMode(c Component, toleranceDefined bool, tolerance, startTime float64, stopTimeDefined bool, stopTime float64) types.Status
	ExitInitializationMode(c Component) types.Status
	EnterEventMode(c Component) types.Status
	UpdateDiscreteStates(c Component) (types.EventInfo, types.Status)
	EnterContinuousTimeMode(c Component) types.Status
	EnterStepMode(c Component) types.Status
	Terminate(c Component) types.Status

	SetTime(c Component, time float64) types.Status
	GetContinuousStates(c Component, x []float64) types.Status
	SetContinuousStates(c Component, x []float64) types.Status
	GetNominalsOfContinuousStates(c Component, nominals []float64) types.Status
	GetContinuousStateDerivatives(c Component, dx []float64) types.Status
	GetEventIndicators(c Component, z []float64) types.Status
	NumberOfContinuousStates(c Component, md *types.ModelDescription) (int, types.Status)
	NumberOfEventIndicators(c Component, md *types.ModelDescription) (int, types.Status)
	CompletedIntegratorStep(c Component, noSetFMUStatePriorToCurrentPoint bool) (enterEventMode, terminateSimulation bool, status types.Status)

	DoStep(c Component, currentCommunicationPoint, communicationStepSize float64, noSetFMUStatePriorToCurrentPoint bool) (types.StepResult, types.Status)
	DoStepDiscarded(c Component) (terminated bool, lastSuccessfulTime float64, status types.Status)

	GetValues(c Component, t types.VariableType, vr []types.ValueReference, nValues int) (any, types.Status)
	SetValues(c Component, t types.VariableType, vr []types.ValueReference, values any) types.Status

	GetFMUState(c Component) (FMUState, types.Status)
	SetFMUState(c Component, state FMUState) types.Status
	FreeFMUState(c Component, state FMUState) types.Status
	SerializeFMUState(c Component, state FMUState) ([]byte, types.Status)
	DeserializeFMUState(c Component, data []byte) (FMUState, types.Status)
}

// tracer 记录原生调用
type tracer struct {
	trace   func(status types.Status, message string) // 调用日志，可为空
	message func(status types.Status, message string) // 错误消息
}

// call 记录调用并返回状态
func (t *tracer) call(status types.Status, format string, args ...any) types.Status {
	if t.trace != nil {
		t.trace(status, fmt.Sprintf(format, args...))
	}
	return status
}

// unsupported 报告当前版本不支持的操作
func (t *tracer) unsupported(version types.MajorVersion, name string) types.Status {
	if t.message != nil {
		t.message(types.StatusError, fmt.Sprintf("%s 不支持 %s", version, name))
	}
	return types.StatusError
}
