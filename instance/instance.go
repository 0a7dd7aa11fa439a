package instance

import (
	"errors"
	"fmt"

	"fmusim/types"
)

// LogMessageCallback 消息日志回调，模型日志与仿真错误都从这里输出
type LogMessageCallback func(inst *Instance, status types.Status, category, message string)

// LogFunctionCallCallback 函数调用日志回调，逐条记录原生调用
type LogFunctionCallCallback func(inst *Instance, status types.Status, message string)

// Instance 模型句柄
// 独占原生实例，跟踪生命周期状态，所有调用经版本适配转发
type Instance struct {
	Name     string // 实例名称
	UserData any    // 调用方附加数据

	adapter       Adapter             // 版本适配
	component     Component           // 原生实例
	interfaceType types.InterfaceType // 接口类型
	eventModeUsed bool                // 联合仿真事件模式
	state         types.InstanceState // 生命周期状态
	status        types.Status        // 最近一次调用状态
	time          float64             // 最近设置的时间

	logMessage      LogMessageCallback
	logFunctionCall LogFunctionCallCallback
}

// New 创建模型句柄，日志回调可为空
func New(name string, logMessage LogMessageCallback, logFunctionCall LogFunctionCallCallback) *Instance {
	return &Instance{
		Name:            name,
		logMessage:      logMessage,
		logFunctionCall: logFunctionCall,
	}
}

// Load 按主版本绑定入口表，之后不再切换
func (inst *Instance) Load(b Binding) error {
	if inst.adapter != nil {
		return errors.New("实例已绑定入口表")
	}
	if b == nil {
		return errors.New("入口表为空")
	}
	t := tracer{message: inst.report}
	if inst.logFunctionCall != nil {
		t.trace = func(status types.Status, message string) { inst.logFunctionCall(inst, status, message) }
	}
	switch v := b.MajorVersion(); v {
	case types.FMIMajorVersion1:
		fb, ok := b.(FMI1)
		if !ok {
			return fmt.Errorf("入口表未实现 %v", v)
		}
		inst.adapter = &fmi1Adapter{tracer: t, b: fb}
	case types.FMIMajorVersion2:
		fb, ok := b.(FMI2)
		if !ok {
			return fmt.Errorf("入口表未实现 %v", v)
		}
		inst.adapter = &fmi2Adapter{tracer: t, b: fb}
	case types.FMIMajorVersion3:
		fb, ok := b.(FMI3)
		if !ok {
			return fmt.Errorf("入口表未实现 %v", v)
		}
		inst.adapter = &fmi3Adapter{tracer: t, b: fb}
	default:
		return fmt.Errorf("不支持的主版本: %d", int(v))
	}
	return nil
}

// Version 主版本
func (inst *Instance) Version() types.MajorVersion {
	if inst.adapter == nil {
		return 0
	}
	return inst.adapter.Version()
}

// InterfaceType 接口类型
func (inst *Instance) InterfaceType() types.InterfaceType { return inst.interfaceType }

// State 生命周期状态
func (inst *Instance) State() types.InstanceState { return inst.state }

// Status 最近一次调用状态
func (inst *Instance) Status() types.Status { return inst.status }

// Time 最近设置的时间
func (inst *Instance) Time() float64 { return inst.time }

// Created 原生实例是否存在
func (inst *Instance) Created() bool { return inst.component != nil }

// LogError 通过消息回调报告错误
func (inst *Instance) LogError(format string, args ...any) {
	inst.report(types.StatusError, fmt.Sprintf(format, args...))
}

// LogInfo 通过消息回调报告信息
func (inst *Instance) LogInfo(format string, args ...any) {
	if inst.logMessage != nil {
		inst.logMessage(inst, types.StatusOK, "info", fmt.Sprintf(format, args...))
	}
}

func (inst *Instance) report(status types.Status, message string) {
	if inst.logMessage != nil {
		inst.logMessage(inst, status, "error", message)
	}
}

// modelLogger 模型侧日志转发到消息回调
func (inst *Instance) modelLogger(status types.Status, category, message string) {
	if inst.logMessage != nil {
		inst.logMessage(inst, status, category, message)
	}
}

// record 记录状态
func (inst *Instance) record(status types.Status) types.Status {
	inst.status = status
	return status
}

// transition 调用成功时进入下一状态
func (inst *Instance) transition(status types.Status, next types.InstanceState) types.Status {
	if status <= types.StatusWarning {
		inst.state = next
	}
	return inst.record(status)
}

func (inst *Instance) instantiate(interfaceType types.InterfaceType, p InstantiateParams) types.Status {
	if inst.adapter == nil {
		inst.LogError("实例 %q 未绑定入口表", inst.Name)
		return inst.record(types.StatusError)
	}
	if inst.component != nil {
		inst.LogError("实例 %q 已创建", inst.Name)
		return inst.record(types.StatusError)
	}
	p.InstanceName = inst.Name
	p.Logger = inst.modelLogger
	var c Component
	if interfaceType == types.CoSimulation {
		c = inst.adapter.InstantiateCoSimulation(p)
	} else {
		c = inst.adapter.InstantiateModelExchange(p)
	}
	if c == nil {
		inst.LogError("实例 %q 创建失败", inst.Name)
		return inst.record(types.StatusError)
	}
	inst.component = c
	inst.interfaceType = interfaceType
	inst.eventModeUsed = p.EventModeUsed
	return inst.transition(types.StatusOK, types.Instantiated)
}

// InstantiateModelExchange 创建模型交换实例
func (inst *Instance) InstantiateModelExchange(p InstantiateParams) types.Status {
	return inst.instantiate(types.ModelExchange, p)
}

// InstantiateCoSimulation 创建联合仿真实例
func (inst *Instance) InstantiateCoSimulation(p InstantiateParams) types.Status {
	return inst.instantiate(types.CoSimulation, p)
}

// FreeInstance 释放原生实例，重复调用无效
func (inst *Instance) FreeInstance() {
	if inst.component == nil {
		return
	}
	inst.adapter.FreeInstance(inst.component)
	inst.component = nil
	inst.state = types.StartAndEnd
}

// EnterConfigurationMode 进入配置模式
func (inst *Instance) EnterConfigurationMode() types.Status {
	return inst.transition(inst.adapter.EnterConfigurationMode(inst.component), types.ConfigurationMode)
}

// ExitConfigurationMode 退出配置模式
func (inst *Instance) ExitConfigurationMode() types.Status {
	return inst.transition(inst.adapter.ExitConfigurationMode(inst.component), types.Instantiated)
}

// EnterInitializationMode 进入初始化模式
func (inst *Instance) EnterInitializationMode(toleranceDefined bool, tolerance, startTime float64, stopTimeDefined bool, stopTime float64) types.Status {
	inst.time = startTime
	return inst.transition(inst.adapter.EnterInitializationMode(inst.component, toleranceDefined, tolerance, startTime, stopTimeDefined, stopTime), types.InitializationMode)
}

// ExitInitializationMode 退出初始化模式
// 模型交换与使用事件模式的联合仿真进入事件模式，否则进入步进模式
func (inst *Instance) ExitInitializationMode() types.Status {
	next := types.StepMode
	if inst.interfaceType == types.ModelExchange || inst.eventModeUsed {
		next = types.EventMode
	}
	return inst.transition(inst.adapter.ExitInitializationMode(inst.component), next)
}

// EnterEventMode 进入事件模式
func (inst *Instance) EnterEventMode() types.Status {
	return inst.transition(inst.adapter.EnterEventMode(inst.component), types.EventMode)
}

// UpdateDiscreteStates 离散状态迭代一次
func (inst *Instance) UpdateDiscreteStates() (types.EventInfo, types.Status) {
	ev, status := inst.adapter.UpdateDiscreteStates(inst.component)
	return ev, inst.record(status)
}

// EnterContinuousTimeMode 进入连续时间模式
func (inst *Instance) EnterContinuousTimeMode() types.Status {
	return inst.transition(inst.adapter.EnterContinuousTimeMode(inst.component), types.ContinuousTimeMode)
}

// EnterStepMode 进入步进模式
func (inst *Instance) EnterStepMode() types.Status {
	return inst.transition(inst.adapter.EnterStepMode(inst.component), types.StepMode)
}

// Terminate 结束仿真
func (inst *Instance) Terminate() types.Status {
	return inst.transition(inst.adapter.Terminate(inst.component), types.Terminated)
}

// SetTime 设置模型时间
func (inst *Instance) SetTime(time float64) types.Status {
	inst.time = time
	return inst.record(inst.adapter.SetTime(inst.component, time))
}

// GetContinuousStates 读取连续状态
func (inst *Instance) GetContinuousStates(x []float64) types.Status {
	return inst.record(inst.adapter.GetContinuousStates(inst.component, x))
}

// SetContinuousStates 设置连续状态
func (inst *Instance) SetContinuousStates(x []float64) types.Status {
	return inst.record(inst.adapter.SetContinuousStates(inst.component, x))
}

// GetNominalsOfContinuousStates 读取状态标称值
func (inst *Instance) GetNominalsOfContinuousStates(nominals []float64) types.Status {
	return inst.record(inst.adapter.GetNominalsOfContinuousStates(inst.component, nominals))
}

// GetContinuousStateDerivatives 读取状态导数
func (inst *Instance) GetContinuousStateDerivatives(dx []float64) types.Status {
	return inst.record(inst.adapter.GetContinuousStateDerivatives(inst.component, dx))
}

// GetEventIndicators 读取事件指示器
func (inst *Instance) GetEventIndicators(z []float64) types.Status {
	return inst.record(inst.adapter.GetEventIndicators(inst.component, z))
}

// NumberOfContinuousStates 连续状态数量
func (inst *Instance) NumberOfContinuousStates(md *types.ModelDescription) (int, types.Status) {
	n, status := inst.adapter.NumberOfContinuousStates(inst.component, md)
	return n, inst.record(status)
}

// NumberOfEventIndicators 事件指示器数量
func (inst *Instance) NumberOfEventIndicators(md *types.ModelDescription) (int, types.Status) {
	n, status := inst.adapter.NumberOfEventIndicators(inst.component, md)
	return n, inst.record(status)
}

// CompletedIntegratorStep 通知积分步完成
func (inst *Instance) CompletedIntegratorStep(noSetFMUStatePriorToCurrentPoint bool) (enterEventMode, terminateSimulation bool, status types.Status) {
	enterEventMode, terminateSimulation, status = inst.adapter.CompletedIntegratorStep(inst.component, noSetFMUStatePriorToCurrentPoint)
	return enterEventMode, terminateSimulation, inst.record(status)
}

// DoStep 推进一个通信步
func (inst *Instance) DoStep(currentCommunicationPoint, communicationStepSize float64, noSetFMUStatePriorToCurrentPoint bool) (types.StepResult, types.Status) {
	r, status := inst.adapter.DoStep(inst.component, currentCommunicationPoint, communicationStepSize, noSetFMUStatePriorToCurrentPoint)
	return r, inst.record(status)
}

// DoStepDiscarded 单步被丢弃后查询是否终止及最后成功时间
func (inst *Instance) DoStepDiscarded() (terminated bool, lastSuccessfulTime float64, status types.Status) {
	terminated, lastSuccessfulTime, status = inst.adapter.DoStepDiscarded(inst.component)
	return terminated, lastSuccessfulTime, inst.record(status)
}

// GetValues 读取变量值，返回对应类型的切片
func (inst *Instance) GetValues(t types.VariableType, vr []types.ValueReference, nValues int) (any, types.Status) {
	values, status := inst.adapter.GetValues(inst.component, t, vr, nValues)
	return values, inst.record(status)
}

// SetValues 设置变量值
func (inst *Instance) SetValues(t types.VariableType, vr []types.ValueReference, values any) types.Status {
	return inst.record(inst.adapter.SetValues(inst.component, t, vr, values))
}

// GetFMUState 获取状态快照
func (inst *Instance) GetFMUState() (FMUState, types.Status) {
	s, status := inst.adapter.GetFMUState(inst.component)
	return s, inst.record(status)
}

// SetFMUState 恢复状态快照
func (inst *Instance) SetFMUState(state FMUState) types.Status {
	return inst.record(inst.adapter.SetFMUState(inst.component, state))
}

// FreeFMUState 释放状态快照
func (inst *Instance) FreeFMUState(state FMUState) types.Status {
	return inst.record(inst.adapter.FreeFMUState(inst.component, state))
}

// SerializeFMUState 序列化状态快照
func (inst *Instance) SerializeFMUState(state FMUState) ([]byte, types.Status) {
	data, status := inst.adapter.SerializeFMUState(inst.component, state)
	return data, inst.record(status)
}

// DeserializeFMUState 反序列化状态快照
func (inst *Instance) DeserializeFMUState(data []byte) (FMUState, types.Status) {
	s, status := inst.adapter.DeserializeFMUState(inst.component, data)
	return s, inst.record(status)
}

// NumberOfVariableValues 变量元素个数，引用维度在运行时读取
func (inst *Instance) NumberOfVariableValues(v *types.ModelVariable) (int, types.Status) {
	n := 1
	for _, d := range v.Dimensions {
		if d.Variable == nil {
			n *= int(d.Start)
			continue
		}
		values, status := inst.GetValues(types.TypeUInt64, []types.ValueReference{d.Variable.ValueReference}, 1)
		if status > types.StatusWarning {
			return 0, status
		}
		n *= int(values.([]uint64)[0])
	}
	return n, types.StatusOK
}

// Finish 清理实例
// 除致命错误外都尝试 Terminate，致命错误时不释放原生实例
func (inst *Instance) Finish(status types.Status) types.Status {
	if inst.component == nil {
		return status
	}
	switch inst.state {
	case types.Instantiated, types.ConfigurationMode, types.Terminated:
	default:
		if status != types.StatusFatal {
			status = types.MaxStatus(status, inst.Terminate())
		}
	}
	if status == types.StatusFatal {
		inst.report(types.StatusFatal, fmt.Sprintf("实例 %q 发生致命错误，不再释放", inst.Name))
		return status
	}
	inst.FreeInstance()
	return status
}
