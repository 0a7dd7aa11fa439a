package models

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"slices"

	"fmusim/instance"
	"fmusim/types"
)

func init() {
	for _, v := range []any{
		[]float32{}, []float64{}, []int8{}, []uint8{}, []int16{}, []uint16{},
		[]int32{}, []uint32{}, []int64{}, []uint64{}, []bool{}, []string{}, [][]byte{},
	} {
		gob.Register(v)
	}
}

// Model 参考模型实例，由各版本入口表作为 Component 交出
type Model struct {
	def                *Definition
	name               string
	interfaceType      types.InterfaceType
	state              types.InstanceState
	logger             instance.Logger
	intermediateUpdate instance.IntermediateUpdate
	loggingOn          bool
	eventModeUsed      bool
	earlyReturnAllowed bool

	values map[types.ValueReference]any // 变量值，均为对应类型的切片

	time                   float64
	startTime              float64
	stopTime               float64
	stopTimeDefined        bool
	nextCommunicationPoint float64
	nSteps                 int

	prez []float64 // 上一步事件指示器
	z    []float64
	x    []float64
	dx   []float64

	// 事件
	inputEvent           bool // 步进模式下离散输入发生变化
	terminateSimulation  bool
	nominalsChanged      bool
	valuesChanged        bool
	nextEventTimeDefined bool
	nextEventTime        float64
}

// newModel 创建实例，名称为空或令牌不符时返回 nil
func newModel(d *Definition, name, token string, interfaceType types.InterfaceType, loggingOn bool, logger instance.Logger) *Model {
	m := &Model{
		def:           d,
		name:          name,
		interfaceType: interfaceType,
		logger:        logger,
		loggingOn:     loggingOn,
		prez:          make([]float64, d.NZ),
		z:             make([]float64, d.NZ),
		x:             make([]float64, len(d.States)),
		dx:            make([]float64, len(d.States)),
	}
	switch {
	case name == "":
		m.logError("缺少实例名称")
		return nil
	case token == "":
		m.logError("缺少实例化令牌")
		return nil
	case token != d.Token:
		m.logError("实例化令牌不匹配")
		return nil
	}
	m.reset()
	return m
}

// reset 恢复起始值
func (m *Model) reset() {
	m.state = types.Instantiated
	m.values = make(map[types.ValueReference]any, len(m.def.Variables))
	for _, v := range m.def.Variables {
		m.values[v.ValueReference] = m.startValues(v)
	}
	m.startTime, m.nSteps = 0, 0
	m.setTime(0)
	m.nextEventTimeDefined, m.nextEventTime = false, 0
	m.terminateSimulation = false
	if m.def.Start != nil {
		m.def.Start(m)
	}
}

// startValues 解析起始值，缺省为零值
func (m *Model) startValues(v *types.ModelVariable) any {
	if v.Start != "" {
		values, _ := types.ParseValues(types.FMIMajorVersion3, v.Type, v.Start)
		return values
	}
	n := 1
	for _, dim := range v.Dimensions {
		if dim.Variable != nil {
			n *= int(m.UInt64(dim.Variable.ValueReference))
		} else {
			n *= int(dim.Start)
		}
	}
	return types.MakeValues(v.Type, n)
}

func (m *Model) logError(format string, args ...any) {
	if m.logger != nil {
		m.logger(types.StatusError, "logStatusError", fmt.Sprintf(format, args...))
	}
}

func (m *Model) logEvent(format string, args ...any) {
	if m.logger != nil && m.loggingOn {
		m.logger(types.StatusOK, "logEvents", fmt.Sprintf(format, args...))
	}
}

// Time 当前时间
func (m *Model) Time() float64 { return m.time }

func (m *Model) setTime(time float64) {
	m.time = time
	if m.def.hasTime {
		m.values[m.def.timeVR] = []float64{time}
	}
}

// Float64 读取标量
func (m *Model) Float64(vr types.ValueReference) float64 { return m.values[vr].([]float64)[0] }

// SetFloat64 写入标量
func (m *Model) SetFloat64(vr types.ValueReference, v float64) { m.values[vr].([]float64)[0] = v }

// Int32 读取标量
func (m *Model) Int32(vr types.ValueReference) int32 { return m.values[vr].([]int32)[0] }

// SetInt32 写入标量
func (m *Model) SetInt32(vr types.ValueReference, v int32) { m.values[vr].([]int32)[0] = v }

// UInt64 读取标量
func (m *Model) UInt64(vr types.ValueReference) uint64 {
	if v, ok := m.values[vr].([]uint64); ok && len(v) > 0 {
		return v[0]
	}
	return 0
}

// copyValue 输出跟随输入
func (m *Model) copyValue(dst, src types.ValueReference) {
	m.values[dst] = cloneValue(m.values[src])
}

func (m *Model) calculate() {
	if m.def.Calculate != nil {
		m.def.Calculate(m)
	}
}

// settable 检查变量在当前状态下是否可写
func (m *Model) settable(v *types.ModelVariable) error {
	switch {
	case v.Causality == types.CausalityIndependent:
		return fmt.Errorf("变量 %s 为独立变量，不能设置", v.Name)
	case v.Variability == types.VariabilityConstant:
		return fmt.Errorf("变量 %s 为常量，不能设置", v.Name)
	case v.Causality == types.CausalityStructuralParameter:
		if m.state != types.ConfigurationMode && m.state != types.ReconfigurationMode {
			return fmt.Errorf("变量 %s 只能在配置模式下设置", v.Name)
		}
	case v.Variability == types.VariabilityFixed:
		if m.state != types.Instantiated && m.state != types.InitializationMode {
			return fmt.Errorf("变量 %s 只能在实例化后或初始化模式下设置", v.Name)
		}
	case v.Causality == types.CausalityInput, v.Causality == types.CausalityParameter:
	case m.def.isState(v.ValueReference):
	default:
		return fmt.Errorf("变量 %s 不可设置", v.Name)
	}
	return nil
}

// get 按引用顺序读取同类型变量
func get[T any](c instance.Component, vr []types.ValueReference, values []T) types.Status {
	m, ok := c.(*Model)
	if !ok || m == nil {
		return types.StatusError
	}
	m.calculate()
	n := 0
	for _, r := range vr {
		v, ok := m.values[r].([]T)
		if !ok {
			m.logError("不允许以 %T 读取变量 %d", values, r)
			return types.StatusError
		}
		if n+len(v) > len(values) {
			m.logError("变量 %d 的值个数不足", r)
			return types.StatusError
		}
		n += copy(values[n:], v)
	}
	return types.StatusOK
}

// set 按引用顺序写入同类型变量
func set[T any](c instance.Component, vr []types.ValueReference, values []T) types.Status {
	m, ok := c.(*Model)
	if !ok || m == nil {
		return types.StatusError
	}
	n := 0
	for _, r := range vr {
		v := m.def.Variable(r)
		if v == nil {
			m.logError("未知变量引用 %d", r)
			return types.StatusError
		}
		if err := m.settable(v); err != nil {
			m.logError("%s", err)
			return types.StatusError
		}
		cur, ok := m.values[r].([]T)
		if !ok {
			m.logError("不允许以 %T 设置变量 %d", values, r)
			return types.StatusError
		}
		if n+len(cur) > len(values) {
			m.logError("变量 %d 的值个数不足", r)
			return types.StatusError
		}
		src := values[n : n+len(cur)]
		if b, ok := any(src).([][]byte); ok {
			dst := any(cur).([][]byte)
			for i := range b {
				dst[i] = slices.Clone(b[i])
			}
		} else {
			copy(cur, src)
		}
		n += len(cur)
		if v.Variability == types.VariabilityDiscrete && v.Causality == types.CausalityInput && m.state == types.StepMode {
			m.inputEvent = true
		}
	}
	return types.StatusOK
}

// ---------------------------------------------------------------------------
// 生命周期
// ---------------------------------------------------------------------------

func (m *Model) enterConfigurationMode() types.Status {
	if m.state != types.Instantiated {
		m.logError("EnterConfigurationMode: 调用顺序错误")
		return types.StatusError
	}
	m.state = types.ConfigurationMode
	return types.StatusOK
}

func (m *Model) exitConfigurationMode() types.Status {
	if m.state != types.ConfigurationMode {
		m.logError("ExitConfigurationMode: 调用顺序错误")
		return types.StatusError
	}
	if m.def.Configure != nil {
		m.def.Configure(m)
	}
	m.state = types.Instantiated
	return types.StatusOK
}

func (m *Model) enterInitializationMode(startTime float64, stopTimeDefined bool, stopTime float64) types.Status {
	if m.state != types.Instantiated {
		m.logError("EnterInitializationMode: 调用顺序错误")
		return types.StatusError
	}
	m.startTime = startTime
	m.stopTimeDefined, m.stopTime = stopTimeDefined, stopTime
	m.nextCommunicationPoint = startTime
	m.setTime(startTime)
	m.state = types.InitializationMode
	return types.StatusOK
}

func (m *Model) exitInitializationMode() types.Status {
	if m.state != types.InitializationMode {
		m.logError("ExitInitializationMode: 调用顺序错误")
		return types.StatusError
	}
	m.calculate()
	m.eventIndicators(m.prez)
	switch {
	case m.interfaceType == types.ModelExchange:
		m.state = types.EventMode
	case m.eventModeUsed:
		m.state = types.EventMode
	default:
		m.eventUpdate()
		m.state = types.StepMode
	}
	return types.StatusOK
}

func (m *Model) terminate() types.Status {
	m.state = types.Terminated
	return types.StatusOK
}

// eventUpdate 处理事件并更新事件信息
func (m *Model) eventUpdate() {
	m.calculate()
	m.valuesChanged = false
	m.nominalsChanged = false
	if m.def.EventUpdate != nil {
		m.def.EventUpdate(m)
	}
	m.inputEvent = false
}

func (m *Model) eventInfo() types.EventInfo {
	return types.EventInfo{
		TerminateSimulation:               m.terminateSimulation,
		NominalsOfContinuousStatesChanged: m.nominalsChanged,
		ValuesOfContinuousStatesChanged:   m.valuesChanged,
		NextEventTimeDefined:              m.nextEventTimeDefined,
		NextEventTime:                     m.nextEventTime,
	}
}

// ---------------------------------------------------------------------------
// 模型交换
// ---------------------------------------------------------------------------

func (m *Model) getContinuousStates(x []float64) types.Status {
	if len(x) != len(m.def.States) {
		m.logError("连续状态个数 %d 错误，应为 %d", len(x), len(m.def.States))
		return types.StatusError
	}
	for i, vr := range m.def.States {
		x[i] = m.Float64(vr)
	}
	return types.StatusOK
}

func (m *Model) setContinuousStates(x []float64) types.Status {
	if len(x) != len(m.def.States) {
		m.logError("连续状态个数 %d 错误，应为 %d", len(x), len(m.def.States))
		return types.StatusError
	}
	for i, vr := range m.def.States {
		m.SetFloat64(vr, x[i])
	}
	return types.StatusOK
}

func (m *Model) getNominals(nominals []float64) types.Status {
	for i := range nominals {
		nominals[i] = 1
	}
	return types.StatusOK
}

func (m *Model) getDerivatives(dx []float64) types.Status {
	if len(dx) != len(m.def.derivatives) {
		m.logError("导数个数 %d 错误，应为 %d", len(dx), len(m.def.derivatives))
		return types.StatusError
	}
	m.calculate()
	for i, vr := range m.def.derivatives {
		dx[i] = m.Float64(vr)
	}
	return types.StatusOK
}

func (m *Model) eventIndicators(z []float64) types.Status {
	if len(z) != m.def.NZ {
		m.logError("事件指示器个数 %d 错误，应为 %d", len(z), m.def.NZ)
		return types.StatusError
	}
	if m.def.EventIndicators != nil && len(z) > 0 {
		m.calculate()
		m.def.EventIndicators(m, z)
	}
	return types.StatusOK
}

// ---------------------------------------------------------------------------
// 联合仿真
// ---------------------------------------------------------------------------

// doStep 以固定内部步长推进到下一通信点
func (m *Model) doStep(currentCommunicationPoint, communicationStepSize float64) (types.StepResult, types.Status) {
	var result types.StepResult
	if m.state != types.StepMode {
		m.logError("DoStep: 调用顺序错误")
		return result, types.StatusError
	}
	if !types.IsClose(currentCommunicationPoint, m.nextCommunicationPoint) {
		m.logError("通信点应为 %.16g，实际为 %.16g", m.nextCommunicationPoint, currentCommunicationPoint)
		m.state = types.Terminated
		return result, types.StatusError
	}
	if communicationStepSize <= 0 {
		m.logError("通信步长必须大于 0，实际为 %.16g", communicationStepSize)
		return result, types.StatusError
	}
	next := currentCommunicationPoint + communicationStepSize
	if m.stopTimeDefined && next > m.stopTime && !types.IsClose(next, m.stopTime) {
		m.logError("通信点 %.16g 请求步长 %.16g 超过停止时间 %.16g",
			currentCommunicationPoint, communicationStepSize, m.stopTime)
		return result, types.StatusError
	}
	if m.inputEvent {
		m.eventUpdate()
	}
	reached := false
	for {
		nextSolverStepTime := m.time + m.def.StepSize
		reached = nextSolverStepTime > next && !types.IsClose(nextSolverStepTime, next)
		if reached || (result.EventHandlingNeeded && m.earlyReturnAllowed) {
			break
		}
		if result.EventHandlingNeeded {
			m.eventUpdate()
			result.EventHandlingNeeded = false
		}
		stateEvent, timeEvent := m.fixedStep()
		if stateEvent || timeEvent {
			if m.eventModeUsed {
				result.EventHandlingNeeded = true
			} else {
				m.eventUpdate()
				m.eventIndicators(m.prez)
			}
			if m.earlyReturnAllowed {
				break
			}
		}
		if m.terminateSimulation {
			break
		}
	}
	result.TerminateSimulation = m.terminateSimulation
	result.EarlyReturn = m.earlyReturnAllowed && !reached
	result.LastSuccessfulTime = m.time
	if reached {
		m.nextCommunicationPoint = next
	} else {
		m.nextCommunicationPoint = m.time
	}
	return result, types.StatusOK
}

// fixedStep 一个欧拉步，返回是否发生状态事件或时间事件
func (m *Model) fixedStep() (stateEvent, timeEvent bool) {
	if len(m.x) > 0 {
		m.getContinuousStates(m.x)
		m.getDerivatives(m.dx)
		for i := range m.x {
			m.x[i] += m.def.StepSize * m.dx[i]
		}
		m.setContinuousStates(m.x)
	}
	m.nSteps++
	m.setTime(m.startTime + float64(m.nSteps)*m.def.StepSize)
	if len(m.z) > 0 {
		m.eventIndicators(m.z)
		for i := range m.z {
			if (m.prez[i] <= 0 && m.z[i] > 0) || (m.prez[i] > 0 && m.z[i] <= 0) {
				stateEvent = true
			}
		}
		m.prez, m.z = m.z, m.prez
	}
	timeEvent = m.nextEventTimeDefined && (m.time >= m.nextEventTime || types.IsClose(m.time, m.nextEventTime))
	if m.intermediateUpdate != nil {
		m.intermediateUpdate(instance.IntermediateUpdateInfo{
			Time:               m.time,
			VariableGetAllowed: true,
			StepFinished:       true,
		})
	}
	return stateEvent, timeEvent
}

// ---------------------------------------------------------------------------
// 状态快照
// ---------------------------------------------------------------------------

// snapshot 可序列化的内部状态
type snapshot struct {
	State                  types.InstanceState
	Time                   float64
	StartTime              float64
	StopTime               float64
	StopTimeDefined        bool
	NextCommunicationPoint float64
	NSteps                 int
	NextEventTimeDefined   bool
	NextEventTime          float64
	TerminateSimulation    bool
	Values                 map[types.ValueReference]any
	Prez                   []float64
}

func (m *Model) getFMUState() (instance.FMUState, types.Status) {
	values := make(map[types.ValueReference]any, len(m.values))
	for vr, v := range m.values {
		values[vr] = cloneValue(v)
	}
	return &snapshot{
		State:                  m.state,
		Time:                   m.time,
		StartTime:              m.startTime,
		StopTime:               m.stopTime,
		StopTimeDefined:        m.stopTimeDefined,
		NextCommunicationPoint: m.nextCommunicationPoint,
		NSteps:                 m.nSteps,
		NextEventTimeDefined:   m.nextEventTimeDefined,
		NextEventTime:          m.nextEventTime,
		TerminateSimulation:    m.terminateSimulation,
		Values:                 values,
		Prez:                   slices.Clone(m.prez),
	}, types.StatusOK
}

func (m *Model) setFMUState(state instance.FMUState) types.Status {
	s, ok := state.(*snapshot)
	if !ok || s == nil {
		m.logError("无效的状态快照")
		return types.StatusError
	}
	m.state = s.State
	m.startTime = s.StartTime
	m.stopTime, m.stopTimeDefined = s.StopTime, s.StopTimeDefined
	m.nextCommunicationPoint = s.NextCommunicationPoint
	m.nSteps = s.NSteps
	m.nextEventTimeDefined, m.nextEventTime = s.NextEventTimeDefined, s.NextEventTime
	m.terminateSimulation = s.TerminateSimulation
	m.values = make(map[types.ValueReference]any, len(s.Values))
	for vr, v := range s.Values {
		m.values[vr] = cloneValue(v)
	}
	m.setTime(s.Time)
	if len(s.Prez) == len(m.prez) {
		copy(m.prez, s.Prez)
	}
	return types.StatusOK
}

func (m *Model) serializeFMUState(state instance.FMUState) ([]byte, types.Status) {
	s, ok := state.(*snapshot)
	if !ok || s == nil {
		m.logError("无效的状态快照")
		return nil, types.StatusError
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		m.logError("序列化状态快照失败: %v", err)
		return nil, types.StatusError
	}
	return buf.Bytes(), types.StatusOK
}

func (m *Model) deserializeFMUState(data []byte) (instance.FMUState, types.Status) {
	s := &snapshot{}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(s); err != nil {
		m.logError("反序列化状态快照失败: %v", err)
		return nil, types.StatusError
	}
	return s, types.StatusOK
}

// model 取出实例，句柄无效时返回 nil
func model(c instance.Component) *Model {
	m, _ := c.(*Model)
	return m
}

// cloneValue 深拷贝变量值
func cloneValue(v any) any {
	switch s := v.(type) {
	case []float32:
		return slices.Clone(s)
	case []float64:
		return slices.Clone(s)
	case []int8:
		return slices.Clone(s)
	case []uint8:
		return slices.Clone(s)
	case []int16:
		return slices.Clone(s)
	case []uint16:
		return slices.Clone(s)
	case []int32:
		return slices.Clone(s)
	case []uint32:
		return slices.Clone(s)
	case []int64:
		return slices.Clone(s)
	case []uint64:
		return slices.Clone(s)
	case []bool:
		return slices.Clone(s)
	case []string:
		return slices.Clone(s)
	case [][]byte:
		out := make([][]byte, len(s))
		for i := range s {
			out[i] = slices.Clone(s[i])
		}
		return out
	}
	return v
}
