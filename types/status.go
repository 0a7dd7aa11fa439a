package types

import "fmt"

// Status 接口调用状态，按严重程度升序排列
type Status int

// 状态定义
const (
	StatusOK      Status = iota // 成功
	StatusWarning               // 警告
	StatusDiscard               // 丢弃本步
	StatusError                 // 错误
	StatusFatal                 // 致命错误
	StatusPending               // 异步挂起
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWarning:
		return "Warning"
	case StatusDiscard:
		return "Discard"
	case StatusError:
		return "Error"
	case StatusFatal:
		return "Fatal"
	case StatusPending:
		return "Pending"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// MaxStatus 返回严重程度更高的状态
func MaxStatus(a, b Status) Status {
	if b > a {
		return b
	}
	return a
}

// MajorVersion 标准主版本
type MajorVersion int

// 版本定义
const (
	FMIMajorVersion1 MajorVersion = 1
	FMIMajorVersion2 MajorVersion = 2
	FMIMajorVersion3 MajorVersion = 3
)

func (v MajorVersion) String() string { return fmt.Sprintf("FMI%d", int(v)) }

// InterfaceType 接口类型
type InterfaceType int

// 接口定义
const (
	ModelExchange InterfaceType = iota // 模型交换
	CoSimulation                       // 联合仿真
)

func (t InterfaceType) String() string {
	if t == CoSimulation {
		return "CoSimulation"
	}
	return "ModelExchange"
}

// InstanceState 实例生命周期状态
type InstanceState int

// 状态定义
const (
	StartAndEnd         InstanceState = iota // 未创建或已释放
	Instantiated                             // 已创建
	ConfigurationMode                        // 配置模式
	ReconfigurationMode                      // 重新配置模式
	InitializationMode                       // 初始化模式
	EventMode                                // 事件模式
	ContinuousTimeMode                       // 连续时间模式
	StepMode                                 // 步进模式
	Terminated                               // 已终止
)

var instanceStateNames = [...]string{
	"StartAndEnd", "Instantiated", "ConfigurationMode", "ReconfigurationMode",
	"InitializationMode", "EventMode", "ContinuousTimeMode", "StepMode", "Terminated",
}

func (s InstanceState) String() string {
	if int(s) < len(instanceStateNames) {
		return instanceStateNames[s]
	}
	return fmt.Sprintf("InstanceState(%d)", int(s))
}

// EventInfo 离散状态更新结果，三个版本共用
type EventInfo struct {
	DiscreteStatesNeedUpdate          bool    // 需要再次迭代
	TerminateSimulation               bool    // 请求结束仿真
	NominalsOfContinuousStatesChanged bool    // 状态标称值变化
	ValuesOfContinuousStatesChanged   bool    // 状态值变化
	NextEventTimeDefined              bool    // 存在下一个时间事件
	NextEventTime                     float64 // 下一个时间事件
}

// StepResult 联合仿真单步结果
type StepResult struct {
	EventHandlingNeeded bool    // 需要处理事件
	TerminateSimulation bool    // 请求结束仿真
	EarlyReturn         bool    // 提前返回
	LastSuccessfulTime  float64 // 最后成功时间
}
