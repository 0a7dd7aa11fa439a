package types

// CoSimulationInterface 联合仿真接口描述
type CoSimulationInterface struct {
	ModelIdentifier                        string
	CanHandleVariableCommunicationStepSize bool
	CanGetAndSetFMUState                   bool
	CanSerializeFMUState                   bool
	HasEventMode                           bool
	ProvidesIntermediateUpdate             bool
	FixedInternalStepSize                  float64
}

// ModelExchangeInterface 模型交换接口描述
type ModelExchangeInterface struct {
	ModelIdentifier              string
	NeedsCompletedIntegratorStep bool
	CanGetAndSetFMUState         bool
	CanSerializeFMUState         bool
}

// DefaultExperiment 默认实验设置
type DefaultExperiment struct {
	StartTime float64
	StopTime  float64
	Tolerance float64
	StepSize  float64
}

// ModelDescription 模型描述
type ModelDescription struct {
	FMIVersion         string
	MajorVersion       MajorVersion
	ModelName          string
	Description        string
	InstantiationToken string // FMI1/FMI2 中为 GUID
	GenerationTool     string

	CoSimulation      *CoSimulationInterface
	ModelExchange     *ModelExchangeInterface
	DefaultExperiment *DefaultExperiment

	ModelVariables             []*ModelVariable
	Outputs                    []*ModelVariable
	ContinuousStateDerivatives []*ModelVariable
	InitialUnknowns            []*ModelVariable
	EventIndicators            []*ModelVariable
}

// Variable 按名称查找变量
func (md *ModelDescription) Variable(name string) *ModelVariable {
	for _, v := range md.ModelVariables {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// NumberOfContinuousStates 连续状态数量
func (md *ModelDescription) NumberOfContinuousStates() int {
	return len(md.ContinuousStateDerivatives)
}

// NumberOfEventIndicators 事件指示器数量
func (md *ModelDescription) NumberOfEventIndicators() int {
	return len(md.EventIndicators)
}

// Supports 是否提供指定接口
func (md *ModelDescription) Supports(t InterfaceType) bool {
	if t == CoSimulation {
		return md.CoSimulation != nil
	}
	return md.ModelExchange != nil
}

// Inputs 全部输入变量
func (md *ModelDescription) Inputs() []*ModelVariable {
	var list []*ModelVariable
	for _, v := range md.ModelVariables {
		if v.Causality == CausalityInput {
			list = append(list, v)
		}
	}
	return list
}
