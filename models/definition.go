package models

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"fmusim/instance"
	"fmusim/types"
)

var ErrUnknownModel = errors.New("models: 未知模型")

// Definition 参考模型定义
type Definition struct {
	Name        string                 // 模型名称，同时作为模型标识
	Token       string                 // 实例化令牌
	Description string                 // 描述
	StepSize    float64                // 联合仿真内部固定步长
	StopTime    float64                // 默认停止时间
	Variables   []*types.ModelVariable // 变量，Start 为起始值字面量
	States      []types.ValueReference // 连续状态
	NZ          int                    // 事件指示器个数

	Start           func(m *Model)              // 起始值之外的初始化
	Calculate       func(m *Model)              // 由输入与状态计算输出和导数
	EventIndicators func(m *Model, z []float64) // 事件指示器
	EventUpdate     func(m *Model)              // 离散状态更新
	Configure       func(m *Model)              // 退出配置模式后按结构参数调整数组

	variables   map[types.ValueReference]*types.ModelVariable
	derivatives []types.ValueReference
	timeVR      types.ValueReference
	hasTime     bool
}

// registry 已注册模型
var registry = map[string]*Definition{}

// Register 注册参考模型
func Register(d *Definition) *Definition {
	if _, ok := registry[d.Name]; ok {
		panic(fmt.Errorf("模型重复注册: %s", d.Name))
	}
	d.variables = make(map[types.ValueReference]*types.ModelVariable, len(d.Variables))
	for _, v := range d.Variables {
		if _, ok := d.variables[v.ValueReference]; ok {
			panic(fmt.Errorf("%s: 变量引用重复 %d", d.Name, v.ValueReference))
		}
		d.variables[v.ValueReference] = v
		if v.IsTime() {
			d.timeVR, d.hasTime = v.ValueReference, true
		}
		if v.Start != "" {
			if _, err := types.ParseValues(types.FMIMajorVersion3, v.Type, v.Start); err != nil {
				panic(fmt.Errorf("%s: 变量 %s 起始值无效: %w", d.Name, v.Name, err))
			}
		}
	}
	for _, s := range d.States {
		found := false
		for _, v := range d.Variables {
			if v.Derivative != nil && v.Derivative.ValueReference == s {
				d.derivatives = append(d.derivatives, v.ValueReference)
				found = true
				break
			}
		}
		if !found {
			panic(fmt.Errorf("%s: 状态 %d 没有导数", d.Name, s))
		}
	}
	registry[d.Name] = d
	return d
}

// Lookup 按名称查找模型
func Lookup(name string) (*Definition, error) {
	if d, ok := registry[name]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
}

// Names 已注册模型名称
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Variable 按引用查找变量
func (d *Definition) Variable(vr types.ValueReference) *types.ModelVariable { return d.variables[vr] }

func (d *Definition) isState(vr types.ValueReference) bool { return slices.Contains(d.States, vr) }

// Binding 指定主版本的入口表
func (d *Definition) Binding(version types.MajorVersion) (instance.Binding, error) {
	switch version {
	case types.FMIMajorVersion1:
		return &fmi1Binding{binding{d}}, nil
	case types.FMIMajorVersion2:
		return &fmi2Binding{binding{d}}, nil
	case types.FMIMajorVersion3:
		return &fmi3Binding{binding{d}}, nil
	}
	return nil, fmt.Errorf("%s: 不支持的版本 %v", d.Name, version)
}

// ModelDescription 指定主版本的模型描述
// 1.0 和 2.0 只包含标量的 Real/Integer/Boolean/String 变量
func (d *Definition) ModelDescription(version types.MajorVersion) *types.ModelDescription {
	fmuState := version > types.FMIMajorVersion1
	md := &types.ModelDescription{
		FMIVersion:         fmt.Sprintf("%d.0", int(version)),
		MajorVersion:       version,
		ModelName:          d.Name,
		Description:        d.Description,
		InstantiationToken: d.Token,
		GenerationTool:     "fmusim",
		CoSimulation: &types.CoSimulationInterface{
			ModelIdentifier:                        d.Name,
			CanHandleVariableCommunicationStepSize: true,
			CanGetAndSetFMUState:                   fmuState,
			CanSerializeFMUState:                   fmuState,
			HasEventMode:                           version == types.FMIMajorVersion3,
			ProvidesIntermediateUpdate:             version == types.FMIMajorVersion3,
			FixedInternalStepSize:                  d.StepSize,
		},
		ModelExchange: &types.ModelExchangeInterface{
			ModelIdentifier:      d.Name,
			CanGetAndSetFMUState: fmuState,
			CanSerializeFMUState: fmuState,
		},
		DefaultExperiment: &types.DefaultExperiment{
			StopTime: d.StopTime,
			StepSize: d.StepSize,
		},
	}
	for _, v := range d.Variables {
		if version < types.FMIMajorVersion3 && !legacyType(v) {
			continue
		}
		md.ModelVariables = append(md.ModelVariables, v)
		if v.Causality == types.CausalityOutput {
			md.Outputs = append(md.Outputs, v)
		}
		if v.Derivative != nil {
			md.ContinuousStateDerivatives = append(md.ContinuousStateDerivatives, v)
		}
	}
	for i := range d.NZ {
		md.EventIndicators = append(md.EventIndicators, &types.ModelVariable{Name: fmt.Sprintf("z[%d]", i+1)})
	}
	return md
}

// legacyType 1.0/2.0 能表达的变量
func legacyType(v *types.ModelVariable) bool {
	if v.IsArray() || v.Causality == types.CausalityStructuralParameter {
		return false
	}
	switch v.Type {
	case types.TypeFloat64, types.TypeInt32, types.TypeBoolean, types.TypeString:
		return true
	}
	return false
}

// timeVariable 独立时间变量
func timeVariable() *types.ModelVariable {
	return &types.ModelVariable{
		Name:           "time",
		ValueReference: 0,
		Type:           types.TypeFloat64,
		Causality:      types.CausalityIndependent,
		Variability:    types.VariabilityContinuous,
		Description:    "Simulation time",
	}
}
