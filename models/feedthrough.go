package models

import "fmusim/types"

// Feedthrough 变量引用
const (
	ftTime types.ValueReference = iota
	ftFloat32ContinuousInput
	ftFloat32ContinuousOutput
	ftFloat32DiscreteInput
	ftFloat32DiscreteOutput
	ftFloat64FixedParameter
	ftFloat64TunableParameter
	ftFloat64ContinuousInput
	ftFloat64ContinuousOutput
	ftFloat64DiscreteInput
	ftFloat64DiscreteOutput
	ftInt32Input
	ftInt32Output
	ftBooleanInput
	ftBooleanOutput
	ftStringParameter
	ftBinaryInput
	ftBinaryOutput
	ftN
	ftFloat64ArrayInput
	ftFloat64ArrayOutput
)

// Feedthrough 输出直接跟随输入，覆盖全部变量类型
var Feedthrough = Register(feedthrough())

func feedthrough() *Definition {
	n := &types.ModelVariable{Name: "n", ValueReference: ftN, Type: types.TypeUInt64, Causality: types.CausalityStructuralParameter, Variability: types.VariabilityFixed, Start: "3"}
	dims := []types.Dimension{{Variable: n}}
	variable := func(name string, vr types.ValueReference, t types.VariableType, c types.Causality, va types.Variability, start string) *types.ModelVariable {
		return &types.ModelVariable{Name: name, ValueReference: vr, Type: t, Causality: c, Variability: va, Start: start}
	}
	in, out := types.CausalityInput, types.CausalityOutput
	cont, disc := types.VariabilityContinuous, types.VariabilityDiscrete
	return &Definition{
		Name:        "Feedthrough",
		Token:       "{37B954F1-CC86-4D8F-B97F-C7C36F6670D2}",
		Description: "A model to test different variable types, causalities and variabilities",
		StepSize:    0.1,
		StopTime:    2,
		Variables: []*types.ModelVariable{
			timeVariable(),
			variable("Float32_continuous_input", ftFloat32ContinuousInput, types.TypeFloat32, in, cont, "0"),
			variable("Float32_continuous_output", ftFloat32ContinuousOutput, types.TypeFloat32, out, cont, ""),
			variable("Float32_discrete_input", ftFloat32DiscreteInput, types.TypeFloat32, in, disc, "0"),
			variable("Float32_discrete_output", ftFloat32DiscreteOutput, types.TypeFloat32, out, disc, ""),
			variable("Float64_fixed_parameter", ftFloat64FixedParameter, types.TypeFloat64, types.CausalityParameter, types.VariabilityFixed, "0"),
			variable("Float64_tunable_parameter", ftFloat64TunableParameter, types.TypeFloat64, types.CausalityParameter, types.VariabilityTunable, "0"),
			variable("Float64_continuous_input", ftFloat64ContinuousInput, types.TypeFloat64, in, cont, "0"),
			variable("Float64_continuous_output", ftFloat64ContinuousOutput, types.TypeFloat64, out, cont, ""),
			variable("Float64_discrete_input", ftFloat64DiscreteInput, types.TypeFloat64, in, disc, "0"),
			variable("Float64_discrete_output", ftFloat64DiscreteOutput, types.TypeFloat64, out, disc, ""),
			variable("Int32_input", ftInt32Input, types.TypeInt32, in, disc, "0"),
			variable("Int32_output", ftInt32Output, types.TypeInt32, out, disc, ""),
			variable("Boolean_input", ftBooleanInput, types.TypeBoolean, in, disc, "false"),
			variable("Boolean_output", ftBooleanOutput, types.TypeBoolean, out, disc, ""),
			variable("String_parameter", ftStringParameter, types.TypeString, types.CausalityParameter, types.VariabilityFixed, "Set me!"),
			variable("Binary_input", ftBinaryInput, types.TypeBinary, in, disc, "536574206d652c20746f6f21"),
			variable("Binary_output", ftBinaryOutput, types.TypeBinary, out, disc, ""),
			n,
			{Name: "Float64_array_input", ValueReference: ftFloat64ArrayInput, Type: types.TypeFloat64, Causality: in, Dimensions: dims},
			{Name: "Float64_array_output", ValueReference: ftFloat64ArrayOutput, Type: types.TypeFloat64, Causality: out, Dimensions: dims},
		},
		Calculate: func(m *Model) {
			m.copyValue(ftFloat32ContinuousOutput, ftFloat32ContinuousInput)
			m.copyValue(ftFloat64ContinuousOutput, ftFloat64ContinuousInput)
			m.copyValue(ftFloat64ArrayOutput, ftFloat64ArrayInput)
		},
		EventUpdate: func(m *Model) {
			m.copyValue(ftFloat32DiscreteOutput, ftFloat32DiscreteInput)
			m.copyValue(ftFloat64DiscreteOutput, ftFloat64DiscreteInput)
			m.copyValue(ftInt32Output, ftInt32Input)
			m.copyValue(ftBooleanOutput, ftBooleanInput)
			m.copyValue(ftBinaryOutput, ftBinaryInput)
		},
		Configure: func(m *Model) {
			size := int(m.UInt64(ftN))
			for _, vr := range []types.ValueReference{ftFloat64ArrayInput, ftFloat64ArrayOutput} {
				values := make([]float64, size)
				copy(values, m.values[vr].([]float64))
				m.values[vr] = values
			}
		},
	}
}
