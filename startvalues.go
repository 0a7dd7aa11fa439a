package fmusim

import (
	"fmusim/instance"
	"fmusim/types"
)

// ApplyStartValues 写入起始值覆盖
// UInt64 结构参数在同一个配置模式区间内设置，之后设置其余变量
func ApplyStartValues(inst *instance.Instance, values []StartValue) types.Status {
	status := types.StatusOK
	configurationMode := false
	for _, sv := range values {
		v := sv.Variable
		if v.Causality != types.CausalityStructuralParameter || v.Type != types.TypeUInt64 {
			continue
		}
		parsed, err := types.ParseValues(types.FMIMajorVersion3, v.Type, sv.Literal)
		if err != nil {
			inst.LogError("变量 %s 的起始值 %q 无效: %v", v.Name, sv.Literal, err)
			return types.StatusError
		}
		if !configurationMode {
			if status = types.MaxStatus(status, inst.EnterConfigurationMode()); status > types.StatusWarning {
				return status
			}
			configurationMode = true
		}
		if status = types.MaxStatus(status, inst.SetValues(v.Type, []types.ValueReference{v.ValueReference}, parsed)); status > types.StatusWarning {
			return status
		}
	}
	if configurationMode {
		if status = types.MaxStatus(status, inst.ExitConfigurationMode()); status > types.StatusWarning {
			return status
		}
	}

	for _, sv := range values {
		v := sv.Variable
		if v.Causality == types.CausalityStructuralParameter {
			continue
		}
		if v.IsTime() {
			inst.LogError("变量 %s 为独立变量，不能设置起始值", v.Name)
			return types.StatusError
		}
		parsed, err := types.ParseValues(inst.Version(), v.Type, sv.Literal)
		if err != nil {
			inst.LogError("变量 %s 的起始值 %q 无效: %v", v.Name, sv.Literal, err)
			return types.StatusError
		}
		if status = types.MaxStatus(status, inst.SetValues(v.Type, []types.ValueReference{v.ValueReference}, parsed)); status > types.StatusWarning {
			return status
		}
	}
	return status
}
