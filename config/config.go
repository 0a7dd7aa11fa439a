// Package config 读取实验配置文件
// 支持 HCL 与 TOML 两种格式，解析结果统一为 Experiment
package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"fmusim"
	"fmusim/ctxlog"
	"fmusim/solver"
	"fmusim/types"
)

// 配置错误
var (
	ErrUnsupportedFormat = errors.New("config: 不支持的配置格式")
	ErrMissingModel      = errors.New("config: 缺少模型名称")
	ErrUnknownVariable   = errors.New("config: 未知变量")
	ErrInterfaceType     = errors.New("config: 无效的接口类型")
	ErrVersion           = errors.New("config: 无效的 FMI 版本")
)

// Loader 某种格式的配置读取器
type Loader interface {
	Load(ctx context.Context, path string) (*Experiment, error)
}

// Experiment 一次仿真实验
// 时间为空时取模型描述的默认实验
type Experiment struct {
	Model                    string   `hcl:"model" toml:"model"`
	FMIVersion               int      `hcl:"fmi_version,optional" toml:"fmi_version"`
	Interface                string   `hcl:"interface,optional" toml:"interface"`
	StartTime                *float64 `hcl:"start_time,optional" toml:"start_time"`
	StopTime                 *float64 `hcl:"stop_time,optional" toml:"stop_time"`
	StopTimeDefined          bool     `hcl:"stop_time_defined,optional" toml:"stop_time_defined"`
	OutputInterval           float64  `hcl:"output_interval,optional" toml:"output_interval"`
	Tolerance                *float64 `hcl:"tolerance,optional" toml:"tolerance"`
	Solver                   string   `hcl:"solver,optional" toml:"solver"`
	Epsilon                  float64  `hcl:"epsilon,optional" toml:"epsilon"`
	LoggingOn                bool     `hcl:"logging_on,optional" toml:"logging_on"`
	EventModeUsed            bool     `hcl:"event_mode_used,optional" toml:"event_mode_used"`
	EarlyReturnAllowed       bool     `hcl:"early_return_allowed,optional" toml:"early_return_allowed"`
	RecordIntermediateValues bool     `hcl:"record_intermediate_values,optional" toml:"record_intermediate_values"`
	InitialFMUState          string   `hcl:"initial_fmu_state,optional" toml:"initial_fmu_state"`
	FinalFMUState            string   `hcl:"final_fmu_state,optional" toml:"final_fmu_state"`
	Input                    string   `hcl:"input,optional" toml:"input"`
	Output                   string   `hcl:"output,optional" toml:"output"`
	Record                   []string `hcl:"record,optional" toml:"record"`

	StartValues map[string]string `toml:"-"` // 变量名 -> 起始值字面量
}

// Load 按扩展名选择读取器
func Load(ctx context.Context, path string) (*Experiment, error) {
	var l Loader
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".hcl":
		l = NewHCLLoader()
	case ".toml":
		l = NewTOMLLoader()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	exp, err := l.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := exp.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ctxlog.FromContext(ctx).Debug("读取实验配置", "path", path, "model", exp.Model, "start_values", len(exp.StartValues))
	return exp, nil
}

// Validate 检查必填项并补全版本
func (e *Experiment) Validate() error {
	if e.Model == "" {
		return ErrMissingModel
	}
	if e.FMIVersion == 0 {
		e.FMIVersion = int(types.FMIMajorVersion3)
	}
	if e.FMIVersion < 1 || e.FMIVersion > 3 {
		return fmt.Errorf("%w: %d", ErrVersion, e.FMIVersion)
	}
	if _, err := e.interfaceType(nil); err != nil {
		return err
	}
	if e.Epsilon < 0 {
		return fmt.Errorf("config: epsilon 不能为负数: %g", e.Epsilon)
	}
	return nil
}

// Version 主版本
func (e *Experiment) Version() types.MajorVersion { return types.MajorVersion(e.FMIVersion) }

// ApplyEpsilon 覆盖时间比较容差，在所有运行开始前调用一次
func (e *Experiment) ApplyEpsilon() {
	if e.Epsilon > 0 {
		types.Epsilon = e.Epsilon
	}
}

// interfaceType 解析接口类型，未指定时优先联合仿真
func (e *Experiment) interfaceType(md *types.ModelDescription) (types.InterfaceType, error) {
	switch strings.ToLower(e.Interface) {
	case "cs", "cosimulation", "co-simulation":
		return types.CoSimulation, nil
	case "me", "modelexchange", "model-exchange":
		return types.ModelExchange, nil
	case "":
		if md != nil && md.CoSimulation == nil {
			return types.ModelExchange, nil
		}
		return types.CoSimulation, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInterfaceType, e.Interface)
}

// Settings 按模型描述解析为仿真设置
func (e *Experiment) Settings(md *types.ModelDescription) (fmusim.Settings, error) {
	interfaceType, err := e.interfaceType(md)
	if err != nil {
		return fmusim.Settings{}, err
	}
	s := fmusim.Settings{
		InterfaceType:            interfaceType,
		LoggingOn:                e.LoggingOn,
		StopTime:                 types.DefaultStopTime,
		StopTimeDefined:          e.StopTimeDefined,
		OutputInterval:           e.OutputInterval,
		EarlyReturnAllowed:       e.EarlyReturnAllowed,
		EventModeUsed:            e.EventModeUsed,
		RecordIntermediateValues: e.RecordIntermediateValues,
		InitialFMUStateFile:      e.InitialFMUState,
		FinalFMUStateFile:        e.FinalFMUState,
	}
	if de := md.DefaultExperiment; de != nil {
		s.StartTime = de.StartTime
		if de.StopTime > de.StartTime {
			s.StopTime = de.StopTime
		}
		s.Tolerance = de.Tolerance
	}
	if e.StartTime != nil {
		s.StartTime = *e.StartTime
	}
	if e.StopTime != nil {
		s.StopTime = *e.StopTime
	}
	if e.Tolerance != nil {
		s.Tolerance = *e.Tolerance
	}
	if e.Solver != "" {
		if s.Solver, err = solver.ByName(e.Solver); err != nil {
			return fmusim.Settings{}, err
		}
	}

	names := make([]string, 0, len(e.StartValues))
	for name := range e.StartValues {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v := md.Variable(name)
		if v == nil {
			return fmusim.Settings{}, fmt.Errorf("%w: %s", ErrUnknownVariable, name)
		}
		s.StartValues = append(s.StartValues, fmusim.StartValue{Variable: v, Literal: e.StartValues[name]})
	}
	return s, nil
}

// Recorded 记录的变量，未指定时记录全部输出
func (e *Experiment) Recorded(md *types.ModelDescription) ([]*types.ModelVariable, error) {
	if len(e.Record) == 0 {
		return md.Outputs, nil
	}
	variables := make([]*types.ModelVariable, 0, len(e.Record))
	for _, name := range e.Record {
		v := md.Variable(name)
		if v == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownVariable, name)
		}
		variables = append(variables, v)
	}
	return variables, nil
}
