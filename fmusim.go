// Package fmusim 驱动 FMU 实例完成一次仿真
package fmusim

import (
	"log/slog"
	"math"
	"net/url"
	"os"
	"path/filepath"

	"fmusim/input"
	"fmusim/instance"
	"fmusim/recorder"
	"fmusim/solver"
	"fmusim/types"
)

// StartValue 起始值覆盖
type StartValue struct {
	Variable *types.ModelVariable // 变量
	Literal  string               // 字面量，多个元素以空白分隔
}

// Settings 仿真设置
type Settings struct {
	InterfaceType            types.InterfaceType     // 接口类型
	Visible                  bool                    // 可见
	LoggingOn                bool                    // 开启模型调试日志
	Tolerance                float64                 // 相对容差，<=0 时不启用容差控制
	StartTime                float64                 // 开始时间
	StopTime                 float64                 // 停止时间
	StopTimeDefined          bool                    // 把停止时间告知模型
	OutputInterval           float64                 // 输出间隔
	EarlyReturnAllowed       bool                    // 允许提前返回
	EventModeUsed            bool                    // 联合仿真使用事件模式
	RecordIntermediateValues bool                    // 记录中间值
	InitialFMUStateFile      string                  // 初始状态文件，设置后跳过初始化
	FinalFMUStateFile        string                  // 结束时保存状态
	StartValues              []StartValue            // 起始值覆盖
	Solver                   solver.Create           // 模型交换求解器，为空时使用 BDF
	StepFinished             func(time float64) bool // 每步结束回调，返回 false 提前结束
	Logger                   *slog.Logger            // 求解器日志
}

// Simulate 运行一次完整仿真
// 诊断信息通过实例的日志回调输出，返回遇到的最严重状态
func Simulate(inst *instance.Instance, md *types.ModelDescription, unzipdir string, rec *recorder.Recorder, in *input.Input, s Settings) types.Status {
	if !validate(inst, md, &s) {
		return types.StatusError
	}
	location := resourceLocation(md.MajorVersion, unzipdir)
	if s.InterfaceType == types.CoSimulation {
		return simulateCS(inst, md, location, rec, in, &s)
	}
	return simulateME(inst, md, location, rec, in, &s)
}

// validate 检查设置并补全缺省值
func validate(inst *instance.Instance, md *types.ModelDescription, s *Settings) bool {
	if md == nil {
		inst.LogError("缺少模型描述")
		return false
	}
	if inst.Version() != md.MajorVersion {
		inst.LogError("实例版本 %v 与模型描述版本 %v 不一致", inst.Version(), md.MajorVersion)
		return false
	}
	if !md.Supports(s.InterfaceType) {
		inst.LogError("模型不支持 %v", s.InterfaceType)
		return false
	}
	if s.OutputInterval <= 0 {
		s.OutputInterval = types.DefaultTimeStep
		if md.DefaultExperiment != nil && md.DefaultExperiment.StepSize > 0 {
			s.OutputInterval = md.DefaultExperiment.StepSize
		}
	}
	if math.IsNaN(s.StartTime) || math.IsInf(s.StartTime, 0) || math.IsNaN(s.StopTime) || math.IsInf(s.StopTime, 0) {
		inst.LogError("开始时间 %g 或停止时间 %g 无效", s.StartTime, s.StopTime)
		return false
	}
	if s.StopTime < s.StartTime {
		inst.LogError("停止时间 %g 早于开始时间 %g", s.StopTime, s.StartTime)
		return false
	}
	if s.Solver == nil {
		s.Solver = solver.NewBDF
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	for _, sv := range s.StartValues {
		if sv.Variable == nil {
			inst.LogError("起始值缺少变量")
			return false
		}
	}
	return true
}

// resourceLocation 按版本构造资源位置
// 1.0 为解压目录的 file URI，2.0 为 resources 目录的 file URI，3.0 为 resources 目录路径
func resourceLocation(version types.MajorVersion, unzipdir string) string {
	if unzipdir == "" {
		return ""
	}
	dir, err := filepath.Abs(unzipdir)
	if err != nil {
		dir = unzipdir
	}
	switch version {
	case types.FMIMajorVersion1:
		return fileURI(dir, false)
	case types.FMIMajorVersion2:
		return fileURI(filepath.Join(dir, "resources"), true)
	}
	return filepath.Join(dir, "resources") + string(os.PathSeparator)
}

func fileURI(path string, slash bool) string {
	p := filepath.ToSlash(path)
	if p[0] != '/' {
		p = "/" + p
	}
	if slash {
		p += "/"
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

// stopReached 时间到达停止时间，按 IsClose 判断
func stopReached(time, stopTime float64) bool {
	return time > stopTime || types.IsClose(time, stopTime)
}

// updateDiscreteStates 离散状态迭代到收敛
// 返回最后一次事件信息，changed 为迭代中是否有状态值或标称值变化
func updateDiscreteStates(inst *instance.Instance) (info types.EventInfo, changed bool, status types.Status) {
	for {
		ev, s := inst.UpdateDiscreteStates()
		status = types.MaxStatus(status, s)
		if s > types.StatusWarning {
			return ev, changed, s
		}
		changed = changed || ev.NominalsOfContinuousStatesChanged || ev.ValuesOfContinuousStatesChanged
		if ev.TerminateSimulation || !ev.DiscreteStatesNeedUpdate {
			return ev, changed, status
		}
	}
}
