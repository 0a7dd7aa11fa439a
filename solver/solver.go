package solver

import (
	"errors"
	"fmt"
	"log/slog"

	"fmusim/types"
)

var (
	ErrNoModel       = errors.New("solver: 模型为空")
	ErrDimension     = errors.New("solver: 状态或事件指示器个数无效")
	ErrStepTooSmall  = errors.New("solver: 步长低于下限")
	ErrNotConverged  = errors.New("solver: 牛顿迭代不收敛")
	ErrUnknownSolver = errors.New("solver: 未知求解器")
)

// Model 求解器看到的模型
// 仅连续时间模式下的调用，*instance.Instance 直接满足
type Model interface {
	SetTime(time float64) types.Status
	GetContinuousStates(x []float64) types.Status
	SetContinuousStates(x []float64) types.Status
	GetNominalsOfContinuousStates(nominals []float64) types.Status
	GetContinuousStateDerivatives(dx []float64) types.Status
	GetEventIndicators(z []float64) types.Status
}

// Parameters 求解器创建参数
type Parameters struct {
	Model     Model                           // 模型
	Input     func(time float64) types.Status // 在中间时刻重新施加连续输入，可为空
	StartTime float64                         // 起始时间
	Tolerance float64                         // 相对容差，<=0 时取默认值
	NX        int                             // 连续状态个数
	NZ        int                             // 事件指示器个数
	Logger    *slog.Logger                    // 诊断输出，可为空
}

// Solver 连续状态积分器
type Solver interface {
	// Step 从当前时间积分到 nextTime，发现状态事件时提前返回
	Step(nextTime float64) (timeReached float64, stateEvent bool, status types.Status)
	// Reset 事件处理后从模型重新读取状态与事件指示器
	Reset(time float64) types.Status
	// Free 释放资源
	Free()
}

// Create 求解器构造函数
type Create func(p Parameters) (Solver, error)

// ByName 按名称选择求解器
func ByName(name string) (Create, error) {
	switch name {
	case "", "euler":
		return NewEuler, nil
	case "bdf", "cvode":
		return NewBDF, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSolver, name)
}

func (p *Parameters) validate() error {
	if p.Model == nil {
		return ErrNoModel
	}
	if p.NX < 0 || p.NZ < 0 {
		return ErrDimension
	}
	if p.Tolerance <= 0 {
		p.Tolerance = types.DefaultRelTolerance
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	return nil
}

func (p *Parameters) setTime(time float64) types.Status {
	status := p.Model.SetTime(time)
	if status > types.StatusWarning || p.Input == nil {
		return status
	}
	return types.MaxStatus(status, p.Input(time))
}

// crossed 事件指示器跨越零点
func crossed(pre, z float64) bool {
	return (pre <= 0 && z > 0) || (pre > 0 && z <= 0)
}

// statusError 模型调用失败
func statusError(call string, status types.Status) error {
	return fmt.Errorf("solver: %s 返回 %v", call, status)
}
