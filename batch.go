package fmusim

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"fmusim/ctxlog"
	"fmusim/input"
	"fmusim/instance"
	"fmusim/recorder"
	"fmusim/types"
)

// ErrSimulation 仿真返回 Error 或更严重的状态
var ErrSimulation = errors.New("fmusim: 仿真失败")

// Run 批量运行中的一次独立仿真
type Run struct {
	Name        string                  // 实例名称，为空时生成 UUID
	Binding     instance.Binding        // 入口表
	Description *types.ModelDescription // 模型描述
	UnzipDir    string                  // 解压目录
	Recorder    *recorder.Recorder      // 记录器
	Input       *input.Input            // 输入，可为空
	Settings    Settings                // 设置
	TraceCalls  bool                    // 记录每次原生调用

	Status types.Status // 运行结果
}

// RunBatch 并发运行多次仿真，每次运行独占实例、求解器、输入和记录器
// workers <= 0 时不限制并发数，ctx 取消后各运行在当前步结束时停止
func RunBatch(ctx context.Context, runs []*Run, workers int) error {
	logger := ctxlog.FromContext(ctx)
	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	for _, r := range runs {
		if r.Name == "" {
			r.Name = uuid.NewString()
		}
		g.Go(func() error {
			log := logger.With("run", r.Name)
			logMessage, logFunctionCall := instance.SlogCallbacks(log)
			if !r.TraceCalls {
				logFunctionCall = nil
			}
			inst := instance.New(r.Name, logMessage, logFunctionCall)
			if err := inst.Load(r.Binding); err != nil {
				r.Status = types.StatusError
				return fmt.Errorf("%s: %w", r.Name, err)
			}
			s := r.Settings
			stepFinished := s.StepFinished
			s.StepFinished = func(time float64) bool {
				if ctx.Err() != nil {
					return false
				}
				return stepFinished == nil || stepFinished(time)
			}
			if s.Logger == nil {
				s.Logger = log
			}
			r.Status = Simulate(inst, r.Description, r.UnzipDir, r.Recorder, r.Input, s)
			log.Debug("仿真结束", "status", r.Status.String())
			if r.Status > types.StatusWarning {
				return fmt.Errorf("%w: %s 返回 %v", ErrSimulation, r.Name, r.Status)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
