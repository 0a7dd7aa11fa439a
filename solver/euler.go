package solver

import "fmusim/types"

// Euler 显式欧拉法
// 每步一次导数求值，步长即通信间隔
type Euler struct {
	model Model
	time  float64
	x     []float64 // 状态
	dx    []float64 // 导数
	z     []float64 // 事件指示器
	prez  []float64 // 上一步事件指示器
}

// NewEuler 创建欧拉求解器
func NewEuler(p Parameters) (Solver, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	e := &Euler{
		model: p.Model,
		time:  p.StartTime,
		x:     make([]float64, p.NX),
		dx:    make([]float64, p.NX),
		z:     make([]float64, p.NZ),
		prez:  make([]float64, p.NZ),
	}
	if status := e.model.GetEventIndicators(e.prez); status > types.StatusWarning {
		return nil, statusError("GetEventIndicators", status)
	}
	return e, nil
}

// Step 前进到 nextTime
func (e *Euler) Step(nextTime float64) (float64, bool, types.Status) {
	status := types.StatusOK
	call := func(s types.Status) bool {
		status = types.MaxStatus(status, s)
		return status > types.StatusWarning
	}
	if call(e.model.GetContinuousStates(e.x)) || call(e.model.GetContinuousStateDerivatives(e.dx)) {
		return e.time, false, status
	}
	dt := nextTime - e.time
	for i := range e.x {
		e.x[i] += dt * e.dx[i]
	}
	if call(e.model.SetContinuousStates(e.x)) || call(e.model.GetEventIndicators(e.z)) {
		return e.time, false, status
	}
	stateEvent := false
	for i := range e.z {
		if crossed(e.prez[i], e.z[i]) {
			stateEvent = true
		}
		e.prez[i] = e.z[i]
	}
	e.time = nextTime
	return nextTime, stateEvent, status
}

// Reset 重新读取事件指示器
func (e *Euler) Reset(time float64) types.Status {
	e.time = time
	return e.model.GetEventIndicators(e.prez)
}

// Free 释放
func (e *Euler) Free() {
	e.x, e.dx, e.z, e.prez = nil, nil, nil, nil
}
