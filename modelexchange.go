package fmusim

import (
	"math"

	"fmusim/input"
	"fmusim/instance"
	"fmusim/recorder"
	"fmusim/solver"
	"fmusim/types"
)

// simulateME 模型交换循环
// 求解器推进连续状态，输入事件、时间事件、状态事件和步事件触发离散状态迭代
func simulateME(inst *instance.Instance, md *types.ModelDescription, location string, rec *recorder.Recorder, in *input.Input, s *Settings) (status types.Status) {
	needsCompletedIntegratorStep := md.ModelExchange.NeedsCompletedIntegratorStep

	var slv solver.Solver
	call := func(st types.Status) bool {
		status = types.MaxStatus(status, st)
		return st > types.StatusWarning
	}
	defer func() {
		status = inst.Finish(status)
		if slv != nil {
			slv.Free()
		}
	}()

	p := instance.InstantiateParams{
		Token:            md.InstantiationToken,
		ResourceLocation: location,
		Visible:          s.Visible,
		LoggingOn:        s.LoggingOn,
	}
	if call(inst.InstantiateModelExchange(p)) {
		return
	}

	time := s.StartTime
	nextEventTime := math.Inf(1)

	if s.InitialFMUStateFile != "" && call(inst.RestoreFMUStateFromFile(s.InitialFMUStateFile)) {
		return
	}
	if call(ApplyStartValues(inst, s.StartValues)) {
		return
	}
	if s.InitialFMUStateFile == "" {
		if call(inst.EnterInitializationMode(s.Tolerance > 0, s.Tolerance, time, s.StopTimeDefined, s.StopTime)) {
			return
		}
		if call(in.Apply(inst, time, true, true, false)) {
			return
		}
		if call(inst.ExitInitializationMode()) {
			return
		}
		info, _, st := updateDiscreteStates(inst)
		if call(st) || info.TerminateSimulation {
			return
		}
		if info.NextEventTimeDefined {
			nextEventTime = info.NextEventTime
		}
		if call(inst.EnterContinuousTimeMode()) {
			return
		}
	}

	if call(rec.UpdateSizes(inst)) {
		return
	}

	nx, st := inst.NumberOfContinuousStates(md)
	if call(st) {
		return
	}
	nz, st := inst.NumberOfEventIndicators(md)
	if call(st) {
		return
	}
	slv, err := s.Solver(solver.Parameters{
		Model: inst,
		Input: func(t float64) types.Status {
			return in.Apply(inst, t, false, true, false)
		},
		StartTime: time,
		Tolerance: s.Tolerance,
		NX:        nx,
		NZ:        nz,
		Logger:    s.Logger.With("instance", inst.Name),
	})
	if err != nil {
		inst.LogError("创建求解器失败: %v", err)
		status = types.MaxStatus(status, types.StatusError)
		return
	}

	nSteps := 0
	for {
		if call(rec.Sample(inst, time)) {
			return
		}
		if stopReached(time, s.StopTime) {
			break
		}

		nextRegularPoint := s.StartTime + float64(nSteps+1)*s.OutputInterval
		nextCommunicationPoint := math.Min(nextRegularPoint, s.StopTime)
		nextInputEventTime := in.NextEvent(time)

		inputEvent := nextCommunicationPoint >= nextInputEventTime || types.IsClose(nextCommunicationPoint, nextInputEventTime)
		timeEvent := nextCommunicationPoint >= nextEventTime || types.IsClose(nextCommunicationPoint, nextEventTime)
		if inputEvent || timeEvent {
			nextCommunicationPoint = math.Min(nextInputEventTime, nextEventTime)
		}

		reached, stateEvent, st := slv.Step(nextCommunicationPoint)
		if call(st) {
			return
		}
		time = reached

		if call(inst.SetTime(time)) || call(in.Apply(inst, time, false, true, false)) {
			return
		}

		// 状态事件使求解器停在事件时间之前
		inputEvent = inputEvent && types.IsClose(time, nextInputEventTime)
		timeEvent = timeEvent && types.IsClose(time, nextEventTime)

		if types.IsClose(time, nextRegularPoint) {
			nSteps++
		}

		stepEvent := false
		if needsCompletedIntegratorStep {
			enterEventMode, terminateSimulation, st := inst.CompletedIntegratorStep(true)
			if call(st) || terminateSimulation {
				return
			}
			stepEvent = enterEventMode
		}

		if inputEvent || timeEvent || stateEvent || stepEvent {
			if call(rec.Sample(inst, time)) || call(inst.EnterEventMode()) {
				return
			}
			if inputEvent && call(in.Apply(inst, time, true, true, true)) {
				return
			}
			info, resetSolver, st := updateDiscreteStates(inst)
			if call(st) {
				return
			}
			if info.TerminateSimulation {
				call(rec.Sample(inst, time))
				return
			}
			nextEventTime = math.Inf(1)
			if info.NextEventTimeDefined {
				nextEventTime = info.NextEventTime
			}
			if call(inst.EnterContinuousTimeMode()) {
				return
			}
			if resetSolver && call(slv.Reset(time)) {
				return
			}
		}

		if s.StepFinished != nil && !s.StepFinished(time) {
			break
		}
	}

	if s.FinalFMUStateFile != "" {
		call(inst.SaveFMUStateToFile(s.FinalFMUStateFile))
	}
	return
}
