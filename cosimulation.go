package fmusim

import (
	"fmusim/input"
	"fmusim/instance"
	"fmusim/recorder"
	"fmusim/types"
)

// simulateCS 联合仿真循环
// 1.0/2.0 的 Discard 通过状态查询恢复，3.0 通过单步结果报告提前返回与结束
func simulateCS(inst *instance.Instance, md *types.ModelDescription, location string, rec *recorder.Recorder, in *input.Input, s *Settings) (status types.Status) {
	v3 := inst.Version() == types.FMIMajorVersion3
	eventModeUsed := v3 && s.EventModeUsed
	earlyReturnAllowed := v3 && s.EarlyReturnAllowed
	canHandleVariableStep := md.CoSimulation.CanHandleVariableCommunicationStepSize

	call := func(st types.Status) bool {
		status = types.MaxStatus(status, st)
		return st > types.StatusWarning
	}
	defer func() { status = inst.Finish(status) }()

	p := instance.InstantiateParams{
		Token:              md.InstantiationToken,
		ResourceLocation:   location,
		Visible:            s.Visible,
		LoggingOn:          s.LoggingOn,
		EventModeUsed:      eventModeUsed,
		EarlyReturnAllowed: earlyReturnAllowed,
	}
	if v3 && s.RecordIntermediateValues {
		for _, v := range rec.Variables {
			p.RequiredIntermediateVariables = append(p.RequiredIntermediateVariables, v.ValueReference)
		}
		p.IntermediateUpdate = func(info instance.IntermediateUpdateInfo) (bool, float64) {
			if info.VariableGetAllowed {
				if st := rec.Sample(inst, info.Time); st > types.StatusWarning {
					inst.LogError("记录中间值失败，时间 %g，状态 %v", info.Time, st)
				}
			}
			return false, 0
		}
	}
	if call(inst.InstantiateCoSimulation(p)) {
		return
	}

	if s.InitialFMUStateFile != "" && call(inst.RestoreFMUStateFromFile(s.InitialFMUStateFile)) {
		return
	}
	if call(ApplyStartValues(inst, s.StartValues)) {
		return
	}
	if s.InitialFMUStateFile == "" {
		if call(inst.EnterInitializationMode(s.Tolerance > 0, s.Tolerance, s.StartTime, s.StopTimeDefined, s.StopTime)) {
			return
		}
		if call(in.Apply(inst, s.StartTime, true, true, false)) {
			return
		}
		if call(inst.ExitInitializationMode()) {
			return
		}
		if eventModeUsed {
			info, _, st := updateDiscreteStates(inst)
			if call(st) || info.TerminateSimulation {
				return
			}
			if call(inst.EnterStepMode()) {
				return
			}
		}
	}

	if call(rec.UpdateSizes(inst)) {
		return
	}
	time := s.StartTime
	if call(rec.Sample(inst, time)) {
		return
	}

	nSteps := 0
	inputApplied := false
steps:
	for !stopReached(time, s.StopTime) {
		nextRegularPoint := s.StartTime + float64(nSteps+1)*s.OutputInterval
		nextCommunicationPoint := nextRegularPoint
		nextInputEventTime := in.NextEvent(time)

		if canHandleVariableStep && nextCommunicationPoint > nextInputEventTime && !types.IsClose(nextCommunicationPoint, nextInputEventTime) {
			nextCommunicationPoint = nextInputEventTime
		}
		if nextCommunicationPoint > s.StopTime && !types.IsClose(nextCommunicationPoint, s.StopTime) {
			if !canHandleVariableStep {
				break steps
			}
			nextCommunicationPoint = s.StopTime
		}
		inputEvent := types.IsClose(nextCommunicationPoint, nextInputEventTime)

		if call(in.Apply(inst, time, !inputApplied, !inputApplied, !eventModeUsed)) {
			return
		}

		result, st := inst.DoStep(time, nextCommunicationPoint-time, true)
		switch {
		case st == types.StatusDiscard && !v3:
			terminated, lastSuccessfulTime, st := inst.DoStepDiscarded()
			if call(st) {
				return
			}
			if !terminated && (lastSuccessfulTime < time || types.IsClose(lastSuccessfulTime, time)) {
				inst.LogError("模型在时间 %g 拒绝单步且没有前进", time)
				status = types.MaxStatus(status, types.StatusError)
				return
			}
			// 总是回退到最后成功时间再采样
			time = lastSuccessfulTime
			if types.IsClose(time, nextRegularPoint) {
				nSteps++
			}
			if call(rec.Sample(inst, time)) || terminated {
				return
			}
			inputApplied = false
			if s.StepFinished != nil && !s.StepFinished(time) {
				break steps
			}
			continue
		case call(st):
			return
		}

		if result.EarlyReturn && !earlyReturnAllowed {
			inst.LogError("模型在 DoStep 中提前返回，但设置不允许提前返回")
			status = types.MaxStatus(status, types.StatusError)
			return
		}
		if result.EarlyReturn && result.LastSuccessfulTime < nextCommunicationPoint {
			time = result.LastSuccessfulTime
			inputEvent = inputEvent && types.IsClose(time, nextInputEventTime)
		} else {
			time = nextCommunicationPoint
		}
		if types.IsClose(time, nextRegularPoint) {
			nSteps++
		}

		if call(rec.Sample(inst, time)) || result.TerminateSimulation {
			return
		}

		if eventModeUsed && (inputEvent || result.EventHandlingNeeded) {
			if call(inst.EnterEventMode()) {
				return
			}
			if inputEvent && call(in.Apply(inst, time, true, true, true)) {
				return
			}
			info, _, st := updateDiscreteStates(inst)
			if call(st) {
				return
			}
			if info.TerminateSimulation {
				call(rec.Sample(inst, time))
				return
			}
			if call(inst.EnterStepMode()) || call(rec.Sample(inst, time)) {
				return
			}
			inputApplied = true
		} else {
			inputApplied = false
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
