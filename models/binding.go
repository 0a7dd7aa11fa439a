package models

import (
	"fmusim/instance"
	"fmusim/types"
)

// binding 各版本共用的入口函数
type binding struct{ d *Definition }

func (b *binding) FreeInstance(c instance.Component) {
	if m := model(c); m != nil {
		m.state = types.StartAndEnd
		m.values = nil
	}
}

func (b *binding) ExitInitializationMode(c instance.Component) types.Status {
	m := model(c)
	if m == nil {
		return types.StatusError
	}
	return m.exitInitializationMode()
}

// enter 从允许的状态切换到 next
func (b *binding) enter(c instance.Component, next types.InstanceState, from ...types.InstanceState) types.Status {
	m := model(c)
	if m == nil {
		return types.StatusError
	}
	for _, s := range from {
		if m.state == s {
			m.state = next
			return types.StatusOK
		}
	}
	m.logError("不能从 %v 进入 %v", m.state, next)
	return types.StatusError
}

func (b *binding) Terminate(c instance.Component) types.Status {
	m := model(c)
	if m == nil {
		return types.StatusError
	}
	return m.terminate()
}

func (b *binding) GetBoolean(c instance.Component, vr []types.ValueReference, values []bool) types.Status {
	return get(c, vr, values)
}

func (b *binding) GetString(c instance.Component, vr []types.ValueReference, values []string) types.Status {
	return get(c, vr, values)
}

func (b *binding) SetBoolean(c instance.Component, vr []types.ValueReference, values []bool) types.Status {
	return set(c, vr, values)
}

func (b *binding) SetString(c instance.Component, vr []types.ValueReference, values []string) types.Status {
	return set(c, vr, values)
}

func (b *binding) SetTime(c instance.Component, time float64) types.Status {
	m := model(c)
	if m == nil {
		return types.StatusError
	}
	m.setTime(time)
	return types.StatusOK
}

func (b *binding) SetContinuousStates(c instance.Component, x []float64) types.Status {
	m := model(c)
	if m == nil {
		return types.StatusError
	}
	return m.setContinuousStates(x)
}

func (b *binding) GetEventIndicators(c instance.Component, eventIndicators []float64) types.Status {
	m := model(c)
	if m == nil {
		return types.StatusError
	}
	return m.eventIndicators(eventIndicators)
}

func (b *binding) GetContinuousStates(c instance.Component, x []float64) types.Status {
	m := model(c)
	if m == nil {
		return types.StatusError
	}
	return m.getContinuousStates(x)
}

func (b *binding) GetNominalsOfContinuousStates(c instance.Component, nominals []float64) types.Status {
	m := model(c)
	if m == nil {
		return types.StatusError
	}
	return m.getNominals(nominals)
}
