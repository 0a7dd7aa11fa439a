package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fmusim/types"
)

// decay dx/dt = -k*x，事件指示器 z = x - level 或 z = time - at
type decay struct {
	k     float64
	level float64
	at    float64 // >0 时使用时间指示器
	time  float64
	x     []float64
}

func (m *decay) SetTime(time float64) types.Status { m.time = time; return types.StatusOK }
func (m *decay) GetContinuousStates(x []float64) types.Status {
	copy(x, m.x)
	return types.StatusOK
}
func (m *decay) SetContinuousStates(x []float64) types.Status {
	copy(m.x, x)
	return types.StatusOK
}
func (m *decay) GetNominalsOfContinuousStates(nominals []float64) types.Status {
	for i := range nominals {
		nominals[i] = 1
	}
	return types.StatusOK
}
func (m *decay) GetContinuousStateDerivatives(dx []float64) types.Status {
	for i := range dx {
		dx[i] = -m.k * m.x[i]
	}
	return types.StatusOK
}
func (m *decay) GetEventIndicators(z []float64) types.Status {
	if len(z) == 0 {
		return types.StatusOK
	}
	if m.at > 0 {
		z[0] = m.time - m.at
	} else {
		z[0] = m.x[0] - m.level
	}
	return types.StatusOK
}

func TestEulerDahlquist(t *testing.T) {
	m := &decay{k: 1, x: []float64{1}}
	s, err := NewEuler(Parameters{Model: m, NX: 1})
	require.NoError(t, err)
	defer s.Free()
	for i := 1; i <= 10; i++ {
		next := float64(i) * 0.1
		reached, event, status := s.Step(next)
		require.Equal(t, types.StatusOK, status)
		assert.False(t, event)
		assert.Equal(t, next, reached)
	}
	assert.InDelta(t, math.Pow(0.9, 10), m.x[0], 1e-12)
}

func TestEulerStateEvent(t *testing.T) {
	m := &decay{k: 1, level: 0.5, x: []float64{1}}
	s, err := NewEuler(Parameters{Model: m, NX: 1, NZ: 1})
	require.NoError(t, err)
	var at float64
	for i := 1; i <= 10; i++ {
		reached, event, status := s.Step(float64(i) * 0.1)
		require.Equal(t, types.StatusOK, status)
		if event {
			at = reached
			break
		}
	}
	// 0.9^7 < 0.5 < 0.9^6
	assert.InDelta(t, 0.7, at, 1e-12)
	// 重置后同一侧不再触发
	require.Equal(t, types.StatusOK, s.Reset(at))
	require.Equal(t, types.StatusOK, s.Reset(at))
	_, event, _ := s.Step(at + 0.1)
	assert.False(t, event)
}

func TestBDFDahlquist(t *testing.T) {
	m := &decay{k: 1, x: []float64{1}}
	s, err := NewBDF(Parameters{Model: m, NX: 1, Tolerance: 1e-6})
	require.NoError(t, err)
	defer s.Free()
	for i := 1; i <= 10; i++ {
		next := float64(i) * 0.1
		reached, event, status := s.Step(next)
		require.Equal(t, types.StatusOK, status)
		assert.False(t, event)
		assert.Equal(t, next, reached)
		assert.InDelta(t, math.Exp(-next), m.x[0], 1e-4, "time %v", next)
	}
	accepted, _ := s.(*BDF).Steps()
	assert.Greater(t, accepted, 10)
}

func TestBDFStiff(t *testing.T) {
	m := &decay{k: 1000, x: []float64{1}}
	s, err := NewBDF(Parameters{Model: m, NX: 1})
	require.NoError(t, err)
	reached, _, status := s.Step(1)
	require.Equal(t, types.StatusOK, status)
	assert.Equal(t, 1.0, reached)
	assert.InDelta(t, 0, m.x[0], 1e-4)
}

func TestBDFStateEvent(t *testing.T) {
	m := &decay{k: 1, level: 0.5, x: []float64{1}}
	s, err := NewBDF(Parameters{Model: m, NX: 1, NZ: 1, Tolerance: 1e-6})
	require.NoError(t, err)
	reached, event, status := s.Step(1)
	require.Equal(t, types.StatusOK, status)
	require.True(t, event)
	assert.InDelta(t, math.Ln2, reached, 1e-4)
	// 返回跨零点右侧
	assert.LessOrEqual(t, m.x[0], 0.5)

	require.Equal(t, types.StatusOK, s.Reset(reached))
	reached, event, status = s.Step(1)
	require.Equal(t, types.StatusOK, status)
	assert.False(t, event)
	assert.Equal(t, 1.0, reached)
	assert.InDelta(t, math.Exp(-1), m.x[0], 1e-4)
}

func TestBDFNoStates(t *testing.T) {
	m := &decay{at: 0.25}
	s, err := NewBDF(Parameters{Model: m, NZ: 1})
	require.NoError(t, err)
	reached, event, status := s.Step(1)
	require.Equal(t, types.StatusOK, status)
	assert.True(t, event)
	assert.InDelta(t, 0.25, reached, 1e-9)

	require.Equal(t, types.StatusOK, s.Reset(reached))
	reached, event, _ = s.Step(1)
	assert.False(t, event)
	assert.Equal(t, 1.0, reached)
}

func TestByName(t *testing.T) {
	_, err := ByName("bdf")
	require.NoError(t, err)
	_, err = ByName("rk4")
	assert.ErrorIs(t, err, ErrUnknownSolver)
	_, err = NewEuler(Parameters{})
	assert.ErrorIs(t, err, ErrNoModel)
}
