package fmusim

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fmusim/input"
	"fmusim/instance"
	"fmusim/models"
	"fmusim/recorder"
	"fmusim/solver"
	"fmusim/types"
)

// load 绑定参考模型
func load(t *testing.T, d *models.Definition, version types.MajorVersion) (*instance.Instance, *types.ModelDescription) {
	t.Helper()
	b, err := d.Binding(version)
	require.NoError(t, err)
	return loadBinding(t, b), d.ModelDescription(version)
}

func loadBinding(t *testing.T, b instance.Binding) *instance.Instance {
	t.Helper()
	inst := instance.New(t.Name(), nil, nil)
	require.NoError(t, inst.Load(b))
	return inst
}

// column 某变量第 element 个元素的全部采样
func column(t *testing.T, rec *recorder.Recorder, name string, element int) (time, values []float64) {
	t.Helper()
	time, values, err := rec.Series(name, element)
	require.NoError(t, err)
	return time, values
}

// duplicates 相邻时间相同的行数，事件前后各采样一次
func duplicates(time []float64) int {
	n := 0
	for i := 1; i < len(time); i++ {
		if time[i] == time[i-1] {
			n++
		}
	}
	return n
}

func TestDahlquistCoSimulation(t *testing.T) {
	for _, version := range []types.MajorVersion{types.FMIMajorVersion1, types.FMIMajorVersion2, types.FMIMajorVersion3} {
		t.Run(version.String(), func(t *testing.T) {
			inst, md := load(t, models.Dahlquist, version)
			rec := recorder.New(md.Outputs)
			status := Simulate(inst, md, "", rec, nil, Settings{
				InterfaceType:  types.CoSimulation,
				StopTime:       1,
				OutputInterval: 0.1,
			})
			require.Equal(t, types.StatusOK, status)
			assert.False(t, inst.Created())

			time, x := column(t, rec, "x", 0)
			require.Len(t, time, 11)
			for i, ti := range time {
				assert.InDelta(t, float64(i)*0.1, ti, 1e-12)
			}
			assert.Equal(t, 1.0, x[0])
			assert.InDelta(t, math.Pow(0.9, 10), x[10], 1e-9)
		})
	}
}

func TestStopTimeNotMultiple(t *testing.T) {
	inst, md := load(t, models.Dahlquist, types.FMIMajorVersion3)
	rec := recorder.New(md.Outputs)
	status := Simulate(inst, md, "", rec, nil, Settings{
		InterfaceType:  types.CoSimulation,
		StopTime:       0.25,
		OutputInterval: 0.1,
	})
	require.Equal(t, types.StatusOK, status)
	time, _ := column(t, rec, "x", 0)
	require.Len(t, time, 4)
	assert.InDelta(t, 0.25, time[3], 1e-12)
}

func TestSettingsValidation(t *testing.T) {
	inst, md := load(t, models.Dahlquist, types.FMIMajorVersion2)
	rec := recorder.New(md.Outputs)
	assert.Equal(t, types.StatusError, Simulate(inst, md, "", rec, nil, Settings{StartTime: 1, StopTime: 0}))
	assert.Equal(t, types.StatusError, Simulate(inst, md, "", rec, nil, Settings{StopTime: math.NaN()}))
	assert.Equal(t, types.StatusError, Simulate(inst, models.Dahlquist.ModelDescription(types.FMIMajorVersion3), "", rec, nil, Settings{StopTime: 1}))
	assert.Equal(t, types.StatusError, Simulate(inst, nil, "", rec, nil, Settings{StopTime: 1}))
	assert.Zero(t, rec.Len())
}

// counting 统计 Reset 次数
type counting struct {
	solver.Solver
	resets *int
}

func (c counting) Reset(time float64) types.Status {
	*c.resets++
	return c.Solver.Reset(time)
}

func TestBouncingBallModelExchange(t *testing.T) {
	for name, create := range map[string]solver.Create{"euler": solver.NewEuler, "bdf": solver.NewBDF} {
		t.Run(name, func(t *testing.T) {
			inst, md := load(t, models.BouncingBall, types.FMIMajorVersion3)
			rec := recorder.New(md.Outputs)
			resets := 0
			status := Simulate(inst, md, "", rec, nil, Settings{
				InterfaceType:  types.ModelExchange,
				StopTime:       3,
				OutputInterval: 0.01,
				Solver: func(p solver.Parameters) (solver.Solver, error) {
					s, err := create(p)
					if err != nil {
						return nil, err
					}
					return counting{Solver: s, resets: &resets}, nil
				},
			})
			require.Equal(t, types.StatusOK, status)

			time, h := column(t, rec, "h", 0)
			_, v := column(t, rec, "v", 0)
			// 每次反弹复位一次求解器，并记录事件前后两行
			assert.Positive(t, resets)
			assert.Equal(t, resets, duplicates(time))
			assert.Equal(t, resets, bounces(time, v))
			for i := 1; i < len(time); i++ {
				require.GreaterOrEqual(t, time[i], time[i-1])
			}
			assert.InDelta(t, 3, time[len(time)-1], 1e-9)
			assert.Greater(t, slicesMin(h), -0.1)
		})
	}
}

// bounces 事件时刻速度由负变为非负的次数
func bounces(time, v []float64) int {
	n := 0
	for i := 1; i < len(time); i++ {
		if time[i] == time[i-1] && v[i-1] < 0 && v[i] >= 0 {
			n++
		}
	}
	return n
}

func TestModelExchangeWithoutEvents(t *testing.T) {
	for _, version := range []types.MajorVersion{types.FMIMajorVersion1, types.FMIMajorVersion2, types.FMIMajorVersion3} {
		for name, create := range map[string]solver.Create{"euler": solver.NewEuler, "bdf": solver.NewBDF} {
			t.Run(version.String()+"/"+name, func(t *testing.T) {
				inst, md := load(t, models.Dahlquist, version)
				rec := recorder.New(md.Outputs)
				status := Simulate(inst, md, "", rec, nil, Settings{
					InterfaceType:  types.ModelExchange,
					StopTime:       1,
					OutputInterval: 0.1,
					Solver:         create,
				})
				require.Equal(t, types.StatusOK, status)
				time, x := column(t, rec, "x", 0)
				require.Len(t, time, 11)
				assert.Zero(t, duplicates(time))
				for i, ti := range time {
					assert.InDelta(t, float64(i)*0.1, ti, 1e-9)
				}
				assert.InDelta(t, math.Exp(-1), x[10], 0.05)
			})
		}
	}
}

func slicesMin(values []float64) float64 {
	m := math.Inf(1)
	for _, v := range values {
		m = math.Min(m, v)
	}
	return m
}

func TestStairTimeEvents(t *testing.T) {
	inst, md := load(t, models.Stair, types.FMIMajorVersion3)
	rec := recorder.New(md.Outputs)
	status := Simulate(inst, md, "", rec, nil, Settings{
		InterfaceType: types.ModelExchange,
		StopTime:      10,
	})
	require.Equal(t, types.StatusOK, status)

	time, counter := column(t, rec, "counter", 0)
	assert.Equal(t, 10, duplicates(time))
	assert.Len(t, time, 61)
	assert.Equal(t, 1.0, counter[0])
	assert.Equal(t, 11.0, counter[len(counter)-1])
	for i := 1; i < len(time); i++ {
		if time[i] == time[i-1] {
			assert.Equal(t, counter[i-1]+1, counter[i], "time %v", time[i])
		}
	}
}

func TestStairCoSimulationEventMode(t *testing.T) {
	for _, eventModeUsed := range []bool{false, true} {
		inst, md := load(t, models.Stair, types.FMIMajorVersion3)
		rec := recorder.New(md.Outputs)
		status := Simulate(inst, md, "", rec, nil, Settings{
			InterfaceType:      types.CoSimulation,
			StopTime:           10,
			EventModeUsed:      eventModeUsed,
			EarlyReturnAllowed: eventModeUsed,
		})
		require.Equal(t, types.StatusOK, status)
		time, counter := column(t, rec, "counter", 0)
		assert.Equal(t, 11.0, counter[len(counter)-1])
		if eventModeUsed {
			assert.Len(t, time, 61)
		} else {
			assert.Len(t, time, 51)
		}
	}
}

func TestInputEvents(t *testing.T) {
	inst, md := load(t, models.Feedthrough, types.FMIMajorVersion3)
	in, err := input.New(
		[]*types.ModelVariable{md.Variable("Float64_continuous_input"), md.Variable("Int32_input")},
		[]float64{0, 0.5, 0.5, 1},
		[][]any{
			{[]float64{0}, []int32{1}},
			{[]float64{0.5}, []int32{1}},
			{[]float64{0.5}, []int32{2}},
			{[]float64{1}, []int32{2}},
		})
	require.NoError(t, err)
	rec := recorder.New([]*types.ModelVariable{md.Variable("Float64_continuous_output"), md.Variable("Int32_output")})
	status := Simulate(inst, md, "", rec, in, Settings{
		InterfaceType:  types.CoSimulation,
		StopTime:       1,
		OutputInterval: 0.2,
	})
	require.Equal(t, types.StatusOK, status)

	time, ints := column(t, rec, "Int32_output", 0)
	want := []float64{0, 0.2, 0.4, 0.5, 0.6, 0.8, 1}
	require.Len(t, time, len(want))
	for i := range want {
		assert.InDelta(t, want[i], time[i], 1e-9)
	}
	assert.Equal(t, 1.0, ints[0])
	assert.Equal(t, 1.0, ints[3])
	assert.Equal(t, 2.0, ints[4])

	_, floats := column(t, rec, "Float64_continuous_output", 0)
	assert.InDelta(t, 0.8, floats[len(floats)-1], 1e-9)
}

func TestStartValues(t *testing.T) {
	inst, md := load(t, models.Feedthrough, types.FMIMajorVersion3)
	rec := recorder.New([]*types.ModelVariable{md.Variable("Float64_array_output"), md.Variable("Float64_fixed_parameter"), md.Variable("String_parameter")})
	status := Simulate(inst, md, "", rec, nil, Settings{
		InterfaceType: types.CoSimulation,
		StopTime:      0.2,
		StartValues: []StartValue{
			{Variable: md.Variable("n"), Literal: "5"},
			{Variable: md.Variable("Float64_array_input"), Literal: "1 2 3 4 5"},
			{Variable: md.Variable("Float64_fixed_parameter"), Literal: "3"},
			{Variable: md.Variable("String_parameter"), Literal: "a b"},
		},
	})
	require.Equal(t, types.StatusOK, status)
	require.Equal(t, 5, rec.Size(0))
	row := rec.Rows()[0]
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, row.Values[0])
	assert.Equal(t, []float64{3}, row.Values[1])
	assert.Equal(t, []string{"a b"}, row.Values[2])
}

func TestStartValueErrors(t *testing.T) {
	var messages []string
	logMessage := func(_ *instance.Instance, _ types.Status, _, message string) { messages = append(messages, message) }
	newInst := func() *instance.Instance {
		b, err := models.Dahlquist.Binding(types.FMIMajorVersion3)
		require.NoError(t, err)
		inst := instance.New("dq", logMessage, nil)
		require.NoError(t, inst.Load(b))
		return inst
	}
	md := models.Dahlquist.ModelDescription(types.FMIMajorVersion3)
	s := Settings{InterfaceType: types.CoSimulation, StopTime: 1}

	s.StartValues = []StartValue{{Variable: md.Variable("time"), Literal: "1"}}
	inst := newInst()
	assert.Equal(t, types.StatusError, Simulate(inst, md, "", recorder.New(md.Outputs), nil, s))
	assert.False(t, inst.Created())

	s.StartValues = []StartValue{{Variable: md.Variable("x"), Literal: "abc"}}
	assert.Equal(t, types.StatusError, Simulate(newInst(), md, "", recorder.New(md.Outputs), nil, s))
	assert.Len(t, messages, 2)
}

// discarding 在 at 之后拒绝单步，running 为假时报告终止
type discarding struct {
	instance.FMI2
	at      float64
	running bool
	doStep  int
}

func (d *discarding) DoStep(c instance.Component, current, h float64, noSet bool) types.Status {
	d.doStep++
	if current+h > d.at && !types.IsClose(current+h, d.at) {
		return types.StatusDiscard
	}
	return d.FMI2.DoStep(c, current, h, noSet)
}

func (d *discarding) GetBooleanStatus(_ instance.Component, kind instance.StatusKind) (bool, types.Status) {
	return kind == instance.Terminated && !d.running, types.StatusOK
}

func (d *discarding) GetRealStatus(_ instance.Component, kind instance.StatusKind) (float64, types.Status) {
	if kind != instance.LastSuccessfulTime {
		return 0, types.StatusDiscard
	}
	return d.at, types.StatusOK
}

func TestDiscardTerminates(t *testing.T) {
	b, err := models.Dahlquist.Binding(types.FMIMajorVersion2)
	require.NoError(t, err)
	d := &discarding{FMI2: b.(instance.FMI2), at: 0.37}
	inst := loadBinding(t, d)
	md := models.Dahlquist.ModelDescription(types.FMIMajorVersion2)
	rec := recorder.New(md.Outputs)
	status := Simulate(inst, md, "", rec, nil, Settings{
		InterfaceType:  types.CoSimulation,
		StopTime:       1,
		OutputInterval: 0.1,
	})
	assert.Equal(t, types.StatusOK, status)
	assert.Equal(t, 4, d.doStep)
	time, _ := column(t, rec, "x", 0)
	require.Len(t, time, 5)
	assert.Equal(t, 0.37, time[4])
}

func TestDiscardWithoutProgress(t *testing.T) {
	b, err := models.Dahlquist.Binding(types.FMIMajorVersion2)
	require.NoError(t, err)
	d := &discarding{FMI2: b.(instance.FMI2), at: 0.3, running: true}
	inst := loadBinding(t, d)
	md := models.Dahlquist.ModelDescription(types.FMIMajorVersion2)
	rec := recorder.New(md.Outputs)
	steps := 0
	status := Simulate(inst, md, "", rec, nil, Settings{
		InterfaceType:  types.CoSimulation,
		StopTime:       1,
		OutputInterval: 0.1,
		StepFinished: func(float64) bool {
			steps++
			return steps < 100
		},
	})
	assert.Equal(t, types.StatusError, status)
	assert.Equal(t, 4, d.doStep)
	time, _ := column(t, rec, "x", 0)
	require.Len(t, time, 4)
	assert.InDelta(t, 0.3, time[3], 1e-12)
}

func TestDiscardResample(t *testing.T) {
	b, err := models.Dahlquist.Binding(types.FMIMajorVersion2)
	require.NoError(t, err)
	d := &discarding{FMI2: b.(instance.FMI2), at: 0.37, running: true}
	inst := loadBinding(t, d)
	md := models.Dahlquist.ModelDescription(types.FMIMajorVersion2)
	rec := recorder.New(md.Outputs)
	status := Simulate(inst, md, "", rec, nil, Settings{
		InterfaceType:  types.CoSimulation,
		StopTime:       1,
		OutputInterval: 0.1,
	})
	// 0.37 处重新采样后仍然拒绝且没有前进
	assert.Equal(t, types.StatusError, status)
	assert.Equal(t, 5, d.doStep)
	time, _ := column(t, rec, "x", 0)
	require.Len(t, time, 5)
	assert.Equal(t, 0.37, time[4])
}

// unreadable 单步内部读取输出失败
type unreadable struct {
	instance.FMI3
	inStep bool
}

func (u *unreadable) DoStep(c instance.Component, current, h float64, noSet bool) (types.StepResult, types.Status) {
	u.inStep = true
	defer func() { u.inStep = false }()
	return u.FMI3.DoStep(c, current, h, noSet)
}

func (u *unreadable) GetFloat64(c instance.Component, vr []types.ValueReference, values []float64) types.Status {
	if u.inStep {
		return types.StatusError
	}
	return u.FMI3.GetFloat64(c, vr, values)
}

func TestIntermediateSampleFailure(t *testing.T) {
	b, err := models.Dahlquist.Binding(types.FMIMajorVersion3)
	require.NoError(t, err)
	var messages []string
	inst := instance.New(t.Name(), func(_ *instance.Instance, _ types.Status, _, message string) {
		messages = append(messages, message)
	}, nil)
	require.NoError(t, inst.Load(&unreadable{FMI3: b.(instance.FMI3)}))
	md := models.Dahlquist.ModelDescription(types.FMIMajorVersion3)
	rec := recorder.New(md.Outputs)
	status := Simulate(inst, md, "", rec, nil, Settings{
		InterfaceType:            types.CoSimulation,
		StopTime:                 0.3,
		OutputInterval:           0.1,
		RecordIntermediateValues: true,
	})
	assert.Equal(t, types.StatusOK, status)
	assert.Equal(t, 4, rec.Len())
	failed := 0
	for _, m := range messages {
		if strings.Contains(m, "记录中间值失败") {
			failed++
		}
	}
	assert.GreaterOrEqual(t, failed, 3)
}

// fatal 第二步返回 Fatal，统计释放次数
type fatal struct {
	instance.FMI3
	steps, freed, terminated int
}

func (f *fatal) DoStep(c instance.Component, current, h float64, noSet bool) (types.StepResult, types.Status) {
	if f.steps++; f.steps == 2 {
		return types.StepResult{}, types.StatusFatal
	}
	return f.FMI3.DoStep(c, current, h, noSet)
}

func (f *fatal) Terminate(c instance.Component) types.Status {
	f.terminated++
	return f.FMI3.Terminate(c)
}

func (f *fatal) FreeInstance(c instance.Component) {
	f.freed++
	f.FMI3.FreeInstance(c)
}

func TestFatalSkipsCleanup(t *testing.T) {
	b, err := models.Dahlquist.Binding(types.FMIMajorVersion3)
	require.NoError(t, err)
	f := &fatal{FMI3: b.(instance.FMI3)}
	inst := loadBinding(t, f)
	md := models.Dahlquist.ModelDescription(types.FMIMajorVersion3)
	rec := recorder.New(md.Outputs)
	status := Simulate(inst, md, "", rec, nil, Settings{InterfaceType: types.CoSimulation, StopTime: 1, OutputInterval: 0.1})
	assert.Equal(t, types.StatusFatal, status)
	assert.Zero(t, f.terminated)
	assert.Zero(t, f.freed)
	assert.Equal(t, 2, rec.Len())
}

func TestFMUStateFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.bin")

	inst, md := load(t, models.Dahlquist, types.FMIMajorVersion2)
	first := recorder.New(md.Outputs)
	require.Equal(t, types.StatusOK, Simulate(inst, md, "", first, nil, Settings{
		InterfaceType:     types.CoSimulation,
		StopTime:          0.5,
		OutputInterval:    0.1,
		FinalFMUStateFile: path,
	}))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	inst, _ = load(t, models.Dahlquist, types.FMIMajorVersion2)
	second := recorder.New(md.Outputs)
	require.Equal(t, types.StatusOK, Simulate(inst, md, "", second, nil, Settings{
		InterfaceType:       types.CoSimulation,
		StartTime:           0.5,
		StopTime:            1,
		OutputInterval:      0.1,
		InitialFMUStateFile: path,
	}))
	time, x := column(t, second, "x", 0)
	require.Len(t, time, 6)
	assert.InDelta(t, math.Pow(0.9, 5), x[0], 1e-9)
	assert.InDelta(t, math.Pow(0.9, 10), x[5], 1e-9)

	inst, _ = load(t, models.Dahlquist, types.FMIMajorVersion2)
	assert.Equal(t, types.StatusError, Simulate(inst, md, "", recorder.New(md.Outputs), nil, Settings{
		InterfaceType:       types.CoSimulation,
		StopTime:            1,
		InitialFMUStateFile: filepath.Join(t.TempDir(), "missing.bin"),
	}))
}

func TestResourceLocation(t *testing.T) {
	dir := t.TempDir()
	slash := filepath.ToSlash(dir)
	if slash[0] != '/' {
		slash = "/" + slash
	}
	assert.Equal(t, "file://"+slash, resourceLocation(types.FMIMajorVersion1, dir))
	assert.Equal(t, "file://"+slash+"/resources/", resourceLocation(types.FMIMajorVersion2, dir))
	assert.Equal(t, filepath.Join(dir, "resources")+string(os.PathSeparator), resourceLocation(types.FMIMajorVersion3, dir))
	assert.Empty(t, resourceLocation(types.FMIMajorVersion3, ""))
}

func TestRunBatch(t *testing.T) {
	var runs []*Run
	for _, version := range []types.MajorVersion{types.FMIMajorVersion1, types.FMIMajorVersion2, types.FMIMajorVersion3} {
		b, err := models.Dahlquist.Binding(version)
		require.NoError(t, err)
		md := models.Dahlquist.ModelDescription(version)
		runs = append(runs, &Run{
			Name:        version.String(),
			Binding:     b,
			Description: md,
			Recorder:    recorder.New(md.Outputs),
			Settings:    Settings{InterfaceType: types.CoSimulation, StopTime: 1, OutputInterval: 0.1},
		})
	}
	require.NoError(t, RunBatch(context.Background(), runs, 2))
	for _, r := range runs {
		assert.Equal(t, types.StatusOK, r.Status, r.Name)
		assert.Equal(t, 11, r.Recorder.Len(), r.Name)
	}
}

func TestRunBatchErrors(t *testing.T) {
	b, err := models.Dahlquist.Binding(types.FMIMajorVersion3)
	require.NoError(t, err)
	bad := &Run{
		Name:        "mismatch",
		Binding:     b,
		Description: models.Dahlquist.ModelDescription(types.FMIMajorVersion2),
		Recorder:    recorder.New(nil),
		Settings:    Settings{StopTime: 1},
	}
	err = RunBatch(context.Background(), []*Run{bad}, 0)
	assert.ErrorIs(t, err, ErrSimulation)
	assert.Equal(t, types.StatusError, bad.Status)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	md := models.Dahlquist.ModelDescription(types.FMIMajorVersion3)
	stopped := &Run{
		Name:        "canceled",
		Binding:     b,
		Description: md,
		Recorder:    recorder.New(md.Outputs),
		Settings:    Settings{InterfaceType: types.CoSimulation, StopTime: 1, OutputInterval: 0.1},
	}
	err = RunBatch(ctx, []*Run{stopped}, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, types.StatusOK, stopped.Status)
	assert.Equal(t, 2, stopped.Recorder.Len())
}
