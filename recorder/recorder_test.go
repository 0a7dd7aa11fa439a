package recorder

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fmusim/types"
)

// fakeSource 按变量引用返回固定值
type fakeSource struct {
	values map[types.ValueReference]any
	sizes  map[types.ValueReference]int
	calls  int
}

func (f *fakeSource) GetValues(t types.VariableType, vr []types.ValueReference, nValues int) (any, types.Status) {
	f.calls++
	if t == types.TypeClock {
		panic("时钟不应被读取")
	}
	v, ok := f.values[vr[0]]
	if !ok {
		return nil, types.StatusError
	}
	return v, types.StatusOK
}

func (f *fakeSource) NumberOfVariableValues(v *types.ModelVariable) (int, types.Status) {
	return f.sizes[v.ValueReference], types.StatusOK
}

var (
	xVar     = &types.ModelVariable{Name: "x", ValueReference: 1, Type: types.TypeFloat64}
	nVar     = &types.ModelVariable{Name: "n", ValueReference: 2, Type: types.TypeInt32, Variability: types.VariabilityDiscrete}
	sVar     = &types.ModelVariable{Name: "s", ValueReference: 3, Type: types.TypeString, Variability: types.VariabilityDiscrete}
	clockVar = &types.ModelVariable{Name: "c", ValueReference: 4, Type: types.TypeClock, Variability: types.VariabilityDiscrete}
	sizeVar  = &types.ModelVariable{Name: "m", ValueReference: 5, Type: types.TypeUInt64, Causality: types.CausalityStructuralParameter}
	arrVar   = &types.ModelVariable{Name: "a", ValueReference: 6, Type: types.TypeFloat64, Dimensions: []types.Dimension{{Variable: sizeVar}}}
)

func newSource() *fakeSource {
	return &fakeSource{
		values: map[types.ValueReference]any{
			1: []float64{0.5},
			2: []int32{3},
			3: []string{"a\"b"},
			6: []float64{1, 2},
		},
		sizes: map[types.ValueReference]int{6: 2},
	}
}

func TestSampleOneRowPerCall(t *testing.T) {
	src := newSource()
	r := New([]*types.ModelVariable{xVar, nVar, clockVar})
	for i := range 3 {
		require.Equal(t, types.StatusOK, r.Sample(src, float64(i)))
		require.Equal(t, i+1, r.Len(), "每次采样追加一行")
	}
	assert.Equal(t, 6, src.calls, "时钟变量不读取")
	assert.Equal(t, []bool{false}, r.Rows()[0].Values[2])
}

func TestSampleError(t *testing.T) {
	r := New([]*types.ModelVariable{{Name: "y", ValueReference: 99, Type: types.TypeFloat64}})
	assert.Equal(t, types.StatusError, r.Sample(newSource(), 0))
	assert.Equal(t, 0, r.Len())
}

func TestUpdateSizes(t *testing.T) {
	src := newSource()
	r := New([]*types.ModelVariable{arrVar})
	assert.Equal(t, 1, r.Size(0))
	require.Equal(t, types.StatusOK, r.UpdateSizes(src))
	assert.Equal(t, 2, r.Size(0))
}

func TestWriteCSV(t *testing.T) {
	src := newSource()
	r := New([]*types.ModelVariable{xVar, nVar, sVar, arrVar})
	r.UpdateSizes(src)
	r.Sample(src, 0)
	r.Sample(src, 0.1)
	var buf bytes.Buffer
	require.NoError(t, r.WriteCSV(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"time","x","n","s","a"`, lines[0])
	assert.Equal(t, `0,0.5,3,"a\"b",1 2`, lines[1])
	assert.Equal(t, `0.1,0.5,3,"a\"b",1 2`, lines[2])
}

func TestSeries(t *testing.T) {
	src := newSource()
	r := New([]*types.ModelVariable{xVar, sVar})
	r.Sample(src, 0)
	r.Sample(src, 1)
	time, values, err := r.Series("x", 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, time)
	assert.Equal(t, []float64{0.5, 0.5}, values)
	_, _, err = r.Series("s", 0)
	assert.Error(t, err)
	_, _, err = r.Series("missing", 0)
	assert.Error(t, err)
}

func TestChartsRender(t *testing.T) {
	src := newSource()
	r := New([]*types.ModelVariable{xVar, sVar})
	r.Sample(src, 0)
	var buf bytes.Buffer
	require.NoError(t, NewCharts(r, "test").Render(&buf))
	assert.Contains(t, buf.String(), "echarts")
}

func TestPlot(t *testing.T) {
	src := newSource()
	r := New([]*types.ModelVariable{xVar, nVar})
	r.Sample(src, 0)
	r.Sample(src, 1)
	path := filepath.Join(t.TempDir(), "plot.png")
	require.NoError(t, r.Plot(path, "test"))
	assert.FileExists(t, path)
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	store, err := OpenStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer store.Close()

	src := newSource()
	r := New([]*types.ModelVariable{xVar, arrVar})
	r.UpdateSizes(src)
	r.Sample(src, 0)
	r.Sample(src, 0.5)
	id, err := store.Save(ctx, "Test", r)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	times, values, err := store.Series(ctx, id, "a")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5}, times)
	assert.Equal(t, []string{"1 2", "1 2"}, values)

	_, _, err = store.Series(ctx, "missing", "a")
	assert.ErrorIs(t, err, ErrRunNotFound)
}
