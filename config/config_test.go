package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fmusim/models"
	"fmusim/types"
)

const bouncingHCL = `
model           = "BouncingBall"
fmi_version     = 2
interface       = "me"
stop_time       = 3
output_interval = 0.01
solver          = "euler"
record          = ["h"]

start_values {
  h = 2
  e = 0.8
}
`

const feedthroughTOML = `
model = "Feedthrough"
interface = "cs"
stop_time_defined = true
epsilon = 1e-6

[start_values]
n = 5
Float64_array_input = [1, 2.5, 3, 4, 5]
String_parameter = "a b"
Boolean_input = true
`

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadHCL(t *testing.T) {
	exp, err := Load(context.Background(), write(t, "bb.hcl", bouncingHCL))
	require.NoError(t, err)

	stop := 3.0
	want := &Experiment{
		Model:          "BouncingBall",
		FMIVersion:     2,
		Interface:      "me",
		StopTime:       &stop,
		OutputInterval: 0.01,
		Solver:         "euler",
		Record:         []string{"h"},
		StartValues:    map[string]string{"h": "2", "e": "0.8"},
	}
	if diff := cmp.Diff(want, exp); diff != "" {
		t.Errorf("Experiment mismatch (-want +got):\n%s", diff)
	}

	md := models.BouncingBall.ModelDescription(exp.Version())
	s, err := exp.Settings(md)
	require.NoError(t, err)
	assert.Equal(t, types.ModelExchange, s.InterfaceType)
	assert.Equal(t, 3.0, s.StopTime)
	assert.NotNil(t, s.Solver)
	require.Len(t, s.StartValues, 2)
	assert.Equal(t, "e", s.StartValues[0].Variable.Name)
	assert.Equal(t, "h", s.StartValues[1].Variable.Name)

	recorded, err := exp.Recorded(md)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, "h", recorded[0].Name)
}

func TestLoadTOML(t *testing.T) {
	exp, err := Load(context.Background(), write(t, "ft.toml", feedthroughTOML))
	require.NoError(t, err)
	assert.Equal(t, types.FMIMajorVersion3, exp.Version())
	assert.Equal(t, map[string]string{
		"n":                   "5",
		"Float64_array_input": "1 2.5 3 4 5",
		"String_parameter":    "a b",
		"Boolean_input":       "true",
	}, exp.StartValues)

	md := models.Feedthrough.ModelDescription(exp.Version())
	s, err := exp.Settings(md)
	require.NoError(t, err)
	assert.Equal(t, types.CoSimulation, s.InterfaceType)
	assert.True(t, s.StopTimeDefined)
	assert.Equal(t, md.DefaultExperiment.StopTime, s.StopTime)
	assert.Nil(t, s.Solver)
	assert.Len(t, s.StartValues, 4)

	recorded, err := exp.Recorded(md)
	require.NoError(t, err)
	assert.Equal(t, md.Outputs, recorded)
}

func TestApplyEpsilon(t *testing.T) {
	old := types.Epsilon
	t.Cleanup(func() { types.Epsilon = old })
	exp, err := ParseTOML(feedthroughTOML)
	require.NoError(t, err)
	exp.ApplyEpsilon()
	assert.Equal(t, 1e-6, types.Epsilon)
	assert.False(t, types.IsClose(1, 1+5e-6))
}

func TestErrors(t *testing.T) {
	ctx := context.Background()
	_, err := Load(ctx, write(t, "exp.yaml", "model: x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ParseHCL([]byte(`stop_time = 1`), "missing.hcl")
	assert.Error(t, err)

	_, err = ParseTOML(`stop_time = 1`)
	assert.ErrorIs(t, err, ErrMissingModel)

	_, err = ParseTOML("model = \"Stair\"\nfmi_version = 4")
	assert.ErrorIs(t, err, ErrVersion)

	_, err = ParseTOML("model = \"Stair\"\ninterface = \"hybrid\"")
	assert.ErrorIs(t, err, ErrInterfaceType)

	_, err = ParseHCL([]byte("model = \"Stair\"\nstart_values {\n  counter = [[1]]\n}\n"), "nested.hcl")
	assert.Error(t, err)

	exp, err := ParseTOML("model = \"Stair\"\n[start_values]\ncounterx = 2")
	require.NoError(t, err)
	_, err = exp.Settings(models.Stair.ModelDescription(types.FMIMajorVersion3))
	assert.ErrorIs(t, err, ErrUnknownVariable)

	exp.StartValues = nil
	exp.Record = []string{"nothing"}
	_, err = exp.Recorded(models.Stair.ModelDescription(types.FMIMajorVersion3))
	assert.ErrorIs(t, err, ErrUnknownVariable)

	exp.Solver = "rk45"
	_, err = exp.Settings(models.Stair.ModelDescription(types.FMIMajorVersion3))
	assert.Error(t, err)
}
