package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDahlquist(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, []string{"-model", "Dahlquist", "-fmi-version", "2", "-stop-time", "1", "-output-interval", "0.1"})
	require.NoError(t, err)
	records, err := csv.NewReader(&out).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 12)
	assert.Equal(t, []string{"time", "x"}, records[0])
	assert.Equal(t, "1", records[1][1])
}

func TestRunList(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(&out, []string{"-list"}))
	for _, name := range []string{"BouncingBall", "Dahlquist", "Feedthrough", "Stair"} {
		assert.Contains(t, out.String(), name)
	}
}

func TestRunUsage(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(&out, nil))
	assert.Contains(t, out.String(), "用法")

	out.Reset()
	require.NoError(t, run(&out, []string{"-h"}))
}

func TestRunErrors(t *testing.T) {
	var out bytes.Buffer
	var exitErr *ExitError

	err := run(&out, []string{"-no-such-flag"})
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)

	err = run(&out, []string{"-model", "Dahlquist", "-log-level", "loud"})
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)

	err = run(&out, []string{"-model", "VanDerPol"})
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)

	err = run(&out, []string{"-model", "Dahlquist", "-start", "x"})
	require.ErrorAs(t, err, &exitErr)

	err = run(&out, []string{"-model", "Dahlquist", "-start", "time=1"})
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
}

func TestRunConfigs(t *testing.T) {
	dir := t.TempDir()
	bb := filepath.Join(dir, "bb.hcl")
	require.NoError(t, os.WriteFile(bb, []byte(`
model           = "BouncingBall"
interface       = "me"
stop_time       = 1
output_interval = 0.05
output          = "`+filepath.ToSlash(filepath.Join(dir, "bb.csv"))+`"
`), 0o644))
	stair := filepath.Join(dir, "stair.toml")
	require.NoError(t, os.WriteFile(stair, []byte(`
model = "Stair"
fmi_version = 2
stop_time = 3
output = "`+filepath.ToSlash(filepath.Join(dir, "stair.html"))+`"
`), 0o644))

	var out bytes.Buffer
	require.NoError(t, run(&out, []string{"-workers", "2", bb, stair}))

	data, err := os.ReadFile(filepath.Join(dir, "bb.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `"time","h","v"`))
	html, err := os.ReadFile(filepath.Join(dir, "stair.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "counter")
}

func TestRunInputFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "input.csv")
	require.NoError(t, os.WriteFile(in, []byte("time,Int32_input\n0,1\n0.5,1\n0.5,2\n1,2\n"), 0o644))
	var out bytes.Buffer
	err := run(&out, []string{"-model", "Feedthrough", "-stop-time", "1", "-output-interval", "0.5",
		"-input", in, "-record", "Int32_output"})
	require.NoError(t, err)
	records, err := csv.NewReader(&out).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "2", records[len(records)-1][1])
}
