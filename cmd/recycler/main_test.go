package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/recycler/pkg/config"
	"github.com/ajitpratap0/recycler/pkg/errors"
	"github.com/ajitpratap0/recycler/pkg/testutil"
	"github.com/ajitpratap0/recycler/pkg/workload"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Recycler v"+version)
}

func TestConfigInitToStdout(t *testing.T) {
	out, _, err := execute(t, "config", "init")
	require.NoError(t, err)

	cfg := &config.Config{}
	require.NoError(t, yaml.Unmarshal([]byte(out), cfg))
	assert.Equal(t, config.Default(), cfg)
}

func TestConfigInitToFile(t *testing.T) {
	path := t.TempDir() + "/recycler.yaml"
	_, errOut, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, errOut, path)

	cfg := &config.Config{}
	require.NoError(t, config.Load(path, cfg))
	assert.Equal(t, config.Default(), cfg)
}

func TestSimulatePrintsReport(t *testing.T) {
	out, _, err := execute(t, "simulate",
		"--log-level", "error",
		"--workers", "2",
		"--iterations", "200",
		"--initial-size", "4",
		"--foreign-every", "20",
		"--policy", "strict",
	)
	require.NoError(t, err)

	rep, err := workload.ParseReport([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Workers)
	assert.Equal(t, "strict", rep.Policy)
	assert.Equal(t, int64(20), rep.ForeignRejected)
	assert.Equal(t, rep.Stats.Reserved, rep.Stats.Released)
}

func TestSimulateLayersFileEnvAndFlags(t *testing.T) {
	path := testutil.WriteFile(t, "recycler.yaml", `
name: layered
pool:
  initial_size: 3
  policy: relaxed
workload:
  workers: 1
  iterations: 50
  seed: 9
logging:
  level: error
`)
	t.Setenv("RECYCLER_WORKLOAD_ITERATIONS", "60")

	out, _, err := execute(t, "simulate", "--config", path, "--seed", "11")
	require.NoError(t, err)

	rep, err := workload.ParseReport([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "layered", rep.Name)
	assert.Equal(t, 60, rep.Iterations)
	assert.Equal(t, uint64(11), rep.Seed)
	assert.Equal(t, "relaxed", rep.Policy)
}

func TestSimulateRejectsInvalidConfig(t *testing.T) {
	_, _, err := execute(t, "simulate", "--workers", "0")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	_, _, err = execute(t, "simulate", "--policy", "lenient")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}
