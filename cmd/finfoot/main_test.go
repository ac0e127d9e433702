package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/units"
)

func TestLoadConfig_FlagsOverridePreset(t *testing.T) {
	cmd := &cobra.Command{Use: "run"}
	problemFlags(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{
		"--preset", "loose",
		"--method", "bs3",
		"--rtol", "1e-8",
		"--t-end", "3 s",
		"--param", "Length=2 m",
		"--init", "theta=10 deg",
	}))
	t.Cleanup(func() { preset, params, initial = "", nil, nil })

	cfg, err := loadConfig(cmd, []string{"pendulum"})
	require.NoError(t, err)
	assert.Equal(t, "pendulum", cfg.Problem)
	assert.Equal(t, "bs3", cfg.Method)
	assert.Equal(t, 1e-8, cfg.Tolerance.Rel)
	assert.Equal(t, 1e-5, cfg.Tolerance.Abs)
	assert.Equal(t, "3 s", cfg.End)
	assert.Equal(t, map[string]string{"length": "2 m"}, cfg.Params)
	assert.Equal(t, map[string]string{"theta": "10 deg"}, cfg.Initial)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_UnknownPreset(t *testing.T) {
	cmd := &cobra.Command{Use: "run"}
	problemFlags(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--preset", "nope"}))
	t.Cleanup(func() { preset = "" })

	_, err := loadConfig(cmd, nil)
	assert.ErrorContains(t, err, "unknown preset")
}

func TestStepSizes(t *testing.T) {
	l := dynamo.NewLayoutBuilder()
	dynamo.Declare[units.Length, units.Velocity](l, "x")
	layout := l.MustBuild()

	tr := dynamo.NewTrajectory(layout, 3)
	for _, ts := range []float64{0, -0.5, -2} {
		tr.Append(units.Seconds(ts), layout.Zero())
	}
	assert.Equal(t, []float64{0.5, 1.5}, stepSizes(tr))
}
