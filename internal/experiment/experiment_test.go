package experiment

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/finfoot/internal/config"
	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/physics"
)

func newConfig(problem string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Problem = problem
	return cfg
}

func TestRun_Reference(t *testing.T) {
	e, err := New(newConfig("exponential"), nil)
	require.NoError(t, err)
	_, ok := e.Reference()
	require.True(t, ok)

	run, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dynamo.Success, run.Result.Termination)
	assert.InDelta(t, math.Exp(-1), run.Result.Final().State.Raw(0), 1e-6)
	assert.Less(t, run.Metrics["reference_error"], 1e-4)
	assert.Equal(t, 1.0, run.Metrics["stability"])

	passed, ok := e.ReferencePassed(run)
	assert.True(t, ok)
	assert.True(t, passed)
}

func TestNew_ParamOverride(t *testing.T) {
	cfg := newConfig("exponential")
	cfg.Params = map[string]string{"rate": "2 Hz"}
	e, err := New(cfg, nil)
	require.NoError(t, err)

	run, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, math.Exp(-2), run.Result.Final().State.Raw(0), 1e-6)
	passed, _ := e.ReferencePassed(run)
	assert.True(t, passed)
}

func TestNew_InitialOverride(t *testing.T) {
	cfg := newConfig("exponential")
	cfg.Initial = map[string]string{"n": "2 mol"}
	e, err := New(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 2.0, e.Problem().Y0.Raw(0))

	_, ok := e.Reference()
	assert.False(t, ok)

	run, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 2*math.Exp(-1), run.Result.Final().State.Raw(0), 1e-6)
	_, hasRef := run.Metrics["reference_error"]
	assert.False(t, hasRef)
}

func TestNew_SpanOverride(t *testing.T) {
	cfg := newConfig("harmonic_oscillator")
	cfg.End = "500 ms"
	cfg.InitialStep = "1 %"
	e, err := New(cfg, nil)
	require.NoError(t, err)

	p := e.Problem()
	assert.Equal(t, 0.5, p.TEnd.Value())
	assert.InDelta(t, 0.005, p.InitialStep.Value(), 1e-15)
	_, ok := e.Reference()
	assert.False(t, ok)

	run, err := e.Run(context.Background())
	require.NoError(t, err)
	// half a period
	assert.InDelta(t, -1, run.Result.Final().State.Raw(0), 1e-5)
	assert.Less(t, run.Metrics["energy_drift"], 1e-4)
	assert.Contains(t, run.Metrics, "energy")
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   error
	}{
		{"unknown problem", func(c *config.Config) { c.Problem = "cartpole" }, physics.ErrUnknownModel},
		{"unknown param", func(c *config.Config) { c.Params = map[string]string{"torque": "1 N"} }, physics.ErrUnknownParam},
		{"param dimension", func(c *config.Config) { c.Params = map[string]string{"rate": "1 m"} }, dynamo.ErrDimensionMismatch},
		{"unknown component", func(c *config.Config) { c.Initial = map[string]string{"q": "1 mol"} }, dynamo.ErrUnknownComponent},
		{"component dimension", func(c *config.Config) { c.Initial = map[string]string{"n": "1 kg"} }, dynamo.ErrDimensionMismatch},
		{"bad method", func(c *config.Config) { c.Method = "euler" }, config.ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig("exponential")
			tt.mutate(cfg)
			_, err := New(cfg, nil)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestRun_TerminationIsNotAnError(t *testing.T) {
	cfg := newConfig("lorenz")
	cfg.MaxSteps = 3
	e, err := New(cfg, nil)
	require.NoError(t, err)

	run, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dynamo.MaxStepsExceeded, run.Result.Termination)
	assert.Equal(t, 3, run.Result.Stats.Cycles())

	passed, ok := e.ReferencePassed(run)
	assert.True(t, ok)
	assert.False(t, passed)
}

func TestCompare(t *testing.T) {
	cs, err := Compare(context.Background(), newConfig("van_der_pol"), []string{"bs3", "dopri5"}, nil)
	require.NoError(t, err)
	require.Len(t, cs, 2)
	assert.Equal(t, "bs3", cs[0].Method)
	assert.Equal(t, "dopri5", cs[1].Method)
	for _, c := range cs {
		assert.Equal(t, dynamo.Success, c.Run.Result.Termination, c.Method)
	}
	// the lower order pair needs more steps for the same tolerance
	assert.Greater(t, cs[0].Run.Result.Stats.Accepted, cs[1].Run.Result.Stats.Accepted)

	_, err = Compare(context.Background(), newConfig("van_der_pol"), []string{"dopri5", "leapfrog"}, nil)
	assert.ErrorContains(t, err, "method leapfrog")
}

func TestBench(t *testing.T) {
	e, err := New(newConfig("pendulum"), nil)
	require.NoError(t, err)
	single, err := e.Run(context.Background())
	require.NoError(t, err)

	rep, err := e.Bench(context.Background(), BenchOptions{Runs: 4, Workers: 2})
	require.NoError(t, err)
	assert.Equal(t, "pendulum", rep.Problem)
	assert.Equal(t, "dopri5", rep.Method)
	assert.Equal(t, 4, rep.Runs)
	assert.Equal(t, 2, rep.Workers)
	assert.Equal(t, dynamo.Success, rep.Termination)
	assert.Equal(t, single.Result.Stats.Evaluations, rep.Stats.Evaluations)
	assert.Equal(t, single.Result.Final().State.RawValues(), rep.Final.RawValues())
	assert.LessOrEqual(t, rep.Min, rep.Mean)
	assert.LessOrEqual(t, rep.Mean, rep.Max)
	assert.Greater(t, rep.EvalsPerSecond, 0.0)
	assert.True(t, math.IsNaN(rep.ReferenceError))

	_, err = e.Bench(context.Background(), BenchOptions{})
	assert.True(t, errors.Is(err, config.ErrInvalid))
}

func TestBench_Canceled(t *testing.T) {
	e, err := New(newConfig("exponential"), nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = e.Bench(ctx, BenchOptions{Runs: 2})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestAnalyze_Harmonic(t *testing.T) {
	cfg := newConfig("harmonic_oscillator")
	cfg.End = "10 s"
	cfg.Tolerance.Rel = 1e-9
	cfg.Tolerance.Abs = 1e-12
	e, err := New(cfg, nil)
	require.NoError(t, err)

	opts := DefaultAnalyzeOptions()
	opts.Component = "v"
	opts.Lyapunov.Perturbation = 1e-6
	opts.Lyapunov.Segments = 20
	rep, err := e.Analyze(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, "harmonic_oscillator", rep.Problem)
	assert.Equal(t, "v", rep.Component)
	// omega = 2 pi rad/s
	assert.InDelta(t, 1, rep.DominantFrequency, 0.15)
	assert.Less(t, math.Abs(rep.Lyapunov.Exponent), 0.2)
	assert.Len(t, rep.Lyapunov.Running, 20)
}

func TestAnalyze_UnknownComponent(t *testing.T) {
	e, err := New(newConfig("exponential"), nil)
	require.NoError(t, err)
	opts := DefaultAnalyzeOptions()
	opts.Component = "q"
	_, err = e.Analyze(context.Background(), opts)
	assert.ErrorIs(t, err, dynamo.ErrUnknownComponent)
}
