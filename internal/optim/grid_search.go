// Package optim searches model parameters for the run that minimizes an
// objective.
package optim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/finfoot/internal/config"
	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/experiment"
	"github.com/san-kum/finfoot/internal/sim"
)

var (
	ErrInvalidGrid = errors.New("optim: invalid grid")

	// ErrNoFeasible is returned when no grid point produced a finite
	// objective from a successful run.
	ErrNoFeasible = errors.New("optim: no feasible grid point")
)

// Objectives other than metric names.
const (
	Evaluations = "evaluations"
	Accepted    = "accepted"
	Rejected    = "rejected"
)

// Axis is one swept parameter and the quantities it takes, such as
// "2 Hz" or "1.5 m".
type Axis struct {
	Param  string
	Values []string
}

// ParseAxis reads "name=v1,v2,...".
func ParseAxis(s string) (Axis, error) {
	name, list, ok := strings.Cut(s, "=")
	name = strings.ToLower(strings.TrimSpace(name))
	if !ok || name == "" {
		return Axis{}, fmt.Errorf("%w: %q is not name=v1,v2", ErrInvalidGrid, s)
	}
	var values []string
	for _, v := range strings.Split(list, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return Axis{}, fmt.Errorf("%w: no values for %q", ErrInvalidGrid, name)
	}
	return Axis{Param: name, Values: values}, nil
}

type GridSearch struct {
	axes   []Axis
	logger *slog.Logger
}

func NewGridSearch(logger *slog.Logger, axes ...Axis) (*GridSearch, error) {
	if len(axes) == 0 {
		return nil, fmt.Errorf("%w: no axes", ErrInvalidGrid)
	}
	seen := make(map[string]bool, len(axes))
	for _, a := range axes {
		if a.Param == "" || len(a.Values) == 0 {
			return nil, fmt.Errorf("%w: empty axis %q", ErrInvalidGrid, a.Param)
		}
		if seen[a.Param] {
			return nil, fmt.Errorf("%w: %q swept twice", ErrInvalidGrid, a.Param)
		}
		seen[a.Param] = true
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &GridSearch{axes: axes, logger: logger}, nil
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, a := range g.axes {
		n *= len(a.Values)
	}
	return n
}

// Trial is one evaluated grid point. Value is NaN when the run did not
// succeed or the objective is unavailable.
type Trial struct {
	Params      map[string]string
	Value       float64
	Termination dynamo.Termination
}

type SearchResult struct {
	Objective string
	Best      Trial
	Trials    []Trial
}

// Search runs base once per grid point, overriding the swept parameters,
// and keeps the point with the smallest objective. Invalid parameter
// values abort the search.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, objective string) (*SearchResult, error) {
	res := &SearchResult{Objective: objective, Trials: make([]Trial, 0, g.Size())}
	if err := g.searchRecursive(ctx, 0, map[string]string{}, base, res); err != nil {
		return nil, err
	}

	best := -1
	for i, tr := range res.Trials {
		if !math.IsNaN(tr.Value) && (best < 0 || tr.Value < res.Trials[best].Value) {
			best = i
		}
	}
	if best < 0 {
		return res, fmt.Errorf("%w: objective %q over %d points", ErrNoFeasible, objective, len(res.Trials))
	}
	res.Best = res.Trials[best]
	g.logger.Info("search finished",
		slog.String("objective", objective),
		slog.Int("points", len(res.Trials)),
		slog.Float64("best", res.Best.Value),
	)
	return res, nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]string, base *config.Config, res *SearchResult) error {
	if depth == len(g.axes) {
		return g.evaluate(ctx, current, base, res)
	}
	axis := g.axes[depth]
	for _, val := range axis.Values {
		next := make(map[string]string, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[axis.Param] = val
		if err := g.searchRecursive(ctx, depth+1, next, base, res); err != nil {
			return err
		}
	}
	return nil
}

func (g *GridSearch) evaluate(ctx context.Context, point map[string]string, base *config.Config, res *SearchResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := base.Clone()
	if cfg.Params == nil {
		cfg.Params = make(map[string]string, len(point))
	}
	for k, v := range point {
		cfg.Params[k] = v
	}
	exp, err := experiment.New(cfg, g.logger)
	if err != nil {
		return fmt.Errorf("grid point %s: %w", FormatPoint(point), err)
	}
	run, err := exp.Run(ctx)
	if err != nil {
		return fmt.Errorf("grid point %s: %w", FormatPoint(point), err)
	}
	tr := Trial{Params: point, Value: math.NaN(), Termination: run.Result.Termination}
	if run.Result.Termination == dynamo.Success {
		if v, ok := objectiveValue(run, res.Objective); ok && !math.IsInf(v, 0) {
			tr.Value = v
		}
	}
	g.logger.Debug("grid point",
		slog.String("params", FormatPoint(point)),
		slog.String("termination", tr.Termination.String()),
		slog.Float64("value", tr.Value),
	)
	res.Trials = append(res.Trials, tr)
	return nil
}

func objectiveValue(run *sim.Run, objective string) (float64, bool) {
	stats := run.Result.Stats
	switch objective {
	case Evaluations:
		return float64(stats.Evaluations), true
	case Accepted:
		return float64(stats.Accepted), true
	case Rejected:
		return float64(stats.Rejected), true
	}
	v, ok := run.Metrics[objective]
	return v, ok
}

// FormatPoint renders params as "a=1 m, b=2 s" in name order.
func FormatPoint(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + params[k]
	}
	return strings.Join(parts, ", ")
}
