package dynamo

import (
	"fmt"

	"github.com/san-kum/finfoot/internal/units"
)

// Point is one committed sample of a trajectory.
type Point struct {
	Time  units.Quantity[units.Time]
	State State
}

// Trajectory is the append-only record of committed points of one run.
type Trajectory struct {
	layout *Layout
	points []Point
}

func NewTrajectory(l *Layout, capacity int) *Trajectory {
	return &Trajectory{layout: l, points: make([]Point, 0, capacity)}
}

func (tr *Trajectory) Layout() *Layout { return tr.layout }
func (tr *Trajectory) Len() int        { return len(tr.points) }
func (tr *Trajectory) At(i int) Point  { return tr.points[i] }

// Last returns the most recent point. The trajectory always holds the
// initial point once a run has started.
func (tr *Trajectory) Last() Point { return tr.points[len(tr.points)-1] }

func (tr *Trajectory) Append(t units.Quantity[units.Time], s State) {
	tr.points = append(tr.points, Point{Time: t, State: s})
}

// Times returns the sample times in seconds.
func (tr *Trajectory) Times() []float64 {
	out := make([]float64, len(tr.points))
	for i, p := range tr.points {
		out[i] = p.Time.Value()
	}
	return out
}

// Series returns component i across the trajectory in canonical units.
func (tr *Trajectory) Series(i int) []float64 {
	out := make([]float64, len(tr.points))
	for k, p := range tr.points {
		out[k] = p.State.Raw(i)
	}
	return out
}

// Termination says why a run stopped.
type Termination int

const (
	Success Termination = iota
	MaxStepsExceeded
	RejectionExhausted
	NonFiniteDetected
)

var terminationNames = [...]string{
	Success:            "success",
	MaxStepsExceeded:   "max-steps-exceeded",
	RejectionExhausted: "rejection-exhausted",
	NonFiniteDetected:  "non-finite-detected",
}

func (t Termination) String() string {
	if t < 0 || int(t) >= len(terminationNames) {
		return fmt.Sprintf("Termination(%d)", int(t))
	}
	return terminationNames[t]
}

func (t Termination) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Termination) UnmarshalText(b []byte) error {
	for i, name := range terminationNames {
		if name == string(b) {
			*t = Termination(i)
			return nil
		}
	}
	return fmt.Errorf("dynamo: unknown termination %q", b)
}

// Stats counts the work done by a run.
type Stats struct {
	Accepted    int                        `json:"accepted"`
	Rejected    int                        `json:"rejected"`
	Evaluations int                        `json:"evaluations"`
	LastStep    units.Quantity[units.Time] `json:"-"`
	NextStep    units.Quantity[units.Time] `json:"-"`
}

// Cycles is the number of stepper invocations.
func (s Stats) Cycles() int { return s.Accepted + s.Rejected }

// Result is the outcome of one integration run. The trajectory is returned
// for every termination reason, including failures.
type Result struct {
	Trajectory  *Trajectory
	Termination Termination
	Stats       Stats
}

// Final returns the last committed point.
func (r *Result) Final() Point { return r.Trajectory.Last() }

// Err maps a non-success termination to an error; it is nil on success.
func (r *Result) Err() error {
	var wrapped error
	switch r.Termination {
	case Success:
		return nil
	case MaxStepsExceeded:
		wrapped = ErrMaxSteps
	case RejectionExhausted:
		wrapped = ErrRejectionExhausted
	case NonFiniteDetected:
		wrapped = ErrNonFinite
	default:
		wrapped = fmt.Errorf("dynamo: %s", r.Termination)
	}
	return &SimulationError{Step: r.Stats.Cycles(), Time: r.Final().Time, Wrapped: wrapped}
}
