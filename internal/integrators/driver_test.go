package integrators

import (
	"bytes"
	"log/slog"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/units"
)

func tolConfig(method string, rel, abs float64) Config {
	cfg := DefaultConfig()
	cfg.Method = method
	cfg.RelTol = rel
	cfg.AbsTol = abs
	return cfg
}

func mustIntegrate(p Problem, cfg Config) *dynamo.Result {
	GinkgoHelper()
	res, err := Integrate(p, cfg)
	Expect(err).NotTo(HaveOccurred())
	return res
}

func expectMonotone(tr *dynamo.Trajectory, dir float64) {
	GinkgoHelper()
	times := tr.Times()
	for i := 1; i < len(times); i++ {
		Expect(dir * (times[i] - times[i-1])).To(BeNumerically(">", 0), "step %d", i)
	}
}

var _ = Describe("Driver", func() {
	Describe("exponential decay", func() {
		DescribeTable("matches the analytic solution",
			func(method string, rel float64) {
				d := newDecay(1)
				res := mustIntegrate(decayProblem(d, 1), tolConfig(method, rel, rel*1e-2))

				Expect(res.Termination).To(Equal(dynamo.Success))
				Expect(res.Err()).NotTo(HaveOccurred())
				Expect(res.Final().State.Raw(0)).To(BeNumerically("~", math.Exp(-1), 100*rel))
				expectMonotone(res.Trajectory, 1)
			},
			Entry("dopri5 loose", "dopri5", 1e-4),
			Entry("dopri5 default", "dopri5", 1e-6),
			Entry("dopri5 tight", "dopri5", 1e-9),
			Entry("bs3", "bs3", 1e-6),
			Entry("cashkarp", "cashkarp", 1e-6),
			Entry("rkf45", "rkf45", 1e-6),
			Entry("heun-euler", "heun-euler", 1e-4),
		)

		It("integrates backward in time", func() {
			d := newDecay(1)
			p := Problem{
				System: d,
				T0:     units.Seconds(1),
				TEnd:   units.Seconds(0),
				Y0:     d.initial(math.Exp(-1)),
			}
			res := mustIntegrate(p, tolConfig("dopri5", 1e-8, 1e-10))

			Expect(res.Termination).To(Equal(dynamo.Success))
			Expect(res.Final().Time.Value()).To(Equal(0.0))
			Expect(res.Final().State.Raw(0)).To(BeNumerically("~", 1, 1e-6))
			expectMonotone(res.Trajectory, -1)
		})
	})

	Describe("step counts", func() {
		It("do not fall as the tolerance tightens", func() {
			o := newOscillator(1)
			p := Problem{System: o, T0: units.Seconds(0), TEnd: units.Seconds(10), Y0: o.initial(1, 0)}

			var prev int
			for _, rel := range []float64{1e-3, 1e-5, 1e-7, 1e-9} {
				res := mustIntegrate(p, tolConfig("dopri5", rel, rel))
				Expect(res.Termination).To(Equal(dynamo.Success))
				Expect(res.Stats.Accepted).To(BeNumerically(">=", prev), "rtol %g", rel)
				prev = res.Stats.Accepted
			}
			Expect(prev).To(BeNumerically(">", 20))
		})

		It("reuse the last stage of FSAL tableaus", func() {
			o := newOscillator(1)
			p := Problem{System: o, T0: units.Seconds(0), TEnd: units.Seconds(10), Y0: o.initial(1, 0),
				InitialStep: units.Seconds(0.5)}

			res := mustIntegrate(p, tolConfig("dopri5", 1e-6, 1e-8))
			Expect(res.Stats.Rejected).To(BeNumerically(">", 0))
			Expect(res.Stats.Evaluations).To(Equal(6*res.Stats.Cycles() + 1))

			p.InitialStep = units.Quantity[units.Time]{}
			res = mustIntegrate(p, tolConfig("dopri5", 1e-6, 1e-8))
			Expect(res.Stats.Evaluations).To(Equal(6*res.Stats.Cycles() + 2))
		})
	})

	Describe("harmonic oscillator", func() {
		It("returns to the start after one period", func() {
			o := newOscillator(2 * math.Pi)
			p := Problem{System: o, T0: units.Seconds(0), TEnd: units.Seconds(1), Y0: o.initial(1, 0)}
			res := mustIntegrate(p, tolConfig("dopri5", 1e-9, 1e-11))

			Expect(res.Termination).To(Equal(dynamo.Success))
			final := res.Final().State
			Expect(o.x.Get(final).Value()).To(BeNumerically("~", 1, 1e-6))
			Expect(o.v.Get(final).Value()).To(BeNumerically("~", 0, 1e-5))
		})

		It("lands exactly on the final time", func() {
			o := newOscillator(1)
			p := Problem{System: o, T0: units.Seconds(0.1), TEnd: units.Seconds(3.7), Y0: o.initial(1, 0)}
			res := mustIntegrate(p, tolConfig("bs3", 1e-5, 1e-7))

			Expect(res.Final().Time.Value()).To(Equal(3.7))
			Expect(res.Trajectory.At(0).Time.Value()).To(Equal(0.1))
			expectMonotone(res.Trajectory, 1)
		})

		It("honours the maximum step", func() {
			o := newOscillator(1)
			cfg := tolConfig("dopri5", 1e-3, 1e-3)
			cfg.Step.MaxStep = units.Seconds(0.25)
			p := Problem{System: o, T0: units.Seconds(0), TEnd: units.Seconds(5), Y0: o.initial(1, 0)}
			res := mustIntegrate(p, cfg)

			times := res.Trajectory.Times()
			for i := 1; i < len(times); i++ {
				Expect(times[i] - times[i-1]).To(BeNumerically("<=", 0.25+1e-12))
			}
			Expect(res.Stats.Accepted).To(BeNumerically(">=", 20))
		})

		It("is deterministic", func() {
			o := newOscillator(3)
			p := Problem{System: o, T0: units.Seconds(0), TEnd: units.Seconds(4), Y0: o.initial(0.5, 1)}
			d, err := New(tolConfig("cashkarp", 1e-7, 1e-9))
			Expect(err).NotTo(HaveOccurred())

			a, err := d.Integrate(p)
			Expect(err).NotTo(HaveOccurred())
			b, err := d.Integrate(p)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Trajectory.Times()).To(Equal(b.Trajectory.Times()))
			Expect(a.Trajectory.Series(0)).To(Equal(b.Trajectory.Series(0)))
			Expect(a.Stats).To(Equal(b.Stats))
		})
	})

	Describe("degenerate spans", func() {
		It("returns the initial point when the span is empty", func() {
			d := newDecay(1)
			res := mustIntegrate(decayProblem(d, 0), DefaultConfig())

			Expect(res.Termination).To(Equal(dynamo.Success))
			Expect(res.Trajectory.Len()).To(Equal(1))
			Expect(res.Stats.Cycles()).To(Equal(0))
			Expect(res.Stats.Evaluations).To(Equal(0))
			Expect(d.calls).To(Equal(0))
		})

		It("stops before the first cycle with no step budget", func() {
			d := newDecay(1)
			cfg := DefaultConfig()
			cfg.MaxSteps = 0
			res := mustIntegrate(decayProblem(d, 1), cfg)

			Expect(res.Termination).To(Equal(dynamo.MaxStepsExceeded))
			Expect(res.Trajectory.Len()).To(Equal(1))
			Expect(res.Final().State.Raw(0)).To(Equal(1.0))
			Expect(res.Err()).To(MatchError(dynamo.ErrMaxSteps))
		})

		It("keeps the partial trajectory when the budget runs out", func() {
			o := newOscillator(1)
			cfg := tolConfig("dopri5", 1e-8, 1e-8)
			cfg.MaxSteps = 5
			p := Problem{System: o, T0: units.Seconds(0), TEnd: units.Seconds(100), Y0: o.initial(1, 0)}
			res := mustIntegrate(p, cfg)

			Expect(res.Termination).To(Equal(dynamo.MaxStepsExceeded))
			Expect(res.Stats.Cycles()).To(Equal(5))
			Expect(res.Trajectory.Len()).To(Equal(res.Stats.Accepted + 1))
			Expect(res.Final().Time.Value()).To(BeNumerically("<", 100))
		})
	})

	Describe("failures", func() {
		It("reports non-finite derivatives distinctly", func() {
			sys := poisoned(-1)
			res := mustIntegrate(Problem{
				System: sys,
				T0:     units.Seconds(0),
				TEnd:   units.Seconds(1),
				Y0:     sys.Layout().Zero(),
			}, DefaultConfig())

			Expect(res.Termination).To(Equal(dynamo.NonFiniteDetected))
			Expect(res.Trajectory.Len()).To(Equal(1))
			Expect(res.Stats.Accepted).To(Equal(0))
			Expect(res.Stats.Rejected).To(Equal(DefaultStepConfig().MaxRejections + 1))
			Expect(res.Err()).To(MatchError(dynamo.ErrNonFinite))
		})

		It("keeps the finite prefix when the system blows up mid-run", func() {
			sys := poisoned(0.5)
			y0, err := sys.Layout().FromRaw([]float64{1})
			Expect(err).NotTo(HaveOccurred())
			cfg := DefaultConfig()
			cfg.Step.MinStep = units.Seconds(0.01)

			res := mustIntegrate(Problem{System: sys, T0: units.Seconds(0), TEnd: units.Seconds(1), Y0: y0}, cfg)
			Expect(res.Termination).To(Equal(dynamo.NonFiniteDetected))
			Expect(res.Final().Time.Value()).To(BeNumerically("<=", 0.5))
			Expect(res.Final().Time.Value()).To(BeNumerically(">", 0.4))
			for i := 0; i < res.Trajectory.Len(); i++ {
				Expect(res.Trajectory.At(i).State.IsValid()).To(BeTrue())
			}
		})

		It("stops at a blow-up with unbounded steps instead of stalling", func() {
			sys := poisoned(0.5)
			y0, err := sys.Layout().FromRaw([]float64{1})
			Expect(err).NotTo(HaveOccurred())
			cfg := DefaultConfig()
			cfg.MaxSteps = 5000

			res := mustIntegrate(Problem{System: sys, T0: units.Seconds(0), TEnd: units.Seconds(1), Y0: y0}, cfg)
			Expect(res.Termination).To(Equal(dynamo.NonFiniteDetected))
			Expect(res.Err()).To(MatchError(dynamo.ErrNonFinite))
			Expect(res.Stats.Cycles()).To(BeNumerically("<", 500))
			Expect(res.Final().Time.Value()).To(BeNumerically("<=", 0.5))
			Expect(res.Final().Time.Value()).To(BeNumerically(">", 0.4))
			Expect(res.Trajectory.Len()).To(Equal(res.Stats.Accepted + 1))
			times := res.Trajectory.Times()
			for i := 1; i < len(times); i++ {
				Expect(times[i]).To(BeNumerically(">", times[i-1]))
			}
		})

		It("gives up when the tolerance is unreachable at the minimum step", func() {
			o := newOscillator(1)
			cfg := tolConfig("dopri5", 1e-12, 1e-12)
			cfg.Step.MinStep = units.Seconds(0.5)
			p := Problem{System: o, T0: units.Seconds(0), TEnd: units.Seconds(10), Y0: o.initial(1, 0),
				InitialStep: units.Seconds(0.5)}
			res := mustIntegrate(p, cfg)

			Expect(res.Termination).To(Equal(dynamo.RejectionExhausted))
			Expect(res.Stats.Accepted).To(Equal(0))
			Expect(res.Stats.Rejected).To(Equal(cfg.Step.MaxRejections + 1))
			Expect(res.Err()).To(MatchError(dynamo.ErrRejectionExhausted))
			Expect(res.Trajectory.Len()).To(Equal(1))
		})
	})

	Describe("setup", func() {
		var (
			d   *decay
			cfg Config
		)

		BeforeEach(func() {
			d = newDecay(1)
			cfg = DefaultConfig()
		})

		It("rejects a nil system", func() {
			_, err := Integrate(Problem{T0: units.Seconds(0), TEnd: units.Seconds(1)}, cfg)
			Expect(err).To(MatchError(ErrInvalidProblem))
		})

		It("rejects an initial state from another layout", func() {
			other := newDecay(1)
			p := decayProblem(d, 1)
			p.Y0 = other.initial(1)
			_, err := Integrate(p, cfg)
			Expect(err).To(MatchError(dynamo.ErrLayoutMismatch))
		})

		It("rejects a non-finite initial state", func() {
			p := decayProblem(d, 1)
			p.Y0 = d.initial(math.NaN())
			_, err := Integrate(p, cfg)
			Expect(err).To(MatchError(ErrInvalidProblem))
			Expect(err).To(MatchError(dynamo.ErrNonFinite))
		})

		It("rejects a negative initial step", func() {
			p := decayProblem(d, 1)
			p.InitialStep = units.Seconds(-0.1)
			_, err := Integrate(p, cfg)
			Expect(err).To(MatchError(ErrInvalidProblem))
		})

		It("rejects bad tolerances", func() {
			cfg.RelTol = -1
			_, err := Integrate(decayProblem(d, 1), cfg)
			Expect(err).To(MatchError(dynamo.ErrInvalidTolerance))
		})

		It("checks per-component tolerance dimensions", func() {
			cfg.AbsTolPerComponent = map[string]units.Value{"n": units.Seconds(1).Dynamic()}
			_, err := Integrate(decayProblem(d, 1), cfg)
			Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
		})

		It("rejects unknown methods and negative budgets", func() {
			cfg.Method = "euler"
			_, err := New(cfg)
			Expect(err).To(MatchError(ErrUnknownMethod))

			cfg = DefaultConfig()
			cfg.MaxSteps = -1
			_, err = New(cfg)
			Expect(err).To(MatchError(ErrInvalidConfig))
		})

		It("surfaces derivatives on the wrong layout as errors", func() {
			bad := dynamo.NewSystem(d.layout, func(_ units.Quantity[units.Time], x dynamo.State) dynamo.State {
				return x.Clone()
			})
			p := decayProblem(d, 1)
			p.System = bad
			_, err := Integrate(p, cfg)
			Expect(err).To(MatchError(dynamo.ErrLayoutMismatch))
			var simErr *dynamo.SimulationError
			Expect(err).To(BeAssignableToTypeOf(simErr))
		})

		It("prefers an explicit tableau over the method name", func() {
			cfg.Method = "dopri5"
			cfg.Tableau = BogackiShampine32()
			drv, err := New(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(drv.Method()).To(Equal("bs3"))
		})
	})

	It("logs one record per run", func() {
		var buf bytes.Buffer
		cfg := DefaultConfig()
		cfg.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		mustIntegrate(decayProblem(newDecay(2), 1), cfg)
		Expect(buf.String()).To(ContainSubstring("integration finished"))
		Expect(buf.String()).To(ContainSubstring("termination=success"))
		Expect(bytes.Count(buf.Bytes(), []byte("\n"))).To(Equal(1))
	})
})
