package wave_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/wavestring/internal/analysis"
	"github.com/san-kum/wavestring/internal/wave"
)

var _ = Describe("Solver", func() {
	Describe("a constant field with matching boundaries", func() {
		var s *wave.Solver

		BeforeEach(func() {
			var err error
			s, err = wave.New(wave.Ut(wave.Const(0.3)), wave.Ux(wave.Const(-0.7)),
				wave.Const(-0.7), wave.Const(0.3), wave.Params{A: 2, L: 1.5})
			Expect(err).NotTo(HaveOccurred())
		})

		It("is a fixed point of the step", func() {
			_, err := s.Advance(200 * s.StepDt())
			Expect(err).NotTo(HaveOccurred())
			for _, p := range s.Field() {
				Expect(p.Ut).To(BeNumerically("~", 0.3, 1e-12))
				Expect(p.Ux).To(BeNumerically("~", -0.7, 1e-12))
			}
		})
	})

	Describe("the right-moving invariant", func() {
		It("is carried one cell to the right per step", func() {
			initUx := wave.FuncOf(func(x float64) float64 { return math.Cos(3 * x) })
			initUt := wave.FuncOf(func(x float64) float64 { return 0.5 * x })
			s, err := wave.New(wave.Fixed(), wave.Free(), initUx, initUt, wave.Params{A: 1.7, L: 4})
			Expect(err).NotTo(HaveOccurred())

			a := s.Params().A
			start := 40
			want, _ := s.At(start).Invariants(a)
			for k := 1; start+k < s.Len()-1 && k <= 150; k++ {
				Expect(s.Step()).To(Succeed())
				got, _ := s.At(start + k).Invariants(a)
				Expect(got).To(BeNumerically("~", want, 1e-9))
			}
		})
	})

	Describe("a plucked string with fixed ends", func() {
		var (
			s   *wave.Solver
			ref analysis.Reference
		)

		BeforeEach(func() {
			p := wave.Params{A: 1, L: math.Pi}
			ref = analysis.Reference{
				Params: p,
				InitUx: wave.FuncOf(math.Sin),
				InitUt: wave.Const(0),
				Left:   wave.TimeDerivative,
				Right:  wave.TimeDerivative,
			}
			var err error
			s, err = wave.New(wave.Fixed(), wave.Fixed(), ref.InitUx, ref.InitUt, p)
			Expect(err).NotTo(HaveOccurred())
		})

		It("starts on the tabulated initial condition", func() {
			Expect(ref.MaxError(s.Field(), 0)).To(BeNumerically("<", 1e-12))
		})

		It("matches d'Alembert's solution at every step", func() {
			for k := 0; k < 2*s.Len(); k++ {
				Expect(s.Step()).To(Succeed())
				Expect(ref.MaxError(s.Field(), analysis.PropagationTime(s))).To(BeNumerically("<", 1e-8))
			}
		})

		It("keeps both ends still", func() {
			_, err := s.Advance(1.0)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.At(0).Ut).To(Equal(0.0))
			Expect(s.At(s.Len() - 1).Ut).To(Equal(0.0))
		})
	})

	DescribeTable("homogeneous ends against the exact solution",
		func(left, right wave.Boundary) {
			p := wave.Params{A: 2, L: 3}
			ux := wave.FuncOf(func(x float64) float64 { return math.Exp(-8 * (x - 1.5) * (x - 1.5)) })
			ut := wave.FuncOf(func(x float64) float64 { return math.Exp(-8*(x-1.5)*(x-1.5)) * (x - 1.5) })
			s, err := wave.New(left, right, ux, ut, p)
			Expect(err).NotTo(HaveOccurred())

			ref := analysis.Reference{Params: p, InitUx: ux, InitUt: ut, Left: left.Kind, Right: right.Kind}
			for k := 0; k < 3*s.Len(); k++ {
				Expect(s.Step()).To(Succeed())
			}
			Expect(ref.MaxError(s.Field(), analysis.PropagationTime(s))).To(BeNumerically("<", 1e-6))
		},
		Entry("fixed-fixed", wave.Fixed(), wave.Fixed()),
		Entry("free-free", wave.Free(), wave.Free()),
		Entry("fixed-free", wave.Fixed(), wave.Free()),
		Entry("free-fixed", wave.Free(), wave.Fixed()),
	)

	Describe("swapping a boundary between steps", func() {
		It("only affects later steps", func() {
			s, err := wave.New(wave.Fixed(), wave.Fixed(), wave.Const(0), wave.Const(0), wave.Params{A: 1, L: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Step()).To(Succeed())
			Expect(s.At(0)).To(Equal(wave.Point{}))

			s.SetLeft(wave.Ut(wave.Const(1)))
			Expect(s.Step()).To(Succeed())
			Expect(s.At(0).Ut).To(Equal(1.0))
			Expect(s.At(0).Ux).To(Equal(-1.0))
		})
	})
})
