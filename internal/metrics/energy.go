package metrics

import (
	"math"

	"gonum.org/v1/gonum/integrate"

	"github.com/san-kum/wavestring/internal/wave"
)

// FieldEnergy integrates ½(Ut² + a²Ux²) over the string with the
// trapezoidal rule on the tabulation grid.
func FieldEnergy(field wave.Field, p wave.Params) float64 {
	n := len(field)
	if n < 2 {
		return 0
	}
	xs := make([]float64, n)
	density := make([]float64, n)
	a2 := p.A * p.A
	for i, pt := range field {
		xs[i] = float64(i) / float64(n-1) * p.L
		density[i] = 0.5 * (pt.Ut*pt.Ut + a2*pt.Ux*pt.Ux)
	}
	return integrate.Trapezoidal(xs, density)
}

// Energy reports the energy of the last observed frame.
type Energy struct {
	name    string
	energy  float64
	samples int
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(field wave.Field, p wave.Params, t float64) {
	e.energy = FieldEnergy(field, p)
	e.samples++
}

func (e *Energy) Value() float64 { return e.energy }

func (e *Energy) Reset() {
	e.energy = 0
	e.samples = 0
}

// EnergyDrift is the largest relative deviation from the first observed
// energy. With a zero initial energy the absolute deviation is reported.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(field wave.Field, p wave.Params, t float64) {
	energy := FieldEnergy(field, p)

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	drift := math.Abs(energy - e.initialEnergy)
	if e.initialEnergy != 0 {
		drift /= math.Abs(e.initialEnergy)
	}
	if drift > e.maxDrift {
		e.maxDrift = drift
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
