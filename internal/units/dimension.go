package units

// Dimension is implemented by the zero-size marker types used as the type
// parameter of Quantity.
type Dimension interface {
	Exponents() Exponents
}

type (
	Dimensionless struct{}

	Time        struct{}
	Length      struct{}
	Mass        struct{}
	Current     struct{}
	Temperature struct{}
	Amount      struct{}
	Luminosity  struct{}

	Area   struct{}
	Volume struct{}

	Velocity            struct{}
	Acceleration        struct{}
	Frequency           struct{} // 1/s, also angular velocity
	AngularAcceleration struct{} // 1/s^2
	InverseLength       struct{}

	Momentum  struct{}
	Force     struct{}
	Energy    struct{}
	Power     struct{}
	Pressure  struct{}
	Stiffness struct{} // N/m
	Damping   struct{} // N s/m

	AmountRate    struct{} // mol/s
	Concentration struct{} // mol/m^3
)

func (Dimensionless) Exponents() Exponents { return Exponents{} }

func (Time) Exponents() Exponents        { return Exponents{BaseTime: 1} }
func (Length) Exponents() Exponents      { return Exponents{BaseLength: 1} }
func (Mass) Exponents() Exponents        { return Exponents{BaseMass: 1} }
func (Current) Exponents() Exponents     { return Exponents{BaseCurrent: 1} }
func (Temperature) Exponents() Exponents { return Exponents{BaseTemperature: 1} }
func (Amount) Exponents() Exponents      { return Exponents{BaseAmount: 1} }
func (Luminosity) Exponents() Exponents  { return Exponents{BaseLuminosity: 1} }

func (Area) Exponents() Exponents   { return Exponents{BaseLength: 2} }
func (Volume) Exponents() Exponents { return Exponents{BaseLength: 3} }

func (Velocity) Exponents() Exponents     { return Exponents{BaseLength: 1, BaseTime: -1} }
func (Acceleration) Exponents() Exponents { return Exponents{BaseLength: 1, BaseTime: -2} }
func (Frequency) Exponents() Exponents    { return Exponents{BaseTime: -1} }
func (AngularAcceleration) Exponents() Exponents {
	return Exponents{BaseTime: -2}
}
func (InverseLength) Exponents() Exponents { return Exponents{BaseLength: -1} }

func (Momentum) Exponents() Exponents {
	return Exponents{BaseMass: 1, BaseLength: 1, BaseTime: -1}
}
func (Force) Exponents() Exponents {
	return Exponents{BaseMass: 1, BaseLength: 1, BaseTime: -2}
}
func (Energy) Exponents() Exponents {
	return Exponents{BaseMass: 1, BaseLength: 2, BaseTime: -2}
}
func (Power) Exponents() Exponents {
	return Exponents{BaseMass: 1, BaseLength: 2, BaseTime: -3}
}
func (Pressure) Exponents() Exponents {
	return Exponents{BaseMass: 1, BaseLength: -1, BaseTime: -2}
}
func (Stiffness) Exponents() Exponents { return Exponents{BaseMass: 1, BaseTime: -2} }
func (Damping) Exponents() Exponents   { return Exponents{BaseMass: 1, BaseTime: -1} }

func (AmountRate) Exponents() Exponents { return Exponents{BaseAmount: 1, BaseTime: -1} }
func (Concentration) Exponents() Exponents {
	return Exponents{BaseAmount: 1, BaseLength: -3}
}

// ExponentsOf returns the exponents of the dimension type D.
func ExponentsOf[D Dimension]() Exponents {
	var d D
	return d.Exponents()
}
