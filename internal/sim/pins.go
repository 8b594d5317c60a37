package sim

// Pins is the signal interface of the multiplier under test.
//
// The driver writes the inputs on falling edges; the component writes the
// outputs on rising edges. All access happens from inside Kernel processes,
// which never run concurrently, so the fields are plain values.
type Pins struct {
	// Inputs.
	ResetN       bool // active-low synchronous reset
	DataIn       int16
	DataInParity bool
	DataInValid  bool

	// Outputs.
	Busy             bool
	DataOut          int32
	DataOutParity    bool
	DataOutValid     bool
	InputParityError bool
}

// NewPins returns the pin state at time zero: reset released, every strobe
// low.
func NewPins() *Pins {
	return &Pins{ResetN: true}
}

// InReset reports whether reset is asserted.
func (p *Pins) InReset() bool {
	return !p.ResetN
}
