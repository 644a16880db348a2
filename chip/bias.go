// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package chip

// BiasState is the state of the bus bias controller. It mirrors CANState.
//
type BiasState uint8

// Bias states.
//
const (
	BiasOff BiasState = iota
	BiasAutonomousInactive
	BiasAutonomousActive
	BiasActive
)

func (b BiasState) String() string { return "Bias" + CANState(b).String() }

// Bias controls the idle bus bias.
//
type Bias struct {
	State    BiasState
	activity Timer
}

// Reset puts the bias controller in the Off state.
//
func (b *Bias) Reset() { *b = Bias{} }

// Update mirrors the transceiver state and tracks bus activity.
//
func (b *Bias) Update(s CANState, bus BusState, now uint64) {
	if bus == Dominant {
		b.activity.Restart(now)
	}
	b.activity.Start(now)
	b.State = BiasState(s)
}

// Voltages returns the bias levels of both bus lines for the given VCC.
//
func (b *Bias) Voltages(vcc float64) (canh, canl float64) {
	switch b.State {
	case BiasAutonomousActive:
		return 2.5, 2.5
	case BiasActive:
		return vcc / 2, vcc / 2
	}
	return 0, 0
}

// SilenceTimeout returns true if the bus has not been dominant for more than
// the bias silence time.
//
func (b *Bias) SilenceTimeout(now uint64) bool {
	return b.activity.Elapsed(now) > TBiasSilence
}
