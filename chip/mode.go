// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package chip

// transitions[from] has bit to set if from -> to is allowed.
var transitions = [ModeCount]uint8{
	Normal:    1<<Silent | 1<<Standby | 1<<GoToSleep | 1<<Off,
	Silent:    1<<Normal | 1<<Standby | 1<<GoToSleep | 1<<Off,
	Standby:   1<<Normal | 1<<Silent | 1<<Off,
	GoToSleep: 1<<Sleep | 1<<Off,
	Sleep:     1<<Standby | 1<<Off,
	Off:       1<<Normal | 1<<Silent,
}

// CanTransition reports whether the mode controller may move from one mode to
// another in a single step. Self transitions are always allowed.
//
func CanTransition(from, to Mode) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	return from == to || transitions[from]&(1<<to) != 0
}

// ModeInputs are the signals sampled by the mode controller.
//
type ModeInputs struct {
	EN        bool // EN high
	NSTB      bool // nSTB high
	VSUPValid bool
	WakeRq    bool
}

// ModeController is the operating mode state machine.
//
type ModeController struct {
	Mode     Mode
	Previous Mode
	Entered  uint64 // time of the last committed transition
}

// Reset puts the controller in Off mode at time 0.
//
func (m *ModeController) Reset() {
	*m = ModeController{Mode: Off, Previous: Off}
}

// TimeInMode returns the time spent in the current mode.
//
func (m *ModeController) TimeInMode(now uint64) uint64 {
	return Since(now, m.Entered)
}

// Target returns the mode the inputs ask for, before checking the transition
// table.
//
func (m *ModeController) Target(in ModeInputs, now, silence uint64) Mode {
	switch {
	case !in.VSUPValid:
		return Off
	case m.Mode == GoToSleep && m.TimeInMode(now) >= silence:
		return Sleep
	case in.NSTB && in.EN:
		return Normal
	case in.NSTB:
		return Silent
	case in.WakeRq:
		return Standby
	case m.Mode == Sleep:
		return Sleep
	}
	return GoToSleep
}

// Update evaluates the inputs and commits the resulting transition if the
// transition table allows it. It returns the current mode.
//
func (m *ModeController) Update(in ModeInputs, now, silence uint64) Mode {
	to := m.Target(in, now, silence)
	if to != m.Mode && CanTransition(m.Mode, to) {
		m.Previous = m.Mode
		m.Mode = to
		m.Entered = now
	}
	return m.Mode
}
