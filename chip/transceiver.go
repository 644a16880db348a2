// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package chip

// Bus thresholds and driver levels.
//
const (
	VDiffDominant  = 0.9 // Vdiff at or above this is dominant
	VDiffRecessive = 0.5 // Vdiff at or below this is recessive

	CANHDominant  = 3.5
	CANLDominant  = 1.5
	CANHRecessive = 2.5
	CANLRecessive = 2.5
)

// Propagation delays applied to RXD. Each is the middle of its datasheet
// window.
//
const (
	PropToDominant  = (TPropLoop1Min + TPropLoop1Max) / 2
	PropToRecessive = (TPropLoop2Min + TPropLoop2Max) / 2
)

// ClassifyBus returns the bus state for a differential voltage canh - canl.
//
func ClassifyBus(canh, canl float64) BusState {
	vdiff := canh - canl
	switch {
	case vdiff >= VDiffDominant:
		return Dominant
	case vdiff <= VDiffRecessive:
		return Recessive
	}
	return Indeterminate
}

// Transceiver is the CAN transceiver state machine together with its RXD
// output stage.
//
type Transceiver struct {
	State           CANState
	DriverEnabled   bool
	ReceiverEnabled bool
	CANH, CANL      float64 // last driven levels
	RXD             bool    // RXD output, true is high (recessive)

	pending      bool
	pendingValue bool
	pendingAt    uint64
	activity     Timer // last dominant bus activity
}

// Reset puts the transceiver in the Off state with RXD high.
//
func (t *Transceiver) Reset() {
	*t = Transceiver{RXD: true, pendingValue: true}
}

// Pending returns the scheduled RXD value and its due time. ok is false if no
// update is pending.
//
func (t *Transceiver) Pending() (value bool, at uint64, ok bool) {
	return t.pendingValue, t.pendingAt, t.pending
}

// LastActivity returns the time the bus was last seen dominant.
//
func (t *Transceiver) LastActivity() Timer { return t.activity }

// Update runs the state machine from the previous bus levels, treating any
// mode other than Off as a valid supply, then computes driver levels for the
// requested TXD level.
//
func (t *Transceiver) Update(mode Mode, txdLow bool, canh, canl float64, now uint64) {
	t.UpdateState(mode, ClassifyBus(canh, canl), mode != Off, now)
	t.Drive(txdLow)
}

// UpdateState runs the transceiver state machine and updates the driver and
// receiver enables.
//
func (t *Transceiver) UpdateState(mode Mode, bus BusState, vsupValid bool, now uint64) {
	if bus == Dominant {
		t.activity.Restart(now)
	}
	t.activity.Start(now)

	switch t.State {
	case CANOff:
		if vsupValid {
			t.State = AutonomousInactive
		}
	case AutonomousInactive:
		switch {
		case !vsupValid:
			t.State = CANOff
		case mode.Active():
			t.State = CANActive
		case bus == Dominant:
			t.State = AutonomousActive
		}
	case AutonomousActive:
		switch {
		case !vsupValid:
			t.State = CANOff
		case mode.Active():
			t.State = CANActive
		case t.activity.Elapsed(now) > TXcvrSilence:
			t.State = AutonomousInactive
		}
	case CANActive:
		switch {
		case !vsupValid:
			t.State = CANOff
		case mode.Active():
		case bus == Dominant || t.activity.Elapsed(now) <= TXcvrSilence:
			t.State = AutonomousActive
		default:
			t.State = AutonomousInactive
		}
	}

	switch t.State {
	case CANOff:
		t.DriverEnabled, t.ReceiverEnabled = false, false
	case AutonomousInactive, AutonomousActive:
		t.DriverEnabled, t.ReceiverEnabled = false, true
	case CANActive:
		t.DriverEnabled, t.ReceiverEnabled = mode == Normal, mode.Active()
	}
}

// Drive returns the CANH and CANL levels for the given TXD level. Only a
// dominant request with the driver enabled yields dominant levels.
//
func (t *Transceiver) Drive(txdLow bool) (canh, canl float64) {
	if txdLow && t.DriverEnabled {
		t.CANH, t.CANL = CANHDominant, CANLDominant
	} else {
		t.CANH, t.CANL = CANHRecessive, CANLRecessive
	}
	return t.CANH, t.CANL
}

// UpdateRXD updates the RXD output from the bus state at time now. Changes
// are scheduled a propagation delay after ref, the time the inputs changed.
// An indeterminate bus leaves the target unchanged.
//
func (t *Transceiver) UpdateRXD(bus BusState, now, ref uint64) {
	if !t.ReceiverEnabled {
		t.RXD = true
		t.pending = false
		return
	}
	if t.pending && now >= t.pendingAt {
		t.RXD = t.pendingValue
		t.pending = false
	}

	var target bool
	switch bus {
	case Dominant:
	case Recessive:
		target = true
	default:
		return
	}

	if t.pending && t.pendingValue != target {
		// the bus moved back before the pending change was applied
		t.pending = false
	}
	if target == t.RXD || t.pending {
		return
	}
	delay := PropToRecessive
	if !target {
		delay = PropToDominant
	}
	at := AddDelay(ref, delay)
	if at <= now {
		t.RXD = target
		return
	}
	t.pending, t.pendingValue, t.pendingAt = true, target, at
}
