// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package chip

// ThermalShutdown is the junction temperature, in °C, at which TSD is set.
//
const ThermalShutdown = 165.0

// cbfLimit is the number of dominant to recessive transitions that set CBF.
const cbfLimit = 4

// FaultInputs are the signals sampled by the fault detector after the bus has
// been driven.
//
type FaultInputs struct {
	Mode   Mode
	TXDLow bool
	RXDLow bool
	Bus    BusState
	Temp   float64 // junction temperature in °C
}

// FaultDetector evaluates the six fault conditions.
//
// TXDDTO and TXDRXD share a single timer. TXDDTO runs first and stops it
// whenever TXD is high, so a TXD/RXD match only accumulates while TXD is
// dominant.
//
type FaultDetector struct {
	Flags [FaultCount]bool

	txd     Timer
	busDom  Timer
	cbf     uint32
	prevBus BusState
}

// Reset clears all faults.
//
func (f *FaultDetector) Reset() {
	*f = FaultDetector{prevBus: Recessive}
}

// Has returns true if fault ft is set.
//
func (f *FaultDetector) Has(ft Fault) bool { return f.Flags[ft] }

// Any returns true if any fault is set.
//
func (f *FaultDetector) Any() bool {
	for _, v := range f.Flags {
		if v {
			return true
		}
	}
	return false
}

// DisablesDriver returns true if an active fault forces the CAN driver off.
// CANDOM and CBF do not.
//
func (f *FaultDetector) DisablesDriver() bool {
	return f.Flags[FaultTXDCLP] || f.Flags[FaultTXDDTO] || f.Flags[FaultTXDRXD] || f.Flags[FaultTSD]
}

// CBFCount returns the current dominant to recessive transition count.
//
func (f *FaultDetector) CBFCount() int { return int(f.cbf) }

// CheckClamp sets TXDCLP if TXD is dominant on entry into Normal mode. It must
// only be called in the step where Normal mode is entered.
//
func (f *FaultDetector) CheckClamp(txdLow bool, mode Mode) {
	if mode == Normal && txdLow {
		f.Flags[FaultTXDCLP] = true
	}
}

// Update evaluates the time based faults.
//
func (f *FaultDetector) Update(in *FaultInputs, now uint64, tm *Timing) {
	// TXDDTO
	if in.TXDLow {
		f.txd.Start(now)
		if f.txd.Expired(now, tm.TXDTimeout) {
			f.Flags[FaultTXDDTO] = true
		}
	} else {
		f.txd.Stop()
	}

	// TXDRXD
	if in.TXDLow == in.RXDLow {
		f.txd.Start(now)
		if f.txd.Expired(now, tm.TXDTimeout) {
			f.Flags[FaultTXDRXD] = true
		}
	} else {
		f.txd.Stop()
	}

	// CANDOM
	if in.Bus == Dominant {
		f.busDom.Start(now)
		if f.busDom.Expired(now, tm.BusDomTimeout) {
			f.Flags[FaultCANDOM] = true
		}
	} else {
		f.busDom.Stop()
	}

	f.Flags[FaultTSD] = in.Temp >= ThermalShutdown

	// CBF
	if !in.Mode.Active() {
		f.cbf = 0
		return
	}
	if f.prevBus == Dominant && in.Bus == Recessive {
		f.cbf++
		if f.cbf >= cbfLimit {
			f.Flags[FaultCBF] = true
		}
	}
	f.prevBus = in.Bus
}
