// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package chip

// Thresholds are the undervoltage detection bounds of a supply rail.
//
type Thresholds struct {
	FallingMin, FallingMax float64
	RisingMin, RisingMax   float64
}

// Undervoltage thresholds.
//
var (
	UVSUP = Thresholds{3.5, 4.25, 3.85, 4.4}
	UVCC  = Thresholds{3.5, 3.9, 4.1, 4.4}
	UVIO  = Thresholds{1.0, 1.25, 1.4, 1.65}
)

// Nominal supply voltages.
//
const (
	NominalVSUP = 12.0
	NominalVCC  = 5.0
	NominalVIO  = 3.3
)

// PowerMonitor tracks the three supply rails.
//
// VSUP has no filter: its flag sets at or below UVSUP.FallingMin and clears
// above UVSUP.RisingMin, which also raises PowerOn. VCC and VIO flags set
// after the rail has stayed below FallingMax for the filter duration and
// clear as soon as it rises above RisingMin. In between, the flag holds and
// a rising voltage restarts the filter.
//
type PowerMonitor struct {
	VSUP, VCC, VIO    float64 // last samples
	UVSUP, UVCC, UVIO bool
	PowerOn           bool

	vcc, vio Timer
}

// Reset sets nominal voltages and clears all flags.
//
func (p *PowerMonitor) Reset() {
	*p = PowerMonitor{VSUP: NominalVSUP, VCC: NominalVCC, VIO: NominalVIO}
}

// Update samples the rails at time now.
//
func (p *PowerMonitor) Update(vsup, vcc, vio float64, now, filter uint64) {
	if !p.UVSUP && vsup <= UVSUP.FallingMin {
		p.UVSUP = true
	} else if p.UVSUP && vsup > UVSUP.RisingMin {
		p.UVSUP = false
		p.PowerOn = true
	}
	p.UVCC = updateRail(&p.vcc, p.UVCC, vcc, p.VCC, &UVCC, now, filter)
	p.UVIO = updateRail(&p.vio, p.UVIO, vio, p.VIO, &UVIO, now, filter)
	p.VSUP, p.VCC, p.VIO = vsup, vcc, vio
}

func updateRail(t *Timer, flag bool, v, prev float64, th *Thresholds, now, filter uint64) bool {
	switch {
	case v < th.FallingMax:
		t.Start(now)
		if t.Expired(now, filter) {
			flag = true
		}
	case v > th.RisingMin:
		flag = false
		t.Stop()
	default:
		if v > prev {
			t.Stop()
		}
	}
	return flag
}

// VSUPValid returns true if VSUP is not in undervoltage.
//
func (p *PowerMonitor) VSUPValid() bool { return !p.UVSUP }

// ClearPowerOn clears the power-on flag.
//
func (p *PowerMonitor) ClearPowerOn() { p.PowerOn = false }

// UVCCFilter returns the VCC filter timer.
//
func (p *PowerMonitor) UVCCFilter() Timer { return p.vcc }

// UVIOFilter returns the VIO filter timer.
//
func (p *PowerMonitor) UVIOFilter() Timer { return p.vio }
