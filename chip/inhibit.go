// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package chip

// INHDrop is the voltage drop between VSUP and a high INH output.
//
const INHDrop = 0.75

// Inhibit controls the INH output.
//
// INH is high in Normal, Silent and Standby and high impedance otherwise.
// A wake event holds it high impedance for TINHDelay. INH_MASK high disables
// the output altogether.
//
type Inhibit struct {
	Enabled bool
	High    bool // output is driven high

	wakeAt  uint64
	pending bool
	prevRq  bool
}

// Reset enables the output, low until the first update.
//
func (h *Inhibit) Reset() { *h = Inhibit{Enabled: true} }

// Pending returns true while the post-wake assertion delay is running.
//
func (h *Inhibit) Pending() bool { return h.pending }

// Update evaluates the output at time now. A wake event is a rising edge of
// wakeRq.
//
func (h *Inhibit) Update(mode Mode, maskHigh, wakeRq bool, now uint64) {
	event := wakeRq && !h.prevRq
	h.prevRq = wakeRq

	h.Enabled = !maskHigh
	if !h.Enabled {
		h.High = false
		h.pending = false
		return
	}
	if event {
		h.wakeAt = now
		h.pending = true
	}
	if h.pending && Since(now, h.wakeAt) >= TINHDelay {
		h.pending = false
	}
	want := mode == Normal || mode == Silent || mode == Standby
	h.High = want && !h.pending
}

// Level returns the INH pin level for the given VSUP.
//
func (h *Inhibit) Level(vsup float64) Level {
	if !h.High {
		return Level{HighZ, 0}
	}
	v := vsup - INHDrop
	if v < 0 {
		v = 0
	}
	return Level{High, v}
}
