// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package chip

// WakeSource is the origin of the last wake-up event.
//
type WakeSource uint8

// Wake sources.
//
const (
	WakeNone WakeSource = iota
	WakeRemote
	WakeLocal
)

var wakeSourceNames = [...]string{"None", "Remote", "Local"}

func (w WakeSource) String() string {
	if int(w) < len(wakeSourceNames) {
		return wakeSourceNames[w]
	}
	return "WakeSource(?)"
}

// WakeHandler detects remote wake-up patterns on the bus and local wake-up
// edges on the WAKE pin.
//
// A remote wake-up pattern is a dominant phase, a recessive phase and a
// second dominant phase, each held for at least the filter time, all within
// the wake timeout. A dominant level that arrives once the recessive phase
// has been held for the filter time is the start of the second dominant
// phase. The recessive and second dominant phases start with their first
// sample at the phase level.
//
type WakeHandler struct {
	WakeRq bool // wake request, cleared by Clear
	WakeSR bool // a wake source has been recognized
	Local  bool // last wake-up came from the WAKE pin
	WUP    WUPState

	phase   Timer
	window  Timer
	prevPin bool
}

// Reset clears all flags and puts the pattern recognizer in idle.
//
func (w *WakeHandler) Reset() { *w = WakeHandler{} }

// Source returns the origin of the last recognized wake-up.
//
func (w *WakeHandler) Source() WakeSource {
	switch {
	case !w.WakeSR:
		return WakeNone
	case w.Local:
		return WakeLocal
	}
	return WakeRemote
}

// Clear clears the wake request and resets the pattern recognizer. WakeSR is
// kept.
//
func (w *WakeHandler) Clear() {
	w.WakeRq = false
	w.resetWUP()
}

func (w *WakeHandler) resetWUP() {
	w.WUP = WUPIdle
	w.phase.Stop()
	w.window.Stop()
}

func (w *WakeHandler) wake(local bool) {
	w.WakeRq = true
	w.WakeSR = true
	w.Local = local
}

// Update runs the wake-up detection for one step. bus is the bus state before
// this step's drive, pin the WAKE pin level.
//
func (w *WakeHandler) Update(bus BusState, pin bool, mode Mode, now uint64, tm *Timing) {
	if mode == Standby || mode == Sleep {
		w.processWUP(bus, now, tm)
		if mode == Sleep && pin != w.prevPin {
			w.wake(true)
			w.resetWUP()
		}
	} else {
		w.resetWUP()
	}
	w.prevPin = pin
}

func (w *WakeHandler) processWUP(bus BusState, now uint64, tm *Timing) {
	if w.WUP != WUPIdle && w.WUP != WUPComplete && w.window.Expired(now, tm.WakeTimeout) {
		w.resetWUP()
		return
	}
	held := w.phase.Expired(now, tm.WakeFilter)

	switch w.WUP {
	case WUPIdle:
		if bus == Dominant {
			w.WUP = WUPFirstDominant
			w.phase.Restart(now)
			w.window.Restart(now)
		}
	case WUPFirstDominant:
		switch {
		case bus != Dominant:
			w.resetWUP()
		case held:
			// the recessive phase starts with its first recessive sample
			w.WUP = WUPRecessive
			w.phase.Stop()
		}
	case WUPRecessive:
		switch {
		case bus == Recessive && !w.phase.Running():
			w.phase.Restart(now)
		case bus == Recessive:
			if held {
				w.WUP = WUPSecondDominant
				w.phase.Stop()
			}
		case bus == Dominant && w.phase.Running():
			if !held {
				w.resetWUP()
				break
			}
			w.WUP = WUPSecondDominant
			w.phase.Restart(now)
		}
	case WUPSecondDominant:
		switch {
		case bus == Dominant && !w.phase.Running():
			w.phase.Restart(now)
		case bus == Dominant:
			if held {
				w.wake(false)
				w.WUP = WUPComplete
				w.phase.Stop()
				w.window.Stop()
			}
		case w.phase.Running():
			w.resetWUP()
		}
	}
}
