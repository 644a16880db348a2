// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tcansim

import (
	"strconv"

	"github.com/db47h/tcansim/chip"
	"github.com/pkg/errors"
)

// EventKind is the category of an Event.
//
type EventKind uint8

// Event kinds.
//
const (
	ModeChange EventKind = iota
	FaultDetected
	WakeUp
	PinChange
	FlagChange
	eventKindCount
)

var eventNames = [...]string{"ModeChange", "FaultDetected", "WakeUp", "PinChange", "FlagChange"}

func (k EventKind) String() string {
	if k < eventKindCount {
		return eventNames[k]
	}
	return "EventKind(" + strconv.Itoa(int(k)) + ")"
}

// Event describes a change that occurred during a step. Only the fields
// relevant to Kind are set.
//
type Event struct {
	Kind EventKind
	Time uint64 // simulation time at the end of the step

	OldMode chip.Mode // ModeChange
	Mode    chip.Mode // ModeChange

	Fault  chip.Fault      // FaultDetected
	Flag   Flag            // FaultDetected and FlagChange
	Set    bool            // FaultDetected and FlagChange: new value of the flag
	Source chip.WakeSource // WakeUp

	Pin      chip.Pin   // PinChange
	Old, New chip.Level // PinChange
}

// A Callback receives events along with the context given to Register.
//
// Callbacks run synchronously from within Step. They may query the simulator
// and register or unregister callbacks but must not call Step, RunUntil,
// Reset or Restore, which panic if they do.
//
type Callback func(e *Event, ctx interface{})

// HandlerID identifies a callback registration.
//
type HandlerID uint64

type handler struct {
	id  HandlerID
	fn  Callback
	ctx interface{}
}

// Register adds a callback for events of the given kind. The same function
// may be registered several times, each registration gets its own id.
//
func (s *Simulator) Register(kind EventKind, fn Callback, ctx interface{}) (HandlerID, error) {
	if kind >= eventKindCount {
		return 0, errors.Wrapf(ErrInvalidEvent, "event kind %d", kind)
	}
	if fn == nil {
		return 0, errors.Wrap(ErrInvalidParameter, "nil callback")
	}
	s.nextID++
	s.handlers[kind] = append(s.handlers[kind], handler{s.nextID, fn, ctx})
	return s.nextID, nil
}

// Unregister removes the registration id from the callbacks of the given kind.
//
func (s *Simulator) Unregister(kind EventKind, id HandlerID) error {
	if kind >= eventKindCount {
		return errors.Wrapf(ErrInvalidEvent, "event kind %d", kind)
	}
	hs := s.handlers[kind]
	for i := range hs {
		if hs[i].id == id {
			// build a new slice so that a dispatch in progress is not
			// affected.
			n := make([]handler, 0, len(hs)-1)
			n = append(n, hs[:i]...)
			s.handlers[kind] = append(n, hs[i+1:]...)
			return nil
		}
	}
	return errors.Wrapf(ErrInvalidParameter, "no %v handler with id %d", kind, id)
}

// observation is the observable device state compared before and after a
// step.
//
type observation struct {
	mode  chip.Mode
	flags Flags
	pins  chip.Pins
}

func (s *Simulator) observe(o *observation) {
	o.mode = s.mode.Mode
	o.flags = s.Flags()
	o.pins = s.pins
}

func (s *Simulator) fire(e *Event) {
	for _, h := range s.handlers[e.Kind] {
		h.fn(e, h.ctx)
	}
}

func (s *Simulator) hasHandlers() bool {
	for i := range s.handlers {
		if len(s.handlers[i]) > 0 {
			return true
		}
	}
	return false
}

// notify fires events for every difference between before and the current
// state, in order: mode, wake-up, faults, flags, pins.
//
func (s *Simulator) notify(before *observation) {
	if !s.hasHandlers() {
		return
	}
	now := s.clock.Now()
	flags := s.Flags()

	if m := s.mode.Mode; m != before.mode {
		s.fire(&Event{Kind: ModeChange, Time: now, OldMode: before.mode, Mode: m})
	}
	if flags[WAKERQ] && !before.flags[WAKERQ] {
		s.fire(&Event{Kind: WakeUp, Time: now, Source: s.wake.Source()})
	}
	for f := chip.Fault(0); f < chip.FaultCount; f++ {
		fl := faultFlag[f]
		if flags[fl] != before.flags[fl] {
			s.fire(&Event{Kind: FaultDetected, Time: now, Fault: f, Flag: fl, Set: flags[fl]})
		}
	}
	for f := Flag(0); f < FlagCount; f++ {
		if flags[f] != before.flags[f] {
			s.fire(&Event{Kind: FlagChange, Time: now, Flag: f, Set: flags[f]})
		}
	}
	for p := chip.Pin(0); p < chip.PinCount; p++ {
		if old, cur := before.pins[p], s.pins[p]; old != cur {
			s.fire(&Event{Kind: PinChange, Time: now, Pin: p, Old: old, New: cur})
		}
	}
}
