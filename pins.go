// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tcansim

import (
	"github.com/db47h/tcansim/chip"
	"github.com/pkg/errors"
)

// PinLevel associates a pin with a level. It is used by the batch accessors.
//
type PinLevel struct {
	Pin chip.Pin
	chip.Level
}

// SetPin sets the state and voltage of an input capable pin. The new level is
// sampled by the next call to Step.
//
// Output only pins are rejected with ErrNotInput. Voltages outside the pin's
// static range are rejected with ErrInvalidVoltage, except for a zero voltage
// with a digital state.
//
func (s *Simulator) SetPin(p chip.Pin, state chip.PinState, v float64) error {
	return s.pins.Set(p, state, v)
}

// Pin returns the current level of pin p.
//
func (s *Simulator) Pin(p chip.Pin) (chip.Level, error) {
	if !p.Valid() {
		return chip.Level{}, errors.Wrapf(ErrInvalidPin, "pin %d", p)
	}
	return s.pins.Get(p), nil
}

// SetPins sets several pins at once. Either all levels are applied or, if any
// of them is rejected, none is.
//
func (s *Simulator) SetPins(levels ...PinLevel) error {
	for i := range levels {
		l := &levels[i]
		if err := chip.CheckSet(l.Pin, l.State, l.Voltage); err != nil {
			return err
		}
	}
	for _, l := range levels {
		s.pins.Drive(l.Pin, l.State, l.Voltage)
	}
	return nil
}

// Pins returns the levels of the requested pins, or of all pins if none is
// given.
//
func (s *Simulator) Pins(pins ...chip.Pin) ([]PinLevel, error) {
	if len(pins) == 0 {
		r := make([]PinLevel, chip.PinCount)
		for i := range r {
			p := chip.Pin(i)
			r[i] = PinLevel{p, s.pins.Get(p)}
		}
		return r, nil
	}
	r := make([]PinLevel, len(pins))
	for i, p := range pins {
		l, err := s.Pin(p)
		if err != nil {
			return nil, err
		}
		r[i] = PinLevel{p, l}
	}
	return r, nil
}

// PinInfo returns the static description of pin p.
//
func PinInfo(p chip.Pin) (chip.PinInfo, error) {
	if !p.Valid() {
		return chip.PinInfo{}, errors.Wrapf(ErrInvalidPin, "pin %d", p)
	}
	return p.Info(), nil
}

// ValidatePin reports whether SetPin would accept voltage v for pin p in its
// current state.
//
func (s *Simulator) ValidatePin(p chip.Pin, v float64) bool {
	return s.pins.Validate(p, v)
}
