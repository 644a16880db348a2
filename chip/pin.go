// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package chip

import (
	"strconv"

	"github.com/pkg/errors"
)

// Pin identifies one of the 14 device pins.
//
type Pin uint8

// Device pins.
//
const (
	TXD Pin = iota
	RXD
	EN
	NSTB
	NFAULT
	WAKE
	INH
	INHMask
	CANH
	CANL
	VSUP
	VCC
	VIO
	GND
	PinCount
)

func (p Pin) String() string {
	if p < PinCount {
		return pinTable[p].Name
	}
	return "Pin(" + strconv.Itoa(int(p)) + ")"
}

// Valid reports whether p is one of the defined pins.
//
func (p Pin) Valid() bool { return p < PinCount }

// ParsePin returns the pin with the given name (see ParseMode for matching
// rules).
//
func ParsePin(s string) (Pin, error) {
	names := make([]string, PinCount)
	for i := range pinTable {
		names[i] = pinTable[i].Name
	}
	i, err := parseName("pin", s, names)
	return Pin(i), err
}

// PinState is the logical state of a pin.
//
type PinState uint8

// Pin states.
//
const (
	Low PinState = iota
	High
	HighZ
	Analog
	pinStateCount
)

var pinStateNames = [...]string{"Low", "High", "HighZ", "Analog"}

func (s PinState) String() string {
	if s < pinStateCount {
		return pinStateNames[s]
	}
	return "PinState(" + strconv.Itoa(int(s)) + ")"
}

// Valid reports whether s is one of the defined pin states.
//
func (s PinState) Valid() bool { return s < pinStateCount }

// ParsePinState returns the pin state with the given name. "HIGH_IMPEDANCE"
// is accepted as an alias for HighZ.
//
func ParsePinState(s string) (PinState, error) {
	if normalizeName(s) == "highimpedance" {
		return HighZ, nil
	}
	i, err := parseName("pin state", s, pinStateNames[:])
	return PinState(i), err
}

// Direction is a pin's direction capability.
//
type Direction uint8

// Pin directions.
//
const (
	Input Direction = 1 << iota
	Output
	Bidirectional = Input | Output
)

// IsInput returns true if the pin can be driven externally.
//
func (d Direction) IsInput() bool { return d&Input != 0 }

// IsOutput returns true if the pin is driven by the device.
//
func (d Direction) IsOutput() bool { return d&Output != 0 }

func (d Direction) String() string {
	switch d {
	case Input:
		return "in"
	case Output:
		return "out"
	case Bidirectional:
		return "inout"
	}
	return "Direction(" + strconv.Itoa(int(d)) + ")"
}

// PinInfo is the static description of a pin.
//
type PinInfo struct {
	Name    string
	Dir     Direction
	Min     float64 // minimum valid voltage
	Max     float64 // maximum valid voltage
	Default Level   // state after reset
}

var pinTable = [PinCount]PinInfo{
	TXD:     {"TXD", Input, 0, 5.5, Level{High, 0}},
	RXD:     {"RXD", Output, 0, 5.5, Level{High, 0}},
	EN:      {"EN", Input, 0, 5.5, Level{Low, 0}},
	NSTB:    {"nSTB", Input, 0, 5.5, Level{Low, 0}},
	NFAULT:  {"nFAULT", Output, 0, 5.5, Level{High, 0}},
	WAKE:    {"WAKE", Input, 0, 5.5, Level{Low, 0}},
	INH:     {"INH", Output, 0, 42, Level{HighZ, 0}},
	INHMask: {"INH_MASK", Input, 0, 5.5, Level{Low, 0}},
	CANH:    {"CANH", Bidirectional, -27, 42, Level{HighZ, 0}},
	CANL:    {"CANL", Bidirectional, -27, 42, Level{HighZ, 0}},
	VSUP:    {"VSUP", Input, 4.5, 42, Level{Analog, 12}},
	VCC:     {"VCC", Input, 4.5, 5.5, Level{Analog, 5}},
	VIO:     {"VIO", Input, 1.65, 5.5, Level{Analog, 3.3}},
	GND:     {"GND", Input, 0, 0, Level{Analog, 0}},
}

// Info returns the static description of pin p. It panics if p is not a
// valid pin.
//
func (p Pin) Info() PinInfo { return pinTable[p] }

// InRange reports whether v lies within the pin's static voltage range.
//
func (i *PinInfo) InRange(v float64) bool { return v >= i.Min && v <= i.Max }

// Level is the state and voltage of a pin.
//
type Level struct {
	State   PinState
	Voltage float64
}

// Pins is the pin store. The zero value is not usable, call Reset first.
//
type Pins [PinCount]Level

// Reset sets every pin to its default level.
//
func (ps *Pins) Reset() {
	for i := range ps {
		ps[i] = pinTable[i].Default
	}
}

// Get returns the level of pin p.
//
func (ps *Pins) Get(p Pin) Level { return ps[p] }

// Low returns true if pin p is in the Low state.
//
func (ps *Pins) Low(p Pin) bool { return ps[p].State == Low }

// High returns true if pin p is in the High state.
//
func (ps *Pins) High(p Pin) bool { return ps[p].State == High }

// Set sets the level of an input capable pin. The voltage must lie within the
// pin's range unless state is a digital state and v is zero. On error, the
// pin is left untouched.
//
func (ps *Pins) Set(p Pin, state PinState, v float64) error {
	if err := CheckSet(p, state, v); err != nil {
		return err
	}
	ps[p] = Level{state, v}
	return nil
}

// CheckSet returns the error Set would return for the same arguments.
//
func CheckSet(p Pin, state PinState, v float64) error {
	if !p.Valid() {
		return errors.Wrapf(ErrInvalidPin, "pin %d", p)
	}
	info := &pinTable[p]
	if !info.Dir.IsInput() {
		return errors.Wrapf(ErrNotInput, "pin %s", info.Name)
	}
	if !state.Valid() {
		return errors.Wrapf(ErrInvalidParameter, "pin %s: state %d", info.Name, state)
	}
	if (state == Analog || v != 0) && !info.InRange(v) {
		return errors.Wrapf(ErrInvalidVoltage, "pin %s: %gV not in [%g, %g]", info.Name, v, info.Min, info.Max)
	}
	return nil
}

// Validate reports whether v would be accepted for pin p in its current
// state.
//
func (ps *Pins) Validate(p Pin, v float64) bool {
	if !p.Valid() {
		return false
	}
	if ps[p].State != Analog && v == 0 {
		return true
	}
	return pinTable[p].InRange(v)
}

// Drive sets the level of any pin without checks. It is used by the device
// to drive its outputs and bus lines.
//
func (ps *Pins) Drive(p Pin, state PinState, v float64) {
	ps[p] = Level{state, v}
}
