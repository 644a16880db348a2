// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package chip models the functional blocks of a TCAN1463-Q1 CAN transceiver.
//
// Each block is a plain value type with an Update method taking its inputs
// and the current simulation time in nanoseconds. Blocks never call each
// other: the tcansim package owns one instance of each and updates them in
// causal order every step.
//
// All enumerations have fixed ordinals that bindings may mirror 1:1.
//
package chip

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Mode is an operating mode of the device.
//
type Mode uint8

// Operating modes.
//
const (
	Normal Mode = iota
	Silent
	Standby
	GoToSleep
	Sleep
	Off
	ModeCount
)

var modeNames = [...]string{"Normal", "Silent", "Standby", "GoToSleep", "Sleep", "Off"}

func (m Mode) String() string {
	if m < ModeCount {
		return modeNames[m]
	}
	return "Mode(" + strconv.Itoa(int(m)) + ")"
}

// Valid reports whether m is one of the defined modes.
//
func (m Mode) Valid() bool { return m < ModeCount }

// Active returns true in the two modes where the CAN transceiver is fully
// powered (Normal and Silent).
//
func (m Mode) Active() bool { return m == Normal || m == Silent }

// ParseMode returns the Mode with the given name. Matching ignores case,
// underscores and dashes, so "GO_TO_SLEEP" and "go-to-sleep" both work.
//
func ParseMode(s string) (Mode, error) {
	i, err := parseName("mode", s, modeNames[:])
	return Mode(i), err
}

// BusState is the classification of the differential bus voltage.
//
type BusState uint8

// Bus states.
//
const (
	Dominant BusState = iota
	Recessive
	Indeterminate
)

var busNames = [...]string{"Dominant", "Recessive", "Indeterminate"}

func (b BusState) String() string {
	if int(b) < len(busNames) {
		return busNames[b]
	}
	return "BusState(" + strconv.Itoa(int(b)) + ")"
}

// CANState is the state of the CAN transceiver state machine.
//
type CANState uint8

// CAN transceiver states.
//
const (
	CANOff CANState = iota
	AutonomousInactive
	AutonomousActive
	CANActive
)

var canNames = [...]string{"Off", "AutonomousInactive", "AutonomousActive", "Active"}

func (c CANState) String() string {
	if int(c) < len(canNames) {
		return canNames[c]
	}
	return "CANState(" + strconv.Itoa(int(c)) + ")"
}

// WUPState is the state of the remote wake-up pattern recognizer.
//
type WUPState uint8

// Wake-up pattern states.
//
const (
	WUPIdle WUPState = iota
	WUPFirstDominant
	WUPRecessive
	WUPSecondDominant
	WUPComplete
)

var wupNames = [...]string{"Idle", "FirstDominant", "Recessive", "SecondDominant", "Complete"}

func (w WUPState) String() string {
	if int(w) < len(wupNames) {
		return wupNames[w]
	}
	return "WUPState(" + strconv.Itoa(int(w)) + ")"
}

// Fault identifies one of the six fault conditions.
//
type Fault uint8

// Faults, in reporting order.
//
const (
	FaultCBF    Fault = iota // bus fault streak
	FaultTXDCLP              // TXD clamped low on Normal entry
	FaultTXDDTO              // TXD dominant timeout
	FaultTXDRXD              // TXD to RXD short
	FaultCANDOM              // bus dominant timeout
	FaultTSD                 // thermal shutdown
	FaultCount
)

var faultNames = [...]string{"CBF", "TXDCLP", "TXDDTO", "TXDRXD", "CANDOM", "TSD"}

func (f Fault) String() string {
	if f < FaultCount {
		return faultNames[f]
	}
	return "Fault(" + strconv.Itoa(int(f)) + ")"
}

func normalizeName(s string) string {
	s = strings.ToLower(s)
	s = strings.Replace(s, "_", "", -1)
	return strings.Replace(s, "-", "", -1)
}

func parseName(kind, s string, names []string) (int, error) {
	n := normalizeName(s)
	for i, name := range names {
		if normalizeName(name) == n {
			return i, nil
		}
	}
	return 0, errors.Errorf("unknown %s %q", kind, s)
}
