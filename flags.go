// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tcansim

import (
	"strconv"
	"strings"

	"github.com/db47h/tcansim/chip"
	"github.com/pkg/errors"
)

// Flag identifies a status or fault flag.
//
type Flag uint8

// Status and fault flags, in register order.
//
const (
	PWRON  Flag = iota // power-on, cleared on entering Normal
	WAKERQ             // wake-up request
	WAKESR             // wake source recognized
	UVSUP              // VSUP undervoltage
	UVCC               // VCC undervoltage
	UVIO               // VIO undervoltage
	CBF                // CAN bus failure
	TXDCLP             // TXD clamped dominant on entering Normal
	TXDDTO             // TXD dominant timeout
	TXDRXD             // TXD/RXD short
	CANDOM             // bus stuck dominant
	TSD                // thermal shutdown
	FlagCount
)

var flagNames = [...]string{"PWRON", "WAKERQ", "WAKESR", "UVSUP", "UVCC", "UVIO",
	"CBF", "TXDCLP", "TXDDTO", "TXDRXD", "CANDOM", "TSD"}

func (f Flag) String() string {
	if f < FlagCount {
		return flagNames[f]
	}
	return "Flag(" + strconv.Itoa(int(f)) + ")"
}

// ParseFlag returns the flag with the given name. The match is case
// insensitive.
//
func ParseFlag(s string) (Flag, error) {
	for i, n := range flagNames {
		if strings.EqualFold(n, s) {
			return Flag(i), nil
		}
	}
	return 0, errors.Errorf("unknown flag %q", s)
}

// faultFlag maps chip faults to flags.
//
var faultFlag = [chip.FaultCount]Flag{
	chip.FaultCBF:    CBF,
	chip.FaultTXDCLP: TXDCLP,
	chip.FaultTXDDTO: TXDDTO,
	chip.FaultTXDRXD: TXDRXD,
	chip.FaultCANDOM: CANDOM,
	chip.FaultTSD:    TSD,
}

// FaultFlag returns the flag reporting fault f.
//
func FaultFlag(f chip.Fault) Flag { return faultFlag[f] }

// Flags is a copy of all status and fault flags.
//
type Flags [FlagCount]bool

// Get returns the value of flag f.
//
func (fl Flags) Get(f Flag) bool { return fl[f] }

// Faults reports whether any of the six fault flags is set.
//
func (fl Flags) Faults() bool {
	for _, f := range faultFlag {
		if fl[f] {
			return true
		}
	}
	return false
}

func (fl Flags) String() string {
	var b strings.Builder
	for i, v := range fl {
		if !v {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('|')
		}
		b.WriteString(flagNames[i])
	}
	if b.Len() == 0 {
		return "none"
	}
	return b.String()
}

// Flags returns the current status and fault flags.
//
func (s *Simulator) Flags() Flags {
	var fl Flags
	fl[PWRON] = s.power.PowerOn
	fl[WAKERQ] = s.wake.WakeRq
	fl[WAKESR] = s.wake.WakeSR
	fl[UVSUP] = s.power.UVSUP
	fl[UVCC] = s.power.UVCC
	fl[UVIO] = s.power.UVIO
	for f, v := range s.faults.Flags {
		fl[faultFlag[f]] = v
	}
	return fl
}

// Flag returns the value of a single flag.
//
func (s *Simulator) Flag(f Flag) (bool, error) {
	if f >= FlagCount {
		return false, errors.Wrapf(ErrInvalidParameter, "flag %d", f)
	}
	fl := s.Flags()
	return fl[f], nil
}
