// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package scenario

import (
	"sort"

	"github.com/db47h/tcansim"
	"github.com/db47h/tcansim/chip"
	"github.com/pkg/errors"
)

var builtins = map[string]func() *Scenario{
	"power-up":              PowerUp,
	"normal-to-sleep":       NormalToSleep,
	"txd-timeout":           TXDTimeout,
	"remote-wakeup":         RemoteWakeUp,
	"local-wakeup":          LocalWakeUp,
	"undervoltage-recovery": UndervoltageRecovery,
}

// Names returns the sorted names of the built-in scenarios.
//
func Names() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Builtin returns a new instance of the named built-in scenario.
//
func Builtin(name string) (*Scenario, error) {
	fn, ok := builtins[name]
	if !ok {
		return nil, errors.Errorf("unknown scenario %q", name)
	}
	return fn(), nil
}

func supplies(vsup, vcc, vio float64) tcansim.Config {
	c := tcansim.DefaultConfig()
	c.VSUP, c.VCC, c.VIO = vsup, vcc, vio
	return c
}

func (sc *Scenario) powerUp() *Scenario {
	return sc.
		Configure("nominal supplies", supplies(chip.NominalVSUP, chip.NominalVCC, chip.NominalVIO)).
		Wait("power-up time", chip.TPowerUp).
		SetPin("EN high", chip.EN, chip.High, chip.NominalVIO).
		SetPin("nSTB high", chip.NSTB, chip.High, chip.NominalVIO).
		Wait("mode change", chip.TMode)
}

func (sc *Scenario) sleep() *Scenario {
	return sc.
		SetPin("nSTB low", chip.NSTB, chip.Low, 0).
		Wait("mode change", chip.Microsecond).
		CheckMode("in Go-to-Sleep mode", chip.GoToSleep).
		Wait("bus silence", chip.Second).
		CheckMode("in Sleep mode", chip.Sleep)
}

// PowerUp brings the device from Off to Normal mode.
//
func PowerUp() *Scenario {
	return New("power-up", "Power up from Off to Normal mode").
		powerUp().
		CheckMode("in Normal mode", chip.Normal).
		CheckFlag("power-on flag cleared", tcansim.PWRON, false).
		CheckPin("INH high", chip.INH, chip.High)
}

// NormalToSleep moves from Normal to Sleep mode through Go-to-Sleep.
//
func NormalToSleep() *Scenario {
	return New("normal-to-sleep", "Normal to Sleep mode through Go-to-Sleep").
		powerUp().
		CheckMode("in Normal mode", chip.Normal).
		sleep().
		CheckPin("INH released", chip.INH, chip.HighZ)
}

// TXDTimeout holds TXD dominant until the TXD dominant timeout fault sets.
//
func TXDTimeout() *Scenario {
	return New("txd-timeout", "TXD dominant timeout detection").
		powerUp().
		CheckMode("in Normal mode", chip.Normal).
		SetPin("TXD dominant", chip.TXD, chip.Low, 0).
		Wait("past the timeout", 3*chip.Millisecond).
		CheckFlag("TXD dominant timeout", tcansim.TXDDTO, true).
		CheckPin("nFAULT low", chip.NFAULT, chip.Low)
}

// RemoteWakeUp wakes the device from Sleep with a bus wake-up pattern.
//
func RemoteWakeUp() *Scenario {
	return New("remote-wakeup", "Remote wake-up from Sleep mode with a wake-up pattern").
		powerUp().
		sleep().
		DriveBus("first dominant phase", true).
		Wait("filter", 20*chip.Microsecond).
		DriveBus("recessive phase", false).
		Wait("filter", 20*chip.Microsecond).
		DriveBus("second dominant phase", true).
		Wait("filter", 20*chip.Microsecond).
		DriveBus("release bus", false).
		Wait("settle", 20*chip.Microsecond).
		CheckMode("in Standby mode", chip.Standby).
		CheckFlag("wake request", tcansim.WAKERQ, true).
		CheckFlag("wake source recognized", tcansim.WAKESR, true)
}

// LocalWakeUp wakes the device from Sleep with an edge on the WAKE pin.
//
func LocalWakeUp() *Scenario {
	return New("local-wakeup", "Local wake-up from Sleep mode on the WAKE pin").
		powerUp().
		sleep().
		SetPin("WAKE high", chip.WAKE, chip.High, chip.NominalVIO).
		Wait("wake-up", 10*chip.Microsecond).
		CheckMode("in Standby mode", chip.Standby).
		CheckFlag("wake request", tcansim.WAKERQ, true).
		CheckFlag("wake source recognized", tcansim.WAKESR, true).
		CheckPin("nFAULT low", chip.NFAULT, chip.Low)
}

// UndervoltageRecovery drops and restores VCC then VSUP.
//
func UndervoltageRecovery() *Scenario {
	return New("undervoltage-recovery", "Undervoltage detection and recovery on VCC and VSUP").
		powerUp().
		CheckMode("in Normal mode", chip.Normal).
		Configure("VCC low", supplies(chip.NominalVSUP, 3, chip.NominalVIO)).
		Wait("undervoltage filter", 150*chip.Millisecond).
		CheckFlag("VCC undervoltage", tcansim.UVCC, true).
		Configure("VCC restored", supplies(chip.NominalVSUP, chip.NominalVCC, chip.NominalVIO)).
		Wait("recovery", 10*chip.Microsecond).
		CheckFlag("VCC undervoltage cleared", tcansim.UVCC, false).
		Configure("VSUP low", supplies(3, chip.NominalVCC, chip.NominalVIO)).
		Wait("detection", 10*chip.Microsecond).
		CheckMode("in Off mode", chip.Off).
		CheckFlag("VSUP undervoltage", tcansim.UVSUP, true).
		Configure("VSUP restored", supplies(chip.NominalVSUP, chip.NominalVCC, chip.NominalVIO)).
		Wait("recovery", 10*chip.Microsecond).
		CheckMode("back in Normal mode", chip.Normal).
		CheckFlag("power-on flag cleared", tcansim.PWRON, false)
}
