// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tcansim

import (
	"github.com/db47h/tcansim/chip"
)

// PollInterval is the step size used by RunUntil.
//
const PollInterval = chip.Microsecond

// Default environment.
//
const (
	DefaultTemperature    = 25.0    // °C
	DefaultBusResistance  = 60.0    // Ω
	DefaultBusCapacitance = 100e-12 // F
)

// device is the part of a Simulator captured by snapshots.
//
type device struct {
	clock  chip.Clock
	pins   chip.Pins
	power  chip.PowerMonitor
	mode   chip.ModeController
	xcvr   chip.Transceiver
	bias   chip.Bias
	faults chip.FaultDetector
	wake   chip.WakeHandler
	inh    chip.Inhibit

	temp   float64
	busR   float64
	busC   float64
	timing chip.Timing
	remote bool // bus held dominant by other nodes
}

func (d *device) reset() {
	d.clock.Reset()
	d.pins.Reset()
	d.power.Reset()
	d.mode.Reset()
	d.xcvr.Reset()
	d.bias.Reset()
	d.faults.Reset()
	d.wake.Reset()
	d.inh.Reset()
	d.temp = DefaultTemperature
	d.busR = DefaultBusResistance
	d.busC = DefaultBusCapacitance
	d.timing = chip.DefaultTiming
	d.remote = false
}

// Simulator is a simulated TCAN1463-Q1.
//
type Simulator struct {
	device

	handlers [eventKindCount][]handler
	nextID   HandlerID
	busy     bool
}

// New returns a new simulator in its reset state: Off mode, nominal supplies,
// 25°C.
//
func New() *Simulator {
	s := new(Simulator)
	s.reset()
	return s
}

// Reset puts the simulator back in its initial state at time 0. Registered
// callbacks are kept.
//
func (s *Simulator) Reset() {
	s.enter()
	defer s.leave()
	s.reset()
}

func (s *Simulator) enter() {
	if s.busy {
		panic("tcansim: simulator stepped, reset or restored from a callback")
	}
	s.busy = true
}

func (s *Simulator) leave() { s.busy = false }

// Now returns the current simulation time in nanoseconds.
//
func (s *Simulator) Now() uint64 { return s.clock.Now() }

// Mode returns the current operating mode.
//
func (s *Simulator) Mode() chip.Mode { return s.mode.Mode }

// PreviousMode returns the mode before the last transition.
//
func (s *Simulator) PreviousMode() chip.Mode { return s.mode.Previous }

// CANState returns the state of the CAN transceiver.
//
func (s *Simulator) CANState() chip.CANState { return s.xcvr.State }

// BiasState returns the state of the bus bias controller.
//
func (s *Simulator) BiasState() chip.BiasState { return s.bias.State }

// WUPState returns the state of the remote wake-up pattern recognizer.
//
func (s *Simulator) WUPState() chip.WUPState { return s.wake.WUP }

// WakeSource returns the origin of the last recognized wake-up.
//
func (s *Simulator) WakeSource() chip.WakeSource { return s.wake.Source() }

// DriverEnabled returns true if the CAN driver can drive the bus: the
// transceiver state machine enables it and no fault disables it.
//
func (s *Simulator) DriverEnabled() bool {
	return s.xcvr.DriverEnabled && !s.faults.DisablesDriver()
}

// ReceiverEnabled returns true if the CAN receiver is enabled.
//
func (s *Simulator) ReceiverEnabled() bool { return s.xcvr.ReceiverEnabled }

// BusIdle returns the time elapsed since the transceiver last saw a dominant
// bus, or since it was first updated if the bus has never been dominant.
//
func (s *Simulator) BusIdle() uint64 { return s.xcvr.LastActivity().Elapsed(s.Now()) }

// BiasSilence returns true if the bus has been silent for longer than the
// bias silence time.
//
func (s *Simulator) BiasSilence() bool { return s.bias.SilenceTimeout(s.Now()) }

// UndervoltagePending reports for VCC and VIO whether the rail is low and its
// undervoltage filter is running but has not expired yet.
//
func (s *Simulator) UndervoltagePending() (vcc, vio bool) {
	return s.power.UVCCFilter().Running() && !s.power.UVCC,
		s.power.UVIOFilter().Running() && !s.power.UVIO
}

// Bus returns the current bus state as seen on the CANH and CANL pins.
//
func (s *Simulator) Bus() chip.BusState {
	return chip.ClassifyBus(s.pins[chip.CANH].Voltage, s.pins[chip.CANL].Voltage)
}

// DriveBus sets the level driven onto the bus by the other nodes. While
// dominant is true, the bus reads dominant whatever the local driver does.
//
func (s *Simulator) DriveBus(dominant bool) { s.remote = dominant }

// RemoteDominant returns the level set by DriveBus.
//
func (s *Simulator) RemoteDominant() bool { return s.remote }

// Step advances the simulation by delta nanoseconds.
//
func (s *Simulator) Step(delta uint64) {
	s.enter()
	defer s.leave()

	var before observation
	s.observe(&before)

	t0 := s.clock.Now()
	s.clock.Advance(delta)
	now := s.clock.Now()

	txdLow := s.pins.Low(chip.TXD)
	in := chip.ModeInputs{
		EN:   s.pins.High(chip.EN),
		NSTB: s.pins.High(chip.NSTB),
	}
	wakeHigh := s.pins.High(chip.WAKE)
	maskHigh := s.pins.High(chip.INHMask)

	s.power.Update(s.pins[chip.VSUP].Voltage, s.pins[chip.VCC].Voltage, s.pins[chip.VIO].Voltage, now, s.timing.UVFilter)
	in.VSUPValid = s.power.VSUPValid()

	// the wake handler and the transceiver state machines see the bus as it
	// was at the end of the previous step.
	canh, canl := s.pins[chip.CANH].Voltage, s.pins[chip.CANL].Voltage
	prevBus := chip.ClassifyBus(canh, canl)
	s.wake.Update(prevBus, wakeHigh, s.mode.Mode, now, &s.timing)
	in.WakeRq = s.wake.WakeRq

	old := s.mode.Mode
	mode := s.mode.Update(in, now, s.timing.SleepSilence)
	enteredNormal := mode == chip.Normal && old != chip.Normal
	if enteredNormal {
		s.power.ClearPowerOn()
		s.wake.Clear()
	}

	s.xcvr.Update(mode, txdLow, canh, canl, now)
	s.xcvr.UpdateState(mode, prevBus, in.VSUPValid, now)
	s.bias.Update(s.xcvr.State, prevBus, now)

	if enteredNormal {
		s.faults.CheckClamp(txdLow, mode)
	}

	s.inh.Update(mode, maskHigh, in.WakeRq, now)

	// drive, read back, then schedule RXD. Do not reorder.
	s.driveBus(txdLow)
	bus := s.Bus()
	s.xcvr.UpdateRXD(bus, now, t0)

	s.faults.Update(&chip.FaultInputs{
		Mode:   mode,
		TXDLow: txdLow,
		RXDLow: !s.xcvr.RXD,
		Bus:    bus,
		Temp:   s.temp,
	}, now, &s.timing)

	s.writeOutputs()
	s.notify(&before)
}

func (s *Simulator) driveBus(txdLow bool) {
	switch {
	case s.DriverEnabled():
		h, l := s.xcvr.Drive(txdLow)
		s.pins.Drive(chip.CANH, chip.Analog, h)
		s.pins.Drive(chip.CANL, chip.Analog, l)
	case s.bias.State != chip.BiasOff:
		h, l := s.bias.Voltages(s.power.VCC)
		s.pins.Drive(chip.CANH, chip.Analog, h)
		s.pins.Drive(chip.CANL, chip.Analog, l)
	default:
		s.pins.Drive(chip.CANH, chip.HighZ, 0)
		s.pins.Drive(chip.CANL, chip.HighZ, 0)
	}
	if s.remote {
		s.pins.Drive(chip.CANH, chip.Analog, chip.CANHDominant)
		s.pins.Drive(chip.CANL, chip.Analog, chip.CANLDominant)
	}
}

func (s *Simulator) writeOutputs() {
	vio := s.pins[chip.VIO].Voltage
	if s.xcvr.RXD {
		s.pins.Drive(chip.RXD, chip.High, vio)
	} else {
		s.pins.Drive(chip.RXD, chip.Low, 0)
	}
	if s.faults.Any() || s.wake.WakeRq {
		s.pins.Drive(chip.NFAULT, chip.Low, 0)
	} else {
		s.pins.Drive(chip.NFAULT, chip.High, vio)
	}
	l := s.inh.Level(s.pins[chip.VSUP].Voltage)
	s.pins.Drive(chip.INH, l.State, l.Voltage)
}

// A Condition reports whether RunUntil should stop.
//
type Condition func(s *Simulator) bool

// RunUntil steps the simulation by PollInterval until cond returns true or
// timeout nanoseconds have elapsed. It returns the last value returned by
// cond, which is checked once more after the timeout.
//
func (s *Simulator) RunUntil(cond Condition, timeout uint64) bool {
	if s.busy {
		panic("tcansim: RunUntil called from a callback")
	}
	start := s.clock.Now()
	for s.clock.Now()-start < timeout {
		if cond(s) {
			return true
		}
		s.Step(PollInterval)
	}
	return cond(s)
}

// Run advances the simulation by d nanoseconds in steps of at most step
// nanoseconds. A zero step runs a single step of d.
//
func (s *Simulator) Run(d, step uint64) {
	if step == 0 || step >= d {
		s.Step(d)
		return
	}
	for d >= step {
		s.Step(step)
		d -= step
	}
	if d > 0 {
		s.Step(d)
	}
}
