// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package handle exposes simulators and snapshots through integer handles, the
// shape expected by foreign function bindings. Enumerations are passed as
// plain integers and every error maps to a stable integer code.
//
package handle

import (
	"sync"

	"github.com/db47h/tcansim"
	"github.com/db47h/tcansim/chip"
	"github.com/pkg/errors"
)

// Handle layer errors.
//
var (
	ErrInvalidHandle     = errors.New("invalid handle")
	ErrInvalidState      = errors.New("invalid state")
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrInvalidMode       = errors.New("invalid mode")
	ErrNullPointer       = errors.New("null pointer")
)

// Error codes.
//
const (
	OK                  = 0
	CodeInvalidHandle   = -1
	CodeInvalidPin      = -2
	CodeInvalidVoltage  = -3
	CodeInvalidMode     = -4
	CodeInvalidParam    = -5
	CodeOutOfMemory     = -6
	CodeNullPointer     = -7
	CodeInvalidState    = -8
	CodeInvalidSnapshot = -9
)

var codes = map[error]int{
	ErrInvalidHandle:            CodeInvalidHandle,
	ErrInvalidState:             CodeInvalidState,
	ErrResourceExhausted:        CodeOutOfMemory,
	ErrInvalidMode:              CodeInvalidMode,
	ErrNullPointer:              CodeNullPointer,
	tcansim.ErrInvalidPin:       CodeInvalidPin,
	tcansim.ErrNotInput:         CodeInvalidPin,
	tcansim.ErrInvalidVoltage:   CodeInvalidVoltage,
	tcansim.ErrInvalidParameter: CodeInvalidParam,
	tcansim.ErrInvalidEvent:     CodeInvalidParam,
	tcansim.ErrInvalidSnapshot:  CodeInvalidSnapshot,
}

// Code returns the integer code for err: 0 for nil, CodeInvalidParam for
// errors that do not wrap a known sentinel.
//
func Code(err error) int {
	if err == nil {
		return OK
	}
	if c, ok := codes[errors.Cause(err)]; ok {
		return c
	}
	return CodeInvalidParam
}

// Handle identifies a simulator in a Registry. Valid handles are > 0.
//
type Handle int32

// SnapshotHandle identifies a snapshot in a Registry. Valid handles are > 0.
//
type SnapshotHandle int32

// DefaultCapacity is the capacity of a Registry created with a zero capacity.
//
const DefaultCapacity = 64

type entry struct {
	sim  *tcansim.Simulator
	busy bool
}

// Registry owns simulators and snapshots. It is safe for concurrent use:
// different simulators can be stepped concurrently, while calls on a
// simulator that is being stepped fail with ErrInvalidState.
//
type Registry struct {
	mu       sync.Mutex
	capacity int
	sims     map[Handle]*entry
	snaps    map[SnapshotHandle]*tcansim.Snapshot
	lastSim  Handle
	lastSnap SnapshotHandle
}

// NewRegistry returns a registry holding at most capacity simulators and
// capacity snapshots.
//
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Registry{
		capacity: capacity,
		sims:     make(map[Handle]*entry),
		snaps:    make(map[SnapshotHandle]*tcansim.Snapshot),
	}
}

// Create creates a new simulator.
//
func (r *Registry) Create() (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sims) >= r.capacity {
		return 0, errors.Wrapf(ErrResourceExhausted, "%d simulators", len(r.sims))
	}
	r.lastSim++
	r.sims[r.lastSim] = &entry{sim: tcansim.New()}
	return r.lastSim, nil
}

// Destroy releases a simulator.
//
func (r *Registry) Destroy(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, err := r.entry(h)
	if err != nil {
		return err
	}
	if e.busy {
		return errors.Wrapf(ErrInvalidState, "handle %d is busy", h)
	}
	delete(r.sims, h)
	return nil
}

// Len returns the number of live simulators and snapshots.
//
func (r *Registry) Len() (sims, snaps int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sims), len(r.snaps)
}

func (r *Registry) entry(h Handle) (*entry, error) {
	e, ok := r.sims[h]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidHandle, "handle %d", h)
	}
	return e, nil
}

// do calls fn with the simulator for h while holding the registry lock.
func (r *Registry) do(h Handle, fn func(s *tcansim.Simulator) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, err := r.entry(h)
	if err != nil {
		return err
	}
	if e.busy {
		return errors.Wrapf(ErrInvalidState, "handle %d is busy", h)
	}
	return fn(e.sim)
}

// Get returns the simulator for h. The caller must not use it concurrently
// with calls on the registry for the same handle.
//
func (r *Registry) Get(h Handle) (s *tcansim.Simulator, err error) {
	err = r.do(h, func(sim *tcansim.Simulator) error {
		s = sim
		return nil
	})
	return s, err
}

// SetPin sets the state and voltage of pin on simulator h.
//
func (r *Registry) SetPin(h Handle, pin, state int, v float64) error {
	if pin < 0 || pin >= int(chip.PinCount) {
		return errors.Wrapf(tcansim.ErrInvalidPin, "pin %d", pin)
	}
	if state < 0 || !chip.PinState(state).Valid() {
		return errors.Wrapf(tcansim.ErrInvalidParameter, "pin state %d", state)
	}
	return r.do(h, func(s *tcansim.Simulator) error {
		return s.SetPin(chip.Pin(pin), chip.PinState(state), v)
	})
}

// GetPin returns the state and voltage of pin on simulator h.
//
func (r *Registry) GetPin(h Handle, pin int) (state int, v float64, err error) {
	if pin < 0 || pin >= int(chip.PinCount) {
		return 0, 0, errors.Wrapf(tcansim.ErrInvalidPin, "pin %d", pin)
	}
	err = r.do(h, func(s *tcansim.Simulator) error {
		l, err := s.Pin(chip.Pin(pin))
		state, v = int(l.State), l.Voltage
		return err
	})
	return state, v, err
}

// Step advances simulator h by delta nanoseconds. The registry lock is not
// held while stepping.
//
func (r *Registry) Step(h Handle, delta uint64) error {
	e, err := r.acquire(h)
	if err != nil {
		return err
	}
	defer r.release(e)
	e.sim.Step(delta)
	return nil
}

// RunUntilMode steps simulator h until it reaches mode or timeout nanoseconds
// have elapsed. It returns true if the mode was reached.
//
func (r *Registry) RunUntilMode(h Handle, mode int, timeout uint64) (bool, error) {
	if mode < 0 || !chip.Mode(mode).Valid() {
		return false, errors.Wrapf(ErrInvalidMode, "mode %d", mode)
	}
	e, err := r.acquire(h)
	if err != nil {
		return false, err
	}
	defer r.release(e)
	m := chip.Mode(mode)
	return e.sim.RunUntil(func(s *tcansim.Simulator) bool { return s.Mode() == m }, timeout), nil
}

func (r *Registry) acquire(h Handle) (*entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, err := r.entry(h)
	if err != nil {
		return nil, err
	}
	if e.busy {
		return nil, errors.Wrapf(ErrInvalidState, "handle %d is busy", h)
	}
	e.busy = true
	return e, nil
}

func (r *Registry) release(e *entry) {
	r.mu.Lock()
	e.busy = false
	r.mu.Unlock()
}

// Mode returns the operating mode of simulator h.
//
func (r *Registry) Mode(h Handle) (mode int, err error) {
	err = r.do(h, func(s *tcansim.Simulator) error {
		mode = int(s.Mode())
		return nil
	})
	return mode, err
}

// Flags returns the flags of simulator h as a bit mask, bit n being
// tcansim.Flag(n).
//
func (r *Registry) Flags(h Handle) (mask uint32, err error) {
	err = r.do(h, func(s *tcansim.Simulator) error {
		for i, v := range s.Flags() {
			if v {
				mask |= 1 << uint(i)
			}
		}
		return nil
	})
	return mask, err
}

// Register registers a callback on simulator h for events of the given kind.
// The callback runs on the goroutine stepping the simulator and must not call
// back into the registry for the same handle.
//
func (r *Registry) Register(h Handle, kind int, fn tcansim.Callback, ctx interface{}) (tcansim.HandlerID, error) {
	if fn == nil {
		return 0, errors.Wrap(ErrNullPointer, "callback")
	}
	if kind < 0 || kind > 255 {
		return 0, errors.Wrapf(tcansim.ErrInvalidEvent, "event %d", kind)
	}
	var id tcansim.HandlerID
	err := r.do(h, func(s *tcansim.Simulator) (err error) {
		id, err = s.Register(tcansim.EventKind(kind), fn, ctx)
		return err
	})
	return id, err
}

// Unregister removes a callback from simulator h.
//
func (r *Registry) Unregister(h Handle, kind int, id tcansim.HandlerID) error {
	if kind < 0 || kind > 255 {
		return errors.Wrapf(tcansim.ErrInvalidEvent, "event %d", kind)
	}
	return r.do(h, func(s *tcansim.Simulator) error {
		return s.Unregister(tcansim.EventKind(kind), id)
	})
}

// Snapshot captures the state of simulator h.
//
func (r *Registry) Snapshot(h Handle) (SnapshotHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, err := r.entry(h)
	if err != nil {
		return 0, err
	}
	if e.busy {
		return 0, errors.Wrapf(ErrInvalidState, "handle %d is busy", h)
	}
	if len(r.snaps) >= r.capacity {
		return 0, errors.Wrapf(ErrResourceExhausted, "%d snapshots", len(r.snaps))
	}
	r.lastSnap++
	r.snaps[r.lastSnap] = e.sim.Snapshot()
	return r.lastSnap, nil
}

// Restore restores a snapshot into simulator h. A snapshot can be restored
// any number of times and into any simulator.
//
func (r *Registry) Restore(h Handle, sh SnapshotHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sn, ok := r.snaps[sh]
	if !ok {
		return errors.Wrapf(tcansim.ErrInvalidSnapshot, "snapshot handle %d", sh)
	}
	e, err := r.entry(h)
	if err != nil {
		return err
	}
	if e.busy {
		return errors.Wrapf(ErrInvalidState, "handle %d is busy", h)
	}
	return e.sim.Restore(sn)
}

// SnapshotSize returns the size in bytes of a snapshot.
//
func (r *Registry) SnapshotSize(sh SnapshotHandle) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sn, ok := r.snaps[sh]
	if !ok {
		return 0, errors.Wrapf(tcansim.ErrInvalidSnapshot, "snapshot handle %d", sh)
	}
	return sn.Size(), nil
}

// FreeSnapshot releases a snapshot.
//
func (r *Registry) FreeSnapshot(sh SnapshotHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.snaps[sh]; !ok {
		return errors.Wrapf(tcansim.ErrInvalidSnapshot, "snapshot handle %d", sh)
	}
	delete(r.snaps, sh)
	return nil
}

// Reset resets simulator h to its power-on state. Registered callbacks are
// kept.
//
func (r *Registry) Reset(h Handle) error {
	return r.do(h, func(s *tcansim.Simulator) error {
		s.Reset()
		return nil
	})
}

// PinValue is the state and voltage of a pin, with enumerations as integers.
//
type PinValue struct {
	Pin     int
	State   int
	Voltage float64
}

func checkPin(pin int) error {
	if pin < 0 || pin >= int(chip.PinCount) {
		return errors.Wrapf(tcansim.ErrInvalidPin, "pin %d", pin)
	}
	return nil
}

// SetPins sets several pins at once. Either all pins are set or, on error,
// none is.
//
func (r *Registry) SetPins(h Handle, values []PinValue) error {
	levels := make([]tcansim.PinLevel, len(values))
	for i, v := range values {
		if err := checkPin(v.Pin); err != nil {
			return err
		}
		if v.State < 0 || !chip.PinState(v.State).Valid() {
			return errors.Wrapf(tcansim.ErrInvalidParameter, "pin state %d", v.State)
		}
		levels[i] = tcansim.PinLevel{Pin: chip.Pin(v.Pin), Level: chip.Level{State: chip.PinState(v.State), Voltage: v.Voltage}}
	}
	return r.do(h, func(s *tcansim.Simulator) error {
		return s.SetPins(levels...)
	})
}

// GetPins returns the levels of the given pins, or of all pins if none is
// given.
//
func (r *Registry) GetPins(h Handle, pins ...int) ([]PinValue, error) {
	ps := make([]chip.Pin, len(pins))
	for i, p := range pins {
		if err := checkPin(p); err != nil {
			return nil, err
		}
		ps[i] = chip.Pin(p)
	}
	var values []PinValue
	err := r.do(h, func(s *tcansim.Simulator) error {
		levels, err := s.Pins(ps...)
		if err != nil {
			return err
		}
		values = make([]PinValue, len(levels))
		for i, l := range levels {
			values[i] = PinValue{int(l.Pin), int(l.State), l.Voltage}
		}
		return nil
	})
	return values, err
}

// PinInfo returns the static description of a pin.
//
func (r *Registry) PinInfo(pin int) (chip.PinInfo, error) {
	if err := checkPin(pin); err != nil {
		return chip.PinInfo{}, err
	}
	return tcansim.PinInfo(chip.Pin(pin))
}

// RunUntil steps simulator h until cond returns true or timeout nanoseconds
// have elapsed. It returns the last value returned by cond.
//
func (r *Registry) RunUntil(h Handle, cond tcansim.Condition, timeout uint64) (bool, error) {
	if cond == nil {
		return false, errors.Wrap(ErrNullPointer, "condition")
	}
	e, err := r.acquire(h)
	if err != nil {
		return false, err
	}
	defer r.release(e)
	return e.sim.RunUntil(cond, timeout), nil
}

// supplyError reports supply range errors as voltage errors.
func supplyError(err error) error {
	if errors.Cause(err) == tcansim.ErrInvalidParameter {
		return errors.Wrap(tcansim.ErrInvalidVoltage, err.Error())
	}
	return err
}

// Configure applies a complete configuration to simulator h.
//
func (r *Registry) Configure(h Handle, c tcansim.Config) error {
	if err := tcansim.ValidateSupplyVoltages(c.VSUP, c.VCC, c.VIO); err != nil {
		return supplyError(err)
	}
	return r.do(h, func(s *tcansim.Simulator) error {
		return s.Configure(c)
	})
}

// SetSupplyVoltages sets the supply rails of simulator h. Voltages below the
// operating range of the supply pins are accepted.
//
func (r *Registry) SetSupplyVoltages(h Handle, vsup, vcc, vio float64) error {
	return r.do(h, func(s *tcansim.Simulator) error {
		return supplyError(s.SetSupplyVoltages(vsup, vcc, vio))
	})
}

// SetTemperature sets the junction temperature of simulator h.
//
func (r *Registry) SetTemperature(h Handle, t float64) error {
	return r.do(h, func(s *tcansim.Simulator) error {
		return s.SetTemperature(t)
	})
}

// SetBusParameters sets the bus load of simulator h.
//
func (r *Registry) SetBusParameters(h Handle, res, capacitance float64) error {
	return r.do(h, func(s *tcansim.Simulator) error {
		return s.SetBusParameters(res, capacitance)
	})
}

// SetTiming sets the device timings of simulator h.
//
func (r *Registry) SetTiming(h Handle, p tcansim.TimingParameters) error {
	return r.do(h, func(s *tcansim.Simulator) error {
		return s.SetTiming(p)
	})
}

// Timing returns the device timings of simulator h.
//
func (r *Registry) Timing(h Handle) (p tcansim.TimingParameters, err error) {
	err = r.do(h, func(s *tcansim.Simulator) error {
		p = s.Timing()
		return nil
	})
	return p, err
}

// ValidatePin checks a voltage against the range of a pin.
//
func (r *Registry) ValidatePin(pin int, v float64) error {
	info, err := r.PinInfo(pin)
	if err != nil {
		return err
	}
	if !info.InRange(v) {
		return errors.Wrapf(tcansim.ErrInvalidVoltage, "%s: %gV not in [%g, %g]", info.Name, v, info.Min, info.Max)
	}
	return nil
}

// ValidateSupplyVoltages checks supply voltages without applying them.
//
func (r *Registry) ValidateSupplyVoltages(vsup, vcc, vio float64) error {
	return supplyError(tcansim.ValidateSupplyVoltages(vsup, vcc, vio))
}

// ValidateTemperature checks a junction temperature without applying it.
//
func (r *Registry) ValidateTemperature(t float64) error {
	return tcansim.ValidateTemperature(t)
}

// ValidateTiming checks device timings without applying them.
//
func (r *Registry) ValidateTiming(p tcansim.TimingParameters) error {
	return p.Validate()
}

var codeStrings = map[int]string{
	OK:                  "Success",
	CodeInvalidHandle:   "Invalid simulator handle",
	CodeInvalidPin:      "Invalid pin type",
	CodeInvalidVoltage:  "Voltage out of valid range",
	CodeInvalidMode:     "Invalid operating mode",
	CodeInvalidParam:    "Invalid parameter value",
	CodeOutOfMemory:     "Memory allocation failed",
	CodeNullPointer:     "Null pointer argument",
	CodeInvalidState:    "Operation not valid in current state",
	CodeInvalidSnapshot: "Invalid snapshot handle",
}

// ErrorString returns a description of an error code.
//
func (r *Registry) ErrorString(code int) string {
	if s, ok := codeStrings[code]; ok {
		return s
	}
	return "Unknown error"
}
