// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package chip

import (
	"github.com/db47h/tcansim/internal/wire"
	"github.com/pkg/errors"
)

// Every block implements encoding.BinaryMarshaler and
// encoding.BinaryUnmarshaler with a fixed size encoding. UnmarshalBinary
// leaves the receiver untouched on error.

func putTimer(e *wire.Encoder, t Timer) {
	e.Bool(t.running)
	e.Uint64(t.start)
}

func getTimer(d *wire.Decoder) Timer {
	var t Timer
	t.running = d.Bool()
	t.start = d.Uint64()
	return t
}

func getEnum(d *wire.Decoder, kind string, count int) uint8 {
	v := d.Uint8()
	if int(v) >= count {
		d.Fail(errors.Errorf("invalid %s %d", kind, v))
	}
	return v
}

func finish(d *wire.Decoder, what string) error {
	return errors.Wrapf(d.Finish(), "decode %s", what)
}

// MarshalBinary implements encoding.BinaryMarshaler.
//
func (c *Clock) MarshalBinary() ([]byte, error) {
	e := wire.NewEncoder(8)
	e.Uint64(c.now)
	return e.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
//
func (c *Clock) UnmarshalBinary(b []byte) error {
	d := wire.NewDecoder(b)
	now := d.Uint64()
	if err := finish(d, "clock"); err != nil {
		return err
	}
	c.now = now
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
//
func (ps *Pins) MarshalBinary() ([]byte, error) {
	e := wire.NewEncoder(int(PinCount) * 9)
	for _, l := range ps {
		e.Uint8(uint8(l.State))
		e.Float64(l.Voltage)
	}
	return e.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
//
func (ps *Pins) UnmarshalBinary(b []byte) error {
	var tmp Pins
	d := wire.NewDecoder(b)
	for i := range tmp {
		tmp[i].State = PinState(getEnum(d, "pin state", int(pinStateCount)))
		tmp[i].Voltage = d.Float64()
	}
	if err := finish(d, "pins"); err != nil {
		return err
	}
	*ps = tmp
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
//
func (p *PowerMonitor) MarshalBinary() ([]byte, error) {
	e := wire.NewEncoder(64)
	e.Float64(p.VSUP)
	e.Float64(p.VCC)
	e.Float64(p.VIO)
	e.Bool(p.UVSUP)
	e.Bool(p.UVCC)
	e.Bool(p.UVIO)
	e.Bool(p.PowerOn)
	putTimer(e, p.vcc)
	putTimer(e, p.vio)
	return e.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
//
func (p *PowerMonitor) UnmarshalBinary(b []byte) error {
	var tmp PowerMonitor
	d := wire.NewDecoder(b)
	tmp.VSUP = d.Float64()
	tmp.VCC = d.Float64()
	tmp.VIO = d.Float64()
	tmp.UVSUP = d.Bool()
	tmp.UVCC = d.Bool()
	tmp.UVIO = d.Bool()
	tmp.PowerOn = d.Bool()
	tmp.vcc = getTimer(d)
	tmp.vio = getTimer(d)
	if err := finish(d, "power monitor"); err != nil {
		return err
	}
	*p = tmp
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
//
func (m *ModeController) MarshalBinary() ([]byte, error) {
	e := wire.NewEncoder(10)
	e.Uint8(uint8(m.Mode))
	e.Uint8(uint8(m.Previous))
	e.Uint64(m.Entered)
	return e.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
//
func (m *ModeController) UnmarshalBinary(b []byte) error {
	var tmp ModeController
	d := wire.NewDecoder(b)
	tmp.Mode = Mode(getEnum(d, "mode", int(ModeCount)))
	tmp.Previous = Mode(getEnum(d, "mode", int(ModeCount)))
	tmp.Entered = d.Uint64()
	if err := finish(d, "mode controller"); err != nil {
		return err
	}
	*m = tmp
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
//
func (t *Transceiver) MarshalBinary() ([]byte, error) {
	e := wire.NewEncoder(48)
	e.Uint8(uint8(t.State))
	e.Bool(t.DriverEnabled)
	e.Bool(t.ReceiverEnabled)
	e.Float64(t.CANH)
	e.Float64(t.CANL)
	e.Bool(t.RXD)
	e.Bool(t.pending)
	e.Bool(t.pendingValue)
	e.Uint64(t.pendingAt)
	putTimer(e, t.activity)
	return e.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
//
func (t *Transceiver) UnmarshalBinary(b []byte) error {
	var tmp Transceiver
	d := wire.NewDecoder(b)
	tmp.State = CANState(getEnum(d, "CAN state", len(canNames)))
	tmp.DriverEnabled = d.Bool()
	tmp.ReceiverEnabled = d.Bool()
	tmp.CANH = d.Float64()
	tmp.CANL = d.Float64()
	tmp.RXD = d.Bool()
	tmp.pending = d.Bool()
	tmp.pendingValue = d.Bool()
	tmp.pendingAt = d.Uint64()
	tmp.activity = getTimer(d)
	if err := finish(d, "transceiver"); err != nil {
		return err
	}
	*t = tmp
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
//
func (b *Bias) MarshalBinary() ([]byte, error) {
	e := wire.NewEncoder(10)
	e.Uint8(uint8(b.State))
	putTimer(e, b.activity)
	return e.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
//
func (b *Bias) UnmarshalBinary(p []byte) error {
	var tmp Bias
	d := wire.NewDecoder(p)
	tmp.State = BiasState(getEnum(d, "bias state", len(canNames)))
	tmp.activity = getTimer(d)
	if err := finish(d, "bias"); err != nil {
		return err
	}
	*b = tmp
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
//
func (f *FaultDetector) MarshalBinary() ([]byte, error) {
	e := wire.NewEncoder(32)
	for _, v := range f.Flags {
		e.Bool(v)
	}
	putTimer(e, f.txd)
	putTimer(e, f.busDom)
	e.Uint32(f.cbf)
	e.Uint8(uint8(f.prevBus))
	return e.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
//
func (f *FaultDetector) UnmarshalBinary(b []byte) error {
	var tmp FaultDetector
	d := wire.NewDecoder(b)
	for i := range tmp.Flags {
		tmp.Flags[i] = d.Bool()
	}
	tmp.txd = getTimer(d)
	tmp.busDom = getTimer(d)
	tmp.cbf = d.Uint32()
	tmp.prevBus = BusState(getEnum(d, "bus state", len(busNames)))
	if err := finish(d, "fault detector"); err != nil {
		return err
	}
	*f = tmp
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
//
func (w *WakeHandler) MarshalBinary() ([]byte, error) {
	e := wire.NewEncoder(24)
	e.Bool(w.WakeRq)
	e.Bool(w.WakeSR)
	e.Bool(w.Local)
	e.Uint8(uint8(w.WUP))
	putTimer(e, w.phase)
	putTimer(e, w.window)
	e.Bool(w.prevPin)
	return e.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
//
func (w *WakeHandler) UnmarshalBinary(b []byte) error {
	var tmp WakeHandler
	d := wire.NewDecoder(b)
	tmp.WakeRq = d.Bool()
	tmp.WakeSR = d.Bool()
	tmp.Local = d.Bool()
	tmp.WUP = WUPState(getEnum(d, "wake-up pattern state", len(wupNames)))
	tmp.phase = getTimer(d)
	tmp.window = getTimer(d)
	tmp.prevPin = d.Bool()
	if err := finish(d, "wake handler"); err != nil {
		return err
	}
	*w = tmp
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
//
func (h *Inhibit) MarshalBinary() ([]byte, error) {
	e := wire.NewEncoder(12)
	e.Bool(h.Enabled)
	e.Bool(h.High)
	e.Uint64(h.wakeAt)
	e.Bool(h.pending)
	e.Bool(h.prevRq)
	return e.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
//
func (h *Inhibit) UnmarshalBinary(b []byte) error {
	var tmp Inhibit
	d := wire.NewDecoder(b)
	tmp.Enabled = d.Bool()
	tmp.High = d.Bool()
	tmp.wakeAt = d.Uint64()
	tmp.pending = d.Bool()
	tmp.prevRq = d.Bool()
	if err := finish(d, "inhibit"); err != nil {
		return err
	}
	*h = tmp
	return nil
}
