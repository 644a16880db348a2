// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tcansim

import (
	"encoding"
	"encoding/binary"

	"github.com/db47h/tcansim/internal/wire"
	"github.com/pkg/errors"
)

const (
	snapshotMagic  = 0x4e414354 // "TCAN"
	snapshotHeader = 8
)

// Snapshot is an opaque capture of the complete state of a simulator,
// callbacks excluded.
//
type Snapshot struct {
	b []byte
}

// Bytes returns the encoded snapshot. The returned slice must not be
// modified.
//
func (sn *Snapshot) Bytes() []byte { return sn.b }

// Size returns the size in bytes of the encoded snapshot.
//
func (sn *Snapshot) Size() int { return len(sn.b) }

// LoadSnapshot returns a snapshot from its encoded form. Only the header is
// checked, the payload is checked by Restore.
//
func LoadSnapshot(b []byte) (*Snapshot, error) {
	if err := checkHeader(b); err != nil {
		return nil, err
	}
	return &Snapshot{append([]byte(nil), b...)}, nil
}

func checkHeader(b []byte) error {
	if len(b) < snapshotHeader {
		return errors.Wrapf(ErrInvalidSnapshot, "short header: %d bytes", len(b))
	}
	if m := binary.LittleEndian.Uint32(b); m != snapshotMagic {
		return errors.Wrapf(ErrInvalidSnapshot, "bad magic %#08x", m)
	}
	if n := binary.LittleEndian.Uint32(b[4:]); int(n) != len(b)-snapshotHeader {
		return errors.Wrapf(ErrInvalidSnapshot, "payload size %d, got %d bytes", n, len(b)-snapshotHeader)
	}
	return nil
}

func (d *device) parts() []encoding.BinaryMarshaler {
	return []encoding.BinaryMarshaler{&d.clock, &d.pins, &d.power, &d.mode, &d.xcvr, &d.bias, &d.faults, &d.wake, &d.inh}
}

func (d *device) encode() []byte {
	payload := wire.NewEncoder(1024)
	for _, p := range d.parts() {
		b, err := p.MarshalBinary()
		if err != nil {
			// component encoders cannot fail
			panic(err)
		}
		payload.Section(b)
	}
	payload.Float64(d.temp)
	payload.Float64(d.busR)
	payload.Float64(d.busC)
	t := &d.timing
	for _, v := range [...]uint64{t.UVFilter, t.TXDTimeout, t.BusDomTimeout, t.WakeFilter, t.WakeTimeout, t.SleepSilence} {
		payload.Uint64(v)
	}
	payload.Bool(d.remote)

	e := wire.NewEncoder(snapshotHeader + payload.Len())
	e.Uint32(snapshotMagic)
	e.Uint32(uint32(payload.Len()))
	return append(e.Bytes(), payload.Bytes()...)
}

func (d *device) decode(b []byte) error {
	dec := wire.NewDecoder(b[snapshotHeader:])
	for _, p := range d.parts() {
		sec := dec.Section()
		if dec.Err() != nil {
			break
		}
		if err := p.(encoding.BinaryUnmarshaler).UnmarshalBinary(sec); err != nil {
			dec.Fail(err)
			break
		}
	}
	d.temp = dec.Float64()
	d.busR = dec.Float64()
	d.busC = dec.Float64()
	t := &d.timing
	for _, v := range [...]*uint64{&t.UVFilter, &t.TXDTimeout, &t.BusDomTimeout, &t.WakeFilter, &t.WakeTimeout, &t.SleepSilence} {
		*v = dec.Uint64()
	}
	d.remote = dec.Bool()
	if err := dec.Finish(); err != nil {
		return err
	}
	if err := ValidateTemperature(d.temp); err != nil {
		return err
	}
	if err := ValidateBusParameters(d.busR, d.busC); err != nil {
		return err
	}
	tp := timingParameters(&d.timing)
	return tp.Validate()
}

// Snapshot captures the current state of the simulator.
//
func (s *Simulator) Snapshot() *Snapshot {
	return &Snapshot{s.encode()}
}

// Restore restores the state captured in sn. Registered callbacks are kept.
// If sn does not match the layout of the simulator state, Restore returns an
// error wrapping ErrInvalidSnapshot and the simulator is left unchanged.
//
func (s *Simulator) Restore(sn *Snapshot) error {
	s.enter()
	defer s.leave()
	if sn == nil {
		return errors.Wrap(ErrInvalidSnapshot, "nil snapshot")
	}
	if err := checkHeader(sn.b); err != nil {
		return err
	}
	if n := len(s.encode()); len(sn.b) != n {
		return errors.Wrapf(ErrInvalidSnapshot, "size %d, expected %d", len(sn.b), n)
	}
	var d device
	d.reset()
	if err := d.decode(sn.b); err != nil {
		return errors.Wrap(ErrInvalidSnapshot, err.Error())
	}
	s.device = d
	return nil
}
