// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package bitstream converts CAN 2.0 frames to and from the sequence of bits
// seen on the bus, and transmits them through a simulated transceiver.
//
// Bits are represented as booleans, true being recessive (logical 1) and
// false dominant (logical 0).
//
package bitstream

import (
	"github.com/pkg/errors"
	"go.einride.tech/can"
)

// Decoding errors.
//
var (
	ErrStuff = errors.New("stuff error")
	ErrCRC   = errors.New("CRC error")
	ErrForm  = errors.New("form error")
	ErrShort = errors.New("bit stream too short")
)

const (
	crcPoly   = 0x4599
	crcBits   = 15
	stuffRun  = 5
	eofLength = 7
	idBits    = 11
	extIDBits = 18
)

// crc15 computes the CAN CRC of bits.
//
func crc15(bits []bool) uint16 {
	var crc uint16
	for _, b := range bits {
		next := b != (crc&(1<<(crcBits-1)) != 0)
		crc = (crc << 1) & (1<<crcBits - 1)
		if next {
			crc ^= crcPoly
		}
	}
	return crc
}

func appendBits(bits []bool, v uint32, n int) []bool {
	for i := n - 1; i >= 0; i-- {
		bits = append(bits, v&(1<<uint(i)) != 0)
	}
	return bits
}

// unstuffed returns the bits of f from SOF to the end of the CRC sequence,
// without stuff bits.
//
func unstuffed(f *can.Frame) []bool {
	bits := make([]bool, 0, 128)
	bits = append(bits, false) // SOF
	if f.IsExtended {
		bits = appendBits(bits, f.ID>>extIDBits, idBits)
		bits = append(bits, true, true) // SRR, IDE
		bits = appendBits(bits, f.ID, extIDBits)
		bits = append(bits, f.IsRemote, false, false) // RTR, r1, r0
	} else {
		bits = appendBits(bits, f.ID, idBits)
		bits = append(bits, f.IsRemote, false, false) // RTR, IDE, r0
	}
	bits = appendBits(bits, uint32(f.Length), 4)
	if !f.IsRemote {
		for _, b := range f.Data[:f.Length] {
			bits = appendBits(bits, uint32(b), 8)
		}
	}
	return appendBits(bits, uint32(crc15(bits)), crcBits)
}

// stuff inserts a complementary bit after every run of five identical bits.
// A stuff bit counts as the first bit of the next run.
//
func stuff(bits []bool) []bool {
	out := make([]bool, 0, len(bits)+len(bits)/(stuffRun-1))
	var last bool
	run := 0
	for _, b := range bits {
		if run > 0 && b == last {
			run++
		} else {
			last, run = b, 1
		}
		out = append(out, b)
		if run == stuffRun {
			last, run = !b, 1
			out = append(out, last)
		}
	}
	return out
}

// Encode returns the bits of f as transmitted on the bus, stuff bits
// included. The ACK slot is sent recessive.
//
func Encode(f can.Frame) ([]bool, error) {
	if err := f.Validate(); err != nil {
		return nil, errors.Wrap(err, "encode")
	}
	bits := stuff(unstuffed(&f))
	bits = append(bits, true, true, true) // CRC delimiter, ACK slot, ACK delimiter
	for i := 0; i < eofLength; i++ {
		bits = append(bits, true)
	}
	return bits, nil
}

// reader reads bits from a stream, removing stuff bits while stuffing is
// true. Destuffed bits are accumulated in raw for the CRC.
//
type reader struct {
	bits     []bool
	pos      int
	last     bool
	run      int
	stuffing bool
	raw      []bool
}

func (r *reader) next() (bool, error) {
	if r.pos >= len(r.bits) {
		return false, errors.Wrapf(ErrShort, "%d bits", len(r.bits))
	}
	b := r.bits[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) bit() (bool, error) {
	b, err := r.next()
	if err != nil || !r.stuffing {
		return b, err
	}
	r.raw = append(r.raw, b)
	if r.run > 0 && b == r.last {
		r.run++
	} else {
		r.last, r.run = b, 1
	}
	if r.run == stuffRun {
		s, err := r.next()
		if err != nil {
			return false, err
		}
		if s == b {
			return false, errors.Wrapf(ErrStuff, "bit %d", r.pos-1)
		}
		r.last, r.run = s, 1
	}
	return b, nil
}

func (r *reader) uint(n int) (uint32, error) {
	var v uint32
	for i := 0; i < n; i++ {
		b, err := r.bit()
		if err != nil {
			return 0, err
		}
		v <<= 1
		if b {
			v |= 1
		}
	}
	return v, nil
}

// expect reads n bits that must all have value want.
//
func (r *reader) expect(what string, n int, want bool) error {
	for i := 0; i < n; i++ {
		b, err := r.bit()
		if err != nil {
			return err
		}
		if b != want {
			return errors.Wrapf(ErrForm, "%s at bit %d", what, r.pos-1)
		}
	}
	return nil
}

// Decode decodes a frame from bits as returned by Encode. The ACK slot may
// have any value. Any fixed-form bit with the wrong value, including SRR and
// the reserved bits, yields ErrForm.
//
func Decode(bits []bool) (can.Frame, error) {
	var f can.Frame
	r := reader{bits: bits, stuffing: true}
	if err := r.expect("SOF", 1, false); err != nil {
		return f, err
	}
	id, err := r.uint(idBits)
	if err != nil {
		return f, err
	}
	// RTR in a base frame, SRR in an extended frame.
	rtr, err := r.bit()
	if err != nil {
		return f, err
	}
	ide, err := r.bit()
	if err != nil {
		return f, err
	}
	if ide {
		if !rtr {
			return f, errors.Wrap(ErrForm, "dominant SRR")
		}
		ext, err := r.uint(extIDBits)
		if err != nil {
			return f, err
		}
		if rtr, err = r.bit(); err != nil {
			return f, err
		}
		if err = r.expect("r1", 1, false); err != nil {
			return f, err
		}
		id = id<<extIDBits | ext
	}
	if err = r.expect("r0", 1, false); err != nil {
		return f, err
	}
	dlc, err := r.uint(4)
	if err != nil {
		return f, err
	}
	if dlc > 8 {
		dlc = 8
	}
	f.ID, f.IsExtended, f.IsRemote, f.Length = id, ide, rtr, uint8(dlc)
	if !rtr {
		for i := range f.Data[:dlc] {
			b, err := r.uint(8)
			if err != nil {
				return f, err
			}
			f.Data[i] = byte(b)
		}
	}
	want := crc15(r.raw)
	crc, err := r.uint(crcBits)
	if err != nil {
		return f, err
	}
	if uint16(crc) != want {
		return f, errors.Wrapf(ErrCRC, "got %#04x, expected %#04x", crc, want)
	}
	r.stuffing = false
	if err = r.expect("CRC delimiter", 1, true); err != nil {
		return f, err
	}
	if _, err = r.bit(); err != nil { // ACK slot
		return f, err
	}
	if err = r.expect("ACK delimiter", 1, true); err != nil {
		return f, err
	}
	if err = r.expect("EOF", eofLength, true); err != nil {
		return f, err
	}
	return f, nil
}
