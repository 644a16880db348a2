// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package wire implements the fixed layout little endian encoding used for
// simulator snapshots.
//
package wire

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// ErrShort is returned when decoding runs out of data.
//
var ErrShort = errors.New("unexpected end of data")

// Encoder appends values to a byte slice.
//
type Encoder struct {
	b []byte
}

// NewEncoder returns an encoder with room for n bytes.
//
func NewEncoder(n int) *Encoder { return &Encoder{make([]byte, 0, n)} }

// Bytes returns the encoded data.
//
func (e *Encoder) Bytes() []byte { return e.b }

// Len returns the number of encoded bytes.
//
func (e *Encoder) Len() int { return len(e.b) }

// Bool appends v as a single 0 or 1 byte.
//
func (e *Encoder) Bool(v bool) {
	if v {
		e.b = append(e.b, 1)
	} else {
		e.b = append(e.b, 0)
	}
}

// Uint8 appends v.
//
func (e *Encoder) Uint8(v uint8) { e.b = append(e.b, v) }

// Uint32 appends v in little endian order.
//
func (e *Encoder) Uint32(v uint32) { e.b = binary.LittleEndian.AppendUint32(e.b, v) }

// Uint64 appends v in little endian order.
//
func (e *Encoder) Uint64(v uint64) { e.b = binary.LittleEndian.AppendUint64(e.b, v) }

// Float64 appends the IEEE 754 bits of v as a Uint64.
//
func (e *Encoder) Float64(v float64) { e.Uint64(math.Float64bits(v)) }

// Section appends p prefixed by its length.
//
func (e *Encoder) Section(p []byte) {
	e.Uint32(uint32(len(p)))
	e.b = append(e.b, p...)
}

// Decoder reads values from a byte slice. After the first error, all reads
// return zero values and Err reports the error.
//
type Decoder struct {
	b   []byte
	err error
}

// NewDecoder returns a decoder reading from b.
//
func NewDecoder(b []byte) *Decoder { return &Decoder{b: b} }

func (d *Decoder) next(n int) []byte {
	if d.err != nil {
		return nil
	}
	if len(d.b) < n {
		d.err = ErrShort
		return nil
	}
	p := d.b[:n]
	d.b = d.b[n:]
	return p
}

// Bool reads a bool. Bytes other than 0 or 1 are an error.
//
func (d *Decoder) Bool() bool {
	p := d.next(1)
	if p == nil {
		return false
	}
	if p[0] > 1 {
		d.Fail(errors.Errorf("invalid bool value %d", p[0]))
		return false
	}
	return p[0] == 1
}

// Uint8 reads a byte.
//
func (d *Decoder) Uint8() uint8 {
	if p := d.next(1); p != nil {
		return p[0]
	}
	return 0
}

// Uint32 reads a little endian uint32.
//
func (d *Decoder) Uint32() uint32 {
	if p := d.next(4); p != nil {
		return binary.LittleEndian.Uint32(p)
	}
	return 0
}

// Uint64 reads a little endian uint64.
//
func (d *Decoder) Uint64() uint64 {
	if p := d.next(8); p != nil {
		return binary.LittleEndian.Uint64(p)
	}
	return 0
}

// Float64 reads a float64 written by Encoder.Float64.
//
func (d *Decoder) Float64() float64 { return math.Float64frombits(d.Uint64()) }

// Section reads a length prefixed byte slice.
//
func (d *Decoder) Section() []byte {
	n := d.Uint32()
	return d.next(int(n))
}

// Fail records err unless an error was already recorded.
//
func (d *Decoder) Fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

// Err returns the first error encountered.
//
func (d *Decoder) Err() error { return d.err }

// Finish returns the first error encountered, or an error if some data has
// not been read.
//
func (d *Decoder) Finish() error {
	if d.err == nil && len(d.b) > 0 {
		d.err = errors.Errorf("%d trailing bytes", len(d.b))
	}
	return d.err
}
