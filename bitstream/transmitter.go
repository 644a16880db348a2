// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package bitstream

import (
	"fmt"

	"github.com/db47h/tcansim"
	"github.com/db47h/tcansim/chip"
	"github.com/pkg/errors"
	"go.einride.tech/can"
)

// Default bit timing: 500 kbit/s sampled at 75%.
//
const (
	DefaultBitTime     = 2 * chip.Microsecond
	DefaultSamplePoint = 0.75
)

// BitError reports a difference between a transmitted bit and the level read
// back on RXD.
//
type BitError struct {
	Index int  // index of the bit in the encoded stream
	Sent  bool // transmitted level, true for recessive
	Read  bool // level read back
}

func (e *BitError) Error() string {
	return fmt.Sprintf("bit error at bit %d: sent %s, read %s", e.Index, level(e.Sent), level(e.Read))
}

func level(b bool) string {
	if b {
		return "recessive"
	}
	return "dominant"
}

// Transmitter sends frames through a simulator by driving TXD and sampling
// RXD.
//
type Transmitter struct {
	Sim         *tcansim.Simulator
	BitTime     uint64  // nanoseconds
	SamplePoint float64 // position of the sample point in the bit, from 0 to 1
}

// NewTransmitter returns a transmitter using the default bit timing.
//
func NewTransmitter(s *tcansim.Simulator) *Transmitter {
	return &Transmitter{Sim: s, BitTime: DefaultBitTime, SamplePoint: DefaultSamplePoint}
}

func (tx *Transmitter) setTXD(recessive bool) error {
	if recessive {
		vio, err := tx.Sim.Pin(chip.VIO)
		if err != nil {
			return err
		}
		return tx.Sim.SetPin(chip.TXD, chip.High, vio.Voltage)
	}
	return tx.Sim.SetPin(chip.TXD, chip.Low, 0)
}

// SendBits drives each bit on TXD for one bit time and returns the bits read
// back on RXD at the sample point. On a bit error, transmission stops, TXD is
// released and the bits read so far are returned along with a *BitError.
//
func (tx *Transmitter) SendBits(bits []bool) ([]bool, error) {
	if tx.BitTime == 0 || tx.SamplePoint <= 0 || tx.SamplePoint >= 1 {
		return nil, errors.Errorf("invalid bit timing: %dns, sample point %g", tx.BitTime, tx.SamplePoint)
	}
	sample := uint64(float64(tx.BitTime) * tx.SamplePoint)
	read := make([]bool, 0, len(bits))
	for i, b := range bits {
		if err := tx.setTXD(b); err != nil {
			return read, err
		}
		tx.Sim.Step(sample)
		rxd, err := tx.Sim.Pin(chip.RXD)
		if err != nil {
			return read, err
		}
		r := rxd.State != chip.Low
		read = append(read, r)
		tx.Sim.Step(tx.BitTime - sample)
		if r != b {
			if err = tx.setTXD(true); err != nil {
				return read, err
			}
			return read, &BitError{i, b, r}
		}
	}
	return read, nil
}

// Send transmits f and returns the frame decoded from the bits read back.
//
func (tx *Transmitter) Send(f can.Frame) (can.Frame, error) {
	bits, err := Encode(f)
	if err != nil {
		return can.Frame{}, err
	}
	read, err := tx.SendBits(bits)
	if err != nil {
		return can.Frame{}, err
	}
	return Decode(read)
}
