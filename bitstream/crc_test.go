package bitstream

import (
	"testing"
	"testing/quick"

	"github.com/pkg/errors"
	"go.einride.tech/can"
)

// Appending the CRC to a message yields a zero remainder.
//
func TestCRC15_residue(t *testing.T) {
	f := func(bits []bool) bool {
		crc := crc15(bits)
		return crc15(appendBits(append([]bool(nil), bits...), uint32(crc), crcBits)) == 0
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func TestStuff(t *testing.T) {
	td := []struct {
		in, out string
	}{
		{"0000", "0000"},
		{"00000", "000001"},
		{"0000011111", "000001111101"},
		{"00000000", "000001000"},
		{"1111100000", "111110000010"},
	}
	for _, d := range td {
		got := bitString(stuff(parseBits(d.in)))
		if got != d.out {
			t.Errorf("stuff(%s) = %s, expected %s", d.in, got, d.out)
		}
	}
}

// Frames with a bad fixed-form bit but a valid CRC and stuffing.
//
func TestDecode_form(t *testing.T) {
	ext := can.Frame{ID: 0x1abcdef, IsExtended: true, Length: 2, Data: can.Data{0x12, 0x34}}
	base := can.Frame{ID: 0x123, Length: 1, Data: can.Data{0xaa}}
	td := []struct {
		name string
		f    can.Frame
		bit  int // index in the unstuffed frame
	}{
		{"SRR", ext, 12},
		{"r1", ext, 33},
		{"r0", ext, 34},
		{"base r0", base, 14},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			bits := unstuffed(&d.f)
			bits = bits[:len(bits)-crcBits]
			bits[d.bit] = !bits[d.bit]
			bits = stuff(appendBits(bits, uint32(crc15(bits)), crcBits))
			for i := 0; i < 3+eofLength; i++ {
				bits = append(bits, true)
			}
			if _, err := Decode(bits); errors.Cause(err) != ErrForm {
				t.Fatalf("expected form error, got %v", err)
			}
		})
	}
}

func parseBits(s string) []bool {
	bits := make([]bool, len(s))
	for i := range s {
		bits[i] = s[i] == '1'
	}
	return bits
}

func bitString(bits []bool) string {
	b := make([]byte, len(bits))
	for i, v := range bits {
		b[i] = '0'
		if v {
			b[i] = '1'
		}
	}
	return string(b)
}
