package chip_test

import (
	"math"
	"testing"
	"testing/quick"

	"github.com/db47h/tcansim/chip"
	"github.com/pkg/errors"
)

func newPins() *chip.Pins {
	var ps chip.Pins
	ps.Reset()
	return &ps
}

func TestPins_defaults(t *testing.T) {
	ps := newPins()
	td := []struct {
		p chip.Pin
		l chip.Level
	}{
		{chip.TXD, chip.Level{chip.High, 0}},
		{chip.RXD, chip.Level{chip.High, 0}},
		{chip.NFAULT, chip.Level{chip.High, 0}},
		{chip.EN, chip.Level{chip.Low, 0}},
		{chip.INH, chip.Level{chip.HighZ, 0}},
		{chip.CANH, chip.Level{chip.HighZ, 0}},
		{chip.VSUP, chip.Level{chip.Analog, 12}},
		{chip.VCC, chip.Level{chip.Analog, 5}},
		{chip.VIO, chip.Level{chip.Analog, 3.3}},
		{chip.GND, chip.Level{chip.Analog, 0}},
	}
	for _, d := range td {
		if got := ps.Get(d.p); got != d.l {
			t.Errorf("%v: expected %v, got %v", d.p, d.l, got)
		}
	}
}

func TestPins_Set(t *testing.T) {
	td := []struct {
		p     chip.Pin
		s     chip.PinState
		v     float64
		cause error
	}{
		{chip.TXD, chip.Low, 0, nil},
		{chip.TXD, chip.High, 3.3, nil},
		{chip.TXD, chip.Analog, 6, chip.ErrInvalidVoltage},
		{chip.TXD, chip.High, -1, chip.ErrInvalidVoltage},
		{chip.RXD, chip.Low, 0, chip.ErrNotInput},
		{chip.NFAULT, chip.High, 3.3, chip.ErrNotInput},
		{chip.INH, chip.High, 12, chip.ErrNotInput},
		{chip.CANH, chip.Analog, -27, nil},
		{chip.CANL, chip.Analog, 42.5, chip.ErrInvalidVoltage},
		{chip.VSUP, chip.Analog, 4, chip.ErrInvalidVoltage},
		{chip.VSUP, chip.Analog, 42, nil},
		{chip.VSUP, chip.Low, 0, nil},
		{chip.VCC, chip.Analog, 0, chip.ErrInvalidVoltage},
		{chip.VIO, chip.Analog, 1.65, nil},
		{chip.GND, chip.Analog, 0.1, chip.ErrInvalidVoltage},
		{chip.PinCount, chip.Low, 0, chip.ErrInvalidPin},
		{chip.TXD, chip.PinState(7), 0, chip.ErrInvalidParameter},
		{chip.TXD, chip.Analog, math.NaN(), chip.ErrInvalidVoltage},
	}
	for _, d := range td {
		ps := newPins()
		before := *ps
		err := ps.Set(d.p, d.s, d.v)
		if errors.Cause(err) != d.cause {
			t.Errorf("Set(%v, %v, %g): expected error %v, got %v", d.p, d.s, d.v, d.cause, err)
			continue
		}
		if err != nil {
			if *ps != before {
				t.Errorf("Set(%v, %v, %g): rejected set modified the pin store", d.p, d.s, d.v)
			}
			continue
		}
		if got := ps.Get(d.p); got.State != d.s || got.Voltage != d.v {
			t.Errorf("Set(%v, %v, %g): got back %v", d.p, d.s, d.v, got)
		}
	}
}

func TestPins_setRange(t *testing.T) {
	f := func(pin uint8, state uint8, v float64) bool {
		p := chip.Pin(pin % uint8(chip.PinCount))
		s := chip.PinState(state % 4)
		info := p.Info()
		ps := newPins()
		before := ps.Get(p)
		err := ps.Set(p, s, v)
		want := info.Dir.IsInput() && ((s != chip.Analog && v == 0) || (v >= info.Min && v <= info.Max))
		if want != (err == nil) {
			return false
		}
		if err != nil {
			return ps.Get(p) == before
		}
		return ps.Get(p) == chip.Level{State: s, Voltage: v}
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
	// values near the range limits are rarely generated above
	g := func(pin uint8, frac float64) bool {
		p := chip.Pin(pin % uint8(chip.PinCount))
		info := p.Info()
		if !info.Dir.IsInput() {
			return true
		}
		frac = math.Abs(math.Mod(frac, 1))
		v := info.Min + frac*(info.Max-info.Min)
		ps := newPins()
		return ps.Set(p, chip.Analog, v) == nil && ps.Get(p).Voltage == v
	}
	if err := quick.Check(g, nil); err != nil {
		t.Fatal(err)
	}
}

func TestPins_Validate(t *testing.T) {
	ps := newPins()
	if !ps.Validate(chip.TXD, 0) {
		t.Error("TXD 0V should be valid")
	}
	if ps.Validate(chip.VSUP, 0) {
		t.Error("VSUP is analog, 0V should be invalid")
	}
	if !ps.Validate(chip.VSUP, 13.5) {
		t.Error("VSUP 13.5V should be valid")
	}
	if ps.Validate(chip.PinCount, 1) {
		t.Error("invalid pin validated")
	}
}

func TestParsePin(t *testing.T) {
	for p := chip.Pin(0); p < chip.PinCount; p++ {
		got, err := chip.ParsePin(p.String())
		if err != nil {
			t.Fatal(err)
		}
		if got != p {
			t.Errorf("expected %v, got %v", p, got)
		}
	}
	if p, err := chip.ParsePin("inh-mask"); err != nil || p != chip.INHMask {
		t.Errorf("expected INH_MASK, got %v, %v", p, err)
	}
	if _, err := chip.ParsePin("SPLIT"); err == nil {
		t.Error("expected error for unknown pin")
	}
	if s, err := chip.ParsePinState("HIGH_IMPEDANCE"); err != nil || s != chip.HighZ {
		t.Errorf("expected HighZ, got %v, %v", s, err)
	}
	if m, err := chip.ParseMode("GO_TO_SLEEP"); err != nil || m != chip.GoToSleep {
		t.Errorf("expected GoToSleep, got %v, %v", m, err)
	}
}
