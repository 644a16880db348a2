// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package simtest provides utility functions for testing code that drives a
// simulator.
//
package simtest

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/db47h/tcansim"
	"github.com/db47h/tcansim/chip"
)

// VIO is the logic high level used by the helpers.
//
const VIO = chip.NominalVIO

// Set sets a digital input pin high or low and fails the test on error.
//
func Set(t testing.TB, s *tcansim.Simulator, p chip.Pin, high bool) {
	t.Helper()
	var err error
	if high {
		err = s.SetPin(p, chip.High, VIO)
	} else {
		err = s.SetPin(p, chip.Low, 0)
	}
	if err != nil {
		t.Fatal(err)
	}
}

// PowerUp brings a freshly reset simulator to Normal mode with nominal
// supplies.
//
func PowerUp(t testing.TB, s *tcansim.Simulator) {
	t.Helper()
	Set(t, s, chip.EN, true)
	Set(t, s, chip.NSTB, true)
	s.Step(chip.TPowerUp)
	ExpectMode(t, s, chip.Normal)
}

// New returns a new simulator in Normal mode.
//
func New(t testing.TB) *tcansim.Simulator {
	t.Helper()
	s := tcansim.New()
	PowerUp(t, s)
	return s
}

// Sleep puts a simulator in Normal or Silent mode to sleep: it pulls nSTB low
// and waits past the silence time.
//
func Sleep(t testing.TB, s *tcansim.Simulator) {
	t.Helper()
	Set(t, s, chip.NSTB, false)
	s.Step(chip.Microsecond)
	ExpectMode(t, s, chip.GoToSleep)
	silence := uint64(s.Timing().Silence)
	s.Run(silence+chip.Millisecond, chip.Millisecond)
	ExpectMode(t, s, chip.Sleep)
}

// ExpectMode fails the test if the simulator is not in mode m.
//
func ExpectMode(t testing.TB, s *tcansim.Simulator, m chip.Mode) {
	t.Helper()
	if got := s.Mode(); got != m {
		t.Fatalf("@%dns: expected mode %v, got %v", s.Now(), m, got)
	}
}

// ExpectFlag fails the test if flag f does not have value v.
//
func ExpectFlag(t testing.TB, s *tcansim.Simulator, f tcansim.Flag, v bool) {
	t.Helper()
	if got := s.Flags().Get(f); got != v {
		t.Fatalf("@%dns: expected %v=%v, got %v", s.Now(), f, v, got)
	}
}

// ExpectFlags fails the test if the set flags are not exactly the given ones.
//
func ExpectFlags(t testing.TB, s *tcansim.Simulator, set ...tcansim.Flag) {
	t.Helper()
	var want tcansim.Flags
	for _, f := range set {
		want[f] = true
	}
	if got := s.Flags(); got != want {
		t.Fatalf("@%dns: expected flags %v, got %v", s.Now(), want, got)
	}
}

// ExpectPin fails the test if pin p is not in the given state.
//
func ExpectPin(t testing.TB, s *tcansim.Simulator, p chip.Pin, state chip.PinState) {
	t.Helper()
	l, err := s.Pin(p)
	if err != nil {
		t.Fatal(err)
	}
	if l.State != state {
		t.Fatalf("@%dns: expected %v %v, got %v (%gV)", s.Now(), p, state, l.State, l.Voltage)
	}
}

var randomInputs = [...]chip.Pin{chip.TXD, chip.EN, chip.NSTB, chip.WAKE, chip.INHMask}

type state struct {
	mode  chip.Mode
	flags tcansim.Flags
	pins  []tcansim.PinLevel
}

func capture(s *tcansim.Simulator) state {
	pins, _ := s.Pins()
	return state{s.Mode(), s.Flags(), pins}
}

func (st *state) diff(o *state) string {
	var b strings.Builder
	if st.mode != o.mode {
		fmt.Fprintf(&b, "\n\tmode %v != %v", st.mode, o.mode)
	}
	if st.flags != o.flags {
		fmt.Fprintf(&b, "\n\tflags %v != %v", st.flags, o.flags)
	}
	for i := range st.pins {
		if st.pins[i] != o.pins[i] {
			fmt.Fprintf(&b, "\n\t%v %+v != %+v", st.pins[i].Pin, st.pins[i].Level, o.pins[i].Level)
		}
	}
	return b.String()
}

// Compare drives two simulators with the same random input sequence and fails
// the test as soon as their mode, flags or pins differ. Each of the n steps
// lasts between 1 and maxStep nanoseconds. The sequence is reproducible for a
// given seed.
//
func Compare(t testing.TB, seed int64, n int, maxStep uint64, s1, s2 *tcansim.Simulator) {
	t.Helper()
	r := rand.New(rand.NewSource(seed))
	for i := 0; i < n; i++ {
		in := make([]tcansim.PinLevel, 0, len(randomInputs))
		for _, p := range randomInputs {
			// keep most inputs stable for a while so that timers get a
			// chance to expire.
			if r.Intn(8) != 0 {
				continue
			}
			l := chip.Level{State: chip.Low}
			if r.Intn(2) == 0 {
				l = chip.Level{State: chip.High, Voltage: VIO}
			}
			in = append(in, tcansim.PinLevel{Pin: p, Level: l})
		}
		remote := r.Intn(16) == 0
		dt := uint64(r.Int63n(int64(maxStep))) + 1

		for _, s := range [...]*tcansim.Simulator{s1, s2} {
			if err := s.SetPins(in...); err != nil {
				t.Fatal(err)
			}
			s.DriveBus(remote)
			s.Step(dt)
		}
		st1, st2 := capture(s1), capture(s2)
		if d := st1.diff(&st2); d != "" {
			t.Fatalf("step %d @%dns:%s", i, s1.Now(), d)
		}
	}
}
