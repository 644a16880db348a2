package tcansim_test

import (
	"reflect"
	"testing"

	"github.com/db47h/tcansim"
	"github.com/db47h/tcansim/chip"
	"github.com/db47h/tcansim/simtest"
	"github.com/pkg/errors"
)

type recorder struct {
	events []tcansim.Event
}

func record(e *tcansim.Event, ctx interface{}) {
	r := ctx.(*recorder)
	r.events = append(r.events, *e)
}

func registerAll(t *testing.T, s *tcansim.Simulator, r *recorder) {
	t.Helper()
	for _, k := range []tcansim.EventKind{tcansim.ModeChange, tcansim.FaultDetected, tcansim.WakeUp, tcansim.PinChange, tcansim.FlagChange} {
		if _, err := s.Register(k, record, r); err != nil {
			t.Fatal(err)
		}
	}
}

func TestEvents_powerUp(t *testing.T) {
	s := tcansim.New()
	var r recorder
	registerAll(t, s, &r)
	simtest.PowerUp(t, s)

	if len(r.events) == 0 || r.events[0].Kind != tcansim.ModeChange {
		t.Fatalf("expected a mode change first, got %+v", r.events)
	}
	if e := r.events[0]; e.OldMode != chip.Off || e.Mode != chip.Normal || e.Time != s.Now() {
		t.Fatalf("bad mode change event %+v", e)
	}
	var pins []chip.Pin
	for _, e := range r.events[1:] {
		if e.Kind != tcansim.PinChange {
			t.Fatalf("unexpected event %v", e.Kind)
		}
		pins = append(pins, e.Pin)
	}
	want := []chip.Pin{chip.RXD, chip.NFAULT, chip.INH, chip.CANH, chip.CANL}
	if !reflect.DeepEqual(pins, want) {
		t.Fatalf("expected pin changes %v, got %v", want, pins)
	}
}

func TestEvents_fault(t *testing.T) {
	s := simtest.New(t)
	var r recorder
	registerAll(t, s, &r)
	if err := s.SetTemperature(180); err != nil {
		t.Fatal(err)
	}
	s.Step(chip.Microsecond)

	var kinds []tcansim.EventKind
	for _, e := range r.events {
		kinds = append(kinds, e.Kind)
	}
	// bias levels at VCC/2 replace the driven recessive levels, so only
	// nFAULT changes.
	want := []tcansim.EventKind{tcansim.FaultDetected, tcansim.FlagChange, tcansim.PinChange}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("expected %v, got %v", want, kinds)
	}
	if e := r.events[0]; e.Fault != chip.FaultTSD || e.Flag != tcansim.TSD || !e.Set {
		t.Fatalf("bad fault event %+v", e)
	}
	if e := r.events[2]; e.Pin != chip.NFAULT || e.Old.State != chip.High || e.New.State != chip.Low {
		t.Fatalf("bad pin change event %+v", e)
	}
}

func TestEvents_wakeUp(t *testing.T) {
	s := simtest.New(t)
	simtest.Sleep(t, s)
	var src []chip.WakeSource
	_, err := s.Register(tcansim.WakeUp, func(e *tcansim.Event, _ interface{}) { src = append(src, e.Source) }, nil)
	if err != nil {
		t.Fatal(err)
	}
	simtest.Set(t, s, chip.WAKE, true)
	s.Step(chip.Microsecond)
	s.Step(chip.Microsecond)
	if !reflect.DeepEqual(src, []chip.WakeSource{chip.WakeLocal}) {
		t.Fatalf("expected one local wake-up, got %v", src)
	}
}

func TestEvents_Unregister(t *testing.T) {
	s := tcansim.New()
	calls := 0
	fn := func(*tcansim.Event, interface{}) { calls++ }
	id1, err := s.Register(tcansim.ModeChange, fn, nil)
	if err != nil {
		t.Fatal(err)
	}
	id2, err := s.Register(tcansim.ModeChange, fn, nil)
	if err != nil {
		t.Fatal(err)
	}
	if id1 == id2 {
		t.Fatal("duplicate registration id")
	}
	if err = s.Unregister(tcansim.ModeChange, id1); err != nil {
		t.Fatal(err)
	}
	simtest.PowerUp(t, s)
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if err = s.Unregister(tcansim.ModeChange, id1); errors.Cause(err) != tcansim.ErrInvalidParameter {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	if err = s.Unregister(tcansim.WakeUp, id2); errors.Cause(err) != tcansim.ErrInvalidParameter {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestEvents_invalid(t *testing.T) {
	s := tcansim.New()
	fn := func(*tcansim.Event, interface{}) {}
	if _, err := s.Register(tcansim.EventKind(42), fn, nil); errors.Cause(err) != tcansim.ErrInvalidEvent {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
	if err := s.Unregister(tcansim.EventKind(42), 1); errors.Cause(err) != tcansim.ErrInvalidEvent {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
	if _, err := s.Register(tcansim.ModeChange, nil, nil); errors.Cause(err) != tcansim.ErrInvalidParameter {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestEvents_reentrantStep(t *testing.T) {
	s := tcansim.New()
	_, err := s.Register(tcansim.ModeChange, func(*tcansim.Event, interface{}) { s.Step(1) }, nil)
	if err != nil {
		t.Fatal(err)
	}
	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("Step from a callback did not panic")
			}
		}()
		simtest.Set(t, s, chip.EN, true)
		simtest.Set(t, s, chip.NSTB, true)
		s.Step(chip.Microsecond)
	}()
	// the simulator is still usable
	s.Step(chip.Microsecond)
}

func TestEvents_unregisterFromCallback(t *testing.T) {
	s := tcansim.New()
	calls := 0
	var id tcansim.HandlerID
	fn := func(*tcansim.Event, interface{}) {
		calls++
		if calls > 1 {
			return
		}
		if err := s.Unregister(tcansim.PinChange, id); err != nil {
			t.Error(err)
		}
	}
	id, err := s.Register(tcansim.PinChange, fn, nil)
	if err != nil {
		t.Fatal(err)
	}
	simtest.PowerUp(t, s)
	if calls != 5 {
		t.Fatalf("expected the dispatch in progress to complete, got %d calls", calls)
	}
	s.DriveBus(true)
	s.Step(chip.Microsecond)
	if calls != 5 {
		t.Fatalf("callback called after Unregister")
	}
}
