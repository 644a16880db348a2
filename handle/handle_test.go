package handle_test

import (
	"sync"
	"testing"
	"time"

	"github.com/db47h/tcansim"
	"github.com/db47h/tcansim/chip"
	"github.com/db47h/tcansim/handle"
	"github.com/pkg/errors"
)

func powerUp(t *testing.T, r *handle.Registry, h handle.Handle) {
	t.Helper()
	for _, p := range []chip.Pin{chip.EN, chip.NSTB} {
		if err := r.SetPin(h, int(p), int(chip.High), chip.NominalVIO); err != nil {
			t.Fatal(err)
		}
	}
	ok, err := r.RunUntilMode(h, int(chip.Normal), chip.Millisecond)
	if err != nil || !ok {
		t.Fatalf("Normal mode not reached: %v", err)
	}
}

func TestRegistry(t *testing.T) {
	r := handle.NewRegistry(0)
	h, err := r.Create()
	if err != nil {
		t.Fatal(err)
	}
	if h <= 0 {
		t.Fatalf("bad handle %d", h)
	}
	if m, _ := r.Mode(h); m != int(chip.Off) {
		t.Fatalf("expected Off, got %d", m)
	}
	powerUp(t, r, h)

	if err := r.SetPin(h, int(chip.TXD), int(chip.Low), 0); err != nil {
		t.Fatal(err)
	}
	if err := r.Step(h, chip.Microsecond); err != nil {
		t.Fatal(err)
	}
	state, v, err := r.GetPin(h, int(chip.RXD))
	if err != nil || state != int(chip.Low) || v != 0 {
		t.Fatalf("expected RXD low, got %d %gV %v", state, v, err)
	}
	if err := r.Step(h, 2*chip.Millisecond); err != nil {
		t.Fatal(err)
	}
	mask, err := r.Flags(h)
	if err != nil {
		t.Fatal(err)
	}
	if mask&(1<<uint(tcansim.TXDDTO)) == 0 {
		t.Fatalf("TXDDTO not set in %#x", mask)
	}

	s, err := r.Get(h)
	if err != nil || s.Mode() != chip.Normal {
		t.Fatalf("Get: %v", err)
	}

	if err := r.Destroy(h); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Mode(h); handle.Code(err) != handle.CodeInvalidHandle {
		t.Fatalf("expected invalid handle, got %v", err)
	}
}

func TestRegistry_snapshot(t *testing.T) {
	r := handle.NewRegistry(2)
	h1, _ := r.Create()
	h2, _ := r.Create()
	powerUp(t, r, h1)
	sh, err := r.Snapshot(h1)
	if err != nil {
		t.Fatal(err)
	}
	if n, err := r.SnapshotSize(sh); err != nil || n == 0 {
		t.Fatalf("bad snapshot size %d: %v", n, err)
	}
	for i := 0; i < 2; i++ {
		if err := r.Restore(h2, sh); err != nil {
			t.Fatal(err)
		}
		if m, _ := r.Mode(h2); m != int(chip.Normal) {
			t.Fatalf("expected Normal after restore, got %d", m)
		}
		if err := r.Step(h2, chip.Millisecond); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.FreeSnapshot(sh); err != nil {
		t.Fatal(err)
	}
	if err := r.Restore(h2, sh); handle.Code(err) != handle.CodeInvalidSnapshot {
		t.Fatalf("restore of freed snapshot: %v", err)
	}
	if err := r.FreeSnapshot(sh); handle.Code(err) != handle.CodeInvalidSnapshot {
		t.Fatalf("double free: %v", err)
	}
}

func TestRegistry_capacity(t *testing.T) {
	r := handle.NewRegistry(1)
	h, err := r.Create()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Create(); handle.Code(err) != handle.CodeOutOfMemory {
		t.Fatalf("expected resource exhaustion, got %v", err)
	}
	if _, err := r.Snapshot(h); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Snapshot(h); errors.Cause(err) != handle.ErrResourceExhausted {
		t.Fatalf("expected resource exhaustion, got %v", err)
	}
	if err := r.Destroy(h); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Create(); err != nil {
		t.Fatalf("Create after Destroy: %v", err)
	}
	if sims, snaps := r.Len(); sims != 1 || snaps != 1 {
		t.Fatalf("expected 1 simulator and 1 snapshot, got %d, %d", sims, snaps)
	}
}

func TestRegistry_errors(t *testing.T) {
	r := handle.NewRegistry(4)
	h, _ := r.Create()
	td := []struct {
		name string
		err  error
		code int
	}{
		{"bad handle", r.Step(h+1, 1), handle.CodeInvalidHandle},
		{"bad pin", r.SetPin(h, int(chip.PinCount), int(chip.High), 1), handle.CodeInvalidPin},
		{"negative pin", r.SetPin(h, -1, int(chip.High), 1), handle.CodeInvalidPin},
		{"output pin", r.SetPin(h, int(chip.RXD), int(chip.High), 1), handle.CodeInvalidPin},
		{"bad voltage", r.SetPin(h, int(chip.TXD), int(chip.High), 100), handle.CodeInvalidVoltage},
		{"bad state", r.SetPin(h, int(chip.TXD), 42, 1), handle.CodeInvalidParam},
		{"bad event", func() error { _, err := r.Register(h, 99, func(*tcansim.Event, interface{}) {}, nil); return err }(), handle.CodeInvalidParam},
		{"nil callback", func() error { _, err := r.Register(h, 0, nil, nil); return err }(), handle.CodeNullPointer},
		{"bad mode", func() error { _, err := r.RunUntilMode(h, 42, 1); return err }(), handle.CodeInvalidMode},
		{"bad snapshot", r.Restore(h, 7), handle.CodeInvalidSnapshot},
		{"nil", nil, handle.OK},
		{"foreign", errors.New("boom"), handle.CodeInvalidParam},
		{"snapshot", errors.Wrap(tcansim.ErrInvalidSnapshot, "test"), handle.CodeInvalidSnapshot},
	}
	for _, d := range td {
		if c := handle.Code(d.err); c != d.code {
			t.Errorf("%s: expected code %d, got %d (%v)", d.name, d.code, c, d.err)
		}
	}
}

func TestRegistry_reentrant(t *testing.T) {
	r := handle.NewRegistry(0)
	h, _ := r.Create()
	var inner error
	calls := 0
	_, err := r.Register(h, int(tcansim.ModeChange), func(e *tcansim.Event, ctx interface{}) {
		calls++
		inner = r.Step(h, 1)
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	powerUp(t, r, h)
	if calls == 0 {
		t.Fatal("callback not called")
	}
	if handle.Code(inner) != handle.CodeInvalidState {
		t.Fatalf("expected invalid state, got %v", inner)
	}
	// the handle is usable again once the step returns
	if err := r.Step(h, 1); err != nil {
		t.Fatal(err)
	}
}

func TestRegistry_concurrent(t *testing.T) {
	r := handle.NewRegistry(8)
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := r.Create()
			if err != nil {
				errs[i] = err
				return
			}
			for _, p := range []chip.Pin{chip.EN, chip.NSTB} {
				if err := r.SetPin(h, int(p), int(chip.High), chip.NominalVIO); err != nil {
					errs[i] = err
					return
				}
			}
			for j := 0; j < 100; j++ {
				if err := r.Step(h, 10*chip.Microsecond); err != nil {
					errs[i] = err
					return
				}
			}
			if m, _ := r.Mode(h); m != int(chip.Normal) {
				errs[i] = errors.Errorf("handle %d: mode %d", h, m)
				return
			}
			errs[i] = r.Destroy(h)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if n, _ := r.Len(); n != 0 {
		t.Fatalf("%d simulators left", n)
	}
}

func TestRegistry_pins(t *testing.T) {
	r := handle.NewRegistry(0)
	h, _ := r.Create()
	err := r.SetPins(h, []handle.PinValue{
		{int(chip.TXD), int(chip.Low), 0},
		{int(chip.EN), int(chip.High), chip.NominalVIO},
	})
	if err != nil {
		t.Fatal(err)
	}
	vs, err := r.GetPins(h, int(chip.TXD), int(chip.EN))
	if err != nil {
		t.Fatal(err)
	}
	if len(vs) != 2 || vs[0].State != int(chip.Low) || vs[1].State != int(chip.High) || vs[1].Voltage != chip.NominalVIO {
		t.Fatalf("unexpected pin values %v", vs)
	}
	if all, err := r.GetPins(h); err != nil || len(all) != int(chip.PinCount) {
		t.Fatalf("expected %d pins, got %d: %v", chip.PinCount, len(all), err)
	}

	// one bad pin leaves every pin untouched
	err = r.SetPins(h, []handle.PinValue{
		{int(chip.TXD), int(chip.High), chip.NominalVIO},
		{int(chip.RXD), int(chip.Low), 0},
	})
	if handle.Code(err) != handle.CodeInvalidPin {
		t.Fatalf("expected invalid pin, got %v", err)
	}
	if state, _, _ := r.GetPin(h, int(chip.TXD)); state != int(chip.Low) {
		t.Fatal("TXD changed by a failed SetPins")
	}

	info, err := r.PinInfo(int(chip.NSTB))
	if err != nil || info.Name != "nSTB" || info.Dir != chip.Input {
		t.Fatalf("bad pin info %+v: %v", info, err)
	}

	if err := r.Reset(h); err != nil {
		t.Fatal(err)
	}
	if state, _, _ := r.GetPin(h, int(chip.TXD)); state != int(chip.High) {
		t.Fatal("TXD not released by Reset")
	}
}

func TestRegistry_config(t *testing.T) {
	r := handle.NewRegistry(0)
	h, _ := r.Create()
	powerUp(t, r, h)

	p := tcansim.DefaultTimingParameters()
	p.TXDTimeout = 2 * p.TXDTimeout
	if err := r.SetTiming(h, p); err != nil {
		t.Fatal(err)
	}
	if q, err := r.Timing(h); err != nil || q != p {
		t.Fatalf("expected timings %+v, got %+v: %v", p, q, err)
	}

	// brown-out: VCC below the pin range is accepted
	if err := r.SetSupplyVoltages(h, 12, 3, 3.3); err != nil {
		t.Fatal(err)
	}
	if err := r.SetTemperature(h, 150); err != nil {
		t.Fatal(err)
	}
	if err := r.SetBusParameters(h, 120, 0); err != nil {
		t.Fatal(err)
	}
	if err := r.Configure(h, tcansim.DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	s, _ := r.Get(h)
	if c := s.Config(); c != tcansim.DefaultConfig() {
		t.Fatalf("expected default configuration, got %+v", c)
	}

	if err := r.Reset(h); err != nil {
		t.Fatal(err)
	}
	if m, _ := r.Mode(h); m != int(chip.Off) {
		t.Fatalf("expected Off after Reset, got %d", m)
	}
	if q, _ := r.Timing(h); q != tcansim.DefaultTimingParameters() {
		t.Fatalf("timings not reset: %+v", q)
	}
}

func TestRegistry_validation(t *testing.T) {
	r := handle.NewRegistry(4)
	h, _ := r.Create()
	bad := tcansim.DefaultConfig()
	bad.VCC = 10
	hot := tcansim.DefaultConfig()
	hot.Temperature = 500
	slow := tcansim.DefaultTimingParameters()
	slow.WakeTimeout = time.Second

	td := []struct {
		name string
		err  error
		code int
	}{
		{"configure", r.Configure(h, tcansim.DefaultConfig()), handle.OK},
		{"configure supply", r.Configure(h, bad), handle.CodeInvalidVoltage},
		{"configure temperature", r.Configure(h, hot), handle.CodeInvalidParam},
		{"configure handle", r.Configure(h+1, tcansim.DefaultConfig()), handle.CodeInvalidHandle},
		{"supply", r.SetSupplyVoltages(h, 50, 5, 3.3), handle.CodeInvalidVoltage},
		{"temperature", r.SetTemperature(h, 500), handle.CodeInvalidParam},
		{"bus", r.SetBusParameters(h, -1, 0), handle.CodeInvalidParam},
		{"timing", r.SetTiming(h, slow), handle.CodeInvalidParam},
		{"timing handle", func() error { _, err := r.Timing(h + 1); return err }(), handle.CodeInvalidHandle},
		{"reset handle", r.Reset(h + 1), handle.CodeInvalidHandle},
		{"pin info", func() error { _, err := r.PinInfo(int(chip.PinCount)); return err }(), handle.CodeInvalidPin},
		{"get pins", func() error { _, err := r.GetPins(h, -1); return err }(), handle.CodeInvalidPin},
		{"set pins state", r.SetPins(h, []handle.PinValue{{int(chip.TXD), 42, 0}}), handle.CodeInvalidParam},
		{"set pins voltage", r.SetPins(h, []handle.PinValue{{int(chip.TXD), int(chip.High), 10}}), handle.CodeInvalidVoltage},
		{"validate pin", r.ValidatePin(int(chip.VSUP), 12), handle.OK},
		{"validate pin voltage", r.ValidatePin(int(chip.TXD), 6), handle.CodeInvalidVoltage},
		{"validate pin index", r.ValidatePin(-1, 0), handle.CodeInvalidPin},
		{"validate supply", r.ValidateSupplyVoltages(12, 5, 3.3), handle.OK},
		{"validate supply range", r.ValidateSupplyVoltages(12, 5, 6), handle.CodeInvalidVoltage},
		{"validate temperature", r.ValidateTemperature(-41), handle.CodeInvalidParam},
		{"validate timing", r.ValidateTiming(tcansim.DefaultTimingParameters()), handle.OK},
		{"validate timing range", r.ValidateTiming(slow), handle.CodeInvalidParam},
		{"run until", func() error { _, err := r.RunUntil(h, nil, 1); return err }(), handle.CodeNullPointer},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			if c := handle.Code(d.err); c != d.code {
				t.Errorf("expected code %d, got %d (%v)", d.code, c, d.err)
			}
		})
	}
}

func TestRegistry_RunUntil(t *testing.T) {
	r := handle.NewRegistry(0)
	h, _ := r.Create()
	powerUp(t, r, h)
	if err := r.SetPin(h, int(chip.TXD), int(chip.Low), 0); err != nil {
		t.Fatal(err)
	}
	ok, err := r.RunUntil(h, func(s *tcansim.Simulator) bool {
		set, _ := s.Flag(tcansim.TXDDTO)
		return set
	}, 5*chip.Millisecond)
	if err != nil || !ok {
		t.Fatalf("TXD dominant timeout not reached: %v", err)
	}
	if _, err := r.RunUntil(h+1, func(*tcansim.Simulator) bool { return true }, 1); handle.Code(err) != handle.CodeInvalidHandle {
		t.Fatalf("expected invalid handle, got %v", err)
	}
}

func TestRegistry_ErrorString(t *testing.T) {
	r := handle.NewRegistry(0)
	td := []struct {
		code int
		s    string
	}{
		{handle.OK, "Success"},
		{handle.CodeInvalidHandle, "Invalid simulator handle"},
		{handle.CodeInvalidPin, "Invalid pin type"},
		{handle.CodeInvalidVoltage, "Voltage out of valid range"},
		{handle.CodeInvalidMode, "Invalid operating mode"},
		{handle.CodeInvalidParam, "Invalid parameter value"},
		{handle.CodeOutOfMemory, "Memory allocation failed"},
		{handle.CodeNullPointer, "Null pointer argument"},
		{handle.CodeInvalidState, "Operation not valid in current state"},
		{handle.CodeInvalidSnapshot, "Invalid snapshot handle"},
		{-10, "Unknown error"},
		{1, "Unknown error"},
	}
	for _, d := range td {
		if s := r.ErrorString(d.code); s != d.s {
			t.Errorf("code %d: expected %q, got %q", d.code, d.s, s)
		}
	}
}
