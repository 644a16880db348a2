package tcansim_test

import (
	"fmt"

	"github.com/db47h/tcansim"
	"github.com/db47h/tcansim/chip"
)

func Example() {
	s := tcansim.New()
	s.SetPin(chip.EN, chip.High, 3.3)
	s.SetPin(chip.NSTB, chip.High, 3.3)
	s.Step(500 * chip.Millisecond)
	fmt.Println(s.Mode())

	s.SetPin(chip.TXD, chip.Low, 0)
	s.Step(chip.Microsecond)
	rxd, _ := s.Pin(chip.RXD)
	fmt.Println(s.Bus(), rxd.State)

	// Output:
	// Normal
	// Dominant Low
}

func ExampleSimulator_Register() {
	s := tcansim.New()
	s.Register(tcansim.ModeChange, func(e *tcansim.Event, ctx interface{}) {
		fmt.Printf("%s: %v -> %v @%dns\n", ctx, e.OldMode, e.Mode, e.Time)
	}, "mode")
	s.SetPin(chip.EN, chip.High, 3.3)
	s.SetPin(chip.NSTB, chip.High, 3.3)
	s.Step(1000)
	s.SetPin(chip.EN, chip.Low, 0)
	s.Step(1000)

	// Output:
	// mode: Off -> Normal @1000ns
	// mode: Normal -> Silent @2000ns
}

func ExampleSimulator_Snapshot() {
	s := tcansim.New()
	s.SetPin(chip.EN, chip.High, 3.3)
	s.SetPin(chip.NSTB, chip.High, 3.3)
	s.Step(1000)
	sn := s.Snapshot()

	s.SetSupplyVoltages(0, 0, 0)
	s.Step(1000)
	fmt.Println(s.Mode())

	if err := s.Restore(sn); err != nil {
		fmt.Println(err)
	}
	fmt.Println(s.Mode(), s.Now())

	// Output:
	// Off
	// Normal 1000
}
