// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package tcansim is a nanosecond resolution behavioral simulator of the
TCAN1463-Q1 CAN FD transceiver.

A Simulator holds the state of a single device: its 14 pins, the supply
monitor, the operating mode state machine, the CAN transceiver and bus bias,
the fault detector, the wake-up handler and the INH output. Time only moves
when Step or RunUntil is called, so a simulation is fully deterministic.

Each step samples the input pins, updates the blocks in causal order, drives
the bus from TXD, reads the bus back and schedules RXD with the transceiver
propagation delay, evaluates faults and finally writes the output pins:

	sim := tcansim.New()
	sim.SetPin(chip.EN, chip.High, 3.3)
	sim.SetPin(chip.NSTB, chip.High, 3.3)
	sim.Step(500 * chip.Millisecond)
	fmt.Println(sim.Mode()) // Normal

Pins not driven by the device (TXD, EN, nSTB, WAKE, INH_MASK, supplies and
the bus lines) are set with SetPin. DriveBus models the other nodes on the
bus.

A Simulator is not safe for concurrent use. Callbacks registered with
Register run synchronously at the end of the step that produced the event
and must not step, reset or restore the simulator.

The chip package contains the individual blocks and the pin, mode and state
enumerations.
*/
package tcansim
