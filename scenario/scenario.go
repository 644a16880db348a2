// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package scenario runs scripted sequences of actions against a simulator.
//
// A scenario is built either with the chaining methods of Scenario:
//
//	sc := scenario.New("power-up", "Off to Normal").
//		SetPin("EN high", chip.EN, chip.High, 3.3).
//		SetPin("nSTB high", chip.NSTB, chip.High, 3.3).
//		Wait("mode change", 200*chip.Microsecond).
//		CheckMode("in Normal mode", chip.Normal)
//	res := sc.Execute(tcansim.New())
//
// or loaded from a JSON or YAML file with Load.
//
package scenario

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/db47h/tcansim"
	"github.com/db47h/tcansim/chip"
	"github.com/pkg/errors"
)

// Errors returned by actions.
//
var (
	ErrCheck     = errors.New("check failed")
	ErrTimeout   = errors.New("condition not met before timeout")
	ErrNoActions = errors.New("no more actions to execute")
)

// DefaultMaxStep is the default simulation step used by Wait actions.
//
const DefaultMaxStep = 10 * chip.Microsecond

// Kind is the kind of an action.
//
type Kind uint8

// Action kinds.
//
const (
	SetPin Kind = iota
	Wait
	WaitUntil
	CheckPin
	CheckMode
	CheckFlag
	Configure
	DriveBus
	Comment
	kindCount
)

var kindNames = [...]string{"set_pin", "wait", "wait_until", "check_pin", "check_mode", "check_flag", "configure", "drive_bus", "comment"}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind returns the action kind with the given name, as returned by
// Kind.String.
//
func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if strings.EqualFold(n, s) {
			return Kind(i), nil
		}
	}
	return 0, errors.Errorf("unknown action %q", s)
}

// Action is a single step of a scenario. Only the fields relevant to Kind are
// used.
//
type Action struct {
	Kind        Kind
	Description string

	Pin       chip.Pin          // SetPin, CheckPin
	State     chip.PinState     // SetPin, CheckPin
	Voltage   float64           // SetPin, CheckPin
	Tolerance float64           // CheckPin: voltage is checked if > 0
	Duration  uint64            // Wait, WaitUntil timeout
	Until     tcansim.Condition // WaitUntil
	Mode      chip.Mode         // CheckMode
	Flag      tcansim.Flag      // CheckFlag
	Value     bool              // CheckFlag expected value, DriveBus level
	Config    tcansim.Config    // Configure
}

func (a *Action) String() string {
	switch a.Kind {
	case SetPin:
		return fmt.Sprintf("%s %v=%v %gV", a.Kind, a.Pin, a.State, a.Voltage)
	case Wait:
		return fmt.Sprintf("%s %dns", a.Kind, a.Duration)
	case WaitUntil:
		return fmt.Sprintf("%s timeout %dns", a.Kind, a.Duration)
	case CheckPin:
		if a.Tolerance > 0 {
			return fmt.Sprintf("%s %v=%v %gV±%g", a.Kind, a.Pin, a.State, a.Voltage, a.Tolerance)
		}
		return fmt.Sprintf("%s %v=%v", a.Kind, a.Pin, a.State)
	case CheckMode:
		return fmt.Sprintf("%s %v", a.Kind, a.Mode)
	case CheckFlag:
		return fmt.Sprintf("%s %v=%v", a.Kind, a.Flag, a.Value)
	case Configure:
		c := &a.Config
		return fmt.Sprintf("%s VSUP=%gV VCC=%gV VIO=%gV Tj=%g°C", a.Kind, c.VSUP, c.VCC, c.VIO, c.Temperature)
	case DriveBus:
		if a.Value {
			return fmt.Sprintf("%s dominant", a.Kind)
		}
		return fmt.Sprintf("%s recessive", a.Kind)
	}
	return a.Kind.String()
}

// Run executes the action. Wait actions step the simulator by at most maxStep
// nanoseconds at a time.
//
func (a *Action) Run(s *tcansim.Simulator, maxStep uint64) error {
	switch a.Kind {
	case SetPin:
		return s.SetPin(a.Pin, a.State, a.Voltage)
	case Wait:
		s.Run(a.Duration, maxStep)
	case WaitUntil:
		if a.Until == nil {
			return errors.New("nil condition")
		}
		if !s.RunUntil(a.Until, a.Duration) {
			return errors.Wrapf(ErrTimeout, "after %dns", a.Duration)
		}
	case CheckPin:
		l, err := s.Pin(a.Pin)
		if err != nil {
			return err
		}
		if l.State != a.State {
			return errors.Wrapf(ErrCheck, "%v: expected %v, got %v", a.Pin, a.State, l.State)
		}
		if a.Tolerance > 0 && math.Abs(l.Voltage-a.Voltage) > a.Tolerance {
			return errors.Wrapf(ErrCheck, "%v: expected %gV±%g, got %gV", a.Pin, a.Voltage, a.Tolerance, l.Voltage)
		}
	case CheckMode:
		if m := s.Mode(); m != a.Mode {
			return errors.Wrapf(ErrCheck, "expected mode %v, got %v", a.Mode, m)
		}
	case CheckFlag:
		v, err := s.Flag(a.Flag)
		if err != nil {
			return err
		}
		if v != a.Value {
			return errors.Wrapf(ErrCheck, "expected %v=%v, got %v", a.Flag, a.Value, v)
		}
	case Configure:
		return s.Configure(a.Config)
	case DriveBus:
		s.DriveBus(a.Value)
	case Comment:
	default:
		return errors.Errorf("invalid action kind %d", a.Kind)
	}
	return nil
}

// Scenario is a named sequence of actions.
//
type Scenario struct {
	Name        string
	Description string
	StopOnError bool   // stop at the first failed action
	MaxStep     uint64 // maximum step of Wait actions, DefaultMaxStep if 0
	Actions     []Action

	next int
}

// New returns an empty scenario that stops on the first error.
//
func New(name, description string) *Scenario {
	return &Scenario{Name: name, Description: description, StopOnError: true}
}

// Add appends actions to the scenario.
//
func (sc *Scenario) Add(a ...Action) *Scenario {
	sc.Actions = append(sc.Actions, a...)
	return sc
}

// SetPin appends an action that sets a pin.
//
func (sc *Scenario) SetPin(desc string, p chip.Pin, state chip.PinState, v float64) *Scenario {
	return sc.Add(Action{Kind: SetPin, Description: desc, Pin: p, State: state, Voltage: v})
}

// Wait appends an action that advances time by d nanoseconds.
//
func (sc *Scenario) Wait(desc string, d uint64) *Scenario {
	return sc.Add(Action{Kind: Wait, Description: desc, Duration: d})
}

// WaitUntil appends an action that advances time until cond returns true. The
// action fails if cond is still false after timeout nanoseconds.
//
func (sc *Scenario) WaitUntil(desc string, cond tcansim.Condition, timeout uint64) *Scenario {
	return sc.Add(Action{Kind: WaitUntil, Description: desc, Until: cond, Duration: timeout})
}

// CheckPin appends an action that checks the state of a pin.
//
func (sc *Scenario) CheckPin(desc string, p chip.Pin, state chip.PinState) *Scenario {
	return sc.Add(Action{Kind: CheckPin, Description: desc, Pin: p, State: state})
}

// CheckVoltage appends an action that checks the state and voltage of a pin.
//
func (sc *Scenario) CheckVoltage(desc string, p chip.Pin, state chip.PinState, v, tolerance float64) *Scenario {
	return sc.Add(Action{Kind: CheckPin, Description: desc, Pin: p, State: state, Voltage: v, Tolerance: tolerance})
}

// CheckMode appends an action that checks the operating mode.
//
func (sc *Scenario) CheckMode(desc string, m chip.Mode) *Scenario {
	return sc.Add(Action{Kind: CheckMode, Description: desc, Mode: m})
}

// CheckFlag appends an action that checks a status flag.
//
func (sc *Scenario) CheckFlag(desc string, f tcansim.Flag, v bool) *Scenario {
	return sc.Add(Action{Kind: CheckFlag, Description: desc, Flag: f, Value: v})
}

// Configure appends an action that configures the simulator.
//
func (sc *Scenario) Configure(desc string, c tcansim.Config) *Scenario {
	return sc.Add(Action{Kind: Configure, Description: desc, Config: c})
}

// DriveBus appends an action that sets the level driven by remote nodes.
//
func (sc *Scenario) DriveBus(desc string, dominant bool) *Scenario {
	return sc.Add(Action{Kind: DriveBus, Description: desc, Value: dominant})
}

// Comment appends a no-op action.
//
func (sc *Scenario) Comment(text string) *Scenario {
	return sc.Add(Action{Kind: Comment, Description: text})
}

// Reset rewinds the scenario to its first action.
//
func (sc *Scenario) Reset() { sc.next = 0 }

// Done returns true if all actions have been executed.
//
func (sc *Scenario) Done() bool { return sc.next >= len(sc.Actions) }

func (sc *Scenario) maxStep() uint64 {
	if sc.MaxStep == 0 {
		return DefaultMaxStep
	}
	return sc.MaxStep
}

// Result summarizes the execution of a scenario.
//
type Result struct {
	Success     bool
	Executed    int
	Passed      int
	Failed      int
	Err         error // last error
	FailedIndex int   // index of the action that returned Err
}

// ExecuteStep executes the next action.
//
func (sc *Scenario) ExecuteStep(s *tcansim.Simulator) Result {
	if sc.Done() {
		return Result{Err: ErrNoActions, FailedIndex: sc.next}
	}
	i := sc.next
	sc.next++
	a := &sc.Actions[i]
	if err := a.Run(s, sc.maxStep()); err != nil {
		return Result{Executed: 1, Failed: 1, Err: errors.Wrapf(err, "action %d (%s)", i+1, a), FailedIndex: i}
	}
	return Result{Success: true, Executed: 1, Passed: 1}
}

// Execute rewinds the scenario and executes all its actions on s. The
// simulator is used as is: it is not reset.
//
func (sc *Scenario) Execute(s *tcansim.Simulator) Result {
	var res Result
	sc.Reset()
	for !sc.Done() {
		r := sc.ExecuteStep(s)
		res.Executed += r.Executed
		res.Passed += r.Passed
		res.Failed += r.Failed
		if r.Err != nil {
			res.Err, res.FailedIndex = r.Err, r.FailedIndex
			if sc.StopOnError {
				return res
			}
		}
	}
	res.Success = res.Failed == 0
	return res
}
