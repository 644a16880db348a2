// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tcansim

import (
	"time"

	"github.com/db47h/tcansim/chip"
	"github.com/pkg/errors"
)

// Configuration domain.
//
const (
	MinVSUP        = 0.0
	MaxVSUP        = 40.0
	MinVCC         = 0.0
	MaxVCC         = 6.0
	MinVIO         = 0.0
	MaxVIO         = 5.5
	MinTemperature = -40.0
	MaxTemperature = 200.0
)

// Config is the bulk configuration of a simulator.
//
type Config struct {
	VSUP           float64 `json:"vsup" yaml:"vsup"`
	VCC            float64 `json:"vcc" yaml:"vcc"`
	VIO            float64 `json:"vio" yaml:"vio"`
	Temperature    float64 `json:"temperature" yaml:"temperature"`
	BusResistance  float64 `json:"bus_resistance" yaml:"bus_resistance"`
	BusCapacitance float64 `json:"bus_capacitance" yaml:"bus_capacitance"`
}

// DefaultConfig returns the configuration of a new simulator.
//
func DefaultConfig() Config {
	return Config{
		VSUP:           chip.NominalVSUP,
		VCC:            chip.NominalVCC,
		VIO:            chip.NominalVIO,
		Temperature:    DefaultTemperature,
		BusResistance:  DefaultBusResistance,
		BusCapacitance: DefaultBusCapacitance,
	}
}

// Validate checks every field of c.
//
func (c *Config) Validate() error {
	if err := ValidateSupplyVoltages(c.VSUP, c.VCC, c.VIO); err != nil {
		return err
	}
	if err := ValidateTemperature(c.Temperature); err != nil {
		return err
	}
	return ValidateBusParameters(c.BusResistance, c.BusCapacitance)
}

// Config returns the current configuration.
//
func (s *Simulator) Config() Config {
	vsup, vcc, vio := s.SupplyVoltages()
	return Config{vsup, vcc, vio, s.temp, s.busR, s.busC}
}

// Configure applies c. Nothing is changed if c is not valid.
//
func (s *Simulator) Configure(c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.setSupplies(c.VSUP, c.VCC, c.VIO)
	s.temp = c.Temperature
	s.busR, s.busC = c.BusResistance, c.BusCapacitance
	return nil
}

func checkRange(what string, v, min, max float64) error {
	if v < min || v > max || v != v {
		return errors.Wrapf(ErrInvalidParameter, "%s %g not in [%g, %g]", what, v, min, max)
	}
	return nil
}

// ValidateSupplyVoltages checks supply voltages against the configuration
// domain. The domain extends below the supply pins' operating range so that
// undervoltage conditions can be simulated.
//
func ValidateSupplyVoltages(vsup, vcc, vio float64) error {
	if err := checkRange("VSUP", vsup, MinVSUP, MaxVSUP); err != nil {
		return err
	}
	if err := checkRange("VCC", vcc, MinVCC, MaxVCC); err != nil {
		return err
	}
	return checkRange("VIO", vio, MinVIO, MaxVIO)
}

// ValidateTemperature checks a junction temperature in °C.
//
func ValidateTemperature(t float64) error {
	return checkRange("temperature", t, MinTemperature, MaxTemperature)
}

// ValidateBusParameters checks the bus load resistance (Ω) and capacitance
// (F).
//
func ValidateBusParameters(r, c float64) error {
	if r < 0 || r != r {
		return errors.Wrapf(ErrInvalidParameter, "bus resistance %g", r)
	}
	if c < 0 || c != c {
		return errors.Wrapf(ErrInvalidParameter, "bus capacitance %g", c)
	}
	return nil
}

func (s *Simulator) setSupplies(vsup, vcc, vio float64) {
	s.pins.Drive(chip.VSUP, chip.Analog, vsup)
	s.pins.Drive(chip.VCC, chip.Analog, vcc)
	s.pins.Drive(chip.VIO, chip.Analog, vio)
}

// SetSupplyVoltages sets the supply pins. The power monitor sees the new
// voltages on the next step.
//
func (s *Simulator) SetSupplyVoltages(vsup, vcc, vio float64) error {
	if err := ValidateSupplyVoltages(vsup, vcc, vio); err != nil {
		return err
	}
	s.setSupplies(vsup, vcc, vio)
	return nil
}

// SupplyVoltages returns the voltages on the supply pins.
//
func (s *Simulator) SupplyVoltages() (vsup, vcc, vio float64) {
	return s.pins[chip.VSUP].Voltage, s.pins[chip.VCC].Voltage, s.pins[chip.VIO].Voltage
}

// SetTemperature sets the junction temperature in °C.
//
func (s *Simulator) SetTemperature(t float64) error {
	if err := ValidateTemperature(t); err != nil {
		return err
	}
	s.temp = t
	return nil
}

// Temperature returns the junction temperature in °C.
//
func (s *Simulator) Temperature() float64 { return s.temp }

// SetBusParameters sets the bus load resistance and capacitance.
//
func (s *Simulator) SetBusParameters(r, c float64) error {
	if err := ValidateBusParameters(r, c); err != nil {
		return err
	}
	s.busR, s.busC = r, c
	return nil
}

// BusParameters returns the bus load resistance and capacitance.
//
func (s *Simulator) BusParameters() (r, c float64) { return s.busR, s.busC }

// TimingParameters holds the adjustable device timings.
//
type TimingParameters struct {
	UVFilter      time.Duration `json:"uv_filter" yaml:"uv_filter"`           // VCC/VIO undervoltage filter
	TXDTimeout    time.Duration `json:"txd_timeout" yaml:"txd_timeout"`       // TXD dominant timeout
	BusDomTimeout time.Duration `json:"busdom_timeout" yaml:"busdom_timeout"` // bus dominant timeout
	WakeFilter    time.Duration `json:"wake_filter" yaml:"wake_filter"`       // wake-up pattern phase filter
	WakeTimeout   time.Duration `json:"wake_timeout" yaml:"wake_timeout"`     // wake-up pattern window
	Silence       time.Duration `json:"silence" yaml:"silence"`               // Go-to-Sleep to Sleep
}

// DefaultTimingParameters returns the timings of a new simulator.
//
func DefaultTimingParameters() TimingParameters {
	return timingParameters(&chip.DefaultTiming)
}

func timingParameters(t *chip.Timing) TimingParameters {
	return TimingParameters{
		UVFilter:      time.Duration(t.UVFilter),
		TXDTimeout:    time.Duration(t.TXDTimeout),
		BusDomTimeout: time.Duration(t.BusDomTimeout),
		WakeFilter:    time.Duration(t.WakeFilter),
		WakeTimeout:   time.Duration(t.WakeTimeout),
		Silence:       time.Duration(t.SleepSilence),
	}
}

var timingRanges = [...]struct {
	name     string
	min, max uint64
}{
	{"undervoltage filter", chip.TUVMin, chip.TUVMax},
	{"TXD dominant timeout", chip.TTXDDTOMin, chip.TTXDDTOMax},
	{"bus dominant timeout", chip.TBusDomMin, chip.TBusDomMax},
	{"wake filter", chip.TWKFilterMin, chip.TWKFilterMax},
	{"wake timeout", chip.TWKTimeoutMin, chip.TWKTimeoutMax},
	{"silence", chip.TSilenceMin, chip.TSilenceMax},
}

func (p *TimingParameters) values() [len(timingRanges)]time.Duration {
	return [...]time.Duration{p.UVFilter, p.TXDTimeout, p.BusDomTimeout, p.WakeFilter, p.WakeTimeout, p.Silence}
}

// Validate checks every timing against its datasheet range.
//
func (p *TimingParameters) Validate() error {
	for i, d := range p.values() {
		r := &timingRanges[i]
		if d < 0 || uint64(d) < r.min || uint64(d) > r.max {
			return errors.Wrapf(ErrInvalidParameter, "%s %v not in [%v, %v]", r.name, d, time.Duration(r.min), time.Duration(r.max))
		}
	}
	return nil
}

// SetTiming sets the device timings.
//
func (s *Simulator) SetTiming(p TimingParameters) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.timing = chip.Timing{
		UVFilter:      uint64(p.UVFilter),
		TXDTimeout:    uint64(p.TXDTimeout),
		BusDomTimeout: uint64(p.BusDomTimeout),
		WakeFilter:    uint64(p.WakeFilter),
		WakeTimeout:   uint64(p.WakeTimeout),
		SleepSilence:  uint64(p.Silence),
	}
	return nil
}

// Timing returns the device timings.
//
func (s *Simulator) Timing() TimingParameters { return timingParameters(&s.timing) }
