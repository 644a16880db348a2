// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package scenario

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/db47h/tcansim"
	"github.com/db47h/tcansim/chip"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Format is a scenario file format.
//
type Format uint8

// Supported formats.
//
const (
	JSON Format = iota
	YAML
)

// FormatOf returns the format of a file based on its extension: .yaml and .yml
// files are YAML, anything else is JSON.
//
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	}
	return JSON
}

// file is the on-disk layout of a scenario.
type file struct {
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description" yaml:"description"`
	StopOnError *bool        `json:"stop_on_error" yaml:"stop_on_error"`
	MaxStep     string       `json:"max_step" yaml:"max_step"`
	Config      *fileConfig  `json:"config" yaml:"config"`
	Actions     []fileAction `json:"actions" yaml:"actions"`
}

type fileAction struct {
	Action      string      `json:"action" yaml:"action"`
	Description string      `json:"description" yaml:"description"`
	Pin         string      `json:"pin" yaml:"pin"`
	State       string      `json:"state" yaml:"state"`
	Voltage     float64     `json:"voltage" yaml:"voltage"`
	Tolerance   float64     `json:"tolerance" yaml:"tolerance"`
	Duration    string      `json:"duration" yaml:"duration"`
	Timeout     string      `json:"timeout" yaml:"timeout"`
	Mode        string      `json:"mode" yaml:"mode"`
	Flag        string      `json:"flag" yaml:"flag"`
	Value       *bool       `json:"value" yaml:"value"`
	Dominant    bool        `json:"dominant" yaml:"dominant"`
	Config      *fileConfig `json:"config" yaml:"config"`
}

// fileConfig fields override the defaults when set.
type fileConfig struct {
	VSUP           *float64 `json:"vsup" yaml:"vsup"`
	VCC            *float64 `json:"vcc" yaml:"vcc"`
	VIO            *float64 `json:"vio" yaml:"vio"`
	Temperature    *float64 `json:"temperature" yaml:"temperature"`
	BusResistance  *float64 `json:"bus_resistance" yaml:"bus_resistance"`
	BusCapacitance *float64 `json:"bus_capacitance" yaml:"bus_capacitance"`
}

func (fc *fileConfig) config() tcansim.Config {
	c := tcansim.DefaultConfig()
	for _, f := range [...]struct {
		src *float64
		dst *float64
	}{
		{fc.VSUP, &c.VSUP},
		{fc.VCC, &c.VCC},
		{fc.VIO, &c.VIO},
		{fc.Temperature, &c.Temperature},
		{fc.BusResistance, &c.BusResistance},
		{fc.BusCapacitance, &c.BusCapacitance},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	return c
}

func parseDuration(s string) (uint64, error) {
	if s == "" {
		return 0, errors.New("missing duration")
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, errors.Errorf("negative duration %s", s)
	}
	return uint64(d), nil
}

func modeIs(m chip.Mode) tcansim.Condition {
	return func(s *tcansim.Simulator) bool { return s.Mode() == m }
}

func flagIs(f tcansim.Flag, v bool) tcansim.Condition {
	return func(s *tcansim.Simulator) bool { return s.Flags().Get(f) == v }
}

func (fa *fileAction) action() (a Action, err error) {
	if a.Kind, err = ParseKind(fa.Action); err != nil {
		return a, err
	}
	a.Description = fa.Description
	value := fa.Value == nil || *fa.Value

	switch a.Kind {
	case SetPin, CheckPin:
		if a.Pin, err = chip.ParsePin(fa.Pin); err != nil {
			return a, err
		}
		if a.State, err = chip.ParsePinState(fa.State); err != nil {
			return a, err
		}
		a.Voltage, a.Tolerance = fa.Voltage, fa.Tolerance
		if a.Tolerance < 0 {
			return a, errors.Errorf("negative tolerance %g", a.Tolerance)
		}
	case Wait:
		a.Duration, err = parseDuration(fa.Duration)
	case WaitUntil:
		if a.Duration, err = parseDuration(fa.Timeout); err != nil {
			return a, errors.Wrap(err, "timeout")
		}
		switch {
		case fa.Mode != "":
			var m chip.Mode
			if m, err = chip.ParseMode(fa.Mode); err != nil {
				return a, err
			}
			a.Mode, a.Until = m, modeIs(m)
		case fa.Flag != "":
			var f tcansim.Flag
			if f, err = tcansim.ParseFlag(fa.Flag); err != nil {
				return a, err
			}
			a.Flag, a.Value, a.Until = f, value, flagIs(f, value)
		default:
			err = errors.New("wait_until needs a mode or a flag")
		}
	case CheckMode:
		a.Mode, err = chip.ParseMode(fa.Mode)
	case CheckFlag:
		a.Flag, err = tcansim.ParseFlag(fa.Flag)
		a.Value = value
	case Configure:
		if fa.Config == nil {
			return a, errors.New("missing config")
		}
		a.Config = fa.Config.config()
		err = a.Config.Validate()
	case DriveBus:
		a.Value = fa.Dominant
	}
	return a, err
}

// Parse reads a scenario in the given format from r. A top level config block
// becomes a Configure action ahead of the listed actions.
//
func Parse(r io.Reader, format Format) (*Scenario, error) {
	var f file
	switch format {
	case JSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, errors.Wrap(err, "decode JSON")
		}
	case YAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, errors.Wrap(err, "decode YAML")
		}
	default:
		return nil, errors.Errorf("unknown format %d", format)
	}

	sc := New(f.Name, f.Description)
	if f.StopOnError != nil {
		sc.StopOnError = *f.StopOnError
	}
	if f.MaxStep != "" {
		d, err := parseDuration(f.MaxStep)
		if err != nil {
			return nil, errors.Wrap(err, "max_step")
		}
		if d == 0 {
			return nil, errors.New("max_step: zero duration")
		}
		sc.MaxStep = d
	}
	if f.Config != nil {
		c := f.Config.config()
		if err := c.Validate(); err != nil {
			return nil, errors.Wrap(err, "config")
		}
		sc.Configure("initial configuration", c)
	}
	for i := range f.Actions {
		a, err := f.Actions[i].action()
		if err != nil {
			return nil, errors.Wrapf(err, "action %d", i+1)
		}
		sc.Add(a)
	}
	return sc, nil
}

// ParseBytes is a shorthand for Parse(bytes.NewReader(b), format).
//
func ParseBytes(b []byte, format Format) (*Scenario, error) {
	return Parse(bytes.NewReader(b), format)
}

// Load loads a scenario file. The format is selected by FormatOf.
//
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sc, err := Parse(f, FormatOf(path))
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}
