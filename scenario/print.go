// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package scenario

import (
	"fmt"
	"io"
)

// errWriter keeps the first write error.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...interface{}) {
	if e.err == nil {
		_, e.err = fmt.Fprintf(e.w, format, args...)
	}
}

// Print writes a listing of the scenario's actions to w.
//
func (sc *Scenario) Print(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("Scenario: %s\n", sc.Name)
	if sc.Description != "" {
		ew.printf("Description: %s\n", sc.Description)
	}
	ew.printf("Actions: %d\n", len(sc.Actions))
	for i := range sc.Actions {
		a := &sc.Actions[i]
		ew.printf("  [%d] %s", i+1, a)
		if a.Description != "" {
			ew.printf(": %s", a.Description)
		}
		ew.printf("\n")
	}
	return ew.err
}

// Print writes a summary of the result to w.
//
func (r *Result) Print(w io.Writer) error {
	ew := &errWriter{w: w}
	ok := "NO"
	if r.Success {
		ok = "YES"
	}
	ew.printf("Success: %s, executed: %d, passed: %d, failed: %d\n", ok, r.Executed, r.Passed, r.Failed)
	if r.Err != nil {
		ew.printf("Error: %v\n", r.Err)
	}
	return ew.err
}

// PrintResult writes the name of the scenario followed by the summary of r.
//
func (sc *Scenario) PrintResult(w io.Writer, r *Result) error {
	if _, err := fmt.Fprintf(w, "Scenario Result: %s\n", sc.Name); err != nil {
		return err
	}
	return r.Print(w)
}
