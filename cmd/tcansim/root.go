// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"log"

	"github.com/db47h/tcansim"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const flagDebug = "debug"

var rootCmd = &cobra.Command{
	Use:          "tcansim",
	Short:        "TCAN1463-Q1 CAN transceiver simulator",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolP(flagDebug, "d", false, "log simulator events")
}

var (
	red    = color.New(color.FgRed).SprintfFunc()
	green  = color.New(color.FgGreen).SprintfFunc()
	yellow = color.New(color.FgHiYellow).SprintfFunc()
)

func passFail(ok bool) string {
	if ok {
		return green("PASS")
	}
	return red("FAIL")
}

// newSimulator returns a new simulator. With --debug, all its events are
// logged under the given name.
//
func newSimulator(cmd *cobra.Command, name string) *tcansim.Simulator {
	s := tcansim.New()
	if debug, _ := cmd.Flags().GetBool(flagDebug); debug {
		for k := tcansim.ModeChange; k <= tcansim.FlagChange; k++ {
			if _, err := s.Register(k, logEvent, name); err != nil {
				log.Fatal(err)
			}
		}
	}
	return s
}

func logEvent(e *tcansim.Event, ctx interface{}) {
	switch e.Kind {
	case tcansim.ModeChange:
		log.Printf("%v: %dns %v: %v -> %v", ctx, e.Time, e.Kind, e.OldMode, e.Mode)
	case tcansim.FaultDetected:
		log.Printf("%v: %dns %v: %v", ctx, e.Time, e.Kind, e.Fault)
	case tcansim.WakeUp:
		log.Printf("%v: %dns %v: %v", ctx, e.Time, e.Kind, e.Source)
	case tcansim.PinChange:
		log.Printf("%v: %dns %v: %v %+v -> %+v", ctx, e.Time, e.Kind, e.Pin, e.Old, e.New)
	case tcansim.FlagChange:
		log.Printf("%v: %dns %v: %v=%v", ctx, e.Time, e.Kind, e.Flag, e.Set)
	}
}
