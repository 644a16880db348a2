// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"
	"time"

	"github.com/db47h/tcansim/chip"
	"github.com/k0kubun/go-ansi"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

const (
	flagDuration = "duration"
	flagStep     = "step"
	flagToggle   = "toggle"
)

var soakCmd = &cobra.Command{
	Use:   "soak",
	Short: "Step a simulator in Normal mode for a long simulated time",
	Long: `Step a simulator in Normal mode while toggling TXD, then print the flags.
The progress bar shows simulated time.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		duration, _ := f.GetDuration(flagDuration)
		step, _ := f.GetDuration(flagStep)
		toggle, _ := f.GetDuration(flagToggle)
		if duration <= 0 || step <= 0 || toggle < step {
			return errors.Errorf("invalid timing: duration %v, step %v, toggle %v", duration, step, toggle)
		}

		s := newSimulator(cmd, "soak")
		for _, p := range []chip.Pin{chip.EN, chip.NSTB} {
			if err := s.SetPin(p, chip.High, chip.NominalVIO); err != nil {
				return err
			}
		}
		s.Step(chip.TPowerUp)

		ms := int64(duration / time.Millisecond)
		bar := newBar(ms, "simulating")
		start := s.Now()
		end := start + uint64(duration)
		lastToggle, txd := start, true
		lastMs := int64(0)
		for s.Now() < end {
			if err := cmd.Context().Err(); err != nil {
				return err
			}
			if s.Now()-lastToggle >= uint64(toggle) {
				txd = !txd
				lastToggle = s.Now()
				v, state := 0.0, chip.Low
				if txd {
					v, state = chip.NominalVIO, chip.High
				}
				if err := s.SetPin(chip.TXD, state, v); err != nil {
					return err
				}
			}
			s.Step(uint64(step))
			if elapsed := int64((s.Now() - start) / uint64(time.Millisecond)); elapsed > lastMs {
				_ = bar.Add64(elapsed - lastMs)
				lastMs = elapsed
			}
		}
		_ = bar.Finish()
		fmt.Println()
		fmt.Printf("mode: %v, flags: %v\n", s.Mode(), s.Flags())
		return nil
	},
}

func newBar(length int64, text string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		length,
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription(text),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func init() {
	f := soakCmd.Flags()
	f.Duration(flagDuration, 10*time.Second, "simulated time")
	f.Duration(flagStep, time.Microsecond, "simulation step")
	f.Duration(flagToggle, 10*time.Microsecond, "TXD toggle period")
	rootCmd.AddCommand(soakCmd)
}
