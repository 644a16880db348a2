// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"

	"github.com/db47h/tcansim/bitstream"
	"github.com/db47h/tcansim/chip"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.einride.tech/can"
)

const flagBitrate = "bitrate"

var sendCmd = &cobra.Command{
	Use:   "send FRAME...",
	Short: "Transmit frames through a powered up simulator",
	Long: `Transmit frames through a simulator in Normal mode and print the frames
read back on RXD. Frames use the candump format: 123#DEADBEEF, 1ABCDEF0#00,
123#R.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bitrate, _ := cmd.Flags().GetUint(flagBitrate)
		if bitrate == 0 || bitrate > 1000000 {
			return errors.Errorf("invalid bit rate %d", bitrate)
		}
		frames := make([]can.Frame, len(args))
		for i, a := range args {
			if err := frames[i].UnmarshalString(a); err != nil {
				return errors.Wrapf(err, "frame %q", a)
			}
		}

		s := newSimulator(cmd, "send")
		for _, p := range []chip.Pin{chip.EN, chip.NSTB} {
			if err := s.SetPin(p, chip.High, chip.NominalVIO); err != nil {
				return err
			}
		}
		s.Step(chip.TPowerUp)
		if m := s.Mode(); m != chip.Normal {
			return errors.Errorf("simulator in %v mode after power up", m)
		}

		tx := bitstream.NewTransmitter(s)
		tx.BitTime = chip.Second / uint64(bitrate)
		for _, f := range frames {
			start := s.Now()
			r, err := tx.Send(f)
			if err != nil {
				fmt.Printf("%s %s: %s\n", passFail(false), f.String(), yellow("%v", err))
				return err
			}
			fmt.Printf("%s %s -> %s (%dus)\n", passFail(r == f), f.String(), r.String(), (s.Now()-start)/chip.Microsecond)
		}
		return nil
	},
}

func init() {
	sendCmd.Flags().UintP(flagBitrate, "b", 500000, "bit rate in bit/s")
	rootCmd.AddCommand(sendCmd)
}
