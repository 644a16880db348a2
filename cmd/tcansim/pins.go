// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"

	"github.com/db47h/tcansim"
	"github.com/db47h/tcansim/chip"
	"github.com/spf13/cobra"
)

var pinsCmd = &cobra.Command{
	Use:   "pins",
	Short: "Print the pin table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("%-3s %-9s %-13s %-13s %s\n", "#", "NAME", "DIRECTION", "RANGE", "DEFAULT")
		for p := chip.Pin(0); p < chip.PinCount; p++ {
			info, err := tcansim.PinInfo(p)
			if err != nil {
				return err
			}
			fmt.Printf("%-3d %-9s %-13s %-13s %v %gV\n", int(p), info.Name, info.Dir,
				fmt.Sprintf("%g..%gV", info.Min, info.Max), info.Default.State, info.Default.Voltage)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pinsCmd)
}
