// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"

	"github.com/db47h/tcansim/scenario"
	"github.com/spf13/cobra"
)

const flagAll = "all"

var scenariosCmd = &cobra.Command{
	Use:   "scenarios [NAME...]",
	Short: "List or run built-in scenarios",
	Long: `Without arguments, list the built-in scenarios. With names, or with --all,
run them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool(flagAll)
		if all {
			args = scenario.Names()
		}
		if len(args) == 0 {
			for _, n := range scenario.Names() {
				sc, _ := scenario.Builtin(n)
				fmt.Printf("%-24s %s\n", n, sc.Description)
			}
			return nil
		}
		scs := make([]*scenario.Scenario, len(args))
		for i, n := range args {
			sc, err := scenario.Builtin(n)
			if err != nil {
				return err
			}
			scs[i] = sc
		}
		return runScenarios(cmd, scs)
	},
}

func init() {
	f := scenariosCmd.Flags()
	f.BoolP(flagAll, "a", false, "run all built-in scenarios")
	f.IntP(flagJobs, "j", 1, "number of scenarios to run concurrently")
	f.BoolP(flagVerbose, "v", false, "list scenario actions")
	rootCmd.AddCommand(scenariosCmd)
}
