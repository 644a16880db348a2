// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/db47h/tcansim/scenario"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	flagJobs    = "jobs"
	flagVerbose = "verbose"
	flagFormat  = "format"
)

var runCmd = &cobra.Command{
	Use:   "run FILE...",
	Short: "Run scenario files",
	Long: `Run scenario files, each on a fresh simulator. Files ending in .yaml or
.yml are read as YAML, all others as JSON.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString(flagFormat)
		scs := make([]*scenario.Scenario, len(args))
		for i, path := range args {
			sc, err := load(path, format)
			if err != nil {
				return err
			}
			scs[i] = sc
		}
		return runScenarios(cmd, scs)
	},
}

func init() {
	pf := runCmd.Flags()
	pf.IntP(flagJobs, "j", runtime.NumCPU(), "number of scenarios to run concurrently")
	pf.BoolP(flagVerbose, "v", false, "list scenario actions")
	pf.StringP(flagFormat, "f", "auto", "file format: auto, json or yaml")
	rootCmd.AddCommand(runCmd)
}

func load(path, format string) (*scenario.Scenario, error) {
	var f scenario.Format
	switch strings.ToLower(format) {
	case "auto":
		return scenario.Load(path)
	case "json":
		f = scenario.JSON
	case "yaml", "yml":
		f = scenario.YAML
	default:
		return nil, errors.Errorf("unknown format %q", format)
	}
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	sc, err := scenario.Parse(r, f)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	if sc.Name == "" {
		sc.Name = path
	}
	return sc, nil
}

// runScenarios runs scs concurrently and prints their results in order.
//
func runScenarios(cmd *cobra.Command, scs []*scenario.Scenario) error {
	jobs, _ := cmd.Flags().GetInt(flagJobs)
	verbose, _ := cmd.Flags().GetBool(flagVerbose)
	if jobs < 1 {
		jobs = 1
	}

	results := make([]scenario.Result, len(scs))
	errg, ctx := errgroup.WithContext(cmd.Context())
	errg.SetLimit(jobs)
	for i, sc := range scs {
		i, sc := i, sc
		errg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = sc.Execute(newSimulator(cmd, sc.Name))
			return nil
		})
	}
	if err := errg.Wait(); err != nil {
		return err
	}

	out := os.Stdout
	failed := 0
	for i, sc := range scs {
		r := &results[i]
		fmt.Fprintf(out, "%s %s (%d/%d)\n", passFail(r.Success), sc.Name, r.Passed, len(sc.Actions))
		if verbose {
			if err := sc.Print(out); err != nil {
				return err
			}
		}
		if !r.Success {
			failed++
			fmt.Fprintf(out, "    %s\n", yellow("%v", r.Err))
		}
	}
	if failed > 0 {
		return errors.Errorf("%d of %d scenarios failed", failed, len(scs))
	}
	return nil
}
