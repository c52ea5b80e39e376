package main

import (
	"github.com/spf13/cobra"

	"github.com/svr93/military-ed--tle-to-cartesian/internal/timesys"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/translator"
)

// The element set, frame and window reproduced by the demo command.
const (
	demoLine1 = "1 20724U 90068A   02173.73395695 -.00000086  00000-0  00000-0 0  1771"
	demoLine2 = "2 20724  56.1487  21.0845 0183651 226.6216 131.8780  2.00562381 85500"
	demoFrame = "ECEF"
	demoStart = "2015-11-26T00:00:00Z"
	demoStop  = "2015-11-27T00:00:00Z"
	demoStep  = 3600.0
)

type propagateFlags struct {
	line1, line2 string
	frame        string
	start, stop  string
	step         float64
	epochTimes   bool
}

func newPropagateCmd(g *globalFlags) *cobra.Command {
	f := &propagateFlags{}
	cmd := &cobra.Command{
		Use:   "propagate",
		Short: "Propagate a TLE over a time window",
		Long: `
Propagate a TLE from --start to --stop inclusive, every --step seconds, and
print the samples as a flat [time, x, y, z, ...] record.

Examples:
  tletranslate propagate --line1 "1 25544U ..." --line2 "2 25544 ..." \
    --frame ECI --start 2024-04-10T00:00:00Z --stop 2024-04-10T01:30:00Z --step 60
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPropagate(cmd, g, f)
		},
	}
	cmd.Flags().StringVar(&f.line1, "line1", "", "first TLE line")
	cmd.Flags().StringVar(&f.line2, "line2", "", "second TLE line")
	cmd.Flags().StringVar(&f.frame, "frame", "ECEF", "reference frame (ECI|ECEF)")
	cmd.Flags().StringVar(&f.start, "start", "", "window start (RFC 3339, UTC)")
	cmd.Flags().StringVar(&f.stop, "stop", "", "window stop (RFC 3339, UTC)")
	cmd.Flags().Float64Var(&f.step, "step", 60, "sample spacing in seconds")
	cmd.Flags().BoolVar(&f.epochTimes, "epoch-times", false, "write times as seconds since the first sample")
	for _, name := range []string{"line1", "line2", "start", "stop"} {
		cmd.MarkFlagRequired(name)
	}
	return cmd
}

func runPropagate(cmd *cobra.Command, g *globalFlags, f *propagateFlags) error {
	start, err := timesys.Parse(f.start)
	if err != nil {
		return err
	}
	stop, err := timesys.Parse(f.stop)
	if err != nil {
		return err
	}

	tr, err := translator.New(f.line1, f.line2, f.frame,
		translator.WithLogger(g.logger(cmd.ErrOrStderr())),
		translator.WithWorkers(g.workers),
	)
	if err != nil {
		return err
	}
	samples, err := tr.Propagate(cmd.Context(), start, stop, timesys.Duration(f.step))
	if err != nil && len(samples) == 0 {
		return err
	}

	form := translator.CartesianISO
	if f.epochTimes {
		form = translator.CartesianEpoch
	}
	if werr := g.write(cmd.OutOrStdout(), translator.NewPropagationRecord(tr.Frame(), samples, form)); werr != nil {
		return werr
	}
	// Samples before a decay are still printed.
	return err
}

func newKeplerianCmd(g *globalFlags) *cobra.Command {
	var line1, line2 string
	cmd := &cobra.Command{
		Use:   "keplerian",
		Short: "Print the osculating Keplerian elements at the TLE epoch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := translator.New(line1, line2, "ECI", translator.WithLogger(g.logger(cmd.ErrOrStderr())))
			if err != nil {
				return err
			}
			k, err := tr.KeplerianElements()
			if err != nil {
				return err
			}
			return g.write(cmd.OutOrStdout(), translator.NewKeplerianRecord(k))
		},
	}
	cmd.Flags().StringVar(&line1, "line1", "", "first TLE line")
	cmd.Flags().StringVar(&line2, "line2", "", "second TLE line")
	cmd.MarkFlagRequired("line1")
	cmd.MarkFlagRequired("line2")
	return cmd
}

func newDemoCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Propagate NAVSTAR 20724 over 2015-11-26 in the Earth-fixed frame",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPropagate(cmd, g, &propagateFlags{
				line1: demoLine1,
				line2: demoLine2,
				frame: demoFrame,
				start: demoStart,
				stop:  demoStop,
				step:  demoStep,
			})
		},
	}
}
