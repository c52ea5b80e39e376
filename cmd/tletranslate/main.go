// Command tletranslate converts two-line element sets into Cartesian state
// vectors or classical Keplerian elements.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type globalFlags struct {
	format  string
	workers int
	verbose bool
}

func (g *globalFlags) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if g.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// write encodes v to w in the selected output format.
func (g *globalFlags) write(w io.Writer, v any) error {
	switch g.format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q, must be json or yaml", g.format)
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "tletranslate",
		Short: "Translate TLE element sets to Cartesian or Keplerian form",
		Long: `
Translate NORAD two-line element sets with the SGP4/SDP4 propagator.

Frames:
  ECI   - true equator, mean equinox inertial frame (TEME)
  ECEF  - Earth-fixed frame, rotated by Greenwich mean sidereal time

Positions are written in metres and velocities in metres per second.
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if g.format != "json" && g.format != "yaml" {
				return fmt.Errorf("unknown output format %q, must be json or yaml", g.format)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&g.format, "format", "o", "json", "output format (json|yaml)")
	root.PersistentFlags().IntVar(&g.workers, "workers", 0, "propagation workers (0 = one per CPU)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging on stderr")

	root.AddCommand(newPropagateCmd(g), newKeplerianCmd(g), newDemoCmd(g))
	return root
}
