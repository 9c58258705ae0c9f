// Command fcstm creates, edits, checks and exports statechart files.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ha1tch/fcstm-toolkit/internal/config"
	"github.com/ha1tch/fcstm-toolkit/pkg/chart"
	"github.com/ha1tch/fcstm-toolkit/pkg/chartfile"
)

// app carries what every command needs once flags and environment are read.
type app struct {
	cfg config.Config
	log *slog.Logger
}

func main() {
	root := newRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.Default(), log: slog.Default()}

	root := &cobra.Command{
		Use:   "fcstm",
		Short: "Statechart toolkit",
		Long: `fcstm works on hierarchical state machine files (.json, .yaml).

Examples:
  fcstm new door.json --name door --root Door
  fcstm state add door.json Closed
  fcstm state add door.json Open
  fcstm state initial door.json Closed
  fcstm event add door.json push
  fcstm transition add door.json Closed Open push
  fcstm puml door.json -o door.puml
  fcstm check door.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = cfg.Logger(cmd.ErrOrStderr())
			return nil
		},
	}

	root.AddCommand(
		a.newCmd(),
		a.infoCmd(),
		a.checkCmd(),
		a.pumlCmd(),
		a.dotCmd(),
		a.pngCmd(),
		a.svgCmd(),
		a.convertCmd(),
		a.reportCmd(),
		a.stateCmd(),
		a.eventCmd(),
		a.transitionCmd(),
		a.storeCmd(),
	)
	return root
}

// load reads a chart file and logs any integrity warnings it carries.
func (a *app) load(ctx context.Context, path string) (*chart.Statechart, error) {
	c, err := chartfile.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	if warnings := c.LegalityCheck(); len(warnings) > 0 {
		a.log.Warn("chart has illegal transitions", "path", path, "count", len(warnings))
	}
	a.log.Debug("chart loaded", "path", path, "states", c.NumStates())
	return c, nil
}

func (a *app) save(ctx context.Context, path string, c *chart.Statechart) error {
	if err := chartfile.WriteFile(ctx, path, c); err != nil {
		return err
	}
	a.log.Debug("chart saved", "path", path, "states", c.NumStates())
	return nil
}

// edit runs one engine operation against a chart file and saves the result.
// A rejected operation leaves the file untouched.
func (a *app) edit(ctx context.Context, path string, op func(c *chart.Statechart) error) error {
	c, err := a.load(ctx, path)
	if err != nil {
		return err
	}
	if err := op(c); err != nil {
		if errors.Is(err, chart.ErrRejected) {
			a.log.Info("edit rejected", "path", path, "reason", err)
		}
		return err
	}
	return a.save(ctx, path, c)
}

// output opens the -o target, or returns w when none was given.
func output(path string, w io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return w, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func stateByName(c *chart.Statechart, name string) (chart.State, error) {
	s, ok := c.StateByName(name)
	if !ok {
		return chart.State{}, fmt.Errorf("%w: state %q", chart.ErrNotFound, name)
	}
	return s, nil
}

func eventByName(c *chart.Statechart, name string) (chart.Event, error) {
	e, ok := c.EventByName(name)
	if !ok {
		return chart.Event{}, fmt.Errorf("%w: event %q", chart.ErrNotFound, name)
	}
	return e, nil
}

// triple resolves source, target and event names.
func triple(c *chart.Statechart, src, dst, event string) (chart.Triple, error) {
	s, err := stateByName(c, src)
	if err != nil {
		return chart.Triple{}, err
	}
	d, err := stateByName(c, dst)
	if err != nil {
		return chart.Triple{}, err
	}
	e, err := eventByName(c, event)
	if err != nil {
		return chart.Triple{}, err
	}
	return chart.Triple{Src: s.ID, Dst: d.ID, Event: e.ID}, nil
}
