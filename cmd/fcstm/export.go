package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ha1tch/fcstm-toolkit/pkg/chart"
	"github.com/ha1tch/fcstm-toolkit/pkg/chartfile"
)

func (a *app) newCmd() *cobra.Command {
	var name, rootName string
	var force bool

	cmd := &cobra.Command{
		Use:   "new <file>",
		Short: "Create an empty chart",
		Long: `Create a chart holding only its composite root state. Without an
extension the file gets the format set by FCSTM_FORMAT.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if filepath.Ext(path) == "" {
				path += "." + string(a.cfg.Format)
			}
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}
			if rootName == "" {
				rootName = name
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to replace it)", path)
				}
			}
			c := chart.New(name, rootName)
			if err := a.save(cmd.Context(), path, c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Written: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "chart name (default: file name)")
	cmd.Flags().StringVar(&rootName, "root", "", "root state name (default: chart name)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Show chart information and its state tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Name:        %s\n", c.Name)
			fmt.Fprintf(w, "States:      %d\n", c.NumStates())
			fmt.Fprintf(w, "Events:      %d\n", len(c.Events()))
			fmt.Fprintf(w, "Transitions: %d\n", len(c.Transitions()))
			if len(c.Preamble) > 0 {
				fmt.Fprintf(w, "Preamble:    %d lines\n", len(c.Preamble))
			}
			fmt.Fprintln(w)
			c.Walk(func(s chart.State, depth int) {
				mark := " "
				if c.IsInitial(s.ID) {
					mark = "*"
				}
				fmt.Fprintf(w, "%s%s %s (%s)\n", strings.Repeat("  ", depth), mark, s.Name, s.Kind)
			})
			return nil
		},
	}
}

func (a *app) checkCmd() *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Report transitions whose state or event does not exist",
		Long: `Report illegal transitions. With --fix they are removed and the file
is saved; otherwise the command fails when any are found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := chartfile.ReadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			warnings := c.LegalityCheck()
			w := cmd.OutOrStdout()
			for _, iw := range warnings {
				fmt.Fprintln(w, iw.Error())
			}
			if len(warnings) == 0 {
				fmt.Fprintf(w, "%s: legal, %d states, %d transitions\n", args[0], c.NumStates(), len(c.Transitions()))
				return nil
			}
			if !fix {
				return fmt.Errorf("%d illegal transitions", len(warnings))
			}
			for _, iw := range warnings {
				c.DropTransition(iw.Transition.ID)
			}
			a.log.Info("illegal transitions removed", "path", args[0], "count", len(warnings))
			return a.save(cmd.Context(), args[0], c)
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "remove illegal transitions and save")
	return cmd
}

func (a *app) pumlCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "puml <file>",
		Short: "Generate PlantUML output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w, done, err := output(out, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return errors.Join(chartfile.WritePlantUML(w, c), done())
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func (a *app) dotCmd() *cobra.Command {
	var out, title string

	cmd := &cobra.Command{
		Use:   "dot <file>",
		Short: "Generate Graphviz DOT output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if title == "" {
				title = c.Name
			}
			w, done, err := output(out, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			_, werr := fmt.Fprint(w, chartfile.GenerateDOT(c, title))
			return errors.Join(werr, done())
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&title, "title", "", "diagram title (default: chart name)")
	return cmd
}

func (a *app) pngCmd() *cobra.Command {
	var out, title string
	var width, height int

	cmd := &cobra.Command{
		Use:   "png <file>",
		Short: "Render a PNG preview of the state tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if out == "" {
				out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".png"
			}
			opts := chartfile.DefaultPNGOptions()
			opts.Width, opts.Height = a.cfg.PNGWidth, a.cfg.PNGHeight
			if cmd.Flags().Changed("width") {
				opts.Width = width
			}
			if cmd.Flags().Changed("height") {
				opts.Height = height
			}
			opts.Title = title

			w, done, err := output(out, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := errors.Join(chartfile.RenderPNG(c, w, opts), done()); err != nil {
				return err
			}
			a.log.Info("preview rendered", "path", out, "width", opts.Width, "height", opts.Height)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: <file>.png)")
	cmd.Flags().StringVar(&title, "title", "", "title drawn above the tree")
	cmd.Flags().IntVar(&width, "width", 0, "image width (default: FCSTM_PNG_WIDTH or 800)")
	cmd.Flags().IntVar(&height, "height", 0, "image height (default: FCSTM_PNG_HEIGHT or 600)")
	return cmd
}

func (a *app) svgCmd() *cobra.Command {
	var out, title string
	var width, height int

	cmd := &cobra.Command{
		Use:   "svg <file>",
		Short: "Render an SVG preview of the state tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			opts := chartfile.DefaultSVGOptions()
			opts.Width, opts.Height, opts.Title = width, height, title

			w, done, err := output(out, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return errors.Join(chartfile.WriteSVG(c, w, opts), done())
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&title, "title", "", "title drawn above the tree")
	cmd.Flags().IntVar(&width, "width", 0, "canvas width (default: fit the chart)")
	cmd.Flags().IntVar(&height, "height", 0, "canvas height (default: fit the chart)")
	return cmd
}

func (a *app) convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert between JSON and YAML",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.save(cmd.Context(), args[1], c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Written: %s\n", args[1])
			return nil
		},
	}
}

func (a *app) reportCmd() *cobra.Command {
	var out, table string

	cmd := &cobra.Command{
		Use:   "report <file>",
		Short: "Write a CSV table of states, events or transitions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var write func(w io.Writer, c *chart.Statechart) error
			switch table {
			case "states":
				write = chartfile.WriteStatesCSV
			case "events":
				write = chartfile.WriteEventsCSV
			case "transitions":
				write = chartfile.WriteTransitionsCSV
			default:
				return fmt.Errorf("unknown table %q (states, events, transitions)", table)
			}
			c, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w, done, err := output(out, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return errors.Join(write(w, c), done())
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&table, "table", "t", "states", "table to write: states, events or transitions")
	return cmd
}
