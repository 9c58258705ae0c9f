package main

import (
	"github.com/spf13/cobra"

	"github.com/ha1tch/fcstm-toolkit/pkg/chart"
)

// stateFlags are the attribute flags shared by state add and state edit.
type stateFlags struct {
	name        string
	kind        string
	description string
	minLock     int
	maxLock     int
	onEntry     string
	onDuring    string
	onExit      string
}

func (f *stateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.kind, "kind", "k", "normal", "state kind: normal, pseudo or composite")
	cmd.Flags().StringVar(&f.description, "description", "", "free text description")
	cmd.Flags().IntVar(&f.minLock, "min-lock", 0, "minimum time lock")
	cmd.Flags().IntVar(&f.maxLock, "max-lock", 0, "maximum time lock")
	cmd.Flags().StringVar(&f.onEntry, "on-entry", "", "entry action code")
	cmd.Flags().StringVar(&f.onDuring, "on-during", "", "during action code")
	cmd.Flags().StringVar(&f.onExit, "on-exit", "", "exit action code")
}

// apply overlays the flags the user set onto spec.
func (f *stateFlags) apply(cmd *cobra.Command, spec chart.StateSpec) (chart.StateSpec, error) {
	changed := cmd.Flags().Changed
	if changed("name") {
		spec.Name = f.name
	}
	if changed("kind") || spec.Kind == "" {
		k, err := chart.ParseKind(f.kind)
		if err != nil {
			return spec, err
		}
		spec.Kind = k
	}
	if changed("description") {
		spec.Description = f.description
	}
	if changed("min-lock") {
		spec.MinTimeLock = chart.IntPtr(f.minLock)
	}
	if changed("max-lock") {
		spec.MaxTimeLock = chart.IntPtr(f.maxLock)
	}
	if changed("on-entry") {
		spec.OnEntry = f.onEntry
	}
	if changed("on-during") {
		spec.OnDuring = f.onDuring
	}
	if changed("on-exit") {
		spec.OnExit = f.onExit
	}
	return spec, nil
}

func (a *app) stateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Add, edit or remove states",
	}
	cmd.AddCommand(a.stateAddCmd(), a.stateEditCmd(), a.stateRmCmd(), a.stateInitialCmd())
	return cmd
}

func (a *app) stateAddCmd() *cobra.Command {
	var flags stateFlags
	var parent string

	cmd := &cobra.Command{
		Use:   "add <file> <name>",
		Short: "Add a state under a composite state (default: the root)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd.Context(), args[0], func(c *chart.Statechart) error {
				parentID := chart.None
				if parent != "" {
					p, err := stateByName(c, parent)
					if err != nil {
						return err
					}
					parentID = p.ID
				}
				spec, err := flags.apply(cmd, chart.StateSpec{Name: args[1]})
				if err != nil {
					return err
				}
				if _, err := c.AddState(parentID, spec); err != nil {
					return err
				}
				a.log.Info("state added", "state", spec.Name, "kind", spec.Kind, "parent", parent)
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&parent, "parent", "p", "", "parent composite state")
	return cmd
}

func (a *app) stateEditCmd() *cobra.Command {
	var flags stateFlags

	cmd := &cobra.Command{
		Use:   "edit <file> <name>",
		Short: "Change the attributes of a state",
		Long: `Change the attributes of a state. Only the flags given are applied.
A composite state with children cannot become a leaf.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd.Context(), args[0], func(c *chart.Statechart) error {
				s, err := stateByName(c, args[1])
				if err != nil {
					return err
				}
				spec, err := flags.apply(cmd, s.Spec())
				if err != nil {
					return err
				}
				if err := c.EditState(s.ID, spec); err != nil {
					return err
				}
				a.log.Info("state edited", "state", c.Path(s.ID))
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&flags.name, "name", "n", "", "new state name")
	return cmd
}

func (a *app) stateRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <file> <name>",
		Short: "Remove a state, its subtree and every transition touching them",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd.Context(), args[0], func(c *chart.Statechart) error {
				s, ok := c.StateByName(args[1])
				if !ok {
					a.log.Warn("no such state, nothing removed", "state", args[1])
					return nil
				}
				before := c.NumStates()
				if err := c.DelState(s.ID); err != nil {
					return err
				}
				a.log.Info("state removed", "state", args[1], "removed", before-c.NumStates())
				return nil
			})
		},
	}
}

func (a *app) stateInitialCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "initial <file> <name>",
		Short: "Mark a state as the initial child of its parent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd.Context(), args[0], func(c *chart.Statechart) error {
				s, err := stateByName(c, args[1])
				if err != nil {
					return err
				}
				return c.SetInitial(s.ID)
			})
		},
	}
}

func (a *app) eventCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Add, edit or remove events",
	}

	var guard string
	add := &cobra.Command{
		Use:   "add <file> <name>",
		Short: "Add an event",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd.Context(), args[0], func(c *chart.Statechart) error {
				_, err := c.AddEvent(args[1], guard)
				return err
			})
		},
	}
	add.Flags().StringVarP(&guard, "guard", "g", "", "guard expression")

	var newName, newGuard string
	edit := &cobra.Command{
		Use:   "edit <file> <name>",
		Short: "Rename an event or change its guard",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd.Context(), args[0], func(c *chart.Statechart) error {
				e, err := eventByName(c, args[1])
				if err != nil {
					return err
				}
				name, g := e.Name, e.Guard
				if cmd.Flags().Changed("name") {
					name = newName
				}
				if cmd.Flags().Changed("guard") {
					g = newGuard
				}
				return c.EditEvent(e.ID, name, g)
			})
		},
	}
	edit.Flags().StringVarP(&newName, "name", "n", "", "new event name")
	edit.Flags().StringVarP(&newGuard, "guard", "g", "", "new guard expression")

	rm := &cobra.Command{
		Use:   "rm <file> <name>",
		Short: "Remove an event and every transition it triggers",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd.Context(), args[0], func(c *chart.Statechart) error {
				e, ok := c.EventByName(args[1])
				if !ok {
					a.log.Warn("no such event, nothing removed", "event", args[1])
					return nil
				}
				c.DelEvent(e.ID)
				return nil
			})
		},
	}

	cmd.AddCommand(add, edit, rm)
	return cmd
}

func (a *app) transitionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transition",
		Aliases: []string{"tr"},
		Short:   "Add, edit or remove transitions",
	}

	add := &cobra.Command{
		Use:   "add <file> <source> <target> <event>",
		Short: "Add a transition",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd.Context(), args[0], func(c *chart.Statechart) error {
				key, err := triple(c, args[1], args[2], args[3])
				if err != nil {
					return err
				}
				_, err = c.AddTransition(key)
				return err
			})
		},
	}

	var src, dst, event string
	edit := &cobra.Command{
		Use:   "edit <file> <source> <target> <event>",
		Short: "Retarget a transition",
		Long:  `Change the source, target or event of an existing transition in place.`,
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd.Context(), args[0], func(c *chart.Statechart) error {
				old, err := triple(c, args[1], args[2], args[3])
				if err != nil {
					return err
				}
				ns, nd, ne := args[1], args[2], args[3]
				if cmd.Flags().Changed("source") {
					ns = src
				}
				if cmd.Flags().Changed("target") {
					nd = dst
				}
				if cmd.Flags().Changed("event") {
					ne = event
				}
				next, err := triple(c, ns, nd, ne)
				if err != nil {
					return err
				}
				return c.EditTransition(old, next)
			})
		},
	}
	edit.Flags().StringVar(&src, "source", "", "new source state")
	edit.Flags().StringVar(&dst, "target", "", "new target state")
	edit.Flags().StringVar(&event, "event", "", "new triggering event")

	rm := &cobra.Command{
		Use:   "rm <file> <source> <target> <event>",
		Short: "Remove a transition",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd.Context(), args[0], func(c *chart.Statechart) error {
				key, err := triple(c, args[1], args[2], args[3])
				if err != nil {
					a.log.Warn("no such transition, nothing removed", "reason", err)
					return nil
				}
				c.DelTransition(key)
				return nil
			})
		},
	}

	cmd.AddCommand(add, edit, rm)
	return cmd
}
