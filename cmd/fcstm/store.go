package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ha1tch/fcstm-toolkit/pkg/chartstore"
)

func (a *app) storeCmd() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "store",
		Short: "Keep charts in PostgreSQL",
		Long: `Push charts to and pull them from a PostgreSQL database. The connection
string comes from --dsn or FCSTM_DB_DSN.`,
	}
	cmd.PersistentFlags().StringVar(&dsn, "dsn", "", "PostgreSQL connection string (overrides FCSTM_DB_DSN)")

	open := func(ctx context.Context) (*chartstore.Store, error) {
		conn := dsn
		if conn == "" {
			conn = a.cfg.DSN
		}
		if conn == "" {
			return nil, errors.New("no database configured: set FCSTM_DB_DSN or use --dsn")
		}
		return chartstore.Open(ctx, conn, chartstore.WithLogger(a.log))
	}

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Create the charts table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			return s.Migrate(cmd.Context())
		},
	}

	push := &cobra.Command{
		Use:   "push <file>",
		Short: "Save a chart file to the store under its chart name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			s, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			return s.Save(cmd.Context(), c)
		},
	}

	pull := &cobra.Command{
		Use:   "pull <name> <file>",
		Short: "Write a stored chart to a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			c, err := s.Load(cmd.Context(), args[0])
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

	ls := &cobra.Command{
		Use:   "ls",
		Short: "List stored charts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			charts, err := s.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSTATES\tUPDATED")
			for _, sum := range charts {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", sum.Name, sum.States, sum.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}

	rm := &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a stored chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			return s.Delete(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(migrate, push, pull, ls, rm)
	return cmd
}
