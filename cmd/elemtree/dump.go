package main

import (
	"fmt"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

func dumpCmd() *cobra.Command {
	var (
		pretty      bool
		outline     bool
		showMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "dump [file | s3://bucket/key | -]",
		Short: "Build a tree description and print the snapshot",
		Long: `Build a tree description and print the diagnostic listing.

The listing shows the roots followed by one line per element:

  <id>: <props>, children: [<ids>]

Elements whose kind has no debug formatter show a placeholder.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uri := "-"
			if len(args) == 1 {
				uri = args[0]
			}

			e, err := newEnv(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			if _, err := e.buildFrom(cmd.Context(), uri); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case outline:
				fmt.Fprint(out, e.snap.Outline())
			case pretty:
				fmt.Fprintf(out, "%+v", e.snap)
			default:
				fmt.Fprintf(out, "%v\n", e.snap)
			}

			if showMetrics {
				families, err := e.metrics.Gather()
				if err != nil {
					return err
				}
				fmt.Fprintln(out)
				for _, mf := range families {
					if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "Print one element per line")
	cmd.Flags().BoolVar(&outline, "outline", false, "Print the tree shape indented by depth")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "Print build metrics after the listing")

	return cmd
}
