package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/elemtree/pkg/debugserver"
	"github.com/vango-dev/elemtree/pkg/snapshot"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve <file | s3://bucket/key>",
		Short: "Build a tree description and serve the snapshot over HTTP",
		Long: `Build a tree description once and serve it for inspection.

POST /snapshot/rebuild reloads the description and rebuilds the snapshot.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uri := args[0]

			e, err := newEnv(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if addr == "" {
				addr = e.cfg.ServerAddress()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			stats, err := e.buildFrom(ctx, uri)
			if err != nil {
				return err
			}
			e.logger.Info("snapshot built", "source", uri, "elements", stats.Elements, "roots", stats.Roots)

			srv := debugserver.New(e.snap,
				debugserver.WithLogger(e.logger),
				debugserver.WithGatherer(e.metrics),
				debugserver.WithRebuild(func(ctx context.Context, _ *snapshot.Snapshot) error {
					_, err := e.buildFrom(ctx, uri)
					return err
				}),
			)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from elemtree.json)")

	return cmd
}
