package main

import (
	"context"

	"github.com/desertthunder/alignx/internal/server"
	"github.com/desertthunder/alignx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve loads the caches and serves them until interrupted.
//
// Without --offline the task cache is synced first; a failed sync falls back to the saved records.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	flow := r.workflow()
	if !cmd.Bool("offline") {
		if n, err := flow.Sync(ctx, r.config.API.ListLimit, nil); err != nil {
			r.logger.Warn("sync failed, serving saved records", "error", err)
		} else {
			r.logger.Info("alignments synced", "count", n)
		}
	}
	if n, err := r.loadAssets(ctx); err != nil {
		r.logger.Warn("assets not loaded", "error", err)
	} else {
		r.logger.Info("assets loaded", "count", n)
	}

	logger := shared.WithLogger(r.logger, "component", "server")
	handler := server.NewRouter(r.cache, flow, logger)

	r.writePlain("Serving alignments on http://%s\n", addr)
	return server.Serve(ctx, addr, handler, logger)
}
