package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kryostatic94/lsx-signal-workshop/internal/errors"
)

func inspectCmd(opts *globalOptions) *cobra.Command {
	var (
		addr string
		demo time.Duration
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Serve a live view of the workshop services",
		Long: `Start the inspector: JSON state, runtime stats, Prometheus metrics
and a WebSocket stream that pushes a snapshot on every change.

Routes:
  GET /state    all service state
  GET /stats    reactive runtime counters
  GET /metrics  Prometheus metrics
  GET /ws       WebSocket snapshot stream

With --demo the counter is incremented and a random analytics event is
tracked on every tick, so connected clients see updates.

Examples:
  signals inspect
  signals inspect --addr=:7070 --demo=1s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if demo < 0 {
				return invalidFlag("--demo must not be negative, got %s", demo)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runInspect(ctx, cmd, opts, addr, demo)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().DurationVar(&demo, "demo", 0, "Generate demo activity at this interval")

	return cmd
}

func runInspect(ctx context.Context, cmd *cobra.Command, opts *globalOptions, addr string, demo time.Duration) error {
	app, err := opts.newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Close()

	if addr == "" {
		addr = app.Config().Inspect.Addr
	}

	srv, err := app.NewInspector()
	if err != nil {
		return errors.FromReactive(err)
	}
	defer srv.Close()

	if err := app.Todos().LoadSampleData(); err != nil {
		return errors.FromReactive(err)
	}

	if demo > 0 {
		go func() {
			ticker := time.NewTicker(demo)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := app.Counter().Increment(); err != nil {
						app.Logger().Warn("demo increment failed", "error", err)
					}
					if _, err := app.Analytics().TrackRandomEvent(); err != nil {
						app.Logger().Warn("demo event failed", "error", err)
					}
				}
			}
		}()
	}

	out := cmd.OutOrStdout()
	printBanner(out)
	success(out, "Inspector on http://%s", addr)
	info(out, "WebSocket: ws://%s/ws", addr)

	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return errors.Newf(errors.CategoryService, "Inspector stopped on %s", addr).Wrap(err)
	}
	return nil
}
