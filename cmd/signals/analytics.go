package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	workshop "github.com/Kryostatic94/lsx-signal-workshop"
	"github.com/Kryostatic94/lsx-signal-workshop/internal/errors"
	"github.com/Kryostatic94/lsx-signal-workshop/pkg/services/analytics"
)

type analyticsOptions struct {
	events    int
	duration  time.Duration
	interval  time.Duration
	batchSize int
	monitor   bool
}

func analyticsCmd(opts *globalOptions) *cobra.Command {
	var o analyticsOptions

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Run the analytics tracker with real timers",
		Long: `Track random events for a while and watch the logging, auto-save and
monitoring effects at work in the log output.

Events are spread evenly over --duration. The auto-save ticker runs
every --interval; changing it restarts the ticker through the effect's
cleanup. Interrupt with Ctrl+C to stop early.

Examples:
  signals analytics
  signals analytics --events=20 --duration=5s --interval=1s --monitor`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.events < 0 {
				return invalidFlag("--events must not be negative, got %d", o.events)
			}
			if o.duration <= 0 {
				return invalidFlag("--duration must be positive, got %s", o.duration)
			}
			if cmd.Flags().Changed("interval") && o.interval <= 0 {
				return invalidFlag("--interval must be positive, got %s", o.interval)
			}
			if cmd.Flags().Changed("batch-size") && o.batchSize < 1 {
				return invalidFlag("--batch-size must be at least 1, got %d", o.batchSize)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runAnalytics(ctx, cmd, opts, o)
		},
	}

	cmd.Flags().IntVarP(&o.events, "events", "e", 10, "Number of random events to track")
	cmd.Flags().DurationVarP(&o.duration, "duration", "d", 3*time.Second, "How long to run")
	cmd.Flags().DurationVarP(&o.interval, "interval", "i", 0, "Auto-save interval (default from config)")
	cmd.Flags().IntVarP(&o.batchSize, "batch-size", "b", 0, "Events per logged batch (default from config)")
	cmd.Flags().BoolVarP(&o.monitor, "monitor", "m", false, "Enable advanced monitoring")

	return cmd
}

func runAnalytics(ctx context.Context, cmd *cobra.Command, opts *globalOptions, o analyticsOptions) error {
	var extra []analytics.Option
	if o.interval > 0 {
		extra = append(extra, analytics.WithAutoSaveInterval(o.interval))
	}
	if o.batchSize > 0 {
		extra = append(extra, analytics.WithBatchSize(o.batchSize))
	}

	app, err := opts.newApp(cmd.ErrOrStderr(), workshop.WithAnalyticsOptions(extra...))
	if err != nil {
		return err
	}
	defer app.Close()

	svc := app.Analytics()
	out := cmd.OutOrStdout()

	if o.monitor {
		if err := svc.SetupAdvancedMonitoring(); err != nil {
			return errors.FromReactive(err)
		}
	}

	deadline := time.NewTimer(o.duration)
	defer deadline.Stop()

	var tick <-chan time.Time
	if o.events > 0 {
		period := max(o.duration/time.Duration(o.events+1), time.Millisecond)
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		tick = ticker.C
	}

	tracked := 0
loop:
	for {
		select {
		case <-ctx.Done():
			info(out, "interrupted")
			break loop
		case <-deadline.C:
			break loop
		case <-tick:
			if tracked >= o.events {
				tick = nil
				continue
			}
			if _, err := svc.TrackRandomEvent(); err != nil {
				return errors.FromReactive(err)
			}
			tracked++
		}
	}

	if err := app.Close(); err != nil {
		return errors.FromReactive(err)
	}

	s := svc.State()
	success(out, "tracked %d events", s.TotalEvents)
	info(out, "saved batches: %d", svc.SavedBatches())
	info(out, "auto-save interval: %s", s.AutoSaveInterval)
	for _, e := range s.RecentEvents {
		info(out, "%s  %-10s %v", e.Timestamp.Format(time.TimeOnly), e.Type, e.Data["value"])
	}
	fmt.Fprintln(out)
	return nil
}
