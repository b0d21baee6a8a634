package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	appLog "freecal/internal/log"
	"freecal/internal/report"
	"freecal/internal/web"
)

const refreshTimeout = time.Minute

func newServeCmd(root *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve availability over HTTP, refreshing on a cron schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, baseDir, err := loadConfig(root)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}

			ropts, err := report.OptionsFromConfig(cfg, baseDir)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			srv := web.NewServer(cfg)
			refresh := refreshFunc(ctx, ropts, srv)

			sched, err := newScheduler(ropts.Window.Location, cfg.Refresh, refresh)
			if err != nil {
				return err
			}

			appLog.Info("freecal serve starting",
				"listen", cfg.Listen,
				"refresh", cfg.Refresh,
				"window", ropts.Window.String(),
			)

			refresh()
			sched.Start()
			defer func() {
				<-sched.Stop().Done()
				appLog.Info("scheduler stopped")
			}()

			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}

// reportSink receives the outcome of each refresh.
type reportSink interface {
	SetReport(rep *report.Report)
	SetError(err error)
}

// refreshFunc returns the job run at startup and on every cron tick. A
// failed refresh leaves the last good report in place.
func refreshFunc(ctx context.Context, opts report.Options, sink reportSink) func() {
	return func() {
		ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
		defer cancel()

		start := time.Now()
		rep, err := report.Generate(ctx, opts)
		if err != nil {
			appLog.Error("refresh failed", err)
			sink.SetError(err)
			return
		}
		sink.SetReport(rep)
		appLog.Info("refresh complete",
			"days", len(rep.Days),
			"from_cache", rep.FromCache,
			"duration", time.Since(start).String(),
		)
	}
}

// newScheduler builds a cron scheduler in loc that runs job on spec.
// Overlapping runs are skipped.
func newScheduler(loc *time.Location, spec string, job func()) (*cron.Cron, error) {
	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(spec, job); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	return c, nil
}

// cronLogger adapts the application logger to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	appLog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	appLog.Error("cron: "+msg, err, keysAndValues...)
}
