package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"freecal/internal/config"
	"freecal/internal/ics"
	appLog "freecal/internal/log"
	"freecal/internal/present"
	"freecal/internal/report"
)

// rootOptions holds flag values shared by every command.
type rootOptions struct {
	configPath string
	logLevel   string
	url        string
	days       int
	rangeDays  int
	start      string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "freecal [display-timezone]",
		Short: "Show free time in the working window from an iCalendar feed",
		Long: "freecal fetches an iCalendar feed, expands recurring events and prints the\n" +
			"free intervals of the working window for the next weekdays. An optional\n" +
			"display timezone (e.g. Asia/Kolkata) adds converted times to every line.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, opts, args)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "config.yaml", "path to config file")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&opts.url, "url", "", "ICS feed URL (overrides config and ical_url file)")
	pf.IntVar(&opts.days, "days", 0, "number of weekdays to report")
	pf.IntVar(&opts.rangeDays, "range-days", 0, "recurrence expansion horizon in days")
	cmd.Flags().StringVar(&opts.start, "start", "", "first day to consider (YYYY-MM-DD), default today")

	cmd.AddCommand(newInitCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute runs the CLI until completion or SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer appLog.Sync()

	cmd := newRootCmd()
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
	}
	return err
}

// loadConfig reads the config file, then applies environment and flag
// overrides in that order. The returned directory resolves a relative
// url_file.
func loadConfig(opts *rootOptions) (*config.Config, string, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, "", fmt.Errorf("load config %s: %w", opts.configPath, err)
	}

	cfg.ApplyEnv()
	if opts.url != "" {
		cfg.URL = opts.url
	}
	if opts.days > 0 {
		cfg.Weekdays = opts.days
	}
	if opts.rangeDays > 0 {
		cfg.RangeDays = opts.rangeDays
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	cfg.Normalize()
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

	appLog.Debug("effective config",
		"config_path", opts.configPath,
		"timezone", cfg.Timezone,
		"day_start", cfg.DayStart,
		"day_end", cfg.DayEnd,
		"weekdays", cfg.Weekdays,
		"range_days", cfg.RangeDays,
		"display_timezone", cfg.DisplayTimezone,
	)

	return cfg, filepath.Dir(opts.configPath), nil
}

func runReport(cmd *cobra.Command, opts *rootOptions, args []string) error {
	cfg, baseDir, err := loadConfig(opts)
	if err != nil {
		return err
	}
	errOut := cmd.ErrOrStderr()

	displayName := cfg.DisplayTimezone
	if len(args) > 0 {
		displayName = args[0]
	}
	var display *time.Location
	if displayName != "" {
		check := present.CheckTimezone(displayName)
		if check.Valid() {
			display = check.Location
		} else {
			printTimezoneError(errOut, check.Err)
		}
	}

	ropts, err := report.OptionsFromConfig(cfg, baseDir)
	if err != nil {
		return err
	}
	if opts.start != "" {
		start, err := time.ParseInLocation("2006-01-02", opts.start, ropts.Window.Location)
		if err != nil {
			return fmt.Errorf("invalid --start %q: want YYYY-MM-DD", opts.start)
		}
		ropts.Start = start
	}

	rep, err := report.Generate(cmd.Context(), ropts)
	if err != nil {
		var fetchErr *ics.FetchError
		if errors.As(err, &fetchErr) {
			return fmt.Errorf("could not fetch calendar: %w", err)
		}
		return err
	}
	printWarnings(errOut, rep)

	out := cmd.OutOrStdout()
	f := present.Formatter{
		Reference: rep.Window.Location,
		Display:   display,
		Names:     present.ZoneNames(cfg.ZoneNames),
		Color:     present.ShouldColor(out),
	}
	return f.Write(out, rep.Days)
}

func printTimezoneError(w io.Writer, err *present.UnknownTimezoneError) {
	_, _ = fmt.Fprintf(w, "invalid timezone: %s\n", err.Name)
	_, _ = fmt.Fprintln(w, "some valid timezones are:")
	for _, tz := range err.Suggestions {
		_, _ = fmt.Fprintln(w, "  "+tz)
	}
	_, _ = fmt.Fprintln(w, "showing times without conversion")
}

func printWarnings(w io.Writer, rep *report.Report) {
	for _, err := range rep.RuleErrors {
		_, _ = fmt.Fprintln(w, "warning:", err)
	}
	if len(rep.UnknownTimezones) > 0 {
		_, _ = fmt.Fprintf(w, "warning: unknown TZID %s, times read in %s\n",
			strings.Join(rep.UnknownTimezones, ", "), rep.Window.Location)
	}
	for _, uid := range rep.TruncatedEvents {
		_, _ = fmt.Fprintln(w, "warning: recurrence truncated for event", uid)
	}
	if rep.FromCache {
		_, _ = fmt.Fprintln(w, "note: using cached copy of the feed")
	}
}
