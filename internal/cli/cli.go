package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/studiowebux/pepe/internal/engine"
	"github.com/studiowebux/pepe/internal/request"
	"github.com/studiowebux/pepe/internal/stats"
)

// progressInterval is how often the progress line on stderr refreshes.
const progressInterval = 500 * time.Millisecond

// RunOptions contains options for running a load test in plain CLI mode
// (no TTY, or TUI explicitly disabled).
type RunOptions struct {
	Template *request.Template
	Engine   engine.Options

	Out      io.Writer // final report destination (stdout)
	Progress io.Writer // live progress lines (stderr), nil disables
	SavePath string    // optional report export path (-o)
}

// Run executes the load test without the dashboard: a progress line on
// stderr while requests are in flight, the full report on stdout at the
// end. SIGINT/SIGTERM cancels the run and still produces a partial report.
func Run(ctx context.Context, opts RunOptions) (stats.Report, error) {
	e, err := engine.New(ctx, opts.Template, opts.Engine)
	if err != nil {
		return stats.Report{}, err
	}

	agg := stats.NewAggregator(opts.Engine.Total)

	done := make(chan struct{})

	// Forward interrupt signals to the engine so a Ctrl-C run still ends
	// with a report of what completed.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			e.Stop()
		case <-ctx.Done():
			e.Stop()
		case <-done:
		}
	}()

	go func() {
		agg.Run(e.Outcomes(), e.Sent(), nil)
		close(done)
	}()

	e.Run()

	if opts.Progress != nil {
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
	progress:
		for {
			select {
			case <-done:
				break progress
			case <-ticker.C:
				printProgress(opts.Progress, agg.Snapshot())
			}
		}
		// Clear the carriage-returned progress line before the report.
		fmt.Fprintf(opts.Progress, "\r%s\r", strings.Repeat(" ", 80))
	} else {
		<-done
	}

	report := agg.Finalize(e.Cancelled())

	if opts.Out != nil {
		if err := report.Write(opts.Out); err != nil {
			return report, fmt.Errorf("failed to write report: %w", err)
		}
	}

	if opts.SavePath != "" {
		if err := report.Export(opts.SavePath); err != nil {
			return report, fmt.Errorf("failed to export report: %w", err)
		}
		if opts.Progress != nil {
			fmt.Fprintf(opts.Progress, "report saved to %s\n", opts.SavePath)
		}
	}

	return report, nil
}

// printProgress renders a single overwriting status line.
func printProgress(w io.Writer, s stats.Snapshot) {
	fmt.Fprintf(w, "\r%d/%d completed  %d ok  %d failed  %d errors  %.1f req/s   ",
		s.Completed, s.Total, s.Success, s.Failed, s.Errors, s.RPS)
}
