package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MasterOfBinary/asyncbatch/batch"
	"github.com/MasterOfBinary/asyncbatch/metrics"
	"github.com/MasterOfBinary/asyncbatch/processor"
	"github.com/MasterOfBinary/asyncbatch/source"
)

// Placeholder is replaced by the input line in command arguments.
const Placeholder = "{}"

// Runner runs one command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs the command with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigPath  string
	Concurrency int
	Rate        int
	Window      time.Duration
	Timeout     time.Duration
	Input       string
	MetricsAddr string

	// Runner executes the command for each line. Tests replace it.
	Runner Runner
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts, Runner: ExecRunner})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flags] [--] command [args...]",
		Short: "Run a command once per input line",
		Long: `Run a command once per non-blank input line.

Every argument equal to or containing {} has it replaced by the line. If no
argument contains {}, the line is appended as the last argument.

Example:
  asyncbatch run --input urls.txt --concurrency 8 -- curl -fsS {}
  ls *.png | asyncbatch run --rate 5 --window 1s -- optipng`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts, args)
		},
	}

	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file")
	cmd.Flags().IntVarP(&opts.Concurrency, "concurrency", "n", batch.DefaultMaxConcurrency, "maximum concurrent commands")
	cmd.Flags().IntVar(&opts.Rate, "rate", 0, "maximum command starts per window (0 disables rate limiting)")
	cmd.Flags().DurationVar(&opts.Window, "window", time.Second, "rate limit window")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "timeout per command (0 means none)")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "-", "input file, or - for stdin")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")

	return cmd
}

// resolveConfig loads the config file and applies the flags that were set.
func resolveConfig(cmd *cobra.Command, opts *RunOptions) (*Config, error) {
	cfg := &Config{}
	if opts.ConfigPath != "" {
		loaded, err := LoadConfig(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("concurrency") {
		cfg.Concurrency = opts.Concurrency
	}
	if flags.Changed("rate") || flags.Changed("window") {
		rl := batch.RateLimit{MaxExecutions: opts.Rate, Window: opts.Window}
		if cfg.RateLimit != nil && !flags.Changed("rate") {
			rl.MaxExecutions = cfg.RateLimit.MaxExecutions
		}
		if cfg.RateLimit != nil && !flags.Changed("window") {
			rl.Window = cfg.RateLimit.Window
		}
		cfg.RateLimit = &rl
	}
	if flags.Changed("timeout") {
		cfg.Timeout = opts.Timeout
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = opts.MetricsAddr
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	lvl, _ := batch.ParseLogLevel(level)
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: lvl.SlogLevel(),
	})
	return slog.New(handler)
}

func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(path)
}

// commandArgs builds the command line for one input line.
func commandArgs(argv []string, line string) (string, []string) {
	args := make([]string, 0, len(argv))
	substituted := false
	for _, a := range argv[1:] {
		if strings.Contains(a, Placeholder) {
			a = strings.ReplaceAll(a, Placeholder, line)
			substituted = true
		}
		args = append(args, a)
	}
	if !substituted {
		args = append(args, line)
	}
	return argv[0], args
}

func commandAction(run Runner, argv []string) batch.Action[string, string] {
	return func(ctx context.Context, line string) (string, error) {
		name, args := commandArgs(argv, line)
		out, err := run(ctx, name, args...)
		if err != nil {
			return string(out), fmt.Errorf("%s: %w", name, err)
		}
		return string(out), nil
	}
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

func runBatch(cmd *cobra.Command, opts *RunOptions, argv []string) error {
	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	runID, err := uuid.NewV7()
	if err != nil {
		runID = uuid.New()
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel).With("run", runID.String())

	input, err := openInput(cmd, opts.Input)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open input", err)
	}
	defer input.Close()

	reg := prometheus.NewRegistry()
	stats, err := metrics.NewPrometheusStats(reg, runID.String())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up metrics", err)
	}

	engineLogger := batch.NewSlogLogger(logger)
	action := processor.Logging(
		processor.Timeout(commandAction(opts.Runner, argv), cfg.Timeout),
		engineLogger, argv[0],
	)

	options := cfg.Options()
	options.Logger = engineLogger
	options.Stats = stats

	b := batch.New(action, options)
	b.SetFilter(processor.Not(processor.Predicate(isBlank)))

	var (
		mu  sync.Mutex
		sum batch.Summary
	)
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	b.Events().OnProcessingEnd(func(e *batch.ProcessingEndEvent[string, string]) {
		mu.Lock()
		defer mu.Unlock()

		sum.Processed++
		switch e.Outcome {
		case batch.Succeeded:
			sum.Succeeded++
			if e.Result != "" {
				fmt.Fprint(out, e.Result)
				if !strings.HasSuffix(e.Result, "\n") {
					fmt.Fprintln(out)
				}
			}
		case batch.Failed:
			sum.Failed++
			fmt.Fprintf(errOut, "FAIL %s: %v\n", e.Item, e.Err)
		default:
			sum.Skipped++
		}
	})

	lines := make(chan string)
	if err := b.AddIterator(source.NewChannelUnchecked(lines)); err != nil {
		return WrapExitError(ExitCommandError, "failed to queue input", err)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("run starting", "command", argv[0], "concurrency", b.MaxConcurrency())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(lines)

		scanner := bufio.NewScanner(input)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		return nil
	})

	done := b.Go(gctx)
	serverCtx, stopServer := context.WithCancel(gctx)
	defer stopServer()

	g.Go(func() error {
		<-done
		stopServer()
		return nil
	})

	if cfg.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.MetricsAddr, "", reg)
		g.Go(func() error {
			logger.Info("serving metrics", "addr", cfg.MetricsAddr)
			return srv.ListenAndServe(serverCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitCommandError, "run failed", err)
	}

	st := stats.GetStats()
	logger.Info("run finished",
		"duration", time.Since(st.StartTime).Round(time.Millisecond),
		"average", st.AverageItemTime(),
		"rate_limit_waits", st.RateLimitWaits,
	)

	mu.Lock()
	defer mu.Unlock()

	fmt.Fprintf(out, "processed=%d succeeded=%d failed=%d skipped=%d\n",
		sum.Processed, sum.Succeeded, sum.Failed, sum.Skipped)

	if ctx.Err() != nil {
		return WrapExitError(ExitFailure, "interrupted", ctx.Err())
	}
	if sum.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d items failed", sum.Failed, sum.Processed))
	}
	return nil
}
