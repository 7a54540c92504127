package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"bvhToolkit/src/config"
	"bvhToolkit/src/logger"
	"bvhToolkit/src/metrics"

	"github.com/google/uuid"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `bvhToolkit - BVH motion capture to SMPL keypoints

Usage: bvhToolkit <command> [options]

Commands:
  extract   Sample a BVH file into a (frames, joints, 7) .npy array
  remap     Convert a BVH joint array into SMPL keypoints
  csv       Write a .npy array (and optionally a BVH hierarchy) as CSV
  plot      Plot a joint trajectory or two CSV columns to an image
  help      Show this message

Configuration is read from $BVHTOOLKIT_CONFIG (YAML) and BVHTOOLKIT_*
environment variables. Command flags override both.`)
}

// app carries what every command shares for one run.
type app struct {
	cfg     *config.Config
	log     logger.Logger
	metrics *metrics.Manager
	runID   string
	stdout  io.Writer
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) < 1 {
		printUsage(stdout)
		return fmt.Errorf("missing command")
	}
	command, args := args[0], args[1:]

	var handler func(context.Context, *app, []string) error
	switch command {
	case "extract":
		handler = runExtract
	case "remap":
		handler = runRemap
	case "csv":
		handler = runCSV
	case "plot":
		handler = runPlot
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stdout)
		return fmt.Errorf("unknown command: %s", command)
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.Init(); err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}

	a := &app{
		cfg:    cfg,
		runID:  uuid.NewString(),
		stdout: stdout,
		metrics: metrics.NewManager(
			metrics.WithNamespace(cfg.Metrics.Namespace),
			metrics.WithPushgateway(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job),
		),
	}
	a.log = logger.Named(command).With(logger.String("run_id", a.runID))

	a.log.Info(ctx, "starting")
	if err := handler(ctx, a, args); err != nil {
		a.log.Error(ctx, "failed", logger.Error(err))
		return err
	}
	if err := a.metrics.Push(ctx, a.runID); err != nil {
		a.log.Warn(ctx, "metrics push failed", logger.Error(err))
	}
	a.log.Info(ctx, "done")
	return nil
}

// newFlagSet returns a flag set that reports parse errors instead of exiting.
func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}
