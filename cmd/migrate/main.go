package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joaobarbosa/cinema-api/config"
	"github.com/joaobarbosa/cinema-api/internal/observability"
	"github.com/joaobarbosa/cinema-api/migrations"
	"github.com/joaobarbosa/cinema-api/repositories/postgres"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const usage = `Usage: migrate [flags] <command>

Commands:
  up       apply every pending migration
  status   list migrations and whether they are applied

Flags:
`

// migrator is the part of migrations.Migrator the commands drive
type migrator interface {
	Migrate(ctx context.Context) (int, error)
	Status(ctx context.Context) ([]migrations.Status, error)
}

type options struct {
	jsonOutput bool
	timeout    time.Duration
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var opts options
	flagSet := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.BoolVar(&opts.jsonOutput, "json", false, "print status as JSON")
	flagSet.DurationVar(&opts.timeout, "timeout", 5*time.Minute, "give up after this long")
	flagSet.Usage = func() {
		fmt.Fprint(stderr, usage)
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return fmt.Errorf("expected exactly one command")
	}
	command := flagSet.Arg(0)
	if command != "up" && command != "status" {
		flagSet.Usage()
		return fmt.Errorf("unknown command %q", command)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	cfg, err := config.NewMigrationConfig(ctx)
	if err != nil {
		return err
	}
	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat, cfg.Environment)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := postgres.NewDB(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return execute(ctx, command, migrations.New(db.DB, logger), opts, stdout, logger)
}

func execute(ctx context.Context, command string, m migrator, opts options, stdout io.Writer, logger *zap.Logger) error {
	switch command {
	case "up":
		applied, err := m.Migrate(ctx)
		if err != nil {
			return err
		}
		logger.Info("migrations complete", zap.Int("applied", applied))
		fmt.Fprintf(stdout, "applied %d migration(s)\n", applied)
		return nil
	case "status":
		status, err := m.Status(ctx)
		if err != nil {
			return err
		}
		if opts.jsonOutput {
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(status)
		}
		return printStatus(stdout, status)
	}
	return fmt.Errorf("unknown command %q", command)
}

func printStatus(w io.Writer, status []migrations.Status) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tDESCRIPTION\tAPPLIED AT")
	for _, s := range status {
		applied := "pending"
		if s.AppliedAt != nil {
			applied = s.AppliedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Version, s.Description, applied)
	}
	return tw.Flush()
}

var _ migrator = (*migrations.Migrator)(nil)
