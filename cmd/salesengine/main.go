// Command salesengine loads a sales dataset and serves, prints or
// snapshots its statistics.
//
// Usage:
//
//	salesengine serve
//	salesengine report [-publish]
//	salesengine import [-from csv|sheets]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"salesengine/internal/amqp"
	"salesengine/internal/analytics"
	"salesengine/internal/backend"
	"salesengine/internal/cli"
	"salesengine/internal/config"
	apphttp "salesengine/internal/http"
	"salesengine/internal/log"
	"salesengine/internal/repository"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	if err := cli.LoadEnvFile(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg := config.Load()
	logger := cli.SetupLogger(cfg)

	var err error
	switch os.Args[1] {
	case "serve":
		err = serve(cfg, logger, os.Args[2:])
	case "report":
		err = report(cfg, logger, os.Args[2:])
	case "import":
		err = importDataset(cfg, logger, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("Command failed", "command", os.Args[1], log.FieldError, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: salesengine <serve|report|import> [flags]")
}

// loadDataset builds the configured backend and reads one dataset from it.
func loadDataset(ctx context.Context, cfg *config.Config, logger *log.Logger) (*repository.Dataset, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}
	defer res.Close()

	start := time.Now()
	ds, err := backend.Load(ctx, res.Backend)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	logger.Info("Dataset loaded",
		log.FieldBackend, bcfg.Type.String(),
		log.FieldOperation, log.OpLoad,
		log.FieldDuration, time.Since(start).Milliseconds())
	return ds, nil
}

func serve(cfg *config.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", ":"+cfg.Port, "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ds, err := loadDataset(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	analyst := analytics.New(ds, analytics.WithLogger(logger), analytics.WithTopEarners(cfg.TopEarners))

	srv := apphttp.NewServer(*addr, analyst, apphttp.Options{
		Logger:     logger,
		TopEarners: cfg.TopEarners,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, srv.Shutdown)

	logger.Info("Starting salesengine server", "addr", *addr, log.FieldBackend, cfg.DataBackend, log.FieldOperation, log.OpServe)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen on %s: %w", *addr, err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
	return nil
}

func report(cfg *config.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	publish := fs.Bool("publish", cfg.AMQPURL != "", "publish the report to AMQP_URL")
	indent := fs.Bool("indent", true, "indent the JSON output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if *publish && cfg.AMQPURL == "" {
		return errors.New("-publish requires AMQP_URL")
	}

	ctx := context.Background()
	ds, err := loadDataset(ctx, cfg, logger)
	if err != nil {
		return err
	}
	summary, err := analytics.New(ds, analytics.WithLogger(logger), analytics.WithTopEarners(cfg.TopEarners)).Summary()
	if err != nil {
		return fmt.Errorf("compute summary: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	if *indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if !*publish {
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return fmt.Errorf("connect to AMQP: %w", err)
	}
	defer client.Close()

	msg := amqp.NewReportMessage(cfg.DataBackend, summary)
	if err := client.PublishReport(ctx, msg); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}
	logger.Info("Report published", "message_id", msg.ID, "exchange", cfg.AMQPExchange, log.FieldOperation, log.OpPublish)
	return nil
}

// importDataset loads a csv or sheets dataset and snapshots it into SQLite.
func importDataset(cfg *config.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	from := fs.String("from", config.BackendCSV, "source backend (csv or sheets)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *from == config.BackendSQLite {
		return errors.New("-from must be csv or sheets")
	}

	src := *cfg
	src.DataBackend = *from
	if err := src.Validate(); err != nil {
		return err
	}
	if err := cfg.ValidateSQLiteTarget(); err != nil {
		return err
	}

	ctx := context.Background()
	ds, err := loadDataset(ctx, &src, logger)
	if err != nil {
		return err
	}

	repo, err := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.Import(ctx, ds.Records()); err != nil {
		return fmt.Errorf("import into %s: %w", cfg.SQLiteDBPath, err)
	}
	logger.Info("Dataset imported",
		"path", cfg.SQLiteDBPath,
		log.FieldSource, *from,
		log.FieldRows, ds.Records().Counts(),
		log.FieldOperation, log.OpImport)
	return nil
}
