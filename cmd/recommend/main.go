// Command recommend prints recommendations for one user and saves them as
// JSON in the working directory.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/temcen/cartrec/internal/app"
	"github.com/temcen/cartrec/internal/config"
	"github.com/temcen/cartrec/internal/database"
	"github.com/temcen/cartrec/internal/services"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate recommendations: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("recommend", pflag.ContinueOnError)
	limit := flags.IntP("limit", "n", 5, "number of recommendations")
	algorithm := flags.StringP("algorithm", "a", "", "recommendation algorithm (rule_based, collaborative, category, model)")
	output := flags.StringP("output", "o", "", "output file (default recommendations_<user-id>.json)")
	timeout := flags.Duration("timeout", 30*time.Second, "overall request timeout")
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: recommend [flags] <user-id>")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return errors.New("exactly one user id is required")
	}
	userID := flags.Arg(0)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read .env file: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := app.NewLogger(cfg.Logging)
	db, err := database.New(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	svc, err := services.New(cfg, logger, db, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	resp, err := svc.Recommendation.Get(ctx, userID, *limit, *algorithm)
	if err != nil {
		return err
	}

	writeReport(os.Stdout, resp)

	path := *output
	if path == "" {
		path = outputFileName(userID)
	}
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode recommendations: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	fmt.Printf("Recommendations saved to: %s\n", path)
	return nil
}
