package main

import (
	"context"
	"fmt"
	logger "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf"
	"github.com/spf13/cobra"

	"github.com/transitdb/scheduled"
	"github.com/transitdb/scheduled/history"
	"github.com/transitdb/scheduled/updater"
)

var build = "develop"

var rootCmd = &cobra.Command{
	Use:          "schedule-server",
	Short:        "Transit schedule origin server",
	Long:         "Fetches the upstream GTFS bundle on a timer and serves snapshots/deltas to clients",
	SilenceUsage:       true,
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.New(os.Stdout, "SERVER : ", logger.LstdFlags|logger.Lmicroseconds)
		return run(log, args)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(log *logger.Logger, args []string) error {
	var cfg struct {
		conf.Version
		BundleURL   string `conf:"default:https://rrgtfsfeeds.s3.amazonaws.com/gtfs_supplemented.zip"`
		BundleAuth  string `conf:"noprint"`
		BindAddr    string `conf:"default:[::1]:50052"`
		Timezone    string `conf:"default:America/New_York"`
		IntervalMin int    `conf:"default:5"`
	}
	cfg.Version.SVN = build
	cfg.Version.Desc = "Origin service: Updater + RPC server over the history store"

	const prefix = "SCHEDULE_SERVER"
	if err := conf.Parse(args, prefix, &cfg); err != nil {
		switch err {
		case conf.ErrHelpWanted:
			usage, uerr := conf.Usage(prefix, &cfg)
			if uerr != nil {
				return fmt.Errorf("generating config usage: %w", uerr)
			}
			fmt.Println(usage)
			return nil
		case conf.ErrVersionWanted:
			version, verr := conf.VersionString(prefix, &cfg)
			if verr != nil {
				return fmt.Errorf("generating config version: %w", verr)
			}
			fmt.Println(version)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Printf("main: config:\n%v\n", out)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("loading reference timezone %q: %w", cfg.Timezone, err)
	}

	interval := updater.Interval5Minutes
	if cfg.IntervalMin == 1 {
		interval = updater.Interval1Minute
	}

	store := history.NewStore()
	u := updater.New(cfg.BundleURL, store, loc, interval)
	if cfg.BundleAuth != "" {
		u.Headers = map[string]string{"Authorization": cfg.BundleAuth}
	}

	sup := scheduled.NewSupervisor(store, cfg.BindAddr, u)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-shutdown
		log.Printf("main: shutdown signal received")
		cancel()
	}()

	log.Printf("main: starting origin server on %s, fetching %s", cfg.BindAddr, cfg.BundleURL)
	if err := sup.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("supervisor exited: %w", err)
	}
	log.Printf("main: completed")
	return nil
}
