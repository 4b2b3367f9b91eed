package main

import (
	"context"
	"fmt"
	logger "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf"
	"github.com/spf13/cobra"

	"github.com/transitdb/scheduled"
	"github.com/transitdb/scheduled/cacher"
)

var build = "develop"

var rootCmd = &cobra.Command{
	Use:          "schedule-cacher",
	Short:        "Transit schedule edge cache",
	Long:         "Terminates client RPCs, forwards cache misses to the origin, invalidates on upstream change",
	SilenceUsage:       true,
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.New(os.Stdout, "CACHER : ", logger.LstdFlags|logger.Lmicroseconds)
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
		BindAddr       string        `conf:"default:[::1]:50051"`
		OriginBaseURL  string        `conf:"default:http://[::1]:50052"`
		ForwardTimeout time.Duration `conf:"default:15s"`
	}
	cfg.Version.SVN = build
	cfg.Version.Desc = "Edge cache: memoizes GetSchedule responses, invalidated by origin's last-update timestamp"

	const prefix = "SCHEDULE_CACHER"
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

	client := &http.Client{Timeout: cfg.ForwardTimeout}
	handler := cacher.NewHandler(cfg.OriginBaseURL, client)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-shutdown
		log.Printf("main: shutdown signal received")
		cancel()
	}()

	log.Printf("main: starting edge cache on %s, forwarding to %s", cfg.BindAddr, cfg.OriginBaseURL)
	err = scheduled.RunSupervised(ctx, func(taskCtx context.Context) error {
		return cacher.Run(taskCtx, cfg.BindAddr, handler)
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("supervisor exited: %w", err)
	}
	log.Printf("main: completed")
	return nil
}
