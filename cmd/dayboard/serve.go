package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"dayboard/internal/config"
	"dayboard/internal/ics"
	appLog "dayboard/internal/log"
	"dayboard/internal/metrics"
	"dayboard/internal/quotes"
	"dayboard/internal/refresh"
	"dayboard/internal/summarize"
	"dayboard/internal/tasks"
	"dayboard/internal/web"
)

func newServeCommand(flags *rootFlags) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API and the calendar refresher",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	appLog.Info("dayboard starting", "version", version)
	appLog.Info("effective config",
		"listen", cfg.Listen,
		"timezone", cfg.Timezone,
		"refresh", cfg.RefreshCron,
		"window_days", cfg.WindowDays,
		"max_events", cfg.MaxEvents,
		"ics_count", len(cfg.ICS),
		"summarizer", cfg.Summarizer.APIKey != "",
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.MustNew(reg)

	refresher := refresh.New(refresh.Config{
		Fetcher:  ics.NewFetcher(cfg.CacheDir, nil),
		Sources:  sourcesFromConfig(cfg),
		Window:   ics.Window{Days: cfg.WindowDays, MaxEvents: cfg.MaxEvents},
		Location: cfg.Location(),
		Schedule: cfg.RefreshCron,
		Metrics:  m,
	})
	if err := refresher.Start(ctx); err != nil {
		return err
	}
	defer refresher.Stop()

	quoteClient, err := quotes.New(cfg.QuotesURL)
	if err != nil {
		return err
	}

	err = web.StartServer(ctx, cfg, web.Deps{
		Snapshots: refresher,
		Tasks:     tasks.NewStore(nil),
		Quotes:    quoteClient,
		Summarizer: summarize.New(summarize.Config{
			APIKey:     cfg.Summarizer.APIKey,
			BaseURL:    cfg.Summarizer.BaseURL,
			Model:      cfg.Summarizer.Model,
			MaxRetries: 2,
		}),
		Metrics:  m,
		Gatherer: reg,
	})
	appLog.Info("dayboard exiting")
	return err
}

func sourcesFromConfig(cfg *config.Config) []ics.Source {
	sources := make([]ics.Source, 0, len(cfg.ICS))
	for _, c := range cfg.ICS {
		if c.URL == "" {
			continue
		}
		sources = append(sources, ics.Source{ID: c.SourceID(), URL: c.URL})
	}
	return sources
}
