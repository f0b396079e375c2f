package collector

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hfplog/hfplog/pkg/api"
	"github.com/hfplog/hfplog/pkg/config"
	"github.com/hfplog/hfplog/pkg/feed"
	"github.com/hfplog/hfplog/pkg/metrics"
	"github.com/hfplog/hfplog/pkg/resolver"
	"github.com/hfplog/hfplog/pkg/store"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "collector",
		Usage: "Provides the HFP feed collector",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the collector and its query API",
				Action: func(c *cli.Context) error {
					cfg, err := config.Load()
					if err != nil {
						return err
					}

					return run(cfg)
				},
			},
		},
	}
}

func run(cfg *config.Config) error {
	eventStore, err := store.Open()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer eventStore.Close()

	collectorMetrics := metrics.NewCollector()
	collectorMetrics.Serve(cfg.MetricsAddr)

	durability := NewDurability(eventStore, cfg.SnapshotPath, cfg.SnapshotInterval, collectorMetrics)
	if err := durability.Restore(); err != nil {
		log.Fatal().Err(err).Msg("Failed to restore snapshot")
	}

	matcher := resolver.NewDigitransit(cfg.DigitransitURL, cfg.DigitransitKey)
	tripResolver := resolver.New(eventStore, matcher, cfg.LookupTimeout)
	pipeline := NewPipeline(eventStore, tripResolver, collectorMetrics, cfg.Workers)

	snapshotCtx, stopSnapshots := context.WithCancel(context.Background())
	go durability.Run(snapshotCtx)

	webApp := api.SetupServer(eventStore, cfg)
	go func() {
		if err := webApp.Listen(cfg.Listen); err != nil {
			log.Error().Err(err).Msg("Web server stopped")
		}
	}()

	subscription, err := feed.Connect(feed.Config{
		BrokerURL: cfg.BrokerURL,
		Topic:     cfg.FeedTopic,
		ClientID:  cfg.ClientID,
	}, pipeline.Handle)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to feed")
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	<-signals // wait for signal
	go func() {
		<-signals // hard exit on second signal (in case shutdown gets stuck)
		os.Exit(1)
	}()

	log.Info().Msg("Shutting down")

	// Stop accepting messages, let in-flight ones drain, then take the
	// final snapshot.
	subscription.Close()
	pipeline.Wait()
	stopSnapshots()
	webApp.Shutdown()
	durability.Final()

	return nil
}
