package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/valtrack/msg-generator/internal/adapters"
	"github.com/valtrack/msg-generator/internal/application/ports"
	"github.com/valtrack/msg-generator/internal/application/services"
	"github.com/valtrack/msg-generator/internal/config"
	"github.com/valtrack/msg-generator/internal/logger"
	"github.com/valtrack/msg-generator/internal/telemetry"
)

var rootCmd = &cobra.Command{
	Use:   "msg-generator",
	Short: "Slot-synchronized consensus message traffic generator",
	Long:  "msg-generator emits, on each slot boundary, the duty messages a simulated consensus node would produce, for use as gossip traffic in testing.",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start generating duty messages",
	RunE:  runGenerator,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runGenerator(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.Get()
	log.Info().
		Time("genesis", cfg.GenesisTime).
		Dur("slot_duration", cfg.SlotDuration).
		Int("validators", len(cfg.ValidatorIds)).
		Msg("starting msg-generator")

	clock, err := adapters.NewSystemClock(cfg.GenesisTime, cfg.SlotDuration)
	if err != nil {
		return fmt.Errorf("build slot clock: %w", err)
	}

	// With a beacon node configured, mirror its real duty assignments;
	// otherwise run fully self-contained on the deterministic resolver.
	var resolver ports.DutyResolver
	if cfg.BeaconNodeURL != "" {
		log.Info().Str("beacon", cfg.BeaconNodeURL).Msg("resolving duties from beacon node")
		resolver, err = adapters.NewBeaconResolver(cfg.BeaconNodeURL, adapters.BeaconResolverParams{
			SlotsPerEpoch:      cfg.SlotsPerEpoch,
			AttestationSubnets: cfg.AttestationSubnets,
			SyncSubnets:        cfg.SyncSubnets,
		}, log)
		if err != nil {
			return fmt.Errorf("build beacon resolver: %w", err)
		}
	} else {
		resolver, err = adapters.NewSimResolver(adapters.SimResolverParams{
			TotalValidators:    cfg.TotalValidators,
			SlotsPerEpoch:      cfg.SlotsPerEpoch,
			AttestationSubnets: cfg.AttestationSubnets,
			SyncSubnets:        cfg.SyncSubnets,
			SyncCommitteeSize:  cfg.SyncCommitteeSize,
		})
		if err != nil {
			return fmt.Errorf("build sim resolver: %w", err)
		}
	}

	generator, err := services.NewGeneratorBuilder().
		SlotClock(clock).
		DutyResolver(resolver).
		Validators(cfg.ValidatorIds).
		Logger(log).
		Build()
	if err != nil {
		return fmt.Errorf("build generator: %w", err)
	}
	defer generator.Close()

	go func() {
		log.Info().Str("addr", cfg.MetricsBind).Msg("metrics listening")
		if err := http.ListenAndServe(cfg.MetricsBind, telemetry.Handler()); err != nil {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle SIGINT / SIGTERM for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Warn().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	// The log stands in for the downstream transport layer: each pulled
	// message would be serialized and published from here.
	for {
		msg, err := generator.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("generator stopped: %w", err)
		}
		log.Info().
			Str("kind", msg.Kind.String()).
			Uint64("slot", uint64(msg.Slot)).
			Uint64("validator", uint64(msg.Validator)).
			Uint64("subnet", uint64(msg.Subnet)).
			Msg("message")
	}
}
