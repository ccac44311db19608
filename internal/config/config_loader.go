package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/valtrack/msg-generator/internal/application/domain"
)

// Config holds runtime configuration for the traffic generator.
type Config struct {
	// GenesisTime anchors the slot-to-wall-clock mapping.
	GenesisTime time.Time
	// SlotDuration is the fixed tick length.
	SlotDuration time.Duration
	// ValidatorIds is the fixed membership managed by this node.
	ValidatorIds []domain.ValId

	// Resolver sizing.
	TotalValidators    uint64
	SlotsPerEpoch      uint64
	AttestationSubnets uint64
	SyncSubnets        uint64
	SyncCommitteeSize  uint64

	// BeaconNodeURL, when set, switches duty resolution from the built-in
	// deterministic resolver to a live beacon node.
	BeaconNodeURL string

	MetricsBind string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	genesisStr := strings.TrimSpace(os.Getenv("GENESIS_TIME"))
	if genesisStr == "" {
		return nil, fmt.Errorf("GENESIS_TIME is required (unix seconds)")
	}
	genesisSec, err := strconv.ParseInt(genesisStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid GENESIS_TIME: %q", genesisStr)
	}

	slotSec, err := uintEnv("SLOT_DURATION_SECONDS", 12)
	if err != nil {
		return nil, err
	}

	valStr := strings.TrimSpace(os.Getenv("VALIDATORS"))
	if valStr == "" {
		return nil, fmt.Errorf("VALIDATORS is required (e.g. \"12,3,4,5,76,87\")")
	}
	rawParts := strings.Split(valStr, ",")
	ids := make([]domain.ValId, 0, len(rawParts))
	for _, p := range rawParts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid validator id %q in VALIDATORS: %w", p, err)
		}
		ids = append(ids, domain.ValId(n))
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no valid validator ids parsed from VALIDATORS")
	}

	totalValidators, err := uintEnv("TOTAL_VALIDATORS", uint64(len(ids)))
	if err != nil {
		return nil, err
	}
	slotsPerEpoch, err := uintEnv("SLOTS_PER_EPOCH", 32)
	if err != nil {
		return nil, err
	}
	attSubnets, err := uintEnv("ATTESTATION_SUBNETS", 64)
	if err != nil {
		return nil, err
	}
	syncSubnets, err := uintEnv("SYNC_SUBNETS", 4)
	if err != nil {
		return nil, err
	}
	syncCommitteeSize, err := uintEnv("SYNC_COMMITTEE_SIZE", 512)
	if err != nil {
		return nil, err
	}

	metricsBind := strings.TrimSpace(os.Getenv("METRICS_BIND"))
	if metricsBind == "" {
		metricsBind = "127.0.0.1:9000"
	}

	return &Config{
		GenesisTime:        time.Unix(genesisSec, 0),
		SlotDuration:       time.Duration(slotSec) * time.Second,
		ValidatorIds:       ids,
		TotalValidators:    totalValidators,
		SlotsPerEpoch:      slotsPerEpoch,
		AttestationSubnets: attSubnets,
		SyncSubnets:        syncSubnets,
		SyncCommitteeSize:  syncCommitteeSize,
		BeaconNodeURL:      strings.TrimSpace(os.Getenv("BEACON_NODE_URL")),
		MetricsBind:        metricsBind,
	}, nil
}

func uintEnv(name string, fallback uint64) (uint64, error) {
	s := strings.TrimSpace(os.Getenv(name))
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, s)
	}
	return n, nil
}
