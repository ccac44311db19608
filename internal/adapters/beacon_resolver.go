package adapters

import (
	"context"
	nethttp "net/http"
	"time"

	"github.com/attestantio/go-eth2-client/api"
	apiv1 "github.com/attestantio/go-eth2-client/api/v1"
	eth2http "github.com/attestantio/go-eth2-client/http"
	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/rs/zerolog"

	"github.com/valtrack/msg-generator/internal/application/domain"
	"github.com/valtrack/msg-generator/internal/application/ports"
)

// BeaconResolverParams configures the duty-to-subnet folding.
type BeaconResolverParams struct {
	SlotsPerEpoch      uint64
	AttestationSubnets uint64
	SyncSubnets        uint64
}

// epochDuties holds one epoch's duty tables, folded into domain terms.
type epochDuties struct {
	proposers   map[domain.Slot][]domain.ValId
	attesters   map[domain.Slot][]domain.SubnetDuty
	aggregators map[domain.Slot][]domain.SubnetDuty
	// Sync duties hold for every slot of the epoch.
	syncMessages   []domain.SubnetDuty
	syncAggregates []domain.SubnetDuty
}

// BeaconResolver implements ports.DutyResolver by mirroring the duty
// assignments of a live beacon node via go-eth2-client. Duty tables are
// fetched once per epoch and served from the cache for each slot query.
//
// The resolver contract requires totality, so fetch failures are logged and
// the affected slot resolves to empty duty sets; the stream stays best-effort
// real-time either way. A failed fetch round is remembered for its slot, so
// the five duty queries of one boundary cost at most one round of requests.
type BeaconResolver struct {
	client *eth2http.Service
	params BeaconResolverParams
	log    zerolog.Logger

	fetch func(ctx context.Context, epoch domain.Epoch, indices []phase0.ValidatorIndex) (epochDuties, error)

	// Cached duty tables for cachedEpoch. No lock: the resolver is driven by
	// a single generator.
	cachedEpoch domain.Epoch
	haveEpoch   bool
	duties      epochDuties

	failedSlot     domain.Slot
	haveFailedSlot bool
}

// NewBeaconResolver connects to the beacon node at endpoint.
func NewBeaconResolver(endpoint string, params BeaconResolverParams, log zerolog.Logger) (*BeaconResolver, error) {
	if params.SlotsPerEpoch == 0 {
		return nil, errRequired("slots per epoch")
	}
	if params.AttestationSubnets == 0 {
		return nil, errRequired("attestation subnet count")
	}
	if params.SyncSubnets == 0 {
		return nil, errRequired("sync subnet count")
	}

	customHTTPClient := &nethttp.Client{
		Timeout: 2000 * time.Second, // global upper bound; per-request timeout below
	}

	client, err := eth2http.New(
		context.Background(),
		eth2http.WithAddress(endpoint),
		eth2http.WithHTTPClient(customHTTPClient),
		// This is the per-request timeout used by go-eth2-client.
		eth2http.WithTimeout(20*time.Second),
		// Silence go-eth2-client logs unless they are warnings+. Scoped to
		// the client: the process log level is not ours to cap.
		eth2http.WithLogLevel(zerolog.WarnLevel),
	)
	if err != nil {
		return nil, err
	}

	resolver := &BeaconResolver{
		client: client.(*eth2http.Service),
		params: params,
		log:    log,
	}
	resolver.fetch = resolver.fetchEpoch
	return resolver, nil
}

// Proposers returns the tracked block proposer at the slot, if any.
func (b *BeaconResolver) Proposers(slot domain.Slot, validators domain.ValidatorSet) []domain.ValId {
	if !b.ensureEpoch(slot, validators) {
		return nil
	}
	return b.duties.proposers[slot]
}

// Aggregates returns the tracked attestation aggregators at the slot.
func (b *BeaconResolver) Aggregates(slot domain.Slot, validators domain.ValidatorSet) []domain.SubnetDuty {
	if !b.ensureEpoch(slot, validators) {
		return nil
	}
	return b.duties.aggregators[slot]
}

// Attestations returns the tracked attesters at the slot.
func (b *BeaconResolver) Attestations(slot domain.Slot, validators domain.ValidatorSet) []domain.SubnetDuty {
	if !b.ensureEpoch(slot, validators) {
		return nil
	}
	return b.duties.attesters[slot]
}

// SyncCommitteeAggregates returns the tracked sync-subcommittee aggregators,
// identical for every slot of the cached epoch.
func (b *BeaconResolver) SyncCommitteeAggregates(slot domain.Slot, validators domain.ValidatorSet) []domain.SubnetDuty {
	if !b.ensureEpoch(slot, validators) {
		return nil
	}
	return b.duties.syncAggregates
}

// SyncCommitteeMessages returns the tracked sync-committee members, identical
// for every slot of the cached epoch.
func (b *BeaconResolver) SyncCommitteeMessages(slot domain.Slot, validators domain.ValidatorSet) []domain.SubnetDuty {
	if !b.ensureEpoch(slot, validators) {
		return nil
	}
	return b.duties.syncMessages
}

// ensureEpoch loads the duty tables for the slot's epoch unless they are
// already cached. It reports whether usable tables are in place. A slot whose
// fetch round failed stays failed; the next boundary retries.
func (b *BeaconResolver) ensureEpoch(slot domain.Slot, validators domain.ValidatorSet) bool {
	epoch := slot.Epoch(b.params.SlotsPerEpoch)
	if b.haveEpoch && b.cachedEpoch == epoch {
		return true
	}
	if b.haveFailedSlot && b.failedSlot == slot {
		return false
	}

	beaconIndices := make([]phase0.ValidatorIndex, 0, validators.Len())
	for _, id := range sortedIds(validators) {
		beaconIndices = append(beaconIndices, phase0.ValidatorIndex(id))
	}

	duties, err := b.fetch(context.Background(), epoch, beaconIndices)
	if err != nil {
		b.log.Warn().Err(err).
			Uint64("epoch", uint64(epoch)).
			Uint64("slot", uint64(slot)).
			Msg("fetching epoch duties failed")
		b.failedSlot = slot
		b.haveFailedSlot = true
		return false
	}

	b.cachedEpoch = epoch
	b.haveEpoch = true
	b.haveFailedSlot = false
	b.duties = duties
	return true
}

// fetchEpoch performs the three duty requests for an epoch and folds the
// responses into domain terms.
func (b *BeaconResolver) fetchEpoch(
	ctx context.Context,
	epoch domain.Epoch,
	indices []phase0.ValidatorIndex,
) (epochDuties, error) {
	proposerResp, err := b.client.ProposerDuties(ctx, &api.ProposerDutiesOpts{
		Epoch:   phase0.Epoch(epoch),
		Indices: indices,
	})
	if err != nil {
		return epochDuties{}, err
	}
	attesterResp, err := b.client.AttesterDuties(ctx, &api.AttesterDutiesOpts{
		Epoch:   phase0.Epoch(epoch),
		Indices: indices,
	})
	if err != nil {
		return epochDuties{}, err
	}
	syncResp, err := b.client.SyncCommitteeDuties(ctx, &api.SyncCommitteeDutiesOpts{
		Epoch:   phase0.Epoch(epoch),
		Indices: indices,
	})
	if err != nil {
		return epochDuties{}, err
	}

	duties := epochDuties{
		proposers: foldProposerDuties(proposerResp.Data),
	}
	duties.attesters, duties.aggregators = foldAttesterDuties(attesterResp.Data, b.params.AttestationSubnets)
	duties.syncMessages, duties.syncAggregates = foldSyncDuties(syncResp.Data, b.params.SyncSubnets)
	return duties, nil
}

// foldProposerDuties maps proposer duties by slot.
func foldProposerDuties(data []*apiv1.ProposerDuty) map[domain.Slot][]domain.ValId {
	proposers := make(map[domain.Slot][]domain.ValId)
	for _, d := range data {
		slot := domain.Slot(d.Slot)
		proposers[slot] = append(proposers[slot], domain.ValId(d.ValidatorIndex))
	}
	return proposers
}

// foldAttesterDuties maps attester duties by slot and picks the aggregators.
func foldAttesterDuties(
	data []*apiv1.AttesterDuty,
	attestationSubnets uint64,
) (map[domain.Slot][]domain.SubnetDuty, map[domain.Slot][]domain.SubnetDuty) {
	attesters := make(map[domain.Slot][]domain.SubnetDuty)
	aggregators := make(map[domain.Slot][]domain.SubnetDuty)
	for _, d := range data {
		slot := domain.Slot(d.Slot)
		duty := domain.SubnetDuty{
			Validator: domain.ValId(d.ValidatorIndex),
			// The real subnet derivation also folds in the slot; the
			// committee index alone spreads traffic well enough here.
			Subnet: domain.Subnet(uint64(d.CommitteeIndex) % attestationSubnets),
		}
		attesters[slot] = append(attesters[slot], duty)
		// First seat of each committee stands in for the aggregator lottery.
		if d.ValidatorCommitteeIndex == 0 {
			aggregators[slot] = append(aggregators[slot], duty)
		}
	}
	return attesters, aggregators
}

// foldSyncDuties maps sync-committee duties onto sync subnets, with one
// contribution per subnet.
func foldSyncDuties(
	data []*apiv1.SyncCommitteeDuty,
	syncSubnets uint64,
) ([]domain.SubnetDuty, []domain.SubnetDuty) {
	var messages []domain.SubnetDuty
	var aggregates []domain.SubnetDuty
	seenSubnets := make(map[domain.Subnet]struct{}, syncSubnets)
	for _, d := range data {
		if len(d.ValidatorSyncCommitteeIndices) == 0 {
			continue
		}
		subnet := domain.Subnet(uint64(d.ValidatorSyncCommitteeIndices[0]) % syncSubnets)
		duty := domain.SubnetDuty{Validator: domain.ValId(d.ValidatorIndex), Subnet: subnet}
		messages = append(messages, duty)
		if _, ok := seenSubnets[subnet]; !ok {
			seenSubnets[subnet] = struct{}{}
			aggregates = append(aggregates, duty)
		}
	}
	return messages, aggregates
}

var _ ports.DutyResolver = (*BeaconResolver)(nil)
