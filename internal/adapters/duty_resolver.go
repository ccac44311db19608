package adapters

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/valtrack/msg-generator/internal/application/domain"
	"github.com/valtrack/msg-generator/internal/application/ports"
)

// Sync-committee membership rotates on this fixed period. Private to the
// resolver; the generator never sees it.
const epochsPerSyncCommitteePeriod = 256

// One attester in attesterAggregatorModulus aggregates its subnet.
const attesterAggregatorModulus = 16

// Domain separators for the selection hashes, so the same (slot, validator)
// pair lands differently per duty.
const (
	seedProposer uint64 = iota
	seedAttestationSlot
	seedAttestationSubnet
	seedAggregator
	seedSyncMember
	seedSyncSubnet
)

// SimResolverParams sizes the simulated network. Validator ids are assumed
// drawn from [0, TotalValidators).
type SimResolverParams struct {
	// TotalValidators is the size of the whole simulated network, which may
	// exceed the set tracked by one generator.
	TotalValidators uint64
	// SlotsPerEpoch is the epoch length in slots.
	SlotsPerEpoch uint64
	// AttestationSubnets is the number of attestation gossip subnets.
	AttestationSubnets uint64
	// SyncSubnets is the number of sync-committee gossip subnets.
	SyncSubnets uint64
	// SyncCommitteeSize is the target size of each rotated sync committee.
	SyncCommitteeSize uint64
}

// SimResolver is a pure, deterministic ports.DutyResolver for simulation.
// Every assignment is derived by hashing the duty seed with the slot, epoch
// or rotation period and the validator id, so the same query always yields
// the same duties in the same order and no state is kept between calls.
type SimResolver struct {
	params SimResolverParams
}

// NewSimResolver validates the sizing parameters and builds a resolver.
func NewSimResolver(params SimResolverParams) (*SimResolver, error) {
	if params.TotalValidators == 0 {
		return nil, errRequired("total validator count")
	}
	if params.SlotsPerEpoch == 0 {
		return nil, errRequired("slots per epoch")
	}
	if params.AttestationSubnets == 0 {
		return nil, errRequired("attestation subnet count")
	}
	if params.SyncSubnets == 0 {
		return nil, errRequired("sync subnet count")
	}
	if params.SyncCommitteeSize == 0 {
		return nil, errRequired("sync committee size")
	}
	return &SimResolver{params: params}, nil
}

// Proposers returns the tracked proposer for the slot, if the slot's winner is
// tracked at all.
func (r *SimResolver) Proposers(slot domain.Slot, validators domain.ValidatorSet) []domain.ValId {
	winner := domain.ValId(hash64(seedProposer, uint64(slot)) % r.params.TotalValidators)
	if !validators.Has(winner) {
		return nil
	}
	return []domain.ValId{winner}
}

// Attestations returns the tracked validators whose once-per-epoch attestation
// slot is this one, ordered by validator id.
func (r *SimResolver) Attestations(slot domain.Slot, validators domain.ValidatorSet) []domain.SubnetDuty {
	epoch := slot.Epoch(r.params.SlotsPerEpoch)
	slotInEpoch := uint64(slot) % r.params.SlotsPerEpoch

	var duties []domain.SubnetDuty
	for _, id := range sortedIds(validators) {
		assigned := hash64(seedAttestationSlot, uint64(epoch), uint64(id)) % r.params.SlotsPerEpoch
		if assigned != slotInEpoch {
			continue
		}
		subnet := hash64(seedAttestationSubnet, uint64(epoch), uint64(id)) % r.params.AttestationSubnets
		duties = append(duties, domain.SubnetDuty{Validator: id, Subnet: domain.Subnet(subnet)})
	}
	return duties
}

// Aggregates returns the subset of this slot's attesters that are also
// selected as aggregators for their subnet.
func (r *SimResolver) Aggregates(slot domain.Slot, validators domain.ValidatorSet) []domain.SubnetDuty {
	epoch := slot.Epoch(r.params.SlotsPerEpoch)

	var duties []domain.SubnetDuty
	for _, duty := range r.Attestations(slot, validators) {
		selected := hash64(seedAggregator, uint64(epoch), uint64(duty.Validator)) % attesterAggregatorModulus
		if selected == 0 {
			duties = append(duties, duty)
		}
	}
	return duties
}

// SyncCommitteeMessages returns the tracked members of the current sync
// committee, one message each per slot, ordered by validator id. Membership
// rotates every epochsPerSyncCommitteePeriod epochs.
func (r *SimResolver) SyncCommitteeMessages(slot domain.Slot, validators domain.ValidatorSet) []domain.SubnetDuty {
	period := uint64(slot.Epoch(r.params.SlotsPerEpoch)) / epochsPerSyncCommitteePeriod

	var duties []domain.SubnetDuty
	for _, id := range sortedIds(validators) {
		// Member with probability SyncCommitteeSize/TotalValidators.
		draw := hash64(seedSyncMember, period, uint64(id)) % r.params.TotalValidators
		if draw >= r.params.SyncCommitteeSize {
			continue
		}
		subnet := hash64(seedSyncSubnet, period, uint64(id)) % r.params.SyncSubnets
		duties = append(duties, domain.SubnetDuty{Validator: id, Subnet: domain.Subnet(subnet)})
	}
	return duties
}

// SyncCommitteeAggregates returns one contribution per sync subnet that has a
// tracked member this period: the member with the lowest id.
func (r *SimResolver) SyncCommitteeAggregates(slot domain.Slot, validators domain.ValidatorSet) []domain.SubnetDuty {
	seen := make(map[domain.Subnet]struct{}, r.params.SyncSubnets)

	var duties []domain.SubnetDuty
	for _, duty := range r.SyncCommitteeMessages(slot, validators) {
		if _, ok := seen[duty.Subnet]; ok {
			continue
		}
		seen[duty.Subnet] = struct{}{}
		duties = append(duties, duty)
	}
	return duties
}

func errRequired(what string) error {
	return fmt.Errorf("%s is required", what)
}

func sortedIds(validators domain.ValidatorSet) []domain.ValId {
	ids := validators.Ids()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func hash64(parts ...uint64) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, p := range parts {
		binary.LittleEndian.PutUint64(buf[:], p)
		h.Write(buf[:])
	}
	return h.Sum64()
}

var _ ports.DutyResolver = (*SimResolver)(nil)
