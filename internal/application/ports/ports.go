package ports

import (
	"time"

	"github.com/valtrack/msg-generator/internal/application/domain"
)

// DutyResolver answers, for one slot and one validator set, which of the
// tracked validators have each kind of duty. The generator depends only on
// this interface, not on any concrete assignment algorithm.
//
// Resolvers are total: every method returns for any valid slot/set pair,
// possibly with an empty slice, and never fails. They must be free of side
// effects observable by the generator; any internal state (for example
// sync-committee rotation) is the resolver's own business. Returned slices
// are already ordered and that order is preserved all the way to the consumer.
type DutyResolver interface {
	// Proposers returns the tracked validators proposing a block at the slot
	// (zero or one in practice).
	Proposers(slot domain.Slot, validators domain.ValidatorSet) []domain.ValId

	// Aggregates returns the tracked attestation aggregators for the slot.
	Aggregates(slot domain.Slot, validators domain.ValidatorSet) []domain.SubnetDuty

	// Attestations returns the tracked attesters for the slot.
	Attestations(slot domain.Slot, validators domain.ValidatorSet) []domain.SubnetDuty

	// SyncCommitteeAggregates returns the tracked sync-subcommittee
	// aggregators for the slot.
	SyncCommitteeAggregates(slot domain.Slot, validators domain.ValidatorSet) []domain.SubnetDuty

	// SyncCommitteeMessages returns the tracked active sync-committee members
	// for the slot. Membership rotates on a fixed epoch period owned by the
	// resolver.
	SyncCommitteeMessages(slot domain.Slot, validators domain.ValidatorSet) []domain.SubnetDuty
}

// SlotClock maps wall-clock time onto slots.
type SlotClock interface {
	// CurrentSlot returns the slot containing now. It fails only under
	// misconfiguration, e.g. when queried before genesis.
	CurrentSlot() (domain.Slot, error)

	// DurationToNextSlot returns the non-negative duration until the next
	// slot boundary. Same failure mode as CurrentSlot.
	DurationToNextSlot() (time.Duration, error)

	// SlotDuration returns the fixed length of one slot.
	SlotDuration() time.Duration
}
