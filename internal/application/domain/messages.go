package domain

import "fmt"

// DutyKind enumerates the message kinds a node emits each slot. The declared
// order is the emission order within one slot.
type DutyKind int

const (
	BeaconBlock DutyKind = iota
	AggregateAndProofAttestation
	Attestation
	SignedContributionAndProof
	SyncCommitteeMessage
)

// DutyKinds lists every kind in emission order.
var DutyKinds = [...]DutyKind{
	BeaconBlock,
	AggregateAndProofAttestation,
	Attestation,
	SignedContributionAndProof,
	SyncCommitteeMessage,
}

func (k DutyKind) String() string {
	switch k {
	case BeaconBlock:
		return "beacon-block"
	case AggregateAndProofAttestation:
		return "aggregate-and-proof-attestation"
	case Attestation:
		return "attestation"
	case SignedContributionAndProof:
		return "signed-contribution-and-proof"
	case SyncCommitteeMessage:
		return "sync-committee-message"
	default:
		return fmt.Sprintf("duty-kind(%d)", int(k))
	}
}

// Message is one protocol-duty message produced for a slot. It is a tagged
// value: Kind selects the variant, Validator is the acting validator and
// Subnet the gossip partition (always zero for BeaconBlock, which is not
// sharded). Messages compare structurally and can be used as map keys.
type Message struct {
	Kind      DutyKind
	Slot      Slot
	Validator ValId
	Subnet    Subnet
}

// NewBeaconBlock wraps a proposer assignment.
func NewBeaconBlock(slot Slot, proposer ValId) Message {
	return Message{Kind: BeaconBlock, Slot: slot, Validator: proposer}
}

// NewAggregateAndProof wraps an attestation-aggregator assignment.
func NewAggregateAndProof(slot Slot, duty SubnetDuty) Message {
	return Message{Kind: AggregateAndProofAttestation, Slot: slot, Validator: duty.Validator, Subnet: duty.Subnet}
}

// NewAttestation wraps an attester assignment.
func NewAttestation(slot Slot, duty SubnetDuty) Message {
	return Message{Kind: Attestation, Slot: slot, Validator: duty.Validator, Subnet: duty.Subnet}
}

// NewSignedContributionAndProof wraps a sync-subcommittee aggregator assignment.
func NewSignedContributionAndProof(slot Slot, duty SubnetDuty) Message {
	return Message{Kind: SignedContributionAndProof, Slot: slot, Validator: duty.Validator, Subnet: duty.Subnet}
}

// NewSyncCommitteeMessage wraps a sync-committee member assignment.
func NewSyncCommitteeMessage(slot Slot, duty SubnetDuty) Message {
	return Message{Kind: SyncCommitteeMessage, Slot: slot, Validator: duty.Validator, Subnet: duty.Subnet}
}

func (m Message) String() string {
	if m.Kind == BeaconBlock {
		return fmt.Sprintf("%s{validator: %d, slot: %d}", m.Kind, m.Validator, m.Slot)
	}
	return fmt.Sprintf("%s{validator: %d, subnet: %d, slot: %d}", m.Kind, m.Validator, m.Subnet, m.Slot)
}
