package domain

// Basic consensus types
type Epoch uint64
type Slot uint64
type Subnet uint64

// ValId identifies a validator tracked by the generator. It is opaque to the
// scheduler: only equality matters there.
type ValId uint64

// Epoch returns the epoch containing this slot.
func (s Slot) Epoch(slotsPerEpoch uint64) Epoch {
	return Epoch(uint64(s) / slotsPerEpoch)
}

// SubnetDuty is a single resolver assignment: a validator acting on a gossip
// subnet in some slot.
type SubnetDuty struct {
	Validator ValId
	Subnet    Subnet
}

// ValidatorSet is the validator membership fixed at construction. It exposes no
// mutation; changing membership requires building a new generator.
type ValidatorSet struct {
	members map[ValId]struct{}
}

// NewValidatorSet copies the given ids into a fresh set; duplicates collapse.
func NewValidatorSet(ids []ValId) ValidatorSet {
	members := make(map[ValId]struct{}, len(ids))
	for _, id := range ids {
		members[id] = struct{}{}
	}
	return ValidatorSet{members: members}
}

// Has reports whether the validator belongs to the set.
func (v ValidatorSet) Has(id ValId) bool {
	_, ok := v.members[id]
	return ok
}

// Len returns the number of validators in the set.
func (v ValidatorSet) Len() int {
	return len(v.members)
}

// Ids returns a snapshot slice of the members, in no particular order.
func (v ValidatorSet) Ids() []ValId {
	ids := make([]ValId, 0, len(v.members))
	for id := range v.members {
		ids = append(ids, id)
	}
	return ids
}
