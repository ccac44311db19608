package domain

import "testing"

func TestDutyKindOrderAndNames(t *testing.T) {
	wantNames := []string{
		"beacon-block",
		"aggregate-and-proof-attestation",
		"attestation",
		"signed-contribution-and-proof",
		"sync-committee-message",
	}
	if len(DutyKinds) != len(wantNames) {
		t.Fatalf("got %d duty kinds, want %d", len(DutyKinds), len(wantNames))
	}
	for i, kind := range DutyKinds {
		if int(kind) != i {
			t.Fatalf("kind %s out of declared order at position %d", kind, i)
		}
		if kind.String() != wantNames[i] {
			t.Fatalf("kind %d: got name %q, want %q", i, kind.String(), wantNames[i])
		}
	}
}

func TestMessageStructuralEquality(t *testing.T) {
	a := NewAttestation(100, SubnetDuty{Validator: 1, Subnet: 3})
	b := NewAttestation(100, SubnetDuty{Validator: 1, Subnet: 3})
	if a != b {
		t.Fatal("identical messages are not equal")
	}

	// Same fields, different variant: never equal.
	c := NewSyncCommitteeMessage(100, SubnetDuty{Validator: 1, Subnet: 3})
	if a == c {
		t.Fatal("messages of different kinds compare equal")
	}

	seen := map[Message]int{a: 1}
	if seen[b] != 1 {
		t.Fatal("equal message did not hash to the same key")
	}
}

func TestValidatorSetCopiesInput(t *testing.T) {
	ids := []ValId{1, 2, 2, 3}
	set := NewValidatorSet(ids)
	if set.Len() != 3 {
		t.Fatalf("got %d members, want 3", set.Len())
	}

	ids[0] = 99
	if set.Has(99) {
		t.Fatal("mutating the input slice leaked into the set")
	}
	if !set.Has(1) || !set.Has(2) || !set.Has(3) {
		t.Fatal("set lost a member")
	}
}

func TestSlotEpoch(t *testing.T) {
	if got := Slot(0).Epoch(32); got != 0 {
		t.Fatalf("slot 0: got epoch %d, want 0", got)
	}
	if got := Slot(31).Epoch(32); got != 0 {
		t.Fatalf("slot 31: got epoch %d, want 0", got)
	}
	if got := Slot(32).Epoch(32); got != 1 {
		t.Fatalf("slot 32: got epoch %d, want 1", got)
	}
}
