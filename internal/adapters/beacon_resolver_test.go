package adapters

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	apiv1 "github.com/attestantio/go-eth2-client/api/v1"
	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/rs/zerolog"

	"github.com/valtrack/msg-generator/internal/application/domain"
)

var beaconParams = BeaconResolverParams{
	SlotsPerEpoch:      32,
	AttestationSubnets: 64,
	SyncSubnets:        4,
}

func TestNewBeaconResolverLeavesProcessLoggingAlone(t *testing.T) {
	prior := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(prior)

	// The node is "up" but broken, so construction fails fast either way.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewBeaconResolver(srv.URL, beaconParams, zerolog.Nop())
	if err == nil {
		t.Fatal("expected construction against a broken node to fail")
	}

	if got := zerolog.GlobalLevel(); got != prior {
		t.Fatalf("global log level changed from %s to %s", prior, got)
	}
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.InfoLevel)
	log.Info().Msg("still here")
	if buf.Len() == 0 {
		t.Fatal("info-level logging was suppressed by resolver construction")
	}
}

func TestFailedFetchRoundIsSharedAcrossBoundaryQueries(t *testing.T) {
	calls := 0
	r := &BeaconResolver{params: beaconParams, log: zerolog.Nop()}
	r.fetch = func(context.Context, domain.Epoch, []phase0.ValidatorIndex) (epochDuties, error) {
		calls++
		return epochDuties{}, errors.New("node down")
	}
	vals := domain.NewValidatorSet([]domain.ValId{1, 2})

	// All five duty queries of one boundary share a single failed attempt.
	r.Proposers(100, vals)
	r.Aggregates(100, vals)
	r.Attestations(100, vals)
	r.SyncCommitteeAggregates(100, vals)
	if got := r.SyncCommitteeMessages(100, vals); got != nil {
		t.Fatalf("expected empty duties after a failed fetch, got %v", got)
	}
	if calls != 1 {
		t.Fatalf("fetch attempted %d times for one boundary, want 1", calls)
	}

	// The next boundary retries.
	r.Proposers(101, vals)
	if calls != 2 {
		t.Fatalf("fetch attempted %d times after a new boundary, want 2", calls)
	}

	// Once a fetch succeeds the epoch is cached and served without refetching.
	r.fetch = func(context.Context, domain.Epoch, []phase0.ValidatorIndex) (epochDuties, error) {
		calls++
		return epochDuties{proposers: map[domain.Slot][]domain.ValId{102: {1}}}, nil
	}
	if got := r.Proposers(102, vals); len(got) != 1 || got[0] != 1 {
		t.Fatalf("got proposers %v, want [1]", got)
	}
	r.Attestations(103, vals)
	if calls != 3 {
		t.Fatalf("fetch attempted %d times with a cached epoch, want 3", calls)
	}
}

func TestFoldProposerDuties(t *testing.T) {
	got := foldProposerDuties([]*apiv1.ProposerDuty{
		{Slot: 100, ValidatorIndex: 7},
		{Slot: 101, ValidatorIndex: 9},
	})
	want := map[domain.Slot][]domain.ValId{
		100: {7},
		101: {9},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFoldAttesterDuties(t *testing.T) {
	attesters, aggregators := foldAttesterDuties([]*apiv1.AttesterDuty{
		{Slot: 100, ValidatorIndex: 1, CommitteeIndex: 3, ValidatorCommitteeIndex: 0},
		{Slot: 100, ValidatorIndex: 2, CommitteeIndex: 70, ValidatorCommitteeIndex: 5},
		{Slot: 101, ValidatorIndex: 3, CommitteeIndex: 1, ValidatorCommitteeIndex: 0},
	}, 64)

	wantAttesters := map[domain.Slot][]domain.SubnetDuty{
		100: {
			{Validator: 1, Subnet: 3},
			// Committee index folds onto the subnet count: 70 % 64.
			{Validator: 2, Subnet: 6},
		},
		101: {{Validator: 3, Subnet: 1}},
	}
	if !reflect.DeepEqual(attesters, wantAttesters) {
		t.Fatalf("attesters: got %v, want %v", attesters, wantAttesters)
	}

	// Only the first committee seat aggregates.
	wantAggregators := map[domain.Slot][]domain.SubnetDuty{
		100: {{Validator: 1, Subnet: 3}},
		101: {{Validator: 3, Subnet: 1}},
	}
	if !reflect.DeepEqual(aggregators, wantAggregators) {
		t.Fatalf("aggregators: got %v, want %v", aggregators, wantAggregators)
	}
}

func TestFoldSyncDuties(t *testing.T) {
	messages, aggregates := foldSyncDuties([]*apiv1.SyncCommitteeDuty{
		{ValidatorIndex: 1, ValidatorSyncCommitteeIndices: []phase0.CommitteeIndex{0}},
		{ValidatorIndex: 2, ValidatorSyncCommitteeIndices: []phase0.CommitteeIndex{5}},
		// Same subnet as validator 2: member, but no second aggregate.
		{ValidatorIndex: 3, ValidatorSyncCommitteeIndices: []phase0.CommitteeIndex{1}},
		// Not in the committee at all; dropped.
		{ValidatorIndex: 4},
	}, 4)

	wantMessages := []domain.SubnetDuty{
		{Validator: 1, Subnet: 0},
		{Validator: 2, Subnet: 1},
		{Validator: 3, Subnet: 1},
	}
	if !reflect.DeepEqual(messages, wantMessages) {
		t.Fatalf("messages: got %v, want %v", messages, wantMessages)
	}
	wantAggregates := []domain.SubnetDuty{
		{Validator: 1, Subnet: 0},
		{Validator: 2, Subnet: 1},
	}
	if !reflect.DeepEqual(aggregates, wantAggregates) {
		t.Fatalf("aggregates: got %v, want %v", aggregates, wantAggregates)
	}
}
