package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/valtrack/msg-generator/internal/application/domain"
	"github.com/valtrack/msg-generator/internal/application/ports"
	"github.com/valtrack/msg-generator/internal/telemetry"
)

// Generator produces, slot by slot, the duty messages a node with the given
// validators would emit. It is a pull-based infinite sequence: the consumer
// drives it by calling Next, and the generator wakes itself at each slot
// boundary through a single re-armed timer.
//
// A Generator is owned by exactly one consumer. It holds no locks; attaching
// several consumers to one instance is not supported.
type Generator struct {
	// Clock mapping wall-clock time onto slots.
	clock ports.SlotClock
	// Duty assignments per slot.
	resolver ports.DutyResolver
	// Validators managed by this node.
	validators domain.ValidatorSet
	// Messages resolved but not yet pulled, FIFO.
	queued []domain.Message
	// Single-shot timer armed for the next slot boundary.
	nextSlot *time.Timer

	log zerolog.Logger
}

// Next returns the next duty message, blocking until one is available or ctx
// is done. When the boundary timer fires, the slot is read fresh from the
// clock — never counted locally — so boundaries that elapsed while the
// consumer lagged are skipped, not backfilled. All five duty kinds of a
// boundary are queued before the first of its messages is returned.
//
// A clock error is terminal for the sequence and is returned as-is wrapped;
// the generator does not retry.
func (g *Generator) Next(ctx context.Context) (domain.Message, error) {
	for {
		// Any messages remaining from the last resolved slot go out first.
		if len(g.queued) > 0 {
			msg := g.queued[0]
			g.queued = g.queued[1:]
			telemetry.QueueDepth.Dec()
			return msg, nil
		}

		select {
		case <-g.nextSlot.C:
			currentSlot, err := g.clock.CurrentSlot()
			if err != nil {
				return domain.Message{}, fmt.Errorf("reading current slot: %w", err)
			}
			g.queueSlotMessages(currentSlot)

			durationToNext, err := g.clock.DurationToNextSlot()
			if err != nil {
				return domain.Message{}, fmt.Errorf("arming slot timer: %w", err)
			}
			g.nextSlot.Reset(durationToNext)
			// Loop back: either the queue has messages now, or every kind
			// resolved empty and we wait for the freshly armed timer.
		case <-ctx.Done():
			return domain.Message{}, ctx.Err()
		}
	}
}

// queueSlotMessages resolves every duty kind for the slot, in emission order,
// and appends the results to the queue. It runs exactly once per realized
// boundary.
func (g *Generator) queueSlotMessages(currentSlot domain.Slot) {
	for _, kind := range domain.DutyKinds {
		switch kind {
		case domain.BeaconBlock:
			for _, proposer := range g.resolver.Proposers(currentSlot, g.validators) {
				g.push(domain.NewBeaconBlock(currentSlot, proposer))
			}
		case domain.AggregateAndProofAttestation:
			for _, duty := range g.resolver.Aggregates(currentSlot, g.validators) {
				g.push(domain.NewAggregateAndProof(currentSlot, duty))
			}
		case domain.Attestation:
			for _, duty := range g.resolver.Attestations(currentSlot, g.validators) {
				g.push(domain.NewAttestation(currentSlot, duty))
			}
		case domain.SignedContributionAndProof:
			for _, duty := range g.resolver.SyncCommitteeAggregates(currentSlot, g.validators) {
				g.push(domain.NewSignedContributionAndProof(currentSlot, duty))
			}
		case domain.SyncCommitteeMessage:
			for _, duty := range g.resolver.SyncCommitteeMessages(currentSlot, g.validators) {
				g.push(domain.NewSyncCommitteeMessage(currentSlot, duty))
			}
		}
	}
	telemetry.SlotsResolved.Inc()
	g.log.Debug().
		Uint64("slot", uint64(currentSlot)).
		Int("queued", len(g.queued)).
		Msg("slot duties resolved")
}

func (g *Generator) push(msg domain.Message) {
	g.queued = append(g.queued, msg)
	telemetry.MessagesGenerated.WithLabelValues(msg.Kind.String()).Inc()
	telemetry.QueueDepth.Inc()
}

// TimeSinceLastSlot returns how far into the current slot the clock is,
// saturating at zero when the clock cannot answer.
func (g *Generator) TimeSinceLastSlot() time.Duration {
	toNext, err := g.clock.DurationToNextSlot()
	if err != nil {
		toNext = 0
	}
	elapsed := g.clock.SlotDuration() - toNext
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Close releases the boundary timer and drops any unread messages. The
// generator must not be used afterwards.
func (g *Generator) Close() {
	if !g.nextSlot.Stop() {
		select {
		case <-g.nextSlot.C:
		default:
		}
	}
	telemetry.QueueDepth.Sub(float64(len(g.queued)))
	g.queued = nil
}
