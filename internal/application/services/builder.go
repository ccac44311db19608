package services

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/valtrack/msg-generator/internal/application/domain"
	"github.com/valtrack/msg-generator/internal/application/ports"
)

// GeneratorBuilder assembles a Generator from its collaborators. Every field
// except the logger is required; Build reports the first missing one and never
// returns a partially constructed generator.
type GeneratorBuilder struct {
	clock      ports.SlotClock
	resolver   ports.DutyResolver
	validators []domain.ValId
	log        *zerolog.Logger
}

// NewGeneratorBuilder returns an empty builder.
func NewGeneratorBuilder() *GeneratorBuilder {
	return &GeneratorBuilder{}
}

// SlotClock sets the clock anchoring slots to wall-clock time.
func (b *GeneratorBuilder) SlotClock(clock ports.SlotClock) *GeneratorBuilder {
	b.clock = clock
	return b
}

// DutyResolver sets the duty assignment source.
func (b *GeneratorBuilder) DutyResolver(resolver ports.DutyResolver) *GeneratorBuilder {
	b.resolver = resolver
	return b
}

// Validators sets the fixed validator membership.
func (b *GeneratorBuilder) Validators(ids []domain.ValId) *GeneratorBuilder {
	b.validators = ids
	return b
}

// Logger overrides the generator's logger; useful to silence it in tests.
func (b *GeneratorBuilder) Logger(log zerolog.Logger) *GeneratorBuilder {
	b.log = &log
	return b
}

// Build validates the configuration, arms the first boundary timer, and
// returns the generator. A clock that cannot report the duration to the next
// boundary (e.g. genesis in the future) fails here rather than on first Next.
func (b *GeneratorBuilder) Build() (*Generator, error) {
	if b.clock == nil {
		return nil, fmt.Errorf("slot clock is required")
	}
	if b.resolver == nil {
		return nil, fmt.Errorf("duty resolver is required")
	}
	if len(b.validators) == 0 {
		return nil, fmt.Errorf("validator set is required")
	}

	durationToNext, err := b.clock.DurationToNextSlot()
	if err != nil {
		return nil, fmt.Errorf("arming slot timer: %w", err)
	}

	log := zerolog.Nop()
	if b.log != nil {
		log = *b.log
	}

	return &Generator{
		clock:      b.clock,
		resolver:   b.resolver,
		validators: domain.NewValidatorSet(b.validators),
		queued:     make([]domain.Message, 0),
		nextSlot:   time.NewTimer(durationToNext),
		log:        log,
	}, nil
}
