package adapters

import (
	"errors"
	"fmt"
	"time"

	"github.com/valtrack/msg-generator/internal/application/domain"
	"github.com/valtrack/msg-generator/internal/application/ports"
)

// ErrBeforeGenesis is returned when the clock is queried before the configured
// genesis time.
var ErrBeforeGenesis = errors.New("current time is before genesis")

// SystemClock implements ports.SlotClock against wall-clock time, anchored at
// a genesis instant with a fixed slot duration.
type SystemClock struct {
	genesis      time.Time
	slotDuration time.Duration
	now          func() time.Time
}

// NewSystemClock builds a wall-clock slot clock. Genesis and a positive slot
// duration are required.
func NewSystemClock(genesis time.Time, slotDuration time.Duration) (*SystemClock, error) {
	if genesis.IsZero() {
		return nil, fmt.Errorf("genesis time is required")
	}
	if slotDuration <= 0 {
		return nil, fmt.Errorf("slot duration must be positive, got %s", slotDuration)
	}
	return &SystemClock{
		genesis:      genesis,
		slotDuration: slotDuration,
		now:          time.Now,
	}, nil
}

// CurrentSlot returns the slot containing now.
func (c *SystemClock) CurrentSlot() (domain.Slot, error) {
	sinceGenesis := c.now().Sub(c.genesis)
	if sinceGenesis < 0 {
		return 0, ErrBeforeGenesis
	}
	return domain.Slot(sinceGenesis / c.slotDuration), nil
}

// DurationToNextSlot returns the time remaining until the next slot boundary.
func (c *SystemClock) DurationToNextSlot() (time.Duration, error) {
	sinceGenesis := c.now().Sub(c.genesis)
	if sinceGenesis < 0 {
		return 0, ErrBeforeGenesis
	}
	intoSlot := sinceGenesis % c.slotDuration
	return c.slotDuration - intoSlot, nil
}

// SlotDuration returns the fixed slot length.
func (c *SystemClock) SlotDuration() time.Duration {
	return c.slotDuration
}

var _ ports.SlotClock = (*SystemClock)(nil)
