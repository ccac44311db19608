package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/valtrack/msg-generator/internal/application/domain"
)

func TestBuildFailsWithoutValidators(t *testing.T) {
	clock := &fakeClock{slots: []domain.Slot{0}, toNext: []time.Duration{time.Hour}, slotDur: 12 * time.Second}
	gen, err := NewGeneratorBuilder().
		SlotClock(clock).
		DutyResolver(newFakeResolver()).
		Build()
	if err == nil || !strings.Contains(err.Error(), "validator set") {
		t.Fatalf("expected validator set error, got %v", err)
	}
	if gen != nil {
		t.Fatalf("expected no generator, got %v", gen)
	}
}

func TestBuildFailsWithoutClock(t *testing.T) {
	_, err := NewGeneratorBuilder().
		DutyResolver(newFakeResolver()).
		Validators([]domain.ValId{valA}).
		Build()
	if err == nil || !strings.Contains(err.Error(), "slot clock") {
		t.Fatalf("expected slot clock error, got %v", err)
	}
}

func TestBuildFailsWithoutResolver(t *testing.T) {
	clock := &fakeClock{slots: []domain.Slot{0}, toNext: []time.Duration{time.Hour}, slotDur: 12 * time.Second}
	_, err := NewGeneratorBuilder().
		SlotClock(clock).
		Validators([]domain.ValId{valA}).
		Build()
	if err == nil || !strings.Contains(err.Error(), "duty resolver") {
		t.Fatalf("expected duty resolver error, got %v", err)
	}
}

func TestBuildSurfacesClockMisconfiguration(t *testing.T) {
	boom := errors.New("before genesis")
	clock := &fakeClock{slots: []domain.Slot{0}, toNext: []time.Duration{0}, slotDur: 12 * time.Second, toNextErr: boom}
	_, err := NewGeneratorBuilder().
		SlotClock(clock).
		DutyResolver(newFakeResolver()).
		Validators([]domain.ValId{valA}).
		Build()
	if !errors.Is(err, boom) {
		t.Fatalf("expected clock error, got %v", err)
	}
}
