package application

import (
	"errors"
	"testing"

	"lockstep/server/domain"
)

func TestBatchBuilderFlush(t *testing.T) {
	clock := domain.NewSimulationClock(domain.SideBlue)
	for i := 0; i < 5; i++ {
		clock.AdvancePhysics()
	}
	b := NewBatchBuilder(clock, 3)

	if batch := b.Flush(); batch != nil {
		t.Fatalf("Flush on empty builder = %+v, want nil", batch)
	}

	first := domain.MoveCommand{RobotNID: 1, TargetPos: domain.Vector3{X: 1}}
	second := domain.AttackCommand{RobotNID: 1, TargetNID: 9}
	if err := b.Add(first); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := b.Add(second); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if b.Len() != 2 {
		t.Errorf("Len = %d, want 2", b.Len())
	}

	batch := b.Flush()
	if batch == nil {
		t.Fatal("Flush returned nil")
	}
	if batch.TargetFrame != 8 {
		t.Errorf("TargetFrame = %d, want 8", batch.TargetFrame)
	}
	if batch.TargetSide != domain.SideBlue {
		t.Errorf("TargetSide = %s, want blue", batch.TargetSide)
	}
	if len(batch.Commands) != 2 || batch.Commands[0] != first || batch.Commands[1] != second {
		t.Errorf("Commands = %+v", batch.Commands)
	}
	if b.Len() != 0 {
		t.Errorf("Len after Flush = %d, want 0", b.Len())
	}
}

func TestBatchBuilderFlushDoesNotAlias(t *testing.T) {
	clock := domain.NewSimulationClock(domain.SideRed)
	b := NewBatchBuilder(clock, 0)

	_ = b.Add(domain.CaptureCommand{RobotNID: 1, TargetNID: 2})
	batch := b.Flush()
	_ = b.Add(domain.CaptureCommand{RobotNID: 3, TargetNID: 4})

	if got := batch.Commands[0].(domain.CaptureCommand).RobotNID; got != 1 {
		t.Errorf("flushed batch modified by later Add: robot %d", got)
	}
}

func TestBatchBuilderAddNil(t *testing.T) {
	b := NewBatchBuilder(domain.NewSimulationClock(domain.SideRed), 0)
	if err := b.Add(nil); !errors.Is(err, domain.ErrUnknownCommandTag) {
		t.Fatalf("expected ErrUnknownCommandTag, got %v", err)
	}
}

func TestBatchBuilderAddPointer(t *testing.T) {
	b := NewBatchBuilder(domain.NewSimulationClock(domain.SideRed), 0)
	capture := &domain.CaptureCommand{RobotNID: 1, TargetNID: 2}
	if err := b.Add(capture); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	capture.RobotNID = 9

	if err := b.Add((*domain.MoveCommand)(nil)); !errors.Is(err, domain.ErrUnknownCommandTag) {
		t.Fatalf("expected ErrUnknownCommandTag, got %v", err)
	}

	batch := b.Flush()
	if len(batch.Commands) != 1 {
		t.Fatalf("len(Commands) = %d, want 1", len(batch.Commands))
	}
	got, ok := batch.Commands[0].(domain.CaptureCommand)
	if !ok || got.RobotNID != 1 {
		t.Errorf("Commands[0] = %#v, want CaptureCommand value with robot 1", batch.Commands[0])
	}
}

func TestSideBatchBuilder(t *testing.T) {
	clock := domain.NewSimulationClock(domain.SideYellow)
	b := NewSideBatchBuilder(clock, domain.SideGreen, 1)
	_ = b.Add(domain.AttackCommand{RobotNID: 1, TargetNID: 2})

	batch := b.Flush()
	if batch.TargetSide != domain.SideGreen {
		t.Errorf("TargetSide = %s, want green", batch.TargetSide)
	}
	if batch.TargetFrame != 1 {
		t.Errorf("TargetFrame = %d, want 1", batch.TargetFrame)
	}
}
