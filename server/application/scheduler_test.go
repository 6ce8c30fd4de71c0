package application

import (
	"errors"
	"testing"

	"lockstep/server/domain"
)

func batchFor(frame uint32, side domain.SideID, robot uint32) *domain.CommandBatch {
	return &domain.CommandBatch{
		TargetFrame: frame,
		TargetSide:  side,
		Commands:    []domain.Command{domain.AttackCommand{RobotNID: robot, TargetNID: 1}},
	}
}

func TestFrameSchedulerDueOrdering(t *testing.T) {
	s := NewFrameScheduler(0)

	arrivals := []*domain.CommandBatch{
		batchFor(4, domain.SideGreen, 1),
		batchFor(4, domain.SideYellow, 2),
		batchFor(5, domain.SideRed, 3),
		batchFor(4, domain.SideGreen, 4),
		batchFor(4, domain.SideRed, 5),
		batchFor(4, domain.SideYellow, 6),
	}
	for _, b := range arrivals {
		if err := s.Schedule(b, 0); err != nil {
			t.Fatalf("Schedule failed: %v", err)
		}
	}
	if s.Pending() != 6 {
		t.Errorf("Pending = %d, want 6", s.Pending())
	}

	if got := s.Due(3); len(got) != 0 {
		t.Errorf("Due(3) = %d batches, want 0", len(got))
	}

	due := s.Due(4)
	wantRobots := []uint32{2, 6, 5, 1, 4}
	if len(due) != len(wantRobots) {
		t.Fatalf("Due(4) = %d batches, want %d", len(due), len(wantRobots))
	}
	for i, b := range due {
		robot := b.Commands[0].(domain.AttackCommand).RobotNID
		if robot != wantRobots[i] {
			t.Errorf("due[%d] robot = %d, want %d", i, robot, wantRobots[i])
		}
	}
	if s.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", s.Pending())
	}
	if got := s.Due(4); len(got) != 0 {
		t.Errorf("second Due(4) = %d batches, want 0", len(got))
	}
}

func TestFrameSchedulerStale(t *testing.T) {
	s := NewFrameScheduler(0)

	if err := s.Schedule(batchFor(9, domain.SideRed, 1), 10); !errors.Is(err, ErrStaleFrame) {
		t.Errorf("expected ErrStaleFrame, got %v", err)
	}
	if err := s.Schedule(batchFor(10, domain.SideRed, 1), 10); err != nil {
		t.Errorf("current frame should be accepted: %v", err)
	}

	// 取り出し済みのフレームは現在フレームが遅れていても受け付けない
	s.Due(20)
	if err := s.Schedule(batchFor(20, domain.SideRed, 1), 15); !errors.Is(err, ErrStaleFrame) {
		t.Errorf("expected ErrStaleFrame after drain, got %v", err)
	}
	if err := s.Schedule(batchFor(21, domain.SideRed, 1), 15); err != nil {
		t.Errorf("next frame should be accepted: %v", err)
	}
}

func TestFrameSchedulerHorizon(t *testing.T) {
	s := NewFrameScheduler(8)

	if err := s.Schedule(batchFor(18, domain.SideRed, 1), 10); err != nil {
		t.Errorf("frame at horizon should be accepted: %v", err)
	}
	if err := s.Schedule(batchFor(19, domain.SideRed, 1), 10); !errors.Is(err, ErrFrameTooFar) {
		t.Errorf("expected ErrFrameTooFar, got %v", err)
	}
	if s.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", s.Pending())
	}
}
