package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"lockstep/server/application"
	"lockstep/server/domain"
	"lockstep/server/domain/mocks"
)

func TestSimulationStepAppliesInOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clock := domain.NewSimulationClock(domain.SideYellow)
	scheduler := application.NewFrameScheduler(0)
	applier := mocks.NewMockCommandApplier(ctrl)
	sim := application.NewSimulation(clock, scheduler, applier)
	ctx := context.Background()

	red1 := domain.MoveCommand{RobotNID: 20, TargetPos: domain.Vector3{X: 1}}
	red2 := domain.AttackCommand{RobotNID: 20, TargetNID: 30}
	yellow := domain.CaptureCommand{RobotNID: 10, TargetNID: 40}
	later := domain.BuildCommand{RobotCount: 1, TargetBaseNID: 900}

	for _, b := range []*domain.CommandBatch{
		{TargetFrame: 0, TargetSide: domain.SideRed, Commands: []domain.Command{red1, red2}},
		{TargetFrame: 0, TargetSide: domain.SideYellow, Commands: []domain.Command{yellow}},
		{TargetFrame: 2, TargetSide: domain.SideRed, Commands: []domain.Command{later}},
	} {
		if err := scheduler.Schedule(b, clock.PhysicsTick()); err != nil {
			t.Fatalf("Schedule failed: %v", err)
		}
	}

	gomock.InOrder(
		applier.EXPECT().Apply(gomock.Any(), uint32(0), domain.SideYellow, yellow).Return(nil),
		applier.EXPECT().Apply(gomock.Any(), uint32(0), domain.SideRed, red1).Return(nil),
		applier.EXPECT().Apply(gomock.Any(), uint32(0), domain.SideRed, red2).Return(nil),
		applier.EXPECT().Apply(gomock.Any(), uint32(2), domain.SideRed, later).Return(nil),
	)

	if frame, applied := sim.Step(ctx); frame != 0 || applied != 3 {
		t.Errorf("Step = (%d, %d), want (0, 3)", frame, applied)
	}
	if frame, applied := sim.Step(ctx); frame != 1 || applied != 0 {
		t.Errorf("Step = (%d, %d), want (1, 0)", frame, applied)
	}
	if frame, applied := sim.Step(ctx); frame != 2 || applied != 1 {
		t.Errorf("Step = (%d, %d), want (2, 1)", frame, applied)
	}
	if clock.PhysicsTick() != 3 {
		t.Errorf("PhysicsTick = %d, want 3", clock.PhysicsTick())
	}
}

func TestSimulationStepContinuesAfterApplyError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clock := domain.NewSimulationClock(domain.SideYellow)
	scheduler := application.NewFrameScheduler(0)
	applier := mocks.NewMockCommandApplier(ctrl)
	sim := application.NewSimulation(clock, scheduler, applier)

	first := domain.AttackCommand{RobotNID: 1, TargetNID: 2}
	second := domain.AttackCommand{RobotNID: 3, TargetNID: 4}
	if err := scheduler.Schedule(&domain.CommandBatch{TargetSide: domain.SideBlue, Commands: []domain.Command{first, second}}, 0); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	gomock.InOrder(
		applier.EXPECT().Apply(gomock.Any(), uint32(0), domain.SideBlue, first).Return(errors.New("unknown robot")),
		applier.EXPECT().Apply(gomock.Any(), uint32(0), domain.SideBlue, second).Return(nil),
	)

	if _, applied := sim.Step(context.Background()); applied != 1 {
		t.Errorf("applied = %d, want 1", applied)
	}
}

func TestSimulationRunPaused(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clock := domain.NewSimulationClock(domain.SideYellow)
	sim := application.NewSimulation(clock, application.NewFrameScheduler(0), mocks.NewMockCommandApplier(ctrl))
	sim.SetPaused(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sim.Run(ctx) }()

	time.Sleep(3 * domain.PhysicsTickPeriod)
	if clock.PhysicsTick() != 0 {
		t.Errorf("PhysicsTick while paused = %d, want 0", clock.PhysicsTick())
	}

	clock.RequestNextFrame()
	deadline := time.Now().Add(2 * time.Second)
	for clock.PhysicsTick() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if clock.PhysicsTick() != 1 {
		t.Errorf("PhysicsTick after single step = %d, want 1", clock.PhysicsTick())
	}
	if clock.GraphicsTick() == 0 {
		t.Error("GraphicsTick should advance while paused")
	}
}
