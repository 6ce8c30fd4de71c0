package application

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"lockstep/server/domain"
)

// Simulation は固定周期で物理tickを進め、そのフレーム宛てのコマンドを適用します。
type Simulation struct {
	clock     *domain.SimulationClock
	scheduler *FrameScheduler
	applier   domain.CommandApplier
	period    time.Duration
	paused    atomic.Bool
}

func NewSimulation(clock *domain.SimulationClock, scheduler *FrameScheduler, applier domain.CommandApplier) *Simulation {
	return &Simulation{
		clock:     clock,
		scheduler: scheduler,
		applier:   applier,
		period:    domain.PhysicsTickPeriod,
	}
}

// SetPaused は一時停止を切り替えます。一時停止中は RequestNextFrame ごとに1tickだけ進みます。
func (s *Simulation) SetPaused(paused bool) {
	s.paused.Store(paused)
}

func (s *Simulation) Paused() bool {
	return s.paused.Load()
}

func (s *Simulation) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			s.clock.AdvanceGraphics(now.Sub(last))
			last = now

			if s.paused.Load() && !s.clock.ConsumeNextFrameRequest() {
				continue
			}
			s.Step(ctx)
		}
	}
}

// Step は現在フレーム宛てのバッチを勢力順・到着順に適用し、物理tickを1進めます。
// 適用したフレーム番号と適用に成功したコマンド数を返します。
func (s *Simulation) Step(ctx context.Context) (uint32, int) {
	frame := s.clock.PhysicsTick()
	applied := 0
	for _, batch := range s.scheduler.Due(frame) {
		for i, cmd := range batch.Commands {
			if err := s.applier.Apply(ctx, frame, batch.TargetSide, cmd); err != nil {
				slog.WarnContext(ctx, "apply command failed",
					"frame", frame,
					"side", batch.TargetSide,
					"index", i,
					"command", cmd.CommandType(),
					"err", err,
				)
				continue
			}
			applied++
		}
	}
	s.clock.AdvancePhysics()
	if applied > 0 {
		slog.DebugContext(ctx, "frame stepped", "frame", frame, "applied", applied)
	}
	return frame, applied
}
