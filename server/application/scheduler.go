package application

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"lockstep/server/domain"
)

// FrameScheduler は受信したバッチを宛先フレームが来るまで保持します。
// 受信goroutineがScheduleし、シミュレーションgoroutineがDueで取り出します。
type FrameScheduler struct {
	mu      sync.Mutex
	horizon uint32
	frames  map[uint32][]*domain.CommandBatch
	next    uint32 // 次に取り出されるフレーム。これより前は処理済み
	pending int
}

// NewFrameScheduler は現在フレームからhorizonフレーム先までを受け付けるスケジューラを作成します。
// horizonが0なら上限を設けません。
func NewFrameScheduler(horizon uint32) *FrameScheduler {
	return &FrameScheduler{
		horizon: horizon,
		frames:  make(map[uint32][]*domain.CommandBatch),
	}
}

// Schedule はバッチを宛先フレームに登録します。
func (s *FrameScheduler) Schedule(batch *domain.CommandBatch, currentFrame uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := max(currentFrame, s.next)
	if batch.TargetFrame < base {
		return fmt.Errorf("%w: frame %d, current %d", ErrStaleFrame, batch.TargetFrame, base)
	}
	if s.horizon > 0 && batch.TargetFrame-base > s.horizon {
		return fmt.Errorf("%w: frame %d, current %d, horizon %d", ErrFrameTooFar, batch.TargetFrame, base, s.horizon)
	}

	s.frames[batch.TargetFrame] = append(s.frames[batch.TargetFrame], batch)
	s.pending++
	return nil
}

// Due はframe宛てのバッチを取り出して返します。
// 順序は勢力ID昇順、同じ勢力内は到着順です。
func (s *FrameScheduler) Due(frame uint32) []*domain.CommandBatch {
	s.mu.Lock()
	defer s.mu.Unlock()

	if frame >= s.next {
		s.next = frame + 1
	}
	batches, ok := s.frames[frame]
	if !ok {
		return nil
	}
	delete(s.frames, frame)
	s.pending -= len(batches)

	slices.SortStableFunc(batches, func(a, b *domain.CommandBatch) int {
		return cmp.Compare(a.TargetSide, b.TargetSide)
	})
	return batches
}

// Pending は保持中のバッチ数を返します。
func (s *FrameScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}
