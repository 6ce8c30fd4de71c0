package application

import (
	"sync"

	"lockstep/server/domain"
)

// BatchBuilder は操作可能な勢力の入力コマンドを溜め込み、送信用のバッチにまとめます。
type BatchBuilder struct {
	mu         sync.Mutex
	clock      *domain.SimulationClock
	side       domain.SideID // SideNone ならクロックの操作勢力に従う
	inputDelay uint32
	commands   []domain.Command
}

// NewBatchBuilder はinputDelayフレーム先を宛先とするBatchBuilderを作成します。
func NewBatchBuilder(clock *domain.SimulationClock, inputDelay uint32) *BatchBuilder {
	return NewSideBatchBuilder(clock, domain.SideNone, inputDelay)
}

// NewSideBatchBuilder は操作勢力ではなく固定の勢力宛てにバッチを作るBatchBuilderを作成します。
// ボットなどローカルで複数勢力を動かす場合に使います。
func NewSideBatchBuilder(clock *domain.SimulationClock, side domain.SideID, inputDelay uint32) *BatchBuilder {
	return &BatchBuilder{
		clock:      clock,
		side:       side,
		inputDelay: inputDelay,
	}
}

// Add はコマンドを末尾に追加します。追加順がそのままフレーム内の適用順になります。
func (b *BatchBuilder) Add(cmd domain.Command) error {
	cmd, err := domain.NormalizeCommand(cmd)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commands = append(b.commands, cmd)
	return nil
}

func (b *BatchBuilder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.commands)
}

// Flush は溜まったコマンドを現在の物理tick+inputDelay宛てのバッチとして返し、内部をリセットします。
// コマンドが無ければnilを返します。
func (b *BatchBuilder) Flush() *domain.CommandBatch {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.commands) == 0 {
		return nil
	}
	side := b.side
	if side == domain.SideNone {
		side = b.clock.ControllableSide()
	}
	batch := &domain.CommandBatch{
		TargetFrame: b.clock.TargetFrame(b.inputDelay),
		TargetSide:  side,
		Commands:    b.commands,
	}
	b.commands = nil
	return batch
}
