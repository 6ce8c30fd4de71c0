package application

import (
	"context"
	"fmt"
	"sync"

	"lockstep/server/domain"
)

// Order は適用済みのコマンドとその適用フレーム
type Order struct {
	Frame   uint32
	Side    domain.SideID
	Command domain.Command
}

// OrderBook はロボットごとの最新の命令と、基地ごとの生産予約を保持するCommandApplier。
// ネットワークIDは不透明な値として扱い、実体の存在は確認しません。
type OrderBook struct {
	mu      sync.RWMutex
	robots  map[uint32]Order
	builds  map[uint32][]Order
	applied uint64
}

var _ domain.CommandApplier = (*OrderBook)(nil)

func NewOrderBook() *OrderBook {
	return &OrderBook{
		robots: make(map[uint32]Order),
		builds: make(map[uint32][]Order),
	}
}

func (o *OrderBook) Apply(ctx context.Context, frame uint32, side domain.SideID, cmd domain.Command) error {
	cmd, err := domain.NormalizeCommand(cmd)
	if err != nil {
		return err
	}
	order := Order{Frame: frame, Side: side, Command: cmd}

	o.mu.Lock()
	defer o.mu.Unlock()

	switch c := cmd.(type) {
	case domain.MoveCommand:
		o.robots[c.RobotNID] = order
	case domain.AttackCommand:
		o.robots[c.RobotNID] = order
	case domain.CaptureCommand:
		o.robots[c.RobotNID] = order
	case domain.BuildCommand:
		o.builds[c.TargetBaseNID] = append(o.builds[c.TargetBaseNID], order)
	default:
		return fmt.Errorf("%w: %T", domain.ErrUnknownCommandTag, cmd)
	}
	o.applied++
	return nil
}

// LatestOrder はロボットに最後に適用された命令を返します。
func (o *OrderBook) LatestOrder(robotNID uint32) (Order, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	order, ok := o.robots[robotNID]
	return order, ok
}

// QueuedBuilds は基地に予約された生産を適用順に返します。
func (o *OrderBook) QueuedBuilds(baseNID uint32) []Order {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]Order(nil), o.builds[baseNID]...)
}

func (o *OrderBook) Applied() uint64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.applied
}
