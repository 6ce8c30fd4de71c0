package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"lockstep/internal/handler"
	"lockstep/server/application"
	"lockstep/server/domain"
)

// inboxDrainTimeout は停止時に受信キューの残りを処理しきるまで待つ上限
const inboxDrainTimeout = time.Second

// NodeConfig はNodeの構成要素
type NodeConfig struct {
	ControllableSide      domain.SideID
	InputDelayFrames      uint32
	ScheduleHorizonFrames uint32
	Applier               domain.CommandApplier
	Recorder              application.Recorder // nilなら記録しない
	QueueSize             int
}

// Node はロックステップの1参加ノード。受信キュー・スケジューラ・シミュレーションを束ねます。
type Node struct {
	clock      *domain.SimulationClock
	scheduler  *application.FrameScheduler
	roster     *application.Roster
	dispatcher *application.MessageDispatcher
	simulation *application.Simulation
	inbox      *handler.Loop
	inputDelay uint32
	started    chan struct{} // Runで受信キューを起動したら閉じる
}

func NewNode(cfg NodeConfig) (*Node, error) {
	if cfg.Applier == nil {
		return nil, errors.New("node: applier is required")
	}
	clock := domain.NewSimulationClock(cfg.ControllableSide)
	scheduler := application.NewFrameScheduler(cfg.ScheduleHorizonFrames)
	roster := application.NewRoster()

	var opts []application.DispatcherOption
	if cfg.Recorder != nil {
		opts = append(opts, application.WithRecorder(cfg.Recorder))
	}
	dispatcher := application.NewMessageDispatcher(clock, scheduler, roster, opts...)

	inbox, err := handler.New(handler.Config{
		Handler:   handler.HandlerFunc(dispatcher.Dispatch),
		QueueSize: cfg.QueueSize,
	})
	if err != nil {
		return nil, err
	}

	return &Node{
		clock:      clock,
		scheduler:  scheduler,
		roster:     roster,
		dispatcher: dispatcher,
		simulation: application.NewSimulation(clock, scheduler, cfg.Applier),
		inbox:      inbox,
		inputDelay: cfg.InputDelayFrames,
		started:    make(chan struct{}),
	}, nil
}

func (n *Node) Clock() *domain.SimulationClock         { return n.clock }
func (n *Node) Roster() *application.Roster            { return n.roster }
func (n *Node) Simulation() *application.Simulation    { return n.simulation }
func (n *Node) Scheduler() *application.FrameScheduler { return n.scheduler }

// Run は受信キューとシミュレーションループを起動し、ctxが終了するまでブロックします。
// 終了時は受信済みのメッセージを振り分け・記録してから戻ります。
func (n *Node) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)

	// 受信キューはctx終了後も積まれた分を処理しきるため、キャンセルを切り離して起動する
	if err := n.inbox.Start(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	close(n.started)
	eg.Go(func() error {
		return n.simulation.Run(ctx)
	})
	eg.Go(func() error {
		<-ctx.Done()
		err := n.inbox.DrainTimeout(inboxDrainTimeout)
		if errors.Is(err, context.DeadlineExceeded) {
			slog.WarnContext(ctx, "inbox drain timed out", "timeout", inboxDrainTimeout)
			return nil
		}
		return err
	})

	err := eg.Wait()
	slog.InfoContext(ctx, "node stopped", "frame", n.clock.PhysicsTick())
	return err
}

// Submit は1メッセージ分のバイト列を受信キューへ積みます。Run開始前なら開始を待ちます。
func (n *Node) Submit(ctx context.Context, data []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-n.started:
	}
	return n.inbox.Submit(ctx, data)
}

// RunBot はbotの勢力でJoinを送り、以後は物理tickごとにbotの命令をバッチにして送ります。
func (n *Node) RunBot(ctx context.Context, bot *application.RuleBot, username string) error {
	join, err := domain.MarshalMessage(&domain.Join{PlayerSide: bot.Side(), Username: username})
	if err != nil {
		return err
	}
	if err := n.Submit(ctx, join); err != nil {
		return err
	}

	builder := application.NewSideBatchBuilder(n.clock, bot.Side(), n.inputDelay)
	ticker := time.NewTicker(domain.PhysicsTickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			bot.Fill(builder)
			batch := builder.Flush()
			if batch == nil {
				continue
			}
			data, err := domain.MarshalMessage(batch)
			if err != nil {
				return err
			}
			if err := n.Submit(ctx, data); err != nil {
				if errors.Is(err, handler.ErrStopped) || ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}
