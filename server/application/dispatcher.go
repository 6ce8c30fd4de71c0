package application

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"lockstep/server/domain"
)

const tracerName = "lockstep/server/application"

// Recorder は受理したメッセージのバイト列を記録します。
type Recorder interface {
	Append(data []byte) error
}

// MessageDispatcher はメッセージをデコード・検証し、種別ごとの処理へ振り分けます。
// CommandBatch はスケジューラへ、Join はロスターへ渡します。
type MessageDispatcher struct {
	clock     *domain.SimulationClock
	scheduler *FrameScheduler
	roster    *Roster
	validator Validator
	recorder  Recorder
	tracer    trace.Tracer
}

var _ domain.Dispatcher = (*MessageDispatcher)(nil)

type DispatcherOption func(*MessageDispatcher)

func WithValidator(v Validator) DispatcherOption {
	return func(d *MessageDispatcher) { d.validator = v }
}

// WithRecorder は受理したメッセージをrecへ書き出すようにします。
func WithRecorder(rec Recorder) DispatcherOption {
	return func(d *MessageDispatcher) { d.recorder = rec }
}

func WithTracer(tracer trace.Tracer) DispatcherOption {
	return func(d *MessageDispatcher) { d.tracer = tracer }
}

func NewMessageDispatcher(clock *domain.SimulationClock, scheduler *FrameScheduler, roster *Roster, opts ...DispatcherOption) *MessageDispatcher {
	d := &MessageDispatcher{
		clock:     clock,
		scheduler: scheduler,
		roster:    roster,
		validator: SimpleValidator{},
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch は1メッセージを処理します。エラーはこのメッセージの破棄のみを意味し、
// 他のメッセージやシミュレーション状態には影響しません。
func (d *MessageDispatcher) Dispatch(ctx context.Context, data []byte) error {
	ctx, span := d.tracer.Start(ctx, "lockstep.dispatch",
		trace.WithAttributes(attribute.Int("message.size", len(data))),
	)
	defer span.End()

	msg, err := d.decode(data)
	if err == nil {
		span.SetAttributes(attribute.String("message.type", msg.MessageType().String()))
		err = d.route(ctx, msg)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.WarnContext(ctx, "message dropped", "size", len(data), "err", err)
		return err
	}

	if d.recorder != nil {
		if err := d.recorder.Append(data); err != nil {
			slog.ErrorContext(ctx, "record message failed", "err", err)
		}
	}
	return nil
}

func (d *MessageDispatcher) decode(data []byte) (domain.Message, error) {
	msg, n, err := domain.DeserializeMessage(data)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d of %d bytes consumed", ErrTrailingBytes, n, len(data))
	}
	return msg, nil
}

func (d *MessageDispatcher) route(ctx context.Context, msg domain.Message) error {
	switch m := msg.(type) {
	case *domain.CommandBatch:
		return d.handleCommandBatch(ctx, m)
	case *domain.Join:
		return d.handleJoin(ctx, m)
	default:
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedMessageType, msg.MessageType())
	}
}

func (d *MessageDispatcher) handleCommandBatch(ctx context.Context, batch *domain.CommandBatch) error {
	if err := d.validator.ValidateBatch(batch); err != nil {
		return err
	}
	if err := d.scheduler.Schedule(batch, d.clock.PhysicsTick()); err != nil {
		return err
	}
	slog.DebugContext(ctx, "batch scheduled",
		"frame", batch.TargetFrame,
		"side", batch.TargetSide,
		"commands", len(batch.Commands),
	)
	return nil
}

func (d *MessageDispatcher) handleJoin(ctx context.Context, join *domain.Join) error {
	if err := d.validator.ValidateJoin(join); err != nil {
		return err
	}
	player, err := d.roster.Join(join, d.clock.PhysicsTick())
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "player joined",
		"sessionID", player.SessionID,
		"side", player.Side,
		"username", player.Username,
	)
	return nil
}
