package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"lockstep/server/application"
	"lockstep/server/domain"
	"lockstep/server/recorder"
)

func main() {
	var (
		path    = flag.String("file", "", "path to a .lsr.zst recording")
		verbose = flag.Bool("v", false, "print every decoded message")
	)
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "missing -file")
		os.Exit(2)
	}

	stats, err := replay(context.Background(), *path, *verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: messages=%d batches=%d joins=%d frames=%d applied=%d\n",
		stats.messages, stats.batches, stats.joins, stats.frames, stats.applied)
}

type replayStats struct {
	messages int
	batches  int
	joins    int
	frames   uint32
	applied  uint64
}

// replay は記録されたメッセージを新しいシミュレーションへ流し込み、全バッチを適用し終えるまでフレームを進めます。
func replay(ctx context.Context, path string, verbose bool) (replayStats, error) {
	var stats replayStats

	r, closeFn, err := recorder.OpenFile(path)
	if err != nil {
		return stats, err
	}
	defer closeFn()

	clock := domain.NewSimulationClock(domain.SideNone)
	scheduler := application.NewFrameScheduler(0)
	book := application.NewOrderBook()
	dispatcher := application.NewMessageDispatcher(clock, scheduler, application.NewRoster())
	sim := application.NewSimulation(clock, scheduler, book)

	for {
		data, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("record %d: %w", stats.messages, err)
		}
		msg, _, err := domain.DeserializeMessage(data)
		if err != nil {
			return stats, fmt.Errorf("record %d: %w", stats.messages, err)
		}
		stats.messages++
		switch m := msg.(type) {
		case *domain.CommandBatch:
			stats.batches++
			if verbose {
				fmt.Printf("batch frame=%d side=%s commands=%d\n", m.TargetFrame, m.TargetSide, len(m.Commands))
			}
		case *domain.Join:
			stats.joins++
			if verbose {
				fmt.Printf("join side=%s username=%q\n", m.PlayerSide, m.Username)
			}
		}
		if err := dispatcher.Dispatch(ctx, data); err != nil {
			return stats, fmt.Errorf("record %d: %w", stats.messages-1, err)
		}
	}

	for scheduler.Pending() > 0 {
		sim.Step(ctx)
	}
	stats.frames = clock.PhysicsTick()
	stats.applied = book.Applied()
	return stats, nil
}
