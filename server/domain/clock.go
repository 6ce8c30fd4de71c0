package domain

import (
	"sync/atomic"
	"time"
)

// PhysicsTickRate は1秒あたりの物理tick数。ロックステップの刻み
const PhysicsTickRate = 10

// PhysicsTickPeriodMs は1 tickの周期 ceil(1000/rate) ミリ秒
const PhysicsTickPeriodMs = (1000 + PhysicsTickRate - 1) / PhysicsTickRate

// PhysicsTickPeriod は PhysicsTickPeriodMs の time.Duration 表現
const PhysicsTickPeriod = PhysicsTickPeriodMs * time.Millisecond

// SimulationClock はシミュレーションループが所有するtickカウンタ
// 書き込みはシミュレーションループのみ、読み出しは任意のgoroutineから行える
type SimulationClock struct {
	physicsTick        atomic.Uint32
	graphicsTick       atomic.Uint32
	totalMs            atomic.Uint32
	nextFrameRequested atomic.Bool
	controllableSide   atomic.Uint32
}

// ClockSnapshot はある時点のカウンタの値
type ClockSnapshot struct {
	PhysicsTick      uint32
	GraphicsTick     uint32
	TotalMs          uint32
	ControllableSide SideID
}

func NewSimulationClock(side SideID) *SimulationClock {
	c := &SimulationClock{}
	c.controllableSide.Store(uint32(side))
	return c
}

func (c *SimulationClock) PhysicsTick() uint32  { return c.physicsTick.Load() }
func (c *SimulationClock) GraphicsTick() uint32 { return c.graphicsTick.Load() }
func (c *SimulationClock) TotalMs() uint32      { return c.totalMs.Load() }

// AdvancePhysics は物理tickを1進め、新しいtick番号を返す
func (c *SimulationClock) AdvancePhysics() uint32 {
	return c.physicsTick.Add(1)
}

// AdvanceGraphics は描画tickを1進め、経過時間を積算する
func (c *SimulationClock) AdvanceGraphics(elapsed time.Duration) {
	c.graphicsTick.Add(1)
	if elapsed > 0 {
		c.totalMs.Add(uint32(elapsed.Milliseconds()))
	}
}

// RequestNextFrame は一時停止中に1フレームだけ進める要求を立てる
func (c *SimulationClock) RequestNextFrame() {
	c.nextFrameRequested.Store(true)
}

// ConsumeNextFrameRequest は要求が立っていれば下ろしてtrueを返す
func (c *SimulationClock) ConsumeNextFrameRequest() bool {
	return c.nextFrameRequested.CompareAndSwap(true, false)
}

func (c *SimulationClock) ControllableSide() SideID {
	return SideID(c.controllableSide.Load())
}

func (c *SimulationClock) SetControllableSide(side SideID) {
	c.controllableSide.Store(uint32(side))
}

// TargetFrame は現在の物理tickにdelayを加えた、送信バッチの適用フレームを返す
func (c *SimulationClock) TargetFrame(delay uint32) uint32 {
	return c.PhysicsTick() + delay
}

func (c *SimulationClock) Snapshot() ClockSnapshot {
	return ClockSnapshot{
		PhysicsTick:      c.PhysicsTick(),
		GraphicsTick:     c.GraphicsTick(),
		TotalMs:          c.TotalMs(),
		ControllableSide: c.ControllableSide(),
	}
}
