package application

import (
	"math/rand/v2"

	"lockstep/server/domain"
)

const (
	botRobotsPerSide  = 8
	botNIDStride      = 1000
	botBaseNIDOffset  = 900
	botArenaHalfWidth = 256.0
)

// RuleBot はランダムな命令を生成するルールベースのボットです。
// ボットごとに異なる個性パラメータを持ちます。
type RuleBot struct {
	side domain.SideID
	rng  *rand.Rand

	ActionChance float64 // 1tickあたりに命令を出す確率
	BuildChance  float64 // 命令のうち生産を選ぶ確率
	Aggression   float64 // 移動以外で攻撃を選ぶ確率（残りは占領）
}

// NewRuleBot はseedから決まる個性を持つボットを生成します。
func NewRuleBot(side domain.SideID, seed uint64) *RuleBot {
	rng := rand.New(rand.NewPCG(seed, uint64(side)))
	return &RuleBot{
		side:         side,
		rng:          rng,
		ActionChance: 0.3 + rng.Float64()*0.5, // 0.3〜0.8
		BuildChance:  0.05 + rng.Float64()*0.1,
		Aggression:   rng.Float64(),
	}
}

func (b *RuleBot) Side() domain.SideID {
	return b.side
}

// Decide は1tick分の命令を生成します。何もしないtickでは空を返します。
func (b *RuleBot) Decide() []domain.Command {
	var commands []domain.Command
	for i := 0; i < botRobotsPerSide; i++ {
		if b.rng.Float64() >= b.ActionChance {
			continue
		}
		robot := b.robotNID(i)
		switch r := b.rng.Float64(); {
		case r < b.BuildChance:
			commands = append(commands, b.randomBuild())
		case r < 0.6:
			commands = append(commands, domain.MoveCommand{
				RobotNID:  robot,
				TargetPos: b.randomPosition(),
			})
		case b.rng.Float64() < b.Aggression:
			commands = append(commands, domain.AttackCommand{RobotNID: robot, TargetNID: b.enemyNID()})
		default:
			commands = append(commands, domain.CaptureCommand{RobotNID: robot, TargetNID: b.enemyBaseNID()})
		}
	}
	return commands
}

// Fill は1tick分の命令をbuilderに追加し、追加した数を返します。
func (b *RuleBot) Fill(builder *BatchBuilder) int {
	n := 0
	for _, cmd := range b.Decide() {
		if err := builder.Add(cmd); err == nil {
			n++
		}
	}
	return n
}

func (b *RuleBot) robotNID(i int) uint32 {
	return uint32(b.side)*botNIDStride + uint32(i)
}

func (b *RuleBot) enemySide() domain.SideID {
	for {
		s := domain.SideID(1 + b.rng.IntN(domain.MaxSideCount))
		if s != b.side {
			return s
		}
	}
}

func (b *RuleBot) enemyNID() uint32 {
	return uint32(b.enemySide())*botNIDStride + uint32(b.rng.IntN(botRobotsPerSide))
}

func (b *RuleBot) enemyBaseNID() uint32 {
	return uint32(b.enemySide())*botNIDStride + botBaseNIDOffset
}

func (b *RuleBot) randomPosition() domain.Vector3 {
	return domain.Vector3{
		X: float32((b.rng.Float64()*2 - 1) * botArenaHalfWidth),
		Y: 0,
		Z: float32((b.rng.Float64()*2 - 1) * botArenaHalfWidth),
	}
}

func (b *RuleBot) randomBuild() domain.BuildCommand {
	kind := func() domain.RobotUnitKind {
		return domain.RobotUnitKind(b.rng.IntN(int(domain.MaxRobotUnitKind) + 1))
	}
	cmd := domain.BuildCommand{
		Chassis:       kind(),
		Hull:          kind(),
		Head:          kind(),
		RobotCount:    uint8(1 + b.rng.IntN(4)),
		TargetBaseNID: uint32(b.side)*botNIDStride + botBaseNIDOffset,
	}
	slots := 1 + b.rng.IntN(domain.MaxWeaponCount)
	for i := 0; i < slots; i++ {
		cmd.Weapons[i] = kind()
	}
	return cmd
}
