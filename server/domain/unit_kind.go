package domain

// RobotUnitKind はロボットのパーツ種別 (u32)
// シャーシ・装甲・ヘッド・武器で同じ数値空間を共有する
type RobotUnitKind uint32

// RobotUnitKindEmpty は空スロットを表す。Buildの武器スロットでも有効な値
const RobotUnitKindEmpty RobotUnitKind = 0

// 武器の種別
const (
	WeaponMachineGun   RobotUnitKind = 1
	WeaponCannon       RobotUnitKind = 2
	WeaponMissile      RobotUnitKind = 3
	WeaponFlamethrower RobotUnitKind = 4
	WeaponMortar       RobotUnitKind = 5
	WeaponLaser        RobotUnitKind = 6
	WeaponBomb         RobotUnitKind = 7
	WeaponPlasma       RobotUnitKind = 8
	WeaponElectric     RobotUnitKind = 9
	WeaponRepair       RobotUnitKind = 10
)

// MaxRobotUnitKind は既知の種別の最大値
const MaxRobotUnitKind = WeaponRepair

func (k RobotUnitKind) IsKnown() bool {
	return k <= MaxRobotUnitKind
}

func (k RobotUnitKind) IsEmpty() bool {
	return k == RobotUnitKindEmpty
}
