package domain

import "fmt"

// SideID は対戦する勢力の識別子 (u8)
// 0 は中立・勢力なしを表し、実際の勢力が必要な場面では使わない
type SideID uint8

const (
	SideNone   SideID = 0
	SideYellow SideID = 1
	SideRed    SideID = 2
	SideBlue   SideID = 3
	SideGreen  SideID = 4
)

// MaxSideCount は1試合の勢力数の上限
const MaxSideCount = 4

func (s SideID) IsValid() bool {
	return s >= SideYellow && s <= SideGreen
}

func (s SideID) String() string {
	switch s {
	case SideNone:
		return "none"
	case SideYellow:
		return "yellow"
	case SideRed:
		return "red"
	case SideBlue:
		return "blue"
	case SideGreen:
		return "green"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

// ParseSideID は勢力名または数値からSideIDを返す
func ParseSideID(s string) (SideID, error) {
	switch s {
	case "yellow", "1":
		return SideYellow, nil
	case "red", "2":
		return SideRed, nil
	case "blue", "3":
		return SideBlue, nil
	case "green", "4":
		return SideGreen, nil
	default:
		return SideNone, fmt.Errorf("%w: side %q", ErrInvalidFieldValue, s)
	}
}
