package application

import (
	"fmt"

	"lockstep/server/domain"
	"lockstep/utils"
)

// Validator はデコード済みメッセージの値域を検証します。
type Validator interface {
	ValidateBatch(batch *domain.CommandBatch) error
	ValidateJoin(join *domain.Join) error
}

// SimpleValidator は最低限の値域検証を提供するデフォルト実装。
// MaxUsernameLen が0なら長さ上限を設けない
type SimpleValidator struct {
	MaxUsernameLen int
}

var _ Validator = SimpleValidator{}

func (SimpleValidator) ValidateBatch(batch *domain.CommandBatch) error {
	if !batch.TargetSide.IsValid() {
		return fmt.Errorf("%w: target side %d", domain.ErrInvalidFieldValue, uint8(batch.TargetSide))
	}
	for i, cmd := range batch.Commands {
		if err := validateCommand(cmd); err != nil {
			return fmt.Errorf("command %d: %w", i, err)
		}
	}
	return nil
}

func (v SimpleValidator) ValidateJoin(join *domain.Join) error {
	if !join.PlayerSide.IsValid() {
		return fmt.Errorf("%w: player side %d", domain.ErrInvalidFieldValue, uint8(join.PlayerSide))
	}
	if join.Username == "" {
		return fmt.Errorf("%w: username is required", domain.ErrInvalidFieldValue)
	}
	if v.MaxUsernameLen > 0 && len(join.Username) > v.MaxUsernameLen {
		return fmt.Errorf("%w: username longer than %d bytes", domain.ErrInvalidFieldValue, v.MaxUsernameLen)
	}
	return nil
}

func validateCommand(cmd domain.Command) error {
	cmd, err := domain.NormalizeCommand(cmd)
	if err != nil {
		return err
	}
	switch c := cmd.(type) {
	case domain.MoveCommand:
		if !utils.FiniteVector(c.TargetPos) {
			return fmt.Errorf("%w: move target %+v", domain.ErrInvalidFieldValue, c.TargetPos)
		}
	case domain.BuildCommand:
		for _, k := range []domain.RobotUnitKind{c.Chassis, c.Hull, c.Head} {
			if !k.IsKnown() {
				return fmt.Errorf("%w: unit kind %d", domain.ErrInvalidFieldValue, uint32(k))
			}
		}
		for _, w := range c.Weapons {
			if !w.IsKnown() {
				return fmt.Errorf("%w: weapon kind %d", domain.ErrInvalidFieldValue, uint32(w))
			}
		}
		if c.RobotCount == 0 {
			return fmt.Errorf("%w: robot count is zero", domain.ErrInvalidFieldValue)
		}
	case domain.AttackCommand, domain.CaptureCommand:
	default:
		return fmt.Errorf("%w: %T", domain.ErrUnknownCommandTag, cmd)
	}
	return nil
}
